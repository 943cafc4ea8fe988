package midi

import (
	"context"
	"time"

	"github.com/ossrs/go-oryx-lib/logger"
)

// DefaultDebounce is the minimum spacing of two triggers of the same note.
const DefaultDebounce = 50 * time.Millisecond

const (
	statusSystem = 0xF0
	commandMask  = 0xF0
	noteOn       = 0x90
)

// NoteOn is a decoded note-on message.
type NoteOn struct {
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// Decode parses a note-on message. System messages, other channel
// messages and note-on with velocity 0 report false.
func Decode(data []byte) (NoteOn, bool) {
	if len(data) == 0 {
		return NoteOn{}, false
	}
	status := data[0]
	if status >= statusSystem || status&commandMask != noteOn {
		return NoteOn{}, false
	}

	var ev NoteOn
	ev.Channel = status &^ commandMask
	if len(data) > 1 {
		ev.Note = data[1] & 0x7F
	}
	if len(data) > 2 {
		ev.Velocity = data[2] & 0x7F
	}
	if ev.Velocity == 0 {
		return NoteOn{}, false
	}
	return ev, true
}

// Target is the pad player driven by a Router. *sampler.Engine implements it.
type Target interface {
	PadForNote(note int) (int, bool)
	PlayPad(index int, velocity float64)
}

// Option configures a Router.
type Option func(*Router)

// WithDebounce sets the per-note debounce window. Zero disables it.
func WithDebounce(d time.Duration) Option {
	return func(r *Router) {
		if d >= 0 {
			r.debounce = d
		}
	}
}

// WithClock replaces the time source used for debouncing.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// Router routes note-on messages to pads by their MIDI note.
// It is not safe for concurrent use.
type Router struct {
	ctx      context.Context
	target   Target
	debounce time.Duration
	now      func() time.Time
	recent   [128]time.Time
}

// NewRouter returns a router that triggers pads of target.
func NewRouter(ctx context.Context, target Target, opts ...Option) *Router {
	r := &Router{
		ctx:      logger.WithContext(ctx),
		target:   target,
		debounce: DefaultDebounce,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Handle processes one raw MIDI message and reports whether a pad was
// triggered. Repeats of a note within the debounce window are dropped.
func (r *Router) Handle(data []byte) bool {
	ev, ok := Decode(data)
	if !ok {
		return false
	}

	now := r.now()
	last := r.recent[ev.Note]
	if !last.IsZero() && now.Sub(last) < r.debounce {
		return false
	}
	r.recent[ev.Note] = now

	pad, ok := r.target.PadForNote(int(ev.Note))
	if !ok {
		return false
	}

	velocity := min(1, float64(ev.Velocity)/127)
	logger.Tf(r.ctx, "midi note=%v pad=%v velocity=%v", ev.Note, pad, velocity)
	r.target.PlayPad(pad, velocity)
	return true
}

// Reset forgets the debounce history.
func (r *Router) Reset() {
	r.recent = [128]time.Time{}
}
