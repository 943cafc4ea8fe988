package sampler

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

const (
	// NumPads is the number of pads of an Engine.
	NumPads = 16
	// BaseNote is the MIDI note of pad 0; pad i defaults to BaseNote+i.
	BaseNote = 36
	// StateVersion is written into every exported State.
	StateVersion = "1.0.0"

	DefaultMaxPolyphony    = 3
	DefaultReleaseFraction = 0.25
	DefaultStopMargin      = 0.05
	DefaultReapMargin      = 0.5
)

// envFloor is the near-silent level envelopes start from and return to.
const envFloor = 0.0001

// Options configures voice scheduling.
type Options struct {
	// MaxPolyphony bounds the voices per pad.
	MaxPolyphony int
	// ReleaseFraction caps the ADSR release at this fraction of the played
	// region, so short regions are not cut off mid-release.
	ReleaseFraction float64
	// StopMargin is added to the region length when scheduling a voice's
	// stop, in seconds.
	StopMargin float64
	// ReapMargin is how long past its expected end a voice may run before
	// it is force-stopped on the next trigger, in seconds.
	ReapMargin float64
}

// DefaultOptions returns the stock scheduling options.
func DefaultOptions() Options {
	return Options{
		MaxPolyphony:    DefaultMaxPolyphony,
		ReleaseFraction: DefaultReleaseFraction,
		StopMargin:      DefaultStopMargin,
		ReapMargin:      DefaultReapMargin,
	}
}

func (o Options) sanitize() Options {
	def := DefaultOptions()
	if o.MaxPolyphony < 1 {
		o.MaxPolyphony = def.MaxPolyphony
	}
	if !(o.ReleaseFraction > 0 && o.ReleaseFraction <= 1) {
		o.ReleaseFraction = def.ReleaseFraction
	}
	if !(o.StopMargin >= 0) || math.IsInf(o.StopMargin, 0) {
		o.StopMargin = def.StopMargin
	}
	if !(o.ReapMargin >= 0) || math.IsInf(o.ReapMargin, 0) {
		o.ReapMargin = def.ReapMargin
	}
	return o
}

// Envelope is the global ADSR configuration. Attack, Decay and Release are
// in seconds; Sustain is a level relative to the trigger velocity.
type Envelope struct {
	Enabled bool
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// DefaultEnvelope returns the stock envelope, disabled.
func DefaultEnvelope() Envelope {
	return Envelope{Attack: 0.01, Decay: 0.1, Sustain: 0.8, Release: 0.15}
}

// sanitize replaces negative or non-finite fields with their defaults and
// clamps Sustain to [0, 1]. Zero is a valid time.
func (e Envelope) sanitize() Envelope {
	def := DefaultEnvelope()
	fix := func(v, d float64) float64 {
		if !(v >= 0) || math.IsInf(v, 0) {
			return d
		}
		return v
	}
	e.Attack = fix(e.Attack, def.Attack)
	e.Decay = fix(e.Decay, def.Decay)
	e.Release = fix(e.Release, def.Release)
	e.Sustain = core.Clamp(fix(e.Sustain, def.Sustain), 0, 1)
	return e
}

// TriggerContext is the engine-wide configuration a trigger reads. It is
// passed by value so one trigger sees one consistent snapshot.
type TriggerContext struct {
	// PitchShift in semitones, applied on top of the pad pitch.
	PitchShift float64
	Envelope   Envelope
}

// Rate returns the playback rate for a pad pitch under this context.
func (c TriggerContext) Rate(pitch float64) float64 {
	if c.PitchShift == 0 {
		return pitch
	}
	return pitch * math.Pow(2, c.PitchShift/12)
}
