package sampler

import (
	"context"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-sampler/graph"
	"github.com/cwbudde/algo-sampler/pcm"
	"github.com/ossrs/go-oryx-lib/errors"
)

const padFilterQ = 1.0

// Pad is one sample slot: a buffer, its playback settings and the voices
// currently playing it.
type Pad struct {
	index int
	ctx   context.Context
	gctx  graph.Context

	store  bufferStore
	voices *scheduler

	gain   graph.Gain
	filter graph.BiquadFilter
	panner graph.StereoPanner

	trimStart float64
	trimEnd   float64
	pitch     float64
	tone      float64
	cutoff    float64
	volume    float64
	pan       float64
	midiNote  int
	name      string
}

func newPad(ctx context.Context, gctx graph.Context, index int, opts Options) (*Pad, error) {
	p := &Pad{
		index:    index,
		ctx:      ctx,
		gctx:     gctx,
		gain:     gctx.NewGain(),
		filter:   gctx.NewBiquadFilter(),
		panner:   gctx.NewStereoPanner(),
		midiNote: BaseNote + index,
		name:     fmt.Sprintf("Pad %d", index+1),
	}
	p.filter.SetType(graph.Lowpass)
	p.filter.Q().SetValue(padFilterQ)

	if err := p.gain.Connect(p.filter); err != nil {
		return nil, errors.Wrapf(err, "pad %v connect gain", index)
	}
	if err := p.filter.Connect(p.panner); err != nil {
		return nil, errors.Wrapf(err, "pad %v connect filter", index)
	}
	p.voices = newScheduler(ctx, gctx, p.gain, index, opts)

	p.reset()
	return p, nil
}

// Input returns the node voices feed into.
func (p *Pad) Input() graph.Node { return p.gain }

func (p *Pad) output() graph.Node { return p.panner }

// Index returns the pad's position, 0 to NumPads-1.
func (p *Pad) Index() int { return p.index }

// Play triggers the pad. velocity is clamped to [0, 1].
func (p *Pad) Play(velocity float64, tc TriggerContext) error {
	if math.IsNaN(velocity) {
		return errors.Wrapf(ErrInvalidValue, "pad %v velocity %v", p.index, velocity)
	}
	return p.voices.trigger(core.Clamp(velocity, 0, 1), region{
		buffer:    p.store.active,
		trimStart: p.trimStart,
		trimEnd:   p.trimEnd,
		pitch:     p.pitch,
	}, tc)
}

// ActiveVoices returns the number of voices in the pool.
func (p *Pad) ActiveVoices() int { return p.voices.active() }

// LoadBuffer sets the sample. nil clears the pad's buffers and stops its
// voices.
func (p *Pad) LoadBuffer(b *pcm.Buffer) {
	if b == nil {
		p.voices.stopAll()
		p.store.clear()
		return
	}
	p.store.load(b)
}

// Buffer returns the buffer used for playback, reversed when reverse is on.
func (p *Pad) Buffer() *pcm.Buffer { return p.store.active }

// OriginalBuffer returns the buffer as loaded.
func (p *Pad) OriginalBuffer() *pcm.Buffer { return p.store.original }

// SetReverse switches playback to the reversed copy of the buffer.
func (p *Pad) SetReverse(on bool) { p.store.setReverse(on) }

// Reverse reports whether reversed playback is on.
func (p *Pad) Reverse() bool { return p.store.reverse }

// SetTone sets the tone in [-1, 1] and moves the lowpass cutoff to match.
func (p *Pad) SetTone(v float64) error {
	if !finite(v) {
		return errors.Wrapf(ErrInvalidValue, "pad %v tone %v", p.index, v)
	}
	p.tone = core.Clamp(v, -1, 1)
	p.cutoff = ToneToCutoff(p.tone)
	p.filter.Frequency().SetValueAtTime(p.cutoff, p.gctx.CurrentTime())
	return nil
}

// Tone returns the tone in [-1, 1].
func (p *Pad) Tone() float64 { return p.tone }

// Cutoff returns the lowpass cutoff in Hz derived from the tone.
func (p *Pad) Cutoff() float64 { return p.cutoff }

// SetVolume sets the pad gain. Values above 1 boost.
func (p *Pad) SetVolume(v float64) error {
	if !finite(v) {
		return errors.Wrapf(ErrInvalidValue, "pad %v volume %v", p.index, v)
	}
	p.volume = v
	p.gain.Gain().SetValueAtTime(v, p.gctx.CurrentTime())
	return nil
}

// Volume returns the pad gain.
func (p *Pad) Volume() float64 { return p.volume }

// SetPan sets the stereo position, clamped to [-1, 1].
func (p *Pad) SetPan(v float64) error {
	if !finite(v) {
		return errors.Wrapf(ErrInvalidValue, "pad %v pan %v", p.index, v)
	}
	p.pan = core.Clamp(v, -1, 1)
	p.panner.Pan().SetValueAtTime(p.pan, p.gctx.CurrentTime())
	return nil
}

// Pan returns the stereo position in [-1, 1].
func (p *Pad) Pan() float64 { return p.pan }

// SetPitch sets the playback-rate multiplier. It must be positive.
func (p *Pad) SetPitch(v float64) error {
	if !finite(v) || v <= 0 {
		return errors.Wrapf(ErrInvalidValue, "pad %v pitch %v", p.index, v)
	}
	p.pitch = v
	return nil
}

// Pitch returns the playback-rate multiplier.
func (p *Pad) Pitch() float64 { return p.pitch }

// SetTrimStart sets the region start as a fraction of the buffer, clamped
// to [0, 1].
func (p *Pad) SetTrimStart(v float64) error {
	if !finite(v) {
		return errors.Wrapf(ErrInvalidValue, "pad %v trimStart %v", p.index, v)
	}
	p.trimStart = core.Clamp(v, 0, 1)
	return nil
}

// TrimStart returns the region start as a fraction of the buffer.
func (p *Pad) TrimStart() float64 { return p.trimStart }

// SetTrimEnd sets the region end as a fraction of the buffer, clamped to
// [0, 1].
func (p *Pad) SetTrimEnd(v float64) error {
	if !finite(v) {
		return errors.Wrapf(ErrInvalidValue, "pad %v trimEnd %v", p.index, v)
	}
	p.trimEnd = core.Clamp(v, 0, 1)
	return nil
}

// TrimEnd returns the region end as a fraction of the buffer.
func (p *Pad) TrimEnd() float64 { return p.trimEnd }

// SetMidiNote sets the note that triggers this pad, clamped to 0..127.
func (p *Pad) SetMidiNote(n int) {
	p.midiNote = min(max(n, 0), 127)
}

// MidiNote returns the note that triggers this pad.
func (p *Pad) MidiNote() int { return p.midiNote }

// SetName sets the display name.
func (p *Pad) SetName(name string) { p.name = name }

// Name returns the display name.
func (p *Pad) Name() string { return p.name }

// State returns every persisted field of the pad.
func (p *Pad) State() PadState {
	return PadState{
		TrimStart: ptr(p.trimStart),
		TrimEnd:   ptr(p.trimEnd),
		Volume:    ptr(p.volume),
		Pan:       ptr(p.pan),
		Pitch:     ptr(p.pitch),
		Tone:      ptr(p.tone),
		Reverse:   ptr(p.store.reverse),
		MidiNote:  ptr(p.midiNote),
		Name:      ptr(p.name),
	}
}

// SetState applies the fields present in s and leaves the others alone.
// Invalid fields are skipped; the first such error is returned after all
// valid fields have been applied.
func (p *Pad) SetState(s PadState) error {
	var first error
	apply := func(v *float64, set func(float64) error) {
		if v == nil {
			return
		}
		if err := set(*v); err != nil && first == nil {
			first = err
		}
	}

	apply(s.TrimStart, p.SetTrimStart)
	apply(s.TrimEnd, p.SetTrimEnd)
	apply(s.Volume, p.SetVolume)
	apply(s.Pan, p.SetPan)
	apply(s.Pitch, p.SetPitch)
	apply(s.Tone, p.SetTone)
	if s.Reverse != nil {
		p.SetReverse(*s.Reverse)
	}
	if s.MidiNote != nil {
		p.SetMidiNote(*s.MidiNote)
	}
	if s.Name != nil {
		p.SetName(*s.Name)
	}
	return first
}

// reset stops all voices, clears the buffer and restores the default
// playback and mix settings. The MIDI note and name are kept.
func (p *Pad) reset() {
	p.LoadBuffer(nil)
	p.trimStart, p.trimEnd = 0, 1
	p.pitch = 1
	p.store.setReverse(false)
	_ = p.SetTone(0)
	_ = p.SetVolume(1)
	_ = p.SetPan(0)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func ptr[T any](v T) *T { return &v }
