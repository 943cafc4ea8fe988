package sampler

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-sampler/graph"
	"github.com/cwbudde/algo-sampler/pcm"
	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"
)

// masterToneRangeDB is the shelf gain at full master tone deflection.
const masterToneRangeDB = 30

// Engine is the 16-pad sampler.
type Engine struct {
	ctx  context.Context
	gctx graph.Context
	opts Options

	pads [NumPads]*Pad

	master    graph.Gain
	lowShelf  graph.BiquadFilter
	highShelf graph.BiquadFilter
	panner    graph.StereoPanner

	masterVolume float64
	masterPan    float64
	masterTone   float64
	pitchShift   float64
	envelope     Envelope
}

// New builds an engine on gctx. Its output is not connected; call Connect.
func New(ctx context.Context, gctx graph.Context, opts Options) (*Engine, error) {
	if gctx == nil {
		return nil, errors.New("sampler: nil graph context")
	}
	e := &Engine{
		ctx:          logger.WithContext(ctx),
		gctx:         gctx,
		opts:         opts.sanitize(),
		master:       gctx.NewGain(),
		lowShelf:     gctx.NewBiquadFilter(),
		highShelf:    gctx.NewBiquadFilter(),
		panner:       gctx.NewStereoPanner(),
		masterVolume: 1,
		envelope:     DefaultEnvelope(),
	}
	e.lowShelf.SetType(graph.LowShelf)
	e.highShelf.SetType(graph.HighShelf)

	chain := []graph.Node{e.master, e.lowShelf, e.highShelf, e.panner}
	for i := 0; i+1 < len(chain); i++ {
		if err := chain[i].Connect(chain[i+1]); err != nil {
			return nil, errors.Wrapf(err, "connect master chain stage %v", i)
		}
	}

	for i := range e.pads {
		p, err := newPad(e.ctx, gctx, i, e.opts)
		if err != nil {
			return nil, err
		}
		if err := p.output().Connect(e.master); err != nil {
			return nil, errors.Wrapf(err, "connect pad %v", i)
		}
		e.pads[i] = p
	}

	e.SetMasterVolume(1)
	e.SetMasterTone(0)
	e.SetMasterPan(0)
	return e, nil
}

// Input returns the master gain, the node every pad feeds.
func (e *Engine) Input() graph.Node { return e.master }

// Connect routes the master output into dst. Composite sinks are resolved
// through their Input node.
func (e *Engine) Connect(dst graph.Sink) error {
	if dst == nil {
		return errors.New("sampler: connect to nil sink")
	}
	return e.panner.Connect(dst.Input())
}

// Disconnect removes the master output from dsts, or from everything when
// called without arguments.
func (e *Engine) Disconnect(dsts ...graph.Sink) {
	resolved := make([]graph.Sink, 0, len(dsts))
	for _, d := range dsts {
		if d != nil {
			resolved = append(resolved, d.Input())
		}
	}
	if len(dsts) > 0 && len(resolved) == 0 {
		return
	}
	e.panner.Disconnect(resolved...)
}

// Pad returns pad i.
func (e *Engine) Pad(i int) (*Pad, error) {
	if i < 0 || i >= NumPads {
		return nil, errors.Wrapf(ErrInvalidIndex, "pad %v", i)
	}
	return e.pads[i], nil
}

// PlayPad triggers pad i. Failures are logged and otherwise ignored.
func (e *Engine) PlayPad(i int, velocity float64) {
	if err := e.play(i, velocity); err != nil {
		logger.Wf(e.ctx, "play pad=%v velocity=%v err %+v", i, velocity, err)
	}
}

func (e *Engine) play(i int, velocity float64) error {
	p, err := e.Pad(i)
	if err != nil {
		return err
	}
	return p.Play(velocity, e.TriggerContext())
}

// TriggerContext returns the engine-wide trigger configuration.
func (e *Engine) TriggerContext() TriggerContext {
	return TriggerContext{PitchShift: e.pitchShift, Envelope: e.envelope}
}

// LoadSample sets the buffer of pad i. nil clears the pad's buffer.
func (e *Engine) LoadSample(i int, b *pcm.Buffer) {
	p, err := e.Pad(i)
	if err != nil {
		logger.Wf(e.ctx, "load sample err %+v", err)
		return
	}
	p.LoadBuffer(b)
	if b != nil {
		logger.Tf(e.ctx, "pad=%v loaded %v frames, %v channels at %vHz", i, b.Len(), b.NumChannels(), b.SampleRate())
	}
}

// ClearPad removes the buffer of pad i and stops its voices.
func (e *Engine) ClearPad(i int) {
	e.LoadSample(i, nil)
}

func (e *Engine) withPad(op string, i int, fn func(*Pad) error) {
	p, err := e.Pad(i)
	if err == nil {
		err = fn(p)
	}
	if err != nil {
		logger.Wf(e.ctx, "%v err %+v", op, err)
	}
}

// SetPadVolume sets the gain of pad i.
func (e *Engine) SetPadVolume(i int, v float64) {
	e.withPad("set pad volume", i, func(p *Pad) error { return p.SetVolume(v) })
}

// SetPadPan sets the stereo position of pad i.
func (e *Engine) SetPadPan(i int, v float64) {
	e.withPad("set pad pan", i, func(p *Pad) error { return p.SetPan(v) })
}

// SetPadPitch sets the playback-rate multiplier of pad i.
func (e *Engine) SetPadPitch(i int, v float64) {
	e.withPad("set pad pitch", i, func(p *Pad) error { return p.SetPitch(v) })
}

// SetPadTrimStart sets the region start of pad i.
func (e *Engine) SetPadTrimStart(i int, v float64) {
	e.withPad("set pad trim start", i, func(p *Pad) error { return p.SetTrimStart(v) })
}

// SetPadTrimEnd sets the region end of pad i.
func (e *Engine) SetPadTrimEnd(i int, v float64) {
	e.withPad("set pad trim end", i, func(p *Pad) error { return p.SetTrimEnd(v) })
}

// SetPadTone sets the tone of pad i.
func (e *Engine) SetPadTone(i int, v float64) {
	e.withPad("set pad tone", i, func(p *Pad) error { return p.SetTone(v) })
}

// SetPadReverse switches reversed playback of pad i.
func (e *Engine) SetPadReverse(i int, on bool) {
	e.withPad("set pad reverse", i, func(p *Pad) error { p.SetReverse(on); return nil })
}

// SetPadMidiNote maps pad i to a MIDI note.
func (e *Engine) SetPadMidiNote(i int, note int) {
	e.withPad("set pad midi note", i, func(p *Pad) error { p.SetMidiNote(note); return nil })
}

// SetPadName sets the display name of pad i.
func (e *Engine) SetPadName(i int, name string) {
	e.withPad("set pad name", i, func(p *Pad) error { p.SetName(name); return nil })
}

// SetMasterVolume sets the master gain.
func (e *Engine) SetMasterVolume(v float64) {
	if !finite(v) {
		logger.Wf(e.ctx, "set master volume err %+v", errors.Wrapf(ErrInvalidValue, "volume %v", v))
		return
	}
	e.masterVolume = v
	e.master.Gain().SetValueAtTime(v, e.gctx.CurrentTime())
}

// MasterVolume returns the master gain.
func (e *Engine) MasterVolume() float64 { return e.masterVolume }

// SetMasterPan sets the master stereo position, clamped to [-1, 1].
func (e *Engine) SetMasterPan(v float64) {
	if !finite(v) {
		logger.Wf(e.ctx, "set master pan err %+v", errors.Wrapf(ErrInvalidValue, "pan %v", v))
		return
	}
	e.masterPan = core.Clamp(v, -1, 1)
	e.panner.Pan().SetValueAtTime(e.masterPan, e.gctx.CurrentTime())
}

// MasterPan returns the master stereo position.
func (e *Engine) MasterPan() float64 { return e.masterPan }

// SetMasterTone tilts the master chain. Negative values raise the high
// shelf, positive values cut the low shelf, both by up to 30 dB.
func (e *Engine) SetMasterTone(v float64) {
	if !finite(v) {
		logger.Wf(e.ctx, "set master tone err %+v", errors.Wrapf(ErrInvalidValue, "tone %v", v))
		return
	}
	e.masterTone = core.Clamp(v, -1, 1)

	var low, high float64
	switch {
	case e.masterTone < 0:
		high = -e.masterTone * masterToneRangeDB
	case e.masterTone > 0:
		low = -e.masterTone * masterToneRangeDB
	}
	now := e.gctx.CurrentTime()
	e.lowShelf.Gain().SetValueAtTime(low, now)
	e.highShelf.Gain().SetValueAtTime(high, now)
}

// MasterTone returns the master tilt in [-1, 1].
func (e *Engine) MasterTone() float64 { return e.masterTone }

// SetPitchShift sets the global transposition in semitones.
func (e *Engine) SetPitchShift(semitones float64) {
	if !finite(semitones) {
		logger.Wf(e.ctx, "set pitch shift err %+v", errors.Wrapf(ErrInvalidValue, "shift %v", semitones))
		return
	}
	e.pitchShift = semitones
}

// PitchShift returns the global transposition in semitones.
func (e *Engine) PitchShift() float64 { return e.pitchShift }

// SetEnvelope replaces the global envelope. Negative or non-finite times
// fall back to their defaults.
func (e *Engine) SetEnvelope(env Envelope) {
	e.envelope = env.sanitize()
}

// Envelope returns the global envelope.
func (e *Engine) Envelope() Envelope { return e.envelope }

// PadForNote returns the first pad mapped to a MIDI note.
func (e *Engine) PadForNote(note int) (int, bool) {
	for i, p := range e.pads {
		if p.midiNote == note {
			return i, true
		}
	}
	return 0, false
}

// AutomationParams returns the native parameters a host may automate
// directly, keyed by parameter name. Values written through them bypass
// the setters and are not reflected in State.
func (e *Engine) AutomationParams() map[string]graph.Param {
	params := make(map[string]graph.Param, 1+3*NumPads)
	params["masterVolume"] = e.master.Gain()
	for i, p := range e.pads {
		params[fmt.Sprintf("pad%d_volume", i)] = p.gain.Gain()
		params[fmt.Sprintf("pad%d_pan", i)] = p.panner.Pan()
		params[fmt.Sprintf("pad%d_filter_frequency", i)] = p.filter.Frequency()
	}
	return params
}

// State exports the engine settings.
func (e *Engine) State() *State {
	s := &State{
		Version:      StateVersion,
		MasterVolume: ptr(e.masterVolume),
		Pads:         make([]*PadState, NumPads),
	}
	for i, p := range e.pads {
		ps := p.State()
		s.Pads[i] = &ps
	}
	return s
}

// SetState applies s. Every pad without an entry in s is reset and
// cleared; pads with an entry receive only the fields present. Invalid
// fields are logged and skipped.
func (e *Engine) SetState(s *State) {
	if s == nil {
		return
	}
	if s.MasterVolume != nil {
		e.SetMasterVolume(*s.MasterVolume)
	}
	for i, p := range e.pads {
		if i >= len(s.Pads) || s.Pads[i] == nil {
			p.reset()
			continue
		}
		if err := p.SetState(*s.Pads[i]); err != nil {
			logger.Wf(e.ctx, "restore pad=%v err %+v", i, err)
		}
	}
}
