// Package webdemo hosts the sampler engine for the browser build. It keeps
// the JavaScript bridge in web/wasm a thin shell of argument conversion.
package webdemo

import (
	"bytes"
	"context"

	"github.com/cwbudde/algo-sampler/graph"
	"github.com/cwbudde/algo-sampler/midi"
	"github.com/cwbudde/algo-sampler/param"
	"github.com/cwbudde/algo-sampler/pcm"
	"github.com/cwbudde/algo-sampler/sampler"
	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"
)

// Host owns a rendering context, the sampler engine on it and a MIDI router.
type Host struct {
	ctx    context.Context
	gctx   *graph.OfflineContext
	engine *sampler.Engine
	router *midi.Router
}

// NewHost creates a host rendering at sampleRate.
func NewHost(ctx context.Context, sampleRate float64, opts sampler.Options) (*Host, error) {
	gctx, err := graph.NewOfflineContext(sampleRate)
	if err != nil {
		return nil, errors.Wrapf(err, "graph context")
	}
	e, err := sampler.New(ctx, gctx, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "sampler")
	}
	if err := e.Connect(gctx.Destination()); err != nil {
		return nil, errors.Wrapf(err, "connect")
	}
	return &Host{
		ctx:    logger.WithContext(ctx),
		gctx:   gctx,
		engine: e,
		router: midi.NewRouter(ctx, e),
	}, nil
}

// Engine returns the hosted engine.
func (h *Host) Engine() *sampler.Engine { return h.engine }

// LoadSample decodes channels of float32 PCM, as delivered by the Web Audio
// decoder, into pad. Empty channels clear the pad.
func (h *Host) LoadSample(pad int, sampleRate float64, channels [][]float32) error {
	if _, err := h.engine.Pad(pad); err != nil {
		return err
	}
	if len(channels) == 0 || len(channels[0]) == 0 {
		h.engine.ClearPad(pad)
		return nil
	}
	data := make([][]float64, len(channels))
	for ch, src := range channels {
		data[ch] = make([]float64, len(src))
		for i, v := range src {
			data[ch][i] = float64(v)
		}
	}
	b, err := pcm.New(sampleRate, data...)
	if err != nil {
		return errors.Wrapf(err, "pad %v", pad)
	}
	h.engine.LoadSample(pad, b)
	return nil
}

// LoadWAV decodes a WAV file image into pad.
func (h *Host) LoadWAV(pad int, wav []byte) error {
	if _, err := h.engine.Pad(pad); err != nil {
		return err
	}
	b, err := pcm.Decode(bytes.NewReader(wav))
	if err != nil {
		return errors.Wrapf(err, "pad %v", pad)
	}
	h.engine.LoadSample(pad, b)
	return nil
}

// PlayPad triggers pad at velocity.
func (h *Host) PlayPad(pad int, velocity float64) {
	h.engine.PlayPad(pad, velocity)
}

// SetParam sets a host parameter by key.
func (h *Host) SetParam(key string, v float64) error {
	return param.Set(h.engine, key, v)
}

// Param returns a host parameter by key.
func (h *Host) Param(key string) (float64, error) {
	return param.Get(h.engine, key)
}

// Params lists the host parameters.
func (h *Host) Params() []param.Descriptor {
	return param.Descriptors()
}

// State returns the engine state as JSON.
func (h *Host) State() (string, error) {
	data, err := h.engine.State().Marshal()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetState applies a JSON state.
func (h *Host) SetState(data string) error {
	s, err := sampler.ParseState(h.ctx, []byte(data))
	if err != nil {
		return err
	}
	h.engine.SetState(s)
	return nil
}

// MIDIMessage routes a raw MIDI message and reports whether a pad played.
func (h *Host) MIDIMessage(data []byte) bool {
	return h.router.Handle(data)
}

// Render fills dst with interleaved stereo frames.
func (h *Host) Render(dst []float32) error {
	return h.gctx.RenderInterleaved(dst)
}

// RenderFrames renders the given number of stereo frames and returns them
// interleaved. A count of zero or less renders nothing.
func (h *Host) RenderFrames(frames int) ([]float32, error) {
	if frames <= 0 {
		return nil, nil
	}
	buf := make([]float32, 2*frames)
	if err := h.Render(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
