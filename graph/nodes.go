package graph

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
	"github.com/cwbudde/algo-vecmath"
)

type gainNode struct {
	*node
	gain   *param
	values []float64
}

func (g *gainNode) Gain() Param { return g.gain }

func (g *gainNode) render(in, out block, frame int64) {
	if v, ok := g.gain.constant(frame); ok {
		vecmath.ScaleBlock(out[0], in[0], v)
		vecmath.ScaleBlock(out[1], in[1], v)
		return
	}
	g.gain.fill(g.values, frame)
	vecmath.MulBlock(out[0], in[0], g.values)
	vecmath.MulBlock(out[1], in[1], g.values)
}

type pannerNode struct {
	*node
	pan    *param
	values []float64
}

func (p *pannerNode) Pan() Param { return p.pan }

func (p *pannerNode) render(in, out block, frame int64) {
	if v, ok := p.pan.constant(frame); ok {
		for i := range p.values {
			p.values[i] = v
		}
	} else {
		p.pan.fill(p.values, frame)
	}

	for i := range in[0] {
		l, r := panStereo(in[0][i], in[1][i], p.values[i])
		out[0][i], out[1][i] = l, r
	}
}

// panStereo applies the equal-power law for a stereo input: the channel
// on the side moved away from is folded into the other one.
func panStereo(l, r, pan float64) (float64, float64) {
	if pan <= 0 {
		x := (pan + 1) * math.Pi / 2
		return l + r*math.Cos(x), r * math.Sin(x)
	}
	x := pan * math.Pi / 2
	return l * math.Cos(x), r + l*math.Sin(x)
}

// shelfQ gives the shelf slope S = 1.
var shelfQ = 1 / math.Sqrt2

type biquadNode struct {
	*node
	kind      FilterType
	frequency *param
	q         *param
	gain      *param

	sections [2]biquad.Section
	last     [3]float64
	dirty    bool
}

func (f *biquadNode) Type() FilterType { return f.kind }

func (f *biquadNode) SetType(t FilterType) { f.kind, f.dirty = t, true }

func (f *biquadNode) Frequency() Param { return f.frequency }

func (f *biquadNode) Q() Param { return f.q }

func (f *biquadNode) Gain() Param { return f.gain }

func (f *biquadNode) render(in, out block, frame int64) {
	t := f.ctx.frameTime(frame)
	cur := [3]float64{f.frequency.valueAt(t), f.q.valueAt(t), f.gain.valueAt(t)}
	if f.dirty || cur != f.last {
		c := f.design(cur[0], cur[1], cur[2])
		f.sections[0].Coefficients = c
		f.sections[1].Coefficients = c
		f.last, f.dirty = cur, false
	}
	f.sections[0].ProcessBlockTo(out[0], in[0])
	f.sections[1].ProcessBlockTo(out[1], in[1])
}

func (f *biquadNode) design(freq, q, gainDB float64) biquad.Coefficients {
	sr := f.ctx.sampleRate
	freq = core.Clamp(freq, 10, 0.49*sr)

	switch f.kind {
	case Highpass:
		return design.Highpass(freq, q, sr)
	case Bandpass:
		return design.Bandpass(freq, q, sr)
	case LowShelf:
		return design.LowShelf(freq, gainDB, shelfQ, sr)
	case HighShelf:
		return design.HighShelf(freq, gainDB, shelfQ, sr)
	case Peaking:
		return design.Peak(freq, gainDB, q, sr)
	case Notch:
		return design.Notch(freq, q, sr)
	case Allpass:
		return design.Allpass(freq, q, sr)
	default:
		return design.Lowpass(freq, q, sr)
	}
}
