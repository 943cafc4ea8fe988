// Package analysis measures rendered audio for the command-line report.
package analysis

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-sampler/pcm"
	"github.com/cwbudde/algo-vecmath"
	"github.com/ossrs/go-oryx-lib/errors"
)

// MaxFFTSize bounds the analysis frame length.
const MaxFFTSize = 8192

// Report summarizes a rendered buffer.
type Report struct {
	Channels int
	Frames   int
	Duration float64
	// Peak is the largest absolute sample over all channels.
	Peak float64
	// RMS holds the root-mean-square level per channel.
	RMS []float64
	// Centroid is the power-weighted mean frequency of the channel mix in Hz.
	// It is 0 for silence.
	Centroid float64
}

// PeakDB returns Peak in dBFS, or -Inf for silence.
func (r Report) PeakDB() float64 {
	return ToDB(r.Peak)
}

// ToDB converts a linear amplitude to decibels.
func ToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}

// Analyze measures b.
func Analyze(b *pcm.Buffer) (Report, error) {
	if b == nil {
		return Report{}, errors.New("analysis: nil buffer")
	}
	r := Report{
		Channels: b.NumChannels(),
		Frames:   b.Len(),
		Duration: b.Duration(),
		RMS:      make([]float64, b.NumChannels()),
	}

	mix := make([]float64, b.Len())
	gain := 1 / float64(b.NumChannels())
	for ch := 0; ch < b.NumChannels(); ch++ {
		x := b.Channel(ch)
		r.Peak = max(r.Peak, Peak(x))
		r.RMS[ch] = RMS(x)
		for i, v := range x {
			mix[i] += v * gain
		}
	}

	c, err := SpectralCentroid(mix, b.SampleRate())
	if err != nil {
		return Report{}, errors.Wrapf(err, "centroid")
	}
	r.Centroid = c
	return r, nil
}

// Peak returns the largest absolute value of x.
func Peak(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return vecmath.MaxAbs(x)
}

// RMS returns the root-mean-square of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(vecmath.DotProduct(x, x) / float64(len(x)))
}

// SpectralCentroid returns the power-weighted mean frequency of x. The
// power spectrum is averaged over Hann-windowed frames with 50% overlap.
func SpectralCentroid(x []float64, sampleRate float64) (float64, error) {
	if !(sampleRate > 0) {
		return 0, errors.Errorf("analysis: invalid sample rate %v", sampleRate)
	}
	if len(x) < 2 {
		return 0, nil
	}

	n := frameSize(len(x))
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return 0, errors.Wrapf(err, "fft plan %v", n)
	}
	win := window.Generate(window.TypeHann, n, window.WithPeriodic())

	in := make([]complex128, n)
	out := make([]complex128, n)
	acc := make([]float64, n/2+1)

	for start := 0; start < len(x); start += n / 2 {
		for i := range in {
			v := 0.0
			if start+i < len(x) {
				v = x[start+i]
			}
			in[i] = complex(v*win[i], 0)
		}
		if err := plan.Forward(out, in); err != nil {
			return 0, errors.Wrapf(err, "fft at %v", start)
		}
		vecmath.AddBlockInPlace(acc, spectrum.Power(out[:len(acc)]))
		if start+n >= len(x) {
			break
		}
	}

	var num, den float64
	binHz := sampleRate / float64(n)
	for k, p := range acc {
		num += float64(k) * binHz * p
		den += p
	}
	if den == 0 {
		return 0, nil
	}
	return num / den, nil
}

// frameSize returns the power of two covering length, capped at MaxFFTSize.
func frameSize(length int) int {
	n := 2
	for n < length && n < MaxFFTSize {
		n *= 2
	}
	return n
}
