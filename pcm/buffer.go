package pcm

import (
	"math"

	"github.com/ossrs/go-oryx-lib/errors"
)

// Buffer holds de-interleaved float64 samples at a fixed sample rate.
// The zero value is not usable; construct with New.
type Buffer struct {
	channels   [][]float64
	sampleRate float64
}

// New returns a Buffer holding a copy of channels.
// All channels must have the same length.
func New(sampleRate float64, channels ...[]float64) (*Buffer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, errors.Errorf("pcm: sample rate must be > 0: %f", sampleRate)
	}
	if len(channels) == 0 {
		return nil, errors.New("pcm: at least one channel required")
	}

	n := len(channels[0])
	data := make([][]float64, len(channels))
	for ch, src := range channels {
		if len(src) != n {
			return nil, errors.Errorf("pcm: channel %d has %d frames, want %d", ch, len(src), n)
		}
		data[ch] = append([]float64(nil), src...)
	}

	return &Buffer{channels: data, sampleRate: sampleRate}, nil
}

// Silence returns a zero-filled buffer of the given shape.
func Silence(sampleRate float64, numChannels, frames int) (*Buffer, error) {
	if numChannels < 1 {
		return nil, errors.New("pcm: at least one channel required")
	}
	if frames < 0 {
		frames = 0
	}
	channels := make([][]float64, numChannels)
	for i := range channels {
		channels[i] = make([]float64, frames)
	}
	return New(sampleRate, channels...)
}

// SampleRate returns the sample rate in Hz.
func (b *Buffer) SampleRate() float64 { return b.sampleRate }

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int { return len(b.channels) }

// Len returns the number of frames per channel.
func (b *Buffer) Len() int { return len(b.channels[0]) }

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	return float64(b.Len()) / b.sampleRate
}

// Channel returns the samples of channel ch. The slice is shared with the
// buffer and must not be modified.
func (b *Buffer) Channel(ch int) []float64 {
	return b.channels[ch]
}

// At returns sample i of channel ch, or 0 outside the buffer.
func (b *Buffer) At(ch, i int) float64 {
	if ch < 0 || ch >= len(b.channels) || i < 0 || i >= len(b.channels[ch]) {
		return 0
	}
	return b.channels[ch][i]
}

// Reversed returns a new buffer with every channel time-reversed.
func (b *Buffer) Reversed() *Buffer {
	out := &Buffer{
		channels:   make([][]float64, len(b.channels)),
		sampleRate: b.sampleRate,
	}
	for ch, src := range b.channels {
		n := len(src)
		dst := make([]float64, n)
		for i := range src {
			dst[i] = src[n-1-i]
		}
		out.channels[ch] = dst
	}
	return out
}

// Equal reports whether b and o have the same rate, shape and bit-identical
// samples.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.sampleRate != o.sampleRate || len(b.channels) != len(o.channels) {
		return false
	}
	for ch := range b.channels {
		x, y := b.channels[ch], o.channels[ch]
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if math.Float64bits(x[i]) != math.Float64bits(y[i]) {
				return false
			}
		}
	}
	return true
}
