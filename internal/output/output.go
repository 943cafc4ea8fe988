// Package output plays a rendering graph through the system audio device.
//
// Builds with the headless tag replace the device with a stub that still
// pulls audio from the source, so command-line tools behave the same on
// machines without sound hardware.
package output

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ossrs/go-oryx-lib/errors"
)

// Channels is the channel count of the output stream.
const Channels = 2

// Source renders interleaved stereo float32 frames.
// *graph.OfflineContext implements it.
type Source interface {
	RenderInterleaved(dst []float32) error
}

// feeder converts a Source into the little-endian float32 byte stream the
// device reads. mu serializes rendering with control calls made through Do.
type feeder struct {
	mu  sync.Mutex
	src Source
	buf []float32
	err error
}

// Read fills p with whole frames. After the source fails it plays silence;
// the error is kept for Err.
func (f *feeder) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(p) / (4 * Channels) * Channels
	if n == 0 {
		return 0, nil
	}
	if cap(f.buf) < n {
		f.buf = make([]float32, n)
	}
	samples := f.buf[:n]

	if f.err == nil {
		if err := f.src.RenderInterleaved(samples); err != nil {
			f.err = errors.Wrapf(err, "render %v samples", n)
		}
	}
	if f.err != nil {
		clear(samples)
	}

	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
	}
	return 4 * n, nil
}

// Do runs fn while no audio is being rendered.
func (f *feeder) Do(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn()
}

// Err returns the first render error.
func (f *feeder) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
