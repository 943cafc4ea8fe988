package sampler

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/cwbudde/algo-sampler/pcm"
	"github.com/ossrs/go-oryx-lib/logger"
)

func TestMain(m *testing.M) {
	olw := logger.Switch(io.Discard)
	code := m.Run()
	logger.Switch(olw)
	os.Exit(code)
}

// captureLog routes trace and warning output to the returned buffer for
// the rest of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.Switch(&buf)
	t.Cleanup(func() { logger.Switch(io.Discard) })
	return &buf
}

func newTestEngine(t *testing.T) (*Engine, *fakeContext) {
	t.Helper()
	fc := newFakeContext()
	e, err := New(context.Background(), fc, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, fc
}

// testBuffer returns a mono buffer of the given length in seconds at 1kHz.
func testBuffer(t *testing.T, seconds float64) *pcm.Buffer {
	t.Helper()
	n := int(seconds * 1000)
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i%100) / 100
	}
	b, err := pcm.New(1000, data)
	if err != nil {
		t.Fatalf("pcm.New: %v", err)
	}
	return b
}

func mustPad(t *testing.T, e *Engine, i int) *Pad {
	t.Helper()
	p, err := e.Pad(i)
	if err != nil {
		t.Fatalf("Pad(%d): %v", i, err)
	}
	return p
}
