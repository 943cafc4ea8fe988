package sampler

import (
	"context"
	"math"
	"testing"

	"github.com/cwbudde/algo-sampler/graph"
	"github.com/cwbudde/algo-sampler/internal/testutil"
	"github.com/cwbudde/algo-sampler/pcm"
)

const offlineRate = 8000

func newOfflineEngine(t *testing.T) (*Engine, *graph.OfflineContext) {
	t.Helper()
	gctx, err := graph.NewOfflineContext(offlineRate)
	if err != nil {
		t.Fatalf("NewOfflineContext: %v", err)
	}
	e, err := New(context.Background(), gctx, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Connect(gctx.Destination()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return e, gctx
}

func renderSeconds(t *testing.T, gctx *graph.OfflineContext, seconds float64) ([]float64, []float64) {
	t.Helper()
	n := int(seconds * offlineRate)
	l := make([]float64, n)
	r := make([]float64, n)
	if err := gctx.Render(l, r); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return l, r
}

func TestOfflinePlayback(t *testing.T) {
	e, gctx := newOfflineEngine(t)
	dc, err := pcm.New(offlineRate, testutil.DC(0.5, offlineRate/10))
	if err != nil {
		t.Fatal(err)
	}
	e.LoadSample(0, dc)
	e.PlayPad(0, 1)
	if mustPad(t, e, 0).ActiveVoices() != 1 {
		t.Fatal("no voice")
	}

	l, r := renderSeconds(t, gctx, 0.3)
	testutil.RequireFinite(t, l)
	testutil.RequireNearlyEqual(t, "left plateau", l[600], 0.5, 1e-3)
	testutil.RequireNearlyEqual(t, "right plateau", r[600], 0.5, 1e-3)
	for i := 1600; i < len(l); i++ {
		if math.Abs(l[i]) > 1e-6 {
			t.Fatalf("output after region end at %d: %v", i, l[i])
		}
	}
	if n := mustPad(t, e, 0).ActiveVoices(); n != 0 {
		t.Fatalf("%d voices after playback ended", n)
	}
}

func TestOfflineVelocityAndVolume(t *testing.T) {
	e, gctx := newOfflineEngine(t)
	dc, _ := pcm.New(offlineRate, testutil.Ones(offlineRate/4))
	e.LoadSample(2, dc)
	e.SetPadVolume(2, 0.5)
	e.SetMasterVolume(0.5)
	e.PlayPad(2, 0.8)

	l, _ := renderSeconds(t, gctx, 0.2)
	testutil.RequireNearlyEqual(t, "gain product", l[1000], 0.8*0.5*0.5, 1e-3)
}

func TestOfflinePadPan(t *testing.T) {
	e, gctx := newOfflineEngine(t)
	dc, _ := pcm.New(offlineRate, testutil.Ones(offlineRate/4))
	e.LoadSample(0, dc)
	e.SetPadPan(0, 1)
	e.PlayPad(0, 1)

	l, r := renderSeconds(t, gctx, 0.2)
	testutil.RequireNearlyEqual(t, "left", l[1000], 0, 1e-3)
	testutil.RequireNearlyEqual(t, "right", r[1000], 2, 1e-3)
}

func TestOfflinePolyphony(t *testing.T) {
	e, gctx := newOfflineEngine(t)
	dc, _ := pcm.New(offlineRate, testutil.Ones(offlineRate))
	e.LoadSample(0, dc)

	for i := 0; i < 6; i++ {
		e.PlayPad(0, 1)
		renderSeconds(t, gctx, 0.01)
		if n := mustPad(t, e, 0).ActiveVoices(); n > DefaultMaxPolyphony {
			t.Fatalf("%d voices", n)
		}
	}
	l, _ := renderSeconds(t, gctx, 0.1)
	// Three overlapping unit voices.
	testutil.RequireNearlyEqual(t, "sum", l[len(l)-1], 3, 1e-3)
}

func TestOfflineReverse(t *testing.T) {
	e, gctx := newOfflineEngine(t)
	data := make([]float64, offlineRate/2)
	for i := range data {
		if i < len(data)/2 {
			data[i] = 1
		}
	}
	b, _ := pcm.New(offlineRate, data)
	e.LoadSample(0, b)
	e.SetPadReverse(0, true)
	e.PlayPad(0, 1)

	l, _ := renderSeconds(t, gctx, 0.5)
	testutil.RequireNearlyEqual(t, "silent first half", l[1000], 0, 1e-3)
	testutil.RequireNearlyEqual(t, "loud second half", l[3000], 1, 1e-3)
}
