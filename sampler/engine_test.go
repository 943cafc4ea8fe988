package sampler

import (
	"context"
	"math"
	"testing"

	"github.com/cwbudde/algo-sampler/graph"
	"github.com/cwbudde/algo-sampler/internal/testutil"
	"github.com/ossrs/go-oryx-lib/errors"
)

func TestNew_MasterChain(t *testing.T) {
	e, _ := newTestEngine(t)

	master := e.master.(*fakeGain)
	low := e.lowShelf.(*fakeFilter)
	high := e.highShelf.(*fakeFilter)
	if !master.connectedTo(low) || !low.connectedTo(high) || !high.connectedTo(e.panner) {
		t.Fatal("master chain not wired gain -> low shelf -> high shelf -> pan")
	}
	if low.kind != graph.LowShelf || high.kind != graph.HighShelf {
		t.Fatalf("shelf types %v %v", low.kind, high.kind)
	}

	for i, p := range e.pads {
		out := p.panner.(*fakePanner)
		if len(out.outputs) != 1 || out.outputs[0] != e.master {
			t.Fatalf("pad %d must feed only the master gain", i)
		}
	}
}

func TestNew_NilContext(t *testing.T) {
	if _, err := New(context.Background(), nil, DefaultOptions()); err == nil {
		t.Fatal("expected error")
	}
}

func TestNew_PadDefaults(t *testing.T) {
	e, _ := newTestEngine(t)
	for i, p := range e.pads {
		if p.MidiNote() != BaseNote+i {
			t.Errorf("pad %d midi note %d", i, p.MidiNote())
		}
		if p.TrimStart() != 0 || p.TrimEnd() != 1 || p.Pitch() != 1 || p.Volume() != 1 || p.Pan() != 0 {
			t.Errorf("pad %d defaults %+v", i, p.State())
		}
		testutil.RequireNearlyEqual(t, "cutoff", p.Cutoff(), math.Sqrt(MinCutoff*MaxCutoff), 1e-6)
	}
	if mustPad(t, e, 0).Name() != "Pad 1" || mustPad(t, e, 15).Name() != "Pad 16" {
		t.Error("default names")
	}
}

func TestInvalidTriggersAreSilent(t *testing.T) {
	e, fc := newTestEngine(t)

	e.PlayPad(99, 1)
	e.PlayPad(-1, 1)
	e.PlayPad(0, 1)

	e.LoadSample(1, testBuffer(t, 1))
	e.SetPadTrimStart(1, 0.6)
	e.SetPadTrimEnd(1, 0.6)
	e.PlayPad(1, 1)

	e.SetPadTrimEnd(1, 0.2)
	e.PlayPad(1, 1)

	e.PlayPad(1, math.NaN())

	if len(fc.sources) != 0 {
		t.Fatalf("created %d sources", len(fc.sources))
	}
	for i, p := range e.pads {
		if p.ActiveVoices() != 0 {
			t.Fatalf("pad %d has voices", i)
		}
	}
}

func TestPlayErrors(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.play(16, 1); errors.Cause(err) != ErrInvalidIndex {
		t.Fatalf("index: got %v", err)
	}
	if err := e.play(0, 1); errors.Cause(err) != ErrNoBuffer {
		t.Fatalf("empty: got %v", err)
	}
	e.LoadSample(0, testBuffer(t, 1))
	e.SetPadTrimStart(0, 1)
	if err := e.play(0, 1); errors.Cause(err) != ErrInvalidTrim {
		t.Fatalf("trim: got %v", err)
	}
}

func TestPitchComposition(t *testing.T) {
	e, fc := newTestEngine(t)
	e.LoadSample(0, testBuffer(t, 1))
	e.SetPadPitch(0, 1.2)
	e.SetPitchShift(12)

	e.PlayPad(0, 1)

	testutil.RequireNearlyEqual(t, "rate", fc.sources[0].rate.value, 2.4, 1e-12)
	testutil.RequireNearlyEqual(t, "voice rate", mustPad(t, e, 0).voices.voices[0].rate, 2.4, 1e-12)
}

func TestTriggerSnapshotIsolation(t *testing.T) {
	e, fc := newTestEngine(t)
	e.LoadSample(0, testBuffer(t, 1))
	e.SetPitchShift(12)
	e.PlayPad(0, 1)

	e.SetPitchShift(0)
	e.PlayPad(0, 1)

	testutil.RequireNearlyEqual(t, "first", fc.sources[0].rate.value, 2, 1e-12)
	testutil.RequireNearlyEqual(t, "second", fc.sources[1].rate.value, 1, 1e-12)
}

func TestSettersRejectInvalidValues(t *testing.T) {
	e, _ := newTestEngine(t)
	p := mustPad(t, e, 0)

	e.SetPadPitch(0, 0)
	e.SetPadPitch(0, -1)
	e.SetPadPitch(0, math.Inf(1))
	e.SetPadVolume(0, math.NaN())
	e.SetPadTone(0, math.NaN())
	e.SetPadVolume(42, 0.5)
	e.SetMasterVolume(math.NaN())
	e.SetPitchShift(math.Inf(-1))

	if p.Pitch() != 1 || p.Volume() != 1 || p.Tone() != 0 {
		t.Fatalf("invalid values applied: %+v", p.State())
	}
	if e.MasterVolume() != 1 || e.PitchShift() != 0 {
		t.Fatal("invalid global values applied")
	}
}

func TestSettersClamp(t *testing.T) {
	e, _ := newTestEngine(t)
	p := mustPad(t, e, 5)

	e.SetPadTrimStart(5, -0.5)
	e.SetPadTrimEnd(5, 1.5)
	e.SetPadPan(5, -3)
	e.SetPadMidiNote(5, 200)

	if p.TrimStart() != 0 || p.TrimEnd() != 1 || p.Pan() != -1 || p.MidiNote() != 127 {
		t.Fatalf("not clamped: %+v", p.State())
	}
}

func TestPadMixParamsScheduledNow(t *testing.T) {
	e, fc := newTestEngine(t)
	fc.now = 3
	e.SetPadVolume(1, 0.25)
	e.SetPadPan(1, 0.5)
	e.SetMasterVolume(0.7)

	p := mustPad(t, e, 1)
	gain := p.gain.(*fakeGain).gain
	pan := p.panner.(*fakePanner).pan
	master := e.master.(*fakeGain).gain
	for name, fp := range map[string]*fakeParam{"gain": gain, "pan": pan, "master": master} {
		last := fp.calls[len(fp.calls)-1]
		if last.op != "setAt" || last.time != 3 {
			t.Errorf("%s: %+v not scheduled at now", name, last)
		}
	}
	if gain.value != 0.25 || pan.value != 0.5 || master.value != 0.7 {
		t.Fatal("values not applied")
	}
}

func TestMasterTone(t *testing.T) {
	tests := []struct {
		tone, low, high float64
	}{
		{-0.5, 0, 15},
		{1, -30, 0},
		{0, 0, 0},
		{-4, 0, 30},
	}
	for _, tc := range tests {
		e, _ := newTestEngine(t)
		e.SetMasterTone(tc.tone)
		low := e.lowShelf.(*fakeFilter).gain.value
		high := e.highShelf.(*fakeFilter).gain.value
		if low != tc.low || high != tc.high {
			t.Errorf("tone %v: low %v high %v, want %v %v", tc.tone, low, high, tc.low, tc.high)
		}
	}
}

func TestMasterPan(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetMasterPan(0.3)
	if e.MasterPan() != 0.3 || e.panner.(*fakePanner).pan.value != 0.3 {
		t.Fatal("master pan not applied")
	}
}

func TestSetEnvelopeSanitizes(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetEnvelope(Envelope{Enabled: true, Attack: -1, Decay: 0, Sustain: 2, Release: math.NaN()})

	got := e.Envelope()
	def := DefaultEnvelope()
	if !got.Enabled || got.Attack != def.Attack || got.Decay != 0 || got.Sustain != 1 || got.Release != def.Release {
		t.Fatalf("sanitized envelope %+v", got)
	}
}

func TestConnectResolvesComposite(t *testing.T) {
	e, fc := newTestEngine(t)
	inner := fc.NewGain()

	if err := e.Connect(compositeSink{entry: inner}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := e.Connect(fc.Destination()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	out := e.panner.(*fakePanner)
	if !out.connectedTo(inner) || !out.connectedTo(fc.dest) {
		t.Fatal("output not wired to resolved sinks")
	}

	e.Disconnect(compositeSink{entry: inner})
	if out.connectedTo(inner) || !out.connectedTo(fc.dest) {
		t.Fatal("disconnect removed the wrong sink")
	}
	e.Disconnect()
	if len(out.outputs) != 0 {
		t.Fatal("disconnect all left connections")
	}
	if err := e.Connect(nil); err == nil {
		t.Fatal("expected error for nil sink")
	}
}

func TestEngineAsSink(t *testing.T) {
	e, _ := newTestEngine(t)
	if e.Input() != e.master {
		t.Fatal("engine input must be the master gain")
	}
}

func TestPadForNote(t *testing.T) {
	e, _ := newTestEngine(t)
	if i, ok := e.PadForNote(36); !ok || i != 0 {
		t.Fatalf("note 36 -> %d %v", i, ok)
	}
	if i, ok := e.PadForNote(51); !ok || i != 15 {
		t.Fatalf("note 51 -> %d %v", i, ok)
	}
	if _, ok := e.PadForNote(60); ok {
		t.Fatal("note 60 mapped")
	}

	e.SetPadMidiNote(3, 60)
	if i, ok := e.PadForNote(60); !ok || i != 3 {
		t.Fatalf("remapped note 60 -> %d %v", i, ok)
	}
}

func TestAutomationParams(t *testing.T) {
	e, _ := newTestEngine(t)
	params := e.AutomationParams()
	if len(params) != 1+3*NumPads {
		t.Fatalf("%d params", len(params))
	}
	p := mustPad(t, e, 7)
	if params["pad7_volume"] != p.gain.Gain() || params["pad7_pan"] != p.panner.Pan() ||
		params["pad7_filter_frequency"] != p.filter.Frequency() || params["masterVolume"] != e.master.Gain() {
		t.Fatal("params do not expose the native controls")
	}
}
