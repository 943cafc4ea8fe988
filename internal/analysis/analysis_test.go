package analysis

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-sampler/internal/testutil"
	"github.com/cwbudde/algo-sampler/pcm"
)

func TestPeakAndRMS(t *testing.T) {
	testutil.RequireNearlyEqual(t, "peak", Peak([]float64{0.1, -0.7, 0.3}), 0.7, 0)
	testutil.RequireNearlyEqual(t, "rms dc", RMS(testutil.DC(0.5, 64)), 0.5, 1e-12)
	testutil.RequireNearlyEqual(t, "rms sine", RMS(testutil.DeterministicSine(100, 8000, 1, 8000)), 1/math.Sqrt2, 1e-6)
	if Peak(nil) != 0 || RMS(nil) != 0 {
		t.Fatal("empty input must measure 0")
	}
}

func TestToDB(t *testing.T) {
	testutil.RequireNearlyEqual(t, "unity", ToDB(1), 0, 0)
	testutil.RequireNearlyEqual(t, "half", ToDB(0.5), -6.0206, 1e-4)
	if !math.IsInf(ToDB(0), -1) {
		t.Fatal("silence must be -Inf")
	}
}

func TestSpectralCentroid(t *testing.T) {
	tests := []struct {
		name string
		freq float64
	}{
		{"250Hz", 250},
		{"1kHz", 1000},
		{"3kHz", 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := testutil.DeterministicSine(tt.freq, 8000, 0.5, 20000)
			got, err := SpectralCentroid(x, 8000)
			if err != nil {
				t.Fatalf("SpectralCentroid: %v", err)
			}
			testutil.RequireNearlyEqual(t, "centroid", got, tt.freq, 0.02*tt.freq)
		})
	}
}

func TestSpectralCentroid_Ordering(t *testing.T) {
	low, _ := SpectralCentroid(testutil.DeterministicSine(200, 8000, 1, 4096), 8000)
	noise, _ := SpectralCentroid(testutil.DeterministicNoise(1, 1, 4096), 8000)
	if !(low < noise) {
		t.Fatalf("low tone centroid %v must be below noise centroid %v", low, noise)
	}
	testutil.RequireNearlyEqual(t, "white noise", noise, 2000, 250)
}

func TestSpectralCentroid_EdgeCases(t *testing.T) {
	if c, err := SpectralCentroid(make([]float64, 1000), 8000); err != nil || c != 0 {
		t.Fatalf("silence: %v %v", c, err)
	}
	if c, err := SpectralCentroid([]float64{1}, 8000); err != nil || c != 0 {
		t.Fatalf("single sample: %v %v", c, err)
	}
	if _, err := SpectralCentroid(testutil.Ones(16), 0); err == nil {
		t.Fatal("zero sample rate accepted")
	}
}

func TestAnalyze(t *testing.T) {
	left := testutil.DeterministicSine(1000, 8000, 0.8, 8000)
	right := testutil.DC(0, 8000)
	b, err := pcm.New(8000, left, right)
	if err != nil {
		t.Fatalf("pcm.New: %v", err)
	}

	r, err := Analyze(b)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if r.Channels != 2 || r.Frames != 8000 || r.Duration != 1 {
		t.Fatalf("shape %+v", r)
	}
	testutil.RequireNearlyEqual(t, "peak", r.Peak, 0.8, 1e-3)
	testutil.RequireNearlyEqual(t, "rms left", r.RMS[0], 0.8/math.Sqrt2, 1e-3)
	testutil.RequireNearlyEqual(t, "rms right", r.RMS[1], 0, 0)
	testutil.RequireNearlyEqual(t, "centroid", r.Centroid, 1000, 20)
	testutil.RequireNearlyEqual(t, "peak dB", r.PeakDB(), ToDB(r.Peak), 0)

	if _, err := Analyze(nil); err == nil {
		t.Fatal("nil buffer accepted")
	}
}
