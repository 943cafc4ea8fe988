package sampler

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

const (
	MinCutoff = 200.0
	MaxCutoff = 20000.0
)

var (
	logMinCutoff = math.Log(MinCutoff)
	logMaxCutoff = math.Log(MaxCutoff)
)

// ToneToCutoff maps a tone in [-1, 1] logarithmically onto the lowpass
// cutoff range. Tone 0 lands on the geometric mean of the range.
func ToneToCutoff(tone float64) float64 {
	tone = core.Clamp(tone, -1, 1)
	return math.Exp(logMinCutoff + (tone+1)/2*(logMaxCutoff-logMinCutoff))
}

// CutoffToTone is the inverse of ToneToCutoff.
func CutoffToTone(hz float64) float64 {
	hz = core.Clamp(hz, MinCutoff, MaxCutoff)
	return 2*(math.Log(hz)-logMinCutoff)/(logMaxCutoff-logMinCutoff) - 1
}
