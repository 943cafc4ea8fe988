package main

import (
	"math"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cwbudde/algo-sampler/graph"
	"github.com/cwbudde/algo-sampler/pcm"
	"github.com/cwbudde/algo-sampler/sampler"
	"github.com/ossrs/go-oryx-lib/errors"
)

// tail is rendered after the last expected voice end.
const tail = 0.25

// loadKit loads up to NumPads WAV files of dir, in name order, into pads
// 0.. and names each pad after its file.
func loadKit(e *sampler.Engine, dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.wav"))
	if err != nil {
		return 0, errors.Wrapf(err, "glob %v", dir)
	}
	slices.Sort(files)
	if len(files) > sampler.NumPads {
		files = files[:sampler.NumPads]
	}
	for i, f := range files {
		if err := loadPad(e, i, f); err != nil {
			return i, err
		}
	}
	return len(files), nil
}

func loadPad(e *sampler.Engine, pad int, path string) error {
	if _, err := e.Pad(pad); err != nil {
		return errors.Wrapf(err, "load %v", path)
	}
	b, err := pcm.LoadFile(path)
	if err != nil {
		return err
	}
	e.LoadSample(pad, b)
	e.SetPadName(pad, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	return nil
}

// expectedLength returns the time at which the last voice of hits ends,
// plus a short tail.
func expectedLength(e *sampler.Engine, hits []hit) float64 {
	tc := e.TriggerContext()
	end := 0.0
	for _, h := range hits {
		p, err := e.Pad(h.pad)
		if err != nil || p.Buffer() == nil {
			end = max(end, h.time)
			continue
		}
		region := p.Buffer().Duration() * (p.TrimEnd() - p.TrimStart())
		end = max(end, h.time+max(region, 0)/tc.Rate(p.Pitch()))
	}
	return end + tail
}

// renderPattern plays hits on e and renders duration seconds of gctx.
// Triggers land on the first quantum boundary at or after their time.
func renderPattern(e *sampler.Engine, gctx *graph.OfflineContext, hits []hit, duration float64) (*pcm.Buffer, error) {
	if !(duration >= 0) || math.IsInf(duration, 0) {
		return nil, errors.Errorf("invalid duration %v", duration)
	}
	sr := gctx.SampleRate()
	total := int(math.Round(duration * sr))
	left := make([]float64, total)
	right := make([]float64, total)

	pos := 0
	for _, h := range hits {
		at := int(math.Round(h.time * sr))
		if at >= total {
			break
		}
		if at > pos {
			if err := gctx.Render(left[pos:at], right[pos:at]); err != nil {
				return nil, errors.Wrapf(err, "render to %v", h.time)
			}
			pos = at
		}
		e.PlayPad(h.pad, h.velocity)
	}
	if err := gctx.Render(left[pos:], right[pos:]); err != nil {
		return nil, errors.Wrapf(err, "render tail")
	}
	return pcm.New(sr, left, right)
}
