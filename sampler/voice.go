package sampler

import (
	"context"
	"math"

	"github.com/cwbudde/algo-sampler/graph"
	"github.com/cwbudde/algo-sampler/pcm"
	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"
)

// region is the part of a pad's state a trigger plays.
type region struct {
	buffer    *pcm.Buffer
	trimStart float64
	trimEnd   float64
	pitch     float64
}

type voice struct {
	source graph.BufferSource
	env    graph.Gain

	start    float64 // context time
	offset   float64 // buffer seconds
	duration float64 // buffer seconds
	rate     float64
	span     float64 // context seconds, duration / rate

	finished bool
	stopped  bool
}

// scheduler owns the voices of one pad.
type scheduler struct {
	ctx  context.Context
	gctx graph.Context
	out  graph.Sink
	opts Options
	pad  int

	voices []*voice
}

func newScheduler(ctx context.Context, gctx graph.Context, out graph.Sink, pad int, opts Options) *scheduler {
	return &scheduler{ctx: ctx, gctx: gctx, out: out, opts: opts, pad: pad}
}

// trigger starts a voice for r. The returned error is informational: the
// trigger has already been abandoned when it is non-nil.
func (s *scheduler) trigger(velocity float64, r region, tc TriggerContext) error {
	if r.buffer == nil {
		return errors.Wrapf(ErrNoBuffer, "pad %v", s.pad)
	}
	if !(r.trimStart < r.trimEnd) {
		return errors.Wrapf(ErrInvalidTrim, "pad %v trim [%v, %v]", s.pad, r.trimStart, r.trimEnd)
	}
	total := r.buffer.Duration()
	offset := r.trimStart * total
	duration := r.trimEnd*total - offset
	if !(duration > 0) {
		return errors.Wrapf(ErrInvalidTrim, "pad %v duration %v", s.pad, duration)
	}

	now := s.gctx.CurrentTime()
	s.reap(now)
	for len(s.voices) >= s.opts.MaxPolyphony {
		s.evictOldest()
	}

	rate := tc.Rate(r.pitch)
	v := &voice{
		source:   s.gctx.NewBufferSource(),
		env:      s.gctx.NewGain(),
		start:    now,
		offset:   offset,
		duration: duration,
		rate:     rate,
		span:     duration / rate,
	}
	v.source.SetBuffer(r.buffer)
	v.source.PlaybackRate().SetValueAtTime(rate, now)
	if err := v.source.Connect(v.env); err != nil {
		v.release()
		return errors.Wrapf(err, "pad %v connect source", s.pad)
	}
	if err := v.env.Connect(s.out); err != nil {
		v.release()
		return errors.Wrapf(err, "pad %v connect envelope", s.pad)
	}
	s.shape(v.env.Gain(), velocity, now, v.span, tc.Envelope)
	v.source.OnEnded(func() { s.ended(v) })

	if err := s.start(v, now); err != nil {
		v.release()
		return err
	}
	s.voices = append(s.voices, v)

	logger.Tf(s.ctx, "pad=%v velocity=%v rate=%v offset=%v duration=%v", s.pad, velocity, rate, offset, duration)
	return nil
}

// start schedules playback and the safety stop. A rejected offset start is
// retried with the offset and duration in one call, which needs no stop.
func (s *scheduler) start(v *voice, now float64) error {
	err := v.source.Start(now, v.offset)
	if err == nil {
		if err := v.source.Stop(now + v.span + s.opts.StopMargin); err != nil {
			// Playback is running; the reap pass bounds its lifetime.
			logger.Wf(s.ctx, "pad=%v schedule stop err %+v", s.pad, err)
		}
		return nil
	}

	logger.Wf(s.ctx, "pad=%v start at offset rejected, retry as segment, err %+v", s.pad, err)
	if err := v.source.StartSegment(now, v.offset, v.duration); err != nil {
		return errors.Wrapf(ErrPlaybackStart, "pad %v: %v", s.pad, err)
	}
	return nil
}

// shape schedules the voice gain. Without an enabled envelope the gain is
// the velocity for the whole region.
func (s *scheduler) shape(g graph.Param, velocity, now, span float64, env Envelope) {
	if !env.Enabled {
		g.SetValueAtTime(velocity, now)
		return
	}

	a, d := env.Attack, env.Decay
	level := velocity * env.Sustain
	rel := math.Min(env.Release, span*s.opts.ReleaseFraction)
	end := now + span

	g.SetValueAtTime(envFloor, now)
	if releaseStart := end - rel; releaseStart > now+a+d {
		g.LinearRampToValueAtTime(velocity, now+a)
		g.LinearRampToValueAtTime(level, now+a+d)
		g.SetValueAtTime(level, releaseStart)
		g.LinearRampToValueAtTime(envFloor, end)
		return
	}

	// Too short for the full shape: attack and decay run only while they
	// fit, then the gain ramps straight down to the region end.
	if now+a < end {
		g.LinearRampToValueAtTime(velocity, now+a)
		if now+a+d < end {
			g.LinearRampToValueAtTime(level, now+a+d)
		}
	}
	g.LinearRampToValueAtTime(envFloor, end)
}

func (s *scheduler) ended(v *voice) {
	v.finished = true
	v.release()
	s.reap(s.gctx.CurrentTime())
}

// reap drops finished voices and force-stops voices that outlived their
// region by more than the reap margin.
func (s *scheduler) reap(now float64) {
	live := s.voices[:0]
	for _, v := range s.voices {
		switch {
		case v.finished:
			v.release()
		case now-v.start > v.span+s.opts.ReapMargin:
			logger.Wf(s.ctx, "pad=%v reap stale voice started at %v", s.pad, v.start)
			s.halt(v)
			v.release()
		default:
			live = append(live, v)
		}
	}
	for i := len(live); i < len(s.voices); i++ {
		s.voices[i] = nil
	}
	s.voices = live
}

func (s *scheduler) evictOldest() {
	oldest := s.voices[0]
	s.halt(oldest)
	oldest.release()

	copy(s.voices, s.voices[1:])
	s.voices[len(s.voices)-1] = nil
	s.voices = s.voices[:len(s.voices)-1]
}

// stopAll stops and disconnects every voice immediately.
func (s *scheduler) stopAll() {
	for i, v := range s.voices {
		s.halt(v)
		v.release()
		s.voices[i] = nil
	}
	s.voices = s.voices[:0]
}

func (s *scheduler) active() int {
	return len(s.voices)
}

// halt stops v at the current time, once.
func (s *scheduler) halt(v *voice) {
	if v.stopped || v.finished {
		return
	}
	v.stopped = true
	if err := v.source.Stop(s.gctx.CurrentTime()); err != nil {
		logger.Wf(s.ctx, "pad=%v stop voice started at %v err %+v", s.pad, v.start, err)
	}
}

func (v *voice) release() {
	v.source.Disconnect()
	v.env.Disconnect()
}
