package graph

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/interp"
	"github.com/cwbudde/algo-sampler/pcm"
	"github.com/ossrs/go-oryx-lib/errors"
)

type sourceState int

const (
	sourceIdle sourceState = iota
	sourceScheduled
	sourceEnded
)

type bufferSource struct {
	*node
	buf  *pcm.Buffer
	rate *param

	state     sourceState
	startTime float64
	stopTime  float64
	offset    float64 // seconds into the buffer
	duration  float64 // seconds of buffer content, +Inf when unbounded

	begun  bool
	pos    float64 // read position in buffer frames
	endPos float64

	onEnded func()
}

func (s *bufferSource) SetBuffer(b *pcm.Buffer) { s.buf = b }

func (s *bufferSource) Buffer() *pcm.Buffer { return s.buf }

func (s *bufferSource) PlaybackRate() Param { return s.rate }

func (s *bufferSource) OnEnded(fn func()) { s.onEnded = fn }

func (s *bufferSource) Start(when, offset float64) error {
	return s.start(when, offset, math.Inf(1))
}

func (s *bufferSource) StartSegment(when, offset, duration float64) error {
	if duration < 0 || !finite(duration) {
		return errors.Wrapf(ErrRange, "duration %v", duration)
	}
	return s.start(when, offset, duration)
}

func (s *bufferSource) start(when, offset, duration float64) error {
	if s.state != sourceIdle {
		return errors.Wrapf(ErrInvalidState, "source already started")
	}
	if when < 0 || !finite(when) {
		return errors.Wrapf(ErrRange, "start time %v", when)
	}
	if offset < 0 || !finite(offset) {
		return errors.Wrapf(ErrRange, "offset %v", offset)
	}

	s.state = sourceScheduled
	s.startTime, s.offset, s.duration = when, offset, duration
	s.ctx.sources = append(s.ctx.sources, s)
	return nil
}

func (s *bufferSource) Stop(when float64) error {
	if s.state == sourceIdle {
		return errors.Wrapf(ErrInvalidState, "source not started")
	}
	if when < 0 || !finite(when) {
		return errors.Wrapf(ErrRange, "stop time %v", when)
	}
	if s.state == sourceScheduled {
		s.stopTime = when
	}
	return nil
}

func (s *bufferSource) render(_, out block, frame int64) {
	out.zero()
	if s.state != sourceScheduled {
		return
	}

	step := 0.0
	if s.buf != nil {
		t0 := s.ctx.frameTime(frame)
		step = s.rate.valueAt(t0) * s.buf.SampleRate() / s.ctx.sampleRate
	}

	for i := range out[0] {
		t := s.ctx.frameTime(frame + int64(i))
		if t < s.startTime {
			continue
		}
		if t >= s.stopTime {
			s.finish()
			return
		}
		if s.buf == nil {
			continue
		}
		if !s.begun {
			s.begin()
		}
		if s.pos >= s.endPos || s.pos < 0 {
			s.finish()
			return
		}

		out[0][i], out[1][i] = s.sample(s.pos)
		s.pos += step
	}
}

func (s *bufferSource) begin() {
	sr := s.buf.SampleRate()
	s.pos = s.offset * sr
	s.endPos = float64(s.buf.Len())
	if end := (s.offset + s.duration) * sr; end < s.endPos {
		s.endPos = end
	}
	s.begun = true
}

// sample reads the buffer at a fractional frame position. Mono buffers feed
// both outputs.
func (s *bufferSource) sample(pos float64) (float64, float64) {
	i := int(math.Floor(pos))
	frac := pos - float64(i)

	read := func(ch int) float64 {
		if frac == 0 {
			return s.buf.At(ch, i)
		}
		return interp.Hermite4(frac,
			s.buf.At(ch, i-1), s.buf.At(ch, i), s.buf.At(ch, i+1), s.buf.At(ch, i+2))
	}

	l := read(0)
	if s.buf.NumChannels() == 1 {
		return l, l
	}
	return l, read(1)
}

func (s *bufferSource) finish() {
	s.state = sourceEnded
	s.ctx.ended = append(s.ctx.ended, s)
}
