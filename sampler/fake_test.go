package sampler

import (
	"github.com/cwbudde/algo-sampler/graph"
	"github.com/cwbudde/algo-sampler/pcm"
	"github.com/ossrs/go-oryx-lib/errors"
)

// fakeContext records what the sampler schedules instead of rendering it.
type fakeContext struct {
	now     float64
	sources []*fakeSource
	dest    *fakeGain

	rejectStart   bool
	rejectSegment bool
	rejectStop    bool
	rejectConnect bool
}

func newFakeContext() *fakeContext {
	c := &fakeContext{}
	c.dest = c.NewGain().(*fakeGain)
	return c
}

func (c *fakeContext) CurrentTime() float64 { return c.now }

func (c *fakeContext) SampleRate() float64 { return 48000 }

func (c *fakeContext) Destination() graph.Node { return c.dest }

func (c *fakeContext) NewGain() graph.Gain {
	g := &fakeGain{gain: newFakeParam(1)}
	g.self = g
	return g
}

func (c *fakeContext) NewStereoPanner() graph.StereoPanner {
	p := &fakePanner{pan: newFakeParam(0)}
	p.self = p
	return p
}

func (c *fakeContext) NewBiquadFilter() graph.BiquadFilter {
	f := &fakeFilter{frequency: newFakeParam(350), q: newFakeParam(1), gain: newFakeParam(0)}
	f.self = f
	return f
}

func (c *fakeContext) NewBufferSource() graph.BufferSource {
	s := &fakeSource{ctx: c, rate: newFakeParam(1)}
	s.self = s
	c.sources = append(c.sources, s)
	return s
}

type fakeNode struct {
	self        graph.Node
	outputs     []graph.Node
	disconnects int
}

func (n *fakeNode) Input() graph.Node { return n.self }

func (n *fakeNode) Connect(dst graph.Sink) error {
	n.outputs = append(n.outputs, dst.Input())
	return nil
}

func (n *fakeNode) Disconnect(dsts ...graph.Sink) {
	n.disconnects++
	if len(dsts) == 0 {
		n.outputs = nil
		return
	}
	for _, d := range dsts {
		for i, o := range n.outputs {
			if o == d.Input() {
				n.outputs = append(n.outputs[:i], n.outputs[i+1:]...)
				break
			}
		}
	}
}

func (n *fakeNode) connectedTo(dst graph.Node) bool {
	for _, o := range n.outputs {
		if o == dst {
			return true
		}
	}
	return false
}

type paramCall struct {
	op    string
	value float64
	time  float64
}

type fakeParam struct {
	value float64
	calls []paramCall
}

func newFakeParam(v float64) *fakeParam { return &fakeParam{value: v} }

func (p *fakeParam) Value() float64 { return p.value }

func (p *fakeParam) SetValue(v float64) {
	p.value = v
	p.calls = append(p.calls, paramCall{"set", v, 0})
}

func (p *fakeParam) SetValueAtTime(v, t float64) {
	p.value = v
	p.calls = append(p.calls, paramCall{"setAt", v, t})
}

func (p *fakeParam) LinearRampToValueAtTime(v, t float64) {
	p.value = v
	p.calls = append(p.calls, paramCall{"ramp", v, t})
}

func (p *fakeParam) CancelScheduledValues(t float64) {
	p.calls = append(p.calls, paramCall{"cancel", 0, t})
}

type fakeGain struct {
	fakeNode
	gain *fakeParam
}

func (g *fakeGain) Gain() graph.Param { return g.gain }

type fakePanner struct {
	fakeNode
	pan *fakeParam
}

func (p *fakePanner) Pan() graph.Param { return p.pan }

type fakeFilter struct {
	fakeNode
	kind      graph.FilterType
	frequency *fakeParam
	q         *fakeParam
	gain      *fakeParam
}

func (f *fakeFilter) Type() graph.FilterType { return f.kind }

func (f *fakeFilter) SetType(t graph.FilterType) { f.kind = t }

func (f *fakeFilter) Frequency() graph.Param { return f.frequency }

func (f *fakeFilter) Q() graph.Param { return f.q }

func (f *fakeFilter) Gain() graph.Param { return f.gain }

type fakeSource struct {
	fakeNode
	ctx    *fakeContext
	buffer *pcm.Buffer
	rate   *fakeParam

	started  bool
	segment  bool
	when     float64
	offset   float64
	duration float64
	stops    []float64

	onEnded func()
}

func (s *fakeSource) Connect(dst graph.Sink) error {
	if s.ctx.rejectConnect {
		return errors.Wrapf(graph.ErrInvalidState, "rejected")
	}
	return s.fakeNode.Connect(dst)
}

func (s *fakeSource) SetBuffer(b *pcm.Buffer) { s.buffer = b }

func (s *fakeSource) Buffer() *pcm.Buffer { return s.buffer }

func (s *fakeSource) PlaybackRate() graph.Param { return s.rate }

func (s *fakeSource) Start(when, offset float64) error {
	if s.ctx.rejectStart {
		return errors.Wrapf(graph.ErrRange, "rejected")
	}
	if s.started {
		return graph.ErrInvalidState
	}
	s.started, s.when, s.offset = true, when, offset
	return nil
}

func (s *fakeSource) StartSegment(when, offset, duration float64) error {
	if s.ctx.rejectSegment {
		return errors.Wrapf(graph.ErrRange, "rejected")
	}
	if s.started {
		return graph.ErrInvalidState
	}
	s.started, s.segment = true, true
	s.when, s.offset, s.duration = when, offset, duration
	return nil
}

func (s *fakeSource) Stop(when float64) error {
	if s.ctx.rejectStop {
		return errors.Wrapf(graph.ErrRange, "rejected")
	}
	if !s.started {
		return graph.ErrInvalidState
	}
	s.stops = append(s.stops, when)
	return nil
}

func (s *fakeSource) OnEnded(fn func()) { s.onEnded = fn }

// end simulates the natural end of playback.
func (s *fakeSource) end() {
	if s.onEnded != nil {
		s.onEnded()
	}
}

// compositeSink exposes an inner node as its input.
type compositeSink struct {
	entry graph.Node
}

func (c compositeSink) Input() graph.Node { return c.entry }
