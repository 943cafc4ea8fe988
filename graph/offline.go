package graph

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-sampler/pcm"
	"github.com/cwbudde/algo-vecmath"
	"github.com/ossrs/go-oryx-lib/errors"
)

// DefaultQuantum is the number of frames rendered per processing block.
const DefaultQuantum = 128

// Option configures an OfflineContext.
type Option func(*OfflineContext)

// WithQuantum sets the processing block size in frames. The clock advances
// in steps of one quantum, so smaller values give finer scheduling of
// calls made between renders. Automation is sample-accurate regardless.
func WithQuantum(frames int) Option {
	return func(c *OfflineContext) {
		if frames > 0 {
			c.quantum = frames
		}
	}
}

// OfflineContext is a software Context rendering stereo float64 audio.
// It is not safe for concurrent use.
type OfflineContext struct {
	sampleRate float64
	quantum    int
	frame      int64 // first frame of the next quantum

	dest    *destination
	silence block

	sources []*bufferSource // started and not yet ended
	ended   []*bufferSource

	pending    block
	pendingPos int
}

// NewOfflineContext creates a context running at sampleRate.
func NewOfflineContext(sampleRate float64, opts ...Option) (*OfflineContext, error) {
	if sampleRate <= 0 || !finite(sampleRate) {
		return nil, errors.Errorf("sample rate must be > 0: %f", sampleRate)
	}
	c := &OfflineContext{sampleRate: sampleRate, quantum: DefaultQuantum}
	for _, opt := range opts {
		opt(c)
	}

	c.silence = newBlock(c.quantum)
	c.pending = newBlock(c.quantum)
	c.pendingPos = c.quantum

	c.dest = &destination{}
	c.dest.node = c.newNode(c.dest, c.dest)
	return c, nil
}

// CurrentTime returns the time in seconds of the next frame to be rendered
// into a quantum.
func (c *OfflineContext) CurrentTime() float64 {
	return c.frameTime(c.frame)
}

func (c *OfflineContext) SampleRate() float64 { return c.sampleRate }

// Quantum returns the processing block size in frames.
func (c *OfflineContext) Quantum() int { return c.quantum }

func (c *OfflineContext) Destination() Node { return c.dest }

func (c *OfflineContext) NewGain() Gain {
	g := &gainNode{values: make([]float64, c.quantum)}
	g.gain = newParam(c, 1, math.Inf(-1), math.Inf(1))
	g.node = c.newNode(g, g)
	return g
}

func (c *OfflineContext) NewStereoPanner() StereoPanner {
	p := &pannerNode{values: make([]float64, c.quantum)}
	p.pan = newParam(c, 0, -1, 1)
	p.node = c.newNode(p, p)
	return p
}

func (c *OfflineContext) NewBiquadFilter() BiquadFilter {
	f := &biquadNode{kind: Lowpass}
	f.frequency = newParam(c, 350, 0, c.sampleRate/2)
	f.q = newParam(c, math.Sqrt2/2, 1e-4, 1000)
	f.gain = newParam(c, 0, -40, 40)
	f.node = c.newNode(f, f)
	f.dirty = true
	return f
}

func (c *OfflineContext) NewBufferSource() BufferSource {
	s := &bufferSource{stopTime: math.Inf(1)}
	s.rate = newParam(c, 1, -1000, 1000)
	s.node = c.newNode(s, s)
	return s
}

// Render fills left and right with the next len(left) frames.
func (c *OfflineContext) Render(left, right []float64) error {
	if len(left) != len(right) {
		return errors.Errorf("channel length mismatch %d != %d", len(left), len(right))
	}
	for i := range left {
		if c.pendingPos == c.quantum {
			c.renderQuantum()
		}
		left[i] = c.pending[0][c.pendingPos]
		right[i] = c.pending[1][c.pendingPos]
		c.pendingPos++
	}
	return nil
}

// RenderInterleaved fills dst with interleaved stereo float32 frames,
// clipped to [-1, 1]. len(dst) must be even.
func (c *OfflineContext) RenderInterleaved(dst []float32) error {
	if len(dst)%2 != 0 {
		return errors.Errorf("interleaved length %d is not a whole number of stereo frames", len(dst))
	}
	for i := 0; i+1 < len(dst); i += 2 {
		if c.pendingPos == c.quantum {
			c.renderQuantum()
		}
		dst[i] = float32(core.Clamp(c.pending[0][c.pendingPos], -1, 1))
		dst[i+1] = float32(core.Clamp(c.pending[1][c.pendingPos], -1, 1))
		c.pendingPos++
	}
	return nil
}

// RenderBuffer renders the next duration seconds into a new stereo buffer.
func (c *OfflineContext) RenderBuffer(duration float64) (*pcm.Buffer, error) {
	if duration < 0 || !finite(duration) {
		return nil, errors.Wrapf(ErrRange, "duration %v", duration)
	}
	n := int(math.Round(duration * c.sampleRate))
	left := make([]float64, n)
	right := make([]float64, n)
	if err := c.Render(left, right); err != nil {
		return nil, err
	}
	return pcm.New(c.sampleRate, left, right)
}

func (c *OfflineContext) renderQuantum() {
	frame := c.frame
	out := c.dest.pull(frame)
	copy(c.pending[0], out[0])
	copy(c.pending[1], out[1])
	c.pendingPos = 0

	// Sources advance on the clock even when nothing pulls them.
	for _, s := range c.sources {
		s.pull(frame)
	}
	c.frame += int64(c.quantum)

	if len(c.ended) == 0 {
		return
	}
	ended := c.ended
	c.ended = nil

	live := c.sources[:0]
	for _, s := range c.sources {
		if s.state != sourceEnded {
			live = append(live, s)
		}
	}
	for i := len(live); i < len(c.sources); i++ {
		c.sources[i] = nil
	}
	c.sources = live

	for _, s := range ended {
		if s.onEnded != nil {
			s.onEnded()
		}
	}
}

func (c *OfflineContext) frameTime(frame int64) float64 {
	return float64(frame) / c.sampleRate
}

type block [2][]float64

func newBlock(n int) block {
	return block{make([]float64, n), make([]float64, n)}
}

func (b block) zero() {
	for ch := range b {
		for i := range b[ch] {
			b[ch][i] = 0
		}
	}
}

type renderer interface {
	// render writes the output for the quantum starting at frame. in holds
	// the summed inputs and must not be retained.
	render(in, out block, frame int64)
}

type node struct {
	ctx  *OfflineContext
	self Node
	proc renderer

	inputs  []*node
	outputs []*node

	in, out  block
	rendered int64
	busy     bool
}

func (c *OfflineContext) newNode(self Node, proc renderer) *node {
	return &node{
		ctx:      c,
		self:     self,
		proc:     proc,
		in:       newBlock(c.quantum),
		out:      newBlock(c.quantum),
		rendered: -1,
	}
}

func (n *node) base() *node { return n }

func (n *node) Input() Node { return n.self }

func (n *node) Connect(dst Sink) error {
	if dst == nil {
		return errors.Wrapf(ErrForeignNode, "connect to nil sink")
	}
	in, ok := dst.Input().(interface{ base() *node })
	if !ok || in.base().ctx != n.ctx {
		return ErrForeignNode
	}
	target := in.base()
	for _, x := range target.inputs {
		if x == n {
			return nil
		}
	}
	target.inputs = append(target.inputs, n)
	n.outputs = append(n.outputs, target)
	return nil
}

func (n *node) Disconnect(dsts ...Sink) {
	if len(dsts) == 0 {
		for _, t := range n.outputs {
			t.inputs = removeNode(t.inputs, n)
		}
		n.outputs = nil
		return
	}
	for _, dst := range dsts {
		if dst == nil {
			continue
		}
		in, ok := dst.Input().(interface{ base() *node })
		if !ok {
			continue
		}
		target := in.base()
		target.inputs = removeNode(target.inputs, n)
		n.outputs = removeNode(n.outputs, target)
	}
}

func (n *node) pull(frame int64) block {
	if n.rendered == frame {
		return n.out
	}
	if n.busy {
		// Cycle: the node is already being rendered further down the stack.
		return n.ctx.silence
	}
	n.busy = true

	n.in.zero()
	for _, src := range n.inputs {
		b := src.pull(frame)
		vecmath.AddBlockInPlace(n.in[0], b[0])
		vecmath.AddBlockInPlace(n.in[1], b[1])
	}
	n.proc.render(n.in, n.out, frame)

	n.rendered = frame
	n.busy = false
	return n.out
}

func removeNode(list []*node, n *node) []*node {
	for i, x := range list {
		if x == n {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

type destination struct {
	*node
}

func (d *destination) render(in, out block, _ int64) {
	copy(out[0], in[0])
	copy(out[1], in[1])
}
