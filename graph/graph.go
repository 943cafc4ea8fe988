package graph

import (
	"github.com/cwbudde/algo-sampler/pcm"
	"github.com/ossrs/go-oryx-lib/errors"
)

var (
	// ErrInvalidState is returned when a source is started twice or stopped
	// before it was started.
	ErrInvalidState = errors.New("graph: invalid state")
	// ErrRange is returned for negative or non-finite times, offsets and
	// durations.
	ErrRange = errors.New("graph: value out of range")
	// ErrForeignNode is returned when connecting to a sink that does not
	// belong to the same context.
	ErrForeignNode = errors.New("graph: node belongs to another context")
)

// Sink is a connection target. Plain nodes return themselves; composite
// objects return the node that receives their input.
type Sink interface {
	Input() Node
}

// Node is a processing unit with one stereo output.
type Node interface {
	Sink

	// Connect routes this node's output into dst. Connecting the same pair
	// twice has no effect.
	Connect(dst Sink) error
	// Disconnect removes the connections to dsts, or every outgoing
	// connection when called without arguments. Removing a connection that
	// does not exist is not an error.
	Disconnect(dsts ...Sink)
}

// Param is an automatable value.
type Param interface {
	// Value returns the value at the context's current time.
	Value() float64
	// SetValue drops pending automation and sets v immediately.
	SetValue(v float64)
	// SetValueAtTime schedules a step to v at time t.
	SetValueAtTime(v, t float64)
	// LinearRampToValueAtTime ramps linearly from the previous event to v,
	// arriving at time t.
	LinearRampToValueAtTime(v, t float64)
	// CancelScheduledValues removes every event at or after t.
	CancelScheduledValues(t float64)
}

// Gain multiplies its input by a gain parameter.
type Gain interface {
	Node
	Gain() Param
}

// StereoPanner positions its input with an equal-power pan law.
type StereoPanner interface {
	Node
	// Pan ranges from -1 (left) to 1 (right).
	Pan() Param
}

// FilterType selects the response of a BiquadFilter.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
	LowShelf
	HighShelf
	Peaking
	Notch
	Allpass
)

// String returns the lower-case name of the filter type.
func (t FilterType) String() string {
	switch t {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	case LowShelf:
		return "lowshelf"
	case HighShelf:
		return "highshelf"
	case Peaking:
		return "peaking"
	case Notch:
		return "notch"
	case Allpass:
		return "allpass"
	default:
		return "unknown"
	}
}

// BiquadFilter is a second-order IIR filter.
type BiquadFilter interface {
	Node
	Type() FilterType
	SetType(t FilterType)
	// Frequency is the corner or center frequency in Hz.
	Frequency() Param
	Q() Param
	// Gain is the shelf or peak gain in dB.
	Gain() Param
}

// BufferSource plays a PCM buffer once.
type BufferSource interface {
	Node

	SetBuffer(b *pcm.Buffer)
	Buffer() *pcm.Buffer
	PlaybackRate() Param

	// Start begins playback at context time when, reading from offset
	// seconds into the buffer.
	Start(when, offset float64) error
	// StartSegment is Start limited to duration seconds of buffer content.
	StartSegment(when, offset, duration float64) error
	// Stop ends playback at context time when. It may be called again to
	// move the stop time.
	Stop(when float64) error
	// OnEnded registers fn to run once playback has ended, either because
	// the buffer or segment ran out or because the stop time passed.
	OnEnded(fn func())
}

// Context creates nodes and owns the clock they are scheduled against.
type Context interface {
	CurrentTime() float64
	SampleRate() float64
	Destination() Node

	NewGain() Gain
	NewStereoPanner() StereoPanner
	NewBiquadFilter() BiquadFilter
	NewBufferSource() BufferSource
}
