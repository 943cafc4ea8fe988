package graph

import (
	"math"
	"sort"
)

type eventKind int

const (
	stepEvent eventKind = iota
	rampEvent
)

type event struct {
	kind  eventKind
	value float64
	time  float64
}

// param is the software Param. Events are consumed as the clock passes
// them, so evaluation times must not decrease.
type param struct {
	ctx *OfflineContext

	value  float64 // value reached by the last consumed event
	anchor float64 // time of the last consumed event
	events []event

	minValue, maxValue float64
}

func newParam(ctx *OfflineContext, def, minValue, maxValue float64) *param {
	return &param{ctx: ctx, value: def, minValue: minValue, maxValue: maxValue}
}

func (p *param) Value() float64 {
	return p.valueAt(p.ctx.CurrentTime())
}

func (p *param) SetValue(v float64) {
	if !finite(v) {
		return
	}
	p.events = p.events[:0]
	p.value = v
	p.anchor = p.ctx.CurrentTime()
}

func (p *param) SetValueAtTime(v, t float64) {
	if !finite(v) || !finite(t) || t < 0 {
		return
	}
	p.insert(event{kind: stepEvent, value: v, time: t})
}

func (p *param) LinearRampToValueAtTime(v, t float64) {
	if !finite(v) || !finite(t) || t < 0 {
		return
	}
	if len(p.events) == 0 {
		// Without a preceding event the ramp starts from the current value
		// at the current time.
		now := p.ctx.CurrentTime()
		p.value = p.valueAt(now)
		p.anchor = now
	}
	p.insert(event{kind: rampEvent, value: v, time: t})
}

func (p *param) CancelScheduledValues(t float64) {
	if !finite(t) {
		return
	}
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time >= t })
	p.events = p.events[:i]
}

// insert keeps events ordered by time; equal times keep insertion order.
func (p *param) insert(e event) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > e.time })
	p.events = append(p.events, event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

func (p *param) valueAt(t float64) float64 {
	for len(p.events) > 0 && p.events[0].time <= t {
		e := p.events[0]
		p.value = e.value
		p.anchor = e.time
		p.events = p.events[1:]
	}

	v := p.value
	if len(p.events) > 0 && p.events[0].kind == rampEvent {
		e := p.events[0]
		if span := e.time - p.anchor; span > 0 {
			frac := (t - p.anchor) / span
			if frac > 0 {
				v += (e.value - v) * frac
			}
		}
	}
	return p.clamp(v)
}

// constant reports whether the value stays fixed over the quantum starting
// at frame, and returns that value.
func (p *param) constant(frame int64) (float64, bool) {
	v := p.valueAt(p.ctx.frameTime(frame))
	if len(p.events) == 0 {
		return v, true
	}
	next := p.events[0]
	last := p.ctx.frameTime(frame + int64(p.ctx.quantum) - 1)
	if next.kind == stepEvent && next.time > last {
		return v, true
	}
	return v, false
}

// fill writes one value per frame starting at frame.
func (p *param) fill(dst []float64, frame int64) {
	for i := range dst {
		dst[i] = p.valueAt(p.ctx.frameTime(frame + int64(i)))
	}
}

func (p *param) clamp(v float64) float64 {
	if v < p.minValue {
		return p.minValue
	}
	if v > p.maxValue {
		return p.maxValue
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
