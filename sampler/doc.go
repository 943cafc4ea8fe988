// Package sampler implements a 16-pad polyphonic sample player on top of
// the primitives in package graph.
//
// Each Pad owns its loaded buffer, a reverse-derived copy when reverse is
// on, and a bounded pool of voices. Triggering a pad schedules playback of
// the trimmed region at the pad's pitch, shaped either by a flat velocity
// gain or by an ADSR envelope, and evicts the oldest voice once the pool is
// full. Pads feed a shared master chain:
//
//	pad voices -> pad gain -> tone lowpass -> pad pan
//	  -> master gain -> low shelf -> high shelf -> master pan -> output
//
// Engine is the public surface. Its playback entry points and setters never
// fail: invalid input is logged and ignored. Engine.State and Engine.SetState
// exchange a JSON-serializable snapshot without sample data.
//
// An Engine is driven from a single goroutine, the same one that renders its
// graph.Context.
package sampler
