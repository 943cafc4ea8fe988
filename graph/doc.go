// Package graph provides the audio primitives the sampler is built from:
// gain stages, stereo panners, biquad filters and buffer playback sources,
// wired into a pull-based graph and driven by a monotonic clock.
//
// The interfaces describe what the sampler needs from an audio host.
// OfflineContext implements them in software, rendering sample-accurate
// stereo output in fixed-size quanta. It is used for offline rendering,
// realtime playback through an output device and tests.
//
// Parameter automation follows the familiar event-list model: values can be
// set immediately, set at a future time, or ramped linearly to a target
// reached at a given time.
package graph
