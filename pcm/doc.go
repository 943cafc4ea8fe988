// Package pcm provides an immutable multi-channel sample buffer and WAV
// decoding/encoding for it. Buffers are the unit handed to a sampler pad;
// once constructed their sample data never changes, so a buffer may be
// read by any number of playback voices without copying.
package pcm
