// Package midi turns raw MIDI note-on messages into sampler pad triggers.
package midi
