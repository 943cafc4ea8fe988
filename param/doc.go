// Package param maps flat host parameter keys such as "pad3_pitch" or
// "masterVolume" onto typed sampler engine setters.
//
// Keys are resolved through an explicit table: per-pad keys are parsed into
// a pad index and a field name, and the field name selects a setter that
// receives the index as an argument.
package param
