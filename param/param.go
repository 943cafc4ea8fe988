package param

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-sampler/sampler"
	"github.com/ossrs/go-oryx-lib/errors"
)

// MasterVolume is the key of the master gain parameter.
const MasterVolume = "masterVolume"

var (
	// ErrUnknown reports a key that names no parameter.
	ErrUnknown = errors.New("param: unknown parameter")
	// ErrValue reports a non-finite parameter value.
	ErrValue = errors.New("param: invalid value")
)

// Descriptor describes one host parameter.
type Descriptor struct {
	Key     string
	Default float64
	Min     float64
	Max     float64
	// Automatable parameters are backed by a native graph param the host
	// may drive directly through Engine.AutomationParams.
	Automatable bool
}

// padField is one per-pad parameter. set and get receive the pad index.
type padField struct {
	name        string
	def         float64
	min, max    float64
	automatable bool
	set         func(e *sampler.Engine, pad int, v float64)
	get         func(p *sampler.Pad) float64
}

var padFields = []padField{
	{
		name: "volume", def: 1, min: 0, max: 1, automatable: true,
		set: (*sampler.Engine).SetPadVolume,
		get: (*sampler.Pad).Volume,
	},
	{
		name: "pan", def: 0, min: -1, max: 1, automatable: true,
		set: (*sampler.Engine).SetPadPan,
		get: (*sampler.Pad).Pan,
	},
	{
		name: "filter_frequency", def: sampler.ToneToCutoff(0), min: sampler.MinCutoff, max: sampler.MaxCutoff, automatable: true,
		set: setPadCutoff,
		get: (*sampler.Pad).Cutoff,
	},
	{
		name: "tone", def: 0, min: -1, max: 1,
		set: (*sampler.Engine).SetPadTone,
		get: (*sampler.Pad).Tone,
	},
	{
		name: "pitch", def: 1, min: 0.5, max: 2,
		set: (*sampler.Engine).SetPadPitch,
		get: (*sampler.Pad).Pitch,
	},
	{
		name: "trimStart", def: 0, min: 0, max: 1,
		set: (*sampler.Engine).SetPadTrimStart,
		get: (*sampler.Pad).TrimStart,
	},
	{
		name: "trimEnd", def: 1, min: 0, max: 1,
		set: (*sampler.Engine).SetPadTrimEnd,
		get: (*sampler.Pad).TrimEnd,
	},
	{
		name: "reverse", def: 0, min: 0, max: 1,
		set: setPadReverse,
		get: padReverse,
	},
}

// The filter frequency is stored as a tone so that State stays coherent.
func setPadCutoff(e *sampler.Engine, pad int, hz float64) {
	e.SetPadTone(pad, sampler.CutoffToTone(hz))
}

func setPadReverse(e *sampler.Engine, pad int, v float64) {
	e.SetPadReverse(pad, v > 0.5)
}

func padReverse(p *sampler.Pad) float64 {
	if p.Reverse() {
		return 1
	}
	return 0
}

func lookupField(name string) (*padField, bool) {
	for i := range padFields {
		if padFields[i].name == name {
			return &padFields[i], true
		}
	}
	return nil, false
}

// Key returns the host key of a per-pad field, e.g. Key(3, "pitch") is
// "pad3_pitch".
func Key(pad int, field string) string {
	return fmt.Sprintf("pad%d_%s", pad, field)
}

// parseKey splits "pad{i}_{field}" into its index and field.
func parseKey(key string) (int, *padField, error) {
	rest, ok := strings.CutPrefix(key, "pad")
	if !ok {
		return 0, nil, errors.Wrapf(ErrUnknown, "key %q", key)
	}
	idx, name, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, nil, errors.Wrapf(ErrUnknown, "key %q", key)
	}
	pad, err := strconv.Atoi(idx)
	if err != nil || pad < 0 || pad >= sampler.NumPads || strconv.Itoa(pad) != idx {
		return 0, nil, errors.Wrapf(ErrUnknown, "key %q: pad index", key)
	}
	f, ok := lookupField(name)
	if !ok {
		return 0, nil, errors.Wrapf(ErrUnknown, "key %q: field %q", key, name)
	}
	return pad, f, nil
}

// Descriptors lists every parameter: masterVolume first, then the pad
// fields in pad order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, 0, 1+sampler.NumPads*len(padFields))
	out = append(out, Descriptor{Key: MasterVolume, Default: 1, Min: 0, Max: 1, Automatable: true})
	for pad := 0; pad < sampler.NumPads; pad++ {
		for _, f := range padFields {
			out = append(out, Descriptor{
				Key:         Key(pad, f.name),
				Default:     f.def,
				Min:         f.min,
				Max:         f.max,
				Automatable: f.automatable,
			})
		}
	}
	return out
}

// Lookup returns the descriptor of key.
func Lookup(key string) (Descriptor, bool) {
	if key == MasterVolume {
		return Descriptor{Key: MasterVolume, Default: 1, Min: 0, Max: 1, Automatable: true}, true
	}
	pad, f, err := parseKey(key)
	if err != nil {
		return Descriptor{}, false
	}
	return Descriptor{Key: Key(pad, f.name), Default: f.def, Min: f.min, Max: f.max, Automatable: f.automatable}, true
}

// Set clamps v to the parameter's range and applies it to e.
func Set(e *sampler.Engine, key string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.Wrapf(ErrValue, "%v=%v", key, v)
	}
	if key == MasterVolume {
		e.SetMasterVolume(core.Clamp(v, 0, 1))
		return nil
	}
	pad, f, err := parseKey(key)
	if err != nil {
		return err
	}
	f.set(e, pad, core.Clamp(v, f.min, f.max))
	return nil
}

// Get returns the current value of key as stored by the engine.
func Get(e *sampler.Engine, key string) (float64, error) {
	if key == MasterVolume {
		return e.MasterVolume(), nil
	}
	pad, f, err := parseKey(key)
	if err != nil {
		return 0, err
	}
	p, err := e.Pad(pad)
	if err != nil {
		return 0, errors.Wrapf(err, "get %v", key)
	}
	return f.get(p), nil
}

// Apply sets every value in values. It stops at the first failing key.
func Apply(e *sampler.Engine, values map[string]float64) error {
	for _, k := range slices.Sorted(maps.Keys(values)) {
		if err := Set(e, k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// Parse reads a "key=value" assignment.
func Parse(s string) (string, float64, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok {
		return "", 0, errors.Errorf("param: %q is not key=value", s)
	}
	key = strings.TrimSpace(key)
	if _, ok := Lookup(key); !ok {
		return "", 0, errors.Wrapf(ErrUnknown, "key %q", key)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, errors.Wrapf(err, "parse %v", key)
	}
	return key, v, nil
}
