package sampler

import (
	"bytes"
	"context"
	"encoding/json"
	"math"

	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"
)

// State is the persisted form of an Engine. Sample data is not included.
type State struct {
	Version      string      `json:"version"`
	MasterVolume *float64    `json:"masterVolume,omitempty"`
	Pads         []*PadState `json:"pads"`
}

// PadState holds the persisted fields of a pad. Nil fields are absent and
// left untouched when applied.
type PadState struct {
	TrimStart *float64 `json:"trimStart,omitempty"`
	TrimEnd   *float64 `json:"trimEnd,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
	Pan       *float64 `json:"pan,omitempty"`
	Pitch     *float64 `json:"pitch,omitempty"`
	Tone      *float64 `json:"tone,omitempty"`
	Reverse   *bool    `json:"reverse,omitempty"`
	MidiNote  *int     `json:"midiNote,omitempty"`
	Name      *string  `json:"name,omitempty"`
}

type rawState struct {
	Version      json.RawMessage   `json:"version"`
	MasterVolume json.RawMessage   `json:"masterVolume"`
	Pads         []json.RawMessage `json:"pads"`
}

// ParseState decodes a JSON state. Only a document that is not an object
// with a pads array is an error. Fields of the wrong type are logged and
// dropped, and entries past the last pad are ignored. A null or missing
// pad entry stays nil, which resets that pad when the state is applied.
func ParseState(ctx context.Context, data []byte) (*State, error) {
	var raw rawState
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parse state")
	}

	var s State
	if !isNull(raw.Version) {
		if err := json.Unmarshal(raw.Version, &s.Version); err != nil {
			logger.Wf(ctx, "state version skipped, err %+v", err)
		}
	}
	if !isNull(raw.MasterVolume) {
		var v float64
		if err := json.Unmarshal(raw.MasterVolume, &v); err != nil {
			logger.Wf(ctx, "state masterVolume skipped, err %+v", err)
		} else {
			s.MasterVolume = &v
		}
	}

	if len(raw.Pads) > NumPads {
		logger.Wf(ctx, "state has %v pads, ignore entries past %v", len(raw.Pads), NumPads)
		raw.Pads = raw.Pads[:NumPads]
	}
	s.Pads = make([]*PadState, len(raw.Pads))
	for i, entry := range raw.Pads {
		if isNull(entry) {
			continue
		}
		s.Pads[i] = parsePadState(ctx, i, entry)
	}
	return &s, nil
}

// parsePadState decodes one pad entry field by field. An entry that is not
// an object yields an empty PadState, leaving the pad untouched.
func parsePadState(ctx context.Context, pad int, entry json.RawMessage) *PadState {
	ps := &PadState{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		logger.Wf(ctx, "state pad=%v skipped, err %+v", pad, err)
		return ps
	}

	floats := map[string]**float64{
		"trimStart": &ps.TrimStart,
		"trimEnd":   &ps.TrimEnd,
		"volume":    &ps.Volume,
		"pan":       &ps.Pan,
		"pitch":     &ps.Pitch,
		"tone":      &ps.Tone,
	}
	for key, dst := range floats {
		value, ok := fields[key]
		if !ok || isNull(value) {
			continue
		}
		var v float64
		if err := json.Unmarshal(value, &v); err != nil {
			logger.Wf(ctx, "state pad=%v %v skipped, err %+v", pad, key, err)
			continue
		}
		*dst = &v
	}

	if value, ok := fields["reverse"]; ok && !isNull(value) {
		var v bool
		if err := json.Unmarshal(value, &v); err != nil {
			logger.Wf(ctx, "state pad=%v reverse skipped, err %+v", pad, err)
		} else {
			ps.Reverse = &v
		}
	}
	if value, ok := fields["midiNote"]; ok && !isNull(value) {
		// Notes written as 40.0 are accepted, fractional ones are not.
		var v float64
		if err := json.Unmarshal(value, &v); err != nil {
			logger.Wf(ctx, "state pad=%v midiNote skipped, err %+v", pad, err)
		} else if v != math.Trunc(v) {
			logger.Wf(ctx, "state pad=%v midiNote %v skipped, not an integer", pad, v)
		} else {
			n := int(min(max(v, 0), 127))
			ps.MidiNote = &n
		}
	}
	if value, ok := fields["name"]; ok && !isNull(value) {
		var v string
		if err := json.Unmarshal(value, &v); err != nil {
			logger.Wf(ctx, "state pad=%v name skipped, err %+v", pad, err)
		} else {
			ps.Name = &v
		}
	}
	return ps
}

func isNull(b json.RawMessage) bool {
	return len(b) == 0 || bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

// Marshal encodes s as JSON.
func (s *State) Marshal() ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal state")
	}
	return b, nil
}
