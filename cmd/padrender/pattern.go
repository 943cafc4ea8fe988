package main

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/ossrs/go-oryx-lib/errors"
)

// hit is one pad trigger of a pattern.
type hit struct {
	pad      int
	time     float64
	velocity float64
}

// parsePattern reads "pad@time[:velocity],..." into hits sorted by time.
// Velocity defaults to 1.
func parsePattern(s string) ([]hit, error) {
	var hits []hit
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		padStr, rest, ok := strings.Cut(part, "@")
		if !ok {
			return nil, errors.Errorf("pattern %q: want pad@time[:velocity]", part)
		}
		timeStr, velStr, hasVel := strings.Cut(rest, ":")

		var h hit
		var err error
		if h.pad, err = strconv.Atoi(padStr); err != nil {
			return nil, errors.Wrapf(err, "pattern %q: pad", part)
		}
		if h.time, err = strconv.ParseFloat(timeStr, 64); err != nil {
			return nil, errors.Wrapf(err, "pattern %q: time", part)
		}
		if !(h.time >= 0) {
			return nil, errors.Errorf("pattern %q: negative time", part)
		}
		h.velocity = 1
		if hasVel {
			if h.velocity, err = strconv.ParseFloat(velStr, 64); err != nil {
				return nil, errors.Wrapf(err, "pattern %q: velocity", part)
			}
		}
		hits = append(hits, h)
	}

	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.time < b.time:
			return -1
		case a.time > b.time:
			return 1
		}
		return 0
	})
	return hits, nil
}

// padFiles collects repeated -sample index=path flags.
type padFiles map[int]string

func (p padFiles) String() string {
	var parts []string
	for _, i := range slices.Sorted(maps.Keys(p)) {
		parts = append(parts, strconv.Itoa(i)+"="+p[i])
	}
	return strings.Join(parts, ",")
}

func (p padFiles) Set(s string) error {
	idx, path, ok := strings.Cut(s, "=")
	if !ok || path == "" {
		return errors.Errorf("sample %q: want index=path", s)
	}
	i, err := strconv.Atoi(idx)
	if err != nil {
		return errors.Wrapf(err, "sample %q: index", s)
	}
	p[i] = path
	return nil
}

// assignments collects repeated -set key=value flags in order.
type assignments []string

func (a *assignments) String() string { return strings.Join(*a, ",") }

func (a *assignments) Set(s string) error {
	*a = append(*a, s)
	return nil
}
