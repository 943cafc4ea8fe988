// Package config assembles the command-line renderer's settings from an
// optional .env file, SAMPLER_* environment variables and flags.
package config

import (
	"flag"
	"math"
	"os"
	"strconv"

	"github.com/cwbudde/algo-sampler/sampler"
	"github.com/joho/godotenv"
	"github.com/ossrs/go-oryx-lib/errors"
)

const (
	DefaultSampleRate = 48000
	DefaultBlockSize  = 128
	DefaultBitDepth   = 16
)

// Environment variable names.
const (
	EnvSampleRate      = "SAMPLER_SAMPLE_RATE"
	EnvBlockSize       = "SAMPLER_BLOCK_SIZE"
	EnvMaxPolyphony    = "SAMPLER_MAX_POLYPHONY"
	EnvReleaseFraction = "SAMPLER_RELEASE_FRACTION"
	EnvStopMargin      = "SAMPLER_STOP_MARGIN"
	EnvReapMargin      = "SAMPLER_REAP_MARGIN"
	EnvBitDepth        = "SAMPLER_BIT_DEPTH"
)

// Config holds the render settings.
type Config struct {
	SampleRate float64
	BlockSize  int
	BitDepth   int
	Sampler    sampler.Options
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		SampleRate: DefaultSampleRate,
		BlockSize:  DefaultBlockSize,
		BitDepth:   DefaultBitDepth,
		Sampler:    sampler.DefaultOptions(),
	}
}

// Load seeds a Config from the defaults, then envFile, then the process
// environment. Variables already set in the environment win over the
// file. A missing envFile is not an error; an empty path skips the file.
func Load(envFile string) (Config, error) {
	file := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		if err != nil && !os.IsNotExist(errors.Cause(err)) {
			return Config{}, errors.Wrapf(err, "read %v", envFile)
		}
		if m != nil {
			file = m
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}

	c := Default()
	if err := c.apply(lookup); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

func (c *Config) apply(lookup func(string) (string, bool)) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{EnvSampleRate, &c.SampleRate},
		{EnvReleaseFraction, &c.Sampler.ReleaseFraction},
		{EnvStopMargin, &c.Sampler.StopMargin},
		{EnvReapMargin, &c.Sampler.ReapMargin},
	}
	for _, f := range floats {
		raw, ok := lookup(f.key)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return errors.Wrapf(err, "parse %v=%q", f.key, raw)
		}
		*f.dst = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvBlockSize, &c.BlockSize},
		{EnvMaxPolyphony, &c.Sampler.MaxPolyphony},
		{EnvBitDepth, &c.BitDepth},
	}
	for _, f := range ints {
		raw, ok := lookup(f.key)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return errors.Wrapf(err, "parse %v=%q", f.key, raw)
		}
		*f.dst = v
	}
	return nil
}

// RegisterFlags binds the settings to fs. Flag defaults are the current
// values of c, so flags override whatever Load produced.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.Float64Var(&c.SampleRate, "rate", c.SampleRate, "render sample rate in Hz")
	fs.IntVar(&c.BlockSize, "block", c.BlockSize, "render quantum in frames")
	fs.IntVar(&c.BitDepth, "bits", c.BitDepth, "output WAV bit depth (16, 24 or 32)")
	fs.IntVar(&c.Sampler.MaxPolyphony, "polyphony", c.Sampler.MaxPolyphony, "maximum voices per pad")
	fs.Float64Var(&c.Sampler.ReleaseFraction, "release-fraction", c.Sampler.ReleaseFraction, "ADSR release cap as a fraction of the played region")
	fs.Float64Var(&c.Sampler.StopMargin, "stop-margin", c.Sampler.StopMargin, "seconds added to a voice's scheduled stop")
	fs.Float64Var(&c.Sampler.ReapMargin, "reap-margin", c.Sampler.ReapMargin, "seconds past its end before a voice is force-stopped")
}

// Validate checks the settings.
func (c Config) Validate() error {
	if !(c.SampleRate >= 8000 && c.SampleRate <= 384000) {
		return errors.Errorf("config: sample rate %v outside [8000, 384000]", c.SampleRate)
	}
	if c.BlockSize < 1 || c.BlockSize > 8192 {
		return errors.Errorf("config: block size %v outside [1, 8192]", c.BlockSize)
	}
	switch c.BitDepth {
	case 16, 24, 32:
	default:
		return errors.Errorf("config: unsupported bit depth %v", c.BitDepth)
	}
	if c.Sampler.MaxPolyphony < 1 {
		return errors.Errorf("config: polyphony %v < 1", c.Sampler.MaxPolyphony)
	}
	if !(c.Sampler.ReleaseFraction > 0 && c.Sampler.ReleaseFraction <= 1) {
		return errors.Errorf("config: release fraction %v outside (0, 1]", c.Sampler.ReleaseFraction)
	}
	if !nonNegative(c.Sampler.StopMargin) {
		return errors.Errorf("config: stop margin %v must be a non-negative number", c.Sampler.StopMargin)
	}
	if !nonNegative(c.Sampler.ReapMargin) {
		return errors.Errorf("config: reap margin %v must be a non-negative number", c.Sampler.ReapMargin)
	}
	return nil
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
