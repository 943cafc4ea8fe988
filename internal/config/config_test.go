package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-sampler/sampler"
)

var allKeys = []string{
	EnvSampleRate, EnvBlockSize, EnvMaxPolyphony, EnvReleaseFraction,
	EnvStopMargin, EnvReapMargin, EnvBitDepth,
}

// clearEnv unsets every SAMPLER_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c != Default() {
		t.Fatalf("got %+v want %+v", c, Default())
	}
	if c.Sampler != sampler.DefaultOptions() {
		t.Fatalf("sampler options %+v", c.Sampler)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "SAMPLER_SAMPLE_RATE=44100\nSAMPLER_MAX_POLYPHONY=5\nSAMPLER_BIT_DEPTH=24\n")
	t.Setenv(EnvMaxPolyphony, "8")
	t.Setenv(EnvReapMargin, "1.5")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.SampleRate != 44100 {
		t.Errorf("sample rate %v", c.SampleRate)
	}
	if c.BitDepth != 24 {
		t.Errorf("bit depth %v", c.BitDepth)
	}
	if c.Sampler.MaxPolyphony != 8 {
		t.Errorf("environment must win over file: polyphony %v", c.Sampler.MaxPolyphony)
	}
	if c.Sampler.ReapMargin != 1.5 {
		t.Errorf("reap margin %v", c.Sampler.ReapMargin)
	}
	if _, ok := os.LookupEnv(EnvSampleRate); ok {
		t.Error("Load must not export file values into the environment")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"not a number", EnvSampleRate, "fast"},
		{"not an int", EnvBlockSize, "1.5"},
		{"rate too low", EnvSampleRate, "100"},
		{"bit depth", EnvBitDepth, "12"},
		{"polyphony", EnvMaxPolyphony, "0"},
		{"release fraction", EnvReleaseFraction, "2"},
		{"stop margin", EnvStopMargin, "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(""); err == nil {
				t.Fatalf("%v=%v accepted", tt.key, tt.val)
			}
		})
	}
}

func TestRegisterFlags_OverrideLoaded(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSampleRate, "44100")
	t.Setenv(EnvBlockSize, "64")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)
	if err := fs.Parse([]string{"-rate", "96000", "-polyphony", "4"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if c.SampleRate != 96000 || c.BlockSize != 64 || c.Sampler.MaxPolyphony != 4 {
		t.Fatalf("got %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
