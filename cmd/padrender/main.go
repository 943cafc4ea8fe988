// Command padrender loads samples into the 16-pad sampler, plays a trigger
// pattern and renders the result to a WAV file, the speakers, or both.
//
// Usage:
//
//	padrender [flags]
//
// Examples:
//
//	padrender -kit ./kit -pattern "0@0,2@0.25:0.6,1@0.5" -out beat.wav
//	padrender -sample 0=kick.wav -set pad0_pitch=0.8 -pattern 0@0 -play
//	padrender -state preset.json -kit ./kit -dump-state
//
// Settings may also come from SAMPLER_* environment variables or a .env
// file; flags win.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/algo-sampler/graph"
	"github.com/cwbudde/algo-sampler/internal/analysis"
	"github.com/cwbudde/algo-sampler/internal/config"
	"github.com/cwbudde/algo-sampler/internal/output"
	"github.com/cwbudde/algo-sampler/param"
	"github.com/cwbudde/algo-sampler/pcm"
	"github.com/cwbudde/algo-sampler/sampler"
	"github.com/ossrs/go-oryx-lib/errors"
	"github.com/ossrs/go-oryx-lib/logger"
)

func main() {
	ctx := logger.WithContext(context.Background())

	if err := doMain(ctx, os.Args[1:]); err != nil {
		logger.Ef(ctx, "run err %+v", err)
		os.Exit(1)
	}
}

func doMain(ctx context.Context, args []string) error {
	envFile := ".env"
	for i, a := range args {
		if (a == "-env" || a == "--env") && i+1 < len(args) {
			envFile = args[i+1]
		} else if v, ok := strings.CutPrefix(a, "-env="); ok {
			envFile = v
		}
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		return errors.Wrapf(err, "load config")
	}

	fs := flag.NewFlagSet("padrender", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	fs.StringVar(&envFile, "env", envFile, "optional .env file with SAMPLER_* settings")
	kit := fs.String("kit", "", "directory whose *.wav files are loaded into pads 0..15 in name order")
	samples := padFiles{}
	fs.Var(samples, "sample", "load a WAV file into a pad, as index=path (repeatable)")
	statePath := fs.String("state", "", "JSON state file applied before samples are loaded")
	var sets assignments
	fs.Var(&sets, "set", "set a parameter, as key=value (repeatable, e.g. pad0_pitch=0.8)")
	patternStr := fs.String("pattern", "", "trigger pattern pad@seconds[:velocity],...")
	duration := fs.Float64("duration", 0, "render length in seconds; 0 renders until the last voice ends")
	pitchShift := fs.Float64("pitch-shift", 0, "global transposition in semitones")
	adsr := fs.Bool("adsr", false, "enable the default ADSR envelope")
	masterTone := fs.Float64("master-tone", 0, "master tilt in [-1, 1]")
	outPath := fs.String("out", "", "output WAV file")
	play := fs.Bool("play", false, "play the render through the default audio device")
	dumpState := fs.Bool("dump-state", false, "print the final engine state as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	hits, err := parsePattern(*patternStr)
	if err != nil {
		return err
	}

	gctx, err := graph.NewOfflineContext(cfg.SampleRate, graph.WithQuantum(cfg.BlockSize))
	if err != nil {
		return errors.Wrapf(err, "graph context")
	}
	e, err := sampler.New(ctx, gctx, cfg.Sampler)
	if err != nil {
		return errors.Wrapf(err, "sampler")
	}
	if err := e.Connect(gctx.Destination()); err != nil {
		return errors.Wrapf(err, "connect")
	}

	if *statePath != "" {
		data, err := os.ReadFile(*statePath)
		if err != nil {
			return errors.Wrapf(err, "read %v", *statePath)
		}
		s, err := sampler.ParseState(ctx, data)
		if err != nil {
			return errors.Wrapf(err, "parse %v", *statePath)
		}
		e.SetState(s)
	}
	if *kit != "" {
		n, err := loadKit(e, *kit)
		if err != nil {
			return errors.Wrapf(err, "kit %v", *kit)
		}
		logger.Tf(ctx, "kit %v loaded %v pads", *kit, n)
	}
	for pad, path := range samples {
		if err := loadPad(e, pad, path); err != nil {
			return err
		}
	}
	for _, s := range sets {
		key, v, err := param.Parse(s)
		if err != nil {
			return err
		}
		if err := param.Set(e, key, v); err != nil {
			return err
		}
	}
	e.SetPitchShift(*pitchShift)
	e.SetMasterTone(*masterTone)
	if *adsr {
		env := sampler.DefaultEnvelope()
		env.Enabled = true
		e.SetEnvelope(env)
	}

	if *dumpState {
		data, err := e.State().Marshal()
		if err != nil {
			return errors.Wrapf(err, "marshal state")
		}
		fmt.Println(string(data))
	}
	if len(hits) == 0 {
		printPads(os.Stdout, e)
		return nil
	}

	length := *duration
	if length <= 0 {
		length = expectedLength(e, hits)
	}
	out, err := renderPattern(e, gctx, hits, length)
	if err != nil {
		return err
	}
	logger.Tf(ctx, "rendered %v hits into %.3fs", len(hits), out.Duration())

	printPads(os.Stdout, e)
	report, err := analysis.Analyze(out)
	if err != nil {
		return errors.Wrapf(err, "analyze")
	}
	printReport(os.Stdout, report)

	if *outPath != "" {
		if err := pcm.SaveFile(*outPath, out, cfg.BitDepth); err != nil {
			return err
		}
		logger.Tf(ctx, "wrote %v", *outPath)
	}
	if *play {
		if err := playBuffer(ctx, out); err != nil {
			return errors.Wrapf(err, "play")
		}
	}
	return nil
}

// playBuffer streams b to the audio device and waits until it has played.
func playBuffer(ctx context.Context, b *pcm.Buffer) error {
	gctx, err := graph.NewOfflineContext(b.SampleRate())
	if err != nil {
		return err
	}
	src := gctx.NewBufferSource()
	src.SetBuffer(b)
	if err := src.Connect(gctx.Destination()); err != nil {
		return err
	}
	done := make(chan struct{})
	src.OnEnded(func() { close(done) })
	if err := src.Start(0, 0); err != nil {
		return err
	}

	p, err := output.NewPlayer(int(b.SampleRate()), gctx)
	if err != nil {
		return err
	}
	defer p.Close()
	p.Start()

	select {
	case <-done:
	case <-time.After(time.Duration((b.Duration() + 1) * float64(time.Second))):
		logger.Wf(ctx, "playback did not finish in time")
	}
	// Let the device drain its buffer.
	time.Sleep(100 * time.Millisecond)
	return p.Err()
}

func printPads(w io.Writer, e *sampler.Engine) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Pad\tName\tNote\tLength [s]\tTrim\tPitch\tTone\tVolume\tPan\tReverse\n")
	fmt.Fprintf(tw, "---\t----\t----\t----------\t----\t-----\t----\t------\t---\t-------\n")
	for i := 0; i < sampler.NumPads; i++ {
		p, _ := e.Pad(i)
		if p.Buffer() == nil {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.3f\t%.2f-%.2f\t%.2f\t%+.2f\t%.2f\t%+.2f\t%v\n",
			i, p.Name(), p.MidiNote(), p.Buffer().Duration(),
			p.TrimStart(), p.TrimEnd(), p.Pitch(), p.Tone(), p.Volume(), p.Pan(), p.Reverse())
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func printReport(w io.Writer, r analysis.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\nDuration [s]\tPeak [dBFS]\tRMS L [dBFS]\tRMS R [dBFS]\tCentroid [Hz]\n")
	fmt.Fprintf(tw, "------------\t-----------\t------------\t------------\t-------------\n")
	rmsR := r.RMS[0]
	if len(r.RMS) > 1 {
		rmsR = r.RMS[1]
	}
	fmt.Fprintf(tw, "%.3f\t%.2f\t%.2f\t%.2f\t%.1f\n",
		r.Duration, r.PeakDB(), analysis.ToDB(r.RMS[0]), analysis.ToDB(rmsR), r.Centroid)
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}
