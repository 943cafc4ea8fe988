//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"github.com/cwbudde/algo-sampler/internal/webdemo"
	"github.com/cwbudde/algo-sampler/sampler"
	"github.com/ossrs/go-oryx-lib/logger"
)

var (
	host  *webdemo.Host
	funcs []js.Func
)

func main() {
	ctx := logger.WithContext(context.Background())

	api := js.Global().Get("Object").New()
	api.Set("init", export(func(args []js.Value) any {
		sr := 48000.0
		if len(args) > 0 {
			sr = args[0].Float()
		}
		h, err := webdemo.NewHost(ctx, sr, sampler.DefaultOptions())
		if err != nil {
			return err.Error()
		}
		host = h
		return js.Null()
	}))

	// loadSample(pad, sampleRate, [Float32Array, ...])
	api.Set("loadSample", export(func(args []js.Value) any {
		if host == nil || len(args) < 3 {
			return js.Null()
		}
		arr := args[2]
		channels := make([][]float32, arr.Length())
		for ch := range channels {
			channels[ch] = float32s(arr.Index(ch))
		}
		if err := host.LoadSample(args[0].Int(), args[1].Float(), channels); err != nil {
			return err.Error()
		}
		return js.Null()
	}))

	// loadWAV(pad, Uint8Array)
	api.Set("loadWAV", export(func(args []js.Value) any {
		if host == nil || len(args) < 2 {
			return js.Null()
		}
		data := make([]byte, args[1].Length())
		js.CopyBytesToGo(data, args[1])
		if err := host.LoadWAV(args[0].Int(), data); err != nil {
			return err.Error()
		}
		return js.Null()
	}))

	api.Set("playPad", export(func(args []js.Value) any {
		if host == nil || len(args) < 1 {
			return js.Null()
		}
		velocity := 1.0
		if len(args) > 1 {
			velocity = args[1].Float()
		}
		host.PlayPad(args[0].Int(), velocity)
		return js.Null()
	}))

	api.Set("setParam", export(func(args []js.Value) any {
		if host == nil || len(args) < 2 {
			return js.Null()
		}
		if err := host.SetParam(args[0].String(), args[1].Float()); err != nil {
			return err.Error()
		}
		return js.Null()
	}))

	api.Set("getParam", export(func(args []js.Value) any {
		if host == nil || len(args) < 1 {
			return js.Null()
		}
		v, err := host.Param(args[0].String())
		if err != nil {
			return js.Null()
		}
		return v
	}))

	api.Set("params", export(func(args []js.Value) any {
		if host == nil {
			return js.Global().Get("Array").New(0)
		}
		ds := host.Params()
		arr := js.Global().Get("Array").New(len(ds))
		for i, d := range ds {
			o := js.Global().Get("Object").New()
			o.Set("key", d.Key)
			o.Set("defaultValue", d.Default)
			o.Set("minValue", d.Min)
			o.Set("maxValue", d.Max)
			o.Set("automatable", d.Automatable)
			arr.SetIndex(i, o)
		}
		return arr
	}))

	api.Set("getState", export(func(args []js.Value) any {
		if host == nil {
			return js.Null()
		}
		s, err := host.State()
		if err != nil {
			return js.Null()
		}
		return s
	}))

	api.Set("setState", export(func(args []js.Value) any {
		if host == nil || len(args) < 1 {
			return js.Null()
		}
		if err := host.SetState(args[0].String()); err != nil {
			return err.Error()
		}
		return js.Null()
	}))

	// midiMessage(Uint8Array | number[])
	api.Set("midiMessage", export(func(args []js.Value) any {
		if host == nil || len(args) < 1 {
			return false
		}
		msg := make([]byte, args[0].Length())
		for i := range msg {
			msg[i] = byte(args[0].Index(i).Int())
		}
		return host.MIDIMessage(msg)
	}))

	// render(frames) returns interleaved stereo samples.
	api.Set("render", export(func(args []js.Value) any {
		if host == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}
		buf, err := host.RenderFrames(args[0].Int())
		if err != nil {
			logger.Wf(ctx, "render err %+v", err)
		}
		arr := js.Global().Get("Float32Array").New(len(buf))
		for i := range buf {
			arr.SetIndex(i, buf[i])
		}
		return arr
	}))

	js.Global().Set("AlgoSampler", api)
	select {}
}

func float32s(v js.Value) []float32 {
	out := make([]float32, v.Length())
	for i := range out {
		out[i] = float32(v.Index(i).Float())
	}
	return out
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}
