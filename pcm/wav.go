package pcm

import (
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/ossrs/go-oryx-lib/errors"
)

// Decode reads an integer PCM WAV stream into a Buffer with samples
// normalized to [-1, 1].
func Decode(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("pcm: not a valid wav stream")
	}

	ib, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrapf(err, "decode pcm")
	}
	if ib.Format == nil || ib.Format.NumChannels < 1 {
		return nil, errors.New("pcm: wav stream has no channels")
	}

	bitDepth := ib.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	return fromIntBuffer(ib, bitDepth)
}

// LoadFile decodes the WAV file at path.
func LoadFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %v", path)
	}
	defer f.Close()

	b, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %v", path)
	}
	return b, nil
}

// Encode writes b as an integer PCM WAV stream. bitDepth is 16, 24 or 32.
func Encode(w io.WriteSeeker, b *Buffer, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return errors.Errorf("pcm: unsupported bit depth %d", bitDepth)
	}

	sr := int(math.Round(b.SampleRate()))
	enc := wav.NewEncoder(w, sr, bitDepth, b.NumChannels(), 1)

	if err := enc.Write(toIntBuffer(b, bitDepth)); err != nil {
		return errors.Wrapf(err, "encode %v frames", b.Len())
	}
	if err := enc.Close(); err != nil {
		return errors.Wrapf(err, "close encoder")
	}
	return nil
}

// SaveFile writes b to path as a WAV file.
func SaveFile(path string, b *Buffer, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %v", path)
	}
	defer f.Close()

	if err := Encode(f, b, bitDepth); err != nil {
		return errors.Wrapf(err, "save %v", path)
	}
	return nil
}

func fromIntBuffer(ib *audio.IntBuffer, bitDepth int) (*Buffer, error) {
	numCh := ib.Format.NumChannels
	frames := len(ib.Data) / numCh

	var scale, bias float64
	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned.
		scale, bias = 1.0/128, -128
	case 16, 24, 32:
		scale = 1 / float64(audio.IntMaxSignedValue(bitDepth)+1)
	default:
		return nil, errors.Errorf("pcm: unsupported bit depth %d", bitDepth)
	}

	channels := make([][]float64, numCh)
	for ch := range channels {
		channels[ch] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numCh; ch++ {
			channels[ch][i] = (float64(ib.Data[i*numCh+ch]) + bias) * scale
		}
	}

	b, err := New(float64(ib.Format.SampleRate), channels...)
	if err != nil {
		return nil, errors.Wrapf(err, "wav header")
	}
	return b, nil
}

func toIntBuffer(b *Buffer, bitDepth int) *audio.IntBuffer {
	numCh := b.NumChannels()
	frames := b.Len()
	peak := float64(audio.IntMaxSignedValue(bitDepth))

	data := make([]int, frames*numCh)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numCh; ch++ {
			x := b.channels[ch][i]
			switch {
			case math.IsNaN(x):
				x = 0
			case x > 1:
				x = 1
			case x < -1:
				x = -1
			}
			data[i*numCh+ch] = int(math.Round(x * peak))
		}
	}

	return &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: numCh, SampleRate: int(math.Round(b.SampleRate()))},
		SourceBitDepth: bitDepth,
	}
}
