//go:build !headless

package output

import (
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/ossrs/go-oryx-lib/errors"
)

// Player streams a Source to the default audio device.
type Player struct {
	feeder
	ctx     *oto.Context
	player  *oto.Player
	started bool
}

// NewPlayer opens the audio device at sampleRate.
func NewPlayer(sampleRate int, src Source) (*Player, error) {
	if src == nil {
		return nil, errors.New("output: nil source")
	}
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   40 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, errors.Wrapf(err, "open audio device at %vHz", sampleRate)
	}
	<-ready

	p := &Player{ctx: ctx}
	p.src = src
	p.player = ctx.NewPlayer(&p.feeder)
	return p, nil
}

// Start begins playback. It is a no-op when already started.
func (p *Player) Start() {
	p.Do(func() {
		if !p.started {
			p.player.Play()
			p.started = true
		}
	})
}

// Close stops playback and releases the player.
func (p *Player) Close() error {
	var err error
	p.Do(func() {
		if p.player == nil {
			return
		}
		err = p.player.Close()
		p.player = nil
		p.started = false
	})
	return err
}
