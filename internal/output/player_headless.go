//go:build headless

package output

import (
	"time"

	"github.com/ossrs/go-oryx-lib/errors"
)

// Player consumes a Source in real time without an audio device.
type Player struct {
	feeder
	sampleRate int
	done       chan struct{}
	started    bool
}

// NewPlayer returns a device-less player.
func NewPlayer(sampleRate int, src Source) (*Player, error) {
	if src == nil {
		return nil, errors.New("output: nil source")
	}
	if sampleRate <= 0 {
		return nil, errors.Errorf("output: invalid sample rate %v", sampleRate)
	}
	p := &Player{sampleRate: sampleRate, done: make(chan struct{})}
	p.src = src
	return p, nil
}

// Start pulls 10ms blocks from the source at the wall-clock rate.
func (p *Player) Start() {
	var start bool
	p.Do(func() {
		start = !p.started
		p.started = true
	})
	if !start {
		return
	}

	block := make([]byte, p.sampleRate/100*Channels*4)
	go func() {
		tick := time.NewTicker(10 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-tick.C:
				p.Read(block)
			}
		}
	}()
}

// Close stops the pull loop.
func (p *Player) Close() error {
	p.Do(func() {
		if p.started {
			close(p.done)
			p.started = false
		}
	})
	return nil
}
