// Package oto plays the master mix on the default audio device of the system.
package oto

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/shapetone/shapetone"
)

type (
	// Context is an open audio device. The engine renders mono; the device is
	// opened in stereo and every sample is written to both channels.
	Context struct {
		ctx        *oto.Context
		sampleRate int
	}

	// Player is a running playback started with Context.Play.
	Player struct {
		player *oto.Player
		once   sync.Once
	}

	// reader pulls blocks from the render function whenever the device needs
	// more data.
	reader struct {
		render  func(block []float32)
		mono    []float32
		frame   [frameSize]byte
		pending []byte // unread tail of frame
	}
)

const channelCount = 2

// frameSize is the size of one stereo float32 frame in bytes.
const frameSize = channelCount * 4

// NewContext opens the audio device and waits until it is ready.
func NewContext(sampleRate int) (*Context, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx, sampleRate: sampleRate}, nil
}

func (c *Context) SampleRate() int { return c.sampleRate }

// Play starts pulling audio from render. render is called from the audio
// goroutine of the device.
func (c *Context) Play(render func(block []float32)) (shapetone.AudioPlayer, error) {
	p := c.ctx.NewPlayer(&reader{render: render})
	p.Play()
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("cannot start oto player: %w", err)
	}
	return &Player{player: p}, nil
}

// Close stops the playback. Closing twice does nothing.
func (p *Player) Close() (err error) {
	p.once.Do(func() {
		p.player.Pause()
		if cerr := p.player.Close(); cerr != nil {
			err = fmt.Errorf("cannot close oto player: %w", cerr)
		}
	})
	return err
}

// Read renders as many whole frames as fit in buf. A buf shorter than one
// frame gets the first bytes of a single rendered frame, and the rest of that
// frame is returned by the following reads.
func (r *reader) Read(buf []byte) (int, error) {
	if len(r.pending) > 0 {
		n := copy(buf, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}
	frames := len(buf) / frameSize
	if frames == 0 {
		if len(buf) == 0 {
			return 0, nil
		}
		r.pending = MonoToStereoFloat32LE(r.frame[:0], r.renderFrames(1))
		n := copy(buf, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}
	MonoToStereoFloat32LE(buf[:0], r.renderFrames(frames))
	return frames * frameSize, nil
}

func (r *reader) renderFrames(frames int) []float32 {
	if cap(r.mono) < frames {
		r.mono = make([]float32, frames)
	}
	mono := r.mono[:frames]
	r.render(mono)
	return mono
}

var _ shapetone.AudioOutput = (*Context)(nil)
