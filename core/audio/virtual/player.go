// Package virtual is a headless output backend. It advances clips in real
// time without touching an audio device.
package virtual

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/koscakluka/ema-toolpanel/core/audio"
	"github.com/koscakluka/ema-toolpanel/core/audio/wav"
)

const defaultTick = 20 * time.Millisecond

type Loader func(ctx context.Context, source string) (audio.Clip, error)

type Player struct {
	load  Loader
	tick  time.Duration
	speed float64

	track   audio.Track
	running bool
	stop    chan struct{}
	done    chan struct{}
	closed  bool

	mu sync.Mutex
}

type PlayerOption func(*Player)

// WithResolver decodes WAVE files found through resolver.
func WithResolver(resolver *audio.Resolver) PlayerOption {
	return func(p *Player) {
		p.load = func(ctx context.Context, source string) (audio.Clip, error) {
			return wav.Load(ctx, resolver, source)
		}
	}
}

func WithLoader(load Loader) PlayerOption {
	return func(p *Player) {
		if load != nil {
			p.load = load
		}
	}
}

func WithTick(tick time.Duration) PlayerOption {
	return func(p *Player) {
		if tick > 0 {
			p.tick = tick
		}
	}
}

// WithSpeed plays clips faster (>1) or slower (<1) than real time.
func WithSpeed(speed float64) PlayerOption {
	return func(p *Player) {
		if speed > 0 {
			p.speed = speed
		}
	}
}

func NewPlayer(opts ...PlayerOption) *Player {
	p := &Player{
		tick:  defaultTick,
		speed: 1,
	}
	WithResolver(nil)(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Factory returns a constructor producing players with the same options.
func Factory(opts ...PlayerOption) func(context.Context) (*Player, error) {
	return func(context.Context) (*Player, error) {
		return NewPlayer(opts...), nil
	}
}

func (p *Player) Load(ctx context.Context, source string) error {
	clip, err := p.load(ctx, source)
	if err != nil {
		return err
	}
	if clip.Info.BytesPerFrame() == 0 || clip.Info.SampleRate <= 0 {
		return fmt.Errorf("unsupported clip encoding %+v", clip.Info)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("player closed")
	}
	p.track.Load(clip)
	return nil
}

func (p *Player) Play(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("player closed")
	}
	if !p.track.Resume() {
		return fmt.Errorf("nothing loaded")
	}
	if !p.running {
		p.running = true
		p.stop = make(chan struct{})
		p.done = make(chan struct{})
		go p.run(p.stop, p.done)
	}
	return nil
}

func (p *Player) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	var buffer []byte
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			info := p.track.Info()
			frames := int(float64(info.SampleRate) * p.tick.Seconds() * p.speed)
			need := frames * info.BytesPerFrame()
			if need <= 0 {
				continue
			}
			if len(buffer) < need {
				buffer = make([]byte, need)
			}
			p.track.Read(buffer[:need])
		}
	}
}

func (p *Player) Pause() error {
	p.track.Pause()
	return nil
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.track.Reset()
	p.halt()
	return nil
}

func (p *Player) SetOnEnded(callback func()) {
	p.track.SetOnEnded(callback)
}

func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.track.Reset()
	p.halt()
	return nil
}

func (p *Player) IsPlaying() bool {
	return p.track.IsPlaying()
}

func (p *Player) halt() {
	if !p.running {
		return
	}
	p.running = false
	close(p.stop)
	<-p.done
}
