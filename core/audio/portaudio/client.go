// Package portaudio plays clips on the default output device through
// PortAudio.
package portaudio

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-toolpanel/core/audio"
	"github.com/koscakluka/ema-toolpanel/core/audio/wav"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const (
	scopeName         = "github.com/koscakluka/ema-toolpanel/core/audio/portaudio"
	defaultBufferSize = 1024
)

var logger = otelslog.NewLogger(scopeName)

// Client owns the PortAudio library lifetime.
type Client struct {
	bufferSize int
	resolver   *audio.Resolver
}

type ClientOption func(*Client)

func WithBufferSize(frames int) ClientOption {
	return func(c *Client) {
		if frames > 0 {
			c.bufferSize = frames
		}
	}
}

func WithResolver(resolver *audio.Resolver) ClientOption {
	return func(c *Client) {
		if resolver != nil {
			c.resolver = resolver
		}
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	client := &Client{
		bufferSize: defaultBufferSize,
		resolver:   audio.NewResolver(""),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) NewPlayer(_ context.Context) (*Player, error) {
	return &Player{client: c}, nil
}

func (c *Client) Close() {
	if err := portaudio.Terminate(); err != nil {
		logger.Warn("Failed to terminate PortAudio", "error", err)
	}
}

// Player is one playback handle backed by a PortAudio output stream.
type Player struct {
	client *Client

	stream  *portaudio.Stream
	info    audio.EncodingInfo
	track   audio.Track
	scratch []byte
	started bool

	mu sync.Mutex
}

func (p *Player) Load(ctx context.Context, source string) error {
	clip, err := wav.Load(ctx, p.client.resolver, source)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil || p.info != clip.Info {
		p.closeStream()
		if err := p.openStream(clip.Info); err != nil {
			return err
		}
	}

	p.track.Load(clip)
	return nil
}

func (p *Player) openStream(info audio.EncodingInfo) error {
	stream, err := portaudio.OpenDefaultStream(
		0, info.Channels, float64(info.SampleRate), p.client.bufferSize,
		p.processAudio,
	)
	if err != nil {
		return fmt.Errorf("failed to open PortAudio stream: %w", err)
	}

	p.stream = stream
	p.info = info
	return nil
}

func (p *Player) processAudio(out []int16) {
	if need := len(out) * 2; len(p.scratch) < need {
		p.scratch = make([]byte, need)
	}
	buffer := p.scratch[:len(out)*2]
	p.track.Read(buffer)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(buffer[i*2:]))
	}
}

func (p *Player) Play(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return fmt.Errorf("stream not open")
	}

	if !p.track.Resume() {
		return fmt.Errorf("nothing loaded")
	}
	if !p.started {
		if err := p.stream.Start(); err != nil {
			p.track.Pause()
			return fmt.Errorf("failed to start PortAudio stream: %w", err)
		}
		p.started = true
	}
	return nil
}

func (p *Player) Pause() error {
	p.track.Pause()
	return nil
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.track.Reset()
	if p.stream == nil || !p.started {
		return nil
	}
	p.started = false
	if err := p.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop PortAudio stream: %w", err)
	}
	return nil
}

func (p *Player) SetOnEnded(callback func()) {
	p.track.SetOnEnded(callback)
}

func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.track.Reset()
	return p.closeStream()
}

func (p *Player) closeStream() error {
	if p.stream == nil {
		return nil
	}
	stream := p.stream
	p.stream = nil
	if p.started {
		p.started = false
		_ = stream.Stop()
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close PortAudio stream: %w", err)
	}
	return nil
}
