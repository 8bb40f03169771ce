package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-toolpanel/core/audio"
	"github.com/koscakluka/ema-toolpanel/core/audio/wav"
)

// Player is one playback handle backed by a malgo output device.
type Player struct {
	client *Client

	device *malgo.Device
	info   audio.EncodingInfo
	track  audio.Track
	closed bool

	mu sync.Mutex
}

func (p *Player) Load(ctx context.Context, source string) error {
	clip, err := wav.Load(ctx, p.client.resolver, source)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("player closed")
	}

	if p.device == nil || p.info != clip.Info {
		p.uninitDevice()
		if err := p.initDevice(clip.Info); err != nil {
			return err
		}
	}

	p.track.Load(clip)
	return nil
}

func (p *Player) initDevice(info audio.EncodingInfo) error {
	if p.client.audioContext == nil {
		return fmt.Errorf("audio context closed")
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(info.SampleRate)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = uint32(info.Channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = uint32(info.SampleRate / 10) // ~100ms of audio
	config.Periods = 4

	bytesPerFrame := info.BytesPerFrame()
	device, err := malgo.InitDevice(
		p.client.audioContext.Context,
		config,
		malgo.DeviceCallbacks{Data: p.processAudio(bytesPerFrame)},
	)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	p.device = device
	p.info = info
	return nil
}

func (p *Player) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame
		if need > len(pOutput) {
			need = len(pOutput)
		}
		p.track.Read(pOutput[:need])
	}
}

func (p *Player) Play(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if !p.track.Resume() {
		return fmt.Errorf("nothing loaded")
	}
	if !p.device.IsStarted() {
		if err := p.device.Start(); err != nil {
			p.track.Pause()
			return fmt.Errorf("failed to start playback device: %w", err)
		}
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
	if p.device == nil || !p.device.IsStarted() {
		return nil
	}
	if err := p.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}
	return nil
}

func (p *Player) SetOnEnded(callback func()) {
	p.track.SetOnEnded(callback)
}

func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.track.Reset()
	p.uninitDevice()
	p.client.release()
	return nil
}

func (p *Player) uninitDevice() {
	if p.device == nil {
		return
	}
	p.device.Uninit()
	p.device = nil
}
