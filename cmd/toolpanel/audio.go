package main

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-toolpanel/core/audio"
	"github.com/koscakluka/ema-toolpanel/core/audio/miniaudio"
	"github.com/koscakluka/ema-toolpanel/core/audio/portaudio"
	"github.com/koscakluka/ema-toolpanel/core/audio/virtual"
	"github.com/koscakluka/ema-toolpanel/core/config"
	"github.com/koscakluka/ema-toolpanel/core/playback"
)

// newMediaFactory opens the configured audio backend. The returned func
// releases it.
func newMediaFactory(cfg config.AudioConfig) (playback.MediaFactory, func(), error) {
	resolver := audio.NewResolver(cfg.MusicDir)

	switch cfg.Backend {
	case config.BackendMiniaudio:
		client, err := miniaudio.NewClient(miniaudio.WithResolver(resolver))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open miniaudio: %w", err)
		}
		return asMediaFactory(client.NewPlayer), client.Close, nil

	case config.BackendPortaudio:
		client, err := portaudio.NewClient(
			portaudio.WithResolver(resolver),
			portaudio.WithBufferSize(cfg.BufferFrames),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open portaudio: %w", err)
		}
		return asMediaFactory(client.NewPlayer), client.Close, nil

	case config.BackendNone:
		return asMediaFactory(virtual.Factory(virtual.WithResolver(resolver))), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown audio backend %q", cfg.Backend)
	}
}

func asMediaFactory[P playback.Media](newPlayer func(context.Context) (P, error)) playback.MediaFactory {
	return func(ctx context.Context) (playback.Media, error) {
		player, err := newPlayer(ctx)
		if err != nil {
			return nil, err
		}
		return player, nil
	}
}
