// Package miniaudio plays clips on the default output device through malgo.
package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-toolpanel/core/audio"
)

// Client owns the malgo context shared by all players it creates.
type Client struct {
	// audioContext is only kept so it can be uninitialized, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	resolver     *audio.Resolver

	mu      sync.Mutex
	players int
}

type ClientOption func(*Client)

func WithResolver(resolver *audio.Resolver) ClientOption {
	return func(c *Client) {
		if resolver != nil {
			c.resolver = resolver
		}
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) { logger.Debug("malgo", "message", message) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := &Client{
		audioContext: audioCtx,
		resolver:     audio.NewResolver(""),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewPlayer returns a fresh output handle. Its device is created lazily on
// the first Load so it matches the clip encoding.
func (c *Client) NewPlayer(_ context.Context) (*Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.audioContext == nil {
		return nil, fmt.Errorf("audio context closed")
	}
	c.players++
	return &Player{client: c}, nil
}

func (c *Client) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.players--
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.audioContext == nil {
		return
	}
	if c.players > 0 {
		logger.Warn("Closing audio context with open players", "players", c.players)
	}
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
	c.audioContext = nil
}
