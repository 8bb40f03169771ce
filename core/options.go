package toolpanel

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/koscakluka/ema-toolpanel/core/catalog"
	"github.com/koscakluka/ema-toolpanel/core/events"
	"github.com/koscakluka/ema-toolpanel/core/playback"
)

const DefaultContinuationDelay = 500 * time.Millisecond

type PanelOption func(*Panel)

// Channel sends events to the remote session.
type Channel interface {
	SendEvent(event events.Outbound) error
}

// Lifecycle controls the remote session. Implementations must report the
// resulting state change through [Panel.SetSessionActive] asynchronously, not
// from inside StartSession or StopSession.
type Lifecycle interface {
	StartSession(ctx context.Context) error
	StopSession() error
	IsSessionActive() bool
}

// Selector picks an index in [0, n).
type Selector func(n int) int

// OutputFormat selects the shape of the tool result sent back to the session.
type OutputFormat string

const (
	OutputToolOutput       OutputFormat = "tool.output"
	OutputConversationItem OutputFormat = "conversation.item.create"
)

func WithChannel(channel Channel) PanelOption {
	return func(p *Panel) { p.channel.Set(channel) }
}

func WithCatalog(songs *catalog.Catalog) PanelOption {
	return func(p *Panel) {
		if songs != nil && songs.Len() > 0 {
			p.catalog = songs
		}
	}
}

// WithSelector replaces the uniform random catalog selection.
func WithSelector(selector Selector) PanelOption {
	return func(p *Panel) {
		if selector != nil {
			p.selector = selector
		}
	}
}

// WithPassThrough renders the song the model put in the invocation arguments
// instead of picking one from the catalog.
func WithPassThrough() PanelOption {
	return func(p *Panel) { p.passThrough = true }
}

func WithOutputFormat(format OutputFormat) PanelOption {
	return func(p *Panel) {
		switch format {
		case OutputToolOutput, OutputConversationItem:
			p.outputFormat = format
		}
	}
}

// WithAtLeastOnceDelivery handles an invocation every time it is observed as
// the newest event, even if its call id was already handled.
func WithAtLeastOnceDelivery() PanelOption {
	return func(p *Panel) { p.atLeastOnce = true }
}

func WithContinuationDelay(delay time.Duration) PanelOption {
	return func(p *Panel) {
		if delay >= 0 {
			p.continuation.delay = delay
		}
	}
}

// WithPlaybackGating stops the session while a recommended song plays and
// restarts it once the song ends.
func WithPlaybackGating(lifecycle Lifecycle) PanelOption {
	return func(p *Panel) { p.lifecycle = lifecycle }
}

// WithMediaFactory sets how the panel acquires audio output handles. Without
// it recommendations are shown but never played.
func WithMediaFactory(factory playback.MediaFactory) PanelOption {
	return func(p *Panel) { p.mediaFactory = factory }
}

// WithListener registers a listener for local panel events. Listeners run
// synchronously and must not call back into the panel.
func WithListener(listener events.Listener) PanelOption {
	return func(p *Panel) {
		if listener != nil {
			p.listeners = append(p.listeners, listener)
		}
	}
}

func defaultSelector(n int) int {
	return rand.IntN(n)
}
