// Package playback owns the single audio output handle tied to the active
// tool result.
//
// States:
//
//	Idle → Loading → Playing ⇄ Paused → Ended
//	Loading, Playing → Error
//
// Any state returns to Idle on Release or when a new source is bound; the
// previous handle is always stopped and closed before a new one is acquired.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/koscakluka/ema-toolpanel/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrNoMedia = errors.New("no media bound")
	// ErrSuperseded is returned by Start when another source was cued or
	// the controller was released while media was loading.
	ErrSuperseded = errors.New("playback superseded")
)

const (
	AutoplayFailedMessage = "Failed to play audio automatically. Click play to try again."
	PlayFailedMessage     = "Failed to play audio"
	PauseFailedMessage    = "Failed to pause audio"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
	StateError   State = "error"
)

// Snapshot is the observable playback state.
type Snapshot struct {
	State     State
	IsPlaying bool
	Source    string
	LastError string
}

type Controller struct {
	mu sync.Mutex

	newMedia MediaFactory
	media    Media
	loaded   bool

	// generation invalidates ended callbacks of released handles.
	generation uint64

	state     State
	source    string
	lastError string

	onEnded func(source string)
	emit    events.Listener
}

type ControllerOption func(*Controller)

// WithOnEnded registers the end-of-media callback. It runs outside the
// controller lock, so it may call back into the controller.
func WithOnEnded(callback func(source string)) ControllerOption {
	return func(c *Controller) { c.onEnded = callback }
}

func WithListener(listener events.Listener) ControllerOption {
	return func(c *Controller) {
		if listener != nil {
			c.emit = listener
		}
	}
}

func NewController(newMedia MediaFactory, opts ...ControllerOption) *Controller {
	c := &Controller{
		newMedia: newMedia,
		state:    StateIdle,
		onEnded:  func(string) {},
		emit:     events.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:     c.state,
		IsPlaying: c.state == StatePlaying,
		Source:    c.source,
		LastError: c.lastError,
	}
}

// Bind tears down the current handle and starts playing source on a fresh
// one. An empty source leaves the controller Idle. Play failures are turned
// into the Error state with a retry message and are also returned.
func (c *Controller) Bind(ctx context.Context, source string) error {
	return c.Start(ctx, c.Cue(source))
}

// Cue releases the current handle and makes source the pending one. The
// returned cue is handed to Start; a later Cue or Release invalidates it.
func (c *Controller) Cue(source string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.releaseLocked()
	if source != "" {
		c.state = StateLoading
		c.source = source
	}
	return c.generation
}

// Start acquires, loads and plays the cued source. Acquiring and loading run
// without the controller lock, so Snapshot stays responsive while media is
// fetched. ErrSuperseded is returned when the cue went stale in the meantime.
func (c *Controller) Start(ctx context.Context, cue uint64) (err error) {
	ctx, span := tracer.Start(ctx, "bind playback")
	defer span.End()
	defer func() {
		if err != nil && !errors.Is(err, ErrSuperseded) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	c.mu.Lock()
	if c.generation != cue {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if c.state != StateLoading {
		c.mu.Unlock()
		return nil
	}
	source := c.source
	c.mu.Unlock()

	span.SetAttributes(attribute.String("playback.source", source))
	return c.load(ctx, cue, source, nil, AutoplayFailedMessage)
}

// Toggle pauses a playing source or (re)starts a paused, ended or failed one.
func (c *Controller) Toggle(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle && c.state != StateLoading && (c.media == nil || !c.loaded) {
		c.state = StateLoading
		cue, source, media := c.generation, c.source, c.media
		c.mu.Unlock()
		return c.load(ctx, cue, source, media, PlayFailedMessage)
	}

	var pending events.Event
	defer func() {
		c.mu.Unlock()
		if pending != nil {
			c.emit(pending)
		}
	}()

	switch c.state {
	case StateIdle, StateLoading:
		return ErrNoMedia

	case StatePlaying:
		if err := c.media.Pause(); err != nil {
			// Playback keeps going, so the visible state stays Playing.
			c.lastError = PauseFailedMessage
			pending = events.NewPlaybackFailed(c.source, PauseFailedMessage, err)
			return fmt.Errorf("failed to pause playback: %w", err)
		}
		c.state = StatePaused
		pending = events.NewPlaybackPaused(c.source)
		return nil
	}

	if err := c.media.Play(ctx); err != nil {
		c.failLocked(PlayFailedMessage)
		pending = events.NewPlaybackFailed(c.source, PlayFailedMessage, err)
		return fmt.Errorf("failed to resume playback: %w", err)
	}
	c.state = StatePlaying
	c.lastError = ""
	pending = events.NewPlaybackStarted(c.source)
	return nil
}

// Release stops and closes the handle and returns to Idle.
func (c *Controller) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releaseLocked()
}

// load loads source into media, acquiring a fresh handle when media is nil,
// and plays it if cue is still current. A fresh handle that lost the race is
// discarded.
func (c *Controller) load(ctx context.Context, cue uint64, source string, media Media, failMessage string) (err error) {
	var pending []events.Event
	defer func() {
		for _, event := range pending {
			c.emit(event)
		}
	}()

	fresh := media == nil
	defer func() {
		if r := recover(); r != nil {
			if fresh && media != nil {
				_ = discard(media)
			}
			c.mu.Lock()
			if c.generation == cue {
				c.releaseLocked()
			}
			c.mu.Unlock()
			panic(r)
		}
	}()

	var loadErr error
	if fresh {
		media, loadErr = c.acquire(ctx, cue)
	}
	if loadErr == nil {
		if loadErr = media.Load(ctx, source); loadErr != nil {
			loadErr = fmt.Errorf("failed to load media %q: %w", source, loadErr)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != cue {
		if fresh && media != nil {
			_ = discard(media)
		}
		return ErrSuperseded
	}
	if fresh && media != nil {
		c.media = media
		fresh = false
	}
	if loadErr != nil {
		c.loaded = false
		c.failLocked(failMessage)
		pending = append(pending, events.NewPlaybackFailed(source, failMessage, loadErr))
		logger.WarnContext(ctx, "Failed to load media", "source", source, "error", loadErr)
		return loadErr
	}
	c.loaded = true

	if err := c.media.Play(ctx); err != nil {
		err = fmt.Errorf("failed to start playback: %w", err)
		c.failLocked(failMessage)
		pending = append(pending, events.NewPlaybackFailed(source, failMessage, err))
		logger.WarnContext(ctx, "Playback failed", "source", source, "error", err)
		return err
	}

	c.state = StatePlaying
	c.lastError = ""
	pending = append(pending, events.NewPlaybackStarted(source))
	return nil
}

func (c *Controller) acquire(ctx context.Context, cue uint64) (Media, error) {
	if c.newMedia == nil {
		return nil, ErrNoMedia
	}
	media, err := c.newMedia(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire media handle: %w", err)
	}
	media.SetOnEnded(func() { c.handleEnded(cue) })
	return media, nil
}

func (c *Controller) failLocked(message string) {
	c.state = StateError
	c.lastError = message
}

func (c *Controller) releaseLocked() error {
	c.generation++

	var err error
	if c.media != nil {
		err = discard(c.media)
		c.media = nil
	}
	if err != nil {
		logger.Warn("Failed to release media handle", "source", c.source, "error", err)
	}

	c.loaded = false
	c.state = StateIdle
	c.source = ""
	c.lastError = ""
	return err
}

// discard detaches, stops and closes media.
func discard(media Media) error {
	media.SetOnEnded(func() {})

	var err error
	if stopErr := media.Stop(); stopErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to stop media: %w", stopErr))
	}
	if closeErr := media.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to close media: %w", closeErr))
	}
	return err
}

func (c *Controller) handleEnded(generation uint64) {
	c.mu.Lock()
	if generation != c.generation || c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	c.state = StateEnded
	source := c.source
	c.mu.Unlock()

	c.emit(events.NewPlaybackEnded(source))
	c.onEnded(source)
}
