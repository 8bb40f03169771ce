// Package toolpanel exposes local tools to a realtime conversational session
// and renders whichever tool result the model asks for.
//
// The panel watches the session event list (newest first), registers its
// tools once per session, executes invocations of those tools, plays the
// resulting song and nudges the model with a follow-up prompt.
package toolpanel

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-toolpanel/core/catalog"
	"github.com/koscakluka/ema-toolpanel/core/events"
	"github.com/koscakluka/ema-toolpanel/core/playback"
	"github.com/koscakluka/ema-toolpanel/core/tools"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Panel struct {
	mu        sync.Mutex
	closeOnce sync.Once

	registry     *tools.Registry
	catalog      *catalog.Catalog
	selector     Selector
	passThrough  bool
	outputFormat OutputFormat
	atLeastOnce  bool

	channel      channel
	lifecycle    Lifecycle
	mediaFactory playback.MediaFactory
	player       *playback.Controller
	continuation continuation
	listeners    []events.Listener
	baseContext  context.Context

	// cued is the playback to start once the panel lock is released.
	cued *cuedPlayback

	sessionActive bool
	registered    bool
	// suspended is set while the panel itself stopped the session for
	// playback. The result and playback survive that deactivation.
	suspended bool
	seen      map[string]struct{}
	result    *ToolResult
	closed    bool
}

func NewPanel(opts ...PanelOption) *Panel {
	registry, _ := tools.NewRegistry(tools.SongRecommendation())

	p := &Panel{
		registry:     registry,
		catalog:      catalog.Default(),
		selector:     defaultSelector,
		outputFormat: OutputToolOutput,
		continuation: newContinuation(),
		baseContext:  context.Background(),
		seen:         map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(p)
	}

	p.player = playback.NewController(p.mediaFactory,
		playback.WithListener(p.emit),
		playback.WithOnEnded(p.handlePlaybackEnded),
	)
	return p
}

// Run sets the context used for playback and tool calls started by the
// panel and closes the panel once ctx is done.
func (p *Panel) Run(ctx context.Context) {
	p.mu.Lock()
	p.baseContext = ctx
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.Close()
	}()
}

func (p *Panel) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		p.closed = true
		p.cancelContinuationsLocked()
		p.clearResultLocked("panel closed")
		if err := p.player.Release(); err != nil {
			p.recordError(fmt.Errorf("failed to release playback: %w", err))
		}
	})
}

// SetSessionActive reports the session lifecycle. Deactivation clears the
// registration latch and, unless the panel stopped the session itself for
// playback, also the active result, pending prompts and playback.
func (p *Panel) SetSessionActive(active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if active {
		p.sessionActive = true
		p.suspended = false
		return
	}

	p.sessionActive = false
	p.registered = false
	p.seen = map[string]struct{}{}

	if p.suspended {
		return
	}

	p.cancelContinuationsLocked()
	p.clearResultLocked("session ended")
	if err := p.player.Release(); err != nil {
		p.recordError(fmt.Errorf("failed to release playback: %w", err))
	}
}

// Observe processes the current session event list, newest event first.
//
// The registration is sent once the oldest event is session.created, and
// invocations are only looked for in the newest event. Callers pass the full
// list on every change.
func (p *Panel) Observe(list []events.Inbound) {
	p.mu.Lock()
	p.observeLocked(list)
	cued := p.takeCuedLocked()
	p.mu.Unlock()

	p.startCued(cued)
}

func (p *Panel) observeLocked(list []events.Inbound) {
	if p.closed || !p.sessionActive || len(list) == 0 {
		return
	}

	if oldest := list[len(list)-1]; oldest.Type == events.TypeSessionCreated && !p.registered {
		p.registerLocked()
	}

	newest := list[0]
	switch newest.Type {
	case events.TypeError:
		if newest.Error != nil {
			logger.Warn("Session reported an error",
				"type", newest.Error.Type,
				"code", newest.Error.Code,
				"message", newest.Error.Message,
			)
		}
		return
	case events.TypeResponseDone:
	default:
		return
	}

	for _, call := range newest.FunctionCalls() {
		if _, ok := p.registry.Lookup(call.Name); !ok {
			continue
		}
		p.handleCallLocked(call)
	}
}

func (p *Panel) registerLocked() {
	if err := p.channel.Send(p.registry.SessionUpdate()); err != nil {
		p.recordError(fmt.Errorf("failed to register tools: %w", err))
		return
	}
	p.registered = true
	p.emit(events.NewToolsRegistered(p.registry.Names()...))
}

func (p *Panel) handleCallLocked(call events.OutputItem) {
	if !p.atLeastOnce && call.CallID != "" {
		if _, ok := p.seen[call.CallID]; ok {
			skippedToolCallCounter.Add(p.baseContext, 1)
			p.emit(events.NewToolCallSkipped(call.CallID, call.Name))
			return
		}
		p.seen[call.CallID] = struct{}{}
	}

	toolCallCounter.Add(p.baseContext, 1)
	if err := p.executeLocked(p.baseContext, call); err != nil {
		logger.Warn("Tool call failed", "tool", call.Name, "call_id", call.CallID, "error", err)
	}
}

// Toggle pauses or resumes playback of the active result.
func (p *Panel) Toggle(ctx context.Context) error {
	p.mu.Lock()
	hasResult := p.result != nil
	p.mu.Unlock()

	if !hasResult {
		return playback.ErrNoMedia
	}
	return p.player.Toggle(ctx)
}

// PlayLocalFile shows and plays a file picked by the user. Nothing is sent to
// the session.
func (p *Panel) PlayLocalFile(ctx context.Context, path string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("panel closed")
	}

	song := catalog.Song{
		Title:    filepath.Base(path),
		Artist:   "Local file",
		Filepath: path,
		Genre:    "Unknown",
	}
	result, err := newToolResult("local-"+uuid.NewString(), tools.SongToolName, song)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.cancelContinuationsLocked()
	p.setResultLocked(result)
	p.cued = nil
	cue := p.player.Cue(path)
	p.mu.Unlock()

	if err := p.player.Start(ctx, cue); err != nil && !errors.Is(err, playback.ErrSuperseded) {
		return err
	}
	return nil
}

type cuedPlayback struct {
	ctx    context.Context
	source string
	cue    uint64
}

// cueLocked releases the current handle and defers loading source until the
// panel lock is released.
func (p *Panel) cueLocked(ctx context.Context, source string) {
	p.cued = &cuedPlayback{ctx: ctx, source: source, cue: p.player.Cue(source)}
}

func (p *Panel) takeCuedLocked() *cuedPlayback {
	cued := p.cued
	p.cued = nil
	return cued
}

func (p *Panel) startCued(cued *cuedPlayback) {
	if cued == nil {
		return
	}
	err := p.player.Start(cued.ctx, cued.cue)
	if err != nil && !errors.Is(err, playback.ErrSuperseded) {
		logger.WarnContext(cued.ctx, "Playback did not start", "source", cued.source, "error", err)
	}
}

func (p *Panel) handlePlaybackEnded(source string) {
	p.mu.Lock()
	if p.closed || p.result == nil || p.result.Song.Filepath != source {
		p.mu.Unlock()
		return
	}

	p.clearResultLocked("playback ended")
	if err := p.player.Release(); err != nil {
		p.recordError(fmt.Errorf("failed to release playback: %w", err))
	}

	lifecycle := p.lifecycle
	resume := lifecycle != nil && p.suspended
	ctx := p.baseContext
	p.mu.Unlock()

	if !resume {
		return
	}

	err := lifecycle.StartSession(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.suspended = false
	if err != nil {
		p.recordError(fmt.Errorf("failed to restart session: %w", err))
		return
	}
	if !p.closed {
		p.sessionActive = true
		p.scheduleContinuationLocked(followUpInstructions)
	}
}

func (p *Panel) setResultLocked(result ToolResult) {
	p.result = &result
	p.emit(events.NewToolResultChanged(result.CallID, result.Song))
}

func (p *Panel) clearResultLocked(reason string) {
	if p.result == nil {
		return
	}
	p.result = nil
	p.emit(events.NewToolResultCleared(reason))
}

func (p *Panel) emit(event events.Event) {
	for _, listener := range p.listeners {
		listener(event)
	}
}

func (p *Panel) recordError(err error) {
	span := trace.SpanFromContext(p.baseContext)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.Warn(err.Error())
}
