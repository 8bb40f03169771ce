package toolpanel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-toolpanel/core/catalog"
	"github.com/koscakluka/ema-toolpanel/core/events"
	"github.com/koscakluka/ema-toolpanel/core/tools"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var errNoSong = errors.New("invocation carries no song")

// executeLocked runs one invocation: it picks the song, returns it to the
// session, replaces the active result and starts playback. Invalid arguments
// abort before anything is sent and keep the previous result.
func (p *Panel) executeLocked(ctx context.Context, call events.OutputItem) (err error) {
	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()
	span.SetAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.CallID),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.emit(events.NewToolCallFailed(call.CallID, call.Name, err.Error()))
		}
	}()

	p.emit(events.NewToolCallStarted(call.CallID, call.Name, call.Arguments))

	if !validArguments(call.Arguments) {
		return fmt.Errorf("failed to execute tool %q: arguments are not valid JSON", call.Name)
	}

	song, err := p.selectSong(call.Arguments)
	if err != nil {
		return fmt.Errorf("failed to execute tool %q: %w", call.Name, err)
	}

	result, err := newToolResult(call.CallID, call.Name, song)
	if err != nil {
		return fmt.Errorf("failed to execute tool %q: %w", call.Name, err)
	}
	output := result.Invocation.Arguments

	if err := p.channel.Send(p.resultEvent(call, output)); err != nil {
		// The song is still shown and played locally.
		span.RecordError(err)
		logger.WarnContext(ctx, "Failed to return tool result", "tool", call.Name, "call_id", call.CallID, "error", err)
	}
	p.emit(events.NewToolCallCompleted(call.CallID, call.Name, output))

	p.cancelContinuationsLocked()
	p.setResultLocked(result)

	playable := p.mediaFactory != nil && song.Filepath != ""
	if playable && p.lifecycle != nil && p.sessionActive {
		p.suspended = true
		if err := p.lifecycle.StopSession(); err != nil {
			p.suspended = false
			p.recordError(fmt.Errorf("failed to stop session for playback: %w", err))
		}
	}

	if p.mediaFactory != nil {
		// An empty filepath only releases the previous song.
		p.cueLocked(ctx, song.Filepath)
	}

	if !p.suspended {
		p.scheduleContinuationLocked(feedbackInstructions)
	}
	return nil
}

func (p *Panel) selectSong(arguments string) (catalog.Song, error) {
	if p.passThrough {
		parameters, err := tools.ParseSongParameters(arguments)
		if err != nil {
			return catalog.Song{}, err
		}
		if parameters.Song == (tools.SongDetails{}) {
			return catalog.Song{}, errNoSong
		}

		var song catalog.Song
		if err := copier.Copy(&song, &parameters.Song); err != nil {
			return catalog.Song{}, fmt.Errorf("failed to copy song: %w", err)
		}
		return song, nil
	}

	n := p.catalog.Len()
	if n == 0 {
		return catalog.Song{}, catalog.ErrEmptyCatalog
	}
	index := p.selector(n)
	if index < 0 || index >= n {
		return catalog.Song{}, fmt.Errorf("selector returned index %d outside catalog of %d songs", index, n)
	}
	return p.catalog.At(index), nil
}

func (p *Panel) resultEvent(call events.OutputItem, output string) events.Outbound {
	if p.outputFormat == OutputConversationItem {
		return events.NewFunctionOutputItem(call.CallID, call.Name, output)
	}
	return events.NewToolOutput(call.CallID, output)
}

// validArguments accepts a JSON document or no arguments at all.
func validArguments(arguments string) bool {
	if strings.TrimSpace(arguments) == "" {
		return true
	}
	return json.Valid([]byte(arguments))
}
