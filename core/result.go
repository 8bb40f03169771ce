package toolpanel

import (
	"encoding/json"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-toolpanel/core/catalog"
	"github.com/koscakluka/ema-toolpanel/core/events"
	"github.com/koscakluka/ema-toolpanel/core/playback"
	"github.com/koscakluka/ema-toolpanel/core/tools"
)

// ToolResult is the song currently shown by the panel.
type ToolResult struct {
	CallID string
	Song   catalog.Song
	// Invocation is the handled call with its arguments replaced by the
	// song returned to the session.
	Invocation events.OutputItem
}

func newToolResult(callID, name string, song catalog.Song) (ToolResult, error) {
	var details tools.SongDetails
	if err := copier.Copy(&details, &song); err != nil {
		return ToolResult{}, fmt.Errorf("failed to copy song: %w", err)
	}

	return ToolResult{
		CallID: callID,
		Song:   song,
		Invocation: events.OutputItem{
			Type:      events.OutputTypeFunctionCall,
			Name:      name,
			CallID:    callID,
			Arguments: tools.SongParameters{Song: details}.String(),
		},
	}, nil
}

// JSON renders the invocation the way it is shown under the song card.
func (r ToolResult) JSON() string {
	data, err := json.MarshalIndent(r.Invocation, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

type Display int

const (
	// DisplayInactive asks the user to start the session.
	DisplayInactive Display = iota
	// DisplayWaiting asks the user to request a recommendation.
	DisplayWaiting
	// DisplayResult shows the active result.
	DisplayResult
)

func (d Display) String() string {
	switch d {
	case DisplayWaiting:
		return "Ask me to recommend a song..."
	case DisplayResult:
		return "Song Recommendation"
	default:
		return "Start the session to use this tool..."
	}
}

// View is a point-in-time snapshot of the panel.
type View struct {
	SessionActive bool
	Registered    bool
	Display       Display
	Result        *ToolResult
	Playback      playback.Snapshot
}

func (p *Panel) Snapshot() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	view := View{
		SessionActive: p.sessionActive,
		Registered:    p.registered,
		Playback:      p.player.Snapshot(),
	}
	switch {
	case p.result != nil:
		result := *p.result
		view.Result = &result
		view.Display = DisplayResult
	case p.sessionActive:
		view.Display = DisplayWaiting
	default:
		view.Display = DisplayInactive
	}
	return view
}
