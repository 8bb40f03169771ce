package events

import "github.com/koscakluka/ema-toolpanel/core/catalog"

const (
	// KindToolResultChanged identifies a new active result.
	KindToolResultChanged Kind = "tool_result.changed"
	// KindToolResultCleared identifies the panel returning to idle.
	KindToolResultCleared Kind = "tool_result.cleared"
)

// ToolResultChanged carries the result that superseded the previous one.
type ToolResultChanged struct {
	Base
	CallID string
	Song   catalog.Song
}

// NewToolResultChanged creates a tool result changed event.
func NewToolResultChanged(callID string, song catalog.Song) ToolResultChanged {
	return ToolResultChanged{Base: NewBase(KindToolResultChanged), CallID: callID, Song: song}
}

// ToolResultCleared marks the active result being discarded.
type ToolResultCleared struct {
	Base
	Reason string
}

// NewToolResultCleared creates a tool result cleared event.
func NewToolResultCleared(reason string) ToolResultCleared {
	return ToolResultCleared{Base: NewBase(KindToolResultCleared), Reason: reason}
}
