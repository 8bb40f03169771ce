package events

import (
	"encoding/json"
	"fmt"
)

// Type is the "type" discriminant of a wire event.
type Type string

const (
	TypeSessionCreated Type = "session.created"
	TypeSessionUpdated Type = "session.updated"
	TypeResponseDone   Type = "response.done"
	TypeError          Type = "error"

	TypeSessionUpdate          Type = "session.update"
	TypeToolOutput             Type = "tool.output"
	TypeConversationItemCreate Type = "conversation.item.create"
	TypeResponseCreate         Type = "response.create"
)

// OutputTypeFunctionCall marks a response output entry as a tool invocation.
const OutputTypeFunctionCall = "function_call"

// Inbound is a single event received from the session.
//
// Only the fields the panel reacts to are decoded; Raw keeps the original
// payload for anything else.
type Inbound struct {
	Type     Type          `json:"type"`
	EventID  string        `json:"event_id,omitempty"`
	Response *Response     `json:"response,omitempty"`
	Error    *ErrorDetails `json:"error,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Response is the payload of a response.done event.
type Response struct {
	ID     string       `json:"id,omitempty"`
	Status string       `json:"status,omitempty"`
	Output []OutputItem `json:"output"`
}

// OutputItem is one entry of a response output list. Entries of type
// "function_call" are invocations.
type OutputItem struct {
	ID        string `json:"id,omitempty"`
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// IsFunctionCall reports whether the item is an invocation of a tool.
func (o OutputItem) IsFunctionCall() bool {
	return o.Type == OutputTypeFunctionCall
}

// ErrorDetails is the payload of an error event.
type ErrorDetails struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ParseInbound decodes one wire event.
func ParseInbound(data []byte) (Inbound, error) {
	var event Inbound
	if err := json.Unmarshal(data, &event); err != nil {
		return Inbound{}, fmt.Errorf("failed to unmarshal session event: %w", err)
	}
	if event.Type == "" {
		return Inbound{}, fmt.Errorf("session event has no type")
	}
	event.Raw = append(json.RawMessage(nil), data...)
	return event, nil
}

// FunctionCalls returns the invocations carried by a response.done event.
// Any other event yields nil.
func (e Inbound) FunctionCalls() []OutputItem {
	if e.Type != TypeResponseDone || e.Response == nil {
		return nil
	}

	var calls []OutputItem
	for _, item := range e.Response.Output {
		if item.IsFunctionCall() {
			calls = append(calls, item)
		}
	}
	return calls
}
