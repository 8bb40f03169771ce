package events

// Outbound is an event sent from the panel to the session.
type Outbound interface {
	EventType() Type
	ID() string
	// SetEventID assigns the client side event id. Transports call it right
	// before sending.
	SetEventID(id string)
}

type OutboundBase struct {
	Type    Type   `json:"type"`
	EventID string `json:"event_id,omitempty"`
}

func (b *OutboundBase) EventType() Type { return b.Type }

func (b *OutboundBase) ID() string { return b.EventID }

func (b *OutboundBase) SetEventID(id string) { b.EventID = id }

// ToolDefinition is the wire form of a tool declaration.
type ToolDefinition struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

// SessionUpdate registers callable tools with the session.
type SessionUpdate struct {
	OutboundBase
	Session SessionConfig `json:"session"`
}

type SessionConfig struct {
	Tools      []ToolDefinition `json:"tools"`
	ToolChoice string           `json:"tool_choice"`
}

// NewSessionUpdate creates a session.update event that lets the model pick
// any of the tools on its own.
func NewSessionUpdate(tools []ToolDefinition) *SessionUpdate {
	return &SessionUpdate{
		OutboundBase: OutboundBase{Type: TypeSessionUpdate},
		Session:      SessionConfig{Tools: tools, ToolChoice: "auto"},
	}
}

// ToolOutput returns a tool result correlated by the invocation call id.
type ToolOutput struct {
	OutboundBase
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

func NewToolOutput(callID, output string) *ToolOutput {
	return &ToolOutput{
		OutboundBase: OutboundBase{Type: TypeToolOutput},
		ToolCallID:   callID,
		Output:       output,
	}
}

// ConversationItemCreate returns a tool result as a conversation item.
type ConversationItemCreate struct {
	OutboundBase
	Item ConversationItem `json:"item"`
}

type ConversationItem struct {
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	CallID  string `json:"call_id,omitempty"`
	Content string `json:"content,omitempty"`
}

// NewFunctionOutputItem creates a conversation.item.create event carrying a
// function_output item.
func NewFunctionOutputItem(callID, name, content string) *ConversationItemCreate {
	return &ConversationItemCreate{
		OutboundBase: OutboundBase{Type: TypeConversationItemCreate},
		Item: ConversationItem{
			Type:    "function_output",
			Name:    name,
			CallID:  callID,
			Content: content,
		},
	}
}

// ResponseCreate asks the model for a new response.
type ResponseCreate struct {
	OutboundBase
	Response ResponseInstructions `json:"response"`
}

type ResponseInstructions struct {
	Instructions string `json:"instructions"`
}

func NewResponseCreate(instructions string) *ResponseCreate {
	return &ResponseCreate{
		OutboundBase: OutboundBase{Type: TypeResponseCreate},
		Response:     ResponseInstructions{Instructions: instructions},
	}
}

// CorrelationID returns the call id an outbound tool result refers to, or ""
// when the event is not a tool result.
func CorrelationID(event Outbound) string {
	switch typed := event.(type) {
	case *ToolOutput:
		return typed.ToolCallID
	case *ConversationItemCreate:
		return typed.Item.CallID
	}
	return ""
}
