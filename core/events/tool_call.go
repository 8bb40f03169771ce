package events

const (
	// KindToolsRegistered identifies the registry payload being sent.
	KindToolsRegistered Kind = "tool_registration.sent"
	// KindToolCallStarted identifies detection of an invocation.
	KindToolCallStarted Kind = "tool_call.started"
	// KindToolCallCompleted identifies a result being emitted.
	KindToolCallCompleted Kind = "tool_call.completed"
	// KindToolCallFailed identifies an aborted invocation.
	KindToolCallFailed Kind = "tool_call.failed"
	// KindToolCallSkipped identifies an invocation that was already handled.
	KindToolCallSkipped Kind = "tool_call.skipped"
)

// ToolsRegistered marks the registry payload being sent to the session.
type ToolsRegistered struct {
	Base
	Names []string
}

// NewToolsRegistered creates a tools registered event.
func NewToolsRegistered(names ...string) ToolsRegistered {
	return ToolsRegistered{Base: NewBase(KindToolsRegistered), Names: names}
}

// ToolCallStarted marks detection of an invocation.
type ToolCallStarted struct {
	Base
	ID        string
	Name      string
	Arguments string
}

// NewToolCallStarted creates a tool call started event.
func NewToolCallStarted(id, name, arguments string) ToolCallStarted {
	return ToolCallStarted{Base: NewBase(KindToolCallStarted), ID: id, Name: name, Arguments: arguments}
}

// ToolCallCompleted marks a result being sent back to the session.
type ToolCallCompleted struct {
	Base
	ID     string
	Name   string
	Output string
}

// NewToolCallCompleted creates a tool call completed event.
func NewToolCallCompleted(id, name, output string) ToolCallCompleted {
	return ToolCallCompleted{Base: NewBase(KindToolCallCompleted), ID: id, Name: name, Output: output}
}

// ToolCallFailed marks an invocation that was aborted.
type ToolCallFailed struct {
	Base
	ID    string
	Name  string
	Error string
}

// NewToolCallFailed creates a tool call failed event.
func NewToolCallFailed(id, name, err string) ToolCallFailed {
	return ToolCallFailed{Base: NewBase(KindToolCallFailed), ID: id, Name: name, Error: err}
}

// ToolCallSkipped marks a repeated sighting of an invocation that was already
// handled in the current session.
type ToolCallSkipped struct {
	Base
	ID   string
	Name string
}

// NewToolCallSkipped creates a tool call skipped event.
func NewToolCallSkipped(id, name string) ToolCallSkipped {
	return ToolCallSkipped{Base: NewBase(KindToolCallSkipped), ID: id, Name: name}
}
