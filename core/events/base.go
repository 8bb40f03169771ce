package events

import "time"

// Kind identifies a local panel event.
type Kind string

// Event is a local notification emitted by the panel to its listeners.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Listener receives panel events. Listeners are called synchronously and must
// not block.
type Listener func(Event)

// Discard is a Listener that drops every event.
func Discard(Event) {}

type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
