package toolpanel

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/koscakluka/ema-toolpanel/core/events"
)

var errNoChannel = errors.New("no session channel configured")

// channel wraps the configured session channel. Nil and typed-nil channels
// are treated as unconfigured.
type channel struct {
	base Channel
}

func (c *channel) Set(client Channel) {
	if isNilChannel(client) {
		c.base = nil
		return
	}
	c.base = client
}

func (c *channel) isConfigured() bool {
	return c != nil && c.base != nil
}

func (c *channel) Send(event events.Outbound) error {
	if !c.isConfigured() {
		return errNoChannel
	}
	if err := c.base.SendEvent(event); err != nil {
		return fmt.Errorf("failed to send %s: %w", event.EventType(), err)
	}
	return nil
}

func isNilChannel(client Channel) bool {
	if client == nil {
		return true
	}

	v := reflect.ValueOf(client)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
