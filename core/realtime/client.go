// Package realtime is a thin websocket client for an event-streamed realtime
// session. It keeps the list of received events, newest first, and hands the
// whole list to subscribers after every change.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-toolpanel/core/events"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrNotConnected = errors.New("realtime session not connected")

const (
	DefaultURL       = "wss://api.openai.com/v1/realtime"
	DefaultModel     = "gpt-4o-realtime-preview"
	defaultMaxEvents = 500

	DefaultHandshakeTimeout = 15 * time.Second
)

type Client struct {
	url        string
	model      string
	apiKey     string
	tokenURL   string
	httpClient *http.Client
	dialer     *websocket.Dialer
	maxEvents  int

	mu         sync.Mutex
	conn       *websocket.Conn
	generation uint64
	active     bool
	events     []events.Inbound

	subscribers        []func([]events.Inbound)
	sessionSubscribers []func(bool)

	writeMu  sync.Mutex
	dispatch *dispatcher
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

// WithTokenURL fetches a short lived session secret from tokenURL before
// every connection instead of using the API key directly.
func WithTokenURL(tokenURL string) ClientOption {
	return func(c *Client) { c.tokenURL = tokenURL }
}

// WithHandshakeTimeout bounds the websocket handshake and the token request.
func WithHandshakeTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.dialer.HandshakeTimeout = timeout
			c.httpClient.Timeout = timeout
		}
	}
}

// WithMaxEvents bounds the kept event list. The oldest event is always kept.
func WithMaxEvents(n int) ClientOption {
	return func(c *Client) {
		if n >= 2 {
			c.maxEvents = n
		}
	}
}

func NewClient(rawURL string, opts ...ClientOption) *Client {
	if rawURL == "" {
		rawURL = DefaultURL
	}

	c := &Client{
		url:        rawURL,
		model:      DefaultModel,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		dialer:     &websocket.Dialer{HandshakeTimeout: DefaultHandshakeTimeout, Proxy: http.ProxyFromEnvironment},
		maxEvents:  defaultMaxEvents,
		dispatch:   newDispatcher(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers a callback receiving the full event list, newest
// first, after every received event. Callbacks run in order on a dedicated
// goroutine.
func (c *Client) Subscribe(callback func([]events.Inbound)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, callback)
}

// OnSessionActive registers a callback for session state changes. It runs on
// the same goroutine as event subscribers, never from inside StartSession or
// StopSession.
func (c *Client) OnSessionActive(callback func(active bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionSubscribers = append(c.sessionSubscribers, callback)
}

func (c *Client) IsSessionActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Events returns a copy of the received events, newest first.
func (c *Client) Events() []events.Inbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]events.Inbound(nil), c.events...)
}

// StartSession connects a new session. It is a no-op while connected.
func (c *Client) StartSession(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "start realtime session")
	defer span.End()
	span.SetAttributes(attribute.String("realtime.model", c.model))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if c.IsSessionActive() {
		return nil
	}

	secret := c.apiKey
	if c.tokenURL != "" {
		if secret, err = c.fetchToken(ctx); err != nil {
			return err
		}
	}

	target, err := c.sessionURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	if secret != "" {
		header.Set("Authorization", "Bearer "+secret)
	}
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := c.dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to open realtime session (%s): %w", resp.Status, err)
		}
		return fmt.Errorf("failed to open realtime session: %w", err)
	}

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	c.generation++
	generation := c.generation
	c.conn = conn
	c.active = true
	c.events = nil
	c.notifySessionLocked(true)
	c.mu.Unlock()

	go c.readLoop(conn, generation)
	return nil
}

// StopSession closes the session. Subscribers are told asynchronously.
func (c *Client) StopSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *Client) stopLocked() error {
	if !c.active {
		return nil
	}

	conn := c.conn
	c.generation++
	c.conn = nil
	c.active = false
	c.events = nil
	c.notifySessionLocked(false)

	c.writeMu.Lock()
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.writeMu.Unlock()

	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close realtime session: %w", err)
	}
	return nil
}

// SendEvent writes event to the session, assigning an event id when it has
// none.
func (c *Client) SendEvent(event events.Outbound) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	if event.ID() == "" {
		event.SetEventID(uuid.NewString())
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", event.EventType(), err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", event.EventType(), err)
	}
	return nil
}

func (c *Client) Close() error {
	err := c.StopSession()
	c.dispatch.close()
	return err
}

func (c *Client) sessionURL() (string, error) {
	target, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("invalid realtime url %q: %w", c.url, err)
	}
	switch target.Scheme {
	case "http":
		target.Scheme = "ws"
	case "https":
		target.Scheme = "wss"
	}
	if c.model != "" {
		query := target.Query()
		query.Set("model", c.model)
		target.RawQuery = query.Encode()
	}
	return target.String(), nil
}

func (c *Client) readLoop(conn *websocket.Conn, generation uint64) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			current := generation == c.generation
			if current {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					logger.Warn("Realtime session read failed", "error", err)
				}
				c.generation++
				c.conn = nil
				c.active = false
				c.events = nil
				c.notifySessionLocked(false)
			}
			c.mu.Unlock()
			_ = conn.Close()
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		event, err := events.ParseInbound(data)
		if err != nil {
			logger.Warn("Dropping malformed session event", "error", err)
			continue
		}

		c.mu.Lock()
		if generation != c.generation {
			c.mu.Unlock()
			continue
		}
		c.events = prepend(c.events, event, c.maxEvents)
		snapshot := append([]events.Inbound(nil), c.events...)
		subscribers := append([]func([]events.Inbound)(nil), c.subscribers...)
		c.dispatch.enqueue(func() {
			for _, subscriber := range subscribers {
				subscriber(snapshot)
			}
		})
		c.mu.Unlock()
	}
}

func (c *Client) notifySessionLocked(active bool) {
	subscribers := append([]func(bool)(nil), c.sessionSubscribers...)
	c.dispatch.enqueue(func() {
		for _, subscriber := range subscribers {
			subscriber(active)
		}
	})
}

// prepend puts event at the head of list. When the list grows past limit the
// second oldest event is dropped so the first event of the session stays at
// the tail.
func prepend(list []events.Inbound, event events.Inbound, limit int) []events.Inbound {
	list = append(list, events.Inbound{})
	copy(list[1:], list)
	list[0] = event
	if limit > 0 && len(list) > limit {
		list = append(list[:len(list)-2], list[len(list)-1])
	}
	return list
}
