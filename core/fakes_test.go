package toolpanel

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/koscakluka/ema-toolpanel/core/events"
	"github.com/koscakluka/ema-toolpanel/core/playback"
)

type orderLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *orderLog) add(entry string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *orderLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type fakeChannel struct {
	mu     sync.Mutex
	sent   []events.Outbound
	notify chan events.Outbound
	err    error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{notify: make(chan events.Outbound, 64)}
}

func (c *fakeChannel) SendEvent(event events.Outbound) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, event)
	select {
	case c.notify <- event:
	default:
	}
	return nil
}

func (c *fakeChannel) ofType(eventType events.Type) []events.Outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	var matched []events.Outbound
	for _, event := range c.sent {
		if event.EventType() == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

func (c *fakeChannel) waitFor(eventType events.Type, timeout time.Duration) (events.Outbound, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case event := <-c.notify:
			if event.EventType() == eventType {
				return event, true
			}
		case <-deadline:
			return nil, false
		}
	}
}

type fakeLifecycle struct {
	mu     sync.Mutex
	active bool
	starts int
	stops  int
	log    *orderLog
}

func (l *fakeLifecycle) StartSession(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.starts++
	l.active = true
	l.log.add("start")
	return nil
}

func (l *fakeLifecycle) StopSession() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stops++
	l.active = false
	l.log.add("stop")
	return nil
}

func (l *fakeLifecycle) IsSessionActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

type fakeMediaPool struct {
	mu      sync.Mutex
	live    int
	maxLive int
	created []*fakeMedia
	log     *orderLog
	playErr error

	// loadGate, when set, blocks Load until it is closed.
	loadGate    chan struct{}
	loadStarted chan struct{}
}

func (p *fakeMediaPool) factory(context.Context) (playback.Media, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live++
	if p.live > p.maxLive {
		p.maxLive = p.live
	}
	media := &fakeMedia{pool: p, playErr: p.playErr, loadGate: p.loadGate, loadStarted: p.loadStarted}
	p.created = append(p.created, media)
	return media, nil
}

func (p *fakeMediaPool) last() *fakeMedia {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.created) == 0 {
		return nil
	}
	return p.created[len(p.created)-1]
}

func (p *fakeMediaPool) liveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

type fakeMedia struct {
	pool *fakeMediaPool

	mu      sync.Mutex
	source  string
	closed  bool
	onEnded func()
	playErr error

	loadGate    chan struct{}
	loadStarted chan struct{}
}

func (m *fakeMedia) Load(_ context.Context, source string) error {
	if m.loadGate != nil {
		m.loadStarted <- struct{}{}
		<-m.loadGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = source
	return nil
}

func (m *fakeMedia) Play(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.pool.log.add("play " + m.source)
	return nil
}

func (m *fakeMedia) Pause() error { return nil }
func (m *fakeMedia) Stop() error  { return nil }

func (m *fakeMedia) SetOnEnded(callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnded = callback
}

func (m *fakeMedia) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	source := m.source
	m.mu.Unlock()

	m.pool.mu.Lock()
	m.pool.live--
	m.pool.mu.Unlock()
	m.pool.log.add("close " + source)
	return nil
}

func (m *fakeMedia) end() {
	m.mu.Lock()
	callback := m.onEnded
	m.mu.Unlock()
	if callback != nil {
		callback()
	}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) listen(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) count(kind events.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, event := range r.events {
		if event.Kind() == kind {
			n++
		}
	}
	return n
}

func sessionCreated() events.Inbound {
	return events.Inbound{Type: events.TypeSessionCreated}
}

func responseDone(items ...events.OutputItem) events.Inbound {
	return events.Inbound{
		Type:     events.TypeResponseDone,
		Response: &events.Response{Output: items},
	}
}

func songCall(callID, arguments string) events.OutputItem {
	return events.OutputItem{
		Type:      events.OutputTypeFunctionCall,
		Name:      "get_song_filepath",
		CallID:    callID,
		Arguments: arguments,
	}
}

func decodeSongOutput(output string) (map[string]string, error) {
	var payload struct {
		Song map[string]string `json:"song"`
	}
	if err := json.Unmarshal([]byte(output), &payload); err != nil {
		return nil, err
	}
	return payload.Song, nil
}
