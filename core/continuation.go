package toolpanel

import (
	"time"

	"github.com/koscakluka/ema-toolpanel/core/events"
)

const (
	feedbackInstructions = `
ask for feedback about the song recommendation - don't repeat
the song details, just ask if they like the suggestion.
`
	followUpInstructions = `
ask how they liked the song that just finished playing and offer
to recommend another one.
`
)

// continuation schedules follow-up response.create prompts. All methods and
// the pending map are guarded by the owning panel's mutex; fired timers
// re-enter through fire.
type continuation struct {
	delay   time.Duration
	nextID  uint64
	pending map[uint64]*time.Timer
}

func newContinuation() continuation {
	return continuation{
		delay:   DefaultContinuationDelay,
		pending: map[uint64]*time.Timer{},
	}
}

// schedule arms a prompt. fire runs on the timer goroutine with the id it was
// given and must call take before sending.
func (c *continuation) schedule(fire func(id uint64)) uint64 {
	c.nextID++
	id := c.nextID
	c.pending[id] = time.AfterFunc(c.delay, func() { fire(id) })
	return id
}

// take removes a pending prompt, reporting whether it was still pending.
func (c *continuation) take(id uint64) bool {
	if _, ok := c.pending[id]; !ok {
		return false
	}
	delete(c.pending, id)
	return true
}

// cancel drops every pending prompt and returns how many were dropped.
func (c *continuation) cancel() int {
	dropped := len(c.pending)
	for id, timer := range c.pending {
		timer.Stop()
		delete(c.pending, id)
	}
	return dropped
}

func (p *Panel) scheduleContinuationLocked(instructions string) {
	if !p.channel.isConfigured() {
		return
	}

	p.continuation.schedule(func(id uint64) {
		p.mu.Lock()
		defer p.mu.Unlock()

		if !p.continuation.take(id) {
			return
		}
		if err := p.channel.Send(events.NewResponseCreate(instructions)); err != nil {
			logger.Warn("Failed to send follow-up prompt", "error", err)
			return
		}
		p.emit(events.NewContinuationSent(instructions))
	})
	p.emit(events.NewContinuationScheduled(instructions, p.continuation.delay))
}

func (p *Panel) cancelContinuationsLocked() {
	if dropped := p.continuation.cancel(); dropped > 0 {
		p.emit(events.NewContinuationCancelled(dropped))
	}
}
