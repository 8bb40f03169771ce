package events

import "time"

const (
	// KindContinuationScheduled identifies a follow-up prompt being scheduled.
	KindContinuationScheduled Kind = "continuation.scheduled"
	// KindContinuationSent identifies a follow-up prompt being sent.
	KindContinuationSent Kind = "continuation.sent"
	// KindContinuationCancelled identifies a pending prompt being dropped.
	KindContinuationCancelled Kind = "continuation.cancelled"
)

// ContinuationScheduled marks a follow-up prompt waiting for its delay.
type ContinuationScheduled struct {
	Base
	Instructions string
	Delay        time.Duration
}

// NewContinuationScheduled creates a continuation scheduled event.
func NewContinuationScheduled(instructions string, delay time.Duration) ContinuationScheduled {
	return ContinuationScheduled{Base: NewBase(KindContinuationScheduled), Instructions: instructions, Delay: delay}
}

// ContinuationSent marks a follow-up prompt sent to the session.
type ContinuationSent struct {
	Base
	Instructions string
}

// NewContinuationSent creates a continuation sent event.
func NewContinuationSent(instructions string) ContinuationSent {
	return ContinuationSent{Base: NewBase(KindContinuationSent), Instructions: instructions}
}

// ContinuationCancelled marks pending prompts dropped before their delay
// elapsed.
type ContinuationCancelled struct {
	Base
	Pending int
}

// NewContinuationCancelled creates a continuation cancelled event.
func NewContinuationCancelled(pending int) ContinuationCancelled {
	return ContinuationCancelled{Base: NewBase(KindContinuationCancelled), Pending: pending}
}
