package events

const (
	// KindPlaybackStarted identifies playback start of the active result.
	KindPlaybackStarted Kind = "playback.started"
	// KindPlaybackPaused identifies a manual pause.
	KindPlaybackPaused Kind = "playback.paused"
	// KindPlaybackEnded identifies the natural end of the media.
	KindPlaybackEnded Kind = "playback.ended"
	// KindPlaybackFailed identifies a rejected play or toggle.
	KindPlaybackFailed Kind = "playback.failed"
)

// PlaybackStarted marks the start of playback.
type PlaybackStarted struct {
	Base
	Source string
}

// NewPlaybackStarted creates a playback started event.
func NewPlaybackStarted(source string) PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted), Source: source}
}

// PlaybackPaused marks a manual pause.
type PlaybackPaused struct {
	Base
	Source string
}

// NewPlaybackPaused creates a playback paused event.
func NewPlaybackPaused(source string) PlaybackPaused {
	return PlaybackPaused{Base: NewBase(KindPlaybackPaused), Source: source}
}

// PlaybackEnded marks the end of the media.
type PlaybackEnded struct {
	Base
	Source string
}

// NewPlaybackEnded creates a playback ended event.
func NewPlaybackEnded(source string) PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded), Source: source}
}

// PlaybackFailed carries the retry message for a rejected play or toggle.
type PlaybackFailed struct {
	Base
	Source  string
	Message string
	Err     error
}

// NewPlaybackFailed creates a playback failed event.
func NewPlaybackFailed(source, message string, err error) PlaybackFailed {
	return PlaybackFailed{Base: NewBase(KindPlaybackFailed), Source: source, Message: message, Err: err}
}
