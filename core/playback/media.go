package playback

import "context"

// Media is one audio output handle. A handle plays at most one source at a
// time and is closed exactly once by its owner.
type Media interface {
	// Load attaches source, replacing any previous one. It does not start
	// playback.
	Load(ctx context.Context, source string) error
	// Play starts or resumes playback of the loaded source.
	Play(ctx context.Context) error
	Pause() error
	// Stop halts playback and detaches the source.
	Stop() error
	// SetOnEnded registers the callback fired when the source reaches its
	// natural end. It must not be called synchronously from Play.
	SetOnEnded(func())
	Close() error
}

// MediaFactory acquires a new handle.
type MediaFactory func(ctx context.Context) (Media, error)
