package audio

import "sync"

// Track is the playback cursor shared by the output backends. Device
// callbacks pull samples with Read; the owner drives it with Resume, Pause
// and Reset.
//
// onEnded fires once per loaded clip, on its own goroutine, when the cursor
// reaches the end while playing.
type Track struct {
	mu sync.Mutex

	clip    Clip
	loaded  bool
	pos     int
	playing bool
	ended   bool

	onEnded func()
}

func (t *Track) Load(clip Clip) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clip = clip
	t.loaded = true
	t.pos = 0
	t.playing = false
	t.ended = false
}

// Reset detaches the clip.
func (t *Track) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clip = Clip{}
	t.loaded = false
	t.pos = 0
	t.playing = false
	t.ended = false
}

// Resume starts or continues playback. Resuming an ended clip restarts it.
func (t *Track) Resume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.loaded {
		return false
	}
	if t.ended {
		t.pos = 0
		t.ended = false
	}
	t.playing = true
	return true
}

func (t *Track) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
}

func (t *Track) SetOnEnded(callback func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnded = callback
}

func (t *Track) Info() EncodingInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clip.Info
}

func (t *Track) IsPlaying() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

// Read fills out with the next samples, padding with silence when paused or
// past the end. It returns the number of clip bytes copied.
func (t *Track) Read(out []byte) int {
	t.mu.Lock()

	if !t.playing || !t.loaded {
		t.mu.Unlock()
		clear(out)
		return 0
	}

	n := copy(out, t.clip.Samples[t.pos:])
	t.pos += n
	clear(out[n:])

	var onEnded func()
	if t.pos >= len(t.clip.Samples) && !t.ended {
		t.ended = true
		t.playing = false
		onEnded = t.onEnded
	}
	t.mu.Unlock()

	if onEnded != nil {
		go onEnded()
	}
	return n
}
