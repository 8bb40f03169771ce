package audio

import "time"

// Clip is a fully decoded piece of audio ready for output.
type Clip struct {
	Info    EncodingInfo
	Samples []byte
}

func (c Clip) Duration() time.Duration {
	bytesPerFrame := c.Info.BytesPerFrame()
	if bytesPerFrame == 0 || c.Info.SampleRate == 0 {
		return 0
	}
	frames := len(c.Samples) / bytesPerFrame
	return time.Duration(frames) * time.Second / time.Duration(c.Info.SampleRate)
}
