package audio

// Format is the sample encoding of a clip.
type Format string

// EncodingLinear16 is signed 16-bit little endian PCM. Decoders widen
// narrower samples to it.
const EncodingLinear16 Format = "linear16"

// EncodingInfo describes raw PCM sample data.
type EncodingInfo struct {
	SampleRate int
	Channels   int
	Format     Format
}

// BytesPerFrame is the size of one sample across all channels, or 0 when the
// format is unknown.
func (e EncodingInfo) BytesPerFrame() int {
	if e.Format != EncodingLinear16 || e.Channels <= 0 {
		return 0
	}
	return 2 * e.Channels
}
