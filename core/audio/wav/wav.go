// Package wav decodes uncompressed PCM WAVE files into audio clips.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/koscakluka/ema-toolpanel/core/audio"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported wav format")
	ErrTooLarge          = errors.New("wav data too large")
)

// MaxDataSize bounds the sample data of a single file.
const MaxDataSize = 256 << 20

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

type formatChunk struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// LoadFile decodes the WAVE file at path.
func LoadFile(path string) (audio.Clip, error) {
	file, err := os.Open(path)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Decode reads a RIFF/WAVE stream. 8-bit samples are widened so the returned
// clip is always 16-bit little endian PCM.
func Decode(r io.Reader) (audio.Clip, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return audio.Clip{}, fmt.Errorf("failed to read wav header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return audio.Clip{}, fmt.Errorf("%w: missing RIFF/WAVE header", ErrUnsupportedFormat)
	}

	var (
		format    *formatChunk
		chunkHead [8]byte
	)
	for {
		if _, err := io.ReadFull(r, chunkHead[:]); err != nil {
			return audio.Clip{}, fmt.Errorf("failed to read wav chunk: %w", err)
		}
		id := string(chunkHead[0:4])
		size := int64(binary.LittleEndian.Uint32(chunkHead[4:8]))

		switch id {
		case "fmt ":
			if size < 16 {
				return audio.Clip{}, fmt.Errorf("%w: short format chunk", ErrUnsupportedFormat)
			}
			chunk := formatChunk{}
			if err := binary.Read(io.LimitReader(r, 16), binary.LittleEndian, &chunk); err != nil {
				return audio.Clip{}, fmt.Errorf("failed to read wav format: %w", err)
			}
			if err := skip(r, size-16+size%2); err != nil {
				return audio.Clip{}, err
			}
			format = &chunk

		case "data":
			if format == nil {
				return audio.Clip{}, fmt.Errorf("%w: data chunk before format chunk", ErrUnsupportedFormat)
			}
			if size > MaxDataSize {
				return audio.Clip{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
			}
			// Grows with what is actually read, not with the header.
			samples, err := io.ReadAll(io.LimitReader(r, size))
			if err != nil {
				return audio.Clip{}, fmt.Errorf("failed to read wav samples: %w", err)
			}
			if int64(len(samples)) < size {
				return audio.Clip{}, fmt.Errorf("failed to read wav samples: %w", io.ErrUnexpectedEOF)
			}
			return toClip(*format, samples)

		default:
			if err := skip(r, size+size%2); err != nil {
				return audio.Clip{}, err
			}
		}
	}
}

func toClip(format formatChunk, samples []byte) (audio.Clip, error) {
	if format.AudioFormat != formatPCM && format.AudioFormat != formatExtensible {
		return audio.Clip{}, fmt.Errorf("%w: audio format %d", ErrUnsupportedFormat, format.AudioFormat)
	}
	if format.Channels == 0 || format.SampleRate == 0 {
		return audio.Clip{}, fmt.Errorf("%w: empty channel layout", ErrUnsupportedFormat)
	}

	info := audio.EncodingInfo{
		SampleRate: int(format.SampleRate),
		Channels:   int(format.Channels),
		Format:     audio.EncodingLinear16,
	}

	switch format.BitsPerSample {
	case 16:
		return audio.Clip{Info: info, Samples: samples[:len(samples)-len(samples)%2]}, nil
	case 8:
		widened := make([]byte, len(samples)*2)
		for i, sample := range samples {
			binary.LittleEndian.PutUint16(widened[i*2:], uint16(int16(int(sample)-128)<<8))
		}
		return audio.Clip{Info: info, Samples: widened}, nil
	}

	return audio.Clip{}, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, format.BitsPerSample)
}

func skip(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return fmt.Errorf("failed to skip wav chunk: %w", err)
	}
	return nil
}
