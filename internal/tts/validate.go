package tts

import (
	"bytes"
	"fmt"
	"strings"
)

// DefaultMinAudioBytes is the smallest output accepted as plausible audio.
// Anything under this is almost certainly an error page or a truncated file.
const DefaultMinAudioBytes = 1000

// Validator performs a cheap structural sniff on synthesized audio. It is
// not a decode: a corrupt-but-large file with a valid header will pass.
type Validator struct {
	MinBytes int
}

// NewValidator returns a Validator with the default size threshold applied
// when minBytes is zero or negative.
func NewValidator(minBytes int) Validator {
	if minBytes <= 0 {
		minBytes = DefaultMinAudioBytes
	}
	return Validator{MinBytes: minBytes}
}

// Validate rejects audio that is under the size threshold or whose leading
// bytes do not match the declared container format.
func (v Validator) Validate(res *SynthesisResult) error {
	if len(res.Audio) < v.MinBytes {
		return fmt.Errorf("%w: got %d bytes, need %d", ErrAudioTooSmall, len(res.Audio), v.MinBytes)
	}

	switch {
	case strings.HasPrefix(res.ContentType, "audio/wav"), strings.HasPrefix(res.ContentType, "audio/x-wav"):
		if !isWAV(res.Audio) {
			return fmt.Errorf("%w: missing RIFF/WAVE header", ErrBadAudioFormat)
		}
	default:
		// audio/mpeg and anything unlabelled is expected to be MP3.
		if !isMP3(res.Audio) {
			return fmt.Errorf("%w: no ID3 tag or MPEG frame sync", ErrBadAudioFormat)
		}
	}
	return nil
}

// isMP3 accepts an ID3v2 tag or an MPEG audio frame sync (0xFF followed by
// a byte whose top three bits are all set).
func isMP3(b []byte) bool {
	if len(b) < 3 {
		return false
	}
	if bytes.HasPrefix(b, []byte("ID3")) {
		return true
	}
	return b[0] == 0xFF && b[1]&0xE0 == 0xE0
}

func isWAV(b []byte) bool {
	return len(b) >= 12 && bytes.HasPrefix(b, []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WAVE"))
}
