package stt

import (
	"fmt"
	"strings"
)

// DefaultMaxAudioBytes is the upload ceiling enforced by Whisper-compatible APIs.
const DefaultMaxAudioBytes = 25 << 20

// Request is a single transcription job. Audio is held in memory so every
// attempted credential resends the same bytes.
type Request struct {
	Audio    []byte
	Filename string
	Language string
	Prompt   string // optional vocabulary hint
}

// Validate runs the pre-flight checks done before any network call.
func (r *Request) Validate(maxBytes int64) error {
	if r == nil || len(r.Audio) == 0 {
		return fmt.Errorf("%w: audio is empty", ErrInvalidRequest)
	}
	if maxBytes > 0 && int64(len(r.Audio)) > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrAudioTooLarge, len(r.Audio), maxBytes)
	}
	if strings.TrimSpace(r.Filename) == "" {
		r.Filename = "audio.mp3"
	}
	return nil
}
