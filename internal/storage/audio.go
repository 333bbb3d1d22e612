package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"rtlscribe/internal/logging"
	"rtlscribe/internal/stt"
)

// AllowedExtensions lists the accepted upload formats
var AllowedExtensions = []string{".mp3", ".wav", ".m4a"}

var (
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported audio format", stt.ErrInvalidRequest)
	ErrEmptyUpload       = fmt.Errorf("%w: uploaded file is empty", stt.ErrInvalidRequest)
)

// Upload is an audio file buffered in memory. Nothing is written to disk.
type Upload struct {
	ID         string
	Filename   string
	Size       int64
	MIME       string
	Data       []byte
	ReceivedAt time.Time
}

// Request converts the upload into a transcription request.
func (u *Upload) Request(language, prompt string) *stt.Request {
	return &stt.Request{
		Audio:    u.Data,
		Filename: u.Filename,
		Language: language,
		Prompt:   prompt,
	}
}

// ReadAudio buffers an uploaded multipart file. Files above maxBytes are
// rejected with stt.ErrAudioTooLarge without reading past the limit.
func ReadAudio(file *multipart.FileHeader, maxBytes int64) (*Upload, error) {
	if maxBytes > 0 && file.Size > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", stt.ErrAudioTooLarge, file.Size, maxBytes)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	return readAudio(file.Filename, src, maxBytes)
}

// ReadAudioFile buffers an audio file from disk.
func ReadAudioFile(path string, maxBytes int64) (*Upload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	return readAudio(filepath.Base(path), f, maxBytes)
}

func readAudio(name string, r io.Reader, maxBytes int64) (*Upload, error) {
	if !allowed(name) {
		return nil, fmt.Errorf("%w: %q, expected one of %s", ErrUnsupportedFormat, filepath.Ext(name), strings.Join(AllowedExtensions, ", "))
	}

	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: upload exceeds limit of %d bytes", stt.ErrAudioTooLarge, maxBytes)
	}

	mime := mimetype.Detect(data)
	if !isAudio(mime) {
		// raw frames without a container header are common, the provider decides
		logging.For("storage").Warn("content does not look like audio", "file", name, "mime", mime.String())
	}

	return &Upload{
		ID:         uuid.NewString(),
		Filename:   name,
		Size:       int64(len(data)),
		MIME:       mime.String(),
		Data:       data,
		ReceivedAt: time.Now(),
	}, nil
}

func allowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

func isAudio(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") || m.Is("video/mp4") {
			return true
		}
	}
	return false
}
