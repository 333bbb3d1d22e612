package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	"rtlscribe/internal/logging"
)

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OpenAIBaseURL = "https://api.openai.com/v1"

	GroqWhisperModel = "whisper-large-v3"
)

// OpenAIProvider implements STT against any OpenAI-compatible
// /audio/transcriptions endpoint (OpenAI, Groq).
type OpenAIProvider struct {
	name       string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *log.Logger
}

// NewOpenAIProvider creates a Whisper provider. name is used in logs and
// errors; baseURL selects the vendor.
func NewOpenAIProvider(name, baseURL, model string, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = GroqBaseURL
	}
	if model == "" {
		model = GroqWhisperModel
	}
	return &OpenAIProvider{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.For("stt." + name),
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) client(cred Credential) *openai.Client {
	cfg := openai.DefaultConfig(cred.Secret)
	cfg.BaseURL = p.baseURL
	cfg.HTTPClient = p.httpClient
	return openai.NewClientWithConfig(cfg)
}

// Transcribe sends the in-memory audio to the transcription endpoint
func (p *OpenAIProvider) Transcribe(ctx context.Context, cred Credential, req *Request) (*Transcript, error) {
	p.logger.Debug("sending audio", "credential", cred.Name, "bytes", len(req.Audio), "model", p.model)

	resp, err := p.client(cred).CreateTranscription(ctx, openai.AudioRequest{
		Model:       p.model,
		FilePath:    req.Filename,
		Reader:      bytes.NewReader(req.Audio),
		Prompt:      req.Prompt,
		Language:    req.Language,
		Temperature: 0,
		Format:      openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return nil, p.normalize(err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, &ProviderError{Provider: p.name, Message: "no speech detected in audio", Err: ErrEmptyTranscript}
	}

	return &Transcript{Text: text, Language: resp.Language, Duration: resp.Duration}, nil
}

// normalize converts go-openai errors into a ProviderError.
func (p *OpenAIProvider) normalize(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider:   p.name,
			StatusCode: apiErr.HTTPStatusCode,
			Code:       codeString(apiErr.Code),
			Type:       apiErr.Type,
			Message:    apiErr.Message,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{
			Provider:   p.name,
			StatusCode: reqErr.HTTPStatusCode,
			Message:    truncateBody(reqErr.Body),
			Err:        err,
		}
	}

	return &ProviderError{Provider: p.name, Err: err}
}

func codeString(code any) string {
	switch c := code.(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
