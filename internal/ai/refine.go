package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	"rtlscribe/internal/logging"
	"rtlscribe/internal/metrics"
	"rtlscribe/internal/stt"
)

const (
	DefaultRefineModel   = "llama-3.3-70b-versatile"
	DefaultRefineTimeout = 60 * time.Second
	DefaultTemperature   = 0.3
)

var (
	// ErrEmptyInput is returned when there is nothing to refine.
	ErrEmptyInput = errors.New("transcript is empty")

	// ErrEmptyCompletion is returned when the model answers with no text.
	ErrEmptyCompletion = errors.New("model returned no text")
)

// RefinementError reports a failed refinement call. The transcript that was
// being refined is unaffected.
type RefinementError struct {
	Credential string
	Err        error
}

func (e *RefinementError) Error() string {
	return fmt.Sprintf("refinement failed on %s: %v", e.Credential, e.Err)
}

func (e *RefinementError) Unwrap() error { return e.Err }

// Refined is the output of one refinement call
type Refined struct {
	Text       string
	Model      string
	Truncated  bool
	InputChars int
	Usage      openai.Usage
}

// RefinerConfig configures the chat completion endpoint
type RefinerConfig struct {
	BaseURL     string
	Model       string
	MaxChars    int
	Timeout     time.Duration
	Temperature float32
}

// Refiner restructures a transcript with a single chat completion
type Refiner struct {
	cfg        RefinerConfig
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *log.Logger
}

// RefinerOption configures a Refiner
type RefinerOption func(*Refiner)

// WithMetrics records refinement outcomes.
func WithMetrics(m *metrics.Metrics) RefinerOption {
	return func(r *Refiner) { r.metrics = m }
}

// NewRefiner creates a refiner. Zero config fields take package defaults.
func NewRefiner(cfg RefinerConfig, opts ...RefinerOption) *Refiner {
	if cfg.BaseURL == "" {
		cfg.BaseURL = stt.GroqBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultRefineModel
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRefineTimeout
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}

	r := &Refiner{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logging.For("refine"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Model returns the configured chat model.
func (r *Refiner) Model() string {
	return r.cfg.Model
}

// Refine sends the truncated transcript to the model using cred, the
// credential that produced the transcript. There is no rotation and no retry.
func (r *Refiner) Refine(ctx context.Context, cred stt.Credential, transcript string) (*Refined, error) {
	if strings.TrimSpace(transcript) == "" {
		r.metrics.ObserveRefinement("skipped")
		return nil, &RefinementError{Credential: cred.Name, Err: ErrEmptyInput}
	}

	system, user, truncated := BuildRefinePrompt(transcript, r.cfg.MaxChars)
	if truncated {
		r.logger.Warn("transcript truncated", "chars", utf8.RuneCountInString(transcript), "max", r.cfg.MaxChars)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cfg := openai.DefaultConfig(cred.Secret)
	cfg.BaseURL = strings.TrimRight(r.cfg.BaseURL, "/")
	cfg.HTTPClient = r.httpClient
	client := openai.NewClientWithConfig(cfg)

	r.logger.Info("refining", "credential", cred.Name, "model", r.cfg.Model, "prompt_chars", utf8.RuneCountInString(user))

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		r.metrics.ObserveRefinement("error")
		r.logger.Error("chat completion failed", "credential", cred.Name, "err", err)
		return nil, &RefinementError{Credential: cred.Name, Err: err}
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		r.metrics.ObserveRefinement("empty")
		return nil, &RefinementError{Credential: cred.Name, Err: ErrEmptyCompletion}
	}

	r.metrics.ObserveRefinement("ok")
	r.logger.Info("refined", "credential", cred.Name,
		"prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)

	return &Refined{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      r.cfg.Model,
		Truncated:  truncated,
		InputChars: utf8.RuneCountInString(transcript),
		Usage:      resp.Usage,
	}, nil
}
