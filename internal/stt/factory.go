package stt

import (
	"fmt"
	"strings"
	"time"
)

// ProviderConfig selects and configures a backend
type ProviderConfig struct {
	Name    string // groq, openai, fpt
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewProvider creates an STT provider based on configuration
func NewProvider(cfg ProviderConfig) (Provider, error) {
	name := strings.ToLower(cfg.Name)
	if name == "" {
		name = "groq"
	}

	switch name {
	case "groq":
		return NewOpenAIProvider("groq", orDefault(cfg.BaseURL, GroqBaseURL), orDefault(cfg.Model, GroqWhisperModel), cfg.Timeout), nil
	case "openai":
		return NewOpenAIProvider("openai", orDefault(cfg.BaseURL, OpenAIBaseURL), orDefault(cfg.Model, "whisper-1"), cfg.Timeout), nil
	case "fpt":
		return NewFPTProvider(cfg.BaseURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported STT provider: %s. Supported: groq, openai, fpt", cfg.Name)
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
