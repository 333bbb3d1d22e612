// Package app wires configuration into the transcription pipeline and
// exporters shared by the server and the CLI.
package app

import (
	"fmt"

	"rtlscribe/internal/ai"
	"rtlscribe/internal/config"
	"rtlscribe/internal/export"
	"rtlscribe/internal/logging"
	"rtlscribe/internal/metrics"
	"rtlscribe/internal/pipeline"
	"rtlscribe/internal/stt"
)

// App holds the long-lived components built from one configuration
type App struct {
	Config   *config.Config
	Rotator  *stt.Rotator
	Pipeline *pipeline.Pipeline
	PDF      *export.PDFExporter
	Metrics  *metrics.Metrics
}

// Build creates the components. m may be nil.
func Build(cfg *config.Config, m *metrics.Metrics) (*App, error) {
	logger := logging.For("app")

	provider, err := stt.NewProvider(cfg.ProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create STT provider: %w", err)
	}

	creds := cfg.Credentials()
	if len(creds) == 0 {
		logger.Warn("no API keys configured, transcription requests will fail", "provider", provider.Name())
	}

	rotator := stt.NewRotator(provider, creds,
		stt.WithCallTimeout(cfg.Timeout),
		stt.WithCooldown(cfg.Cooldown),
		stt.WithMaxAudioBytes(cfg.MaxAudioBytes()),
		stt.WithMetrics(m),
	)

	// refinement reuses the STT credential, so it needs a chat endpoint that
	// accepts it; FPT keys only work with a separately configured endpoint
	var refiner pipeline.Refiner
	if provider.Name() != "fpt" || cfg.Refine.BaseURL != "" {
		refiner = ai.NewRefiner(cfg.RefinerConfig(), ai.WithMetrics(m))
	}

	logger.Info("pipeline ready",
		"provider", provider.Name(),
		"credentials", len(creds),
		"refine", refiner != nil,
		"refine_default", cfg.Refine.Enabled,
		"font", cfg.PDFFontPath)

	return &App{
		Config:   cfg,
		Rotator:  rotator,
		Pipeline: pipeline.New(rotator, refiner),
		PDF:      export.NewPDFExporter(cfg.PDFFontPath, export.WithMetrics(m)),
		Metrics:  m,
	}, nil
}
