// Command transcribe runs one local audio file through the pipeline and
// optionally writes TXT and PDF exports.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"rtlscribe/internal/app"
	"rtlscribe/internal/config"
	"rtlscribe/internal/export"
	"rtlscribe/internal/logging"
	"rtlscribe/internal/pipeline"
	"rtlscribe/internal/storage"
	"rtlscribe/internal/stt"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitRateLimited = 2

	defaultDeadline = 10 * time.Minute
)

type CLI struct {
	Audio    string        `arg:"" type:"existingfile" help:"Audio file to transcribe (mp3, wav, m4a)."`
	Language string        `short:"l" help:"Language hint, overrides STT_LANGUAGE."`
	Prompt   string        `help:"Vocabulary hint passed to the model."`
	Refine   bool          `help:"Refine the transcript into a structured summary."`
	PDF      string        `name:"pdf" type:"path" placeholder:"FILE" help:"Write a PDF export to FILE."`
	TXT      string        `name:"txt" type:"path" placeholder:"FILE" help:"Write the raw transcript to FILE."`
	Title    string        `help:"PDF header title."`
	Config   string        `type:"path" placeholder:"FILE" env:"CONFIG_FILE" help:"YAML configuration file."`
	Deadline time.Duration `default:"10m" help:"Overall deadline for the run."`
	Quiet    bool          `short:"q" help:"Do not print the text to stdout."`
}

func main() {
	_ = godotenv.Load()

	var cli CLI
	kong.Parse(&cli,
		kong.Name("transcribe"),
		kong.Description("Transcribe an audio file with API key failover and export RTL-safe PDF/TXT."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, cli, os.Stdout))
}

func run(ctx context.Context, cli CLI, stdout io.Writer) int {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transcribe: %v\n", err)
		return exitFailure
	}
	if err := logging.Init(cfg.LoggingConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "transcribe: %v\n", err)
		return exitFailure
	}
	logger := logging.For("cli")

	a, err := app.Build(cfg, nil)
	if err != nil {
		logger.Error("setup failed", "err", err)
		return exitFailure
	}

	upload, err := storage.ReadAudioFile(cli.Audio, cfg.MaxAudioBytes())
	if err != nil {
		logger.Error("cannot read audio", "file", cli.Audio, "err", err)
		return exitFailure
	}

	language := cfg.Language
	if cli.Language != "" {
		language = cli.Language
	}
	prompt := cfg.Prompt
	if cli.Prompt != "" {
		prompt = cli.Prompt
	}

	ctx, cancel := context.WithTimeout(ctx, cli.Deadline)
	defer cancel()

	out, err := a.Pipeline.Run(ctx, upload.Request(language, prompt), pipeline.Options{
		Refine: cli.Refine || cfg.Refine.Enabled,
	})
	if err != nil {
		var exhausted *stt.RateLimitExhaustedError
		if errors.As(err, &exhausted) {
			logger.Error("all API keys are rate limited", "retry_after", exhausted.RetryAfter)
			return exitRateLimited
		}
		logger.Error("transcription failed", "err", err)
		return exitFailure
	}

	logger.Info("transcribed",
		"credential", out.Transcript.Credential.String(),
		"attempts", len(out.Transcript.Attempts),
		"elapsed", out.Elapsed.Round(time.Millisecond))
	if out.RefineErr != nil {
		logger.Warn("refinement failed, using raw transcript", "err", out.RefineErr)
	}

	if !cli.Quiet {
		fmt.Fprintln(stdout, out.Text())
	}

	if cli.TXT != "" {
		if err := writeFile(cli.TXT, func(w io.Writer) error {
			return export.WriteText(w, out.Transcript.Transcript)
		}); err != nil {
			logger.Error("txt export failed", "file", cli.TXT, "err", err)
			return exitFailure
		}
		logger.Info("wrote txt", "file", cli.TXT)
	}

	if cli.PDF != "" {
		doc := export.Document{Title: cli.Title, Text: out.Text(), CreatedAt: time.Now()}
		if err := writeFile(cli.PDF, func(w io.Writer) error {
			return a.PDF.Render(w, doc)
		}); err != nil {
			logger.Error("pdf export failed", "file", cli.PDF, "err", err)
			return exitFailure
		}
		logger.Info("wrote pdf", "file", cli.PDF)
	}

	return exitOK
}

// writeFile renders into memory first so a failed export never leaves a
// truncated file behind.
func writeFile(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
