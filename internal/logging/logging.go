// Package logging configures the process-wide logger and hands out
// component loggers with a fixed prefix.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Config holds logging configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // text, json, logfmt
	TimeFormat string
	Output     io.Writer
}

var (
	mu   sync.Mutex
	root = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, TimeFormat: "15:04:05"})
)

// Init replaces the root logger. Component loggers created afterwards inherit it.
func Init(cfg Config) error {
	level, err := log.ParseLevel(strings.ToLower(orDefault(cfg.Level, "info")))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	formatter, err := parseFormatter(orDefault(cfg.Format, "text"))
	if err != nil {
		return err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	l := log.NewWithOptions(out, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      orDefault(cfg.TimeFormat, "15:04:05"),
		Formatter:       formatter,
	})

	mu.Lock()
	root = l
	mu.Unlock()
	return nil
}

// For returns a logger prefixed with the component name, e.g. For("stt").
func For(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return root.WithPrefix(component)
}

func parseFormatter(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("invalid log format %q", format)
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
