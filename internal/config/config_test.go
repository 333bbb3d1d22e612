package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"CONFIG_FILE", "PORT", "STT_PROVIDER", "STT_BASE_URL", "STT_MODEL", "STT_LANGUAGE", "STT_PROMPT",
	"STT_TIMEOUT", "STT_COOLDOWN", "MAX_AUDIO_MB", "REFINE_ENABLED", "REFINE_BASE_URL", "REFINE_MODEL",
	"REFINE_MAX_CHARS", "REFINE_TIMEOUT", "PDF_FONT_PATH", "LOG_LEVEL", "LOG_FORMAT", "FPT_AI_STT_URL",
	"STT_API_KEYS", "STT_API_KEY", "STT_API_KEY_2", "STT_API_KEY_3",
	"GROQ_API_KEY", "GROQ_API_KEY_2", "GROQ_API_KEY_3",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.Provider != "groq" || cfg.Language != "ar" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.MaxAudioBytes() != 25<<20 {
		t.Errorf("expected 25 MiB ceiling, got %d", cfg.MaxAudioBytes())
	}
	if cfg.Refine.MaxChars != 15000 || cfg.Refine.Model != "llama-3.3-70b-versatile" {
		t.Errorf("unexpected refine defaults %+v", cfg.Refine)
	}
	if len(cfg.Credentials()) != 0 {
		t.Errorf("expected no credentials, got %d", len(cfg.Credentials()))
	}
}

func TestKeysFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want []string
	}{
		{
			name: "comma separated list",
			env:  map[string]string{"STT_API_KEYS": " k1, ,k2,k1 ,k3"},
			want: []string{"k1", "k2", "k3"},
		},
		{
			name: "numbered keys keep order and skip blanks",
			env:  map[string]string{"STT_API_KEY": "a", "STT_API_KEY_3": "c"},
			want: []string{"a", "c"},
		},
		{
			name: "groq aliases after generic keys",
			env:  map[string]string{"STT_API_KEY": "a", "GROQ_API_KEY": "g1", "GROQ_API_KEY_2": "a"},
			want: []string{"a", "g1"},
		},
		{
			name: "list wins over numbered",
			env:  map[string]string{"STT_API_KEYS": "x", "STT_API_KEY": "a"},
			want: []string{"x"},
		},
		{
			name: "none",
			env:  map[string]string{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got := KeysFromEnv()
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("KeysFromEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STT_API_KEY", "a")
	t.Setenv("STT_API_KEY_2", "b")
	t.Setenv("STT_TIMEOUT", "45")
	t.Setenv("STT_COOLDOWN", "2m")
	t.Setenv("REFINE_ENABLED", "true")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	creds := cfg.Credentials()
	if len(creds) != 2 || creds[0].Secret != "a" || creds[1].Name != "key-2" {
		t.Errorf("unexpected credentials %v", creds)
	}
	if cfg.Timeout != 45*time.Second || cfg.Cooldown != 2*time.Minute {
		t.Errorf("unexpected durations %s %s", cfg.Timeout, cfg.Cooldown)
	}
	if !cfg.Refine.Enabled || cfg.Log.Format != "json" {
		t.Errorf("unexpected overrides %+v", cfg)
	}
	if got := cfg.RefinerConfig().BaseURL; got != "https://api.groq.com/openai/v1" {
		t.Errorf("refinement should default to the groq endpoint, got %s", got)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "rtlscribe.yaml")
	yml := `
port: "9090"
provider: openai
language: fa
api_keys: [file-1, file-2]
timeout: 30s
refine:
  enabled: true
  max_chars: 500
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STT_LANGUAGE", "ar")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.Provider != "openai" || cfg.Timeout != 30*time.Second {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Language != "ar" {
		t.Errorf("environment should override file, got %s", cfg.Language)
	}
	if len(cfg.APIKeys) != 2 || cfg.APIKeys[0] != "file-1" {
		t.Errorf("unexpected keys %v", cfg.APIKeys)
	}
	if cfg.Refine.MaxChars != 500 || cfg.Log.Level != "debug" {
		t.Errorf("nested values not applied: %+v %+v", cfg.Refine, cfg.Log)
	}
	if got := cfg.RefinerConfig().BaseURL; got != "https://api.openai.com/v1" {
		t.Errorf("unexpected refine base url %s", got)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"too many keys", map[string]string{"STT_API_KEYS": "a,b,c,d"}, "at most 3 API keys"},
		{"unknown provider", map[string]string{"STT_PROVIDER": "google"}, "Provider"},
		{"bad timeout", map[string]string{"STT_TIMEOUT": "soon"}, "STT_TIMEOUT"},
		{"bad bool", map[string]string{"REFINE_ENABLED": "maybe"}, "REFINE_ENABLED"},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}, "Level"},
		{"audio ceiling", map[string]string{"MAX_AUDIO_MB": "500"}, "MaxAudioMB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
