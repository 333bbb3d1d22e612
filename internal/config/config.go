package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"rtlscribe/internal/ai"
	"rtlscribe/internal/logging"
	"rtlscribe/internal/stt"
)

// MaxCredentials is the largest credential pool accepted
const MaxCredentials = 3

type Config struct {
	Port string `yaml:"port" validate:"required,numeric"`

	Provider string        `yaml:"provider" validate:"oneof=groq openai fpt"`
	BaseURL  string        `yaml:"base_url" validate:"omitempty,url"`
	Model    string        `yaml:"model"`
	Language string        `yaml:"language"`
	Prompt   string        `yaml:"prompt"`
	APIKeys  []string      `yaml:"api_keys" validate:"max=3,dive,required"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
	Cooldown time.Duration `yaml:"cooldown" validate:"gte=0"`

	MaxAudioMB int `yaml:"max_audio_mb" validate:"gt=0,lte=100"`

	Refine RefineConfig `yaml:"refine"`

	PDFFontPath string `yaml:"pdf_font_path"`

	Log LogConfig `yaml:"log"`
}

type RefineConfig struct {
	Enabled  bool          `yaml:"enabled"`
	BaseURL  string        `yaml:"base_url" validate:"omitempty,url"`
	Model    string        `yaml:"model"`
	MaxChars int           `yaml:"max_chars" validate:"gt=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json logfmt"`
}

// Load builds the configuration from defaults, the optional YAML file at
// path (or CONFIG_FILE), then environment variables, and validates it.
// A missing credential list is not an error here; it is reported when a
// transcription is attempted.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadEnv overrides file values with any environment variable that is set.
func (c *Config) loadEnv() error {
	var errs []error

	c.Port = getEnv("PORT", c.Port)
	c.Provider = strings.ToLower(getEnv("STT_PROVIDER", c.Provider))
	c.BaseURL = getEnv("STT_BASE_URL", c.BaseURL)
	c.Model = getEnv("STT_MODEL", c.Model)
	c.Language = getEnv("STT_LANGUAGE", c.Language)
	c.Prompt = getEnv("STT_PROMPT", c.Prompt)
	c.PDFFontPath = getEnv("PDF_FONT_PATH", c.PDFFontPath)
	c.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", c.Log.Level))
	c.Log.Format = strings.ToLower(getEnv("LOG_FORMAT", c.Log.Format))
	c.Refine.BaseURL = getEnv("REFINE_BASE_URL", c.Refine.BaseURL)
	c.Refine.Model = getEnv("REFINE_MODEL", c.Refine.Model)

	if c.Provider == "fpt" {
		c.BaseURL = getEnv("FPT_AI_STT_URL", c.BaseURL)
	}

	if keys := KeysFromEnv(); len(keys) > 0 {
		c.APIKeys = keys
	} else {
		c.APIKeys = dedupe(c.APIKeys)
	}

	var err error
	if c.Timeout, err = getEnvDuration("STT_TIMEOUT", c.Timeout); err != nil {
		errs = append(errs, err)
	}
	if c.Cooldown, err = getEnvDuration("STT_COOLDOWN", c.Cooldown); err != nil {
		errs = append(errs, err)
	}
	if c.MaxAudioMB, err = getEnvInt("MAX_AUDIO_MB", c.MaxAudioMB); err != nil {
		errs = append(errs, err)
	}
	if c.Refine.Enabled, err = getEnvBool("REFINE_ENABLED", c.Refine.Enabled); err != nil {
		errs = append(errs, err)
	}
	if c.Refine.MaxChars, err = getEnvInt("REFINE_MAX_CHARS", c.Refine.MaxChars); err != nil {
		errs = append(errs, err)
	}
	if c.Refine.Timeout, err = getEnvDuration("REFINE_TIMEOUT", c.Refine.Timeout); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Provider == "" {
		c.Provider = "groq"
	}
	if c.Language == "" {
		c.Language = "ar"
	}
	if c.Timeout == 0 {
		c.Timeout = stt.DefaultCallTimeout
	}
	if c.Cooldown == 0 {
		c.Cooldown = stt.DefaultCooldown
	}
	if c.MaxAudioMB == 0 {
		c.MaxAudioMB = stt.DefaultMaxAudioBytes >> 20
	}
	if c.Refine.Model == "" {
		c.Refine.Model = ai.DefaultRefineModel
	}
	if c.Refine.MaxChars == 0 {
		c.Refine.MaxChars = ai.DefaultMaxChars
	}
	if c.Refine.Timeout == 0 {
		c.Refine.Timeout = ai.DefaultRefineTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.StructField() == "APIKeys" && fe.Tag() == "max" {
			msgs = append(msgs, fmt.Sprintf("at most %d API keys are supported (got %d)", MaxCredentials, len(c.APIKeys)))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value: %v)", fe.Namespace(), tagWithParam(fe), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func tagWithParam(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// Credentials returns the ordered credential pool.
func (c *Config) Credentials() []stt.Credential {
	return stt.NewCredentials(c.APIKeys)
}

// MaxAudioBytes returns the upload ceiling in bytes.
func (c *Config) MaxAudioBytes() int64 {
	return int64(c.MaxAudioMB) << 20
}

// ProviderConfig returns the STT backend settings.
func (c *Config) ProviderConfig() stt.ProviderConfig {
	return stt.ProviderConfig{
		Name:    c.Provider,
		BaseURL: c.BaseURL,
		Model:   c.Model,
		Timeout: c.Timeout,
	}
}

// RefinerConfig returns the refinement settings. Refinement goes to the STT
// vendor's chat endpoint unless a separate base URL is set, since it reuses
// the winning STT credential.
func (c *Config) RefinerConfig() ai.RefinerConfig {
	base := c.Refine.BaseURL
	if base == "" {
		switch c.Provider {
		case "openai":
			base = orDefault(c.BaseURL, stt.OpenAIBaseURL)
		default:
			base = orDefault(c.BaseURL, stt.GroqBaseURL)
		}
	}
	return ai.RefinerConfig{
		BaseURL:  base,
		Model:    c.Refine.Model,
		MaxChars: c.Refine.MaxChars,
		Timeout:  c.Refine.Timeout,
	}
}

// LoggingConfig returns the logger settings.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}

// KeysFromEnv collects credential secrets in priority order. STT_API_KEYS
// (comma separated) wins; otherwise the numbered STT_API_KEY variables are
// read, then the GROQ_API_KEY aliases. Blanks and duplicates are dropped.
func KeysFromEnv() []string {
	if list := os.Getenv("STT_API_KEYS"); strings.TrimSpace(list) != "" {
		return dedupe(strings.Split(list, ","))
	}

	var keys []string
	for _, prefix := range []string{"STT_API_KEY", "GROQ_API_KEY"} {
		keys = append(keys, os.Getenv(prefix))
		for i := 2; i <= MaxCredentials; i++ {
			keys = append(keys, os.Getenv(prefix+"_"+strconv.Itoa(i)))
		}
	}
	return dedupe(keys)
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	var out []string
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
