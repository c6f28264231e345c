package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// DatabaseURL is optional; when empty the translation cache/history is
	// disabled and every request reaches the provider.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"8"`

	Provider     string `envconfig:"GLOSSA_PROVIDER" default:"ollama"`
	OllamaHost   string `envconfig:"OLLAMA_HOST" default:"http://localhost:11434"`
	OllamaModel  string `envconfig:"OLLAMA_MODEL" default:"gpt-oss:20b"`
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	DefaultSourceLang  string  `envconfig:"DEFAULT_SOURCE_LANG" default:"auto"`
	DefaultTargetLang  string  `envconfig:"DEFAULT_TARGET_LANG" default:"zh"`
	DefaultTone        string  `envconfig:"DEFAULT_TONE" default:"neutral"`
	DefaultExplainLang string  `envconfig:"DEFAULT_EXPLAIN_LANG" default:"en"`
	DefaultTemperature float64 `envconfig:"DEFAULT_TEMPERATURE" default:"0.2"`

	MaxTextChars    int           `envconfig:"MAX_TEXT_CHARS" default:"4000"`
	RepairAttempts  int           `envconfig:"REPAIR_ATTEMPTS" default:"2"`
	ProviderRetries int           `envconfig:"PROVIDER_RETRIES" default:"2"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"2m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Provider)) {
	case ProviderOllama:
	case ProviderOpenAI:
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when GLOSSA_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("GLOSSA_PROVIDER must be %q or %q", ProviderOllama, ProviderOpenAI)
	}

	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.MaxTextChars < 1 {
		return fmt.Errorf("MAX_TEXT_CHARS must be >= 1")
	}
	if c.RepairAttempts < 1 {
		return fmt.Errorf("REPAIR_ATTEMPTS must be >= 1")
	}
	if c.ProviderRetries < 1 {
		return fmt.Errorf("PROVIDER_RETRIES must be >= 1")
	}
	if c.DefaultTemperature < 0 {
		return fmt.Errorf("DEFAULT_TEMPERATURE must not be negative")
	}
	if c.RequestTimeout < time.Second {
		return fmt.Errorf("REQUEST_TIMEOUT must be >= 1s")
	}
	return nil
}

// HistoryEnabled reports whether a database is configured.
func (c *Config) HistoryEnabled() bool {
	return c != nil && strings.TrimSpace(c.DatabaseURL) != ""
}
