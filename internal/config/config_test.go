package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Environment:        "local",
		LogLevel:           "info",
		DBMinConns:         1,
		DBMaxConns:         8,
		Provider:           ProviderOllama,
		OllamaHost:         "http://localhost:11434",
		OllamaModel:        "gpt-oss:20b",
		DefaultSourceLang:  "auto",
		DefaultTargetLang:  "zh",
		DefaultTone:        "neutral",
		DefaultExplainLang: "en",
		DefaultTemperature: 0.2,
		MaxTextChars:       4000,
		RepairAttempts:     2,
		ProviderRetries:    2,
		RequestTimeout:     2 * time.Minute,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid ollama config",
			mutate: func(*Config) {},
		},
		{
			name: "openai with key",
			mutate: func(c *Config) {
				c.Provider = ProviderOpenAI
				c.OpenAIAPIKey = "sk-test"
			},
		},
		{
			name: "openai without key",
			mutate: func(c *Config) {
				c.Provider = ProviderOpenAI
			},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "claude" },
			wantErr: "GLOSSA_PROVIDER",
		},
		{
			name: "min conns over max",
			mutate: func(c *Config) {
				c.DBMinConns = 10
				c.DBMaxConns = 2
			},
			wantErr: "DB_MIN_CONNS",
		},
		{
			name:    "zero text limit",
			mutate:  func(c *Config) { c.MaxTextChars = 0 },
			wantErr: "MAX_TEXT_CHARS",
		},
		{
			name:    "zero repair attempts",
			mutate:  func(c *Config) { c.RepairAttempts = 0 },
			wantErr: "REPAIR_ATTEMPTS",
		},
		{
			name:    "negative temperature",
			mutate:  func(c *Config) { c.DefaultTemperature = -0.5 },
			wantErr: "DEFAULT_TEMPERATURE",
		},
		{
			name:    "timeout too short",
			mutate:  func(c *Config) { c.RequestTimeout = 100 * time.Millisecond },
			wantErr: "REQUEST_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate returned error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestHistoryEnabled(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if cfg.HistoryEnabled() {
		t.Error("HistoryEnabled = true without DATABASE_URL")
	}
	cfg.DatabaseURL = "postgres://localhost/glossa"
	if !cfg.HistoryEnabled() {
		t.Error("HistoryEnabled = false with DATABASE_URL set")
	}
}
