package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/mkrill/glossa/internal/cli"
	"github.com/mkrill/glossa/internal/config"
	"github.com/mkrill/glossa/internal/history"
	"github.com/mkrill/glossa/internal/langdetect"
	"github.com/mkrill/glossa/internal/logging"
	"github.com/mkrill/glossa/internal/provider/ollama"
	"github.com/mkrill/glossa/internal/provider/openai"
	"github.com/mkrill/glossa/internal/translator"
)

// bootstrap loads env + config and builds the logger. Shared by all commands.
func bootstrap(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("initialize logger: %w", err)
	}

	return cfg, logger, nil
}

func buildRegistry(cfg *config.Config) (*translator.Registry, error) {
	registry := translator.NewRegistry(cfg.Provider)

	if err := registry.Register(ollama.New(cfg.OllamaHost, cfg.OllamaModel)); err != nil {
		return nil, fmt.Errorf("register ollama provider: %w", err)
	}

	if cfg.OpenAIAPIKey != "" {
		openaiClient, err := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, fmt.Errorf("build openai provider: %w", err)
		}
		if err := registry.Register(openaiClient); err != nil {
			return nil, fmt.Errorf("register openai provider: %w", err)
		}
	}

	return registry, nil
}

// buildPipeline wires the full pipeline. The returned store is nil when no
// database is configured; callers that got a store own closing it.
func buildPipeline(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*translator.Pipeline, *history.Store, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}

	var store *history.Store
	var gateway translator.HistoryStore
	if cfg.HistoryEnabled() {
		store, err = history.Open(ctx, cfg.DatabaseURL, cfg.DBMinConns, cfg.DBMaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("open history store: %w", err)
		}
		gateway = store
	}

	pipeline := translator.New(registry, langdetect.New(), gateway, logger, translator.Options{
		MaxTextChars:       cfg.MaxTextChars,
		RepairAttempts:     cfg.RepairAttempts,
		ProviderRetries:    cfg.ProviderRetries,
		DefaultTemperature: cfg.DefaultTemperature,
	})

	return pipeline, store, nil
}
