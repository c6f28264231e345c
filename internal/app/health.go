package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mkrill/glossa/internal/cli"
	"github.com/mkrill/glossa/internal/history"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Second, "Health check timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, _, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Provider setup failed: %v\n", err)
		return 1
	}
	fmt.Printf("providers: %v (default: %s)\n", registry.ProviderNames(), registry.DefaultProvider())

	if !cfg.HistoryEnabled() {
		fmt.Println("history: disabled (DATABASE_URL not set)")
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := history.Open(ctx, cfg.DatabaseURL, cfg.DBMinConns, cfg.DBMaxConns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: connection failed: %v\n", err)
		return 1
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "history: ping failed: %v\n", err)
		return 1
	}
	fmt.Println("history: ok")
	return 0
}
