package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mkrill/glossa/internal/cli"
	"github.com/mkrill/glossa/internal/history"
)

func runHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	limit := fs.Int("limit", 25, "Maximum number of entries to list")
	mode := fs.String("mode", "", "Filter by mode (translate, dictionary)")
	lang := fs.String("lang", "", "Filter by target language code")

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
	if !cfg.HistoryEnabled() {
		fmt.Fprintln(os.Stderr, "History is disabled: DATABASE_URL is not configured")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	store, err := history.Open(ctx, cfg.DatabaseURL, cfg.DBMinConns, cfg.DBMaxConns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Open history store failed: %v\n", err)
		return 1
	}
	defer store.Close()

	entries, err := store.List(ctx, history.ListFilter{
		Mode:       *mode,
		TargetLang: *lang,
		Limit:      *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "List history failed: %v\n", err)
		return 1
	}

	if len(entries) == 0 {
		fmt.Println("No history entries.")
		return 0
	}

	for _, entry := range entries {
		summary := ""
		if entry.Result != nil && entry.Result.Translation != nil {
			summary = entry.Result.Translation.Translation
		} else if entry.Result != nil && entry.Result.Dictionary != nil {
			summary = fmt.Sprintf("%d dictionary entries", len(entry.Result.Dictionary.Entries))
		}
		fmt.Printf(
			"%s  %s  %s->%s  %-10s  %q -> %q\n",
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			entry.Mode,
			entry.SourceLang,
			entry.TargetLang,
			entry.Provider,
			truncate(entry.SourceText, 40),
			truncate(summary, 60),
		)
	}
	return 0
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
