package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mkrill/glossa/internal/cli"
	"github.com/mkrill/glossa/internal/translator"
)

func runTranslate(args []string) int {
	return runTranslateMode(translator.ModeTranslate, "translate", args)
}

func runDict(args []string) int {
	return runTranslateMode(translator.ModeDictionary, "dict", args)
}

func runTranslateMode(mode translator.Mode, command string, args []string) int {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	from := fs.String("from", "", `Source language code (or "auto")`)
	to := fs.String("to", "", "Target language code")
	tone := fs.String("tone", "", `Tone preset (casual, formal, polite, spoken, business, neutral) or "custom"`)
	toneInstructions := fs.String("tone-instructions", "", "Additional style instructions")
	explainLang := fs.String("explain-lang", "", "Language for notes/explanations")
	providerName := fs.String("provider", "", "Generation provider name (ollama, openai)")
	rerunStyle := fs.String("rerun", "", "Rerun style: more_literal, more_natural, alternative")
	previous := fs.String("previous", "", "Previous translation to steer away from (used with --rerun)")
	refresh := fs.Bool("refresh", false, "Regenerate with fresh sampling, bypassing the cache")
	seed := fs.Int("seed", 0, "Sampling seed (0 leaves seeding to the provider)")
	temperature := fs.Float64("temperature", 0, "Sampling temperature override")
	jsonOut := fs.Bool("json", false, "Print the JSON result only")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	text, err := readInputText(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, logger, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	pipeline, store, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if store != nil {
		defer store.Close()
	}

	req := translator.TranslateRequest{
		Text:             text,
		SourceLang:       firstNonEmpty(*from, cfg.DefaultSourceLang),
		TargetLang:       firstNonEmpty(*to, cfg.DefaultTargetLang),
		Mode:             mode,
		Tone:             translator.Tone(firstNonEmpty(*tone, cfg.DefaultTone)),
		ToneInstructions: *toneInstructions,
		ExplainLang:      firstNonEmpty(*explainLang, cfg.DefaultExplainLang),
		Provider:         *providerName,
		Temperature:      *temperature,
	}
	if *seed != 0 {
		req.Seed = seed
	}

	var result *translator.Result
	switch {
	case *rerunStyle != "":
		req, err = translator.RerunRequest(req, *previous, translator.RerunStyle(*rerunStyle))
		if err == nil {
			result, err = pipeline.Translate(ctx, req)
		}
	case *refresh:
		result, err = pipeline.Refresh(ctx, req)
	default:
		result, err = pipeline.Translate(ctx, req)
	}
	if err != nil {
		printPipelineError(err)
		return 1
	}

	if *jsonOut {
		if err := printJSON(result, *pretty); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	renderResult(os.Stdout, result)
	return 0
}

func readInputText(fs *flag.FlagSet) (string, error) {
	if fs.NArg() > 0 {
		return strings.Join(fs.Args(), " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", fmt.Errorf("no input provided (pass TEXT argument or pipe via stdin)")
	}
	return string(data), nil
}

func printJSON(result *translator.Result, pretty bool) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetEscapeHTML(false)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(result)
}

// renderResult prints a human-readable rendering of a pipeline result.
func renderResult(w io.Writer, result *translator.Result) {
	if result == nil {
		return
	}

	if result.Mode == translator.ModeDictionary && result.Dictionary != nil {
		renderDictionary(w, result.Dictionary)
		return
	}
	if result.Translation == nil {
		return
	}

	tr := result.Translation
	fmt.Fprintln(w, tr.Translation)
	if len(tr.Alternatives) > 0 {
		fmt.Fprintln(w, "\nAlternatives:")
		for _, alt := range tr.Alternatives {
			fmt.Fprintf(w, "- %s\n", alt)
		}
	}
	if tr.Notes != "" {
		fmt.Fprintf(w, "\nNotes:\n%s\n", tr.Notes)
	}
	if tr.DetectedSourceLang != "" {
		fmt.Fprintf(w, "\nDetected source: %s\n", tr.DetectedSourceLang)
	}
}

func renderDictionary(w io.Writer, dict *translator.DictionaryResult) {
	fmt.Fprintf(w, "Term: %s\n", dict.Term)
	for _, entry := range dict.Entries {
		pos := entry.Pos
		if pos == "" {
			pos = "-"
		}
		fmt.Fprintf(w, "\n[%s]\n", pos)
		for idx, sense := range entry.Senses {
			fmt.Fprintf(w, "%d. %s\n", idx+1, sense.Meaning)
			if sense.ExampleSource != "" || sense.ExampleTarget != "" {
				fmt.Fprintf(w, "   e.g. %s -> %s\n", sense.ExampleSource, sense.ExampleTarget)
			}
			if sense.UsageNotes != "" {
				fmt.Fprintf(w, "   note: %s\n", sense.UsageNotes)
			}
		}
	}
}

func printPipelineError(err error) {
	var unparsable *translator.UnparsableOutputError
	if errors.As(err, &unparsable) {
		fmt.Fprintf(os.Stderr, "Translate failed: %v\n", err)
		fmt.Fprintln(os.Stderr, "=== raw provider output ===")
		fmt.Fprintln(os.Stderr, unparsable.RawOutput)
		fmt.Fprintln(os.Stderr, "=== end raw provider output ===")
		return
	}
	fmt.Fprintf(os.Stderr, "Translate failed: %v\n", err)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
