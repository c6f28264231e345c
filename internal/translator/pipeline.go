package translator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Detector resolves the source language of a text sample.
type Detector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// HistoryStore is the cache/history gateway consumed by the pipeline. Get
// returns (nil, nil) on a cache miss. Put must make the result visible to
// subsequent Get calls for the same key; no further locking semantics are
// assumed.
type HistoryStore interface {
	Get(ctx context.Context, cacheKey string) (*Result, error)
	Put(ctx context.Context, result *Result, req ResolvedRequest) error
}

// Options bound the pipeline's behavior. Zero values fall back to defaults.
type Options struct {
	// MaxTextChars rejects longer inputs with ErrRequestTooLarge.
	MaxTextChars int
	// RepairAttempts is the reformat-retry ceiling after the initial parse.
	RepairAttempts int
	// ProviderRetries is the transient-error retry ceiling per provider call.
	ProviderRetries int
	// DefaultTemperature applies when a request does not set one.
	DefaultTemperature float64
	// MaxTokens is passed through to providers; zero means provider default.
	MaxTokens int
}

const (
	defaultMaxTextChars    = 4000
	defaultRepairAttempts  = 2
	defaultProviderRetries = 2
	defaultTemperature     = 0.2

	transientRetryDelay = 250 * time.Millisecond
)

func (o Options) withDefaults() Options {
	if o.MaxTextChars <= 0 {
		o.MaxTextChars = defaultMaxTextChars
	}
	if o.RepairAttempts < 0 {
		o.RepairAttempts = 0
	} else if o.RepairAttempts == 0 {
		o.RepairAttempts = defaultRepairAttempts
	}
	if o.ProviderRetries <= 0 {
		o.ProviderRetries = defaultProviderRetries
	}
	if o.DefaultTemperature <= 0 {
		o.DefaultTemperature = defaultTemperature
	}
	return o
}

// Pipeline turns free-form text into a structured translation or dictionary
// result. It holds no mutable state between calls; concurrent use is safe.
type Pipeline struct {
	registry *Registry
	detector Detector
	store    HistoryStore
	logger   zerolog.Logger
	opts     Options
}

// New builds a pipeline. detector may be nil when "auto" source requests are
// not expected; store may be nil to disable caching and history.
func New(registry *Registry, detector Detector, store HistoryStore, logger zerolog.Logger, opts Options) *Pipeline {
	return &Pipeline{
		registry: registry,
		detector: detector,
		store:    store,
		logger:   logger,
		opts:     opts.withDefaults(),
	}
}

// Translate is the single entry point of the pipeline.
func (p *Pipeline) Translate(ctx context.Context, req TranslateRequest) (*Result, error) {
	if p == nil || p.registry == nil {
		return nil, fmt.Errorf("translation pipeline is not initialized")
	}

	normalized, err := normalizeRequest(req, p.opts.MaxTextChars)
	if err != nil {
		return nil, err
	}

	provider, err := p.registry.Provider(normalized.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	resolved, err := p.resolve(ctx, normalized)
	if err != nil {
		return nil, err
	}

	providerName := provider.Name()
	modelName := modelNameFromProvider(provider)
	key := cacheKeyFor(resolved, providerName, modelName)

	if p.store != nil && !resolved.skipCacheRead {
		cached, err := p.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read translation cache: %w", err)
		}
		if cached != nil {
			cached.Cached = true
			return cached, nil
		}
	}

	params := GenerateParams{
		Temperature: resolved.Temperature,
		Seed:        resolved.Seed,
		MaxTokens:   p.opts.MaxTokens,
	}
	prompt := BuildPrompt(resolved)

	started := time.Now()
	result, err := p.generateAndParse(ctx, provider, resolved, prompt, params)
	if err != nil {
		return nil, err
	}

	result.Provider = providerName
	if modelName != "" {
		result.Model = modelName
	}
	result.LatencyMs = time.Since(started).Milliseconds()
	result.CacheKey = key

	if result.Mode == ModeTranslate && result.Translation != nil {
		if resolved.Detected {
			result.Translation.DetectedSourceLang = resolved.SourceLang
		} else {
			result.Translation.DetectedSourceLang = ""
		}
	}

	if p.store != nil && ctx.Err() == nil {
		if err := p.store.Put(ctx, result, resolved); err != nil {
			p.logger.Warn().Err(err).Str("cache_key", key).Msg("failed to persist translation result")
		}
	}

	return result, nil
}

// Refresh regenerates a previous request with fresh sampling. It never reads
// from cache; the new result is written under its own key.
func (p *Pipeline) Refresh(ctx context.Context, prev TranslateRequest) (*Result, error) {
	seed := int(time.Now().UnixNano() & 0x7fffffff)
	return p.Translate(ctx, RefreshRequest(prev, seed))
}

// Rerun regenerates a previous request steered by a style hint, with the
// previous translation embedded for contrast. It never reads from cache.
func (p *Pipeline) Rerun(ctx context.Context, prev TranslateRequest, prevResult *Result, style RerunStyle) (*Result, error) {
	previousTranslation := ""
	if prevResult != nil && prevResult.Translation != nil {
		previousTranslation = prevResult.Translation.Translation
	}
	next, err := RerunRequest(prev, previousTranslation, style)
	if err != nil {
		return nil, err
	}
	return p.Translate(ctx, next)
}

// resolve produces the immutable ResolvedRequest: detection for "auto"
// sources and the cross-language invariant check.
func (p *Pipeline) resolve(ctx context.Context, req TranslateRequest) (ResolvedRequest, error) {
	resolved := ResolvedRequest{
		Text:             req.Text,
		SourceLang:       req.SourceLang,
		TargetLang:       req.TargetLang,
		Mode:             req.Mode,
		Tone:             req.Tone,
		ToneInstructions: req.ToneInstructions,
		ExplainLang:      req.ExplainLang,
		Rerun:            req.Rerun,
		Seed:             req.Seed,
		Temperature:      req.Temperature,
		skipCacheRead:    req.Force || req.Rerun != nil,
	}

	if resolved.Temperature == 0 {
		resolved.Temperature = p.opts.DefaultTemperature
	}

	if resolved.SourceLang == SourceAuto {
		if p.detector == nil {
			return ResolvedRequest{}, fmt.Errorf("%w: no language detector configured", ErrDetectionFailed)
		}
		code, err := p.detector.Detect(ctx, resolved.Text)
		if err != nil {
			return ResolvedRequest{}, fmt.Errorf("%w: %v", ErrDetectionFailed, err)
		}
		if code == "" {
			return ResolvedRequest{}, fmt.Errorf("%w: detector returned no language", ErrDetectionFailed)
		}
		resolved.SourceLang = code
		resolved.Detected = true
	}

	if resolved.Mode != ModeDictionary && resolved.SourceLang == resolved.TargetLang {
		return ResolvedRequest{}, fmt.Errorf(
			"%w: target language %q equals the resolved source language",
			ErrInvalidRequest, resolved.TargetLang,
		)
	}

	return resolved, nil
}

// generateAndParse runs the provider call and the bounded repair loop.
func (p *Pipeline) generateAndParse(
	ctx context.Context,
	provider Provider,
	resolved ResolvedRequest,
	prompt Prompt,
	params GenerateParams,
) (*Result, error) {
	resp, err := p.generate(ctx, provider, prompt, params)
	if err != nil {
		return nil, err
	}

	raw := resp.Text
	var lastParseErr error
	for attempt := 0; ; attempt++ {
		result, err := parseProviderOutput(resolved, raw)
		if err == nil {
			result.Model = resp.Model
			return result, nil
		}

		var pe *parseError
		if !errors.As(err, &pe) {
			return nil, err
		}
		lastParseErr = err

		if attempt >= p.opts.RepairAttempts {
			return nil, &UnparsableOutputError{
				Attempts:  attempt + 1,
				RawOutput: raw,
				Reason:    lastParseErr,
			}
		}

		p.logger.Debug().
			Int("attempt", attempt+1).
			Str("provider", provider.Name()).
			Msg("provider output failed validation, requesting reformat")

		resp, err = p.generate(ctx, provider, repairPrompt(resolved, raw), params)
		if err != nil {
			return nil, err
		}
		raw = resp.Text
	}
}

// generate calls the provider with a bounded retry on transient errors.
func (p *Pipeline) generate(ctx context.Context, provider Provider, prompt Prompt, params GenerateParams) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= p.opts.ProviderRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return nil, fmt.Errorf("%w: %v", ErrProviderTimeout, ctx.Err())
				}
				return nil, ctx.Err()
			case <-time.After(transientRetryDelay):
			}
		}

		resp, err := provider.Generate(ctx, prompt, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isTransientProviderError(err) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func isTransientProviderError(err error) bool {
	return errors.Is(err, ErrProviderUnavailable) || errors.Is(err, ErrProviderTimeout)
}
