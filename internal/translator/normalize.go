package translator

import (
	"fmt"
	"strings"

	"github.com/mkrill/glossa/internal/language"
)

// normalizeRequest validates and canonicalizes a raw request. It is a pure
// function: the input is never mutated and the same input always yields the
// same output. SourceLang may still be "auto" afterwards.
func normalizeRequest(req TranslateRequest, maxTextChars int) (TranslateRequest, error) {
	out := req

	out.Text = strings.TrimSpace(req.Text)
	if out.Text == "" {
		return TranslateRequest{}, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	if maxTextChars > 0 && len([]rune(out.Text)) > maxTextChars {
		return TranslateRequest{}, fmt.Errorf("%w: text exceeds %d characters", ErrRequestTooLarge, maxTextChars)
	}

	if out.Mode == "" {
		out.Mode = ModeTranslate
	}
	if !validMode(out.Mode) {
		return TranslateRequest{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, out.Mode)
	}

	if out.Tone == "" {
		out.Tone = ToneNeutral
	}
	if !validTone(out.Tone) {
		return TranslateRequest{}, fmt.Errorf("%w: unknown tone %q", ErrInvalidRequest, out.Tone)
	}
	out.ToneInstructions = strings.TrimSpace(req.ToneInstructions)

	sourceLang := strings.ToLower(strings.TrimSpace(req.SourceLang))
	if sourceLang == "" || sourceLang == SourceAuto {
		out.SourceLang = SourceAuto
	} else {
		out.SourceLang = language.NormalizeCode(sourceLang)
		if out.SourceLang == "" || !language.Known(out.SourceLang) {
			return TranslateRequest{}, fmt.Errorf("%w: unknown source language %q", ErrInvalidRequest, req.SourceLang)
		}
	}

	out.TargetLang = language.NormalizeCode(req.TargetLang)
	if out.TargetLang == "" || !language.Known(out.TargetLang) {
		return TranslateRequest{}, fmt.Errorf("%w: unknown target language %q", ErrInvalidRequest, req.TargetLang)
	}

	if strings.TrimSpace(req.ExplainLang) == "" {
		out.ExplainLang = "en"
	} else {
		out.ExplainLang = language.NormalizeCode(req.ExplainLang)
		if out.ExplainLang == "" || !language.Known(out.ExplainLang) {
			return TranslateRequest{}, fmt.Errorf("%w: unknown explain language %q", ErrInvalidRequest, req.ExplainLang)
		}
	}

	if req.Rerun != nil {
		if !validRerunStyle(req.Rerun.Style) {
			return TranslateRequest{}, fmt.Errorf("%w: unknown rerun style %q", ErrInvalidRequest, req.Rerun.Style)
		}
		hint := *req.Rerun
		hint.PreviousTranslation = strings.TrimSpace(hint.PreviousTranslation)
		out.Rerun = &hint
	}

	if out.Temperature < 0 {
		return TranslateRequest{}, fmt.Errorf("%w: temperature must not be negative", ErrInvalidRequest)
	}

	return out, nil
}
