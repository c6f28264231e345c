package langdetect

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// minSampleLetters guards against feeding the classifier samples too short
// to carry any signal.
const minSampleLetters = 2

// Detector resolves the source language of a text sample with lingua. The
// underlying models are built lazily on first use and shared afterwards.
type Detector struct {
	once  sync.Once
	inner lingua.LanguageDetector
}

func New() *Detector {
	return &Detector{}
}

// Detect returns the ISO 639-1 code of the most likely language of text.
func (d *Detector) Detect(ctx context.Context, text string) (string, error) {
	if d == nil {
		return "", fmt.Errorf("detector is nil")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sample := strings.TrimSpace(text)
	if sample == "" {
		return "", fmt.Errorf("text sample is empty")
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < minSampleLetters {
		return "", fmt.Errorf("text sample has too few letters to classify")
	}

	language, exists := d.detector().DetectLanguageOf(sample)
	if !exists {
		return "", fmt.Errorf("no language matched the sample")
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return "", fmt.Errorf("classifier returned an unusable code %q", code)
	}
	return code, nil
}

func (d *Detector) detector() lingua.LanguageDetector {
	d.once.Do(func() {
		d.inner = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build()
	})
	return d.inner
}
