package translator

import (
	"errors"
	"testing"
)

func TestRefreshRequest(t *testing.T) {
	t.Parallel()

	prev := TranslateRequest{
		Text:        "hello",
		SourceLang:  "en",
		TargetLang:  "zh",
		Temperature: 0.2,
		Rerun:       &RerunHint{Style: RerunMoreLiteral},
	}

	next := RefreshRequest(prev, 42)

	if !next.Force {
		t.Error("Force = false, want true")
	}
	if next.Rerun != nil {
		t.Error("Rerun hint should be cleared")
	}
	if next.Seed == nil || *next.Seed != 42 {
		t.Errorf("Seed = %v, want 42", next.Seed)
	}
	if next.Temperature < refreshTemperature {
		t.Errorf("Temperature = %v, want >= %v", next.Temperature, refreshTemperature)
	}
	if prev.Force || prev.Seed != nil || prev.Rerun == nil {
		t.Error("previous request was mutated")
	}
}

func TestRefreshRequestKeepsHigherTemperature(t *testing.T) {
	t.Parallel()

	next := RefreshRequest(TranslateRequest{Temperature: 1.1}, 1)
	if next.Temperature != 1.1 {
		t.Errorf("Temperature = %v, want the original 1.1 kept", next.Temperature)
	}
}

func TestRerunRequest(t *testing.T) {
	t.Parallel()

	prev := TranslateRequest{Text: "hello", SourceLang: "en", TargetLang: "zh"}

	next, err := RerunRequest(prev, "你好", RerunMoreNatural)
	if err != nil {
		t.Fatalf("RerunRequest returned error: %v", err)
	}
	if !next.Force {
		t.Error("Force = false, want true")
	}
	if next.Rerun == nil || next.Rerun.Style != RerunMoreNatural {
		t.Errorf("Rerun = %+v, want more_natural hint", next.Rerun)
	}
	if next.Rerun.PreviousTranslation != "你好" {
		t.Errorf("PreviousTranslation = %q, want %q", next.Rerun.PreviousTranslation, "你好")
	}
	if prev.Force || prev.Rerun != nil {
		t.Error("previous request was mutated")
	}
}

func TestRerunRequestUnknownStyle(t *testing.T) {
	t.Parallel()

	_, err := RerunRequest(TranslateRequest{Text: "hello"}, "", "louder")
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("error = %v, want %v", err, ErrInvalidRequest)
	}
}
