package translator

// Mode selects the output contract for one request.
type Mode string

const (
	ModeTranslate  Mode = "translate"
	ModeDictionary Mode = "dictionary"
)

// Tone is a stylistic instruction preset merged into the prompt.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	ToneCasual   Tone = "casual"
	ToneFormal   Tone = "formal"
	TonePolite   Tone = "polite"
	ToneSpoken   Tone = "spoken"
	ToneBusiness Tone = "business"
	// ToneCustom uses the request's ToneInstructions verbatim after sanitization.
	ToneCustom Tone = "custom"
)

// RerunStyle steers a regeneration of a previous result.
type RerunStyle string

const (
	RerunMoreLiteral RerunStyle = "more_literal"
	RerunMoreNatural RerunStyle = "more_natural"
	RerunAlternative RerunStyle = "alternative"
)

// SourceAuto requests source language detection.
const SourceAuto = "auto"

// RerunHint asks for a regeneration steered away from a previous output.
type RerunHint struct {
	Style RerunStyle `json:"style"`
	// PreviousTranslation is embedded in the prompt so the model can avoid
	// repeating it verbatim.
	PreviousTranslation string `json:"previous_translation,omitempty"`
}

// TranslateRequest describes one translation or dictionary lookup.
type TranslateRequest struct {
	Text             string     `json:"text"`
	SourceLang       string     `json:"source_lang"` // ISO 639-1 code or "auto"
	TargetLang       string     `json:"target_lang"`
	Mode             Mode       `json:"mode"`
	Tone             Tone       `json:"tone"`
	ToneInstructions string     `json:"tone_instructions,omitempty"`
	ExplainLang      string     `json:"explain_lang,omitempty"`
	Rerun            *RerunHint `json:"rerun,omitempty"`
	Provider         string     `json:"provider,omitempty"`
	Seed             *int       `json:"seed,omitempty"`
	Temperature      float64    `json:"temperature,omitempty"`
	// Force skips the cache read and always calls the provider. The result
	// is still written to history under its own key.
	Force bool `json:"force,omitempty"`
}

// ResolvedRequest is a request after normalization and language detection.
// SourceLang is always a concrete code, never "auto". It is the unit hashed
// for cache keys and must not be mutated once built.
type ResolvedRequest struct {
	Text             string
	SourceLang       string
	TargetLang       string
	Mode             Mode
	Tone             Tone
	ToneInstructions string
	ExplainLang      string
	Rerun            *RerunHint
	Seed             *int
	Temperature      float64

	// Detected reports that SourceLang came from the language detector.
	Detected bool

	skipCacheRead bool
}

// TranslateResult is the structured outcome of a translate-mode run.
type TranslateResult struct {
	Translation        string   `json:"translation"`
	Alternatives       []string `json:"alternatives,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	DetectedSourceLang string   `json:"detected_source_lang,omitempty"`
}

// DictionarySense is one meaning of a dictionary entry.
type DictionarySense struct {
	Meaning       string `json:"meaning"`
	ExampleSource string `json:"example_source,omitempty"`
	ExampleTarget string `json:"example_target,omitempty"`
	UsageNotes    string `json:"usage_notes,omitempty"`
}

// DictionaryEntry groups senses under one part of speech.
type DictionaryEntry struct {
	Pos    string            `json:"pos,omitempty"`
	Senses []DictionarySense `json:"senses"`
}

// DictionaryResult is the structured outcome of a dictionary-mode run.
type DictionaryResult struct {
	Term    string            `json:"term"`
	Entries []DictionaryEntry `json:"entries"`
}

// Result is the mode-tagged outcome of one pipeline run. Exactly one of
// Translation and Dictionary is set.
type Result struct {
	Mode        Mode              `json:"mode"`
	Translation *TranslateResult  `json:"translation,omitempty"`
	Dictionary  *DictionaryResult `json:"dictionary,omitempty"`
	Provider    string            `json:"provider"`
	Model       string            `json:"model,omitempty"`
	LatencyMs   int64             `json:"latency_ms"`
	CacheKey    string            `json:"cache_key"`
	Cached      bool              `json:"cached,omitempty"`
}

func validMode(m Mode) bool {
	switch m {
	case ModeTranslate, ModeDictionary:
		return true
	}
	return false
}

func validTone(t Tone) bool {
	switch t {
	case ToneNeutral, ToneCasual, ToneFormal, TonePolite, ToneSpoken, ToneBusiness, ToneCustom:
		return true
	}
	return false
}

func validRerunStyle(s RerunStyle) bool {
	switch s {
	case RerunMoreLiteral, RerunMoreNatural, RerunAlternative:
		return true
	}
	return false
}
