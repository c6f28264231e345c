package translator

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed translate_result.schema.json
var translateSchemaJSON string

//go:embed dictionary_result.schema.json
var dictionarySchemaJSON string

var (
	schemaOnce       sync.Once
	translateSchema  *jsonschema.Schema
	dictionarySchema *jsonschema.Schema
	schemaCompileErr error
)

// parseError marks syntactically or structurally invalid provider output.
// The pipeline reacts to it with the repair loop; all other parse failures
// (ErrEmptyResult) propagate as-is.
type parseError struct {
	reason error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("provider output does not match schema: %v", e.reason)
}

func (e *parseError) Unwrap() error {
	return e.reason
}

// parseProviderOutput parses raw provider text into a mode-tagged result and
// enforces the mode's domain invariants. Callers fill in provider metadata.
func parseProviderOutput(req ResolvedRequest, raw string) (*Result, error) {
	blob, err := extractJSONObject(raw)
	if err != nil {
		return nil, &parseError{reason: err}
	}

	value, err := decodeJSONValue(blob)
	if err != nil {
		return nil, &parseError{reason: err}
	}

	schema, err := schemaForMode(req.Mode)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(value); err != nil {
		return nil, &parseError{reason: err}
	}

	if req.Mode == ModeDictionary {
		dict, err := buildDictionaryResult(req, blob)
		if err != nil {
			return nil, err
		}
		return &Result{Mode: ModeDictionary, Dictionary: dict}, nil
	}

	tr, err := buildTranslateResult(blob)
	if err != nil {
		return nil, err
	}
	return &Result{Mode: ModeTranslate, Translation: tr}, nil
}

// extractJSONObject returns the first balanced JSON object in text. Providers
// occasionally wrap the object in prose or code fences despite the JSON-only
// directive.
func extractJSONObject(text string) (string, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s, nil
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in output")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON object in output")
}

func decodeJSONValue(blob string) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(blob)))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if _, ok := value.(map[string]any); !ok {
		return nil, fmt.Errorf("expected a JSON object")
	}
	return value, nil
}

func schemaForMode(mode Mode) (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		for _, resource := range []struct {
			name string
			text string
		}{
			{name: "translate_result.schema.json", text: translateSchemaJSON},
			{name: "dictionary_result.schema.json", text: dictionarySchemaJSON},
		} {
			if err := compiler.AddResource(resource.name, strings.NewReader(resource.text)); err != nil {
				schemaCompileErr = fmt.Errorf("add schema resource %s: %w", resource.name, err)
				return
			}
		}

		var err error
		if translateSchema, err = compiler.Compile("translate_result.schema.json"); err != nil {
			schemaCompileErr = fmt.Errorf("compile translate schema: %w", err)
			return
		}
		if dictionarySchema, err = compiler.Compile("dictionary_result.schema.json"); err != nil {
			schemaCompileErr = fmt.Errorf("compile dictionary schema: %w", err)
			return
		}
	})

	if schemaCompileErr != nil {
		return nil, schemaCompileErr
	}
	if mode == ModeDictionary {
		return dictionarySchema, nil
	}
	return translateSchema, nil
}

type translatePayload struct {
	Translation        string   `json:"translation"`
	Alternatives       []string `json:"alternatives"`
	Notes              *string  `json:"notes"`
	DetectedSourceLang *string  `json:"detected_source_lang"`
}

func buildTranslateResult(blob string) (*TranslateResult, error) {
	var payload translatePayload
	if err := json.Unmarshal([]byte(blob), &payload); err != nil {
		return nil, &parseError{reason: fmt.Errorf("unmarshal translate payload: %w", err)}
	}

	translation := strings.TrimSpace(payload.Translation)
	if translation == "" {
		return nil, fmt.Errorf("%w: translation is empty", ErrEmptyResult)
	}

	result := &TranslateResult{Translation: translation}
	for _, alt := range payload.Alternatives {
		alt = strings.TrimSpace(alt)
		if alt != "" {
			result.Alternatives = append(result.Alternatives, alt)
		}
	}
	if payload.Notes != nil {
		result.Notes = strings.TrimSpace(*payload.Notes)
	}
	if payload.DetectedSourceLang != nil {
		result.DetectedSourceLang = strings.TrimSpace(*payload.DetectedSourceLang)
	}
	return result, nil
}

type dictionaryPayload struct {
	Term    *string `json:"term"`
	Entries []struct {
		Pos    *string `json:"pos"`
		Senses []struct {
			Meaning       *string `json:"meaning"`
			ExampleSource *string `json:"example_source"`
			ExampleTarget *string `json:"example_target"`
			UsageNotes    *string `json:"usage_notes"`
		} `json:"senses"`
	} `json:"entries"`
}

func buildDictionaryResult(req ResolvedRequest, blob string) (*DictionaryResult, error) {
	var payload dictionaryPayload
	if err := json.Unmarshal([]byte(blob), &payload); err != nil {
		return nil, &parseError{reason: fmt.Errorf("unmarshal dictionary payload: %w", err)}
	}

	term := req.Text
	if payload.Term != nil && strings.TrimSpace(*payload.Term) != "" {
		term = strings.TrimSpace(*payload.Term)
	}

	entries := make([]DictionaryEntry, 0, len(payload.Entries))
	for _, rawEntry := range payload.Entries {
		senses := make([]DictionarySense, 0, len(rawEntry.Senses))
		for _, rawSense := range rawEntry.Senses {
			meaning := derefTrimmed(rawSense.Meaning)
			if meaning == "" {
				continue
			}
			senses = append(senses, DictionarySense{
				Meaning:       meaning,
				ExampleSource: derefTrimmed(rawSense.ExampleSource),
				ExampleTarget: derefTrimmed(rawSense.ExampleTarget),
				UsageNotes:    derefTrimmed(rawSense.UsageNotes),
			})
		}
		if len(senses) == 0 {
			continue
		}
		entries = append(entries, DictionaryEntry{
			Pos:    derefTrimmed(rawEntry.Pos),
			Senses: senses,
		})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no dictionary entries with senses", ErrEmptyResult)
	}
	return &DictionaryResult{Term: term, Entries: entries}, nil
}

func derefTrimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
