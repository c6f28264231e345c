package translator

import (
	"fmt"
	"strings"

	"github.com/mkrill/glossa/internal/language"
)

const systemPreamble = `You are a high-precision translation engine.
- Preserve meaning, numbers, and proper nouns unless instructed otherwise.
- Preserve line breaks and punctuation when reasonable.
- Do not fabricate facts; put ambiguity into notes or usage_notes instead of resolving it silently.
- Do not add commentary outside the required JSON.`

const translateSchemaDirective = `Output: JSON only, matching this schema:
{
  "translation": string,
  "alternatives": string[] | null,
  "notes": string | null,
  "detected_source_lang": string | null
}
If the source language is ambiguous, set detected_source_lang to null and explain briefly in notes.`

const dictionarySchemaDirective = `Task: Return dictionary-style entries with multiple senses.
Output: JSON only, matching this schema:
{
  "term": string,
  "entries": [
    {
      "pos": string | null,
      "senses": [
        {
          "meaning": string,
          "example_source": string | null,
          "example_target": string | null,
          "usage_notes": string | null
        }
      ]
    }
  ]
}`

var tonePresets = map[Tone]string{
	ToneNeutral:  "Use a neutral register without marked stylistic coloring.",
	ToneCasual:   "Use relaxed, conversational wording.",
	ToneFormal:   "Use formal register and precise vocabulary.",
	TonePolite:   "Use polite, respectful phrasing appropriate for addressing strangers.",
	ToneSpoken:   "Prefer phrasing that sounds natural when spoken aloud.",
	ToneBusiness: "Use professional business language.",
}

// BuildPrompt composes the provider-agnostic prompt for a resolved request.
// It is pure and deterministic: identical requests produce byte-identical
// prompts, which cache keys and tests rely on.
func BuildPrompt(req ResolvedRequest) Prompt {
	return Prompt{
		System: buildSystemPrompt(req),
		User:   buildUserPrompt(req),
	}
}

func buildSystemPrompt(req ResolvedRequest) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\n")
	b.WriteString(toneLine(req))
	b.WriteString("\n")

	if req.Mode == ModeDictionary {
		b.WriteString("\n")
		b.WriteString(dictionarySchemaDirective)
		b.WriteString("\n")
		return b.String()
	}

	if req.Rerun != nil {
		b.WriteString(rerunDirective(req.Rerun))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(translateSchemaDirective)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Notes language: %s (%s).\n", language.DisplayName(req.ExplainLang), req.ExplainLang)
	return b.String()
}

func buildUserPrompt(req ResolvedRequest) string {
	if req.Mode == ModeDictionary {
		return fmt.Sprintf(
			"Explain and translate as a dictionary entry.\nTarget language for meanings/examples: %s (%s).\nTerm: %s\n",
			language.DisplayName(req.TargetLang), req.TargetLang, req.Text,
		)
	}

	return fmt.Sprintf(
		"Translate the text.\nSource language: %s (%s).\nTarget language: %s (%s).\nText:\n%s\n",
		language.DisplayName(req.SourceLang), req.SourceLang,
		language.DisplayName(req.TargetLang), req.TargetLang,
		req.Text,
	)
}

func toneLine(req ResolvedRequest) string {
	if req.Tone == ToneCustom {
		instructions := SanitizeToneInstructions(req.ToneInstructions)
		if instructions == "" {
			return "Tone/style: neutral."
		}
		return fmt.Sprintf("Tone/style instructions: %s", instructions)
	}

	line := fmt.Sprintf("Tone/style: %s. %s", req.Tone, tonePresets[req.Tone])
	if extra := SanitizeToneInstructions(req.ToneInstructions); extra != "" {
		line += fmt.Sprintf(" Additional instructions: %s", extra)
	}
	return line
}

func rerunDirective(hint *RerunHint) string {
	var directive string
	switch hint.Style {
	case RerunMoreLiteral:
		directive = "Regeneration hint: make the translation more literal, prioritizing structural fidelity to the source wording over fluency."
	case RerunMoreNatural:
		directive = "Regeneration hint: make the translation more natural, prioritizing idiomatic phrasing while preserving meaning."
	default:
		directive = "Regeneration hint: produce a materially different valid translation."
	}
	if hint.PreviousTranslation != "" {
		directive += fmt.Sprintf(
			"\nThe previous translation is already known and must not be repeated verbatim:\n%s",
			hint.PreviousTranslation,
		)
	}
	return directive
}

// forbidden substrings for user-supplied tone text; anything that could talk
// the model out of the JSON-only contract is dropped line by line.
var toneInstructionBlocklist = []string{
	"json",
	"schema",
	"output",
	"format",
	"ignore",
	"disregard",
	"system prompt",
}

const maxToneInstructionChars = 280

// SanitizeToneInstructions strips user-supplied tone text of anything that
// could override the output-schema directive, and bounds its length. The
// result is deterministic for a given input.
func SanitizeToneInstructions(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	kept := make([]string, 0, 4)
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		blocked := false
		for _, word := range toneInstructionBlocklist {
			if strings.Contains(lower, word) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		line = strings.Map(func(r rune) rune {
			switch r {
			case '{', '}', '`':
				return -1
			}
			return r
		}, line)
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}

	joined := strings.Join(kept, " ")
	if len(joined) > maxToneInstructionChars {
		joined = strings.TrimSpace(joined[:maxToneInstructionChars])
	}
	return joined
}

// repairPrompt asks the provider to reformat its own malformed output as
// strict JSON matching the mode's schema.
func repairPrompt(req ResolvedRequest, rawOutput string) Prompt {
	directive := translateSchemaDirective
	if req.Mode == ModeDictionary {
		directive = dictionarySchemaDirective
	}
	return Prompt{
		System: "You fix malformed model output.\n" + directive + "\n",
		User: fmt.Sprintf(
			"The following output does not conform to the required JSON schema. Reformat it as a single strict JSON object matching the schema, preserving its content. Output JSON only.\n\n%s\n",
			rawOutput,
		),
	}
}
