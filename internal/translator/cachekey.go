package translator

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strconv"
)

const cacheKeyVersion = "v2"

// cacheKeyFor derives the deterministic cache key for a resolved request and
// provider/model identity. Requests that normalize identically collide by
// construction; rerun style, the previous translation, and the seed
// participate so regenerated results are stored under their own keys.
func cacheKeyFor(req ResolvedRequest, providerName, modelName string) string {
	h := sha256.New()

	fields := []string{
		cacheKeyVersion,
		providerName,
		modelName,
		string(req.Mode),
		req.SourceLang,
		req.TargetLang,
		string(req.Tone),
		req.ToneInstructions,
		req.ExplainLang,
		strconv.FormatFloat(req.Temperature, 'f', -1, 64),
		seedField(req.Seed),
		rerunStyleField(req.Rerun),
		rerunPreviousField(req.Rerun),
		req.Text,
	}
	for _, field := range fields {
		io.WriteString(h, field)
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}

func seedField(seed *int) string {
	if seed == nil {
		return ""
	}
	return strconv.Itoa(*seed)
}

func rerunStyleField(hint *RerunHint) string {
	if hint == nil {
		return ""
	}
	return string(hint.Style)
}

// rerunPreviousField keys on the previous translation too, so two reruns of
// the same text steered away from different outputs get distinct records.
func rerunPreviousField(hint *RerunHint) string {
	if hint == nil {
		return ""
	}
	return hint.PreviousTranslation
}
