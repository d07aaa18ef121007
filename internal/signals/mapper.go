// Package signals implements the pure aggregation core that turns 360-feedback
// responses into talent signal scores: question-to-signal mapping, rater
// weighting, confidence, and bias-risk metadata. Persistence lives elsewhere.
package signals

import "strings"

// GeneralSignal is the catch-all for responses matching no keyword set.
const GeneralSignal = "general"

// signalOrder fixes iteration order so mapping output is deterministic.
var signalOrder = []string{
	"leadership_consistency",
	"collaboration",
	"communication",
	"innovation",
	"execution",
	"adaptability",
	"strategic_thinking",
}

// signalKeywords maps each signal code to keyword fragments matched
// case-insensitively as substrings of the question text plus category name.
// The matching is intentionally coarse: no stemming, no negation handling.
var signalKeywords = map[string][]string{
	"leadership_consistency": {"leadership", "management", "direction", "lead", "guide"},
	"collaboration":          {"collaborat", "teamwork", "team player", "cooperat", "partner"},
	"communication":          {"communicat", "listen", "present", "articulate", "clarity"},
	"innovation":             {"innovat", "creativ", "new idea", "improve", "experiment"},
	"execution":              {"deliver", "execut", "deadline", "result", "follow through"},
	"adaptability":           {"adapt", "change", "flexib", "resilien", "ambiguity"},
	"strategic_thinking":     {"strateg", "vision", "prioriti", "long-term", "big picture"},
}

// MapToSignals maps a response's question to zero or more signal codes via
// substring keyword matching over the question text and category name. A
// response can feed multiple signals; one matching nothing maps to the
// catch-all general signal.
func MapToSignals(questionText, categoryName string) []string {
	haystack := strings.ToLower(questionText + " " + categoryName)

	var codes []string
	for _, code := range signalOrder {
		for _, kw := range signalKeywords[code] {
			if strings.Contains(haystack, kw) {
				codes = append(codes, code)
				break
			}
		}
	}

	if len(codes) == 0 {
		return []string{GeneralSignal}
	}

	return codes
}

// KnownSignalCodes returns every signal code the mapper can produce,
// including the catch-all. Used to validate seeded signal definitions.
func KnownSignalCodes() []string {
	codes := make([]string, 0, len(signalOrder)+1)
	codes = append(codes, signalOrder...)

	return append(codes, GeneralSignal)
}
