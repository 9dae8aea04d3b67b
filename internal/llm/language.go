package llm

import "unicode"

// DefaultASCIIThreshold is the minimum share of ASCII runes for text to count as English.
const DefaultASCIIThreshold = 0.6

// EnglishInstruction is appended to a prompt when the first answer came back
// in another script.
const EnglishInstruction = "\n\nRespond in English only."

// LanguageDetector decides whether generated text needs an English retry.
type LanguageDetector interface {
	IsLatin(text string) bool
	// Ratio is the confidence score logged when IsLatin fails.
	Ratio(text string) float64
}

// LatinScriptHeuristic approximates "is this English" by the share of ASCII
// runes among non-space runes. Accented Latin languages and emoji-heavy text
// can fall below the threshold.
type LatinScriptHeuristic struct {
	Threshold float64
}

// IsLatin reports whether text passes the heuristic. Empty text passes.
func (h LatinScriptHeuristic) IsLatin(text string) bool {
	return h.Ratio(text) >= h.threshold()
}

// Ratio returns the share of ASCII runes among non-space runes.
func (h LatinScriptHeuristic) Ratio(text string) float64 {
	total, ascii := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r <= unicode.MaxASCII {
			ascii++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(ascii) / float64(total)
}

func (h LatinScriptHeuristic) threshold() float64 {
	if h.Threshold <= 0 || h.Threshold > 1 {
		return DefaultASCIIThreshold
	}
	return h.Threshold
}
