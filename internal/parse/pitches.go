package parse

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/joescharf/ideas/internal/models"
)

// ErrorSentinelTitle is the title stored for a generation whose output held no pitches.
const ErrorSentinelTitle = "[ERROR] No ideas parsed (see llm_raw_response)"

// ParsePitches extracts pitch records from generated text. It tries the whole
// text as a JSON array first, then the first balanced [...] span. Anything
// else yields an empty slice.
func ParsePitches(text string) []models.Pitch {
	text = stripFences(text)

	arr := gjson.Parse(text)
	if !gjson.Valid(text) || !arr.IsArray() {
		span, ok := balanced(text, '[', ']')
		if !ok || !gjson.Valid(span) {
			return []models.Pitch{}
		}
		arr = gjson.Parse(span)
	}

	pitches := []models.Pitch{}
	arr.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		p := models.Pitch{
			Title:          str(item, "title"),
			Hook:           str(item, "hook"),
			Value:          str(item, "value"),
			Evidence:       str(item, "evidence"),
			Differentiator: str(item, "differentiator"),
			CallToAction:   str(item, "call_to_action"),
			Kind:           str(item, "type"),
			Score:          rating(item.Get("score")),
			MVPEffort:      rating(item.Get("mvp_effort")),
		}
		if p == (models.Pitch{}) {
			return true
		}
		pitches = append(pitches, p)
		return true
	})
	return pitches
}

// HasTitledPitch reports whether any pitch carries a title.
func HasTitledPitch(pitches []models.Pitch) bool {
	for _, p := range pitches {
		if strings.TrimSpace(p.Title) != "" {
			return true
		}
	}
	return false
}

func str(item gjson.Result, key string) string {
	v := item.Get(key)
	if v.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// rating accepts integers and integer strings in 1..10.
func rating(v gjson.Result) *int {
	var n int
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		if f != float64(int(f)) {
			return nil
		}
		n = int(f)
	case gjson.String:
		parsed, err := strconv.Atoi(strings.TrimSpace(v.String()))
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	return models.ClampRating(&n)
}
