package parse

import (
	"strings"
	"unicode"

	"github.com/tidwall/gjson"

	"github.com/joescharf/ideas/internal/models"
)

// Outcome reports which strategy produced a deep dive.
type Outcome int

const (
	// ParseDegraded means nothing structured was recognised.
	ParseDegraded Outcome = iota
	ParsedJSON
	ParsedHeadings
)

func (o Outcome) String() string {
	switch o {
	case ParsedJSON:
		return "json"
	case ParsedHeadings:
		return "headings"
	default:
		return "degraded"
	}
}

// Heading ties a section key to the emoji and title the generator is asked to emit.
type Heading struct {
	Key   string
	Emoji string
	Title string
}

// Headings are the section headers requested from the generator, in order.
var Headings = []Heading{
	{models.SectionProductClarity, "🚀", "Product Clarity & MVP"},
	{models.SectionTiming, "🕰", "Timing"},
	{models.SectionMarketOpportunity, "📈", "Market Opportunity"},
	{models.SectionStrategicMoat, "🧠", "Strategic Moat"},
	{models.SectionBusinessFunding, "💼", "Business & Funding"},
	{models.SectionInvestorScoring, "📊", "Investor Scoring"},
	{models.SectionSummary, "✅", "Summary"},
}

// ParseDeepDive structures a generated deep dive. JSON is tried first (an
// object, or the first object inside an array); otherwise the text is scanned
// for emoji section headers. Every fixed section key is always present.
func ParseDeepDive(text string) (models.DeepDive, Outcome) {
	if dd, ok := deepDiveFromJSON(text); ok {
		return dd, ParsedJSON
	}
	dd, found := deepDiveFromHeadings(text)
	if found {
		return dd, ParsedHeadings
	}
	return dd, ParseDegraded
}

func deepDiveFromJSON(text string) (models.DeepDive, bool) {
	text = stripFences(text)

	var obj gjson.Result
	switch {
	case gjson.Valid(text):
		obj = gjson.Parse(text)
	default:
		arr, okArr := balanced(text, '[', ']')
		o, okObj := balanced(text, '{', '}')
		switch {
		case okArr && gjson.Valid(arr) && (!okObj || strings.Index(text, arr) < strings.Index(text, o)):
			obj = gjson.Parse(arr)
		case okObj && gjson.Valid(o):
			obj = gjson.Parse(o)
		default:
			return nil, false
		}
	}
	if obj.IsArray() {
		var first gjson.Result
		obj.ForEach(func(_, v gjson.Result) bool {
			if v.IsObject() {
				first = v
				return false
			}
			return true
		})
		obj = first
	}
	if !obj.IsObject() {
		return nil, false
	}

	dd := models.NewDeepDive()
	matched := false
	obj.ForEach(func(k, v gjson.Result) bool {
		key := sectionKey(k.String())
		if key != "" {
			matched = true
		} else if key = strings.TrimSpace(k.String()); key == "" {
			return true
		}
		if v.Type == gjson.String {
			dd[key] = strings.TrimSpace(v.String())
		} else {
			dd[key] = compact(v.Raw)
		}
		return true
	})
	if !matched {
		return nil, false
	}
	return dd, true
}

func deepDiveFromHeadings(text string) (models.DeepDive, bool) {
	dd := models.NewDeepDive()
	sections := map[string][]string{}
	active := ""
	found := false

	for _, line := range strings.Split(text, "\n") {
		if key := headingKey(line); key != "" {
			active = key
			found = true
			continue
		}
		if active == "" {
			continue
		}
		sections[active] = append(sections[active], line)
	}

	for key, lines := range sections {
		dd[key] = strings.TrimSpace(strings.Join(lines, "\n"))
	}
	return dd, found
}

// headingKey returns the section key when line is one of the emoji headers.
// Markdown heading marks and emphasis around the header are tolerated.
func headingKey(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "#*> ")
	s = strings.TrimSpace(s)
	for _, h := range Headings {
		if !strings.HasPrefix(s, h.Emoji) {
			continue
		}
		rest := strings.TrimPrefix(s, h.Emoji)
		rest = strings.TrimLeft(rest, "\ufe0f *")
		if strings.HasPrefix(strings.ToLower(rest), strings.ToLower(firstWord(h.Title))) {
			return h.Key
		}
	}
	return ""
}

func firstWord(s string) string {
	if i := strings.IndexFunc(s, unicode.IsSpace); i > 0 {
		return s[:i]
	}
	return s
}

// sectionKey maps a JSON key such as "Product Clarity & MVP" or
// "product_clarity" onto a fixed section key.
func sectionKey(raw string) string {
	norm := normalizeKey(raw)
	for _, h := range Headings {
		if norm == h.Key || norm == normalizeKey(h.Title) {
			return h.Key
		}
	}
	for _, h := range Headings {
		if strings.HasPrefix(norm, h.Key) {
			return h.Key
		}
	}
	return ""
}

func normalizeKey(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r == '&':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if r > unicode.MaxASCII {
				continue
			}
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

func compact(raw string) string {
	var b strings.Builder
	inString := false
	escaped := false
	for _, r := range raw {
		if inString {
			b.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		if r == '"' {
			inString = true
		}
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
