package gemini

import (
	"strings"
)

// NoInsightPlaceholder fills any summary section the model output did not
// contain.
const NoInsightPlaceholder = "No insight available yet."

// Sections is the structured form of a generated summary, extracted from the
// emoji anchors of the summary template.
type Sections struct {
	Headline     string   `json:"headline"`
	Summary      string   `json:"summary"`
	WhyItMatters string   `json:"whyItMatters"`
	Takeaways    []string `json:"takeaways"`
}

// Section anchors. Older template versions used 🔖 for the headline, so both
// are accepted.
var sectionAnchors = []struct {
	name    string
	markers []string
}{
	{"headline", []string{"📰", "🔖"}},
	{"summary", []string{"✏"}},
	{"why", []string{"❗"}},
	{"takeaways", []string{"🚀"}},
}

// ParseSummary extracts structured fields from generated summary text. It
// never fails: malformed or partial output degrades to placeholders.
func ParseSummary(text string) Sections {
	parts := map[string][]string{}
	current := ""

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		matched := false
		for _, anchor := range sectionAnchors {
			for _, marker := range anchor.markers {
				if !strings.HasPrefix(line, marker) {
					continue
				}
				current = anchor.name
				// Drop the marker and any "Label:" prefix on the same line.
				rest := strings.TrimPrefix(line, marker)
				rest = strings.TrimPrefix(rest, "️") // emoji variation selector
				if idx := strings.Index(rest, ":"); idx >= 0 && idx < 30 {
					rest = rest[idx+1:]
				}
				if rest = strings.TrimSpace(rest); rest != "" {
					parts[current] = append(parts[current], rest)
				}
				matched = true
				break
			}
			if matched {
				break
			}
		}
		if !matched && current != "" {
			parts[current] = append(parts[current], line)
		}
	}

	s := Sections{
		Headline:     joinOrPlaceholder(parts["headline"]),
		Summary:      joinOrPlaceholder(parts["summary"]),
		WhyItMatters: joinOrPlaceholder(parts["why"]),
		Takeaways:    bullets(parts["takeaways"]),
	}
	return s
}

func joinOrPlaceholder(lines []string) string {
	if len(lines) == 0 {
		return NoInsightPlaceholder
	}
	return strings.Join(lines, " ")
}

// bullets strips bullet markers from takeaway lines. A section with no
// bullet lines degrades to a single placeholder entry.
func bullets(lines []string) []string {
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimLeft(line, "•-* "))
		if line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return []string{NoInsightPlaceholder}
	}
	return out
}
