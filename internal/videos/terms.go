package videos

import (
	"regexp"
	"strings"
)

// Term categories in priority order. The weight feeds the candidate ranking:
// a company hit in a video title counts for more than a generic programming
// term.
var (
	companyTerms = []string{
		"openai", "google", "microsoft", "apple", "amazon", "meta", "tesla",
		"nvidia", "intel", "amd", "samsung", "spacex", "anthropic", "github",
		"netflix", "spotify", "uber", "oracle", "ibm", "salesforce",
	}
	technologyTerms = []string{
		"artificial intelligence", "machine learning", "deep learning",
		"neural network", "blockchain", "cryptocurrency", "quantum computing",
		"cloud computing", "cybersecurity", "robotics", "automation",
		"virtual reality", "augmented reality", "5g", "iot", "big data",
		"edge computing", "generative ai", "llm", "chatgpt",
	}
	productTerms = []string{
		"iphone", "android", "windows", "macos", "chrome", "tensorflow",
		"pytorch", "kubernetes", "docker", "aws", "azure", "copilot",
		"gemini", "pixel", "galaxy", "vision pro", "quest",
	}
	programmingTerms = []string{
		"python", "javascript", "typescript", "golang", "rust", "java",
		"api", "framework", "open source", "sdk", "database", "devops",
		"frontend", "backend", "microservices",
	}
)

const (
	weightCompany     = 3.0
	weightTechnology  = 2.0
	weightProduct     = 1.5
	weightProgramming = 1.0
	weightNoun        = 1.0
)

var nounStopwords = map[string]bool{
	"about": true, "after": true, "their": true, "these": true, "those": true,
	"where": true, "which": true, "while": true, "would": true, "could": true,
	"should": true, "today": true, "announces": true, "launches": true,
	"reveals": true, "report": true, "against": true, "during": true,
	"before": true, "first": true, "every": true, "other": true,
}

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// Terms holds everything extracted from an article that drives video search:
// matched terms per category, the primary topic, and the search intent.
type Terms struct {
	Companies      []string
	Technologies   []string
	Products       []string
	Programming    []string
	ImportantNouns []string
	PrimaryTopic   string
	Intent         string
}

// ExtractTerms scans title and content against the curated term categories
// and derives the primary topic and search intent.
func ExtractTerms(title, content string) Terms {
	fullText := strings.ToLower(title + " " + content)

	t := Terms{
		Companies:    matchTerms(fullText, companyTerms),
		Technologies: matchTerms(fullText, technologyTerms),
		Products:     matchTerms(fullText, productTerms),
		Programming:  matchTerms(fullText, programmingTerms),
	}
	t.ImportantNouns = importantNouns(title)
	t.PrimaryTopic = primaryTopic(t)
	t.Intent = detectIntent(fullText)
	return t
}

func matchTerms(text string, terms []string) []string {
	var found []string
	for _, term := range terms {
		if strings.Contains(text, term) {
			found = append(found, term)
		}
	}
	return found
}

// importantNouns pulls up to 3 significant words from the title: longer than
// 4 characters and not generic filler.
func importantNouns(title string) []string {
	words := strings.Fields(nonWordRe.ReplaceAllString(strings.ToLower(title), ""))
	var nouns []string
	for _, w := range words {
		if len(w) > 4 && !nounStopwords[w] {
			nouns = append(nouns, w)
			if len(nouns) == 3 {
				break
			}
		}
	}
	return nouns
}

// primaryTopic picks the first non-empty category hit in priority order,
// falling back to the literal "technology".
func primaryTopic(t Terms) string {
	switch {
	case len(t.Companies) > 0:
		return t.Companies[0]
	case len(t.Technologies) > 0:
		return t.Technologies[0]
	case len(t.Products) > 0:
		return t.Products[0]
	case len(t.ImportantNouns) > 0:
		return t.ImportantNouns[0]
	}
	return "technology"
}

// detectIntent classifies what kind of video would suit the article based on
// literal cues in the text.
func detectIntent(text string) string {
	switch {
	case strings.Contains(text, "review") || strings.Contains(text, "hands-on") || strings.Contains(text, "hands on"):
		return "review"
	case strings.Contains(text, "how to") || strings.Contains(text, "tutorial") || strings.Contains(text, "guide"):
		return "tutorial"
	case strings.Contains(text, "announce") || strings.Contains(text, "launch") || strings.Contains(text, "release") || strings.Contains(text, "unveil"):
		return "news"
	}
	return "explained"
}

// BuildQueries assembles up to 3 ranked search queries from the extracted
// terms.
func BuildQueries(t Terms) []string {
	var queries []string
	if len(t.Companies) > 0 && len(t.Technologies) > 0 {
		queries = append(queries, t.Companies[0]+" "+t.Technologies[0]+" "+t.Intent)
	}
	queries = append(queries, t.PrimaryTopic+" "+t.Intent)
	if len(t.Technologies) > 0 {
		queries = append(queries, t.Technologies[0]+" tutorial")
	}
	if len(t.Products) > 0 {
		queries = append(queries, t.Products[0]+" review")
	}
	if len(t.Programming) > 0 {
		queries = append(queries, t.Programming[0]+" tutorial")
	}
	if len(queries) == 0 {
		queries = append(queries, t.PrimaryTopic+" technology explained")
	}

	seen := make(map[string]bool, len(queries))
	out := make([]string, 0, 3)
	for _, q := range queries {
		if seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
		if len(out) == 3 {
			break
		}
	}
	return out
}

// TopicCategory buckets the article for the fallback thumbnail color.
func TopicCategory(t Terms, title string) string {
	text := strings.ToLower(title) + " " + t.PrimaryTopic
	switch {
	case containsAny(text, "ai", "artificial intelligence", "machine learning", "neural", "llm", "chatgpt", "gpt"):
		return "ai"
	case containsAny(text, "security", "cyber", "hack", "breach", "malware"):
		return "security"
	case containsAny(text, "blockchain", "crypto", "bitcoin", "ethereum", "web3"):
		return "blockchain"
	case containsAny(text, "sustainab", "climate", "solar", "renewable", "electric vehicle"):
		return "sustainability"
	case containsAny(text, "mobile", "iphone", "android", "smartphone", "tablet"):
		return "mobile"
	}
	return "general"
}

// containsAny matches short terms on word boundaries so "ai" does not fire
// inside words like "retailer".
func containsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if len(term) <= 3 {
			if regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`).MatchString(text) {
				return true
			}
			continue
		}
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
