// Package filter scores raw articles for tech relevance. Pure functions, no
// I/O: the same article always produces the same result.
package filter

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Tech keywords (must have at least one for a tech article)
var techKeywords = []string{
	// Core technology
	"technology", "tech", "digital", "software", "hardware", "app", "application",
	"platform", "system", "network", "internet", "web", "mobile", "smartphone",
	"computer", "laptop", "device", "gadget", "electronics", "semiconductor",

	// AI & machine learning
	"ai", "artificial intelligence", "machine learning", "deep learning", "neural",
	"algorithm", "automation", "robotics", "chatbot", "nlp", "computer vision",

	// Programming & development
	"programming", "coding", "developer", "software development", "api", "framework",
	"database", "cloud computing", "devops", "open source", "github", "code",

	// Emerging tech
	"blockchain", "cryptocurrency", "bitcoin", "ethereum", "nft", "metaverse",
	"virtual reality", "vr", "augmented reality", "ar", "iot", "internet of things",
	"quantum computing", "5g", "6g", "edge computing",

	// Cybersecurity
	"cybersecurity", "security", "privacy", "encryption", "hack", "breach",
	"malware", "phishing", "vulnerability", "firewall",

	// Companies & products
	"apple", "google", "microsoft", "amazon", "meta", "facebook", "tesla",
	"netflix", "uber", "spotify", "twitter", "instagram", "tiktok", "zoom",
	"slack", "discord", "openai", "nvidia", "intel", "amd",
	"iphone", "android", "windows", "macos", "ios", "chrome", "safari",

	// Business tech
	"startup", "fintech", "healthtech", "edtech", "saas", "e-commerce",
	"digital transformation", "innovation", "venture capital", "ipo",

	// Data & analytics
	"data", "analytics", "big data", "data science", "business intelligence",
	"dashboard", "metrics", "cloud", "aws", "azure", "gcp",
}

// Non-tech keywords (penalize when these dominate)
var excludeKeywords = []string{
	// Politics & government
	"politics", "political", "government", "congress", "senate", "president",
	"election", "vote", "campaign", "policy", "law", "regulation", "court",

	// Sports & entertainment
	"sports", "football", "basketball", "baseball", "soccer", "olympics",
	"movie", "film", "celebrity", "entertainment", "music", "album", "concert",

	// Health & medical
	"health", "medical", "hospital", "doctor", "patient", "disease", "virus",
	"vaccine", "medicine", "treatment", "cancer", "covid",

	// Finance
	"stock market", "wall street", "banking", "loan", "mortgage", "insurance",
	"real estate", "property", "housing",

	// General news
	"weather", "climate", "environment", "nature", "travel", "food", "recipe",
	"fashion", "beauty", "lifestyle", "culture", "art", "book", "education",
}

// Tech company names carry extra weight
var techCompanies = []string{
	"apple", "google", "microsoft", "amazon", "meta", "tesla", "netflix",
	"uber", "spotify", "airbnb", "dropbox", "slack", "zoom", "github",
	"openai", "nvidia", "intel", "amd", "qualcomm", "broadcom", "cisco",
	"oracle", "salesforce", "adobe", "vmware", "snowflake", "databricks",
}

// Known tech-focused publishers, matched as substrings of the source name
var techSources = []string{
	"techcrunch", "verge", "wired", "arstechnica", "engadget", "zdnet",
	"techradar", "cnet", "venturebeat", "geekwire",
}

// maxPossibleScore is the score of a very tech-heavy article, used to
// normalize confidence.
const maxPossibleScore = 15

// Article is the input to the filter. Source is the feed name, used for
// publisher-based scoring.
type Article struct {
	Title       string
	Description string
	Content     string
	Summary     string
	Source      string
}

// Keywords holds the matched term sets for audit and logging.
type Keywords struct {
	Tech      []string `json:"tech"`
	Companies []string `json:"companies"`
	Excluded  []string `json:"excluded"`
}

// Result is the relevance verdict for one article.
type Result struct {
	IsTechRelated bool     `json:"isTechRelated"`
	Confidence    int      `json:"confidence"` // 0-100
	Score         int      `json:"score"`
	Reasons       []string `json:"reasons"`
	Keywords      Keywords `json:"keywords"`
}

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// extractText joins all text fields, strips punctuation and collapses
// whitespace.
func extractText(a Article) string {
	text := strings.Join([]string{a.Title, a.Description, a.Content, a.Summary}, " ")
	text = nonWordRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}

// matchTerm distinguishes phrases and short tokens: phrases match as
// substrings, tokens of 3 characters or fewer require word boundaries
// (avoids "ai" matching "said" or "ar" matching "award").
func matchTerm(text, term string) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(text, term)
	}
	if len(term) <= 3 {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
		return re.MatchString(text)
	}
	return strings.Contains(text, term)
}

func matchAll(text string, terms []string) []string {
	var found []string
	for _, t := range terms {
		if matchTerm(text, t) {
			found = append(found, t)
		}
	}
	return found
}

// Score computes the tech-relevance result for a single article.
func Score(a Article) Result {
	fullText := strings.ToLower(extractText(a))
	title := strings.ToLower(a.Title)

	score := 0
	var reasons []string

	// Tech keywords in the title weigh more than in the body.
	titleKeywords := matchAll(title, techKeywords)
	if len(titleKeywords) > 0 {
		score += len(titleKeywords) * 3
		reasons = append(reasons, fmt.Sprintf("Tech keywords in title: %s", strings.Join(titleKeywords, ", ")))
	}

	contentKeywords := matchAll(fullText, techKeywords)
	if len(contentKeywords) > 0 {
		score += len(contentKeywords)
		shown := contentKeywords
		if len(shown) > 5 {
			shown = shown[:5]
		}
		reasons = append(reasons, fmt.Sprintf("Tech keywords found: %s", strings.Join(shown, ", ")))
	}

	companies := matchAll(fullText, techCompanies)
	if len(companies) > 0 {
		score += len(companies) * 2
		reasons = append(reasons, fmt.Sprintf("Tech companies mentioned: %s", strings.Join(companies, ", ")))
	}

	var excluded []string
	for _, kw := range excludeKeywords {
		if matchTerm(title, kw) || matchTerm(fullText, kw) {
			excluded = append(excluded, kw)
		}
	}
	if len(excluded) > 0 {
		score -= len(excluded) * 2
		reasons = append(reasons, fmt.Sprintf("Non-tech keywords found: %s", strings.Join(excluded, ", ")))
	}

	source := strings.ToLower(a.Source)
	if source != "" {
		for _, s := range techSources {
			if strings.Contains(source, s) {
				score += 2
				reasons = append(reasons, "From tech-focused source")
				break
			}
		}
	}

	confidence := math.Min(math.Max(float64(score)/maxPossibleScore, 0), 1)
	confidencePct := int(math.Round(confidence * 100))

	// Audit snapshot: title matches plus the first 3 content matches. The
	// full text contains the title, so the union must dedupe.
	seen := make(map[string]bool, len(titleKeywords)+3)
	var tech []string
	for _, kw := range titleKeywords {
		if !seen[kw] {
			seen[kw] = true
			tech = append(tech, kw)
		}
	}
	for i, kw := range contentKeywords {
		if i == 3 {
			break
		}
		if !seen[kw] {
			seen[kw] = true
			tech = append(tech, kw)
		}
	}

	return Result{
		IsTechRelated: score >= 3 || confidencePct >= 30,
		Confidence:    confidencePct,
		Score:         score,
		Reasons:       reasons,
		Keywords: Keywords{
			Tech:      tech,
			Companies: companies,
			Excluded:  excluded,
		},
	}
}

// Scored pairs an article with its filter result.
type Scored struct {
	Article Article
	Result  Result
}

// FilterMany scores every article, keeps the tech-related ones at or above
// minConfidence (percent) and sorts them by confidence descending. Ties keep
// their original order.
func FilterMany(articles []Article, minConfidence int) []Scored {
	var kept []Scored
	for _, a := range articles {
		r := Score(a)
		if r.IsTechRelated && r.Confidence >= minConfidence {
			kept = append(kept, Scored{Article: a, Result: r})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Result.Confidence > kept[j].Result.Confidence
	})
	return kept
}
