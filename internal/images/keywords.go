package images

import (
	"regexp"
	"strings"
)

// Tech-related keywords that work well for image search
var techKeywords = []string{
	"technology", "digital", "innovation", "startup", "software", "app",
	"ai", "artificial intelligence", "machine learning", "robotics",
	"blockchain", "cryptocurrency", "cloud", "computing", "data",
	"cybersecurity", "mobile", "internet", "web", "coding", "programming",
	"automation", "virtual reality", "augmented reality", "iot",
	"fintech", "quantum", "neural network", "algorithm",
}

// Company and product names
var brandKeywords = []string{
	"apple", "google", "microsoft", "amazon", "meta", "tesla",
	"netflix", "uber", "spotify", "twitter", "instagram",
	"iphone", "android", "windows", "chrome", "aws",
}

var titleStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true,
	"this": true, "that": true, "will": true, "from": true,
}

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// ExtractKeywords picks up to 5 search keywords from the article text:
// matched tech terms and brand names first, then up to 3 significant words
// from the title.
func ExtractKeywords(title, content string) []string {
	fullText := strings.ToLower(title + " " + content)

	var keywords []string
	for _, kw := range techKeywords {
		if strings.Contains(fullText, kw) {
			keywords = append(keywords, kw)
		}
	}
	for _, kw := range brandKeywords {
		if strings.Contains(fullText, kw) {
			keywords = append(keywords, kw)
		}
	}

	titleWords := strings.Fields(nonWordRe.ReplaceAllString(strings.ToLower(title), ""))
	count := 0
	for _, w := range titleWords {
		if count >= 3 {
			break
		}
		if len(w) > 3 && !titleStopwords[w] {
			keywords = append(keywords, w)
			count++
		}
	}

	// Dedupe, keep order, cap at 5
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, 5)
	for _, kw := range keywords {
		if seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
		if len(out) == 5 {
			break
		}
	}
	return out
}
