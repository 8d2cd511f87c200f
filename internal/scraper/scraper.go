// Package scraper fetches the full article body from a publisher page when
// the RSS item only carries a short teaser. Best effort: the pipeline falls
// back to the feed snippet on any failure.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/tech2news/technews/internal/logger"
)

// maxContentLength bounds the extracted text; truncation keeps whole
// paragraphs.
const maxContentLength = 1800

// Per-publisher article body selectors, tried before the generic list.
var siteSelectors = map[string][]string{
	"techcrunch.com":  {".article-content p", ".entry-content p"},
	"theverge.com":    {".duet--article--article-body-component p", "article p"},
	"wired.com":       {".body__inner-container p", "article p"},
	"arstechnica.com": {".article-content p", ".post-content p"},
	"engadget.com":    {".article-text p", "article p"},
}

var genericSelectors = []string{
	"article p",
	".article p",
	".content p",
	".post-content p",
	".entry-content p",
	"main p",
}

// Boilerplate lines dropped from extracted text.
var junkIndicators = []string{
	"cookie", "advertisement", "sponsored", "subscribe to", "sign up for",
	"newsletter", "read more:", "related:", "follow us", "click here",
	"all rights reserved", "terms of service", "privacy policy",
}

// Scraper downloads and extracts article bodies.
type Scraper struct {
	client *resty.Client
}

func New() *Scraper {
	return &Scraper{
		client: resty.New().
			SetTimeout(15 * time.Second).
			SetHeader("User-Agent", "Tech2News Reader/1.0"),
	}
}

// ExtractFullArticle returns the cleaned article text for a URL.
func (s *Scraper) ExtractFullArticle(ctx context.Context, url string) (string, error) {
	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("error loading page: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}

	content := cleanContent(extractParagraphs(doc, url))
	if content == "" {
		return "", fmt.Errorf("no article content found")
	}

	logger.Debug("scraped article body", "url", url, "chars", len(content))
	return content, nil
}

// extractParagraphs collects body paragraphs, preferring publisher-specific
// selectors.
func extractParagraphs(doc *goquery.Document, url string) []string {
	var selectors []string
	for site, sel := range siteSelectors {
		if strings.Contains(url, site) {
			selectors = sel
			break
		}
	}
	selectors = append(selectors, genericSelectors...)

	for _, selector := range selectors {
		var paragraphs []string
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= 2 {
			return paragraphs
		}
	}
	return nil
}

// cleanContent drops boilerplate paragraphs and truncates on a paragraph
// boundary.
func cleanContent(paragraphs []string) string {
	var kept []string
	total := 0
	for _, p := range paragraphs {
		lower := strings.ToLower(p)
		junk := false
		for _, indicator := range junkIndicators {
			if strings.Contains(lower, indicator) {
				junk = true
				break
			}
		}
		if junk {
			continue
		}

		p = strings.Join(strings.Fields(p), " ")
		if total+len(p) > maxContentLength {
			break
		}
		kept = append(kept, p)
		total += len(p) + 2
	}
	return strings.Join(kept, "\n\n")
}
