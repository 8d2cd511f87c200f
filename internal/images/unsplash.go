// Package images finds a representative stock photo for an article via an
// Unsplash-style photo search, with a chain of query strategies and a
// non-tech content filter. Every failure degrades to the next strategy; the
// resolver never returns an error to the pipeline.
package images

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tech2news/technews/internal/logger"
)

const defaultBaseURL = "https://api.unsplash.com"

// SourceUnsplash tags images resolved through the external photo search.
// Embedded feed images are tagged by the pipeline as "rss".
const SourceUnsplash = "unsplash"

// Photo descriptions containing these terms are not appropriate for tech
// article cards.
var inappropriateTerms = []string{
	"people", "person", "man", "woman", "face", "portrait", "wedding",
	"party", "celebration", "food", "animal", "nature landscape",
}

var fallbackQueries = []string{
	"technology abstract blue",
	"digital network",
	"computer code screen",
	"tech innovation",
	"modern technology",
}

type photo struct {
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	URLs           struct {
		Regular string `json:"regular"`
		Small   string `json:"small"`
	} `json:"urls"`
	Links struct {
		DownloadLocation string `json:"download_location"`
	} `json:"links"`
	Tags []struct {
		Title string `json:"title"`
	} `json:"tags"`
}

type searchResponse struct {
	Results []photo `json:"results"`
}

// Resolver searches an Unsplash-compatible photo API.
type Resolver struct {
	client    *resty.Client
	accessKey string
	rand      *rand.Rand
}

// NewResolver creates a resolver. An empty accessKey disables the external
// search entirely; Resolve then always returns "".
func NewResolver(accessKey string) *Resolver {
	return &Resolver{
		client:    resty.New().SetBaseURL(defaultBaseURL).SetTimeout(15 * time.Second),
		accessKey: accessKey,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetBaseURL points the resolver at a different API host, for tests.
func (r *Resolver) SetBaseURL(url string) {
	r.client.SetBaseURL(url)
}

// Resolve finds a photo URL for the article, or "" when every strategy
// comes up empty.
func (r *Resolver) Resolve(ctx context.Context, title, content string) string {
	if r.accessKey == "" {
		logger.Warn("photo search API key not configured")
		return ""
	}

	keywords := ExtractKeywords(title, content)
	logger.Debug("image search keywords", "keywords", strings.Join(keywords, ", "))

	strategies := buildStrategies(keywords)
	for _, query := range strategies {
		if url := r.search(ctx, query); url != "" {
			logger.Info("found image", "query", query)
			return url
		}
	}

	logger.Info("no suitable images found", "title", title)
	return ""
}

// FallbackImage searches for a generic tech image, used when Resolve found
// nothing for the specific article.
func (r *Resolver) FallbackImage(ctx context.Context) string {
	if r.accessKey == "" {
		return ""
	}
	return r.search(ctx, fallbackQueries[r.rand.Intn(len(fallbackQueries))])
}

func buildStrategies(keywords []string) []string {
	var strategies []string
	if len(keywords) >= 2 {
		strategies = append(strategies, strings.Join(keywords[:2], " "))
	}
	if len(keywords) >= 1 {
		strategies = append(strategies, keywords[0])
	} else {
		strategies = append(strategies, "technology")
	}
	return append(strategies, "technology abstract", "digital innovation")
}

// search runs one query and returns a photo URL, or "" when the query
// failed or produced nothing usable.
func (r *Resolver) search(ctx context.Context, query string) string {
	var result searchResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Client-ID "+r.accessKey).
		SetQueryParams(map[string]string{
			"query":          query,
			"page":           "1",
			"per_page":       "10",
			"orientation":    "landscape",
			"content_filter": "high",
			"order_by":       "relevant",
		}).
		SetResult(&result).
		Get("/search/photos")
	if err != nil {
		logger.Warn("photo search failed", "query", query, "error", err)
		return ""
	}
	if resp.IsError() {
		logger.Warn("photo search error", "query", query, "status", resp.StatusCode())
		return ""
	}
	if len(result.Results) == 0 {
		logger.Debug("no images found", "query", query)
		return ""
	}

	appropriate := filterAppropriate(result.Results)
	if len(appropriate) == 0 {
		appropriate = result.Results
	}

	picked := appropriate[r.rand.Intn(len(appropriate))]
	url := picked.URLs.Regular
	if url == "" {
		url = picked.URLs.Small
	}

	// Download tracking is an API compliance courtesy; failure is not worth
	// losing the image over.
	if picked.Links.DownloadLocation != "" {
		if err := r.trackDownload(ctx, picked.Links.DownloadLocation); err != nil {
			logger.Warn("failed to track photo download", "error", err)
		}
	}

	return url
}

// filterAppropriate drops photos whose description, alt text or tags mention
// people, food or other non-tech subjects.
func filterAppropriate(photos []photo) []photo {
	var out []photo
	for _, p := range photos {
		parts := []string{strings.ToLower(p.Description), strings.ToLower(p.AltDescription)}
		for _, tag := range p.Tags {
			parts = append(parts, strings.ToLower(tag.Title))
		}
		allText := strings.Join(parts, " ")

		ok := true
		for _, term := range inappropriateTerms {
			if strings.Contains(allText, term) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *Resolver) trackDownload(ctx context.Context, downloadLocation string) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Client-ID "+r.accessKey).
		Get(downloadLocation)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("download tracking returned status %d", resp.StatusCode())
	}
	return nil
}
