package videos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tech2news/technews/internal/logger"
)

const defaultAPIBaseURL = "https://www.googleapis.com/youtube/v3"

// recencyWindow limits search results to roughly the last six months.
const recencyWindow = 180 * 24 * time.Hour

// ErrQuotaExceeded signals a 403-class response from the search API. The
// resolver stops issuing further queries for the run when it sees this.
var ErrQuotaExceeded = errors.New("video search quota exceeded")

// candidate is one search result before ranking.
type candidate struct {
	ID           string
	Title        string
	Description  string
	Thumbnail    string
	ChannelTitle string
	PublishedAt  time.Time
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
			Thumbnails   struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// SearchClient calls the video search API with quality filters baked in:
// embeddable, medium duration, high definition, recent, safe search.
type SearchClient struct {
	client *resty.Client
	apiKey string
	now    func() time.Time
}

// NewSearchClient creates a client. An empty apiKey leaves the client usable
// but Configured() false; callers should skip searching entirely.
func NewSearchClient(apiKey string) *SearchClient {
	return &SearchClient{
		client: resty.New().SetBaseURL(defaultAPIBaseURL).SetTimeout(10 * time.Second),
		apiKey: apiKey,
		now:    time.Now,
	}
}

// Configured reports whether a credential is available.
func (c *SearchClient) Configured() bool {
	return c.apiKey != ""
}

// SetBaseURL points the client at a different API host, for tests.
func (c *SearchClient) SetBaseURL(url string) {
	c.client.SetBaseURL(url)
}

// Search runs one query and returns ranked-ready candidates. A 403-class
// response maps to ErrQuotaExceeded.
func (c *SearchClient) Search(ctx context.Context, query string) ([]candidate, error) {
	var result searchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"part":              "snippet",
			"q":                 query,
			"key":               c.apiKey,
			"maxResults":        "15",
			"type":              "video",
			"relevanceLanguage": "en",
			"order":             "relevance",
			"videoEmbeddable":   "true",
			"videoDuration":     "medium",
			"videoDefinition":   "high",
			"publishedAfter":    c.now().Add(-recencyWindow).UTC().Format(time.RFC3339),
			"safeSearch":        "strict",
		}).
		SetResult(&result).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("video search %q: %w", query, err)
	}
	if resp.StatusCode() == 403 {
		return nil, ErrQuotaExceeded
	}
	if resp.IsError() {
		return nil, fmt.Errorf("video search %q: status %d", query, resp.StatusCode())
	}

	candidates := make([]candidate, 0, len(result.Items))
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		thumb := item.Snippet.Thumbnails.Medium.URL
		if thumb == "" {
			thumb = item.Snippet.Thumbnails.Default.URL
		}
		published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			logger.Debug("unparseable video publish date", "value", item.Snippet.PublishedAt)
		}
		candidates = append(candidates, candidate{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			Thumbnail:    thumb,
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  published,
		})
	}
	return candidates, nil
}
