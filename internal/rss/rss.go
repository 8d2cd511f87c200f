package rss

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/tech2news/technews/internal/logger"
)

// Source is one configured RSS feed.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// SourcesConfig is the YAML config structure
// sources:
//   - name: TechCrunch
//     url: https://...
type SourcesConfig struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the ordered RSS source list from a YAML file.
func LoadSources(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg SourcesConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("no RSS sources configured in %s", path)
	}
	return cfg.Sources, nil
}

// Item is a normalized feed entry, discarded after conversion to a feed
// record or rejection.
type Item struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
	Published   time.Time `json:"published"`
	ImageURL    string    `json:"imageUrl,omitempty"` // embedded media/thumbnail/enclosure image, if any
	FeedTitle   string    `json:"feedTitle,omitempty"`
}

// Fetcher downloads and parses RSS feeds.
type Fetcher struct {
	parser *gofeed.Parser
}

func NewFetcher(timeout time.Duration) *Fetcher {
	p := gofeed.NewParser()
	p.UserAgent = "Tech2News RSS Reader/1.0"
	if timeout > 0 {
		p.Client = newHTTPClient(timeout)
	}
	return &Fetcher{parser: p}
}

// Fetch downloads one source and returns its normalized items, newest first
// as provided by the feed.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]Item, error) {
	feed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS %s: %w", src.URL, err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		published := time.Now()
		if it.PublishedParsed != nil {
			published = *it.PublishedParsed
		}
		items = append(items, Item{
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Description,
			Content:     it.Content,
			Published:   published,
			ImageURL:    ExtractImageURL(it),
			FeedTitle:   feed.Title,
		})
	}

	logger.Debug("loaded feed", "source", src.Name, "items", len(items))
	return items, nil
}

// Snippet returns the best available text body for an item.
func (i Item) Snippet() string {
	if i.Description != "" {
		return i.Description
	}
	return i.Content
}
