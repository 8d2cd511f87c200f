// Package pipeline orchestrates one content-ingestion cycle: pick the next
// RSS source, select a qualifying article, enrich it concurrently with an
// image, a video and AI-generated content, then persist the result.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tech2news/technews/internal/feedcache"
	"github.com/tech2news/technews/internal/filter"
	"github.com/tech2news/technews/internal/gemini"
	"github.com/tech2news/technews/internal/images"
	"github.com/tech2news/technews/internal/logger"
	"github.com/tech2news/technews/internal/metrics"
	"github.com/tech2news/technews/internal/model"
	"github.com/tech2news/technews/internal/retry"
	"github.com/tech2news/technews/internal/rss"
)

// Fetcher downloads one RSS source.
type Fetcher interface {
	Fetch(ctx context.Context, src rss.Source) ([]rss.Item, error)
}

// ImageResolver finds a stock photo for an article. An empty return means no
// image.
type ImageResolver interface {
	Resolve(ctx context.Context, title, content string) string
	FallbackImage(ctx context.Context) string
}

// VideoResolver finds a related video. It never returns nil.
type VideoResolver interface {
	Resolve(ctx context.Context, title, content string) *model.Video
}

// Generator produces the AI summary and lesson pair.
type Generator interface {
	GenerateFull(ctx context.Context, article gemini.Article) gemini.Content
}

// Store persists finished feed records.
type Store interface {
	Write(ctx context.Context, record *model.FeedRecord) (string, error)
}

// ContentScraper fetches the full article body from the publisher page.
type ContentScraper interface {
	ExtractFullArticle(ctx context.Context, url string) (string, error)
}

// Config tunes one pipeline instance.
type Config struct {
	// MinConfidence is the filter floor in percent. 0 switches to
	// first-unprocessed mode where any not-recently-seen item qualifies.
	MinConfidence int
	Language      string
	Retry         retry.Config
}

// Pipeline holds all collaborators and the mutable scheduling state:
// round-robin position, re-entrancy guard and the latest-record pointer.
type Pipeline struct {
	cfg     Config
	sources []rss.Source
	fetcher Fetcher
	images  ImageResolver
	videos  VideoResolver
	gen     Generator
	store   Store
	cache   *feedcache.Cache
	metrics *metrics.Metrics
	scraper ContentScraper // optional, nil skips body scraping

	updating atomic.Bool

	mu      sync.Mutex
	nextSrc int
	latest  *model.FeedRecord
}

func New(cfg Config, sources []rss.Source, fetcher Fetcher, imgs ImageResolver,
	vids VideoResolver, gen Generator, store Store, cache *feedcache.Cache,
	m *metrics.Metrics) *Pipeline {
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.Config{MaxAttempts: 3, Delay: 5 * time.Second, Backoff: true}
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &Pipeline{
		cfg:     cfg,
		sources: sources,
		fetcher: fetcher,
		images:  imgs,
		videos:  vids,
		gen:     gen,
		store:   store,
		cache:   cache,
		metrics: m,
	}
}

// Run fires UpdateFeed on a fixed interval until the context is canceled.
// A tick that arrives while an update is still in flight is skipped.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) {
	logger.Info("pipeline started", "interval", interval, "sources", len(p.sources))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("pipeline stopped")
			return
		case <-ticker.C:
			if err := p.UpdateFeed(ctx); err != nil {
				logger.Error("feed update failed", "error", err)
			}
		}
	}
}

// UpdateFeed runs one ingestion cycle. It is a no-op when a previous cycle
// is still running; the round-robin pointer does not advance on skipped
// ticks.
func (p *Pipeline) UpdateFeed(ctx context.Context) error {
	if !p.updating.CompareAndSwap(false, true) {
		logger.Debug("update already in progress, skipping tick")
		return nil
	}
	defer p.updating.Store(false)

	start := time.Now()
	p.metrics.IncrementRuns()
	defer func() { p.metrics.RecordRunDuration(time.Since(start)) }()

	source := p.advanceSource()
	logger.Info("updating feed", "source", source.Name)

	items, err := p.fetcher.Fetch(ctx, source)
	if err != nil {
		p.metrics.SetError(err.Error())
		return fmt.Errorf("fetch %s: %w", source.Name, err)
	}

	item, result, ok := p.selectItem(ctx, source, items)
	if !ok {
		p.metrics.IncrementEmptyCycles()
		logger.Info("no qualifying item this cycle", "source", source.Name, "items", len(items))
		return nil
	}

	record := p.enrich(ctx, source, item, result)

	// Read-side consumers see the new record immediately; persistence
	// confirmation is not on that path.
	p.setLatest(record)
	p.cache.Record(item.Title, item.Link)

	err = retry.WithRetry(ctx, p.cfg.Retry, func() error {
		id, werr := p.store.Write(ctx, record)
		if werr != nil {
			return werr
		}
		record.ID = id
		return nil
	})
	if err != nil {
		p.metrics.IncrementStoreErrors()
		p.metrics.SetError(err.Error())
		logger.Error("store write failed, latest record is in memory only", "title", record.Title, "error", err)
		return nil
	}

	p.metrics.IncrementStoreWrites()
	p.metrics.SetLastRun()
	logger.Info("feed updated", "id", record.ID, "title", record.Title, "confidence", result.Confidence)
	return nil
}

// advanceSource moves the round-robin pointer and returns the source to
// process this cycle.
func (p *Pipeline) advanceSource() rss.Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	src := p.sources[p.nextSrc]
	p.nextSrc = (p.nextSrc + 1) % len(p.sources)
	return src
}

// selectItem finds the first item that is not recently processed and passes
// the confidence floor. With MinConfidence 0 any unprocessed item qualifies.
func (p *Pipeline) selectItem(ctx context.Context, source rss.Source, items []rss.Item) (rss.Item, filter.Result, bool) {
	for _, item := range items {
		if p.cache.IsRecentlyProcessed(ctx, item.Title, item.Link) {
			p.metrics.IncrementDuplicatesSkipped()
			logger.Debug("skipping recently processed item", "title", item.Title)
			continue
		}

		result := filter.Score(filter.Article{
			Title:       item.Title,
			Description: item.Description,
			Content:     item.Content,
			Source:      source.Name,
		})
		p.metrics.IncrementItemsFiltered()

		if p.cfg.MinConfidence > 0 {
			if !result.IsTechRelated || result.Confidence < p.cfg.MinConfidence {
				logger.Debug("item below confidence floor", "title", item.Title, "confidence", result.Confidence)
				continue
			}
		}
		return item, result, true
	}
	return rss.Item{}, filter.Result{}, false
}

// SetScraper enables full-article body scraping for items whose feed
// snippet is too short to summarize well.
func (p *Pipeline) SetScraper(s ContentScraper) {
	p.scraper = s
}

// articleBody returns the best text available for generation: the scraped
// full article when the feed snippet is thin, the snippet otherwise.
func (p *Pipeline) articleBody(ctx context.Context, item rss.Item) string {
	body := item.Snippet()
	if p.scraper == nil || len(body) >= 300 {
		return body
	}
	full, err := p.scraper.ExtractFullArticle(ctx, item.Link)
	if err != nil {
		logger.Debug("article scrape failed, using feed snippet", "link", item.Link, "error", err)
		return body
	}
	if len(full) > len(body) {
		return full
	}
	return body
}

// enrich runs image, video and content generation concurrently. Each
// collaborator degrades independently; a failure in one never blocks the
// others.
func (p *Pipeline) enrich(ctx context.Context, source rss.Source, item rss.Item, result filter.Result) *model.FeedRecord {
	body := p.articleBody(ctx, item)

	var (
		wg          sync.WaitGroup
		imageURL    string
		imageSource string
		video       *model.Video
		content     gemini.Content
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		imageURL, imageSource = p.resolveImage(ctx, item)
	}()
	go func() {
		defer wg.Done()
		video = p.videos.Resolve(ctx, item.Title, body)
	}()
	go func() {
		defer wg.Done()
		content = p.gen.GenerateFull(ctx, gemini.Article{
			Title:       item.Title,
			Description: body,
			Link:        item.Link,
		})
	}()
	wg.Wait()

	if gemini.IsPlaceholder(content.Summary) || gemini.IsPlaceholder(content.Lesson) {
		p.metrics.IncrementGenerationFailures()
	}

	now := time.Now()
	return &model.FeedRecord{
		Title:         item.Title,
		Link:          item.Link,
		Summary:       content.Summary,
		LessonContent: content.Lesson,
		Content:       body,
		Image:         imageURL,
		ImageSource:   imageSource,
		Video:         video,
		Source:        source.Name,
		Language:      p.cfg.Language,
		TechFilter:    &result,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// resolveImage prefers the image embedded in the feed item, then the photo
// search, then a generic tech fallback.
func (p *Pipeline) resolveImage(ctx context.Context, item rss.Item) (string, string) {
	if item.ImageURL != "" {
		return item.ImageURL, "rss"
	}
	if url := p.images.Resolve(ctx, item.Title, item.Snippet()); url != "" {
		return url, images.SourceUnsplash
	}
	if url := p.images.FallbackImage(ctx); url != "" {
		return url, images.SourceUnsplash
	}
	return "", ""
}

// Latest returns the most recent record produced by this pipeline, or nil
// before the first successful cycle.
func (p *Pipeline) Latest() *model.FeedRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

func (p *Pipeline) setLatest(record *model.FeedRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = record
}

// ScoredItem is one bulk-mode result: a raw feed item with its filter
// verdict.
type ScoredItem struct {
	Item   rss.Item      `json:"item"`
	Result filter.Result `json:"filter"`
}

// CollectHighConfidence fetches every configured source, scores every item
// and returns the top limit items by confidence. Read-only: nothing is
// written to the store or the dedup cache.
func (p *Pipeline) CollectHighConfidence(ctx context.Context, limit, minConfidence int) []ScoredItem {
	var collected []ScoredItem
	for _, source := range p.sources {
		items, err := p.fetcher.Fetch(ctx, source)
		if err != nil {
			logger.Warn("skipping source in bulk collection", "source", source.Name, "error", err)
			continue
		}
		for _, item := range items {
			result := filter.Score(filter.Article{
				Title:       item.Title,
				Description: item.Description,
				Content:     item.Content,
				Source:      source.Name,
			})
			if result.IsTechRelated && result.Confidence >= minConfidence {
				collected = append(collected, ScoredItem{Item: item, Result: result})
			}
		}
	}

	sort.SliceStable(collected, func(i, j int) bool {
		return collected[i].Result.Confidence > collected[j].Result.Confidence
	})
	if limit > 0 && len(collected) > limit {
		collected = collected[:limit]
	}
	return collected
}
