package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech2news/technews/internal/feedcache"
	"github.com/tech2news/technews/internal/gemini"
	"github.com/tech2news/technews/internal/metrics"
	"github.com/tech2news/technews/internal/model"
	"github.com/tech2news/technews/internal/retry"
	"github.com/tech2news/technews/internal/rss"
)

type fakeFetcher struct {
	mu      sync.Mutex
	items   map[string][]rss.Item
	err     error
	fetched []string
	block   chan struct{} // when set, Fetch waits until closed
}

func (f *fakeFetcher) Fetch(_ context.Context, src rss.Source) ([]rss.Item, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, src.Name)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.items[src.Name], nil
}

func (f *fakeFetcher) fetchedSources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.fetched...)
}

type fakeImages struct {
	url      string
	fallback string
}

func (f *fakeImages) Resolve(context.Context, string, string) string { return f.url }
func (f *fakeImages) FallbackImage(context.Context) string           { return f.fallback }

type fakeVideos struct{}

func (fakeVideos) Resolve(_ context.Context, title, _ string) *model.Video {
	return &model.Video{Title: title, URL: "https://youtube.example/v", Relevance: "high", Source: "youtube_api"}
}

type fakeGenerator struct{}

func (fakeGenerator) GenerateFull(_ context.Context, a gemini.Article) gemini.Content {
	return gemini.Content{
		Summary:     "📰 Headline: " + a.Title,
		Lesson:      "📝 Title: " + a.Title,
		GeneratedAt: time.Now(),
	}
}

type fakeStore struct {
	mu      sync.Mutex
	written []*model.FeedRecord
	err     error
}

func (s *fakeStore) Write(_ context.Context, record *model.FeedRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.written = append(s.written, record)
	return "1", nil
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.written)
}

var techItem = rss.Item{
	Title:       "OpenAI launches new model",
	Link:        "https://example.com/openai",
	Description: "OpenAI released an update to its AI model with better reasoning.",
}

var nonTechItem = rss.Item{
	Title:       "Local bakery wins award",
	Link:        "https://example.com/bakery",
	Description: "A small bakery won a regional award for best bread.",
}

func newTestPipeline(cfg Config, fetcher *fakeFetcher, store *fakeStore, sources ...rss.Source) *Pipeline {
	if len(sources) == 0 {
		sources = []rss.Source{{Name: "TechCrunch", URL: "https://tc.example/feed"}}
	}
	cfg.Retry = retry.Config{MaxAttempts: 1, Delay: time.Millisecond}
	return New(cfg, sources, fetcher, &fakeImages{url: "https://img.example/a.jpg"},
		fakeVideos{}, fakeGenerator{}, store, feedcache.New(nil), metrics.New())
}

func TestUpdateFeedWritesEnrichedRecord(t *testing.T) {
	fetcher := &fakeFetcher{items: map[string][]rss.Item{"TechCrunch": {techItem}}}
	store := &fakeStore{}
	p := newTestPipeline(Config{MinConfidence: 30}, fetcher, store)

	require.NoError(t, p.UpdateFeed(context.Background()))

	require.Equal(t, 1, store.writeCount())
	record := store.written[0]
	assert.Equal(t, techItem.Title, record.Title)
	assert.Equal(t, "https://img.example/a.jpg", record.Image)
	assert.NotNil(t, record.Video)
	assert.Contains(t, record.Summary, techItem.Title)
	assert.Contains(t, record.LessonContent, techItem.Title)
	require.NotNil(t, record.TechFilter)
	assert.True(t, record.TechFilter.IsTechRelated)
	assert.Equal(t, "1", record.ID)

	latest := p.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, techItem.Title, latest.Title)
}

func TestUpdateFeedSkipsNonTechItems(t *testing.T) {
	fetcher := &fakeFetcher{items: map[string][]rss.Item{"TechCrunch": {nonTechItem, techItem}}}
	store := &fakeStore{}
	p := newTestPipeline(Config{MinConfidence: 30}, fetcher, store)

	require.NoError(t, p.UpdateFeed(context.Background()))

	require.Equal(t, 1, store.writeCount())
	assert.Equal(t, techItem.Title, store.written[0].Title)
}

func TestUpdateFeedEmptyCycle(t *testing.T) {
	fetcher := &fakeFetcher{items: map[string][]rss.Item{"TechCrunch": {nonTechItem}}}
	store := &fakeStore{}
	p := newTestPipeline(Config{MinConfidence: 30}, fetcher, store)

	require.NoError(t, p.UpdateFeed(context.Background()))

	assert.Equal(t, 0, store.writeCount())
	assert.Nil(t, p.Latest())
	assert.EqualValues(t, 1, p.metrics.EmptyCycles)
}

func TestUpdateFeedFirstUnprocessedMode(t *testing.T) {
	fetcher := &fakeFetcher{items: map[string][]rss.Item{"TechCrunch": {nonTechItem}}}
	store := &fakeStore{}
	p := newTestPipeline(Config{MinConfidence: 0}, fetcher, store)

	require.NoError(t, p.UpdateFeed(context.Background()))

	// With no confidence floor the first unprocessed item is taken as-is.
	require.Equal(t, 1, store.writeCount())
	assert.Equal(t, nonTechItem.Title, store.written[0].Title)
}

func TestUpdateFeedSkipsRecentlyProcessed(t *testing.T) {
	fetcher := &fakeFetcher{items: map[string][]rss.Item{"TechCrunch": {techItem}}}
	store := &fakeStore{}
	p := newTestPipeline(Config{MinConfidence: 30}, fetcher, store)

	require.NoError(t, p.UpdateFeed(context.Background()))
	require.NoError(t, p.UpdateFeed(context.Background()))

	assert.Equal(t, 1, store.writeCount(), "same item must not be written twice within the window")
	assert.EqualValues(t, 1, p.metrics.DuplicatesSkipped)
}

func TestUpdateFeedRoundRobinAdvances(t *testing.T) {
	sources := []rss.Source{
		{Name: "TechCrunch", URL: "https://tc.example/feed"},
		{Name: "The Verge", URL: "https://verge.example/feed"},
	}
	fetcher := &fakeFetcher{items: map[string][]rss.Item{}}
	p := newTestPipeline(Config{}, fetcher, &fakeStore{}, sources...)

	require.NoError(t, p.UpdateFeed(context.Background()))
	require.NoError(t, p.UpdateFeed(context.Background()))
	require.NoError(t, p.UpdateFeed(context.Background()))

	assert.Equal(t, []string{"TechCrunch", "The Verge", "TechCrunch"}, fetcher.fetchedSources())
}

func TestUpdateFeedConcurrentTickIsNoOp(t *testing.T) {
	block := make(chan struct{})
	fetcher := &fakeFetcher{
		items: map[string][]rss.Item{"TechCrunch": {techItem}},
		block: block,
	}
	store := &fakeStore{}
	p := newTestPipeline(Config{MinConfidence: 30}, fetcher, store)

	done := make(chan error, 1)
	go func() { done <- p.UpdateFeed(context.Background()) }()

	// Wait for the first run to enter Fetch, then fire an overlapping tick.
	require.Eventually(t, func() bool {
		return len(fetcher.fetchedSources()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, p.UpdateFeed(context.Background()))
	close(block)
	require.NoError(t, <-done)

	// The overlapping tick must not fetch, advance the pointer or write.
	assert.Equal(t, []string{"TechCrunch"}, fetcher.fetchedSources())
	assert.Equal(t, 1, store.writeCount())
}

func TestUpdateFeedFetchErrorReturnsToIdle(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	store := &fakeStore{}
	p := newTestPipeline(Config{}, fetcher, store)

	assert.Error(t, p.UpdateFeed(context.Background()))

	// The guard must clear so the next tick runs normally.
	fetcher.err = nil
	fetcher.items = map[string][]rss.Item{"TechCrunch": {techItem}}
	require.NoError(t, p.UpdateFeed(context.Background()))
	assert.Equal(t, 1, store.writeCount())
}

func TestUpdateFeedStoreFailureKeepsLatestInMemory(t *testing.T) {
	fetcher := &fakeFetcher{items: map[string][]rss.Item{"TechCrunch": {techItem}}}
	store := &fakeStore{err: errors.New("database unavailable")}
	p := newTestPipeline(Config{MinConfidence: 30}, fetcher, store)

	require.NoError(t, p.UpdateFeed(context.Background()))

	require.NotNil(t, p.Latest(), "read-side consumers still see the enriched record")
	assert.EqualValues(t, 1, p.metrics.StoreErrors)
	assert.False(t, p.metrics.Healthy())
}

func TestCollectHighConfidence(t *testing.T) {
	highItem := rss.Item{
		Title:       "Google announces Android update for Pixel smartphones",
		Link:        "https://example.com/android",
		Description: "Google is rolling out new software for its mobile devices.",
	}
	sources := []rss.Source{
		{Name: "TechCrunch", URL: "https://tc.example/feed"},
		{Name: "The Verge", URL: "https://verge.example/feed"},
	}
	fetcher := &fakeFetcher{items: map[string][]rss.Item{
		"TechCrunch": {techItem, nonTechItem},
		"The Verge":  {highItem},
	}}
	store := &fakeStore{}
	p := newTestPipeline(Config{}, fetcher, store, sources...)

	scored := p.CollectHighConfidence(context.Background(), 10, 30)

	require.Len(t, scored, 2)
	assert.Equal(t, highItem.Title, scored[0].Item.Title, "sorted by confidence descending")
	assert.Equal(t, techItem.Title, scored[1].Item.Title)
	assert.Equal(t, 0, store.writeCount(), "bulk collection never writes")
}

func TestCollectHighConfidenceLimit(t *testing.T) {
	fetcher := &fakeFetcher{items: map[string][]rss.Item{"TechCrunch": {techItem}}}
	p := newTestPipeline(Config{}, fetcher, &fakeStore{})

	scored := p.CollectHighConfidence(context.Background(), 0, 101)

	assert.Empty(t, scored)
}

type fakeScraper struct {
	content string
	err     error
	calls   int
}

func (f *fakeScraper) ExtractFullArticle(context.Context, string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

func TestUpdateFeedScrapesThinItems(t *testing.T) {
	thin := techItem
	thin.Description = "OpenAI released an AI update."
	fetcher := &fakeFetcher{items: map[string][]rss.Item{"TechCrunch": {thin}}}
	store := &fakeStore{}
	p := newTestPipeline(Config{MinConfidence: 30}, fetcher, store)

	full := "OpenAI released an AI update. The new model improves reasoning across coding and math benchmarks, according to the company."
	scraper := &fakeScraper{content: full}
	p.SetScraper(scraper)

	require.NoError(t, p.UpdateFeed(context.Background()))

	require.Equal(t, 1, store.writeCount())
	assert.Equal(t, 1, scraper.calls)
	assert.Equal(t, full, store.written[0].Content)
}

func TestUpdateFeedScrapeFailureFallsBackToSnippet(t *testing.T) {
	thin := techItem
	thin.Description = "OpenAI released an AI update."
	fetcher := &fakeFetcher{items: map[string][]rss.Item{"TechCrunch": {thin}}}
	store := &fakeStore{}
	p := newTestPipeline(Config{MinConfidence: 30}, fetcher, store)
	p.SetScraper(&fakeScraper{err: errors.New("blocked")})

	require.NoError(t, p.UpdateFeed(context.Background()))

	require.Equal(t, 1, store.writeCount())
	assert.Equal(t, thin.Description, store.written[0].Content)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	fetcher := &fakeFetcher{items: map[string][]rss.Item{"TechCrunch": {}}}
	p := newTestPipeline(Config{}, fetcher, &fakeStore{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(fetcher.fetchedSources()) >= 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop on context cancel")
	}
}
