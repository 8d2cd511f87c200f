package feedcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyNormalization(t *testing.T) {
	key := Key("Big AI News!", "https://example.com/ai-news")

	assert.Equal(t, "big_ai_newshttps://example.com/ai-news", key)
	assert.NotContains(t, key, " ")
	assert.NotContains(t, key, "!")
}

func TestKeyTruncatedTo200(t *testing.T) {
	key := Key(strings.Repeat("a", 300), "https://example.com")

	assert.Len(t, key, 200)
}

func TestRecentItemBlocksReprocessing(t *testing.T) {
	c := New(nil)

	assert.False(t, c.IsRecentlyProcessed(context.Background(), "Title", "https://example.com/a"))
	c.Record("Title", "https://example.com/a")
	assert.True(t, c.IsRecentlyProcessed(context.Background(), "Title", "https://example.com/a"))
}

func TestStaleEntryEvictedOnLookup(t *testing.T) {
	now := time.Now()
	c := New(nil)
	c.now = func() time.Time { return now }

	c.Record("Title", "https://example.com/a")
	now = now.Add(61 * time.Minute)

	assert.False(t, c.IsRecentlyProcessed(context.Background(), "Title", "https://example.com/a"))
	assert.Equal(t, 0, c.Len(), "stale entry removed lazily")
}

func TestFIFOEvictionAtCapacity(t *testing.T) {
	c := New(nil)
	c.capacity = 3

	c.Record("first", "https://example.com/1")
	c.Record("second", "https://example.com/2")
	c.Record("third", "https://example.com/3")
	c.Record("fourth", "https://example.com/4")

	assert.Equal(t, 3, c.Len())
	assert.False(t, c.IsRecentlyProcessed(context.Background(), "first", "https://example.com/1"),
		"earliest inserted key is evicted first")
	assert.True(t, c.IsRecentlyProcessed(context.Background(), "second", "https://example.com/2"))
	assert.True(t, c.IsRecentlyProcessed(context.Background(), "fourth", "https://example.com/4"))
}

type fakeChecker struct {
	recent bool
	err    error
	calls  int
}

func (f *fakeChecker) RecentlyStored(ctx context.Context, link string, window time.Duration) (bool, error) {
	f.calls++
	return f.recent, f.err
}

func TestCacheMissFallsBackToStore(t *testing.T) {
	store := &fakeChecker{recent: true}
	c := New(store)

	assert.True(t, c.IsRecentlyProcessed(context.Background(), "Title", "https://example.com/a"))
	assert.Equal(t, 1, store.calls)
}

func TestStoreErrorTreatedAsMiss(t *testing.T) {
	store := &fakeChecker{err: errors.New("connection refused")}
	c := New(store)

	assert.False(t, c.IsRecentlyProcessed(context.Background(), "Title", "https://example.com/a"))
}

func TestCacheHitSkipsStore(t *testing.T) {
	store := &fakeChecker{}
	c := New(store)

	c.Record("Title", "https://example.com/a")
	c.IsRecentlyProcessed(context.Background(), "Title", "https://example.com/a")

	assert.Equal(t, 0, store.calls)
}
