package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tech2news/technews/internal/gemini"
	"github.com/tech2news/technews/internal/logger"
	"github.com/tech2news/technews/internal/metrics"
	"github.com/tech2news/technews/internal/model"
)

// LatestProvider exposes the in-memory latest record. Implemented by the
// pipeline; serves reads even when the store is behind or unavailable.
type LatestProvider interface {
	Latest() *model.FeedRecord
}

// RecordReader reads persisted feed records. Implemented by storage.FeedStore.
type RecordReader interface {
	ReadRecent(ctx context.Context, language string, limit int) ([]model.FeedRecord, error)
}

// Handler handles the read-side API requests.
type Handler struct {
	latest         LatestProvider
	store          RecordReader
	metrics        *metrics.Metrics
	languages      []string
	defaultLang    string
	requestTimeout time.Duration
}

func NewHandler(latest LatestProvider, store RecordReader, m *metrics.Metrics,
	languages []string, defaultLang string, requestTimeout time.Duration) *Handler {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	if defaultLang == "" {
		defaultLang = languages[0]
	}
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &Handler{
		latest:         latest,
		store:          store,
		metrics:        m,
		languages:      languages,
		defaultLang:    defaultLang,
		requestTimeout: requestTimeout,
	}
}

// contentResponse pairs the full record with the structured summary sections
// the client renders.
type contentResponse struct {
	Feed     *model.FeedRecord `json:"feed"`
	Sections gemini.Sections   `json:"sections"`
}

// GetContent returns the most recent record for a language.
func (h *Handler) GetContent(c *gin.Context) {
	lang, ok := h.language(c)
	if !ok {
		return
	}

	// Serve the in-memory record when it matches; it may be ahead of the
	// store after a failed write.
	if latest := h.latest.Latest(); latest != nil && latest.Language == lang {
		c.JSON(http.StatusOK, contentResponse{
			Feed:     latest,
			Sections: gemini.ParseSummary(latest.Summary),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	records, err := h.store.ReadRecent(ctx, lang, 1)
	if err != nil {
		logger.Error("content read failed", "lang", lang, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read content"})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "no qualifying article yet"})
		return
	}

	c.JSON(http.StatusOK, contentResponse{
		Feed:     &records[0],
		Sections: gemini.ParseSummary(records[0].Summary),
	})
}

// feedSummary is the lightweight list form of a record.
type feedSummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Link       string    `json:"link"`
	Image      string    `json:"image,omitempty"`
	Source     string    `json:"source"`
	Language   string    `json:"language"`
	Confidence int       `json:"confidence"`
	CreatedAt  time.Time `json:"createdAt"`
}

// GetFeeds returns recent records as lightweight summaries.
func (h *Handler) GetFeeds(c *gin.Context) {
	lang, ok := h.language(c)
	if !ok {
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	records, err := h.store.ReadRecent(ctx, lang, limit)
	if err != nil {
		logger.Error("feeds read failed", "lang", lang, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read feeds"})
		return
	}

	summaries := make([]feedSummary, 0, len(records))
	for _, r := range records {
		s := feedSummary{
			ID:        r.ID,
			Title:     r.Title,
			Link:      r.Link,
			Image:     r.Image,
			Source:    r.Source,
			Language:  r.Language,
			CreatedAt: r.CreatedAt,
		}
		if r.TechFilter != nil {
			s.Confidence = r.TechFilter.Confidence
		}
		summaries = append(summaries, s)
	}

	c.JSON(http.StatusOK, gin.H{"feeds": summaries, "count": len(summaries)})
}

// GetLanguages lists the supported locale codes.
func (h *Handler) GetLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": h.languages,
		"default":   h.defaultLang,
	})
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	healthy := h.metrics.Healthy()
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":   http.StatusText(status),
		"healthy":  healthy,
		"last_run": h.metrics.LastRun().Format(time.RFC3339),
	})
}

// Metrics exposes the pipeline counters.
func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.GetStats())
}

// language validates the lang query parameter, defaulting when absent. On an
// unsupported code it writes the error response and returns false.
func (h *Handler) language(c *gin.Context) (string, bool) {
	lang := c.Query("lang")
	if lang == "" {
		return h.defaultLang, true
	}
	for _, supported := range h.languages {
		if lang == supported {
			return lang, true
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     "unsupported language",
		"languages": h.languages,
	})
	return "", false
}
