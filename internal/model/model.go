package model

import (
	"time"

	"github.com/tech2news/technews/internal/filter"
)

// Video is a resolved video reference attached to a feed record. When no
// specific video could be found it carries a search-results URL instead and
// IsSearchFallback is set.
type Video struct {
	ID               string    `json:"id,omitempty"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Thumbnail        string    `json:"thumbnail,omitempty"`
	URL              string    `json:"url"`
	PublishedAt      time.Time `json:"publishedAt"`
	ChannelTitle     string    `json:"channelTitle"`
	Relevance        string    `json:"relevance"` // "high" or "search"
	Source           string    `json:"source"`    // "youtube_api" or "search_fallback"
	IsSearchFallback bool      `json:"isSearchFallback,omitempty"`
}

// FeedRecord is the persisted unit produced by one pipeline run. Immutable
// once written; translation/localization happens downstream.
type FeedRecord struct {
	ID            string         `json:"id,omitempty"`
	Title         string         `json:"title"`
	Link          string         `json:"link"`
	Summary       string         `json:"summary"`
	LessonContent string         `json:"lessonContent"`
	Content       string         `json:"content"`
	Image         string         `json:"image,omitempty"`
	ImageSource   string         `json:"imageSource,omitempty"` // "rss" or "unsplash"
	Video         *Video         `json:"youtube,omitempty"`
	Source        string         `json:"source"`
	Language      string         `json:"language"`
	TechFilter    *filter.Result `json:"techFilter,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}
