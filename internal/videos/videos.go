// Package videos resolves a related video for an article. Resolution never
// fails: when the search API is unavailable, over quota, or finds nothing,
// the resolver returns a constructed search-link fallback instead.
package videos

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/tech2news/technews/internal/logger"
	"github.com/tech2news/technews/internal/model"
	"github.com/tech2news/technews/internal/quota"
)

// searchUnitCost is the quota price of one search API call.
const searchUnitCost = 100

// maxQueriesPerArticle caps external calls per article regardless of how
// many queries term extraction produced.
const maxQueriesPerArticle = 2

// Channels whose videos get a ranking boost.
var trustedChannels = []string{
	"marques brownlee", "mkbhd", "the verge", "veritasium", "fireship",
	"computerphile", "linus tech tips", "two minute papers", "techcrunch",
	"wired", "coldfusion", "lex fridman", "ted", "cnbc", "bloomberg technology",
}

// Fallback thumbnail colors per topic category.
var categoryColors = map[string]string{
	"ai":             "6b46c1",
	"security":       "e53e3e",
	"blockchain":     "d69e2e",
	"sustainability": "38a169",
	"mobile":         "0bc5ea",
	"general":        "3182ce",
}

// Resolver finds the best related video for an article.
type Resolver struct {
	search *SearchClient
	quota  *quota.Tracker
	pause  time.Duration
	now    func() time.Time
}

// NewResolver creates a resolver. The tracker meters daily search units.
func NewResolver(search *SearchClient, tracker *quota.Tracker) *Resolver {
	return &Resolver{
		search: search,
		quota:  tracker,
		pause:  500 * time.Millisecond,
		now:    time.Now,
	}
}

// Resolve returns a video for the article. It never returns nil: when no
// specific video can be found it returns a search-link fallback.
func (r *Resolver) Resolve(ctx context.Context, title, content string) *model.Video {
	terms := ExtractTerms(title, content)
	queries := BuildQueries(terms)
	logger.Debug("video search queries", "queries", strings.Join(queries, "; "), "intent", terms.Intent)

	if !r.search.Configured() {
		logger.Warn("video search API key not configured")
		return r.fallback(title, terms)
	}

	if len(queries) > maxQueriesPerArticle {
		queries = queries[:maxQueriesPerArticle]
	}

	var candidates []candidate
	for i, query := range queries {
		if !r.quota.Allow(searchUnitCost) {
			break
		}
		found, err := r.search.Search(ctx, query)
		if err != nil {
			if errors.Is(err, ErrQuotaExceeded) {
				logger.Warn("video search quota exhausted, stopping queries")
				break
			}
			logger.Warn("video search query failed", "query", query, "error", err)
			continue
		}
		candidates = append(candidates, found...)

		if i < len(queries)-1 {
			select {
			case <-time.After(r.pause):
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}
	}

	if len(candidates) == 0 {
		logger.Info("no videos found, returning search fallback", "title", title)
		return r.fallback(title, terms)
	}

	best := r.rank(candidates, terms)
	logger.Info("found related video", "video_title", best.Title, "channel", best.ChannelTitle)
	return &model.Video{
		ID:           best.ID,
		Title:        best.Title,
		Description:  best.Description,
		Thumbnail:    best.Thumbnail,
		URL:          "https://www.youtube.com/watch?v=" + best.ID,
		PublishedAt:  best.PublishedAt,
		ChannelTitle: best.ChannelTitle,
		Relevance:    "high",
		Source:       "youtube_api",
	}
}

// rank scores all candidates and returns the best one.
func (r *Resolver) rank(candidates []candidate, terms Terms) candidate {
	best := candidates[0]
	bestScore := r.score(best, terms)
	for _, c := range candidates[1:] {
		if s := r.score(c, terms); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

// score weighs term matches by category priority, trusted channels, and
// recency.
func (r *Resolver) score(c candidate, terms Terms) float64 {
	title := strings.ToLower(c.Title)
	desc := strings.ToLower(c.Description)

	var score float64
	score += matchScore(title, desc, terms.Companies, weightCompany)
	score += matchScore(title, desc, terms.Technologies, weightTechnology)
	score += matchScore(title, desc, terms.Products, weightProduct)
	score += matchScore(title, desc, terms.Programming, weightProgramming)
	score += matchScore(title, desc, terms.ImportantNouns, weightNoun)

	channel := strings.ToLower(c.ChannelTitle)
	for _, trusted := range trustedChannels {
		if strings.Contains(channel, trusted) {
			score += 5
			break
		}
	}

	if !c.PublishedAt.IsZero() {
		age := r.now().Sub(c.PublishedAt)
		switch {
		case age < 7*24*time.Hour:
			score += 2
		case age < 30*24*time.Hour:
			score += 1
		}
	}

	if len(c.Description) < 50 {
		score -= 1
	}
	return score
}

func matchScore(title, desc string, terms []string, weight float64) float64 {
	var score float64
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += 2 * weight
		}
		if strings.Contains(desc, term) {
			score += 1 * weight
		}
	}
	return score
}

// fallback builds a search-results link with a category-colored placeholder
// thumbnail.
func (r *Resolver) fallback(title string, terms Terms) *model.Video {
	cleanQuery := strings.Join(strings.Fields(nonWordRe.ReplaceAllString(title, " ")), " ")
	if cleanQuery == "" {
		cleanQuery = terms.PrimaryTopic
	}

	category := TopicCategory(terms, title)
	color := categoryColors[category]
	if color == "" {
		color = categoryColors["general"]
	}

	return &model.Video{
		Title:            "Search YouTube for: " + cleanQuery,
		Description:      "No specific video found. Click to search YouTube for \"" + cleanQuery + "\"",
		Thumbnail:        "https://placehold.co/480x360/" + color + "/ffffff?text=" + url.QueryEscape(terms.PrimaryTopic),
		URL:              "https://www.youtube.com/results?search_query=" + url.QueryEscape(cleanQuery),
		PublishedAt:      r.now(),
		ChannelTitle:     "YouTube Search",
		Relevance:        "search",
		Source:           "search_fallback",
		IsSearchFallback: true,
	}
}
