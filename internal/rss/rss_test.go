package rss

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	data := `sources:
  - name: TechCrunch
    url: https://techcrunch.com/feed/
  - name: The Verge
    url: https://www.theverge.com/rss/index.xml
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	sources, err := LoadSources(path)

	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "TechCrunch", sources[0].Name)
	assert.Equal(t, "https://www.theverge.com/rss/index.xml", sources[1].URL)
}

func TestLoadSourcesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: []\n"), 0644))

	_, err := LoadSources(path)

	assert.Error(t, err)
}

func TestExtractImageURLFromMediaContent(t *testing.T) {
	item := &gofeed.Item{
		Extensions: ext.Extensions{
			"media": {
				"content": []ext.Extension{
					{Name: "media:content", Attrs: map[string]string{"url": "https://img.example.com/a.jpg"}},
				},
			},
		},
	}

	assert.Equal(t, "https://img.example.com/a.jpg", ExtractImageURL(item))
}

func TestExtractImageURLFromEnclosure(t *testing.T) {
	item := &gofeed.Item{
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://cdn.example.com/audio.mp3", Type: "audio/mpeg"},
			{URL: "https://cdn.example.com/cover.png", Type: "image/png"},
		},
	}

	assert.Equal(t, "https://cdn.example.com/cover.png", ExtractImageURL(item))
}

func TestExtractImageURLFromHTMLContent(t *testing.T) {
	item := &gofeed.Item{
		Content: `<p>Intro</p><img src="https://cdn.example.com/inline.webp" alt=""><img src="https://cdn.example.com/second.jpg">`,
	}

	assert.Equal(t, "https://cdn.example.com/inline.webp", ExtractImageURL(item))
}

func TestExtractImageURLNone(t *testing.T) {
	item := &gofeed.Item{
		Content: "<p>No pictures here.</p>",
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://cdn.example.com/audio.mp3", Type: "audio/mpeg"},
		},
	}

	assert.Empty(t, ExtractImageURL(item))
}

func TestSnippetPrefersDescription(t *testing.T) {
	assert.Equal(t, "short", Item{Description: "short", Content: "long"}.Snippet())
	assert.Equal(t, "long", Item{Content: "long"}.Snippet())
}
