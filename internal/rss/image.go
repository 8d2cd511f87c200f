package rss

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

var imageExtRe = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)(\?.*)?$`)

// ExtractImageURL tries the possible image locations of an RSS item in
// order: media:content, media:thumbnail, the item image, an image enclosure,
// and finally the first <img> inside the HTML content.
func ExtractImageURL(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, ext := range media[key] {
				if url := ext.Attrs["url"]; url != "" {
					return url
				}
			}
		}
	}

	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, enc := range item.Enclosures {
		if enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "image/") || imageExtRe.MatchString(enc.URL) {
			return enc.URL
		}
	}

	if item.Content != "" {
		if url := firstImgSrc(item.Content); url != "" {
			return url
		}
	}
	if item.Description != "" {
		if url := firstImgSrc(item.Description); url != "" {
			return url
		}
	}

	return ""
}

// firstImgSrc parses an HTML fragment and returns the src of its first <img>.
func firstImgSrc(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return src
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
