package util

import (
	"fmt"
	"strings"
)

// LastPathSegment returns the final path segment of a URL, ignoring any
// trailing slash. Used to derive chapter names and thumbnail slugs.
func LastPathSegment(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return trimmed
	}
	return trimmed[idx+1:]
}

// ThumbnailObjectName derives the deterministic object-store name for an
// item's thumbnail from its URL, e.g.
// "https://site/manga-ab12" -> "thumbnail_manga-ab12.jpg".
func ThumbnailObjectName(itemURL string) string {
	return fmt.Sprintf("thumbnail_%s.jpg", LastPathSegment(itemURL))
}
