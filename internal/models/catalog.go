// This file defines the core data structures (models) for the catalog.
// Every entity is keyed by a stable natural key from the source site
// (URLs and URL-derived ids), not by surrogate database ids.

package models

import (
	"strings"
	"time"
)

// Item publication status values, normalized to lower case.
const (
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusUnknown   = "unknown"
)

// NormalizeStatus maps a scraped status string onto one of the known
// status constants.
func NormalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case StatusOngoing:
		return StatusOngoing
	case StatusCompleted:
		return StatusCompleted
	default:
		return StatusUnknown
	}
}

// Author is a person credited on an item. The id is the last segment of
// the author page URL, falling back to the name when the URL has none.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Genre is a site-defined category. The id is the integer suffix of the
// genre page URL.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Chapter is a single chapter of an item. ImageURLs is in reading order;
// the slice index is the page number.
type Chapter struct {
	URL       string   `json:"url"`
	Name      string   `json:"name"`
	ImageURLs []string `json:"image_urls,omitempty"`
}

// Item represents a catalog title as persisted in the database.
type Item struct {
	URL                 string     `json:"url"`
	Name                string     `json:"name"`
	AlternativeNames    string     `json:"alternative_names,omitempty"`
	Description         string     `json:"description,omitempty"`
	Status              string     `json:"status"`
	ThumbnailURL        string     `json:"thumbnail_url,omitempty"`
	ThumbnailObjectName *string    `json:"thumbnail_object_name,omitempty"` // nil until archived
	Views               int64      `json:"views"`
	Rating              float64    `json:"rating"`
	Votes               int64      `json:"votes"`
	LastUpdated         time.Time  `json:"last_updated"`
	Authors             []*Author  `json:"authors,omitempty"`
	Genres              []*Genre   `json:"genres,omitempty"`
	Chapters            []*Chapter `json:"chapters,omitempty"` // omitempty hides it when not loaded
}

// Snapshot is the ephemeral result of scraping one item's current state.
// It is compared against the persisted Item to detect changes and is
// discarded after reconciliation. ChapterURLs is oldest-first; the slice
// index is the canonical chapter number.
type Snapshot struct {
	URL              string
	Name             string
	AlternativeNames string
	Description      string
	Status           string
	ThumbnailURL     string
	Views            int64
	Rating           float64
	Votes            int64
	LastUpdated      time.Time
	Authors          []Author
	Genres           []Genre
	ChapterURLs      []string
}
