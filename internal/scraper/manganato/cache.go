package manganato

import (
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// PageCache is a read-through cache of parsed pages keyed by URL, with a
// fixed capacity and a fixed time-to-live. It is injected into the
// client so callers (and tests) control its size and expiry.
type PageCache struct {
	lru *expirable.LRU[string, *goquery.Document]
}

// NewPageCache creates a cache holding at most size documents, each
// expiring after ttl.
func NewPageCache(size int, ttl time.Duration) *PageCache {
	return &PageCache{
		lru: expirable.NewLRU[string, *goquery.Document](size, nil, ttl),
	}
}

func (c *PageCache) Get(url string) (*goquery.Document, bool) {
	return c.lru.Get(url)
}

func (c *PageCache) Add(url string, doc *goquery.Document) {
	c.lru.Add(url, doc)
}

// Len returns the number of cached pages. Used by tests.
func (c *PageCache) Len() int {
	return c.lru.Len()
}
