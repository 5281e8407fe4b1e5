package manganato

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const itemPageHTML = `
<div class="panel-story-info">
  <span class="info-image"><img src="https://cdn.example.com/cover-aa1.jpg" /></span>
  <div class="story-info-right">
    <h1>Test Manga</h1>
    <table class="variations-tableInfo">
      <tr><td class="table-label">Alternative :</td><td class="table-value"><h2>Alt One ; Alt Two</h2></td></tr>
      <tr><td class="table-label">Status :</td><td class="table-value">Ongoing</td></tr>
    </table>
    <a class="a-h" href="/author/team/a-001">Author One</a>
    <a class="a-h" href="/author/team/a-001">Author One</a>
    <a class="a-h" href="/genre-4">Comedy</a>
    <div class="story-info-right-extent">
      <span class="stre-value">Mar 01,2024 - 12:30 PM</span>
      <span class="stre-value">1.2M</span>
    </div>
    <em property="v:average">4.5</em>
    <em property="v:votes">321</em>
  </div>
</div>
<div class="panel-story-info-description">A description.</div>
<div class="panel-story-chapter-list">
  <a class="chapter-name" href="https://site/manga-aa1/chapter-2">Chapter 2</a>
  <a class="chapter-name" href="https://site/manga-aa1/chapter-1">Chapter 1</a>
</div>
`

const chapterPageHTML = `
<div class="container-chapter-reader">
  <img src="https://cdn.example.com/p1.jpg" />
  <img src="https://cdn.example.com/p2.jpg" />
</div>
`

const listingPageHTML = `
<a class="genres-item-name" href="https://site/manga-aa1">One</a>
<a class="genres-item-name" href="https://site/manga-aa2">Two</a>
<a class="page-last">LAST(24)</a>
`

func setupTestServer(hits *int64) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/manga-aa1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		fmt.Fprint(w, itemPageHTML)
	})
	mux.HandleFunc("/manga-aa1/chapter-1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chapterPageHTML)
	})
	mux.HandleFunc("/manga-broken", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<div>no expected markup</div>")
	})
	mux.HandleFunc("/genre-all/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPageHTML)
	})
	mux.HandleFunc("/genre-all/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPageHTML)
	})
	return httptest.NewServer(mux)
}

func newTestClient(baseURL string) *Client {
	return New(baseURL, NewPageCache(10, time.Minute))
}

func TestFetchItem(t *testing.T) {
	var hits int64
	server := setupTestServer(&hits)
	defer server.Close()

	c := newTestClient(server.URL)
	snap, err := c.FetchItem(context.Background(), server.URL+"/manga-aa1")
	if err != nil {
		t.Fatalf("FetchItem failed: %v", err)
	}

	if snap.Name != "Test Manga" {
		t.Errorf("Expected name 'Test Manga', got %q", snap.Name)
	}
	if snap.AlternativeNames != "Alt One ; Alt Two" {
		t.Errorf("Unexpected alternative names %q", snap.AlternativeNames)
	}
	if snap.Status != "ongoing" {
		t.Errorf("Expected status 'ongoing', got %q", snap.Status)
	}
	if snap.Description != "A description." {
		t.Errorf("Unexpected description %q", snap.Description)
	}
	if snap.ThumbnailURL != "https://cdn.example.com/cover-aa1.jpg" {
		t.Errorf("Unexpected thumbnail URL %q", snap.ThumbnailURL)
	}
	if snap.Views != 1200000 {
		t.Errorf("Expected views 1200000, got %d", snap.Views)
	}
	if snap.Rating != 4.5 || snap.Votes != 321 {
		t.Errorf("Expected rating 4.5 and 321 votes, got %v and %d", snap.Rating, snap.Votes)
	}

	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	if !snap.LastUpdated.Equal(want) {
		t.Errorf("Expected last updated %v, got %v", want, snap.LastUpdated)
	}

	// Duplicate author links collapse to one entry.
	if len(snap.Authors) != 1 || snap.Authors[0].ID != "a-001" {
		t.Errorf("Expected single author a-001, got %v", snap.Authors)
	}
	if len(snap.Genres) != 1 || snap.Genres[0].ID != 4 {
		t.Errorf("Expected single genre 4, got %v", snap.Genres)
	}

	// The on-page list is newest-first; the snapshot is oldest-first.
	if len(snap.ChapterURLs) != 2 ||
		snap.ChapterURLs[0] != "https://site/manga-aa1/chapter-1" ||
		snap.ChapterURLs[1] != "https://site/manga-aa1/chapter-2" {
		t.Errorf("Expected chapters oldest-first, got %v", snap.ChapterURLs)
	}
}

func TestFetchItemParseError(t *testing.T) {
	var hits int64
	server := setupTestServer(&hits)
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.FetchItem(context.Background(), server.URL+"/manga-broken")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
}

func TestFetchItemNotFound(t *testing.T) {
	var hits int64
	server := setupTestServer(&hits)
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.FetchItem(context.Background(), server.URL+"/manga-missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestFetchChapter(t *testing.T) {
	var hits int64
	server := setupTestServer(&hits)
	defer server.Close()

	c := newTestClient(server.URL)
	chapter, err := c.FetchChapter(context.Background(), server.URL+"/manga-aa1/chapter-1")
	if err != nil {
		t.Fatalf("FetchChapter failed: %v", err)
	}
	if chapter.Name != "chapter-1" {
		t.Errorf("Expected chapter name 'chapter-1', got %q", chapter.Name)
	}
	if len(chapter.ImageURLs) != 2 || chapter.ImageURLs[0] != "https://cdn.example.com/p1.jpg" {
		t.Errorf("Unexpected image URLs %v", chapter.ImageURLs)
	}
}

func TestFetchChapterMissingReader(t *testing.T) {
	var hits int64
	server := setupTestServer(&hits)
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.FetchChapter(context.Background(), server.URL+"/manga-broken")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError for missing reader, got %v", err)
	}
}

func TestPageCacheReadThrough(t *testing.T) {
	var hits int64
	server := setupTestServer(&hits)
	defer server.Close()

	c := newTestClient(server.URL)
	ctx := context.Background()
	url := server.URL + "/manga-aa1"

	if _, err := c.FetchItem(ctx, url); err != nil {
		t.Fatalf("FetchItem failed: %v", err)
	}
	if _, err := c.FetchItem(ctx, url); err != nil {
		t.Fatalf("FetchItem failed: %v", err)
	}
	if atomic.LoadInt64(&hits) != 1 {
		t.Errorf("Expected second fetch to be served from cache, server saw %d hits", hits)
	}
}

func TestPageCacheExpiry(t *testing.T) {
	var hits int64
	server := setupTestServer(&hits)
	defer server.Close()

	// A very short TTL so the test can observe eviction.
	c := New(server.URL, NewPageCache(10, 10*time.Millisecond))
	ctx := context.Background()
	url := server.URL + "/manga-aa1"

	if _, err := c.FetchItem(ctx, url); err != nil {
		t.Fatalf("FetchItem failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := c.FetchItem(ctx, url); err != nil {
		t.Fatalf("FetchItem failed: %v", err)
	}
	if atomic.LoadInt64(&hits) != 2 {
		t.Errorf("Expected expired entry to be re-fetched, server saw %d hits", hits)
	}
}

func TestTotalPagesAndItemURLs(t *testing.T) {
	var hits int64
	server := setupTestServer(&hits)
	defer server.Close()

	c := newTestClient(server.URL)
	ctx := context.Background()

	total, err := c.TotalPages(ctx)
	if err != nil {
		t.Fatalf("TotalPages failed: %v", err)
	}
	if total != 24 {
		t.Errorf("Expected 24 pages, got %d", total)
	}

	urls, err := c.ItemURLs(ctx, 1)
	if err != nil {
		t.Fatalf("ItemURLs failed: %v", err)
	}
	if len(urls) != 2 || urls[0] != "https://site/manga-aa1" {
		t.Errorf("Unexpected item URLs %v", urls)
	}
}

func TestCrawlItemURLsHonorsLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/genre-all/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPageHTML)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(server.URL)
	urls, err := c.CrawlItemURLs(context.Background(), 2)
	if err != nil {
		t.Fatalf("CrawlItemURLs failed: %v", err)
	}
	// 2 pages of 2 items each.
	if len(urls) != 4 {
		t.Errorf("Expected 4 item URLs from 2 pages, got %d", len(urls))
	}
}
