// Client for the Manganato catalog site. All markup coupling lives in
// this package; the rest of the application only sees Snapshot and
// Chapter values.

package manganato

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vperic/mangalib-go/internal/models"
	"github.com/vperic/mangalib-go/internal/util"
)

const lastUpdatedLayout = "Jan 2,2006 - 15:04"

var (
	authorURLRe = regexp.MustCompile(`/author/`)
	genreURLRe  = regexp.MustCompile(`/genre-[0-9]+$`)
	digitsRe    = regexp.MustCompile(`[0-9]+`)
	meridiemRe  = regexp.MustCompile(`[AP]M`)
)

// Client scrapes item pages, chapter pages and the paginated listing of
// the source site.
type Client struct {
	client  *http.Client
	baseURL string
	cache   *PageCache
}

// New creates a Client for the given base URL with an injected page
// cache.
func New(baseURL string, cache *PageCache) *Client {
	return &Client{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache,
	}
}

// getDocument fetches and parses a page, reading through the cache.
func (c *Client) getDocument(ctx context.Context, url string) (*goquery.Document, error) {
	if doc, ok := c.cache.Get(url); ok {
		return doc, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrNotFound, url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}
	c.cache.Add(url, doc)
	return doc, nil
}

// FetchItem scrapes one item page into a Snapshot. Authors and genres
// are de-duplicated by id so the snapshot is safe to hand to the
// repository's link replacement.
func (c *Client) FetchItem(ctx context.Context, itemURL string) (*models.Snapshot, error) {
	doc, err := c.getDocument(ctx, itemURL)
	if err != nil {
		return nil, err
	}

	snap := &models.Snapshot{URL: itemURL}

	snap.Name = strings.TrimSpace(doc.Find("div.story-info-right h1").First().Text())
	if snap.Name == "" {
		return nil, &ParseError{URL: itemURL, Field: "name"}
	}

	// The info table carries alternative names and publication status.
	doc.Find("div.story-info-right table.variations-tableInfo tr").Each(func(i int, row *goquery.Selection) {
		label := strings.ToLower(row.Find("td.table-label").Text())
		value := strings.TrimSpace(row.Find("td.table-value").Text())
		switch {
		case strings.Contains(label, "alternative"):
			snap.AlternativeNames = value
		case strings.Contains(label, "status"):
			snap.Status = models.NormalizeStatus(value)
		}
	})
	if snap.Status == "" {
		snap.Status = models.StatusUnknown
	}

	snap.Description = strings.TrimSpace(doc.Find("div.panel-story-info-description").First().Text())
	snap.ThumbnailURL, _ = doc.Find("div.panel-story-info span.info-image img").First().Attr("src")

	seenAuthors := make(map[string]bool)
	seenGenres := make(map[int64]bool)
	doc.Find("div.panel-story-info div.story-info-right a.a-h").Each(func(i int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}
		if authorURLRe.MatchString(href) {
			author := models.Author{
				Name: strings.TrimSpace(sel.Text()),
				URL:  href,
				ID:   util.LastPathSegment(href),
			}
			if author.ID == "" {
				author.ID = author.Name
			}
			if !seenAuthors[author.ID] {
				seenAuthors[author.ID] = true
				snap.Authors = append(snap.Authors, author)
			}
		}
		if genreURLRe.MatchString(href) {
			id, err := strconv.ParseInt(digitsRe.FindString(util.LastPathSegment(href)), 10, 64)
			if err != nil {
				return
			}
			if !seenGenres[id] {
				seenGenres[id] = true
				snap.Genres = append(snap.Genres, models.Genre{
					Name: strings.TrimSpace(sel.Text()),
					URL:  href,
					ID:   id,
				})
			}
		}
	})

	// The extent block lists the update timestamp first and the view
	// count second.
	extent := doc.Find("div.panel-story-info div.story-info-right-extent span.stre-value")
	if extent.Length() < 2 {
		return nil, &ParseError{URL: itemURL, Field: "last updated / views"}
	}

	snap.LastUpdated, err = parseLastUpdated(extent.Eq(0).Text())
	if err != nil {
		return nil, &ParseError{URL: itemURL, Field: "last updated"}
	}

	views, err := util.ParseCompactInt(extent.Eq(1).Text())
	if err != nil {
		return nil, &ParseError{URL: itemURL, Field: "views"}
	}
	snap.Views = views

	if rating := strings.TrimSpace(doc.Find(`em[property="v:average"]`).Text()); rating != "" {
		snap.Rating, _ = strconv.ParseFloat(rating, 64)
	}
	if votes := strings.TrimSpace(doc.Find(`em[property="v:votes"]`).Text()); votes != "" {
		snap.Votes, _ = strconv.ParseInt(votes, 10, 64)
	}

	snap.ChapterURLs = scrapeChapterURLs(doc)

	return snap, nil
}

// parseLastUpdated parses the site's "Jan 02,2006 - 15:04 PM" format.
// The meridiem suffix is dropped; the hour is already 24h.
func parseLastUpdated(raw string) (time.Time, error) {
	raw = strings.TrimSpace(meridiemRe.ReplaceAllString(raw, ""))
	return time.Parse(lastUpdatedLayout, raw)
}

// scrapeChapterURLs reverses the on-page order so position 0 is the
// oldest chapter, making the slice index the canonical chapter number.
func scrapeChapterURLs(doc *goquery.Document) []string {
	var urls []string
	doc.Find("div.panel-story-chapter-list a.chapter-name").Each(func(i int, sel *goquery.Selection) {
		if href, exists := sel.Attr("href"); exists {
			urls = append(urls, href)
		}
	})
	for i, j := 0, len(urls)-1; i < j; i, j = i+1, j-1 {
		urls[i], urls[j] = urls[j], urls[i]
	}
	return urls
}

// FetchChapter scrapes one chapter page into a Chapter with its image
// URLs in reading order. The chapter name is the URL's last path
// segment.
func (c *Client) FetchChapter(ctx context.Context, chapterURL string) (*models.Chapter, error) {
	doc, err := c.getDocument(ctx, chapterURL)
	if err != nil {
		return nil, err
	}

	reader := doc.Find("div.container-chapter-reader")
	if reader.Length() == 0 {
		return nil, &ParseError{URL: chapterURL, Field: "chapter reader"}
	}

	chapter := &models.Chapter{
		URL:  chapterURL,
		Name: util.LastPathSegment(chapterURL),
	}
	reader.Find("img").Each(func(i int, sel *goquery.Selection) {
		if src, exists := sel.Attr("src"); exists {
			chapter.ImageURLs = append(chapter.ImageURLs, src)
		}
	})
	return chapter, nil
}

// ChapterSize estimates a chapter's download size by probing the first
// page image with a HEAD request. The site requires a Referer header on
// image requests.
func (c *Client) ChapterSize(ctx context.Context, chapter *models.Chapter) (int64, error) {
	if len(chapter.ImageURLs) == 0 {
		return 0, nil
	}

	req, err := http.NewRequestWithContext(ctx, "HEAD", chapter.ImageURLs[0], nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: HEAD %s returned %d", ErrNotFound, chapter.ImageURLs[0], resp.StatusCode)
	}
	return resp.ContentLength, nil
}
