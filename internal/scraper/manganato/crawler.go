package manganato

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

const listingPath = "/genre-all/"

// TotalPages reads the listing-page count from the "last page" element
// of the first listing page.
func (c *Client) TotalPages(ctx context.Context) (int, error) {
	doc, err := c.getDocument(ctx, c.baseURL+listingPath)
	if err != nil {
		return 0, err
	}

	text := doc.Find("a.page-last").First().Text()
	digits := digitsRe.FindString(text)
	if digits == "" {
		return 0, &ParseError{URL: c.baseURL + listingPath, Field: "last page number"}
	}
	return strconv.Atoi(digits)
}

// ItemURLs extracts the item URLs from one listing page.
func (c *Client) ItemURLs(ctx context.Context, page int) ([]string, error) {
	doc, err := c.getDocument(ctx, fmt.Sprintf("%s%s%d", c.baseURL, listingPath, page))
	if err != nil {
		return nil, err
	}

	var urls []string
	doc.Find("a.genres-item-name").Each(func(i int, sel *goquery.Selection) {
		if href, exists := sel.Attr("href"); exists {
			urls = append(urls, href)
		}
	})
	return urls, nil
}

// CrawlItemURLs walks the paginated listing and collects item URLs from
// up to limit pages (0 means all). The result may contain duplicates if
// the source listing is inconsistent across pages; syncing is idempotent
// so duplicates are harmless.
func (c *Client) CrawlItemURLs(ctx context.Context, limit int) ([]string, error) {
	total, err := c.TotalPages(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && total > limit {
		total = limit
	}

	var urls []string
	for page := 1; page <= total; page++ {
		pageURLs, err := c.ItemURLs(ctx, page)
		if err != nil {
			// A single bad listing page should not abort the crawl.
			log.Printf("Skipping listing page %d: %v", page, err)
			continue
		}
		urls = append(urls, pageURLs...)
	}
	return urls, nil
}
