package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/vperic/mangalib-go/internal/core"
	syncsvc "github.com/vperic/mangalib-go/internal/sync"
	"github.com/vperic/mangalib-go/internal/util"
)

func main() {
	itemURL := flag.String("item", "", "sync a single item URL instead of crawling the full listing")
	pages := flag.Int("pages", 0, "max listing pages to crawl (0 uses the configured limit)")
	reportPath := flag.String("report", "results.txt", "path of the per-item batch report")
	sizeURL := flag.String("size", "", "estimate the total download size of one item and exit")
	flag.Parse()

	// Initialize the core application components
	app, err := core.New()
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	ctx := context.Background()

	if *sizeURL != "" {
		estimateSize(ctx, app, *sizeURL)
		return
	}

	if *itemURL != "" {
		result := app.Syncer().SyncItem(ctx, *itemURL)
		if !result.OK() {
			log.Fatalf("Sync failed for %s: %s", result.URL, result.Message)
		}
		log.Printf("Synced %s", result.URL)
		return
	}

	limit := *pages
	if limit == 0 {
		limit = app.Config().Source.PageLimit
	}

	log.Println("Crawling item listing...")
	urls, err := app.Crawler().CrawlItemURLs(ctx, limit)
	if err != nil {
		log.Fatalf("Crawl failed: %v", err)
	}
	log.Printf("Crawled %d item URLs, starting sync...", len(urls))

	results, summary := app.Syncer().SyncAll(ctx, urls)

	file, err := os.Create(*reportPath)
	if err != nil {
		log.Fatalf("Could not create report file: %v", err)
	}
	defer file.Close()
	if err := syncsvc.WriteReport(file, results, summary); err != nil {
		log.Fatalf("Could not write report: %v", err)
	}

	fmt.Printf("Synced %d of %d items (%d fetch failures, %d persist failures). Report written to %s.\n",
		summary.Synced, summary.Total, summary.FetchFailed, summary.PersistFailed, *reportPath)
}

// estimateSize fetches an item's chapters and sums the size of each
// chapter's first page image as a rough lower-bound download estimate.
func estimateSize(ctx context.Context, app *core.App, itemURL string) {
	source := app.Source()

	snap, err := source.FetchItem(ctx, itemURL)
	if err != nil {
		log.Fatalf("Could not fetch %s: %v", itemURL, err)
	}

	var totalBytes int64
	var images int
	for _, chapterURL := range snap.ChapterURLs {
		chapter, err := source.FetchChapter(ctx, chapterURL)
		if err != nil {
			log.Printf("Skipping chapter %s: %v", chapterURL, err)
			continue
		}
		images += len(chapter.ImageURLs)

		size, err := source.ChapterSize(ctx, chapter)
		if err != nil {
			log.Printf("Could not size chapter %s: %v", chapterURL, err)
			continue
		}
		totalBytes += size
	}

	fmt.Printf("Total bytes: %s\n", util.FormatSize(totalBytes))
	fmt.Printf("Total chapters: %d\n", len(snap.ChapterURLs))
	fmt.Printf("Total images: %d\n", images)
}
