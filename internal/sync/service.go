// The synchronization engine: per-item orchestration of fetch,
// reconcile and thumbnail archival, and the concurrent batch driver.

package sync

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/vperic/mangalib-go/internal/media"
	"github.com/vperic/mangalib-go/internal/models"
	"github.com/vperic/mangalib-go/internal/store"
	"github.com/vperic/mangalib-go/internal/util"
)

// Fetcher produces snapshots and chapter detail from item and chapter
// URLs. FetchChapter also satisfies store.ChapterFetcher, so the same
// implementation serves both the engine and the repository's
// reconciliation.
type Fetcher interface {
	FetchItem(ctx context.Context, itemURL string) (*models.Snapshot, error)
	FetchChapter(ctx context.Context, chapterURL string) (*models.Chapter, error)
}

// Service synchronizes items into the catalog.
type Service struct {
	st       *store.Store
	fetcher  Fetcher
	archiver media.Archiver
	workers  int
}

// NewService creates a sync service with the given number of concurrent
// workers for batch runs.
func NewService(db *sql.DB, fetcher Fetcher, archiver media.Archiver, workers int) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		st:       store.New(db),
		fetcher:  fetcher,
		archiver: archiver,
		workers:  workers,
	}
}

// SyncItem synchronizes a single item URL. Fetch and persist failures
// are converted into the result rather than returned, so batch drivers
// can continue past individual failures. There are no retries at this
// layer; a failed item is re-attempted as a whole unit on the next run.
func (s *Service) SyncItem(ctx context.Context, itemURL string) models.SyncResult {
	snap, err := s.fetcher.FetchItem(ctx, itemURL)
	if err != nil {
		return models.SyncResult{URL: itemURL, Outcome: models.SyncFetchFailed, Message: err.Error()}
	}

	// Checked before the upsert so archival stays once-per-item even
	// though the scalar refresh runs every call.
	archived, err := s.st.ThumbnailArchived(itemURL)
	if err != nil {
		return models.SyncResult{URL: itemURL, Outcome: models.SyncPersistFailed, Message: err.Error()}
	}

	if err := s.st.UpsertItem(ctx, snap, s.fetcher); err != nil {
		return models.SyncResult{URL: itemURL, Outcome: models.SyncPersistFailed, Message: err.Error()}
	}

	if !archived && snap.ThumbnailURL != "" {
		s.archiveThumbnail(ctx, itemURL, snap.ThumbnailURL)
	}

	return models.SyncResult{URL: itemURL, Outcome: models.SyncOK}
}

// archiveThumbnail stores the thumbnail and records its handle. Archive
// failures are logged and do not fail the item; the missing handle means
// the next sync will try again.
func (s *Service) archiveThumbnail(ctx context.Context, itemURL, thumbnailURL string) {
	objectName := util.ThumbnailObjectName(itemURL)
	handle, err := s.archiver.Archive(ctx, objectName, thumbnailURL)
	if err != nil {
		log.Printf("Could not archive thumbnail for %s: %v", itemURL, err)
		return
	}
	if err := s.st.SetItemThumbnail(itemURL, handle); err != nil {
		log.Printf("Could not record thumbnail handle for %s: %v", itemURL, err)
	}
}

// SyncAll synchronizes a batch of item URLs on a bounded worker pool.
// Items share no state except the database, so ordering across items is
// unspecified. The run always completes; per-item failures end up in the
// results, not in an error.
func (s *Service) SyncAll(ctx context.Context, itemURLs []string) ([]models.SyncResult, models.BatchSummary) {
	jobs := make(chan string)
	results := make([]models.SyncResult, 0, len(itemURLs))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for itemURL := range jobs {
				result := s.SyncItem(ctx, itemURL)
				if !result.OK() {
					log.Printf("Sync failed for %s: %s", itemURL, result.Message)
				}
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
		}()
	}

	for _, itemURL := range itemURLs {
		select {
		case <-ctx.Done():
			// In-flight items finish (each is transactionally whole);
			// the rest are not started.
			close(jobs)
			wg.Wait()
			return results, summarize(results)
		case jobs <- itemURL:
		}
	}
	close(jobs)
	wg.Wait()

	return results, summarize(results)
}

func summarize(results []models.SyncResult) models.BatchSummary {
	var summary models.BatchSummary
	for _, r := range results {
		summary.Add(r)
	}
	return summary
}

// WriteReport writes the per-item outcome lines and aggregate counts of
// a batch run in a plain-text form suitable for post-run auditing.
func WriteReport(w io.Writer, results []models.SyncResult, summary models.BatchSummary) error {
	for _, r := range results {
		var err error
		if r.OK() {
			_, err = fmt.Fprintf(w, "ok %s\n", r.URL)
		} else {
			_, err = fmt.Fprintf(w, "%s %s: %s\n", r.Outcome, r.URL, r.Message)
		}
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "total=%d synced=%d fetch_failed=%d persist_failed=%d\n",
		summary.Total, summary.Synced, summary.FetchFailed, summary.PersistFailed)
	return err
}
