package jobs

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

const CatalogSyncJob = "catalog-sync"

// StartJobs starts the background job scheduler.
func StartJobs(app JobContext) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	startCatalogSyncJob(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
}

func startCatalogSyncJob(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().SyncInterval
	if interval == 0 {
		log.Println("Catalog sync interval is 0, scheduled sync is disabled.")
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d minutes.", CatalogSyncJob, interval)

	_, err := s.Every(interval).Minutes().Do(func() {
		log.Println("Scheduler is triggering job:", CatalogSyncJob)
		// Submit the job to the manager instead of running it directly.
		// This prevents conflicts with manually triggered jobs.
		err := app.JobManager().RunJob(CatalogSyncJob, app)
		if err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", CatalogSyncJob, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", CatalogSyncJob, err)
	}
}

// RunCatalogSync crawls the source listing and synchronizes every
// discovered item. It is registered with the job manager under
// CatalogSyncJob.
func RunCatalogSync(ctx JobContext) {
	crawlCtx := context.Background()

	urls, err := ctx.Crawler().CrawlItemURLs(crawlCtx, ctx.Config().Source.PageLimit)
	if err != nil {
		log.Printf("Catalog sync: crawl failed: %v", err)
		return
	}
	log.Printf("Catalog sync: crawled %d item URLs", len(urls))

	_, summary := ctx.Syncer().SyncAll(crawlCtx, urls)
	log.Printf("Catalog sync: %d items, %d synced, %d fetch failures, %d persist failures",
		summary.Total, summary.Synced, summary.FetchFailed, summary.PersistFailed)
}
