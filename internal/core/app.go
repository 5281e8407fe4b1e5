package core

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/vperic/mangalib-go/internal/config"
	"github.com/vperic/mangalib-go/internal/db"
	"github.com/vperic/mangalib-go/internal/jobs"
	"github.com/vperic/mangalib-go/internal/media"
	"github.com/vperic/mangalib-go/internal/scraper/manganato"
	syncsvc "github.com/vperic/mangalib-go/internal/sync"
)

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	config     *config.Config
	database   *sql.DB
	client     *manganato.Client
	syncer     *syncsvc.Service
	jobManager *jobs.JobManager
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, running
// migrations and wiring the scraper, object store and sync service.
func New() (*App, error) {
	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize the database connection
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	if err := db.RunMigrations(database); err != nil {
		// We can't proceed without a valid database schema.
		// Close the DB connection before failing.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	cache := manganato.NewPageCache(cfg.Source.CacheSize, time.Duration(cfg.Source.CacheTTL)*time.Second)
	client := manganato.New(cfg.Source.BaseURL, cache)

	archiver, err := media.NewMinioStore(cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize object store: %w", err)
	}

	app := &App{
		config:   cfg,
		database: database,
		client:   client,
		syncer:   syncsvc.NewService(database, client, archiver, cfg.Source.Workers),
	}
	app.jobManager = jobs.NewManager(app)
	app.jobManager.Register(jobs.CatalogSyncJob, jobs.RunCatalogSync)

	log.Println("Core application setup complete.")
	return app, nil
}

// Close gracefully closes the application's resources, like the DB connection.
func (a *App) Close() {
	if a.database != nil {
		a.database.Close()
	}
}

func (a *App) Config() *config.Config       { return a.config }
func (a *App) DB() *sql.DB                  { return a.database }
func (a *App) Syncer() *syncsvc.Service     { return a.syncer }
func (a *App) Crawler() jobs.Crawler        { return a.client }
func (a *App) Source() *manganato.Client    { return a.client }
func (a *App) JobManager() *jobs.JobManager { return a.jobManager }
