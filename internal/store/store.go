// To handle all database interactions. This is our
// data access layer, keeping SQL queries separate from business logic.

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vperic/mangalib-go/internal/models"
)

var ErrItemNotFound = errors.New("item not found")

// ChapterFetcher provides chapter detail on demand. Reconciliation calls
// it only for positions whose (position, url) pair changed, so fetching
// stays proportional to the amount of actual change.
type ChapterFetcher interface {
	FetchChapter(ctx context.Context, chapterURL string) (*models.Chapter, error)
}

// Store provides all functions to interact with the database.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}
