// This file implements the incremental synchronization core: the
// staleness check and the reconciliation of a scraped snapshot against
// the persisted item and its child collections.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vperic/mangalib-go/internal/models"
)

// Timestamps are stored as ISO-8601 text.
const timeLayout = "2006-01-02T15:04:05"

// IsOutdated reports whether the snapshot's chapter list needs
// re-synchronization: true when no row exists for the URL, or when the
// snapshot's last-updated timestamp is strictly newer than the stored
// one. Equal timestamps are not outdated, which guards against redundant
// chapter re-scraping when the source timestamp has coarse granularity.
func (s *Store) IsOutdated(snap *models.Snapshot) (bool, error) {
	return isOutdated(s.db, snap)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func isOutdated(q querier, snap *models.Snapshot) (bool, error) {
	var stored string
	err := q.QueryRow("SELECT last_updated FROM items WHERE item_url = ?", snap.URL).Scan(&stored)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	storedTime, err := time.Parse(timeLayout, stored)
	if err != nil {
		return false, fmt.Errorf("stored last_updated for %s is malformed: %w", snap.URL, err)
	}
	return snap.LastUpdated.After(storedTime), nil
}

// ThumbnailArchived reports whether the item's thumbnail has already
// been archived to the object store. The handle column is only written
// after a successful archive, so its presence is the idempotence check.
func (s *Store) ThumbnailArchived(itemURL string) (bool, error) {
	var objectName sql.NullString
	err := s.db.QueryRow("SELECT thumbnail_object_name FROM items WHERE item_url = ?", itemURL).Scan(&objectName)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return objectName.Valid && objectName.String != "", nil
}

// SetItemThumbnail records the object-store handle for an item's
// archived thumbnail.
func (s *Store) SetItemThumbnail(itemURL, objectName string) error {
	_, err := s.db.Exec("UPDATE items SET thumbnail_object_name = ? WHERE item_url = ?", objectName, itemURL)
	return err
}

// UpsertItem reconciles one scraped snapshot against the catalog inside
// a single transaction, so an interrupted run leaves either the old or
// the new fully-consistent state.
//
// Scalar fields and the author/genre links are refreshed on every call.
// Chapter reconciliation only runs when the item is outdated, and within
// it only the (position, url) pairs that changed are re-fetched through
// the ChapterFetcher. A snapshot containing duplicate author or genre
// ids fails with a uniqueness violation; snapshot producers de-duplicate.
func (s *Store) UpsertItem(ctx context.Context, snap *models.Snapshot, chapters ChapterFetcher) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The staleness check must run before the scalar upsert below
	// advances last_updated. The stored timestamp never moves backwards
	// (ISO-8601 text compares chronologically), so an older snapshot
	// applied after a newer one cannot re-trigger reconciliation later.
	outdated, err := isOutdated(tx, snap)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO items (item_url, name, alternative_names, description, status, thumbnail_url, views, rating, votes, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_url) DO UPDATE SET
			name = excluded.name,
			alternative_names = excluded.alternative_names,
			description = excluded.description,
			status = excluded.status,
			thumbnail_url = excluded.thumbnail_url,
			views = excluded.views,
			rating = excluded.rating,
			votes = excluded.votes,
			last_updated = MAX(items.last_updated, excluded.last_updated);
	`, snap.URL, snap.Name, snap.AlternativeNames, snap.Description, models.NormalizeStatus(snap.Status),
		snap.ThumbnailURL, snap.Views, snap.Rating, snap.Votes, snap.LastUpdated.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to upsert item %s: %w", snap.URL, err)
	}

	if err := replaceAuthors(tx, snap); err != nil {
		return err
	}
	if err := replaceGenres(tx, snap); err != nil {
		return err
	}

	if outdated {
		if err := reconcileChapters(ctx, tx, snap, chapters); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// replaceAuthors fully replaces the item's author links: the author rows
// themselves are upserted and kept (they may be referenced by other
// items), only the links are rebuilt.
func replaceAuthors(tx *sql.Tx, snap *models.Snapshot) error {
	if _, err := tx.Exec("DELETE FROM item_authors WHERE item_url = ?", snap.URL); err != nil {
		return fmt.Errorf("failed to clear author links for %s: %w", snap.URL, err)
	}
	for _, author := range snap.Authors {
		_, err := tx.Exec(`
			INSERT INTO authors (author_id, name, url)
			VALUES (?, ?, ?)
			ON CONFLICT(author_id) DO UPDATE SET
				name = excluded.name,
				url = excluded.url;
		`, author.ID, author.Name, author.URL)
		if err != nil {
			return fmt.Errorf("failed to upsert author %s: %w", author.ID, err)
		}
		_, err = tx.Exec("INSERT INTO item_authors (item_url, author_id) VALUES (?, ?)", snap.URL, author.ID)
		if err != nil {
			return fmt.Errorf("failed to link author %s to %s: %w", author.ID, snap.URL, err)
		}
	}
	return nil
}

// replaceGenres works identically to replaceAuthors.
func replaceGenres(tx *sql.Tx, snap *models.Snapshot) error {
	if _, err := tx.Exec("DELETE FROM item_genres WHERE item_url = ?", snap.URL); err != nil {
		return fmt.Errorf("failed to clear genre links for %s: %w", snap.URL, err)
	}
	for _, genre := range snap.Genres {
		_, err := tx.Exec(`
			INSERT INTO genres (genre_id, name, url)
			VALUES (?, ?, ?)
			ON CONFLICT(genre_id) DO UPDATE SET
				name = excluded.name,
				url = excluded.url;
		`, genre.ID, genre.Name, genre.URL)
		if err != nil {
			return fmt.Errorf("failed to upsert genre %d: %w", genre.ID, err)
		}
		_, err = tx.Exec("INSERT INTO item_genres (item_url, genre_id) VALUES (?, ?)", snap.URL, genre.ID)
		if err != nil {
			return fmt.Errorf("failed to link genre %d to %s: %w", genre.ID, snap.URL, err)
		}
	}
	return nil
}

// reconcileChapters diffs the snapshot's ordered chapter URL list
// against the persisted (position, url) pairs. Unchanged pairs are left
// untouched. A changed pair invalidates whatever was stored at that
// position: the link row is deleted, the chapter detail is fetched, the
// chapter row and its full image list are rewritten, and a fresh link is
// inserted. Position is part of chapter identity, so an insertion in the
// middle of the list correctly forces a re-fetch of every shifted
// downstream position. Stale positions beyond the end of a shorter new
// list are removed.
func reconcileChapters(ctx context.Context, tx *sql.Tx, snap *models.Snapshot, chapters ChapterFetcher) error {
	rows, err := tx.Query("SELECT chapter_nr, chapter_url FROM item_chapters WHERE item_url = ?", snap.URL)
	if err != nil {
		return fmt.Errorf("failed to read chapter links for %s: %w", snap.URL, err)
	}

	type link struct {
		nr  int
		url string
	}
	existing := make(map[link]bool)
	for rows.Next() {
		var l link
		if err := rows.Scan(&l.nr, &l.url); err != nil {
			rows.Close()
			return err
		}
		existing[l] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i, chapterURL := range snap.ChapterURLs {
		if existing[link{nr: i, url: chapterURL}] {
			continue
		}

		if _, err := tx.Exec("DELETE FROM item_chapters WHERE item_url = ? AND chapter_nr = ?", snap.URL, i); err != nil {
			return fmt.Errorf("failed to remove stale chapter link %d for %s: %w", i, snap.URL, err)
		}

		chapter, err := chapters.FetchChapter(ctx, chapterURL)
		if err != nil {
			return fmt.Errorf("failed to fetch chapter %s: %w", chapterURL, err)
		}
		if err := saveChapter(tx, chapter); err != nil {
			return err
		}

		_, err = tx.Exec("INSERT INTO item_chapters (item_url, chapter_url, chapter_nr) VALUES (?, ?, ?)",
			snap.URL, chapterURL, i)
		if err != nil {
			return fmt.Errorf("failed to link chapter %s to %s: %w", chapterURL, snap.URL, err)
		}
	}

	// Prune link rows past the end of the new list.
	_, err = tx.Exec("DELETE FROM item_chapters WHERE item_url = ? AND chapter_nr >= ?", snap.URL, len(snap.ChapterURLs))
	if err != nil {
		return fmt.Errorf("failed to prune chapter links for %s: %w", snap.URL, err)
	}

	return nil
}

// saveChapter upserts the chapter row and fully replaces its image list.
// Image ordering is reading order and is never merged.
func saveChapter(tx *sql.Tx, chapter *models.Chapter) error {
	_, err := tx.Exec(`
		INSERT INTO chapters (chapter_url, name)
		VALUES (?, ?)
		ON CONFLICT(chapter_url) DO UPDATE SET name = excluded.name;
	`, chapter.URL, chapter.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert chapter %s: %w", chapter.URL, err)
	}

	if _, err := tx.Exec("DELETE FROM chapter_images WHERE chapter_url = ?", chapter.URL); err != nil {
		return fmt.Errorf("failed to clear images for %s: %w", chapter.URL, err)
	}
	for i, imageURL := range chapter.ImageURLs {
		_, err := tx.Exec("INSERT INTO chapter_images (chapter_url, image_url, image_url_nr) VALUES (?, ?, ?)",
			chapter.URL, imageURL, i)
		if err != nil {
			return fmt.Errorf("failed to insert image %d for %s: %w", i, chapter.URL, err)
		}
	}
	return nil
}
