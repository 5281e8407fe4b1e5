package store

import (
	"database/sql"
	"time"

	"github.com/vperic/mangalib-go/internal/models"
)

// ListItems returns a page of catalog items ordered by name, without
// child collections loaded.
func (s *Store) ListItems(limit, offset int) ([]*models.Item, error) {
	rows, err := s.db.Query(`
		SELECT item_url, name, alternative_names, description, status, thumbnail_url, thumbnail_object_name, views, rating, votes, last_updated
		FROM items ORDER BY name ASC LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountItems returns the total number of catalog items.
func (s *Store) CountItems() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count)
	return count, err
}

// GetItem returns a single item with its authors, genres and chapter
// links loaded. Chapter image lists are not loaded here; use GetChapter.
func (s *Store) GetItem(itemURL string) (*models.Item, error) {
	row := s.db.QueryRow(`
		SELECT item_url, name, alternative_names, description, status, thumbnail_url, thumbnail_object_name, views, rating, votes, last_updated
		FROM items WHERE item_url = ?
	`, itemURL)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}

	item.Authors, err = s.itemAuthors(itemURL)
	if err != nil {
		return nil, err
	}
	item.Genres, err = s.itemGenres(itemURL)
	if err != nil {
		return nil, err
	}
	item.Chapters, err = s.itemChapters(itemURL)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetChapter returns a chapter with its image URLs in reading order.
func (s *Store) GetChapter(chapterURL string) (*models.Chapter, error) {
	var chapter models.Chapter
	err := s.db.QueryRow("SELECT chapter_url, name FROM chapters WHERE chapter_url = ?", chapterURL).
		Scan(&chapter.URL, &chapter.Name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT image_url FROM chapter_images WHERE chapter_url = ? ORDER BY image_url_nr ASC", chapterURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var imageURL string
		if err := rows.Scan(&imageURL); err != nil {
			return nil, err
		}
		chapter.ImageURLs = append(chapter.ImageURLs, imageURL)
	}
	return &chapter, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var item models.Item
	var objectName sql.NullString
	var lastUpdated string
	err := row.Scan(&item.URL, &item.Name, &item.AlternativeNames, &item.Description, &item.Status,
		&item.ThumbnailURL, &objectName, &item.Views, &item.Rating, &item.Votes, &lastUpdated)
	if err != nil {
		return nil, err
	}
	if objectName.Valid {
		item.ThumbnailObjectName = &objectName.String
	}
	item.LastUpdated, err = time.Parse(timeLayout, lastUpdated)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) itemAuthors(itemURL string) ([]*models.Author, error) {
	rows, err := s.db.Query(`
		SELECT a.author_id, a.name, a.url
		FROM authors a
		JOIN item_authors ia ON ia.author_id = a.author_id
		WHERE ia.item_url = ?
		ORDER BY a.name ASC
	`, itemURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var authors []*models.Author
	for rows.Next() {
		var a models.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.URL); err != nil {
			return nil, err
		}
		authors = append(authors, &a)
	}
	return authors, rows.Err()
}

func (s *Store) itemGenres(itemURL string) ([]*models.Genre, error) {
	rows, err := s.db.Query(`
		SELECT g.genre_id, g.name, g.url
		FROM genres g
		JOIN item_genres ig ON ig.genre_id = g.genre_id
		WHERE ig.item_url = ?
		ORDER BY g.genre_id ASC
	`, itemURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var genres []*models.Genre
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.URL); err != nil {
			return nil, err
		}
		genres = append(genres, &g)
	}
	return genres, rows.Err()
}

func (s *Store) itemChapters(itemURL string) ([]*models.Chapter, error) {
	rows, err := s.db.Query(`
		SELECT c.chapter_url, c.name
		FROM chapters c
		JOIN item_chapters ic ON ic.chapter_url = c.chapter_url
		WHERE ic.item_url = ?
		ORDER BY ic.chapter_nr ASC
	`, itemURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []*models.Chapter
	for rows.Next() {
		var c models.Chapter
		if err := rows.Scan(&c.URL, &c.Name); err != nil {
			return nil, err
		}
		chapters = append(chapters, &c)
	}
	return chapters, rows.Err()
}
