package api

import (
	"net/http"
	"strconv"

	"github.com/vperic/mangalib-go/internal/jobs"
	"github.com/vperic/mangalib-go/internal/store"
)

const defaultPageSize = 50

// handleListItems returns a page of catalog items. Items are keyed by
// URL, so detail lookups take the key as a query parameter rather than
// a path segment.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 200 {
		perPage = defaultPageSize
	}

	items, err := s.store.ListItems(perPage, (page-1)*perPage)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to list items")
		return
	}
	total, err := s.store.CountItems()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to count items")
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
		"page":  page,
	})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	itemURL := r.URL.Query().Get("url")
	if itemURL == "" {
		RespondWithError(w, http.StatusBadRequest, "Missing 'url' query parameter")
		return
	}

	item, err := s.store.GetItem(itemURL)
	if err == store.ErrItemNotFound {
		RespondWithError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to fetch item")
		return
	}
	RespondWithJSON(w, http.StatusOK, item)
}

func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	chapterURL := r.URL.Query().Get("url")
	if chapterURL == "" {
		RespondWithError(w, http.StatusBadRequest, "Missing 'url' query parameter")
		return
	}

	chapter, err := s.store.GetChapter(chapterURL)
	if err != nil {
		RespondWithError(w, http.StatusNotFound, "Chapter not found")
		return
	}
	RespondWithJSON(w, http.StatusOK, chapter)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, s.app.JobManager().GetStatus())
}

// handleTriggerSync starts a catalog sync in the background. Returns 409
// if a job is already running.
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	if err := s.app.JobManager().RunJob(jobs.CatalogSyncJob, s.app); err != nil {
		RespondWithError(w, http.StatusConflict, err.Error())
		return
	}
	RespondWithJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
