// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vperic/mangalib-go/internal/jobs"
	"github.com/vperic/mangalib-go/internal/store"
)

// Server holds the dependencies for our API. It depends on the
// jobs.JobContext interface rather than the concrete app so tests can
// supply a lightweight context.
type Server struct {
	app   jobs.JobContext
	store *store.Store
}

// NewServer creates a new Server instance.
func NewServer(app jobs.JobContext) *Server {
	return &Server{
		app:   app,
		store: store.New(app.DB()),
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/items", s.handleListItems)
		r.Get("/items/detail", s.handleGetItem)
		r.Get("/chapters/detail", s.handleGetChapter)
		r.Get("/jobs/status", s.handleJobStatus)
		r.Post("/jobs/sync", s.handleTriggerSync)
	})

	return r
}
