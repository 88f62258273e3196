// Package httpapi exposes try-on consultation sessions over HTTP. It is
// the seam where the UI collaborator connects: uploads are normalized by
// imageprep before they reach the core, and transcripts, look images, and
// status come back out for rendering.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/mhpenta/tryon"
	"github.com/mhpenta/tryon/imageprep"
)

// maxUploadBytes bounds multipart photo uploads before normalization.
const maxUploadBytes = 32 << 20

// Server holds the session registry and the collaborators each session
// needs. Sessions are kept in memory, keyed by UUID, and fully isolated
// from one another.
type Server struct {
	stylist *tryon.Stylist
	prep    *imageprep.Normalizer
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*tryon.Session
}

// New creates an API server for the given stylist.
func New(stylist *tryon.Stylist, prep *imageprep.Normalizer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		stylist:  stylist,
		prep:     prep,
		logger:   logger,
		sessions: make(map[string]*tryon.Session),
	}
}

// RegisterHTTP registers the session endpoints on a chi router.
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Post("/api/v1/sessions", s.handleCreateSession)
	r.Route("/api/v1/sessions/{session_id}", func(r chi.Router) {
		r.Post("/photo", s.handleUploadPhoto)
		r.Delete("/photo", s.handleRemovePhoto)
		r.Post("/reference", s.handleUploadReference)
		r.Post("/messages", s.handleMessage)
		r.Get("/transcript", s.handleTranscript)
		r.Get("/status", s.handleStatus)
		r.Get("/look/base", s.handleLookBase)
		r.Get("/look/current", s.handleLookCurrent)
	})
}

// session resolves the session from the URL, or writes a 404.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *tryon.Session {
	id := chi.URLParam(r, "session_id")

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return nil
	}
	return sess
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForError maps core errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, tryon.ErrPipelineBusy):
		return http.StatusConflict
	case errors.Is(err, tryon.ErrMissingBaseImage), errors.Is(err, tryon.ErrBaseImageSet):
		return http.StatusPreconditionFailed
	case errors.Is(err, tryon.ErrEmptyMessage),
		errors.Is(err, tryon.ErrEmptyImageData),
		errors.Is(err, tryon.ErrInvalidMIMEType),
		errors.Is(err, tryon.ErrImageTooLarge):
		return http.StatusBadRequest
	case tryon.IsRateLimitError(err):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
