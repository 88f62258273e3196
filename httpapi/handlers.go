package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mhpenta/tryon"
)

type turnResponse struct {
	Role      string             `json:"role"`
	Text      string             `json:"text"`
	Timestamp time.Time          `json:"timestamp"`
	IsError   bool               `json:"is_error,omitempty"`
	Citations []citationResponse `json:"citations,omitempty"`
}

type citationResponse struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type messageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = s.stylist.NewSession()
	s.mu.Unlock()

	s.logger.Info("session created", "session_id", id)
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	img, ok := s.readUpload(w, r, "photo")
	if !ok {
		return
	}

	if err := sess.SubmitUserPhoto(img); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "photo set"})
}

func (s *Server) handleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	if err := sess.RemoveUserPhoto(); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadReference(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	img, ok := s.readUpload(w, r, "reference")
	if !ok {
		return
	}

	if err := sess.SubmitReferenceImage(r.Context(), img); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	s.writeTranscript(w, sess)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sess.SubmitMessage(r.Context(), req.Text); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	s.writeTranscript(w, sess)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	s.writeTranscript(w, sess)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}

	status := sess.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"generating": status.Generating,
		"phase":      status.Phase,
	})
}

func (s *Server) handleLookBase(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	writeImage(w, sess.Look().Base)
}

func (s *Server) handleLookCurrent(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	writeImage(w, sess.Look().Current)
}

// readUpload pulls a multipart file field and runs it through the
// image-preprocessing collaborator.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) (tryon.ImageRef, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, _, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing "+field+" upload")
		return tryon.ImageRef{}, false
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return tryon.ImageRef{}, false
	}

	img, err := s.prep.Normalize(raw)
	if err != nil {
		s.logger.Warn("upload rejected", "field", field, "error", err.Error())
		writeError(w, http.StatusBadRequest, "unsupported or corrupt image")
		return tryon.ImageRef{}, false
	}

	return img, true
}

func (s *Server) writeTranscript(w http.ResponseWriter, sess *tryon.Session) {
	history := sess.History()

	turns := make([]turnResponse, 0, len(history))
	for _, turn := range history {
		resp := turnResponse{
			Role:      string(turn.Role),
			Text:      turn.Text,
			Timestamp: turn.Timestamp,
			IsError:   turn.IsError,
		}
		for _, c := range turn.Citations {
			resp.Citations = append(resp.Citations, citationResponse{Title: c.Title, URI: c.URI})
		}
		turns = append(turns, resp)
	}

	writeJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func writeImage(w http.ResponseWriter, img *tryon.ImageRef) {
	if img == nil {
		writeError(w, http.StatusNotFound, "no image available")
		return
	}
	w.Header().Set("Content-Type", img.MIMEType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}
