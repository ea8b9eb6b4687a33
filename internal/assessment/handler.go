package assessment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medical-prescreening/internal/interview"
	"medical-prescreening/internal/logger"
	"medical-prescreening/internal/session"
)

// Handler exposes assessment generation for both interview kinds, plus
// retrieval of the stored outcome from the patient session.
type Handler struct {
	svc      *Service
	sessions *session.Store
}

func NewHandler(svc *Service, sessions *session.Store) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/assessment/generate", h.generate(interview.KindFirstVisit))
	r.Post("/api/followup/generate-assessment", h.generate(interview.KindFollowup))
	r.Get("/api/assessment/{sessionID}", h.stashed("assessment", "no assessment generated for this session"))
	r.Get("/api/prescreening/{sessionID}", h.stashed("record", "no prescreening record for this session"))
}

type generateRequest struct {
	SessionID string `json:"session_id"`
}

func (h *Handler) generate(kind interview.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		result, err := h.svc.Generate(r.Context(), req.SessionID, kind)
		if err != nil {
			switch {
			case errors.Is(err, interview.ErrNotFound):
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "interview session not found"})
			case errors.Is(err, interview.ErrInsufficientData):
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no interview data available"})
			default:
				logger.Log.WithError(err).Error("assessment generation failed")
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			}
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// stashed serves one entry of the session's prescreening stash as JSON.
func (h *Handler) stashed(key, missing string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		sess, err := h.sessions.Get(id)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		v, ok := sess.Prescreening[key]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": missing})
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}
