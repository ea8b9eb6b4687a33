package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"medical-prescreening/internal/logger"
)

// Handler exposes patient session lifecycle endpoints.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/session", h.create)
	r.Get("/api/session/{sessionID}", h.get)
	r.Post("/api/session/{sessionID}/patient", h.setPatient)
	r.Post("/api/session/{sessionID}/doctor", h.setDoctor)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Create()
	logger.Log.WithField("session_id", sess.ID).Info("session created")
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := h.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) setPatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var info PatientInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if info.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "patient name is required"})
		return
	}
	// Returning patients present their id so earlier visit records can be
	// found; first-time patients get a fresh one.
	if info.PatientID == "" {
		info.PatientID = uuid.New().String()
	}

	sess, err := h.store.Update(id, func(s *Session) {
		s.Patient = &info
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) setDoctor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var choice DoctorChoice
	if err := json.NewDecoder(r.Body).Decode(&choice); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	switch choice.VisitType {
	case "new-doctor", "follow-up", "ai-help":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid visit_type"})
		return
	}

	sess, err := h.store.Update(id, func(s *Session) {
		s.SelectedDoctor = &choice
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}
