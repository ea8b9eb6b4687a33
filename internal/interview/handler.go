package interview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medical-prescreening/internal/logger"
	"medical-prescreening/internal/session"
)

// RecordSource supplies the previous visit's medical record summary for
// follow-up interviews. May be nil when no persistence is configured.
type RecordSource interface {
	PreviousRecord(ctx context.Context, patientID string) (string, error)
}

// Handler exposes one interview service over HTTP. Mount a first-visit
// handler under /api/medical and a follow-up handler under /api/followup.
type Handler struct {
	svc      *Service
	sessions *session.Store
	records  RecordSource
}

func NewHandler(svc *Service, sessions *session.Store, records RecordSource) *Handler {
	return &Handler{svc: svc, sessions: sessions, records: records}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/start-interview", h.start)
	r.Post("/submit-answer", h.submitAnswer)
	r.Get("/interview/{sessionID}", h.status)
}

type startRequest struct {
	SessionID string `json:"session_id"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	patient, err := h.patientContext(req.SessionID)
	if err != nil {
		writeHTTPError(w, err)
		return
	}

	if h.svc.Policy().Kind == KindFollowup && h.records != nil {
		record, err := h.records.PreviousRecord(r.Context(), patient.ID)
		if err != nil {
			logger.Log.WithError(err).Warn("previous record lookup failed")
		} else {
			patient.PreviousRecord = record
		}
	}

	outcome, err := h.svc.Start(r.Context(), req.SessionID, patient)
	if err != nil {
		writeHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type answerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	outcome, err := h.svc.SubmitAnswer(r.Context(), req.SessionID, req.Answer)
	if err != nil {
		writeHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	snap, err := h.svc.Status(id)
	if err != nil {
		writeHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// patientContext resolves the umbrella patient session into the interview's
// patient context.
func (h *Handler) patientContext(sessionID string) (PatientContext, error) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		return PatientContext{}, ErrNotFound
	}
	if sess.Patient == nil {
		return PatientContext{}, ErrValidation
	}
	pc := PatientContext{
		// The durable patient id links this visit's record to earlier
		// ones. Session ids are minted per visit and cannot do that.
		ID:     sess.Patient.PatientID,
		Name:   sess.Patient.Name,
		Age:    sess.Patient.Age,
		Gender: sess.Patient.Gender,
	}
	if pc.ID == "" {
		pc.ID = sess.ID
	}
	if sess.SelectedDoctor != nil {
		pc.ChosenDoctor = sess.SelectedDoctor.DoctorName
		pc.ChosenDepartment = sess.SelectedDoctor.Department
	}
	return pc, nil
}

func writeHTTPError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidState):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInsufficientData):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		logger.Log.WithError(err).Error("interview handler error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}
