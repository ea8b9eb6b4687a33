package report

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medical-prescreening/internal/logger"
	"medical-prescreening/internal/prescreening"
	"medical-prescreening/internal/session"
)

// Handler serves the pre-screening report PDF for a patient session.
type Handler struct {
	svc      *Service
	sessions *session.Store
}

func NewHandler(svc *Service, sessions *session.Store) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/report/{sessionID}", h.download)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	sess, err := h.sessions.Get(id)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "session not found")
		return
	}
	rec, ok := recordFromSession(sess)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no prescreening record for session")
		return
	}

	pdfBytes, err := h.svc.Render(rec)
	if err != nil {
		logger.Log.WithError(err).Error("failed to render report")
		writeJSONError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="prescreening_%s.pdf"`, rec.ID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdfBytes); err != nil {
		logger.Log.WithError(err).Error("failed to write report response")
	}
}

// recordFromSession recovers the stored record from the session's
// prescreening map. The assessment service stores it as a typed value; a
// JSON round trip covers sessions restored from untyped storage.
func recordFromSession(sess *session.Session) (prescreening.Record, bool) {
	raw, ok := sess.Prescreening["record"]
	if !ok {
		return prescreening.Record{}, false
	}
	if rec, ok := raw.(prescreening.Record); ok {
		return rec, true
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return prescreening.Record{}, false
	}
	var rec prescreening.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return prescreening.Record{}, false
	}
	return rec, true
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}
