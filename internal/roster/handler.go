package roster

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medical-prescreening/internal/logger"
)

// Handler exposes the read-only roster over HTTP.
type Handler struct {
	roster *Roster
}

func NewHandler(r *Roster) *Handler {
	return &Handler{roster: r}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/departments", h.listDepartments)
	r.Get("/api/departments/{department}/doctors", h.listDoctors)
}

func (h *Handler) listDepartments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"departments": h.roster.Departments(),
	})
}

func (h *Handler) listDoctors(w http.ResponseWriter, r *http.Request) {
	dept := chi.URLParam(r, "department")
	canonical, ok := h.roster.MatchDepartment(dept)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "department not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"department": canonical,
		"doctors":    h.roster.DoctorsIn(canonical),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("failed to encode response")
	}
}
