package assessment

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medical-prescreening/internal/prescreening"
	"medical-prescreening/internal/session"
)

func TestStoredAssessmentAndRecordRetrieval(t *testing.T) {
	sessions := session.NewStore(time.Hour)
	sess := sessions.Create()
	_, err := sessions.Update(sess.ID, func(s *session.Session) {
		s.Prescreening = map[string]any{
			"record": prescreening.Record{
				ID:             "rec-1",
				ChiefComplaint: "knee pain after fall",
			},
			"assessment": Result{
				Success:               true,
				SessionID:             sess.ID,
				RecommendedDepartment: "Orthopedics",
			},
		}
	})
	require.NoError(t, err)

	router := chi.NewRouter()
	NewHandler(nil, sessions).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/assessment/"+sess.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recommended_department":"Orthopedics"`)

	req = httptest.NewRequest(http.MethodGet, "/api/prescreening/"+sess.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "knee pain after fall")
}

func TestStoredAssessmentRetrievalMisses(t *testing.T) {
	sessions := session.NewStore(time.Hour)
	sess := sessions.Create()

	router := chi.NewRouter()
	NewHandler(nil, sessions).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/assessment/"+sess.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/assessment/no-such-session", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
