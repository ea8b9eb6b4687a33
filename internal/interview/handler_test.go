package interview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medical-prescreening/internal/expert"
	"medical-prescreening/internal/session"
)

type capturingGenerator struct {
	lastContext expert.PromptContext
}

func (g *capturingGenerator) NextQuestion(ctx context.Context, pc expert.PromptContext) (expert.QuestionResult, error) {
	g.lastContext = pc
	return expert.QuestionResult{Text: "How have you been since the last visit?"}, nil
}

type fixedRecordSource struct {
	requestedID string
	record      string
}

func (s *fixedRecordSource) PreviousRecord(ctx context.Context, patientID string) (string, error) {
	s.requestedID = patientID
	return s.record, nil
}

func TestFollowupStartLoadsPreviousRecordByPatientID(t *testing.T) {
	sessions := session.NewStore(time.Hour)
	sess := sessions.Create()
	_, err := sessions.Update(sess.ID, func(s *session.Session) {
		s.Patient = &session.PatientInfo{
			PatientID: "patient-7",
			Name:      "Ravi",
			Age:       40,
			Gender:    "Male",
		}
	})
	require.NoError(t, err)

	gen := &capturingGenerator{}
	svc := NewService(NewMemoryStore(time.Hour), gen, FollowupPolicy(6, 3, 4))
	records := &fixedRecordSource{record: "Chief complaint: knee pain\nDiagnosis: sprain\n"}

	router := chi.NewRouter()
	router.Route("/api/followup", NewHandler(svc, sessions, records).RegisterRoutes)

	req := httptest.NewRequest(http.MethodPost, "/api/followup/start-interview",
		strings.NewReader(`{"session_id":"`+sess.ID+`"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// Lookups key on the durable patient id, not the per-visit session id.
	assert.Equal(t, "patient-7", records.requestedID)
	assert.Contains(t, gen.lastContext.PreviousRecord, "knee pain")
}

func TestStatusRouteReturnsSnapshot(t *testing.T) {
	sessions := session.NewStore(time.Hour)
	svc := NewService(NewMemoryStore(time.Hour), &capturingGenerator{}, FirstVisitPolicy(6, 2))
	_, err := svc.Start(context.Background(), "s1", testPatient())
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Route("/api/medical", NewHandler(svc, sessions, nil).RegisterRoutes)

	req := httptest.NewRequest(http.MethodGet, "/api/medical/interview/s1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ACTIVE"`)
}
