package prescreening

import (
	"context"
	"fmt"
	"strings"
)

// RecordSource formats a patient's latest stored record as the previous
// medical record summary used by follow-up interviews.
type RecordSource struct {
	repo Repository
}

func NewRecordSource(repo Repository) *RecordSource {
	return &RecordSource{repo: repo}
}

func (s *RecordSource) PreviousRecord(ctx context.Context, patientID string) (string, error) {
	if patientID == "" {
		return "", nil
	}
	rec, err := s.repo.GetLatestByPatient(ctx, patientID)
	if err != nil {
		return "", fmt.Errorf("load previous record: %w", err)
	}
	if rec == nil {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Visit date: %s\n", rec.Timestamp.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Chief complaint: %s\n", rec.ChiefComplaint)
	fmt.Fprintf(&sb, "Diagnosis: %s\n", rec.PossibleDiagnosis)
	if rec.SuggestedDepartment != "" {
		fmt.Fprintf(&sb, "Department: %s\n", rec.SuggestedDepartment)
	}
	if len(rec.SymptomsMentioned) > 0 {
		fmt.Fprintf(&sb, "Symptoms: %s\n", strings.Join(rec.SymptomsMentioned, ", "))
	}
	if rec.InvestigativeHistory != "" {
		fmt.Fprintf(&sb, "Summary: %s\n", rec.InvestigativeHistory)
	}
	return sb.String(), nil
}
