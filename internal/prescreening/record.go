// Package prescreening assembles and stores the final pre-screening record
// produced by a completed interview.
package prescreening

import "time"

// Record is the final artifact of a completed pre-screening flow. It is
// immutable once built.
type Record struct {
	ID                         string              `json:"id"`
	PatientID                  string              `json:"patient_id,omitempty"`
	PatientName                string              `json:"patient_name"`
	Timestamp                  time.Time           `json:"timestamp"`
	VisitType                  string              `json:"type_of_visit"`
	PatientChosenDoctor        string              `json:"patient_chosen_doctor,omitempty"`
	SuggestedDepartment        string              `json:"suggested_department,omitempty"`
	SuggestedDoctor            string              `json:"suggested_doctor,omitempty"`
	InvestigativeHistory       string              `json:"investigative_history"`
	PossibleDiagnosis          string              `json:"possible_diagnosis"`
	PreConsultationDiagnostics map[string][]string `json:"pre_consultation_diagnostics"`
	AIModelUsed                string              `json:"ai_model_used"`
	ChiefComplaint             string              `json:"chief_complaint"`
	SymptomsMentioned          []string            `json:"symptoms_mentioned"`
}
