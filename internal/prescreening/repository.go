package prescreening

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"medical-prescreening/internal/logger"
)

// Repository persists pre-screening records.
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	GetLatestByPatient(ctx context.Context, patientID string) (*Record, error)
}

type postgresRepo struct {
	db *sql.DB
}

// NewRepository returns a Postgres-backed repository. A nil db disables
// persistence: saves become logged no-ops and lookups report no record,
// keeping the patient-facing flow alive without a database.
func NewRepository(db *sql.DB) Repository {
	if db == nil {
		return noopRepo{}
	}
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Save(ctx context.Context, rec *Record) error {
	diagnosticsJSON, err := json.Marshal(rec.PreConsultationDiagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}
	symptomsJSON, err := json.Marshal(rec.SymptomsMentioned)
	if err != nil {
		return fmt.Errorf("marshal symptoms: %w", err)
	}

	query := `
		INSERT INTO prescreening_records (
			id, patient_id, patient_name, created_at, type_of_visit,
			patient_chosen_doctor, suggested_department, suggested_doctor,
			investigative_history, possible_diagnosis,
			pre_consultation_diagnostics, ai_model_used,
			chief_complaint, symptoms_mentioned
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.PatientID, rec.PatientName, rec.Timestamp, rec.VisitType,
		rec.PatientChosenDoctor, rec.SuggestedDepartment, rec.SuggestedDoctor,
		rec.InvestigativeHistory, rec.PossibleDiagnosis,
		diagnosticsJSON, rec.AIModelUsed,
		rec.ChiefComplaint, symptomsJSON)
	if err != nil {
		return fmt.Errorf("insert prescreening record: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetLatestByPatient(ctx context.Context, patientID string) (*Record, error) {
	query := `
		SELECT id, patient_id, patient_name, created_at, type_of_visit,
			patient_chosen_doctor, suggested_department, suggested_doctor,
			investigative_history, possible_diagnosis,
			pre_consultation_diagnostics, ai_model_used,
			chief_complaint, symptoms_mentioned
		FROM prescreening_records
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, patientID)

	var rec Record
	var diagnosticsJSON, symptomsJSON []byte
	err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.PatientName, &rec.Timestamp, &rec.VisitType,
		&rec.PatientChosenDoctor, &rec.SuggestedDepartment, &rec.SuggestedDoctor,
		&rec.InvestigativeHistory, &rec.PossibleDiagnosis,
		&diagnosticsJSON, &rec.AIModelUsed,
		&rec.ChiefComplaint, &symptomsJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query prescreening record: %w", err)
	}

	if len(diagnosticsJSON) > 0 {
		if err := json.Unmarshal(diagnosticsJSON, &rec.PreConsultationDiagnostics); err != nil {
			return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
		}
	}
	if len(symptomsJSON) > 0 {
		if err := json.Unmarshal(symptomsJSON, &rec.SymptomsMentioned); err != nil {
			return nil, fmt.Errorf("unmarshal symptoms: %w", err)
		}
	}
	return &rec, nil
}

type noopRepo struct{}

func (noopRepo) Save(ctx context.Context, rec *Record) error {
	logger.Log.WithField("record_id", rec.ID).Info("persistence disabled, record not stored")
	return nil
}

func (noopRepo) GetLatestByPatient(ctx context.Context, patientID string) (*Record, error) {
	return nil, nil
}
