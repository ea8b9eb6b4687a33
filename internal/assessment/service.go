// Package assessment orchestrates the post-interview flow: final AI
// assessment, department reconciliation, diagnostics lookup and the
// pre-screening record.
package assessment

import (
	"context"
	"fmt"
	"strings"

	"medical-prescreening/internal/diagnostics"
	"medical-prescreening/internal/expert"
	"medical-prescreening/internal/interview"
	"medical-prescreening/internal/logger"
	"medical-prescreening/internal/prescreening"
	"medical-prescreening/internal/recommend"
	"medical-prescreening/internal/roster"
	"medical-prescreening/internal/session"
)

// Banding thresholds for the confidence tiers. Fixed policy, not derived
// from the model.
const (
	highConfidenceMin   = 70
	mediumConfidenceMin = 40
)

const fallbackDepartment = "General Medicine"

// Result is the combined assessment outcome returned to the caller.
type Result struct {
	Success                  bool                `json:"success"`
	Message                  string              `json:"message"`
	SessionID                string              `json:"session_id"`
	Assessment               expert.Assessment   `json:"assessment"`
	ConfidencePercent        int                 `json:"confidence_percent"`
	ConfidenceLevel          string              `json:"confidence_level"`
	RecommendedAction        string              `json:"recommended_action"`
	RecommendedDoctor        string              `json:"recommended_doctor"`
	RecommendedDepartment    string              `json:"recommended_department"`
	DoctorComparisonAnalysis string              `json:"doctor_comparison_analysis"`
	Recommendation           recommend.Result    `json:"department_recommendations"`
	Diagnostics              diagnostics.Result  `json:"diagnostics"`
	Record                   prescreening.Record `json:"prescreening_record"`
}

// Service wires the post-interview collaborators together. Interviews and
// generators come in first-visit and follow-up flavors; everything else is
// shared.
type Service struct {
	firstVisit    *interview.Service
	followup      *interview.Service
	firstVisitGen expert.AssessmentGenerator
	followupGen   expert.AssessmentGenerator
	reconciler    *recommend.Reconciler
	diagnostics   *diagnostics.Service
	repo          prescreening.Repository
	sessions      *session.Store
	roster        *roster.Roster
	aiModel       string
}

func NewService(
	firstVisit, followup *interview.Service,
	firstVisitGen, followupGen expert.AssessmentGenerator,
	reconciler *recommend.Reconciler,
	diag *diagnostics.Service,
	repo prescreening.Repository,
	sessions *session.Store,
	r *roster.Roster,
	aiModel string,
) *Service {
	return &Service{
		firstVisit:    firstVisit,
		followup:      followup,
		firstVisitGen: firstVisitGen,
		followupGen:   followupGen,
		reconciler:    reconciler,
		diagnostics:   diag,
		repo:          repo,
		sessions:      sessions,
		roster:        r,
		aiModel:       aiModel,
	}
}

// Generate produces the final assessment for a completed interview of the
// given kind. Generation and parsing failures degrade to a valid
// low-confidence assessment; only missing sessions and empty transcripts
// surface as errors.
func (s *Service) Generate(ctx context.Context, sessionID string, kind interview.Kind) (Result, error) {
	ivs, gen := s.firstVisit, s.firstVisitGen
	if kind == interview.KindFollowup {
		ivs, gen = s.followup, s.followupGen
	}

	patient, transcript, err := ivs.CompletedTranscript(sessionID)
	if err != nil {
		return Result{}, err
	}

	visitType, chosenDoctor := s.visitContext(sessionID, kind, patient)

	assessment := s.generateAssessment(ctx, gen, patient, transcript, sessionID)

	dept := strings.TrimSpace(assessment.RecommendedDepartment)
	if dept == "" {
		dept = fallbackDepartment
	}

	// Patients who explicitly asked for AI help get a pure AI routing;
	// any earlier doctor choice is ignored to avoid manufactured
	// conflicts.
	if visitType == "ai-help" {
		chosenDoctor = ""
	}

	rec := s.reconciler.Reconcile(dept, chosenDoctor)
	finalDoctor, finalDept := finalRouting(rec, dept)

	diagResult := s.diagnostics.Match(ctx, assessment.PossibleDiagnosis, assessment.InvestigativeHistory)

	record := prescreening.Build(prescreening.BuildInput{
		Patient:              patient,
		Transcript:           transcript,
		VisitType:            visitType,
		InvestigativeHistory: assessment.InvestigativeHistory,
		PossibleDiagnosis:    assessment.PossibleDiagnosis,
		SuggestedDepartment:  finalDept,
		SuggestedDoctor:      finalDoctor,
		Diagnostics:          diagResult.Diagnostics,
		AIModel:              s.aiModel,
	})

	if err := s.repo.Save(ctx, &record); err != nil {
		// Persistence failure must not dead-end the patient flow.
		logger.Log.WithError(err).WithField("record_id", record.ID).Error("failed to store prescreening record")
	}
	level, action := confidenceBanding(assessment.ConfidenceLevel, finalDept)

	result := Result{
		Success:                  true,
		Message:                  "Medical assessment generated successfully",
		SessionID:                sessionID,
		Assessment:               assessment,
		ConfidencePercent:        assessment.ConfidenceLevel,
		ConfidenceLevel:          level,
		RecommendedAction:        action,
		RecommendedDoctor:        finalDoctor,
		RecommendedDepartment:    finalDept,
		DoctorComparisonAnalysis: recommend.ComparisonAnalysis(rec),
		Recommendation:           rec,
		Diagnostics:              diagResult,
		Record:                   record,
	}
	s.stashInSession(sessionID, result)
	return result, nil
}

// generateAssessment calls the generator and substitutes the degraded
// default on failure.
func (s *Service) generateAssessment(ctx context.Context, gen expert.AssessmentGenerator, patient interview.PatientContext, transcript []interview.QuestionAnswer, sessionID string) expert.Assessment {
	pc := expert.PromptContext{
		PatientName:      patient.Name,
		PatientAge:       patient.Age,
		PatientGender:    patient.Gender,
		ChosenDoctor:     patient.ChosenDoctor,
		ChosenDepartment: patient.ChosenDepartment,
		History:          formatTranscript(transcript),
		DoctorsList:      s.doctorsList(),
		PreviousRecord:   patient.PreviousRecord,
	}

	assessment, err := gen.GenerateAssessment(ctx, pc)
	if err != nil {
		logger.Log.WithError(err).WithField("session_id", sessionID).Error("assessment generation failed, using degraded default")
		return expert.Assessment{
			InvestigativeHistory:     "Assessment completed based on patient responses",
			PossibleDiagnosis:        "Further evaluation recommended due to processing error",
			ConfidenceLevel:          30,
			RecommendedDepartment:    fallbackDepartment,
			DoctorComparisonAnalysis: "Error occurred during assessment",
		}
	}
	return assessment
}

// visitContext derives the visit type and effective doctor choice from the
// umbrella patient session. Without a session the interview's own patient
// context decides.
func (s *Service) visitContext(sessionID string, kind interview.Kind, patient interview.PatientContext) (visitType, chosenDoctor string) {
	if kind == interview.KindFollowup {
		visitType = "follow-up"
	} else {
		visitType = "ai-help"
	}
	chosenDoctor = patient.ChosenDoctor

	sess, err := s.sessions.Get(sessionID)
	if err != nil || sess.SelectedDoctor == nil {
		return visitType, chosenDoctor
	}
	if sess.SelectedDoctor.VisitType != "" {
		visitType = sess.SelectedDoctor.VisitType
	}
	if sess.SelectedDoctor.DoctorName != "" {
		chosenDoctor = sess.SelectedDoctor.DoctorName
	}
	return visitType, chosenDoctor
}

func (s *Service) stashInSession(sessionID string, result Result) {
	_, err := s.sessions.Update(sessionID, func(sess *session.Session) {
		if sess.Prescreening == nil {
			sess.Prescreening = map[string]any{}
		}
		sess.Prescreening["record"] = result.Record
		sess.Prescreening["recommendation"] = result.Recommendation
		sess.Prescreening["assessment"] = result
	})
	if err != nil {
		logger.Log.WithField("session_id", sessionID).Debug("no patient session to update with assessment")
	}
}

func (s *Service) doctorsList() string {
	var sb strings.Builder
	for _, dept := range s.roster.Departments() {
		for _, d := range s.roster.DoctorsIn(dept) {
			fmt.Fprintf(&sb, "- Dr. %s (%s)\n", d.Name, dept)
		}
	}
	return sb.String()
}

// finalRouting resolves the single doctor/department pair surfaced to the
// patient from the reconciliation result.
func finalRouting(rec recommend.Result, aiSuggestedDept string) (doctor, department string) {
	department = rec.MatchedDepartment
	if department == "" {
		department = aiSuggestedDept
	}
	doctor = "Visit hospital reception"

	switch rec.RecommendationType {
	case recommend.TypePerfectMatch, recommend.TypePatientChoiceOnly:
		doctor = rec.PatientDoctorInfo.Name
		department = rec.PatientDoctorInfo.Department
	case recommend.TypeAIDepartment:
		if len(rec.RecommendedDoctors) > 0 {
			doctor = rec.RecommendedDoctors[0].Name
			department = rec.MatchedDepartment
		}
	case recommend.TypeReceptionReferral:
		department = "Reception"
	case recommend.TypeConflictResolution:
		pd := rec.PatientDoctorInfo
		if len(rec.RecommendedDoctors) > 0 {
			doctor = fmt.Sprintf("Dr. %s (%s) or Dr. %s (%s)",
				pd.Name, pd.Department, rec.RecommendedDoctors[0].Name, rec.MatchedDepartment)
		} else {
			doctor = fmt.Sprintf("Dr. %s (%s) or %s specialist",
				pd.Name, pd.Department, rec.MatchedDepartment)
		}
	}
	return doctor, department
}

func confidenceBanding(percent int, department string) (level, action string) {
	switch {
	case percent >= highConfidenceMin:
		return "High", fmt.Sprintf("Proceed to %s specialist", department)
	case percent >= mediumConfidenceMin:
		return "Medium", fmt.Sprintf("Consider consultation with %s", department)
	default:
		return "Low", "Visit hospital reception for general consultation"
	}
}

func formatTranscript(transcript []interview.QuestionAnswer) string {
	var sb strings.Builder
	for i, qa := range transcript {
		fmt.Fprintf(&sb, "Q%d: %s\nA%d: %s\n\n", i+1, qa.Question, i+1, qa.Answer)
	}
	return sb.String()
}
