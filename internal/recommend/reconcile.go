package recommend

import (
	"fmt"

	"medical-prescreening/internal/roster"
)

// RecommendationType classifies the outcome of reconciling the AI-suggested
// department with the patient's pre-chosen doctor.
type RecommendationType string

const (
	// TypeReceptionReferral means no department could be matched; the
	// patient is routed to hospital reception.
	TypeReceptionReferral RecommendationType = "reception_referral"
	// TypeAIDepartment means the AI department matched and no (valid)
	// patient doctor choice alters it.
	TypeAIDepartment RecommendationType = "ai_department"
	// TypePerfectMatch means the patient's chosen doctor works in the
	// AI-matched department.
	TypePerfectMatch RecommendationType = "perfect_match"
	// TypeConflictResolution means the patient's chosen doctor and the AI
	// suggestion point at different departments; both options are surfaced.
	TypeConflictResolution RecommendationType = "conflict_resolution"
	// TypePatientChoiceOnly means the AI department did not match but the
	// patient's chosen doctor exists in the roster.
	TypePatientChoiceOnly RecommendationType = "patient_choice_only"
)

// Result is the full reconciliation outcome handed to callers for display
// and persistence.
type Result struct {
	AISuggestedDepartment  string             `json:"ai_suggested_department"`
	DepartmentAvailable    bool               `json:"department_available"`
	MatchedDepartment      string             `json:"matched_department,omitempty"`
	RecommendedDoctors     []roster.Doctor    `json:"recommended_doctors"`
	PatientChosenDoctor    string             `json:"patient_chosen_doctor,omitempty"`
	PatientDoctorAvailable bool               `json:"patient_doctor_available"`
	PatientDoctorInfo      *roster.Doctor     `json:"patient_doctor_info,omitempty"`
	RecommendationType     RecommendationType `json:"recommendation_type"`
	Message                string             `json:"message"`
}

// Reconciler resolves free-text AI department suggestions against the
// hospital roster and the patient's own doctor choice.
type Reconciler struct {
	roster *roster.Roster
}

func NewReconciler(r *roster.Roster) *Reconciler {
	return &Reconciler{roster: r}
}

// Reconcile classifies the (AI suggestion, patient choice) pair into one of
// the five recommendation types. patientChosenDoctor may be empty. A failed
// department match is a valid business outcome, never an error.
func (rc *Reconciler) Reconcile(aiSuggestedDept, patientChosenDoctor string) Result {
	result := Result{
		AISuggestedDepartment: aiSuggestedDept,
		RecommendedDoctors:    []roster.Doctor{},
		PatientChosenDoctor:   patientChosenDoctor,
		RecommendationType:    TypeReceptionReferral,
		Message:               "Please visit hospital reception for general consultation",
	}

	matchedDept, matched := rc.roster.MatchDepartment(aiSuggestedDept)
	if matched {
		result.DepartmentAvailable = true
		result.MatchedDepartment = matchedDept
		result.RecommendedDoctors = rc.roster.DoctorsIn(matchedDept)
		result.RecommendationType = TypeAIDepartment
		result.Message = fmt.Sprintf("Proceed to %s department", matchedDept)
	} else {
		result.RecommendationType = TypeReceptionReferral
		result.Message = "Please visit hospital reception"
	}

	if patientChosenDoctor == "" {
		return result
	}

	doc, found := rc.roster.FindDoctorByName(patientChosenDoctor)
	if !found {
		// Unknown doctor: keep the department-based outcome.
		return result
	}

	result.PatientDoctorAvailable = true
	result.PatientDoctorInfo = &doc

	switch {
	case matched && doc.Department == matchedDept:
		result.RecommendationType = TypePerfectMatch
		result.Message = fmt.Sprintf("Excellent choice! Proceed to Dr. %s in %s", doc.Name, doc.Department)
	case matched && doc.Department != matchedDept:
		result.RecommendationType = TypeConflictResolution
		result.Message = fmt.Sprintf(
			"Two options available: 1) Your choice: Dr. %s (%s) 2) AI recommendation: %s department",
			doc.Name, doc.Department, matchedDept)
	default:
		result.RecommendationType = TypePatientChoiceOnly
		result.Message = fmt.Sprintf("Proceed to your chosen doctor: Dr. %s in %s", doc.Name, doc.Department)
	}
	return result
}

// ComparisonAnalysis renders the longer human-readable explanation of a
// reconciliation result. Template-based so no extra model round trip is
// needed for formatting.
func ComparisonAnalysis(res Result) string {
	switch res.RecommendationType {
	case TypePerfectMatch:
		return fmt.Sprintf(
			"Perfect Match: Your chosen doctor Dr. %s in %s aligns perfectly with the medical assessment. This is an excellent choice for your condition.",
			res.PatientDoctorInfo.Name, res.PatientDoctorInfo.Department)
	case TypeConflictResolution:
		analysis := fmt.Sprintf("Based on your symptoms, %s specialist is suggested. You can visit both doctors:\n", res.MatchedDepartment)
		analysis += fmt.Sprintf("- Your choice: Dr. %s (%s)\n", res.PatientDoctorInfo.Name, res.PatientDoctorInfo.Department)
		analysis += "- AI recommendation: "
		if len(res.RecommendedDoctors) > 0 {
			analysis += fmt.Sprintf("Dr. %s (%s)", res.RecommendedDoctors[0].Name, res.MatchedDepartment)
		} else {
			analysis += fmt.Sprintf("%s specialist", res.MatchedDepartment)
		}
		analysis += "\n\nBoth consultations may provide comprehensive care for your condition."
		return analysis
	case TypePatientChoiceOnly:
		return fmt.Sprintf(
			"Patient Choice: Your selected doctor Dr. %s in %s is available and suitable for consultation.",
			res.PatientDoctorInfo.Name, res.PatientDoctorInfo.Department)
	case TypeAIDepartment:
		if len(res.RecommendedDoctors) > 0 {
			return fmt.Sprintf(
				"AI Recommendation: Based on your symptoms, %s department is most suitable. Dr. %s is available for consultation.",
				res.MatchedDepartment, res.RecommendedDoctors[0].Name)
		}
		return fmt.Sprintf("AI Recommendation: %s department is recommended for your condition.", res.MatchedDepartment)
	default:
		return "General Consultation: The recommended specialty department is not currently available. Please visit hospital reception for general consultation and proper referral to the appropriate specialist."
	}
}
