package prescreening

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"medical-prescreening/internal/interview"
)

const maxSymptoms = 5

// symptomKeywords is the scan list for the best-effort symptom miner. This
// is keyword spotting, not clinical NLP; deterministic output for identical
// input is the only guarantee.
var symptomKeywords = []string{
	"pain", "ache", "hurt", "sore", "tender",
	"swelling", "swollen", "inflammation", "bloated",
	"fever", "temperature", "chills",
	"nausea", "vomiting", "dizzy", "headache",
	"cough", "breathless", "shortness of breath",
	"fatigue", "tired", "weakness", "exhausted",
	"bleeding", "discharge", "rash", "itching",
	"cramping", "spasms", "stiffness", "numbness",
}

var bodyParts = []string{"knee", "back", "chest", "head", "stomach", "leg", "arm", "neck"}

var complaintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)presents with ([^.]+)`),
	regexp.MustCompile(`(?i)chief complaint[:\s]+([^.]+)`),
	regexp.MustCompile(`(?i)complains of ([^.]+)`),
	regexp.MustCompile(`(?i)reports ([^.]+)`),
	regexp.MustCompile(`(?i)experiencing ([^.]+)`),
}

var diagnosisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)possible_diagnosis:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)likely experiencing ([^.]+)`),
	regexp.MustCompile(`(?i)diagnosis[:\s]+([^\n]+)`),
	regexp.MustCompile(`(?i)condition[:\s]+([^\n]+)`),
}

var (
	diagnosisPrefixRe = regexp.MustCompile(`(?i)^(the patient is|patient is|likely|probable|possible)\s*`)
	whitespaceRe      = regexp.MustCompile(`\s+`)
)

// ExtractSymptoms mines up to five symptom phrases from the transcript:
// keyword hits in answers keep two words of surrounding context, and a body
// part named in a question alongside a complaint word contributes
// "{part} pain". Order of first occurrence, deduplicated.
func ExtractSymptoms(transcript []interview.QuestionAnswer) []string {
	var symptoms []string
	seen := map[string]bool{}

	add := func(phrase string) {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" || seen[phrase] {
			return
		}
		seen[phrase] = true
		symptoms = append(symptoms, phrase)
	}

	for _, qa := range transcript {
		answer := strings.ToLower(qa.Answer)
		question := strings.ToLower(qa.Question)

		for _, keyword := range symptomKeywords {
			if !strings.Contains(answer, keyword) {
				continue
			}
			words := strings.Fields(answer)
			for i, word := range words {
				if !strings.Contains(word, keyword) {
					continue
				}
				start := i - 2
				if start < 0 {
					start = 0
				}
				end := i + 3
				if end > len(words) {
					end = len(words)
				}
				add(strings.Join(words[start:end], " "))
			}
		}

		for _, part := range bodyParts {
			if strings.Contains(question, part) &&
				(strings.Contains(question, "pain") || strings.Contains(question, "hurt") || strings.Contains(question, "problem")) {
				add(part + " pain")
			}
		}
	}

	if len(symptoms) > maxSymptoms {
		symptoms = symptoms[:maxSymptoms]
	}
	return symptoms
}

// ExtractChiefComplaint pulls the chief complaint from the assessment
// narrative via ordered pattern attempts, falling back to the first answer
// when the opening question looks like a chief-complaint question, then to
// a generic default.
func ExtractChiefComplaint(investigativeHistory string, transcript []interview.QuestionAnswer) string {
	for _, re := range complaintPatterns {
		if m := re.FindStringSubmatch(investigativeHistory); m != nil {
			complaint := whitespaceRe.ReplaceAllString(strings.TrimSpace(m[1]), " ")
			return truncate(complaint, 100)
		}
	}

	if len(transcript) > 0 {
		question := strings.ToLower(transcript[0].Question)
		answer := transcript[0].Answer
		if strings.Contains(question, "main") || strings.Contains(question, "chief") || strings.Contains(question, "primary") ||
			strings.Contains(question, "feeling") || strings.Contains(question, "bring you") {
			return truncate(answer, 100)
		}
	}

	return "General consultation"
}

// CleanInvestigativeHistory strips trailing structured-field spillover from
// a narrative that arrived as semi-structured text.
func CleanInvestigativeHistory(raw string) string {
	stopFields := []string{
		"possible_diagnosis:", "confidence_level:", "recommended_department:",
		"recommended_doctor:", "doctor_comparison_analysis:", "suggested_tests:",
	}

	var cleaned []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)

		stop := false
		for _, field := range stopFields {
			if strings.Contains(lower, field) {
				stop = true
				break
			}
		}
		if stop {
			break
		}

		line = strings.TrimSpace(strings.TrimPrefix(line, "investigative_history:"))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.TrimSpace(strings.Join(cleaned, " "))
}

// ExtractDiagnosis recovers a diagnosis line from raw assessment text when
// the structured field carried only the generic placeholder.
func ExtractDiagnosis(raw string) string {
	for _, re := range diagnosisPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			diagnosis := strings.TrimSpace(m[1])
			diagnosis = diagnosisPrefixRe.ReplaceAllString(diagnosis, "")
			return strings.TrimSpace(diagnosis)
		}
	}
	return "Assessment based on interview responses"
}

// BuildInput is everything the record builder needs. All fields come from
// upstream components; nothing is re-derived here except the extracted
// text fields.
type BuildInput struct {
	Patient              interview.PatientContext
	Transcript           []interview.QuestionAnswer
	VisitType            string
	InvestigativeHistory string
	PossibleDiagnosis    string
	SuggestedDepartment  string
	SuggestedDoctor      string
	Diagnostics          map[string][]string
	AIModel              string
}

// Build assembles the immutable pre-screening record. Pure given its input
// apart from the generated id and timestamp.
func Build(in BuildInput) Record {
	history := CleanInvestigativeHistory(in.InvestigativeHistory)

	diagnosis := in.PossibleDiagnosis
	if diagnosis == "" || diagnosis == "Assessment based on interview responses" {
		diagnosis = ExtractDiagnosis(in.InvestigativeHistory)
	}

	diagnostics := in.Diagnostics
	if diagnostics == nil {
		diagnostics = map[string][]string{}
	}

	return Record{
		ID:                         uuid.New().String(),
		PatientID:                  in.Patient.ID,
		PatientName:                in.Patient.Name,
		Timestamp:                  time.Now().UTC(),
		VisitType:                  in.VisitType,
		PatientChosenDoctor:        in.Patient.ChosenDoctor,
		SuggestedDepartment:        in.SuggestedDepartment,
		SuggestedDoctor:            in.SuggestedDoctor,
		InvestigativeHistory:       history,
		PossibleDiagnosis:          diagnosis,
		PreConsultationDiagnostics: diagnostics,
		AIModelUsed:                in.AIModel,
		ChiefComplaint:             ExtractChiefComplaint(in.InvestigativeHistory, in.Transcript),
		SymptomsMentioned:          ExtractSymptoms(in.Transcript),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
