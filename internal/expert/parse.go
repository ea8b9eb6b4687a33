package expert

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// ParseStatus records which strategy in the tolerant parsing chain
// succeeded. Exposed for logging and tests only.
type ParseStatus string

const (
	ParseStrictJSON ParseStatus = "strict_json"
	ParseFencedJSON ParseStatus = "fenced_json"
	ParseRegex      ParseStatus = "regex"
	ParseDefaults   ParseStatus = "defaults"
)

var (
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

	deptPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"recommended_department":\s*"([^"]+)"`),
		regexp.MustCompile(`(?i)recommended_department[:\s]+([A-Za-z ]+)(?:\n|,|\})`),
		regexp.MustCompile(`(?i)department[:\s]+([A-Za-z ]+)(?:\n|,|\})`),
		regexp.MustCompile(`(?i)(Orthopedics?|Cardiology|Urology|Pediatrics?|Diabetologist|General Medicine)`),
	}

	diagnosisRe  = regexp.MustCompile(`"possible_diagnosis":\s*"([^"]*)"`)
	historyRe    = regexp.MustCompile(`"investigative_history":\s*"([^"]*)"`)
	confidenceRe = regexp.MustCompile(`"confidence_level":\s*(\d+)`)
)

// ParseAssessment extracts a structured assessment from a raw model reply.
// Strategies are tried in order: strict JSON, a fenced ```json block, then
// per-field regex extraction. Whatever cannot be recovered falls back to
// safe defaults; the function never fails.
func ParseAssessment(raw string) (Assessment, ParseStatus) {
	assessment := Assessment{
		InvestigativeHistory:     raw,
		PossibleDiagnosis:        "Assessment based on interview responses",
		ConfidenceLevel:          70,
		DoctorComparisonAnalysis: "Based on symptoms and patient responses",
	}

	trimmed := strings.TrimSpace(raw)

	var parsed Assessment
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		fillAssessment(&assessment, parsed)
		return assessment, ParseStrictJSON
	}

	if m := fencedJSONRe.FindStringSubmatch(trimmed); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &parsed); err == nil {
			fillAssessment(&assessment, parsed)
			return assessment, ParseFencedJSON
		}
	}

	status := ParseDefaults
	if m := historyRe.FindStringSubmatch(raw); m != nil {
		assessment.InvestigativeHistory = m[1]
		status = ParseRegex
	}
	if m := diagnosisRe.FindStringSubmatch(raw); m != nil {
		assessment.PossibleDiagnosis = m[1]
		status = ParseRegex
	}
	if m := confidenceRe.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			assessment.ConfidenceLevel = v
			status = ParseRegex
		}
	}
	if dept := ExtractDepartment(raw); dept != "" {
		assessment.RecommendedDepartment = dept
		status = ParseRegex
	}
	return assessment, status
}

func fillAssessment(dst *Assessment, src Assessment) {
	if src.InvestigativeHistory != "" {
		dst.InvestigativeHistory = src.InvestigativeHistory
	}
	if src.PossibleDiagnosis != "" {
		dst.PossibleDiagnosis = src.PossibleDiagnosis
	}
	if src.ConfidenceLevel != 0 {
		dst.ConfidenceLevel = src.ConfidenceLevel
	} else {
		// A structured reply that omits its confidence gets the neutral
		// midpoint, not the optimistic free-text default.
		dst.ConfidenceLevel = 50
	}
	dst.RecommendedDepartment = src.RecommendedDepartment
	dst.RecommendedDoctor = src.RecommendedDoctor
	if src.DoctorComparisonAnalysis != "" {
		dst.DoctorComparisonAnalysis = src.DoctorComparisonAnalysis
	}
}

// ExtractDepartment pulls a department name out of free text when JSON
// parsing did not yield one. Returns "" when nothing plausible is found.
func ExtractDepartment(raw string) string {
	for _, re := range deptPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// ExtractQuestion unwraps a question that may arrive as plain text, bare
// JSON, or a fenced JSON block. On any parse failure the raw text is
// returned untouched.
func ExtractQuestion(raw string) string {
	trimmed := strings.TrimSpace(raw)

	var payload struct {
		Question string `json:"question"`
	}

	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil && payload.Question != "" {
			return payload.Question
		}
	}

	if strings.HasPrefix(trimmed, "```") {
		if m := fencedJSONRe.FindStringSubmatch(trimmed); m != nil {
			if err := json.Unmarshal([]byte(m[1]), &payload); err == nil && payload.Question != "" {
				return payload.Question
			}
		}
	}

	return trimmed
}
