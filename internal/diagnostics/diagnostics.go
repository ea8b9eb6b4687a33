// Package diagnostics suggests pre-consultation tests by matching an
// assessment against a curated condition catalogue. Everything here is
// best-effort: an empty result is a valid outcome, never an error.
package diagnostics

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"medical-prescreening/internal/expert"
	"medical-prescreening/internal/logger"
)

// Condition is one catalogue row: a condition, its sub-condition and the
// recommended pre-consultation diagnostics text.
type Condition struct {
	Condition    string
	SubCondition string
	Diagnostics  string
}

// Result groups suggested tests by category (Imaging, Blood Tests, ...).
type Result struct {
	MatchedCondition string              `json:"matched_condition,omitempty"`
	Diagnostics      map[string][]string `json:"diagnostics"`
	Explanation      string              `json:"explanation,omitempty"`
}

func emptyResult(explanation string) Result {
	return Result{Diagnostics: map[string][]string{}, Explanation: explanation}
}

// LoadConditions reads the diagnostics catalogue CSV with columns
// Condition, Sub-Condition and Pre-Consultation (Diagnostics). Rows with
// any empty column are skipped.
func LoadConditions(path string) ([]Condition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open diagnostics csv: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read diagnostics csv: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("diagnostics csv %s is empty", path)
	}

	header := map[string]int{}
	for i, col := range rows[0] {
		header[strings.TrimSpace(col)] = i
	}
	condIdx, ok1 := header["Condition"]
	subIdx, ok2 := header["Sub-Condition"]
	diagIdx, ok3 := header["Pre-Consultation (Diagnostics)"]
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("diagnostics csv missing required columns")
	}

	var conditions []Condition
	for _, row := range rows[1:] {
		if len(row) <= condIdx || len(row) <= subIdx || len(row) <= diagIdx {
			continue
		}
		c := Condition{
			Condition:    strings.TrimSpace(row[condIdx]),
			SubCondition: strings.TrimSpace(row[subIdx]),
			Diagnostics:  strings.TrimSpace(row[diagIdx]),
		}
		if c.Condition == "" || c.SubCondition == "" || c.Diagnostics == "" {
			continue
		}
		conditions = append(conditions, c)
	}
	return conditions, nil
}

// Service matches assessments against the catalogue through the LLM.
type Service struct {
	client     expert.Completer
	conditions []Condition
}

func NewService(client expert.Completer, conditions []Condition) *Service {
	return &Service{client: client, conditions: conditions}
}

// Match finds pre-consultation diagnostics for a diagnosis and interview
// summary. Unavailability of the backend or the catalogue degrades to an
// empty result.
func (s *Service) Match(ctx context.Context, possibleDiagnosis, investigativeHistory string) Result {
	if s.client == nil || len(s.conditions) == 0 {
		return emptyResult("Diagnostics service unavailable")
	}

	raw, err := s.client.Complete(ctx, "", s.matchingPrompt(possibleDiagnosis, investigativeHistory))
	if err != nil {
		logger.Log.WithError(err).Warn("diagnostics matching failed")
		return emptyResult("")
	}

	return parseResult(raw)
}

func (s *Service) matchingPrompt(diagnosis, history string) string {
	var sb strings.Builder
	sb.WriteString("You are a medical diagnostics expert. Match the patient's possible diagnosis with pre-consultation diagnostic recommendations.\n\n")
	fmt.Fprintf(&sb, "PATIENT INFORMATION:\n- Possible Diagnosis: %s\n- Patient History: %s\n\n", diagnosis, history)
	sb.WriteString("AVAILABLE DIAGNOSTIC CONDITIONS:\n")
	for _, c := range s.conditions {
		fmt.Fprintf(&sb, "- %s -> %s: %s\n", c.Condition, c.SubCondition, c.Diagnostics)
	}
	sb.WriteString(`
INSTRUCTIONS:
1. Find the BEST MATCHING condition/sub-condition from the list above.
2. Use fuzzy matching on similar medical terms, symptoms or conditions, focusing on the sub-condition.
3. Group the matched diagnostics by type (Imaging, Blood Tests, Clinical Tests, Other).
4. Return ONLY concise test names without explanations.

RESPONSE FORMAT (JSON only):
{"matched_condition": "Condition -> Sub-Condition" or null, "diagnostics": {"Imaging": ["X-Ray"], "Blood Tests": ["CBC"]}}

If no relevant match is found return {"matched_condition": null, "diagnostics": {}}.`)
	return sb.String()
}

// parseResult pulls the first {...} span out of the reply and decodes it.
// Anything unparseable degrades to an empty result.
func parseResult(raw string) Result {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return emptyResult("")
	}

	var parsed struct {
		MatchedCondition string              `json:"matched_condition"`
		Diagnostics      map[string][]string `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		logger.Log.WithError(err).Debug("diagnostics response not parseable")
		return emptyResult("")
	}

	result := Result{
		MatchedCondition: parsed.MatchedCondition,
		Diagnostics:      parsed.Diagnostics,
	}
	if result.Diagnostics == nil {
		result.Diagnostics = map[string][]string{}
	}
	return result
}
