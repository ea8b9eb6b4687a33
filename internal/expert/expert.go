// Package expert talks to the LLM backends that drive the adaptive
// interview: question generation and final assessment synthesis.
package expert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medical-prescreening/internal/logger"
)

// Sentinel phrases the model emits when it decides the interview can end
// early. They are stripped here so downstream consumers only ever see
// patient-facing text.
const (
	readySentinel    = "ASSESSMENT_READY"
	completeSentinel = "INTERVIEW_COMPLETE"
)

var ErrEmptyResponse = errors.New("empty model response")

// Completer is the minimal LLM surface the generators need. Both the Gemini
// and OpenAI clients implement it.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// QuestionResult is one generated interview question. Ready is set when the
// model signalled that it has enough information; Text then still carries
// any trailing question the model produced, which may be empty.
type QuestionResult struct {
	Text string
	// Ready reports the model-side readiness signal, already stripped
	// from Text.
	Ready bool
	// ContinuationToken threads provider-specific conversation state
	// between calls. Empty for providers without one.
	ContinuationToken string
}

// Assessment is the structured outcome of a completed interview.
type Assessment struct {
	InvestigativeHistory     string `json:"investigative_history"`
	PossibleDiagnosis        string `json:"possible_diagnosis"`
	ConfidenceLevel          int    `json:"confidence_level"`
	RecommendedDepartment    string `json:"recommended_department"`
	RecommendedDoctor        string `json:"recommended_doctor"`
	DoctorComparisonAnalysis string `json:"doctor_comparison_analysis"`
}

// PromptContext carries everything the templates can reference.
type PromptContext struct {
	PatientName      string
	PatientAge       int
	PatientGender    string
	ChosenDoctor     string
	ChosenDepartment string
	QuestionNumber   int
	MaxQuestions     int
	UnknownCount     int
	History          string
	DoctorsList      string
	PreviousRecord   string
	// ContinuationToken is prior conversation state from the backend,
	// if any. Opaque to callers.
	ContinuationToken string
}

// QuestionGenerator produces the next interview question.
type QuestionGenerator interface {
	NextQuestion(ctx context.Context, pc PromptContext) (QuestionResult, error)
}

// AssessmentGenerator produces the final structured assessment.
type AssessmentGenerator interface {
	GenerateAssessment(ctx context.Context, pc PromptContext) (Assessment, error)
}

// Generator implements both generation interfaces on top of a Completer.
// Followup selects the follow-up prompt set.
type Generator struct {
	client   Completer
	followup bool
}

func NewGenerator(client Completer) *Generator {
	return &Generator{client: client}
}

func NewFollowupGenerator(client Completer) *Generator {
	return &Generator{client: client, followup: true}
}

func (g *Generator) NextQuestion(ctx context.Context, pc PromptContext) (QuestionResult, error) {
	system, user := questionPrompts(pc, g.followup)

	raw, err := g.client.Complete(ctx, system, user)
	if err != nil {
		return QuestionResult{}, fmt.Errorf("generate question: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return QuestionResult{}, fmt.Errorf("generate question: %w", ErrEmptyResponse)
	}

	text := ExtractQuestion(raw)

	result := QuestionResult{Text: text, ContinuationToken: pc.ContinuationToken}
	sentinel := readySentinel
	if g.followup {
		sentinel = completeSentinel
	}
	if strings.Contains(result.Text, sentinel) {
		result.Ready = true
		result.Text = strings.TrimSpace(strings.ReplaceAll(result.Text, sentinel, ""))
	}
	return result, nil
}

func (g *Generator) GenerateAssessment(ctx context.Context, pc PromptContext) (Assessment, error) {
	system, user := assessmentPrompts(pc, g.followup)

	raw, err := g.client.Complete(ctx, system, user)
	if err != nil {
		return Assessment{}, fmt.Errorf("generate assessment: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return Assessment{}, fmt.Errorf("generate assessment: %w", ErrEmptyResponse)
	}

	assessment, status := ParseAssessment(raw)
	logger.Log.WithField("parse_status", status).Debug("assessment parsed")
	return assessment, nil
}
