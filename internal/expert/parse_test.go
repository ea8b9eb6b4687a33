package expert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssessmentStrictJSON(t *testing.T) {
	raw := `{
		"investigative_history": "Patient reports chest pain for two days.",
		"possible_diagnosis": "Possible angina",
		"confidence_level": 85,
		"recommended_department": "Cardiology",
		"recommended_doctor": "Asha Rao",
		"doctor_comparison_analysis": "Matches the patient's choice."
	}`

	a, status := ParseAssessment(raw)

	assert.Equal(t, ParseStrictJSON, status)
	assert.Equal(t, "Possible angina", a.PossibleDiagnosis)
	assert.Equal(t, 85, a.ConfidenceLevel)
	assert.Equal(t, "Cardiology", a.RecommendedDepartment)
}

func TestParseAssessmentFencedJSON(t *testing.T) {
	raw := "Here is the assessment:\n```json\n{\"investigative_history\": \"Knee pain after a fall.\", \"possible_diagnosis\": \"Possible ligament injury\", \"confidence_level\": 72, \"recommended_department\": \"Orthopedics\"}\n```"

	a, status := ParseAssessment(raw)

	assert.Equal(t, ParseFencedJSON, status)
	assert.Equal(t, "Orthopedics", a.RecommendedDepartment)
	assert.Equal(t, 72, a.ConfidenceLevel)
}

func TestParseAssessmentRegexFallback(t *testing.T) {
	raw := `The model rambled. "recommended_department": "Urology", "confidence_level": 55 and some trailing prose.`

	a, status := ParseAssessment(raw)

	assert.Equal(t, ParseRegex, status)
	assert.Equal(t, "Urology", a.RecommendedDepartment)
	assert.Equal(t, 55, a.ConfidenceLevel)
}

func TestParseAssessmentDepartmentNameInProse(t *testing.T) {
	raw := "Given the symptoms the patient should see Cardiology as soon as possible."

	a, status := ParseAssessment(raw)

	assert.Equal(t, ParseRegex, status)
	assert.Equal(t, "Cardiology", a.RecommendedDepartment)
}

func TestParseAssessmentJSONWithoutConfidenceDefaultsToMidpoint(t *testing.T) {
	raw := `{"investigative_history":"knee pain, two weeks","possible_diagnosis":"sprain","recommended_department":"Orthopedics"}`

	a, status := ParseAssessment(raw)

	assert.Equal(t, ParseStrictJSON, status)
	assert.Equal(t, 50, a.ConfidenceLevel)
	assert.Equal(t, "Orthopedics", a.RecommendedDepartment)
}

func TestParseAssessmentDefaults(t *testing.T) {
	raw := "completely unstructured reply with no recognizable fields"

	a, status := ParseAssessment(raw)

	assert.Equal(t, ParseDefaults, status)
	assert.Equal(t, raw, a.InvestigativeHistory)
	assert.Equal(t, 70, a.ConfidenceLevel)
	assert.Empty(t, a.RecommendedDepartment)
}

func TestExtractQuestion(t *testing.T) {
	assert.Equal(t, "How long have you had this pain?",
		ExtractQuestion(`{"question": "How long have you had this pain?"}`))

	assert.Equal(t, "Any fever?",
		ExtractQuestion("```json\n{\"question\": \"Any fever?\"}\n```"))

	assert.Equal(t, "Plain question with no wrapping?",
		ExtractQuestion("  Plain question with no wrapping?  "))

	// Broken JSON falls back to the raw text.
	assert.Equal(t, `{"question": broken`,
		ExtractQuestion(`{"question": broken`))
}

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return s.reply, s.err
}

func TestNextQuestionStripsReadySentinel(t *testing.T) {
	g := NewGenerator(stubCompleter{reply: "ASSESSMENT_READY"})

	res, err := g.NextQuestion(context.Background(), PromptContext{QuestionNumber: 4, MaxQuestions: 6})
	require.NoError(t, err)
	assert.True(t, res.Ready)
	assert.Empty(t, res.Text)
}

func TestNextQuestionFollowupSentinel(t *testing.T) {
	g := NewFollowupGenerator(stubCompleter{reply: "INTERVIEW_COMPLETE"})

	res, err := g.NextQuestion(context.Background(), PromptContext{QuestionNumber: 5, MaxQuestions: 6})
	require.NoError(t, err)
	assert.True(t, res.Ready)
	assert.Empty(t, res.Text)

	// The first-visit sentinel is not honoured in follow-up mode.
	g = NewFollowupGenerator(stubCompleter{reply: "ASSESSMENT_READY"})
	res, err = g.NextQuestion(context.Background(), PromptContext{QuestionNumber: 2, MaxQuestions: 6})
	require.NoError(t, err)
	assert.False(t, res.Ready)
}

func TestNextQuestionUnwrapsJSON(t *testing.T) {
	g := NewGenerator(stubCompleter{reply: `{"question": "Where exactly is the pain?"}`})

	res, err := g.NextQuestion(context.Background(), PromptContext{QuestionNumber: 2, MaxQuestions: 6})
	require.NoError(t, err)
	assert.False(t, res.Ready)
	assert.Equal(t, "Where exactly is the pain?", res.Text)
}

func TestNextQuestionEmptyReplyIsError(t *testing.T) {
	g := NewGenerator(stubCompleter{reply: "   "})

	_, err := g.NextQuestion(context.Background(), PromptContext{QuestionNumber: 1, MaxQuestions: 6})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
