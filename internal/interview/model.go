// Package interview implements the adaptive question/answer session state
// machine for patient pre-screening, parameterized by visit policy.
package interview

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("interview session not found")
	ErrInvalidState     = errors.New("interview session is not active")
	ErrValidation       = errors.New("invalid input")
	ErrInsufficientData = errors.New("interview has no recorded answers")
)

// Status is the lifecycle state of an interview session.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusAborted   Status = "ABORTED"
)

// Kind distinguishes the two interview variants.
type Kind string

const (
	KindFirstVisit Kind = "first-visit"
	KindFollowup   Kind = "follow-up"
)

// QuestionAnswer is one transcript entry. Entries are append-only and never
// mutated after being recorded.
type QuestionAnswer struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// Policy holds the per-kind interview knobs. Thresholds come from
// configuration, not compile-time constants.
type Policy struct {
	Kind         Kind
	MaxQuestions int
	MaxUnknowns  int
	// EarlyCompletionAfter enables the coverage-based early stop when
	// positive: once this many questions have been answered and the
	// transcript covers both treatment and symptom topics, the interview
	// completes ahead of the budget. Zero disables the rule.
	EarlyCompletionAfter int
	// OpeningFallback and NextFallback substitute for generated questions
	// when the model backend fails. The interview never dead-ends on a
	// backend outage.
	OpeningFallback string
	NextFallback    string
}

// FirstVisitPolicy returns the standard first-visit configuration.
func FirstVisitPolicy(maxQuestions, maxUnknowns int) Policy {
	return Policy{
		Kind:            KindFirstVisit,
		MaxQuestions:    maxQuestions,
		MaxUnknowns:     maxUnknowns,
		OpeningFallback: "What is your main health concern or symptom that brought you here today?",
		NextFallback:    "Can you tell me more about your symptoms?",
	}
}

// FollowupPolicy returns the standard follow-up configuration.
func FollowupPolicy(maxQuestions, maxUnknowns, earlyAfter int) Policy {
	return Policy{
		Kind:                 KindFollowup,
		MaxQuestions:         maxQuestions,
		MaxUnknowns:          maxUnknowns,
		EarlyCompletionAfter: earlyAfter,
		OpeningFallback:      "How are you feeling since your last visit?",
		NextFallback:         "Can you tell me more about how you've been feeling?",
	}
}

// PatientContext is the patient information threaded into question and
// assessment prompts.
type PatientContext struct {
	ID               string `json:"id,omitempty"`
	Name             string `json:"name"`
	Age              int    `json:"age"`
	Gender           string `json:"gender"`
	ChosenDoctor     string `json:"chosen_doctor,omitempty"`
	ChosenDepartment string `json:"chosen_department,omitempty"`
	// PreviousRecord carries the prior visit's medical record for
	// follow-up interviews.
	PreviousRecord string `json:"previous_record,omitempty"`
}

// Session is the mutable per-interview state. It is only ever modified under
// the service's per-session lock.
type Session struct {
	ID      string         `json:"session_id"`
	Patient PatientContext `json:"patient"`
	Status  Status         `json:"status"`
	// QuestionNumber is the number of the next question to be asked, or
	// the final count once the session is terminal. Starts at 1.
	QuestionNumber int              `json:"question_number"`
	UnknownCount   int              `json:"unknown_count"`
	Transcript     []QuestionAnswer `json:"transcript"`
	LastQuestion   string           `json:"last_question"`
	// ContinuationToken is opaque backend conversation state, carried
	// between generator calls and never inspected here.
	ContinuationToken string    `json:"continuation_token,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Progress reports how far along the interview is.
type Progress struct {
	Current           int     `json:"current"`
	Max               int     `json:"max"`
	UnknownCount      int     `json:"unknown_count"`
	MaxUnknowns       int     `json:"max_unknowns"`
	CompletionPercent float64 `json:"completion_percent"`
}

// Outcome is returned from Start and SubmitAnswer. Question is empty when
// the interview is complete.
type Outcome struct {
	SessionID         string   `json:"session_id"`
	Question          string   `json:"question,omitempty"`
	InterviewComplete bool     `json:"interview_complete"`
	Progress          Progress `json:"progress"`
}

// Snapshot is the read-only view served by the status endpoint.
type Snapshot struct {
	SessionID  string           `json:"session_id"`
	Status     Status           `json:"status"`
	Transcript []QuestionAnswer `json:"transcript"`
	Progress   Progress         `json:"progress"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// isUnknownAnswer applies the uncertainty heuristic: a case-insensitive
// substring match, not NLP. Phrasings like "I'm uncertain" are accepted
// false negatives.
func isUnknownAnswer(answer string) bool {
	lower := strings.ToLower(answer)
	return strings.Contains(lower, "don't know") || strings.Contains(lower, "not sure")
}

// coversFollowupTopics reports whether the transcript already contains both
// a treatment-adherence question and a symptom/wellbeing question.
func coversFollowupTopics(transcript []QuestionAnswer) bool {
	var treatment, feeling bool
	for _, qa := range transcript {
		q := strings.ToLower(qa.Question)
		if strings.Contains(q, "medic") || strings.Contains(q, "treatment") {
			treatment = true
		}
		if strings.Contains(q, "feel") || strings.Contains(q, "symptom") {
			feeling = true
		}
	}
	return treatment && feeling
}
