package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medical-prescreening/internal/expert"
	"medical-prescreening/internal/logger"
)

// Service runs interview sessions of one kind against one question
// generator. Wire two instances (first-visit and follow-up) with their own
// stores and policies.
type Service struct {
	store     Store
	generator expert.QuestionGenerator
	policy    Policy
}

func NewService(store Store, generator expert.QuestionGenerator, policy Policy) *Service {
	return &Service{store: store, generator: generator, policy: policy}
}

func (s *Service) Policy() Policy { return s.policy }

// Start creates a fresh session for sessionID and returns the opening
// question. Any previous interview under the same id is discarded, so at
// most one active interview exists per id. A generator failure is non-fatal
// and substitutes the fixed opening question.
func (s *Service) Start(ctx context.Context, sessionID string, patient PatientContext) (Outcome, error) {
	if sessionID == "" {
		return Outcome{}, fmt.Errorf("%w: empty session id", ErrValidation)
	}
	if patient.Age <= 0 || patient.Gender == "" {
		return Outcome{}, fmt.Errorf("%w: patient age and gender are required", ErrValidation)
	}

	unlock := s.store.Lock(sessionID)
	defer unlock()

	now := time.Now().UTC()
	sess := &Session{
		ID:             sessionID,
		Patient:        patient,
		Status:         StatusActive,
		QuestionNumber: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	question := s.generateQuestion(ctx, sess, s.policy.OpeningFallback)
	sess.LastQuestion = question
	s.store.Put(sessionID, sess)

	logger.Log.WithFields(map[string]any{
		"session_id": sessionID,
		"kind":       s.policy.Kind,
	}).Info("interview started")

	return s.continuation(sess, question), nil
}

// SubmitAnswer records the patient's answer to the last issued question,
// evaluates the stop conditions and either completes the interview or
// returns the next question.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID, rawAnswer string) (Outcome, error) {
	answer := strings.TrimSpace(rawAnswer)
	if answer == "" {
		return Outcome{}, fmt.Errorf("%w: empty answer", ErrValidation)
	}

	unlock := s.store.Lock(sessionID)
	defer unlock()

	sess, ok := s.store.Get(sessionID)
	if !ok {
		return Outcome{}, ErrNotFound
	}
	if sess.Status != StatusActive {
		return Outcome{}, fmt.Errorf("%w: status %s", ErrInvalidState, sess.Status)
	}

	question := sess.LastQuestion
	if question == "" {
		question = s.policy.NextFallback
	}
	sess.Transcript = append(sess.Transcript, QuestionAnswer{
		Question:  question,
		Answer:    answer,
		Timestamp: time.Now().UTC(),
	})
	if isUnknownAnswer(answer) {
		sess.UnknownCount++
	}

	// Stop conditions, first true wins.
	switch {
	case sess.QuestionNumber >= s.policy.MaxQuestions:
		return s.complete(sess, "question budget exhausted"), nil
	case sess.UnknownCount >= s.policy.MaxUnknowns:
		return s.complete(sess, "too many unknown answers"), nil
	case s.policy.EarlyCompletionAfter > 0 &&
		sess.QuestionNumber >= s.policy.EarlyCompletionAfter &&
		coversFollowupTopics(sess.Transcript):
		return s.complete(sess, "topic coverage reached"), nil
	}

	sess.QuestionNumber++

	next, ready := s.nextQuestion(ctx, sess)
	if ready {
		// The model declared readiness; the trailing question, if any, is
		// never surfaced to the patient.
		return s.complete(sess, "model declared readiness"), nil
	}

	sess.LastQuestion = next
	sess.UpdatedAt = time.Now().UTC()
	s.store.Put(sessionID, sess)
	return s.continuation(sess, next), nil
}

// Status returns a read-only snapshot of the session. The per-session lock
// is held for the read so an in-flight submit cannot be observed halfway.
func (s *Service) Status(sessionID string) (Snapshot, error) {
	unlock := s.store.Lock(sessionID)
	defer unlock()

	sess, ok := s.store.Get(sessionID)
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return Snapshot{
		SessionID:  sess.ID,
		Status:     sess.Status,
		Transcript: append([]QuestionAnswer(nil), sess.Transcript...),
		Progress:   s.progress(sess),
		UpdatedAt:  sess.UpdatedAt,
	}, nil
}

// CompletedTranscript returns the session's transcript and patient context
// for assessment. A terminal status is not required, but an empty
// transcript is rejected: there is nothing to assess.
func (s *Service) CompletedTranscript(sessionID string) (PatientContext, []QuestionAnswer, error) {
	unlock := s.store.Lock(sessionID)
	defer unlock()

	sess, ok := s.store.Get(sessionID)
	if !ok {
		return PatientContext{}, nil, ErrNotFound
	}
	if len(sess.Transcript) == 0 {
		return PatientContext{}, nil, ErrInsufficientData
	}
	return sess.Patient, append([]QuestionAnswer(nil), sess.Transcript...), nil
}

func (s *Service) complete(sess *Session, reason string) Outcome {
	sess.Status = StatusCompleted
	sess.UpdatedAt = time.Now().UTC()
	s.store.Put(sess.ID, sess)

	logger.Log.WithFields(map[string]any{
		"session_id": sess.ID,
		"kind":       s.policy.Kind,
		"questions":  len(sess.Transcript),
		"unknowns":   sess.UnknownCount,
		"reason":     reason,
	}).Info("interview completed")

	p := s.progress(sess)
	p.CompletionPercent = 100
	return Outcome{
		SessionID:         sess.ID,
		InterviewComplete: true,
		Progress:          p,
	}
}

func (s *Service) continuation(sess *Session, question string) Outcome {
	return Outcome{
		SessionID: sess.ID,
		Question:  question,
		Progress:  s.progress(sess),
	}
}

func (s *Service) progress(sess *Session) Progress {
	percent := float64(sess.QuestionNumber) / float64(s.policy.MaxQuestions)
	if percent > 1 {
		percent = 1
	}
	if sess.Status == StatusCompleted {
		percent = 1
	}
	return Progress{
		Current:           sess.QuestionNumber,
		Max:               s.policy.MaxQuestions,
		UnknownCount:      sess.UnknownCount,
		MaxUnknowns:       s.policy.MaxUnknowns,
		CompletionPercent: percent * 100,
	}
}

// generateQuestion asks the generator for a question and substitutes
// fallback on any failure. Used at start, where model readiness makes no
// sense and is ignored.
func (s *Service) generateQuestion(ctx context.Context, sess *Session, fallback string) string {
	res, err := s.generator.NextQuestion(ctx, s.promptContext(sess))
	if err != nil || strings.TrimSpace(res.Text) == "" {
		if err != nil {
			logger.Log.WithError(err).WithField("session_id", sess.ID).Warn("question generation failed, using fallback")
		}
		return fallback
	}
	sess.ContinuationToken = res.ContinuationToken
	return res.Text
}

// nextQuestion asks for a mid-interview question. ready is true when the
// model signalled it has enough information.
func (s *Service) nextQuestion(ctx context.Context, sess *Session) (question string, ready bool) {
	res, err := s.generator.NextQuestion(ctx, s.promptContext(sess))
	if err != nil {
		logger.Log.WithError(err).WithField("session_id", sess.ID).Warn("question generation failed, using fallback")
		return s.policy.NextFallback, false
	}
	sess.ContinuationToken = res.ContinuationToken
	if res.Ready {
		return "", true
	}
	if strings.TrimSpace(res.Text) == "" {
		return s.policy.NextFallback, false
	}
	return res.Text, false
}

func (s *Service) promptContext(sess *Session) expert.PromptContext {
	var sb strings.Builder
	for i, qa := range sess.Transcript {
		fmt.Fprintf(&sb, "Q%d: %s\nA%d: %s\n\n", i+1, qa.Question, i+1, qa.Answer)
	}
	return expert.PromptContext{
		PatientName:       sess.Patient.Name,
		PatientAge:        sess.Patient.Age,
		PatientGender:     sess.Patient.Gender,
		ChosenDoctor:      sess.Patient.ChosenDoctor,
		ChosenDepartment:  sess.Patient.ChosenDepartment,
		QuestionNumber:    sess.QuestionNumber,
		MaxQuestions:      s.policy.MaxQuestions,
		UnknownCount:      sess.UnknownCount,
		History:           sb.String(),
		PreviousRecord:    sess.Patient.PreviousRecord,
		ContinuationToken: sess.ContinuationToken,
	}
}
