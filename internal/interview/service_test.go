package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medical-prescreening/internal/expert"
)

type scriptedGenerator struct {
	calls   int
	replies []expert.QuestionResult
	err     error
}

func (g *scriptedGenerator) NextQuestion(ctx context.Context, pc expert.PromptContext) (expert.QuestionResult, error) {
	g.calls++
	if g.err != nil {
		return expert.QuestionResult{}, g.err
	}
	if len(g.replies) == 0 {
		return expert.QuestionResult{Text: fmt.Sprintf("Generated question %d?", g.calls)}, nil
	}
	r := g.replies[0]
	if len(g.replies) > 1 {
		g.replies = g.replies[1:]
	}
	return r, nil
}

func testPatient() PatientContext {
	return PatientContext{Name: "Ravi", Age: 40, Gender: "Male"}
}

func newTestService(gen expert.QuestionGenerator, policy Policy) *Service {
	return NewService(NewMemoryStore(time.Hour), gen, policy)
}

func TestHappyPathCompletesAfterBudget(t *testing.T) {
	svc := newTestService(&scriptedGenerator{}, FirstVisitPolicy(6, 2))
	ctx := context.Background()

	out, err := svc.Start(ctx, "s1", testPatient())
	require.NoError(t, err)
	assert.NotEmpty(t, out.Question)
	assert.False(t, out.InterviewComplete)

	for i := 1; i <= 5; i++ {
		out, err = svc.SubmitAnswer(ctx, "s1", fmt.Sprintf("answer %d", i))
		require.NoError(t, err)
		assert.False(t, out.InterviewComplete, "answer %d", i)
		assert.NotEmpty(t, out.Question)
	}

	out, err = svc.SubmitAnswer(ctx, "s1", "answer 6")
	require.NoError(t, err)
	assert.True(t, out.InterviewComplete)
	assert.Empty(t, out.Question)
	assert.Equal(t, float64(100), out.Progress.CompletionPercent)

	snap, err := svc.Status("s1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Len(t, snap.Transcript, 6)
}

func TestTranscriptLengthInvariant(t *testing.T) {
	svc := newTestService(&scriptedGenerator{}, FirstVisitPolicy(6, 2))
	ctx := context.Background()

	_, err := svc.Start(ctx, "s1", testPatient())
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		_, err = svc.SubmitAnswer(ctx, "s1", fmt.Sprintf("answer %d", i))
		require.NoError(t, err)

		snap, err := svc.Status("s1")
		require.NoError(t, err)
		require.Equal(t, StatusActive, snap.Status)
		assert.Equal(t, len(snap.Transcript), snap.Progress.Current-1)
	}
}

func TestUnknownAnswersTriggerEarlyStop(t *testing.T) {
	svc := newTestService(&scriptedGenerator{}, FirstVisitPolicy(6, 2))
	ctx := context.Background()

	_, err := svc.Start(ctx, "s1", testPatient())
	require.NoError(t, err)

	out, err := svc.SubmitAnswer(ctx, "s1", "I'm not sure about that")
	require.NoError(t, err)
	assert.False(t, out.InterviewComplete)
	assert.Equal(t, 1, out.Progress.UnknownCount)

	out, err = svc.SubmitAnswer(ctx, "s1", "I really don't know")
	require.NoError(t, err)
	assert.True(t, out.InterviewComplete)
	assert.Less(t, out.Progress.Current, out.Progress.Max)
}

func TestUnknownHeuristicIsCaseInsensitive(t *testing.T) {
	assert.True(t, isUnknownAnswer("I DON'T KNOW"))
	assert.True(t, isUnknownAnswer("honestly Not Sure at all"))
	assert.False(t, isUnknownAnswer("I'm uncertain"))
	assert.False(t, isUnknownAnswer("it hurts a lot"))
}

func TestFollowupEarlyCompletionOnTopicCoverage(t *testing.T) {
	gen := &scriptedGenerator{replies: []expert.QuestionResult{
		{Text: "How are you feeling since your last visit?"},
		{Text: "Are you taking your medications as prescribed?"},
		{Text: "Any side effects?"},
		{Text: "Anything else to report?"},
	}}
	svc := newTestService(gen, FollowupPolicy(6, 3, 4))
	ctx := context.Background()

	_, err := svc.Start(ctx, "f1", testPatient())
	require.NoError(t, err)

	var out Outcome
	for i := 1; i <= 3; i++ {
		out, err = svc.SubmitAnswer(ctx, "f1", fmt.Sprintf("answer %d", i))
		require.NoError(t, err)
		assert.False(t, out.InterviewComplete, "answer %d", i)
	}

	// Fourth answer: budget not exhausted, but the transcript covers both
	// wellbeing and medication topics.
	out, err = svc.SubmitAnswer(ctx, "f1", "answer 4")
	require.NoError(t, err)
	assert.True(t, out.InterviewComplete)
	assert.Equal(t, 4, out.Progress.Current)
}

func TestFollowupNoEarlyCompletionWithoutCoverage(t *testing.T) {
	gen := &scriptedGenerator{replies: []expert.QuestionResult{
		{Text: "Question one?"},
		{Text: "Question two?"},
		{Text: "Question three?"},
		{Text: "Question four?"},
		{Text: "Question five?"},
	}}
	svc := newTestService(gen, FollowupPolicy(6, 3, 4))
	ctx := context.Background()

	_, err := svc.Start(ctx, "f1", testPatient())
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		out, err := svc.SubmitAnswer(ctx, "f1", fmt.Sprintf("answer %d", i))
		require.NoError(t, err)
		assert.False(t, out.InterviewComplete, "answer %d", i)
	}
}

func TestModelReadinessCompletesWithoutSurfacingQuestion(t *testing.T) {
	gen := &scriptedGenerator{replies: []expert.QuestionResult{
		{Text: "Opening question?"},
		{Text: "Second question?"},
		{Ready: true},
	}}
	svc := newTestService(gen, FirstVisitPolicy(6, 2))
	ctx := context.Background()

	_, err := svc.Start(ctx, "s1", testPatient())
	require.NoError(t, err)

	out, err := svc.SubmitAnswer(ctx, "s1", "chest pain")
	require.NoError(t, err)
	assert.False(t, out.InterviewComplete)

	out, err = svc.SubmitAnswer(ctx, "s1", "since yesterday")
	require.NoError(t, err)
	assert.True(t, out.InterviewComplete)
	assert.Empty(t, out.Question)
}

func TestGeneratorOutageFallsBackToCannedQuestions(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("backend down")}
	svc := newTestService(gen, FirstVisitPolicy(6, 2))
	ctx := context.Background()

	out, err := svc.Start(ctx, "s1", testPatient())
	require.NoError(t, err)
	assert.Equal(t, "What is your main health concern or symptom that brought you here today?", out.Question)

	out, err = svc.SubmitAnswer(ctx, "s1", "my knee hurts")
	require.NoError(t, err)
	assert.False(t, out.InterviewComplete)
	assert.Equal(t, "Can you tell me more about your symptoms?", out.Question)
}

func TestSubmitAnswerOnCompletedSessionFails(t *testing.T) {
	svc := newTestService(&scriptedGenerator{}, FirstVisitPolicy(1, 2))
	ctx := context.Background()

	_, err := svc.Start(ctx, "s1", testPatient())
	require.NoError(t, err)

	out, err := svc.SubmitAnswer(ctx, "s1", "only answer")
	require.NoError(t, err)
	require.True(t, out.InterviewComplete)

	_, err = svc.SubmitAnswer(ctx, "s1", "another answer")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmitAnswerValidation(t *testing.T) {
	svc := newTestService(&scriptedGenerator{}, FirstVisitPolicy(6, 2))
	ctx := context.Background()

	_, err := svc.SubmitAnswer(ctx, "missing", "hello")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Start(ctx, "s1", testPatient())
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(ctx, "s1", "   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStartValidatesPatient(t *testing.T) {
	svc := newTestService(&scriptedGenerator{}, FirstVisitPolicy(6, 2))

	_, err := svc.Start(context.Background(), "s1", PatientContext{Name: "X"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Start(context.Background(), "", testPatient())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCompletedTranscript(t *testing.T) {
	svc := newTestService(&scriptedGenerator{}, FirstVisitPolicy(6, 2))
	ctx := context.Background()

	_, err := svc.Start(ctx, "s1", testPatient())
	require.NoError(t, err)

	_, _, err = svc.CompletedTranscript("s1")
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = svc.SubmitAnswer(ctx, "s1", "headache for a week")
	require.NoError(t, err)

	patient, transcript, err := svc.CompletedTranscript("s1")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", patient.Name)
	require.Len(t, transcript, 1)
	assert.Equal(t, "headache for a week", transcript[0].Answer)
}

type tokenRecordingGenerator struct {
	calls    int
	received []string
}

func (g *tokenRecordingGenerator) NextQuestion(ctx context.Context, pc expert.PromptContext) (expert.QuestionResult, error) {
	g.calls++
	g.received = append(g.received, pc.ContinuationToken)
	return expert.QuestionResult{
		Text:              fmt.Sprintf("Question %d?", g.calls),
		ContinuationToken: fmt.Sprintf("resp-%d", g.calls),
	}, nil
}

func TestContinuationTokenIsThreadedBetweenGeneratorCalls(t *testing.T) {
	gen := &tokenRecordingGenerator{}
	svc := newTestService(gen, FirstVisitPolicy(6, 2))
	ctx := context.Background()

	_, err := svc.Start(ctx, "s1", testPatient())
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, "s1", "knee pain")
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(ctx, "s1", "two weeks now")
	require.NoError(t, err)

	require.Len(t, gen.received, 3)
	assert.Empty(t, gen.received[0])
	assert.Equal(t, "resp-1", gen.received[1])
	assert.Equal(t, "resp-2", gen.received[2])
}

func TestStatusDoesNotObserveInFlightSubmit(t *testing.T) {
	svc := newTestService(&scriptedGenerator{}, FirstVisitPolicy(6, 2))
	ctx := context.Background()

	_, err := svc.Start(ctx, "s1", testPatient())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= 5; i++ {
			if _, err := svc.SubmitAnswer(ctx, "s1", fmt.Sprintf("answer %d", i)); err != nil {
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			snap, err := svc.Status("s1")
			if err != nil {
				continue
			}
			// A snapshot must always be internally consistent: while
			// active, the transcript trails the question counter by one.
			if snap.Status == StatusActive {
				assert.Len(t, snap.Transcript, snap.Progress.Current-1)
			}
			_, _, _ = svc.CompletedTranscript("s1")
		}
	}()
	wg.Wait()
}
