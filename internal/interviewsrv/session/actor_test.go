package session

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepstage/prepstage/internal/common/apperrors"
	"github.com/prepstage/prepstage/internal/common/uuid"
	"github.com/prepstage/prepstage/internal/interviewsrv/aigateway"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
	"github.com/prepstage/prepstage/internal/interviewsrv/feedback"
	"github.com/prepstage/prepstage/internal/interviewsrv/kvstore"
	"github.com/prepstage/prepstage/internal/interviewsrv/question"
	"github.com/prepstage/prepstage/internal/interviewsrv/sessionstore"
)

func seedProblems(t *testing.T, kv kvstore.KV, ids ...string) {
	t.Helper()
	ctx := context.Background()

	index := `{"problems": [`
	for i, id := range ids {
		if i > 0 {
			index += ","
		}
		index += fmt.Sprintf(`{"id": %s, "title": "Problem %s", "difficulty": "Easy", "topics": ["arrays"]}`, id, id)
	}
	index += `]}`
	require.NoError(t, kv.Put(ctx, question.EssentialsKey, []byte(index)))

	for _, id := range ids {
		record := fmt.Sprintf(`{"id": %s, "title": "Problem %s", "titleSlug": "problem-%s", "difficulty": "Easy", "description": "Solve problem %s."}`, id, id, id, id)
		require.NoError(t, kv.Put(ctx, question.ProblemKeyPrefix+id, []byte(record)))
	}
}

func newTestManager(t *testing.T, gw aigateway.Gateway, store sessionstore.Store, opts ManagerOptions) *Manager {
	t.Helper()
	kv := kvstore.NewMemory()
	seedProblems(t, kv, "1", "2", "3")
	sel := question.NewSelector(gw, question.NewPool(kv), question.WithRandSource(rand.NewSource(7)))
	synth := feedback.NewSynthesizer(gw)
	m := NewManager(store, sel, synth, gw, opts)
	t.Cleanup(m.Close)
	return m
}

func startTechnical(t *testing.T, m *Manager) entity.Session {
	t.Helper()
	sess, err := m.StartSession(context.Background(), StartRequest{
		UserID:     "user-1",
		Mode:       entity.ModeTechnical,
		Job:        entity.JobContext{Type: "backend", Title: "Backend Engineer"},
		Difficulty: "easy",
	})
	require.NoError(t, err)
	return sess
}

func TestStartSessionSelectsQuestionsAndPersists(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	store := sessionstore.NewMemory()
	m := newTestManager(t, gw, store, ManagerOptions{MaxQuestions: 2})

	sess := startTechnical(t, m)

	assert.Equal(t, entity.StatusInProgress, sess.Status)
	assert.Len(t, sess.Questions, 2)
	assert.Equal(t, 0, sess.CurrentQuestionIndex)
	assert.False(t, sess.StartedAt.IsZero())

	// the started record is persisted, not just held in memory
	persisted, err := store.Load(context.Background(), sess.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, entity.StatusInProgress, persisted.Status)
}

func TestStartSessionRejectsBadRequest(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	m := newTestManager(t, gw, sessionstore.NewMemory(), ManagerOptions{})

	_, err := m.StartSession(context.Background(), StartRequest{Mode: entity.ModeTechnical})
	require.Error(t, err)

	_, err = m.StartSession(context.Background(), StartRequest{UserID: "u", Mode: "podcast"})
	require.Error(t, err)
	appErr, ok := err.(apperrors.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_REQUEST", appErr.Code())
}

func TestSubmitAnswerRequiresInProgress(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	m := newTestManager(t, gw, sessionstore.NewMemory(), ManagerOptions{MaxQuestions: 1})
	sess := startTechnical(t, m)

	actor, err := m.Get(context.Background(), sess.ID)
	require.NoError(t, err)

	_, err = actor.Complete(context.Background())
	require.NoError(t, err)

	before := len(actor.State().Answers)
	_, _, err = actor.SubmitAnswer(context.Background(), AnswerRequest{Text: "too late"})
	require.Error(t, err)
	appErr, ok := err.(apperrors.Error)
	require.True(t, ok)
	assert.Equal(t, "INVALID_STATE_TRANSITION", appErr.Code())
	// the rejected answer was never appended
	assert.Len(t, actor.State().Answers, before)
}

func TestNextQuestionPastEndReturnsNil(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	m := newTestManager(t, gw, sessionstore.NewMemory(), ManagerOptions{MaxQuestions: 1})
	sess := startTechnical(t, m)

	actor, err := m.Get(context.Background(), sess.ID)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		q, _, err := actor.NextQuestion(context.Background())
		require.NoError(t, err)
		assert.Nil(t, q)
	}
	assert.Nil(t, actor.CurrentQuestion())
}

func TestCompleteIsIdempotent(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	m := newTestManager(t, gw, sessionstore.NewMemory(), ManagerOptions{MaxQuestions: 1})
	sess := startTechnical(t, m)

	actor, err := m.Get(context.Background(), sess.ID)
	require.NoError(t, err)

	_, _, err = actor.SubmitAnswer(context.Background(), AnswerRequest{Text: "an answer"})
	require.NoError(t, err)

	first, err := actor.Complete(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first.Feedback)
	callsAfterFirst := gw.GenerateCalls

	second, err := actor.Complete(context.Background())
	require.NoError(t, err)

	// same feedback, no second synthesis run
	assert.Equal(t, first.Feedback, second.Feedback)
	assert.Equal(t, first.CompletedAt, second.CompletedAt)
	assert.Equal(t, callsAfterFirst, gw.GenerateCalls)
}

func TestTechnicalRoundTrip(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	m := newTestManager(t, gw, sessionstore.NewMemory(), ManagerOptions{MaxQuestions: 2})
	sess := startTechnical(t, m)
	require.Len(t, sess.Questions, 2)

	actor, err := m.Get(context.Background(), sess.ID)
	require.NoError(t, err)

	_, first, err := actor.SubmitAnswer(context.Background(), AnswerRequest{Text: "first answer"})
	require.NoError(t, err)

	q, _, err := actor.NextQuestion(context.Background())
	require.NoError(t, err)
	require.NotNil(t, q)

	_, second, err := actor.SubmitAnswer(context.Background(), AnswerRequest{Text: "second answer"})
	require.NoError(t, err)
	assert.NotEqual(t, first.QuestionID, second.QuestionID)

	done, err := actor.Complete(context.Background())
	require.NoError(t, err)
	require.NotNil(t, done.Feedback)
	assert.Equal(t, entity.StatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	// the feedback is grounded on exactly the two submitted answers
	require.Len(t, done.Answers, 2)
	var technical *entity.SkillAssessment
	for i := range done.Feedback.Skills {
		if done.Feedback.Skills[i].Skill == "technical_knowledge" {
			technical = &done.Feedback.Skills[i]
		}
	}
	require.NotNil(t, technical)
	assert.Len(t, technical.Evidence, 2)
}

func TestUpdateStateNeverFlipsStatus(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	m := newTestManager(t, gw, sessionstore.NewMemory(), ManagerOptions{MaxQuestions: 1})
	sess := startTechnical(t, m)

	actor, err := m.Get(context.Background(), sess.ID)
	require.NoError(t, err)

	updated, err := actor.UpdateState(context.Background(), map[string]any{
		"currentCode": "def solve(): pass",
		"status":      "completed",
		"feedback":    map[string]any{"overallScore": 100},
	})
	require.NoError(t, err)
	assert.Equal(t, "def solve(): pass", updated.CurrentCode)
	assert.Equal(t, entity.StatusInProgress, updated.Status)
	assert.Nil(t, updated.Feedback)
}

func TestProcessChatFallsBackAndRecords(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	m := newTestManager(t, gw, sessionstore.NewMemory(), ManagerOptions{MaxQuestions: 1})
	sess := startTechnical(t, m)

	actor, err := m.Get(context.Background(), sess.ID)
	require.NoError(t, err)

	reply, after, err := actor.ProcessChat(context.Background(), "can I use a library?", "x = 1")
	require.NoError(t, err)
	assert.Equal(t, chatFallbackLine, reply)
	assert.Equal(t, "x = 1", after.CurrentCode)

	// one candidate note plus one AI response entry
	require.Len(t, after.Responses, 1)
	assert.Equal(t, entity.ResponseChat, after.Responses[0].Type)
	found := false
	for _, a := range after.Answers {
		if a.Text == "can I use a library?" && a.QuestionID == "" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCancelSkipsFeedback(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	m := newTestManager(t, gw, sessionstore.NewMemory(), ManagerOptions{MaxQuestions: 1})
	sess := startTechnical(t, m)

	actor, err := m.Get(context.Background(), sess.ID)
	require.NoError(t, err)

	cancelled, err := actor.Cancel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.Feedback)
	assert.NotNil(t, cancelled.CompletedAt)

	// cancel is a no-op on an already cancelled session
	again, err := actor.Cancel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cancelled.Status, again.Status)

	// but a completed session cannot be cancelled back and forth
	_, err = actor.Complete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, actor.State().Status)
}

func TestLoadOnFirstAccess(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	store := sessionstore.NewMemory()

	m1 := newTestManager(t, gw, store, ManagerOptions{MaxQuestions: 1})
	sess := startTechnical(t, m1)

	// a fresh registry over the same store, as after a restart
	m2 := newTestManager(t, gw, store, ManagerOptions{MaxQuestions: 1})
	actor, err := m2.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, actor.State().ID)
	assert.Equal(t, entity.StatusInProgress, actor.State().Status)
	assert.Len(t, actor.State().Questions, 1)

	// unknown ids surface the stable code
	_, err = m2.Get(context.Background(), uuid.New())
	require.Error(t, err)
	appErr, ok := err.(apperrors.Error)
	require.True(t, ok)
	assert.Equal(t, "SESSION_NOT_FOUND", appErr.Code())
}

func TestExpirySweepTimesOutStaleSession(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	m := newTestManager(t, gw, sessionstore.NewMemory(), ManagerOptions{
		MaxQuestions:  1,
		MaxAge:        20 * time.Millisecond,
		SweepInterval: 10 * time.Millisecond,
	})
	sess := startTechnical(t, m)

	actor, err := m.Get(context.Background(), sess.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return actor.State().Status == entity.StatusTimeout
	}, 2*time.Second, 10*time.Millisecond)

	// the abandoned session still got a complete report
	final := actor.State()
	require.NotNil(t, final.Feedback)
	assert.NotEmpty(t, final.Feedback.Recommendations)
}
