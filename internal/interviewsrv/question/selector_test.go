package question

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepstage/prepstage/internal/interviewsrv/aigateway"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
	"github.com/prepstage/prepstage/internal/interviewsrv/kvstore"
)

func seedPool(t *testing.T, kv kvstore.KV, ids ...string) {
	t.Helper()
	ctx := context.Background()

	index := `{"problems": [`
	for i, id := range ids {
		if i > 0 {
			index += ","
		}
		difficulty := "Easy"
		if i%2 == 1 {
			difficulty = "Medium"
		}
		index += fmt.Sprintf(`{"id": %s, "title": "Problem %s", "difficulty": %q, "topics": ["arrays"]}`, id, id, difficulty)
	}
	index += `]}`
	require.NoError(t, kv.Put(ctx, EssentialsKey, []byte(index)))

	for _, id := range ids {
		record := fmt.Sprintf(`{
			"id": %s,
			"title": "Problem %s",
			"titleSlug": "problem-%s",
			"difficulty": "Easy",
			"url": "https://judge.example/problems/problem-%s",
			"description": "Solve problem %s.",
			"metadata": {"category": "Algorithms", "topics": ["arrays"], "hints": ["think about edge cases"], "likes": 120}
		}`, id, id, id, id, id)
		require.NoError(t, kv.Put(ctx, ProblemKeyPrefix+id, []byte(record)))
	}
}

func newTestSelector(t *testing.T, gw aigateway.Gateway, seed int64, ids ...string) *Selector {
	t.Helper()
	kv := kvstore.NewMemory()
	seedPool(t, kv, ids...)
	return NewSelector(gw, NewPool(kv), WithRandSource(rand.NewSource(seed)))
}

func TestSelectTechnicalAIPick(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateReplies: []string{`["2", "4"]`}}
	sel := newTestSelector(t, gw, 1, "1", "2", "3", "4")

	questions, err := sel.SelectTechnical(context.Background(), entity.JobContext{Type: "backend"}, "", 2)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "2", questions[0].ID)
	assert.Equal(t, "4", questions[1].ID)
	assert.Equal(t, "problem-2", questions[0].JudgeSlug)
	assert.Equal(t, entity.QuestionCoding, questions[0].Type)
}

func TestSelectTechnicalBareToken(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateReplies: []string{"3"}}
	sel := newTestSelector(t, gw, 1, "1", "2", "3")

	questions, err := sel.SelectTechnical(context.Background(), entity.JobContext{}, "", 1)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "3", questions[0].ID)
}

func TestSelectTechnicalFallbackUniform(t *testing.T) {
	// gateway always fails; selection must still return questions, and over
	// repeated seeded trials every candidate must be reachable
	seen := map[string]bool{}
	for seed := int64(0); seed < 40; seed++ {
		gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
		sel := newTestSelector(t, gw, seed, "1", "2", "3", "4", "5")

		questions, err := sel.SelectTechnical(context.Background(), entity.JobContext{}, "", 1)
		require.NoError(t, err)
		require.Len(t, questions, 1)
		seen[questions[0].ID] = true
	}
	assert.Len(t, seen, 5, "all candidates should be selectable by the uniform fallback")
}

func TestSelectTechnicalDropsUnknownIDs(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateReplies: []string{`["99", "2"]`}}
	sel := newTestSelector(t, gw, 1, "1", "2")

	questions, err := sel.SelectTechnical(context.Background(), entity.JobContext{}, "", 2)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "2", questions[0].ID)
}

func TestSelectTechnicalDifficultyFallback(t *testing.T) {
	// no "hard" questions exist; filter must fall back to the whole pool
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	sel := newTestSelector(t, gw, 7, "1", "2", "3")

	questions, err := sel.SelectTechnical(context.Background(), entity.JobContext{}, "hard", 1)
	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

func TestSelectTechnicalEmptyPool(t *testing.T) {
	gw := &aigateway.FakeGateway{}
	sel := NewSelector(gw, NewPool(kvstore.NewMemory()))

	_, err := sel.SelectTechnical(context.Background(), entity.JobContext{}, "", 1)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestSelectBehavioral(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateReplies: []string{
		`{"title": "Team Conflict", "text": "Tell me about a disagreement with a teammate.", "tags": ["teamwork"], "hints": ["use STAR"]}`,
	}}
	sel := newTestSelector(t, gw, 1, "1")

	q := sel.SelectBehavioral(context.Background(), entity.JobContext{Title: "SRE"})
	assert.Equal(t, entity.QuestionBehavioral, q.Type)
	assert.Equal(t, "Team Conflict", q.Title)
	assert.Equal(t, []string{"teamwork"}, q.Tags)
}

func TestSelectBehavioralFallback(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateErr: aigateway.ErrGeneration}
	sel := newTestSelector(t, gw, 1, "1")

	q := sel.SelectBehavioral(context.Background(), entity.JobContext{})
	assert.Equal(t, "behavioral-fallback", q.ID)
	assert.NotEmpty(t, q.Prompt)
}

func TestSelectBehavioralUnparseable(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateReplies: []string{"I cannot help with that."}}
	sel := newTestSelector(t, gw, 1, "1")

	q := sel.SelectBehavioral(context.Background(), entity.JobContext{})
	assert.Equal(t, "behavioral-fallback", q.ID)
}

func TestSelectMixedAppendsBehavioral(t *testing.T) {
	gw := &aigateway.FakeGateway{GenerateReplies: []string{
		`["1"]`,
		`{"title": "Ownership", "text": "Describe a project you owned end to end."}`,
	}}
	sel := newTestSelector(t, gw, 1, "1", "2")

	questions, err := sel.Select(context.Background(), Request{
		Mode:  entity.ModeMixed,
		Count: 2,
	})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.True(t, questions[0].Type.Technical())
	assert.Equal(t, entity.QuestionBehavioral, questions[1].Type)
}
