package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepstage/prepstage/internal/common/uuid"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
	"github.com/prepstage/prepstage/internal/interviewsrv/kvstore"
)

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewKV(kvstore.NewMemory())

	id := uuid.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	session := &entity.Session{
		ID:        id,
		UserID:    "user-1",
		Mode:      entity.ModeTechnical,
		Status:    entity.StatusInProgress,
		CreatedAt: now,
		StartedAt: now,
		Questions: []entity.Question{
			{ID: "1", Type: entity.QuestionCoding, Title: "Two Sum", Prompt: "Find two numbers...", SelectedAt: now},
		},
		Answers: []entity.Answer{
			{QuestionID: "1", Text: "hash map", SubmittedAt: now.Add(time.Minute)},
		},
	}

	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, session.UserID, loaded.UserID)
	assert.Equal(t, session.Status, loaded.Status)
	require.Len(t, loaded.Questions, 1)
	assert.Equal(t, "Two Sum", loaded.Questions[0].Title)
	require.Len(t, loaded.Answers, 1)
}

func TestKVStoreMiss(t *testing.T) {
	store := NewKV(kvstore.NewMemory())
	loaded, err := store.Load(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	id := uuid.New()
	session := &entity.Session{ID: id, Status: entity.StatusInProgress}
	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)

	// mutating the loaded copy must not affect the stored record
	loaded.Status = entity.StatusCancelled
	again, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInProgress, again.Status)
}
