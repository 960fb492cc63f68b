package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/muses-project/progress/pkg/domain/mission"
	"github.com/muses-project/progress/pkg/domain/progress"
	"github.com/muses-project/progress/pkg/domain/quest"
	"github.com/muses-project/progress/pkg/storage"
)

func TestMissionRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMissionRepository(storage.NewMemoryStore())

	m := mission.New("u1", []string{"q1", "q2"})
	id, err := repo.Insert(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, id, m.ID)

	m.Status = progress.StatusInProgress
	m.Steps[0].Completed = true
	require.NoError(t, repo.Save(ctx, m))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, progress.StatusInProgress, got.Status)
	assert.Equal(t, []mission.Step{{StepID: "q1", Completed: true}, {StepID: "q2"}}, got.Steps)

	byUser, err := repo.Find(ctx, mission.Query{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	none, err := repo.Find(ctx, mission.Query{Status: progress.StatusComplete})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMissionRepository_GetUnknown(t *testing.T) {
	_, err := storage.NewMissionRepository(storage.NewMemoryStore()).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, progress.ErrNotFound)
}

func TestMissionRepository_CorruptDocument(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	_, err := store.Insert(ctx, storage.Missions, &storage.Document{ID: "bad", Body: []byte(`{"user_id":"u1","status":"LOST","steps":[]}`)})
	require.NoError(t, err)

	_, err = storage.NewMissionRepository(store).Get(ctx, "bad")
	assert.ErrorIs(t, err, progress.ErrInvalidDocument)
}

func TestMissionRepository_FindSkipsCorruptDocument(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := storage.NewMissionRepository(store, storage.WithLogger(zap.NewNop()))

	before, err := repo.Insert(ctx, mission.New("u1", []string{"q1"}))
	require.NoError(t, err)
	_, err = store.Insert(ctx, storage.Missions, &storage.Document{ID: "bad", Status: "PENDING", Owner: "u1", Body: []byte(`{"user_id":"u1","status":"LOST","steps":[]}`)})
	require.NoError(t, err)
	after, err := repo.Insert(ctx, mission.New("u1", []string{"q2"}))
	require.NoError(t, err)

	found, err := repo.Find(ctx, mission.Query{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, before, found[0].ID)
	assert.Equal(t, after, found[1].ID)
}

func TestQuestRepository_FindAndCount(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewQuestRepository(storage.NewMemoryStore())

	for _, subject := range []string{"museum-1", "museum-1", "museum-2"} {
		q := quest.New("t", "d", subject, map[string]quest.Task{"a": {Title: "A"}})
		_, err := repo.Insert(ctx, q)
		require.NoError(t, err)
	}

	n, err := repo.Count(ctx, quest.Query{SubjectID: "museum-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := repo.Find(ctx, quest.Query{Status: progress.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.NotEmpty(t, pending[0].ID)
	assert.Equal(t, "A", pending[0].Tasks["a"].Title)
}
