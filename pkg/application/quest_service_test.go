package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muses-project/progress/pkg/contract"
	"github.com/muses-project/progress/pkg/domain/progress"
	"github.com/muses-project/progress/pkg/domain/quest"
	"github.com/muses-project/progress/pkg/storage"
)

type stubBuilder struct {
	quests   []contract.BuiltQuest
	err      error
	maxTasks int
}

func (b *stubBuilder) BuildQuests(_ context.Context, _ string, _ int, maxTasks int) ([]contract.BuiltQuest, error) {
	b.maxTasks = maxTasks
	return b.quests, b.err
}

func newQuestService(t *testing.T, builder QuestBuilder) (*QuestService, *storage.QuestRepository) {
	t.Helper()
	repo := storage.NewQuestRepository(storage.NewMemoryStore())
	return NewQuestService(repo, builder, nil), repo
}

func seedQuest(t *testing.T, repo quest.Repository, status progress.Status, tasks ...string) string {
	t.Helper()
	m := make(map[string]quest.Task, len(tasks))
	for _, id := range tasks {
		m[id] = quest.Task{Title: id}
	}
	q := quest.New("Quest", "desc", "museum-1", m)
	q.Status = status
	id, err := repo.Insert(context.Background(), q)
	require.NoError(t, err)
	return id
}

func TestQuestService_CompleteTask(t *testing.T) {
	ctx := context.Background()
	svc, repo := newQuestService(t, nil)
	id := seedQuest(t, repo, progress.StatusInProgress, "a", "b")

	p, outcome, err := svc.CompleteTask(ctx, id, "a")
	require.NoError(t, err)
	assert.Equal(t, contract.TaskProgress{CompletedTasks: 1, TotTasks: 2}, p)
	assert.Equal(t, progress.StillInProgress, outcome)

	p, outcome, err = svc.CompleteTask(ctx, id, "b")
	require.NoError(t, err)
	assert.True(t, p.Done())
	assert.Equal(t, progress.Completed, outcome)

	q, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusComplete, q.Status)
}

func TestQuestService_CompleteTaskErrors(t *testing.T) {
	ctx := context.Background()
	svc, repo := newQuestService(t, nil)
	pending := seedQuest(t, repo, progress.StatusPending, "a")
	running := seedQuest(t, repo, progress.StatusInProgress, "a")

	_, _, err := svc.CompleteTask(ctx, pending, "a")
	assert.ErrorIs(t, err, progress.ErrNotStarted)

	_, _, err = svc.CompleteTask(ctx, running, "zzz")
	assert.ErrorIs(t, err, progress.ErrTaskNotFound)

	_, _, err = svc.CompleteTask(ctx, "missing", "a")
	assert.ErrorIs(t, err, progress.ErrNotFound)

	_, _, err = svc.CompleteTask(ctx, running, " ")
	assert.ErrorIs(t, err, progress.ErrBadRequest)
}

func TestQuestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc, repo := newQuestService(t, nil)
	id := seedQuest(t, repo, progress.StatusPending, "a")

	require.NoError(t, svc.Start(ctx, id))
	require.NoError(t, svc.Start(ctx, id), "starting twice is allowed")
	require.NoError(t, svc.Stop(ctx, id))
	assert.ErrorIs(t, svc.Reset(ctx, id), progress.ErrIllegalTransition)

	require.NoError(t, svc.Start(ctx, id))
	_, _, err := svc.CompleteTask(ctx, id, "a")
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx, id))

	q, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusPending, q.Status)
	assert.False(t, q.Tasks["a"].Completed)
}

func TestQuestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc, repo := newQuestService(t, nil)
	id := seedQuest(t, repo, progress.StatusInProgress, "a", "b")

	assert.ErrorIs(t, svc.UpdateStatus(ctx, id, contract.StatusRequest{}), progress.ErrBadRequest)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, id, contract.StatusRequest{Status: "DONE"}), progress.ErrInvalidStatus)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, id, contract.StatusRequest{Status: progress.StatusComplete}), progress.ErrTasksIncomplete)

	require.NoError(t, svc.UpdateStatus(ctx, id, contract.StatusRequest{TaskID: "a"}))
	require.NoError(t, svc.UpdateStatus(ctx, id, contract.StatusRequest{TaskID: "b", Status: progress.StatusComplete}))

	q, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusComplete, q.Status)
}

func TestQuestService_Generate(t *testing.T) {
	ctx := context.Background()
	builder := &stubBuilder{quests: []contract.BuiltQuest{
		{Title: "Q", MuseumID: "museum-3", Tasks: []contract.BuiltTask{{ArtworkID: "art-1", Title: "Mona"}}},
		{Title: "Empty", MuseumID: "museum-4"},
	}}
	svc, _ := newQuestService(t, builder)

	ids, err := svc.Generate(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.GreaterOrEqual(t, builder.maxTasks, 15)
	assert.LessOrEqual(t, builder.maxTasks, 17)

	q, err := svc.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, progress.StatusPending, q.Status)
	assert.Equal(t, "museum-3", q.SubjectID)
	assert.True(t, q.HasTask("art-1"))

	n, err := svc.Count(ctx, quest.Query{SubjectID: "museum-3"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestQuestService_GenerateFailures(t *testing.T) {
	ctx := context.Background()

	svc, _ := newQuestService(t, &stubBuilder{err: errors.New("builder down")})
	_, err := svc.Generate(ctx, "u1")
	assert.ErrorIs(t, err, progress.ErrGenerationFailed)

	svc, _ = newQuestService(t, &stubBuilder{})
	_, err = svc.Generate(ctx, "u1")
	assert.ErrorIs(t, err, progress.ErrNoQuests)

	_, err = svc.Generate(ctx, "  ")
	assert.ErrorIs(t, err, progress.ErrBadRequest)
}

func TestQuestService_CreateStartsPending(t *testing.T) {
	ctx := context.Background()
	svc, repo := newQuestService(t, nil)

	submitted := &quest.Quest{
		ID:     "caller-chosen",
		Title:  "Louvre",
		Status: progress.StatusInProgress,
		Tasks:  map[string]quest.Task{"a": {Completed: true}, "b": {}},
	}
	id, err := svc.Create(ctx, submitted)
	require.NoError(t, err)
	assert.NotEqual(t, "caller-chosen", id)

	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusPending, stored.Status)
	done, total := stored.Progress()
	assert.Equal(t, 0, done)
	assert.Equal(t, 2, total)
}
