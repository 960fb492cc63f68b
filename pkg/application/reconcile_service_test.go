package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muses-project/progress/pkg/domain/mission"
	"github.com/muses-project/progress/pkg/domain/progress"
	"github.com/muses-project/progress/pkg/infrastructure/reward"
	"github.com/muses-project/progress/pkg/storage"
)

type stubReplayer struct {
	res reward.ReplayResult
	err error
}

func (s stubReplayer) Replay(context.Context) (reward.ReplayResult, error) { return s.res, s.err }

func TestReconcile_AdvancesStuckMissions(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMissionRepository(storage.NewMemoryStore())
	board := &questBoard{}
	rewards := &rewardLog{}
	svc := NewMissionService(repo, board, board, rewards, nil)

	insert := func(m *mission.Mission) string {
		id, err := repo.Insert(ctx, m)
		require.NoError(t, err)
		return id
	}
	// q1 and q2 finished while the mission never heard about it.
	stuck := insert(&mission.Mission{UserID: "u1", Status: progress.StatusInProgress,
		Steps: []mission.Step{{StepID: "q1"}, {StepID: "q2"}, {StepID: "q3"}}})
	// Every step done but never completed.
	done := insert(&mission.Mission{UserID: "u2", Status: progress.StatusInProgress,
		Steps: []mission.Step{{StepID: "p1", Completed: true}}})
	// Not in progress: ignored.
	insert(&mission.Mission{UserID: "u3", Status: progress.StatusPending, Steps: []mission.Step{{StepID: "x"}}})

	board.finish("q1", 2)
	board.finish("q2", 4)
	board.progress["q3"] = [2]int{1, 5}

	report, err := NewReconcileService(svc, stubReplayer{res: reward.ReplayResult{Replayed: 2, Failed: 1}}, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.MissionsScanned)
	assert.Equal(t, 2, report.StepsAdvanced)
	assert.Equal(t, 1, report.MissionsCompleted)
	assert.Equal(t, 2, report.RewardsReplayed)
	assert.Equal(t, 1, report.RewardsFailed)
	assert.Empty(t, report.Errors)

	m, err := repo.Get(ctx, stuck)
	require.NoError(t, err)
	assert.Equal(t, 2, m.NextStep())
	assert.Equal(t, progress.StatusInProgress, m.Status)

	m, err = repo.Get(ctx, done)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusComplete, m.Status)
	assert.Equal(t, []string{"u2"}, rewards.users)
}

func TestReconcile_ErrorsDoNotStopScan(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMissionRepository(storage.NewMemoryStore())
	board := &questBoard{failOp: map[string]error{"progress": errors.New("quest service down")}}
	svc := NewMissionService(repo, board, board, nil, nil)

	for _, user := range []string{"u1", "u2"} {
		_, err := repo.Insert(ctx, &mission.Mission{UserID: user, Status: progress.StatusInProgress,
			Steps: []mission.Step{{StepID: "q-" + user}}})
		require.NoError(t, err)
	}

	report, err := NewReconcileService(svc, stubReplayer{err: errors.New("disk full")}, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.MissionsScanned)
	assert.Len(t, report.Errors, 3)
}

func TestReconcile_UnreadableMissionDoesNotStopScan(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	repo := storage.NewMissionRepository(store)
	board := &questBoard{}
	svc := NewMissionService(repo, board, board, &rewardLog{}, nil)

	_, err := store.Insert(ctx, storage.Missions, &storage.Document{ID: "broken", Status: string(progress.StatusInProgress),
		Owner: "u0", Body: []byte(`{"user_id":"u0","status":"IN_PROGRESS","steps":"q1"}`)})
	require.NoError(t, err)
	id, err := repo.Insert(ctx, &mission.Mission{UserID: "u1", Status: progress.StatusInProgress,
		Steps: []mission.Step{{StepID: "q1"}, {StepID: "q2"}}})
	require.NoError(t, err)
	board.finish("q1", 3)
	board.progress["q2"] = [2]int{0, 3}

	report, err := NewReconcileService(svc, nil, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.MissionsScanned)
	assert.Equal(t, 1, report.StepsAdvanced)

	m, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, m.NextStep())
}
