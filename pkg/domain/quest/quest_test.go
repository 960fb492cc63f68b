package quest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muses-project/progress/pkg/domain/progress"
	"github.com/muses-project/progress/pkg/domain/quest"
)

func newQuest(status progress.Status, done map[string]bool) *quest.Quest {
	tasks := make(map[string]quest.Task, len(done))
	for id, completed := range done {
		tasks[id] = quest.Task{Completed: completed, Title: "Find " + id, Description: "artwork " + id}
	}
	q := quest.New("Impressionists", "Visit the east wing", "museum-1", tasks)
	q.ID = "q1"
	q.Status = status
	return q
}

func TestNew_IsPending(t *testing.T) {
	q := quest.New("t", "d", "s", nil)
	assert.Equal(t, progress.StatusPending, q.Status)
	assert.NotNil(t, q.Tasks)
}

func TestCompleteTask_RequiresInProgress(t *testing.T) {
	for _, status := range []progress.Status{progress.StatusPending, progress.StatusStopped, progress.StatusComplete} {
		t.Run(string(status), func(t *testing.T) {
			q := newQuest(status, map[string]bool{"t1": false})
			_, err := q.CompleteTask("t1")
			assert.ErrorIs(t, err, progress.ErrNotStarted)
			assert.False(t, q.Tasks["t1"].Completed)
		})
	}
}

func TestCompleteTask_UnknownTask(t *testing.T) {
	q := newQuest(progress.StatusInProgress, map[string]bool{"t1": false})
	_, err := q.CompleteTask("nope")
	assert.ErrorIs(t, err, progress.ErrTaskNotFound)
}

func TestCompleteTask_OptimisticCompletion(t *testing.T) {
	q := newQuest(progress.StatusInProgress, map[string]bool{"t1": false, "t2": false})

	outcome, err := q.CompleteTask("t2")
	require.NoError(t, err)
	assert.Equal(t, progress.StillInProgress, outcome)
	assert.Equal(t, progress.StatusInProgress, q.Status)

	done, total := q.Progress()
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, total)

	outcome, err = q.CompleteTask("t1")
	require.NoError(t, err)
	assert.Equal(t, progress.Completed, outcome)
	assert.Equal(t, progress.StatusComplete, q.Status)
}

func TestCompleteTask_IdempotentOnCompletedTask(t *testing.T) {
	q := newQuest(progress.StatusInProgress, map[string]bool{"t1": true, "t2": false})

	for i := 0; i < 2; i++ {
		outcome, err := q.CompleteTask("t1")
		require.NoError(t, err)
		assert.Equal(t, progress.StillInProgress, outcome)
	}
	done, _ := q.Progress()
	assert.Equal(t, 1, done)
}

func TestComplete_RequiresAllTasks(t *testing.T) {
	q := newQuest(progress.StatusInProgress, map[string]bool{"t1": true, "t2": false})
	assert.ErrorIs(t, q.Complete(), progress.ErrTasksIncomplete)
	assert.Equal(t, progress.StatusInProgress, q.Status)
}

func TestStartStop(t *testing.T) {
	q := newQuest(progress.StatusPending, map[string]bool{"t1": false})

	require.NoError(t, q.Start())
	assert.Equal(t, progress.StatusInProgress, q.Status)

	require.NoError(t, q.Stop())
	assert.Equal(t, progress.StatusStopped, q.Status)

	assert.NoError(t, q.Stop(), "STOPPED -> STOPPED is a legal self transition")
	require.NoError(t, q.Start())
}

func TestStop_FromPendingIsIllegal(t *testing.T) {
	q := newQuest(progress.StatusPending, map[string]bool{"t1": false})
	assert.ErrorIs(t, q.Stop(), progress.ErrIllegalTransition)
	assert.Equal(t, progress.StatusPending, q.Status)
}

func TestReset(t *testing.T) {
	q := newQuest(progress.StatusComplete, map[string]bool{"t1": true, "t2": true})

	require.NoError(t, q.Reset())
	assert.Equal(t, progress.StatusPending, q.Status)
	done, total := q.Progress()
	assert.Equal(t, 0, done)
	assert.Equal(t, 2, total)
}

func TestReset_IllegalKeepsTasks(t *testing.T) {
	q := newQuest(progress.StatusInProgress, map[string]bool{"t1": true, "t2": false})

	assert.ErrorIs(t, q.Reset(), progress.ErrIllegalTransition)
	assert.True(t, q.Tasks["t1"].Completed)
}

func TestStatusCompleteImpliesAllTasksDone(t *testing.T) {
	q := newQuest(progress.StatusInProgress, map[string]bool{"a": false, "b": false, "c": false})
	for _, id := range q.TaskIDs() {
		_, err := q.CompleteTask(id)
		require.NoError(t, err)
		if q.Status == progress.StatusComplete {
			for _, task := range q.Tasks {
				assert.True(t, task.Completed)
			}
		}
	}
	assert.Equal(t, progress.StatusComplete, q.Status)
}

func TestTaskIDsSorted(t *testing.T) {
	q := newQuest(progress.StatusPending, map[string]bool{"b": false, "a": false, "c": false})
	assert.Equal(t, []string{"a", "b", "c"}, q.TaskIDs())
	assert.True(t, q.HasTask("b"))
	assert.False(t, q.HasTask("z"))
}
