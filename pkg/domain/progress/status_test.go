package progress_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muses-project/progress/pkg/domain/progress"
)

func TestStatus_TransitionTableIsExhaustive(t *testing.T) {
	allowed := map[progress.Status]map[progress.Status]bool{
		progress.StatusPending:    {progress.StatusPending: true, progress.StatusInProgress: true, progress.StatusComplete: true},
		progress.StatusInProgress: {progress.StatusInProgress: true, progress.StatusComplete: true, progress.StatusStopped: true},
		progress.StatusComplete:   {progress.StatusPending: true, progress.StatusComplete: true},
		progress.StatusStopped:    {progress.StatusInProgress: true, progress.StatusStopped: true},
	}

	for _, from := range progress.AllStatuses() {
		for _, to := range progress.AllStatuses() {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				sm, err := progress.NewStatusMachine("e1", from)
				require.NoError(t, err)

				err = sm.Transition(to)
				if allowed[from][to] {
					assert.NoError(t, err)
					assert.Equal(t, to, sm.Current())
					assert.True(t, from.CanTransitionTo(to))
					return
				}
				assert.ErrorIs(t, err, progress.ErrIllegalTransition)
				assert.Equal(t, from, sm.Current(), "state must not change on a refused transition")
				assert.False(t, from.CanTransitionTo(to))
			})
		}
	}
}

func TestStatusMachine_InvalidTarget(t *testing.T) {
	sm, err := progress.NewStatusMachine("e1", progress.StatusPending)
	require.NoError(t, err)

	err = sm.Transition(progress.Status("DONE"))
	assert.ErrorIs(t, err, progress.ErrInvalidStatus)
	assert.Equal(t, progress.StatusPending, sm.Current())
}

func TestNewStatusMachine_InvalidInitial(t *testing.T) {
	_, err := progress.NewStatusMachine("e1", progress.Status("bogus"))
	assert.ErrorIs(t, err, progress.ErrInvalidStatus)
}

func TestApply(t *testing.T) {
	got, err := progress.Apply("q1", progress.StatusStopped, progress.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusInProgress, got)

	got, err = progress.Apply("q1", progress.StatusStopped, progress.StatusComplete)
	var te *progress.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, progress.StatusStopped, te.From)
	assert.Equal(t, progress.StatusComplete, te.To)
	assert.Equal(t, progress.StatusStopped, got)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    progress.Status
		wantErr bool
	}{
		{"PENDING", progress.StatusPending, false},
		{" in_progress ", progress.StatusInProgress, false},
		{"complete", progress.StatusComplete, false},
		{"Stopped", progress.StatusStopped, false},
		{"COMPLETED", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := progress.ParseStatus(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, progress.ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_UnmarshalRejectsUnknown(t *testing.T) {
	var s progress.Status
	err := json.Unmarshal([]byte(`"ARCHIVED"`), &s)
	assert.ErrorIs(t, err, progress.ErrInvalidStatus)

	require.NoError(t, json.Unmarshal([]byte(`"STOPPED"`), &s))
	assert.Equal(t, progress.StatusStopped, s)
}

func TestRemoteError_Is(t *testing.T) {
	cause := errors.New("connection refused")
	err := &progress.RemoteError{Kind: progress.ErrRemoteStopFailed, QuestID: "q2", Err: cause}

	assert.ErrorIs(t, err, progress.ErrRemoteStopFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, progress.ErrRemoteStartFailed)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "completed", progress.Completed.String())
	assert.Equal(t, "still_in_progress", progress.StillInProgress.String())
}
