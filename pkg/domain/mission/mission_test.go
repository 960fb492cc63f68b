package mission_test

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muses-project/progress/pkg/domain/mission"
	"github.com/muses-project/progress/pkg/domain/progress"
)

func newMission(status progress.Status, steps ...mission.Step) *mission.Mission {
	return &mission.Mission{ID: "m1", UserID: "u1", Status: status, Steps: steps}
}

func TestNew_IsPending(t *testing.T) {
	m := mission.New("u1", []string{"q1", "q2"})
	assert.Equal(t, progress.StatusPending, m.Status)
	assert.Equal(t, []string{"q1", "q2"}, m.StepIDs())
	done, total := m.Progress()
	assert.Equal(t, 0, done)
	assert.Equal(t, 2, total)
}

func TestCompleteStep_OutOfOrderLeavesStepsUnchanged(t *testing.T) {
	m := newMission(progress.StatusInProgress, mission.Step{StepID: "s1"}, mission.Step{StepID: "s2"})

	_, err := m.CompleteStep("s2")
	assert.ErrorIs(t, err, progress.ErrOutOfOrder)

	var oe *progress.OrderError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "s1", oe.Expected)
	assert.Equal(t, "s2", oe.Requested)

	assert.Equal(t, []mission.Step{{StepID: "s1"}, {StepID: "s2"}}, m.Steps)
	assert.Equal(t, progress.StatusInProgress, m.Status)
}

func TestCompleteStep_InOrder(t *testing.T) {
	m := newMission(progress.StatusInProgress, mission.Step{StepID: "s1"}, mission.Step{StepID: "s2"})

	outcome, err := m.CompleteStep("s1")
	require.NoError(t, err)
	assert.Equal(t, progress.StillInProgress, outcome)
	assert.Equal(t, 1, m.NextStep())

	outcome, err = m.CompleteStep("s2")
	require.NoError(t, err)
	assert.Equal(t, progress.Completed, outcome)
	assert.Equal(t, progress.StatusComplete, m.Status)
	assert.Equal(t, -1, m.NextStep())
}

func TestCompleteStep_RequiresInProgress(t *testing.T) {
	for _, status := range []progress.Status{progress.StatusPending, progress.StatusStopped, progress.StatusComplete} {
		t.Run(string(status), func(t *testing.T) {
			m := newMission(status, mission.Step{StepID: "s1"})
			_, err := m.CompleteStep("s1")
			assert.ErrorIs(t, err, progress.ErrNotStarted)
			assert.False(t, m.Steps[0].Completed)
		})
	}
}

func TestCompleteStep_NoOpenStep(t *testing.T) {
	m := newMission(progress.StatusInProgress, mission.Step{StepID: "s1", Completed: true})
	_, err := m.CompleteStep("s1")
	assert.ErrorIs(t, err, progress.ErrStepNotFound)
}

func TestCompleteStep_RepeatedStepIsOutOfOrder(t *testing.T) {
	m := newMission(progress.StatusInProgress,
		mission.Step{StepID: "s1", Completed: true}, mission.Step{StepID: "s2"})
	_, err := m.CompleteStep("s1")
	assert.ErrorIs(t, err, progress.ErrOutOfOrder)
}

func TestComplete_RequiresAllSteps(t *testing.T) {
	m := newMission(progress.StatusInProgress,
		mission.Step{StepID: "s1", Completed: true}, mission.Step{StepID: "s2"})
	assert.ErrorIs(t, m.Complete(), progress.ErrStepsIncomplete)
	assert.Equal(t, progress.StatusInProgress, m.Status)
}

func TestClearSteps(t *testing.T) {
	m := newMission(progress.StatusComplete,
		mission.Step{StepID: "s1", Completed: true}, mission.Step{StepID: "s2", Completed: true})
	m.ClearSteps()
	done, _ := m.Progress()
	assert.Equal(t, 0, done)
	assert.True(t, m.HasStep("s2"))
	assert.False(t, m.HasStep("s3"))
}

// stepScript drives a mission with a random sequence of step ids.
type stepScript struct {
	Steps    []string
	Requests []string
}

func (stepScript) Generate(r *rand.Rand, size int) reflect.Value {
	n := 1 + r.Intn(5)
	s := stepScript{}
	for i := 0; i < n; i++ {
		s.Steps = append(s.Steps, string(rune('a'+i)))
	}
	for i := 0; i < size; i++ {
		s.Requests = append(s.Requests, string(rune('a'+r.Intn(n+1))))
	}
	return reflect.ValueOf(s)
}

func TestMission_CompleteImpliesAllStepsDone(t *testing.T) {
	property := func(s stepScript) bool {
		m := mission.New("u1", s.Steps)
		m.Status = progress.StatusInProgress
		prefix := 0
		for _, req := range s.Requests {
			_, _ = m.CompleteStep(req)

			// Completed steps always form a prefix of the mission.
			done, _ := m.Progress()
			for i, step := range m.Steps {
				if step.Completed != (i < done) {
					return false
				}
			}
			if done < prefix {
				return false
			}
			prefix = done

			if m.Status == progress.StatusComplete && done != len(m.Steps) {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(property, &quick.Config{MaxCount: 200}))
}
