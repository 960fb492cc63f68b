// Package mission models a mission: an ordered list of steps, each pointing
// at a quest, that must be completed strictly left to right.
package mission

import (
	"context"

	"github.com/muses-project/progress/pkg/domain/progress"
)

// Step is the mission's view of one quest.
type Step struct {
	StepID    string `json:"step_id"`
	Completed bool   `json:"completed"`
}

// Mission is owned by a single user.
type Mission struct {
	ID     string          `json:"id,omitempty"`
	UserID string          `json:"user_id"`
	Status progress.Status `json:"status"`
	Steps  []Step          `json:"steps"`
}

// Query filters missions when listing.
type Query struct {
	Status progress.Status
	UserID string
}

// Repository persists missions by opaque id.
type Repository interface {
	Get(ctx context.Context, id string) (*Mission, error)
	Insert(ctx context.Context, m *Mission) (string, error)
	Save(ctx context.Context, m *Mission) error
	Find(ctx context.Context, query Query) ([]*Mission, error)
}

// New returns a PENDING mission with one open step per quest id.
func New(userID string, questIDs []string) *Mission {
	steps := make([]Step, len(questIDs))
	for i, id := range questIDs {
		steps[i] = Step{StepID: id}
	}
	return &Mission{
		UserID: userID,
		Status: progress.StatusPending,
		Steps:  steps,
	}
}

// TransitionStatus moves the mission to target if the transition table allows it.
func (m *Mission) TransitionStatus(target progress.Status) error {
	next, err := progress.Apply(m.ID, m.Status, target)
	if err != nil {
		return err
	}
	m.Status = next
	return nil
}

// NextStep returns the index of the first incomplete step, or -1.
func (m *Mission) NextStep() int {
	for i, s := range m.Steps {
		if !s.Completed {
			return i
		}
	}
	return -1
}

// CheckStep validates that stepID is the step to complete next without
// changing anything. It returns the step's index.
func (m *Mission) CheckStep(stepID string) (int, error) {
	if m.Status != progress.StatusInProgress {
		return -1, progress.ErrNotStarted
	}
	next := m.NextStep()
	if next < 0 {
		return -1, progress.ErrStepNotFound
	}
	if m.Steps[next].StepID != stepID {
		return -1, &progress.OrderError{
			MissionID: m.ID,
			Requested: stepID,
			Expected:  m.Steps[next].StepID,
		}
	}
	return next, nil
}

// CompleteStep marks stepID done and tries to complete the mission.
// Only the first incomplete step may be completed; on any error the mission
// is left untouched.
func (m *Mission) CompleteStep(stepID string) (progress.Outcome, error) {
	idx, err := m.CheckStep(stepID)
	if err != nil {
		return progress.StillInProgress, err
	}
	m.Steps[idx].Completed = true

	if err := m.Complete(); err != nil {
		return progress.StillInProgress, nil
	}
	return progress.Completed, nil
}

// Complete moves the mission to COMPLETE once every step is done.
func (m *Mission) Complete() error {
	for _, s := range m.Steps {
		if !s.Completed {
			return progress.ErrStepsIncomplete
		}
	}
	return m.TransitionStatus(progress.StatusComplete)
}

// ClearSteps marks every step incomplete.
func (m *Mission) ClearSteps() {
	for i := range m.Steps {
		m.Steps[i].Completed = false
	}
}

// Progress returns how many steps are done out of the total.
func (m *Mission) Progress() (completed, total int) {
	for _, s := range m.Steps {
		if s.Completed {
			completed++
		}
	}
	return completed, len(m.Steps)
}

// HasStep reports whether stepID is one of the mission's steps.
func (m *Mission) HasStep(stepID string) bool {
	for _, s := range m.Steps {
		if s.StepID == stepID {
			return true
		}
	}
	return false
}

// StepIDs returns the step ids in mission order.
func (m *Mission) StepIDs() []string {
	ids := make([]string, len(m.Steps))
	for i, s := range m.Steps {
		ids[i] = s.StepID
	}
	return ids
}
