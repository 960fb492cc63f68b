// Package quest models a quest: an unordered set of tasks and the status
// machine that decides when the quest is done.
package quest

import (
	"context"
	"sort"

	"github.com/muses-project/progress/pkg/domain/progress"
)

// Task is a leaf unit of work. Only Completed ever changes.
type Task struct {
	Completed   bool   `json:"completed"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Quest groups tasks around one subject (a museum in the original game).
type Quest struct {
	ID          string          `json:"id,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      progress.Status `json:"status"`
	SubjectID   string          `json:"subject_id"`
	Tasks       map[string]Task `json:"tasks"`
}

// Query filters quests when listing.
type Query struct {
	Status    progress.Status
	SubjectID string
}

// Repository persists quests by opaque id.
type Repository interface {
	Get(ctx context.Context, id string) (*Quest, error)
	Insert(ctx context.Context, q *Quest) (string, error)
	Save(ctx context.Context, q *Quest) error
	Find(ctx context.Context, query Query) ([]*Quest, error)
	Count(ctx context.Context, query Query) (int, error)
}

// New returns a PENDING quest.
func New(title, description, subjectID string, tasks map[string]Task) *Quest {
	if tasks == nil {
		tasks = make(map[string]Task)
	}
	return &Quest{
		Title:       title,
		Description: description,
		Status:      progress.StatusPending,
		SubjectID:   subjectID,
		Tasks:       tasks,
	}
}

// TransitionStatus moves the quest to target if the transition table allows it.
func (q *Quest) TransitionStatus(target progress.Status) error {
	next, err := progress.Apply(q.ID, q.Status, target)
	if err != nil {
		return err
	}
	q.Status = next
	return nil
}

// CompleteTask marks a task done and tries to complete the quest.
// Remaining open tasks are not an error: the outcome is StillInProgress.
func (q *Quest) CompleteTask(taskID string) (progress.Outcome, error) {
	if q.Status != progress.StatusInProgress {
		return progress.StillInProgress, progress.ErrNotStarted
	}
	task, ok := q.Tasks[taskID]
	if !ok {
		return progress.StillInProgress, progress.ErrTaskNotFound
	}
	task.Completed = true
	q.Tasks[taskID] = task

	if err := q.Complete(); err != nil {
		return progress.StillInProgress, nil
	}
	return progress.Completed, nil
}

// Complete moves the quest to COMPLETE once every task is done.
func (q *Quest) Complete() error {
	for _, t := range q.Tasks {
		if !t.Completed {
			return progress.ErrTasksIncomplete
		}
	}
	return q.TransitionStatus(progress.StatusComplete)
}

func (q *Quest) Start() error {
	return q.TransitionStatus(progress.StatusInProgress)
}

func (q *Quest) Stop() error {
	return q.TransitionStatus(progress.StatusStopped)
}

// Reset moves the quest back to PENDING and clears every task.
func (q *Quest) Reset() error {
	if err := q.TransitionStatus(progress.StatusPending); err != nil {
		return err
	}
	for id, t := range q.Tasks {
		t.Completed = false
		q.Tasks[id] = t
	}
	return nil
}

// Progress returns how many tasks are done out of the total.
func (q *Quest) Progress() (completed, total int) {
	for _, t := range q.Tasks {
		if t.Completed {
			completed++
		}
	}
	return completed, len(q.Tasks)
}

// HasTask reports whether taskID belongs to the quest.
func (q *Quest) HasTask(taskID string) bool {
	_, ok := q.Tasks[taskID]
	return ok
}

// TaskIDs returns the task ids in lexical order.
func (q *Quest) TaskIDs() []string {
	ids := make([]string, 0, len(q.Tasks))
	for id := range q.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
