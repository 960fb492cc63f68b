// Package contract holds the JSON shapes exchanged between the quest,
// mission, cascade and reward services, and the errors their clients report.
package contract

import (
	"github.com/muses-project/progress/pkg/domain/mission"
	"github.com/muses-project/progress/pkg/domain/progress"
	"github.com/muses-project/progress/pkg/domain/quest"
)

// QuestEnvelope is the quest service's answer to GET /{id}.
type QuestEnvelope struct {
	Quest          *quest.Quest `json:"quest"`
	TasksCompleted int          `json:"tasks_completed"`
	TotTasks       int          `json:"tot_tasks"`
}

// NewQuestEnvelope wraps q with its progress counters.
func NewQuestEnvelope(q *quest.Quest) QuestEnvelope {
	done, total := q.Progress()
	return QuestEnvelope{Quest: q, TasksCompleted: done, TotTasks: total}
}

// Done reports whether every task of the quest is completed.
func (e QuestEnvelope) Done() bool {
	return e.TasksCompleted == e.TotTasks
}

// MissionEnvelope is the mission service's answer to GET /{id}.
type MissionEnvelope struct {
	Mission        *mission.Mission `json:"mission"`
	StepsCompleted int              `json:"steps_completed"`
	TotSteps       int              `json:"tot_steps"`
}

// NewMissionEnvelope wraps m with its progress counters.
func NewMissionEnvelope(m *mission.Mission) MissionEnvelope {
	done, total := m.Progress()
	return MissionEnvelope{Mission: m, StepsCompleted: done, TotSteps: total}
}

// TaskProgress is returned after a task completion.
type TaskProgress struct {
	CompletedTasks int `json:"completed_tasks"`
	TotTasks       int `json:"tot_tasks"`
}

// Done reports whether the quest has no open task left.
func (p TaskProgress) Done() bool {
	return p.CompletedTasks == p.TotTasks
}

type CompleteTaskRequest struct {
	TaskID string `json:"task_id"`
}

type CompleteStepRequest struct {
	StepID string `json:"step_id"`
}

// StatusRequest asks for an explicit status change. A quest may name a task
// instead, which completes that task.
type StatusRequest struct {
	Status progress.Status `json:"status,omitempty"`
	TaskID string          `json:"task_id,omitempty"`
}

// CascadeRequest is the body of the cascade entry point.
type CascadeRequest struct {
	TaskID    string `json:"task_id"`
	MissionID string `json:"mission_id"`
	QuestID   string `json:"quest_id"`
}

// Validate reports the first missing identifier.
func (r CascadeRequest) Validate() error {
	switch {
	case r.TaskID == "":
		return missingField("task_id")
	case r.MissionID == "":
		return missingField("mission_id")
	case r.QuestID == "":
		return missingField("quest_id")
	}
	return nil
}

// ErrorBody is written for every failed request.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MissionCreated answers a mission generation.
type MissionCreated struct {
	Mission string `json:"mission"`
}

// QuestCreated answers a quest document insert.
type QuestCreated struct {
	Quest string `json:"quest"`
}

// QuestList answers quest listings. A status query without full=true only
// carries the count.
type QuestList struct {
	Quests []*quest.Quest `json:"quests,omitempty"`
	Count  int            `json:"count"`
}

// MissionList answers mission listings.
type MissionList struct {
	Missions []*mission.Mission `json:"missions"`
	Count    int                `json:"count"`
}

// BuiltQuest is one quest produced by the external quest builder.
type BuiltQuest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	MuseumID    string      `json:"museumId"`
	Tasks       []BuiltTask `json:"tasks"`
}

type BuiltTask struct {
	ArtworkID   string `json:"artworkId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ToQuest converts a built quest to a PENDING quest keyed by artwork id.
func (b BuiltQuest) ToQuest() *quest.Quest {
	tasks := make(map[string]quest.Task, len(b.Tasks))
	for _, t := range b.Tasks {
		tasks[t.ArtworkID] = quest.Task{Title: t.Title, Description: t.Description}
	}
	return quest.New(b.Title, b.Description, b.MuseumID, tasks)
}
