package progress

import (
	"errors"
	"fmt"
)

// State machine errors shared by missions and quests.
var (
	// ErrInvalidStatus indicates a status outside the known set.
	ErrInvalidStatus = errors.New("status unknown")

	// ErrIllegalTransition indicates the transition table forbids the move.
	ErrIllegalTransition = errors.New("status transition not allowed")

	// ErrNotStarted indicates the entity must be IN_PROGRESS for the operation.
	ErrNotStarted = errors.New("not started")

	// ErrTaskNotFound indicates the task id is not part of the quest.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTasksIncomplete indicates a quest cannot complete while tasks remain.
	ErrTasksIncomplete = errors.New("quest tasks are not completed")

	// ErrStepsIncomplete indicates a mission cannot complete while steps remain.
	ErrStepsIncomplete = errors.New("mission steps are not completed")

	// ErrOutOfOrder indicates a step was completed before an earlier one.
	ErrOutOfOrder = errors.New("step completed out of order")

	// ErrStepNotFound indicates no incomplete step is left.
	ErrStepNotFound = errors.New("step not found")

	// ErrRemoteStartFailed indicates the first quest refused to start.
	ErrRemoteStartFailed = errors.New("could not start quest")

	// ErrRemoteStopFailed indicates a quest refused to stop.
	ErrRemoteStopFailed = errors.New("could not stop quest")

	// ErrRemoteResetFailed indicates a quest refused to reset.
	ErrRemoteResetFailed = errors.New("could not reset quest")

	// ErrQuestNotDone indicates the quest behind a step still has open tasks.
	ErrQuestNotDone = errors.New("quest is not done")

	// ErrQuestLookupFailed indicates the quest behind a step could not be read.
	ErrQuestLookupFailed = errors.New("could not read quest progress")

	// ErrNextQuestStartFailed indicates the following quest refused to start.
	ErrNextQuestStartFailed = errors.New("could not start next quest")

	// ErrNoQuests indicates generation produced nothing to build a mission from.
	ErrNoQuests = errors.New("cannot create mission with no quests")

	// ErrGenerationFailed indicates the quest builder could not produce quests.
	ErrGenerationFailed = errors.New("quest generation failed")

	// ErrNotFound indicates the mission or quest does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDocument indicates a stored or submitted document is malformed.
	ErrInvalidDocument = errors.New("invalid document")
)

// Cascade errors, one per terminal outcome of a failed task completion.
var (
	ErrBadRequest              = errors.New("bad request")
	ErrServiceUnavailable      = errors.New("server connection lost, retry later")
	ErrDataIncoherent          = errors.New("identifiers do not form a coherent user, mission and quest")
	ErrNotAuthorized           = errors.New("not authorized")
	ErrQuestNotInMission       = errors.New("quest not found inside mission")
	ErrTaskNotInQuest          = errors.New("task not found inside quest")
	ErrNotNextInOrder          = errors.New("quest is not the next one in the mission")
	ErrCascadeTaskNotFound     = errors.New("task vanished before completion")
	ErrQuestCompletionFailed   = errors.New("could not complete task")
	ErrMissionCompletionFailed = errors.New("could not complete quest step")
)

// TransitionError describes a refused status change.
type TransitionError struct {
	EntityID string
	From     Status
	To       Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition %s from %s to %s", e.EntityID, e.From, e.To)
}

// Is allows errors.Is to match ErrIllegalTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// OrderError describes a step completed ahead of its turn.
type OrderError struct {
	MissionID string
	Requested string
	Expected  string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("mission %s: cannot complete step %s before %s", e.MissionID, e.Requested, e.Expected)
}

// Is allows errors.Is to match ErrOutOfOrder.
func (e *OrderError) Is(target error) bool {
	return target == ErrOutOfOrder
}

// RemoteError wraps a failed call to the quest behind a step. Kind is the
// sentinel the failure is reported as (start, stop, reset, next start).
type RemoteError struct {
	Kind    error
	QuestID string
	Err     error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%v %s: %v", e.Kind, e.QuestID, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match the Kind sentinel.
func (e *RemoteError) Is(target error) bool {
	return target == e.Kind
}
