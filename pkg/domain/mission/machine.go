package mission

import (
	"context"
	"fmt"

	"github.com/muses-project/progress/pkg/domain/progress"
)

// QuestGateway is how a mission reaches the quests behind its steps.
// The quest service owns those quests; a mission only asks.
type QuestGateway interface {
	// QuestProgress returns completed and total task counts for a quest.
	QuestProgress(ctx context.Context, questID string) (completed, total int, err error)
	StartQuest(ctx context.Context, questID string) error
	StopQuest(ctx context.Context, questID string) error
	ResetQuest(ctx context.Context, questID string) error
}

// RewardTrigger issues a reward for a user. Dispatch must not block and
// its failures are not reported back.
type RewardTrigger interface {
	Dispatch(userID string)
}

// Machine applies status changes that involve remote quests and persists
// the result. The quest-side checks it performs are authoritative: callers'
// own ordering checks are never trusted.
type Machine struct {
	repo    Repository
	quests  QuestGateway
	rewards RewardTrigger
}

// NewMachine creates a Machine. rewards may be nil.
func NewMachine(repo Repository, quests QuestGateway, rewards RewardTrigger) *Machine {
	return &Machine{repo: repo, quests: quests, rewards: rewards}
}

// Start tells the first open step's quest it may begin, then moves the
// mission to IN_PROGRESS. If the quest refuses, the mission is unchanged.
func (mc *Machine) Start(ctx context.Context, m *Mission) error {
	if err := mc.checkTransition(m, progress.StatusInProgress); err != nil {
		return err
	}
	if len(m.Steps) == 0 {
		return fmt.Errorf("%w: mission %s has no steps", progress.ErrInvalidDocument, m.ID)
	}
	idx := m.NextStep()
	if idx < 0 {
		idx = 0
	}
	questID := m.Steps[idx].StepID
	if err := mc.quests.StartQuest(ctx, questID); err != nil {
		return &progress.RemoteError{Kind: progress.ErrRemoteStartFailed, QuestID: questID, Err: err}
	}
	if err := m.TransitionStatus(progress.StatusInProgress); err != nil {
		return err
	}
	return mc.repo.Save(ctx, m)
}

// Stop tells every step's quest to stop, then moves the mission to STOPPED.
// The first refusal aborts; quests already stopped stay stopped.
func (mc *Machine) Stop(ctx context.Context, m *Mission) error {
	if err := mc.checkTransition(m, progress.StatusStopped); err != nil {
		return err
	}
	for _, s := range m.Steps {
		if err := mc.quests.StopQuest(ctx, s.StepID); err != nil {
			return &progress.RemoteError{Kind: progress.ErrRemoteStopFailed, QuestID: s.StepID, Err: err}
		}
	}
	if err := m.TransitionStatus(progress.StatusStopped); err != nil {
		return err
	}
	return mc.repo.Save(ctx, m)
}

// Reset tells every step's quest to reset, clears the steps and moves the
// mission to PENDING. The first refusal aborts; quests already reset stay reset.
func (mc *Machine) Reset(ctx context.Context, m *Mission) error {
	if err := mc.checkTransition(m, progress.StatusPending); err != nil {
		return err
	}
	for _, s := range m.Steps {
		if err := mc.quests.ResetQuest(ctx, s.StepID); err != nil {
			return &progress.RemoteError{Kind: progress.ErrRemoteResetFailed, QuestID: s.StepID, Err: err}
		}
	}
	m.ClearSteps()
	if err := m.TransitionStatus(progress.StatusPending); err != nil {
		return err
	}
	return mc.repo.Save(ctx, m)
}

// CompleteStep completes the next step of the mission.
//
// The quest behind the step must report all of its tasks done. When the
// mission is not finished yet the following quest is started; if that fails
// nothing is saved, so the whole step can be retried. When the mission
// finishes, a reward is dispatched after the mission is saved.
func (mc *Machine) CompleteStep(ctx context.Context, m *Mission, stepID string) (progress.Outcome, error) {
	if _, err := m.CheckStep(stepID); err != nil {
		return progress.StillInProgress, err
	}

	done, total, err := mc.quests.QuestProgress(ctx, stepID)
	if err != nil {
		return progress.StillInProgress, &progress.RemoteError{Kind: progress.ErrQuestLookupFailed, QuestID: stepID, Err: err}
	}
	if done != total {
		return progress.StillInProgress, fmt.Errorf("%w: %s has %d of %d tasks done", progress.ErrQuestNotDone, stepID, done, total)
	}

	outcome, err := m.CompleteStep(stepID)
	if err != nil {
		return progress.StillInProgress, err
	}

	if outcome == progress.StillInProgress {
		next := m.Steps[m.NextStep()].StepID
		if err := mc.quests.StartQuest(ctx, next); err != nil {
			return progress.StillInProgress, &progress.RemoteError{Kind: progress.ErrNextQuestStartFailed, QuestID: next, Err: err}
		}
	}

	if err := mc.repo.Save(ctx, m); err != nil {
		return progress.StillInProgress, err
	}
	if outcome == progress.Completed {
		mc.reward(m)
	}
	return outcome, nil
}

// Complete finishes a mission whose steps are all done and dispatches the reward.
func (mc *Machine) Complete(ctx context.Context, m *Mission) error {
	if err := m.Complete(); err != nil {
		return err
	}
	if err := mc.repo.Save(ctx, m); err != nil {
		return err
	}
	mc.reward(m)
	return nil
}

func (mc *Machine) checkTransition(m *Mission, target progress.Status) error {
	if !m.Status.CanTransitionTo(target) {
		return &progress.TransitionError{EntityID: m.ID, From: m.Status, To: target}
	}
	return nil
}

func (mc *Machine) reward(m *Mission) {
	if mc.rewards != nil {
		mc.rewards.Dispatch(m.UserID)
	}
}
