package application

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muses-project/progress/pkg/contract"
	"github.com/muses-project/progress/pkg/domain/progress"
)

// CascadeOutcome tags a successful task completion.
type CascadeOutcome int

const (
	// TaskRecorded: the quest still has open tasks.
	TaskRecorded CascadeOutcome = iota
	// StepAdvanced: the quest finished and the mission moved to its next step.
	StepAdvanced
	// MissionCompleted: the quest was the mission's last step.
	MissionCompleted
	// AlreadyApplied: the mission had already recorded the step.
	AlreadyApplied
)

func (o CascadeOutcome) String() string {
	switch o {
	case TaskRecorded:
		return "task_recorded"
	case StepAdvanced:
		return "step_advanced"
	case MissionCompleted:
		return "mission_completed"
	case AlreadyApplied:
		return "already_applied"
	default:
		return "unknown"
	}
}

// CascadeService propagates a task completion up to its quest and mission.
// Nothing is compensated: once the quest accepted the task, a later mission
// failure leaves the quest complete for the reconciliation job to pick up.
type CascadeService struct {
	quests   QuestRemote
	missions MissionRemote
	logger   *zap.Logger
}

func NewCascadeService(quests QuestRemote, missions MissionRemote, logger *zap.Logger) *CascadeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CascadeService{quests: quests, missions: missions, logger: logger}
}

// CompleteTask validates the (user, mission, quest, task) triple, completes
// the task and, when that finishes the quest, the mission step.
func (s *CascadeService) CompleteTask(ctx context.Context, userID, missionID, questID, taskID string) (CascadeOutcome, error) {
	log := s.logger.With(
		zap.String("user_id", userID),
		zap.String("mission_id", missionID),
		zap.String("quest_id", questID),
		zap.String("task_id", taskID))

	missionEnv, questEnv, err := s.fetch(ctx, missionID, questID)
	if err != nil {
		log.Warn("cascade fetch failed", zap.Error(err))
		return TaskRecorded, err
	}
	m, q := missionEnv.Mission, questEnv.Quest

	if m.UserID != userID {
		log.Warn("cascade rejected: mission belongs to another user")
		return TaskRecorded, fmt.Errorf("%w: mission %s", progress.ErrNotAuthorized, missionID)
	}
	if !m.HasStep(questID) {
		return TaskRecorded, fmt.Errorf("%w: %s", progress.ErrQuestNotInMission, questID)
	}
	if !q.HasTask(taskID) {
		return TaskRecorded, fmt.Errorf("%w: %s", progress.ErrTaskNotInQuest, taskID)
	}
	next := m.NextStep()
	if next < 0 || m.Steps[next].StepID != questID {
		return TaskRecorded, fmt.Errorf("%w: %s", progress.ErrNotNextInOrder, questID)
	}
	lastStep := next == len(m.Steps)-1

	prog, err := s.quests.CompleteTask(ctx, questID, taskID)
	if err != nil {
		log.Warn("quest refused task completion", zap.Error(err))
		if contract.StatusCode(err) == http.StatusNotFound {
			return TaskRecorded, fmt.Errorf("%w: %v", progress.ErrCascadeTaskNotFound, err)
		}
		return TaskRecorded, fmt.Errorf("%w: %v", progress.ErrQuestCompletionFailed, err)
	}
	if !prog.Done() {
		log.Info("task recorded", zap.Int("completed_tasks", prog.CompletedTasks), zap.Int("tot_tasks", prog.TotTasks))
		return TaskRecorded, nil
	}

	if err := s.missions.CompleteStep(ctx, missionID, questID); err != nil {
		if contract.StatusCode(err) == http.StatusBadRequest {
			log.Info("mission step already applied", zap.Error(err))
			return AlreadyApplied, nil
		}
		log.Error("quest completed but mission did not advance", zap.Error(err))
		return TaskRecorded, fmt.Errorf("%w: %v", progress.ErrMissionCompletionFailed, err)
	}

	outcome := StepAdvanced
	if lastStep {
		outcome = MissionCompleted
	}
	log.Info("quest completed", zap.Stringer("outcome", outcome))
	return outcome, nil
}

// fetch loads the mission and quest concurrently. Transport failures win over
// HTTP errors so the caller knows a retry may help.
func (s *CascadeService) fetch(ctx context.Context, missionID, questID string) (*contract.MissionEnvelope, *contract.QuestEnvelope, error) {
	var (
		missionEnv *contract.MissionEnvelope
		questEnv   *contract.QuestEnvelope
		missionErr error
		questErr   error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		env, err := s.missions.Get(gctx, missionID)
		if contract.IsUnavailable(err) {
			return err
		}
		missionEnv, missionErr = env, err
		return nil
	})
	g.Go(func() error {
		env, err := s.quests.Get(gctx, questID)
		if contract.IsUnavailable(err) {
			return err
		}
		questEnv, questErr = env, err
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", progress.ErrServiceUnavailable, err)
	}

	if missionErr != nil {
		return nil, nil, fmt.Errorf("%w: mission %s: %v", progress.ErrDataIncoherent, missionID, missionErr)
	}
	if questErr != nil {
		return nil, nil, fmt.Errorf("%w: quest %s: %v", progress.ErrDataIncoherent, questID, questErr)
	}
	if missionEnv == nil || missionEnv.Mission == nil {
		return nil, nil, fmt.Errorf("%w: mission %s is empty", progress.ErrDataIncoherent, missionID)
	}
	if questEnv == nil || questEnv.Quest == nil {
		return nil, nil, fmt.Errorf("%w: quest %s is empty", progress.ErrDataIncoherent, questID)
	}
	return missionEnv, questEnv, nil
}
