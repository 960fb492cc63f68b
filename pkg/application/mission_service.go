package application

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/muses-project/progress/pkg/domain/mission"
	"github.com/muses-project/progress/pkg/domain/progress"
)

// MissionService is the authority over missions.
type MissionService struct {
	repo    mission.Repository
	machine *mission.Machine
	quests  QuestGenerator
	logger  *zap.Logger
	locks   keyedMutex
}

func NewMissionService(repo mission.Repository, gateway mission.QuestGateway, quests QuestGenerator, rewards mission.RewardTrigger, logger *zap.Logger) *MissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MissionService{
		repo:    repo,
		machine: mission.NewMachine(repo, gateway, rewards),
		quests:  quests,
		logger:  logger,
	}
}

func (s *MissionService) Get(ctx context.Context, id string) (*mission.Mission, error) {
	return s.repo.Get(ctx, id)
}

func (s *MissionService) List(ctx context.Context, q mission.Query) ([]*mission.Mission, error) {
	return s.repo.Find(ctx, q)
}

// CompleteStep completes the mission's next step once its quest is done.
func (s *MissionService) CompleteStep(ctx context.Context, id, stepID string) (progress.Outcome, error) {
	if strings.TrimSpace(stepID) == "" {
		return progress.StillInProgress, fmt.Errorf("%w: step_id is required", progress.ErrBadRequest)
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return progress.StillInProgress, err
	}
	outcome, err := s.machine.CompleteStep(ctx, m, stepID)
	if err != nil {
		s.logger.Warn("step completion refused",
			zap.String("mission_id", id), zap.String("step_id", stepID), zap.Error(err))
		return outcome, err
	}

	done, total := m.Progress()
	s.logger.Info("step completed",
		zap.String("mission_id", id),
		zap.String("user_id", m.UserID),
		zap.String("step_id", stepID),
		zap.Int("steps_completed", done),
		zap.Int("tot_steps", total),
		zap.Stringer("outcome", outcome))
	return outcome, nil
}

func (s *MissionService) Start(ctx context.Context, id string) error {
	return s.run(ctx, id, "start", s.machine.Start)
}

func (s *MissionService) Stop(ctx context.Context, id string) error {
	return s.run(ctx, id, "stop", s.machine.Stop)
}

func (s *MissionService) Reset(ctx context.Context, id string) error {
	return s.run(ctx, id, "reset", s.machine.Reset)
}

// UpdateStatus routes an explicit status request to the matching operation.
func (s *MissionService) UpdateStatus(ctx context.Context, id string, status progress.Status) error {
	switch status {
	case progress.StatusInProgress:
		return s.Start(ctx, id)
	case progress.StatusStopped:
		return s.Stop(ctx, id)
	case progress.StatusPending:
		return s.Reset(ctx, id)
	case progress.StatusComplete:
		return s.run(ctx, id, "complete", s.machine.Complete)
	case "":
		return fmt.Errorf("%w: status is required", progress.ErrBadRequest)
	default:
		return fmt.Errorf("%w: %q", progress.ErrInvalidStatus, status)
	}
}

// Generate creates a PENDING mission from quests the quest service builds
// for the user.
func (s *MissionService) Generate(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", progress.ErrBadRequest)
	}
	if s.quests == nil {
		return "", fmt.Errorf("%w: no quest service configured", progress.ErrGenerationFailed)
	}

	questIDs, err := s.quests.Generate(ctx, userID)
	if err != nil {
		s.logger.Warn("step generation failed", zap.String("user_id", userID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", progress.ErrGenerationFailed, err)
	}
	if len(questIDs) == 0 {
		return "", progress.ErrNoQuests
	}

	m := mission.New(userID, questIDs)
	id, err := s.repo.Insert(ctx, m)
	if err != nil {
		return "", err
	}
	s.logger.Info("mission generated", zap.String("mission_id", id), zap.String("user_id", userID), zap.Int("tot_steps", len(questIDs)))
	return id, nil
}

func (s *MissionService) run(ctx context.Context, id, action string, op func(context.Context, *mission.Mission) error) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := op(ctx, m); err != nil {
		s.logger.Warn("mission "+action+" refused", zap.String("mission_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("mission "+action, zap.String("mission_id", id), zap.String("user_id", m.UserID), zap.Stringer("status", m.Status))
	return nil
}
