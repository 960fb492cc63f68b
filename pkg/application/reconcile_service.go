package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/muses-project/progress/pkg/domain/mission"
	"github.com/muses-project/progress/pkg/domain/progress"
)

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	MissionsScanned   int      `json:"missions_scanned"`
	StepsAdvanced     int      `json:"steps_advanced"`
	MissionsCompleted int      `json:"missions_completed"`
	RewardsReplayed   int      `json:"rewards_replayed"`
	RewardsFailed     int      `json:"rewards_failed"`
	Errors            []string `json:"errors,omitempty"`
}

// ReconcileService closes the gap left when a quest completed but its
// mission never advanced, and replays rewards that failed to deliver.
type ReconcileService struct {
	missions *MissionService
	rewards  RewardReplayer
	logger   *zap.Logger
}

func NewReconcileService(missions *MissionService, rewards RewardReplayer, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{missions: missions, rewards: rewards, logger: logger}
}

// Run scans every IN_PROGRESS mission. One mission's failure does not stop
// the scan; it is recorded in the report.
func (s *ReconcileService) Run(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	inProgress, err := s.missions.List(ctx, mission.Query{Status: progress.StatusInProgress})
	if err != nil {
		return report, fmt.Errorf("list missions: %w", err)
	}

	for _, m := range inProgress {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.MissionsScanned++
		if err := s.reconcile(ctx, m.ID, &report); err != nil {
			s.logger.Warn("mission reconciliation failed", zap.String("mission_id", m.ID), zap.Error(err))
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", m.ID, err))
		}
	}

	if s.rewards != nil {
		res, err := s.rewards.Replay(ctx)
		report.RewardsReplayed = res.Replayed
		report.RewardsFailed = res.Failed
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("reward replay: %v", err))
		}
	}

	s.logger.Info("reconciliation finished",
		zap.Int("missions_scanned", report.MissionsScanned),
		zap.Int("steps_advanced", report.StepsAdvanced),
		zap.Int("missions_completed", report.MissionsCompleted),
		zap.Int("rewards_replayed", report.RewardsReplayed),
		zap.Int("rewards_failed", report.RewardsFailed),
		zap.Int("errors", len(report.Errors)))
	return report, nil
}

// reconcile advances one mission while the quest behind its next step is done.
func (s *ReconcileService) reconcile(ctx context.Context, id string, report *ReconcileReport) error {
	for {
		m, err := s.missions.Get(ctx, id)
		if err != nil {
			return err
		}
		if m.Status != progress.StatusInProgress {
			return nil
		}

		next := m.NextStep()
		if next < 0 {
			if err := s.missions.UpdateStatus(ctx, id, progress.StatusComplete); err != nil {
				return err
			}
			report.MissionsCompleted++
			return nil
		}

		outcome, err := s.missions.CompleteStep(ctx, id, m.Steps[next].StepID)
		if errors.Is(err, progress.ErrQuestNotDone) {
			return nil
		}
		if err != nil {
			return err
		}
		report.StepsAdvanced++
		s.logger.Info("mission step reconciled", zap.String("mission_id", id), zap.String("step_id", m.Steps[next].StepID))
		if outcome == progress.Completed {
			report.MissionsCompleted++
			return nil
		}
	}
}
