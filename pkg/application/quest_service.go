package application

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/muses-project/progress/pkg/contract"
	"github.com/muses-project/progress/pkg/domain/progress"
	"github.com/muses-project/progress/pkg/domain/quest"
)

// QuestService is the authority over quests.
type QuestService struct {
	repo    quest.Repository
	builder QuestBuilder
	logger  *zap.Logger
	locks   keyedMutex

	// maxTasks picks the task budget of each generated quest.
	maxTasks func() int
}

func NewQuestService(repo quest.Repository, builder QuestBuilder, logger *zap.Logger) *QuestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestService{
		repo:     repo,
		builder:  builder,
		logger:   logger,
		maxTasks: func() int { return 15 + rand.IntN(3) },
	}
}

func (s *QuestService) Get(ctx context.Context, id string) (*quest.Quest, error) {
	return s.repo.Get(ctx, id)
}

func (s *QuestService) List(ctx context.Context, q quest.Query) ([]*quest.Quest, error) {
	return s.repo.Find(ctx, q)
}

func (s *QuestService) Count(ctx context.Context, q quest.Query) (int, error) {
	return s.repo.Count(ctx, q)
}

// CompleteTask marks one task done and returns the quest's progress. The
// quest completes on its own when the last task is done.
func (s *QuestService) CompleteTask(ctx context.Context, id, taskID string) (contract.TaskProgress, progress.Outcome, error) {
	if strings.TrimSpace(taskID) == "" {
		return contract.TaskProgress{}, progress.StillInProgress, fmt.Errorf("%w: task_id is required", progress.ErrBadRequest)
	}
	var outcome progress.Outcome
	q, err := s.mutate(ctx, id, func(q *quest.Quest) error {
		var err error
		outcome, err = q.CompleteTask(taskID)
		return err
	})
	if err != nil {
		return contract.TaskProgress{}, progress.StillInProgress, err
	}

	done, total := q.Progress()
	s.logger.Info("task completed",
		zap.String("quest_id", id),
		zap.String("task_id", taskID),
		zap.Int("completed_tasks", done),
		zap.Int("tot_tasks", total),
		zap.Stringer("outcome", outcome))
	return contract.TaskProgress{CompletedTasks: done, TotTasks: total}, outcome, nil
}

func (s *QuestService) Start(ctx context.Context, id string) error {
	return s.transition(ctx, id, "start", (*quest.Quest).Start)
}

func (s *QuestService) Stop(ctx context.Context, id string) error {
	return s.transition(ctx, id, "stop", (*quest.Quest).Stop)
}

func (s *QuestService) Reset(ctx context.Context, id string) error {
	return s.transition(ctx, id, "reset", (*quest.Quest).Reset)
}

// UpdateStatus completes the named task first, then applies the requested status.
func (s *QuestService) UpdateStatus(ctx context.Context, id string, req contract.StatusRequest) error {
	if req.Status == "" && req.TaskID == "" {
		return fmt.Errorf("%w: status or task_id is required", progress.ErrBadRequest)
	}
	if req.Status != "" && !req.Status.IsValid() {
		return fmt.Errorf("%w: %q", progress.ErrInvalidStatus, req.Status)
	}
	_, err := s.mutate(ctx, id, func(q *quest.Quest) error {
		if req.TaskID != "" {
			if _, err := q.CompleteTask(req.TaskID); err != nil {
				return err
			}
		}
		switch req.Status {
		case "":
			return nil
		case progress.StatusComplete:
			return q.Complete()
		case progress.StatusPending:
			return q.Reset()
		default:
			return q.TransitionStatus(req.Status)
		}
	})
	if err != nil {
		return err
	}
	s.logger.Info("quest status updated", zap.String("quest_id", id), zap.Stringer("status", req.Status))
	return nil
}

// Create stores a new quest. The store assigns the id and the quest always
// starts PENDING with no task done.
func (s *QuestService) Create(ctx context.Context, q *quest.Quest) (string, error) {
	q.ID = ""
	q.Status = progress.StatusPending
	for id, task := range q.Tasks {
		task.Completed = false
		q.Tasks[id] = task
	}
	id, err := s.repo.Insert(ctx, q)
	if err != nil {
		return "", err
	}
	s.logger.Info("quest created", zap.String("quest_id", id))
	return id, nil
}

// Generate asks the quest builder for a new quest and stores it PENDING.
func (s *QuestService) Generate(ctx context.Context, userID string) ([]string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", progress.ErrBadRequest)
	}
	if s.builder == nil {
		return nil, fmt.Errorf("%w: no quest builder configured", progress.ErrGenerationFailed)
	}

	built, err := s.builder.BuildQuests(ctx, userID, 1, s.maxTasks())
	if err != nil {
		s.logger.Warn("quest generation failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", progress.ErrGenerationFailed, err)
	}

	ids := make([]string, 0, len(built))
	for _, b := range built {
		if len(b.Tasks) == 0 {
			s.logger.Warn("skipping generated quest without tasks", zap.String("user_id", userID), zap.String("title", b.Title))
			continue
		}
		id, err := s.repo.Insert(ctx, b.ToQuest())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: quest must have at least a task", progress.ErrNoQuests)
	}
	s.logger.Info("quests generated", zap.String("user_id", userID), zap.Strings("quest_ids", ids))
	return ids, nil
}

func (s *QuestService) transition(ctx context.Context, id, action string, apply func(*quest.Quest) error) error {
	q, err := s.mutate(ctx, id, apply)
	if err != nil {
		s.logger.Debug("quest transition refused", zap.String("quest_id", id), zap.String("action", action), zap.Error(err))
		return err
	}
	s.logger.Info("quest "+action, zap.String("quest_id", id), zap.Stringer("status", q.Status))
	return nil
}

// mutate loads, changes and saves one quest under its lock.
func (s *QuestService) mutate(ctx context.Context, id string, apply func(*quest.Quest) error) (*quest.Quest, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(q); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}
