package client

import (
	"context"
	"net/url"

	"github.com/muses-project/progress/pkg/contract"
	"github.com/muses-project/progress/pkg/domain/mission"
)

// QuestClient talks to the quest service.
type QuestClient struct {
	c caller
}

var _ mission.QuestGateway = (*QuestClient)(nil)

func NewQuestClient(baseURL string, opts ...Option) *QuestClient {
	return &QuestClient{c: newCaller("quest", baseURL, opts)}
}

// Get fetches a quest with its progress counters.
func (q *QuestClient) Get(ctx context.Context, questID string) (*contract.QuestEnvelope, error) {
	res, err := q.c.get(ctx, "get", "/"+url.PathEscape(questID))
	if err != nil {
		return nil, err
	}
	env, err := decodeJSON[contract.QuestEnvelope]("quest", "get", res)
	if err != nil {
		return nil, err
	}
	return &env, nil
}

// CompleteTask completes one task and returns the quest's progress afterwards.
func (q *QuestClient) CompleteTask(ctx context.Context, questID, taskID string) (contract.TaskProgress, error) {
	res, err := q.c.post(ctx, "complete", "/complete/"+url.PathEscape(questID), contract.CompleteTaskRequest{TaskID: taskID})
	if err != nil {
		return contract.TaskProgress{}, err
	}
	return decodeJSON[contract.TaskProgress]("quest", "complete", res)
}

// Generate asks the quest service to build new quests for a user and
// returns their ids.
func (q *QuestClient) Generate(ctx context.Context, userID string) ([]string, error) {
	res, err := q.c.post(ctx, "generate", "/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[[]string]("quest", "generate", res)
}

// QuestProgress returns completed and total task counts.
func (q *QuestClient) QuestProgress(ctx context.Context, questID string) (int, int, error) {
	env, err := q.Get(ctx, questID)
	if err != nil {
		return 0, 0, err
	}
	return env.TasksCompleted, env.TotTasks, nil
}

func (q *QuestClient) StartQuest(ctx context.Context, questID string) error {
	_, err := q.c.post(ctx, "start", "/start/"+url.PathEscape(questID), nil)
	return err
}

func (q *QuestClient) StopQuest(ctx context.Context, questID string) error {
	_, err := q.c.post(ctx, "stop", "/stop/"+url.PathEscape(questID), nil)
	return err
}

func (q *QuestClient) ResetQuest(ctx context.Context, questID string) error {
	_, err := q.c.post(ctx, "reset", "/reset/"+url.PathEscape(questID), nil)
	return err
}
