package application

import (
	"context"

	"github.com/muses-project/progress/pkg/contract"
	"github.com/muses-project/progress/pkg/infrastructure/reward"
)

// QuestBuilder produces new quests for a user.
type QuestBuilder interface {
	BuildQuests(ctx context.Context, userID string, nQuests, maxTasks int) ([]contract.BuiltQuest, error)
}

// QuestGenerator asks the quest service for freshly generated quest ids.
type QuestGenerator interface {
	Generate(ctx context.Context, userID string) ([]string, error)
}

// QuestRemote is the cascade's view of the quest service.
type QuestRemote interface {
	Get(ctx context.Context, questID string) (*contract.QuestEnvelope, error)
	CompleteTask(ctx context.Context, questID, taskID string) (contract.TaskProgress, error)
}

// MissionRemote is the cascade's view of the mission service.
type MissionRemote interface {
	Get(ctx context.Context, missionID string) (*contract.MissionEnvelope, error)
	CompleteStep(ctx context.Context, missionID, stepID string) error
}

// RewardReplayer re-sends rewards that could not be delivered.
type RewardReplayer interface {
	Replay(ctx context.Context) (reward.ReplayResult, error)
}
