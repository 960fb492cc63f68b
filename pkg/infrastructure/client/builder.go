package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/muses-project/progress/pkg/contract"
)

// BuilderClient talks to the external quest builder.
type BuilderClient struct {
	c caller
}

func NewBuilderClient(baseURL string, opts ...Option) *BuilderClient {
	return &BuilderClient{c: newCaller("quest-builder", baseURL, opts)}
}

// BuildQuests asks for nQuests quests of at most maxTasks tasks each.
func (b *BuilderClient) BuildQuests(ctx context.Context, userID string, nQuests, maxTasks int) ([]contract.BuiltQuest, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("n_quests", strconv.Itoa(nQuests))
	q.Set("max_tasks", strconv.Itoa(maxTasks))

	res, err := b.c.get(ctx, "build", "/quest-builder/questing/quest/multiple?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return decodeJSON[[]contract.BuiltQuest]("quest-builder", "build", res)
}
