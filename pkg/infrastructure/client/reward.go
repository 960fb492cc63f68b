package client

import (
	"context"
	"net/http"
	"net/url"
)

// RewardClient talks to the reward service.
type RewardClient struct {
	c caller
}

func NewRewardClient(baseURL string, opts ...Option) *RewardClient {
	return &RewardClient{c: newCaller("reward", baseURL, opts)}
}

// Generate asks the reward service to issue a reward for userID. The route is
// a GET but issuing a reward is not idempotent, so it is never retried.
func (r *RewardClient) Generate(ctx context.Context, userID string) error {
	_, err := r.c.do(ctx, "generate", http.MethodGet, "/generate/"+url.PathEscape(userID), nil, false)
	return err
}
