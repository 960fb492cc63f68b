package client

import (
	"context"
	"net/url"

	"github.com/muses-project/progress/pkg/contract"
)

// MissionClient talks to the mission service.
type MissionClient struct {
	c caller
}

func NewMissionClient(baseURL string, opts ...Option) *MissionClient {
	return &MissionClient{c: newCaller("mission", baseURL, opts)}
}

// Get fetches a mission with its progress counters.
func (m *MissionClient) Get(ctx context.Context, missionID string) (*contract.MissionEnvelope, error) {
	res, err := m.c.get(ctx, "get", "/"+url.PathEscape(missionID))
	if err != nil {
		return nil, err
	}
	env, err := decodeJSON[contract.MissionEnvelope]("mission", "get", res)
	if err != nil {
		return nil, err
	}
	return &env, nil
}

// CompleteStep asks the mission service to complete a step. The mission
// service re-validates the quest itself.
func (m *MissionClient) CompleteStep(ctx context.Context, missionID, stepID string) error {
	_, err := m.c.post(ctx, "complete", "/complete/"+url.PathEscape(missionID), contract.CompleteStepRequest{StepID: stepID})
	return err
}
