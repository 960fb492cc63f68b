// Package reward delivers mission rewards without blocking the caller.
// Failed deliveries are kept as dead letters and replayed later.
package reward

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muses-project/progress/pkg/domain/mission"
)

// Generator issues a reward. client.RewardClient implements it.
type Generator interface {
	Generate(ctx context.Context, userID string) error
}

// Trigger implements mission.RewardTrigger.
type Trigger struct {
	base       context.Context
	gen        Generator
	deadLetter *DeadLetterStore
	timeout    time.Duration
	logger     *zap.Logger
	wg         sync.WaitGroup
}

var _ mission.RewardTrigger = (*Trigger)(nil)

// NewTrigger creates a trigger. A nil gen disables rewards; a nil deadLetter
// drops failures after logging them. Deliveries outlive cancellation of base
// but keep its values.
func NewTrigger(base context.Context, gen Generator, deadLetter *DeadLetterStore, timeout time.Duration, logger *zap.Logger) *Trigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Trigger{
		base:       context.WithoutCancel(base),
		gen:        gen,
		deadLetter: deadLetter,
		timeout:    timeout,
		logger:     logger,
	}
}

// Dispatch starts delivery in the background and returns immediately.
func (t *Trigger) Dispatch(userID string) {
	if t.gen == nil {
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.deliver(userID)
	}()
}

// Wait blocks until every pending delivery has finished.
func (t *Trigger) Wait() {
	t.wg.Wait()
}

func (t *Trigger) deliver(userID string) {
	ctx, cancel := context.WithTimeout(t.base, t.timeout)
	defer cancel()

	err := t.gen.Generate(ctx, userID)
	if err == nil {
		t.logger.Info("reward issued", zap.String("user_id", userID))
		return
	}

	t.logger.Warn("reward delivery failed", zap.String("user_id", userID), zap.Error(err))
	if t.deadLetter == nil {
		return
	}
	dl := DeadLetter{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Error:     err.Error(),
		Attempts:  1,
	}
	if err := t.deadLetter.Append(dl); err != nil {
		t.logger.Error("could not record reward dead letter", zap.String("user_id", userID), zap.Error(err))
	}
}

// ReplayResult summarises one replay pass.
type ReplayResult struct {
	Replayed int
	Failed   int
}

// Replay re-sends every dead letter once, synchronously. Successes are
// removed from the store; failures stay with their attempt count bumped.
func (t *Trigger) Replay(ctx context.Context) (ReplayResult, error) {
	var res ReplayResult
	if t.gen == nil || t.deadLetter == nil {
		return res, nil
	}
	entries, err := t.deadLetter.ReadAll()
	if err != nil {
		return res, err
	}

	done := make(map[string]bool, len(entries))
	var retry []DeadLetter
	for _, dl := range entries {
		callCtx, cancel := context.WithTimeout(ctx, t.timeout)
		err := t.gen.Generate(callCtx, dl.UserID)
		cancel()

		done[dl.ID] = true
		if err != nil {
			res.Failed++
			dl.Attempts++
			dl.Error = err.Error()
			retry = append(retry, dl)
			t.logger.Warn("reward replay failed", zap.String("user_id", dl.UserID), zap.Int("attempts", dl.Attempts), zap.Error(err))
			continue
		}
		res.Replayed++
		t.logger.Info("reward replayed", zap.String("user_id", dl.UserID))
	}

	if err := t.deadLetter.Remove(done); err != nil {
		return res, err
	}
	for _, dl := range retry {
		if err := t.deadLetter.Append(dl); err != nil {
			return res, err
		}
	}
	return res, nil
}
