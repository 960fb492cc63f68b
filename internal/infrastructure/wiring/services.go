// Package wiring assembles stores, clients and services from configuration.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/muses-project/progress/internal/infrastructure/config"
	"github.com/muses-project/progress/pkg/application"
	"github.com/muses-project/progress/pkg/infrastructure/client"
	"github.com/muses-project/progress/pkg/infrastructure/httpapi"
	"github.com/muses-project/progress/pkg/infrastructure/reward"
	"github.com/muses-project/progress/pkg/storage"
	"github.com/muses-project/progress/pkg/storage/mongo"
	"github.com/muses-project/progress/pkg/storage/sqlite"
)

// Service is a runnable HTTP service and the resources it owns.
type Service struct {
	Name    string
	Handler http.Handler
	closers []func() error
}

// Close releases the service's resources in reverse order of acquisition.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// OpenStore opens the document store selected by cfg.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (storage.DocumentStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(cfg.Path)
	case config.DriverMongo:
		return mongo.Open(ctx, cfg.MongoURI, cfg.Database)
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalidConfig, cfg.Driver)
	}
}

func clientOptions(cfg config.ClientConfig) []client.Option {
	return []client.Option{
		client.WithTimeout(cfg.Timeout),
		client.WithRetry(cfg.RetryAttempts, cfg.RetryDelay),
	}
}

// Build wires the named service. ctx bounds store connection only; reward
// deliveries started by the service outlive it.
func Build(ctx context.Context, name string, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if err := cfg.Validate(name); err != nil {
		return nil, err
	}
	switch name {
	case config.ServiceQuest:
		return buildQuest(ctx, cfg, logger)
	case config.ServiceMission:
		return buildMission(ctx, cfg, logger)
	case config.ServiceCascade:
		return buildCascade(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q is not an HTTP service", config.ErrInvalidConfig, name)
	}
}

func buildQuest(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var builder application.QuestBuilder
	if cfg.Upstreams.Builder != "" {
		builder = client.NewBuilderClient(cfg.Upstreams.Builder, clientOptions(cfg.Client)...)
	} else {
		logger.Warn("no quest builder configured, quest generation is disabled")
	}

	svc := application.NewQuestService(storage.NewQuestRepository(store, storage.WithLogger(logger)), builder, logger)
	return &Service{
		Name:    config.ServiceQuest,
		Handler: httpapi.NewQuestRouter(svc, store.Ping, logger),
		closers: []func() error{store.Close},
	}, nil
}

// missionStack is shared by the mission service and the reconciliation job.
type missionStack struct {
	store   storage.DocumentStore
	trigger *reward.Trigger
	svc     *application.MissionService
}

func (m *missionStack) close() error {
	m.trigger.Wait()
	return m.store.Close()
}

func newMissionStack(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*missionStack, error) {
	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	opts := clientOptions(cfg.Client)
	quests := client.NewQuestClient(cfg.Upstreams.Quest, opts...)

	var gen reward.Generator
	if cfg.Upstreams.Reward != "" {
		gen = client.NewRewardClient(cfg.Upstreams.Reward, opts...)
	} else {
		logger.Warn("no reward service configured, rewards are disabled")
	}
	var deadLetters *reward.DeadLetterStore
	if cfg.DeadLetterPath != "" {
		deadLetters = reward.NewDeadLetterStore(cfg.DeadLetterPath)
	}
	trigger := reward.NewTrigger(context.Background(), gen, deadLetters, 2*cfg.Client.Timeout, logger)

	svc := application.NewMissionService(storage.NewMissionRepository(store, storage.WithLogger(logger)), quests, quests, trigger, logger)
	return &missionStack{store: store, trigger: trigger, svc: svc}, nil
}

func buildMission(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	stack, err := newMissionStack(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Service{
		Name:    config.ServiceMission,
		Handler: httpapi.NewMissionRouter(stack.svc, stack.store.Ping, logger),
		closers: []func() error{stack.close},
	}, nil
}

func buildCascade(cfg *config.Config, logger *zap.Logger) *Service {
	opts := clientOptions(cfg.Client)
	svc := application.NewCascadeService(
		client.NewQuestClient(cfg.Upstreams.Quest, opts...),
		client.NewMissionClient(cfg.Upstreams.Mission, opts...),
		logger,
	)
	auth := httpapi.AuthConfig{Secret: cfg.Auth.Secret, Issuer: cfg.Auth.Issuer}
	if !auth.Enabled() {
		logger.Warn("no JWT secret configured, task completion is not authenticated")
	}
	// Upstreams are checked by Validate; the cascade holds no state of its own.
	ready := func(context.Context) error { return nil }
	return &Service{
		Name:    config.ServiceCascade,
		Handler: httpapi.NewCascadeRouter(svc, auth, ready, logger),
	}
}

// Reconciler is the reconciliation job and the resources it owns.
type Reconciler struct {
	*application.ReconcileService
	stack *missionStack
}

func (r *Reconciler) Close() error {
	return r.stack.close()
}

// BuildReconciler wires the reconciliation job against the mission store.
func BuildReconciler(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Reconciler, error) {
	if err := cfg.Validate(config.ServiceReconcile); err != nil {
		return nil, err
	}
	stack, err := newMissionStack(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	var replayer application.RewardReplayer
	if cfg.Upstreams.Reward != "" && cfg.DeadLetterPath != "" {
		replayer = stack.trigger
	}
	return &Reconciler{
		ReconcileService: application.NewReconcileService(stack.svc, replayer, logger),
		stack:            stack,
	}, nil
}
