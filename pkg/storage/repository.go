package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/muses-project/progress/pkg/contract"
	"github.com/muses-project/progress/pkg/domain/mission"
	"github.com/muses-project/progress/pkg/domain/quest"
)

// RepositoryOption configures a repository.
type RepositoryOption func(*repoConfig)

type repoConfig struct {
	logger *zap.Logger
}

// WithLogger sets the logger that reports documents skipped by Find.
func WithLogger(logger *zap.Logger) RepositoryOption {
	return func(c *repoConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func newRepoConfig(opts []RepositoryOption) repoConfig {
	cfg := repoConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// MissionRepository implements mission.Repository over a DocumentStore.
type MissionRepository struct {
	store  DocumentStore
	logger *zap.Logger
}

var _ mission.Repository = (*MissionRepository)(nil)

func NewMissionRepository(store DocumentStore, opts ...RepositoryOption) *MissionRepository {
	cfg := newRepoConfig(opts)
	return &MissionRepository{store: store, logger: cfg.logger}
}

func (r *MissionRepository) Get(ctx context.Context, id string) (*mission.Mission, error) {
	doc, err := r.store.Get(ctx, Missions, id)
	if err != nil {
		return nil, err
	}
	return decodeMission(doc)
}

func (r *MissionRepository) Insert(ctx context.Context, m *mission.Mission) (string, error) {
	doc, err := missionDocument(m)
	if err != nil {
		return "", err
	}
	id, err := r.store.Insert(ctx, Missions, doc)
	if err != nil {
		return "", fmt.Errorf("insert mission: %w", err)
	}
	m.ID = id
	return id, nil
}

func (r *MissionRepository) Save(ctx context.Context, m *mission.Mission) error {
	doc, err := missionDocument(m)
	if err != nil {
		return err
	}
	if err := r.store.Edit(ctx, Missions, doc); err != nil {
		return fmt.Errorf("save mission: %w", err)
	}
	return nil
}

// Find lists matching missions. Documents that fail to decode are logged and
// skipped so one bad record does not hide the rest.
func (r *MissionRepository) Find(ctx context.Context, q mission.Query) ([]*mission.Mission, error) {
	docs, err := r.store.Find(ctx, Missions, Filter{Status: string(q.Status), Owner: q.UserID})
	if err != nil {
		return nil, fmt.Errorf("find missions: %w", err)
	}
	out := make([]*mission.Mission, 0, len(docs))
	for _, doc := range docs {
		m, err := decodeMission(doc)
		if err != nil {
			r.logger.Warn("skipping unreadable mission", zap.String("mission_id", doc.ID), zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func missionDocument(m *mission.Mission) (*Document, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal mission: %w", err)
	}
	return &Document{ID: m.ID, Status: string(m.Status), Owner: m.UserID, Body: body}, nil
}

func decodeMission(doc *Document) (*mission.Mission, error) {
	m, err := contract.DecodeMission(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("mission %s: %w", doc.ID, err)
	}
	m.ID = doc.ID
	return m, nil
}

// QuestRepository implements quest.Repository over a DocumentStore.
type QuestRepository struct {
	store  DocumentStore
	logger *zap.Logger
}

var _ quest.Repository = (*QuestRepository)(nil)

func NewQuestRepository(store DocumentStore, opts ...RepositoryOption) *QuestRepository {
	cfg := newRepoConfig(opts)
	return &QuestRepository{store: store, logger: cfg.logger}
}

func (r *QuestRepository) Get(ctx context.Context, id string) (*quest.Quest, error) {
	doc, err := r.store.Get(ctx, Quests, id)
	if err != nil {
		return nil, err
	}
	return decodeQuest(doc)
}

func (r *QuestRepository) Insert(ctx context.Context, q *quest.Quest) (string, error) {
	doc, err := questDocument(q)
	if err != nil {
		return "", err
	}
	id, err := r.store.Insert(ctx, Quests, doc)
	if err != nil {
		return "", fmt.Errorf("insert quest: %w", err)
	}
	q.ID = id
	return id, nil
}

func (r *QuestRepository) Save(ctx context.Context, q *quest.Quest) error {
	doc, err := questDocument(q)
	if err != nil {
		return err
	}
	if err := r.store.Edit(ctx, Quests, doc); err != nil {
		return fmt.Errorf("save quest: %w", err)
	}
	return nil
}

// Find lists matching quests, skipping documents that fail to decode.
func (r *QuestRepository) Find(ctx context.Context, q quest.Query) ([]*quest.Quest, error) {
	docs, err := r.store.Find(ctx, Quests, questFilter(q))
	if err != nil {
		return nil, fmt.Errorf("find quests: %w", err)
	}
	out := make([]*quest.Quest, 0, len(docs))
	for _, doc := range docs {
		qu, err := decodeQuest(doc)
		if err != nil {
			r.logger.Warn("skipping unreadable quest", zap.String("quest_id", doc.ID), zap.Error(err))
			continue
		}
		out = append(out, qu)
	}
	return out, nil
}

func (r *QuestRepository) Count(ctx context.Context, q quest.Query) (int, error) {
	n, err := r.store.Count(ctx, Quests, questFilter(q))
	if err != nil {
		return 0, fmt.Errorf("count quests: %w", err)
	}
	return n, nil
}

func questFilter(q quest.Query) Filter {
	return Filter{Status: string(q.Status), Owner: q.SubjectID}
}

func questDocument(q *quest.Quest) (*Document, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal quest: %w", err)
	}
	return &Document{ID: q.ID, Status: string(q.Status), Owner: q.SubjectID, Body: body}, nil
}

func decodeQuest(doc *Document) (*quest.Quest, error) {
	q, err := contract.DecodeQuest(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("quest %s: %w", doc.ID, err)
	}
	q.ID = doc.ID
	return q, nil
}
