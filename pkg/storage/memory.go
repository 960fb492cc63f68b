package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/muses-project/progress/pkg/domain/progress"
)

// MemoryStore keeps documents in process memory. Used by tests and the
// "memory" store driver.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]*Document
	seq  map[string][]string // insertion order per collection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]*Document),
		seq:  make(map[string][]string),
	}
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", collection, id, progress.ErrNotFound)
	}
	return clone(doc), nil
}

func (s *MemoryStore) Insert(_ context.Context, collection string, doc *Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]*Document)
	}
	if _, exists := s.docs[collection][doc.ID]; exists {
		return "", fmt.Errorf("%s %s already exists", collection, doc.ID)
	}
	doc.UpdatedAt = time.Now().UTC()
	s.docs[collection][doc.ID] = clone(doc)
	s.seq[collection] = append(s.seq[collection], doc.ID)
	return doc.ID, nil
}

func (s *MemoryStore) Edit(_ context.Context, collection string, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[collection][doc.ID]; !ok {
		return fmt.Errorf("%s %s: %w", collection, doc.ID, progress.ErrNotFound)
	}
	doc.UpdatedAt = time.Now().UTC()
	s.docs[collection][doc.ID] = clone(doc)
	return nil
}

func (s *MemoryStore) Find(_ context.Context, collection string, filter Filter) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Document
	for _, id := range s.seq[collection] {
		doc := s.docs[collection][id]
		if !filter.Matches(doc) {
			continue
		}
		out = append(out, clone(doc))
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, collection string, filter Filter) (int, error) {
	filter.Limit = 0
	docs, err := s.Find(ctx, collection, filter)
	return len(docs), err
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// Collections returns the names of non-empty collections, sorted.
func (s *MemoryStore) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.docs))
	for name, docs := range s.docs {
		if len(docs) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func clone(d *Document) *Document {
	cp := *d
	cp.Body = append([]byte(nil), d.Body...)
	return &cp
}
