// Package storage persists missions and quests as JSON documents. Backends
// only see opaque bodies plus the two fields every listing filters on.
package storage

import (
	"context"
	"time"
)

// Collections.
const (
	Missions = "missions"
	Quests   = "quests"
)

// Document is one stored mission or quest.
type Document struct {
	ID        string
	Status    string
	Owner     string // user id for missions, subject id for quests
	Body      []byte
	UpdatedAt time.Time
}

// Filter selects documents. Empty fields match everything.
type Filter struct {
	Status string
	Owner  string
	Limit  int
}

// Matches reports whether d passes the filter, ignoring Limit.
func (f Filter) Matches(d *Document) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.Owner != "" && d.Owner != f.Owner {
		return false
	}
	return true
}

// DocumentStore is implemented by every backend. Get and Edit return an
// error wrapping progress.ErrNotFound for unknown ids.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Insert assigns a new id when doc.ID is empty and returns it.
	Insert(ctx context.Context, collection string, doc *Document) (string, error)
	Edit(ctx context.Context, collection string, doc *Document) error
	Find(ctx context.Context, collection string, filter Filter) ([]*Document, error)
	Count(ctx context.Context, collection string, filter Filter) (int, error)
	Ping(ctx context.Context) error
	Close() error
}
