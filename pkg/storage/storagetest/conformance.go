// Package storagetest holds behaviour checks every DocumentStore must pass.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muses-project/progress/pkg/domain/progress"
	"github.com/muses-project/progress/pkg/storage"
)

// Run exercises store against the DocumentStore contract. The store must be
// empty on entry.
func Run(t *testing.T, store storage.DocumentStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("insert assigns id and get returns body", func(t *testing.T) {
		doc := &storage.Document{Status: "PENDING", Owner: "u1", Body: []byte(`{"user_id":"u1"}`)}
		id, err := store.Insert(ctx, storage.Missions, doc)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		assert.Equal(t, id, doc.ID)

		got, err := store.Get(ctx, storage.Missions, id)
		require.NoError(t, err)
		assert.Equal(t, "PENDING", got.Status)
		assert.Equal(t, "u1", got.Owner)
		assert.JSONEq(t, `{"user_id":"u1"}`, string(got.Body))
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("get unknown id is not found", func(t *testing.T) {
		_, err := store.Get(ctx, storage.Missions, "missing")
		assert.ErrorIs(t, err, progress.ErrNotFound)
	})

	t.Run("edit replaces body and status", func(t *testing.T) {
		doc := &storage.Document{Status: "PENDING", Owner: "s1", Body: []byte(`{"title":"a"}`)}
		id, err := store.Insert(ctx, storage.Quests, doc)
		require.NoError(t, err)

		doc.Status = "IN_PROGRESS"
		doc.Body = []byte(`{"title":"b"}`)
		require.NoError(t, store.Edit(ctx, storage.Quests, doc))

		got, err := store.Get(ctx, storage.Quests, id)
		require.NoError(t, err)
		assert.Equal(t, "IN_PROGRESS", got.Status)
		assert.JSONEq(t, `{"title":"b"}`, string(got.Body))
	})

	t.Run("edit unknown id is not found", func(t *testing.T) {
		err := store.Edit(ctx, storage.Quests, &storage.Document{ID: "missing", Body: []byte(`{}`)})
		assert.ErrorIs(t, err, progress.ErrNotFound)
	})

	t.Run("duplicate explicit id is rejected", func(t *testing.T) {
		_, err := store.Insert(ctx, storage.Quests, &storage.Document{ID: "fixed", Body: []byte(`{}`)})
		require.NoError(t, err)
		_, err = store.Insert(ctx, storage.Quests, &storage.Document{ID: "fixed", Body: []byte(`{}`)})
		assert.Error(t, err)
	})

	t.Run("find and count filter by status and owner", func(t *testing.T) {
		const coll = "filtered"
		for _, d := range []storage.Document{
			{Status: "PENDING", Owner: "a", Body: []byte(`{}`)},
			{Status: "PENDING", Owner: "b", Body: []byte(`{}`)},
			{Status: "COMPLETE", Owner: "a", Body: []byte(`{}`)},
		} {
			d := d
			_, err := store.Insert(ctx, coll, &d)
			require.NoError(t, err)
		}

		all, err := store.Find(ctx, coll, storage.Filter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		pending, err := store.Count(ctx, coll, storage.Filter{Status: "PENDING"})
		require.NoError(t, err)
		assert.Equal(t, 2, pending)

		owned, err := store.Find(ctx, coll, storage.Filter{Status: "PENDING", Owner: "a"})
		require.NoError(t, err)
		assert.Len(t, owned, 1)

		limited, err := store.Find(ctx, coll, storage.Filter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
