package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/muses-project/progress/pkg/storage"
	"github.com/muses-project/progress/pkg/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	store := storage.NewMemoryStore()
	storagetest.Run(t, store)
	assert.Equal(t, []string{"filtered", storage.Missions, storage.Quests}, store.Collections())
}
