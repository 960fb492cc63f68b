package wiring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/muses-project/progress/internal/infrastructure/config"
	"github.com/muses-project/progress/pkg/storage"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Driver = config.DriverMemory
	cfg.DeadLetterPath = filepath.Join(t.TempDir(), "dead.jsonl")
	return cfg
}

func probe(t *testing.T, h http.Handler, path string) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code
}

func TestBuild_Services(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig(t)
	cfg.Upstreams.Quest = "http://quest.invalid"
	cfg.Upstreams.Mission = "http://mission.invalid"

	for _, name := range []string{config.ServiceQuest, config.ServiceMission, config.ServiceCascade} {
		t.Run(name, func(t *testing.T) {
			svc, err := Build(ctx, name, cfg, zap.NewNop())
			require.NoError(t, err)
			defer func() { assert.NoError(t, svc.Close()) }()

			assert.Equal(t, name, svc.Name)
			assert.Equal(t, http.StatusOK, probe(t, svc.Handler, "/health"))
			assert.Equal(t, http.StatusOK, probe(t, svc.Handler, "/ready"))
		})
	}
}

func TestBuild_RejectsIncompleteConfig(t *testing.T) {
	cfg := memoryConfig(t)

	_, err := Build(context.Background(), config.ServiceMission, cfg, zap.NewNop())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = Build(context.Background(), config.ServiceReconcile, cfg, zap.NewNop())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	store, err := OpenStore(ctx, config.StoreConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "muses.db")})
	require.NoError(t, err)
	require.NoError(t, store.Ping(ctx))
	id, err := store.Insert(ctx, storage.Quests, &storage.Document{Status: "PENDING", Body: []byte(`{}`)})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NoError(t, store.Close())

	_, err = OpenStore(ctx, config.StoreConfig{Driver: "postgres"})
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestBuildReconciler(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Upstreams.Quest = "http://quest.invalid"

	rec, err := BuildReconciler(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer func() { assert.NoError(t, rec.Close()) }()

	report, err := rec.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.MissionsScanned)
	assert.Empty(t, report.Errors)
}
