package repository_test

import (
	"context"
	"testing"
	"time"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newSession(userID string, mode model.SimulationMode) *model.SimulationSession {
	return &model.SimulationSession{
		UserID:    userID,
		Mode:      mode,
		Answers:   datatypes.JSONMap{},
		ExpiresAt: time.Now().Add(3 * time.Hour),
	}
}

func TestSessionRepositoryFindOrCreate(t *testing.T) {
	repo := repository.NewSessionRepository(newTestDB(t))
	ctx := context.Background()

	first, err := repo.FindOrCreate(ctx, newSession("user-1", model.ModeFull))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := repo.FindOrCreate(ctx, newSession("user-1", model.ModeFull))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := repo.FindOrCreate(ctx, newSession("user-1", model.ModeReading))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	require.NoError(t, repo.Delete(ctx, "user-1", model.ModeFull))
	gone, err := repo.Find(ctx, "user-1", model.ModeFull)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := repo.Find(ctx, "user-1", model.ModeReading)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Equal(t, other.ID, kept.ID)
}

func TestRedisSessionRepositoryFindOrCreate(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := repository.NewRedisSessionRepository(rdb)
	ctx := context.Background()

	first, err := repo.FindOrCreate(ctx, newSession("user-1", model.ModeFull))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := repo.FindOrCreate(ctx, newSession("user-1", model.ModeFull))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "user-1", second.UserID)
	assert.Equal(t, model.ModeFull, second.Mode)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.InDelta(t, (3 * time.Hour).Seconds(), mr.TTL(keys[0]).Seconds(), 60)

	require.NoError(t, repo.Delete(ctx, "user-1", model.ModeFull))
	gone, err := repo.Find(ctx, "user-1", model.ModeFull)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRedisSessionRepositoryExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	repo := repository.NewRedisSessionRepository(rdb)
	ctx := context.Background()

	_, err := repo.FindOrCreate(ctx, newSession("user-1", model.ModeReading))
	require.NoError(t, err)

	mr.FastForward(3*time.Hour + time.Minute)

	found, err := repo.Find(ctx, "user-1", model.ModeReading)
	require.NoError(t, err)
	assert.Nil(t, found)
}
