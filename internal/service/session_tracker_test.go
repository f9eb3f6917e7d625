package service_test

import (
	"context"
	"testing"
	"time"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/service"
	"toefl_sim_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTracker(store service.SessionStore) (*service.SessionTracker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	return service.NewSessionTracker(store, 3*time.Hour).WithClock(clock.Now), clock
}

func TestSessionStartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemSessions()
	tracker, clock := newTracker(store)

	first, err := tracker.Start(ctx, "user-1", model.ModeReading)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(3*time.Hour), first.ExpiresAt)
	assert.Equal(t, 0, first.CurrentQuestion)
	assert.Empty(t, first.Answers)

	clock.Advance(10 * time.Minute)
	second, err := tracker.Start(ctx, "user-1", model.ModeReading)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ExpiresAt, second.ExpiresAt)
	assert.Equal(t, 1, store.count())
}

func TestSessionsAreScopedByUserAndMode(t *testing.T) {
	ctx := context.Background()
	store := newMemSessions()
	tracker, _ := newTracker(store)

	a, err := tracker.Start(ctx, "user-1", model.ModeReading)
	require.NoError(t, err)
	b, err := tracker.Start(ctx, "user-1", model.ModeListening)
	require.NoError(t, err)
	c, err := tracker.Start(ctx, "user-2", model.ModeReading)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.Equal(t, 3, store.count())
}

func TestSessionExistsLazilyExpires(t *testing.T) {
	ctx := context.Background()
	store := newMemSessions()
	tracker, clock := newTracker(store)

	exists, err := tracker.Exists(ctx, "user-1", model.ModeFull)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = tracker.Start(ctx, "user-1", model.ModeFull)
	require.NoError(t, err)

	clock.Advance(2*time.Hour + 59*time.Minute)
	exists, err = tracker.Exists(ctx, "user-1", model.ModeFull)
	require.NoError(t, err)
	assert.True(t, exists)

	clock.Advance(2 * time.Minute)
	exists, err = tracker.Exists(ctx, "user-1", model.ModeFull)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, store.count(), "expired session should be removed")
}

func TestSessionStartReplacesExpired(t *testing.T) {
	ctx := context.Background()
	tracker, clock := newTracker(newMemSessions())

	first, err := tracker.Start(ctx, "user-1", model.ModeStructure)
	require.NoError(t, err)

	clock.Advance(4 * time.Hour)
	second, err := tracker.Start(ctx, "user-1", model.ModeStructure)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, second.ExpiresAt.After(clock.Now()))
}

func TestSessionReset(t *testing.T) {
	ctx := context.Background()
	store := newMemSessions()
	tracker, _ := newTracker(store)

	first, err := tracker.Start(ctx, "user-1", model.ModeReading)
	require.NoError(t, err)

	require.NoError(t, tracker.Reset(ctx, "user-1", model.ModeReading))
	exists, err := tracker.Exists(ctx, "user-1", model.ModeReading)
	require.NoError(t, err)
	assert.False(t, exists)

	// resetting without a session is fine
	require.NoError(t, tracker.Reset(ctx, "user-1", model.ModeReading))

	second, err := tracker.Start(ctx, "user-1", model.ModeReading)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSessionRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTracker(newMemSessions())

	_, err := tracker.Start(ctx, " ", model.ModeReading)
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	_, err = tracker.Exists(ctx, "user-1", model.SimulationMode("writing"))
	assert.ErrorIs(t, err, util.ErrInvalidInput)

	assert.ErrorIs(t, tracker.Reset(ctx, "", model.ModeFull), util.ErrInvalidInput)
}

func TestSimulationBeginReplacesSession(t *testing.T) {
	ctx := context.Background()
	store := newMemSessions()
	tracker, _ := newTracker(store)
	sim := service.NewSimulationService(newSampler(t, sampleBank(), 8), tracker)

	stale, err := tracker.Start(ctx, "user-1", model.ModeListening)
	require.NoError(t, err)

	start, err := sim.Begin(ctx, "user-1", model.ModeListening, service.TestSelector{PromptID: "L2"})
	require.NoError(t, err)
	assert.NotEqual(t, stale.ID, start.Session.ID)
	assert.Len(t, start.Questions, 2)
	assert.Equal(t, 1, store.count())

	// a bad selector leaves the live session untouched
	_, err = sim.Begin(ctx, "user-1", model.ModeListening, service.TestSelector{})
	assert.ErrorIs(t, err, util.ErrInvalidInput)
	live, err := tracker.Start(ctx, "user-1", model.ModeListening)
	require.NoError(t, err)
	assert.Equal(t, start.Session.ID, live.ID)
}
