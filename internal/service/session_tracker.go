package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/util"
	"toefl_sim_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// SessionTracker keeps at most one advisory session per user and mode. Expired sessions are
// removed lazily when they are looked at.
type SessionTracker struct {
	Store SessionStore
	TTL   time.Duration

	now func() time.Time
}

func NewSessionTracker(store SessionStore, ttl time.Duration) *SessionTracker {
	return &SessionTracker{Store: store, TTL: ttl, now: time.Now}
}

// WithClock replaces the time source.
func (t *SessionTracker) WithClock(now func() time.Time) *SessionTracker {
	t.now = now
	return t
}

func validateSessionKey(userID string, mode model.SimulationMode) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: userId is required", util.ErrInvalidInput)
	}
	if _, ok := model.ParseMode(string(mode)); !ok {
		return fmt.Errorf("%w: unknown mode %q", util.ErrInvalidInput, mode)
	}
	return nil
}

// active returns the live session, deleting it first if it has expired.
func (t *SessionTracker) active(ctx context.Context, userID string, mode model.SimulationMode) (*model.SimulationSession, error) {
	session, err := t.Store.Find(ctx, userID, mode)
	if err != nil || session == nil {
		return nil, err
	}
	if session.Expired(t.now()) {
		if err := t.Store.Delete(ctx, userID, mode); err != nil {
			return nil, err
		}
		logger.Log.Debug("expired simulation session removed",
			zap.String("userId", userID),
			zap.String("mode", string(mode)),
		)
		return nil, nil
	}
	return session, nil
}

func (t *SessionTracker) Exists(ctx context.Context, userID string, mode model.SimulationMode) (bool, error) {
	if err := validateSessionKey(userID, mode); err != nil {
		return false, err
	}
	session, err := t.active(ctx, userID, mode)
	if err != nil {
		return false, err
	}
	return session != nil, nil
}

// Start returns the live session for the pair, creating one if there is none.
func (t *SessionTracker) Start(ctx context.Context, userID string, mode model.SimulationMode) (*model.SimulationSession, error) {
	if err := validateSessionKey(userID, mode); err != nil {
		return nil, err
	}

	existing, err := t.active(ctx, userID, mode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	return t.Store.FindOrCreate(ctx, &model.SimulationSession{
		UserID:          userID,
		Mode:            mode,
		CurrentQuestion: 0,
		Answers:         datatypes.JSONMap{},
		ExpiresAt:       t.now().Add(t.TTL),
	})
}

func (t *SessionTracker) Reset(ctx context.Context, userID string, mode model.SimulationMode) error {
	if err := validateSessionKey(userID, mode); err != nil {
		return err
	}
	return t.Store.Delete(ctx, userID, mode)
}
