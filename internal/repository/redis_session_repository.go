package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"toefl_sim_backend/internal/model"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "toefl:sim_session:"

// RedisSessionRepository stores sessions as JSON values whose key TTL tracks ExpiresAt, so
// abandoned sessions vanish without a sweep.
type RedisSessionRepository struct {
	Redis *redis.Client
}

func NewRedisSessionRepository(rdb *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{Redis: rdb}
}

func sessionKey(userID string, mode model.SimulationMode) string {
	return fmt.Sprintf("%s%s:%s", sessionKeyPrefix, userID, mode)
}

func (r *RedisSessionRepository) Find(ctx context.Context, userID string, mode model.SimulationMode) (*model.SimulationSession, error) {
	raw, err := r.Redis.Get(ctx, sessionKey(userID, mode)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session model.SimulationSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// FindOrCreate relies on SETNX: the first writer wins and later callers read its value.
func (r *RedisSessionRepository) FindOrCreate(ctx context.Context, session *model.SimulationSession) (*model.SimulationSession, error) {
	if session.ID == "" {
		session.ID = model.GenerateUUID()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}

	key := sessionKey(session.UserID, session.Mode)
	created, err := r.Redis.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		return nil, err
	}
	if created {
		return session, nil
	}

	stored, err := r.Find(ctx, session.UserID, session.Mode)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		// expired between SETNX and GET
		return r.FindOrCreate(ctx, session)
	}
	return stored, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, userID string, mode model.SimulationMode) error {
	return r.Redis.Del(ctx, sessionKey(userID, mode)).Err()
}
