package repository

import (
	"context"
	"encoding/json"
	"time"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const answerKeyPrefix = "toefl:answer_key:"

// AnswerKeyRepository looks up correct answers, reading through a Redis cache when one is
// configured. Cache failures fall back to the database.
type AnswerKeyRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	TTL   time.Duration
}

func NewAnswerKeyRepository(db *gorm.DB, rdb *redis.Client, ttl time.Duration) *AnswerKeyRepository {
	return &AnswerKeyRepository{DB: db, Redis: rdb, TTL: ttl}
}

func (r *AnswerKeyRepository) cacheEnabled() bool {
	return r.Redis != nil && r.TTL > 0
}

func (r *AnswerKeyRepository) Lookup(ctx context.Context, ids []string) (map[string]model.AnswerKey, error) {
	keys := make(map[string]model.AnswerKey, len(ids))
	if len(ids) == 0 {
		return keys, nil
	}

	missing := ids
	if r.cacheEnabled() {
		missing = r.readCache(ctx, ids, keys)
	}
	if len(missing) == 0 {
		return keys, nil
	}

	var questions []model.Question
	err := r.DB.WithContext(ctx).
		Select("id", "section", "prompt_id", "correct_answer", "explanation").
		Where("id IN ?", missing).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}

	fetched := make([]model.AnswerKey, 0, len(questions))
	for i := range questions {
		k := questions[i].AnswerKey()
		keys[k.QuestionID] = k
		fetched = append(fetched, k)
	}

	if r.cacheEnabled() && len(fetched) > 0 {
		r.writeCache(ctx, fetched)
	}
	return keys, nil
}

func (r *AnswerKeyRepository) readCache(ctx context.Context, ids []string, into map[string]model.AnswerKey) []string {
	cacheKeys := make([]string, len(ids))
	for i, id := range ids {
		cacheKeys[i] = answerKeyPrefix + id
	}

	values, err := r.Redis.MGet(ctx, cacheKeys...).Result()
	if err != nil {
		logger.Log.Warn("answer key cache read failed", zap.Error(err))
		return ids
	}

	var missing []string
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		var k model.AnswerKey
		if err := json.Unmarshal([]byte(s), &k); err != nil {
			missing = append(missing, ids[i])
			continue
		}
		into[ids[i]] = k
	}
	return missing
}

func (r *AnswerKeyRepository) writeCache(ctx context.Context, fetched []model.AnswerKey) {
	pipe := r.Redis.Pipeline()
	for _, k := range fetched {
		data, err := json.Marshal(k)
		if err != nil {
			continue
		}
		pipe.Set(ctx, answerKeyPrefix+k.QuestionID, data, r.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("answer key cache write failed", zap.Error(err))
	}
}

// Invalidate drops cached keys after a question is re-imported.
func (r *AnswerKeyRepository) Invalidate(ctx context.Context, ids ...string) error {
	if !r.cacheEnabled() || len(ids) == 0 {
		return nil
	}
	cacheKeys := make([]string, len(ids))
	for i, id := range ids {
		cacheKeys[i] = answerKeyPrefix + id
	}
	return r.Redis.Del(ctx, cacheKeys...).Err()
}
