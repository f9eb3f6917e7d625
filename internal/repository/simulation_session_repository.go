package repository

import (
	"context"
	"errors"
	"toefl_sim_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository keeps simulation sessions in the relational store. The unique
// (user_id, mode) index makes concurrent creates collapse to one row.
type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Find(ctx context.Context, userID string, mode model.SimulationMode) (*model.SimulationSession, error) {
	var session model.SimulationSession
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND mode = ?", userID, mode).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FindOrCreate inserts session unless a row for the same user and mode exists, then returns
// the persisted row.
func (r *SessionRepository) FindOrCreate(ctx context.Context, session *model.SimulationSession) (*model.SimulationSession, error) {
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "mode"}},
			DoNothing: true,
		}).
		Create(session).Error
	if err != nil {
		return nil, err
	}

	stored, err := r.Find(ctx, session.UserID, session.Mode)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return stored, nil
}

func (r *SessionRepository) Delete(ctx context.Context, userID string, mode model.SimulationMode) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND mode = ?", userID, mode).
		Delete(&model.SimulationSession{}).Error
}
