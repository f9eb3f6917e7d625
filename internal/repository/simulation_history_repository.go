package repository

import (
	"context"
	"errors"
	"toefl_sim_backend/internal/model"

	"gorm.io/gorm"
)

type HistoryRepository struct {
	DB *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{DB: db}
}

func (r *HistoryRepository) Create(ctx context.Context, history *model.SimulationHistory) error {
	return r.DB.WithContext(ctx).Create(history).Error
}

func (r *HistoryRepository) FindByID(ctx context.Context, id string) (*model.SimulationHistory, error) {
	var history model.SimulationHistory
	err := r.DB.WithContext(ctx).First(&history, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &history, nil
}

// List returns summaries without the graded rows, newest first.
func (r *HistoryRepository) List(ctx context.Context, filter model.HistoryFilter, offset, limit int) ([]model.SimulationHistory, int64, error) {
	query := r.DB.WithContext(ctx).Model(&model.SimulationHistory{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Mode != "" {
		query = query.Where("mode = ?", filter.Mode)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var histories []model.SimulationHistory
	err := query.
		Omit("answers").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&histories).Error
	if err != nil {
		return nil, 0, err
	}
	return histories, total, nil
}
