package repository

import (
	"context"
	"errors"
	"toefl_sim_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PromptRepository struct {
	DB *gorm.DB
}

func NewPromptRepository(db *gorm.DB) *PromptRepository {
	return &PromptRepository{DB: db}
}

func (r *PromptRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Prompt, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var prompts []model.Prompt
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&prompts).Error
	return prompts, err
}

func (r *PromptRepository) FindByID(ctx context.Context, id string) (*model.Prompt, error) {
	var prompt model.Prompt
	err := r.DB.WithContext(ctx).First(&prompt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

// ListBySection orders reading passages by passage number and listening prompts newest first.
func (r *PromptRepository) ListBySection(ctx context.Context, section model.Section) ([]model.Prompt, error) {
	q := r.DB.WithContext(ctx).Where("section IN ?", section.StoredValues())
	if section == model.SectionReading {
		q = q.Order("passage_number ASC").Order("created_at ASC")
	} else {
		q = q.Order("created_at DESC")
	}

	var prompts []model.Prompt
	err := q.Find(&prompts).Error
	return prompts, err
}

func (r *PromptRepository) CountBySection(ctx context.Context) (map[model.Section]int64, error) {
	var rows []struct {
		Section string
		Count   int64
	}
	err := r.DB.WithContext(ctx).
		Model(&model.Prompt{}).
		Select("section, COUNT(*) AS count").
		Group("section").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.Section]int64)
	for _, row := range rows {
		if s, ok := model.ParseSection(row.Section); ok {
			counts[s] += row.Count
		}
	}
	return counts, nil
}

func (r *PromptRepository) Upsert(ctx context.Context, p *model.Prompt) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(p).Error
}
