package repository

import (
	"context"
	"toefl_sim_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func storedValues(sections []model.Section) []string {
	var values []string
	for _, s := range sections {
		values = append(values, s.StoredValues()...)
	}
	return values
}

func (r *QuestionRepository) ListBySections(ctx context.Context, sections ...model.Section) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.WithContext(ctx).
		Where("section IN ?", storedValues(sections)).
		Order("created_at ASC").
		Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) ListByPrompt(ctx context.Context, section model.Section, promptID string) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.WithContext(ctx).
		Where("section IN ? AND prompt_id = ?", section.StoredValues(), promptID).
		Order("created_at ASC").
		Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var questions []model.Question
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error
	return questions, err
}

// CountBySection merges legacy spellings into their canonical section.
func (r *QuestionRepository) CountBySection(ctx context.Context) (map[model.Section]int64, error) {
	var rows []struct {
		Section string
		Count   int64
	}
	err := r.DB.WithContext(ctx).
		Model(&model.Question{}).
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

func (r *QuestionRepository) CountByPrompts(ctx context.Context, promptIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(promptIDs))
	if len(promptIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		PromptID string
		Count    int64
	}
	err := r.DB.WithContext(ctx).
		Model(&model.Question{}).
		Select("prompt_id, COUNT(*) AS count").
		Where("prompt_id IN ?", promptIDs).
		Group("prompt_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.PromptID] = row.Count
	}
	return counts, nil
}

func (r *QuestionRepository) Upsert(ctx context.Context, q *model.Question) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(q).Error
}
