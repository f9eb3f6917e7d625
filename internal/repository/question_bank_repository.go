package repository

import (
	"context"
	"toefl_sim_backend/internal/model"
)

// BankRepository is the write side used by the question bank importer.
type BankRepository struct {
	Questions *QuestionRepository
	Prompts   *PromptRepository
}

func NewBankRepository(questions *QuestionRepository, prompts *PromptRepository) *BankRepository {
	return &BankRepository{Questions: questions, Prompts: prompts}
}

func (r *BankRepository) UpsertPrompt(ctx context.Context, p *model.Prompt) error {
	return r.Prompts.Upsert(ctx, p)
}

func (r *BankRepository) UpsertQuestion(ctx context.Context, q *model.Question) error {
	return r.Questions.Upsert(ctx, q)
}
