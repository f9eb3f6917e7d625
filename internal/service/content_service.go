package service

import (
	"context"
	"fmt"
	"strings"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/util"
)

type QuestionCounter interface {
	CountBySection(ctx context.Context) (map[model.Section]int64, error)
	CountByPrompts(ctx context.Context, promptIDs []string) (map[string]int64, error)
}

type PromptCatalog interface {
	FindByID(ctx context.Context, id string) (*model.Prompt, error)
	CountBySection(ctx context.Context) (map[model.Section]int64, error)
	ListBySection(ctx context.Context, section model.Section) ([]model.Prompt, error)
}

// ContentService answers read-only questions about the question bank.
type ContentService struct {
	Questions QuestionCounter
	Prompts   PromptCatalog
	Audio     AudioURLResolver
}

func NewContentService(questions QuestionCounter, prompts PromptCatalog, audio AudioURLResolver) *ContentService {
	return &ContentService{Questions: questions, Prompts: prompts, Audio: audio}
}

type ContentStats struct {
	Questions struct {
		Listening int64 `json:"listening"`
		Structure int64 `json:"structure"`
		Reading   int64 `json:"reading"`
		Total     int64 `json:"total"`
	} `json:"questions"`
	Prompts struct {
		Listening int64 `json:"listening"`
		Reading   int64 `json:"reading"`
	} `json:"prompts"`
}

func (s *ContentService) Stats(ctx context.Context) (*ContentStats, error) {
	qc, err := s.Questions.CountBySection(ctx)
	if err != nil {
		return nil, err
	}
	pc, err := s.Prompts.CountBySection(ctx)
	if err != nil {
		return nil, err
	}

	var stats ContentStats
	stats.Questions.Listening = qc[model.SectionListening]
	stats.Questions.Structure = qc[model.SectionStructure]
	stats.Questions.Reading = qc[model.SectionReading]
	stats.Questions.Total = stats.Questions.Listening + stats.Questions.Structure + stats.Questions.Reading
	stats.Prompts.Listening = pc[model.SectionListening]
	stats.Prompts.Reading = pc[model.SectionReading]
	return &stats, nil
}

type PromptSummary struct {
	ID            string        `json:"id"`
	Section       model.Section `json:"section"`
	Title         string        `json:"title"`
	PassageNumber *int          `json:"passageNumber,omitempty"`
	Duration      float64       `json:"duration,omitempty"`
	QuestionCount int64         `json:"questionCount"`
}

// ListPrompts lists the prompts of a section, each with the number of questions using it.
func (s *ContentService) ListPrompts(ctx context.Context, section model.Section) ([]PromptSummary, error) {
	if !section.HasPrompts() {
		return nil, fmt.Errorf("%w: section %q has no prompts", util.ErrInvalidInput, section)
	}

	prompts, err := s.Prompts.ListBySection(ctx, section)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(prompts))
	for _, p := range prompts {
		ids = append(ids, p.ID)
	}
	counts, err := s.Questions.CountByPrompts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]PromptSummary, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, PromptSummary{
			ID:            p.ID,
			Section:       p.Section,
			Title:         p.Title,
			PassageNumber: p.PassageNumber,
			Duration:      p.Duration,
			QuestionCount: counts[p.ID],
		})
	}
	return out, nil
}

// GetPrompt renders one prompt for a test taker working through its questions.
func (s *ContentService) GetPrompt(ctx context.Context, id string) (*PromptView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: prompt id is required", util.ErrInvalidInput)
	}

	prompt, err := s.Prompts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prompt == nil {
		return nil, fmt.Errorf("%w: %s", util.ErrPromptNotFound, id)
	}

	view := newPromptView(ctx, prompt, s.Audio)
	return &view, nil
}
