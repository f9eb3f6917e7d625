package service

import (
	"context"
	"fmt"
	"sort"
	"time"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/util"
	"toefl_sim_backend/pkg/logger"
	"toefl_sim_backend/pkg/tracing"

	"go.uber.org/zap"
)

type HistoryService struct {
	Histories HistoryStore
	Questions QuestionStore
	Prompts   PromptStore
	Audio     AudioURLResolver
}

func NewHistoryService(histories HistoryStore, questions QuestionStore, prompts PromptStore, audio AudioURLResolver) *HistoryService {
	return &HistoryService{Histories: histories, Questions: questions, Prompts: prompts, Audio: audio}
}

type HistorySummary struct {
	ID        string               `json:"id"`
	UserID    string               `json:"userId"`
	Mode      model.SimulationMode `json:"mode"`
	Score     model.SectionScore   `json:"score"`
	Scaled    ScaledScore          `json:"scaled"`
	CreatedAt time.Time            `json:"createdAt"`
}

type HistoryPage struct {
	Histories []HistorySummary `json:"histories"`
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
	Total     int64            `json:"total"`
	HasMore   bool             `json:"hasMore"`
}

// List pages through attempts newest first. page and limit must already be clamped.
func (s *HistoryService) List(ctx context.Context, filter model.HistoryFilter, page, limit int) (*HistoryPage, error) {
	if page < 1 || limit < 1 {
		return nil, fmt.Errorf("%w: page and limit must be positive", util.ErrInvalidInput)
	}
	offset := (page - 1) * limit

	rows, total, err := s.Histories.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]HistorySummary, 0, len(rows))
	for _, h := range rows {
		summaries = append(summaries, HistorySummary{
			ID:        h.ID,
			UserID:    h.UserID,
			Mode:      h.Mode,
			Score:     h.Score,
			Scaled:    ScaleForMode(h.Mode, h.Score),
			CreatedAt: h.CreatedAt,
		})
	}

	return &HistoryPage{
		Histories: summaries,
		Page:      page,
		Limit:     limit,
		Total:     total,
		HasMore:   int64(offset+len(rows)) < total,
	}, nil
}

type ReviewItem struct {
	QuestionID     string        `json:"questionId"`
	Section        model.Section `json:"section"`
	PromptID       *string       `json:"promptId"`
	QuestionText   string        `json:"questionText"`
	Options        []string      `json:"options"`
	QuestionNumber *int          `json:"questionNumber,omitempty"`
	UserAnswer     *string       `json:"userAnswer"`
	CorrectAnswer  string        `json:"correctAnswer"`
	IsCorrect      bool          `json:"isCorrect"`
	Explanation    string        `json:"explanation"`
}

type ReviewGroup struct {
	PromptID *string      `json:"promptId"`
	Items    []ReviewItem `json:"items"`
}

type ReviewSection struct {
	Section model.Section `json:"section"`
	Groups  []ReviewGroup `json:"groups"`
}

type PromptView struct {
	ID          string        `json:"id"`
	Type        model.Section `json:"type"`
	Title       string        `json:"title,omitempty"`
	Passage     string        `json:"passage,omitempty"`
	AudioURL    string        `json:"audioUrl,omitempty"`
	Transcript  string        `json:"transcript,omitempty"`
	Instruction string        `json:"instruction,omitempty"`
}

type Review struct {
	ID        string                `json:"id"`
	UserID    string                `json:"userId"`
	Mode      model.SimulationMode  `json:"mode"`
	CreatedAt time.Time             `json:"createdAt"`
	Score     model.SectionScore    `json:"score"`
	Scaled    ScaledScore           `json:"scaled"`
	Items     []ReviewItem          `json:"items"`
	Sections  []ReviewSection       `json:"sections"`
	Prompts   map[string]PromptView `json:"prompts"`
}

// Viewer is the caller asking for a review.
type Viewer struct {
	UserID string
	Admin  bool
}

func (v Viewer) canSee(history *model.SimulationHistory) bool {
	return v.Admin || (v.UserID != "" && v.UserID == history.UserID)
}

// GetReview rebuilds an attempt for display. Correctness and explanations come from the
// stored snapshot; question text and options are read live. Only the attempt's owner and
// admins may see it.
func (s *HistoryService) GetReview(ctx context.Context, id string, viewer Viewer) (*Review, error) {
	ctx, span := tracing.Tracer.Start(ctx, "HistoryService.GetReview")
	defer span.End()

	history, err := s.Histories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if history == nil {
		return nil, util.ErrHistoryNotFound
	}
	if !viewer.canSee(history) {
		return nil, fmt.Errorf("%w: attempt %s belongs to another user", util.ErrPermissionDenied, id)
	}

	ids := make([]string, 0, len(history.Answers))
	for _, a := range history.Answers {
		ids = append(ids, a.QuestionID)
	}
	questions, err := s.Questions.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	items := make([]ReviewItem, 0, len(history.Answers))
	var promptIDs []string
	seenPrompt := make(map[string]struct{})
	for _, a := range history.Answers {
		section := a.Section
		if canon, ok := model.ParseSection(string(section)); ok {
			section = canon
		}
		item := ReviewItem{
			QuestionID:    a.QuestionID,
			Section:       section,
			PromptID:      a.PromptID,
			UserAnswer:    a.UserAnswer,
			CorrectAnswer: a.CorrectAnswer,
			IsCorrect:     a.IsCorrect,
			Explanation:   a.Explanation,
		}
		if q, ok := byID[a.QuestionID]; ok {
			item.QuestionText = q.QuestionText
			item.Options = append([]string(nil), q.Options...)
			item.QuestionNumber = q.QuestionNumber
		} else {
			logger.Log.Debug("reviewed question no longer exists", zap.String("questionId", a.QuestionID))
		}
		items = append(items, item)

		if section.HasPrompts() && a.PromptID != nil && *a.PromptID != "" {
			if _, ok := seenPrompt[*a.PromptID]; !ok {
				seenPrompt[*a.PromptID] = struct{}{}
				promptIDs = append(promptIDs, *a.PromptID)
			}
		}
	}

	prompts, err := s.promptViews(ctx, promptIDs)
	if err != nil {
		return nil, err
	}

	return &Review{
		ID:        history.ID,
		UserID:    history.UserID,
		Mode:      history.Mode,
		CreatedAt: history.CreatedAt,
		Score:     history.Score,
		Scaled:    ScaleForMode(history.Mode, history.Score),
		Items:     items,
		Sections:  groupReviewItems(items),
		Prompts:   prompts,
	}, nil
}

func (s *HistoryService) promptViews(ctx context.Context, ids []string) (map[string]PromptView, error) {
	views := make(map[string]PromptView, len(ids))
	if len(ids) == 0 {
		return views, nil
	}

	prompts, err := s.Prompts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range prompts {
		views[prompts[i].ID] = newPromptView(ctx, &prompts[i], s.Audio)
	}
	return views, nil
}

// newPromptView renders the fields of a prompt that belong to its type. A listening prompt's
// audio reference is resolved to a playable URL when a resolver is given.
func newPromptView(ctx context.Context, p *model.Prompt, audio AudioURLResolver) PromptView {
	view := PromptView{ID: p.ID, Type: p.Section, Title: p.Title}
	switch p.Section {
	case model.SectionReading:
		view.Passage = p.Passage
	case model.SectionListening:
		view.Transcript = p.Transcript
		view.Instruction = p.Instruction
		view.AudioURL = p.AudioURL
		if audio != nil && p.AudioURL != "" {
			url, err := audio.ResolveURL(ctx, p.AudioURL)
			if err != nil {
				logger.Log.Warn("failed to resolve audio url",
					zap.String("promptId", p.ID),
					zap.Error(err),
				)
			} else {
				view.AudioURL = url
			}
		}
	}
	return view
}

// groupReviewItems orders sections canonically, keeps prompt groups in order of first
// appearance and sorts each group by question number.
func groupReviewItems(items []ReviewItem) []ReviewSection {
	type bucket struct {
		order  []string
		groups map[string]*ReviewGroup
	}
	buckets := make(map[model.Section]*bucket)

	for _, item := range items {
		b, ok := buckets[item.Section]
		if !ok {
			b = &bucket{groups: make(map[string]*ReviewGroup)}
			buckets[item.Section] = b
		}
		key := ""
		if item.PromptID != nil {
			key = *item.PromptID
		}
		g, ok := b.groups[key]
		if !ok {
			g = &ReviewGroup{PromptID: item.PromptID}
			b.groups[key] = g
			b.order = append(b.order, key)
		}
		g.Items = append(g.Items, item)
	}

	var sections []ReviewSection
	for _, section := range model.SectionOrder {
		b, ok := buckets[section]
		if !ok {
			continue
		}
		rs := ReviewSection{Section: section}
		for _, key := range b.order {
			g := b.groups[key]
			sortReviewItems(g.Items)
			rs.Groups = append(rs.Groups, *g)
		}
		sections = append(sections, rs)
	}
	return sections
}

func sortReviewItems(items []ReviewItem) {
	num := func(it ReviewItem) int {
		if it.QuestionNumber == nil {
			return questionNumberSentinel
		}
		return *it.QuestionNumber
	}
	sort.SliceStable(items, func(i, j int) bool {
		return num(items[i]) < num(items[j])
	})
}
