package service

import (
	"context"
	"fmt"
	"strings"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/util"
	"toefl_sim_backend/pkg/logger"
	"toefl_sim_backend/pkg/monitoring"
	"toefl_sim_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// SubmittedAnswer is one answer as sent by the client. A nil UserAnswer means unanswered.
type SubmittedAnswer struct {
	QuestionID string  `json:"questionId" binding:"required"`
	UserAnswer *string `json:"userAnswer"`
	Section    string  `json:"section"`
	PromptID   *string `json:"promptId"`
}

type Scorer struct {
	Keys      AnswerKeyStore
	Histories HistoryStore
	// Sessions, when set, has the user's session for the mode cleared after a submission.
	Sessions *SessionTracker
}

func NewScorer(keys AnswerKeyStore, histories HistoryStore, sessions *SessionTracker) *Scorer {
	return &Scorer{Keys: keys, Histories: histories, Sessions: sessions}
}

func normalizeChoice(answer *string) *string {
	if answer == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*answer))
	if v == "" {
		return nil
	}
	return &v
}

// Grade checks answers against keys. Answers for unknown questions are skipped, and a
// question answered twice is graded once using the first answer.
func Grade(answers []SubmittedAnswer, keys map[string]model.AnswerKey) (model.SectionScore, []model.GradedAnswer, int) {
	var (
		score     model.SectionScore
		graded    = make([]model.GradedAnswer, 0, len(answers))
		seen      = make(map[string]struct{}, len(answers))
		unmatched int
	)

	for _, a := range answers {
		key, ok := keys[a.QuestionID]
		if !ok {
			unmatched++
			continue
		}
		if _, dup := seen[a.QuestionID]; dup {
			continue
		}
		seen[a.QuestionID] = struct{}{}

		userAnswer := normalizeChoice(a.UserAnswer)
		correct := userAnswer != nil && *userAnswer == strings.ToUpper(key.CorrectAnswer)

		promptID := key.PromptID
		if promptID == nil {
			promptID = a.PromptID
		}

		section := key.Section
		if canon, ok := model.ParseSection(string(section)); ok {
			section = canon
		}

		if correct {
			score.Credit(section)
		}

		graded = append(graded, model.GradedAnswer{
			QuestionID:    a.QuestionID,
			PromptID:      promptID,
			Section:       section,
			UserAnswer:    userAnswer,
			CorrectAnswer: key.CorrectAnswer,
			IsCorrect:     correct,
			Explanation:   key.Explanation,
		})
	}

	return score, graded, unmatched
}

// Submit grades answers and stores the attempt.
func (s *Scorer) Submit(ctx context.Context, userID string, mode model.SimulationMode, answers []SubmittedAnswer) (*model.SimulationHistory, error) {
	ctx, span := tracing.Tracer.Start(ctx, "Scorer.Submit")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId is required", util.ErrInvalidInput)
	}
	if _, ok := model.ParseMode(string(mode)); !ok {
		return nil, fmt.Errorf("%w: unknown mode %q", util.ErrInvalidInput, mode)
	}
	if answers == nil {
		return nil, fmt.Errorf("%w: answers are required", util.ErrInvalidInput)
	}

	ids := make([]string, 0, len(answers))
	for i, a := range answers {
		if strings.TrimSpace(a.QuestionID) == "" {
			return nil, fmt.Errorf("%w: answers[%d] has no questionId", util.ErrInvalidInput, i)
		}
		ids = append(ids, a.QuestionID)
	}

	keys, err := s.Keys.Lookup(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("lookup answer keys: %w", err)
	}

	score, graded, unmatched := Grade(answers, keys)
	if unmatched > 0 {
		monitoring.UnmatchedAnswers.Add(float64(unmatched))
		logger.Log.Info("answers for unknown questions dropped",
			zap.String("userId", userID),
			zap.Int("count", unmatched),
		)
	}

	history := &model.SimulationHistory{
		UserID:  userID,
		Mode:    mode,
		Score:   score,
		Answers: datatypes.NewJSONSlice(graded),
	}
	if err := s.Histories.Create(ctx, history); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create history: %w", err)
	}

	monitoring.SubmissionCounter.WithLabelValues(string(mode)).Inc()
	monitoring.RawScore.WithLabelValues(string(mode)).Observe(float64(score.Total))
	span.SetAttributes(
		attribute.String("history.id", history.ID),
		attribute.Int("score.total", score.Total),
	)

	if s.Sessions != nil {
		if err := s.Sessions.Reset(ctx, userID, mode); err != nil {
			// left behind sessions expire on their own
			logger.Log.Warn("failed to clear session after submit",
				zap.String("userId", userID),
				zap.String("mode", string(mode)),
				zap.Error(err),
			)
		}
	}

	return history, nil
}
