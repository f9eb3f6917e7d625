package service

import (
	"context"
	"toefl_sim_backend/internal/model"
)

// The simulation services depend on these narrow views of the repositories so they can run
// against in-memory stores in tests.

type QuestionStore interface {
	ListBySections(ctx context.Context, sections ...model.Section) ([]model.Question, error)
	ListByPrompt(ctx context.Context, section model.Section, promptID string) ([]model.Question, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Question, error)
}

type AnswerKeyStore interface {
	Lookup(ctx context.Context, ids []string) (map[string]model.AnswerKey, error)
}

type PromptStore interface {
	FindByIDs(ctx context.Context, ids []string) ([]model.Prompt, error)
}

type SessionStore interface {
	Find(ctx context.Context, userID string, mode model.SimulationMode) (*model.SimulationSession, error)
	FindOrCreate(ctx context.Context, session *model.SimulationSession) (*model.SimulationSession, error)
	Delete(ctx context.Context, userID string, mode model.SimulationMode) error
}

type HistoryStore interface {
	Create(ctx context.Context, history *model.SimulationHistory) error
	FindByID(ctx context.Context, id string) (*model.SimulationHistory, error)
	List(ctx context.Context, filter model.HistoryFilter, offset, limit int) ([]model.SimulationHistory, int64, error)
}

// AudioURLResolver turns a stored audio reference into a URL the browser can play.
type AudioURLResolver interface {
	ResolveURL(ctx context.Context, ref string) (string, error)
}
