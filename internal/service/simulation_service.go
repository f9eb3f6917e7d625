package service

import (
	"context"
	"toefl_sim_backend/internal/model"
)

// SimulationService runs the begin-a-test flow: drop any stale session, assemble the
// questions, open a fresh session.
type SimulationService struct {
	Sampler  *QuestionSampler
	Sessions *SessionTracker
}

func NewSimulationService(sampler *QuestionSampler, sessions *SessionTracker) *SimulationService {
	return &SimulationService{Sampler: sampler, Sessions: sessions}
}

type SimulationStart struct {
	Session   *model.SimulationSession `json:"session"`
	Questions []TestQuestion           `json:"questions"`
}

func (s *SimulationService) Begin(ctx context.Context, userID string, mode model.SimulationMode, sel TestSelector) (*SimulationStart, error) {
	if err := validateSessionKey(userID, mode); err != nil {
		return nil, err
	}

	// assemble first so an invalid selector leaves the current session alone
	questions, err := s.Sampler.BuildTest(ctx, mode, sel)
	if err != nil {
		return nil, err
	}

	if err := s.Sessions.Reset(ctx, userID, mode); err != nil {
		return nil, err
	}
	session, err := s.Sessions.Start(ctx, userID, mode)
	if err != nil {
		return nil, err
	}

	return &SimulationStart{Session: session, Questions: questions}, nil
}
