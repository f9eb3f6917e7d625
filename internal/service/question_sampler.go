package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"toefl_sim_backend/internal/config"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/util"
	"toefl_sim_backend/pkg/monitoring"
	"toefl_sim_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// questionNumberSentinel orders unnumbered questions after numbered ones.
const questionNumberSentinel = 999

// Shuffler permutes n elements through swap, like rand.Shuffle.
type Shuffler func(n int, swap func(i, j int))

// TestSelector carries the optional selectors of an assembly request.
type TestSelector struct {
	PromptID string `json:"promptId" form:"promptId"`
	Preset   string `json:"preset" form:"preset"`
}

// TestQuestion is a question as handed to test takers. It has no answer or explanation.
type TestQuestion struct {
	ID             string        `json:"id"`
	Section        model.Section `json:"section"`
	PromptID       *string       `json:"promptId"`
	QuestionText   string        `json:"questionText"`
	Options        []string      `json:"options"`
	QuestionNumber *int          `json:"questionNumber,omitempty"`
}

type QuestionSampler struct {
	Questions QuestionStore

	shuffle Shuffler

	mu  sync.RWMutex
	cfg config.SimulationConfig
}

// NewQuestionSampler builds a sampler. A nil shuffle uses the unseeded global source.
func NewQuestionSampler(questions QuestionStore, cfg config.SimulationConfig, shuffle Shuffler) *QuestionSampler {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	return &QuestionSampler{Questions: questions, shuffle: shuffle, cfg: cfg}
}

// UpdateConfig swaps the presets used by later assemblies.
func (s *QuestionSampler) UpdateConfig(cfg config.SimulationConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *QuestionSampler) preset(name string) (config.SimulationPreset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.cfg.Preset(name)
	if !ok {
		return config.SimulationPreset{}, fmt.Errorf("%w: unknown preset %q", util.ErrInvalidInput, name)
	}
	return p, nil
}

// Presets returns a copy of the configured presets.
func (s *QuestionSampler) Presets() map[string]config.SimulationPreset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]config.SimulationPreset, len(s.cfg.Presets))
	for k, v := range s.cfg.Presets {
		out[k] = v
	}
	return out
}

// BuildTest assembles the ordered question list for mode. Listening and reading modes
// assemble the single prompt group named by sel.PromptID.
func (s *QuestionSampler) BuildTest(ctx context.Context, mode model.SimulationMode, sel TestSelector) ([]TestQuestion, error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuestionSampler.BuildTest")
	defer span.End()
	span.SetAttributes(attribute.String("mode", string(mode)))

	var (
		questions []model.Question
		err       error
	)

	switch mode {
	case model.ModeListening, model.ModeReading:
		promptID := strings.TrimSpace(sel.PromptID)
		if promptID == "" {
			return nil, fmt.Errorf("%w: promptId is required for %s mode", util.ErrInvalidInput, mode)
		}
		questions, err = s.buildPackage(ctx, mode.Sections()[0], promptID)
	case model.ModeStructure:
		var preset config.SimulationPreset
		if preset, err = s.preset(sel.Preset); err != nil {
			return nil, err
		}
		questions, err = s.buildStructure(ctx, preset.StructureQuestions)
	case model.ModeFull:
		var preset config.SimulationPreset
		if preset, err = s.preset(sel.Preset); err != nil {
			return nil, err
		}
		questions, err = s.buildFull(ctx, preset)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", util.ErrInvalidInput, mode)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	monitoring.TestsAssembled.WithLabelValues(string(mode)).Inc()
	span.SetAttributes(attribute.Int("questions", len(questions)))
	return sanitize(questions), nil
}

func (s *QuestionSampler) buildPackage(ctx context.Context, section model.Section, promptID string) ([]model.Question, error) {
	questions, err := s.Questions.ListByPrompt(ctx, section, promptID)
	if err != nil {
		return nil, err
	}
	sortByQuestionNumber(questions)
	return questions, nil
}

func (s *QuestionSampler) buildStructure(ctx context.Context, limit int) ([]model.Question, error) {
	pool, err := s.Questions.ListBySections(ctx, model.SectionStructure)
	if err != nil {
		return nil, err
	}
	return s.sampleQuestions(dedupe(pool), limit), nil
}

func (s *QuestionSampler) buildFull(ctx context.Context, preset config.SimulationPreset) ([]model.Question, error) {
	pool, err := s.Questions.ListBySections(ctx, model.SectionOrder...)
	if err != nil {
		return nil, err
	}

	bySection := make(map[model.Section][]model.Question, len(model.SectionOrder))
	for _, q := range dedupe(pool) {
		section, ok := model.ParseSection(string(q.Section))
		if !ok {
			continue
		}
		bySection[section] = append(bySection[section], q)
	}

	listening := s.sampleGroups(bySection[model.SectionListening], preset.ListeningPrompts)
	structure := s.sampleQuestions(bySection[model.SectionStructure], preset.StructureQuestions)
	reading := s.sampleGroups(bySection[model.SectionReading], preset.ReadingPassages)

	out := make([]model.Question, 0, len(listening)+len(structure)+len(reading))
	out = append(out, listening...)
	out = append(out, structure...)
	out = append(out, reading...)
	return out, nil
}

// sampleQuestions shuffles pool and keeps at most limit questions.
func (s *QuestionSampler) sampleQuestions(pool []model.Question, limit int) []model.Question {
	if limit <= 0 || len(pool) == 0 {
		return nil
	}
	shuffled := make([]model.Question, len(pool))
	copy(shuffled, pool)
	s.shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if len(shuffled) > limit {
		shuffled = shuffled[:limit]
	}
	return shuffled
}

// sampleGroups picks up to count whole prompt groups. Questions without a prompt never
// take part.
func (s *QuestionSampler) sampleGroups(pool []model.Question, count int) []model.Question {
	if count <= 0 {
		return nil
	}

	var order []string
	groups := make(map[string][]model.Question)
	for _, q := range pool {
		if q.PromptID == nil || *q.PromptID == "" {
			continue
		}
		id := *q.PromptID
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], q)
	}

	s.shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	if len(order) > count {
		order = order[:count]
	}

	var out []model.Question
	for _, id := range order {
		group := groups[id]
		sortByQuestionNumber(group)
		out = append(out, group...)
	}
	return out
}

func questionNumber(q model.Question) int {
	if q.QuestionNumber == nil {
		return questionNumberSentinel
	}
	return *q.QuestionNumber
}

func sortByQuestionNumber(questions []model.Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		return questionNumber(questions[i]) < questionNumber(questions[j])
	})
}

func dedupe(questions []model.Question) []model.Question {
	seen := make(map[string]struct{}, len(questions))
	out := questions[:0:0]
	for _, q := range questions {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

func sanitize(questions []model.Question) []TestQuestion {
	out := make([]TestQuestion, 0, len(questions))
	for _, q := range questions {
		section := q.Section
		if s, ok := model.ParseSection(string(section)); ok {
			section = s
		}
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		out = append(out, TestQuestion{
			ID:             q.ID,
			Section:        section,
			PromptID:       q.PromptID,
			QuestionText:   q.QuestionText,
			Options:        options,
			QuestionNumber: q.QuestionNumber,
		})
	}
	return out
}
