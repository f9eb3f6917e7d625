package service_test

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
	"toefl_sim_backend/internal/model"
)

// In-memory stand-ins for the gorm and redis repositories.

type memQuestions struct {
	items []model.Question
}

func canonical(s model.Section) model.Section {
	if c, ok := model.ParseSection(string(s)); ok {
		return c
	}
	return s
}

func (m *memQuestions) ListBySections(ctx context.Context, sections ...model.Section) ([]model.Question, error) {
	var out []model.Question
	for _, q := range m.items {
		if slices.Contains(sections, canonical(q.Section)) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memQuestions) ListByPrompt(ctx context.Context, section model.Section, promptID string) ([]model.Question, error) {
	var out []model.Question
	for _, q := range m.items {
		if canonical(q.Section) == section && q.PromptID != nil && *q.PromptID == promptID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memQuestions) FindByIDs(ctx context.Context, ids []string) ([]model.Question, error) {
	var out []model.Question
	for _, q := range m.items {
		if slices.Contains(ids, q.ID) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memQuestions) Lookup(ctx context.Context, ids []string) (map[string]model.AnswerKey, error) {
	keys := make(map[string]model.AnswerKey)
	for _, q := range m.items {
		if slices.Contains(ids, q.ID) {
			keys[q.ID] = q.AnswerKey()
		}
	}
	return keys, nil
}

func (m *memQuestions) CountBySection(ctx context.Context) (map[model.Section]int64, error) {
	counts := make(map[model.Section]int64)
	for _, q := range m.items {
		counts[canonical(q.Section)]++
	}
	return counts, nil
}

func (m *memQuestions) CountByPrompts(ctx context.Context, promptIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, q := range m.items {
		if q.PromptID != nil && slices.Contains(promptIDs, *q.PromptID) {
			counts[*q.PromptID]++
		}
	}
	return counts, nil
}

type memPrompts struct {
	items []model.Prompt
}

func (m *memPrompts) FindByIDs(ctx context.Context, ids []string) ([]model.Prompt, error) {
	var out []model.Prompt
	for _, p := range m.items {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPrompts) FindByID(ctx context.Context, id string) (*model.Prompt, error) {
	for _, p := range m.items {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memPrompts) CountBySection(ctx context.Context) (map[model.Section]int64, error) {
	counts := make(map[model.Section]int64)
	for _, p := range m.items {
		counts[p.Section]++
	}
	return counts, nil
}

func (m *memPrompts) ListBySection(ctx context.Context, section model.Section) ([]model.Prompt, error) {
	var out []model.Prompt
	for _, p := range m.items {
		if p.Section == section {
			out = append(out, p)
		}
	}
	return out, nil
}

type memSessions struct {
	mu     sync.Mutex
	items  map[string]model.SimulationSession
	nextID int
}

func newMemSessions() *memSessions {
	return &memSessions{items: make(map[string]model.SimulationSession)}
}

func sessionKey(userID string, mode model.SimulationMode) string {
	return userID + "|" + string(mode)
}

func (m *memSessions) Find(ctx context.Context, userID string, mode model.SimulationMode) (*model.SimulationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[sessionKey(userID, mode)]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSessions) FindOrCreate(ctx context.Context, session *model.SimulationSession) (*model.SimulationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey(session.UserID, session.Mode)
	if s, ok := m.items[key]; ok {
		return &s, nil
	}
	m.nextID++
	session.ID = fmt.Sprintf("session-%d", m.nextID)
	m.items[key] = *session
	stored := *session
	return &stored, nil
}

func (m *memSessions) Delete(ctx context.Context, userID string, mode model.SimulationMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, sessionKey(userID, mode))
	return nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type memHistories struct {
	items []model.SimulationHistory
	clock time.Time
}

func (m *memHistories) Create(ctx context.Context, h *model.SimulationHistory) error {
	if m.clock.IsZero() {
		m.clock = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	}
	m.clock = m.clock.Add(time.Minute)
	h.ID = fmt.Sprintf("history-%d", len(m.items)+1)
	h.CreatedAt = m.clock
	m.items = append(m.items, *h)
	return nil
}

func (m *memHistories) FindByID(ctx context.Context, id string) (*model.SimulationHistory, error) {
	for _, h := range m.items {
		if h.ID == id {
			found := h
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memHistories) List(ctx context.Context, filter model.HistoryFilter, offset, limit int) ([]model.SimulationHistory, int64, error) {
	var matched []model.SimulationHistory
	for _, h := range m.items {
		if filter.UserID != "" && h.UserID != filter.UserID {
			continue
		}
		if filter.Mode != "" && h.Mode != filter.Mode {
			continue
		}
		matched = append(matched, h)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func ptr[T any](v T) *T {
	return &v
}

func question(id string, section model.Section, promptID string, number int, answer string) model.Question {
	q := model.Question{
		Section:       section,
		QuestionText:  "Question " + id,
		Options:       []string{"opt A", "opt B", "opt C", "opt D"},
		CorrectAnswer: answer,
		Explanation:   "because " + id,
	}
	q.ID = id
	if promptID != "" {
		q.PromptID = ptr(promptID)
	}
	if number > 0 {
		q.QuestionNumber = ptr(number)
	}
	return q
}

// sampleBank has two listening prompts, six reading prompts, one orphan listening question
// and 45 structure questions, five of them stored under the legacy spelling.
func sampleBank() *memQuestions {
	var items []model.Question

	items = append(items,
		question("l1-3", model.SectionListening, "L1", 3, "A"),
		question("l1-1", model.SectionListening, "L1", 1, "B"),
		question("l1-x", model.SectionListening, "L1", 0, "C"),
		question("l1-2", model.SectionListening, "L1", 2, "D"),
		question("l2-1", model.SectionListening, "L2", 1, "A"),
		question("l2-2", model.SectionListening, "L2", 2, "A"),
		question("l-orphan", model.SectionListening, "", 0, "A"),
	)

	for p := 1; p <= 6; p++ {
		for n := 1; n <= 3; n++ {
			items = append(items, question(fmt.Sprintf("r%d-%d", p, n), model.SectionReading, fmt.Sprintf("R%d", p), n, "C"))
		}
	}

	for i := 1; i <= 40; i++ {
		items = append(items, question(fmt.Sprintf("s%02d", i), model.SectionStructure, "", 0, "B"))
	}
	for i := 1; i <= 5; i++ {
		items = append(items, question(fmt.Sprintf("g%02d", i), model.Section("grammar"), "", 0, "B"))
	}

	return &memQuestions{items: items}
}
