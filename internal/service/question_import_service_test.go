package service_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"toefl_sim_backend/internal/config"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/service"
	"toefl_sim_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memImportStore struct {
	prompts   []model.Prompt
	questions []model.Question
}

func (m *memImportStore) UpsertPrompt(ctx context.Context, p *model.Prompt) error {
	if p.ID == "" {
		p.ID = fmt.Sprintf("prompt-%d", len(m.prompts)+1)
	}
	m.prompts = append(m.prompts, *p)
	return nil
}

func (m *memImportStore) UpsertQuestion(ctx context.Context, q *model.Question) error {
	if q.ID == "" {
		q.ID = fmt.Sprintf("question-%d", len(m.questions)+1)
	}
	m.questions = append(m.questions, *q)
	return nil
}

type recordingInvalidator struct {
	ids []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, ids ...string) error {
	r.ids = append(r.ids, ids...)
	return nil
}

const validBank = `
prompts:
  - key: glaciers
    section: reading
    title: Glaciers
    passage: Glaciers are large masses of ice.
    passageNumber: 1
  - key: campus
    section: listening
    title: Campus conversation
    audioUrl: https://cdn.example.com/campus.mp3
    transcript: "M: Where is the library?"
questions:
  - section: reading
    prompt: glaciers
    questionText: What is the passage mainly about?
    options: [Ice, Rivers, Mountains, Lakes]
    correctAnswer: a
    questionNumber: 1
  - id: fixed-id
    section: listening
    prompt: campus
    questionText: What does the man want?
    options: [A book, Directions, Food, A ride]
    correctAnswer: B
  - section: grammar
    questionText: The sun ____ in the east.
    options: [rise, rises, rising, risen]
    correctAnswer: B
`

func TestParseBank(t *testing.T) {
	svc := service.NewQuestionImportService(&memImportStore{}, nil, nil)

	bank, err := svc.ParseBank([]byte(validBank))
	require.NoError(t, err)
	assert.Len(t, bank.Prompts, 2)
	require.Len(t, bank.Questions, 3)
	assert.Equal(t, "A", bank.Questions[0].CorrectAnswer)
}

func TestParseBankRejectsInvalid(t *testing.T) {
	svc := service.NewQuestionImportService(&memImportStore{}, nil, nil)

	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "prompts: [unclosed"},
		{"three options", `
questions:
  - section: structure
    questionText: Q
    options: [a, b, c]
    correctAnswer: A
`},
		{"answer out of range", `
questions:
  - section: structure
    questionText: Q
    options: [a, b, c, d]
    correctAnswer: E
`},
		{"unknown section", `
questions:
  - section: speaking
    questionText: Q
    options: [a, b, c, d]
    correctAnswer: A
`},
		{"reading prompt without passage", `
prompts:
  - key: p
    section: reading
`},
		{"unknown prompt", `
questions:
  - section: reading
    prompt: missing
    questionText: Q
    options: [a, b, c, d]
    correctAnswer: A
`},
		{"section mismatch", `
prompts:
  - key: talk
    section: listening
questions:
  - section: reading
    prompt: talk
    questionText: Q
    options: [a, b, c, d]
    correctAnswer: A
`},
		{"duplicate prompt key", `
prompts:
  - key: talk
    section: listening
  - key: talk
    section: listening
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ParseBank([]byte(tt.yaml))
			assert.ErrorIs(t, err, util.ErrInvalidInput)
		})
	}
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validBank), 0644))

	store := &memImportStore{}
	keys := &recordingInvalidator{}
	svc := service.NewQuestionImportService(store, nil, keys)

	result, err := svc.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, &service.ImportResult{Prompts: 2, Questions: 3}, result)

	require.Len(t, store.questions, 3)
	reading := store.questions[0]
	require.NotNil(t, reading.PromptID)
	assert.Equal(t, "prompt-1", *reading.PromptID)
	assert.Equal(t, model.SectionReading, reading.Section)

	assert.Equal(t, "fixed-id", store.questions[1].ID)
	assert.Equal(t, "prompt-2", *store.questions[1].PromptID)

	grammar := store.questions[2]
	assert.Equal(t, model.SectionStructure, grammar.Section)
	assert.Nil(t, grammar.PromptID)

	assert.Equal(t, "https://cdn.example.com/campus.mp3", store.prompts[1].AudioURL)
	assert.ElementsMatch(t, []string{"question-1", "fixed-id", "question-3"}, keys.ids)
}

func TestImportFileMissing(t *testing.T) {
	svc := service.NewQuestionImportService(&memImportStore{}, nil, nil)
	_, err := svc.ImportFile(context.Background(), filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestImportAudioKeyedByPrompt(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"day1", "day2"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, sub, "talk.mp3"), []byte(sub), 0644))
	}
	bankPath := filepath.Join(dir, "bank.yaml")
	require.NoError(t, os.WriteFile(bankPath, []byte(`
prompts:
  - key: first
    section: listening
    audioFile: day1/talk.mp3
  - key: second
    id: fixed-prompt
    section: listening
    audioFile: day2/talk.mp3
`), 0644))

	storageRoot := t.TempDir()
	storage := service.NewStorageService(&config.Config{
		Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: storageRoot},
	})
	store := &memImportStore{}
	svc := service.NewQuestionImportService(store, storage, nil)

	_, err := svc.ImportFile(context.Background(), bankPath)
	require.NoError(t, err)
	require.Len(t, store.prompts, 2)

	first, second := store.prompts[0], store.prompts[1]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "listening/"+first.ID+"/talk.mp3", first.AudioURL)
	assert.Equal(t, "listening/fixed-prompt/talk.mp3", second.AudioURL)

	data, err := os.ReadFile(filepath.Join(storageRoot, "listening", first.ID, "talk.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "day1", string(data))
}
