package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"toefl_sim_backend/internal/model"
	"toefl_sim_backend/internal/util"
	"toefl_sim_backend/pkg/logger"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// QuestionBank is the on-disk format of an authored bank of prompts and questions.
// Prompts are referenced from questions by their Key.
type QuestionBank struct {
	Prompts   []BankPrompt   `yaml:"prompts" validate:"dive"`
	Questions []BankQuestion `yaml:"questions" validate:"dive"`
}

type BankPrompt struct {
	Key           string `yaml:"key" validate:"required"`
	ID            string `yaml:"id"`
	Section       string `yaml:"section" validate:"required,oneof=listening reading"`
	Title         string `yaml:"title"`
	Passage       string `yaml:"passage" validate:"required_if=Section reading"`
	PassageNumber *int   `yaml:"passageNumber"`
	AudioURL      string `yaml:"audioUrl"`
	AudioFile     string `yaml:"audioFile"`
	Transcript    string `yaml:"transcript"`
	Instruction   string `yaml:"instruction"`
}

type BankQuestion struct {
	ID             string   `yaml:"id"`
	Section        string   `yaml:"section" validate:"required,oneof=listening structure reading grammar"`
	Prompt         string   `yaml:"prompt"`
	QuestionText   string   `yaml:"questionText" validate:"required"`
	Options        []string `yaml:"options" validate:"option_count,dive,required"`
	CorrectAnswer  string   `yaml:"correctAnswer" validate:"required,option_label"`
	Explanation    string   `yaml:"explanation"`
	QuestionNumber *int     `yaml:"questionNumber"`
}

type ImportStore interface {
	UpsertPrompt(ctx context.Context, p *model.Prompt) error
	UpsertQuestion(ctx context.Context, q *model.Question) error
}

// AnswerKeyInvalidator is implemented by answer key caches.
type AnswerKeyInvalidator interface {
	Invalidate(ctx context.Context, ids ...string) error
}

type ImportResult struct {
	Prompts   int `json:"prompts"`
	Questions int `json:"questions"`
}

type QuestionImportService struct {
	Store    ImportStore
	Storage  *StorageService
	Keys     AnswerKeyInvalidator
	validate *validator.Validate
	// audioDuration reads an audio file's duration in seconds
	audioDuration func(path string) (float64, error)
}

func NewQuestionImportService(store ImportStore, storage *StorageService, keys AnswerKeyInvalidator) *QuestionImportService {
	return &QuestionImportService{
		Store:    store,
		Storage:  storage,
		Keys:     keys,
		validate: newBankValidator(),
		audioDuration: func(path string) (float64, error) {
			info, err := util.GetAudioInfo(path)
			if err != nil {
				return 0, err
			}
			return info.Duration, nil
		},
	}
}

// newBankValidator knows the answer letters of model.OptionLabels.
func newBankValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("option_label", func(fl validator.FieldLevel) bool {
		return slices.Contains(model.OptionLabels, fl.Field().String())
	})
	_ = v.RegisterValidation("option_count", func(fl validator.FieldLevel) bool {
		return fl.Field().Len() == len(model.OptionLabels)
	})
	return v
}

// ParseBank decodes and validates a bank. Every question's section must match the section of
// the prompt it points to.
func (s *QuestionImportService) ParseBank(data []byte) (*QuestionBank, error) {
	var bank QuestionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidInput, err)
	}

	for i := range bank.Questions {
		bank.Questions[i].CorrectAnswer = strings.ToUpper(strings.TrimSpace(bank.Questions[i].CorrectAnswer))
	}

	if err := s.validate.Struct(&bank); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidInput, err)
	}

	prompts := make(map[string]model.Section, len(bank.Prompts))
	for _, p := range bank.Prompts {
		if _, dup := prompts[p.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate prompt key %q", util.ErrInvalidInput, p.Key)
		}
		section, _ := model.ParseSection(p.Section)
		prompts[p.Key] = section
	}

	var errs []error
	for i, q := range bank.Questions {
		section, _ := model.ParseSection(q.Section)
		if q.Prompt == "" {
			continue
		}
		ps, ok := prompts[q.Prompt]
		if !ok {
			errs = append(errs, fmt.Errorf("questions[%d]: unknown prompt %q", i, q.Prompt))
			continue
		}
		if ps != section {
			errs = append(errs, fmt.Errorf("questions[%d]: section %s does not match prompt %q (%s)", i, section, q.Prompt, ps))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidInput, errors.Join(errs...))
	}

	return &bank, nil
}

// ImportFile loads a bank from path. Relative audio files resolve against the bank's directory.
func (s *QuestionImportService) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	bank, err := s.ParseBank(data)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, bank, filepath.Dir(path))
}

func (s *QuestionImportService) Import(ctx context.Context, bank *QuestionBank, baseDir string) (*ImportResult, error) {
	result := &ImportResult{}
	promptIDs := make(map[string]string, len(bank.Prompts))

	for _, bp := range bank.Prompts {
		section, _ := model.ParseSection(bp.Section)
		prompt := &model.Prompt{
			Section:       section,
			Title:         bp.Title,
			Passage:       bp.Passage,
			PassageNumber: bp.PassageNumber,
			AudioURL:      bp.AudioURL,
			Transcript:    bp.Transcript,
			Instruction:   bp.Instruction,
		}
		prompt.ID = bp.ID

		if bp.AudioFile != "" {
			// the audio object is keyed by prompt id, so it must exist before the upload
			if prompt.ID == "" {
				prompt.ID = model.GenerateUUID()
			}
			if err := s.attachAudio(ctx, prompt, resolvePath(baseDir, bp.AudioFile)); err != nil {
				return result, fmt.Errorf("prompt %q: %w", bp.Key, err)
			}
		}

		if err := s.Store.UpsertPrompt(ctx, prompt); err != nil {
			return result, fmt.Errorf("prompt %q: %w", bp.Key, err)
		}
		promptIDs[bp.Key] = prompt.ID
		result.Prompts++
	}

	var imported []string
	for i, bq := range bank.Questions {
		section, _ := model.ParseSection(bq.Section)
		q := &model.Question{
			Section:        section,
			QuestionText:   bq.QuestionText,
			Options:        bq.Options,
			CorrectAnswer:  bq.CorrectAnswer,
			Explanation:    bq.Explanation,
			QuestionNumber: bq.QuestionNumber,
		}
		q.ID = bq.ID
		if bq.Prompt != "" {
			id := promptIDs[bq.Prompt]
			q.PromptID = &id
		}

		if err := s.Store.UpsertQuestion(ctx, q); err != nil {
			return result, fmt.Errorf("questions[%d]: %w", i, err)
		}
		imported = append(imported, q.ID)
		result.Questions++
	}

	if s.Keys != nil {
		if err := s.Keys.Invalidate(ctx, imported...); err != nil {
			logger.Log.Warn("failed to invalidate answer key cache", zap.Error(err))
		}
	}

	logger.Log.Info("question bank imported",
		zap.Int("prompts", result.Prompts),
		zap.Int("questions", result.Questions),
	)
	return result, nil
}

func (s *QuestionImportService) attachAudio(ctx context.Context, prompt *model.Prompt, path string) error {
	if duration, err := s.audioDuration(path); err != nil {
		logger.Log.Warn("could not read audio duration", zap.String("file", path), zap.Error(err))
	} else {
		prompt.Duration = duration
	}

	if s.Storage == nil {
		return nil
	}
	key, err := s.Storage.StoreAudio(ctx, prompt.ID, path)
	if err != nil {
		return err
	}
	prompt.AudioURL = key
	return nil
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
