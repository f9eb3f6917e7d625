package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSection(t *testing.T) {
	tests := []struct {
		raw  string
		want Section
		ok   bool
	}{
		{"listening", SectionListening, true},
		{"Structure", SectionStructure, true},
		{"grammar", SectionStructure, true},
		{" reading ", SectionReading, true},
		{"speaking", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseSection(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestStoredValues(t *testing.T) {
	assert.ElementsMatch(t, []string{"structure", "grammar"}, SectionStructure.StoredValues())
	assert.Equal(t, []string{"reading"}, SectionReading.StoredValues())
}

func TestModeSections(t *testing.T) {
	assert.Equal(t, SectionOrder, ModeFull.Sections())
	assert.Equal(t, []Section{SectionStructure}, ModeStructure.Sections())
	assert.True(t, ModeListening.IsPackage())
	assert.False(t, ModeStructure.IsPackage())

	_, ok := ParseMode("speaking")
	assert.False(t, ok)
	m, ok := ParseMode("FULL")
	assert.True(t, ok)
	assert.Equal(t, ModeFull, m)
}

func TestScoreCredit(t *testing.T) {
	var s SectionScore
	s.Credit(SectionListening)
	s.Credit(SectionReading)
	s.Credit(SectionReading)
	s.Credit(Section("speaking"))

	assert.Equal(t, SectionScore{Listening: 1, Reading: 2, Total: 3}, s)
}

func TestQuestionAfterFindNormalizesSection(t *testing.T) {
	q := &Question{Section: Section("grammar"), CorrectAnswer: "b"}
	assert.NoError(t, q.AfterFind(nil))
	assert.Equal(t, SectionStructure, q.Section)
	assert.Equal(t, SectionStructure, q.AnswerKey().Section)
}

func TestFullModeSectionsIsACopy(t *testing.T) {
	sections := ModeFull.Sections()
	sections[0] = SectionReading

	assert.Equal(t, SectionListening, SectionOrder[0])
	assert.Equal(t, SectionListening, ModeFull.Sections()[0])
}
