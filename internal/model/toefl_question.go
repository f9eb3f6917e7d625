package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Question is a multiple-choice item. Content is authored outside this service.
type Question struct {
	UUIDBase
	Section        Section                     `gorm:"type:varchar(20);not null;index" json:"section"`
	PromptID       *string                     `gorm:"type:varchar(36);index" json:"promptId,omitempty"`
	QuestionText   string                      `gorm:"type:text;not null" json:"questionText"`
	Options        datatypes.JSONSlice[string] `gorm:"type:json" json:"options"`
	CorrectAnswer  string                      `gorm:"type:varchar(1);not null" json:"correctAnswer"`
	Explanation    string                      `gorm:"type:text" json:"explanation"`
	QuestionNumber *int                        `json:"questionNumber,omitempty"`
}

func (Question) TableName() string {
	return "toefl_questions"
}

func (q *Question) AfterFind(tx *gorm.DB) error {
	if s, ok := ParseSection(string(q.Section)); ok {
		q.Section = s
	}
	return nil
}

// AnswerKey is the grading view of a question.
type AnswerKey struct {
	QuestionID    string  `json:"questionId"`
	Section       Section `json:"section"`
	PromptID      *string `json:"promptId,omitempty"`
	CorrectAnswer string  `json:"correctAnswer"`
	Explanation   string  `json:"explanation"`
}

func (q *Question) AnswerKey() AnswerKey {
	return AnswerKey{
		QuestionID:    q.ID,
		Section:       q.Section,
		PromptID:      q.PromptID,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}
}

// OptionLabels are the answer letters in option order.
var OptionLabels = []string{"A", "B", "C", "D"}
