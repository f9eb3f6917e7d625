package model

import "gorm.io/datatypes"

// SectionScore holds raw (unscaled) correct counts.
type SectionScore struct {
	Listening int `gorm:"default:0" json:"listening"`
	Structure int `gorm:"default:0" json:"structure"`
	Reading   int `gorm:"default:0" json:"reading"`
	Total     int `gorm:"default:0" json:"total"`
}

func (s *SectionScore) Credit(section Section) {
	switch section {
	case SectionListening:
		s.Listening++
	case SectionStructure:
		s.Structure++
	case SectionReading:
		s.Reading++
	default:
		return
	}
	s.Total++
}

// GradedAnswer is a snapshot taken at grading time.
type GradedAnswer struct {
	QuestionID    string  `json:"questionId"`
	PromptID      *string `json:"promptId"`
	Section       Section `json:"section"`
	UserAnswer    *string `json:"userAnswer"`
	CorrectAnswer string  `json:"correctAnswer"`
	IsCorrect     bool    `json:"isCorrect"`
	Explanation   string  `json:"explanation"`
}

// SimulationHistory is written once per submitted attempt and never updated.
type SimulationHistory struct {
	UUIDBase
	UserID  string                            `gorm:"type:varchar(64);not null;index:idx_sim_history_user_mode" json:"userId"`
	Mode    SimulationMode                    `gorm:"type:varchar(20);not null;index:idx_sim_history_user_mode" json:"mode"`
	Score   SectionScore                      `gorm:"embedded;embeddedPrefix:score_" json:"score"`
	Answers datatypes.JSONSlice[GradedAnswer] `gorm:"type:json" json:"answers,omitempty"`
}

func (SimulationHistory) TableName() string {
	return "toefl_simulation_histories"
}

type HistoryFilter struct {
	UserID string
	Mode   SimulationMode
}
