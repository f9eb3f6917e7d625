package model

import "gorm.io/gorm"

// Prompt is a shared reading passage or listening recording.
type Prompt struct {
	UUIDBase
	Section       Section `gorm:"type:varchar(20);not null;index" json:"section"`
	Title         string  `gorm:"type:varchar(255)" json:"title"`
	Passage       string  `gorm:"type:text" json:"passage,omitempty"`
	PassageNumber *int    `json:"passageNumber,omitempty"`
	AudioURL      string  `gorm:"type:varchar(1024)" json:"audioUrl,omitempty"`
	Transcript    string  `gorm:"type:text" json:"transcript,omitempty"`
	Instruction   string  `gorm:"type:text" json:"instruction,omitempty"`
	// seconds, read from the audio file on import
	Duration float64 `json:"duration,omitempty"`
}

func (Prompt) TableName() string {
	return "toefl_prompts"
}

func (p *Prompt) AfterFind(tx *gorm.DB) error {
	if s, ok := ParseSection(string(p.Section)); ok {
		p.Section = s
	}
	return nil
}
