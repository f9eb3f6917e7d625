package model

import (
	"time"

	"gorm.io/datatypes"
)

// SimulationSession marks an in-progress attempt. The client owns the timer and answers,
// the stored copy is advisory.
type SimulationSession struct {
	UUIDBase
	UserID          string            `gorm:"type:varchar(64);not null;uniqueIndex:idx_sim_session_user_mode" json:"userId"`
	Mode            SimulationMode    `gorm:"type:varchar(20);not null;uniqueIndex:idx_sim_session_user_mode" json:"mode"`
	CurrentQuestion int               `gorm:"default:0" json:"currentQuestion"`
	Answers         datatypes.JSONMap `gorm:"type:json" json:"answers"`
	ExpiresAt       time.Time         `gorm:"index" json:"expiresAt"`
}

func (SimulationSession) TableName() string {
	return "toefl_simulation_sessions"
}

func (s *SimulationSession) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
