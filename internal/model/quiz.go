package model

import (
	"time"

	"gorm.io/gorm"
)

// Quiz is the authored quiz definition. The attempt engine treats it as
// read-only; grading never re-reads it once an attempt holds a snapshot.
type Quiz struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	Title            string         `json:"title" gorm:"not null"`
	Description      string         `json:"description,omitempty"`
	PassingScore     int            `json:"passing_score" gorm:"not null;default:70"` // minimum percentage for passed
	TimeLimitMinutes int            `json:"time_limit_minutes" gorm:"not null;default:0"`
	AttemptsAllowed  int            `json:"attempts_allowed" gorm:"not null;default:-1"` // -1 = unlimited
	IsRequired       bool           `json:"is_required" gorm:"not null;default:false"`
	IsActive         bool           `json:"is_active" gorm:"not null;default:true"`
	Questions        []Question     `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
