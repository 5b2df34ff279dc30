package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuestionTypeMCQ         = "mcq"
	QuestionTypeTrueFalse   = "true_false"
	QuestionTypeShortAnswer = "short_answer"
)

type Question struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	QuizID      uint           `json:"quiz_id" gorm:"not null;index"`
	OrderInQuiz int            `json:"order_in_quiz" gorm:"not null"` // stable position within the quiz
	Text        string         `json:"text" gorm:"type:text;not null"`
	Type        string         `json:"type" gorm:"not null"` // "mcq", "true_false", "short_answer"
	Options     datatypes.JSON `json:"options,omitempty"`    // ordered []string, mcq only

	// Exactly one of these is set, matching Type.
	CorrectIndex *int    `json:"correct_index,omitempty"`
	CorrectBool  *bool   `json:"correct_bool,omitempty"`
	CorrectText  *string `json:"correct_text,omitempty"`

	Points    int            `json:"points" gorm:"not null;default:1"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
