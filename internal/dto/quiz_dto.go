package dto

import "time"

// QuestionViewDTO is the student-facing projection of a question. Correct
// answers are never included here.
type QuestionViewDTO struct {
	Index   int      `json:"index"`
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
	Points  int      `json:"points"`
}

// QuizDetailDTO is used for displaying full quiz details to students.
type QuizDetailDTO struct {
	ID               uint              `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description,omitempty"`
	PassingScore     int               `json:"passing_score"`
	TimeLimitMinutes int               `json:"time_limit_minutes"`
	AttemptsAllowed  int               `json:"attempts_allowed"`
	IsRequired       bool              `json:"is_required"`
	Questions        []QuestionViewDTO `json:"questions,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// QuizSummaryDTO is used for listing quizzes available to students.
type QuizSummaryDTO struct {
	ID               uint      `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	PassingScore     int       `json:"passing_score"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	AttemptsAllowed  int       `json:"attempts_allowed"`
	IsRequired       bool      `json:"is_required"`
	QuestionCount    int       `json:"question_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// QuestionForQuizRequest is used when creating questions as part of a new quiz.
type QuestionForQuizRequest struct {
	Text    string   `json:"text" binding:"required"`
	Type    string   `json:"type" binding:"required,oneof=mcq true_false short_answer"`
	Options []string `json:"options"` // required for type="mcq"

	CorrectIndex *int    `json:"correct_index"` // required if type="mcq"
	CorrectBool  *bool   `json:"correct_bool"`  // required if type="true_false"
	CorrectText  *string `json:"correct_text"`  // required if type="short_answer"

	Points int `json:"points" binding:"required,min=1"`
}

type CreateQuizRequest struct {
	Title            string                   `json:"title" binding:"required"`
	Description      string                   `json:"description"`
	PassingScore     int                      `json:"passing_score" binding:"min=0,max=100"`
	TimeLimitMinutes int                      `json:"time_limit_minutes" binding:"min=0"`
	AttemptsAllowed  int                      `json:"attempts_allowed" binding:"min=-1"`
	IsRequired       bool                     `json:"is_required"`
	IsActive         *bool                    `json:"is_active"`
	Questions        []QuestionForQuizRequest `json:"questions" binding:"required,min=1,dive"`
}

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
