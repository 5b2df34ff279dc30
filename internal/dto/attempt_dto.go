package dto

import (
	"time"

	"github.com/ltkhang/quizcore/internal/model"
)

// StartAttemptRequest begins or resumes an attempt. Retake forces a fresh
// attempt even when a passed one exists, subject to the attempt ceiling.
type StartAttemptRequest struct {
	StudentID uint `json:"student_id" binding:"required"`
	Retake    bool `json:"retake"`
}

const (
	AttemptModeInProgress = "in_progress"
	AttemptModeReview     = "review"
)

// StartAttemptResponse is either a live attempt (Mode "in_progress") or a
// read-only review of a previously passed one (Mode "review").
type StartAttemptResponse struct {
	Mode     string            `json:"mode"`
	Resumed  bool              `json:"resumed,omitempty"`
	Attempt  *AttemptStateDTO  `json:"attempt,omitempty"`
	Review   *AttemptResultDTO `json:"review,omitempty"`
	Deadline *time.Time        `json:"deadline,omitempty"`
}

// AttemptStateDTO describes a live attempt without leaking correct answers or
// correctness of recorded answers.
type AttemptStateDTO struct {
	ID               uint              `json:"id"`
	QuizID           uint              `json:"quiz_id"`
	StudentID        uint              `json:"student_id"`
	Status           string            `json:"status"`
	StartedAt        time.Time         `json:"started_at"`
	TimeLimitMinutes int               `json:"time_limit_minutes"`
	Questions        []QuestionViewDTO `json:"questions"`
	AnsweredIndexes  []int             `json:"answered_indexes"`
}

type AnswerSubmissionDTO struct {
	QuestionIndex int               `json:"question_index" binding:"min=0"`
	Answer        model.AnswerValue `json:"answer" binding:"required"`
}

type RecordAnswersRequest struct {
	StudentID uint                  `json:"student_id" binding:"required"`
	Answers   []AnswerSubmissionDTO `json:"answers" binding:"required,min=1,dive"`
}

// AnswerUpsertResultDTO reports the outcome for one question index in a
// batched upsert. A rejected index never aborts the rest of the batch.
type AnswerUpsertResultDTO struct {
	QuestionIndex int    `json:"question_index"`
	Accepted      bool   `json:"accepted"`
	Error         string `json:"error,omitempty"`
}

type RecordAnswersResponse struct {
	AttemptID uint                    `json:"attempt_id"`
	Results   []AnswerUpsertResultDTO `json:"results"`
}

type SubmitAttemptRequest struct {
	StudentID uint `json:"student_id" binding:"required"`
	IsTimeout bool `json:"is_timeout"`
}

// GradedQuestionDTO is the per-question review line of a completed attempt.
// Correct answers are included because the attempt is sealed.
type GradedQuestionDTO struct {
	Index        int                `json:"index"`
	Text         string             `json:"text"`
	Type         string             `json:"type"`
	Options      []string           `json:"options,omitempty"`
	Points       int                `json:"points"`
	CorrectIndex *int               `json:"correct_index,omitempty"`
	CorrectBool  *bool              `json:"correct_bool,omitempty"`
	CorrectText  *string            `json:"correct_text,omitempty"`
	Answer       *model.AnswerValue `json:"answer,omitempty"`
	IsCorrect    bool               `json:"is_correct"`
	PointsEarned int                `json:"points_earned"`
}

// AttemptResultDTO is the graded result of a completed attempt, including the
// snapshot so callers can render a full review.
type AttemptResultDTO struct {
	ID               uint                `json:"id"`
	QuizID           uint                `json:"quiz_id"`
	StudentID        uint                `json:"student_id"`
	Status           string              `json:"status"`
	CompletionReason string              `json:"completion_reason"`
	Score            int                 `json:"score"`
	TotalPoints      int                 `json:"total_points"`
	Percentage       int                 `json:"percentage"`
	Passed           bool                `json:"passed"`
	TimeTakenSeconds int                 `json:"time_taken_seconds"`
	StartedAt        time.Time           `json:"started_at"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
	Questions        []GradedQuestionDTO `json:"questions"`
}

// AttemptSummaryDTO is for listing a student's attempts for a quiz.
type AttemptSummaryDTO struct {
	ID               uint       `json:"id"`
	QuizID           uint       `json:"quiz_id"`
	Status           string     `json:"status"`
	CompletionReason string     `json:"completion_reason,omitempty"`
	Score            int        `json:"score"`
	TotalPoints      int        `json:"total_points"`
	Percentage       int        `json:"percentage"`
	Passed           bool       `json:"passed"`
	TimeTakenSeconds int        `json:"time_taken_seconds"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}
