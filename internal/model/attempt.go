package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusCompleted  = "completed"
)

const (
	CompletionReasonManual  = "manual"
	CompletionReasonTimeout = "timeout"
)

// QuestionSnapshot is the frozen copy of one question taken at attempt start.
// All grading of the attempt uses these, never the live Question rows, so a
// quiz edit after start cannot alter an in-flight or historical score.
type QuestionSnapshot struct {
	Index        int      `json:"index"`
	Text         string   `json:"text"`
	Type         string   `json:"type"`
	Options      []string `json:"options,omitempty"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
	CorrectBool  *bool    `json:"correct_bool,omitempty"`
	CorrectText  *string  `json:"correct_text,omitempty"`
	Points       int      `json:"points"`
}

// NewQuestionSnapshot deep-copies a live question into its frozen form.
func NewQuestionSnapshot(q Question) (QuestionSnapshot, error) {
	snap := QuestionSnapshot{
		Index:  q.OrderInQuiz,
		Text:   q.Text,
		Type:   q.Type,
		Points: q.Points,
	}
	if len(q.Options) > 0 {
		if err := json.Unmarshal(q.Options, &snap.Options); err != nil {
			return QuestionSnapshot{}, fmt.Errorf("failed to decode options for question %d: %w", q.ID, err)
		}
	}
	if q.CorrectIndex != nil {
		v := *q.CorrectIndex
		snap.CorrectIndex = &v
	}
	if q.CorrectBool != nil {
		v := *q.CorrectBool
		snap.CorrectBool = &v
	}
	if q.CorrectText != nil {
		v := *q.CorrectText
		snap.CorrectText = &v
	}
	return snap, nil
}

// Attempt is one student's single pass at a quiz. It is created in_progress,
// mutated only through answer upserts, and sealed exactly once by a manual
// submit or a timeout. Completed attempts are immutable.
type Attempt struct {
	ID        uint `gorm:"primarykey" json:"id"`
	QuizID    uint `json:"quiz_id" gorm:"not null;index"`
	StudentID uint `json:"student_id" gorm:"not null;index"`

	Snapshot datatypes.JSON `json:"-" gorm:"type:jsonb;not null"` // []QuestionSnapshot
	Answers  datatypes.JSON `json:"-" gorm:"type:jsonb"`          // map[questionIndex]AnswerRecord

	StartedAt        time.Time  `json:"started_at" gorm:"not null"`
	Status           string     `json:"status" gorm:"not null;default:'in_progress';index"`
	CompletionReason string     `json:"completion_reason,omitempty"` // "manual" or "timeout", set when completed
	Score            int        `json:"score"`
	TotalPoints      int        `json:"total_points"`
	Percentage       int        `json:"percentage"`
	Passed           bool       `json:"passed"`
	TimeTakenSeconds int        `json:"time_taken_seconds"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// SnapshotQuestions decodes the frozen question list stored on the attempt.
func (a *Attempt) SnapshotQuestions() ([]QuestionSnapshot, error) {
	var snaps []QuestionSnapshot
	if len(a.Snapshot) == 0 {
		return snaps, nil
	}
	if err := json.Unmarshal(a.Snapshot, &snaps); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for attempt %d: %w", a.ID, err)
	}
	return snaps, nil
}

// AnswerMap decodes the recorded answers keyed by question index.
func (a *Attempt) AnswerMap() (map[int]AnswerRecord, error) {
	records := make(map[int]AnswerRecord)
	if len(a.Answers) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(a.Answers, &records); err != nil {
		return nil, fmt.Errorf("failed to decode answers for attempt %d: %w", a.ID, err)
	}
	return records, nil
}

// AttemptResult carries the graded outcome that Finalize applies with a
// conditional write. First writer wins; losers get the stored record back.
type AttemptResult struct {
	CompletionReason string
	Score            int
	TotalPoints      int
	Percentage       int
	Passed           bool
	TimeTakenSeconds int
	CompletedAt      time.Time
}
