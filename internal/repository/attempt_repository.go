package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ltkhang/quizcore/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository interface {
	// CreateIfAbsent returns the existing in_progress attempt for the pair if
	// one exists; otherwise it enforces the attempt ceiling and creates the
	// given attempt. The bool reports whether a new row was created.
	CreateIfAbsent(attempt *model.Attempt, attemptsAllowed int) (*model.Attempt, bool, error)
	FindByID(id uint) (*model.Attempt, error)
	FindInProgress(studentID, quizID uint) (*model.Attempt, error)
	// UpsertAnswer replaces the record for one question index under a row lock
	// and returns the refreshed attempt.
	UpsertAnswer(attemptID uint, questionIndex int, record model.AnswerRecord) (*model.Attempt, error)
	// Finalize applies the result with a conditional update keyed on
	// status = in_progress. The bool reports whether this caller won the
	// write; losers receive the stored record unchanged.
	Finalize(attemptID uint, result model.AttemptResult) (*model.Attempt, bool, error)
	ListByStudentAndQuiz(studentID, quizID uint) ([]model.Attempt, error)
	ListInProgressStartedBefore(cutoff time.Time) ([]model.Attempt, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) CreateIfAbsent(attempt *model.Attempt, attemptsAllowed int) (*model.Attempt, bool, error) {
	var out *model.Attempt
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Attempt
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_id = ? AND quiz_id = ? AND status = ?",
				attempt.StudentID, attempt.QuizID, model.AttemptStatusInProgress).
			First(&existing).Error
		if err == nil {
			out = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if attemptsAllowed >= 0 {
			var started int64
			if err := tx.Model(&model.Attempt{}).
				Where("student_id = ? AND quiz_id = ?", attempt.StudentID, attempt.QuizID).
				Count(&started).Error; err != nil {
				return err
			}
			if started >= int64(attemptsAllowed) {
				return model.ErrAttemptLimitExceeded
			}
		}

		if err := tx.Create(attempt).Error; err != nil {
			return err
		}
		out = attempt
		created = true
		return nil
	})
	if err != nil {
		// The partial unique index on (student_id, quiz_id) for in_progress
		// rows backstops concurrent creates; on a collision return the row
		// that won.
		if isUniqueViolation(err) {
			existing, findErr := r.FindInProgress(attempt.StudentID, attempt.QuizID)
			if findErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return out, created, nil
}

func (r *attemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.First(&attempt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindInProgress(studentID, quizID uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.
		Where("student_id = ? AND quiz_id = ? AND status = ?", studentID, quizID, model.AttemptStatusInProgress).
		First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) UpsertAnswer(attemptID uint, questionIndex int, record model.AnswerRecord) (*model.Attempt, error) {
	var out *model.Attempt

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var attempt model.Attempt
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&attempt, attemptID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ErrAttemptNotFound
		}
		if err != nil {
			return err
		}
		if attempt.Status != model.AttemptStatusInProgress {
			return model.ErrAttemptCompleted
		}

		records, err := attempt.AnswerMap()
		if err != nil {
			return err
		}
		records[questionIndex] = record

		raw, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("failed to encode answers for attempt %d: %w", attemptID, err)
		}
		if err := tx.Model(&attempt).Update("answers", datatypes.JSON(raw)).Error; err != nil {
			return err
		}
		attempt.Answers = datatypes.JSON(raw)
		out = &attempt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *attemptRepository) Finalize(attemptID uint, result model.AttemptResult) (*model.Attempt, bool, error) {
	res := r.db.Model(&model.Attempt{}).
		Where("id = ? AND status = ?", attemptID, model.AttemptStatusInProgress).
		Updates(map[string]interface{}{
			"status":             model.AttemptStatusCompleted,
			"completion_reason":  result.CompletionReason,
			"score":              result.Score,
			"total_points":       result.TotalPoints,
			"percentage":         result.Percentage,
			"passed":             result.Passed,
			"time_taken_seconds": result.TimeTakenSeconds,
			"completed_at":       result.CompletedAt,
		})
	if res.Error != nil {
		return nil, false, res.Error
	}

	attempt, err := r.FindByID(attemptID)
	if err != nil {
		return nil, false, err
	}
	return attempt, res.RowsAffected == 1, nil
}

func (r *attemptRepository) ListByStudentAndQuiz(studentID, quizID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Order("started_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) ListInProgressStartedBefore(cutoff time.Time) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.
		Where("status = ? AND started_at < ?", model.AttemptStatusInProgress, cutoff).
		Find(&attempts).Error
	return attempts, err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key value")
}
