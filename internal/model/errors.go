package model

import "errors"

// Engine error taxonomy. "Already completed" on submit is deliberately absent:
// it is not an error, the stored result is returned instead.
var (
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrQuizInactive         = errors.New("quiz is not active")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	ErrUnauthorized         = errors.New("attempt does not belong to this student")
	ErrAttemptCompleted     = errors.New("attempt is already completed")
	ErrInvalidAnswerType    = errors.New("answer type does not match question type")
)
