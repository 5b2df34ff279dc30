package service

import (
	"time"

	"github.com/ltkhang/quizcore/internal/model"
)

// Clock abstracts time.Now so expiry can be tested with simulated time.
type Clock func() time.Time

// TimerPolicy decides deadlines and expiry. The server clock is the sole
// authority; client countdowns are advisory and never an input to scoring.
type TimerPolicy interface {
	Deadline(attempt *model.Attempt, timeLimitMinutes int) *time.Time
	IsExpired(attempt *model.Attempt, timeLimitMinutes int) bool
	Now() time.Time
}

type timerPolicy struct {
	clock Clock
}

func NewTimerPolicy(clock Clock) TimerPolicy {
	if clock == nil {
		clock = time.Now
	}
	return &timerPolicy{clock: clock}
}

func (t *timerPolicy) Now() time.Time {
	return t.clock()
}

func (t *timerPolicy) Deadline(attempt *model.Attempt, timeLimitMinutes int) *time.Time {
	if timeLimitMinutes <= 0 {
		return nil
	}
	deadline := attempt.StartedAt.Add(time.Duration(timeLimitMinutes) * time.Minute)
	return &deadline
}

func (t *timerPolicy) IsExpired(attempt *model.Attempt, timeLimitMinutes int) bool {
	if attempt.Status != model.AttemptStatusInProgress {
		return false
	}
	deadline := t.Deadline(attempt, timeLimitMinutes)
	if deadline == nil {
		return false
	}
	return !t.clock().Before(*deadline)
}
