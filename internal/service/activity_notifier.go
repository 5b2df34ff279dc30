package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ActivityQuizStarted = "started"
	ActivityQuizPassed  = "passed"
	ActivityQuizFailed  = "failed"
)

// ActivityEvent is the fire-and-forget record emitted on attempt lifecycle
// transitions. Consumers (activity feeds, analytics) read these off the queue.
type ActivityEvent struct {
	EventID   string    `json:"event_id"`
	StudentID uint      `json:"student_id"`
	QuizID    uint      `json:"quiz_id"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

func NewActivityEvent(studentID, quizID uint, event string, at time.Time) ActivityEvent {
	return ActivityEvent{
		EventID:   uuid.NewString(),
		StudentID: studentID,
		QuizID:    quizID,
		Event:     event,
		Timestamp: at,
	}
}

// ActivityNotifier delivers events best-effort. A failed Notify must never
// roll back or block an attempt state transition; callers log and move on.
type ActivityNotifier interface {
	Notify(ctx context.Context, event ActivityEvent) error
}

// QueuePublisher is the slice of the messaging client the notifier needs.
type QueuePublisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

type rabbitActivityNotifier struct {
	publisher QueuePublisher
	queue     string
}

func NewRabbitActivityNotifier(publisher QueuePublisher, queue string) ActivityNotifier {
	return &rabbitActivityNotifier{publisher: publisher, queue: queue}
}

func (n *rabbitActivityNotifier) Notify(ctx context.Context, event ActivityEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}
	return n.publisher.Publish(ctx, n.queue, body)
}

// NopActivityNotifier drops all events. Used when no broker is configured.
type NopActivityNotifier struct{}

func (NopActivityNotifier) Notify(ctx context.Context, event ActivityEvent) error {
	return nil
}
