package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType — тип события жизненного цикла task.
type EventType string

// Типы событий.
const (
	EventTaskCreated   EventType = "task.created"
	EventTaskProcessed EventType = "task.processed"
	EventTaskFailed    EventType = "task.failed"
	EventTaskCompleted EventType = "task.completed"
)

// TaskEvent — событие, которое воркер отправляет во внешние sink'и
// (RabbitMQ, журнал в Postgres). На состояние task не влияет.
type TaskEvent struct {
	ID        uuid.UUID  `json:"id"`
	Type      EventType  `json:"type"`
	TaskID    string     `json:"task_id"`
	WorkerID  int        `json:"worker_id"`
	Status    TaskStatus `json:"status"`
	Operation string     `json:"operation"`
	Input     int64      `json:"input"`
	Result    string     `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewTaskEvent создаёт событие по текущему состоянию task.
func NewTaskEvent(typ EventType, workerID int, t *Task) TaskEvent {
	return TaskEvent{
		ID:        uuid.New(),
		Type:      typ,
		TaskID:    t.ID,
		WorkerID:  workerID,
		Status:    t.Status,
		Operation: t.Data.Operation,
		Input:     t.Data.Input,
		Result:    t.Result,
		Error:     t.Error,
		Timestamp: time.Now().UTC(),
	}
}
