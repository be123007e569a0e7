package domain

import (
	"errors"
	"fmt"
)

// Ошибки доменной модели.
var (
	// ErrInvalidTask — task не прошёл валидацию.
	ErrInvalidTask = errors.New("invalid task")

	// ErrInvalidTransition — недопустимый переход статуса.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ReasonNotCompletable — причина отказа в completion для API.
const ReasonNotCompletable = "Task must be in processing state with result to be completed"

// TransitionError — попытка перевести task в недопустимый статус.
// Содержит текущий статус, чтобы API мог вернуть его клиенту.
type TransitionError struct {
	TaskID    string
	Current   TaskStatus
	Requested TaskStatus
	Reason    string
}

func newTransitionError(t *Task, requested TaskStatus, reason string) *TransitionError {
	return &TransitionError{
		TaskID:    t.ID,
		Current:   t.Status,
		Requested: requested,
		Reason:    reason,
	}
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("task %s: cannot move from %s to %s: %s", e.TaskID, e.Current, e.Requested, e.Reason)
}

// Is позволяет сравнивать через errors.Is(err, ErrInvalidTransition).
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
