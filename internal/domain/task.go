package domain

import (
	"time"
)

// TaskTypeCalculation — единственный поддерживаемый тип task.
const TaskTypeCalculation = "calculation"

// Поддерживаемые операции.
const (
	OperationFactorial  = "factorial"
	OperationFibonacci  = "fibonacci"
	OperationPrimeCheck = "prime_check"
)

// TaskData — входные данные вычисления.
// Не меняется после того, как прикреплена к Task.
type TaskData struct {
	// Type — тип task, всегда "calculation".
	Type string `json:"type"`

	// Operation — имя операции: factorial, fibonacci, prime_check.
	Operation string `json:"operation"`

	// Input — аргумент операции.
	Input int64 `json:"input"`
}

// Task — единица работы, отправленная клиентом.
//
// Task создаётся Orchestrator'ом в статусе PENDING и передаётся ровно
// одному Worker'у, который дальше единолично меняет его состояние.
type Task struct {
	// ID — уникальный идентификатор task (задаётся клиентом).
	ID string `json:"id"`

	// Title — человекочитаемое название.
	Title string `json:"title"`

	// Priority — приоритет (1..3). Планировщиком не используется.
	Priority Priority `json:"priority"`

	// CreatedAt — время создания task.
	CreatedAt time.Time `json:"created_at"`

	// Data — параметры вычисления.
	Data TaskData `json:"data"`

	// Status — текущий статус task.
	Status TaskStatus `json:"status"`

	// Result — результат вычисления. Заполняется только при успехе.
	Result string `json:"result,omitempty"`

	// Error — текст ошибки. Заполняется только при неудаче.
	Error string `json:"error,omitempty"`

	// CompletedAt — время подтверждения через API.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewTask создаёт task в статусе PENDING.
func NewTask(id, title string, priority Priority, data TaskData) *Task {
	return &Task{
		ID:        id,
		Title:     title,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
		Data:      data,
		Status:    TaskStatusPending,
	}
}

// Clone возвращает независимую копию task.
func (t *Task) Clone() *Task {
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// HasResult возвращает true, если вычисление завершилось успешно.
func (t *Task) HasResult() bool {
	return t.Result != ""
}

// MarkProcessing переводит task из PENDING в PROCESSING.
func (t *Task) MarkProcessing() error {
	if t.Status != TaskStatusPending {
		return newTransitionError(t, TaskStatusProcessing, "task must be pending to start processing")
	}
	t.Status = TaskStatusProcessing
	return nil
}

// SetResult сохраняет результат вычисления. Статус остаётся PROCESSING:
// наличие результата — сигнал, что вычисление закончено.
func (t *Task) SetResult(result string) error {
	if t.Status != TaskStatusProcessing {
		return newTransitionError(t, TaskStatusProcessing, "result can only be stored while processing")
	}
	t.Result = result
	return nil
}

// MarkFailed переводит task в FAILED с ошибкой.
func (t *Task) MarkFailed(errMsg string) error {
	if !t.Status.CanTransitionTo(TaskStatusFailed) {
		return newTransitionError(t, TaskStatusFailed, "task is already finished")
	}
	t.Status = TaskStatusFailed
	t.Error = errMsg
	return nil
}

// MarkCompleted переводит task в COMPLETED.
// Единственный допустимый путь: PROCESSING с непустым результатом.
func (t *Task) MarkCompleted(now time.Time) error {
	if t.Status != TaskStatusProcessing || !t.HasResult() {
		return newTransitionError(t, TaskStatusCompleted, ReasonNotCompletable)
	}
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	return nil
}

// Less сравнивает task по приоритету (выше — раньше), затем по времени создания.
//
// Очередь воркера этот порядок не использует.
func Less(a, b *Task) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
