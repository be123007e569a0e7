package domain

// TaskStatus — статус выполнения task.
//
// Жизненный цикл:
//
//	PENDING → PROCESSING → COMPLETED
//	                     ↘ FAILED
//
// PROCESSING с заполненным Result означает, что вычисление завершено
// и task ждёт явного вызова completion. Переходов назад нет.
type TaskStatus string

const (
	// TaskStatusPending — task в очереди воркера, ожидает выполнения.
	TaskStatusPending TaskStatus = "pending"

	// TaskStatusProcessing — task взят в работу или уже посчитан,
	// но ещё не подтверждён через API.
	TaskStatusProcessing TaskStatus = "processing"

	// TaskStatusCompleted — task подтверждён через API.
	TaskStatusCompleted TaskStatus = "completed"

	// TaskStatusFailed — вычисление завершилось ошибкой.
	TaskStatusFailed TaskStatus = "failed"
)

// String возвращает строковое представление TaskStatus.
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal возвращает true, если статус финальный.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// rank — порядковый номер статуса в жизненном цикле.
// COMPLETED и FAILED делят один ранг: оба терминальные.
func (s TaskStatus) rank() int {
	switch s {
	case TaskStatusPending:
		return 0
	case TaskStatusProcessing:
		return 1
	case TaskStatusCompleted, TaskStatusFailed:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo проверяет, допустим ли переход из s в next.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if s.IsTerminal() {
		return false
	}
	return next.rank() > s.rank()
}

// Priority — приоритет task.
//
// Хранится и отдаётся через API, но диспетчеризация его не учитывает:
// очередь воркера строго FIFO.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// ParsePriority конвертирует число из API в Priority.
// Значения вне диапазона 1..3 превращаются в MEDIUM.
func ParsePriority(v int) Priority {
	switch Priority(v) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(v)
	default:
		return PriorityMedium
	}
}

// String возвращает имя приоритета.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return "medium"
	}
}
