package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrNoWorkers — конфигурация без воркеров. Фатальная ошибка запуска.
	ErrNoWorkers = errors.New("at least one worker is required")

	// ErrTaskNotFound — task не найден ни у одного воркера.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskExists — task с таким id уже принят.
	ErrTaskExists = errors.New("task already exists")

	// ErrOrchestratorStopped — оркестратор не запущен или остановлен.
	ErrOrchestratorStopped = errors.New("orchestrator stopped")
)
