package worker

import "errors"

// Ошибки воркера.
var (
	// ErrTaskNotFound — task с таким id у воркера нет.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskExists — task с таким id уже принят воркером.
	ErrTaskExists = errors.New("task already exists")

	// ErrWorkerNotRunning — воркер не запущен или уже остановлен.
	ErrWorkerNotRunning = errors.New("worker is not running")

	// ErrTaskAbandoned — task остался в PROCESSING без результата, но с ошибкой.
	// При попытке completion такой task переводится в FAILED.
	ErrTaskAbandoned = errors.New("task abandoned without result")
)
