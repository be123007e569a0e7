package repo

import "errors"

var (
	// ErrNoDSN — строка подключения не задана.
	ErrNoDSN = errors.New("database url is empty")

	// ErrInvalidEvent — событие нельзя записать в журнал.
	ErrInvalidEvent = errors.New("invalid event")
)
