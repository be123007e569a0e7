package calc

import "errors"

// Ошибки вычислений.
var (
	// ErrUnknownOperation — операция не зарегистрирована.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidInput — аргумент вне допустимого диапазона операции.
	ErrInvalidInput = errors.New("invalid input")
)
