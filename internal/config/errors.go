package config

import "errors"

// ErrInvalidConfig — значение вне допустимого диапазона или нечитаемый источник.
var ErrInvalidConfig = errors.New("invalid config")
