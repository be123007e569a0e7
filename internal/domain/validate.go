package domain

import "fmt"

// Границы входных данных.
const (
	MinInput = 0
	MaxInput = 100000

	MaxFactorialInput  = 20
	MaxFibonacciInput  = 1000
	MinPrimeCheckInput = 2
)

// IsSupportedOperation проверяет, известна ли операция.
func IsSupportedOperation(op string) bool {
	switch op {
	case OperationFactorial, OperationFibonacci, OperationPrimeCheck:
		return true
	default:
		return false
	}
}

// Validate проверяет task перед отправкой воркеру.
//
// Правила:
//   - id и title не пустые
//   - data.type == "calculation"
//   - operation одна из factorial, fibonacci, prime_check
//   - input в [0, 100000]
//   - factorial: input <= 20, fibonacci: input <= 1000, prime_check: input >= 2
func Validate(t *Task) error {
	if t == nil {
		return fmt.Errorf("%w: task is nil", ErrInvalidTask)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTask)
	}
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	return ValidateData(t.Data)
}

// ValidateData проверяет только параметры вычисления.
func ValidateData(d TaskData) error {
	if d.Type != TaskTypeCalculation {
		return fmt.Errorf("%w: unsupported type %q, expected %q", ErrInvalidTask, d.Type, TaskTypeCalculation)
	}
	if !IsSupportedOperation(d.Operation) {
		return fmt.Errorf("%w: unsupported operation %q", ErrInvalidTask, d.Operation)
	}
	if d.Input < MinInput || d.Input > MaxInput {
		return fmt.Errorf("%w: input %d out of range [%d, %d]", ErrInvalidTask, d.Input, MinInput, MaxInput)
	}

	switch d.Operation {
	case OperationFactorial:
		if d.Input > MaxFactorialInput {
			return fmt.Errorf("%w: factorial input %d too large, maximum is %d", ErrInvalidTask, d.Input, MaxFactorialInput)
		}
	case OperationFibonacci:
		if d.Input > MaxFibonacciInput {
			return fmt.Errorf("%w: fibonacci input %d too large, maximum is %d", ErrInvalidTask, d.Input, MaxFibonacciInput)
		}
	case OperationPrimeCheck:
		if d.Input < MinPrimeCheckInput {
			return fmt.Errorf("%w: prime_check requires input >= %d", ErrInvalidTask, MinPrimeCheckInput)
		}
	}

	return nil
}
