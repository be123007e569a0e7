package orchestrator

import (
	"fmt"

	"github.com/shaiso/Tasklane/internal/domain"
)

// validateTaskInput повторяет проверку входных данных на уровне оркестратора.
// Task, не прошедший её, не попадает ни к одному воркеру.
func validateTaskInput(data domain.TaskData) error {
	if data.Type != domain.TaskTypeCalculation {
		return fmt.Errorf("%w: unsupported type %q", domain.ErrInvalidTask, data.Type)
	}

	in := data.Input
	if in < domain.MinInput || in > domain.MaxInput {
		return fmt.Errorf("%w: input %d out of range", domain.ErrInvalidTask, in)
	}

	switch data.Operation {
	case domain.OperationFactorial:
		if in > domain.MaxFactorialInput {
			return fmt.Errorf("%w: factorial input %d exceeds %d", domain.ErrInvalidTask, in, domain.MaxFactorialInput)
		}
	case domain.OperationFibonacci:
		if in > domain.MaxFibonacciInput {
			return fmt.Errorf("%w: fibonacci input %d exceeds %d", domain.ErrInvalidTask, in, domain.MaxFibonacciInput)
		}
	case domain.OperationPrimeCheck:
		if in < domain.MinPrimeCheckInput {
			return fmt.Errorf("%w: prime_check input %d below %d", domain.ErrInvalidTask, in, domain.MinPrimeCheckInput)
		}
	default:
		return fmt.Errorf("%w: unsupported operation %q", domain.ErrInvalidTask, data.Operation)
	}

	return nil
}
