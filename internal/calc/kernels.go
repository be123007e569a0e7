package calc

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/shaiso/Tasklane/internal/domain"
)

// Factorial считает n! для n в [0, 20].
type Factorial struct{}

func (Factorial) Name() string { return domain.OperationFactorial }

func (Factorial) Execute(n int64) (string, error) {
	if n < 0 || n > domain.MaxFactorialInput {
		return "", fmt.Errorf("%w: factorial requires 0 <= n <= %d, got %d", ErrInvalidInput, domain.MaxFactorialInput, n)
	}
	result := big.NewInt(1)
	result.MulRange(1, n)
	return result.String(), nil
}

// Fibonacci считает F(n) для n в [0, 1000], F(0)=0, F(1)=1.
type Fibonacci struct{}

func (Fibonacci) Name() string { return domain.OperationFibonacci }

func (Fibonacci) Execute(n int64) (string, error) {
	if n < 0 || n > domain.MaxFibonacciInput {
		return "", fmt.Errorf("%w: fibonacci requires 0 <= n <= %d, got %d", ErrInvalidInput, domain.MaxFibonacciInput, n)
	}
	a, b := big.NewInt(0), big.NewInt(1)
	for i := int64(0); i < n; i++ {
		a.Add(a, b)
		a, b = b, a
	}
	return a.String(), nil
}

// PrimeCheck проверяет n на простоту. n >= 2.
type PrimeCheck struct{}

func (PrimeCheck) Name() string { return domain.OperationPrimeCheck }

func (PrimeCheck) Execute(n int64) (string, error) {
	if n < domain.MinPrimeCheckInput {
		return "", fmt.Errorf("%w: prime_check requires n >= %d, got %d", ErrInvalidInput, domain.MinPrimeCheckInput, n)
	}
	return strconv.FormatBool(isPrime(n)), nil
}

// isPrime — пробное деление по 6k±1.
func isPrime(n int64) bool {
	if n < 2 {
		return false
	}
	if n < 4 {
		return true
	}
	if n%2 == 0 || n%3 == 0 {
		return false
	}
	for i := int64(5); i*i <= n; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}
