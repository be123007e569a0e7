package calc

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry — реестр ядер по имени операции.
// Потокобезопасен.
type Registry struct {
	mu      sync.RWMutex
	kernels map[string]Kernel
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		kernels: make(map[string]Kernel),
	}
}

// DefaultRegistry создаёт реестр со всеми стандартными операциями.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Factorial{})
	r.Register(Fibonacci{})
	r.Register(PrimeCheck{})
	return r
}

// Register регистрирует ядро. Ядро с тем же именем перезаписывается.
func (r *Registry) Register(k Kernel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kernels[k.Name()] = k
}

// Get возвращает ядро по имени операции.
// Возвращает ErrUnknownOperation, если операция не зарегистрирована.
func (r *Registry) Get(op string) (Kernel, error) {
	r.mu.RLock()
	k, ok := r.kernels[op]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnknownOperation, op, strings.Join(r.Operations(), ", "))
	}
	return k, nil
}

// Operations возвращает отсортированный список операций.
func (r *Registry) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]string, 0, len(r.kernels))
	for op := range r.kernels {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// Execute находит ядро и выполняет его.
func (r *Registry) Execute(op string, input int64) (string, error) {
	k, err := r.Get(op)
	if err != nil {
		return "", err
	}
	return k.Execute(input)
}
