package calc

// Kernel — вычислительная операция.
type Kernel interface {
	// Name возвращает имя операции, совпадающее с TaskData.Operation.
	Name() string

	// Execute считает результат для input и возвращает его строкой.
	Execute(input int64) (string, error)
}
