// Package calc содержит вычислительные ядра task'ов.
//
// Каждая операция (factorial, fibonacci, prime_check) реализует Kernel
// и регистрируется в Registry. Воркер получает ядро по имени операции
// и вызывает Execute.
//
// Ядра чистые: без общего состояния и без ввода-вывода, поэтому
// безопасны для параллельного вызова из любого числа горутин.
package calc
