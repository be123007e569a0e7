// Package worker реализует Worker — исполнителя calculation task'ов.
//
// Каждый Worker владеет:
//   - хранилищем task'ов (go-memdb, таблица tasks)
//   - неограниченной FIFO-очередью
//   - фиксированным пулом горутин, выполняющих task'и
//   - счётчиками статистики
//
// Жизненный цикл task внутри воркера:
//
//	AddTask → PENDING → (пул) PROCESSING → результат (статус не меняется)
//	                                    ↘ ошибка → FAILED
//	CompleteTask: PROCESSING + результат → COMPLETED
//
// Воркер никогда не переводит task в COMPLETED сам: только через CompleteTask.
// Очередь и хранилище независимы: task попадает в хранилище до того,
// как встаёт в очередь, и остаётся там после обработки.
package worker
