// Package orchestrator распределяет task'и между воркерами.
//
// Orchestrator отвечает за:
//   - Валидацию task'ов до отправки воркеру
//   - Выбор воркера по кругу (round-robin)
//   - Поиск task по id среди всех воркеров
//   - Делегирование completion воркеру, которому принадлежит task
//   - Сбор статистики по всем воркерам
//
// Набор воркеров фиксируется при создании и дальше не меняется.
package orchestrator
