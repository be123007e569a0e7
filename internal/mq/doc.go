// Package mq публикует события task'ов в RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, publisher confirms)
//   - topology.go   — обменник, очередь событий, временные очереди
//   - publisher.go  — публикация событий (реализует worker.Notifier)
//   - consumer.go   — чтение событий (CLI events)
//
// Обменник tasklane.tasks (topic), ключи маршрутизации совпадают с типом
// события: task.created, task.processed, task.failed, task.completed.
// Очередь tasklane.task_events получает все события по шаблону task.#.
//
// RabbitMQ не участвует в доставке task'ов воркерам: это только
// внешний журнал событий.
package mq
