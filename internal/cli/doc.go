// Package cli реализует клиент командной строки Tasklane.
//
// # Обзор
//
// CLI работает с сервером через HTTP. Пакет не импортирует api и
// orchestrator: типы ответов продублированы в client.go.
// Исключение: команда events читает RabbitMQ через internal/mq.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Tasklane API. Ответ с кодом >= 400 превращается в
// *APIError; 404 проверяется через errors.Is(err, ErrNotFound).
//
//	client := cli.NewClient("http://localhost:7000")
//	created, err := client.CreateTask(ctx, cli.CreateTaskRequest{...})
//	task, err := client.WaitTask(ctx, created.TaskID, 0)
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) в stderr.
// Это позволяет использовать pipe: tasklane-cli stats --json | jq .
//
// ## Commands
//
//   - task: create, get, complete, wait
//   - stats, health
//   - load: много task'ов с ограничением параллелизма (errgroup)
//   - events: события task'ов из RabbitMQ
//
// Фабрики команд принимают clientFn и outputFn, замыкания для ленивого
// создания Client и Output после парсинга PersistentFlags.
package cli
