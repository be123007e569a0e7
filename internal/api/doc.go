// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go       — Handler с DI (TaskService, logger)
//   - routes.go        — регистрация маршрутов
//   - middleware.go    — middleware (recovery, request id, logging, metrics)
//   - response.go      — JSON-ответы и отображение ошибок в HTTP статусы
//   - dto.go           — Data Transfer Objects (request/response)
//   - task_handler.go  — обработчики для /task
//   - stats_handler.go — обработчики для /stats и /health
package api
