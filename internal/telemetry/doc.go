// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики и коллектор состояния воркеров
//
// Метрики отдаются на /metrics endpoint сервера.
package telemetry
