package api

import (
	"net/http"
	"time"
)

// GetStats возвращает статистику по всем воркерам.
// GET /stats
func (h *Handler) GetStats(w http.ResponseWriter, _ *http.Request) {
	Success(w, h.tasks.SystemStats())
}

// Health сообщает, что сервер принимает запросы.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	Success(w, HealthResponse{
		Status:    "healthy",
		Timestamp: formatTime(time.Now()),
	})
}
