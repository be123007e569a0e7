package api

import (
	"net/http"
)

// Маршруты API. Используются и как метка route в метриках.
const (
	RouteCreateTask   = "POST /task/create"
	RouteGetTask      = "GET /task/{id}"
	RouteCompleteTask = "POST /task/{id}/complete"
	RouteStats        = "GET /stats"
	RouteHealth       = "GET /health"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		RequestID(h.logger),
		Logging(h.logger),
	)

	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, chain(Metrics(pattern)(fn)))
	}

	// Tasks
	route(RouteCreateTask, h.CreateTask)
	route(RouteGetTask, h.GetTask)
	route(RouteCompleteTask, h.CompleteTask)

	// System
	route(RouteStats, h.GetStats)
	route(RouteHealth, h.Health)
}
