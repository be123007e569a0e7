package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/Tasklane/internal/domain"
)

// TaskService — операции над task'ами, нужные API.
// Реализуется orchestrator.Orchestrator.
type TaskService interface {
	CreateTask(ctx context.Context, task *domain.Task) (string, error)
	GetTask(id string) (*domain.Task, error)
	CompleteTask(ctx context.Context, id string) (*domain.Task, error)
	SystemStats() domain.SystemStats
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	tasks  TaskService
	logger *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Tasks  TaskService
	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		tasks:  cfg.Tasks,
		logger: logger,
	}
}
