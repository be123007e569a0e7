package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/Tasklane/internal/domain"
	"github.com/shaiso/Tasklane/internal/orchestrator"
	"github.com/shaiso/Tasklane/internal/worker"
)

// Сообщения об ошибках, которые видит клиент.
const (
	msgTaskNotFound       = "Task not found"
	msgCannotComplete     = "Task cannot be completed"
	msgInvalidInputPrefix = "Invalid input: "
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CompletionErrorResponse — отказ в completion с текущим статусом task.
type CompletionErrorResponse struct {
	Error         string `json:"error"`
	TaskID        string `json:"task_id"`
	CurrentStatus string `json:"current_status"`
	Reason        string `json:"reason"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет ответ 200.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// InvalidInput отправляет ошибку 400 с префиксом "Invalid input: ".
func InvalidInput(w http.ResponseWriter, err error) {
	BadRequest(w, msgInvalidInputPrefix+err.Error())
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// Conflict отправляет ошибку 409.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message)
}

// Unavailable отправляет ошибку 503.
func Unavailable(w http.ResponseWriter, message string) {
	Error(w, http.StatusServiceUnavailable, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "Internal server error")
}

// HandleTaskError преобразует ошибку оркестратора или воркера в HTTP ответ.
// Возвращает false, если err == nil.
func HandleTaskError(w http.ResponseWriter, logger *slog.Logger, taskID string, err error) bool {
	if err == nil {
		return false
	}

	var te *domain.TransitionError
	switch {
	case errors.Is(err, domain.ErrInvalidTask):
		InvalidInput(w, err)
	case errors.Is(err, orchestrator.ErrTaskNotFound), errors.Is(err, worker.ErrTaskNotFound):
		NotFound(w, msgTaskNotFound)
	case errors.Is(err, orchestrator.ErrTaskExists), errors.Is(err, worker.ErrTaskExists):
		Conflict(w, "Task already exists: "+taskID)
	case errors.As(err, &te):
		JSON(w, http.StatusBadRequest, CompletionErrorResponse{
			Error:         msgCannotComplete,
			TaskID:        taskID,
			CurrentStatus: string(te.Current),
			Reason:        domain.ReasonNotCompletable,
		})
	case errors.Is(err, worker.ErrTaskAbandoned):
		JSON(w, http.StatusBadRequest, CompletionErrorResponse{
			Error:         msgCannotComplete,
			TaskID:        taskID,
			CurrentStatus: string(domain.TaskStatusFailed),
			Reason:        domain.ReasonNotCompletable,
		})
	case errors.Is(err, orchestrator.ErrOrchestratorStopped), errors.Is(err, worker.ErrWorkerNotRunning):
		Unavailable(w, "Service is shutting down")
	default:
		InternalError(w, logger, err)
	}
	return true
}
