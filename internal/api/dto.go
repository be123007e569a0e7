package api

import (
	"time"

	"github.com/shaiso/Tasklane/internal/domain"
)

// timeFormat — формат времени в ответах (UTC, секунды).
const timeFormat = "2006-01-02T15:04:05Z"

// Task DTOs

// TaskDataRequest — параметры вычисления в запросе.
type TaskDataRequest struct {
	Type      string `json:"type"`
	Operation string `json:"operation"`
	Input     *int64 `json:"input"`
}

// CreateTaskRequest — запрос на создание task.
type CreateTaskRequest struct {
	ID       string          `json:"id,omitempty"`
	Title    string          `json:"title"`
	Priority *int            `json:"priority,omitempty"`
	Data     TaskDataRequest `json:"data"`
}

// CreateTaskResponse — ответ на создание task.
type CreateTaskResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
}

// CompleteTaskResponse — ответ на completion.
type CompleteTaskResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Result  string `json:"result"`
}

// TaskDataResponse — параметры вычисления в ответе.
type TaskDataResponse struct {
	Type      string `json:"type"`
	Input     int64  `json:"input"`
	Operation string `json:"operation"`
}

// TaskResponse — ответ с task.
type TaskResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Priority    int              `json:"priority"`
	CreatedAt   string           `json:"created_at"`
	Data        TaskDataResponse `json:"data"`
	Status      string           `json:"status"`
	Result      string           `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	CompletedAt string           `json:"completed_at,omitempty"`
}

// TaskFromDomain конвертирует domain.Task в TaskResponse.
func TaskFromDomain(t *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Priority:  int(t.Priority),
		CreatedAt: formatTime(t.CreatedAt),
		Data: TaskDataResponse{
			Type:      t.Data.Type,
			Input:     t.Data.Input,
			Operation: t.Data.Operation,
		},
		Status: string(t.Status),
		Result: t.Result,
		Error:  t.Error,
	}
	if t.CompletedAt != nil {
		resp.CompletedAt = formatTime(*t.CompletedAt)
	}
	return resp
}

// HealthResponse — ответ /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}
