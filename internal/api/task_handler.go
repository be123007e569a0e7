package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Tasklane/internal/domain"
	"github.com/shaiso/Tasklane/internal/telemetry"
)

// maxBodySize — ограничение размера тела запроса.
const maxBodySize = 1 << 20

// CreateTask создаёт task и отправляет его воркеру.
// POST /task/create
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&req); err != nil {
		InvalidInput(w, fmt.Errorf("malformed request body: %w", err))
		return
	}

	task, err := req.toDomain()
	if err != nil {
		InvalidInput(w, err)
		return
	}

	id, err := h.tasks.CreateTask(r.Context(), task)
	if HandleTaskError(w, telemetry.FromContext(r.Context()), task.ID, err) {
		return
	}

	Success(w, CreateTaskResponse{
		Message: "Task created successfully",
		TaskID:  id,
		Status:  string(domain.TaskStatusPending),
	})
}

// GetTask возвращает task по id.
// GET /task/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	task, err := h.tasks.GetTask(id)
	if HandleTaskError(w, telemetry.FromContext(r.Context()), id, err) {
		return
	}

	Success(w, TaskFromDomain(task))
}

// CompleteTask подтверждает task, посчитанный воркером.
// POST /task/{id}/complete
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	task, err := h.tasks.CompleteTask(r.Context(), id)
	if HandleTaskError(w, telemetry.FromContext(r.Context()), id, err) {
		return
	}

	Success(w, CompleteTaskResponse{
		Message: "Task marked as completed",
		TaskID:  task.ID,
		Status:  string(task.Status),
		Result:  task.Result,
	})
}

// toDomain собирает domain.Task из запроса.
// Пустой id заменяется на uuid, отсутствующий или неизвестный priority — на MEDIUM.
func (req CreateTaskRequest) toDomain() (*domain.Task, error) {
	if req.Data.Input == nil {
		return nil, errors.New("data.input is required")
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	priority := domain.PriorityMedium
	if req.Priority != nil {
		priority = domain.ParsePriority(*req.Priority)
	}

	return domain.NewTask(id, req.Title, priority, domain.TaskData{
		Type:      req.Data.Type,
		Operation: req.Data.Operation,
		Input:     *req.Data.Input,
	}), nil
}
