package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// TaskData — параметры вычисления.
type TaskData struct {
	Type      string `json:"type"`
	Operation string `json:"operation"`
	Input     int64  `json:"input"`
}

// TaskResponse — task из API.
type TaskResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Priority    int      `json:"priority"`
	CreatedAt   string   `json:"created_at"`
	Data        TaskData `json:"data"`
	Status      string   `json:"status"`
	Result      string   `json:"result,omitempty"`
	Error       string   `json:"error,omitempty"`
	CompletedAt string   `json:"completed_at,omitempty"`
}

// Finished сообщает, что вычисление завершилось: результат готов или task провален.
func (t *TaskResponse) Finished() bool {
	return t.Result != "" || t.Status == StatusFailed || t.Status == StatusCompleted
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

// WorkerStats — статистика воркера.
type WorkerStats struct {
	WorkerID       int    `json:"worker_id"`
	TasksProcessed uint64 `json:"tasks_processed"`
	TasksCompleted uint64 `json:"tasks_completed"`
	TasksFailed    uint64 `json:"tasks_failed"`
	CurrentLoad    int    `json:"current_load"`
	UptimeSeconds  uint64 `json:"uptime_seconds"`
	IsHealthy      bool   `json:"is_healthy"`
}

// StatsResponse — статистика системы.
type StatsResponse struct {
	TotalTasksProcessed uint64        `json:"total_tasks_processed"`
	TotalTasksCompleted uint64        `json:"total_tasks_completed"`
	TotalTasksFailed    uint64        `json:"total_tasks_failed"`
	TotalWorkers        int           `json:"total_workers"`
	UptimeSeconds       uint64        `json:"uptime_seconds"`
	Workers             []WorkerStats `json:"workers"`
}

// HealthResponse — ответ /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Статусы task'ов.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// --- Request types ---

// CreateTaskRequest — создание task. Пустой ID генерирует сервер.
type CreateTaskRequest struct {
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title"`
	Priority int      `json:"priority,omitempty"`
	Data     TaskData `json:"data"`
}

// --- Errors ---

// ErrNotFound — сервер ответил 404.
var ErrNotFound = errors.New("not found")

// APIError — ошибка, которую вернул сервер.
type APIError struct {
	StatusCode    int    `json:"-"`
	Message       string `json:"error"`
	TaskID        string `json:"task_id,omitempty"`
	CurrentStatus string `json:"current_status,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	if e.CurrentStatus != "" {
		msg += fmt.Sprintf(" (status %s: %s)", e.CurrentStatus, e.Reason)
	}
	return msg
}

// Is позволяет проверять 404 через errors.Is(err, ErrNotFound).
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// --- Client ---

// Client — HTTP-клиент для Tasklane API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Tasks ---

// CreateTask отправляет новый task.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*CreateTaskResponse, error) {
	var resp CreateTaskResponse
	err := c.post(ctx, "/task/create", req, &resp)
	return &resp, err
}

// GetTask возвращает task по ID.
func (c *Client) GetTask(ctx context.Context, id string) (*TaskResponse, error) {
	var task TaskResponse
	err := c.get(ctx, "/task/"+url.PathEscape(id), &task)
	return &task, err
}

// CompleteTask подтверждает task.
func (c *Client) CompleteTask(ctx context.Context, id string) (*CompleteTaskResponse, error) {
	var resp CompleteTaskResponse
	err := c.post(ctx, "/task/"+url.PathEscape(id)+"/complete", nil, &resp)
	return &resp, err
}

// WaitTask опрашивает task, пока вычисление не завершится.
func (c *Client) WaitTask(ctx context.Context, id string, interval time.Duration) (*TaskResponse, error) {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		task, err := c.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if task.Finished() {
			return task, nil
		}

		select {
		case <-ctx.Done():
			return task, fmt.Errorf("wait task %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

// --- System ---

// Stats возвращает статистику системы.
func (c *Client) Stats(ctx context.Context) (*StatsResponse, error) {
	var stats StatsResponse
	err := c.get(ctx, "/stats", &stats)
	return &stats, err
}

// Health проверяет доступность сервера.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	err := c.get(ctx, "/health", &health)
	return &health, err
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
