package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Операции для смешанной нагрузки, по кругу.
var mixedOperations = []string{"factorial", "fibonacci", "prime_check"}

// LoadOptions — параметры нагрузочного прогона.
type LoadOptions struct {
	// Count — количество task'ов.
	Count int

	// Concurrency — максимум одновременных запросов (default: 10).
	Concurrency int

	// Operation — операция; пустая строка чередует все операции.
	Operation string

	// Prefix — префикс id; пустой — id генерирует сервер.
	Prefix string

	// Wait — дождаться завершения вычислений и подтвердить task'и.
	Wait bool
}

// LoadReport — итог нагрузочного прогона.
type LoadReport struct {
	Submitted int            `json:"submitted"`
	Rejected  int            `json:"rejected"`
	Completed int            `json:"completed"`
	Failed    int            `json:"failed"`
	Duration  time.Duration  `json:"duration_ns"`
	Rate      float64        `json:"tasks_per_second"`
	Errors    map[string]int `json:"errors,omitempty"`
}

// loadTask строит i-й запрос прогона: приоритеты 1..3 по кругу, малые входы.
func loadTask(opts LoadOptions, i int) CreateTaskRequest {
	op := opts.Operation
	if op == "" {
		op = mixedOperations[i%len(mixedOperations)]
	}

	req := CreateTaskRequest{
		Title:    fmt.Sprintf("Load Test %d", i),
		Priority: i%3 + 1,
		Data: TaskData{
			Type:      "calculation",
			Operation: op,
			Input:     int64(3 + i%8),
		},
	}
	if opts.Prefix != "" {
		req.ID = fmt.Sprintf("%s-%03d", opts.Prefix, i)
	}
	return req
}

// RunLoad отправляет Count task'ов, не больше Concurrency одновременно.
// Ошибки отдельных запросов попадают в отчёт и не прерывают прогон.
func RunLoad(ctx context.Context, client *Client, opts LoadOptions) (*LoadReport, error) {
	if opts.Count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", opts.Count)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}

	var (
		mu     sync.Mutex
		report = &LoadReport{Errors: make(map[string]int)}
	)
	record := func(update func(r *LoadReport)) {
		mu.Lock()
		update(report)
		mu.Unlock()
	}

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i := 0; i < opts.Count; i++ {
		req := loadTask(opts, i)
		g.Go(func() error {
			created, err := client.CreateTask(gctx, req)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				record(func(r *LoadReport) { r.Rejected++; r.Errors[errorKey(err)]++ })
				return nil
			}
			record(func(r *LoadReport) { r.Submitted++ })

			if !opts.Wait {
				return nil
			}

			task, err := client.WaitTask(gctx, created.TaskID, 50*time.Millisecond)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				record(func(r *LoadReport) { r.Errors[errorKey(err)]++ })
				return nil
			}
			if task.Status == StatusFailed {
				record(func(r *LoadReport) { r.Failed++ })
				return nil
			}
			if _, err := client.CompleteTask(gctx, created.TaskID); err != nil {
				record(func(r *LoadReport) { r.Failed++; r.Errors[errorKey(err)]++ })
				return nil
			}
			record(func(r *LoadReport) { r.Completed++ })
			return nil
		})
	}

	err := g.Wait()

	report.Duration = time.Since(start)
	if secs := report.Duration.Seconds(); secs > 0 {
		report.Rate = float64(report.Submitted) / secs
	}
	if len(report.Errors) == 0 {
		report.Errors = nil
	}
	return report, err
}

func errorKey(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("HTTP %d", apiErr.StatusCode)
	}
	return "transport"
}
