package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shaiso/Tasklane/internal/calc"
	"github.com/shaiso/Tasklane/internal/domain"
	"github.com/shaiso/Tasklane/internal/telemetry"
	"github.com/shaiso/Tasklane/internal/worker"
)

// Orchestrator распределяет task'и по фиксированному набору воркеров.
//
// Orchestrator:
//   - Проверяет task перед отправкой
//   - Выбирает воркер по кругу: 0, 1, ..., N-1, 0, ...
//   - Находит task по id перебором воркеров
//   - Собирает статистику, суммируя снимки воркеров
//
// Приоритет task при выборе воркера не учитывается.
type Orchestrator struct {
	workers []*worker.Worker

	// next — счётчик round-robin. Единственное разделяемое состояние выбора.
	next atomic.Uint64

	// ids — id принятых task'ов, для отказа в дубликатах.
	ids sync.Map

	// Lifecycle
	logger    *slog.Logger
	startedAt time.Time
	running   bool
	runningMu sync.RWMutex
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Workers — количество воркеров (>= 1).
	Workers int

	// ThreadsPerWorker — размер пула горутин каждого воркера.
	ThreadsPerWorker int

	// Registry — вычислительные ядра (опционально; если nil — calc.DefaultRegistry()).
	Registry *calc.Registry

	// Notifier — получатель событий task'ов (опционально).
	Notifier worker.Notifier

	// Logger
	Logger *slog.Logger
}

// New создаёт Orchestrator и его воркеры.
// Возвращает ErrNoWorkers, если Workers < 1.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoWorkers, cfg.Workers)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = calc.DefaultRegistry()
	}

	workers := make([]*worker.Worker, 0, cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		w, err := worker.New(worker.Config{
			ID:       i,
			Threads:  cfg.ThreadsPerWorker,
			Registry: registry,
			Notifier: cfg.Notifier,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create worker %d: %w", i, err)
		}
		workers = append(workers, w)
	}

	return &Orchestrator{
		workers: workers,
		logger:  logger,
	}, nil
}

// Start запускает все воркеры.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.runningMu.Lock()
	defer o.runningMu.Unlock()

	if o.running {
		return nil
	}

	o.logger.Info("starting orchestrator", "workers", len(o.workers))

	for _, w := range o.workers {
		if err := w.Start(ctx); err != nil {
			for _, started := range o.workers {
				started.Stop()
			}
			return fmt.Errorf("start worker %d: %w", w.ID(), err)
		}
	}

	o.startedAt = time.Now()
	o.running = true

	o.logger.Info("orchestrator started")
	return nil
}

// Stop останавливает воркеры по очереди.
// Каждый воркер досчитывает task'и, уже взятые в работу.
func (o *Orchestrator) Stop() {
	o.runningMu.Lock()
	if !o.running {
		o.runningMu.Unlock()
		return
	}
	o.running = false
	o.runningMu.Unlock()

	o.logger.Info("stopping orchestrator...")

	for _, w := range o.workers {
		w.Stop()
	}

	o.logger.Info("orchestrator stopped")
}

// IsRunning проверяет, запущен ли Orchestrator.
func (o *Orchestrator) IsRunning() bool {
	o.runningMu.RLock()
	defer o.runningMu.RUnlock()
	return o.running
}

// Workers возвращает воркеры (только для чтения).
func (o *Orchestrator) Workers() []*worker.Worker {
	return o.workers
}

// CreateTask проверяет task и отправляет его воркеру.
// Возвращает id task.
func (o *Orchestrator) CreateTask(ctx context.Context, task *domain.Task) (string, error) {
	if err := domain.Validate(task); err != nil {
		telemetry.TasksRejected.WithLabelValues("invalid").Inc()
		return "", err
	}
	if err := validateTaskInput(task.Data); err != nil {
		telemetry.TasksRejected.WithLabelValues("invalid").Inc()
		return "", err
	}

	if _, loaded := o.ids.LoadOrStore(task.ID, struct{}{}); loaded {
		telemetry.TasksRejected.WithLabelValues("duplicate").Inc()
		return "", fmt.Errorf("%w: %s", ErrTaskExists, task.ID)
	}

	workerID, err := o.DistributeTask(ctx, task)
	if err != nil {
		o.ids.Delete(task.ID)
		telemetry.TasksRejected.WithLabelValues("dispatch").Inc()
		return "", err
	}

	telemetry.TasksCreated.Inc()
	o.logger.Info("task created",
		"task_id", task.ID,
		"worker_id", workerID,
		"operation", task.Data.Operation,
		"input", task.Data.Input,
	)
	return task.ID, nil
}

// DistributeTask отправляет task следующему по кругу воркеру.
// Возвращает номер выбранного воркера.
func (o *Orchestrator) DistributeTask(ctx context.Context, task *domain.Task) (int, error) {
	if !o.IsRunning() {
		return -1, ErrOrchestratorStopped
	}

	idx := o.selectWorker()
	w := o.workers[idx]

	if err := w.AddTask(ctx, task); err != nil {
		if errors.Is(err, worker.ErrTaskExists) {
			return idx, fmt.Errorf("%w: %s", ErrTaskExists, task.ID)
		}
		return idx, fmt.Errorf("dispatch to worker %d: %w", idx, err)
	}
	return idx, nil
}

// selectWorker возвращает индекс следующего воркера.
// Последовательные вызовы проходят 0..N-1 по кругу.
func (o *Orchestrator) selectWorker() int {
	n := o.next.Add(1) - 1
	return int(n % uint64(len(o.workers)))
}

// GetTask ищет task у всех воркеров.
func (o *Orchestrator) GetTask(id string) (*domain.Task, error) {
	for _, w := range o.workers {
		task, err := w.GetTask(id)
		if err == nil {
			return task, nil
		}
		if !errors.Is(err, worker.ErrTaskNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

// CompleteTask находит воркер с task и подтверждает task у него.
//
// Ошибки воркера (*domain.TransitionError, worker.ErrTaskAbandoned)
// возвращаются без изменений.
func (o *Orchestrator) CompleteTask(ctx context.Context, id string) (*domain.Task, error) {
	for _, w := range o.workers {
		if !w.HasTask(id) {
			continue
		}
		task, err := w.CompleteTask(ctx, id)
		if err != nil {
			return task, err
		}
		o.logger.Info("task confirmed", "task_id", id, "worker_id", w.ID())
		return task, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

// SystemStats суммирует статистику воркеров на момент вызова.
func (o *Orchestrator) SystemStats() domain.SystemStats {
	workers := make([]domain.WorkerStats, 0, len(o.workers))
	for _, w := range o.workers {
		workers = append(workers, w.Stats())
	}
	return domain.Aggregate(workers, o.uptime())
}

// TaskCounts возвращает количество task'ов по статусам у всех воркеров.
func (o *Orchestrator) TaskCounts() map[domain.TaskStatus]int {
	total := make(map[domain.TaskStatus]int, 4)
	for _, w := range o.workers {
		counts, err := w.TaskCounts()
		if err != nil {
			o.logger.Warn("failed to count tasks", "worker_id", w.ID(), "error", err)
			continue
		}
		for status, n := range counts {
			total[status] += n
		}
	}
	return total
}

func (o *Orchestrator) uptime() uint64 {
	o.runningMu.RLock()
	defer o.runningMu.RUnlock()

	if o.startedAt.IsZero() {
		return 0
	}
	return uint64(time.Since(o.startedAt).Seconds())
}
