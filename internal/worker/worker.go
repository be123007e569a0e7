package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shaiso/Tasklane/internal/calc"
	"github.com/shaiso/Tasklane/internal/domain"
	"github.com/shaiso/Tasklane/internal/telemetry"
)

// Default configuration values.
const (
	defaultThreads       = 4
	defaultNotifyTimeout = 5 * time.Second
	defaultEventBuffer   = 1024
)

// Worker выполняет calculation task'и.
//
// Worker:
//   - Принимает task'и от Orchestrator'а через AddTask
//   - Держит их в собственном хранилище (go-memdb)
//   - Выполняет пулом из Threads горутин в порядке поступления
//   - Переводит task в COMPLETED только по явному CompleteTask
//
// Воркеры не знают друг о друге. Все методы потокобезопасны.
type Worker struct {
	id       int
	threads  int
	registry *calc.Registry

	// Доставка событий: AddTask, CompleteTask и пул только кладут событие
	// в буфер, отправку делает отдельная горутина.
	notifier   Notifier
	events     chan domain.TaskEvent
	notifyStop chan struct{}
	notifyWG   sync.WaitGroup

	store *store
	queue *queue

	// Statistics
	processed atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	startedAt atomic.Int64

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	running    bool
	runningMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// ID — номер воркера (индекс в Orchestrator'е).
	ID int

	// Threads — размер пула горутин (default: 4).
	Threads int

	// Registry — вычислительные ядра (опционально; если nil — calc.DefaultRegistry()).
	Registry *calc.Registry

	// Notifier — получатель событий (опционально).
	Notifier Notifier

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) (*Worker, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = defaultThreads
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = calc.DefaultRegistry()
	}

	st, err := newStore()
	if err != nil {
		return nil, err
	}

	w := &Worker{
		id:       cfg.ID,
		threads:  threads,
		registry: registry,
		notifier: cfg.Notifier,
		store:    st,
		queue:    newQueue(),
		logger:   telemetry.WithWorkerID(logger, cfg.ID),
	}
	if w.notifier != nil {
		w.events = make(chan domain.TaskEvent, defaultEventBuffer)
	}
	return w, nil
}

// ID возвращает номер воркера.
func (w *Worker) ID() int {
	return w.id
}

// Start запускает очередь и пул горутин.
//
// Повторный вызов после Stop не поддерживается.
func (w *Worker) Start(ctx context.Context) error {
	w.runningMu.Lock()
	defer w.runningMu.Unlock()

	if w.running {
		return nil
	}
	if w.cancelFunc != nil {
		return fmt.Errorf("%w: worker %d cannot be restarted", ErrWorkerNotRunning, w.id)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.queue.run(ctx)
	}()

	if w.notifier != nil {
		w.notifyStop = make(chan struct{})
		w.notifyWG.Add(1)
		go func() {
			defer w.notifyWG.Done()
			// Отмена ctx не обрывает доставку накопленных событий
			w.notifyLoop(context.WithoutCancel(ctx))
		}()
	}

	for i := 0; i < w.threads; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.processLoop(ctx)
		}()
	}

	w.startedAt.Store(time.Now().UnixNano())
	w.running = true

	w.logger.Info("worker started", "threads", w.threads)
	return nil
}

// Stop останавливает воркер.
//
// Task'и, уже взятые в работу, досчитываются. Task'и из очереди
// остаются в хранилище в статусе PENDING.
func (w *Worker) Stop() {
	w.runningMu.Lock()
	if !w.running {
		w.runningMu.Unlock()
		return
	}
	w.running = false
	w.runningMu.Unlock()

	stored, err := w.store.Len()
	if err != nil {
		w.logger.Warn("failed to count stored tasks", "error", err)
	}
	w.logger.Info("stopping worker...", "queued", w.queue.Len(), "stored", stored)

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	// Ждём завершения горутин
	w.wg.Wait()

	// Пул остановлен: досылаем накопленные события
	if w.notifyStop != nil {
		close(w.notifyStop)
		w.notifyWG.Wait()
	}

	w.logger.Info("worker stopped")
}

// IsRunning проверяет, запущен ли воркер.
func (w *Worker) IsRunning() bool {
	w.runningMu.RLock()
	defer w.runningMu.RUnlock()
	return w.running
}

// AddTask принимает task: сохраняет его в PENDING и ставит в очередь.
//
// Не блокируется ни на ёмкости очереди, ни на получателях событий.
func (w *Worker) AddTask(ctx context.Context, task *domain.Task) error {
	// Блокировка на чтение не даёт Stop остановить очередь между Insert и push
	w.runningMu.RLock()
	defer w.runningMu.RUnlock()

	if !w.running {
		return ErrWorkerNotRunning
	}

	task = task.Clone()
	task.Status = domain.TaskStatusPending

	if err := w.store.Insert(task); err != nil {
		return err
	}

	// created уходит в буфер до push, чтобы опередить processed
	created := w.newEvent(domain.EventTaskCreated, task)

	if err := w.queue.push(ctx, task); err != nil {
		if delErr := w.store.Delete(task.ID); delErr != nil {
			w.logger.Error("failed to remove unqueued task", "task_id", task.ID, "error", delErr)
		}
		return fmt.Errorf("enqueue task %s: %w", task.ID, err)
	}

	w.logger.Debug("task queued", "task_id", task.ID, "operation", task.Data.Operation)
	w.emit(created)
	return nil
}

// GetTask возвращает копию task.
func (w *Worker) GetTask(id string) (*domain.Task, error) {
	return w.store.Get(id)
}

// HasTask проверяет, есть ли task у воркера.
func (w *Worker) HasTask(id string) bool {
	_, err := w.store.Get(id)
	return err == nil
}

// CompleteTask подтверждает task: PROCESSING с результатом → COMPLETED.
//
// Если task в PROCESSING без результата, но с ошибкой, он переводится
// в FAILED и возвращается ErrTaskAbandoned. В остальных случаях
// возвращается *domain.TransitionError, task не меняется.
func (w *Worker) CompleteTask(_ context.Context, id string) (*domain.Task, error) {
	abandoned := false

	task, err := w.store.Update(id, func(t *domain.Task) error {
		if t.Status == domain.TaskStatusProcessing && !t.HasResult() && t.Error != "" {
			abandoned = true
			return t.MarkFailed(t.Error)
		}
		return t.MarkCompleted(time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	if abandoned {
		// tasks_failed считает только ошибки вычисления в processTask
		w.logger.Warn("task abandoned", "task_id", id, "error", task.Error)
		w.emit(w.newEvent(domain.EventTaskFailed, task))
		return task, fmt.Errorf("%w: %s", ErrTaskAbandoned, id)
	}

	w.completed.Add(1)
	telemetry.TasksCompleted.Inc()

	w.logger.Info("task completed", "task_id", id)
	w.emit(w.newEvent(domain.EventTaskCompleted, task))
	return task, nil
}

// Stats возвращает снимок счётчиков воркера.
func (w *Worker) Stats() domain.WorkerStats {
	var uptime uint64
	if started := w.startedAt.Load(); started > 0 {
		uptime = uint64(time.Since(time.Unix(0, started)).Seconds())
	}

	return domain.WorkerStats{
		WorkerID:       w.id,
		TasksProcessed: w.processed.Load(),
		TasksCompleted: w.completed.Load(),
		TasksFailed:    w.failed.Load(),
		CurrentLoad:    w.queue.Len(),
		UptimeSeconds:  uptime,
		IsHealthy:      w.IsRunning(),
	}
}

// TaskCounts возвращает количество task'ов воркера по статусам.
func (w *Worker) TaskCounts() (map[domain.TaskStatus]int, error) {
	return w.store.CountByStatus()
}

// processLoop — цикл горутины пула.
func (w *Worker) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.queue.out:
			w.processTask(task)
		}
	}
}

// processTask выполняет task.
//
// PROCESSING сохраняется до запуска ядра. При успехе сохраняется результат,
// статус остаётся PROCESSING до CompleteTask. При ошибке task переходит в FAILED.
func (w *Worker) processTask(queued *domain.Task) {
	logger := telemetry.WithTaskID(w.logger, queued.ID)

	task, err := w.store.Update(queued.ID, func(t *domain.Task) error {
		return t.MarkProcessing()
	})
	if err != nil {
		logger.Error("failed to start task", "error", err)
		return
	}

	logger.Debug("task started",
		"operation", task.Data.Operation,
		"input", task.Data.Input,
	)

	start := time.Now()
	result, execErr := w.execute(task.Data)
	telemetry.KernelDuration.WithLabelValues(task.Data.Operation).Observe(time.Since(start).Seconds())

	if execErr == nil {
		task, err = w.store.Update(task.ID, func(t *domain.Task) error {
			return t.SetResult(result)
		})
		if err != nil {
			logger.Error("failed to store result", "error", err)
			return
		}
		w.processed.Add(1)

		telemetry.TasksProcessed.WithLabelValues(task.Data.Operation, telemetry.OutcomeSucceeded).Inc()
		logger.Info("task processed", "duration", time.Since(start))
		w.emit(w.newEvent(domain.EventTaskProcessed, task))
		return
	}

	task, err = w.store.Update(task.ID, func(t *domain.Task) error {
		return t.MarkFailed(execErr.Error())
	})
	if err != nil {
		logger.Error("failed to store task error", "error", err)
		return
	}
	w.processed.Add(1)
	w.failed.Add(1)

	telemetry.TasksProcessed.WithLabelValues(task.Data.Operation, telemetry.OutcomeFailed).Inc()
	logger.Warn("task failed", "error", execErr)
	w.emit(w.newEvent(domain.EventTaskFailed, task))
}

// execute запускает ядро. Паника ядра считается ошибкой вычисления.
func (w *Worker) execute(data domain.TaskData) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kernel panic: %v", r)
		}
	}()
	return w.registry.Execute(data.Operation, data.Input)
}
