package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Tasklane/internal/calc"
	"github.com/shaiso/Tasklane/internal/domain"
)

// recordingKernel запоминает порядок вызовов и может блокироваться.
type recordingKernel struct {
	name string

	mu    sync.Mutex
	order []int64

	// gate — если не nil, Execute ждёт закрытия канала.
	gate chan struct{}
	fail bool
	pnc  bool
}

func (k *recordingKernel) Name() string { return k.name }

func (k *recordingKernel) Execute(input int64) (string, error) {
	if k.gate != nil {
		<-k.gate
	}
	k.mu.Lock()
	k.order = append(k.order, input)
	k.mu.Unlock()

	if k.pnc {
		panic("boom")
	}
	if k.fail {
		return "", errors.New("kernel failed")
	}
	return fmt.Sprintf("r%d", input), nil
}

func (k *recordingKernel) calls() []int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]int64(nil), k.order...)
}

func newTestWorker(t *testing.T, threads int, k calc.Kernel) *Worker {
	t.Helper()

	reg := calc.DefaultRegistry()
	if k != nil {
		reg.Register(k)
	}

	w, err := New(Config{ID: 1, Threads: threads, Registry: reg})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func calcTask(id, op string, input int64) *domain.Task {
	return domain.NewTask(id, "test "+id, domain.PriorityMedium, domain.TaskData{
		Type:      domain.TaskTypeCalculation,
		Operation: op,
		Input:     input,
	})
}

// waitFor опрашивает cond до таймаута.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func waitResult(t *testing.T, w *Worker, id string) *domain.Task {
	t.Helper()
	var task *domain.Task
	waitFor(t, "task "+id+" to finish", func() bool {
		var err error
		task, err = w.GetTask(id)
		return err == nil && (task.HasResult() || task.Status == domain.TaskStatusFailed)
	})
	return task
}

// --- Lifecycle Tests ---

func TestWorker_AddTask_NotRunning(t *testing.T) {
	w, err := New(Config{ID: 0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = w.AddTask(context.Background(), calcTask("a", domain.OperationFactorial, 3))
	if !errors.Is(err, ErrWorkerNotRunning) {
		t.Errorf("expected ErrWorkerNotRunning before Start, got %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()

	err = w.AddTask(context.Background(), calcTask("b", domain.OperationFactorial, 3))
	if !errors.Is(err, ErrWorkerNotRunning) {
		t.Errorf("expected ErrWorkerNotRunning after Stop, got %v", err)
	}
	if err := w.Start(context.Background()); !errors.Is(err, ErrWorkerNotRunning) {
		t.Errorf("restart should fail, got %v", err)
	}
}

func TestWorker_StopIdempotent(t *testing.T) {
	w := newTestWorker(t, 2, nil)
	w.Stop()
	w.Stop()

	if w.IsRunning() {
		t.Error("worker should not be running")
	}
	if w.Stats().IsHealthy {
		t.Error("stopped worker should not be healthy")
	}
}

// --- Processing Tests ---

func TestWorker_ProcessesTask(t *testing.T) {
	w := newTestWorker(t, 2, nil)

	if err := w.AddTask(context.Background(), calcTask("f5", domain.OperationFactorial, 5)); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	task := waitResult(t, w, "f5")

	// Результат есть, но task не переходит в COMPLETED сам
	if task.Status != domain.TaskStatusProcessing {
		t.Errorf("expected processing, got %s", task.Status)
	}
	if task.Result != "120" {
		t.Errorf("expected 120, got %q", task.Result)
	}

	stats := w.Stats()
	if stats.TasksProcessed != 1 || stats.TasksCompleted != 0 || stats.TasksFailed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestWorker_PendingThenProcessing(t *testing.T) {
	k := &recordingKernel{name: domain.OperationFibonacci, gate: make(chan struct{})}
	w := newTestWorker(t, 1, k)
	ctx := context.Background()

	_ = w.AddTask(ctx, calcTask("first", domain.OperationFibonacci, 1))
	_ = w.AddTask(ctx, calcTask("second", domain.OperationFibonacci, 2))

	// first взят в работу, second ждёт в очереди
	waitFor(t, "first to be processing", func() bool {
		task, _ := w.GetTask("first")
		return task != nil && task.Status == domain.TaskStatusProcessing
	})

	second, err := w.GetTask("second")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if second.Status != domain.TaskStatusPending {
		t.Errorf("expected second pending, got %s", second.Status)
	}
	if w.Stats().CurrentLoad != 1 {
		t.Errorf("expected queue depth 1, got %d", w.Stats().CurrentLoad)
	}

	// Completion посреди вычисления отклоняется
	_, err = w.CompleteTask(ctx, "first")
	var te *domain.TransitionError
	if !errors.As(err, &te) || te.Current != domain.TaskStatusProcessing {
		t.Errorf("expected transition error from processing, got %v", err)
	}

	// Completion task'а из очереди тоже отклоняется и ничего не меняет
	_, err = w.CompleteTask(ctx, "second")
	if !errors.As(err, &te) || te.Current != domain.TaskStatusPending {
		t.Errorf("expected transition error from pending, got %v", err)
	}
	after, err := w.GetTask("second")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if after.Status != domain.TaskStatusPending || after.Result != "" || after.CompletedAt != nil {
		t.Errorf("pending task mutated: %+v", after)
	}
	if stats := w.Stats(); stats.TasksCompleted != 0 {
		t.Errorf("expected no completions, got %d", stats.TasksCompleted)
	}

	close(k.gate)
	waitResult(t, w, "second")
}

func TestWorker_FIFO(t *testing.T) {
	k := &recordingKernel{name: domain.OperationFibonacci, gate: make(chan struct{})}
	w := newTestWorker(t, 1, k)
	ctx := context.Background()

	const n = 20
	for i := 0; i < n; i++ {
		if err := w.AddTask(ctx, calcTask(fmt.Sprintf("t%d", i), domain.OperationFibonacci, int64(i))); err != nil {
			t.Fatalf("AddTask: %v", err)
		}
	}

	close(k.gate)
	waitResult(t, w, fmt.Sprintf("t%d", n-1))

	calls := k.calls()
	if len(calls) != n {
		t.Fatalf("expected %d calls, got %d", n, len(calls))
	}
	for i, in := range calls {
		if in != int64(i) {
			t.Fatalf("expected FIFO order, got %v", calls)
		}
	}
}

func TestWorker_PriorityIgnored(t *testing.T) {
	k := &recordingKernel{name: domain.OperationFibonacci, gate: make(chan struct{})}
	w := newTestWorker(t, 1, k)
	ctx := context.Background()

	low := calcTask("low", domain.OperationFibonacci, 1)
	low.Priority = domain.PriorityLow
	high := calcTask("high", domain.OperationFibonacci, 2)
	high.Priority = domain.PriorityHigh

	_ = w.AddTask(ctx, low)
	_ = w.AddTask(ctx, high)
	close(k.gate)
	waitResult(t, w, "high")

	calls := k.calls()
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("expected submission order [1 2], got %v", calls)
	}
}

func TestWorker_KernelFailure(t *testing.T) {
	k := &recordingKernel{name: domain.OperationPrimeCheck, fail: true}
	w := newTestWorker(t, 1, k)

	_ = w.AddTask(context.Background(), calcTask("p", domain.OperationPrimeCheck, 7))
	task := waitResult(t, w, "p")

	if task.Status != domain.TaskStatusFailed {
		t.Errorf("expected failed, got %s", task.Status)
	}
	if task.Error == "" || task.Result != "" {
		t.Errorf("expected error and no result, got error=%q result=%q", task.Error, task.Result)
	}

	stats := w.Stats()
	if stats.TasksProcessed != 1 || stats.TasksFailed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	_, err := w.CompleteTask(context.Background(), "p")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("completing failed task should be rejected, got %v", err)
	}
}

func TestWorker_KernelPanic(t *testing.T) {
	k := &recordingKernel{name: domain.OperationPrimeCheck, pnc: true}
	w := newTestWorker(t, 1, k)

	_ = w.AddTask(context.Background(), calcTask("p", domain.OperationPrimeCheck, 7))
	task := waitResult(t, w, "p")

	if task.Status != domain.TaskStatusFailed {
		t.Errorf("expected failed after panic, got %s", task.Status)
	}

	// Воркер продолжает работать
	_ = w.AddTask(context.Background(), calcTask("f", domain.OperationFactorial, 3))
	if got := waitResult(t, w, "f"); got.Result != "6" {
		t.Errorf("expected 6, got %q", got.Result)
	}
}

// --- Completion Tests ---

func TestWorker_CompleteTask(t *testing.T) {
	w := newTestWorker(t, 2, nil)
	ctx := context.Background()

	_ = w.AddTask(ctx, calcTask("fib", domain.OperationFibonacci, 10))
	waitResult(t, w, "fib")

	task, err := w.CompleteTask(ctx, "fib")
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if task.Status != domain.TaskStatusCompleted || task.Result != "55" {
		t.Errorf("unexpected task: %+v", task)
	}
	if task.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}

	// Повторное подтверждение отклоняется без изменений
	_, err = w.CompleteTask(ctx, "fib")
	var te *domain.TransitionError
	if !errors.As(err, &te) || te.Current != domain.TaskStatusCompleted {
		t.Errorf("expected transition error from completed, got %v", err)
	}

	if got := w.Stats().TasksCompleted; got != 1 {
		t.Errorf("expected 1 completed, got %d", got)
	}
}

func TestWorker_CompleteTask_NotFound(t *testing.T) {
	w := newTestWorker(t, 1, nil)

	_, err := w.CompleteTask(context.Background(), "missing")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestWorker_CompleteTask_Abandoned(t *testing.T) {
	w := newTestWorker(t, 1, nil)

	// Состояние, которое пул сам не создаёт: PROCESSING без результата с ошибкой
	task := calcTask("stuck", domain.OperationFactorial, 3)
	task.Status = domain.TaskStatusProcessing
	task.Error = "lost"
	if err := w.store.Insert(task); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := w.CompleteTask(context.Background(), "stuck")
	if !errors.Is(err, ErrTaskAbandoned) {
		t.Fatalf("expected ErrTaskAbandoned, got %v", err)
	}
	if got.Status != domain.TaskStatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
	// tasks_failed считает только ошибки вычисления
	if stats := w.Stats(); stats.TasksFailed != 0 || stats.TasksCompleted != 0 {
		t.Errorf("abandoned completion must not touch counters: %+v", stats)
	}
}

func TestWorker_DuplicateTask(t *testing.T) {
	w := newTestWorker(t, 1, nil)
	ctx := context.Background()

	_ = w.AddTask(ctx, calcTask("dup", domain.OperationFactorial, 3))
	err := w.AddTask(ctx, calcTask("dup", domain.OperationFactorial, 4))
	if !errors.Is(err, ErrTaskExists) {
		t.Errorf("expected ErrTaskExists, got %v", err)
	}
}

// --- Notifier Tests ---

func TestWorker_Notifications(t *testing.T) {
	var (
		mu     sync.Mutex
		events []domain.EventType
	)
	n := NotifierFunc(func(_ context.Context, e domain.TaskEvent) error {
		mu.Lock()
		events = append(events, e.Type)
		mu.Unlock()
		// Ошибка получателя не влияет на task
		return errors.New("sink down")
	})

	w, err := New(Config{ID: 3, Threads: 1, Notifier: Notifiers{n}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = w.Start(context.Background())
	defer w.Stop()

	ctx := context.Background()
	_ = w.AddTask(ctx, calcTask("e", domain.OperationPrimeCheck, 13))
	task := waitResult(t, w, "e")
	if task.Result != "true" {
		t.Fatalf("expected true, got %q", task.Result)
	}
	if _, err := w.CompleteTask(ctx, "e"); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	waitFor(t, "three events", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 3
	})

	mu.Lock()
	defer mu.Unlock()
	seen := map[domain.EventType]bool{}
	for _, e := range events {
		seen[e] = true
	}
	for _, e := range []domain.EventType{domain.EventTaskCreated, domain.EventTaskProcessed, domain.EventTaskCompleted} {
		if !seen[e] {
			t.Errorf("missing event %s in %v", e, events)
		}
	}
}

func TestWorker_SlowNotifierDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	var delivered atomic.Int32
	n := NotifierFunc(func(ctx context.Context, _ domain.TaskEvent) error {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
		delivered.Add(1)
		return nil
	})

	w, err := New(Config{ID: 4, Threads: 1, Notifier: n})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = w.Start(context.Background())

	const limit = 200 * time.Millisecond
	ctx := context.Background()

	start := time.Now()
	if err := w.AddTask(ctx, calcTask("slow", domain.OperationFactorial, 4)); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if d := time.Since(start); d > limit {
		t.Errorf("AddTask took %s with a blocked notifier", d)
	}

	waitResult(t, w, "slow")

	start = time.Now()
	if _, err := w.CompleteTask(ctx, "slow"); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if d := time.Since(start); d > limit {
		t.Errorf("CompleteTask took %s with a blocked notifier", d)
	}

	// Stop ждёт доставки событий, но Stats и AddTask не должны вставать за ним
	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	waitFor(t, "worker to stop accepting tasks", func() bool { return !w.IsRunning() })

	start = time.Now()
	stats := w.Stats()
	if d := time.Since(start); d > limit {
		t.Errorf("Stats took %s while Stop drains events", d)
	}
	if stats.IsHealthy || stats.TasksCompleted != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if err := w.AddTask(ctx, calcTask("late", domain.OperationFactorial, 3)); !errors.Is(err, ErrWorkerNotRunning) {
		t.Errorf("expected ErrWorkerNotRunning, got %v", err)
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after notifier was released")
	}

	// created, processed, completed доставлены до выхода из Stop
	if got := delivered.Load(); got != 3 {
		t.Errorf("expected 3 delivered events, got %d", got)
	}
}

func TestWorker_ProcessedCountedAfterStore(t *testing.T) {
	w := newTestWorker(t, 4, nil)
	ctx := context.Background()

	const tasks = 40
	for i := 0; i < tasks; i++ {
		if err := w.AddTask(ctx, calcTask(fmt.Sprintf("p%d", i), domain.OperationFibonacci, int64(500+i))); err != nil {
			t.Fatalf("AddTask: %v", err)
		}
	}

	// Счётчик читается раньше хранилища: processed не может опережать
	// количество task'ов с сохранённым результатом или ошибкой
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		processed := w.Stats().TasksProcessed

		finished := 0
		for i := 0; i < tasks; i++ {
			task, err := w.GetTask(fmt.Sprintf("p%d", i))
			if err == nil && (task.HasResult() || task.Status == domain.TaskStatusFailed) {
				finished++
			}
		}
		if uint64(finished) < processed {
			t.Fatalf("processed=%d but only %d tasks have a stored outcome", processed, finished)
		}
		if finished == tasks {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timeout waiting for tasks to finish")
}

// --- Store Tests ---

func TestStore_CountByStatus(t *testing.T) {
	s, err := newStore()
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}

	_ = s.Insert(calcTask("a", domain.OperationFactorial, 1))
	_ = s.Insert(calcTask("b", domain.OperationFactorial, 2))
	_, _ = s.Update("b", func(t *domain.Task) error { return t.MarkProcessing() })

	counts, err := s.CountByStatus()
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[domain.TaskStatusPending] != 1 || counts[domain.TaskStatusProcessing] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}

	if n, _ := s.Len(); n != 2 {
		t.Errorf("expected 2 tasks, got %d", n)
	}
}

func TestStore_UpdateRollback(t *testing.T) {
	s, _ := newStore()
	_ = s.Insert(calcTask("a", domain.OperationFactorial, 1))

	_, err := s.Update("a", func(t *domain.Task) error {
		t.Title = "changed"
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("expected error")
	}

	got, _ := s.Get("a")
	if got.Title != "test a" {
		t.Errorf("failed update must not be stored, got title %q", got.Title)
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s, _ := newStore()
	_ = s.Insert(calcTask("a", domain.OperationFactorial, 1))

	snap, _ := s.Get("a")
	snap.Status = domain.TaskStatusFailed

	got, _ := s.Get("a")
	if got.Status != domain.TaskStatusPending {
		t.Errorf("mutating a snapshot must not affect the store, got %s", got.Status)
	}
}
