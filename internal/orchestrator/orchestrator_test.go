package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Tasklane/internal/domain"
	"github.com/shaiso/Tasklane/internal/worker"
)

func newTestOrchestrator(t *testing.T, workers int) *Orchestrator {
	t.Helper()

	o, err := New(Config{Workers: workers, ThreadsPerWorker: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(o.Stop)
	return o
}

func calcTask(id, op string, input int64) *domain.Task {
	return domain.NewTask(id, "task "+id, domain.PriorityMedium, domain.TaskData{
		Type:      domain.TaskTypeCalculation,
		Operation: op,
		Input:     input,
	})
}

func waitFinished(t *testing.T, o *Orchestrator, id string) *domain.Task {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, err := o.GetTask(id)
		if err == nil && (task.HasResult() || task.Status == domain.TaskStatusFailed) {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for task %s", id)
	return nil
}

// --- Construction Tests ---

func TestNew_NoWorkers(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := New(Config{Workers: n})
		if !errors.Is(err, ErrNoWorkers) {
			t.Errorf("Workers=%d: expected ErrNoWorkers, got %v", n, err)
		}
	}
}

func TestCreateTask_NotStarted(t *testing.T) {
	o, err := New(Config{Workers: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = o.CreateTask(context.Background(), calcTask("a", domain.OperationFactorial, 3))
	if !errors.Is(err, ErrOrchestratorStopped) {
		t.Errorf("expected ErrOrchestratorStopped, got %v", err)
	}

	// id освобождается после неудачной отправки
	_ = o.Start(context.Background())
	defer o.Stop()
	if _, err := o.CreateTask(context.Background(), calcTask("a", domain.OperationFactorial, 3)); err != nil {
		t.Errorf("retry after start should succeed, got %v", err)
	}
}

// --- Round-robin Tests ---

func TestSelectWorker_Cycle(t *testing.T) {
	o, err := New(Config{Workers: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := []int{0, 1, 2, 0, 1, 2, 0}
	for i, w := range want {
		if got := o.selectWorker(); got != w {
			t.Errorf("call %d: expected worker %d, got %d", i, w, got)
		}
	}
}

func TestDistributeTask_Balance(t *testing.T) {
	const (
		workers = 3
		tasks   = 10
	)
	o := newTestOrchestrator(t, workers)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < tasks; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := o.CreateTask(ctx, calcTask(fmt.Sprintf("t%d", i), domain.OperationPrimeCheck, 97)); err != nil {
				t.Errorf("CreateTask: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Каждый воркер получает floor(M/N) или ceil(M/N) task'ов
	lo, hi := tasks/workers, (tasks+workers-1)/workers
	for _, w := range o.Workers() {
		counts, err := w.TaskCounts()
		if err != nil {
			t.Fatalf("TaskCounts: %v", err)
		}
		n := 0
		for _, c := range counts {
			n += c
		}
		if n < lo || n > hi {
			t.Errorf("worker %d got %d tasks, expected between %d and %d", w.ID(), n, lo, hi)
		}
	}
}

func TestDistributeTask_ReturnsWorker(t *testing.T) {
	o := newTestOrchestrator(t, 2)
	ctx := context.Background()

	for i, want := range []int{0, 1, 0} {
		got, err := o.DistributeTask(ctx, calcTask(fmt.Sprintf("d%d", i), domain.OperationFactorial, 3))
		if err != nil {
			t.Fatalf("DistributeTask: %v", err)
		}
		if got != want {
			t.Errorf("task %d: expected worker %d, got %d", i, want, got)
		}
	}
}

// --- Validation Tests ---

func TestCreateTask_Invalid(t *testing.T) {
	o := newTestOrchestrator(t, 2)
	ctx := context.Background()

	tests := []*domain.Task{
		calcTask("f25", domain.OperationFactorial, 25),
		calcTask("fib", domain.OperationFibonacci, 5000),
		calcTask("p1", domain.OperationPrimeCheck, 1),
		calcTask("neg", domain.OperationFactorial, -3),
		calcTask("op", "sqrt", 9),
	}

	for _, task := range tests {
		_, err := o.CreateTask(ctx, task)
		if !errors.Is(err, domain.ErrInvalidTask) {
			t.Errorf("%s: expected ErrInvalidTask, got %v", task.ID, err)
		}
		// Ни один воркер не получил task
		for _, w := range o.Workers() {
			if w.HasTask(task.ID) {
				t.Errorf("%s: rejected task found at worker %d", task.ID, w.ID())
			}
		}
	}

	if stats := o.SystemStats(); stats.TotalTasksProcessed != 0 {
		t.Errorf("expected no processed tasks, got %d", stats.TotalTasksProcessed)
	}
}

func TestValidateTaskInput(t *testing.T) {
	ok := domain.TaskData{Type: domain.TaskTypeCalculation, Operation: domain.OperationFibonacci, Input: 1000}
	if err := validateTaskInput(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := domain.TaskData{Type: "other", Operation: domain.OperationFibonacci, Input: 1}
	if err := validateTaskInput(bad); !errors.Is(err, domain.ErrInvalidTask) {
		t.Errorf("expected ErrInvalidTask, got %v", err)
	}
}

func TestCreateTask_Duplicate(t *testing.T) {
	o := newTestOrchestrator(t, 3)
	ctx := context.Background()

	if _, err := o.CreateTask(ctx, calcTask("same", domain.OperationFactorial, 4)); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	_, err := o.CreateTask(ctx, calcTask("same", domain.OperationFactorial, 5))
	if !errors.Is(err, ErrTaskExists) {
		t.Errorf("expected ErrTaskExists, got %v", err)
	}

	// Дубликат ушёл бы на другой воркер: проверяем, что он нигде не появился
	owners := 0
	for _, w := range o.Workers() {
		if w.HasTask("same") {
			owners++
		}
	}
	if owners != 1 {
		t.Errorf("expected exactly one owner, got %d", owners)
	}
}

// --- Lookup & Completion Tests ---

func TestGetTask_NotFound(t *testing.T) {
	o := newTestOrchestrator(t, 2)

	_, err := o.GetTask("nope")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestCompleteTask_Flow(t *testing.T) {
	o := newTestOrchestrator(t, 3)
	ctx := context.Background()

	id, err := o.CreateTask(ctx, calcTask("fact", domain.OperationFactorial, 5))
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	task := waitFinished(t, o, id)
	if task.Status != domain.TaskStatusProcessing || task.Result != "120" {
		t.Fatalf("expected processing with 120, got %s %q", task.Status, task.Result)
	}

	done, err := o.CompleteTask(ctx, id)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if done.Status != domain.TaskStatusCompleted {
		t.Errorf("expected completed, got %s", done.Status)
	}

	got, _ := o.GetTask(id)
	if got.Status != domain.TaskStatusCompleted {
		t.Errorf("GetTask should see completed, got %s", got.Status)
	}

	// Повторное подтверждение
	_, err = o.CompleteTask(ctx, id)
	var te *domain.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if te.Current != domain.TaskStatusCompleted {
		t.Errorf("expected current completed, got %s", te.Current)
	}
}

func TestCompleteTask_NotFound(t *testing.T) {
	o := newTestOrchestrator(t, 2)

	_, err := o.CompleteTask(context.Background(), "ghost")
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
	if errors.Is(err, worker.ErrTaskNotFound) {
		t.Error("orchestrator should report its own not-found error")
	}
}

// --- Stats Tests ---

func TestSystemStats_Sum(t *testing.T) {
	o := newTestOrchestrator(t, 2)
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d"}
	for i, id := range ids {
		if _, err := o.CreateTask(ctx, calcTask(id, domain.OperationFibonacci, int64(10+i))); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}
	for _, id := range ids {
		waitFinished(t, o, id)
	}
	if _, err := o.CompleteTask(ctx, "a"); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	stats := o.SystemStats()
	if stats.TotalWorkers != 2 || len(stats.Workers) != 2 {
		t.Fatalf("expected 2 workers, got %+v", stats)
	}

	var processed, completed, failed uint64
	for _, w := range stats.Workers {
		processed += w.TasksProcessed
		completed += w.TasksCompleted
		failed += w.TasksFailed
		if !w.IsHealthy {
			t.Errorf("worker %d should be healthy", w.WorkerID)
		}
	}
	if stats.TotalTasksProcessed != processed || stats.TotalTasksCompleted != completed || stats.TotalTasksFailed != failed {
		t.Errorf("totals must equal the sum of workers: %+v", stats)
	}
	if processed != 4 || completed != 1 || failed != 0 {
		t.Errorf("unexpected totals: processed=%d completed=%d failed=%d", processed, completed, failed)
	}

	counts := o.TaskCounts()
	if counts[domain.TaskStatusCompleted] != 1 || counts[domain.TaskStatusProcessing] != 3 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestStop_WorkersUnhealthy(t *testing.T) {
	o, err := New(Config{Workers: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = o.Start(context.Background())
	o.Stop()

	for _, w := range o.SystemStats().Workers {
		if w.IsHealthy {
			t.Errorf("worker %d should be stopped", w.WorkerID)
		}
	}
}
