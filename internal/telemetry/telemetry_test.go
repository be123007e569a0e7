package telemetry

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/Tasklane/internal/domain"
)

// --- Logging Tests ---

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG": slog.LevelDebug,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContext(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := WithLogger(context.Background(), logger)

	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger")
	}
}

// --- Collector Tests ---

type fakeSource struct {
	stats  domain.SystemStats
	counts map[domain.TaskStatus]int
}

func (f *fakeSource) SystemStats() domain.SystemStats       { return f.stats }
func (f *fakeSource) TaskCounts() map[domain.TaskStatus]int { return f.counts }

func TestStatsCollector(t *testing.T) {
	src := &fakeSource{
		stats: domain.Aggregate([]domain.WorkerStats{
			{WorkerID: 0, CurrentLoad: 2, IsHealthy: true},
			{WorkerID: 1, CurrentLoad: 0, IsHealthy: false},
		}, 10),
		counts: map[domain.TaskStatus]int{
			domain.TaskStatusPending:    2,
			domain.TaskStatusProcessing: 1,
			domain.TaskStatusCompleted:  4,
		},
	}

	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(NewStatsCollector(src)); err != nil {
		t.Fatalf("register: %v", err)
	}

	expected := `
# HELP tasklane_tasks Tasks currently held by workers, by status
# TYPE tasklane_tasks gauge
tasklane_tasks{status="completed"} 4
tasklane_tasks{status="failed"} 0
tasklane_tasks{status="pending"} 2
tasklane_tasks{status="processing"} 1
# HELP tasklane_worker_queue_depth Tasks waiting in the worker queue
# TYPE tasklane_worker_queue_depth gauge
tasklane_worker_queue_depth{worker="0"} 2
tasklane_worker_queue_depth{worker="1"} 0
# HELP tasklane_worker_healthy 1 if the worker is running
# TYPE tasklane_worker_healthy gauge
tasklane_worker_healthy{worker="0"} 1
tasklane_worker_healthy{worker="1"} 0
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}
