package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/Tasklane/internal/domain"
)

const namespace = "tasklane"

// Метрики task'ов. Регистрируются в глобальном registry при импорте пакета.
var (
	TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Tasks accepted by the orchestrator",
	})

	TasksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_rejected_total",
		Help:      "Tasks rejected before dispatch",
	}, []string{"reason"})

	TasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_processed_total",
		Help:      "Tasks processed by workers, by operation and outcome",
	}, []string{"operation", "outcome"})

	TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_completed_total",
		Help:      "Tasks confirmed through the completion call",
	})

	KernelDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "kernel_duration_seconds",
		Help:      "Calculation kernel execution time",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"operation"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"method", "route", "code"})
)

// Исходы обработки для TasksProcessed.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// StatsSource — источник данных для StatsCollector.
// Реализуется Orchestrator'ом.
type StatsSource interface {
	SystemStats() domain.SystemStats
	TaskCounts() map[domain.TaskStatus]int
}

// StatsCollector отдаёт текущее состояние воркеров как gauge-метрики.
// Значения считаются в момент scrape, отдельно не хранятся.
type StatsCollector struct {
	source StatsSource

	tasks      *prometheus.Desc
	queueDepth *prometheus.Desc
	healthy    *prometheus.Desc
}

// NewStatsCollector создаёт коллектор. Регистрацию выполняет вызывающий.
func NewStatsCollector(source StatsSource) *StatsCollector {
	return &StatsCollector{
		source: source,
		tasks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "tasks"),
			"Tasks currently held by workers, by status",
			[]string{"status"}, nil,
		),
		queueDepth: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "worker", "queue_depth"),
			"Tasks waiting in the worker queue",
			[]string{"worker"}, nil,
		),
		healthy: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "worker", "healthy"),
			"1 if the worker is running",
			[]string{"worker"}, nil,
		),
	}
}

// Describe реализует prometheus.Collector.
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tasks
	ch <- c.queueDepth
	ch <- c.healthy
}

// Collect реализует prometheus.Collector.
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	counts := c.source.TaskCounts()
	for _, status := range []domain.TaskStatus{
		domain.TaskStatusPending,
		domain.TaskStatusProcessing,
		domain.TaskStatusCompleted,
		domain.TaskStatusFailed,
	} {
		ch <- prometheus.MustNewConstMetric(c.tasks, prometheus.GaugeValue, float64(counts[status]), string(status))
	}

	for _, w := range c.source.SystemStats().Workers {
		id := strconv.Itoa(w.WorkerID)
		ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(w.CurrentLoad), id)

		healthy := 0.0
		if w.IsHealthy {
			healthy = 1
		}
		ch <- prometheus.MustNewConstMetric(c.healthy, prometheus.GaugeValue, healthy, id)
	}
}
