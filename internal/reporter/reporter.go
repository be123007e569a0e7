// Package reporter периодически пишет статистику системы в лог.
//
// Расписание задаётся cron-выражением (5 полей) или дескриптором
// вида "@every 1m", "@hourly".
package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Tasklane/internal/domain"
)

// cronParser — парсер расписаний с поддержкой дескрипторов.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule проверяет расписание.
func ValidateSchedule(schedule string) error {
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid stats report schedule %q: %w", schedule, err)
	}
	return nil
}

// StatsSource — источник статистики. Реализуется Orchestrator'ом.
type StatsSource interface {
	SystemStats() domain.SystemStats
}

// Reporter пишет SystemStats в лог по расписанию.
type Reporter struct {
	source   StatsSource
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	stopOnce sync.Once
}

// Config — конфигурация Reporter.
type Config struct {
	Source   StatsSource
	Schedule string
	Logger   *slog.Logger
}

// New создаёт Reporter. Расписание проверяется сразу.
func New(cfg Config) (*Reporter, error) {
	if err := ValidateSchedule(cfg.Schedule); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "stats_reporter")

	r := &Reporter{
		source:   cfg.Source,
		schedule: cfg.Schedule,
		logger:   logger,
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLogger(cronLogger{logger: logger}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: logger})),
		),
	}

	if _, err := r.cron.AddFunc(cfg.Schedule, r.Report); err != nil {
		return nil, fmt.Errorf("schedule stats report: %w", err)
	}
	return r, nil
}

// Start запускает расписание. Останавливается по Stop или отмене ctx.
func (r *Reporter) Start(ctx context.Context) {
	r.cron.Start()
	r.logger.Info("stats reporter started", "schedule", r.schedule)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
}

// Stop останавливает расписание и ждёт текущий отчёт.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		<-r.cron.Stop().Done()
		r.logger.Info("stats reporter stopped")
	})
}

// Report пишет текущую статистику одной записью.
func (r *Reporter) Report() {
	stats := r.source.SystemStats()

	healthy := 0
	load := 0
	for _, w := range stats.Workers {
		if w.IsHealthy {
			healthy++
		}
		load += w.CurrentLoad
	}

	r.logger.Info("system stats",
		"total_workers", stats.TotalWorkers,
		"healthy_workers", healthy,
		"queued", load,
		"total_tasks_processed", stats.TotalTasksProcessed,
		"total_tasks_completed", stats.TotalTasksCompleted,
		"total_tasks_failed", stats.TotalTasksFailed,
		"uptime_seconds", stats.UptimeSeconds,
	)
}

// cronLogger адаптирует slog к cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
