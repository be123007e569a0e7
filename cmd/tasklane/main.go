// Tasklane — сервер обработки вычислительных task'ов.
//
// Сервер:
//   - Поднимает N воркеров с пулом горутин у каждого
//   - Принимает task'и по HTTP и раздаёт их воркерам по кругу
//   - Публикует события task'ов в RabbitMQ и журнал Postgres (опционально)
//   - Пишет статистику в лог по расписанию (опционально)
//
// Использование:
//
//	tasklane [--config FILE] [-w N] [-t N] [-o PORT] [-l LEVEL]
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/Tasklane/internal/api"
	"github.com/shaiso/Tasklane/internal/config"
	"github.com/shaiso/Tasklane/internal/mq"
	"github.com/shaiso/Tasklane/internal/orchestrator"
	"github.com/shaiso/Tasklane/internal/repo"
	"github.com/shaiso/Tasklane/internal/reporter"
	"github.com/shaiso/Tasklane/internal/telemetry"
	"github.com/shaiso/Tasklane/internal/worker"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		workers    int
		threads    int
		port       int
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "tasklane",
		Short:         "Tasklane task processing server",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Флаги приоритетнее файла и окружения
			var o config.Overrides
			flags := cmd.Flags()
			if flags.Changed("workers") {
				o.NumWorkers = &workers
			}
			if flags.Changed("threads") {
				o.ThreadsPerWorker = &threads
			}
			if flags.Changed("port") {
				o.OrchestratorPort = &port
			}
			if flags.Changed("log-level") {
				o.LogLevel = &logLevel
			}
			cfg.Apply(o)

			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return run(ctx, cfg)
		},
	}

	d := config.Default()
	cmd.Flags().StringVar(&configPath, "config", "", "Path to JSON config (default ./config.json if present)")
	cmd.Flags().IntVarP(&workers, "workers", "w", d.NumWorkers, "Number of workers")
	cmd.Flags().IntVarP(&threads, "threads", "t", d.ThreadsPerWorker, "Goroutines per worker")
	cmd.Flags().IntVarP(&port, "port", "o", d.OrchestratorPort, "HTTP port")
	cmd.Flags().StringVarP(&logLevel, "log-level", "l", d.LogLevel, "Log level: DEBUG, INFO, WARN, ERROR")

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting tasklane",
		"version", version,
		"workers", cfg.NumWorkers,
		"threads_per_worker", cfg.ThreadsPerWorker,
		"port", cfg.OrchestratorPort,
	)

	var notifiers worker.Notifiers

	// RabbitMQ (опционально)
	if cfg.RabbitMQURL != "" {
		conn, err := mq.Dial(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, events will not be published", "error", err)
		} else {
			defer conn.Close()
			if err := mq.SetupTopology(ctx, conn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			notifiers = append(notifiers, mq.NewPublisher(conn, logger))
			logger.Info("RabbitMQ connected")
		}
	}

	// Журнал событий в Postgres (опционально)
	if cfg.DatabaseURL != "" {
		pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("database not available, event journal disabled", "error", err)
		} else {
			defer pool.Close()
			events := repo.NewEventRepo(pool)
			if err := events.EnsureSchema(ctx); err != nil {
				logger.Warn("failed to create event journal", "error", err)
			} else {
				notifiers = append(notifiers, events)
				logger.Info("database connected")
			}
		}
	}

	var notifier worker.Notifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	// Orchestrator и воркеры
	orch, err := orchestrator.New(orchestrator.Config{
		Workers:          cfg.NumWorkers,
		ThreadsPerWorker: cfg.ThreadsPerWorker,
		Notifier:         notifier,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	if err := orch.Start(ctx); err != nil {
		return fmt.Errorf("start orchestrator: %w", err)
	}
	defer orch.Stop()

	prometheus.MustRegister(telemetry.NewStatsCollector(orch))

	// Периодический отчёт (опционально)
	if cfg.StatsReportSchedule != "" {
		rep, err := reporter.New(reporter.Config{
			Source:   orch,
			Schedule: cfg.StatsReportSchedule,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		rep.Start(ctx)
		defer rep.Stop()
	}

	// HTTP
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	api.NewHandler(api.Config{Tasks: orch, Logger: logger}).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Ожидаем сигнал завершения или ошибку сервера
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	// Сначала воркеры: task'и в работе досчитываются
	orch.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped", "uptime_seconds", orch.SystemStats().UptimeSeconds)
	return nil
}
