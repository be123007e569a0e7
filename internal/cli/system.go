package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewStatsCmd создаёт команду вывода статистики системы.
func NewStatsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show system and per-worker statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			stats, err := clientFn().Stats(cmd.Context())
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workers: %d, processed: %d, completed: %d, failed: %d, uptime: %ds",
				stats.TotalWorkers,
				stats.TotalTasksProcessed,
				stats.TotalTasksCompleted,
				stats.TotalTasksFailed,
				stats.UptimeSeconds,
			))

			rows := make([][]string, len(stats.Workers))
			for i, w := range stats.Workers {
				rows[i] = workerRow(w)
			}
			out.Print(workerHeaders, rows, stats)
			return nil
		},
	}
}

// NewHealthCmd создаёт команду проверки доступности сервера.
func NewHealthCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := clientFn().Health(cmd.Context())
			if err != nil {
				return err
			}
			outputFn().Print(
				[]string{"STATUS", "TIMESTAMP"},
				[][]string{{health.Status, health.Timestamp}},
				health,
			)
			return nil
		},
	}
}

// NewLoadCmd создаёт команду нагрузочного прогона.
func NewLoadCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		opts    LoadOptions
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Submit many tasks with bounded concurrency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			ctx, cancel := contextWithTimeout(cmd, timeout)
			defer cancel()

			report, err := RunLoad(ctx, clientFn(), opts)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Submitted %d tasks in %s (%.2f tasks/sec)",
				report.Submitted, report.Duration.Round(time.Millisecond), report.Rate))
			out.Print(
				[]string{"SUBMITTED", "REJECTED", "COMPLETED", "FAILED"},
				[][]string{{
					strconv.Itoa(report.Submitted),
					strconv.Itoa(report.Rejected),
					strconv.Itoa(report.Completed),
					strconv.Itoa(report.Failed),
				}},
				report,
			)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Count, "count", "n", 50, "Number of tasks")
	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "c", 10, "Maximum concurrent requests")
	cmd.Flags().StringVar(&opts.Operation, "operation", "", "Operation for all tasks (mixed if empty)")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "Task ID prefix (server-generated IDs if empty)")
	cmd.Flags().BoolVar(&opts.Wait, "wait", false, "Wait for results and confirm every task")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall timeout")

	return cmd
}

// contextWithTimeout ограничивает контекст команды; timeout <= 0 — без ограничения.
func contextWithTimeout(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
