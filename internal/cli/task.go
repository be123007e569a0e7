package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewTaskCmd создаёт группу команд для управления task'ами.
func NewTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	cmd.AddCommand(
		newTaskCreateCmd(clientFn, outputFn),
		newTaskGetCmd(clientFn, outputFn),
		newTaskCompleteCmd(clientFn, outputFn),
		newTaskWaitCmd(clientFn, outputFn),
	)

	return cmd
}

func newTaskCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		id       string
		title    string
		priority int
		wait     bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create OPERATION INPUT",
		Short: "Submit a calculation task (factorial, fibonacci, prime_check)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			input, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid input %q: %w", args[1], err)
			}

			req := CreateTaskRequest{
				ID:    id,
				Title: title,
				Data: TaskData{
					Type:      "calculation",
					Operation: args[0],
					Input:     input,
				},
			}
			if req.Title == "" {
				req.Title = fmt.Sprintf("%s(%d)", args[0], input)
			}
			if cmd.Flags().Changed("priority") {
				req.Priority = priority
			}

			created, err := client.CreateTask(cmd.Context(), req)
			if err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Task created: %s", created.TaskID))

			if !wait {
				out.Print(
					[]string{"TASK_ID", "STATUS"},
					[][]string{{created.TaskID, created.Status}},
					created,
				)
				return nil
			}

			ctx, cancel := contextWithTimeout(cmd, timeout)
			defer cancel()

			task, err := client.WaitTask(ctx, created.TaskID, 0)
			if err != nil {
				return err
			}
			out.Print(taskHeaders, [][]string{taskRow(task)}, task)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Task ID (generated by the server if empty)")
	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().IntVarP(&priority, "priority", "p", 2, "Priority: 1=low, 2=medium, 3=high")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the calculation to finish")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Wait timeout")

	return cmd
}

func newTaskGetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "get TASK_ID",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := clientFn().GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			outputFn().Print(taskHeaders, [][]string{taskRow(task)}, task)
			return nil
		},
	}
}

func newTaskCompleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "complete TASK_ID",
		Short: "Confirm a processed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			resp, err := clientFn().CompleteTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out.Success(resp.Message)
			out.Print(
				[]string{"TASK_ID", "STATUS", "RESULT"},
				[][]string{{resp.TaskID, resp.Status, truncate(resp.Result, 40)}},
				resp,
			)
			return nil
		},
	}
}

func newTaskWaitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		interval time.Duration
		timeout  time.Duration
		complete bool
	)

	cmd := &cobra.Command{
		Use:   "wait TASK_ID",
		Short: "Wait until the task has a result or fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			ctx, cancel := contextWithTimeout(cmd, timeout)
			defer cancel()

			task, err := client.WaitTask(ctx, args[0], interval)
			if err != nil {
				return err
			}

			if complete && task.Status == StatusProcessing {
				resp, err := client.CompleteTask(ctx, task.ID)
				if err != nil {
					return err
				}
				out.Success(resp.Message)
				task.Status = resp.Status
			}

			out.Print(taskHeaders, [][]string{taskRow(task)}, task)
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 200*time.Millisecond, "Polling interval")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Wait timeout")
	cmd.Flags().BoolVar(&complete, "complete", false, "Confirm the task once the result is ready")

	return cmd
}
