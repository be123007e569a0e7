package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return NewOutputTo(jsonMode, os.Stdout, os.Stderr)
}

// NewOutputTo создаёт Output с заданными потоками.
func NewOutputTo(jsonMode bool, w, errW io.Writer) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        w,
		errW:     errW,
	}
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}

// --- Табличные представления ---

var taskHeaders = []string{"ID", "TITLE", "PRIORITY", "OPERATION", "INPUT", "STATUS", "RESULT", "CREATED"}

func taskRow(t *TaskResponse) []string {
	result := t.Result
	if t.Error != "" {
		result = "error: " + t.Error
	}
	return []string{
		t.ID,
		t.Title,
		strconv.Itoa(t.Priority),
		t.Data.Operation,
		strconv.FormatInt(t.Data.Input, 10),
		t.Status,
		truncate(result, 40),
		t.CreatedAt,
	}
}

var workerHeaders = []string{"WORKER", "PROCESSED", "COMPLETED", "FAILED", "LOAD", "UPTIME", "HEALTHY"}

func workerRow(w WorkerStats) []string {
	return []string{
		strconv.Itoa(w.WorkerID),
		strconv.FormatUint(w.TasksProcessed, 10),
		strconv.FormatUint(w.TasksCompleted, 10),
		strconv.FormatUint(w.TasksFailed, 10),
		strconv.Itoa(w.CurrentLoad),
		strconv.FormatUint(w.UptimeSeconds, 10) + "s",
		strconv.FormatBool(w.IsHealthy),
	}
}

// truncate обрезает длинные результаты (factorial/fibonacci) для таблицы.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
