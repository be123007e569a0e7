package domain

// WorkerStats — снимок счётчиков одного воркера.
type WorkerStats struct {
	WorkerID       int    `json:"worker_id"`
	TasksProcessed uint64 `json:"tasks_processed"`
	TasksCompleted uint64 `json:"tasks_completed"`
	TasksFailed    uint64 `json:"tasks_failed"`

	// CurrentLoad — количество task в очереди воркера.
	CurrentLoad int `json:"current_load"`

	UptimeSeconds uint64 `json:"uptime_seconds"`
	IsHealthy     bool   `json:"is_healthy"`
}

// SystemStats — агрегат по всем воркерам на момент вызова.
// Не хранится отдельно: пересчитывается из WorkerStats.
type SystemStats struct {
	TotalTasksProcessed uint64        `json:"total_tasks_processed"`
	TotalTasksCompleted uint64        `json:"total_tasks_completed"`
	TotalTasksFailed    uint64        `json:"total_tasks_failed"`
	TotalWorkers        int           `json:"total_workers"`
	UptimeSeconds       uint64        `json:"uptime_seconds"`
	Workers             []WorkerStats `json:"workers"`
}

// Aggregate собирает SystemStats из снимков воркеров.
// Итоговые счётчики всегда равны сумме переданных снимков.
func Aggregate(workers []WorkerStats, uptimeSeconds uint64) SystemStats {
	stats := SystemStats{
		TotalWorkers:  len(workers),
		UptimeSeconds: uptimeSeconds,
		Workers:       workers,
	}
	for _, w := range workers {
		stats.TotalTasksProcessed += w.TasksProcessed
		stats.TotalTasksCompleted += w.TasksCompleted
		stats.TotalTasksFailed += w.TasksFailed
	}
	return stats
}
