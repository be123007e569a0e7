package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/shaiso/Tasklane/internal/reporter"
)

// DefaultFile — файл конфигурации, который читается, если --config не задан.
const DefaultFile = "config.json"

// Допустимые диапазоны.
const (
	MinWorkers = 1
	MaxWorkers = 50
	MinThreads = 1
	MaxThreads = 32
	MinPort    = 1025
	MaxPort    = 65535
)

// Переменные окружения.
const (
	EnvNumWorkers          = "TASKLANE_NUM_WORKERS"
	EnvThreadsPerWorker    = "TASKLANE_THREADS_PER_WORKER"
	EnvPort                = "TASKLANE_PORT"
	EnvLogLevel            = "LOG_LEVEL"
	EnvLogFormat           = "LOG_FORMAT"
	EnvRabbitMQURL         = "RABBITMQ_URL"
	EnvDatabaseURL         = "DB_URL"
	EnvStatsReportSchedule = "STATS_REPORT_SCHEDULE"
)

// Config — конфигурация сервера.
type Config struct {
	NumWorkers       int `json:"num_workers"`
	ThreadsPerWorker int `json:"threads_per_worker"`
	OrchestratorPort int `json:"orchestrator_port"`

	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`

	// RabbitMQURL — если задан, события task'ов публикуются в RabbitMQ.
	RabbitMQURL string `json:"rabbitmq_url,omitempty"`

	// DatabaseURL — если задан, события task'ов пишутся в журнал Postgres.
	DatabaseURL string `json:"database_url,omitempty"`

	// StatsReportSchedule — cron-выражение периодического отчёта статистики.
	// Пустое значение отключает отчёт.
	StatsReportSchedule string `json:"stats_report_schedule,omitempty"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() Config {
	return Config{
		NumWorkers:       3,
		ThreadsPerWorker: 4,
		OrchestratorPort: 7000,
		LogLevel:         "INFO",
		LogFormat:        "json",
	}
}

// Load собирает конфигурацию из значений по умолчанию, файла и окружения.
//
// Если path пуст, читается ./config.json при его наличии.
// Явно указанный, но отсутствующий файл — ошибка.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadFile накладывает значения из JSON-файла. Отсутствующие ключи не меняются.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: config file %s not found", ErrInvalidConfig, path)
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// ApplyEnv накладывает значения из окружения.
// lookup обычно os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{EnvNumWorkers, &c.NumWorkers},
		{EnvThreadsPerWorker, &c.ThreadsPerWorker},
		{EnvPort, &c.OrchestratorPort},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, e.key, v)
		}
		*e.dst = n
	}

	strs := []struct {
		key string
		dst *string
	}{
		{EnvLogLevel, &c.LogLevel},
		{EnvLogFormat, &c.LogFormat},
		{EnvRabbitMQURL, &c.RabbitMQURL},
		{EnvDatabaseURL, &c.DatabaseURL},
		{EnvStatsReportSchedule, &c.StatsReportSchedule},
	}
	for _, e := range strs {
		if v, ok := lookup(e.key); ok && v != "" {
			*e.dst = v
		}
	}

	return nil
}

// Overrides — значения из флагов. nil означает "флаг не задан".
type Overrides struct {
	NumWorkers       *int
	ThreadsPerWorker *int
	OrchestratorPort *int
	LogLevel         *string
}

// Apply накладывает заданные флаги.
func (c *Config) Apply(o Overrides) {
	if o.NumWorkers != nil {
		c.NumWorkers = *o.NumWorkers
	}
	if o.ThreadsPerWorker != nil {
		c.ThreadsPerWorker = *o.ThreadsPerWorker
	}
	if o.OrchestratorPort != nil {
		c.OrchestratorPort = *o.OrchestratorPort
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
}

// Validate проверяет диапазоны значений.
func (c Config) Validate() error {
	if c.NumWorkers < MinWorkers || c.NumWorkers > MaxWorkers {
		return fmt.Errorf("%w: num_workers %d, must be between %d and %d", ErrInvalidConfig, c.NumWorkers, MinWorkers, MaxWorkers)
	}
	if c.ThreadsPerWorker < MinThreads || c.ThreadsPerWorker > MaxThreads {
		return fmt.Errorf("%w: threads_per_worker %d, must be between %d and %d", ErrInvalidConfig, c.ThreadsPerWorker, MinThreads, MaxThreads)
	}
	if c.OrchestratorPort < MinPort || c.OrchestratorPort > MaxPort {
		return fmt.Errorf("%w: orchestrator_port %d, must be between %d and %d", ErrInvalidConfig, c.OrchestratorPort, MinPort, MaxPort)
	}
	if c.StatsReportSchedule != "" {
		if err := reporter.ValidateSchedule(c.StatsReportSchedule); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Addr возвращает адрес HTTP-сервера.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.OrchestratorPort)
}
