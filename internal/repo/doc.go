// Package repo пишет журнал событий task'ов в PostgreSQL (pgx).
package repo
