package worker

import (
	"fmt"

	"github.com/hashicorp/go-memdb"

	"github.com/shaiso/Tasklane/internal/domain"
)

const tasksTable = "tasks"

// store — хранилище task'ов воркера на go-memdb.
//
// Записи в memdb не меняются на месте: любое изменение клонирует task,
// меняет копию и вставляет её в write-транзакции. Write-транзакции
// memdb сериализованы, read-транзакции видят согласованный снимок.
// Наружу всегда отдаются копии.
type store struct {
	db *memdb.MemDB
}

func tasksTableSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: tasksTable,
		Indexes: map[string]*memdb.IndexSchema{
			"id": {
				Name:         "id",
				AllowMissing: false,
				Unique:       true,
				Indexer: &memdb.StringFieldIndex{
					Field: "ID",
				},
			},
			"status": {
				Name:         "status",
				AllowMissing: false,
				Indexer: &memdb.StringFieldIndex{
					Field: "Status",
				},
			},
		},
	}
}

func newStore() (*store, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tasksTable: tasksTableSchema(),
		},
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("create task store: %w", err)
	}
	return &store{db: db}, nil
}

// Insert добавляет новый task. Возвращает ErrTaskExists, если id занят.
func (s *store) Insert(task *domain.Task) error {
	tx := s.db.Txn(true)
	defer tx.Abort()

	existing, err := tx.First(tasksTable, "id", task.ID)
	if err != nil {
		return fmt.Errorf("task lookup failed: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrTaskExists, task.ID)
	}

	if err := tx.Insert(tasksTable, task.Clone()); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	tx.Commit()
	return nil
}

// Get возвращает копию task.
func (s *store) Get(id string) (*domain.Task, error) {
	tx := s.db.Txn(false)
	defer tx.Abort()

	raw, err := tx.First(tasksTable, "id", id)
	if err != nil {
		return nil, fmt.Errorf("task lookup failed: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return raw.(*domain.Task).Clone(), nil
}

// Update атомарно применяет fn к копии task и сохраняет её.
// Если fn возвращает ошибку, изменения отбрасываются.
// Возвращает копию сохранённого состояния.
func (s *store) Update(id string, fn func(*domain.Task) error) (*domain.Task, error) {
	tx := s.db.Txn(true)
	defer tx.Abort()

	raw, err := tx.First(tasksTable, "id", id)
	if err != nil {
		return nil, fmt.Errorf("task lookup failed: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	task := raw.(*domain.Task).Clone()
	if err := fn(task); err != nil {
		return nil, err
	}

	if err := tx.Insert(tasksTable, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	tx.Commit()
	return task.Clone(), nil
}

// Delete удаляет task. Отсутствие task ошибкой не считается.
func (s *store) Delete(id string) error {
	tx := s.db.Txn(true)
	defer tx.Abort()

	if _, err := tx.DeleteAll(tasksTable, "id", id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	tx.Commit()
	return nil
}

// CountByStatus считает task'и в каждом статусе по индексу status.
func (s *store) CountByStatus() (map[domain.TaskStatus]int, error) {
	tx := s.db.Txn(false)
	defer tx.Abort()

	counts := make(map[domain.TaskStatus]int, 4)
	for _, status := range []domain.TaskStatus{
		domain.TaskStatusPending,
		domain.TaskStatusProcessing,
		domain.TaskStatusCompleted,
		domain.TaskStatusFailed,
	} {
		iter, err := tx.Get(tasksTable, "status", string(status))
		if err != nil {
			return nil, fmt.Errorf("status lookup failed: %w", err)
		}
		n := 0
		for next := iter.Next(); next != nil; next = iter.Next() {
			n++
		}
		counts[status] = n
	}
	return counts, nil
}

// Len возвращает количество task'ов в хранилище.
func (s *store) Len() (int, error) {
	tx := s.db.Txn(false)
	defer tx.Abort()

	iter, err := tx.Get(tasksTable, "id")
	if err != nil {
		return 0, fmt.Errorf("task lookup failed: %w", err)
	}
	n := 0
	for next := iter.Next(); next != nil; next = iter.Next() {
		n++
	}
	return n, nil
}
