package worker

import (
	"context"
	"errors"

	"github.com/shaiso/Tasklane/internal/domain"
)

// Notifier получает события жизненного цикла task.
//
// Реализации: mq.Publisher (RabbitMQ), repo.EventRepo (Postgres).
// Ошибка Notifier только логируется и на состояние task не влияет.
type Notifier interface {
	Notify(ctx context.Context, event domain.TaskEvent) error
}

// Notifiers рассылает событие всем получателям по очереди.
type Notifiers []Notifier

// Notify вызывает каждого получателя и объединяет ошибки.
func (ns Notifiers) Notify(ctx context.Context, event domain.TaskEvent) error {
	var errs []error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifierFunc позволяет использовать функцию как Notifier.
type NotifierFunc func(ctx context.Context, event domain.TaskEvent) error

// Notify вызывает f.
func (f NotifierFunc) Notify(ctx context.Context, event domain.TaskEvent) error {
	return f(ctx, event)
}
