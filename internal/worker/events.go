package worker

import (
	"context"
	"errors"

	"github.com/shaiso/Tasklane/internal/domain"
)

// newEvent снимает событие с текущего состояния task.
func (w *Worker) newEvent(typ domain.EventType, task *domain.Task) domain.TaskEvent {
	return domain.NewTaskEvent(typ, w.id, task)
}

// emit кладёт событие в буфер и не ждёт получателей.
// При переполненном буфере событие отбрасывается.
func (w *Worker) emit(event domain.TaskEvent) {
	if w.notifier == nil {
		return
	}

	select {
	case w.events <- event:
	default:
		w.logger.Warn("event buffer full, dropping task event", "task_id", event.TaskID, "event", event.Type)
	}
}

// notifyLoop доставляет события по одному в порядке поступления.
// После закрытия notifyStop досылает то, что осталось в буфере.
func (w *Worker) notifyLoop(ctx context.Context) {
	for {
		select {
		case event := <-w.events:
			w.deliver(ctx, event)
		case <-w.notifyStop:
			for {
				select {
				case event := <-w.events:
					w.deliver(ctx, event)
				default:
					return
				}
			}
		}
	}
}

// deliver отправляет одно событие. Ошибка только логируется.
func (w *Worker) deliver(ctx context.Context, event domain.TaskEvent) {
	ctx, cancel := context.WithTimeout(ctx, defaultNotifyTimeout)
	defer cancel()

	if err := w.notifier.Notify(ctx, event); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			w.logger.Warn("task event notification timed out", "task_id", event.TaskID, "event", event.Type)
			return
		}
		w.logger.Warn("failed to notify task event", "task_id", event.TaskID, "event", event.Type, "error", err)
	}
}
