package worker

import (
	"context"
	"sync/atomic"

	"github.com/shaiso/Tasklane/internal/domain"
)

// queue — неограниченная FIFO-очередь.
//
// Одна горутина (run) держит срез ожидающих task'ов, принимает новые
// из in и отдаёт самый старый в out. out небуферизован: task уходит
// из очереди только когда его забрала горутина пула.
type queue struct {
	in    chan *domain.Task
	out   chan *domain.Task
	done  chan struct{}
	depth atomic.Int64
}

func newQueue() *queue {
	return &queue{
		in:   make(chan *domain.Task),
		out:  make(chan *domain.Task),
		done: make(chan struct{}),
	}
}

// run крутит очередь до отмены ctx.
// Непрочитанные task'и остаются в PENDING в хранилище.
func (q *queue) run(ctx context.Context) {
	defer close(q.done)

	var pending []*domain.Task
	for {
		var (
			out  chan *domain.Task
			next *domain.Task
		)
		if len(pending) > 0 {
			out = q.out
			next = pending[0]
		}

		select {
		case <-ctx.Done():
			return
		case task := <-q.in:
			pending = append(pending, task)
		case out <- next:
			pending[0] = nil
			pending = pending[1:]
			q.depth.Add(-1)
		}
	}
}

// push ставит task в конец очереди. Не ждёт свободного места,
// только пока run примет task.
func (q *queue) push(ctx context.Context, task *domain.Task) error {
	q.depth.Add(1)
	select {
	case q.in <- task:
		return nil
	case <-q.done:
		q.depth.Add(-1)
		return ErrWorkerNotRunning
	case <-ctx.Done():
		q.depth.Add(-1)
		return ctx.Err()
	}
}

// Len возвращает количество task'ов, ожидающих в очереди.
func (q *queue) Len() int {
	return int(q.depth.Load())
}
