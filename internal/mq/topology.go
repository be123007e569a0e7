package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Tasklane/internal/domain"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// ExchangeTasks — topic-обменник событий task'ов.
const ExchangeTasks Exchange = "tasklane.tasks"

// QueueTaskEvents — долговечная очередь всех событий task'ов.
const QueueTaskEvents Queue = "tasklane.task_events"

// RoutingKeyAllEvents — шаблон, совпадающий со всеми событиями task'ов.
const RoutingKeyAllEvents RoutingKey = "task.#"

// RoutingKeyFor возвращает ключ маршрутизации события: task.created, task.failed, ...
func RoutingKeyFor(t domain.EventType) RoutingKey {
	return RoutingKey(t)
}

// SetupTopology объявляет обменник и очередь событий.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeTasks), // name
			amqp.ExchangeTopic,    // type
			true,                  // durable
			false,                 // auto-deleted
			false,                 // internal
			false,                 // no-wait
			nil,                   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeTasks, err)
		}

		if _, err := ch.QueueDeclare(
			string(QueueTaskEvents), // name
			true,                    // durable
			false,                   // delete when unused
			false,                   // exclusive
			false,                   // no-wait
			nil,                     // arguments
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueTaskEvents, err)
		}

		if err := ch.QueueBind(
			string(QueueTaskEvents),
			string(RoutingKeyAllEvents),
			string(ExchangeTasks),
			false,
			nil,
		); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", QueueTaskEvents, ExchangeTasks, err)
		}

		return nil
	})
}

// DeclareTailQueue создаёт временную эксклюзивную очередь, получающую
// события по шаблону key. Очередь удаляется при закрытии соединения.
func DeclareTailQueue(ctx context.Context, conn *Connection, key RoutingKey) (Queue, error) {
	var name Queue
	err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		q, err := ch.QueueDeclare("", false, true, true, false, nil)
		if err != nil {
			return fmt.Errorf("declare tail queue: %w", err)
		}
		if err := ch.QueueBind(q.Name, string(key), string(ExchangeTasks), false, nil); err != nil {
			return fmt.Errorf("bind tail queue: %w", err)
		}
		name = Queue(q.Name)
		return nil
	})
	return name, err
}
