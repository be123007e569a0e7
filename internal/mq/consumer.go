package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Tasklane/internal/domain"
)

// Handler — обработчик события task.
// Ошибка обработчика возвращает сообщение в очередь.
type Handler func(ctx context.Context, event domain.TaskEvent) error

// Consumer читает события task'ов из очереди.
// Используется CLI для просмотра событий в реальном времени.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	handler  Handler
	prefetch int
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Queue — имя очереди.
	Queue Queue

	// Handler — обработчик событий.
	Handler Handler

	// Prefetch — количество неподтверждённых сообщений (default: 10).
	Prefetch int
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 10
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Consumer{
		conn:     conn,
		logger:   logger,
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Run читает сообщения до отмены ctx, переживая переподключения.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		deliveries, err := c.subscribe(ctx)
		if err == nil {
			c.logger.Debug("consumer started", "queue", c.queue)
			err = c.drain(ctx, deliveries)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("consumer interrupted, waiting for reconnect", "queue", c.queue, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
		}
	}
}

func (c *Consumer) subscribe(ctx context.Context) (<-chan amqp.Delivery, error) {
	var deliveries <-chan amqp.Delivery
	err := c.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := ch.Qos(c.prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}
		d, err := ch.ConsumeWithContext(ctx,
			string(c.queue), // queue
			"",              // consumer tag (auto-generated)
			false,           // auto-ack
			false,           // exclusive
			false,           // no-local
			false,           // no-wait
			nil,             // args
		)
		if err != nil {
			return fmt.Errorf("consume %s: %w", c.queue, err)
		}
		deliveries = d
		return nil
	})
	return deliveries, err
}

func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handle(ctx, raw)
		}
	}
}

// handle декодирует одно сообщение и передаёт событие обработчику.
func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) {
	event, err := DecodeEvent(raw.Body)
	if err != nil {
		c.logger.Error("failed to decode message", "queue", c.queue, "error", err)
		// Некорректное сообщение не возвращаем в очередь
		raw.Nack(false, false)
		return
	}

	if err := c.handler(ctx, event); err != nil {
		c.logger.Error("handler failed", "queue", c.queue, "event_id", event.ID, "error", err)
		raw.Nack(false, true)
		return
	}

	raw.Ack(false)
}

// DecodeEvent разбирает конверт Message с TaskEvent внутри.
func DecodeEvent(body []byte) (domain.TaskEvent, error) {
	var envelope struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return domain.TaskEvent{}, fmt.Errorf("unmarshal message: %w", err)
	}
	if len(envelope.Payload) == 0 {
		return domain.TaskEvent{}, errors.New("message has no payload")
	}

	var event domain.TaskEvent
	if err := json.Unmarshal(envelope.Payload, &event); err != nil {
		return domain.TaskEvent{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return event, nil
}
