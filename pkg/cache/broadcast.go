package cache

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Broadcaster invalidates the local cache and tells every other instance
// listening on the same fanout exchange to do the same.
type Broadcaster struct {
	ch       amqpChannel
	exchange string
	origin   string
	local    Invalidator
	done     chan struct{}
}

func NewBroadcaster(ch amqpChannel, exchange string, local Invalidator) (*Broadcaster, error) {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &Broadcaster{
		ch:       ch,
		exchange: exchange,
		origin:   uuid.NewString(),
		local:    local,
		done:     make(chan struct{}),
	}, nil
}

func (b *Broadcaster) Invalidate(ctx context.Context, key string) error {
	if err := b.local.Invalidate(ctx, key); err != nil {
		return err
	}
	err := b.ch.PublishWithContext(ctx, b.exchange, "", false, false, amqp.Publishing{
		ContentType: "text/plain",
		AppId:       b.origin,
		Body:        []byte(key),
	})
	if err != nil {
		return fmt.Errorf("failed to publish invalidation of %s: %w", key, err)
	}
	return nil
}

// Listen binds a private queue to the exchange and applies invalidations
// published by other instances until the channel closes.
func (b *Broadcaster) Listen() error {
	q, err := b.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := b.ch.QueueBind(q.Name, "", b.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	msgs, err := b.ch.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		true,   // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}
	go b.handle(msgs)
	return nil
}

// Done is closed once the consumer stops, after that only local
// invalidations are applied.
func (b *Broadcaster) Done() <-chan struct{} { return b.done }

func (b *Broadcaster) handle(msgs <-chan amqp.Delivery) {
	defer close(b.done)
	defer log.Printf("invalidation consumer on %s stopped, remote invalidations are no longer applied", b.exchange)
	for d := range msgs {
		if d.AppId == b.origin {
			continue
		}
		key := string(d.Body)
		if key == "" {
			log.Printf("ignoring empty invalidation message from %s", d.AppId)
			continue
		}
		if err := b.local.Invalidate(context.Background(), key); err != nil {
			log.Printf("failed to invalidate %s: %v", key, err)
		}
	}
}
