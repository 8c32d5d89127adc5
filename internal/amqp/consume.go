package amqp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"expensetab/internal/log"
)

// ErrDeliveriesClosed is returned when the broker closes the delivery
// channel while consuming.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// StateChangedHandler processes one state-changed message. A returned error
// requeues the message after a growing delay.
type StateChangedHandler func(ctx context.Context, msg *StateChangedMessage) error

// ConsumeStateChanged declares a durable queue bound to the client's
// routing key and delivers its messages to handler one at a time until ctx
// is done.
func (c *Client) ConsumeStateChanged(ctx context.Context, queueName string, handler StateChangedHandler) error {
	return c.consume(ctx, queueName, handler, nil)
}

// consume calls started once deliveries are flowing.
func (c *Client) consume(ctx context.Context, queueName string, handler StateChangedHandler, started func()) error {
	channel, err := c.ensureChannel()
	if err != nil {
		return err
	}

	if _, err := channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := channel.QueueBind(queueName, c.routingKey, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	if err := channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	msgs, err := channel.Consume(
		queueName, // queue
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming state changed messages", "queue", queueName)
	if started != nil {
		started()
	}

	// With a prefetch of one, holding a failed delivery back also holds
	// back the rest of the queue.
	redelivery := newRedeliveryBackOff()

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				c.dropConnection()
				return ErrDeliveriesClosed
			}

			msg, err := StateChangedMessageFromJSON(delivery.Body)
			if err != nil {
				c.logger.ErrorContext(ctx, "Failed to unmarshal message", log.FieldError, err.Error())
				_ = delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, msg); err != nil {
				wait := redelivery.NextBackOff()
				c.logger.ErrorContext(ctx, "Failed to handle message",
					log.FieldOperation, msg.Operation,
					log.FieldError, err.Error(),
					"requeue_in", wait)
				waited := sleepCtx(ctx, wait)
				_ = delivery.Nack(false, true)
				if !waited {
					return ctx.Err()
				}
				continue
			}
			redelivery.Reset()
			_ = delivery.Ack(false)
		}
	}
}

// ConsumeWithReconnect runs ConsumeStateChanged and reconnects with
// exponential backoff whenever the broker drops the consumer. The backoff
// starts over once a connection delivers again. It returns nil once ctx is
// done.
func (c *Client) ConsumeWithReconnect(ctx context.Context, queueName string, handler StateChangedHandler) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0
	b.MaxInterval = openTimeout

	return c.retryConsume(ctx, b, func(started func()) error {
		return c.consume(ctx, queueName, handler, started)
	})
}

func (c *Client) retryConsume(ctx context.Context, b *backoff.ExponentialBackOff, run func(started func()) error) error {
	err := backoff.RetryNotify(func() error {
		err := run(b.Reset)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		c.logger.WarnContext(ctx, "Consumer stopped, reconnecting",
			log.FieldError, err.Error(),
			"wait", wait)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

const (
	redeliveryInitial = time.Second
	redeliveryMax     = openTimeout
)

func newRedeliveryBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = redeliveryInitial
	b.MaxInterval = redeliveryMax
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
