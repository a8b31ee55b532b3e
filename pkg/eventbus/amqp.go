package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/metrics"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// ErrBrokerUnavailable is returned when the initial broker connection cannot
// be established.
var ErrBrokerUnavailable = errors.New("eventbus: broker unavailable")

func declareExchange(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
}

// AMQPPublisher publishes persistent JSON messages to a durable topic
// exchange with publisher confirms. It dials lazily and redials after a
// failed publish, so a broker outage at startup does not stop the service.
type AMQPPublisher struct {
	url      string
	exchange string
	logger   *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher returns a publisher for exchange (ExchangeUserEvents when
// empty). No connection is made until the first Publish.
func NewAMQPPublisher(url, exchange string, logger *slog.Logger) *AMQPPublisher {
	if exchange == "" {
		exchange = ExchangeUserEvents
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPPublisher{url: url, exchange: exchange, logger: logger}
}

// Publish sends e with routing key e.Type and waits for the broker confirm.
func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	body, err := e.Encode()
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	dc, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		p.exchange,
		e.Type,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    e.Timestamp,
			AppId:        e.SourceService,
			Type:         e.Type,
			Body:         body,
		},
	)
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("eventbus: publish %s: %w", e.Type, err)
	}

	acked, err := dc.WaitContext(ctx)
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("eventbus: confirm %s: %w", e.Type, err)
	}
	if !acked {
		return fmt.Errorf("eventbus: broker nacked %s", e.Type)
	}
	return nil
}

// Ping reports whether a channel can be opened.
func (p *AMQPPublisher) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.channel()
	return err
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("eventbus: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("eventbus: open channel: %w", err)
	}
	if err := declareExchange(ch, p.exchange); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("eventbus: declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("eventbus: enable confirms: %w", err)
	}

	p.conn, p.ch = conn, ch
	p.logger.Info("connected to message broker", "exchange", p.exchange)
	return ch, nil
}

func (p *AMQPPublisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}

// AMQPConsumer consumes a durable queue with prefetch 1 and manual acks.
type AMQPConsumer struct {
	URL      string
	Exchange string

	// HandlerTimeout bounds each handler call. Defaults to DefaultHandlerTimeout.
	HandlerTimeout time.Duration

	// InitialAttempts and InitialWait control the first connection. When all
	// attempts fail Consume returns ErrBrokerUnavailable.
	InitialAttempts uint64
	InitialWait     time.Duration

	// MaxReconnectInterval caps the backoff between reconnects once the
	// consumer has been connected.
	MaxReconnectInterval time.Duration

	// OnState, when set, is told about connection changes: StateConsuming
	// once the queue is bound, StateReconnecting after a drop, and
	// StateUnavailable when the initial connection gives up.
	OnState func(state string)

	Logger *slog.Logger
}

// Consumer connection states reported through AMQPConsumer.OnState.
const (
	StateConnecting   = "connecting"
	StateConsuming    = "consuming"
	StateReconnecting = "reconnecting"
	StateUnavailable  = "unavailable"
)

func (c *AMQPConsumer) report(state string) {
	if c.OnState != nil {
		c.OnState(state)
	}
}

// NewAMQPConsumer returns a consumer with the default retry settings: three
// initial attempts two seconds apart, then reconnects with exponential
// backoff.
func NewAMQPConsumer(url string, logger *slog.Logger) *AMQPConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPConsumer{
		URL:                  url,
		Exchange:             ExchangeUserEvents,
		HandlerTimeout:       DefaultHandlerTimeout,
		InitialAttempts:      3,
		InitialWait:          2 * time.Second,
		MaxReconnectInterval: 30 * time.Second,
		Logger:               logger,
	}
}

// Consume blocks until ctx is cancelled. Connection loss after a successful
// start triggers reconnects; only the initial connection can fail Consume.
func (c *AMQPConsumer) Consume(ctx context.Context, sub Subscription, h Handler) error {
	log := c.Logger.With("queue", sub.Queue)
	c.report(StateConnecting)

	initial := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.InitialWait), max(c.InitialAttempts, 1)-1),
		ctx,
	)
	conn, err := backoff.RetryNotifyWithData(func() (*amqp.Connection, error) {
		return amqp.Dial(c.URL)
	}, initial, func(err error, wait time.Duration) {
		log.Warn("broker connection failed, retrying", slogx.Err(err), slog.Duration("wait", wait))
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.report(StateUnavailable)
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}

	for {
		err := c.session(ctx, conn, sub, h, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("consumer session ended, reconnecting", slogx.Err(err))
		c.report(StateReconnecting)

		reconnect := backoff.NewExponentialBackOff()
		reconnect.MaxInterval = c.MaxReconnectInterval
		reconnect.MaxElapsedTime = 0

		conn, err = backoff.RetryNotifyWithData(func() (*amqp.Connection, error) {
			return amqp.Dial(c.URL)
		}, backoff.WithContext(reconnect, ctx), func(err error, wait time.Duration) {
			log.Warn("broker reconnect failed", slogx.Err(err), slog.Duration("wait", wait))
		})
		if err != nil {
			return ctx.Err()
		}
		log.Info("reconnected to message broker")
	}
}

func (c *AMQPConsumer) session(
	ctx context.Context,
	conn *amqp.Connection,
	sub Subscription,
	h Handler,
	log *slog.Logger,
) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	exchange := c.Exchange
	if exchange == "" {
		exchange = ExchangeUserEvents
	}
	if err := declareExchange(ch, exchange); err != nil {
		return err
	}

	q, err := ch.QueueDeclare(
		sub.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}
	for _, rk := range sub.RoutingKeys {
		if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", rk, err)
		}
	}

	// One unacknowledged message per consumer.
	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(
		q.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	log.Info("consuming events", "routing_keys", sub.RoutingKeys)
	c.report(StateConsuming)

	ctx = slogx.WithContext(ctx, log)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr == nil {
				return errors.New("connection closed")
			}
			return amqpErr
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.settle(ctx, d, h, sub.Queue, log)
		}
	}
}

func (c *AMQPConsumer) settle(ctx context.Context, d amqp.Delivery, h Handler, queue string, log *slog.Logger) {
	outcome := Process(ctx, d.Body, h, c.HandlerTimeout)
	metrics.ConsumedEvents.WithLabelValues(queue, string(outcome)).Inc()

	var err error
	switch outcome {
	case OutcomeAck, OutcomeDrop:
		err = d.Ack(false)
	case OutcomeRequeue:
		err = d.Nack(false, true)
	}
	if err != nil {
		log.Error("failed to settle delivery", slogx.Err(err), "outcome", outcome, "message_id", d.MessageId)
	}
}
