package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// DefaultHandlerTimeout bounds a single handler invocation. A timeout counts
// as a failure and the message is redelivered.
const DefaultHandlerTimeout = 30 * time.Second

// MaxTimeoutGrace caps how long Process waits, after cancelling an overrunning
// handler, for it to return. The grace is the handler timeout itself when that
// is shorter.
const MaxTimeoutGrace = 5 * time.Second

// Publisher sends events to the exchange, routed by event type.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Handler processes one event. Returning an error requeues the message;
// returning an error wrapping ErrMalformedEvent drops it.
type Handler func(ctx context.Context, e Event) error

// Subscription names a durable queue and the routing keys bound to it.
type Subscription struct {
	Queue       string
	RoutingKeys []string
}

// Consumer delivers messages for a subscription one at a time. Consume blocks
// until ctx is cancelled or the consumer gives up.
type Consumer interface {
	Consume(ctx context.Context, sub Subscription, h Handler) error
}

// Outcome is what a consumer does with a delivery after the handler ran.
type Outcome string

const (
	OutcomeAck     Outcome = "ack"
	OutcomeRequeue Outcome = "requeue"
	OutcomeDrop    Outcome = "drop"
)

// Process decodes body and runs h under timeout. An overrunning handler has
// its context cancelled and is given a bounded grace period to return before
// the message is requeued, so the next delivery does not overlap it. A handler
// that ignores cancellation is abandoned once the grace period ends.
func Process(ctx context.Context, body []byte, h Handler, timeout time.Duration) Outcome {
	log := slogx.FromContext(ctx)

	e, err := Decode(body)
	if err != nil {
		log.Error("dropping malformed event", slogx.Err(err), slog.Int("bytes", len(body)))
		return OutcomeDrop
	}
	log = log.With("event_type", e.Type, "source_service", e.SourceService)

	if timeout <= 0 {
		timeout = DefaultHandlerTimeout
	}
	hctx, cancel := context.WithTimeout(slogx.WithContext(ctx, log), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.New("eventbus: handler panicked")
				log.Error("event handler panicked", slog.Any("panic", r))
			}
		}()
		done <- h(hctx, e)
	}()

	select {
	case err := <-done:
		switch {
		case err == nil:
			return OutcomeAck
		case errors.Is(err, ErrMalformedEvent):
			log.Error("dropping unprocessable event", slogx.Err(err))
			return OutcomeDrop
		default:
			log.Warn("event handler failed, requeueing", slogx.Err(err))
			return OutcomeRequeue
		}
	case <-hctx.Done():
	}

	grace := min(timeout, MaxTimeoutGrace)
	select {
	case <-done:
		log.Warn("event handler timed out, requeueing", slog.Duration("timeout", timeout))
	case <-time.After(grace):
		log.Error("event handler ignored cancellation, requeueing while it runs",
			slog.Duration("timeout", timeout), slog.Duration("grace", grace))
	}
	return OutcomeRequeue
}

// NopPublisher logs events instead of sending them. It stands in when no
// broker is configured.
type NopPublisher struct {
	Logger *slog.Logger
}

func (p NopPublisher) Publish(ctx context.Context, e Event) error {
	l := p.Logger
	if l == nil {
		l = slogx.FromContext(ctx)
	}
	l.Info("event not sent, no broker configured", "event_type", e.Type)
	return nil
}

func (NopPublisher) Close() error { return nil }
