package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/metrics"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// Notifier publishes events as a best-effort side channel. Notify never
// blocks the caller and never reports failure: each event is published from
// a background goroutine with bounded retry, and dropped events are logged
// and counted.
type Notifier struct {
	pub    Publisher
	source string
	logger *slog.Logger

	// MaxAttempts per event, including the first. Defaults to 3.
	MaxAttempts uint64
	// InitialInterval is the first retry delay; later delays grow exponentially.
	InitialInterval time.Duration
	// AttemptTimeout bounds each publish call.
	AttemptTimeout time.Duration

	Now func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewNotifier returns a notifier stamping events with source.
func NewNotifier(pub Publisher, source string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		pub:             pub,
		source:          source,
		logger:          logger,
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		AttemptTimeout:  5 * time.Second,
		Now:             time.Now,
	}
}

// Notify schedules eventType with payload data for publication.
func (n *Notifier) Notify(ctx context.Context, eventType string, data any) {
	log := slogx.FromContext(ctx)

	e, err := NewEvent(eventType, n.source, data, n.Now())
	if err != nil {
		log.Error("event not published", slogx.Err(err), "event_type", eventType)
		metrics.PublishFailures.WithLabelValues(eventType).Inc()
		return
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		log.Warn("notifier closed, event dropped", "event_type", eventType)
		metrics.PublishFailures.WithLabelValues(eventType).Inc()
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()
		n.publish(e)
	}()
}

func (n *Notifier) publish(e Event) {
	log := n.logger.With("event_type", e.Type)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = n.InitialInterval
	policy.MaxElapsedTime = 0

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), n.AttemptTimeout)
		defer cancel()
		return n.pub.Publish(ctx, e)
	}, backoff.WithMaxRetries(policy, max(n.MaxAttempts, 1)-1))

	if err != nil {
		log.Error("event publish failed, dropping", slogx.Err(err), "attempts", attempt)
		metrics.PublishFailures.WithLabelValues(e.Type).Inc()
		return
	}
	log.Debug("event published", "attempts", attempt)
}

// Close stops accepting events and waits for in-flight ones until ctx ends.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
