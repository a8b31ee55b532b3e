package eventbus

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/metrics"
	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/slogx"
)

// ErrBusClosed is returned by a closed MemoryBus.
var ErrBusClosed = errors.New("eventbus: bus closed")

// MemoryBus is an in-process topic exchange with durable named queues. It
// follows the broker contract closely enough to exercise consumers in tests
// and single-process deployments: messages published before a queue is bound
// are dropped, consumers on the same queue compete, each consumer has one
// message in flight, and requeued messages go back to the head of the queue.
type MemoryBus struct {
	mu     sync.Mutex
	queues map[string]*memQueue
	closed bool

	// HandlerTimeout bounds each handler call. Defaults to DefaultHandlerTimeout.
	HandlerTimeout time.Duration

	// RedeliveryDelay is waited before a requeued message is offered again.
	RedeliveryDelay time.Duration
}

type memQueue struct {
	mu       sync.Mutex
	bindings []string
	msgs     [][]byte
	notify   chan struct{}
	inFlight int
}

// NewMemoryBus returns an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{queues: make(map[string]*memQueue)}
}

// Declare creates queue if needed and binds it to routingKeys. Consume calls
// it; tests may call it to bind before publishing.
func (b *MemoryBus) Declare(queue string, routingKeys ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[queue]
	if !ok {
		q = &memQueue{notify: make(chan struct{})}
		b.queues[queue] = q
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, rk := range routingKeys {
		if !slices.Contains(q.bindings, rk) {
			q.bindings = append(q.bindings, rk)
		}
	}
}

// Publish routes e to every queue with a matching binding.
func (b *MemoryBus) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := e.Encode()
	if err != nil {
		return err
	}
	return b.PublishRaw(e.Type, body)
}

// PublishRaw routes an arbitrary body, letting tests inject malformed
// messages.
func (b *MemoryBus) PublishRaw(routingKey string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrBusClosed
	}

	for _, q := range b.queues {
		if q.matches(routingKey) {
			q.push(append([]byte(nil), body...), false)
		}
	}
	return nil
}

// Pending returns the number of messages waiting or in flight on queue.
func (b *MemoryBus) Pending(queue string) int {
	b.mu.Lock()
	q, ok := b.queues[queue]
	b.mu.Unlock()
	if !ok {
		return 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs) + q.inFlight
}

// Consume processes messages from sub.Queue until ctx is done.
func (b *MemoryBus) Consume(ctx context.Context, sub Subscription, h Handler) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrBusClosed
	}

	b.Declare(sub.Queue, sub.RoutingKeys...)
	b.mu.Lock()
	q := b.queues[sub.Queue]
	b.mu.Unlock()

	log := slogx.FromContext(ctx).With("queue", sub.Queue)
	ctx = slogx.WithContext(ctx, log)

	for {
		body, err := q.take(ctx)
		if err != nil {
			return err
		}

		outcome := Process(ctx, body, h, b.HandlerTimeout)
		metrics.ConsumedEvents.WithLabelValues(sub.Queue, string(outcome)).Inc()

		if outcome == OutcomeRequeue {
			if b.RedeliveryDelay > 0 {
				select {
				case <-time.After(b.RedeliveryDelay):
				case <-ctx.Done():
				}
			}
			q.push(body, true)
		}
		q.done()
	}
}

// Close stops accepting publishes. Running consumers exit with their ctx.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

func (q *memQueue) matches(key string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, p := range q.bindings {
		if MatchTopic(p, key) {
			return true
		}
	}
	return false
}

// push appends (or prepends, for redelivery) and wakes every waiter.
func (q *memQueue) push(body []byte, front bool) {
	q.mu.Lock()
	if front {
		q.msgs = append([][]byte{body}, q.msgs...)
	} else {
		q.msgs = append(q.msgs, body)
	}
	close(q.notify)
	q.notify = make(chan struct{})
	q.mu.Unlock()
}

func (q *memQueue) take(ctx context.Context) ([]byte, error) {
	for {
		q.mu.Lock()
		if len(q.msgs) > 0 {
			body := q.msgs[0]
			q.msgs = q.msgs[1:]
			q.inFlight++
			q.mu.Unlock()
			return body, nil
		}
		wait := q.notify
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
	}
}

func (q *memQueue) done() {
	q.mu.Lock()
	q.inFlight--
	q.mu.Unlock()
}
