// Package publisher fans audit events out to a store, synchronously or
// through a bounded buffer drained by a single worker.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	audit "nicgate/pkg/platform/audit"
	"nicgate/pkg/platform/circuit"
	"nicgate/pkg/platform/sentinel"
)

// ErrCircuitOpen is returned while the breaker keeps events away from a
// failing store.
var ErrCircuitOpen = fmt.Errorf("audit store circuit open: %w", sentinel.ErrUnavailable)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event audit.Event) error
}

// Publisher emits audit events to a Store.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	breaker *circuit.Breaker

	buffer chan audit.Event
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with a buffer of size n.
// n <= 0 keeps sync mode.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan audit.Event, n)
		}
	}
}

// WithLogger sets the logger used for store failures in async mode.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithCircuitBreaker stops calling the store while it keeps failing. Events
// arriving while the breaker is open are dropped with ErrCircuitOpen.
func WithCircuitBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

// NewPublisher builds a publisher over store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records event, stamping it with the current time when unset. In async
// mode a full buffer or a closed publisher writes the event synchronously.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.buffer == nil {
		return p.append(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return p.append(ctx, event)
	}

	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return p.append(ctx, event)
	}
}

// Close stops accepting async events and drains the buffer.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.buffer != nil {
		close(p.buffer)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.buffer {
		if err := p.append(context.Background(), event); err != nil {
			p.logger.Error("failed to append audit event",
				"action", event.Action,
				"error", err,
			)
		}
	}
}

func (p *Publisher) append(ctx context.Context, event audit.Event) error {
	if p.breaker == nil {
		return p.store.Append(ctx, event)
	}
	if !p.breaker.Allow() {
		return ErrCircuitOpen
	}
	if err := p.store.Append(ctx, event); err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.Warn("audit store circuit opened", "breaker", p.breaker.Name(), "error", err)
		}
		return err
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.Info("audit store circuit closed", "breaker", p.breaker.Name())
	}
	return nil
}
