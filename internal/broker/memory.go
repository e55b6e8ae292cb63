package broker

import (
	"context"
	"fmt"
	"sync"
)

// InMemory is a process-local Broker with the same dispatch semantics as the
// AMQP client: exact-string topic match, fan-out to every registered handler,
// asynchronous delivery. It backs tests and single-process local runs.
type InMemory struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	handlers map[string][]Handler
	closed   bool
	wg       sync.WaitGroup
}

func NewInMemory() *InMemory {
	ctx, cancel := context.WithCancel(context.Background())
	return &InMemory{
		ctx:      ctx,
		cancel:   cancel,
		handlers: make(map[string][]Handler),
	}
}

// Publish delivers the payload to every handler registered for the topic.
// Delivery happens on a separate goroutine; Publish returns as soon as the
// message is handed off, matching the transport client's contract.
func (b *InMemory) Publish(_ context.Context, topic string, body []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("broker is closed")
	}
	handlers := make([]Handler, len(b.handlers[topic]))
	copy(handlers, b.handlers[topic])
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		for _, h := range handlers {
			// Handler errors are dropped here the way the AMQP dispatcher
			// drops them after logging; the in-memory broker has no logger.
			_ = h(b.ctx, body)
		}
	}()

	return nil
}

func (b *InMemory) Subscribe(topic string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("broker is closed")
	}

	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

// Close stops accepting publishes and cancels the handler context. Deliveries
// already in flight run to completion.
func (b *InMemory) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	return nil
}
