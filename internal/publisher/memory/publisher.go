// Package memory contains an in-memory publisher for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/baytalhikmah/pipeline/internal/publisher"
)

// PublishedMessage captures one publish call.
type PublishedMessage struct {
	Topic string
	Key   string
	Value []byte
}

// Publisher stores published messages for inspection. It follows the same
// state machine as the broker-backed publisher.
type Publisher struct {
	mu       sync.RWMutex
	state    publisher.State
	failNext error
	messages []PublishedMessage
}

// New returns a memory Publisher in the disconnected state.
func New() *Publisher {
	return &Publisher{state: publisher.StateDisconnected}
}

// Start transitions to connected. Starting twice is an error.
func (p *Publisher) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != publisher.StateDisconnected {
		return fmt.Errorf("start publisher: already %s", p.state)
	}
	p.state = publisher.StateConnected
	return nil
}

// Publish records the message and returns a pseudo ID.
func (p *Publisher) Publish(_ context.Context, topic string, key string, value []byte) publisher.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != publisher.StateConnected {
		return publisher.Result{Err: publisher.ErrNotConnected}
	}
	if p.failNext != nil {
		err := p.failNext
		p.failNext = nil
		return publisher.Result{Err: err}
	}
	p.messages = append(p.messages, PublishedMessage{
		Topic: topic,
		Key:   key,
		Value: append([]byte(nil), value...),
	})
	return publisher.Result{Published: true, MessageID: fmt.Sprintf("memory-%d", len(p.messages))}
}

// Stop transitions back to disconnected.
func (p *Publisher) Stop(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = publisher.StateDisconnected
	return nil
}

// State reports the current connection state.
func (p *Publisher) State() publisher.State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// FailNext makes the next publish fail with err.
func (p *Publisher) FailNext(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = err
}

// Messages returns the recorded publishes.
func (p *Publisher) Messages() []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}
