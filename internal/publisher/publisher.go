// Package publisher defines the event publishing contract shared by the
// broker-backed and in-memory implementations.
package publisher

import (
	"context"
	"errors"
)

// State is the connection state of a publisher.
type State string

// Publisher lifecycle states. The only transitions are
// disconnected -> connecting -> connected (Start) and
// connected -> disconnected (Stop). There is no automatic reconnect; a
// publisher observed disconnected after start-up is degraded.
const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// ErrNotConnected is returned in a Result when a publish is attempted while
// the publisher is not connected. Nothing is queued; the send is refused
// outright.
var ErrNotConnected = errors.New("publisher not connected")

// Result reports the outcome of one publish. Failures carry their cause so
// callers and tests can distinguish a refused send from a transport error.
type Result struct {
	Published bool
	MessageID string
	Err       error
}

// EventPublisher publishes keyed messages onto named topics. Messages with
// the same key on the same topic preserve send order; there is no ordering
// across keys. Delivery is at-least-once: consumers must dedupe by event id.
type EventPublisher interface {
	// Start establishes the broker connection. It is a single-call lifecycle
	// operation; starting twice is an error.
	Start(ctx context.Context) error
	// Publish sends one message. It never panics on transport failure; the
	// Result carries the outcome.
	Publish(ctx context.Context, topic string, key string, value []byte) Result
	// Stop drains in-flight messages and closes the connection.
	Stop(ctx context.Context) error
	// State reports the current connection state.
	State() State
}
