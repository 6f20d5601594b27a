// Package pubsub implements publisher.EventPublisher on Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/baytalhikmah/pipeline/internal/ingest"
	"github.com/baytalhikmah/pipeline/internal/publisher"
)

// Config identifies the Pub/Sub project to publish into. Endpoint overrides
// the broker address, mainly for emulators.
type Config struct {
	ProjectID string
	Endpoint  string
}

// Publisher publishes keyed events onto Pub/Sub topics. Ordering keys give
// per-key send-order preservation; delivery is at-least-once.
type Publisher struct {
	cfg    Config
	logger *zap.Logger

	mu     sync.Mutex
	state  publisher.State
	client *gcppubsub.Client
	topics map[string]*gcppubsub.Topic
}

// New creates a Publisher in the disconnected state.
func New(cfg Config, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		cfg:    cfg,
		logger: logger,
		state:  publisher.StateDisconnected,
		topics: make(map[string]*gcppubsub.Topic),
	}
}

// Start establishes the broker connection. Calling Start on anything other
// than a fresh publisher is an error.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != publisher.StateDisconnected {
		return fmt.Errorf("start publisher: already %s", p.state)
	}
	p.state = publisher.StateConnecting

	var opts []option.ClientOption
	if p.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.cfg.Endpoint))
	}
	client, err := gcppubsub.NewClient(ctx, p.cfg.ProjectID, opts...)
	if err != nil {
		p.state = publisher.StateDisconnected
		return fmt.Errorf("connect pubsub: %w", err)
	}
	p.client = client
	p.state = publisher.StateConnected
	p.logger.Info("publisher started", zap.String("project", p.cfg.ProjectID))
	return nil
}

// Publish sends one keyed message and waits for broker acknowledgement.
// While not connected it refuses the send without queuing.
func (p *Publisher) Publish(ctx context.Context, topic string, key string, value []byte) publisher.Result {
	p.mu.Lock()
	if p.state != publisher.StateConnected {
		p.mu.Unlock()
		p.logger.Error("cannot publish: not connected", zap.String("topic", topic))
		ingest.PublishFailures.Inc()
		return publisher.Result{Err: publisher.ErrNotConnected}
	}
	t := p.topic(topic)
	p.mu.Unlock()

	res := t.Publish(ctx, &gcppubsub.Message{
		Data:        value,
		OrderingKey: key,
		Attributes:  map[string]string{"event_id": key},
	})
	id, err := res.Get(ctx)
	if err != nil {
		// An ordering-key error pauses the key until resumed.
		t.ResumePublish(key)
		p.logger.Error("publish failed", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
		ingest.PublishFailures.Inc()
		return publisher.Result{Err: fmt.Errorf("publish to %s: %w", topic, err)}
	}
	p.logger.Info("message published", zap.String("topic", topic), zap.String("key", key))
	ingest.PublishesTotal.Inc()
	return publisher.Result{Published: true, MessageID: id}
}

// Stop flushes every topic publisher and closes the client.
func (p *Publisher) Stop(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != publisher.StateConnected {
		return nil
	}
	for _, t := range p.topics {
		t.Stop()
	}
	err := p.client.Close()
	p.client = nil
	p.topics = make(map[string]*gcppubsub.Topic)
	p.state = publisher.StateDisconnected
	p.logger.Info("publisher stopped")
	if err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}

// State reports the current connection state.
func (p *Publisher) State() publisher.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// topic returns the cached topic publisher, creating it on first use.
// Callers must hold p.mu.
func (p *Publisher) topic(name string) *gcppubsub.Topic {
	if t, ok := p.topics[name]; ok {
		return t
	}
	t := p.client.Topic(name)
	t.EnableMessageOrdering = true
	p.topics[name] = t
	return t
}
