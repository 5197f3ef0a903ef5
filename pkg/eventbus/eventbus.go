// Package eventbus publishes domain events to NATS.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/richxcame/demand-forecasting/pkg/config"
)

// Publisher publishes a JSON-encoded event on a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, event interface{}) error
}

// NATSPublisher publishes events over a NATS connection
type NATSPublisher struct {
	conn *nats.Conn
}

// Connect opens a NATS connection for cfg
func Connect(cfg *config.NATSConfig, serviceName string) (*NATSPublisher, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(serviceName),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(10),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// Conn exposes the underlying connection for health checks
func (p *NATSPublisher) Conn() *nats.Conn {
	return p.conn
}

// Publish encodes event as JSON and publishes it on subject
func (p *NATSPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the connection
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// NopPublisher drops every event
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
