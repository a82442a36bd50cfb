package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/routegen/internal/retry"
)

// Conn is the subset of *nats.Conn used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes run events as JSON on a subject.
type NATSPublisher struct {
	conn    Conn
	subject string
	logger  *slog.Logger
	retry   retry.Policy
}

// NewNATSPublisher connects to url and publishes on subject.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		return nil, fmt.Errorf("nats subject is required")
	}
	conn, err := nats.Connect(url,
		nats.Name("routegen"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS publisher initialized", "url", url, "subject", subject)
	return NewNATSPublisherWithConn(conn, subject), nil
}

// NewNATSPublisherWithConn wraps an existing connection.
func NewNATSPublisherWithConn(conn Conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject, logger: slog.Default()}
}

// WithLogger sets the logger.
func (p *NATSPublisher) WithLogger(l *slog.Logger) *NATSPublisher {
	if l != nil {
		p.logger = l
	}
	return p
}

// WithRetry retries failed publishes with p. Without it a publish is tried once.
func (p *NATSPublisher) WithRetry(policy retry.Policy) *NATSPublisher {
	p.retry = policy
	return p
}

// PublishRun marshals event and waits for the server to acknowledge the flush.
func (p *NATSPublisher) PublishRun(ctx context.Context, event *RunEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	attempt := 0
	err = p.retry.Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			p.logger.Warn("Retrying run event publish", "run_id", event.RunID, "attempt", attempt)
		}
		return p.publish(ctx, data)
	})
	if err != nil {
		return err
	}

	p.logger.Debug("Published run event", "run_id", event.RunID, "status", event.Status, "subject", p.subject)
	return nil
}

func (p *NATSPublisher) publish(ctx context.Context, data []byte) error {
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	return nil
}

// Close closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
