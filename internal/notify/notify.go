// Package notify publishes page lifecycle events so other services can react
// to rebuilt or removed pages.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// EventType names what happened to a page.
type EventType string

const (
	PageRendered EventType = "rendered"
	PageRemoved  EventType = "removed"
	BuildDone    EventType = "build"
)

// Event is the published message body.
type Event struct {
	Type      EventType `json:"type"`
	BuildID   string    `json:"build_id,omitempty"`
	Page      string    `json:"page,omitempty"`
	Path      string    `json:"path,omitempty"`
	Rendered  int       `json:"rendered,omitempty"`
	Failed    int       `json:"failed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends events. Implementations must be safe to call from the
// build goroutine without blocking it for long.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close()
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close()                               {}

type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes events to "<subject>.<type>".
type NATSPublisher struct {
	conn    conn
	subject string
	now     func() time.Time
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("nocms"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher connected", "url", url, "subject", subject)
	return newPublisher(nc, subject), nil
}

func newPublisher(c conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: c, subject: subject, now: time.Now}
}

// Publish marshals ev and publishes it, flushing so the caller learns about
// connection problems.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = p.now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	subject := p.subject + "." + string(ev.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() { p.conn.Close() }
