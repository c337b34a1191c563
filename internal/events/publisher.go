// Package events publishes build lifecycle events to NATS.
//
// Publishing is best effort: a build never fails because the broker is
// unreachable. When no broker URL is configured the publisher is nil-safe
// and every call is a no-op.
package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/anrosca/softice/internal/logfields"
)

// Event types emitted over the build lifecycle.
const (
	TypeBuildStarted   = "build.started"
	TypeBuildCompleted = "build.completed"
	TypeBuildFailed    = "build.failed"
	TypeSitePublished  = "site.published"
)

// Event is the JSON payload published per lifecycle transition.
type Event struct {
	Type      string            `json:"type"`
	BuildID   string            `json:"build_id"`
	Timestamp time.Time         `json:"timestamp"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// Publisher publishes events on a single subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials the broker. An empty URL disables publishing (nil Publisher).
func Connect(url, subject string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := nats.Connect(url,
		nats.Name("softice"),
		nats.MaxReconnects(3),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, err
	}
	slog.Info("Connected to event broker", logfields.URL(url), slog.String("subject", subject))
	return &Publisher{conn: conn, subject: subject}, nil
}

// Publish emits one event. Failures are logged, never returned.
func (p *Publisher) Publish(eventType, buildID string, detail map[string]string) {
	if p == nil || p.conn == nil {
		return
	}
	payload, err := json.Marshal(Event{
		Type:      eventType,
		BuildID:   buildID,
		Timestamp: time.Now().UTC(),
		Detail:    detail,
	})
	if err != nil {
		slog.Warn("Failed to encode build event", logfields.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		slog.Warn("Failed to publish build event",
			slog.String("type", eventType),
			logfields.BuildID(buildID),
			logfields.Error(err))
	}
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
