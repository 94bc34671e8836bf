// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/poiesic/skumatch/core"
)

// DefaultSubject is the subject snapshot events are published on.
const DefaultSubject = "skumatch.snapshot.ready"

var (
	// ErrConnectionRequired is returned when a nil connection is supplied.
	ErrConnectionRequired = errors.New("nats connection required")

	// ErrPublisherClosed is returned when publishing after Close.
	ErrPublisherClosed = errors.New("publisher closed")
)

// Publisher sends SnapshotEvents as JSON messages.
type Publisher struct {
	conn    *nats.Conn
	subject string
	owned   bool
	logger  *slog.Logger
}

// Connect dials url and returns a Publisher owning the connection.
func Connect(url, subject string, opts ...nats.Option) (*Publisher, error) {
	opts = append([]nats.Option{
		nats.Name("skumatch"),
		nats.Timeout(5 * time.Second),
	}, opts...)
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	p, err := NewPublisher(conn, subject)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.owned = true
	return p, nil
}

// NewPublisher publishes on an existing connection. The caller keeps
// ownership of conn. An empty subject selects DefaultSubject.
func NewPublisher(conn *nats.Conn, subject string) (*Publisher, error) {
	if conn == nil {
		return nil, ErrConnectionRequired
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  slog.Default().With("component", "snapshot-notifier", "subject", subject),
	}, nil
}

// Subject returns the subject events are published on.
func (p *Publisher) Subject() string {
	return p.subject
}

// SnapshotReady publishes event and waits for the server to acknowledge the
// flush, bounded by ctx.
func (p *Publisher) SnapshotReady(ctx context.Context, event core.SnapshotEvent) error {
	if p.conn.IsClosed() {
		return ErrPublisherClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish snapshot event: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, nats.DefaultTimeout)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush snapshot event: %w", err)
	}

	p.logger.Info("snapshot announced", "generation", event.Generation, "items", event.Items)
	return nil
}

// Close drains and closes the connection if the publisher owns it.
func (p *Publisher) Close() error {
	if !p.owned || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Drain()
}

// Subscribe calls handler for every SnapshotEvent published on subject.
// Malformed messages are logged and dropped.
func Subscribe(conn *nats.Conn, subject string, handler func(core.SnapshotEvent)) (*nats.Subscription, error) {
	if conn == nil {
		return nil, ErrConnectionRequired
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return conn.Subscribe(subject, func(msg *nats.Msg) {
		var event core.SnapshotEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			slog.Warn("dropping malformed snapshot event", "subject", msg.Subject, "err", err)
			return
		}
		handler(event)
	})
}
