/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package nats

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Connection is the part of *nats.Conn the publisher and subscriber use,
// for dependency injection
type Connection interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	Publish(subject string, data []byte) error
	Close()
}

// ConnectionAdapter adapts *nats.Conn to the Connection interface
type ConnectionAdapter struct {
	conn *nats.Conn
}

func NewConnectionAdapter(conn *nats.Conn) *ConnectionAdapter {
	return &ConnectionAdapter{conn: conn}
}

func (a *ConnectionAdapter) Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error) {
	return a.conn.Subscribe(subject, cb)
}

func (a *ConnectionAdapter) Publish(subject string, data []byte) error {
	return a.conn.Publish(subject, data)
}

// Close flushes pending publishes before closing
func (a *ConnectionAdapter) Close() {
	if a.conn == nil {
		return
	}
	_ = a.conn.Flush()
	a.conn.Close()
}

// DialOptions controls Dial
type DialOptions struct {
	Name       string
	Attempts   int
	RetryDelay time.Duration
}

// Dial connects to a NATS server, retrying until attempts run out or ctx
// is cancelled
func Dial(ctx context.Context, url string, opts DialOptions) (*ConnectionAdapter, error) {
	if opts.Attempts <= 0 {
		opts.Attempts = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}

	var nc *nats.Conn
	var err error

	for i := 0; i < opts.Attempts; i++ {
		nc, err = nats.Connect(url, nats.Name(opts.Name), nats.MaxReconnects(-1))
		if err == nil {
			break
		}
		log.Printf("⚠️  Failed to connect to NATS (attempt %d/%d): %v", i+1, opts.Attempts, err)
		if i == opts.Attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS after %d attempts: %w", opts.Attempts, err)
	}

	log.Printf("✅ Connected to NATS at %s", url)
	return NewConnectionAdapter(nc), nil
}

// Subjects names the subjects of one node under a prefix
type Subjects struct {
	Prefix string
	Node   string
}

// Audio is the node's playback subject
func (s Subjects) Audio() string {
	return s.join("audio", s.Node)
}

// Broadcast is the playback subject shared by every node
func (s Subjects) Broadcast() string {
	return s.join("audio", "broadcast")
}

// Events carries device events published by the node
func (s Subjects) Events() string {
	return s.join("events", s.Node)
}

func (s Subjects) join(kind, leaf string) string {
	if s.Prefix == "" {
		return kind + "." + leaf
	}
	return s.Prefix + "." + kind + "." + leaf
}
