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
	"sync"

	"github.com/nats-io/nats.go"
)

type publishedMsg struct {
	subject string
	data    []byte
}

// MockConnection records subscriptions and publishes
type MockConnection struct {
	mu          sync.RWMutex
	subscribers map[string][]nats.MsgHandler
	published   []publishedMsg
	connected   bool
	errors      map[string]error
	publishErr  error
	closed      int
}

func NewMockConnection() *MockConnection {
	return &MockConnection{
		subscribers: make(map[string][]nats.MsgHandler),
		connected:   true,
		errors:      make(map[string]error),
	}
}

func (m *MockConnection) Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil, nats.ErrConnectionClosed
	}
	if err, exists := m.errors[subject]; exists {
		return nil, err
	}
	m.subscribers[subject] = append(m.subscribers[subject], handler)
	return &nats.Subscription{}, nil
}

func (m *MockConnection) Publish(subject string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nats.ErrConnectionClosed
	}
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, publishedMsg{subject: subject, data: append([]byte(nil), data...)})
	return nil
}

// Deliver runs the subject's handlers synchronously
func (m *MockConnection) Deliver(subject string, data []byte) {
	m.mu.RLock()
	handlers := m.subscribers[subject]
	m.mu.RUnlock()

	msg := &nats.Msg{Subject: subject, Data: data}
	for _, handler := range handlers {
		handler(msg)
	}
}

func (m *MockConnection) Published() []publishedMsg {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]publishedMsg(nil), m.published...)
}

func (m *MockConnection) Subjects() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	subjects := make([]string, 0, len(m.subscribers))
	for s := range m.subscribers {
		subjects = append(subjects, s)
	}
	return subjects
}

func (m *MockConnection) SetError(subject string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[subject] = err
}

func (m *MockConnection) SetPublishError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishErr = err
}

func (m *MockConnection) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.closed++
}
