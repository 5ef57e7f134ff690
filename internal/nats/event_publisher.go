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
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Device event types
const (
	EventDevicesChanged      = "devices_changed"
	EventBackendDisconnected = "backend_disconnected"
	EventStreamError         = "stream_error"
	EventXrun                = "xrun"
)

// DeviceEvent reports a change in the node's audio devices or streams
type DeviceEvent struct {
	Type          string    `json:"type"`
	Node          string    `json:"node"`
	Backend       string    `json:"backend,omitempty"`
	Device        string    `json:"device,omitempty"`
	Error         string    `json:"error,omitempty"`
	InputDevices  int       `json:"input_devices"`
	OutputDevices int       `json:"output_devices"`
	Timestamp     time.Time `json:"timestamp"`
}

// PublisherStats counts events
type PublisherStats struct {
	Published uint64
	Dropped   uint64 // queue full or publisher closed
	Failed    uint64 // marshal or publish errors
}

// EventPublisher publishes device events from a queue. Notify never
// blocks, so it can run inside libsoundio callbacks.
type EventPublisher struct {
	natsConn Connection
	subjects Subjects
	events   chan DeviceEvent

	startOnce sync.Once
	closeOnce sync.Once
	closed    atomic.Bool
	stop      chan struct{}
	done      chan struct{}

	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewEventPublisher creates a publisher; Start launches its worker
func NewEventPublisher(natsConn Connection, subjects Subjects, capacity int) *EventPublisher {
	if capacity <= 0 {
		capacity = 64
	}
	return &EventPublisher{
		natsConn: natsConn,
		subjects: subjects,
		events:   make(chan DeviceEvent, capacity),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (p *EventPublisher) Start() {
	p.startOnce.Do(func() {
		go p.run()
		log.Printf("📡 Publishing device events to %s", p.subjects.Events())
	})
}

// Notify queues an event, dropping it when the queue is full
func (p *EventPublisher) Notify(event DeviceEvent) {
	if p.closed.Load() {
		p.dropped.Add(1)
		return
	}
	if event.Node == "" {
		event.Node = p.subjects.Node
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.events <- event:
	default:
		p.dropped.Add(1)
	}
}

func (p *EventPublisher) run() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			// Flush whatever was queued before Close
			for {
				select {
				case event := <-p.events:
					p.publish(event)
				default:
					return
				}
			}
		case event := <-p.events:
			p.publish(event)
		}
	}
}

func (p *EventPublisher) publish(event DeviceEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.failed.Add(1)
		log.Printf("❌ Failed to marshal device event: %v", err)
		return
	}
	if err := p.natsConn.Publish(p.subjects.Events(), data); err != nil {
		p.failed.Add(1)
		log.Printf("❌ Failed to publish device event %s: %v", event.Type, err)
		return
	}
	p.published.Add(1)
}

func (p *EventPublisher) Stats() PublisherStats {
	return PublisherStats{
		Published: p.published.Load(),
		Dropped:   p.dropped.Load(),
		Failed:    p.failed.Load(),
	}
}

// Close publishes queued events and stops the worker. It does not close
// the connection.
func (p *EventPublisher) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.Start()
		close(p.stop)
		<-p.done
	})
}
