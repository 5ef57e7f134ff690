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
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPublisher_Publish(t *testing.T) {
	conn := NewMockConnection()
	pub := NewEventPublisher(conn, testSubjects, 8)
	pub.Start()

	pub.Notify(DeviceEvent{Type: EventDevicesChanged, Backend: "Dummy", InputDevices: 1, OutputDevices: 2})
	pub.Notify(DeviceEvent{Type: EventBackendDisconnected, Error: "backend disconnected"})
	pub.Close()

	published := conn.Published()
	require.Len(t, published, 2)
	assert.Equal(t, "soundio.events.kitchen", published[0].subject)

	var event DeviceEvent
	require.NoError(t, json.Unmarshal(published[0].data, &event))
	assert.Equal(t, EventDevicesChanged, event.Type)
	assert.Equal(t, "kitchen", event.Node, "node is filled in")
	assert.Equal(t, 2, event.OutputDevices)
	assert.False(t, event.Timestamp.IsZero())

	assert.Equal(t, uint64(2), pub.Stats().Published)
}

func TestEventPublisher_QueueFull(t *testing.T) {
	conn := NewMockConnection()
	pub := NewEventPublisher(conn, testSubjects, 2)

	// Not started, so nothing drains the queue
	for range 5 {
		pub.Notify(DeviceEvent{Type: EventXrun})
	}
	assert.Equal(t, uint64(3), pub.Stats().Dropped)

	pub.Close()
	assert.Len(t, conn.Published(), 2, "queued events are flushed on close")
}

func TestEventPublisher_NotifyAfterClose(t *testing.T) {
	pub := NewEventPublisher(NewMockConnection(), testSubjects, 2)
	pub.Start()
	pub.Close()
	pub.Close()

	assert.NotPanics(t, func() { pub.Notify(DeviceEvent{Type: EventXrun}) })
	assert.Equal(t, uint64(1), pub.Stats().Dropped)
}

func TestEventPublisher_PublishError(t *testing.T) {
	conn := NewMockConnection()
	conn.SetPublishError(errors.New("slow consumer"))
	pub := NewEventPublisher(conn, testSubjects, 4)
	pub.Start()
	pub.Notify(DeviceEvent{Type: EventStreamError, Error: "streaming"})
	pub.Close()

	assert.Equal(t, uint64(1), pub.Stats().Failed)
	assert.Zero(t, pub.Stats().Published)
}

func TestEventPublisher_ConcurrentNotify(t *testing.T) {
	conn := NewMockConnection()
	pub := NewEventPublisher(conn, testSubjects, 1024)
	pub.Start()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				pub.Notify(DeviceEvent{Type: EventXrun})
			}
		}()
	}
	wg.Wait()
	pub.Close()

	stats := pub.Stats()
	assert.Equal(t, uint64(400), stats.Published+stats.Dropped)
	assert.Len(t, conn.Published(), int(stats.Published))
}

func TestDial(t *testing.T) {
	t.Run("connection_failure", func(t *testing.T) {
		conn, err := Dial(context.Background(), "nats://127.0.0.1:1", DialOptions{Attempts: 2, RetryDelay: 10 * time.Millisecond})
		assert.Error(t, err)
		assert.Nil(t, conn)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Dial(ctx, "nats://127.0.0.1:1", DialOptions{Attempts: 3, RetryDelay: time.Hour})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
