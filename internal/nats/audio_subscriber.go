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
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/loqalabs/loqa-soundio-go/internal/audio"
	"github.com/nats-io/nats.go"
)

// AudioStreamMessage carries a complete audio file to a node
type AudioStreamMessage struct {
	StreamID    string `json:"stream_id"`          // Unique identifier for this audio stream
	AudioData   []byte `json:"audio_data"`         // Complete audio file data
	AudioFormat string `json:"audio_format"`       // "mp3", "wav" or "pcm_f32le"
	SampleRate  int    `json:"sample_rate"`        // Needed for headerless pcm_f32le
	Channels    int    `json:"channels,omitempty"` // Needed for headerless pcm_f32le
	MessageType string `json:"message_type"`       // "response", "timer", "reminder", "system"
	Priority    int    `json:"priority"`           // 1=highest, 5=lowest
}

// ClipSink accepts decoded clips without blocking. *audio.Player is one.
type ClipSink interface {
	Enqueue(clip audio.Clip) error
}

// SubscriberStats counts handled messages
type SubscriberStats struct {
	Received     uint64
	Queued       uint64
	Dropped      uint64 // sink full
	DecodeErrors uint64
	Rejected     uint64 // sink refused the clip for another reason
}

// AudioSubscriber decodes audio messages and hands them to a sink
type AudioSubscriber struct {
	natsConn Connection
	subjects Subjects
	sink     ClipSink

	received     atomic.Uint64
	queued       atomic.Uint64
	dropped      atomic.Uint64
	decodeErrors atomic.Uint64
	rejected     atomic.Uint64
}

// NewAudioSubscriber creates a subscriber on an existing connection
func NewAudioSubscriber(natsConn Connection, subjects Subjects, sink ClipSink) *AudioSubscriber {
	return &AudioSubscriber{
		natsConn: natsConn,
		subjects: subjects,
		sink:     sink,
	}
}

// Start subscribes to the node and broadcast subjects
func (as *AudioSubscriber) Start() error {
	nodeTopic := as.subjects.Audio()
	if _, err := as.natsConn.Subscribe(nodeTopic, as.handleAudioMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nodeTopic, err)
	}

	broadcastTopic := as.subjects.Broadcast()
	if _, err := as.natsConn.Subscribe(broadcastTopic, as.handleAudioMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", broadcastTopic, err)
	}

	log.Printf("🎧 Subscribed to audio topics: %s, %s", nodeTopic, broadcastTopic)
	return nil
}

// handleAudioMessage decodes one complete audio file and queues it
func (as *AudioSubscriber) handleAudioMessage(msg *nats.Msg) {
	as.received.Add(1)

	var streamMsg AudioStreamMessage
	if err := json.Unmarshal(msg.Data, &streamMsg); err != nil {
		as.decodeErrors.Add(1)
		log.Printf("❌ Failed to unmarshal audio stream message: %v", err)
		return
	}

	log.Printf("📥 Received complete audio file: stream=%s, size=%d bytes, type=%s, format=%s",
		streamMsg.StreamID, len(streamMsg.AudioData), streamMsg.MessageType, streamMsg.AudioFormat)

	clip, err := audio.Decode(streamMsg.AudioFormat, streamMsg.AudioData, streamMsg.SampleRate, streamMsg.Channels)
	if err != nil {
		as.decodeErrors.Add(1)
		log.Printf("❌ Failed to decode audio file %s: %v", streamMsg.StreamID, err)
		return
	}

	switch err := as.sink.Enqueue(clip); {
	case err == nil:
		as.queued.Add(1)
		log.Printf("🔊 Queued audio file for playback: %s (%s)", streamMsg.StreamID, clip.Duration())
	case errors.Is(err, audio.ErrQueueFull):
		as.dropped.Add(1)
		log.Printf("⚠️  Playback queue full, dropping audio file: %s", streamMsg.StreamID)
	default:
		as.rejected.Add(1)
		log.Printf("❌ Cannot play audio file %s: %v", streamMsg.StreamID, err)
	}
}

func (as *AudioSubscriber) Stats() SubscriberStats {
	return SubscriberStats{
		Received:     as.received.Load(),
		Queued:       as.queued.Load(),
		Dropped:      as.dropped.Load(),
		DecodeErrors: as.decodeErrors.Load(),
		Rejected:     as.rejected.Load(),
	}
}

// Close closes the NATS connection
func (as *AudioSubscriber) Close() {
	if as.natsConn != nil {
		as.natsConn.Close()
		log.Println("🔌 NATS connection closed")
	}
}
