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

package audio

import (
	"errors"
	"sync/atomic"
	"time"
)

// AudioBackend provides an abstraction layer over an audio engine.
// This enables dependency injection and makes testing hardware-independent
type AudioBackend interface {
	// Name identifies the engine ("soundio", "portaudio", "mock")
	Name() string

	// Initialize the audio subsystem
	Initialize() error

	// Terminate the audio subsystem, closing streams it created
	Terminate() error

	// CreateInputStream opens a capture stream. The callback receives
	// interleaved input and a nil output.
	CreateInputStream(params StreamParams) (StreamInterface, error)

	// CreateOutputStream opens a playback stream. The callback receives a
	// nil input and must fill the interleaved output.
	CreateOutputStream(params StreamParams) (StreamInterface, error)
}

// StreamInterface abstracts audio stream operations
type StreamInterface interface {
	// Start the audio stream, or resume it after Stop
	Start() error

	// Stop pauses the stream; Start resumes it
	Stop() error

	// Close the audio stream and release resources
	Close() error

	// IsActive returns true if the stream is currently running
	IsActive() bool

	// Stats returns callback counters
	Stats() StreamStats
}

// StreamCallback is called on the audio thread when audio data is available
// or needed. It must not block. Returning an error plays silence for that
// buffer.
type StreamCallback func(input, output []float32) error

// StreamParams holds parameters for stream creation
type StreamParams struct {
	SampleRate float64
	Channels   int
	BufferSize int // frames per callback

	// Device selects a device by id; empty means the default device
	Device string
	Raw    bool

	Latency time.Duration

	Callback StreamCallback
	OnXrun   func()      // overflow or underflow; must not block
	OnError  func(error) // unrecoverable stream error
}

var (
	ErrNotInitialized = errors.New("audio backend not initialized")
	ErrNoCallback     = errors.New("stream callback is required")
	ErrStreamClosed   = errors.New("stream is closed")
)

func (p StreamParams) validate() error {
	if p.Callback == nil {
		return ErrNoCallback
	}
	if p.SampleRate <= 0 || p.Channels <= 0 || p.BufferSize <= 0 {
		return errors.New("sample rate, channels and buffer size must be positive")
	}
	return nil
}

// StreamStats counts callback activity
type StreamStats struct {
	Callbacks      uint64
	Xruns          uint64
	Errors         uint64 // native stream errors
	CallbackErrors uint64 // buffers replaced with silence
	Panics         uint64
}

type streamCounters struct {
	callbacks      atomic.Uint64
	xruns          atomic.Uint64
	errors         atomic.Uint64
	callbackErrors atomic.Uint64
	panics         atomic.Uint64
}

func (c *streamCounters) snapshot() StreamStats {
	return StreamStats{
		Callbacks:      c.callbacks.Load(),
		Xruns:          c.xruns.Load(),
		Errors:         c.errors.Load(),
		CallbackErrors: c.callbackErrors.Load(),
		Panics:         c.panics.Load(),
	}
}

// process runs the callback and silences output when it fails or panics
func (c *streamCounters) process(cb StreamCallback, input, output []float32) {
	c.callbacks.Add(1)
	defer func() {
		if r := recover(); r != nil {
			c.panics.Add(1)
			clear(output)
		}
	}()
	if err := cb(input, output); err != nil {
		c.callbackErrors.Add(1)
		clear(output)
	}
}
