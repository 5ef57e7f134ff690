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
	"fmt"
	"math"
	"sync"
	"time"
)

// MockAudioBackend implements AudioBackend for testing without hardware dependencies
type MockAudioBackend struct {
	mu                sync.Mutex
	initialized       bool
	streams           map[string]*MockStream
	streamCounter     int
	initError         error
	terminateError    error
	createStreamError error
	recordedAudioData [][]float32
	playbackAudioData [][]float32
}

// NewMockAudioBackend creates a new mock audio backend
func NewMockAudioBackend() *MockAudioBackend {
	return &MockAudioBackend{
		streams:           make(map[string]*MockStream),
		recordedAudioData: make([][]float32, 0),
		playbackAudioData: make([][]float32, 0),
	}
}

func (m *MockAudioBackend) Name() string {
	return "mock"
}

// SetInitError configures the backend to return an error on Initialize()
func (m *MockAudioBackend) SetInitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initError = err
}

// SetTerminateError configures the backend to return an error on Terminate()
func (m *MockAudioBackend) SetTerminateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminateError = err
}

// SetCreateStreamError configures the backend to return an error on stream creation
func (m *MockAudioBackend) SetCreateStreamError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createStreamError = err
}

// GetRecordedAudioData returns every buffer delivered to input callbacks
func (m *MockAudioBackend) GetRecordedAudioData() [][]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([][]float32, len(m.recordedAudioData))
	copy(result, m.recordedAudioData)
	return result
}

// GetPlaybackAudioData returns every buffer filled by output callbacks
func (m *MockAudioBackend) GetPlaybackAudioData() [][]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([][]float32, len(m.playbackAudioData))
	copy(result, m.playbackAudioData)
	return result
}

// Streams returns the streams that are still open
func (m *MockAudioBackend) Streams() []*MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	streams := make([]*MockStream, 0, len(m.streams))
	for _, s := range m.streams {
		streams = append(streams, s)
	}
	return streams
}

// Initialize initializes the mock audio subsystem
func (m *MockAudioBackend) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initError != nil {
		return m.initError
	}

	m.initialized = true
	return nil
}

// Terminate closes every open stream and marks the backend uninitialized
func (m *MockAudioBackend) Terminate() error {
	m.mu.Lock()
	if m.terminateError != nil {
		m.mu.Unlock()
		return m.terminateError
	}
	streams := make([]*MockStream, 0, len(m.streams))
	for _, stream := range m.streams {
		streams = append(streams, stream)
	}
	// Release the lock before calling Close to avoid deadlocks
	m.mu.Unlock()

	for _, stream := range streams {
		_ = stream.Close() // Ignore errors during cleanup
	}

	m.mu.Lock()
	m.initialized = false
	m.mu.Unlock()
	return nil
}

// CreateInputStream creates a mock input stream
func (m *MockAudioBackend) CreateInputStream(params StreamParams) (StreamInterface, error) {
	return m.createStream(params, true)
}

// CreateOutputStream creates a mock output stream
func (m *MockAudioBackend) CreateOutputStream(params StreamParams) (StreamInterface, error) {
	return m.createStream(params, false)
}

func (m *MockAudioBackend) createStream(params StreamParams, isInput bool) (*MockStream, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("mock audio backend: %w", ErrNotInitialized)
	}

	if m.createStreamError != nil {
		return nil, m.createStreamError
	}

	prefix := "output"
	if isInput {
		prefix = "input"
	}
	streamID := fmt.Sprintf("%s_%d", prefix, m.streamCounter)
	m.streamCounter++

	stream := &MockStream{
		id:      streamID,
		backend: m,
		params:  params,
		isInput: isInput,
		isOpen:  true,
		buffer:  make([]float32, params.BufferSize*params.Channels),
	}

	m.streams[streamID] = stream
	return stream, nil
}

func (m *MockAudioBackend) record(isInput bool, data []float32) {
	dataCopy := make([]float32, len(data))
	copy(dataCopy, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	if isInput {
		m.recordedAudioData = append(m.recordedAudioData, dataCopy)
	} else {
		m.playbackAudioData = append(m.playbackAudioData, dataCopy)
	}
}

func (m *MockAudioBackend) forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.streams, id)
}

// MockStream implements StreamInterface with a ticker standing in for the
// audio thread
type MockStream struct {
	mu                 sync.Mutex
	id                 string
	backend            *MockAudioBackend
	params             StreamParams
	isInput            bool
	isOpen             bool
	isActive           bool
	buffer             []float32
	phase              float64
	stop               chan struct{}
	done               chan struct{}
	startError         error
	audioDataGenerator func([]float32) // For generating mock audio input
	counters           streamCounters
}

// ID returns the stream identifier ("input_0", "output_1", ...)
func (m *MockStream) ID() string {
	return m.id
}

// SetStartError configures the stream to return an error on Start()
func (m *MockStream) SetStartError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startError = err
}

// SetAudioDataGenerator sets a function to generate mock audio input data
func (m *MockStream) SetAudioDataGenerator(generator func([]float32)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audioDataGenerator = generator
}

// Start starts the simulated audio thread
func (m *MockStream) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.startError != nil {
		return m.startError
	}
	if !m.isOpen {
		return ErrStreamClosed
	}
	if m.isActive {
		return fmt.Errorf("stream already active")
	}

	m.isActive = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.run(m.stop, m.done)
	return nil
}

// Stop stops the simulated audio thread and waits for it to exit
func (m *MockStream) Stop() error {
	m.mu.Lock()
	if !m.isActive {
		m.mu.Unlock()
		return nil
	}
	m.isActive = false
	stop, done := m.stop, m.done
	m.mu.Unlock()

	close(stop)
	<-done
	return nil
}

// Close stops the stream and removes it from the backend
func (m *MockStream) Close() error {
	if err := m.Stop(); err != nil {
		return err
	}

	m.mu.Lock()
	if !m.isOpen {
		m.mu.Unlock()
		return nil // Already closed
	}
	m.isOpen = false
	m.mu.Unlock()

	m.backend.forget(m.id)
	return nil
}

// IsActive returns true if the mock stream is active
func (m *MockStream) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isActive
}

func (m *MockStream) Stats() StreamStats {
	return m.counters.snapshot()
}

// TriggerXrun simulates an overflow or underflow
func (m *MockStream) TriggerXrun() {
	m.counters.xruns.Add(1)
	if m.params.OnXrun != nil {
		m.params.OnXrun()
	}
}

// TriggerError simulates an unrecoverable native stream error
func (m *MockStream) TriggerError(err error) {
	m.counters.errors.Add(1)
	if m.params.OnError != nil {
		m.params.OnError(err)
	}
}

// Tick runs one callback synchronously, as the audio thread would
func (m *MockStream) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickLocked()
}

func (m *MockStream) tickLocked() {
	if m.isInput {
		m.generateLocked(m.buffer)
		m.counters.process(m.params.Callback, m.buffer, nil)
		m.backend.record(true, m.buffer)
		return
	}
	clear(m.buffer)
	m.counters.process(m.params.Callback, nil, m.buffer)
	m.backend.record(false, m.buffer)
}

func (m *MockStream) generateLocked(buffer []float32) {
	if m.audioDataGenerator != nil {
		m.audioDataGenerator(buffer)
		return
	}
	// Default: 440 Hz sine, continuous across buffers
	channels := m.params.Channels
	step := 2 * math.Pi * 440 / m.params.SampleRate
	for frame := 0; frame < len(buffer)/channels; frame++ {
		v := float32(0.1 * math.Sin(m.phase))
		for ch := 0; ch < channels; ch++ {
			buffer[frame*channels+ch] = v
		}
		m.phase += step
	}
	m.phase = math.Mod(m.phase, 2*math.Pi)
}

// run simulates the audio thread, firing one callback per buffer period
func (m *MockStream) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	period := time.Duration(float64(m.params.BufferSize) / m.params.SampleRate * float64(time.Second))
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}
