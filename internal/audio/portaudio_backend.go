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
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioBackend implements AudioBackend using the real PortAudio library
type PortAudioBackend struct {
	mu          sync.Mutex
	initialized bool
	streams     map[*PortAudioStream]struct{}
}

// NewPortAudioBackend creates a new PortAudio backend
func NewPortAudioBackend() *PortAudioBackend {
	return &PortAudioBackend{streams: make(map[*PortAudioStream]struct{})}
}

func (p *PortAudioBackend) Name() string {
	return "portaudio"
}

// Initialize initializes the PortAudio subsystem
func (p *PortAudioBackend) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	p.initialized = true
	return nil
}

// Terminate closes open streams and terminates the PortAudio subsystem
func (p *PortAudioBackend) Terminate() error {
	p.mu.Lock()
	if !p.initialized {
		p.mu.Unlock()
		return nil
	}
	streams := make([]*PortAudioStream, 0, len(p.streams))
	for s := range p.streams {
		streams = append(streams, s)
	}
	p.mu.Unlock()

	for _, s := range streams {
		_ = s.Close() // Ignore errors during cleanup
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err := portaudio.Terminate()
	p.initialized = false
	return err
}

// CreateInputStream opens the default input device with a callback stream
func (p *PortAudioBackend) CreateInputStream(params StreamParams) (StreamInterface, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	s := &PortAudioStream{backend: p, params: params, isInput: true}
	process := func(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
		s.checkFlags(flags)
		s.counters.process(params.Callback, in, nil)
	}
	return p.open(s, params.Channels, 0, process)
}

// CreateOutputStream opens the default output device with a callback stream
func (p *PortAudioBackend) CreateOutputStream(params StreamParams) (StreamInterface, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	s := &PortAudioStream{backend: p, params: params}
	process := func(out []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
		s.checkFlags(flags)
		clear(out)
		s.counters.process(params.Callback, nil, out)
	}
	return p.open(s, 0, params.Channels, process)
}

func (p *PortAudioBackend) open(s *PortAudioStream, inputChannels, outputChannels int, process any) (StreamInterface, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil, fmt.Errorf("PortAudio: %w", ErrNotInitialized)
	}
	if s.params.Device != "" {
		return nil, fmt.Errorf("PortAudio backend only opens default devices, got %q", s.params.Device)
	}

	stream, err := portaudio.OpenDefaultStream(
		inputChannels,
		outputChannels,
		s.params.SampleRate,
		s.params.BufferSize,
		process,
	)
	if err != nil {
		direction := "output"
		if s.isInput {
			direction = "input"
		}
		return nil, fmt.Errorf("failed to open %s stream: %w", direction, err)
	}

	s.stream = stream
	p.streams[s] = struct{}{}
	return s, nil
}

func (p *PortAudioBackend) forget(s *PortAudioStream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.streams, s)
}

// PortAudioStream implements StreamInterface using PortAudio streams
type PortAudioStream struct {
	mu       sync.Mutex
	backend  *PortAudioBackend
	stream   *portaudio.Stream
	params   StreamParams
	isInput  bool
	isActive bool
	counters streamCounters
}

// Start starts the audio stream
func (p *PortAudioStream) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return ErrStreamClosed
	}
	if p.isActive {
		return nil
	}
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	p.isActive = true
	return nil
}

// Stop stops the audio stream
func (p *PortAudioStream) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return ErrStreamClosed
	}
	if !p.isActive {
		return nil
	}
	p.isActive = false
	return p.stream.Stop()
}

// Close closes the audio stream
func (p *PortAudioStream) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}
	if p.isActive {
		_ = p.stream.Stop() // Close aborts anyway
		p.isActive = false
	}
	err := p.stream.Close()
	p.stream = nil
	p.backend.forget(p)
	return err
}

// IsActive returns true between Start and Stop
func (p *PortAudioStream) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isActive
}

func (p *PortAudioStream) Stats() StreamStats {
	return p.counters.snapshot()
}

func (p *PortAudioStream) checkFlags(flags portaudio.StreamCallbackFlags) {
	const xrun = portaudio.InputUnderflow | portaudio.InputOverflow | portaudio.OutputUnderflow | portaudio.OutputOverflow
	if flags&xrun == 0 {
		return
	}
	p.counters.xruns.Add(1)
	if p.params.OnXrun != nil {
		p.params.OnXrun()
	}
}
