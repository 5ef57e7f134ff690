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
	"context"
	"errors"
	"fmt"
	"log"
	"math/bits"
	"sync"
	"sync/atomic"
	"time"
)

// ErrQueueFull is returned by Enqueue when the clip queue has no room
var ErrQueueFull = errors.New("audio queue is full")

// sampleFIFO is a lock-free ring of samples for one producer goroutine and
// one consumer (the audio thread).
type sampleFIFO struct {
	buf  []float32
	mask uint64
	head atomic.Uint64 // written by the producer
	tail atomic.Uint64 // written by the consumer
}

func newSampleFIFO(capacity int) *sampleFIFO {
	if capacity < 2 {
		capacity = 2
	}
	size := uint64(1) << bits.Len64(uint64(capacity-1))
	return &sampleFIFO{buf: make([]float32, size), mask: size - 1}
}

func (f *sampleFIFO) Cap() int {
	return len(f.buf)
}

func (f *sampleFIFO) Len() int {
	return int(f.head.Load() - f.tail.Load())
}

func (f *sampleFIFO) Push(p []float32) int {
	head, tail := f.head.Load(), f.tail.Load()
	n := min(len(p), len(f.buf)-int(head-tail))
	for i := 0; i < n; i++ {
		f.buf[(head+uint64(i))&f.mask] = p[i]
	}
	f.head.Store(head + uint64(n))
	return n
}

func (f *sampleFIFO) Pop(p []float32) int {
	head, tail := f.head.Load(), f.tail.Load()
	n := min(len(p), int(head-tail))
	for i := 0; i < n; i++ {
		p[i] = f.buf[(tail+uint64(i))&f.mask]
	}
	f.tail.Store(tail + uint64(n))
	return n
}

// PlayerConfig describes the output stream a Player opens
type PlayerConfig struct {
	SampleRate    int
	Channels      int
	BufferSize    int
	Device        string
	QueueCapacity int           // clips waiting to be buffered
	Buffered      time.Duration // audio held between the feeder and the audio thread
}

func (c *PlayerConfig) setDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 48000
	}
	if c.Channels == 0 {
		c.Channels = 2
	}
	if c.BufferSize == 0 {
		c.BufferSize = 1024
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = 16
	}
	if c.Buffered == 0 {
		c.Buffered = 500 * time.Millisecond
	}
}

// PlayerStats counts clips and gaps
type PlayerStats struct {
	Queued       int
	Buffered     int // samples
	ClipsPlayed  uint64
	ClipsDropped uint64
	Underruns    uint64 // output callbacks that had to pad with silence mid-clip
	Stream       StreamStats
}

// Player plays clips sequentially through one output stream. A feeder
// goroutine moves samples from the queue into the FIFO drained by the
// audio callback.
type Player struct {
	backend AudioBackend
	cfg     PlayerConfig
	fifo    *sampleFIFO
	queue   chan Clip

	mu     sync.Mutex
	stream StreamInterface
	stop   chan struct{}
	done   chan struct{}

	pending      atomic.Int64 // clips queued or still being buffered
	clipsPlayed  atomic.Uint64
	clipsDropped atomic.Uint64
	underruns    atomic.Uint64
}

// NewPlayer creates a player; Start opens its stream
func NewPlayer(backend AudioBackend, cfg PlayerConfig) *Player {
	cfg.setDefaults()
	samples := int(cfg.Buffered.Seconds() * float64(cfg.SampleRate*cfg.Channels))
	return &Player{
		backend: backend,
		cfg:     cfg,
		fifo:    newSampleFIFO(max(samples, 2*cfg.BufferSize*cfg.Channels)),
		queue:   make(chan Clip, cfg.QueueCapacity),
	}
}

// Start opens and starts the output stream and the feeder
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		return fmt.Errorf("player already started")
	}

	stream, err := p.backend.CreateOutputStream(StreamParams{
		SampleRate: float64(p.cfg.SampleRate),
		Channels:   p.cfg.Channels,
		BufferSize: p.cfg.BufferSize,
		Device:     p.cfg.Device,
		Callback:   p.fill,
		OnError: func(err error) {
			log.Printf("❌ Playback stream error: %v", err)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open playback stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("failed to start playback stream: %w", err)
	}

	p.stream = stream
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.feed(p.stop, p.done)
	log.Printf("🔊 Player started: %d Hz, %d channels on %s", p.cfg.SampleRate, p.cfg.Channels, p.backend.Name())
	return nil
}

// Enqueue queues a clip without blocking. Its sample rate must match the
// stream; mono and stereo are converted.
func (p *Player) Enqueue(clip Clip) error {
	if clip.SampleRate != p.cfg.SampleRate {
		return fmt.Errorf("%w: clip %d Hz, stream %d Hz", ErrSampleRateMismatch, clip.SampleRate, p.cfg.SampleRate)
	}
	clip, err := clip.WithChannels(p.cfg.Channels)
	if err != nil {
		return err
	}

	p.pending.Add(1)
	select {
	case p.queue <- clip:
		return nil
	default:
		p.pending.Add(-1)
		p.clipsDropped.Add(1)
		return ErrQueueFull
	}
}

// Wait blocks until every queued clip has been handed to the device
func (p *Player) Wait(ctx context.Context) error {
	ticker := time.NewTicker(p.period())
	defer ticker.Stop()
	for {
		if p.pending.Load() == 0 && p.fifo.Len() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops the feeder and closes the stream. Queued clips are dropped.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}
	close(p.stop)
	<-p.done
	for len(p.queue) > 0 {
		<-p.queue
	}
	p.pending.Store(0)
	err := p.stream.Close()
	p.stream = nil
	return err
}

func (p *Player) Stats() PlayerStats {
	stats := PlayerStats{
		Queued:       len(p.queue),
		Buffered:     p.fifo.Len(),
		ClipsPlayed:  p.clipsPlayed.Load(),
		ClipsDropped: p.clipsDropped.Load(),
		Underruns:    p.underruns.Load(),
	}
	p.mu.Lock()
	if p.stream != nil {
		stats.Stream = p.stream.Stats()
	}
	p.mu.Unlock()
	return stats
}

// fill runs on the audio thread
func (p *Player) fill(_, output []float32) error {
	n := p.fifo.Pop(output)
	if n < len(output) {
		clear(output[n:])
		if p.pending.Load() > 0 {
			p.underruns.Add(1)
		}
	}
	return nil
}

func (p *Player) period() time.Duration {
	return time.Duration(float64(p.cfg.BufferSize) / float64(p.cfg.SampleRate) * float64(time.Second))
}

// feed moves clips into the FIFO, sleeping a buffer period when it is full
func (p *Player) feed(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.period())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case clip := <-p.queue:
			for off := 0; off < len(clip.Samples); {
				off += p.fifo.Push(clip.Samples[off:])
				if off == len(clip.Samples) {
					break
				}
				select {
				case <-stop:
					return
				case <-ticker.C:
				}
			}
			p.clipsPlayed.Add(1)
			p.pending.Add(-1)
		}
	}
}
