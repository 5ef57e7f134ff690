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
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/loqalabs/loqa-soundio-go/internal/soundio"
)

// streamFormats are the sample formats the interleaving code converts.
var streamFormats = []soundio.Format{soundio.FormatFloat32NE, soundio.FormatS16NE}

// SoundIoBackend implements AudioBackend on top of libsoundio
type SoundIoBackend struct {
	mu          sync.Mutex
	backend     soundio.Backend
	appName     string
	opts        []soundio.Option
	ctx         *soundio.SoundIo
	initialized bool
	streams     map[*SoundIoStream]struct{}
}

// NewSoundIoBackend creates a backend for one libsoundio backend, or for
// the first one that connects when backend is BackendNone. Extra options
// reach soundio.Create.
func NewSoundIoBackend(backend soundio.Backend, appName string, opts ...soundio.Option) *SoundIoBackend {
	return &SoundIoBackend{
		backend: backend,
		appName: appName,
		opts:    opts,
		streams: make(map[*SoundIoStream]struct{}),
	}
}

func (b *SoundIoBackend) Name() string {
	return "soundio"
}

// Context exposes the connected libsoundio context, nil before Initialize
func (b *SoundIoBackend) Context() *soundio.SoundIo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctx
}

// Initialize creates the context and connects
func (b *SoundIoBackend) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	opts := append([]soundio.Option{soundio.WithBackend(b.backend), soundio.WithAppName(b.appName)}, b.opts...)
	ctx, err := soundio.Create(opts...)
	if err != nil {
		return fmt.Errorf("failed to create soundio context: %w", err)
	}
	if err := ctx.Connect(); err != nil {
		ctx.Destroy()
		return fmt.Errorf("failed to connect to %s: %w", backendLabel(b.backend), err)
	}

	log.Printf("✅ soundio connected: backend=%s", ctx.CurrentBackend())
	b.ctx = ctx
	b.initialized = true
	return nil
}

// Terminate closes open streams and destroys the context
func (b *SoundIoBackend) Terminate() error {
	b.mu.Lock()
	if !b.initialized {
		b.mu.Unlock()
		return nil
	}
	streams := make([]*SoundIoStream, 0, len(b.streams))
	for s := range b.streams {
		streams = append(streams, s)
	}
	b.mu.Unlock()

	for _, s := range streams {
		_ = s.Close() // Ignore errors during cleanup
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctx.Destroy()
	b.ctx = nil
	b.initialized = false
	return nil
}

// CreateInputStream opens a capture stream on params.Device
func (b *SoundIoBackend) CreateInputStream(params StreamParams) (StreamInterface, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil, fmt.Errorf("soundio: %w", ErrNotInitialized)
	}

	device, err := b.ctx.FindInputDevice(params.Device, params.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to find input device: %w", err)
	}
	s, err := newSoundIoInput(b, device, params)
	if err != nil {
		device.RemoveReference()
		return nil, err
	}
	b.streams[s] = struct{}{}
	return s, nil
}

// CreateOutputStream opens a playback stream on params.Device
func (b *SoundIoBackend) CreateOutputStream(params StreamParams) (StreamInterface, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil, fmt.Errorf("soundio: %w", ErrNotInitialized)
	}

	device, err := b.ctx.FindOutputDevice(params.Device, params.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to find output device: %w", err)
	}
	s, err := newSoundIoOutput(b, device, params)
	if err != nil {
		device.RemoveReference()
		return nil, err
	}
	b.streams[s] = struct{}{}
	return s, nil
}

func (b *SoundIoBackend) forget(s *SoundIoStream) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.streams, s)
}

// SoundIoStream adapts a soundio in or out stream to StreamInterface. The
// interleaved scratch buffer is allocated once so the audio thread never
// allocates.
type SoundIoStream struct {
	mu       sync.Mutex
	backend  *SoundIoBackend
	device   *soundio.Device
	in       *soundio.InStream
	out      *soundio.OutStream
	params   StreamParams
	format   soundio.Format
	scratch  []float32
	started  bool
	isActive bool
	counters streamCounters
}

func negotiate(device *soundio.Device, params StreamParams) (soundio.Format, soundio.ChannelLayout, error) {
	if err := device.ProbeError(); err != nil {
		return soundio.FormatInvalid, soundio.ChannelLayout{}, fmt.Errorf("unable to probe device %s: %w", device.Name(), err)
	}
	format := soundio.FormatInvalid
	for _, f := range streamFormats {
		if device.SupportsFormat(f) {
			format = f
			break
		}
	}
	if format == soundio.FormatInvalid {
		return format, soundio.ChannelLayout{}, fmt.Errorf("device %s: %w", device.Name(), soundio.ErrUnsupportedFormat)
	}
	if !device.SupportsSampleRate(int(params.SampleRate)) {
		return format, soundio.ChannelLayout{}, fmt.Errorf("device %s does not support %v Hz (nearest %d)",
			device.Name(), params.SampleRate, device.NearestSampleRate(int(params.SampleRate)))
	}
	layout, ok := soundio.DefaultChannelLayout(params.Channels)
	if !ok {
		return format, layout, fmt.Errorf("no channel layout for %d channels", params.Channels)
	}
	return format, layout, nil
}

func latencySeconds(params StreamParams) float64 {
	if params.Latency > 0 {
		return params.Latency.Seconds()
	}
	return float64(params.BufferSize) / params.SampleRate
}

func newSoundIoInput(b *SoundIoBackend, device *soundio.Device, params StreamParams) (*SoundIoStream, error) {
	format, layout, err := negotiate(device, params)
	if err != nil {
		return nil, err
	}
	in, err := device.NewInStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create input stream: %w", err)
	}
	s := &SoundIoStream{
		backend: b,
		device:  device,
		in:      in,
		params:  params,
		format:  format,
		scratch: make([]float32, params.BufferSize*params.Channels),
	}
	err = errors.Join(
		in.SetFormat(format),
		in.SetSampleRate(int(params.SampleRate)),
		in.SetLayout(layout),
		in.SetSoftwareLatency(latencySeconds(params)),
		in.SetName(b.appName),
		in.SetReadCallback(s.read),
		in.SetOverflowCallback(func(*soundio.InStream) { s.xrun() }),
		in.SetErrorCallback(func(_ *soundio.InStream, err error) { s.fail(err) }),
	)
	if err == nil {
		err = in.Open()
	}
	if err != nil {
		in.Destroy()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := in.LayoutError(); err != nil {
		log.Printf("⚠️ soundio: input layout not applied: %v", err)
	}
	return s, nil
}

func newSoundIoOutput(b *SoundIoBackend, device *soundio.Device, params StreamParams) (*SoundIoStream, error) {
	format, layout, err := negotiate(device, params)
	if err != nil {
		return nil, err
	}
	out, err := device.NewOutStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create output stream: %w", err)
	}
	s := &SoundIoStream{
		backend: b,
		device:  device,
		out:     out,
		params:  params,
		format:  format,
		scratch: make([]float32, params.BufferSize*params.Channels),
	}
	err = errors.Join(
		out.SetFormat(format),
		out.SetSampleRate(int(params.SampleRate)),
		out.SetLayout(layout),
		out.SetSoftwareLatency(latencySeconds(params)),
		out.SetName(b.appName),
		out.SetWriteCallback(s.write),
		out.SetUnderflowCallback(func(*soundio.OutStream) { s.xrun() }),
		out.SetErrorCallback(func(_ *soundio.OutStream, err error) { s.fail(err) }),
	)
	if err == nil {
		err = out.Open()
	}
	if err != nil {
		out.Destroy()
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := out.LayoutError(); err != nil {
		log.Printf("⚠️ soundio: output layout not applied: %v", err)
	}
	return s, nil
}

// read runs on the soundio input thread
func (s *SoundIoStream) read(st *soundio.InStream, _, frameMax int) {
	channels := s.params.Channels
	chunk := len(s.scratch) / channels
	for left := frameMax; left > 0; {
		areas, n, err := st.BeginRead(min(left, chunk))
		if err != nil {
			s.fail(err)
			return
		}
		if n == 0 {
			return
		}
		buf := s.scratch[:n*channels]
		if areas.Hole() {
			clear(buf)
		} else {
			deinterleave(areas, s.format, n, channels, buf)
		}
		s.counters.process(s.params.Callback, buf, nil)
		if err := st.EndRead(); err != nil {
			s.fail(err)
			return
		}
		left -= n
	}
}

// write runs on the soundio output thread. It writes at least frameMin
// frames and at most one buffer unless frameMin demands more.
func (s *SoundIoStream) write(st *soundio.OutStream, frameMin, frameMax int) {
	channels := s.params.Channels
	chunk := len(s.scratch) / channels
	for left := min(frameMax, max(frameMin, chunk)); left > 0; {
		areas, n, err := st.BeginWrite(min(left, chunk))
		if err != nil {
			s.fail(err)
			return
		}
		if n == 0 {
			return
		}
		buf := s.scratch[:n*channels]
		clear(buf)
		s.counters.process(s.params.Callback, nil, buf)
		interleave(buf, s.format, n, channels, areas)
		if err := st.EndWrite(); err != nil && !errors.Is(err, soundio.ErrorUnderflow) {
			s.fail(err)
			return
		}
		left -= n
	}
}

func (s *SoundIoStream) xrun() {
	s.counters.xruns.Add(1)
	if s.params.OnXrun != nil {
		s.params.OnXrun()
	}
}

func (s *SoundIoStream) fail(err error) {
	s.counters.errors.Add(1)
	if s.params.OnError != nil {
		s.params.OnError(err)
	}
}

// deinterleave copies n frames from device areas into interleaved float32
func deinterleave(areas soundio.ChannelAreas, format soundio.Format, n, channels int, dst []float32) {
	for frame := 0; frame < n; frame++ {
		for ch := 0; ch < channels; ch++ {
			var v float32
			switch format {
			case soundio.FormatFloat32NE:
				v = areas.Float32(ch, frame)
			case soundio.FormatS16NE:
				v = float32(areas.Int16(ch, frame)) / 32768
			}
			dst[frame*channels+ch] = v
		}
	}
}

// interleave copies n interleaved frames into device areas, clamping S16
func interleave(src []float32, format soundio.Format, n, channels int, areas soundio.ChannelAreas) {
	for frame := 0; frame < n; frame++ {
		for ch := 0; ch < channels; ch++ {
			v := src[frame*channels+ch]
			switch format {
			case soundio.FormatFloat32NE:
				areas.SetFloat32(ch, frame, v)
			case soundio.FormatS16NE:
				areas.SetInt16(ch, frame, floatToInt16(v))
			}
		}
	}
}

func floatToInt16(v float32) int16 {
	switch {
	case v >= 1:
		return 32767
	case v <= -1:
		return -32768
	}
	return int16(v * 32767)
}

// Start starts the stream the first time and unpauses it afterwards
func (s *SoundIoStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.in == nil && s.out == nil {
		return ErrStreamClosed
	}
	if s.isActive {
		return nil
	}

	var err error
	switch {
	case !s.started && s.in != nil:
		err = s.in.Start()
	case !s.started:
		err = s.out.Start()
	case s.in != nil:
		err = s.in.Pause(false)
	default:
		err = s.out.Pause(false)
	}
	if err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	s.started = true
	s.isActive = true
	return nil
}

// Stop pauses the stream where the backend supports it
func (s *SoundIoStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.in == nil && s.out == nil {
		return ErrStreamClosed
	}
	if !s.isActive {
		return nil
	}

	var err error
	if s.in != nil {
		err = s.in.Pause(true)
	} else {
		err = s.out.Pause(true)
	}
	if err != nil {
		return fmt.Errorf("failed to pause stream: %w", err)
	}
	s.isActive = false
	return nil
}

// Close destroys the native stream and drops the device reference
func (s *SoundIoStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.in == nil && s.out == nil {
		return nil
	}
	if s.in != nil {
		s.in.Destroy()
		s.in = nil
	}
	if s.out != nil {
		s.out.Destroy()
		s.out = nil
	}
	s.device.RemoveReference()
	s.isActive = false
	s.backend.forget(s)
	return nil
}

func (s *SoundIoStream) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isActive
}

// Stats merges host callback counters with the binding's panic count
func (s *SoundIoStream) Stats() StreamStats {
	stats := s.counters.snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.in != nil:
		stats.Panics += s.in.Stats().Panics
	case s.out != nil:
		stats.Panics += s.out.Stats().Panics
	}
	return stats
}

// SoftwareLatency returns the latency the backend chose when the stream
// was opened
func (s *SoundIoStream) SoftwareLatency() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var seconds float64
	switch {
	case s.in != nil:
		seconds = s.in.SoftwareLatency()
	case s.out != nil:
		seconds = s.out.SoftwareLatency()
	}
	return time.Duration(seconds * float64(time.Second))
}

func backendLabel(b soundio.Backend) string {
	if b == soundio.BackendNone {
		return "any backend"
	}
	return b.String()
}
