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

package soundio

/*
#include <soundio/soundio.h>
#include <stdlib.h>
*/
import "C"
import (
	"runtime/cgo"
	"unsafe"
)

// InStream captures audio from a Device. Its methods are not safe for
// concurrent use, except Stats and the Begin/End calls made from the read
// callback.
type InStream struct {
	ptr    *C.struct_SoundIoInStream
	handle cgo.Handle
	device *Device
	cName  *C.char

	opened  bool
	started bool

	readCallback     func(s *InStream, frameCountMin, frameCountMax int)
	overflowCallback func(s *InStream)
	errorCallback    func(s *InStream, err error)
	panicHandler     PanicHandler

	counters streamCounters
}

func (s *InStream) Device() *Device {
	return s.device
}

func (s *InStream) Format() Format {
	return Format(s.ptr.format)
}

func (s *InStream) SetFormat(format Format) error {
	if err := s.configurable(); err != nil {
		return err
	}
	s.ptr.format = C.enum_SoundIoFormat(format)
	return nil
}

func (s *InStream) SampleRate() int {
	return int(s.ptr.sample_rate)
}

func (s *InStream) SetSampleRate(sampleRate int) error {
	if err := s.configurable(); err != nil {
		return err
	}
	s.ptr.sample_rate = C.int(sampleRate)
	return nil
}

func (s *InStream) Layout() ChannelLayout {
	return layoutFromC(&s.ptr.layout)
}

// SetLayout fails with ErrorInvalid beyond MaxChannels.
func (s *InStream) SetLayout(layout ChannelLayout) error {
	if err := s.configurable(); err != nil {
		return err
	}
	if layout.ChannelCount() > MaxChannels {
		return ErrorInvalid
	}
	s.ptr.layout = layout.toC()
	return nil
}

// SoftwareLatency is in seconds. Open replaces it with the value the
// backend chose.
func (s *InStream) SoftwareLatency() float64 {
	return float64(s.ptr.software_latency)
}

func (s *InStream) SetSoftwareLatency(seconds float64) error {
	if err := s.configurable(); err != nil {
		return err
	}
	s.ptr.software_latency = C.double(seconds)
	return nil
}

func (s *InStream) Name() string {
	return C.GoString(s.ptr.name)
}

func (s *InStream) SetName(name string) error {
	if err := s.configurable(); err != nil {
		return err
	}
	if s.cName != nil {
		C.free(unsafe.Pointer(s.cName))
	}
	s.cName = C.CString(name)
	s.ptr.name = s.cName
	return nil
}

// NonTerminalHint tells JACK the captured data feeds another stream.
func (s *InStream) NonTerminalHint() bool {
	return bool(s.ptr.non_terminal_hint)
}

func (s *InStream) SetNonTerminalHint(hint bool) error {
	if err := s.configurable(); err != nil {
		return err
	}
	s.ptr.non_terminal_hint = C.bool(hint)
	return nil
}

// BytesPerFrame is valid after Open.
func (s *InStream) BytesPerFrame() int {
	return int(s.ptr.bytes_per_frame)
}

func (s *InStream) BytesPerSample() int {
	return int(s.ptr.bytes_per_sample)
}

// LayoutError reports why the requested layout could not be applied by
// Open. The stream still runs with the device's layout.
func (s *InStream) LayoutError() error {
	return convertToError(s.ptr.layout_error)
}

// SetReadCallback sets the handler for captured frames. It runs on the
// real-time thread and must not block or allocate.
func (s *InStream) SetReadCallback(callback func(s *InStream, frameCountMin, frameCountMax int)) error {
	if s.started {
		return ErrStreamStarted
	}
	s.readCallback = callback
	return nil
}

func (s *InStream) SetOverflowCallback(callback func(s *InStream)) error {
	if s.started {
		return ErrStreamStarted
	}
	s.overflowCallback = callback
	return nil
}

// SetErrorCallback receives unrecoverable stream errors as Error values.
// Without one, errors are logged.
func (s *InStream) SetErrorCallback(callback func(s *InStream, err error)) error {
	if s.started {
		return ErrStreamStarted
	}
	s.errorCallback = callback
	return nil
}

// Open applies the configuration. After a failed Open the stream can only
// be destroyed.
func (s *InStream) Open() error {
	if s.ptr == nil {
		return ErrDestroyed
	}
	if s.opened {
		return ErrStreamOpen
	}
	if err := convertToError(C.soundio_instream_open(s.ptr)); err != nil {
		return err
	}
	s.opened = true
	return nil
}

// Start begins capture; the read callback fires from here on.
func (s *InStream) Start() error {
	if s.ptr == nil {
		return ErrDestroyed
	}
	if !s.opened {
		return ErrStreamNotOpen
	}
	if s.started {
		return ErrStreamStarted
	}
	if err := convertToError(C.soundio_instream_start(s.ptr)); err != nil {
		return err
	}
	s.started = true
	return nil
}

// Pause fails with ErrorIncompatibleDevice when the backend cannot pause.
func (s *InStream) Pause(pause bool) error {
	if s.ptr == nil {
		return ErrDestroyed
	}
	return convertToError(C.soundio_instream_pause(s.ptr, C.bool(pause)))
}

// Latency returns the seconds between capture and the frame becoming
// readable, hardware and software combined. Call it from the read callback.
func (s *InStream) Latency() (float64, error) {
	if s.ptr == nil {
		return 0, ErrDestroyed
	}
	var latency C.double
	if err := convertToError(C.soundio_instream_get_latency(s.ptr, &latency)); err != nil {
		return 0, err
	}
	return float64(latency), nil
}

// BeginRead asks for up to frameCount frames and returns the areas with the
// number of frames actually available. A Hole result means frames were
// dropped; EndRead must still be called.
func (s *InStream) BeginRead(frameCount int) (ChannelAreas, int, error) {
	if s.ptr == nil {
		return ChannelAreas{}, 0, ErrDestroyed
	}
	var areas *C.struct_SoundIoChannelArea
	n := C.int(frameCount)
	if err := convertToError(C.soundio_instream_begin_read(s.ptr, &areas, &n)); err != nil {
		return ChannelAreas{}, 0, err
	}
	return newChannelAreas(areas, int(s.ptr.layout.channel_count), int(n), int(s.ptr.bytes_per_sample)), int(n), nil
}

func (s *InStream) EndRead() error {
	if s.ptr == nil {
		return ErrDestroyed
	}
	return convertToError(C.soundio_instream_end_read(s.ptr))
}

func (s *InStream) Stats() StreamStats {
	return s.counters.snapshot()
}

// Destroy stops the stream and frees it. The read thread has exited when
// Destroy returns. Calling it twice is a no-op.
func (s *InStream) Destroy() {
	if s.ptr == nil {
		return
	}
	C.soundio_instream_destroy(s.ptr)
	s.release()
}

func (s *InStream) release() {
	s.ptr = nil
	s.handle.Delete()
	if s.cName != nil {
		C.free(unsafe.Pointer(s.cName))
		s.cName = nil
	}
}

func (s *InStream) configurable() error {
	switch {
	case s.ptr == nil:
		return ErrDestroyed
	case s.started:
		return ErrStreamStarted
	case s.opened:
		return ErrStreamOpen
	}
	return nil
}
