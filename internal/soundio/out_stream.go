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

// OutStream plays audio to a Device. Its methods are not safe for
// concurrent use, except Stats and the calls made from the write callback.
type OutStream struct {
	ptr    *C.struct_SoundIoOutStream
	handle cgo.Handle
	device *Device
	cName  *C.char

	opened  bool
	started bool

	writeCallback     func(s *OutStream, frameCountMin, frameCountMax int)
	underflowCallback func(s *OutStream)
	errorCallback    func(s *OutStream, err error)
	panicHandler     PanicHandler

	counters streamCounters
}

func (s *OutStream) Device() *Device {
	return s.device
}

func (s *OutStream) Format() Format {
	return Format(s.ptr.format)
}

func (s *OutStream) SetFormat(format Format) error {
	if err := s.configurable(); err != nil {
		return err
	}
	s.ptr.format = C.enum_SoundIoFormat(format)
	return nil
}

func (s *OutStream) SampleRate() int {
	return int(s.ptr.sample_rate)
}

func (s *OutStream) SetSampleRate(sampleRate int) error {
	if err := s.configurable(); err != nil {
		return err
	}
	s.ptr.sample_rate = C.int(sampleRate)
	return nil
}

func (s *OutStream) Layout() ChannelLayout {
	return layoutFromC(&s.ptr.layout)
}

// SetLayout fails with ErrorInvalid beyond MaxChannels.
func (s *OutStream) SetLayout(layout ChannelLayout) error {
	if err := s.configurable(); err != nil {
		return err
	}
	if layout.ChannelCount() > MaxChannels {
		return ErrorInvalid
	}
	s.ptr.layout = layout.toC()
	return nil
}

func (s *OutStream) SoftwareLatency() float64 {
	return float64(s.ptr.software_latency)
}

func (s *OutStream) SetSoftwareLatency(seconds float64) error {
	if err := s.configurable(); err != nil {
		return err
	}
	s.ptr.software_latency = C.double(seconds)
	return nil
}

func (s *OutStream) Name() string {
	return C.GoString(s.ptr.name)
}

func (s *OutStream) SetName(name string) error {
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

// NonTerminalHint tells JACK the played data comes from an input stream.
func (s *OutStream) NonTerminalHint() bool {
	return bool(s.ptr.non_terminal_hint)
}

func (s *OutStream) SetNonTerminalHint(hint bool) error {
	if err := s.configurable(); err != nil {
		return err
	}
	s.ptr.non_terminal_hint = C.bool(hint)
	return nil
}

// BytesPerFrame is valid after Open.
func (s *OutStream) BytesPerFrame() int {
	return int(s.ptr.bytes_per_frame)
}

func (s *OutStream) BytesPerSample() int {
	return int(s.ptr.bytes_per_sample)
}

// LayoutError reports why the requested layout could not be applied by
// Open. The stream still runs with the device's layout.
func (s *OutStream) LayoutError() error {
	return convertToError(s.ptr.layout_error)
}

// SetWriteCallback sets the handler that fills the device buffer. It runs
// on the real-time thread and must not block or allocate.
func (s *OutStream) SetWriteCallback(callback func(s *OutStream, frameCountMin, frameCountMax int)) error {
	if s.started {
		return ErrStreamStarted
	}
	s.writeCallback = callback
	return nil
}

func (s *OutStream) SetUnderflowCallback(callback func(s *OutStream)) error {
	if s.started {
		return ErrStreamStarted
	}
	s.underflowCallback = callback
	return nil
}

// SetErrorCallback receives unrecoverable stream errors as Error values.
// Without one, errors are logged.
func (s *OutStream) SetErrorCallback(callback func(s *OutStream, err error)) error {
	if s.started {
		return ErrStreamStarted
	}
	s.errorCallback = callback
	return nil
}

// Open applies the configuration and sets SoftwareLatency to the value the
// backend chose. After a failed Open the stream can only be destroyed.
func (s *OutStream) Open() error {
	if s.ptr == nil {
		return ErrDestroyed
	}
	if s.opened {
		return ErrStreamOpen
	}
	if err := convertToError(C.soundio_outstream_open(s.ptr)); err != nil {
		return err
	}
	s.opened = true
	return nil
}

// Start begins playback; the write callback fires from here on.
func (s *OutStream) Start() error {
	if s.ptr == nil {
		return ErrDestroyed
	}
	if !s.opened {
		return ErrStreamNotOpen
	}
	if s.started {
		return ErrStreamStarted
	}
	if err := convertToError(C.soundio_outstream_start(s.ptr)); err != nil {
		return err
	}
	s.started = true
	return nil
}

// Pause fails with ErrorIncompatibleDevice when the backend cannot pause.
func (s *OutStream) Pause(pause bool) error {
	if s.ptr == nil {
		return ErrDestroyed
	}
	return convertToError(C.soundio_outstream_pause(s.ptr, C.bool(pause)))
}

// Latency returns the seconds until the next frame written becomes audible.
// Call it from the write callback.
func (s *OutStream) Latency() (float64, error) {
	if s.ptr == nil {
		return 0, ErrDestroyed
	}
	var latency C.double
	if err := convertToError(C.soundio_outstream_get_latency(s.ptr, &latency)); err != nil {
		return 0, err
	}
	return float64(latency), nil
}

// BeginWrite asks for up to frameCount frames of device buffer and returns
// the areas with the number of frames granted. Call it from the write
// callback, then EndWrite.
func (s *OutStream) BeginWrite(frameCount int) (ChannelAreas, int, error) {
	if s.ptr == nil {
		return ChannelAreas{}, 0, ErrDestroyed
	}
	var areas *C.struct_SoundIoChannelArea
	n := C.int(frameCount)
	if err := convertToError(C.soundio_outstream_begin_write(s.ptr, &areas, &n)); err != nil {
		return ChannelAreas{}, 0, err
	}
	return newChannelAreas(areas, int(s.ptr.layout.channel_count), int(n), int(s.ptr.bytes_per_sample)), int(n), nil
}

// EndWrite commits the frames. ErrorUnderflow means the buffer ran dry
// before the commit; the stream keeps running.
func (s *OutStream) EndWrite() error {
	if s.ptr == nil {
		return ErrDestroyed
	}
	return convertToError(C.soundio_outstream_end_write(s.ptr))
}

// ClearBuffer drops queued frames where the backend supports it.
func (s *OutStream) ClearBuffer() error {
	if s.ptr == nil {
		return ErrDestroyed
	}
	return convertToError(C.soundio_outstream_clear_buffer(s.ptr))
}

func (s *OutStream) Volume() float64 {
	return float64(s.ptr.volume)
}

// SetVolume sets the stream gain, 0 to 1, on backends that support it.
func (s *OutStream) SetVolume(volume float64) error {
	if s.ptr == nil {
		return ErrDestroyed
	}
	return convertToError(C.soundio_outstream_set_volume(s.ptr, C.double(volume)))
}

func (s *OutStream) Stats() StreamStats {
	return s.counters.snapshot()
}

// Destroy stops the stream and frees it. The write thread has exited when
// Destroy returns. Calling it twice is a no-op.
func (s *OutStream) Destroy() {
	if s.ptr == nil {
		return
	}
	C.soundio_outstream_destroy(s.ptr)
	s.release()
}

func (s *OutStream) release() {
	s.ptr = nil
	s.handle.Delete()
	if s.cName != nil {
		C.free(unsafe.Pointer(s.cName))
		s.cName = nil
	}
}

func (s *OutStream) configurable() error {
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
