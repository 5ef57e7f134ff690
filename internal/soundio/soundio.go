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

// Package soundio binds libsoundio. Native callbacks reach Go through fixed
// exported trampolines; each handle's userdata carries a runtime/cgo.Handle
// naming its Go owner.
package soundio

/*
#cgo LDFLAGS: -lsoundio -lm
#include "soundio.h"
#include <stdlib.h>
*/
import "C"
import (
	"context"
	"log"
	"runtime/cgo"
	"time"
	"unsafe"
)

// MaxChannels is the largest channel count a layout can carry.
const MaxChannels int = C.SOUNDIO_MAX_CHANNELS

const wakeupRetry = 10 * time.Millisecond

// SoundIo is a libsoundio context. Create one per backend connection and
// release it with Destroy.
type SoundIo struct {
	ptr      *C.struct_SoundIo
	handle   cgo.Handle
	cAppName *C.char

	backend             Backend
	appName             string
	onDevicesChange     func(*SoundIo)
	onBackendDisconnect func(*SoundIo, error)
	onEventsSignal      func(*SoundIo)
	panicHandler        PanicHandler

	signals chan struct{}
}

// Create allocates a context and installs the context trampolines.
func Create(opts ...Option) (*SoundIo, error) {
	ptr := C.soundio_create()
	if ptr == nil {
		return nil, ErrorNoMem
	}
	s := newSoundIo(ptr, opts...)
	s.cAppName = C.CString(s.appName)
	ptr.app_name = s.cAppName
	return s, nil
}

func newSoundIo(ptr *C.struct_SoundIo, opts ...Option) *SoundIo {
	s := &SoundIo{
		ptr:          ptr,
		backend:      BackendNone,
		appName:      "SoundIo",
		panicHandler: defaultPanicHandler,
		signals:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handle = cgo.NewHandle(s)
	attachContext(ptr, s.handle)
	return s
}

// Destroy disconnects and frees the context. Devices and streams obtained
// from it must be released first. Calling Destroy twice is a no-op.
func (s *SoundIo) Destroy() {
	if s.ptr == nil {
		return
	}
	C.soundio_destroy(s.ptr)
	s.ptr = nil
	s.handle.Delete()
	if s.cAppName != nil {
		C.free(unsafe.Pointer(s.cAppName))
		s.cAppName = nil
	}
}

// Connect connects to the backend chosen by WithBackend, or tries every
// available backend in order. On success it flushes events once, so device
// lists are ready.
func (s *SoundIo) Connect() error {
	if s.backend != BackendNone {
		return s.ConnectBackend(s.backend)
	}
	if s.ptr == nil {
		return ErrDestroyed
	}
	if err := convertToError(C.soundio_connect(s.ptr)); err != nil {
		return err
	}
	s.FlushEvents()
	return nil
}

// ConnectBackend connects to one specific backend.
func (s *SoundIo) ConnectBackend(backend Backend) error {
	if s.ptr == nil {
		return ErrDestroyed
	}
	if err := convertToError(C.soundio_connect_backend(s.ptr, C.enum_SoundIoBackend(backend))); err != nil {
		return err
	}
	s.FlushEvents()
	return nil
}

func (s *SoundIo) Disconnect() {
	if s.ptr != nil {
		C.soundio_disconnect(s.ptr)
	}
}

// CurrentBackend returns BackendNone while disconnected.
func (s *SoundIo) CurrentBackend() Backend {
	if s.ptr == nil {
		return BackendNone
	}
	return Backend(s.ptr.current_backend)
}

func (s *SoundIo) AppName() string {
	return s.appName
}

// BackendCount returns the number of backends compiled into libsoundio.
func (s *SoundIo) BackendCount() int {
	return int(C.soundio_backend_count(s.ptr))
}

// Backend returns a compiled-in backend, 0 <= index < BackendCount.
func (s *SoundIo) Backend(index int) Backend {
	return Backend(C.soundio_get_backend(s.ptr, C.int(index)))
}

// FlushEvents updates device information. Devices-change and
// backend-disconnect handlers run on the calling goroutine.
func (s *SoundIo) FlushEvents() {
	C.soundio_flush_events(s.ptr)
}

// WaitEvents flushes and waits for events until ctx is done. Handlers run
// on the calling goroutine.
func (s *SoundIo) WaitEvents(ctx context.Context) error {
	if s.ptr == nil {
		return ErrDestroyed
	}
	if s.CurrentBackend() == BackendNone {
		return ErrNotConnected
	}

	done := make(chan struct{})
	exited := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(exited)
		// A wakeup that lands before soundio_wait_events blocks is lost, so
		// keep waking until the loop below has returned.
		ticker := time.NewTicker(wakeupRetry)
		defer ticker.Stop()
		for {
			C.soundio_wakeup(s.ptr)
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	})
	defer func() {
		close(done)
		if !stop() {
			<-exited
		}
	}()

	for ctx.Err() == nil {
		C.soundio_wait_events(s.ptr)
	}
	return ctx.Err()
}

// Wakeup makes a blocked WaitEvents return to its loop.
func (s *SoundIo) Wakeup() {
	if s.ptr != nil {
		C.soundio_wakeup(s.ptr)
	}
}

// ForceDeviceScan asks the backend to rescan devices. Results arrive through
// the devices-change handler.
func (s *SoundIo) ForceDeviceScan() {
	C.soundio_force_device_scan(s.ptr)
}

// Signals yields a value whenever libsoundio raises events-signal. Sends
// never block; bursts coalesce into a single pending value.
func (s *SoundIo) Signals() <-chan struct{} {
	return s.signals
}

// InputDeviceCount returns -1 before the first FlushEvents.
func (s *SoundIo) InputDeviceCount() int {
	return int(C.soundio_input_device_count(s.ptr))
}

// OutputDeviceCount returns -1 before the first FlushEvents.
func (s *SoundIo) OutputDeviceCount() int {
	return int(C.soundio_output_device_count(s.ptr))
}

// InputDevice returns a referenced device, or nil when index is out of
// range. Call RemoveReference when done.
func (s *SoundIo) InputDevice(index int) *Device {
	return s.newDevice(C.soundio_get_input_device(s.ptr, C.int(index)))
}

// OutputDevice returns a referenced device, or nil when index is out of
// range. Call RemoveReference when done.
func (s *SoundIo) OutputDevice(index int) *Device {
	return s.newDevice(C.soundio_get_output_device(s.ptr, C.int(index)))
}

// DefaultInputDeviceIndex returns -1 when there are no input devices.
func (s *SoundIo) DefaultInputDeviceIndex() int {
	return int(C.soundio_default_input_device_index(s.ptr))
}

// DefaultOutputDeviceIndex returns -1 when there are no output devices.
func (s *SoundIo) DefaultOutputDeviceIndex() int {
	return int(C.soundio_default_output_device_index(s.ptr))
}

// FindInputDevice returns the input device with the given id and raw flag.
// An empty id selects the default input device.
func (s *SoundIo) FindInputDevice(id string, raw bool) (*Device, error) {
	return s.findDevice(id, raw, s.InputDeviceCount(), s.DefaultInputDeviceIndex(), s.InputDevice)
}

// FindOutputDevice is FindInputDevice for output devices.
func (s *SoundIo) FindOutputDevice(id string, raw bool) (*Device, error) {
	return s.findDevice(id, raw, s.OutputDeviceCount(), s.DefaultOutputDeviceIndex(), s.OutputDevice)
}

func (s *SoundIo) findDevice(id string, raw bool, count, defaultIndex int, get func(int) *Device) (*Device, error) {
	if s.CurrentBackend() == BackendNone {
		return nil, ErrNotConnected
	}
	if id == "" {
		if defaultIndex < 0 {
			return nil, ErrNoDevice
		}
		if d := get(defaultIndex); d != nil {
			return d, nil
		}
		return nil, ErrNoDevice
	}
	for i := 0; i < count; i++ {
		d := get(i)
		if d == nil {
			continue
		}
		if d.ID() == id && d.Raw() == raw {
			return d, nil
		}
		d.RemoveReference()
	}
	return nil, ErrNoDevice
}

func (s *SoundIo) newDevice(ptr *C.struct_SoundIoDevice) *Device {
	if ptr == nil {
		return nil
	}
	return &Device{ptr: ptr, owner: s}
}

// NewRingBuffer allocates a lock-free single-producer single-consumer
// buffer. The capacity may be rounded up to the page size.
func (s *SoundIo) NewRingBuffer(capacity int) (*RingBuffer, error) {
	ptr := C.soundio_ring_buffer_create(s.ptr, C.int(capacity))
	if ptr == nil {
		return nil, ErrorNoMem
	}
	return &RingBuffer{ptr: ptr}, nil
}

// devicesChanged and backendDisconnected run on the goroutine that called
// FlushEvents or WaitEvents.
func (s *SoundIo) devicesChanged() {
	if cb := s.onDevicesChange; cb != nil {
		cb(s)
	}
}

func (s *SoundIo) backendDisconnected(err error) {
	if cb := s.onBackendDisconnect; cb != nil {
		cb(s, err)
		return
	}
	log.Printf("⚠️ soundio: backend disconnected: %v", err)
}

// eventsSignalled may run on any native thread.
func (s *SoundIo) eventsSignalled() {
	select {
	case s.signals <- struct{}{}:
	default:
	}
	if cb := s.onEventsSignal; cb != nil {
		cb(s)
	}
}

// Version returns the libsoundio version string.
func Version() string {
	return C.GoString(C.soundio_version_string())
}

func VersionMajor() int {
	return int(C.soundio_version_major())
}

func VersionMinor() int {
	return int(C.soundio_version_minor())
}

func VersionPatch() int {
	return int(C.soundio_version_patch())
}
