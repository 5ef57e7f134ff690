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
#include <stdlib.h>
#include <string.h>
#include <soundio/soundio.h>
#include "soundio.h"
#include "native_double.h"

static void *sio_double_alloc(size_t size, int pattern) {
	void *p = malloc(size);
	if (p != NULL) {
		memset(p, pattern, size);
	}
	return p;
}

static void sio_double_fire_context(struct SoundIo *p, int kind, int code) {
	switch (kind) {
	case 0: p->on_devices_change(p); break;
	case 1: p->on_backend_disconnect(p, code); break;
	case 2: p->on_events_signal(p); break;
	}
}

static void sio_double_fire_instream(struct SoundIoInStream *p, int kind, int a, int b) {
	switch (kind) {
	case 3: p->read_callback(p, a, b); break;
	case 4: p->overflow_callback(p); break;
	case 5: p->error_callback(p, a); break;
	}
}

static void sio_double_fire_outstream(struct SoundIoOutStream *p, int kind, int a, int b) {
	switch (kind) {
	case 6: p->write_callback(p, a, b); break;
	case 7: p->underflow_callback(p); break;
	case 8: p->error_callback(p, a); break;
	}
}

static struct SoundIoChannelArea *sio_double_areas(int channels, int frames, int bytes_per_sample) {
	struct SoundIoChannelArea *areas = calloc(channels, sizeof(struct SoundIoChannelArea));
	char *buf = calloc((size_t)channels * frames, bytes_per_sample);
	if (areas == NULL || buf == NULL) {
		free(areas);
		free(buf);
		return NULL;
	}
	for (int ch = 0; ch < channels; ch++) {
		areas[ch].ptr = buf + ch * bytes_per_sample;
		areas[ch].step = channels * bytes_per_sample;
	}
	return areas;
}

static void sio_double_free_areas(struct SoundIoChannelArea *areas) {
	if (areas != NULL) {
		free(areas[0].ptr);
		free(areas);
	}
}
*/
import "C"
import "unsafe"

// The doubles below stand in for libsoundio-owned structs so that the
// registrar and trampolines can be driven without an audio backend. They
// are plain C allocations and must be freed by their owner.
//
// They live in a non-test file only because _test.go files cannot use cgo.
// Everything here is unexported and used by the package tests alone; it is
// not part of the API.

type byteRange struct {
	off, len uintptr
}

func (r byteRange) contains(i uintptr) bool {
	return i >= r.off && i < r.off+r.len
}

// trampolineAddr returns the address each slot must hold after
// registration.
func trampolineAddr(kind CallbackKind) uintptr {
	return uintptr(C.sio_double_trampoline(C.int(kind)))
}

func fnAddr(fn *[0]byte) uintptr {
	return uintptr(unsafe.Pointer(fn))
}

type contextDouble struct {
	ptr   *C.struct_SoundIo
	owner *SoundIo
}

func newContextDouble(pattern byte) *contextDouble {
	p := C.sio_double_alloc(C.size_t(C.sizeof_struct_SoundIo), C.int(pattern))
	if p == nil {
		panic("soundio: double allocation failed")
	}
	return &contextDouble{ptr: (*C.struct_SoundIo)(p)}
}

func (d *contextDouble) size() int {
	return int(C.sizeof_struct_SoundIo)
}

func (d *contextDouble) bytes() []byte {
	return C.GoBytes(unsafe.Pointer(d.ptr), C.int(C.sizeof_struct_SoundIo))
}

func (d *contextDouble) slotRanges() []byteRange {
	var p C.struct_SoundIo
	return []byteRange{
		{unsafe.Offsetof(p.on_devices_change), unsafe.Sizeof(p.on_devices_change)},
		{unsafe.Offsetof(p.on_backend_disconnect), unsafe.Sizeof(p.on_backend_disconnect)},
		{unsafe.Offsetof(p.on_events_signal), unsafe.Sizeof(p.on_events_signal)},
	}
}

func (d *contextDouble) slot(kind CallbackKind) uintptr {
	switch kind {
	case KindDevicesChange:
		return fnAddr(d.ptr.on_devices_change)
	case KindBackendDisconnect:
		return fnAddr(d.ptr.on_backend_disconnect)
	case KindEventsSignal:
		return fnAddr(d.ptr.on_events_signal)
	}
	return 0
}

func (d *contextDouble) register() {
	registerContextCallbacks(d.ptr)
}

// attach wires a SoundIo to the double the way Create does.
func (d *contextDouble) attach(opts ...Option) *SoundIo {
	d.owner = newSoundIo(d.ptr, opts...)
	return d.owner
}

// detach clears userdata, as if the owner were already gone.
func (d *contextDouble) detach() {
	C.sio_context_set_handle(d.ptr, 0)
}

func (d *contextDouble) fire(kind CallbackKind, code int) {
	C.sio_double_fire_context(d.ptr, C.int(kind), C.int(code))
}

func (d *contextDouble) free() {
	if d.owner != nil {
		d.owner.ptr = nil
		d.owner.handle.Delete()
		d.owner = nil
	}
	C.free(unsafe.Pointer(d.ptr))
	d.ptr = nil
}

type inStreamDouble struct {
	ptr   *C.struct_SoundIoInStream
	owner *InStream
}

func newInStreamDouble(pattern byte) *inStreamDouble {
	p := C.sio_double_alloc(C.size_t(C.sizeof_struct_SoundIoInStream), C.int(pattern))
	if p == nil {
		panic("soundio: double allocation failed")
	}
	return &inStreamDouble{ptr: (*C.struct_SoundIoInStream)(p)}
}

func (d *inStreamDouble) size() int {
	return int(C.sizeof_struct_SoundIoInStream)
}

func (d *inStreamDouble) bytes() []byte {
	return C.GoBytes(unsafe.Pointer(d.ptr), C.int(C.sizeof_struct_SoundIoInStream))
}

func (d *inStreamDouble) slotRanges() []byteRange {
	var p C.struct_SoundIoInStream
	return []byteRange{
		{unsafe.Offsetof(p.read_callback), unsafe.Sizeof(p.read_callback)},
		{unsafe.Offsetof(p.overflow_callback), unsafe.Sizeof(p.overflow_callback)},
		{unsafe.Offsetof(p.error_callback), unsafe.Sizeof(p.error_callback)},
	}
}

func (d *inStreamDouble) slot(kind CallbackKind) uintptr {
	switch kind {
	case KindRead:
		return fnAddr(d.ptr.read_callback)
	case KindOverflow:
		return fnAddr(d.ptr.overflow_callback)
	case KindInStreamError:
		return fnAddr(d.ptr.error_callback)
	}
	return 0
}

func (d *inStreamDouble) register() {
	registerInStreamCallbacks(d.ptr)
}

// attach wires an InStream to the double the way NewInStream does. The
// stream counts as opened so that Start-state checks can be exercised.
func (d *inStreamDouble) attach(handler PanicHandler) *InStream {
	if handler == nil {
		handler = defaultPanicHandler
	}
	d.owner = newInStream(d.ptr, nil, handler)
	d.owner.opened = true
	return d.owner
}

func (d *inStreamDouble) detach() {
	C.sio_instream_set_handle(d.ptr, 0)
}

func (d *inStreamDouble) fire(kind CallbackKind, a, b int) {
	C.sio_double_fire_instream(d.ptr, C.int(kind), C.int(a), C.int(b))
}

func (d *inStreamDouble) free() {
	if d.owner != nil {
		d.owner.release()
		d.owner = nil
	}
	C.free(unsafe.Pointer(d.ptr))
	d.ptr = nil
}

type outStreamDouble struct {
	ptr   *C.struct_SoundIoOutStream
	owner *OutStream
}

func newOutStreamDouble(pattern byte) *outStreamDouble {
	p := C.sio_double_alloc(C.size_t(C.sizeof_struct_SoundIoOutStream), C.int(pattern))
	if p == nil {
		panic("soundio: double allocation failed")
	}
	return &outStreamDouble{ptr: (*C.struct_SoundIoOutStream)(p)}
}

func (d *outStreamDouble) size() int {
	return int(C.sizeof_struct_SoundIoOutStream)
}

func (d *outStreamDouble) bytes() []byte {
	return C.GoBytes(unsafe.Pointer(d.ptr), C.int(C.sizeof_struct_SoundIoOutStream))
}

func (d *outStreamDouble) slotRanges() []byteRange {
	var p C.struct_SoundIoOutStream
	return []byteRange{
		{unsafe.Offsetof(p.write_callback), unsafe.Sizeof(p.write_callback)},
		{unsafe.Offsetof(p.underflow_callback), unsafe.Sizeof(p.underflow_callback)},
		{unsafe.Offsetof(p.error_callback), unsafe.Sizeof(p.error_callback)},
	}
}

func (d *outStreamDouble) slot(kind CallbackKind) uintptr {
	switch kind {
	case KindWrite:
		return fnAddr(d.ptr.write_callback)
	case KindUnderflow:
		return fnAddr(d.ptr.underflow_callback)
	case KindOutStreamError:
		return fnAddr(d.ptr.error_callback)
	}
	return 0
}

func (d *outStreamDouble) register() {
	registerOutStreamCallbacks(d.ptr)
}

func (d *outStreamDouble) attach(handler PanicHandler) *OutStream {
	if handler == nil {
		handler = defaultPanicHandler
	}
	d.owner = newOutStream(d.ptr, nil, handler)
	d.owner.opened = true
	return d.owner
}

func (d *outStreamDouble) detach() {
	C.sio_outstream_set_handle(d.ptr, 0)
}

func (d *outStreamDouble) fire(kind CallbackKind, a, b int) {
	C.sio_double_fire_outstream(d.ptr, C.int(kind), C.int(a), C.int(b))
}

func (d *outStreamDouble) free() {
	if d.owner != nil {
		d.owner.release()
		d.owner = nil
	}
	C.free(unsafe.Pointer(d.ptr))
	d.ptr = nil
}

// areasDouble returns interleaved channel areas over a zeroed buffer and a
// function that frees them.
func areasDouble(channels, frames, bytesPerSample int) (ChannelAreas, func()) {
	p := C.sio_double_areas(C.int(channels), C.int(frames), C.int(bytesPerSample))
	if p == nil {
		panic("soundio: double allocation failed")
	}
	return newChannelAreas(p, channels, frames, bytesPerSample), func() { C.sio_double_free_areas(p) }
}
