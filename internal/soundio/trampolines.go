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

// Only declarations may appear here: this file exports symbols.

/*
#include "soundio.h"
*/
import "C"
import (
	"log"
	"runtime/cgo"
)

// Trampolines run on libsoundio threads. They look up their owner through
// the handle stored in userdata, never block, and recover host panics so
// that nothing unwinds into C.

func contextOwner(p *C.struct_SoundIo) *SoundIo {
	h := C.sio_context_handle(p)
	if h == 0 {
		return nil
	}
	s, _ := cgo.Handle(h).Value().(*SoundIo)
	return s
}

func inStreamOwner(p *C.struct_SoundIoInStream) *InStream {
	h := C.sio_instream_handle(p)
	if h == 0 {
		return nil
	}
	s, _ := cgo.Handle(h).Value().(*InStream)
	return s
}

func outStreamOwner(p *C.struct_SoundIoOutStream) *OutStream {
	h := C.sio_outstream_handle(p)
	if h == 0 {
		return nil
	}
	s, _ := cgo.Handle(h).Value().(*OutStream)
	return s
}

//export sioContextOnDevicesChange
func sioContextOnDevicesChange(p *C.struct_SoundIo) {
	s := contextOwner(p)
	if s == nil {
		return
	}
	defer recoverCallback(KindDevicesChange, nil, s.panicHandler)
	s.devicesChanged()
}

//export sioContextOnBackendDisconnect
func sioContextOnBackendDisconnect(p *C.struct_SoundIo, code C.int) {
	s := contextOwner(p)
	if s == nil {
		return
	}
	defer recoverCallback(KindBackendDisconnect, nil, s.panicHandler)
	s.backendDisconnected(Error(code))
}

//export sioContextOnEventsSignal
func sioContextOnEventsSignal(p *C.struct_SoundIo) {
	s := contextOwner(p)
	if s == nil {
		return
	}
	defer recoverCallback(KindEventsSignal, nil, s.panicHandler)
	s.eventsSignalled()
}

//export sioInStreamRead
func sioInStreamRead(p *C.struct_SoundIoInStream, frameCountMin, frameCountMax C.int) {
	s := inStreamOwner(p)
	if s == nil {
		return
	}
	defer recoverCallback(KindRead, &s.counters, s.panicHandler)
	s.counters.callbacks.Add(1)
	if cb := s.readCallback; cb != nil {
		cb(s, int(frameCountMin), int(frameCountMax))
	}
}

//export sioInStreamOverflow
func sioInStreamOverflow(p *C.struct_SoundIoInStream) {
	s := inStreamOwner(p)
	if s == nil {
		return
	}
	defer recoverCallback(KindOverflow, &s.counters, s.panicHandler)
	s.counters.xruns.Add(1)
	if cb := s.overflowCallback; cb != nil {
		cb(s)
	}
}

//export sioInStreamError
func sioInStreamError(p *C.struct_SoundIoInStream, code C.int) {
	s := inStreamOwner(p)
	if s == nil {
		return
	}
	defer recoverCallback(KindInStreamError, &s.counters, s.panicHandler)
	s.counters.errors.Add(1)
	if cb := s.errorCallback; cb != nil {
		cb(s, Error(code))
		return
	}
	log.Printf("⚠️ soundio: input stream error: %v", Error(code))
}

//export sioOutStreamWrite
func sioOutStreamWrite(p *C.struct_SoundIoOutStream, frameCountMin, frameCountMax C.int) {
	s := outStreamOwner(p)
	if s == nil {
		return
	}
	defer recoverCallback(KindWrite, &s.counters, s.panicHandler)
	s.counters.callbacks.Add(1)
	if cb := s.writeCallback; cb != nil {
		cb(s, int(frameCountMin), int(frameCountMax))
	}
}

//export sioOutStreamUnderflow
func sioOutStreamUnderflow(p *C.struct_SoundIoOutStream) {
	s := outStreamOwner(p)
	if s == nil {
		return
	}
	defer recoverCallback(KindUnderflow, &s.counters, s.panicHandler)
	s.counters.xruns.Add(1)
	if cb := s.underflowCallback; cb != nil {
		cb(s)
	}
}

//export sioOutStreamError
func sioOutStreamError(p *C.struct_SoundIoOutStream, code C.int) {
	s := outStreamOwner(p)
	if s == nil {
		return
	}
	defer recoverCallback(KindOutStreamError, &s.counters, s.panicHandler)
	s.counters.errors.Add(1)
	if cb := s.errorCallback; cb != nil {
		cb(s, Error(code))
		return
	}
	log.Printf("⚠️ soundio: output stream error: %v", Error(code))
}
