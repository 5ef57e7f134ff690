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

import (
	"fmt"
	"log"
	"sync/atomic"
)

// CallbackKind identifies one native callback slot.
type CallbackKind int

const (
	KindDevicesChange CallbackKind = iota
	KindBackendDisconnect
	KindEventsSignal
	KindRead
	KindOverflow
	KindInStreamError
	KindWrite
	KindUnderflow
	KindOutStreamError
)

var callbackKindNames = [...]string{
	KindDevicesChange:     "devices-change",
	KindBackendDisconnect: "backend-disconnect",
	KindEventsSignal:      "events-signal",
	KindRead:              "read",
	KindOverflow:          "overflow",
	KindInStreamError:     "instream-error",
	KindWrite:             "write",
	KindUnderflow:         "underflow",
	KindOutStreamError:    "outstream-error",
}

func (k CallbackKind) String() string {
	if k < 0 || int(k) >= len(callbackKindNames) {
		return fmt.Sprintf("CallbackKind(%d)", int(k))
	}
	return callbackKindNames[k]
}

// IsData reports whether the slot carries audio on a real-time thread.
func (k CallbackKind) IsData() bool {
	return k == KindRead || k == KindWrite
}

// PanicError is a panic recovered from a host handler inside a trampoline.
type PanicError struct {
	Kind  CallbackKind
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("soundio: panic in %s callback: %v", e.Kind, e.Value)
}

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// PanicHandler receives panics recovered inside trampolines. It may run on
// a real-time thread and must not block.
type PanicHandler func(err *PanicError)

func defaultPanicHandler(err *PanicError) {
	log.Printf("❌ soundio: recovered %v", err)
}

// StreamStats is a snapshot of per-stream callback counters.
type StreamStats struct {
	Callbacks uint64 // read or write invocations
	Xruns     uint64 // overflows (input) or underflows (output)
	Errors    uint64 // error callbacks
	Panics    uint64 // handler panics contained by the trampolines
}

type streamCounters struct {
	callbacks atomic.Uint64
	xruns     atomic.Uint64
	errors    atomic.Uint64
	panics    atomic.Uint64
}

func (c *streamCounters) snapshot() StreamStats {
	return StreamStats{
		Callbacks: c.callbacks.Load(),
		Xruns:     c.xruns.Load(),
		Errors:    c.errors.Load(),
		Panics:    c.panics.Load(),
	}
}

// recoverCallback must be deferred directly by a trampoline. A nil counters
// is allowed for context callbacks.
func recoverCallback(kind CallbackKind, counters *streamCounters, handler PanicHandler) {
	r := recover()
	if r == nil {
		return
	}
	if counters != nil {
		counters.panics.Add(1)
	}
	if handler == nil {
		handler = defaultPanicHandler
	}
	// The report itself must not unwind into C.
	defer func() {
		if r2 := recover(); r2 != nil {
			log.Printf("❌ soundio: panic handler failed for %s callback: %v", kind, r2)
		}
	}()
	handler(&PanicError{Kind: kind, Value: r})
}
