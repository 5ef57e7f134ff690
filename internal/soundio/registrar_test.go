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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nativeDouble interface {
	size() int
	bytes() []byte
	slotRanges() []byteRange
	slot(kind CallbackKind) uintptr
	register()
	free()
}

// assertUntouchedOutside checks that every byte outside the slot ranges
// still holds pattern.
func assertUntouchedOutside(t *testing.T, b []byte, pattern byte, slots []byteRange) {
	t.Helper()
	for i := range b {
		inSlot := false
		for _, r := range slots {
			if r.contains(uintptr(i)) {
				inSlot = true
				break
			}
		}
		if !inSlot && b[i] != pattern {
			t.Fatalf("byte %d changed: got %#x, want %#x", i, b[i], pattern)
		}
	}
}

func TestRegistrar(t *testing.T) {
	cases := []struct {
		name  string
		newFn func(pattern byte) nativeDouble
		kinds []CallbackKind
	}{
		{
			name:  "context",
			newFn: func(p byte) nativeDouble { return newContextDouble(p) },
			kinds: []CallbackKind{KindDevicesChange, KindBackendDisconnect, KindEventsSignal},
		},
		{
			name:  "instream",
			newFn: func(p byte) nativeDouble { return newInStreamDouble(p) },
			kinds: []CallbackKind{KindRead, KindOverflow, KindInStreamError},
		},
		{
			name:  "outstream",
			newFn: func(p byte) nativeDouble { return newOutStreamDouble(p) },
			kinds: []CallbackKind{KindWrite, KindUnderflow, KindOutStreamError},
		},
	}

	for _, tc := range cases {
		for _, pattern := range []byte{0x00, 0xA5, 0xFF} {
			t.Run(tc.name, func(t *testing.T) {
				d := tc.newFn(pattern)
				defer d.free()

				d.register()

				for _, kind := range tc.kinds {
					want := trampolineAddr(kind)
					require.NotZero(t, want, "trampoline for %s should exist", kind)
					assert.Equal(t, want, d.slot(kind), "slot %s should hold its trampoline", kind)
				}
				assertUntouchedOutside(t, d.bytes(), pattern, d.slotRanges())
			})
		}
	}
}

func TestRegistrar_Idempotent(t *testing.T) {
	t.Run("context", func(t *testing.T) {
		d := newContextDouble(0x5A)
		defer d.free()
		d.register()
		once := d.bytes()
		d.register()
		assert.Equal(t, once, d.bytes(), "second registration should not change any byte")
	})

	t.Run("instream", func(t *testing.T) {
		d := newInStreamDouble(0x5A)
		defer d.free()
		d.register()
		once := d.bytes()
		d.register()
		assert.Equal(t, once, d.bytes(), "second registration should not change any byte")
	})

	t.Run("outstream", func(t *testing.T) {
		d := newOutStreamDouble(0x5A)
		defer d.free()
		d.register()
		once := d.bytes()
		d.register()
		assert.Equal(t, once, d.bytes(), "second registration should not change any byte")
	})
}

func TestRegistrar_ZeroedContextGetsExactlyThreeSlots(t *testing.T) {
	d := newContextDouble(0)
	defer d.free()

	d.register()

	b := d.bytes()
	nonZero := 0
	for _, r := range d.slotRanges() {
		for i := r.off; i < r.off+r.len; i++ {
			if b[i] != 0 {
				nonZero++
				break
			}
		}
	}
	assert.Equal(t, 3, nonZero, "all three context slots should be set")
	assertUntouchedOutside(t, b, 0, d.slotRanges())
}

func TestRegistrar_DistinctTrampolines(t *testing.T) {
	seen := make(map[uintptr]CallbackKind)
	for kind := KindDevicesChange; kind <= KindOutStreamError; kind++ {
		addr := trampolineAddr(kind)
		require.NotZero(t, addr)
		if prev, dup := seen[addr]; dup {
			t.Fatalf("%s and %s share a trampoline", prev, kind)
		}
		seen[addr] = kind
	}
	assert.Len(t, seen, 9)
}

func TestAttach_WritesUserdataAndSlots(t *testing.T) {
	d := newInStreamDouble(0)
	defer d.free()

	s := d.attach(nil)
	require.NotNil(t, s)
	assert.Equal(t, trampolineAddr(KindRead), d.slot(KindRead))
	assert.Equal(t, trampolineAddr(KindOverflow), d.slot(KindOverflow))
	assert.Equal(t, trampolineAddr(KindInStreamError), d.slot(KindInStreamError))
	assert.Same(t, s, inStreamOwner(d.ptr), "userdata should resolve to the stream")
}
