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
*/
import "C"
import "unsafe"

// RingBuffer is libsoundio's lock-free ring buffer for one producer and one
// consumer. The storage is mirrored, so the readable and writable regions
// are always contiguous. None of its methods allocate.
type RingBuffer struct {
	ptr *C.struct_SoundIoRingBuffer
}

// Destroy frees the buffer. Calling it twice is a no-op.
func (r *RingBuffer) Destroy() {
	if r.ptr != nil {
		C.soundio_ring_buffer_destroy(r.ptr)
		r.ptr = nil
	}
}

// Capacity may exceed the requested capacity because of page alignment.
func (r *RingBuffer) Capacity() int {
	return int(C.soundio_ring_buffer_capacity(r.ptr))
}

// FillCount returns how many bytes are ready for reading.
func (r *RingBuffer) FillCount() int {
	return int(C.soundio_ring_buffer_fill_count(r.ptr))
}

// FreeCount returns how many bytes can be written.
func (r *RingBuffer) FreeCount() int {
	return int(C.soundio_ring_buffer_free_count(r.ptr))
}

// WriteBuffer returns the writable region. Only the producer may call it.
func (r *RingBuffer) WriteBuffer() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(C.soundio_ring_buffer_write_ptr(r.ptr))), r.FreeCount())
}

// AdvanceWritePtr publishes count bytes written to WriteBuffer.
func (r *RingBuffer) AdvanceWritePtr(count int) {
	C.soundio_ring_buffer_advance_write_ptr(r.ptr, C.int(count))
}

// ReadBuffer returns the readable region. Only the consumer may call it.
func (r *RingBuffer) ReadBuffer() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(C.soundio_ring_buffer_read_ptr(r.ptr))), r.FillCount())
}

// AdvanceReadPtr releases count bytes read from ReadBuffer.
func (r *RingBuffer) AdvanceReadPtr(count int) {
	C.soundio_ring_buffer_advance_read_ptr(r.ptr, C.int(count))
}

// Write copies as much of p as fits and returns the byte count.
func (r *RingBuffer) Write(p []byte) int {
	n := copy(r.WriteBuffer(), p)
	r.AdvanceWritePtr(n)
	return n
}

// Read copies up to len(p) readable bytes into p.
func (r *RingBuffer) Read(p []byte) int {
	n := copy(p, r.ReadBuffer())
	r.AdvanceReadPtr(n)
	return n
}

// Clear drops all readable bytes. Only the producer may call it.
func (r *RingBuffer) Clear() {
	C.soundio_ring_buffer_clear(r.ptr)
}
