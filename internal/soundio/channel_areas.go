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

// ChannelAreas views the native area array handed out by BeginRead or
// BeginWrite. It is only valid until the matching EndRead or EndWrite.
// Accessors do not allocate and are safe on the real-time thread.
type ChannelAreas struct {
	areas          *C.struct_SoundIoChannelArea
	channelCount   int
	frameCount     int
	bytesPerSample int
}

func newChannelAreas(areas *C.struct_SoundIoChannelArea, channelCount, frameCount, bytesPerSample int) ChannelAreas {
	return ChannelAreas{
		areas:          areas,
		channelCount:   channelCount,
		frameCount:     frameCount,
		bytesPerSample: bytesPerSample,
	}
}

// Hole reports an input overflow gap: frames were lost and there is no
// buffer to read. The caller should treat FrameCount frames as silence.
func (a ChannelAreas) Hole() bool {
	return a.areas == nil
}

func (a ChannelAreas) ChannelCount() int {
	return a.channelCount
}

func (a ChannelAreas) FrameCount() int {
	return a.frameCount
}

// Step returns the byte distance between two samples of one channel.
func (a ChannelAreas) Step(channel int) int {
	return int(a.area(channel).step)
}

// Buffer returns the bytes of one sample. Writes go straight to the device
// buffer.
func (a ChannelAreas) Buffer(channel, frame int) []byte {
	return unsafe.Slice((*byte)(a.sample(channel, frame)), a.bytesPerSample)
}

// Float32 reads a sample of a FormatFloat32NE stream.
func (a ChannelAreas) Float32(channel, frame int) float32 {
	return *(*float32)(a.sample(channel, frame))
}

// SetFloat32 writes a sample of a FormatFloat32NE stream.
func (a ChannelAreas) SetFloat32(channel, frame int, v float32) {
	*(*float32)(a.sample(channel, frame)) = v
}

// Int16 reads a sample of a FormatS16NE stream.
func (a ChannelAreas) Int16(channel, frame int) int16 {
	return *(*int16)(a.sample(channel, frame))
}

// SetInt16 writes a sample of a FormatS16NE stream.
func (a ChannelAreas) SetInt16(channel, frame int, v int16) {
	*(*int16)(a.sample(channel, frame)) = v
}

// ReadInterleaved copies up to frames frames into dst as interleaved
// samples and returns the frame count copied. A hole reads as zeros.
func (a ChannelAreas) ReadInterleaved(dst []byte, frames int) int {
	frameBytes := a.channelCount * a.bytesPerSample
	if frameBytes == 0 {
		return 0
	}
	n := min(frames, a.frameCount, len(dst)/frameBytes)
	if a.Hole() {
		clear(dst[:n*frameBytes])
		return n
	}
	off := 0
	for frame := 0; frame < n; frame++ {
		for ch := 0; ch < a.channelCount; ch++ {
			off += copy(dst[off:], a.Buffer(ch, frame))
		}
	}
	return n
}

// WriteInterleaved is the inverse of ReadInterleaved. Frames missing from
// src are written as zeros.
func (a ChannelAreas) WriteInterleaved(src []byte, frames int) int {
	frameBytes := a.channelCount * a.bytesPerSample
	if frameBytes == 0 || a.Hole() {
		return 0
	}
	frames = min(frames, a.frameCount)
	avail := len(src) / frameBytes
	off := 0
	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < a.channelCount; ch++ {
			buf := a.Buffer(ch, frame)
			if frame < avail {
				off += copy(buf, src[off:off+a.bytesPerSample])
			} else {
				clear(buf)
			}
		}
	}
	return min(frames, avail)
}

func (a ChannelAreas) area(channel int) *C.struct_SoundIoChannelArea {
	return (*C.struct_SoundIoChannelArea)(unsafe.Add(unsafe.Pointer(a.areas), channel*int(C.sizeof_struct_SoundIoChannelArea)))
}

func (a ChannelAreas) sample(channel, frame int) unsafe.Pointer {
	area := a.area(channel)
	return unsafe.Add(unsafe.Pointer(area.ptr), frame*int(area.step))
}
