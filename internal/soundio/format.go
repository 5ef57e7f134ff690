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

// Format is a sample format.
type Format uint32

const (
	FormatInvalid   = Format(C.SoundIoFormatInvalid)
	FormatS8        = Format(C.SoundIoFormatS8)        // Signed 8 bit
	FormatU8        = Format(C.SoundIoFormatU8)        // Unsigned 8 bit
	FormatS16LE     = Format(C.SoundIoFormatS16LE)     // Signed 16 bit Little Endian
	FormatS16BE     = Format(C.SoundIoFormatS16BE)     // Signed 16 bit Big Endian
	FormatU16LE     = Format(C.SoundIoFormatU16LE)     // Unsigned 16 bit Little Endian
	FormatU16BE     = Format(C.SoundIoFormatU16BE)     // Unsigned 16 bit Big Endian
	FormatS24LE     = Format(C.SoundIoFormatS24LE)     // Signed 24 bit Little Endian using low three bytes in 32-bit word
	FormatS24BE     = Format(C.SoundIoFormatS24BE)     // Signed 24 bit Big Endian using low three bytes in 32-bit word
	FormatU24LE     = Format(C.SoundIoFormatU24LE)     // Unsigned 24 bit Little Endian using low three bytes in 32-bit word
	FormatU24BE     = Format(C.SoundIoFormatU24BE)     // Unsigned 24 bit Big Endian using low three bytes in 32-bit word
	FormatS32LE     = Format(C.SoundIoFormatS32LE)     // Signed 32 bit Little Endian
	FormatS32BE     = Format(C.SoundIoFormatS32BE)     // Signed 32 bit Big Endian
	FormatU32LE     = Format(C.SoundIoFormatU32LE)     // Unsigned 32 bit Little Endian
	FormatU32BE     = Format(C.SoundIoFormatU32BE)     // Unsigned 32 bit Big Endian
	FormatFloat32LE = Format(C.SoundIoFormatFloat32LE) // Float 32 bit Little Endian, Range -1.0 to 1.0
	FormatFloat32BE = Format(C.SoundIoFormatFloat32BE) // Float 32 bit Big Endian, Range -1.0 to 1.0
	FormatFloat64LE = Format(C.SoundIoFormatFloat64LE) // Float 64 bit Little Endian, Range -1.0 to 1.0
	FormatFloat64BE = Format(C.SoundIoFormatFloat64BE) // Float 64 bit Big Endian, Range -1.0 to 1.0

	// Native and foreign endian aliases, resolved by the libsoundio header.
	FormatS16NE     = Format(C.SoundIoFormatS16NE)
	FormatS16FE     = Format(C.SoundIoFormatS16FE)
	FormatU16NE     = Format(C.SoundIoFormatU16NE)
	FormatU16FE     = Format(C.SoundIoFormatU16FE)
	FormatS24NE     = Format(C.SoundIoFormatS24NE)
	FormatS24FE     = Format(C.SoundIoFormatS24FE)
	FormatU24NE     = Format(C.SoundIoFormatU24NE)
	FormatU24FE     = Format(C.SoundIoFormatU24FE)
	FormatS32NE     = Format(C.SoundIoFormatS32NE)
	FormatS32FE     = Format(C.SoundIoFormatS32FE)
	FormatU32NE     = Format(C.SoundIoFormatU32NE)
	FormatU32FE     = Format(C.SoundIoFormatU32FE)
	FormatFloat32NE = Format(C.SoundIoFormatFloat32NE)
	FormatFloat32FE = Format(C.SoundIoFormatFloat32FE)
	FormatFloat64NE = Format(C.SoundIoFormatFloat64NE)
	FormatFloat64FE = Format(C.SoundIoFormatFloat64FE)
)

// PrioritizedFormats is the preference order used when a caller has no
// format of its own: widest float first, 8 bit last.
var PrioritizedFormats = []Format{
	FormatFloat32NE,
	FormatFloat32FE,
	FormatS32NE,
	FormatS32FE,
	FormatS24NE,
	FormatS24FE,
	FormatS16NE,
	FormatS16FE,
	FormatFloat64NE,
	FormatFloat64FE,
	FormatU32NE,
	FormatU32FE,
	FormatU24NE,
	FormatU24FE,
	FormatU16NE,
	FormatU16FE,
	FormatS8,
	FormatU8,
}

// PrioritizedSampleRates is the preference order for sample rates.
var PrioritizedSampleRates = []int{48000, 44100, 96000, 24000}

func (f Format) String() string {
	return C.GoString(C.soundio_format_string(C.enum_SoundIoFormat(f)))
}

// BytesPerSample returns -1 for an invalid format.
func BytesPerSample(format Format) int {
	return int(C.soundio_get_bytes_per_sample(C.enum_SoundIoFormat(format)))
}

// BytesPerFrame returns the size of one sample for every channel.
func BytesPerFrame(format Format, channelCount int) int {
	return BytesPerSample(format) * channelCount
}

// BytesPerSecond uses sample rate as frames per second.
func BytesPerSecond(format Format, channelCount int, sampleRate int) int {
	return BytesPerFrame(format, channelCount) * sampleRate
}
