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
import "errors"

// Error is a libsoundio error code, carried unchanged.
type Error int

// libsoundio errors
const (
	ErrorNone                = Error(C.SoundIoErrorNone)
	ErrorNoMem               = Error(C.SoundIoErrorNoMem)               // Out of memory
	ErrorInitAudioBackend    = Error(C.SoundIoErrorInitAudioBackend)    // The backend does not appear to be active or running
	ErrorSystemResources     = Error(C.SoundIoErrorSystemResources)     // A system resource other than memory was not available
	ErrorOpeningDevice       = Error(C.SoundIoErrorOpeningDevice)       // Attempted to open a device and failed
	ErrorNoSuchDevice        = Error(C.SoundIoErrorNoSuchDevice)        // No device with that id
	ErrorInvalid             = Error(C.SoundIoErrorInvalid)             // The programmer did not comply with the API
	ErrorBackendUnavailable  = Error(C.SoundIoErrorBackendUnavailable)  // libsoundio was compiled without support for that backend
	ErrorStreaming           = Error(C.SoundIoErrorStreaming)           // Unrecoverable stream error; destroy and recreate the stream
	ErrorIncompatibleDevice  = Error(C.SoundIoErrorIncompatibleDevice)  // Device cannot support the requested parameters
	ErrorNoSuchClient        = Error(C.SoundIoErrorNoSuchClient)        // JACK returned JackNoSuchClient
	ErrorIncompatibleBackend = Error(C.SoundIoErrorIncompatibleBackend) // Backend cannot support the requested parameters
	ErrorBackendDisconnected = Error(C.SoundIoErrorBackendDisconnected) // Backend server shut down or became inactive
	ErrorInterrupted         = Error(C.SoundIoErrorInterrupted)
	ErrorUnderflow           = Error(C.SoundIoErrorUnderflow)      // Buffer underrun occurred
	ErrorEncodingString      = Error(C.SoundIoErrorEncodingString) // Unable to convert to or from UTF-8
)

// Errors raised by the Go side of the binding.
var (
	ErrStreamStarted     = errors.New("soundio: stream already started")
	ErrStreamNotOpen     = errors.New("soundio: stream not open")
	ErrStreamOpen        = errors.New("soundio: stream already open")
	ErrNotConnected      = errors.New("soundio: not connected to a backend")
	ErrNoDevice          = errors.New("soundio: no such device")
	ErrInvalidBackend    = errors.New("soundio: invalid backend name")
	ErrUnsupportedFormat = errors.New("soundio: no supported sample format")
	ErrDestroyed         = errors.New("soundio: handle destroyed")
)

func (e Error) Error() string {
	return C.GoString(C.soundio_strerror(C.int(e)))
}

// convertToError maps SoundIoErrorNone to nil and anything else to Error.
func convertToError(err C.int) error {
	if err == C.SoundIoErrorNone {
		return nil
	}
	return Error(err)
}
