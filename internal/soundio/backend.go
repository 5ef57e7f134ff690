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
import (
	"fmt"
	"strings"
)

// Backend is an audio server or API libsoundio can drive.
type Backend uint32

const (
	BackendNone       = Backend(C.SoundIoBackendNone)
	BackendJack       = Backend(C.SoundIoBackendJack)
	BackendPulseAudio = Backend(C.SoundIoBackendPulseAudio)
	BackendAlsa       = Backend(C.SoundIoBackendAlsa)
	BackendCoreAudio  = Backend(C.SoundIoBackendCoreAudio)
	BackendWasapi     = Backend(C.SoundIoBackendWasapi)
	BackendDummy      = Backend(C.SoundIoBackendDummy)
)

// Backends lists every backend in libsoundio's default connect order.
var Backends = []Backend{
	BackendJack, BackendPulseAudio, BackendAlsa,
	BackendCoreAudio, BackendWasapi, BackendDummy,
}

func (b Backend) String() string {
	return C.GoString(C.soundio_backend_name(C.enum_SoundIoBackend(b)))
}

// Have reports whether libsoundio was compiled with this backend.
func (b Backend) Have() bool {
	return bool(C.soundio_have_backend(C.enum_SoundIoBackend(b)))
}

// ParseBackend accepts the lower-case names used on the command line.
// The empty string selects BackendNone, meaning "try all in order".
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return BackendNone, nil
	case "dummy":
		return BackendDummy, nil
	case "alsa":
		return BackendAlsa, nil
	case "pulseaudio", "pulse":
		return BackendPulseAudio, nil
	case "jack":
		return BackendJack, nil
	case "coreaudio":
		return BackendCoreAudio, nil
	case "wasapi":
		return BackendWasapi, nil
	default:
		return BackendNone, fmt.Errorf("%w: %q", ErrInvalidBackend, name)
	}
}
