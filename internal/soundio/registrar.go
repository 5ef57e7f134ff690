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
#include "soundio.h"
*/
import "C"
import "runtime/cgo"

// registerContextCallbacks installs the devices-change, backend-disconnect
// and events-signal trampolines. The handle must not be connected yet.
func registerContextCallbacks(ptr *C.struct_SoundIo) {
	C.sio_register_context_callbacks(ptr)
}

// registerInStreamCallbacks installs the read, overflow and error
// trampolines. The stream must not be started yet.
func registerInStreamCallbacks(ptr *C.struct_SoundIoInStream) {
	C.sio_register_instream_callbacks(ptr)
}

// registerOutStreamCallbacks installs the write, underflow and error
// trampolines. The stream must not be started yet.
func registerOutStreamCallbacks(ptr *C.struct_SoundIoOutStream) {
	C.sio_register_outstream_callbacks(ptr)
}

// attachContext points the native userdata at h and registers the
// trampolines. userdata is written first so that no trampoline can observe
// an installed slot without an owner.
func attachContext(ptr *C.struct_SoundIo, h cgo.Handle) {
	C.sio_context_set_handle(ptr, C.uintptr_t(h))
	registerContextCallbacks(ptr)
}

func attachInStream(ptr *C.struct_SoundIoInStream, h cgo.Handle) {
	C.sio_instream_set_handle(ptr, C.uintptr_t(h))
	registerInStreamCallbacks(ptr)
}

func attachOutStream(ptr *C.struct_SoundIoOutStream, h cgo.Handle) {
	C.sio_outstream_set_handle(ptr, C.uintptr_t(h))
	registerOutStreamCallbacks(ptr)
}
