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

package audio

import (
	"fmt"

	"github.com/loqalabs/loqa-soundio-go/internal/soundio"
)

// NewBackend picks an engine by name. backend and opts only apply to the
// soundio engine.
func NewBackend(engine string, backend soundio.Backend, appName string, opts ...soundio.Option) (AudioBackend, error) {
	switch engine {
	case "", "soundio":
		return NewSoundIoBackend(backend, appName, opts...), nil
	case "portaudio":
		return NewPortAudioBackend(), nil
	case "mock":
		return NewMockAudioBackend(), nil
	}
	return nil, fmt.Errorf("unknown audio engine %q", engine)
}
