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

// Option configures a SoundIo at Create time.
type Option func(*SoundIo)

// WithBackend makes Connect use one backend instead of trying all of them.
func WithBackend(backend Backend) Option {
	return func(s *SoundIo) {
		s.backend = backend
	}
}

// WithAppName sets the name shown by PulseAudio and JACK.
func WithAppName(appName string) Option {
	return func(s *SoundIo) {
		if appName != "" {
			s.appName = appName
		}
	}
}

func WithOnDevicesChange(callback func(s *SoundIo)) Option {
	return func(s *SoundIo) {
		s.onDevicesChange = callback
	}
}

// WithOnBackendDisconnect replaces the default handler, which only logs.
func WithOnBackendDisconnect(callback func(s *SoundIo, err error)) Option {
	return func(s *SoundIo) {
		s.onBackendDisconnect = callback
	}
}

// WithOnEventsSignal runs callback on the native thread that raised the
// signal, after the Signals channel has been notified. It must not block.
func WithOnEventsSignal(callback func(s *SoundIo)) Option {
	return func(s *SoundIo) {
		s.onEventsSignal = callback
	}
}

// WithPanicHandler receives panics recovered from any handler of this
// context and of the streams opened through it.
func WithPanicHandler(handler PanicHandler) Option {
	return func(s *SoundIo) {
		if handler != nil {
			s.panicHandler = handler
		}
	}
}
