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
	"os"
	"testing"

	"github.com/gordonklaus/portaudio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isCIEnvironment detects if we're running in a CI environment
func isCIEnvironment() bool {
	ciEnvVars := []string{
		"CI", // Generic CI indicator
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",   // GitHub Actions
		"GITLAB_CI",        // GitLab CI
		"JENKINS_URL",      // Jenkins
		"TRAVIS",           // Travis CI
		"CIRCLECI",         // CircleCI
		"BUILDKITE",        // Buildkite
		"TEAMCITY_VERSION", // TeamCity
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return true
		}
	}

	return false
}

// TestPortAudioBackend tests the PortAudio backend implementation
func TestPortAudioBackend(t *testing.T) {
	// Skip if in CI environment where PortAudio may not be available
	if isCIEnvironment() {
		t.Skip("Skipping PortAudio tests in CI environment")
	}

	t.Run("backend_creation", func(t *testing.T) {
		backend := NewPortAudioBackend()
		require.NotNil(t, backend, "should create PortAudio backend")
		assert.False(t, backend.initialized, "should not be initialized by default")
		assert.Equal(t, "portaudio", backend.Name())
	})

	t.Run("double_initialization", func(t *testing.T) {
		backend := NewPortAudioBackend()

		err := backend.Initialize()
		if err != nil {
			t.Skipf("PortAudio initialization failed (may be expected): %v", err)
		}

		// Second initialization should be safe
		err = backend.Initialize()
		assert.NoError(t, err, "double initialization should be safe")

		_ = backend.Terminate() // Ignore errors during test cleanup
		assert.False(t, backend.initialized)
	})

	t.Run("terminate_without_initialize", func(t *testing.T) {
		assert.NoError(t, NewPortAudioBackend().Terminate())
	})

	t.Run("stream_before_initialize", func(t *testing.T) {
		backend := NewPortAudioBackend()
		_, err := backend.CreateInputStream(newTestParams(func(_, _ []float32) error { return nil }))
		assert.ErrorIs(t, err, ErrNotInitialized)
	})

	t.Run("named_device_rejected", func(t *testing.T) {
		backend := NewPortAudioBackend()
		if err := backend.Initialize(); err != nil {
			t.Skipf("PortAudio initialization failed (may be expected): %v", err)
		}
		defer func() { _ = backend.Terminate() }()

		params := newTestParams(func(_, _ []float32) error { return nil })
		params.Device = "hw:1,0"
		_, err := backend.CreateOutputStream(params)
		assert.Error(t, err)
	})

	t.Run("invalid_params", func(t *testing.T) {
		_, err := NewPortAudioBackend().CreateOutputStream(StreamParams{SampleRate: 48000, Channels: 2, BufferSize: 256})
		assert.ErrorIs(t, err, ErrNoCallback)
	})
}

func TestPortAudioStreamOperations(t *testing.T) {
	if isCIEnvironment() {
		t.Skip("Skipping PortAudio tests in CI environment")
	}

	backend := NewPortAudioBackend()
	if err := backend.Initialize(); err != nil {
		t.Skipf("PortAudio initialization failed (may be expected): %v", err)
	}
	defer func() { _ = backend.Terminate() }()

	stream, err := backend.CreateOutputStream(StreamParams{
		SampleRate: 48000,
		Channels:   2,
		BufferSize: 512,
		Callback:   func(_, _ []float32) error { return nil },
	})
	if err != nil {
		t.Skipf("No output device available: %v", err)
	}

	require.NoError(t, stream.Start())
	assert.True(t, stream.IsActive())
	require.NoError(t, stream.Stop())
	assert.False(t, stream.IsActive())
	require.NoError(t, stream.Close())
	assert.NoError(t, stream.Close(), "close should be idempotent")
	assert.ErrorIs(t, stream.Start(), ErrStreamClosed)
}

func TestPortAudioCheckFlags(t *testing.T) {
	var xruns int
	s := &PortAudioStream{params: StreamParams{OnXrun: func() { xruns++ }}}

	s.checkFlags(0)
	s.checkFlags(portaudio.OutputUnderflow)
	s.checkFlags(portaudio.InputOverflow | portaudio.OutputOverflow)

	assert.Equal(t, uint64(2), s.Stats().Xruns)
	assert.Equal(t, 2, xruns)
}
