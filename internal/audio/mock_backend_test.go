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
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParams(cb StreamCallback) StreamParams {
	return StreamParams{SampleRate: 16000, Channels: 1, BufferSize: 160, Callback: cb}
}

func initializedMock(t *testing.T) *MockAudioBackend {
	t.Helper()
	backend := NewMockAudioBackend()
	require.NoError(t, backend.Initialize())
	t.Cleanup(func() { _ = backend.Terminate() })
	return backend
}

func TestStreamParamsValidate(t *testing.T) {
	t.Run("missing_callback", func(t *testing.T) {
		err := StreamParams{SampleRate: 16000, Channels: 1, BufferSize: 160}.validate()
		assert.ErrorIs(t, err, ErrNoCallback)
	})

	t.Run("non_positive_fields", func(t *testing.T) {
		cb := func(_, _ []float32) error { return nil }
		for _, p := range []StreamParams{
			{SampleRate: 0, Channels: 1, BufferSize: 160, Callback: cb},
			{SampleRate: 16000, Channels: 0, BufferSize: 160, Callback: cb},
			{SampleRate: 16000, Channels: 1, BufferSize: -1, Callback: cb},
		} {
			assert.Error(t, p.validate())
		}
	})

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, newTestParams(func(_, _ []float32) error { return nil }).validate())
	})
}

func TestStreamCountersProcess(t *testing.T) {
	t.Run("callback_error_silences_output", func(t *testing.T) {
		var c streamCounters
		out := []float32{1, 1, 1}
		c.process(func(_, output []float32) error {
			output[0] = 0.5
			return errors.New("boom")
		}, nil, out)

		assert.Equal(t, []float32{0, 0, 0}, out)
		stats := c.snapshot()
		assert.Equal(t, uint64(1), stats.Callbacks)
		assert.Equal(t, uint64(1), stats.CallbackErrors)
	})

	t.Run("panic_is_contained", func(t *testing.T) {
		var c streamCounters
		out := []float32{0.3, 0.3}
		assert.NotPanics(t, func() {
			c.process(func(_, output []float32) error {
				output[0] = 1
				panic("handler bug")
			}, nil, out)
		})
		assert.Equal(t, []float32{0, 0}, out)
		assert.Equal(t, uint64(1), c.snapshot().Panics)
	})

	t.Run("input_only", func(t *testing.T) {
		var c streamCounters
		var seen []float32
		c.process(func(input, output []float32) error {
			seen = append(seen, input...)
			assert.Nil(t, output)
			return nil
		}, []float32{0.1, 0.2}, nil)
		assert.Equal(t, []float32{0.1, 0.2}, seen)
	})
}

func TestMockBackendErrorInjection(t *testing.T) {
	cb := func(_, _ []float32) error { return nil }

	t.Run("initialization_error", func(t *testing.T) {
		backend := NewMockAudioBackend()
		backend.SetInitError(errors.New("no audio"))
		assert.EqualError(t, backend.Initialize(), "no audio")
	})

	t.Run("create_before_initialize", func(t *testing.T) {
		backend := NewMockAudioBackend()
		_, err := backend.CreateInputStream(newTestParams(cb))
		assert.ErrorIs(t, err, ErrNotInitialized)
	})

	t.Run("stream_creation_error", func(t *testing.T) {
		backend := initializedMock(t)
		backend.SetCreateStreamError(errors.New("device busy"))
		_, err := backend.CreateOutputStream(newTestParams(cb))
		assert.EqualError(t, err, "device busy")
	})

	t.Run("terminate_error", func(t *testing.T) {
		backend := NewMockAudioBackend()
		require.NoError(t, backend.Initialize())
		backend.SetTerminateError(errors.New("stuck"))
		assert.EqualError(t, backend.Terminate(), "stuck")
		backend.SetTerminateError(nil)
		assert.NoError(t, backend.Terminate())
	})

	t.Run("start_error", func(t *testing.T) {
		backend := initializedMock(t)
		stream, err := backend.CreateInputStream(newTestParams(cb))
		require.NoError(t, err)
		mock := stream.(*MockStream)
		mock.SetStartError(errors.New("start failed"))
		assert.EqualError(t, stream.Start(), "start failed")
		assert.False(t, stream.IsActive())
	})
}

func TestMockStreamLifecycle(t *testing.T) {
	backend := initializedMock(t)

	var calls atomic.Int64
	stream, err := backend.CreateInputStream(newTestParams(func(_, _ []float32) error {
		calls.Add(1)
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "input_0", stream.(*MockStream).ID())

	require.NoError(t, stream.Start())
	assert.True(t, stream.IsActive())
	assert.Error(t, stream.Start(), "second start should fail")

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, stream.Stop())
	assert.False(t, stream.IsActive())
	stopped := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load(), "no callbacks after Stop")

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close(), "close is idempotent")
	assert.ErrorIs(t, stream.Start(), ErrStreamClosed)
	assert.Empty(t, backend.Streams())
}

func TestMockBackendDataCollection(t *testing.T) {
	backend := initializedMock(t)

	t.Run("input_generator", func(t *testing.T) {
		stream, err := backend.CreateInputStream(newTestParams(func(_, _ []float32) error { return nil }))
		require.NoError(t, err)
		mock := stream.(*MockStream)
		mock.SetAudioDataGenerator(func(buf []float32) {
			for i := range buf {
				buf[i] = 0.25
			}
		})

		mock.Tick()
		mock.Tick()

		recorded := backend.GetRecordedAudioData()
		require.Len(t, recorded, 2)
		assert.Len(t, recorded[0], 160)
		assert.Equal(t, float32(0.25), recorded[1][159])
	})

	t.Run("default_sine_is_bounded", func(t *testing.T) {
		stream, err := backend.CreateInputStream(newTestParams(func(_, _ []float32) error { return nil }))
		require.NoError(t, err)
		stream.(*MockStream).Tick()

		recorded := backend.GetRecordedAudioData()
		last := recorded[len(recorded)-1]
		nonZero := false
		for _, v := range last {
			assert.LessOrEqual(t, v, float32(0.1))
			assert.GreaterOrEqual(t, v, float32(-0.1))
			nonZero = nonZero || v != 0
		}
		assert.True(t, nonZero)
	})

	t.Run("output_callback_fills_buffer", func(t *testing.T) {
		stream, err := backend.CreateOutputStream(StreamParams{
			SampleRate: 48000, Channels: 2, BufferSize: 4,
			Callback: func(_, output []float32) error {
				for i := range output {
					output[i] = float32(i)
				}
				return nil
			},
		})
		require.NoError(t, err)
		stream.(*MockStream).Tick()

		played := backend.GetPlaybackAudioData()
		require.Len(t, played, 1)
		assert.Equal(t, []float32{0, 1, 2, 3, 4, 5, 6, 7}, played[0])
	})
}

func TestMockStreamErrorInjection(t *testing.T) {
	backend := initializedMock(t)

	var xruns atomic.Int64
	var lastErr atomic.Value
	params := newTestParams(func(_, _ []float32) error { return nil })
	params.OnXrun = func() { xruns.Add(1) }
	params.OnError = func(err error) { lastErr.Store(err) }

	stream, err := backend.CreateOutputStream(params)
	require.NoError(t, err)
	mock := stream.(*MockStream)

	mock.TriggerXrun()
	mock.TriggerXrun()
	mock.TriggerError(errors.New("device unplugged"))

	assert.Equal(t, int64(2), xruns.Load())
	assert.EqualError(t, lastErr.Load().(error), "device unplugged")
	stats := stream.Stats()
	assert.Equal(t, uint64(2), stats.Xruns)
	assert.Equal(t, uint64(1), stats.Errors)
}

func TestMockStreamCallbackFailures(t *testing.T) {
	backend := initializedMock(t)

	stream, err := backend.CreateOutputStream(newTestParams(func(_, output []float32) error {
		output[0] = 1
		panic("bad handler")
	}))
	require.NoError(t, err)
	mock := stream.(*MockStream)

	assert.NotPanics(t, mock.Tick)
	played := backend.GetPlaybackAudioData()
	require.Len(t, played, 1)
	assert.Equal(t, float32(0), played[0][0])
	assert.Equal(t, uint64(1), stream.Stats().Panics)
}

func TestMockBackendTerminateClosesStreams(t *testing.T) {
	backend := NewMockAudioBackend()
	require.NoError(t, backend.Initialize())

	for range 3 {
		s, err := backend.CreateInputStream(newTestParams(func(_, _ []float32) error { return nil }))
		require.NoError(t, err)
		require.NoError(t, s.Start())
	}
	require.Len(t, backend.Streams(), 3)

	require.NoError(t, backend.Terminate())
	assert.Empty(t, backend.Streams())

	_, err := backend.CreateInputStream(newTestParams(func(_, _ []float32) error { return nil }))
	assert.ErrorIs(t, err, ErrNotInitialized)
}
