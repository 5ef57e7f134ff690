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

package main

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/loqalabs/loqa-soundio-go/internal/audio"
	"github.com/loqalabs/loqa-soundio-go/internal/cli"
	"github.com/loqalabs/loqa-soundio-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSine(t *testing.T) {
	t.Run("channels_share_a_sample", func(t *testing.T) {
		s := newSine(1000, 1, 8000, 2)
		out := make([]float32, 16)
		s.fill(out)
		for frame := 0; frame < 8; frame++ {
			assert.Equal(t, out[2*frame], out[2*frame+1])
		}
		assert.InDelta(t, 1, out[4], 1e-6, "quarter period peaks")
	})

	t.Run("phase_is_continuous", func(t *testing.T) {
		whole := newSine(440, 0.5, 48000, 1)
		split := newSine(440, 0.5, 48000, 1)

		a := make([]float32, 300)
		whole.fill(a)
		b := make([]float32, 300)
		split.fill(b[:137])
		split.fill(b[137:])
		assert.InDeltaSlice(t, a, b, 1e-5)
	})

	t.Run("amplitude_is_clamped", func(t *testing.T) {
		s := newSine(100, 3, 8000, 1)
		out := make([]float32, 160)
		s.fill(out)
		for _, v := range out {
			assert.LessOrEqual(t, math.Abs(float64(v)), 1.0)
		}
	})
}

func TestRealMainWithMockEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.Engine = "mock"
	cfg.Audio.SampleRate = 8000
	cfg.Audio.FramesPerBuffer = 80

	err := realMain(context.Background(), cfg, options{frequency: 440, amplitude: 0.5, duration: 1200 * time.Millisecond})
	require.NoError(t, err)
}

func TestPumpStreamError(t *testing.T) {
	backend := audio.NewMockAudioBackend()
	require.NoError(t, backend.Initialize())
	defer func() { _ = backend.Terminate() }()

	var streamErr cli.ErrorLatch
	stream, err := backend.CreateOutputStream(audio.StreamParams{
		SampleRate: 8000, Channels: 1, BufferSize: 80,
		Callback: func(_, _ []float32) error { return nil },
		OnError:  streamErr.Set,
	})
	require.NoError(t, err)
	stream.(*audio.MockStream).TriggerError(assert.AnError)

	err = pump(context.Background(), backend, stream, &streamErr, false)
	assert.ErrorIs(t, err, assert.AnError)
}
