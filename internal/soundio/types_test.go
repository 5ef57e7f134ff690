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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		input   string
		want    Backend
		wantErr bool
	}{
		{"", BackendNone, false},
		{"auto", BackendNone, false},
		{"dummy", BackendDummy, false},
		{"ALSA", BackendAlsa, false},
		{"pulseaudio", BackendPulseAudio, false},
		{"pulse", BackendPulseAudio, false},
		{"jack", BackendJack, false},
		{"coreaudio", BackendCoreAudio, false},
		{"wasapi", BackendWasapi, false},
		{" dummy ", BackendDummy, false},
		{"oss", BackendNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBackend(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBackend)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBackendNames(t *testing.T) {
	assert.Equal(t, "Dummy", BackendDummy.String())
	assert.Equal(t, "ALSA", BackendAlsa.String())
	assert.Len(t, Backends, 6)
}

func TestFormatSizes(t *testing.T) {
	assert.Equal(t, 4, BytesPerSample(FormatFloat32LE))
	assert.Equal(t, 2, BytesPerSample(FormatS16NE))
	assert.Equal(t, 1, BytesPerSample(FormatU8))
	assert.Equal(t, 8, BytesPerSample(FormatFloat64BE))
	assert.Equal(t, -1, BytesPerSample(FormatInvalid))

	assert.Equal(t, 8, BytesPerFrame(FormatFloat32NE, 2))
	assert.Equal(t, 48000*2*2, BytesPerSecond(FormatS16LE, 2, 48000))
	assert.NotEmpty(t, FormatS24LE.String())
}

func TestDeviceAim(t *testing.T) {
	assert.Equal(t, "input", DeviceAimInput.String())
	assert.Equal(t, "output", DeviceAimOutput.String())
}

func TestChannelID(t *testing.T) {
	assert.Equal(t, ChannelIDFrontLeft, ParseChannelID(ChannelIDFrontLeft.String()))
	assert.Equal(t, ChannelIDInvalid, ParseChannelID("no such speaker"))
}

func TestChannelLayout(t *testing.T) {
	stereo := ChannelLayoutBuiltin(ChannelLayoutIDStereo)
	require.Equal(t, 2, stereo.ChannelCount())
	assert.Equal(t, ChannelIDFrontLeft, stereo.Channels[0])
	assert.Equal(t, ChannelIDFrontRight, stereo.Channels[1])
	assert.NotEmpty(t, stereo.Name)

	t.Run("find_channel", func(t *testing.T) {
		assert.Equal(t, 1, stereo.FindChannel(ChannelIDFrontRight))
		assert.Equal(t, -1, stereo.FindChannel(ChannelIDLfe))
	})

	t.Run("equal_ignores_name", func(t *testing.T) {
		anon := ChannelLayout{Channels: []ChannelID{ChannelIDFrontLeft, ChannelIDFrontRight}}
		assert.True(t, stereo.Equal(anon))
		assert.False(t, stereo.Equal(ChannelLayoutBuiltin(ChannelLayoutIDMono)))
	})

	t.Run("detect_builtin", func(t *testing.T) {
		anon := ChannelLayout{Channels: []ChannelID{ChannelIDFrontLeft, ChannelIDFrontRight}}
		named, ok := anon.DetectBuiltin()
		assert.True(t, ok)
		assert.Equal(t, stereo.Name, named.Name)

		odd := ChannelLayout{Channels: []ChannelID{ChannelIDAux0, ChannelIDAux1, ChannelIDAux2}}
		_, ok = odd.DetectBuiltin()
		assert.False(t, ok)
	})

	t.Run("default_for_count", func(t *testing.T) {
		l, ok := DefaultChannelLayout(2)
		require.True(t, ok)
		assert.True(t, l.Equal(stereo))

		_, ok = DefaultChannelLayout(MaxChannels + 1)
		assert.False(t, ok)
	})

	t.Run("round_trip_through_native", func(t *testing.T) {
		c := stereo.toC()
		back := layoutFromC(&c)
		assert.Equal(t, stereo, back)
	})

	t.Run("builtin_names", func(t *testing.T) {
		assert.Greater(t, ChannelLayoutBuiltinCount(), int(ChannelLayoutIDOctagonal))
		assert.Equal(t, stereo.Name, ChannelLayoutIDStereo.String())
		assert.Equal(t, "unknown", ChannelLayoutID(-1).String())
	})
}

func TestSampleRateRange(t *testing.T) {
	r := SampleRateRange{Min: 8000, Max: 48000}
	assert.True(t, r.Contains(44100))
	assert.True(t, r.Contains(48000))
	assert.False(t, r.Contains(96000))
}

func TestChannelAreas(t *testing.T) {
	areas, free := areasDouble(2, 4, 4)
	defer free()

	assert.False(t, areas.Hole())
	assert.Equal(t, 2, areas.ChannelCount())
	assert.Equal(t, 4, areas.FrameCount())
	assert.Equal(t, 8, areas.Step(0))

	for frame := 0; frame < 4; frame++ {
		areas.SetFloat32(0, frame, float32(frame))
		areas.SetFloat32(1, frame, -float32(frame))
	}
	for frame := 0; frame < 4; frame++ {
		assert.Equal(t, float32(frame), areas.Float32(0, frame))
		assert.Equal(t, -float32(frame), areas.Float32(1, frame))
	}
	assert.Len(t, areas.Buffer(1, 3), 4)

	allocs := testing.AllocsPerRun(100, func() {
		areas.SetFloat32(1, 2, areas.Float32(0, 2))
		_ = areas.Buffer(0, 1)
	})
	assert.Zero(t, allocs, "area accessors must not allocate")

	assert.True(t, ChannelAreas{}.Hole())
}

func TestChannelAreasInterleaved(t *testing.T) {
	areas, free := areasDouble(2, 3, 2)
	defer free()

	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	assert.Equal(t, 2, areas.WriteInterleaved(src, 3), "only two whole frames in src")
	assert.Equal(t, []byte{3, 4}, areas.Buffer(1, 0))
	assert.Equal(t, []byte{0, 0}, areas.Buffer(0, 2), "missing frames are zeroed")

	dst := make([]byte, 12)
	assert.Equal(t, 3, areas.ReadInterleaved(dst, 10))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0}, dst)

	short := make([]byte, 5)
	assert.Equal(t, 1, areas.ReadInterleaved(short, 3))

	t.Run("hole_reads_silence", func(t *testing.T) {
		hole := newChannelAreas(nil, 2, 2, 2)
		out := []byte{9, 9, 9, 9, 9, 9, 9, 9}
		assert.Equal(t, 2, hole.ReadInterleaved(out, 2))
		assert.Equal(t, make([]byte, 8), out)
		assert.Zero(t, hole.WriteInterleaved(src, 2))
	})

	allocs := testing.AllocsPerRun(100, func() {
		areas.ReadInterleaved(dst, 3)
		areas.WriteInterleaved(dst, 3)
	})
	assert.Zero(t, allocs)
}
