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
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildWAV assembles a RIFF file with an optional odd-sized chunk before
// the data chunk.
func buildWAV(format, channels uint16, rate uint32, bits uint16, payload []byte, extra bool) []byte {
	var body bytes.Buffer
	body.WriteString("WAVE")

	fmtChunk := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtChunk[0:], format)
	binary.LittleEndian.PutUint16(fmtChunk[2:], channels)
	binary.LittleEndian.PutUint32(fmtChunk[4:], rate)
	binary.LittleEndian.PutUint32(fmtChunk[8:], rate*uint32(channels)*uint32(bits/8))
	binary.LittleEndian.PutUint16(fmtChunk[12:], channels*bits/8)
	binary.LittleEndian.PutUint16(fmtChunk[14:], bits)
	writeChunk(&body, "fmt ", fmtChunk)

	if extra {
		writeChunk(&body, "LIST", []byte{1, 2, 3})
	}
	writeChunk(&body, "data", payload)

	var out bytes.Buffer
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func writeChunk(w *bytes.Buffer, id string, data []byte) {
	w.WriteString(id)
	_ = binary.Write(w, binary.LittleEndian, uint32(len(data)))
	w.Write(data)
	if len(data)%2 == 1 {
		w.WriteByte(0)
	}
}

func int16Payload(values ...int16) []byte {
	out := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
	}
	return out
}

func TestDecodeWAV(t *testing.T) {
	t.Run("pcm16_stereo", func(t *testing.T) {
		data := buildWAV(1, 2, 44100, 16, int16Payload(0, 16384, -32768, 32767), false)
		clip, err := DecodeWAV(data)
		require.NoError(t, err)

		assert.Equal(t, 44100, clip.SampleRate)
		assert.Equal(t, 2, clip.Channels)
		assert.Equal(t, 2, clip.Frames())
		assert.InDeltaSlice(t, []float32{0, 0.5, -1, 0.99997}, clip.Samples, 1e-4)
	})

	t.Run("float32_mono_after_padded_chunk", func(t *testing.T) {
		payload := EncodePCMF32LE([]float32{0.25, -0.75})
		clip, err := DecodeWAV(buildWAV(3, 1, 16000, 32, payload, true))
		require.NoError(t, err)
		assert.Equal(t, []float32{0.25, -0.75}, clip.Samples)
		assert.Equal(t, 16000, clip.SampleRate)
	})

	t.Run("unsupported_bit_depth", func(t *testing.T) {
		_, err := DecodeWAV(buildWAV(1, 1, 8000, 24, make([]byte, 6), false))
		assert.ErrorIs(t, err, ErrUnsupportedClipFormat)
	})

	t.Run("malformed", func(t *testing.T) {
		cases := map[string][]byte{
			"empty":      nil,
			"not_riff":   []byte("RIFX\x00\x00\x00\x00WAVE"),
			"no_data":    []byte("RIFF\x04\x00\x00\x00WAVE"),
			"truncated":  buildWAV(1, 1, 8000, 16, int16Payload(1, 2, 3), false)[:40],
			"zero_chans": buildWAV(1, 0, 8000, 16, int16Payload(1), false),
		}
		for name, data := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := DecodeWAV(data)
				assert.ErrorIs(t, err, errMalformedWAV)
			})
		}
	})
}

func TestDecodePCMF32LE(t *testing.T) {
	t.Run("round_trip", func(t *testing.T) {
		samples := []float32{0, 1, -1, 0.5, float32(math.Pi / 4)}
		clip, err := DecodePCMF32LE(EncodePCMF32LE(samples), 48000, 1)
		require.NoError(t, err)
		assert.Equal(t, samples, clip.Samples)
	})

	t.Run("bad_length", func(t *testing.T) {
		_, err := DecodePCMF32LE([]byte{1, 2, 3}, 48000, 1)
		assert.Error(t, err)
	})

	t.Run("missing_shape", func(t *testing.T) {
		_, err := DecodePCMF32LE(make([]byte, 8), 0, 1)
		assert.Error(t, err)
	})
}

func TestDecodeDispatch(t *testing.T) {
	t.Run("raw", func(t *testing.T) {
		clip, err := Decode("PCM_F32LE", EncodePCMF32LE([]float32{0.5, 0.5}), 8000, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, clip.Frames())
	})

	t.Run("wave_alias", func(t *testing.T) {
		_, err := Decode("wave", buildWAV(1, 1, 8000, 16, int16Payload(1), false), 0, 0)
		assert.NoError(t, err)
	})

	t.Run("invalid_mp3", func(t *testing.T) {
		_, err := Decode("mp3", nil, 0, 0)
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Decode("flac", []byte{0}, 0, 0)
		assert.ErrorIs(t, err, ErrUnsupportedClipFormat)
	})
}

func TestClip(t *testing.T) {
	mono := Clip{Samples: []float32{0.1, 0.2, 0.3, 0.4}, SampleRate: 4, Channels: 1}

	t.Run("duration", func(t *testing.T) {
		assert.Equal(t, time.Second, mono.Duration())
		assert.Zero(t, Clip{}.Duration())
		assert.Zero(t, Clip{}.Frames())
	})

	t.Run("mono_to_stereo", func(t *testing.T) {
		stereo, err := mono.WithChannels(2)
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.1, 0.2, 0.2, 0.3, 0.3, 0.4, 0.4}, stereo.Samples)
		assert.Equal(t, mono.Frames(), stereo.Frames())
	})

	t.Run("stereo_to_mono", func(t *testing.T) {
		stereo := Clip{Samples: []float32{1, 0, 0.5, 0.5}, SampleRate: 4, Channels: 2}
		m, err := stereo.WithChannels(1)
		require.NoError(t, err)
		assert.Equal(t, []float32{0.5, 0.5}, m.Samples)
	})

	t.Run("same_layout_is_unchanged", func(t *testing.T) {
		same, err := mono.WithChannels(1)
		require.NoError(t, err)
		assert.Equal(t, mono, same)
	})

	t.Run("unsupported_conversion", func(t *testing.T) {
		_, err := mono.WithChannels(6)
		assert.Error(t, err)
	})
}

func TestPartialFrames(t *testing.T) {
	t.Run("truncated_stereo_wav_is_trimmed", func(t *testing.T) {
		data := buildWAV(1, 2, 8000, 16, int16Payload(16384, -16384, 16384), false)
		clip, err := DecodeWAV(data)
		require.NoError(t, err)
		assert.Equal(t, 2, clip.Channels)
		assert.Equal(t, []float32{0.5, -0.5}, clip.Samples)
		assert.True(t, clip.Complete())
	})

	t.Run("raw_pcm_partial_frame", func(t *testing.T) {
		_, err := DecodePCMF32LE(EncodePCMF32LE([]float32{0.1, 0.2, 0.3}), 8000, 2)
		assert.ErrorIs(t, err, ErrPartialFrame)
	})

	t.Run("with_channels_rejects_partial_frame", func(t *testing.T) {
		odd := Clip{Samples: []float32{0.1, 0.2, 0.3}, SampleRate: 8000, Channels: 2}
		assert.False(t, odd.Complete())
		_, err := odd.WithChannels(1)
		assert.ErrorIs(t, err, ErrPartialFrame)
	})
}
