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
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// Clip is decoded audio: interleaved float32 in [-1, 1]
type Clip struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

var (
	ErrUnsupportedClipFormat = errors.New("unsupported audio format")
	ErrSampleRateMismatch    = errors.New("clip sample rate does not match stream")
	ErrPartialFrame          = errors.New("clip ends in a partial frame")
	errMalformedWAV          = errors.New("malformed wav data")
)

// Frames returns the number of sample frames
func (c Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

func (c Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Complete reports whether Samples holds whole frames only
func (c Clip) Complete() bool {
	return c.Channels > 0 && len(c.Samples)%c.Channels == 0
}

// trimmed drops a trailing partial frame
func (c Clip) trimmed() Clip {
	if c.Channels > 0 {
		c.Samples = c.Samples[:c.Frames()*c.Channels]
	}
	return c
}

// WithChannels converts between mono and stereo. Other conversions are
// rejected.
func (c Clip) WithChannels(channels int) (Clip, error) {
	if !c.Complete() {
		return Clip{}, fmt.Errorf("%w: %d samples for %d channels", ErrPartialFrame, len(c.Samples), c.Channels)
	}
	switch {
	case c.Channels == channels:
		return c, nil
	case c.Channels == 1 && channels == 2:
		out := make([]float32, len(c.Samples)*2)
		for i, v := range c.Samples {
			out[2*i] = v
			out[2*i+1] = v
		}
		return Clip{Samples: out, SampleRate: c.SampleRate, Channels: 2}, nil
	case c.Channels == 2 && channels == 1:
		out := make([]float32, len(c.Samples)/2)
		for i := range out {
			out[i] = (c.Samples[2*i] + c.Samples[2*i+1]) / 2
		}
		return Clip{Samples: out, SampleRate: c.SampleRate, Channels: 1}, nil
	}
	return Clip{}, fmt.Errorf("cannot convert %d channels to %d", c.Channels, channels)
}

// Decode dispatches on a format name: "mp3", "wav" or "pcm_f32le". Raw PCM
// has no header, so sampleRate and channels describe it.
func Decode(format string, data []byte, sampleRate, channels int) (Clip, error) {
	switch strings.ToLower(format) {
	case "mp3":
		return DecodeMP3(data)
	case "wav", "wave":
		return DecodeWAV(data)
	case "pcm_f32le", "f32le":
		return DecodePCMF32LE(data, sampleRate, channels)
	}
	return Clip{}, fmt.Errorf("%w: %q", ErrUnsupportedClipFormat, format)
}

// DecodeMP3 decodes to stereo at the file's sample rate
func DecodeMP3(data []byte) (Clip, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Clip{}, fmt.Errorf("failed to open mp3 stream: %w", err)
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return Clip{}, fmt.Errorf("failed to decode mp3: %w", err)
	}
	// go-mp3 always yields 16-bit little-endian stereo
	return Clip{Samples: int16LEToFloat(raw), SampleRate: d.SampleRate(), Channels: 2}.trimmed(), nil
}

// DecodeWAV decodes 16-bit PCM and 32-bit float RIFF files
func DecodeWAV(data []byte) (Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Clip{}, fmt.Errorf("%w: missing RIFF/WAVE header", errMalformedWAV)
	}

	var (
		audioFormat   uint16
		channels      uint16
		sampleRate    uint32
		bitsPerSample uint16
		haveFmt       bool
	)
	for pos := 12; pos+8 <= len(data); {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			return Clip{}, fmt.Errorf("%w: chunk %q overruns file", errMalformedWAV, id)
		}
		chunk := data[body : body+size]

		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("%w: short fmt chunk", errMalformedWAV)
			}
			audioFormat = binary.LittleEndian.Uint16(chunk[0:2])
			channels = binary.LittleEndian.Uint16(chunk[2:4])
			sampleRate = binary.LittleEndian.Uint32(chunk[4:8])
			bitsPerSample = binary.LittleEndian.Uint16(chunk[14:16])
			haveFmt = true
		case "data":
			if !haveFmt {
				return Clip{}, fmt.Errorf("%w: data before fmt", errMalformedWAV)
			}
			if channels == 0 {
				return Clip{}, fmt.Errorf("%w: zero channels", errMalformedWAV)
			}
			clip := Clip{SampleRate: int(sampleRate), Channels: int(channels)}
			switch {
			case audioFormat == 1 && bitsPerSample == 16:
				clip.Samples = int16LEToFloat(chunk)
			case audioFormat == 3 && bitsPerSample == 32:
				clip.Samples = float32LE(chunk)
			default:
				return Clip{}, fmt.Errorf("%w: wav format %d with %d bits", ErrUnsupportedClipFormat, audioFormat, bitsPerSample)
			}
			// A truncated file may end mid-frame
			return clip.trimmed(), nil
		}

		// Chunks are padded to an even size
		pos = body + size + size%2
	}
	return Clip{}, fmt.Errorf("%w: no data chunk", errMalformedWAV)
}

// DecodePCMF32LE wraps headerless little-endian float32 samples
func DecodePCMF32LE(data []byte, sampleRate, channels int) (Clip, error) {
	if sampleRate <= 0 || channels <= 0 {
		return Clip{}, fmt.Errorf("raw pcm needs a sample rate and channel count")
	}
	if len(data)%4 != 0 {
		return Clip{}, fmt.Errorf("raw pcm length %d is not a multiple of 4", len(data))
	}
	if n := len(data) / 4; n%channels != 0 {
		return Clip{}, fmt.Errorf("%w: %d samples for %d channels", ErrPartialFrame, n, channels)
	}
	return Clip{Samples: float32LE(data), SampleRate: sampleRate, Channels: channels}, nil
}

// EncodePCMF32LE is the inverse of DecodePCMF32LE
func EncodePCMF32LE(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, v := range samples {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func int16LEToFloat(raw []byte) []float32 {
	out := make([]float32, len(raw)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
	}
	return out
}

func float32LE(raw []byte) []float32 {
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out
}
