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

// sio-microphone plays an input device through an output device.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/loqalabs/loqa-soundio-go/internal/cli"
	"github.com/loqalabs/loqa-soundio-go/internal/config"
	"github.com/loqalabs/loqa-soundio-go/internal/soundio"
)

func main() {
	common := cli.RegisterCommon(flag.CommandLine, false)
	inDevice := flag.String("in-device", "", "input device id")
	inRaw := flag.Bool("in-raw", false, "open the raw input device")
	outDevice := flag.String("out-device", "", "output device id")
	outRaw := flag.Bool("out-raw", false, "open the raw output device")
	latency := flag.Float64("latency-sec", 0.2, "software latency in seconds")
	flag.Parse()

	cfg, err := common.Load(flag.CommandLine)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if cli.IsSet(flag.CommandLine, "in-device") {
		cfg.Audio.InputDevice = *inDevice
	}
	if cli.IsSet(flag.CommandLine, "out-device") {
		cfg.Audio.OutputDevice = *outDevice
	}
	if cli.IsSet(flag.CommandLine, "latency-sec") || cfg.Audio.LatencySeconds == 0 {
		cfg.Audio.LatencySeconds = *latency
	}

	cli.Run(func(ctx context.Context) error {
		return realMain(ctx, cfg, *inRaw, *outRaw)
	})
}

type negotiated struct {
	layout     soundio.ChannelLayout
	sampleRate int
	format     soundio.Format
}

// negotiate picks the best layout of the output that the input also has,
// then the first rate and format in priority order that both support
func negotiate(in, out *soundio.Device) (negotiated, error) {
	in.SortChannelLayouts()
	out.SortChannelLayouts()

	layout, ok := soundio.BestMatchingLayout(out, in)
	if !ok {
		return negotiated{}, errors.New("channel layouts not compatible")
	}

	sampleRate := 0
	for _, rate := range soundio.PrioritizedSampleRates {
		if in.SupportsSampleRate(rate) && out.SupportsSampleRate(rate) {
			sampleRate = rate
			break
		}
	}
	if sampleRate == 0 {
		return negotiated{}, errors.New("incompatible sample rates")
	}

	for _, f := range soundio.PrioritizedFormats {
		if in.SupportsFormat(f) && out.SupportsFormat(f) {
			return negotiated{layout: layout, sampleRate: sampleRate, format: f}, nil
		}
	}
	return negotiated{}, errors.New("incompatible sample formats")
}

// passthrough connects the read and write callbacks through a ring buffer
type passthrough struct {
	ring       *soundio.RingBuffer
	frameBytes int
	overflows  atomic.Uint64
	underflows atomic.Uint64
	failed     cli.ErrorLatch
}

func (p *passthrough) read(stream *soundio.InStream, frameCountMin, frameCountMax int) {
	freeFrames := p.ring.FreeCount() / p.frameBytes
	if frameCountMin > freeFrames {
		p.failed.Set(errors.New("ring buffer overflow"))
		return
	}

	for left := min(freeFrames, frameCountMax); left > 0; {
		areas, n, err := stream.BeginRead(left)
		if err != nil {
			p.failed.Set(fmt.Errorf("begin read: %w", err))
			return
		}
		if n == 0 {
			break
		}
		copied := areas.ReadInterleaved(p.ring.WriteBuffer(), n)
		p.ring.AdvanceWritePtr(copied * p.frameBytes)
		if err := stream.EndRead(); err != nil {
			p.failed.Set(fmt.Errorf("end read: %w", err))
			return
		}
		left -= n
	}
}

func (p *passthrough) write(stream *soundio.OutStream, frameCountMin, frameCountMax int) {
	fillFrames := p.ring.FillCount() / p.frameBytes

	// Not enough captured yet: write the minimum as silence
	if frameCountMin > fillFrames {
		for left := frameCountMin; left > 0; {
			areas, n, err := stream.BeginWrite(left)
			if err != nil {
				p.failed.Set(fmt.Errorf("begin write: %w", err))
				return
			}
			if n == 0 {
				break
			}
			areas.WriteInterleaved(nil, n)
			if err := stream.EndWrite(); err != nil && !errors.Is(err, soundio.ErrorUnderflow) {
				p.failed.Set(fmt.Errorf("end write: %w", err))
				return
			}
			left -= n
		}
		return
	}

	for left := min(fillFrames, frameCountMax); left > 0; {
		areas, n, err := stream.BeginWrite(left)
		if err != nil {
			p.failed.Set(fmt.Errorf("begin write: %w", err))
			return
		}
		if n == 0 {
			break
		}
		written := areas.WriteInterleaved(p.ring.ReadBuffer(), n)
		p.ring.AdvanceReadPtr(written * p.frameBytes)
		if err := stream.EndWrite(); err != nil && !errors.Is(err, soundio.ErrorUnderflow) {
			p.failed.Set(fmt.Errorf("end write: %w", err))
			return
		}
		left -= n
	}
}

func realMain(ctx context.Context, cfg *config.Config, inRaw, outRaw bool) error {
	s, err := soundio.Create(soundio.WithBackend(cfg.SoundIoBackend()), soundio.WithAppName(cfg.AppName))
	if err != nil {
		return err
	}
	defer s.Destroy()

	if err := s.Connect(); err != nil {
		return fmt.Errorf("error connecting: %w", err)
	}

	in, err := s.FindInputDevice(cfg.Audio.InputDevice, inRaw)
	if err != nil {
		return fmt.Errorf("input device: %w", err)
	}
	defer in.RemoveReference()
	if err := in.ProbeError(); err != nil {
		return fmt.Errorf("unable to probe input device: %w", err)
	}

	out, err := s.FindOutputDevice(cfg.Audio.OutputDevice, outRaw)
	if err != nil {
		return fmt.Errorf("output device: %w", err)
	}
	defer out.RemoveReference()
	if err := out.ProbeError(); err != nil {
		return fmt.Errorf("unable to probe output device: %w", err)
	}
	log.Printf("🎙️  %s → 🔊 %s", in.Name(), out.Name())

	n, err := negotiate(in, out)
	if err != nil {
		return err
	}
	latency := cfg.Audio.LatencySeconds
	log.Printf("Layout: %s, sample rate: %d, format: %s, latency: %.3f sec", n.layout, n.sampleRate, n.format, latency)

	p := &passthrough{frameBytes: soundio.BytesPerFrame(n.format, n.layout.ChannelCount())}

	instream, err := in.NewInStream()
	if err != nil {
		return err
	}
	defer instream.Destroy()
	if err := errors.Join(
		instream.SetFormat(n.format),
		instream.SetLayout(n.layout),
		instream.SetSampleRate(n.sampleRate),
		instream.SetSoftwareLatency(latency),
		instream.SetReadCallback(p.read),
		instream.SetOverflowCallback(func(*soundio.InStream) { p.overflows.Add(1) }),
		instream.SetErrorCallback(func(_ *soundio.InStream, err error) { p.failed.Set(err) }),
	); err != nil {
		return err
	}
	if err := instream.Open(); err != nil {
		return fmt.Errorf("unable to open input device: %w", err)
	}

	outstream, err := out.NewOutStream()
	if err != nil {
		return err
	}
	defer outstream.Destroy()
	if err := errors.Join(
		outstream.SetFormat(n.format),
		outstream.SetLayout(n.layout),
		outstream.SetSampleRate(n.sampleRate),
		outstream.SetSoftwareLatency(latency),
		outstream.SetWriteCallback(p.write),
		outstream.SetUnderflowCallback(func(*soundio.OutStream) { p.underflows.Add(1) }),
		outstream.SetErrorCallback(func(_ *soundio.OutStream, err error) { p.failed.Set(err) }),
	); err != nil {
		return err
	}
	if err := outstream.Open(); err != nil {
		return fmt.Errorf("unable to open output device: %w", err)
	}

	capacity := int(2*latency*float64(n.sampleRate)) * p.frameBytes
	if p.ring, err = s.NewRingBuffer(max(capacity, 64*p.frameBytes)); err != nil {
		return err
	}
	defer p.ring.Destroy()

	// Start with one latency period of silence so the output has a cushion
	silence := int(latency*float64(n.sampleRate)) * p.frameBytes
	buf := p.ring.WriteBuffer()
	silence = min(silence, len(buf))
	clear(buf[:silence])
	p.ring.AdvanceWritePtr(silence)

	if err := instream.Start(); err != nil {
		return fmt.Errorf("unable to start input device: %w", err)
	}
	if err := outstream.Start(); err != nil {
		return fmt.Errorf("unable to start output device: %w", err)
	}
	log.Println("▶️  Passthrough running. Press Ctrl+C to stop")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var overflows, underflows uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		s.FlushEvents()
		if err := p.failed.Err(); err != nil {
			return err
		}
		if o, u := p.overflows.Load(), p.underflows.Load(); o != overflows || u != underflows {
			log.Printf("⚠️  overflows %d, underflows %d", o, u)
			overflows, underflows = o, u
		}
	}
}
