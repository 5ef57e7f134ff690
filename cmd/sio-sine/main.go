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

// sio-sine plays a sine wave through any of the audio engines.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/loqalabs/loqa-soundio-go/internal/audio"
	"github.com/loqalabs/loqa-soundio-go/internal/cli"
	"github.com/loqalabs/loqa-soundio-go/internal/config"
	"github.com/loqalabs/loqa-soundio-go/internal/soundio"
)

type options struct {
	frequency float64
	amplitude float64
	duration  time.Duration
	info      bool
}

func main() {
	common := cli.RegisterCommon(flag.CommandLine, false)
	engine := flag.String("engine", "", "soundio|portaudio|mock")
	device := flag.String("device", "", "output device id")
	raw := flag.Bool("raw", false, "open the raw device")
	rate := flag.Int("rate", 0, "sample rate")
	channels := flag.Int("channels", 0, "channel count")
	latency := flag.Float64("latency", 0, "software latency in seconds")
	var opts options
	flag.Float64Var(&opts.frequency, "frequency", 440, "tone frequency in Hz")
	flag.Float64Var(&opts.amplitude, "amplitude", 0.5, "peak amplitude, 0 to 1")
	flag.DurationVar(&opts.duration, "duration", 0, "stop after this long; 0 plays until interrupted")
	flag.BoolVar(&opts.info, "info", false, "log libsoundio version and channel tables first")
	flag.Parse()

	cfg, err := common.Load(flag.CommandLine)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if cli.IsSet(flag.CommandLine, "engine") {
		cfg.Audio.Engine = *engine
	}
	if cli.IsSet(flag.CommandLine, "device") {
		cfg.Audio.OutputDevice = *device
	}
	if cli.IsSet(flag.CommandLine, "raw") {
		cfg.Audio.Raw = *raw
	}
	if cli.IsSet(flag.CommandLine, "rate") {
		cfg.Audio.SampleRate = *rate
	}
	if cli.IsSet(flag.CommandLine, "channels") {
		cfg.Audio.Channels = *channels
	}
	if cli.IsSet(flag.CommandLine, "latency") {
		cfg.Audio.LatencySeconds = *latency
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	cli.Run(func(ctx context.Context) error {
		return realMain(ctx, cfg, opts)
	})
}

func realMain(ctx context.Context, cfg *config.Config, opts options) error {
	if opts.info {
		logLibraryInfo()
	}

	backend, err := audio.NewBackend(cfg.Audio.Engine, cfg.SoundIoBackend(), cfg.AppName)
	if err != nil {
		return err
	}
	if err := backend.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize %s: %w", backend.Name(), err)
	}
	defer func() { _ = backend.Terminate() }()

	gen := newSine(opts.frequency, opts.amplitude, float64(cfg.Audio.SampleRate), cfg.Audio.Channels)
	var streamErr cli.ErrorLatch
	stream, err := backend.CreateOutputStream(audio.StreamParams{
		SampleRate: float64(cfg.Audio.SampleRate),
		Channels:   cfg.Audio.Channels,
		BufferSize: cfg.Audio.FramesPerBuffer,
		Device:     cfg.Audio.OutputDevice,
		Raw:        cfg.Audio.Raw,
		Latency:    cfg.Audio.Latency(),
		Callback: func(_, output []float32) error {
			gen.fill(output)
			return nil
		},
		OnError: streamErr.Set,
	})
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	if err := stream.Start(); err != nil {
		return err
	}
	log.Printf("🔊 Playing %.1f Hz on %s (%d Hz, %d channels)", opts.frequency, backend.Name(), cfg.Audio.SampleRate, cfg.Audio.Channels)

	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}
	return pump(ctx, backend, stream, &streamErr, opts.duration > 0)
}

// pump flushes libsoundio events and reports stream health until ctx ends
func pump(ctx context.Context, backend audio.AudioBackend, stream audio.StreamInterface, streamErr *cli.ErrorLatch, timed bool) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastXruns uint64
	for {
		select {
		case <-ctx.Done():
			if timed && ctx.Err() == context.DeadlineExceeded {
				log.Printf("✅ Done: %+v", stream.Stats())
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}

		if sb, ok := backend.(*audio.SoundIoBackend); ok {
			sb.Context().FlushEvents()
		}
		if err := streamErr.Err(); err != nil {
			return fmt.Errorf("stream failed: %w", err)
		}
		if stats := stream.Stats(); stats.Xruns != lastXruns {
			log.Printf("⚠️  %d underflows", stats.Xruns-lastXruns)
			lastXruns = stats.Xruns
		}
	}
}

func logLibraryInfo() {
	log.Printf("libsoundio %s", soundio.Version())
	log.Printf("Front Center channel name: %s", soundio.ChannelIDFrontCenter)
	log.Printf("\"front-right\" parses as channel %d", soundio.ParseChannelID("front-right"))
	log.Printf("Max channels: %d", soundio.MaxChannels)
	log.Printf("Builtin channel layouts: %d", soundio.ChannelLayoutBuiltinCount())
	for _, b := range soundio.Backends {
		log.Printf("Have %s: %t", b, b.Have())
	}
}

// sine keeps its phase continuous across callbacks
type sine struct {
	phase     float64
	step      float64
	amplitude float64
	channels  int
}

func newSine(frequency, amplitude, sampleRate float64, channels int) *sine {
	return &sine{
		step:      2 * math.Pi * frequency / sampleRate,
		amplitude: math.Max(0, math.Min(1, amplitude)),
		channels:  channels,
	}
}

func (s *sine) fill(out []float32) {
	for frame := 0; frame < len(out)/s.channels; frame++ {
		v := float32(s.amplitude * math.Sin(s.phase))
		for ch := 0; ch < s.channels; ch++ {
			out[frame*s.channels+ch] = v
		}
		s.phase += s.step
	}
	s.phase = math.Mod(s.phase, 2*math.Pi)
}
