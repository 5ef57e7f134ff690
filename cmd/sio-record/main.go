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

// sio-record captures an input device into a raw interleaved file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/loqalabs/loqa-soundio-go/internal/cli"
	"github.com/loqalabs/loqa-soundio-go/internal/config"
	"github.com/loqalabs/loqa-soundio-go/internal/soundio"
)

const ringBufferSeconds = 30

func main() {
	common := cli.RegisterCommon(flag.CommandLine, false)
	device := flag.String("device", "", "input device id")
	raw := flag.Bool("raw", false, "open the raw device")
	outfile := flag.String("file", "", "output file")
	flag.Parse()

	if *outfile == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := common.Load(flag.CommandLine)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if cli.IsSet(flag.CommandLine, "device") {
		cfg.Audio.InputDevice = *device
	}
	if cli.IsSet(flag.CommandLine, "raw") {
		cfg.Audio.Raw = *raw
	}

	cli.Run(func(ctx context.Context) error {
		file, err := os.Create(*outfile)
		if err != nil {
			return fmt.Errorf("unable to open %s: %w", *outfile, err)
		}
		defer file.Close()
		return realMain(ctx, cfg, file)
	})
}

// recorder moves captured frames from the read callback into a ring buffer
// that the main goroutine drains to disk
type recorder struct {
	ring       *soundio.RingBuffer
	frameBytes int
	overflows  atomic.Uint64
	dropped    atomic.Uint64 // frames lost because the ring buffer was full
	failed     cli.ErrorLatch
}

func (r *recorder) read(stream *soundio.InStream, _, frameCountMax int) {
	freeFrames := r.ring.FreeCount() / r.frameBytes
	writeFrames := min(freeFrames, frameCountMax)
	if writeFrames < frameCountMax {
		r.dropped.Add(uint64(frameCountMax - writeFrames))
	}

	for left := writeFrames; left > 0; {
		areas, n, err := stream.BeginRead(left)
		if err != nil {
			r.failed.Set(fmt.Errorf("begin read: %w", err))
			return
		}
		if n == 0 {
			break
		}
		copied := areas.ReadInterleaved(r.ring.WriteBuffer(), n)
		r.ring.AdvanceWritePtr(copied * r.frameBytes)
		if err := stream.EndRead(); err != nil {
			r.failed.Set(fmt.Errorf("end read: %w", err))
			return
		}
		left -= n
	}
}

// drain writes everything readable to w
func (r *recorder) drain(w io.Writer) (int, error) {
	buf := r.ring.ReadBuffer()
	if len(buf) == 0 {
		return 0, nil
	}
	n, err := w.Write(buf)
	r.ring.AdvanceReadPtr(n)
	return n, err
}

func realMain(ctx context.Context, cfg *config.Config, out io.Writer) error {
	s, err := soundio.Create(soundio.WithBackend(cfg.SoundIoBackend()), soundio.WithAppName(cfg.AppName))
	if err != nil {
		return err
	}
	defer s.Destroy()

	if err := s.Connect(); err != nil {
		return fmt.Errorf("error connecting: %w", err)
	}

	device, err := s.FindInputDevice(cfg.Audio.InputDevice, cfg.Audio.Raw)
	if err != nil {
		return err
	}
	defer device.RemoveReference()
	log.Printf("🎙️  Device: %s", device.Name())

	if err := device.ProbeError(); err != nil {
		return fmt.Errorf("unable to probe device: %w", err)
	}
	device.SortChannelLayouts()

	sampleRate := device.BestSampleRate(soundio.PrioritizedSampleRates)
	if sampleRate == 0 {
		return errors.New("device reports no sample rates")
	}
	format, err := device.BestFormat(soundio.PrioritizedFormats)
	if err != nil {
		return err
	}
	log.Printf("Sample rate: %d, format: %s", sampleRate, format)

	instream, err := device.NewInStream()
	if err != nil {
		return err
	}
	defer instream.Destroy()

	rec := &recorder{}
	if err := errors.Join(
		instream.SetFormat(format),
		instream.SetSampleRate(sampleRate),
		instream.SetReadCallback(rec.read),
		instream.SetOverflowCallback(func(*soundio.InStream) { rec.overflows.Add(1) }),
		instream.SetErrorCallback(func(_ *soundio.InStream, err error) { rec.failed.Set(err) }),
	); err != nil {
		return err
	}
	if err := instream.Open(); err != nil {
		return fmt.Errorf("unable to open input device: %w", err)
	}
	if err := instream.LayoutError(); err != nil {
		log.Printf("⚠️  Unable to set channel layout: %v", err)
	}

	rec.frameBytes = instream.BytesPerFrame()
	rec.ring, err = s.NewRingBuffer(ringBufferSeconds * instream.SampleRate() * rec.frameBytes)
	if err != nil {
		return err
	}
	defer rec.ring.Destroy()

	if err := instream.Start(); err != nil {
		return fmt.Errorf("unable to start input device: %w", err)
	}
	log.Printf("⏺️  Recording %s at %d Hz, %s. Press Ctrl+C to stop", instream.Layout(), instream.SampleRate(), instream.Format())

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var total int
	var reported uint64
	for {
		select {
		case <-ctx.Done():
			// The read thread stops in Destroy; flush what it left behind
			instream.Destroy()
			n, err := rec.drain(out)
			total += n
			log.Printf("💾 Wrote %d bytes", total)
			if err != nil {
				return err
			}
			return ctx.Err()
		case <-ticker.C:
		}

		s.FlushEvents()
		n, err := rec.drain(out)
		total += n
		if err != nil {
			return fmt.Errorf("write error: %w", err)
		}
		if err := rec.failed.Err(); err != nil {
			return err
		}
		if o := rec.overflows.Load(); o != reported {
			log.Printf("⚠️  overflow %d", o)
			reported = o
		}
	}
}
