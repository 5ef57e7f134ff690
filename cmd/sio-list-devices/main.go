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

// sio-list-devices prints the input and output devices of a libsoundio
// backend. With -watch it keeps running and reprints on every change.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/loqalabs/loqa-soundio-go/internal/cli"
	"github.com/loqalabs/loqa-soundio-go/internal/config"
	natsio "github.com/loqalabs/loqa-soundio-go/internal/nats"
	"github.com/loqalabs/loqa-soundio-go/internal/soundio"
)

func main() {
	common := cli.RegisterCommon(flag.CommandLine, true)
	watch := flag.Bool("watch", false, "keep running and list devices on every change")
	short := flag.Bool("short", false, "print device names only")
	flag.Parse()

	cfg, err := common.Load(flag.CommandLine)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	cli.Run(func(ctx context.Context) error {
		return realMain(ctx, cfg, *watch, *short)
	})
}

func realMain(ctx context.Context, cfg *config.Config, watch, short bool) error {
	var publisher *natsio.EventPublisher
	if watch && cfg.NATS.Enabled {
		conn, err := natsio.Dial(ctx, cfg.NATS.URL, natsio.DialOptions{Name: cfg.AppName})
		if err != nil {
			return err
		}
		defer conn.Close()
		publisher = natsio.NewEventPublisher(conn, natsio.Subjects{Prefix: cfg.NATS.SubjectPrefix, Node: cfg.Node}, cfg.NATS.QueueCapacity)
		publisher.Start()
		defer publisher.Close()
	}

	opts := []soundio.Option{
		soundio.WithBackend(cfg.SoundIoBackend()),
		soundio.WithAppName(cfg.AppName),
	}
	if watch {
		opts = append(opts,
			soundio.WithOnDevicesChange(func(s *soundio.SoundIo) {
				log.Println("🔄 Devices changed")
				listDevices(s, short)
				if publisher != nil {
					publisher.Notify(devicesEvent(s))
				}
			}),
			soundio.WithOnBackendDisconnect(func(s *soundio.SoundIo, err error) {
				log.Printf("⚠️  Backend disconnected: %v", err)
				if publisher != nil {
					publisher.Notify(natsio.DeviceEvent{Type: natsio.EventBackendDisconnected, Error: err.Error()})
				}
			}),
		)
	}

	s, err := soundio.Create(opts...)
	if err != nil {
		return fmt.Errorf("failed to create soundio context: %w", err)
	}
	defer s.Destroy()

	// Connect flushes once, which already lists devices in watch mode
	if err := s.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	log.Printf("✅ Connected to %s", s.CurrentBackend())

	if watch {
		return s.WaitEvents(ctx)
	}
	listDevices(s, short)
	return nil
}

func devicesEvent(s *soundio.SoundIo) natsio.DeviceEvent {
	return natsio.DeviceEvent{
		Type:          natsio.EventDevicesChanged,
		Backend:       s.CurrentBackend().String(),
		InputDevices:  s.InputDeviceCount(),
		OutputDevices: s.OutputDeviceCount(),
	}
}

func listDevices(s *soundio.SoundIo, short bool) {
	inputCount := s.InputDeviceCount()
	outputCount := s.OutputDeviceCount()
	defaultInput := s.DefaultInputDeviceIndex()
	defaultOutput := s.DefaultOutputDeviceIndex()

	log.Println("--------Input Devices--------")
	for i := 0; i < inputCount; i++ {
		if device := s.InputDevice(i); device != nil {
			printDevice(device, short, i == defaultInput)
			device.RemoveReference()
		}
	}

	log.Println("--------Output Devices--------")
	for i := 0; i < outputCount; i++ {
		if device := s.OutputDevice(i); device != nil {
			printDevice(device, short, i == defaultOutput)
			device.RemoveReference()
		}
	}

	log.Println()
	log.Printf("%d devices found", inputCount+outputCount)
}

func printDevice(device *soundio.Device, short, isDefault bool) {
	log.Printf("%s%s", device.Name(), deviceTags(isDefault, device.Raw()))
	if short {
		return
	}

	log.Printf("  id: %s", device.ID())

	if err := device.ProbeError(); err != nil {
		log.Printf("  probe error: %v", err)
		log.Println()
		return
	}

	log.Println("  channel layouts:")
	for _, layout := range device.Layouts() {
		log.Printf("    %s", layout)
	}
	if current := device.CurrentLayout(); current.ChannelCount() > 0 {
		log.Printf("  current layout: %s", current)
	}

	log.Println("  sample rates:")
	for _, rate := range device.SampleRates() {
		log.Printf("    %d - %d", rate.Min, rate.Max)
	}
	if rate := device.SampleRateCurrent(); rate > 0 {
		log.Printf("  current sample rate: %d", rate)
	}

	log.Printf("  formats: %s", joinFormats(device.Formats()))
	if format := device.CurrentFormat(); format != soundio.FormatInvalid {
		log.Printf("  current format: %s", format)
	}

	log.Printf("  min software latency: %0.8f sec", device.SoftwareLatencyMin())
	log.Printf("  max software latency: %0.8f sec", device.SoftwareLatencyMax())
	if latency := device.SoftwareLatencyCurrent(); latency != 0 {
		log.Printf("  current software latency: %0.8f sec", latency)
	}
	log.Println()
}

func deviceTags(isDefault, raw bool) string {
	var tags string
	if isDefault {
		tags += " (default)"
	}
	if raw {
		tags += " (raw)"
	}
	return tags
}

func joinFormats(formats []soundio.Format) string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.String()
	}
	return strings.Join(names, ", ")
}
