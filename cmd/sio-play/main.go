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

// sio-play plays audio files published over NATS, or a local file with
// -file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loqalabs/loqa-soundio-go/internal/audio"
	"github.com/loqalabs/loqa-soundio-go/internal/cli"
	"github.com/loqalabs/loqa-soundio-go/internal/config"
	natsio "github.com/loqalabs/loqa-soundio-go/internal/nats"
)

func main() {
	common := cli.RegisterCommon(flag.CommandLine, false)
	engine := flag.String("engine", "", "soundio|portaudio|mock")
	device := flag.String("device", "", "output device id")
	rate := flag.Int("rate", 0, "stream sample rate")
	channels := flag.Int("channels", 0, "stream channel count")
	file := flag.String("file", "", "play this file and exit instead of subscribing")
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
	if cli.IsSet(flag.CommandLine, "rate") {
		cfg.Audio.SampleRate = *rate
	}
	if cli.IsSet(flag.CommandLine, "channels") {
		cfg.Audio.Channels = *channels
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	cli.Run(func(ctx context.Context) error {
		if *file != "" {
			return playFile(ctx, cfg, *file)
		}
		return realMain(ctx, cfg)
	})
}

func newPlayer(cfg *config.Config) (*audio.Player, audio.AudioBackend, error) {
	backend, err := audio.NewBackend(cfg.Audio.Engine, cfg.SoundIoBackend(), cfg.AppName)
	if err != nil {
		return nil, nil, err
	}
	if err := backend.Initialize(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize %s: %w", backend.Name(), err)
	}
	player := audio.NewPlayer(backend, audio.PlayerConfig{
		SampleRate:    cfg.Audio.SampleRate,
		Channels:      cfg.Audio.Channels,
		BufferSize:    cfg.Audio.FramesPerBuffer,
		Device:        cfg.Audio.OutputDevice,
		QueueCapacity: cfg.NATS.QueueCapacity,
	})
	if err := player.Start(); err != nil {
		_ = backend.Terminate()
		return nil, nil, err
	}
	return player, backend, nil
}

// formatFromPath maps a file extension to a decoder name
func formatFromPath(path string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "raw", "f32", "pcm":
		return "pcm_f32le"
	default:
		return ext
	}
}

func playFile(ctx context.Context, cfg *config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	clip, err := audio.Decode(formatFromPath(path), data, cfg.Audio.SampleRate, cfg.Audio.Channels)
	if err != nil {
		return err
	}
	// Play at the file's own rate
	cfg.Audio.SampleRate = clip.SampleRate

	player, backend, err := newPlayer(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Terminate() }()
	defer func() { _ = player.Close() }()

	log.Printf("🔊 Playing %s (%s)", path, clip.Duration())
	if err := player.Enqueue(clip); err != nil {
		return err
	}
	if err := player.Wait(ctx); err != nil {
		return err
	}
	log.Printf("✅ Done: %+v", player.Stats())
	return nil
}

func realMain(ctx context.Context, cfg *config.Config) error {
	player, backend, err := newPlayer(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Terminate() }()
	defer func() { _ = player.Close() }()

	conn, err := natsio.Dial(ctx, cfg.NATS.URL, natsio.DialOptions{Name: cfg.AppName})
	if err != nil {
		return err
	}
	return serve(ctx, conn, cfg, player)
}

// serve subscribes the player and reports stats until ctx ends. It closes
// conn.
func serve(ctx context.Context, conn natsio.Connection, cfg *config.Config, player *audio.Player) error {
	subjects := natsio.Subjects{Prefix: cfg.NATS.SubjectPrefix, Node: cfg.Node}

	subscriber := natsio.NewAudioSubscriber(conn, subjects, player)
	defer subscriber.Close()

	publisher := natsio.NewEventPublisher(conn, subjects, cfg.NATS.QueueCapacity)
	publisher.Start()
	defer publisher.Close()

	if err := subscriber.Start(); err != nil {
		return err
	}
	log.Printf("🎧 Waiting for audio on %s", subjects.Audio())

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	var underruns uint64
	for {
		select {
		case <-ctx.Done():
			log.Printf("📊 %+v, %+v", subscriber.Stats(), player.Stats())
			return ctx.Err()
		case <-ticker.C:
		}
		if stats := player.Stats(); stats.Underruns != underruns {
			publisher.Notify(natsio.DeviceEvent{
				Type:   natsio.EventXrun,
				Device: cfg.Audio.OutputDevice,
				Error:  fmt.Sprintf("%d playback underruns", stats.Underruns-underruns),
			})
			underruns = stats.Underruns
		}
	}
}
