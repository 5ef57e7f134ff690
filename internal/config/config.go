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

// Package config loads the YAML configuration shared by the command-line
// tools. Environment variables are expanded before parsing and may come
// from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/loqalabs/loqa-soundio-go/internal/soundio"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppName string      `yaml:"app_name"`
	Node    string      `yaml:"node"`
	Backend string      `yaml:"backend"` // libsoundio backend name; empty picks the first that connects
	Audio   AudioConfig `yaml:"audio"`
	NATS    NATSConfig  `yaml:"nats"`
}

type AudioConfig struct {
	Engine          string  `yaml:"engine"` // soundio, portaudio or mock
	SampleRate      int     `yaml:"sample_rate"`
	Channels        int     `yaml:"channels"`
	LatencySeconds  float64 `yaml:"latency_seconds"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	InputDevice     string  `yaml:"input_device"`
	OutputDevice    string  `yaml:"output_device"`
	Raw             bool    `yaml:"raw"`
}

type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	QueueCapacity int    `yaml:"queue_capacity"`
}

// Engines accepted by audio.engine
var Engines = []string{"soundio", "portaudio", "mock"}

// Default returns the configuration used when no file is given
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

// Load reads a .env file if one exists, then the YAML file at path. An
// empty path yields the defaults.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := LoadEnv(envFiles...); err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data and decodes it
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnv loads .env files without overriding variables already set.
// Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.AppName == "" {
		c.AppName = "loqa-soundio"
	}
	if c.Node == "" {
		if host, err := os.Hostname(); err == nil && host != "" {
			c.Node = host
		} else {
			c.Node = "default"
		}
	}
	if c.Audio.Engine == "" {
		c.Audio.Engine = "soundio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 48000
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = 2
	}
	if c.Audio.FramesPerBuffer == 0 {
		c.Audio.FramesPerBuffer = 1024
	}
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://localhost:4222"
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "soundio"
	}
	if c.NATS.QueueCapacity == 0 {
		c.NATS.QueueCapacity = 64
	}
}

// Validate checks values that setDefaults cannot repair
func (c *Config) Validate() error {
	if _, err := soundio.ParseBackend(c.Backend); err != nil {
		return fmt.Errorf("invalid backend: %w", err)
	}
	if !validEngine(c.Audio.Engine) {
		return fmt.Errorf("invalid audio engine %q, want one of %v", c.Audio.Engine, Engines)
	}
	if c.Audio.SampleRate < 0 {
		return fmt.Errorf("invalid sample rate %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels < 0 || c.Audio.Channels > soundio.MaxChannels {
		return fmt.Errorf("invalid channel count %d (max %d)", c.Audio.Channels, soundio.MaxChannels)
	}
	if c.Audio.LatencySeconds < 0 {
		return fmt.Errorf("invalid latency %v", c.Audio.LatencySeconds)
	}
	if c.Audio.FramesPerBuffer < 0 {
		return fmt.Errorf("invalid frames per buffer %d", c.Audio.FramesPerBuffer)
	}
	if c.NATS.QueueCapacity < 0 {
		return fmt.Errorf("invalid NATS queue capacity %d", c.NATS.QueueCapacity)
	}
	return nil
}

// SoundIoBackend returns the parsed backend
func (c *Config) SoundIoBackend() soundio.Backend {
	b, _ := soundio.ParseBackend(c.Backend)
	return b
}

// Latency converts latency_seconds
func (a AudioConfig) Latency() time.Duration {
	return time.Duration(a.LatencySeconds * float64(time.Second))
}

func validEngine(name string) bool {
	for _, e := range Engines {
		if e == name {
			return true
		}
	}
	return false
}
