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

// Package cli holds the flag and shutdown plumbing shared by the tools in
// cmd/.
package cli

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/loqalabs/loqa-soundio-go/internal/config"
)

// Common are the flags every tool accepts. Flags that are set override the
// config file.
type Common struct {
	ConfigPath string
	Backend    string
	Node       string
	NATSURL    string
	NATS       bool
}

// RegisterCommon adds -config, -backend, -node, -nats-url and, when
// withNATS is set, -nats
func RegisterCommon(fs *flag.FlagSet, withNATS bool) *Common {
	c := &Common{}
	fs.StringVar(&c.ConfigPath, "config", "", "path to YAML config")
	fs.StringVar(&c.Backend, "backend", "", "dummy|alsa|pulseaudio|jack|coreaudio|wasapi")
	fs.StringVar(&c.Node, "node", "", "node name used in NATS subjects")
	fs.StringVar(&c.NATSURL, "nats-url", "", "NATS server URL")
	if withNATS {
		fs.BoolVar(&c.NATS, "nats", false, "publish to or subscribe from NATS")
	}
	return c
}

// Load reads the config and applies the flags that were set on fs
func (c *Common) Load(fs *flag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if IsSet(fs, "backend") {
		cfg.Backend = c.Backend
	}
	if IsSet(fs, "node") {
		cfg.Node = c.Node
	}
	if IsSet(fs, "nats-url") {
		cfg.NATS.URL = c.NATSURL
	}
	if IsSet(fs, "nats") {
		cfg.NATS.Enabled = c.NATS
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsSet reports whether the named flag was given on the command line
func IsSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// SignalContext is cancelled on SIGINT, SIGTERM, SIGHUP or SIGQUIT
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
}

// Run calls realMain and exits non-zero when it fails. Cancellation by a
// signal is a clean exit.
func Run(realMain func(ctx context.Context) error) {
	ctx, stop := SignalContext(context.Background())
	err := realMain(ctx)
	signalled := ctx.Err() != nil
	stop()

	if err != nil && !signalled {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
	if signalled {
		log.Println("🛑 Stopped")
	}
}

// ErrorLatch keeps the first error reported from any goroutine, audio
// threads included. The zero value is ready to use.
type ErrorLatch struct {
	err atomic.Pointer[error]
}

// Set records err unless an earlier error is already held
func (l *ErrorLatch) Set(err error) {
	if err == nil {
		return
	}
	l.err.CompareAndSwap(nil, &err)
}

// Err returns the first recorded error, or nil
func (l *ErrorLatch) Err() error {
	if p := l.err.Load(); p != nil {
		return *p
	}
	return nil
}
