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

package main

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/loqalabs/loqa-soundio-go/internal/config"
	"github.com/loqalabs/loqa-soundio-go/internal/soundio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDummyBackend(t *testing.T) {
	if os.Getenv("CI") != "" || !soundio.BackendDummy.Have() {
		t.Skip("dummy backend not available")
	}
	cfg := config.Default()
	cfg.Backend = "dummy"

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err := realMain(ctx, cfg, &out)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, out.Len(), 0, "captured frames reach the writer")
}

func TestRecordUnknownDevice(t *testing.T) {
	if !soundio.BackendDummy.Have() {
		t.Skip("dummy backend not available")
	}
	cfg := config.Default()
	cfg.Backend = "dummy"
	cfg.Audio.InputDevice = "no-such-device"

	err := realMain(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, soundio.ErrNoDevice)
}
