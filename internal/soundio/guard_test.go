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

package soundio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackKind(t *testing.T) {
	tests := []struct {
		kind CallbackKind
		name string
		data bool
	}{
		{KindDevicesChange, "devices-change", false},
		{KindBackendDisconnect, "backend-disconnect", false},
		{KindEventsSignal, "events-signal", false},
		{KindRead, "read", true},
		{KindOverflow, "overflow", false},
		{KindInStreamError, "instream-error", false},
		{KindWrite, "write", true},
		{KindUnderflow, "underflow", false},
		{KindOutStreamError, "outstream-error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.data, tt.kind.IsData())
		})
	}

	assert.Equal(t, "CallbackKind(42)", CallbackKind(42).String())
}

func TestPanicError(t *testing.T) {
	cause := errors.New("cause")
	err := &PanicError{Kind: KindWrite, Value: cause}

	assert.Contains(t, err.Error(), "write")
	assert.Contains(t, err.Error(), "cause")
	assert.ErrorIs(t, err, cause)

	plain := &PanicError{Kind: KindRead, Value: 7}
	assert.Nil(t, plain.Unwrap())
}

func TestRecoverCallback(t *testing.T) {
	t.Run("counts_and_reports", func(t *testing.T) {
		var counters streamCounters
		var got *PanicError

		func() {
			defer recoverCallback(KindRead, &counters, func(err *PanicError) { got = err })
			panic("oops")
		}()

		require.NotNil(t, got)
		assert.Equal(t, KindRead, got.Kind)
		assert.Equal(t, uint64(1), counters.snapshot().Panics)
	})

	t.Run("no_panic_no_report", func(t *testing.T) {
		var counters streamCounters
		called := false

		func() {
			defer recoverCallback(KindWrite, &counters, func(*PanicError) { called = true })
		}()

		assert.False(t, called)
		assert.Zero(t, counters.snapshot().Panics)
	})

	t.Run("nil_counters_and_handler", func(t *testing.T) {
		assert.NotPanics(t, func() {
			defer recoverCallback(KindEventsSignal, nil, nil)
			panic("context callback")
		})
	})
}
