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

/*
#include <soundio/soundio.h>
*/
import "C"
import (
	"runtime/cgo"
	"unsafe"
)

// Device is a referenced libsoundio device. Its fields are an immutable
// snapshot; after a devices-change event, fetch the device again from the
// context to see current values.
type Device struct {
	ptr   *C.struct_SoundIoDevice
	owner *SoundIo
}

func (d *Device) ID() string {
	return C.GoString(d.ptr.id)
}

func (d *Device) Name() string {
	return C.GoString(d.ptr.name)
}

func (d *Device) Aim() DeviceAim {
	return DeviceAim(d.ptr.aim)
}

// Layouts returns copies of the supported channel layouts. It is nil when
// the probe failed.
func (d *Device) Layouts() []ChannelLayout {
	return layoutsFromC(d.ptr.layouts, int(d.ptr.layout_count))
}

func (d *Device) LayoutCount() int {
	return int(d.ptr.layout_count)
}

func (d *Device) CurrentLayout() ChannelLayout {
	return layoutFromC(&d.ptr.current_layout)
}

// Formats returns the supported sample formats.
func (d *Device) Formats() []Format {
	count := int(d.ptr.format_count)
	if d.ptr.formats == nil || count <= 0 {
		return nil
	}
	native := unsafe.Slice(d.ptr.formats, count)
	formats := make([]Format, count)
	for i, f := range native {
		formats[i] = Format(f)
	}
	return formats
}

func (d *Device) FormatCount() int {
	return int(d.ptr.format_count)
}

func (d *Device) CurrentFormat() Format {
	return Format(d.ptr.current_format)
}

func (d *Device) SampleRates() []SampleRateRange {
	return sampleRatesFromC(d.ptr.sample_rates, int(d.ptr.sample_rate_count))
}

func (d *Device) SampleRateCount() int {
	return int(d.ptr.sample_rate_count)
}

// SampleRateCurrent returns 0 when unknown.
func (d *Device) SampleRateCurrent() int {
	return int(d.ptr.sample_rate_current)
}

// SoftwareLatencyMin is in seconds; 0 when unknown. PulseAudio and WASAPI
// only report latencies once a stream is open.
func (d *Device) SoftwareLatencyMin() float64 {
	return float64(d.ptr.software_latency_min)
}

func (d *Device) SoftwareLatencyMax() float64 {
	return float64(d.ptr.software_latency_max)
}

func (d *Device) SoftwareLatencyCurrent() float64 {
	return float64(d.ptr.software_latency_current)
}

// Raw reports a device opened directly, bypassing dmix, PulseAudio or
// JACK. Raw devices do not resample.
func (d *Device) Raw() bool {
	return bool(d.ptr.is_raw)
}

func (d *Device) RefCount() int {
	return int(d.ptr.ref_count)
}

// ProbeError is non-nil when formats, rates or layouts could not be read.
func (d *Device) ProbeError() error {
	return convertToError(d.ptr.probe_error)
}

func (d *Device) AddReference() {
	C.soundio_device_ref(d.ptr)
}

// RemoveReference drops one reference. The Device must not be used after
// its last reference is gone.
func (d *Device) RemoveReference() {
	C.soundio_device_unref(d.ptr)
}

// Equal compares id, raw flag and aim.
func (d *Device) Equal(o *Device) bool {
	return bool(C.soundio_device_equal(d.ptr, o.ptr))
}

// SortChannelLayouts sorts the native layouts by channel count, descending.
func (d *Device) SortChannelLayouts() {
	C.soundio_device_sort_channel_layouts(d.ptr)
}

func (d *Device) SupportsFormat(format Format) bool {
	return bool(C.soundio_device_supports_format(d.ptr, C.enum_SoundIoFormat(format)))
}

func (d *Device) SupportsLayout(layout ChannelLayout) bool {
	c := layout.toC()
	return bool(C.soundio_device_supports_layout(d.ptr, &c))
}

func (d *Device) SupportsSampleRate(sampleRate int) bool {
	return bool(C.soundio_device_supports_sample_rate(d.ptr, C.int(sampleRate)))
}

// NearestSampleRate returns the supported rate closest to sampleRate,
// rounding up.
func (d *Device) NearestSampleRate(sampleRate int) int {
	return int(C.soundio_device_nearest_sample_rate(d.ptr, C.int(sampleRate)))
}

// BestFormat returns the first format of prefs the device supports, then
// the device's first format.
func (d *Device) BestFormat(prefs []Format) (Format, error) {
	for _, f := range prefs {
		if d.SupportsFormat(f) {
			return f, nil
		}
	}
	if formats := d.Formats(); len(formats) > 0 {
		return formats[0], nil
	}
	return FormatInvalid, ErrUnsupportedFormat
}

// BestSampleRate returns the first rate of prefs the device supports, then
// the upper bound of its first range, then 0.
func (d *Device) BestSampleRate(prefs []int) int {
	for _, rate := range prefs {
		if d.SupportsSampleRate(rate) {
			return rate
		}
	}
	if rates := d.SampleRates(); len(rates) > 0 {
		return rates[0].Max
	}
	return 0
}

// NewInStream allocates an input stream with default settings and installs
// its trampolines. Configure it, then Open and Start it.
func (d *Device) NewInStream() (*InStream, error) {
	ptr := C.soundio_instream_create(d.ptr)
	if ptr == nil {
		return nil, ErrorNoMem
	}
	return newInStream(ptr, d, d.panicHandler()), nil
}

// NewOutStream allocates an output stream with default settings and
// installs its trampolines.
func (d *Device) NewOutStream() (*OutStream, error) {
	ptr := C.soundio_outstream_create(d.ptr)
	if ptr == nil {
		return nil, ErrorNoMem
	}
	return newOutStream(ptr, d, d.panicHandler()), nil
}

func (d *Device) panicHandler() PanicHandler {
	if d.owner != nil {
		return d.owner.panicHandler
	}
	return defaultPanicHandler
}

func newInStream(ptr *C.struct_SoundIoInStream, d *Device, handler PanicHandler) *InStream {
	s := &InStream{ptr: ptr, device: d, panicHandler: handler}
	s.handle = cgo.NewHandle(s)
	attachInStream(ptr, s.handle)
	return s
}

func newOutStream(ptr *C.struct_SoundIoOutStream, d *Device, handler PanicHandler) *OutStream {
	s := &OutStream{ptr: ptr, device: d, panicHandler: handler}
	s.handle = cgo.NewHandle(s)
	attachOutStream(ptr, s.handle)
	return s
}
