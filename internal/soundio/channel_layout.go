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
import "unsafe"

// ChannelLayoutID indexes the builtin channel layouts.
type ChannelLayoutID int

const (
	ChannelLayoutIDMono            = ChannelLayoutID(C.SoundIoChannelLayoutIdMono)
	ChannelLayoutIDStereo          = ChannelLayoutID(C.SoundIoChannelLayoutIdStereo)
	ChannelLayoutID2Point1         = ChannelLayoutID(C.SoundIoChannelLayoutId2Point1)
	ChannelLayoutID3Point0         = ChannelLayoutID(C.SoundIoChannelLayoutId3Point0)
	ChannelLayoutID3Point0Back     = ChannelLayoutID(C.SoundIoChannelLayoutId3Point0Back)
	ChannelLayoutID3Point1         = ChannelLayoutID(C.SoundIoChannelLayoutId3Point1)
	ChannelLayoutID4Point0         = ChannelLayoutID(C.SoundIoChannelLayoutId4Point0)
	ChannelLayoutIDQuad            = ChannelLayoutID(C.SoundIoChannelLayoutIdQuad)
	ChannelLayoutIDQuadSide        = ChannelLayoutID(C.SoundIoChannelLayoutIdQuadSide)
	ChannelLayoutID4Point1         = ChannelLayoutID(C.SoundIoChannelLayoutId4Point1)
	ChannelLayoutID5Point0Back     = ChannelLayoutID(C.SoundIoChannelLayoutId5Point0Back)
	ChannelLayoutID5Point0Side     = ChannelLayoutID(C.SoundIoChannelLayoutId5Point0Side)
	ChannelLayoutID5Point1         = ChannelLayoutID(C.SoundIoChannelLayoutId5Point1)
	ChannelLayoutID5Point1Back     = ChannelLayoutID(C.SoundIoChannelLayoutId5Point1Back)
	ChannelLayoutID6Point0Side     = ChannelLayoutID(C.SoundIoChannelLayoutId6Point0Side)
	ChannelLayoutID6Point0Front    = ChannelLayoutID(C.SoundIoChannelLayoutId6Point0Front)
	ChannelLayoutIDHexagonal       = ChannelLayoutID(C.SoundIoChannelLayoutIdHexagonal)
	ChannelLayoutID6Point1         = ChannelLayoutID(C.SoundIoChannelLayoutId6Point1)
	ChannelLayoutID6Point1Back     = ChannelLayoutID(C.SoundIoChannelLayoutId6Point1Back)
	ChannelLayoutID6Point1Front    = ChannelLayoutID(C.SoundIoChannelLayoutId6Point1Front)
	ChannelLayoutID7Point0         = ChannelLayoutID(C.SoundIoChannelLayoutId7Point0)
	ChannelLayoutID7Point0Front    = ChannelLayoutID(C.SoundIoChannelLayoutId7Point0Front)
	ChannelLayoutID7Point1         = ChannelLayoutID(C.SoundIoChannelLayoutId7Point1)
	ChannelLayoutID7Point1Wide     = ChannelLayoutID(C.SoundIoChannelLayoutId7Point1Wide)
	ChannelLayoutID7Point1WideBack = ChannelLayoutID(C.SoundIoChannelLayoutId7Point1WideBack)
	ChannelLayoutIDOctagonal       = ChannelLayoutID(C.SoundIoChannelLayoutIdOctagonal)
)

func (id ChannelLayoutID) String() string {
	if id < 0 || int(id) >= ChannelLayoutBuiltinCount() {
		return "unknown"
	}
	return ChannelLayoutBuiltin(id).Name
}

// ChannelLayout is a copy of a native layout. Name is empty for layouts that
// do not match a builtin one.
type ChannelLayout struct {
	Name     string
	Channels []ChannelID
}

// ChannelCount returns the number of channels.
func (l ChannelLayout) ChannelCount() int {
	return len(l.Channels)
}

// FindChannel returns the index of channel in the layout, or -1.
func (l ChannelLayout) FindChannel(channel ChannelID) int {
	for i, ch := range l.Channels {
		if ch == channel {
			return i
		}
	}
	return -1
}

// Equal compares channel ids in order. Names are ignored.
func (l ChannelLayout) Equal(o ChannelLayout) bool {
	if len(l.Channels) != len(o.Channels) {
		return false
	}
	for i := range l.Channels {
		if l.Channels[i] != o.Channels[i] {
			return false
		}
	}
	return true
}

// DetectBuiltin returns the layout with its builtin name filled in and
// whether a builtin layout matched.
func (l ChannelLayout) DetectBuiltin() (ChannelLayout, bool) {
	c := l.toC()
	if !bool(C.soundio_channel_layout_detect_builtin(&c)) {
		return l, false
	}
	return layoutFromC(&c), true
}

func (l ChannelLayout) String() string {
	if l.Name != "" {
		return l.Name
	}
	s := ""
	for i, ch := range l.Channels {
		if i > 0 {
			s += ", "
		}
		s += ch.String()
	}
	return s
}

// toC copies up to MaxChannels channels. The name points at the static
// string of a matching builtin layout, or is NULL.
func (l ChannelLayout) toC() C.struct_SoundIoChannelLayout {
	var c C.struct_SoundIoChannelLayout
	n := min(len(l.Channels), MaxChannels)
	for i := 0; i < n; i++ {
		c.channels[i] = C.enum_SoundIoChannelId(l.Channels[i])
	}
	c.channel_count = C.int(n)
	C.soundio_channel_layout_detect_builtin(&c)
	return c
}

func layoutFromC(c *C.struct_SoundIoChannelLayout) ChannelLayout {
	n := min(int(c.channel_count), MaxChannels)
	l := ChannelLayout{Channels: make([]ChannelID, n)}
	if c.name != nil {
		l.Name = C.GoString(c.name)
	}
	for i := 0; i < n; i++ {
		l.Channels[i] = ChannelID(c.channels[i])
	}
	return l
}

func layoutsFromC(p *C.struct_SoundIoChannelLayout, count int) []ChannelLayout {
	if p == nil || count <= 0 {
		return nil
	}
	native := unsafe.Slice(p, count)
	layouts := make([]ChannelLayout, count)
	for i := range native {
		layouts[i] = layoutFromC(&native[i])
	}
	return layouts
}

// ChannelLayoutBuiltinCount returns the number of builtin channel layouts.
func ChannelLayoutBuiltinCount() int {
	return int(C.soundio_channel_layout_builtin_count())
}

// ChannelLayoutBuiltin returns a builtin layout. id must be below
// ChannelLayoutBuiltinCount.
func ChannelLayoutBuiltin(id ChannelLayoutID) ChannelLayout {
	return layoutFromC(C.soundio_channel_layout_get_builtin(C.int(id)))
}

// DefaultChannelLayout returns the default builtin layout for channelCount.
func DefaultChannelLayout(channelCount int) (ChannelLayout, bool) {
	p := C.soundio_channel_layout_get_default(C.int(channelCount))
	if p == nil {
		return ChannelLayout{}, false
	}
	return layoutFromC(p), true
}

// BestMatchingLayout returns the first layout of preferred that available
// also supports.
func BestMatchingLayout(preferred, available *Device) (ChannelLayout, bool) {
	p := C.soundio_best_matching_channel_layout(
		preferred.ptr.layouts, preferred.ptr.layout_count,
		available.ptr.layouts, available.ptr.layout_count)
	if p == nil {
		return ChannelLayout{}, false
	}
	return layoutFromC(p), true
}
