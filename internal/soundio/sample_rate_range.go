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

// SampleRateRange is an inclusive range of supported sample rates.
type SampleRateRange struct {
	Min int
	Max int
}

// Contains reports whether rate lies in the range.
func (r SampleRateRange) Contains(rate int) bool {
	return rate >= r.Min && rate <= r.Max
}

func sampleRatesFromC(p *C.struct_SoundIoSampleRateRange, count int) []SampleRateRange {
	if p == nil || count <= 0 {
		return nil
	}
	native := unsafe.Slice(p, count)
	rates := make([]SampleRateRange, count)
	for i := range native {
		rates[i] = SampleRateRange{Min: int(native[i].min), Max: int(native[i].max)}
	}
	return rates
}
