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
#include <stdlib.h>
*/
import "C"
import "unsafe"

// ChannelID names one speaker position or auxiliary channel.
type ChannelID uint32

const (
	ChannelIDInvalid          = ChannelID(C.SoundIoChannelIdInvalid)
	ChannelIDFrontLeft        = ChannelID(C.SoundIoChannelIdFrontLeft)
	ChannelIDFrontRight       = ChannelID(C.SoundIoChannelIdFrontRight)
	ChannelIDFrontCenter      = ChannelID(C.SoundIoChannelIdFrontCenter)
	ChannelIDLfe              = ChannelID(C.SoundIoChannelIdLfe)
	ChannelIDBackLeft         = ChannelID(C.SoundIoChannelIdBackLeft)
	ChannelIDBackRight        = ChannelID(C.SoundIoChannelIdBackRight)
	ChannelIDFrontLeftCenter  = ChannelID(C.SoundIoChannelIdFrontLeftCenter)
	ChannelIDFrontRightCenter = ChannelID(C.SoundIoChannelIdFrontRightCenter)
	ChannelIDBackCenter       = ChannelID(C.SoundIoChannelIdBackCenter)
	ChannelIDSideLeft         = ChannelID(C.SoundIoChannelIdSideLeft)
	ChannelIDSideRight        = ChannelID(C.SoundIoChannelIdSideRight)
	ChannelIDTopCenter        = ChannelID(C.SoundIoChannelIdTopCenter)
	ChannelIDTopFrontLeft     = ChannelID(C.SoundIoChannelIdTopFrontLeft)
	ChannelIDTopFrontCenter   = ChannelID(C.SoundIoChannelIdTopFrontCenter)
	ChannelIDTopFrontRight    = ChannelID(C.SoundIoChannelIdTopFrontRight)
	ChannelIDTopBackLeft      = ChannelID(C.SoundIoChannelIdTopBackLeft)
	ChannelIDTopBackCenter    = ChannelID(C.SoundIoChannelIdTopBackCenter)
	ChannelIDTopBackRight     = ChannelID(C.SoundIoChannelIdTopBackRight)

	ChannelIDBackLeftCenter      = ChannelID(C.SoundIoChannelIdBackLeftCenter)
	ChannelIDBackRightCenter     = ChannelID(C.SoundIoChannelIdBackRightCenter)
	ChannelIDFrontLeftWide       = ChannelID(C.SoundIoChannelIdFrontLeftWide)
	ChannelIDFrontRightWide      = ChannelID(C.SoundIoChannelIdFrontRightWide)
	ChannelIDFrontLeftHigh       = ChannelID(C.SoundIoChannelIdFrontLeftHigh)
	ChannelIDFrontCenterHigh     = ChannelID(C.SoundIoChannelIdFrontCenterHigh)
	ChannelIDFrontRightHigh      = ChannelID(C.SoundIoChannelIdFrontRightHigh)
	ChannelIDTopFrontLeftCenter  = ChannelID(C.SoundIoChannelIdTopFrontLeftCenter)
	ChannelIDTopFrontRightCenter = ChannelID(C.SoundIoChannelIdTopFrontRightCenter)
	ChannelIDTopSideLeft         = ChannelID(C.SoundIoChannelIdTopSideLeft)
	ChannelIDTopSideRight        = ChannelID(C.SoundIoChannelIdTopSideRight)
	ChannelIDLeftLfe             = ChannelID(C.SoundIoChannelIdLeftLfe)
	ChannelIDRightLfe            = ChannelID(C.SoundIoChannelIdRightLfe)
	ChannelIDLfe2                = ChannelID(C.SoundIoChannelIdLfe2)
	ChannelIDBottomCenter        = ChannelID(C.SoundIoChannelIdBottomCenter)
	ChannelIDBottomLeftCenter    = ChannelID(C.SoundIoChannelIdBottomLeftCenter)
	ChannelIDBottomRightCenter   = ChannelID(C.SoundIoChannelIdBottomRightCenter)

	ChannelIDMsMid  = ChannelID(C.SoundIoChannelIdMsMid)  // Mid recording
	ChannelIDMsSide = ChannelID(C.SoundIoChannelIdMsSide) // Side recording

	ChannelIDAmbisonicW = ChannelID(C.SoundIoChannelIdAmbisonicW)
	ChannelIDAmbisonicX = ChannelID(C.SoundIoChannelIdAmbisonicX)
	ChannelIDAmbisonicY = ChannelID(C.SoundIoChannelIdAmbisonicY)
	ChannelIDAmbisonicZ = ChannelID(C.SoundIoChannelIdAmbisonicZ)

	// ChannelIDXyX is X of X-Y Recording
	ChannelIDXyX = ChannelID(C.SoundIoChannelIdXyX)
	// ChannelIDXyY is Y of X-Y Recording
	ChannelIDXyY = ChannelID(C.SoundIoChannelIdXyY)

	ChannelIDHeadphonesLeft   = ChannelID(C.SoundIoChannelIdHeadphonesLeft)
	ChannelIDHeadphonesRight  = ChannelID(C.SoundIoChannelIdHeadphonesRight)
	ChannelIDClickTrack       = ChannelID(C.SoundIoChannelIdClickTrack)
	ChannelIDForeignLanguage  = ChannelID(C.SoundIoChannelIdForeignLanguage)
	ChannelIDHearingImpaired  = ChannelID(C.SoundIoChannelIdHearingImpaired)
	ChannelIDNarration        = ChannelID(C.SoundIoChannelIdNarration)
	ChannelIDHaptic           = ChannelID(C.SoundIoChannelIdHaptic)
	ChannelIDDialogCentricMix = ChannelID(C.SoundIoChannelIdDialogCentricMix)

	ChannelIDAux   = ChannelID(C.SoundIoChannelIdAux)
	ChannelIDAux0  = ChannelID(C.SoundIoChannelIdAux0)
	ChannelIDAux1  = ChannelID(C.SoundIoChannelIdAux1)
	ChannelIDAux2  = ChannelID(C.SoundIoChannelIdAux2)
	ChannelIDAux3  = ChannelID(C.SoundIoChannelIdAux3)
	ChannelIDAux4  = ChannelID(C.SoundIoChannelIdAux4)
	ChannelIDAux5  = ChannelID(C.SoundIoChannelIdAux5)
	ChannelIDAux6  = ChannelID(C.SoundIoChannelIdAux6)
	ChannelIDAux7  = ChannelID(C.SoundIoChannelIdAux7)
	ChannelIDAux8  = ChannelID(C.SoundIoChannelIdAux8)
	ChannelIDAux9  = ChannelID(C.SoundIoChannelIdAux9)
	ChannelIDAux10 = ChannelID(C.SoundIoChannelIdAux10)
	ChannelIDAux11 = ChannelID(C.SoundIoChannelIdAux11)
	ChannelIDAux12 = ChannelID(C.SoundIoChannelIdAux12)
	ChannelIDAux13 = ChannelID(C.SoundIoChannelIdAux13)
	ChannelIDAux14 = ChannelID(C.SoundIoChannelIdAux14)
	ChannelIDAux15 = ChannelID(C.SoundIoChannelIdAux15)
)

func (c ChannelID) String() string {
	return C.GoString(C.soundio_get_channel_name(C.enum_SoundIoChannelId(c)))
}

// ParseChannelID accepts names such as "Front Left" or "front-left".
// It returns ChannelIDInvalid when nothing matches.
func ParseChannelID(name string) ChannelID {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	return ChannelID(C.soundio_parse_channel_id(cname, C.int(len(name))))
}
