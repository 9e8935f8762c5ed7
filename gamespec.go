// Copyright (C) 2022, VigilantDoomer
//
// This file is part of DengMap program.
//
// DengMap is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// DengMap is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with DengMap.  If not, see <https://www.gnu.org/licenses/>.
// Wad specifications for Doom-engine family of games
// (including Heretic, Hexen, etc.)
package main

import (
	"regexp"
)

// Both brought in accordance with Prboom-Plus 2.6.1um map name ranges, except
// that E1M0x is possible (when it is probably shouldn't be) since I don't
// want to complicate these regexp's (and E9M97 is perfectly legal, for example)
var MAP_SEQUEL *regexp.Regexp = regexp.MustCompile(`^MAP[0-9][0-9]$`)
var MAP_ExMx *regexp.Regexp = regexp.MustCompile(`^E[1-9]M[0-9][0-9]?$`)

// Superblock size for the nodes builder
const BLOCK_WIDTH = 128

const IWAD_MAGIC_SIG = uint32(0x44415749) // ASCII - 'IWAD'
const PWAD_MAGIC_SIG = uint32(0x44415750) // ASCII - 'PWAD'

// Linedef flags as stored in wads. Common to Doom and Hexen
const ML_BLOCKING = uint16(0x0001)
const ML_BLOCKMONSTERS = uint16(0x0002)
const ML_TWOSIDED = uint16(0x0004)
const ML_DONTPEGTOP = uint16(0x0008)
const ML_DONTPEGBOTTOM = uint16(0x0010)
const ML_SECRET = uint16(0x0020) // shown as 1-sided on automap
const ML_SOUNDBLOCK = uint16(0x0040)
const ML_DONTDRAW = uint16(0x0080)
const ML_MAPPED = uint16(0x0100)

const SIDEDEF_NONE = uint16(0xFFFF)

const DOOM_THING_SIZE = 10
const HEXEN_THING_SIZE = 20
const DOOM_LINEDEF_SIZE = 14  // Size of "RawLinedef" struct
const HEXEN_LINEDEF_SIZE = 16 // Size of "RawHexenLinedef" struct
const DOOM_SIDEDEF_SIZE = 30  // Size of "RawSidedef" struct
const DOOM_VERTEX_SIZE = 4
const DOOM_SECTOR_SIZE = 26 // Size of "RawSector" struct

const HEXEN_ACTION_POLY_START = 1
const HEXEN_ACTION_POLY_EXPLICIT = 5

const PO_ANCHOR_TYPE = 3000
const PO_SPAWN_TYPE = 3001
const PO_SPAWNCRUSH_TYPE = 3002

const ZDOOM_PO_ANCHOR_TYPE = 9300
const ZDOOM_PO_SPAWN_TYPE = 9301
const ZDOOM_PO_SPAWNCRUSH_TYPE = 9302

// Wad header, 12 bytes.
type WadHeader struct {
	MagicSig       uint32
	LumpCount      uint32 // vanilla treats this as signed int32
	DirectoryStart uint32 // vanilla treats this as signed int32
}

// Lump entries listed one after another comprise the directory,
// the first such lump entry is found at WadHeader.DirectoryStart offset into
// the wad file.
// Each lump entry is 16 bytes long
type LumpEntry struct {
	FilePos uint32 // vanilla treats this as signed int32
	Size    uint32 // vanilla treats this as signed int32
	Name    [8]byte
}

// This is Doom/Heretic/Strife thing. Not Hexen thing
type RawThing struct {
	XPos  int16
	YPos  int16
	Angle int16
	Type  int16
	Flags int16
}

// Hexen Thing
type RawHexenThing struct {
	TID            int16
	XPos           int16
	YPos           int16
	StartingHeight int16
	Angle          int16
	Type           int16
	Flags          int16
	Action         uint8
	Args           [5]byte
}

// Doom/Heretic linedef format
type RawLinedef struct {
	// Vanilla treats ALL fields as signed int16
	StartVertex uint16
	EndVertex   uint16
	Flags       uint16
	Action      uint16
	Tag         uint16
	FrontSdef   uint16 // Front Sidedef number
	BackSdef    uint16 // Back Sidedef number (0xFFFF special value for one-sided line)
}

// Hexen linedef format
type RawHexenLinedef struct {
	// Vanilla treats ALL fields as signed
	StartVertex uint16
	EndVertex   uint16
	Flags       uint16
	Action      uint8
	Arg1        uint8 // polyobj number for the polyobj actions
	Arg2        uint8
	Arg3        uint8
	Arg4        uint8
	Arg5        uint8
	FrontSdef   uint16
	BackSdef    uint16
}

// Sidedef format, same in Doom and Hexen
type RawSidedef struct {
	XOffset int16
	YOffset int16
	UpName  [8]byte // name of upper texture
	LoName  [8]byte // name of lower texture
	MidName [8]byte // name of middle texture
	Sector  uint16  // sector number; vanilla treats this as signed int16
}

// Note that map editing utilities display only those vertices that were
// referenced in linedefs (which is what human user expects to see)
type RawVertex struct {
	XPos int16
	YPos int16
}

type RawSector struct {
	FloorHeight int16
	CeilHeight  int16
	FloorName   [8]byte
	CeilName    [8]byte
	LightLevel  uint16
	Special     uint16
	Tag         uint16
}

// Returns whether the string in lumpName represents Doom level marker,
// i.e. MAP02, E3M1
func IsALevel(lumpName []byte) bool {
	return MAP_SEQUEL.Match(lumpName) || MAP_ExMx.Match(lumpName)
}

// Texture or flat name from a fixed size field
func LumpNameString(name [8]byte) string {
	return string(ByteSliceBeforeTerm(name[:]))
}
