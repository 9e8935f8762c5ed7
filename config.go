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
package main

import (
	"fmt"
	"strings"
)

const VERSION = "0.1.0"

/*
dengmap build WAD [MAP...]
	Load the maps (all of them when none given), build BSP and blockmaps,
	report statistics.

dengmap render WAD MAP
	-o file      Output image, format taken from the extension unless -f
	-f format    png, webp or tga
	-s scale     Map units per pixel (default 4)
	--segs       Draw BSP segs over the lines
	-b kind      Blockmap to shade: linedef (default), mobj or subsector
	--cell size  Blockmap cell size (default 128)

dengmap sight WAD MAP x1 y1 z1 x2 y2 z2
	--flags n    LS_* flags

Common:
	--factor n   Seg split cost factor for partition selection
	--dump-leafs Print every leaf's half-edges
	--cpuprofile file  Write CPU profile
	-v           Add verbosity to text output. Use multiple times for
	             increased verbosity.
*/

const (
	RENDER_PNG = iota
	RENDER_WEBP
	RENDER_TGA
)

var renderFormatNames = map[string]int{
	"png":  RENDER_PNG,
	"webp": RENDER_WEBP,
	"tga":  RENDER_TGA,
}

// Format by name or file extension, case-insensitive
func RenderFormatFromString(s string) (int, error) {
	s = strings.ToLower(strings.TrimPrefix(s, "."))
	if f, ok := renderFormatNames[s]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unknown image format %q (want png, webp or tga)", s)
}

func RenderFormatExt(format int) string {
	for name, f := range renderFormatNames {
		if f == format {
			return "." + name
		}
	}
	return ".png"
}

type ProgramConfig struct {
	VerbosityLevel   int
	SplitCostFactor  int     // passed to partition cost evaluation
	DumpLeafs        bool    // leaf debugging
	BlockmapCellSize float64 // map units, for every blockmap
	RenderScale      float64 // map units per pixel
	RenderFormat     int
	RenderSegs       bool   // draw segs in addition to lines
	RenderBlockmap   string // which blockmap's occupancy is shaded
	RenderOutput     string
	SightFlags       int
	Profile          bool
	ProfilePath      string
}

// global variable that will be accessed from other threads too. Initialized
// with defaults before any init runs, the command line is parsed later by cobra
var config *ProgramConfig = DefaultConfig()

func DefaultConfig() *ProgramConfig {
	return &ProgramConfig{
		VerbosityLevel:   0,
		SplitCostFactor:  PICKNODE_FACTOR,
		DumpLeafs:        false,
		BlockmapCellSize: MAPBLOCKUNITS,
		RenderScale:      4,
		RenderFormat:     RENDER_PNG,
		RenderSegs:       false,
		RenderBlockmap:   "linedef",
		RenderOutput:     "",
		SightFlags:       0,
		Profile:          false,
		ProfilePath:      "",
	}
}

func PrintBanner() {
	Log.Printf("DengMap ver %s\n", VERSION)
	Log.Printf("Copyright (c)   2022-2025 VigilantDoomer\n")
	Log.Printf("Map geometry is processed the way the Doomsday engine does it:\n")
	Log.Printf("half-edge BSP, blockmaps and line of sight.\n")
	Log.Printf("Distributed under the terms of GNU General Public License v2.\n")
	Log.Printf("\n")
}
