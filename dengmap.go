// Copyright (C) 2022-2025, VigilantDoomer
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


// -- This file is where the program entry is.
// DengMap builds the runtime geometry of Doom format maps: a half-edge mesh
// split by a BSP tree into convex leaves, the subsectors and segs made from
// those leaves, the blockmaps of lines, map objects, subsectors, particles
// and light sources, and line of sight checks through the BSP.
// Nodes builder partition selection follows BSP v5.2 / Doomsday's
// HEdge-based builder, blockmap line linking follows the classic integer
// column walk.
package main

import (
	"os"
	"runtime/pprof"
	"time"
)

var profileFile *os.File

// Started by the root command once the flags are parsed
func startProfile() {
	if !config.Profile {
		return
	}
	f, err := os.Create(config.ProfilePath)
	if err != nil {
		Log.Printf("Could not create CPU profile: %s\n", err.Error())
		return
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		Log.Printf("Could not start CPU profile: %s\n", err.Error())
		f.Close()
		return
	}
	profileFile = f
}

func stopProfile() {
	if profileFile == nil {
		return
	}
	pprof.StopCPUProfile()
	profileFile.Close()
	profileFile = nil
}

func main() {
	timeStart := time.Now()
	Execute()
	stopProfile()
	Log.Verbose(1, "Total time: %s\n", time.Since(timeStart))
	Log.Sync()
}
