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
	"time"
)

// Processing of a single level: load it through the converters, build it,
// spawn its things and report what was built

type Level struct {
	wad    *WadFile
	name   string
	gmap   *GameMap
	spawns int
	took   time.Duration
}

func NewLevel(wad *WadFile, name string) *Level {
	return &Level{
		wad:  wad,
		name: name,
	}
}

func (l *Level) Map() *GameMap {
	return l.gmap
}

// Loads and builds the level. The map is only kept if building succeeded
func (l *Level) DoLevel() error {
	timeStart := time.Now()
	Log.Printf("Processing level %s:\n", l.name)
	gmap, err := LoadMap(l.wad, l.name)
	if err != nil {
		return err
	}
	Log.Verbose(1, "Loaded %d vertices, %d linedefs, %d sidedefs, %d sectors, %d polyobjs.\n",
		gmap.NumVertices(), gmap.NumLineDefs(), gmap.NumSideDefs(),
		gmap.NumSectors(), gmap.NumPolyobjs())
	if err := gmap.BuildBSP(); err != nil {
		return err
	}
	l.gmap = gmap
	l.spawns = gmap.SpawnThings()
	l.took = time.Since(timeStart)
	return nil
}

func (l *Level) Report() {
	if l.gmap == nil {
		return
	}
	t := l.gmap.Totals()
	Log.Printf("  Nodes: %d Subsectors: %d Segs: %d (max depth %d)\n",
		t.numNodes, t.numLeafs, t.numSegs, t.maxDepth)
	Log.Printf("  Half-edges: %d Splits: %d Minisegs: %d\n",
		t.numHEdges, t.numSplits, t.numMinis)
	if t.numUnclosed > 0 {
		Log.Printf("  Unclosed sectors: %d\n", t.numUnclosed)
		for _, sec := range l.gmap.Unclosed() {
			Log.Verbose(1, "    %s\n", describeObject(sec))
		}
	}
	if bm := l.gmap.LineDefBlockmap(); bm != nil {
		w, h := bm.Dimensions()
		ox, oy := bm.Origin()
		Log.Printf("  Blockmap: %dx%d cells of %v units at (%v, %v)\n", w, h,
			bm.BlockSize(), ox, oy)
	}
	Log.Printf("  Things spawned: %d of %d\n", l.spawns, len(l.gmap.Things()))
	Log.Verbose(1, "  Level took %s\n", l.took)
}

// Builds the given levels of the wad, or all of them if none given. Levels
// that fail are reported and skipped, the returned error says how many
func ProcessWad(fileName string, levels []string) error {
	wad, err := OpenWad(fileName)
	if err != nil {
		return err
	}
	defer wad.Close()
	if len(levels) == 0 {
		levels = wad.Levels()
		if len(levels) == 0 {
			return fmt.Errorf("%w: %s has no levels", ErrBadWad, fileName)
		}
	}
	failed := 0
	for _, name := range levels {
		level := NewLevel(wad, name)
		if err := level.DoLevel(); err != nil {
			Log.Error("Level %s failed: %s\n", name, err)
			failed++
			continue
		}
		level.Report()
	}
	if config.DumpLeafs {
		Log.Printf("%s", Log.GetDumpedLeafs())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d levels failed", failed, len(levels))
	}
	return nil
}

// Loads and builds one level, for the commands that query it
func LoadAndBuild(fileName, levelName string) (*GameMap, error) {
	wad, err := OpenWad(fileName)
	if err != nil {
		return nil, err
	}
	defer wad.Close()
	level := NewLevel(wad, levelName)
	if err := level.DoLevel(); err != nil {
		return nil, err
	}
	return level.Map(), nil
}
