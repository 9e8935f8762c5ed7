// Copyright (C) 2022-2024, VigilantDoomer
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
	"errors"
	"fmt"
)

// Converters turn the lumps of a level into map edits. They are tried in
// order and the first that recognises the level and converts it wins

var ErrNoConverter = errors.New("no converter recognises the map format")

type MapConverter interface {
	Name() string
	Recognise(level *LevelLumps) bool
	Convert(level *LevelLumps, m *GameMap) error
}

var mapConverters = []MapConverter{
	&HexenFormatConverter{},
	&DoomFormatConverter{},
}

// A thing from the THINGS lump. Spawned as a mobj once the map is built
type MapThing struct {
	X, Y, Z float64
	Angle   int
	Type    int
	Flags   int
}

// Loads the named level of wad into a new, not yet built map
func LoadMap(wad *WadFile, levelName string) (*GameMap, error) {
	level, err := wad.ReadLevel(levelName)
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, conv := range mapConverters {
		if !conv.Recognise(level) {
			continue
		}
		m := NewGameMap(level.name)
		if err := conv.Convert(level, m); err != nil {
			Log.Verbose(1, "%s converter failed on %s: %s\n", conv.Name(),
				level.name, err)
			errs = append(errs, err)
			continue
		}
		Log.Verbose(1, "Level %s is in %s format.\n", level.name, conv.Name())
		return m, nil
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoConverter, level.name,
			errors.Join(errs...))
	}
	return nil, fmt.Errorf("%w: %s", ErrNoConverter, level.name)
}

// Everything but the linedefs and things is the same in both formats
type commonLevel struct {
	vertexIDs []uint32
	sectorIDs []uint32
	sideIDs   []uint32
}

func loadCommon(level *LevelLumps, m *GameMap) (*commonLevel, error) {
	vertices, err := decodeLump[RawVertex](level, "VERTEXES", DOOM_VERTEX_SIZE)
	if err != nil {
		return nil, err
	}
	sectors, err := decodeLump[RawSector](level, "SECTORS", DOOM_SECTOR_SIZE)
	if err != nil {
		return nil, err
	}
	sidedefs, err := decodeLump[RawSidedef](level, "SIDEDEFS", DOOM_SIDEDEF_SIZE)
	if err != nil {
		return nil, err
	}

	c := &commonLevel{}
	xy := make([]float64, 0, len(vertices)*2)
	for _, v := range vertices {
		xy = append(xy, float64(v.XPos), float64(v.YPos))
	}
	c.vertexIDs = m.CreateVertices(xy)

	for _, s := range sectors {
		light := float32(s.LightLevel) / 255
		id := m.CreateSector(light, 1, 1, 1)
		m.CreatePlane(id, float64(s.FloorHeight), LumpNameString(s.FloorName),
			0, 0, 1, 1, 1, 1, 0, 0, 1)
		m.CreatePlane(id, float64(s.CeilHeight), LumpNameString(s.CeilName),
			0, 0, 1, 1, 1, 1, 0, 0, -1)
		c.sectorIDs = append(c.sectorIDs, id)
	}

	for i, s := range sidedefs {
		sector := uint32(0)
		if int(s.Sector) < len(c.sectorIDs) {
			sector = c.sectorIDs[s.Sector]
		} else {
			Log.Verbose(1, "%s: sidedef #%d references bad sector %d\n",
				level.name, i, s.Sector)
		}
		surface := func(name [8]byte) SurfaceInfo {
			info := DefaultSurfaceInfo(LumpNameString(name))
			info.OffX = float32(s.XOffset)
			info.OffY = float32(s.YOffset)
			return info
		}
		c.sideIDs = append(c.sideIDs, m.CreateSideDef(sector, 0,
			surface(s.UpName), surface(s.MidName), surface(s.LoName)))
	}
	return c, nil
}

func (c *commonLevel) side(idx uint16) uint32 {
	if idx == SIDEDEF_NONE || int(idx) >= len(c.sideIDs) {
		return 0
	}
	return c.sideIDs[idx]
}

func (c *commonLevel) vertex(idx uint16) uint32 {
	if int(idx) >= len(c.vertexIDs) {
		return 0
	}
	return c.vertexIDs[idx]
}

func convertLineFlags(flags uint16) int {
	res := 0
	if flags&ML_BLOCKING != 0 {
		res |= DDLF_BLOCKING
	}
	if flags&ML_DONTPEGTOP != 0 {
		res |= DDLF_DONTPEGTOP
	}
	if flags&ML_DONTPEGBOTTOM != 0 {
		res |= DDLF_DONTPEGBOTTOM
	}
	return res
}

// Creates the linedef, returns its id or 0 if the map refused it. The
// middle texture of a two-sided line is drawn masked, so it is declared as
// such
func (c *commonLevel) createLine(m *GameMap, level *LevelLumps, idx int,
	v1, v2, front, back, flags uint16) uint32 {
	id := m.CreateLineDef(c.vertex(v1), c.vertex(v2), c.side(front),
		c.side(back), convertLineFlags(flags))
	if id == 0 {
		Log.Verbose(1, "%s: linedef #%d (%d -> %d) is invalid, skipping it\n",
			level.name, idx, v1, v2)
		return 0
	}
	line := m.LineDef(id)
	if line.HasBack() {
		if mid := line.sides[FRONT].Middle().Material; mid != nil {
			m.materials.DeclareMasked(mid.Name)
		}
		if mid := line.sides[BACK].Middle().Material; mid != nil {
			m.materials.DeclareMasked(mid.Name)
		}
	}
	return id
}

type DoomFormatConverter struct{}

func (c *DoomFormatConverter) Name() string {
	return "Doom"
}

func (c *DoomFormatConverter) Recognise(level *LevelLumps) bool {
	return !level.Has("BEHAVIOR") &&
		len(level.Get("LINEDEFS"))%DOOM_LINEDEF_SIZE == 0 &&
		len(level.Get("THINGS"))%DOOM_THING_SIZE == 0
}

func (c *DoomFormatConverter) Convert(level *LevelLumps, m *GameMap) error {
	common, err := loadCommon(level, m)
	if err != nil {
		return err
	}
	linedefs, err := decodeLump[RawLinedef](level, "LINEDEFS", DOOM_LINEDEF_SIZE)
	if err != nil {
		return err
	}
	things, err := decodeLump[RawThing](level, "THINGS", DOOM_THING_SIZE)
	if err != nil {
		return err
	}
	for i, l := range linedefs {
		common.createLine(m, level, i, l.StartVertex, l.EndVertex, l.FrontSdef,
			l.BackSdef, l.Flags)
	}
	for _, t := range things {
		m.things = append(m.things, MapThing{
			X:     float64(t.XPos),
			Y:     float64(t.YPos),
			Angle: int(t.Angle),
			Type:  int(t.Type),
			Flags: int(t.Flags),
		})
	}
	return nil
}

type HexenFormatConverter struct{}

func (c *HexenFormatConverter) Name() string {
	return "Hexen"
}

func (c *HexenFormatConverter) Recognise(level *LevelLumps) bool {
	return level.Has("BEHAVIOR") &&
		len(level.Get("LINEDEFS"))%HEXEN_LINEDEF_SIZE == 0 &&
		len(level.Get("THINGS"))%HEXEN_THING_SIZE == 0
}

func (c *HexenFormatConverter) Convert(level *LevelLumps, m *GameMap) error {
	common, err := loadCommon(level, m)
	if err != nil {
		return err
	}
	linedefs, err := decodeLump[RawHexenLinedef](level, "LINEDEFS", HEXEN_LINEDEF_SIZE)
	if err != nil {
		return err
	}
	things, err := decodeLump[RawHexenThing](level, "THINGS", HEXEN_THING_SIZE)
	if err != nil {
		return err
	}

	lineIDs := make([]uint32, len(linedefs))
	for i, l := range linedefs {
		lineIDs[i] = common.createLine(m, level, i, l.StartVertex, l.EndVertex,
			l.FrontSdef, l.BackSdef, l.Flags)
	}

	anchors := make(map[int][2]float64)
	spawns := make(map[int]polySpawn)
	for _, t := range things {
		// the polyobj number goes in the angle field
		pos := [2]float64{float64(t.XPos), float64(t.YPos)}
		switch t.Type {
		case PO_ANCHOR_TYPE, ZDOOM_PO_ANCHOR_TYPE:
			anchors[int(t.Angle)] = pos
			continue
		case PO_SPAWN_TYPE, ZDOOM_PO_SPAWN_TYPE:
			spawns[int(t.Angle)] = polySpawn{pos: pos}
			continue
		case PO_SPAWNCRUSH_TYPE, ZDOOM_PO_SPAWNCRUSH_TYPE:
			spawns[int(t.Angle)] = polySpawn{pos: pos, crush: true}
			continue
		}
		m.things = append(m.things, MapThing{
			X:     float64(t.XPos),
			Y:     float64(t.YPos),
			Z:     float64(t.StartingHeight),
			Angle: int(t.Angle),
			Type:  int(t.Type),
			Flags: int(t.Flags),
		})
	}

	return c.createPolyobjs(level, m, linedefs, lineIDs, anchors, spawns)
}

type polySpawn struct {
	pos   [2]float64
	crush bool
}

// Polyobjs are given either by a start line whose chain of lines closes back
// on itself, or by explicit lines numbered in order
func (c *HexenFormatConverter) createPolyobjs(level *LevelLumps, m *GameMap,
	linedefs []RawHexenLinedef, lineIDs []uint32, anchors map[int][2]float64,
	spawns map[int]polySpawn) error {
	explicit := make(map[int]map[int]uint32)
	var tags []int
	starts := make(map[int]int)
	sequence := make(map[int]int)
	for i, l := range linedefs {
		if lineIDs[i] == 0 {
			continue
		}
		tag := int(l.Arg1)
		switch l.Action {
		case HEXEN_ACTION_POLY_START:
			if _, dup := starts[tag]; dup {
				return fmt.Errorf("polyobj %d has more than one start line", tag)
			}
			starts[tag] = i
			sequence[tag] = int(l.Arg3)
			tags = append(tags, tag)
		case HEXEN_ACTION_POLY_EXPLICIT:
			if explicit[tag] == nil {
				explicit[tag] = make(map[int]uint32)
				if _, isStart := starts[tag]; !isStart {
					tags = append(tags, tag)
				}
			}
			explicit[tag][int(l.Arg2)] = lineIDs[i]
			if int(l.Arg2) == 1 {
				if _, isStart := starts[tag]; !isStart {
					sequence[tag] = int(l.Arg4)
				}
			}
		}
	}

	for _, tag := range tags {
		var lines []uint32
		if start, ok := starts[tag]; ok {
			lines = findPolyLines(m, lineIDs, lineIDs[start])
		} else {
			order := explicit[tag]
			for n := 1; n <= len(order); n++ {
				id, ok := order[n]
				if !ok {
					return fmt.Errorf("polyobj %d is missing explicit line %d", tag, n)
				}
				lines = append(lines, id)
			}
		}
		if len(lines) == 0 {
			return fmt.Errorf("polyobj %d has no lines", tag)
		}
		anchor, ok := anchors[tag]
		if !ok {
			Log.Verbose(1, "%s: polyobj %d has no anchor\n", level.name, tag)
		}
		id := m.CreatePolyobj(lines, tag, sequence[tag], anchor[0], anchor[1])
		if id == 0 {
			return fmt.Errorf("polyobj %d could not be created", tag)
		}
		if spawn, ok := spawns[tag]; ok {
			m.SetPolyobjSpawn(id, spawn.pos[0], spawn.pos[1], spawn.crush)
		} else {
			Log.Verbose(1, "%s: polyobj %d has no spawn spot\n", level.name, tag)
		}
	}
	return nil
}

// Follows the lines from start, each beginning where the previous one ends,
// until the chain comes back to start
func findPolyLines(m *GameMap, lineIDs []uint32, start uint32) []uint32 {
	startLine := m.LineDef(start)
	res := []uint32{start}
	cur := startLine
	for len(res) <= len(lineIDs) {
		end := cur.v[1].Pos
		if end == startLine.v[0].Pos {
			return res
		}
		var next *LineDef
		for _, id := range lineIDs {
			line := m.LineDef(id)
			if line == nil || line == cur || line.IsPolyobjLine() {
				continue
			}
			if line.v[0].Pos == end {
				next = line
				break
			}
		}
		if next == nil {
			Log.Verbose(1, "Polyobj chain from linedef #%d is not closed\n",
				startLine.index)
			return res
		}
		res = append(res, uint32(next.index+1))
		cur = next
	}
	return res
}
