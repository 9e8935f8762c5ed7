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
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Runtime map entities. Everything here is created through the editing API
// (editmap.go) and owned by GameMap.

type DMUType int

const (
	DMU_NONE DMUType = iota
	DMU_VERTEX
	DMU_HEDGE
	DMU_LINEDEF
	DMU_SIDEDEF
	DMU_SECTOR
	DMU_PLANE
	DMU_POLYOBJ
	DMU_NODE
	DMU_SUBSECTOR
	DMU_SEG
	DMU_MOBJ
	DMU_PARTICLE
	DMU_LUMOBJ
)

var dmuTypeNames = map[DMUType]string{
	DMU_NONE:      "none",
	DMU_VERTEX:    "vertex",
	DMU_HEDGE:     "hedge",
	DMU_LINEDEF:   "linedef",
	DMU_SIDEDEF:   "sidedef",
	DMU_SECTOR:    "sector",
	DMU_PLANE:     "plane",
	DMU_POLYOBJ:   "polyobj",
	DMU_NODE:      "node",
	DMU_SUBSECTOR: "subsector",
	DMU_SEG:       "seg",
	DMU_MOBJ:      "mobj",
	DMU_PARTICLE:  "particle",
	DMU_LUMOBJ:    "lumobj",
}

func (t DMUType) String() string {
	if s, ok := dmuTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("DMUType(%d)", int(t))
}

// Every addressable map entity implements MapObject. The set of
// implementations is closed, so a type switch over MapObject is exhaustive
type MapObject interface {
	ObjectType() DMUType
	ObjectIndex() int
}

// Public linedef flags
const (
	DDLF_BLOCKING      = 0x0001
	DDLF_DONTPEGTOP    = 0x0002
	DDLF_DONTPEGBOTTOM = 0x0004
)

// Internal linedef flags
const (
	LF_TWOSIDED = 0x0100
	LF_POLYOBJ  = 0x0200
)

const (
	FRONT = 0
	BACK  = 1
)

type LineDef struct {
	index      int
	v          [2]*Vertex
	sides      [2]*SideDef
	Flags      int
	DX, DY     float64
	Length     float64
	Angle      float64 // degrees
	SlopeType  int
	BBox       AABoxf
	selfRef    bool // two-sided, same sector on both sides
	validCount int
	polyobj    *Polyobj
	hEdges     [2]*HEdge // one half-edge of each side once the BSP is built
}

func (l *LineDef) ObjectType() DMUType { return DMU_LINEDEF }
func (l *LineDef) ObjectIndex() int    { return l.index }

func (l *LineDef) V1() *Vertex { return l.v[0] }
func (l *LineDef) V2() *Vertex { return l.v[1] }

func (l *LineDef) Side(i int) *SideDef { return l.sides[i] }

func (l *LineDef) HasBack() bool {
	return l.sides[BACK] != nil
}

// Sector on the given side, or nil
func (l *LineDef) SectorOn(side int) *Sector {
	if l.sides[side] == nil {
		return nil
	}
	return l.sides[side].sector
}

func (l *LineDef) IsPolyobjLine() bool {
	return l.Flags&LF_POLYOBJ != 0
}

func (l *LineDef) DivLine() DivLine {
	return DivLine{
		X:  l.v[0].Pos[0],
		Y:  l.v[0].Pos[1],
		DX: l.DX,
		DY: l.DY,
	}
}

// 0 front (right), 1 back
func (l *LineDef) PointOnSide(x, y float64) int {
	dl := l.DivLine()
	return pointOnDivLineSide(x, y, &dl)
}

// Recomputes the derived geometry after vertices were moved or relinked
func (l *LineDef) updateGeometry() {
	l.DX = l.v[1].Pos[0] - l.v[0].Pos[0]
	l.DY = l.v[1].Pos[1] - l.v[0].Pos[1]
	l.Length = mgl64.Vec2{l.DX, l.DY}.Len()
	l.Angle = computeAngle(l.DX, l.DY)
	l.SlopeType = slopeTypeOf(l.DX, l.DY)
	l.BBox = EmptyAABoxf()
	l.BBox.AddPoint(l.v[0].Pos[0], l.v[0].Pos[1])
	l.BBox.AddPoint(l.v[1].Pos[0], l.v[1].Pos[1])
}

const (
	BM_NORMAL = iota
	BM_ADD
	BM_DARK
)

type Surface struct {
	Material  *Material
	Offset    [2]float32
	RGBA      [4]float32
	BlendMode int
	Normal    [3]float32
}

// Is nothing behind the surface visible through it?
func (s *Surface) IsOpaque() bool {
	return s.Material != nil && s.Material.IsOpaque() && s.BlendMode == BM_NORMAL &&
		!(s.RGBA[3] < 1.0)
}

func (s *Surface) IsSky() bool {
	return s.Material != nil && s.Material.IsSky()
}

// Input to CreateSideDef for each of the three wall sections
type SurfaceInfo struct {
	Material   string
	OffX, OffY float32
	R, G, B, A float32
	BlendMode  int
}

func DefaultSurfaceInfo(material string) SurfaceInfo {
	return SurfaceInfo{
		Material: material,
		R:        1,
		G:        1,
		B:        1,
		A:        1,
	}
}

const (
	SEG_MIDDLE = iota
	SEG_TOP
	SEG_BOTTOM
)

type SideDef struct {
	index    int
	sector   *Sector
	line     *LineDef
	Flags    int16
	Sections [3]Surface // indexed by SEG_*
}

func (s *SideDef) ObjectType() DMUType { return DMU_SIDEDEF }
func (s *SideDef) ObjectIndex() int    { return s.index }

func (s *SideDef) Sector() *Sector   { return s.sector }
func (s *SideDef) LineDef() *LineDef { return s.line }

func (s *SideDef) Middle() *Surface { return &s.Sections[SEG_MIDDLE] }

const (
	PLN_FLOOR = iota
	PLN_CEILING
)

type Plane struct {
	index   int // within the sector
	sector  *Sector
	Height  float64
	Type    int
	Surface Surface
}

func (p *Plane) ObjectType() DMUType { return DMU_PLANE }
func (p *Plane) ObjectIndex() int    { return p.index }

const (
	SECF_UNCLOSED = 0x1
)

type Sector struct {
	index      int
	LightLevel float32
	RGB        [3]float32
	Flags      int
	planes     []*Plane
	lineDefs   []*LineDef
	subsectors []*Subsector
	BBox       AABoxf
	validCount int
}

func (s *Sector) ObjectType() DMUType { return DMU_SECTOR }
func (s *Sector) ObjectIndex() int    { return s.index }

func (s *Sector) Planes() []*Plane         { return s.planes }
func (s *Sector) Subsectors() []*Subsector { return s.subsectors }
func (s *Sector) LineDefs() []*LineDef     { return s.lineDefs }

func (s *Sector) planeOfType(typ int) *Plane {
	for _, p := range s.planes {
		if p.Type == typ {
			return p
		}
	}
	return nil
}

func (s *Sector) Floor() *Plane {
	return s.planeOfType(PLN_FLOOR)
}

func (s *Sector) Ceiling() *Plane {
	return s.planeOfType(PLN_CEILING)
}

// Missing planes read as an infinitely open sector
func (s *Sector) FloorHeight() float64 {
	if p := s.Floor(); p != nil {
		return p.Height
	}
	return math.Inf(-1)
}

func (s *Sector) CeilingHeight() float64 {
	if p := s.Ceiling(); p != nil {
		return p.Height
	}
	return math.Inf(1)
}

func (s *Sector) FloorIsSky() bool {
	p := s.Floor()
	return p != nil && p.Surface.IsSky()
}

func (s *Sector) CeilingIsSky() bool {
	p := s.Ceiling()
	return p != nil && p.Surface.IsSky()
}

type Polyobj struct {
	index        int
	Tag          int
	SequenceType int
	Anchor       [2]float64
	Spawn        [2]float64 // where the anchor is moved to, if hasSpawn
	Crush        bool
	hasSpawn     bool
	lines        []*LineDef
	subsector    *Subsector
	validCount   int
}

func (p *Polyobj) ObjectType() DMUType { return DMU_POLYOBJ }
func (p *Polyobj) ObjectIndex() int    { return p.index }

func (p *Polyobj) LineDefs() []*LineDef  { return p.lines }
func (p *Polyobj) Subsector() *Subsector { return p.subsector }

// Position of the anchor once the map is built
func (p *Polyobj) Origin() [2]float64 {
	if p.hasSpawn {
		return p.Spawn
	}
	return p.Anchor
}

// Vertex is owned by the mesh, but is a map object as well
func (v *Vertex) ObjectType() DMUType { return DMU_VERTEX }
func (v *Vertex) ObjectIndex() int    { return v.index }

func (e *HEdge) ObjectType() DMUType { return DMU_HEDGE }
func (e *HEdge) ObjectIndex() int    { return e.index }

// Map object, e.g. a monster or a pickup. Lives in MobjBlockmap
type Mobj struct {
	index      int
	Pos        [3]float64
	Radius     float64
	Height     float64
	Type       int
	validCount int
	link       blockLink
}

func (m *Mobj) ObjectType() DMUType { return DMU_MOBJ }
func (m *Mobj) ObjectIndex() int    { return m.index }

type Particle struct {
	index int
	Pos   [3]float64
	link  blockLink
}

func (p *Particle) ObjectType() DMUType { return DMU_PARTICLE }
func (p *Particle) ObjectIndex() int    { return p.index }

const (
	LT_OMNI = iota
	LT_PLANE
)

// Luminous object, a light source
type Lumobj struct {
	index  int
	Pos    [3]float64
	Type   int
	Radius float64
	link   blockLink
}

func (l *Lumobj) ObjectType() DMUType { return DMU_LUMOBJ }
func (l *Lumobj) ObjectIndex() int    { return l.index }

// Shared stamp for "visited during this query" marks. Each traversal takes
// one value from Next and compares objects' validCount against it
type ValidCounter struct {
	n int
}

func (c *ValidCounter) Next() int {
	c.n++
	return c.n
}

func describeObject(obj MapObject) string {
	switch o := obj.(type) {
	case *Vertex:
		return fmt.Sprintf("vertex #%d (%v,%v)", o.index, o.Pos[0], o.Pos[1])
	case *LineDef:
		return fmt.Sprintf("linedef #%d (%v,%v)-(%v,%v)", o.index,
			o.v[0].Pos[0], o.v[0].Pos[1], o.v[1].Pos[0], o.v[1].Pos[1])
	case *Sector:
		return fmt.Sprintf("sector #%d", o.index)
	case *Subsector:
		return fmt.Sprintf("subsector #%d (%d segs)", o.index, len(o.segs))
	case *Node:
		return fmt.Sprintf("node #%d", o.index)
	default:
		return fmt.Sprintf("%s #%d", obj.ObjectType(), obj.ObjectIndex())
	}
}
