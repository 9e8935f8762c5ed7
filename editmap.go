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
	"math"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// GameMap is built in two phases. While editing, loaders create vertices,
// sides, lines, sectors, planes and polyobjs through the Create* calls,
// which take and return 1-based ids (0 means none or invalid). BuildBSP
// then produces the nodes, subsectors, segs and blockmaps and closes editing.

var ErrMapAlreadyBuilt = errors.New("map is already built")

// Size of spawned things, the loaders don't know the real one
const (
	THING_RADIUS = 20
	THING_HEIGHT = 56
)

type GameMap struct {
	name       string
	editActive bool

	mesh      *Mesh
	materials *MaterialLibrary

	lineDefs []*LineDef
	sideDefs []*SideDef
	sectors  []*Sector
	polyobjs []*Polyobj

	root       BspElement
	nodes      []*Node
	subsectors []*Subsector
	segs       []*Seg
	unclosed   []*Sector
	totals     NodesTotals

	bounds     AABoxf
	validCount *ValidCounter

	lineDefBlockmap   *LineDefBlockmap
	mobjBlockmap      *MobjBlockmap
	subsectorBlockmap *SubsectorBlockmap
	particleBlockmap  *ParticleBlockmap
	lumobjBlockmap    *LumobjBlockmap

	things    []MapThing
	mobjs     []*Mobj
	particles []*Particle
	lumobjs   []*Lumobj
}

func NewGameMap(name string) *GameMap {
	return &GameMap{
		name:       name,
		editActive: true,
		mesh:       NewMesh(),
		materials:  NewMaterialLibrary(),
		bounds:     EmptyAABoxf(),
		validCount: &ValidCounter{},
	}
}

func (m *GameMap) Name() string {
	return m.name
}

func (m *GameMap) IsEditable() bool {
	return m.editActive
}

func (m *GameMap) Materials() *MaterialLibrary {
	return m.materials
}

func (m *GameMap) CreateVertex(x, y float64) uint32 {
	if !m.editActive {
		return 0
	}
	v := m.mesh.CreateVertex(x, y)
	return uint32(v.index + 1)
}

// xy holds pairs of coordinates. Returns the ids in the same order, or nil
// if nothing could be created
func (m *GameMap) CreateVertices(xy []float64) []uint32 {
	if !m.editActive || len(xy) < 2 || len(xy)%2 != 0 {
		return nil
	}
	ids := make([]uint32, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		ids = append(ids, m.CreateVertex(xy[i], xy[i+1]))
	}
	return ids
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (m *GameMap) surfaceFrom(info SurfaceInfo, alpha float32) Surface {
	return Surface{
		Material:  m.materials.Resolve(info.Material),
		Offset:    [2]float32{info.OffX, info.OffY},
		RGBA:      [4]float32{info.R, info.G, info.B, alpha},
		BlendMode: info.BlendMode,
	}
}

// sector may be 0 for a side without one. Only the middle section keeps its
// alpha, top and bottom are always solid
func (m *GameMap) CreateSideDef(sector uint32, flags int16, top, middle,
	bottom SurfaceInfo) uint32 {
	if !m.editActive {
		return 0
	}
	var sec *Sector
	if sector != 0 {
		if sec = m.Sector(sector); sec == nil {
			return 0
		}
	}
	side := &SideDef{
		index:  len(m.sideDefs),
		sector: sec,
		Flags:  flags,
	}
	side.Sections[SEG_TOP] = m.surfaceFrom(top, 1)
	side.Sections[SEG_MIDDLE] = m.surfaceFrom(middle, middle.A)
	side.Sections[SEG_BOTTOM] = m.surfaceFrom(bottom, 1)
	m.sideDefs = append(m.sideDefs, side)
	return uint32(side.index + 1)
}

// Sides may be 0. A sidedef can belong to one linedef only, and the line
// must have a non-zero length
func (m *GameMap) CreateLineDef(v1, v2, frontSide, backSide uint32, flags int) uint32 {
	if !m.editActive {
		return 0
	}
	vtx1 := m.Vertex(v1)
	vtx2 := m.Vertex(v2)
	if vtx1 == nil || vtx2 == nil || v1 == v2 {
		return 0
	}
	var front, back *SideDef
	if frontSide != 0 {
		if front = m.SideDef(frontSide); front == nil || front.line != nil {
			return 0
		}
	}
	if backSide != 0 {
		if back = m.SideDef(backSide); back == nil || back.line != nil {
			return 0
		}
	}
	if front != nil && front == back {
		return 0
	}
	dx := vtx2.Pos[0] - vtx1.Pos[0]
	dy := vtx2.Pos[1] - vtx1.Pos[1]
	if !(math.Hypot(dx, dy) > 0) {
		return 0
	}

	line := &LineDef{
		index: len(m.lineDefs),
		v:     [2]*Vertex{vtx1, vtx2},
		sides: [2]*SideDef{front, back},
		Flags: flags & (DDLF_BLOCKING | DDLF_DONTPEGTOP | DDLF_DONTPEGBOTTOM),
	}
	line.updateGeometry()
	vtx1.refCount++
	vtx2.refCount++

	if front != nil {
		front.line = line
	}
	if back != nil {
		back.line = line
	}
	if front != nil && back != nil {
		line.Flags |= LF_TWOSIDED
		line.selfRef = front.sector != nil && front.sector == back.sector
	} else {
		line.Flags |= DDLF_BLOCKING
	}
	m.lineDefs = append(m.lineDefs, line)
	return uint32(line.index + 1)
}

// Colour and light level are clamped to [0, 1]
func (m *GameMap) CreateSector(lightLevel, r, g, b float32) uint32 {
	if !m.editActive {
		return 0
	}
	sec := &Sector{
		index:      len(m.sectors),
		LightLevel: clampUnit(lightLevel),
		RGB:        [3]float32{clampUnit(r), clampUnit(g), clampUnit(b)},
		BBox:       EmptyAABoxf(),
	}
	m.sectors = append(m.sectors, sec)
	return uint32(sec.index + 1)
}

// Adds a plane to sector and returns its 1-based index within the sector.
// A plane facing down is a ceiling, anything else a floor
func (m *GameMap) CreatePlane(sector uint32, height float64, material string,
	matOffX, matOffY, r, g, b, a, normalX, normalY, normalZ float32) uint32 {
	if !m.editActive {
		return 0
	}
	sec := m.Sector(sector)
	if sec == nil {
		return 0
	}
	typ := PLN_FLOOR
	if normalZ < 0 {
		typ = PLN_CEILING
	}
	normal := mgl32.Vec3{normalX, normalY, normalZ}
	if normal.Len() > 0 {
		normal = normal.Normalize()
	} else {
		normal = mgl32.Vec3{0, 0, 1}
	}
	pln := &Plane{
		index:  len(sec.planes),
		sector: sec,
		Height: height,
		Type:   typ,
		Surface: Surface{
			Material:  m.materials.Resolve(material),
			Offset:    [2]float32{matOffX, matOffY},
			RGBA:      [4]float32{r, g, b, a},
			BlendMode: BM_NORMAL,
			Normal:    [3]float32(normal),
		},
	}
	sec.planes = append(sec.planes, pln)
	return uint32(pln.index + 1)
}

// Every line must exist and not be part of another polyobj yet
func (m *GameMap) CreatePolyobj(lineIDs []uint32, tag, sequenceType int,
	anchorX, anchorY float64) uint32 {
	if !m.editActive || len(lineIDs) == 0 {
		return 0
	}
	lines := make([]*LineDef, 0, len(lineIDs))
	seen := make(map[*LineDef]struct{}, len(lineIDs))
	for _, id := range lineIDs {
		line := m.LineDef(id)
		if line == nil || line.IsPolyobjLine() {
			return 0
		}
		if _, dup := seen[line]; dup {
			return 0
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	po := &Polyobj{
		index:        len(m.polyobjs),
		Tag:          tag,
		SequenceType: sequenceType,
		Anchor:       [2]float64{anchorX, anchorY},
		lines:        lines,
	}
	for _, line := range lines {
		line.Flags |= LF_POLYOBJ
		line.polyobj = po
	}
	m.polyobjs = append(m.polyobjs, po)
	return uint32(po.index + 1)
}

// Gives the polyobj a spawn spot. When the map is built, its lines are moved
// by the offset from the anchor to the spawn spot
func (m *GameMap) SetPolyobjSpawn(id uint32, x, y float64, crush bool) bool {
	if !m.editActive {
		return false
	}
	po := m.Polyobj(id)
	if po == nil {
		return false
	}
	po.Spawn = [2]float64{x, y}
	po.Crush = crush
	po.hasSpawn = true
	return true
}

// Lookups by 1-based id. nil for 0 and ids out of range

func (m *GameMap) Vertex(id uint32) *Vertex {
	if id == 0 || int(id) > len(m.mesh.vertices) {
		return nil
	}
	return m.mesh.vertices[id-1]
}

func (m *GameMap) LineDef(id uint32) *LineDef {
	if id == 0 || int(id) > len(m.lineDefs) {
		return nil
	}
	return m.lineDefs[id-1]
}

func (m *GameMap) SideDef(id uint32) *SideDef {
	if id == 0 || int(id) > len(m.sideDefs) {
		return nil
	}
	return m.sideDefs[id-1]
}

func (m *GameMap) Sector(id uint32) *Sector {
	if id == 0 || int(id) > len(m.sectors) {
		return nil
	}
	return m.sectors[id-1]
}

func (m *GameMap) Polyobj(id uint32) *Polyobj {
	if id == 0 || int(id) > len(m.polyobjs) {
		return nil
	}
	return m.polyobjs[id-1]
}

func (m *GameMap) NumVertices() int   { return len(m.mesh.vertices) }
func (m *GameMap) NumLineDefs() int   { return len(m.lineDefs) }
func (m *GameMap) NumSideDefs() int   { return len(m.sideDefs) }
func (m *GameMap) NumSectors() int    { return len(m.sectors) }
func (m *GameMap) NumPolyobjs() int   { return len(m.polyobjs) }
func (m *GameMap) NumNodes() int      { return len(m.nodes) }
func (m *GameMap) NumSubsectors() int { return len(m.subsectors) }
func (m *GameMap) NumSegs() int       { return len(m.segs) }

func (m *GameMap) LineDefs() []*LineDef     { return m.lineDefs }
func (m *GameMap) Sectors() []*Sector       { return m.sectors }
func (m *GameMap) Polyobjs() []*Polyobj     { return m.polyobjs }
func (m *GameMap) Nodes() []*Node           { return m.nodes }
func (m *GameMap) Subsectors() []*Subsector { return m.subsectors }
func (m *GameMap) Segs() []*Seg             { return m.segs }
func (m *GameMap) Mesh() *Mesh              { return m.mesh }
func (m *GameMap) Root() BspElement         { return m.root }
func (m *GameMap) Bounds() AABoxf           { return m.bounds }
func (m *GameMap) Unclosed() []*Sector      { return m.unclosed }
func (m *GameMap) Totals() NodesTotals      { return m.totals }

func (m *GameMap) LineDefBlockmap() *LineDefBlockmap     { return m.lineDefBlockmap }
func (m *GameMap) MobjBlockmap() *MobjBlockmap           { return m.mobjBlockmap }
func (m *GameMap) SubsectorBlockmap() *SubsectorBlockmap { return m.subsectorBlockmap }
func (m *GameMap) ParticleBlockmap() *ParticleBlockmap   { return m.particleBlockmap }
func (m *GameMap) LumobjBlockmap() *LumobjBlockmap       { return m.lumobjBlockmap }

// Vertices at the same position are made equivalent to the first of them
// in sort order, and the lines are moved over to that one. The returned
// function undoes it
func (m *GameMap) mergeDuplicateVertices() (undo func()) {
	sorted := make([]*Vertex, len(m.mesh.vertices))
	copy(sorted, m.mesh.vertices)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Pos, sorted[j].Pos
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})
	var marked []*Vertex
	for i := 0; i+1 < len(sorted); i++ {
		a, b := sorted[i], sorted[i+1]
		if a.Pos != b.Pos {
			continue
		}
		if a.equiv != nil {
			b.equiv = a.equiv
		} else {
			b.equiv = a
		}
		marked = append(marked, b)
	}

	type relink struct {
		line *LineDef
		v    [2]*Vertex
	}
	var relinked []relink
	for _, line := range m.lineDefs {
		if line.v[0].equiv == nil && line.v[1].equiv == nil {
			continue
		}
		relinked = append(relinked, relink{line, line.v})
		for i := 0; i < 2; i++ {
			for line.v[i].equiv != nil {
				line.v[i].refCount--
				line.v[i] = line.v[i].equiv
				line.v[i].refCount++
			}
		}
	}
	if len(marked) > 0 {
		Log.Verbose(1, "%s: %d duplicate vertices, %d linedefs relinked\n",
			m.name, len(marked), len(relinked))
	}

	return func() {
		for i := len(relinked) - 1; i >= 0; i-- {
			r := relinked[i]
			for j := 0; j < 2; j++ {
				r.line.v[j].refCount--
				r.line.v[j] = r.v[j]
				r.line.v[j].refCount++
			}
		}
		for _, v := range marked {
			v.equiv = nil
		}
	}
}

// Drops vertices no linedef uses and renumbers the rest
func (m *GameMap) pruneVertices() {
	kept := m.mesh.vertices[:0]
	unused, dups := 0, 0
	for _, v := range m.mesh.vertices {
		if v.refCount == 0 {
			if v.equiv == nil {
				unused++
			} else {
				dups++
			}
			continue
		}
		v.index = len(kept)
		kept = append(kept, v)
	}
	for i := len(kept); i < len(m.mesh.vertices); i++ {
		m.mesh.vertices[i] = nil
	}
	m.mesh.vertices = kept
	if unused > 0 {
		Log.Verbose(1, "%s: pruned %d unused vertices\n", m.name, unused)
	}
	if dups > 0 {
		Log.Verbose(1, "%s: pruned %d duplicate vertices\n", m.name, dups)
	}
}

func (m *GameMap) lineBounds() AABoxf {
	box := EmptyAABoxf()
	for _, line := range m.lineDefs {
		box.AddBox(line.BBox)
	}
	return box
}

// Builds the BSP and the blockmaps and closes editing. Either everything is
// published or, on error, nothing is and the map can still be edited
func (m *GameMap) BuildBSP() error {
	if !m.editActive {
		return ErrMapAlreadyBuilt
	}
	start := time.Now()

	undo := m.mergeDuplicateVertices()
	bounds := m.lineBounds()
	if bounds.IsEmpty() {
		undo()
		return fmt.Errorf("building %s: %w", m.name, ErrNoRealHEdges)
	}

	bmchan := make(chan *LineDefBlockmap)
	go LineDefBlockmapGenerator(BlockmapInput{
		lines:      m.lineDefs,
		bounds:     bounds,
		blockSize:  config.BlockmapCellSize, // reference to global: config
		validCount: m.validCount,
	}, bmchan)

	res, mlog, err := NodesGenerator(&NodesInput{
		name:    m.name,
		lines:   m.lineDefs,
		sectors: m.sectors,
		bounds:  bounds,
		factor:  config.SplitCostFactor, // reference to global: config
	})
	Log.Merge(mlog, "")
	lineBlockmap := <-bmchan
	if err != nil {
		undo()
		return fmt.Errorf("building %s: %w", m.name, err)
	}

	m.commit(res, bounds)
	m.lineDefBlockmap = lineBlockmap
	m.buildBlockmaps()
	m.editActive = false

	Log.Verbose(1, "%s built in %s\n", m.name, time.Since(start))
	return nil
}

// Publishes the result of a successful nodes build
func (m *GameMap) commit(res *NodesResult, bounds AABoxf) {
	m.pruneVertices()
	m.mesh.Adopt(res.mesh)
	for _, po := range m.polyobjs {
		m.movePolyobjToSpawn(po)
	}
	m.bounds = bounds

	m.root = res.root
	m.nodes = res.nodes
	m.subsectors = res.subsectors
	m.segs = res.segs
	m.unclosed = res.unclosed
	m.totals = res.totals

	for _, sec := range m.unclosed {
		sec.Flags |= SECF_UNCLOSED
	}
	for _, ss := range m.subsectors {
		if ss.sector != nil {
			ss.sector.subsectors = append(ss.sector.subsectors, ss)
		}
	}
	for _, line := range m.lineDefs {
		for side := FRONT; side <= BACK; side++ {
			sec := line.SectorOn(side)
			if sec == nil {
				continue
			}
			if side == BACK && sec == line.SectorOn(FRONT) {
				continue
			}
			sec.lineDefs = append(sec.lineDefs, line)
			sec.BBox.AddBox(line.BBox)
		}
	}

	for _, po := range m.polyobjs {
		origin := po.Origin()
		ss := m.PointInSubsector(origin[0], origin[1])
		if ss == nil {
			continue
		}
		if ss.polyobj != nil {
			Log.Verbose(1, "%s: polyobj #%d shares subsector #%d with polyobj #%d\n",
				m.name, po.index, ss.index, ss.polyobj.index)
			continue
		}
		ss.polyobj = po
		po.subsector = ss
	}
}

// Polyobj lines stay out of the BSP, so they can be moved once it is built.
// A polyobj that shares vertices with other lines stays where it is
func (m *GameMap) movePolyobjToSpawn(po *Polyobj) {
	if !po.hasSpawn {
		return
	}
	uses := make(map[*Vertex]int)
	for _, line := range po.lines {
		uses[line.v[0]]++
		uses[line.v[1]]++
	}
	for v, n := range uses {
		if v.refCount != n {
			Log.Verbose(1, "%s: polyobj %d shares vertex %d with other lines, not moved\n",
				m.name, po.Tag, v.index)
			po.hasSpawn = false
			return
		}
	}
	dx := po.Spawn[0] - po.Anchor[0]
	dy := po.Spawn[1] - po.Anchor[1]
	for v := range uses {
		v.Pos[0] += dx
		v.Pos[1] += dy
	}
	for _, line := range po.lines {
		line.updateGeometry()
	}
}

func (m *GameMap) buildBlockmaps() {
	cellSize := config.BlockmapCellSize // reference to global: config
	m.mobjBlockmap = NewMobjBlockmap(m.bounds, cellSize, m.validCount)
	m.subsectorBlockmap = CreateSubsectorBlockmap(m.subsectors, m.bounds,
		cellSize, m.validCount)
	m.particleBlockmap = NewParticleBlockmap(m.bounds, cellSize)
	m.lumobjBlockmap = NewLumobjBlockmap(m.bounds, cellSize)
}

// Subsector containing the point, nil before the BSP is built
func (m *GameMap) PointInSubsector(x, y float64) *Subsector {
	elem := m.root
	for elem != nil {
		switch e := elem.(type) {
		case *Node:
			elem = e.children[e.PointOnSide(x, y)]
		case *Subsector:
			return e
		default:
			return nil
		}
	}
	return nil
}

// Sector containing the point, nil outside of the map
func (m *GameMap) PointInSector(x, y float64) *Sector {
	ss := m.PointInSubsector(x, y)
	if ss == nil {
		return nil
	}
	return ss.sector
}

// Mobjs, particles and lumobjs exist once the map is built

func (m *GameMap) SpawnMobj(x, y, z, radius, height float64, typ int) *Mobj {
	if m.mobjBlockmap == nil {
		return nil
	}
	mo := &Mobj{
		index:  len(m.mobjs),
		Pos:    [3]float64{x, y, z},
		Radius: radius,
		Height: height,
		Type:   typ,
	}
	m.mobjs = append(m.mobjs, mo)
	m.mobjBlockmap.Link(mo)
	return mo
}

func (m *GameMap) MoveMobj(mo *Mobj, x, y, z float64) {
	mo.Pos = [3]float64{x, y, z}
	if m.mobjBlockmap != nil {
		m.mobjBlockmap.Relink(mo)
	}
}

// Swaps the last mobj into the freed slot, so indices of others may change
func (m *GameMap) RemoveMobj(mo *Mobj) bool {
	if mo.index < 0 || mo.index >= len(m.mobjs) || m.mobjs[mo.index] != mo {
		return false
	}
	m.mobjBlockmap.Unlink(mo)
	last := len(m.mobjs) - 1
	if mo.index != last {
		m.mobjs[mo.index] = m.mobjs[last]
		m.mobjs[mo.index].index = mo.index
	}
	m.mobjs[last] = nil
	m.mobjs = m.mobjs[:last]
	mo.index = -1
	return true
}

func (m *GameMap) Mobjs() []*Mobj {
	return m.mobjs
}

func (m *GameMap) SpawnParticle(x, y, z float64) *Particle {
	if m.particleBlockmap == nil {
		return nil
	}
	p := &Particle{
		index: len(m.particles),
		Pos:   [3]float64{x, y, z},
	}
	m.particles = append(m.particles, p)
	m.particleBlockmap.Link(p)
	return p
}

// Particles live for one frame
func (m *GameMap) ClearParticles() {
	if m.particleBlockmap != nil {
		m.particleBlockmap.Empty()
	}
	m.particles = m.particles[:0]
}

func (m *GameMap) AddLumobj(x, y, z float64, typ int, radius float64) *Lumobj {
	if m.lumobjBlockmap == nil {
		return nil
	}
	lum := &Lumobj{
		index:  len(m.lumobjs),
		Pos:    [3]float64{x, y, z},
		Type:   typ,
		Radius: radius,
	}
	m.lumobjs = append(m.lumobjs, lum)
	m.lumobjBlockmap.Link(lum)
	return lum
}

func (m *GameMap) ClearLumobjs() {
	if m.lumobjBlockmap != nil {
		m.lumobjBlockmap.Empty()
	}
	m.lumobjs = m.lumobjs[:0]
}

func (m *GameMap) Things() []MapThing {
	return m.things
}

// Spawns a mobj for every thing loaded with the map. Only possible once the
// map is built. Returns the number of mobjs spawned
func (m *GameMap) SpawnThings() int {
	if m.mobjBlockmap == nil {
		return 0
	}
	n := 0
	for _, t := range m.things {
		if m.SpawnMobj(t.X, t.Y, t.Z, THING_RADIUS, THING_HEIGHT, t.Type) != nil {
			n++
		}
	}
	return n
}
