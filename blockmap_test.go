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
	"math"
	"testing"
)

func newTestLineBlockmap(m *GameMap, blockSize float64) *LineDefBlockmap {
	return CreateLineDefBlockmap(BlockmapInput{
		lines:      m.LineDefs(),
		bounds:     m.lineBounds(),
		blockSize:  blockSize,
		validCount: &ValidCounter{},
	})
}

func TestSquareRoomBlockmap(t *testing.T) {
	m := newSquareRoom(t).build()
	bm := m.LineDefBlockmap()
	if bm == nil {
		t.Fatalf("no linedef blockmap after BuildBSP\n")
	}
	if w, h := bm.Dimensions(); w != 1 || h != 1 {
		t.Errorf("dimensions %dx%d, want 1x1\n", w, h)
	}
	if n := bm.NumInBlock(0, 0); n != 4 {
		t.Errorf("NumInBlock(0, 0) = %d, want 4\n", n)
	}
	if n := bm.NumInBlock(1, 0); n != 0 {
		t.Errorf("NumInBlock outside of the grid = %d, want 0\n", n)
	}
	if ox, oy := bm.Origin(); ox != -BLKMARGIN || oy != -BLKMARGIN {
		t.Errorf("origin (%v, %v), want the bounds less the margin\n", ox, oy)
	}
}

func TestBlockmapBaseMapping(t *testing.T) {
	b := newBlockmapBase(AABoxf{MinX: 0, MinY: 0, MaxX: 300, MaxY: 100}, 64)
	if b.width != 5 || b.height != 2 {
		t.Fatalf("dimensions %dx%d, want 5x2\n", b.width, b.height)
	}
	if b.aabb.MaxX != -8+5*64 {
		t.Errorf("bounds must cover whole cells, MaxX = %v\n", b.aabb.MaxX)
	}
	tests := []struct {
		x, y   float64
		cx, cy int
		ok     bool
	}{
		{-8, -8, 0, 0, true},
		{55.9, 0, 0, 0, true},
		{56, 0, 1, 0, true},
		{200, 110, 3, 1, true},
		{-9, 0, 0, 0, false},
		{312, 0, 0, 0, false},
	}
	for _, tt := range tests {
		cx, cy, ok := b.Block2f(tt.x, tt.y)
		if ok != tt.ok || (ok && (cx != tt.cx || cy != tt.cy)) {
			t.Errorf("Block2f(%v, %v) = %d, %d, %v, want %d, %d, %v\n", tt.x, tt.y,
				cx, cy, ok, tt.cx, tt.cy, tt.ok)
		}
	}
	if cx, cy := b.clampedBlock2f(-1000, 1000); cx != 0 || cy != 1 {
		t.Errorf("clampedBlock2f out of bounds = %d, %d, want 0, 1\n", cx, cy)
	}
	bb := b.BoxToBlocks(AABoxf{MinX: 1000, MinY: 1000, MaxX: 2000, MaxY: 2000})
	if !bb.IsEmpty() {
		t.Errorf("box outside of the blockmap must map to no cells, got %+v\n", bb)
	}
	bb = b.BoxToBlocks(AABoxf{MinX: 60, MinY: -100, MaxX: 130, MaxY: 10})
	if bb != (BlockBox{MinX: 1, MinY: 0, MaxX: 2, MaxY: 0}) {
		t.Errorf("BoxToBlocks = %+v\n", bb)
	}
}

// Each cell a line passes through holds it
func TestLineDefBlockmapLinksCrossedCells(t *testing.T) {
	b := newPillarRoom(t)
	// a diagonal in the room
	sec := b.m.Sector(1)
	b.wall(20, 30, 230, 190, uint32(sec.index+1), uint32(sec.index+1))
	bm := newTestLineBlockmap(b.m, 64)
	w, h := bm.Dimensions()
	for _, line := range b.m.LineDefs() {
		for cy := 0; cy < h; cy++ {
			for cx := 0; cx < w; cx++ {
				_, _, crosses := clipSegmentToBox(line.V1().Pos, line.V2().Pos,
					bm.CellBox(cx, cy))
				if !crosses {
					continue
				}
				found := false
				bm.Iterate(cx, cy, func(l *LineDef) bool {
					if l == line {
						found = true
						return false
					}
					return true
				})
				if !found {
					t.Errorf("linedef #%d crosses cell (%d, %d) but is not linked there\n",
						line.index, cx, cy)
				}
			}
		}
	}
}

func TestLineDefBoxIterateOnce(t *testing.T) {
	m := newPillarRoom(t).m
	bm := newTestLineBlockmap(m, 64)
	seen := make(map[*LineDef]int)
	bm.BoxIterate(bm.Bounds(), func(l *LineDef) bool {
		seen[l]++
		return true
	})
	if len(seen) != m.NumLineDefs() {
		t.Errorf("box over the whole map found %d linedefs, want %d\n", len(seen),
			m.NumLineDefs())
	}
	for l, n := range seen {
		if n != 1 {
			t.Errorf("linedef #%d visited %d times\n", l.index, n)
		}
	}

	// the cell around the middle of the west wall holds that wall only
	var found []*LineDef
	bm.BoxIterate(AABoxf{MinX: -1, MinY: 127, MaxX: 1, MaxY: 129}, func(l *LineDef) bool {
		found = append(found, l)
		return true
	})
	if len(found) != 1 || found[0] != m.LineDefs()[0] {
		t.Errorf("small box found %d linedefs, want only the west wall\n", len(found))
	}

	stops := 0
	finished := bm.BoxIterate(bm.Bounds(), func(l *LineDef) bool {
		stops++
		return false
	})
	if finished || stops != 1 {
		t.Errorf("BoxIterate must stop at the first false\n")
	}
}

func TestLineDefBlockmapUnlink(t *testing.T) {
	m := newSquareRoom(t).m
	bm := newTestLineBlockmap(m, 128)
	line := m.LineDefs()[2]
	if !bm.Unlink(line) {
		t.Fatalf("Unlink of a linked line returned false\n")
	}
	if bm.NumInBlock(0, 0) != 3 {
		t.Errorf("NumInBlock after Unlink = %d, want 3\n", bm.NumInBlock(0, 0))
	}
	if bm.Unlink(line) {
		t.Errorf("second Unlink returned true\n")
	}
}

func TestWalkPathSteps(t *testing.T) {
	b := newBlockmapBase(AABoxf{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 600}, 64)
	tests := [][2][2]float64{
		{{-100, -100}, {1200, 700}},
		{{500, 300}, {10, 590}},
		{{0, 0}, {0, 600}},
		{{900, 20}, {30, 20}},
		{{1, 1}, {1, 1}},
		{{-500, 300}, {1500, 310}},
	}
	for _, tt := range tests {
		from, to := tt[0], tt[1]
		visited := make(map[[2]int]bool)
		var order [][2]int
		b.walkPath(from, to, func(cx, cy int) bool {
			visited[[2]int{cx, cy}] = true
			order = append(order, [2]int{cx, cy})
			return true
		})
		if len(order) > b.width+b.height+1 {
			t.Errorf("path %v-%v visited %d cells, more than w+h\n", from, to, len(order))
		}
		for i := 1; i < len(order); i++ {
			dx := order[i][0] - order[i-1][0]
			dy := order[i][1] - order[i-1][1]
			if dx*dx+dy*dy != 1 {
				t.Errorf("path %v-%v jumps from %v to %v\n", from, to, order[i-1], order[i])
			}
		}
		// sample the segment, every sample's cell must have been visited
		a, e, ok := clipSegmentToBox(from, to, b.aabb)
		if !ok {
			continue
		}
		for i := 0; i <= 1000; i++ {
			s := float64(i) / 1000
			x := a[0] + (e[0]-a[0])*s
			y := a[1] + (e[1]-a[1])*s
			// skip samples right on a cell border
			fx := math.Mod(x-b.aabb.MinX, b.blockSize)
			fy := math.Mod(y-b.aabb.MinY, b.blockSize)
			if fx < 0.01 || fx > b.blockSize-0.01 || fy < 0.01 || fy > b.blockSize-0.01 {
				continue
			}
			cx, cy := b.clampedBlock2f(x, y)
			if !visited[[2]int{cx, cy}] {
				t.Errorf("path %v-%v misses cell (%d, %d)\n", from, to, cx, cy)
				break
			}
		}
	}
}

// Ends on cell corners, approached from every direction. The walk must stop
// in a cell that holds the end point and never go past it
func TestWalkPathEndsOnCorners(t *testing.T) {
	b := newBlockmapBase(AABoxf{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 700}, 64)
	// corners are at -8 + 64*k
	c := [2]float64{-8 + 64*6, -8 + 64*5}
	tests := [][2][2]float64{
		{{56, 568}, {760, 248}},
		{c, {c[0] + 128, c[1] + 192}},
		{c, {c[0] - 128, c[1] + 192}},
		{c, {c[0] + 128, c[1] - 192}},
		{c, {c[0] - 128, c[1] - 192}},
		{c, {c[0] + 192, c[1] + 192}},
		{c, {c[0] - 192, c[1] - 192}},
		{c, {c[0] + 256, c[1]}},
		{c, {c[0], c[1] - 256}},
	}
	for _, tt := range tests {
		from, to := tt[0], tt[1]
		seg := EmptyAABoxf()
		seg.AddPoint(from[0], from[1])
		seg.AddPoint(to[0], to[1])
		var last [2]int
		n := 0
		b.walkPath(from, to, func(cx, cy int) bool {
			n++
			last = [2]int{cx, cy}
			cell := b.CellBox(cx, cy)
			if cell.MinX > seg.MaxX || cell.MaxX < seg.MinX ||
				cell.MinY > seg.MaxY || cell.MaxY < seg.MinY {
				t.Errorf("path %v-%v went past its end into cell %v\n", from, to,
					[2]int{cx, cy})
				return false
			}
			return true
		})
		if n == 0 {
			t.Errorf("path %v-%v visited nothing\n", from, to)
			continue
		}
		cell := b.CellBox(last[0], last[1])
		if to[0] < cell.MinX || to[0] > cell.MaxX || to[1] < cell.MinY ||
			to[1] > cell.MaxY {
			t.Errorf("path %v-%v stopped in cell %v, which does not hold the end\n",
				from, to, last)
		}
	}
}

func TestMobjPathTraverseStopsAtEnd(t *testing.T) {
	bm := NewMobjBlockmap(AABoxf{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 700}, 64,
		&ValidCounter{})
	near := &Mobj{Pos: [3]float64{100, 540, 0}, Radius: 16}
	behind := &Mobj{Pos: [3]float64{898, 130, 0}, Radius: 16}
	bm.Link(near)
	bm.Link(behind)
	var found []*Mobj
	bm.PathTraverse([2]float64{56, 568}, [2]float64{760, 248}, func(mo *Mobj) bool {
		found = append(found, mo)
		return true
	})
	if len(found) != 1 || found[0] != near {
		t.Errorf("PathTraverse found %d mobjs, want only the one on the path\n",
			len(found))
	}
}

func TestBlockmapCellSizeIsWholeUnits(t *testing.T) {
	m := newSquareRoom(t).m
	// would divide by zero in the linedef walk if it was kept
	bm := newTestLineBlockmap(m, 0.5)
	if bm.BlockSize() != MAPBLOCKUNITS {
		t.Errorf("cell size below one unit gave %v, want %v\n", bm.BlockSize(),
			float64(MAPBLOCKUNITS))
	}
	if bm := newTestLineBlockmap(m, 100.5); bm.BlockSize() != 100 {
		t.Errorf("cell size 100.5 gave %v, want 100\n", bm.BlockSize())
	}
	b := newBlockmapBase(AABoxf{MinX: 0.5, MinY: 0.25, MaxX: 300.7, MaxY: 100.2}, 64)
	if x, y := b.Origin(); x != -8 || y != -8 {
		t.Errorf("origin of fractional bounds is %v, %v, want -8, -8\n", x, y)
	}
}

// Lines with fractional ends and an odd cell size are linked into the same
// cells Block2f puts the points of the line in
func TestLineDefLinksMatchBlock2f(t *testing.T) {
	b := newPillarRoom(t)
	sec := uint32(b.m.Sector(1).index + 1)
	b.wall(10.5, 20.25, 230.75, 190.5, sec, sec)
	b.wall(240.2, 15.7, 20.9, 170.3, sec, sec)
	bm := newTestLineBlockmap(b.m, 50)
	for _, line := range b.m.LineDefs() {
		for i := 0; i <= 200; i++ {
			s := float64(i) / 200
			x := line.v[0].Pos[0] + line.DX*s
			y := line.v[0].Pos[1] + line.DY*s
			fx := math.Mod(x-bm.aabb.MinX, bm.blockSize)
			fy := math.Mod(y-bm.aabb.MinY, bm.blockSize)
			// the walk runs on whole units, skip points close to a border
			if fx < 3 || fx > bm.blockSize-3 || fy < 3 || fy > bm.blockSize-3 {
				continue
			}
			cx, cy, ok := bm.Block2f(x, y)
			if !ok {
				t.Fatalf("point (%v, %v) of linedef #%d is outside\n", x, y, line.index)
			}
			held := false
			bm.Iterate(cx, cy, func(other *LineDef) bool {
				held = held || other == line
				return !held
			})
			if !held {
				t.Errorf("linedef #%d is not in cell (%d, %d) that holds (%v, %v)\n",
					line.index, cx, cy, x, y)
				break
			}
		}
	}
}

// BoxIterate works per cell: a line is reported when it shares a cell with
// the box, even if the line itself misses the box
func TestLineDefBoxIterateIsExact(t *testing.T) {
	m := newSquareRoom(t).m
	bm := newTestLineBlockmap(m, 64)
	west := m.LineDef(1)
	collect := func(box AABoxf) map[*LineDef]bool {
		got := make(map[*LineDef]bool)
		bm.BoxIterate(box, func(line *LineDef) bool {
			got[line] = true
			return true
		})
		return got
	}
	// same cell as the west wall, but the box does not reach it
	if got := collect(AABoxf{MinX: 10, MinY: 10, MaxX: 20, MaxY: 20}); len(got) != 0 {
		t.Errorf("box inside the room reported %d lines, want 0\n", len(got))
	}
	got := collect(AABoxf{MinX: -4, MinY: 10, MaxX: 4, MaxY: 20})
	if len(got) != 1 || !got[west] {
		t.Errorf("box across the west wall reported %v, want only the west wall\n", got)
	}
	// touching counts
	got = collect(AABoxf{MinX: 0, MinY: 30, MaxX: 5, MaxY: 34})
	if !got[west] {
		t.Errorf("box touching the west wall did not report it\n")
	}
}

func TestObjectBoxIterateUsesRadius(t *testing.T) {
	m := newPillarRoom(t).build()
	bm := m.MobjBlockmap()
	big := m.SpawnMobj(100, 100, 0, 40, 56, 1)
	small := m.SpawnMobj(20, 20, 0, 8, 56, 1)
	box := AABoxf{MinX: 130, MinY: 130, MaxX: 135, MaxY: 135}
	bx, by, _ := bm.Block2f(100, 100)
	qx, qy, _ := bm.Block2f(130, 130)
	if bx == qx && by == qy {
		t.Fatalf("mobj center and box share a cell\n")
	}
	var got []*Mobj
	bm.BoxIterate(box, func(mo *Mobj) bool {
		got = append(got, mo)
		return true
	})
	if len(got) != 1 || got[0] != big {
		t.Errorf("BoxIterate found %v, want only the mobj whose radius reaches the box\n", got)
	}
	for _, mo := range got {
		if mo == small {
			t.Errorf("mobj away from the box was reported\n")
		}
	}
}

func TestLineDefPathTraverse(t *testing.T) {
	m := newPillarRoom(t).m
	bm := newTestLineBlockmap(m, 64)
	var first *LineDef
	bm.PathTraverse([2]float64{128, 70}, [2]float64{128, 300}, func(l *LineDef) bool {
		if first == nil {
			first = l
		}
		return true
	})
	// the pillar bottom is linked first in the cell of (128, 70)
	if first != m.LineDefs()[4] {
		t.Errorf("first linedef along the path is %v, want the pillar's bottom\n", first)
	}
}

func TestMobjBlockmapLinks(t *testing.T) {
	m := newSquareRoom(t).build()
	bm := m.MobjBlockmap()
	var mobjs []*Mobj
	for i := 0; i < 5; i++ {
		mobjs = append(mobjs, m.SpawnMobj(float64(10+i), 10, 0, 16, 56, 3004))
	}
	if n := bm.NumInBlock(0, 0); n != 5 {
		t.Fatalf("NumInBlock = %d, want 5\n", n)
	}
	if bm.Link(mobjs[0]) {
		t.Errorf("Link of a linked mobj returned true\n")
	}

	// remove from the middle, the others must stay reachable
	if !m.RemoveMobj(mobjs[1]) {
		t.Fatalf("RemoveMobj failed\n")
	}
	if bm.IsLinked(mobjs[1]) {
		t.Errorf("removed mobj is still linked\n")
	}
	left := make(map[*Mobj]bool)
	bm.Iterate(0, 0, func(mo *Mobj) bool {
		left[mo] = true
		return true
	})
	if len(left) != 4 || left[mobjs[1]] {
		t.Errorf("cell holds %d mobjs after removal, want the other 4\n", len(left))
	}
	for _, mo := range m.Mobjs() {
		if m.Mobjs()[mo.index] != mo {
			t.Errorf("mobj index %d out of step\n", mo.index)
		}
	}
	// every remaining mobj can still be unlinked
	for _, mo := range []*Mobj{mobjs[4], mobjs[0], mobjs[3], mobjs[2]} {
		if !bm.Unlink(mo) {
			t.Errorf("Unlink of mobj at %v failed\n", mo.Pos)
		}
	}
	if bm.Len() != 0 || bm.NumInBlock(0, 0) != 0 {
		t.Errorf("blockmap not empty after unlinking everything\n")
	}
}

func TestMobjRelinkAndClamp(t *testing.T) {
	m := newPillarRoom(t).build()
	bm := m.MobjBlockmap()
	mo := m.SpawnMobj(10, 10, 0, 16, 56, 1)
	m.MoveMobj(mo, 200, 200, 0)
	cx, cy, _ := bm.Block2f(200, 200)
	if bm.NumInBlock(cx, cy) != 1 || bm.NumInBlock(0, 0) != 0 {
		t.Errorf("MoveMobj did not move the mobj to its new cell\n")
	}
	// outside of the map goes to the nearest cell
	m.MoveMobj(mo, -5000, 100, 0)
	_, cy, _ = bm.Block2f(0, 100)
	if bm.NumInBlock(0, cy) != 1 {
		t.Errorf("mobj outside of the map not clamped to the edge cell\n")
	}
	n := 0
	bm.BoxIterate(AABoxf{MinX: -6000, MinY: 0, MaxX: 300, MaxY: 200}, func(*Mobj) bool {
		n++
		return true
	})
	if n != 1 {
		t.Errorf("BoxIterate found %d mobjs, want 1\n", n)
	}
	n = 0
	bm.PathTraverse([2]float64{-100, 100}, [2]float64{300, 100}, func(*Mobj) bool {
		n++
		return true
	})
	if n != 1 {
		t.Errorf("PathTraverse found %d mobjs, want 1\n", n)
	}
}

func TestParticleBlockmapEmpty(t *testing.T) {
	m := newPillarRoom(t).build()
	bm := m.ParticleBlockmap()
	for i := 0; i < 10; i++ {
		m.SpawnParticle(float64(i*25), 30, 0)
	}
	if bm.Len() != 10 {
		t.Fatalf("Len = %d, want 10\n", bm.Len())
	}
	kept := m.particles[3]
	m.ClearParticles()
	if bm.Len() != 0 {
		t.Errorf("Len after Empty = %d, want 0\n", bm.Len())
	}
	w, h := bm.Dimensions()
	for cy := 0; cy < h; cy++ {
		for cx := 0; cx < w; cx++ {
			if bm.NumInBlock(cx, cy) != 0 {
				t.Errorf("cell (%d, %d) not empty after Empty\n", cx, cy)
			}
		}
	}
	if !bm.Link(kept) {
		t.Errorf("particle could not be linked again after Empty\n")
	}
}

func TestLumobjBoxIterateByType(t *testing.T) {
	m := newPillarRoom(t).build()
	m.AddLumobj(20, 20, 64, LT_OMNI, 128)
	m.AddLumobj(30, 20, 64, LT_PLANE, 64)
	m.AddLumobj(230, 230, 64, LT_OMNI, 128)
	bm := m.LumobjBlockmap()
	count := func(box AABoxf, typ int) int {
		n := 0
		bm.BoxIterate(box, typ, func(*Lumobj) bool {
			n++
			return true
		})
		return n
	}
	corner := AABoxf{MinX: 0, MinY: 0, MaxX: 40, MaxY: 40}
	if n := count(corner, -1); n != 2 {
		t.Errorf("all types in the corner: %d, want 2\n", n)
	}
	if n := count(corner, LT_PLANE); n != 1 {
		t.Errorf("plane lights in the corner: %d, want 1\n", n)
	}
	if n := count(bm.Bounds(), LT_OMNI); n != 2 {
		t.Errorf("omni lights in the map: %d, want 2\n", n)
	}
	m.ClearLumobjs()
	if n := count(bm.Bounds(), -1); n != 0 {
		t.Errorf("lumobjs left after ClearLumobjs: %d\n", n)
	}
}

func TestSubsectorBlockmap(t *testing.T) {
	b, _ := newTwoRooms(t)
	m := b.build()
	bm := m.SubsectorBlockmap()
	east := m.Sector(2)
	all := 0
	bm.BoxIterate(bm.Bounds(), nil, false, func(*Subsector) bool {
		all++
		return true
	})
	if all != m.NumSubsectors() {
		t.Errorf("box over the map found %d subsectors, want %d\n", all, m.NumSubsectors())
	}
	n := 0
	bm.BoxIterate(bm.Bounds(), east, false, func(ss *Subsector) bool {
		if ss.Sector() != east {
			t.Errorf("sector filter let subsector #%d through\n", ss.index)
		}
		n++
		return true
	})
	if n != 1 {
		t.Errorf("east room has %d subsectors, want 1\n", n)
	}
	// the cell also holds the west room, exact leaves it out
	n = 0
	bm.BoxIterate(AABoxf{MinX: 100, MinY: 10, MaxX: 110, MaxY: 20}, nil, true,
		func(ss *Subsector) bool {
			n++
			if ss.Sector() != east {
				t.Errorf("exact box query returned a west room subsector\n")
			}
			return true
		})
	if n != 1 {
		t.Errorf("exact box query found %d subsectors, want 1\n", n)
	}
}
