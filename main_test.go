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
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// quiet defaults, whatever the command line flags would have been
	config = DefaultConfig()
	os.Exit(m.Run())
}

// Builds small maps through the editing API. Vertices at the same position
// are shared
type testMapBuilder struct {
	t     *testing.T
	m     *GameMap
	verts map[[2]float64]uint32
}

func newTestMapBuilder(t *testing.T, name string) *testMapBuilder {
	return &testMapBuilder{
		t:     t,
		m:     NewGameMap(name),
		verts: make(map[[2]float64]uint32),
	}
}

func (b *testMapBuilder) sector(floor, ceiling float64) uint32 {
	return b.sectorWith(floor, ceiling, "FLOOR4_8", "CEIL3_5")
}

func (b *testMapBuilder) sectorWith(floor, ceiling float64, floorMat,
	ceilingMat string) uint32 {
	id := b.m.CreateSector(0.5, 1, 1, 1)
	if id == 0 {
		b.t.Fatalf("CreateSector failed\n")
	}
	if b.m.CreatePlane(id, floor, floorMat, 0, 0, 1, 1, 1, 1, 0, 0, 1) == 0 ||
		b.m.CreatePlane(id, ceiling, ceilingMat, 0, 0, 1, 1, 1, 1, 0, 0, -1) == 0 {
		b.t.Fatalf("CreatePlane failed\n")
	}
	return id
}

func (b *testMapBuilder) vertex(x, y float64) uint32 {
	key := [2]float64{x, y}
	if id, ok := b.verts[key]; ok {
		return id
	}
	id := b.m.CreateVertex(x, y)
	if id == 0 {
		b.t.Fatalf("CreateVertex(%v, %v) failed\n", x, y)
	}
	b.verts[key] = id
	return id
}

func (b *testMapBuilder) side(sector uint32, middle string) uint32 {
	id := b.m.CreateSideDef(sector, 0, DefaultSurfaceInfo("STARTAN2"),
		DefaultSurfaceInfo(middle), DefaultSurfaceInfo("STARTAN2"))
	if id == 0 {
		b.t.Fatalf("CreateSideDef(%d) failed\n", sector)
	}
	return id
}

// One-sided walls get a solid middle texture, two-sided ones none
func (b *testMapBuilder) wall(x1, y1, x2, y2 float64, front, back uint32) uint32 {
	var frontSide, backSide uint32
	if back == 0 {
		frontSide = b.side(front, "STARTAN2")
	} else {
		frontSide = b.side(front, "-")
		backSide = b.side(back, "-")
	}
	id := b.m.CreateLineDef(b.vertex(x1, y1), b.vertex(x2, y2), frontSide,
		backSide, 0)
	if id == 0 {
		b.t.Fatalf("CreateLineDef (%v,%v)-(%v,%v) failed\n", x1, y1, x2, y2)
	}
	return id
}

// Closed loop of one-sided walls facing right
func (b *testMapBuilder) loop(sector uint32, pts ...[2]float64) []uint32 {
	var ids []uint32
	for i := range pts {
		a := pts[i]
		c := pts[(i+1)%len(pts)]
		ids = append(ids, b.wall(a[0], a[1], c[0], c[1], sector, 0))
	}
	return ids
}

func (b *testMapBuilder) build() *GameMap {
	if err := b.m.BuildBSP(); err != nil {
		b.t.Fatalf("BuildBSP failed: %s\n", err)
	}
	return b.m
}

// 64x64 room, clockwise
func newSquareRoom(t *testing.T) *testMapBuilder {
	b := newTestMapBuilder(t, "SQUARE")
	sec := b.sector(0, 128)
	b.loop(sec, [2]float64{0, 0}, [2]float64{0, 64}, [2]float64{64, 64},
		[2]float64{64, 0})
	return b
}

// Two 64x64 rooms sharing the wall at x = 64. Returns the shared wall's id
func newTwoRooms(t *testing.T) (*testMapBuilder, uint32) {
	b := newTestMapBuilder(t, "TWOROOMS")
	west := b.sector(0, 128)
	east := b.sector(0, 128)
	b.wall(0, 0, 0, 64, west, 0)
	b.wall(0, 64, 64, 64, west, 0)
	shared := b.wall(64, 64, 64, 0, west, east)
	b.wall(64, 0, 0, 0, west, 0)
	b.wall(64, 64, 128, 64, east, 0)
	b.wall(128, 64, 128, 0, east, 0)
	b.wall(128, 0, 64, 0, east, 0)
	return b, shared
}

// 256x256 room with a 64x64 pillar in the middle
func newPillarRoom(t *testing.T) *testMapBuilder {
	b := newTestMapBuilder(t, "PILLAR")
	sec := b.sector(0, 128)
	b.loop(sec, [2]float64{0, 0}, [2]float64{0, 256}, [2]float64{256, 256},
		[2]float64{256, 0})
	// counter-clockwise, so the room is on the right
	b.loop(sec, [2]float64{96, 96}, [2]float64{160, 96}, [2]float64{160, 160},
		[2]float64{96, 160})
	return b
}
