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
)

// Blockmaps split the map into square cells so that spatial queries only
// look at the objects near the area of interest. The shared part lives here,
// LineDefBlockmap is in blockmapgen.go, the others in their own files

const (
	MAPBLOCKUNITS = 128 // default cell size, in map units
	BLKMARGIN     = 8   // space around the map bounds
)

// Inclusive range of cells. Empty when Min > Max
type BlockBox struct {
	MinX, MinY int
	MaxX, MaxY int
}

func (b BlockBox) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

type blockmapBase struct {
	aabb      AABoxf
	blockSize float64
	width     int
	height    int
}

// Sets up the grid to enclose bounds plus a margin. A blockSize of 0 or less
// means MAPBLOCKUNITS
// Cells are a whole number of map units wide and start on whole map units,
// so the integer walk in LineDefBlockmap.Link agrees with Block2f
func newBlockmapBase(bounds AABoxf, blockSize float64) blockmapBase {
	if blockSize < 1 {
		blockSize = MAPBLOCKUNITS
	}
	blockSize = math.Floor(blockSize)
	if bounds.IsEmpty() {
		bounds = AABoxf{}
	}
	b := blockmapBase{
		aabb: AABoxf{
			MinX: math.Floor(bounds.MinX) - BLKMARGIN,
			MinY: math.Floor(bounds.MinY) - BLKMARGIN,
			MaxX: bounds.MaxX + BLKMARGIN,
			MaxY: bounds.MaxY + BLKMARGIN,
		},
		blockSize: blockSize,
	}
	b.width = int(math.Ceil(b.aabb.Width() / blockSize))
	b.height = int(math.Ceil(b.aabb.Height() / blockSize))
	if b.width < 1 {
		b.width = 1
	}
	if b.height < 1 {
		b.height = 1
	}
	// whole blocks only
	b.aabb.MaxX = b.aabb.MinX + float64(b.width)*blockSize
	b.aabb.MaxY = b.aabb.MinY + float64(b.height)*blockSize
	return b
}

func (b *blockmapBase) Bounds() AABoxf {
	return b.aabb
}

func (b *blockmapBase) BlockSize() float64 {
	return b.blockSize
}

func (b *blockmapBase) Dimensions() (int, int) {
	return b.width, b.height
}

func (b *blockmapBase) Origin() (float64, float64) {
	return b.aabb.MinX, b.aabb.MinY
}

// Cell containing the point. ok is false outside of [min, max)
func (b *blockmapBase) Block2f(x, y float64) (int, int, bool) {
	if x < b.aabb.MinX || y < b.aabb.MinY || x >= b.aabb.MaxX ||
		y >= b.aabb.MaxY {
		return 0, 0, false
	}
	cx := int((x - b.aabb.MinX) / b.blockSize)
	cy := int((y - b.aabb.MinY) / b.blockSize)
	return clampInt(cx, 0, b.width-1), clampInt(cy, 0, b.height-1), true
}

// Same as Block2f, but points outside are moved to the nearest cell
func (b *blockmapBase) clampedBlock2f(x, y float64) (int, int) {
	cx := int(math.Floor((x - b.aabb.MinX) / b.blockSize))
	cy := int(math.Floor((y - b.aabb.MinY) / b.blockSize))
	return clampInt(cx, 0, b.width-1), clampInt(cy, 0, b.height-1)
}

// Cells covered by box. The high ends may be equal to the dimensions, so
// IterateBox clamps them
func (b *blockmapBase) BoxToBlocks(box AABoxf) BlockBox {
	if box.IsEmpty() || !box.Intersects(b.aabb) {
		return BlockBox{MinX: 0, MinY: 0, MaxX: -1, MaxY: -1}
	}
	minX := math.Max(box.MinX, b.aabb.MinX)
	minY := math.Max(box.MinY, b.aabb.MinY)
	maxX := math.Min(box.MaxX, b.aabb.MaxX)
	maxY := math.Min(box.MaxY, b.aabb.MaxY)
	return BlockBox{
		MinX: clampInt(int((minX-b.aabb.MinX)/b.blockSize), 0, b.width),
		MinY: clampInt(int((minY-b.aabb.MinY)/b.blockSize), 0, b.height),
		MaxX: clampInt(int((maxX-b.aabb.MinX)/b.blockSize), 0, b.width),
		MaxY: clampInt(int((maxY-b.aabb.MinY)/b.blockSize), 0, b.height),
	}
}

// World space box of one cell
func (b *blockmapBase) CellBox(cx, cy int) AABoxf {
	x := b.aabb.MinX + float64(cx)*b.blockSize
	y := b.aabb.MinY + float64(cy)*b.blockSize
	return AABoxf{MinX: x, MinY: y, MaxX: x + b.blockSize, MaxY: y + b.blockSize}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Visits the cells the segment from-to passes through, in order, starting
// with the cell of the first point inside the blockmap and ending with the
// cell the segment ends in. At most width+height cells are visited.
// Returns false if fn stopped the walk
func (b *blockmapBase) walkPath(from, to [2]float64, fn func(cx, cy int) bool) bool {
	a, e, ok := clipSegmentToBox(from, to, b.aabb)
	if !ok {
		return true
	}
	cx, cy := b.clampedBlock2f(a[0], a[1])

	dx := e[0] - a[0]
	dy := e[1] - a[1]

	stepX, stepY := 0, 0
	tMaxX, tMaxY := math.Inf(1), math.Inf(1)
	tDeltaX, tDeltaY := math.Inf(1), math.Inf(1)
	if dx > 0 {
		stepX = 1
		next := b.aabb.MinX + float64(cx+1)*b.blockSize
		tMaxX = (next - a[0]) / dx
		tDeltaX = b.blockSize / dx
	} else if dx < 0 {
		stepX = -1
		next := b.aabb.MinX + float64(cx)*b.blockSize
		tMaxX = (next - a[0]) / dx
		tDeltaX = -b.blockSize / dx
	}
	if dy > 0 {
		stepY = 1
		next := b.aabb.MinY + float64(cy+1)*b.blockSize
		tMaxY = (next - a[1]) / dy
		tDeltaY = b.blockSize / dy
	} else if dy < 0 {
		stepY = -1
		next := b.aabb.MinY + float64(cy)*b.blockSize
		tMaxY = (next - a[1]) / dy
		tDeltaY = -b.blockSize / dy
	}

	maxSteps := b.width + b.height
	for steps := 0; steps <= maxSteps; steps++ {
		if !fn(cx, cy) {
			return false
		}
		// the segment ends before it leaves this cell. The cell of e alone
		// is not enough: an end on a corner belongs to a cell the walk
		// never enters when it comes from above or from the right
		if math.Min(tMaxX, tMaxY) >= 1 {
			break
		}
		if tMaxX < tMaxY {
			cx += stepX
			tMaxX += tDeltaX
		} else {
			cy += stepY
			tMaxY += tDeltaY
		}
		if cx < 0 || cy < 0 || cx >= b.width || cy >= b.height {
			break
		}
	}
	return true
}

// Where an object that occupies a single cell is linked. slot is its
// position in the cell's list, so it can be removed without a search
type blockLink struct {
	linked bool
	cx, cy int
	slot   int
}

// Objects that live in exactly one cell of a blockmap, the cell of their
// position. radius gives the extent of their own box around it
type cellObject interface {
	comparable
	cellLink() *blockLink
	position() (float64, float64)
	radius() float64
}

func (m *Mobj) cellLink() *blockLink             { return &m.link }
func (m *Mobj) position() (float64, float64)     { return m.Pos[0], m.Pos[1] }
func (p *Particle) cellLink() *blockLink         { return &p.link }
func (p *Particle) position() (float64, float64) { return p.Pos[0], p.Pos[1] }
func (l *Lumobj) cellLink() *blockLink           { return &l.link }
func (l *Lumobj) position() (float64, float64)   { return l.Pos[0], l.Pos[1] }
func (m *Mobj) radius() float64                  { return m.Radius }
func (p *Particle) radius() float64              { return 0 }
func (l *Lumobj) radius() float64                { return l.Radius }

func objectBox[T cellObject](obj T) AABoxf {
	x, y := obj.position()
	r := obj.radius()
	return AABoxf{MinX: x - r, MinY: y - r, MaxX: x + r, MaxY: y + r}
}

// Shared implementation of the mobj, particle and lumobj blockmaps
type objectBlockmap[T cellObject] struct {
	blockmapBase
	grid      *Gridmap[[]T]
	count     int
	maxRadius float64 // largest radius linked since the last empty
}

func newObjectBlockmap[T cellObject](bounds AABoxf, blockSize float64) objectBlockmap[T] {
	base := newBlockmapBase(bounds, blockSize)
	return objectBlockmap[T]{
		blockmapBase: base,
		grid:         NewGridmap[[]T](base.width, base.height),
	}
}

// Objects outside of the blockmap go to the nearest cell. Returns false if
// obj was linked already
func (bm *objectBlockmap[T]) link(obj T) bool {
	l := obj.cellLink()
	if l.linked {
		return false
	}
	x, y := obj.position()
	cx, cy := bm.clampedBlock2f(x, y)
	cell := bm.grid.Cell(cx, cy)
	*l = blockLink{
		linked: true,
		cx:     cx,
		cy:     cy,
		slot:   len(*cell),
	}
	*cell = append(*cell, obj)
	bm.count++
	bm.maxRadius = math.Max(bm.maxRadius, obj.radius())
	return true
}

// Swaps the last object of the cell into obj's slot
func (bm *objectBlockmap[T]) unlink(obj T) bool {
	l := obj.cellLink()
	if !l.linked {
		return false
	}
	cell := bm.grid.Cell(l.cx, l.cy)
	if cell == nil || l.slot >= len(*cell) || (*cell)[l.slot] != obj {
		Log.Panic("Blockmap link of object is stale (cell %d,%d slot %d)\n",
			l.cx, l.cy, l.slot)
	}
	last := len(*cell) - 1
	if l.slot != last {
		moved := (*cell)[last]
		(*cell)[l.slot] = moved
		moved.cellLink().slot = l.slot
	}
	var zero T
	(*cell)[last] = zero
	*cell = (*cell)[:last]
	*l = blockLink{}
	bm.count--
	return true
}

// Unlinks everything. Cell storage is kept for the next fill
func (bm *objectBlockmap[T]) empty() {
	var zero T
	for i := range bm.grid.cells {
		cell := bm.grid.cells[i]
		for j, obj := range cell {
			*obj.cellLink() = blockLink{}
			cell[j] = zero
		}
		bm.grid.cells[i] = cell[:0]
	}
	bm.count = 0
	bm.maxRadius = 0
}

func (bm *objectBlockmap[T]) numInBlock(cx, cy int) int {
	cell := bm.grid.Cell(cx, cy)
	if cell == nil {
		return 0
	}
	return len(*cell)
}

// fn may not link or unlink objects of this cell
func (bm *objectBlockmap[T]) iterate(cx, cy int, fn func(T) bool) bool {
	cell := bm.grid.Cell(cx, cy)
	if cell == nil {
		return true
	}
	for _, obj := range *cell {
		if !fn(obj) {
			return false
		}
	}
	return true
}

// Calls fn for each object whose own box intersects box. Objects are found
// by the cell of their position, so the cells searched reach maxRadius past
// box. Clamping the search to the edge cells finds objects outside the map
func (bm *objectBlockmap[T]) boxIterate(box AABoxf, fn func(T) bool) bool {
	if box.IsEmpty() {
		return true
	}
	r := bm.maxRadius
	x1, y1 := bm.clampedBlock2f(box.MinX-r, box.MinY-r)
	x2, y2 := bm.clampedBlock2f(box.MaxX+r, box.MaxY+r)
	return bm.grid.IterateBox(x1, x2, y1, y2,
		func(_, _ int, cell *[]T) bool {
			for _, obj := range *cell {
				if !objectBox(obj).Intersects(box) {
					continue
				}
				if !fn(obj) {
					return false
				}
			}
			return true
		})
}

func (bm *objectBlockmap[T]) Len() int {
	return bm.count
}
