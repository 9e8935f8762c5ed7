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
	"math"
	"time"
)

// LineDefBlockmap: which linedefs cross each cell. The linking walk is the
// one classic DOOM blockmap builders use, done in integer map units so that
// a line lands in exactly the cells the game expects

type LineDefBlockmap struct {
	blockmapBase
	grid       *Gridmap[[]*LineDef]
	validCount *ValidCounter
	numLinks   int
}

// What the generator goroutine gets to work with
type BlockmapInput struct {
	lines      []*LineDef
	bounds     AABoxf
	blockSize  float64
	validCount *ValidCounter
}

func NewLineDefBlockmap(bounds AABoxf, blockSize float64, vc *ValidCounter) *LineDefBlockmap {
	base := newBlockmapBase(bounds, blockSize)
	if vc == nil {
		vc = &ValidCounter{}
	}
	return &LineDefBlockmap{
		blockmapBase: base,
		grid:         NewGridmap[[]*LineDef](base.width, base.height),
		validCount:   vc,
	}
}

// This is goroutine used to produce the linedef blockmap and give it back
// to the thing that run it. It only reads linedefs and vertices, so it can
// run while the nodes are being built
func LineDefBlockmapGenerator(input BlockmapInput, where chan<- *LineDefBlockmap) {
	start := time.Now()
	bm := CreateLineDefBlockmap(input)
	StatBlockmap(bm)
	Log.Verbose(1, "Blockmap took %s\n", time.Since(start))
	where <- bm
}

// Polyobj lines are left out, they move
func CreateLineDefBlockmap(input BlockmapInput) *LineDefBlockmap {
	bm := NewLineDefBlockmap(input.bounds, input.blockSize, input.validCount)
	for _, line := range input.lines {
		if line.IsPolyobjLine() {
			continue
		}
		bm.Link(line)
	}
	return bm
}

func StatBlockmap(bm *LineDefBlockmap) {
	largest := 0
	empty := 0
	for i := range bm.grid.cells {
		n := len(bm.grid.cells[i])
		if n > largest {
			largest = n
		}
		if n == 0 {
			empty++
		}
	}
	Log.Verbose(1, "Blockmap: %dx%d cells, %d links, %d empty cells, largest cell has %d linedefs\n",
		bm.width, bm.height, bm.numLinks, empty, largest)
}

// Adds line to a cell unless it is there already. Cells out of range are
// ignored
func (bm *LineDefBlockmap) tryLink(cx, cy int, line *LineDef) {
	cell := bm.grid.Cell(cx, cy)
	if cell == nil {
		return
	}
	for _, other := range *cell {
		if other == line {
			return
		}
	}
	*cell = append(*cell, line)
	bm.numLinks++
}

// Links line into every cell it crosses
func (bm *LineDefBlockmap) Link(line *LineDef) {
	originX := int(math.Floor(bm.aabb.MinX))
	originY := int(math.Floor(bm.aabb.MinY))
	bs := int(bm.blockSize)
	dimX := bm.width
	dimY := bm.height

	v1x, v1y := int(math.Floor(line.v[0].Pos[0])), int(math.Floor(line.v[0].Pos[1]))
	v2x, v2y := int(math.Floor(line.v[1].Pos[0])), int(math.Floor(line.v[1].Pos[1]))

	blX, blY := minInt(v1x, v2x), minInt(v1y, v2y)
	trX, trY := maxInt(v1x, v2x), maxInt(v1y, v2y)

	bb := bm.BoxToBlocks(AABoxf{MinX: float64(blX), MinY: float64(blY),
		MaxX: float64(trX), MaxY: float64(trY)})

	dx := v2x - v1x
	dy := v2y - v1y
	vert := dx == 0
	horiz := dy == 0
	slopePos := (dx ^ dy) > 0
	slopeNeg := (dx ^ dy) < 0

	// the cells of the endpoints
	c1x, c1y := floorDiv(v1x-originX, bs), floorDiv(v1y-originY, bs)
	c2x, c2y := floorDiv(v2x-originX, bs), floorDiv(v2y-originY, bs)
	bm.tryLink(c1x, c1y, line)
	if c1x != c2x || c1y != c2y {
		bm.tryLink(c2x, c2y, line)
	}

	// for each column, see where the line along its left edge, which
	// it contains, intersects the linedef i.e. where x is on the grid
	if !vert {
		for i := bb.MinX; i <= bb.MaxX; i++ {
			// intersection of linedef with x=originX+i*bs
			x := originX + i*bs
			if x < blX || x > trX {
				continue
			}
			y := dy*(x-v1x)/dx + v1y
			yb := floorDiv(y-originY, bs)
			if yb < 0 || yb > dimY+1 {
				continue
			}
			bm.tryLink(i, yb, line)

			// if the linedef passes through a grid corner it also
			// touches the cells around it
			yp := (y - originY) - yb*bs
			if yp == 0 {
				if slopeNeg {
					if yb > 0 && blY < y {
						bm.tryLink(i, yb-1, line)
					}
					if i > 0 && blX < x {
						bm.tryLink(i-1, yb, line)
					}
				} else if slopePos {
					if yb > 0 && i > 0 && blX < x {
						bm.tryLink(i-1, yb-1, line)
					}
				} else if horiz {
					if i > 0 && blX < x {
						bm.tryLink(i-1, yb, line)
					}
				}
			} else if i > 0 && blX < x {
				// else not at corner: x+, x-
				bm.tryLink(i-1, yb, line)
			}
		}
	}

	// for each row, see where the line along its bottom edge, which
	// it contains, intersects the linedef i.e. where y is on the grid
	if !horiz {
		for i := bb.MinY; i <= bb.MaxY; i++ {
			// intersection of linedef with y=originY+i*bs
			y := originY + i*bs
			if y < blY || y > trY {
				continue
			}
			x := dx*(y-v1y)/dy + v1x
			xb := floorDiv(x-originX, bs)
			if xb < 0 || xb > dimX+1 {
				continue
			}
			bm.tryLink(xb, i, line)

			xp := (x - originX) - xb*bs
			if xp == 0 {
				if slopeNeg {
					if i > 0 && blY < y {
						bm.tryLink(xb, i-1, line)
					}
					if xb > 0 && blX < x {
						bm.tryLink(xb-1, i, line)
					}
				} else if vert {
					if i > 0 && blY < y {
						bm.tryLink(xb, i-1, line)
					}
				} else if slopePos {
					if xb > 0 && i > 0 && blY < y {
						bm.tryLink(xb-1, i-1, line)
					}
				}
			} else if i > 0 && blY < y {
				// else not on corner: y+, y-
				bm.tryLink(xb, i-1, line)
			}
		}
	}
}

// Rounds towards negative infinity, the way an arithmetic shift does
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Removes line from every cell. Returns false if it was in none
func (bm *LineDefBlockmap) Unlink(line *LineDef) bool {
	found := false
	for i := range bm.grid.cells {
		cell := bm.grid.cells[i]
		for j, other := range cell {
			if other != line {
				continue
			}
			copy(cell[j:], cell[j+1:])
			cell[len(cell)-1] = nil
			bm.grid.cells[i] = cell[:len(cell)-1]
			bm.numLinks--
			found = true
			break
		}
	}
	return found
}

func (bm *LineDefBlockmap) NumInBlock(cx, cy int) int {
	cell := bm.grid.Cell(cx, cy)
	if cell == nil {
		return 0
	}
	return len(*cell)
}

func (bm *LineDefBlockmap) iterateCell(cx, cy, stamp int, fn func(*LineDef) bool) bool {
	cell := bm.grid.Cell(cx, cy)
	if cell == nil {
		return true
	}
	for _, line := range *cell {
		if line.validCount == stamp {
			continue
		}
		line.validCount = stamp
		if !fn(line) {
			return false
		}
	}
	return true
}

// Calls fn for the linedefs of one cell. fn returns false to stop, which
// makes Iterate return false as well
func (bm *LineDefBlockmap) Iterate(cx, cy int, fn func(*LineDef) bool) bool {
	return bm.iterateCell(cx, cy, bm.validCount.Next(), fn)
}

// Calls fn once for each linedef that crosses or touches box. A line is
// linked into every cell it passes through, so the cells of box hold all of
// them; lines that only share a cell with box are skipped
func (bm *LineDefBlockmap) BoxIterate(box AABoxf, fn func(*LineDef) bool) bool {
	bb := bm.BoxToBlocks(box)
	if bb.IsEmpty() {
		return true
	}
	stamp := bm.validCount.Next()
	inBox := func(line *LineDef) bool {
		if !line.BBox.Intersects(box) {
			return true
		}
		if _, _, ok := clipSegmentToBox(line.v[0].Pos, line.v[1].Pos, box); !ok {
			return true
		}
		return fn(line)
	}
	return bm.grid.IterateBox(bb.MinX, bb.MaxX, bb.MinY, bb.MaxY,
		func(x, y int, _ *[]*LineDef) bool {
			return bm.iterateCell(x, y, stamp, inBox)
		})
}

// Calls fn once for each linedef linked into the cells the path from-to
// passes through, nearest cells first
func (bm *LineDefBlockmap) PathTraverse(from, to [2]float64, fn func(*LineDef) bool) bool {
	stamp := bm.validCount.Next()
	return bm.walkPath(from, to, func(cx, cy int) bool {
		return bm.iterateCell(cx, cy, stamp, fn)
	})
}
