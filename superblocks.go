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
)

// The grand nodebuilding speed-up technique from AJ-BSP by Andrew Apted:
// superblocks.

// smallest distance between two points before being considered equal
const DIST_EPSILON float64 = 1.0 / 128.0

// smallest degrees between two angles before being considered equal
const ANG_EPSILON float64 = 1.0 / 1024.0

const IFFY_LEN = 4.0

const MARGIN_LEN = 6 // MUST EQUAL int(IFFY_LEN * 1.5)

const SUPERBLOCK_LEAF_SIZE = 256

type Superblock struct {
	// parent of this block, or nil for a top-level block
	parent *Superblock
	// coordinates on map for this block, from lower-left corner to
	// upper-right corner.  Pseudo-inclusive, i.e (x,y) is inside block
	// if and only if x1 <= x < x2 and y1 <= y < y2.
	x1, y1 int
	x2, y2 int
	// sub-blocks. Nil when empty. [0] has the lower coordinates, and
	// [1] has the higher coordinates. Division of a square always
	// occurs horizontally (e.g. 512x512 -> 256x512 -> 256x256).
	// While the block sits in the pool, subs[0] links to the next free one
	subs [2]*Superblock
	// number of real and mini half-edges contained by this block
	// (including all sub-blocks below it)
	realNum int
	miniNum int
	// list of half-edges _directly_ contained by this block. Doesn't include
	// those contained in subblocks.
	hEdges *HEdge
	nwlink *NodesWork
}

// SuperIsLeaf() == true defines when superblock is no longer divisible into
// subblocks
func (s *Superblock) SuperIsLeaf() bool {
	return (s.x2-s.x1) <= SUPERBLOCK_LEAF_SIZE &&
		(s.y2-s.y1) <= SUPERBLOCK_LEAF_SIZE
}

func (s *Superblock) TotalHEdges() int {
	return s.realNum + s.miniNum
}

// Counts one more half-edge in this block and every ancestor
func (s *Superblock) IncHEdgeCounts(isReal bool) {
	for block := s; block != nil; block = block.parent {
		if isReal {
			block.realNum++
		} else {
			block.miniNum++
		}
	}
}

// Takes the first directly held half-edge off the list. Counts are left
// alone: the block is being emptied
func (s *Superblock) PopHEdge() *HEdge {
	e := s.hEdges
	if e == nil {
		return nil
	}
	s.hEdges = e.nextInBlock
	e.nextInBlock = nil
	e.block = nil
	return e
}

// Adds a half-edge to the block tree, counting it at every level it passes
// and creating sub-blocks on demand
func (s *Superblock) AddHEdgeToSuper(e *HEdge) {
	if e == nil {
		return
	}
	block := s
	for {
		var p1, p2 bool
		var child int
		xMid := (block.x1 + block.x2) >> 1
		yMid := (block.y1 + block.y2) >> 1
		if block.SuperIsLeaf() {
			// block is not allowed to be subdivised any further
			block.LinkHEdge(e)
			return
		}
		if block.x2-block.x1 >= block.y2-block.y1 {
			// block is wider than it is high, or square

			p1 = e.pSX >= float64(xMid)
			p2 = e.pEX >= float64(xMid)
		} else {
			// block is higher than it is wide

			p1 = e.pSY >= float64(yMid)
			p2 = e.pEY >= float64(yMid)
		}

		if p1 && p2 {
			child = 1
		} else if !p1 && !p2 {
			child = 0
		} else {
			// line crosses midpoint -- link it in and return
			block.LinkHEdge(e)
			return
		}

		// passing through, so count it here
		if e.lineDef != nil {
			block.realNum++
		} else {
			block.miniNum++
		}

		// OK, the half-edge lies in one half of this block.  Create the
		// block if it doesn't already exist, and loop back to add it.

		if block.subs[child] == nil {
			sub := s.nwlink.getNewSuperblock()
			block.subs[child] = sub
			sub.parent = block

			if block.x2-block.x1 >= block.y2-block.y1 {
				if child == 1 {
					sub.x1 = xMid
				} else {
					sub.x1 = block.x1
				}
				sub.y1 = block.y1

				if child == 1 {
					sub.x2 = block.x2
				} else {
					sub.x2 = xMid
				}
				sub.y2 = block.y2
			} else {
				sub.x1 = block.x1
				if child == 1 {
					sub.y1 = yMid
				} else {
					sub.y1 = block.y1
				}

				sub.x2 = block.x2
				if child == 1 {
					sub.y2 = block.y2
				} else {
					sub.y2 = yMid
				}
			}
		}
		block = block.subs[child]
	}
}

// Pushes e onto the block's own list and counts it in this block only
func (s *Superblock) LinkHEdge(e *HEdge) {
	s.pushDirect(e)
	if e.lineDef != nil {
		s.realNum++
	} else {
		s.miniNum++
	}
}

// list insertion without touching counts (IncHEdgeCounts did that already)
func (s *Superblock) pushDirect(e *HEdge) {
	e.nextInBlock = s.hEdges
	e.block = s
	s.hEdges = e
}

// Calls fn for every half-edge in the block tree
func (s *Superblock) ForEachHEdge(fn func(e *HEdge)) {
	for e := s.hEdges; e != nil; e = e.nextInBlock {
		fn(e)
	}
	for num := 0; num < 2; num++ {
		if s.subs[num] != nil {
			s.subs[num].ForEachHEdge(fn)
		}
	}
}

// Bounding box of every half-edge in the block tree
func FindLimits(block *Superblock) AABoxf {
	box := EmptyAABoxf()
	block.ForEachHEdge(func(e *HEdge) {
		box.AddPoint(e.pSX, e.pSY)
		box.AddPoint(e.pEX, e.pEY)
	})
	return box
}

// rounds the value _up_ to the nearest power of two.
func RoundPOW2(x int) int {
	if x <= 2 {
		return x
	}

	x--

	for tmp := x >> 1; tmp != 0; tmp >>= 1 {
		x |= tmp
	}

	return x + 1
}

// Sets the root block to cover box, with the origin snapped down to a
// multiple of 8 and the sides a power of two number of 128-unit blocks
func (s *Superblock) SetBounds(box AABoxf) {
	minX := int(math.Floor(box.MinX))
	minY := int(math.Floor(box.MinY))
	maxX := int(math.Ceil(box.MaxX))
	maxY := int(math.Ceil(box.MaxY))

	s.x1 = minX - (minX & 7)
	s.y1 = minY - (minY & 7)
	bw := (maxX-s.x1)/BLOCK_WIDTH + 1
	bh := (maxY-s.y1)/BLOCK_WIDTH + 1

	s.x2 = s.x1 + BLOCK_WIDTH*RoundPOW2(bw)
	s.y2 = s.y1 + BLOCK_WIDTH*RoundPOW2(bh)
}

// Returns -1 for left, +1 for right, or 0 for intersect.
func PointOnLineSide(part *BspPartition, x, y float64) int {
	perp := part.PerpDist(x, y)
	if perp < 0 {
		if -perp <= DIST_EPSILON {
			return 0
		}
		return -1
	}
	if perp <= DIST_EPSILON {
		return 0
	}
	return +1
}

// Which side of partition line is the superblock?
// Returns -1 for left, +1 for right, or 0 for intersect.
func BoxOnLineSide(box *Superblock, part *BspPartition) int {
	x1 := float64(box.x1 - MARGIN_LEN)
	y1 := float64(box.y1 - MARGIN_LEN)
	x2 := float64(box.x2 + MARGIN_LEN)
	y2 := float64(box.y2 + MARGIN_LEN)

	var p1, p2 int

	// handle simple cases (vertical & horizontal lines)
	if part.pDX == 0 {
		if x1 > part.pSX {
			p1 = +1
		} else {
			p1 = -1
		}
		if x2 > part.pSX {
			p2 = +1
		} else {
			p2 = -1
		}
		if part.pDY < 0 {
			p1 = -p1
			p2 = -p2
		}
	} else if part.pDY == 0 {
		if y1 < part.pSY {
			p1 = +1
		} else {
			p1 = -1
		}
		if y2 < part.pSY {
			p2 = +1
		} else {
			p2 = -1
		}

		if part.pDX < 0 {
			p1 = -p1
			p2 = -p2
		}
	} else if part.pDX*part.pDY > 0 { // now handle the cases of positive and negative slope
		p1 = PointOnLineSide(part, x1, y2)
		p2 = PointOnLineSide(part, x2, y1)
	} else { // NEGATIVE
		p1 = PointOnLineSide(part, x1, y1)
		p2 = PointOnLineSide(part, x2, y2)
	}

	if p1 == p2 {
		return p1
	}
	return 0
}

// Takes a superblock from the per-build pool, or allocates a new one
func (w *NodesWork) getNewSuperblock() *Superblock {
	if w.qallocSupers == nil {
		return &Superblock{nwlink: w}
	}
	ret := w.qallocSupers
	w.qallocSupers = w.qallocSupers.subs[0]
	ret.subs[0] = nil
	ret.nwlink = w
	return ret
}

// Returns the block and all its children to the pool
func (w *NodesWork) returnSuperblockToPool(block *Superblock) {
	for num := 0; num < 2; num++ {
		if block.subs[num] == nil {
			continue
		}
		w.returnSuperblockToPool(block.subs[num])
		block.subs[num] = nil
	}
	*block = Superblock{}
	block.subs[0] = w.qallocSupers
	w.qallocSupers = block
}

// Fresh block with the same coordinates as template and no contents
func (w *NodesWork) newSuperblockLike(template *Superblock) *Superblock {
	ret := w.getNewSuperblock()
	ret.x1, ret.y1 = template.x1, template.y1
	ret.x2, ret.y2 = template.x2, template.y2
	return ret
}
