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

	"github.com/go-gl/mathgl/mgl64"
)

// To be able to divide the nodes down, this routine must decide which is the
// best half-edge to use as a nodeline. Credit to Raphael Quinet and DEU for
// the original implementation, Lee Killough for the pruning idea and
// AJ-BSP by Andrew Apted for superblocks, minisegs and the costs below.

// Direct cost value attributed to a split - default value, can be
// reconfigured
const PICKNODE_FACTOR = 7

const INITIAL_BIG_COST = 2147483647 // 32-bit signed positive max for compatibility with 32-bit executable

// Cost multipliers. The near miss and split ones are scaled by the factor
const (
	NEAR_MISS_RIGHT_MULTIPLY = 100
	NEAR_MISS_LEFT_MULTIPLY  = 70
	SPLIT_MULTIPLY           = 100
	IFFY_SPLIT_MULTIPLY      = 140
	REAL_IMBALANCE_MULTIPLY  = 100
	MINI_IMBALANCE_MULTIPLY  = 50
)

// Direct cost value attributed to a partition because it is not axis-aligned
const DIAGONAL_PENALTY = 25

// Partition line candidate. Always runs along the whole linedef, from
// v[side] to v[side^1], so that pieces of a split line produce exactly the
// same partition
type BspPartition struct {
	pSX, pSY     float64
	pDX, pDY     float64
	pLength      float64
	pPerp, pPara float64
	lineDef      *LineDef
	side         int
}

func NewPartitionFromLine(line *LineDef, side int) *BspPartition {
	from := line.v[side]
	to := line.v[side^1]
	part := &BspPartition{
		pSX:     from.Pos[0],
		pSY:     from.Pos[1],
		pDX:     to.Pos[0] - from.Pos[0],
		pDY:     to.Pos[1] - from.Pos[1],
		lineDef: line,
		side:    side,
	}
	part.pLength = mgl64.Vec2{part.pDX, part.pDY}.Len()
	part.pPerp = part.pSY*part.pDX - part.pSX*part.pDY
	part.pPara = -part.pSX*part.pDX - part.pSY*part.pDY
	return part
}

func (p *BspPartition) PerpDist(x, y float64) float64 {
	return (x*p.pDY - y*p.pDX + p.pPerp) / p.pLength
}

func (p *BspPartition) ParallelDist(x, y float64) float64 {
	return (x*p.pDX + y*p.pDY + p.pPara) / p.pLength
}

func (p *BspPartition) DivLine() DivLine {
	return DivLine{X: p.pSX, Y: p.pSY, DX: p.pDX, DY: p.pDY}
}

func (p *BspPartition) IsAxisAligned() bool {
	return p.pDX == 0 || p.pDY == 0
}

// Perpendicular distances of both ends of e from the partition line. A
// half-edge lying along the partition's own linedef is taken as exactly
// collinear
func (p *BspPartition) distances(e *HEdge) (float64, float64) {
	if e.sourceLine != nil && e.sourceLine == p.lineDef {
		return 0, 0
	}
	return p.PerpDist(e.pSX, e.pSY), p.PerpDist(e.pEX, e.pEY)
}

type evalInfo struct {
	cost      int
	splits    int
	iffy      int
	nearMiss  int
	realLeft  int
	realRight int
	miniLeft  int
	miniRight int
}

func (info *evalInfo) addLeft(e *HEdge) {
	if e.lineDef != nil {
		info.realLeft++
	} else {
		info.miniLeft++
	}
}

func (info *evalInfo) addRight(e *HEdge) {
	if e.lineDef != nil {
		info.realRight++
	} else {
		info.miniRight++
	}
}

// If returns true, the partition must be skipped, because its cost already
// exceeds bestCost
func (w *NodesWork) evalPartitionWorker(block *Superblock, part *BspPartition,
	bestCost int, info *evalInfo) bool {

	// -AJA- this is the heart of my superblock idea, it tests the
	//       _whole_ block against the partition line to quickly handle
	//       all the segs within it at once.  Only when the partition
	//       line intercepts the box do we need to go deeper into it.
	num := BoxOnLineSide(block, part)
	if num < 0 {
		// LEFT
		info.realLeft += block.realNum
		info.miniLeft += block.miniNum
		return false
	} else if num > 0 {
		// RIGHT
		info.realRight += block.realNum
		info.miniRight += block.miniNum
		return false
	}

	factor := float64(w.factor)
	for check := block.hEdges; check != nil; check = check.nextInBlock {
		// This is the heart of my pruning idea - it catches
		// bad segs early on. Killough
		if info.cost > bestCost {
			return true
		}

		a, b := part.distances(check)
		fa := math.Abs(a)
		fb := math.Abs(b)

		// check for being on the same line
		if fa <= DIST_EPSILON && fb <= DIST_EPSILON {
			// this half-edge runs along the same line as the partition.
			// Check whether it goes in the same direction or the opposite.
			if check.pDX*part.pDX+check.pDY*part.pDY < 0 {
				info.addLeft(check)
			} else {
				info.addRight(check)
			}
			continue
		}

		// check for right side
		if a > -DIST_EPSILON && b > -DIST_EPSILON {
			info.addRight(check)

			// check for a near miss
			if (a >= IFFY_LEN && b >= IFFY_LEN) ||
				(a <= DIST_EPSILON && b >= IFFY_LEN) ||
				(b <= DIST_EPSILON && a >= IFFY_LEN) {
				continue
			}

			info.nearMiss++

			// -AJA- near misses are bad, since they have the potential to
			//       cause really short minisegs to be created in future
			//       processing.  Thus the closer the near miss, the higher
			//       the cost.
			var qnty float64
			if a <= DIST_EPSILON || b <= DIST_EPSILON {
				qnty = IFFY_LEN / math.Max(a, b)
			} else {
				qnty = IFFY_LEN / math.Min(a, b)
			}
			info.cost += int(NEAR_MISS_RIGHT_MULTIPLY * factor * (qnty*qnty - 1.0))
			continue
		}

		// check for left side
		if a < DIST_EPSILON && b < DIST_EPSILON {
			info.addLeft(check)

			// check for a near miss
			if (a <= -IFFY_LEN && b <= -IFFY_LEN) ||
				(a >= -DIST_EPSILON && b <= -IFFY_LEN) ||
				(b >= -DIST_EPSILON && a <= -IFFY_LEN) {
				continue
			}

			info.nearMiss++

			var qnty float64
			if a >= -DIST_EPSILON || b >= -DIST_EPSILON {
				qnty = IFFY_LEN / -math.Min(a, b)
			} else {
				qnty = IFFY_LEN / -math.Max(a, b)
			}
			info.cost += int(NEAR_MISS_LEFT_MULTIPLY * factor * (qnty*qnty - 1.0))
			continue
		}

		// When we reach here, we have a and b non-zero and opposite sign,
		// hence this half-edge will be split by the partition line.
		info.splits++
		info.cost += int(SPLIT_MULTIPLY * factor)

		// -AJA- check if the split point is very close to one end, which
		//       is quite an undesirable situation (producing really short
		//       segs).  This is perhaps _one_ source of those darn slime
		//       trails.  Hence the name "IFFY segs", and a rather hefty
		//       surcharge :->.
		if fa < IFFY_LEN || fb < IFFY_LEN {
			info.iffy++

			// the closer to the end, the higher the cost
			qnty := IFFY_LEN / math.Min(fa, fb)
			info.cost += int(IFFY_SPLIT_MULTIPLY * factor * (qnty*qnty - 1.0))
		}

		info.addLeft(check)
		info.addRight(check)
	}

	// handle sub-blocks recursively

	for num := 0; num < 2; num++ {
		if block.subs[num] == nil {
			continue
		}

		if w.evalPartitionWorker(block.subs[num], part, bestCost, info) {
			return true
		}
	}

	// no "bad seg" was found
	return false
}

// Returns the cost of splitting the block tree with part, or -1 if the
// partition is unusable or already costs more than bestCost
func (w *NodesWork) evalPartition(block *Superblock, part *BspPartition,
	bestCost int) int {
	var info evalInfo

	if w.evalPartitionWorker(block, part, bestCost, &info) {
		return -1
	}

	// make sure there is at least one real half-edge on each side
	if info.realLeft == 0 || info.realRight == 0 {
		return -1
	}

	// increase cost by the difference between left & right
	info.cost += REAL_IMBALANCE_MULTIPLY * absInt(info.realLeft-info.realRight)

	// -AJA- allow miniseg counts to affect the outcome, but to a
	//       lesser degree than real segs.
	info.cost += MINI_IMBALANCE_MULTIPLY * absInt(info.miniLeft-info.miniRight)

	// -AJA- Another little twist, here we show a slight preference for
	//       partition lines that lie either purely horizontally or
	//       purely vertically.
	if !part.IsAxisAligned() {
		info.cost += DIAGONAL_PENALTY
	}

	return info.cost
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Finds the best partition for the block tree. Returns nil when no
// half-edge makes an acceptable partition, meaning the block is a leaf.
// Each linedef is tried only once per call
func (w *NodesWork) pickHEdge(block *Superblock) (*HEdge, *BspPartition) {
	var best *HEdge
	var bestPart *BspPartition
	bestCost := int(INITIAL_BIG_COST)

	w.validCount++
	w.pickHEdgeWorker(block, block, &best, &bestPart, &bestCost)
	if best != nil {
		w.mlog.Verbose(3, "Picked partition along linedef #%d side %d (cost %d)\n",
			best.lineDef.index, best.side, bestCost)
	}
	return best, bestPart
}

func (w *NodesWork) pickHEdgeWorker(block, root *Superblock, best **HEdge,
	bestPart **BspPartition, bestCost *int) {
	for part := block.hEdges; part != nil; part = part.nextInBlock {
		// minis can't be partitions
		if part.lineDef == nil {
			continue
		}
		// ignore half-edges whose linedef was already tried
		if w.lineStamps[part.lineDef.index] == w.validCount {
			continue
		}
		w.lineStamps[part.lineDef.index] = w.validCount

		candidate := NewPartitionFromLine(part.lineDef, part.side)
		cost := w.evalPartition(root, candidate, *bestCost)

		// unsuitable or too costly?
		if cost < 0 || cost >= *bestCost {
			continue
		}

		// we have a new better choice
		*bestCost = cost
		*best = part
		*bestPart = candidate
	}

	// recursively handle sub-blocks
	for num := 0; num < 2; num++ {
		if block.subs[num] != nil {
			w.pickHEdgeWorker(block.subs[num], root, best, bestPart, bestCost)
		}
	}
}
