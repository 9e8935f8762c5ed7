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
	"math"
	"sort"
)

// Intersections of the current partition line with vertices, and the edge
// tips used to tell whether the space next to such a vertex is open. Ideas
// from glBSP / AJ-BSP by Andrew Apted.

var ErrCutListOrder = errors.New("cut list is out of order")

// A tip is a linedef going out from a vertex, seen from that vertex
type edgeTip struct {
	angle float64 // in degrees, [0, 360)
	left  *Sector // sector on the left, looking out from the vertex
	right *Sector
}

// Sorted by angle
type edgeTipSlice []edgeTip

func (x edgeTipSlice) Len() int           { return len(x) }
func (x edgeTipSlice) Less(i, j int) bool { return x[i].angle < x[j].angle }
func (x edgeTipSlice) Swap(i, j int)      { x[i], x[j] = x[j], x[i] }

// Adds a tip to v, keeping them sorted by angle
func (w *NodesWork) addEdgeTip(v *Vertex, dx, dy float64, left, right *Sector) {
	tip := edgeTip{
		angle: computeAngle(dx, dy),
		left:  left,
		right: right,
	}
	tips := w.tips[v]
	i := sort.Search(len(tips), func(i int) bool {
		return tips[i].angle > tip.angle
	})
	tips = append(tips, edgeTip{})
	copy(tips[i+1:], tips[i:])
	tips[i] = tip
	w.tips[v] = tips
}

// Tips for both ends of a line running from start to end, with the given
// sectors on its left (back) and right (front)
func (w *NodesWork) addLineTips(start, end *Vertex, left, right *Sector) {
	dx := end.Pos[0] - start.Pos[0]
	dy := end.Pos[1] - start.Pos[1]
	w.addEdgeTip(start, dx, dy, left, right)
	w.addEdgeTip(end, -dx, -dy, right, left)
}

// Returns the sector that is open at v in direction (dx,dy), or nil if a
// linedef lies exactly in that direction or there is only void there
func (w *NodesWork) vertexCheckOpen(v *Vertex, dx, dy float64) *Sector {
	angle := computeAngle(dx, dy)
	tips := w.tips[v]

	// first check whether there's a tip that lies in the exact direction
	// of the given direction (which is relative to the vertex)
	for _, tip := range tips {
		diff := math.Abs(tip.angle - angle)
		if diff < ANG_EPSILON || diff > (360.0-ANG_EPSILON) {
			// yes, found one
			return nil
		}
	}

	// OK, now just find the first tip whose angle is greater than the
	// angle we're interested in. Therefore we'll be on the RIGHT side
	// of that tip.
	for i, tip := range tips {
		if angle+ANG_EPSILON < tip.angle {
			// found it
			return tip.right
		}
		if i == len(tips)-1 {
			// no more tips, thus we must be on the LEFT side of the tip
			// with the largest angle.
			return tip.left
		}
	}

	// vertex has no tips
	return nil
}

type intersection struct {
	vertex    *Vertex
	alongDist float64 // along the partition line
	selfRef   bool    // the vertex lies on a self-referencing linedef
	before    *Sector // open sector looking back along the partition
	after     *Sector // open sector looking forward
}

// Intersections of one partition line, sorted by distance along it
type CutList struct {
	cuts []*intersection
}

func (c *CutList) Len() int {
	return len(c.cuts)
}

func (c *CutList) Empty() {
	c.cuts = c.cuts[:0]
}

func (c *CutList) find(v *Vertex) *intersection {
	for _, cut := range c.cuts {
		if cut.vertex == v {
			return cut
		}
	}
	return nil
}

// insert keeps the list sorted by alongDist, placing equal distances after
// the existing ones
func (c *CutList) insert(cut *intersection) {
	i := sort.Search(len(c.cuts), func(i int) bool {
		return c.cuts[i].alongDist > cut.alongDist
	})
	c.cuts = append(c.cuts, nil)
	copy(c.cuts[i+1:], c.cuts[i:])
	c.cuts[i] = cut
}

// Records that the partition passes through v. Every vertex is recorded
// at most once per partition
func (w *NodesWork) addIntersection(v *Vertex, part *BspPartition, selfRef bool) {
	if w.cutList.find(v) != nil {
		return
	}
	cut := &intersection{
		vertex:    v,
		alongDist: part.ParallelDist(v.Pos[0], v.Pos[1]),
		selfRef:   selfRef,
		before:    w.vertexCheckOpen(v, -part.pDX, -part.pDY),
		after:     w.vertexCheckOpen(v, part.pDX, part.pDY),
	}
	w.cutList.insert(cut)
}

// Merges intersections that are practically at the same place along the
// partition
func (w *NodesWork) mergeOverlappingIntersections() error {
	cuts := w.cutList.cuts
	if len(cuts) == 0 {
		return nil
	}
	out := cuts[:1]
	for _, next := range cuts[1:] {
		cur := out[len(out)-1]
		gap := next.alongDist - cur.alongDist
		if gap < -0.1 {
			return ErrCutListOrder
		}
		if gap > 0.2 {
			out = append(out, next)
			continue
		}
		if gap > DIST_EPSILON {
			w.mlog.Verbose(2, "Skipping very short mini half-edge (len=%1.3f) near (%1.1f,%1.1f)\n",
				gap, cur.vertex.Pos[0], cur.vertex.Pos[1])
		}

		// merge the info for the two intersections into one
		if cur.selfRef && !next.selfRef {
			if cur.before != nil && next.before != nil {
				cur.before = next.before
			}
			if cur.after != nil && next.after != nil {
				cur.after = next.after
			}
			cur.selfRef = false
		}
		if cur.before == nil && next.before != nil {
			cur.before = next.before
		}
		if cur.after == nil && next.after != nil {
			cur.after = next.after
		}
	}
	for i := len(out); i < len(cuts); i++ {
		cuts[i] = nil
	}
	w.cutList.cuts = out
	return nil
}

// Closes the gaps along the partition where it runs through open space by
// creating pairs of mini half-edges. rightBlock receives the ones going in
// the direction of the partition
func (w *NodesWork) connectGaps(part *BspPartition, rightBlock, leftBlock *Superblock) {
	cuts := w.cutList.cuts
	for i := 0; i+1 < len(cuts); i++ {
		cur := cuts[i]
		next := cuts[i+1]

		if cur.after == nil && next.before == nil {
			// closed on both sides
			continue
		}

		if cur.after != nil && next.before == nil {
			if !cur.selfRef {
				w.reportUnclosed(cur.after, cur.vertex)
			}
			continue
		}

		if cur.after == nil && next.before != nil {
			if !next.selfRef {
				w.reportUnclosed(next.before, next.vertex)
			}
			continue
		}

		// both open: this is a gap that needs minis
		if cur.after != next.before {
			w.mlog.Verbose(2, "Sector mismatch: #%d (%1.1f,%1.1f) != #%d (%1.1f,%1.1f)\n",
				cur.after.index, cur.vertex.Pos[0], cur.vertex.Pos[1],
				next.before.index, next.vertex.Pos[0], next.vertex.Pos[1])
		}

		w.addMiniHEdges(part, cur, next, rightBlock, leftBlock)
	}
}

func (w *NodesWork) reportUnclosed(sector *Sector, v *Vertex) {
	w.mlog.Verbose(1, "Unclosed sector #%d near (%1.1f,%1.1f)\n", sector.index,
		v.Pos[0], v.Pos[1])
	w.unclosed[sector] = struct{}{}
}

func (w *NodesWork) addMiniHEdges(part *BspPartition, cur, next *intersection,
	rightBlock, leftBlock *Superblock) {
	right := w.mesh.CreateHEdge(cur.vertex)
	left := w.mesh.CreateHEdge(next.vertex)
	right.twin = left
	left.twin = right

	right.sourceLine = part.lineDef
	left.sourceLine = part.lineDef
	right.sector = next.before
	left.sector = cur.after

	right.UpdateGeometry()
	left.UpdateGeometry()

	rightBlock.AddHEdgeToSuper(right)
	leftBlock.AddHEdgeToSuper(left)
	w.totals.numMinis += 2
}
