// Copyright (C) 2022-2023, VigilantDoomer
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
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// node_outro.go contains functions called after BSP tree is built: putting
// leaf half-edges in clockwise order and converting the tree into the
// nodes, subsectors and segs the rest of the engine works with

// Either a *Node or a *Subsector
type BspElement interface {
	MapObject
	bspElement()
}

type Node struct {
	index     int
	Partition DivLine
	BBox      [2]AABoxf // 0 right, 1 left
	children  [2]BspElement
}

func (n *Node) ObjectType() DMUType { return DMU_NODE }
func (n *Node) ObjectIndex() int    { return n.index }
func (n *Node) bspElement()         {}

// 0 right, 1 left
func (n *Node) Child(side int) BspElement {
	return n.children[side]
}

func (n *Node) PointOnSide(x, y float64) int {
	return pointOnDivLineSide(x, y, &n.Partition)
}

type Subsector struct {
	index      int
	face       *Face
	sector     *Sector
	segs       []*Seg
	BBox       AABoxf
	Midpoint   [2]float64
	polyobj    *Polyobj
	validCount int
}

func (s *Subsector) ObjectType() DMUType { return DMU_SUBSECTOR }
func (s *Subsector) ObjectIndex() int    { return s.index }
func (s *Subsector) bspElement()         {}

func (s *Subsector) Sector() *Sector   { return s.sector }
func (s *Subsector) Segs() []*Seg      { return s.segs }
func (s *Subsector) Face() *Face       { return s.face }
func (s *Subsector) Polyobj() *Polyobj { return s.polyobj }

// Signed area of the subsector's outline, positive for clockwise order
func (s *Subsector) Area() float64 {
	area := 0.0
	for _, seg := range s.segs {
		a := seg.v[0].Pos
		b := seg.v[1].Pos
		area += a[0]*b[1] - b[0]*a[1]
	}
	return -area / 2
}

type Seg struct {
	index     int
	hEdge     *HEdge
	v         [2]*Vertex
	lineDef   *LineDef // nil for minis
	sideDef   *SideDef
	side      int
	sector    *Sector
	backSeg   *Seg
	Angle     float64 // degrees
	Length    float64
	Offset    float64 // from the start of the linedef side
	subsector *Subsector
}

func (s *Seg) ObjectType() DMUType { return DMU_SEG }
func (s *Seg) ObjectIndex() int    { return s.index }

func (s *Seg) LineDef() *LineDef     { return s.lineDef }
func (s *Seg) SideDef() *SideDef     { return s.sideDef }
func (s *Seg) Side() int             { return s.side }
func (s *Seg) Sector() *Sector       { return s.sector }
func (s *Seg) BackSeg() *Seg         { return s.backSeg }
func (s *Seg) Subsector() *Subsector { return s.subsector }
func (s *Seg) Vertex(i int) *Vertex  { return s.v[i] }
func (s *Seg) HEdge() *HEdge         { return s.hEdge }

// Sorts half-edges in clockwise order around a center, i.e. by descending
// angle
type hEdgeClockwise struct {
	list   []*HEdge
	angles []float64
}

func (x *hEdgeClockwise) Len() int           { return len(x.list) }
func (x *hEdgeClockwise) Less(i, j int) bool { return x.angles[i] > x.angles[j] }
func (x *hEdgeClockwise) Swap(i, j int) {
	x.list[i], x.list[j] = x.list[j], x.list[i]
	x.angles[i], x.angles[j] = x.angles[j], x.angles[i]
}

func (w *NodesWork) clockwiseBspTree() error {
	w.leafSectors = make(map[*Face]*Sector, len(w.leafs))
	for _, face := range w.leafs {
		if err := w.clockwiseLeaf(face); err != nil {
			return err
		}
	}
	return nil
}

func (w *NodesWork) clockwiseLeaf(face *Face) error {
	list := w.leafHEdges[face]
	n := len(list)
	if n == 0 {
		return ErrLeafWithoutLine
	}

	// determine the middle
	midX, midY := 0.0, 0.0
	for _, e := range list {
		midX += e.pSX + e.pEX
		midY += e.pSY + e.pEY
	}
	midX /= float64(n * 2)
	midY /= float64(n * 2)

	sorter := &hEdgeClockwise{
		list:   list,
		angles: make([]float64, n),
	}
	for i, e := range list {
		sorter.angles[i] = computeAngle(e.pSX-midX, e.pSY-midY)
	}
	sort.Stable(sorter)

	for i, e := range list {
		e.face = face
		e.next = list[(i+1)%n]
		e.prev = list[(i+n-1)%n]
	}
	face.hEdge = list[0]

	gaps := 0
	for i, e := range list {
		next := list[(i+1)%n]
		end := e.twin.vertex
		if end != next.vertex && end.Pos != next.vertex.Pos {
			gaps++
		}
	}
	if gaps > 0 {
		w.mlog.Verbose(1, "Leaf #%d near (%1.1f,%1.1f) is not closed (%d gaps, %d half-edges)\n",
			face.index, midX, midY, gaps, n)
	}

	if config.DumpLeafs {
		w.mlog.DumpLeaf(face, list)
	}

	// pick the sector. Prefer a linedef side that is not self-referencing
	var sector, fallback *Sector
	for _, e := range list {
		if e.lineDef == nil || e.sector == nil {
			continue
		}
		if fallback == nil {
			fallback = e.sector
		}
		if e.twin.sector != e.sector {
			sector = e.sector
			break
		}
	}
	if sector == nil {
		sector = fallback
	}
	if sector == nil {
		return ErrLeafWithoutLine
	}

	for _, e := range list {
		if e.sector != nil && e.sector != sector {
			w.mlog.Verbose(2, "Leaf #%d near (%1.1f,%1.1f) has mixed sectors (#%d and #%d)\n",
				face.index, midX, midY, sector.index, e.sector.index)
			break
		}
	}
	w.leafSectors[face] = sector
	return nil
}

// Converts the built tree into runtime nodes, subsectors and segs. Nodes are
// numbered children first, subsectors in right-first order
func (w *NodesWork) hardenBsp(rootNode *NodeInProcess, rootLeaf *Face) *NodesResult {
	res := &NodesResult{
		mesh:   w.mesh,
		totals: *w.totals,
	}
	if rootNode == nil {
		res.root = w.hardenLeaf(res, rootLeaf)
	} else {
		res.root = w.hardenNode(res, rootNode)
	}

	for _, seg := range res.segs {
		if twinSeg := seg.hEdge.twin.seg; twinSeg != nil {
			seg.backSeg = twinSeg
		}
	}

	for sector := range w.unclosed {
		res.unclosed = append(res.unclosed, sector)
	}
	sort.Slice(res.unclosed, func(i, j int) bool {
		return res.unclosed[i].index < res.unclosed[j].index
	})

	res.totals.numSegs = len(res.segs)
	res.totals.numUnclosed = len(res.unclosed)
	return res
}

func (w *NodesWork) hardenNode(res *NodesResult, n *NodeInProcess) *Node {
	node := &Node{
		Partition: n.part.DivLine(),
		BBox:      [2]AABoxf{n.Rbox, n.Lbox},
	}
	if n.nextR != nil {
		node.children[0] = w.hardenNode(res, n.nextR)
	} else {
		node.children[0] = w.hardenLeaf(res, n.leafR)
	}
	if n.nextL != nil {
		node.children[1] = w.hardenNode(res, n.nextL)
	} else {
		node.children[1] = w.hardenLeaf(res, n.leafL)
	}
	node.index = len(res.nodes)
	res.nodes = append(res.nodes, node)
	return node
}

func (w *NodesWork) hardenLeaf(res *NodesResult, face *Face) *Subsector {
	ss := &Subsector{
		index:  len(res.subsectors),
		face:   face,
		sector: w.leafSectors[face],
		BBox:   EmptyAABoxf(),
	}
	for _, e := range w.leafHEdges[face] {
		seg := &Seg{
			index:     len(res.segs),
			hEdge:     e,
			v:         [2]*Vertex{e.vertex, e.twin.vertex},
			lineDef:   e.lineDef,
			side:      e.side,
			sector:    e.sector,
			Angle:     e.pAngle,
			Length:    e.pLength,
			subsector: ss,
		}
		if e.lineDef != nil {
			seg.sideDef = e.lineDef.sides[e.side]
			start := e.lineDef.v[e.side]
			seg.Offset = mgl64.Vec2{e.pSX, e.pSY}.Sub(mgl64.Vec2(start.Pos)).Len()
		}
		e.seg = seg
		ss.segs = append(ss.segs, seg)
		res.segs = append(res.segs, seg)
		ss.BBox.AddPoint(e.pSX, e.pSY)
		ss.BBox.AddPoint(e.pEX, e.pEY)
	}
	ss.Midpoint = [2]float64{
		(ss.BBox.MinX + ss.BBox.MaxX) / 2,
		(ss.BBox.MinY + ss.BBox.MaxY) / 2,
	}
	face.subsector = ss
	res.subsectors = append(res.subsectors, ss)
	return ss
}
