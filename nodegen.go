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
	"errors"
	"fmt"
	"time"
)

// Nodes Generator, ooh yes

// Input geometry errors. These fail the build, leaving the map as it was
var (
	ErrNoRealHEdges    = errors.New("no linedef produced a half-edge")
	ErrSplitEmptySide  = errors.New("partition left one side empty")
	ErrLeafWithoutLine = errors.New("leaf has no linedef-backed half-edge")
)

// What the nodes builder gets to work with. Linedefs, sectors and vertices
// are only read from, apart from the half-edge links which are rolled back
// if the build fails
type NodesInput struct {
	name    string
	lines   []*LineDef
	sectors []*Sector
	bounds  AABoxf
	factor  int
}

// Everything the build produced. Nothing in here is reachable from the map
// until GameMap commits it
type NodesResult struct {
	mesh       *Mesh
	root       BspElement
	nodes      []*Node
	subsectors []*Subsector
	segs       []*Seg
	unclosed   []*Sector
	totals     NodesTotals
}

type NodesTotals struct {
	numNodes    int
	numLeafs    int
	numSplits   int
	numMinis    int
	numHEdges   int
	maxDepth    int
	numSegs     int
	numUnclosed int
}

// Per-build state. Nothing here is shared between builds, so different maps
// can be built on different goroutines
type NodesWork struct {
	input        *NodesInput
	mesh         *Mesh
	factor       int
	qallocSupers *Superblock // pool of freed superblocks, linked through subs[0]
	cutList      CutList
	validCount   int
	lineStamps   []int // per linedef, validCount of the last pickHEdge that tried it
	tips         map[*Vertex][]edgeTip
	leafHEdges   map[*Face][]*HEdge
	leafs        []*Face
	leafSectors  map[*Face]*Sector
	unclosed     map[*Sector]struct{}
	mlog         *MiniLogger
	totals       *NodesTotals
}

type NodeInProcess struct {
	part         *BspPartition
	Rbox         AABoxf // right bounding box
	Lbox         AABoxf // left bounding box
	nextR, nextL *NodeInProcess
	leafR, leafL *Face
}

func newNodesWork(input *NodesInput) *NodesWork {
	factor := input.factor
	if factor <= 0 {
		factor = PICKNODE_FACTOR
	}
	return &NodesWork{
		input:      input,
		mesh:       NewMesh(),
		factor:     factor,
		lineStamps: make([]int, len(input.lines)),
		tips:       make(map[*Vertex][]edgeTip),
		leafHEdges: make(map[*Face][]*HEdge),
		unclosed:   make(map[*Sector]struct{}),
		mlog:       CreateMiniLogger(),
		totals:     &NodesTotals{},
	}
}

// Builds the BSP for the input. On error, the input is left as it was
// before the call. The returned MiniLogger holds the messages of the build
// either way
func NodesGenerator(input *NodesInput) (*NodesResult, *MiniLogger, error) {
	start := time.Now()
	w := newNodesWork(input)
	res, err := w.run()
	if err != nil {
		w.rollback()
		w.mlog.Printf("Nodes build of %s failed: %s (%s)\n", input.name, err,
			time.Since(start))
		return nil, w.mlog, err
	}
	w.mlog.Verbose(1, "Nodes for %s built in %s: %d nodes, %d subsectors, %d segs (%d splits, %d minis)\n",
		input.name, time.Since(start), res.totals.numNodes, res.totals.numLeafs,
		res.totals.numSegs, res.totals.numSplits, res.totals.numMinis)
	return res, w.mlog, nil
}

func (w *NodesWork) run() (*NodesResult, error) {
	root := w.getNewSuperblock()
	root.SetBounds(w.input.bounds)

	w.createInitialHEdges(root)
	if root.realNum == 0 {
		return nil, ErrNoRealHEdges
	}

	rootNode, rootLeaf, err := w.BuildNodes(root, 0)
	w.returnSuperblockToPool(root)
	if err != nil {
		return nil, err
	}

	if err := w.clockwiseBspTree(); err != nil {
		return nil, err
	}

	return w.hardenBsp(rootNode, rootLeaf), nil
}

// Undoes every change made to input objects
func (w *NodesWork) rollback() {
	for _, line := range w.input.lines {
		line.hEdges[FRONT] = nil
		line.hEdges[BACK] = nil
		line.v[0].hEdge = nil
		line.v[1].hEdge = nil
	}
}

// Splits old at (x,y) and keeps the superblocks, leaf lists and edge tips in
// step. Returns the new half-edge that continues old
func (w *NodesWork) splitHEdge(old *HEdge, x, y float64) *HEdge {
	twin := old.twin
	dx, dy := old.pDX, old.pDY

	nu := w.mesh.SplitHEdge(old, x, y)
	nuTwin := nu.twin
	w.totals.numSplits++

	old.UpdateGeometry()
	nu.UpdateGeometry()
	twin.UpdateGeometry()
	nuTwin.UpdateGeometry()

	if old.block != nil {
		old.block.IncHEdgeCounts(old.lineDef != nil)
		old.block.pushDirect(nu)
	}

	if twin.block != nil {
		twin.block.IncHEdgeCounts(twin.lineDef != nil)
		twin.block.pushDirect(nuTwin)
	} else if twin.face != nil {
		// twin already ended up in a leaf
		w.leafHEdges[twin.face] = append(w.leafHEdges[twin.face], nuTwin)
	}

	v := nu.vertex
	w.addEdgeTip(v, -dx, -dy, old.sector, twin.sector)
	w.addEdgeTip(v, dx, dy, twin.sector, old.sector)
	return nu
}

// Where the partition crosses e
func calcIntersection(e *HEdge, part *BspPartition, a, b float64) (float64, float64) {
	// horizontal partition against vertical half-edge
	if part.pDY == 0 && e.pDX == 0 {
		return e.pSX, part.pSY
	}

	// vertical partition against horizontal half-edge
	if part.pDX == 0 && e.pDY == 0 {
		return part.pSX, e.pSY
	}

	// 0 = start, 1 = end
	ds := a / (a - b)

	x := e.pSX
	if e.pDX != 0 {
		x += e.pDX * ds
	}
	y := e.pSY
	if e.pDY != 0 {
		y += e.pDY * ds
	}
	return x, y
}

// Routes e to the right or left block, splitting it first if the partition
// runs through it, and records where the partition touches its vertices
func (w *NodesWork) divideOneHEdge(e *HEdge, part *BspPartition, rights,
	lefts *Superblock) {
	selfRef := e.lineDef != nil && e.lineDef.selfRef
	a, b := part.distances(e)

	// check for being on the same line
	if abs(a) <= DIST_EPSILON && abs(b) <= DIST_EPSILON {
		w.addIntersection(e.vertex, part, selfRef)
		w.addIntersection(e.twin.vertex, part, selfRef)

		// this half-edge runs along the same line as the partition. check
		// whether it goes in the same direction or the opposite.
		if e.pDX*part.pDX+e.pDY*part.pDY < 0 {
			lefts.AddHEdgeToSuper(e)
		} else {
			rights.AddHEdgeToSuper(e)
		}
		return
	}

	// check for right side
	if a > -DIST_EPSILON && b > -DIST_EPSILON {
		if a < DIST_EPSILON {
			w.addIntersection(e.vertex, part, selfRef)
		} else if b < DIST_EPSILON {
			w.addIntersection(e.twin.vertex, part, selfRef)
		}
		rights.AddHEdgeToSuper(e)
		return
	}

	// check for left side
	if a < DIST_EPSILON && b < DIST_EPSILON {
		if a > -DIST_EPSILON {
			w.addIntersection(e.vertex, part, selfRef)
		} else if b > -DIST_EPSILON {
			w.addIntersection(e.twin.vertex, part, selfRef)
		}
		lefts.AddHEdgeToSuper(e)
		return
	}

	// when we reach here, we have a and b non-zero and opposite sign,
	// hence this half-edge will be split by the partition line.
	x, y := calcIntersection(e, part, a, b)
	nu := w.splitHEdge(e, x, y)
	w.addIntersection(nu.vertex, part, selfRef)

	if a < 0 {
		lefts.AddHEdgeToSuper(e)
		rights.AddHEdgeToSuper(nu)
	} else {
		rights.AddHEdgeToSuper(e)
		lefts.AddHEdgeToSuper(nu)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Moves every half-edge of the src tree into rights or lefts. Sub-blocks of
// src go back to the pool, src itself is left empty
func (w *NodesWork) divideHEdges(src *Superblock, part *BspPartition, rights,
	lefts *Superblock) {
	for e := src.PopHEdge(); e != nil; e = src.PopHEdge() {
		w.divideOneHEdge(e, part, rights, lefts)
	}

	// recursively handle sub-blocks
	for num := 0; num < 2; num++ {
		sub := src.subs[num]
		if sub == nil {
			continue
		}
		w.divideHEdges(sub, part, rights, lefts)
		w.returnSuperblockToPool(sub)
		src.subs[num] = nil
	}

	src.realNum = 0
	src.miniNum = 0
}

// Turns the block tree into a leaf face owning all of its half-edges
func (w *NodesWork) createLeaf(block *Superblock) *Face {
	face := w.mesh.CreateFace()
	var list []*HEdge
	block.ForEachHEdge(func(e *HEdge) {
		list = append(list, e)
	})
	for _, e := range list {
		e.face = face
		e.block = nil
		e.nextInBlock = nil
	}
	block.hEdges = nil
	w.leafHEdges[face] = list
	w.leafs = append(w.leafs, face)
	w.totals.numLeafs++
	return face
}

// Recursively partitions the block tree. Returns either a node or, if no
// partition is needed, a leaf face
func (w *NodesWork) BuildNodes(block *Superblock, depth int) (*NodeInProcess, *Face, error) {
	if depth > w.totals.maxDepth {
		w.totals.maxDepth = depth
	}

	best, part := w.pickHEdge(block)
	if best == nil {
		// the block is convex: make it a leaf
		return nil, w.createLeaf(block), nil
	}

	w.mlog.Verbose(3, "Build: PARTITION #%d (%1.0f,%1.0f) -> (%1.0f,%1.0f)\n",
		part.lineDef.index, part.pSX, part.pSY, part.pSX+part.pDX,
		part.pSY+part.pDY)

	rights := w.newSuperblockLike(block)
	lefts := w.newSuperblockLike(block)

	w.divideHEdges(block, part, rights, lefts)

	// sanity checks
	if rights.TotalHEdges() == 0 || lefts.TotalHEdges() == 0 {
		side := "RIGHT"
		if rights.TotalHEdges() != 0 {
			side = "LEFT"
		}
		w.cutList.Empty()
		w.returnSuperblockToPool(rights)
		w.returnSuperblockToPool(lefts)
		return nil, nil, fmt.Errorf("%w: no %s side for partition along linedef #%d",
			ErrSplitEmptySide, side, part.lineDef.index)
	}

	if err := w.mergeOverlappingIntersections(); err != nil {
		Log.Panic("Partition along linedef #%d: %s\n", part.lineDef.index, err)
	}
	w.connectGaps(part, rights, lefts)
	w.cutList.Empty()

	node := &NodeInProcess{part: part}
	node.Rbox = FindLimits(rights)
	node.Lbox = FindLimits(lefts)
	w.totals.numNodes++

	var err error
	node.nextR, node.leafR, err = w.BuildNodes(rights, depth+1)
	w.returnSuperblockToPool(rights)
	if err != nil {
		w.returnSuperblockToPool(lefts)
		return nil, nil, err
	}

	node.nextL, node.leafL, err = w.BuildNodes(lefts, depth+1)
	w.returnSuperblockToPool(lefts)
	if err != nil {
		return nil, nil, err
	}

	return node, nil, nil
}
