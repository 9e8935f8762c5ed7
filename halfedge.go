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
	"github.com/go-gl/mathgl/mgl64"
)

// Half-edge (doubly connected edge list) representation of the map
// geometry. Once editing ends the mesh owns every vertex, half-edge and face
// of the level; linedefs, segs and subsectors only point into it.

type Vertex struct {
	Pos      [2]float64
	index    int
	hEdge    *HEdge // one of the half-edges that start at this vertex
	refCount int    // number of linedef endpoints that use this vertex
	equiv    *Vertex
}

type HEdge struct {
	index  int
	vertex *Vertex // origin. The end is twin.vertex
	twin   *HEdge
	next   *HEdge
	prev   *HEdge
	face   *Face

	lineDef    *LineDef // nil for mini half-edges
	sourceLine *LineDef // line this half-edge lies along
	side       int      // 0 front, 1 back
	sector     *Sector

	// cached geometry, see UpdateGeometry
	pSX, pSY, pEX, pEY float64
	pDX, pDY           float64
	pLength            float64
	pAngle             float64
	pPerp, pPara       float64

	// superblock the half-edge is linked into while the nodes are built
	block       *Superblock
	nextInBlock *HEdge

	seg *Seg
}

type Face struct {
	index     int
	hEdge     *HEdge
	subsector *Subsector
}

type Mesh struct {
	vertices []*Vertex
	hEdges   []*HEdge
	faces    []*Face
}

func NewMesh() *Mesh {
	return &Mesh{}
}

func (m *Mesh) CreateVertex(x, y float64) *Vertex {
	v := &Vertex{
		Pos:   [2]float64{x, y},
		index: len(m.vertices),
	}
	m.vertices = append(m.vertices, v)
	return v
}

func (m *Mesh) CreateHEdge(origin *Vertex) *HEdge {
	e := &HEdge{
		vertex: origin,
		index:  len(m.hEdges),
	}
	m.hEdges = append(m.hEdges, e)
	if origin != nil && origin.hEdge == nil {
		origin.hEdge = e
	}
	return e
}

func (m *Mesh) CreateFace() *Face {
	f := &Face{
		index: len(m.faces),
	}
	m.faces = append(m.faces, f)
	return f
}

func (m *Mesh) NumVertices() int {
	return len(m.vertices)
}

func (m *Mesh) NumHEdges() int {
	return len(m.hEdges)
}

func (m *Mesh) NumFaces() int {
	return len(m.faces)
}

// Moves everything owned by other into m. other is left empty
func (m *Mesh) Adopt(other *Mesh) {
	for _, v := range other.vertices {
		v.index = len(m.vertices)
		m.vertices = append(m.vertices, v)
	}
	for _, e := range other.hEdges {
		e.index = len(m.hEdges)
		m.hEdges = append(m.hEdges, e)
	}
	for _, f := range other.faces {
		f.index = len(m.faces)
		m.faces = append(m.faces, f)
	}
	other.vertices = nil
	other.hEdges = nil
	other.faces = nil
}

// Splits e (A->B) at (x,y), creating a vertex V there. On return e is A->V,
// the returned half-edge is V->B and its twin is B->V, while e.twin became
// V->A. Both face cycles stay closed, each gaining one element.
func (m *Mesh) SplitHEdge(e *HEdge, x, y float64) *HEdge {
	twin := e.twin
	if twin == nil || twin.twin != e {
		Log.Panic("SplitHEdge: half-edge %d has broken twin\n", e.index)
	}
	b := twin.vertex
	v := m.CreateVertex(x, y)

	nu := m.CreateHEdge(v)
	nu.lineDef = e.lineDef
	nu.sourceLine = e.sourceLine
	nu.side = e.side
	nu.sector = e.sector
	nu.face = e.face

	nuTwin := m.CreateHEdge(b)
	nuTwin.lineDef = twin.lineDef
	nuTwin.sourceLine = twin.sourceLine
	nuTwin.side = twin.side
	nuTwin.sector = twin.sector
	nuTwin.face = twin.face

	twin.vertex = v
	nu.twin = nuTwin
	nuTwin.twin = nu

	oldNext := e.next
	twinPrev := twin.prev

	e.next = nu
	nu.prev = e
	twin.prev = nuTwin
	nuTwin.next = twin

	if oldNext == twin {
		// spike: e runs into its own twin
		nu.next = nuTwin
		nuTwin.prev = nu
	} else {
		nu.next = oldNext
		if oldNext != nil {
			oldNext.prev = nu
		}
		nuTwin.prev = twinPrev
		if twinPrev != nil {
			twinPrev.next = nuTwin
		}
	}

	v.hEdge = nu
	if b.hEdge == twin {
		b.hEdge = nuTwin
	}
	return nu
}

func (e *HEdge) Origin() *Vertex {
	return e.vertex
}

func (e *HEdge) Dest() *Vertex {
	return e.twin.vertex
}

func (e *HEdge) IsMini() bool {
	return e.lineDef == nil
}

// Recomputes the geometry cached for partition evaluation
func (e *HEdge) UpdateGeometry() {
	e.pSX = e.vertex.Pos[0]
	e.pSY = e.vertex.Pos[1]
	e.pEX = e.twin.vertex.Pos[0]
	e.pEY = e.twin.vertex.Pos[1]
	e.pDX = e.pEX - e.pSX
	e.pDY = e.pEY - e.pSY

	e.pLength = mgl64.Vec2{e.pDX, e.pDY}.Len()
	e.pAngle = computeAngle(e.pDX, e.pDY)

	if e.pLength <= 0 {
		Log.Panic("Half-edge %d has zero length (%v,%v)\n", e.index,
			e.pSX, e.pSY)
	}

	e.pPerp = e.pSY*e.pDX - e.pSX*e.pDY
	e.pPara = -e.pSX*e.pDX - e.pSY*e.pDY
}

// Perpendicular distance from the line of e to (x,y). Positive is right
func (e *HEdge) PerpDist(x, y float64) float64 {
	return (x*e.pDY - y*e.pDX + e.pPerp) / e.pLength
}

// Distance along the line of e from its start to the projection of (x,y)
func (e *HEdge) ParallelDist(x, y float64) float64 {
	return (x*e.pDX + y*e.pDY + e.pPara) / e.pLength
}
