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
	"testing"
)

// Walks the next links from start, checking the links of every half-edge on
// the way. Returns the cycle length
func checkCycle(t *testing.T, start *HEdge, limit int) int {
	t.Helper()
	n := 0
	e := start
	for {
		if e.next == nil || e.next.prev != e {
			t.Fatalf("half-edge %d: broken next/prev\n", e.index)
		}
		if e.twin == nil || e.twin.twin != e {
			t.Fatalf("half-edge %d: broken twin\n", e.index)
		}
		if e.twin.vertex != e.next.vertex {
			t.Errorf("half-edge %d ends at vertex %d, next starts at vertex %d\n",
				e.index, e.twin.vertex.index, e.next.vertex.index)
		}
		n++
		e = e.next
		if e == start {
			return n
		}
		if n > limit {
			t.Fatalf("cycle from half-edge %d does not close\n", start.index)
		}
	}
}

func linkCycle(hedges ...*HEdge) {
	for i, e := range hedges {
		next := hedges[(i+1)%len(hedges)]
		e.next = next
		next.prev = e
	}
}

func twins(a, b *HEdge) {
	a.twin = b
	b.twin = a
}

// Triangle A(0,0) B(64,0) C(0,64) with its inner and outer cycles
func newTriangleMesh() (*Mesh, [3]*HEdge, [3]*HEdge) {
	m := NewMesh()
	a := m.CreateVertex(0, 0)
	b := m.CreateVertex(64, 0)
	c := m.CreateVertex(0, 64)
	inner := [3]*HEdge{m.CreateHEdge(a), m.CreateHEdge(b), m.CreateHEdge(c)}
	outer := [3]*HEdge{m.CreateHEdge(b), m.CreateHEdge(c), m.CreateHEdge(a)}
	for i := range inner {
		twins(inner[i], outer[i])
	}
	linkCycle(inner[0], inner[1], inner[2])
	// B->A, A->C, C->B
	linkCycle(outer[0], outer[2], outer[1])
	return m, inner, outer
}

func TestSplitHEdgeKeepsCyclesClosed(t *testing.T) {
	m, inner, outer := newTriangleMesh()
	if n := checkCycle(t, inner[0], 10); n != 3 {
		t.Fatalf("inner cycle before split has %d half-edges, want 3\n", n)
	}

	e := inner[0]
	nu := m.SplitHEdge(e, 32, 0)

	if n := checkCycle(t, inner[0], 10); n != 4 {
		t.Errorf("inner cycle after split has %d half-edges, want 4\n", n)
	}
	if n := checkCycle(t, outer[0], 10); n != 4 {
		t.Errorf("outer cycle after split has %d half-edges, want 4\n", n)
	}
	if e.Dest() != nu.Origin() {
		t.Errorf("split half-edge does not end where the new one starts\n")
	}
	if nu.Origin().Pos != [2]float64{32, 0} {
		t.Errorf("new vertex at %v, want (32, 0)\n", nu.Origin().Pos)
	}
	if nu.Dest().Pos != [2]float64{64, 0} {
		t.Errorf("new half-edge ends at %v, want (64, 0)\n", nu.Dest().Pos)
	}
	if e.twin.Origin() != nu.Origin() {
		t.Errorf("twin of split half-edge must start at the new vertex\n")
	}
	if m.NumVertices() != 4 || m.NumHEdges() != 8 {
		t.Errorf("mesh has %d vertices and %d half-edges, want 4 and 8\n",
			m.NumVertices(), m.NumHEdges())
	}
}

func TestSplitHEdgeSpike(t *testing.T) {
	m := NewMesh()
	a := m.CreateVertex(0, 0)
	b := m.CreateVertex(0, 100)
	e := m.CreateHEdge(a)
	twin := m.CreateHEdge(b)
	twins(e, twin)
	linkCycle(e, twin)

	m.SplitHEdge(e, 0, 25)
	if n := checkCycle(t, e, 10); n != 4 {
		t.Errorf("spike cycle after split has %d half-edges, want 4\n", n)
	}
}

func TestSplitHEdgeCopiesAttributes(t *testing.T) {
	m, inner, _ := newTriangleMesh()
	line := &LineDef{index: 3}
	sec := &Sector{index: 1}
	inner[1].lineDef = line
	inner[1].sourceLine = line
	inner[1].side = BACK
	inner[1].sector = sec

	nu := m.SplitHEdge(inner[1], 32, 32)
	if nu.lineDef != line || nu.sourceLine != line || nu.side != BACK ||
		nu.sector != sec {
		t.Errorf("new half-edge did not inherit linedef, side and sector\n")
	}
	if nu.twin.lineDef != nil {
		t.Errorf("twin of new half-edge must inherit the old twin's linedef (nil)\n")
	}
}

func TestMeshAdopt(t *testing.T) {
	m, _, _ := newTriangleMesh()
	other := NewMesh()
	v := other.CreateVertex(5, 5)
	other.CreateFace()
	m.Adopt(other)
	if other.NumVertices() != 0 || other.NumFaces() != 0 {
		t.Errorf("adopted mesh must be left empty\n")
	}
	if v.index != 3 || m.vertices[3] != v {
		t.Errorf("adopted vertex index %d, want 3\n", v.index)
	}
	if m.NumFaces() != 1 {
		t.Errorf("mesh has %d faces, want 1\n", m.NumFaces())
	}
}
