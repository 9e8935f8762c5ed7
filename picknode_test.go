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

// Sets up the root block of a build the way run() does
func newTestNodesWork(m *GameMap) (*NodesWork, *Superblock) {
	bounds := m.lineBounds()
	w := newNodesWork(&NodesInput{
		name:    m.Name(),
		lines:   m.LineDefs(),
		sectors: m.Sectors(),
		bounds:  bounds,
		factor:  PICKNODE_FACTOR,
	})
	root := w.getNewSuperblock()
	root.SetBounds(bounds)
	w.createInitialHEdges(root)
	return w, root
}

// The cheapest partition found with full evaluation of every candidate, in
// the order pickHEdge visits them
func pickHEdgeExhaustive(w *NodesWork, root *Superblock) (*HEdge, int) {
	var best *HEdge
	bestCost := int(INITIAL_BIG_COST)
	tried := make(map[*LineDef]bool)
	var visit func(block *Superblock)
	visit = func(block *Superblock) {
		for e := block.hEdges; e != nil; e = e.nextInBlock {
			if e.lineDef == nil || tried[e.lineDef] {
				continue
			}
			tried[e.lineDef] = true
			cost := w.evalPartition(root, NewPartitionFromLine(e.lineDef, e.side),
				INITIAL_BIG_COST)
			if cost >= 0 && cost < bestCost {
				best = e
				bestCost = cost
			}
		}
		for num := 0; num < 2; num++ {
			if block.subs[num] != nil {
				visit(block.subs[num])
			}
		}
	}
	visit(root)
	return best, bestCost
}

func TestPruningKeepsChosenPartition(t *testing.T) {
	twoRooms, _ := newTwoRooms(t)
	maps := []*GameMap{newSquareRoom(t).m, twoRooms.m, newPillarRoom(t).m}
	for _, m := range maps {
		w, root := newTestNodesWork(m)
		want, _ := pickHEdgeExhaustive(w, root)
		got, part := w.pickHEdge(root)
		if want == nil {
			if got != nil {
				t.Errorf("%s: pickHEdge chose linedef #%d where none is usable\n",
					m.Name(), got.lineDef.index)
			}
			continue
		}
		if got == nil {
			t.Errorf("%s: pickHEdge found no partition, want linedef #%d\n",
				m.Name(), want.lineDef.index)
			continue
		}
		if got.lineDef != want.lineDef || got.side != want.side {
			t.Errorf("%s: pickHEdge chose linedef #%d side %d, exhaustive search linedef #%d side %d\n",
				m.Name(), got.lineDef.index, got.side, want.lineDef.index, want.side)
		}
		if part.lineDef != got.lineDef {
			t.Errorf("%s: partition does not come from the chosen half-edge\n", m.Name())
		}
	}
}

func TestEvalPartitionRejectsOneSidedSplit(t *testing.T) {
	m := newSquareRoom(t).m
	w, root := newTestNodesWork(m)
	for _, line := range m.LineDefs() {
		part := NewPartitionFromLine(line, FRONT)
		if cost := w.evalPartition(root, part, INITIAL_BIG_COST); cost != -1 {
			t.Errorf("outer wall #%d of a convex room has cost %d, want -1\n",
				line.index, cost)
		}
	}
}

func TestEvalPartitionCountsSplits(t *testing.T) {
	m := newPillarRoom(t).m
	w, root := newTestNodesWork(m)
	// pillar's bottom wall, from (96,96) to (160,96): splits the room's west
	// and east walls
	line := m.LineDefs()[4]
	part := NewPartitionFromLine(line, FRONT)
	var info evalInfo
	w.evalPartitionWorker(root, part, INITIAL_BIG_COST, &info)
	if info.splits != 2 {
		t.Errorf("got %d splits, want 2\n", info.splits)
	}
	if info.realLeft == 0 || info.realRight == 0 {
		t.Errorf("partition must have real half-edges on both sides (%d left, %d right)\n",
			info.realLeft, info.realRight)
	}
	if !part.IsAxisAligned() {
		t.Errorf("partition must be axis aligned\n")
	}
}

func TestPartitionDistances(t *testing.T) {
	line := &LineDef{v: [2]*Vertex{{Pos: [2]float64{0, 0}}, {Pos: [2]float64{0, 64}}}}
	part := NewPartitionFromLine(line, FRONT)
	// going north, right is east
	if d := part.PerpDist(10, 5); d != 10 {
		t.Errorf("PerpDist(10, 5) = %v, want 10\n", d)
	}
	if d := part.PerpDist(-3, 5); d != -3 {
		t.Errorf("PerpDist(-3, 5) = %v, want -3\n", d)
	}
	if d := part.ParallelDist(7, 32); d != 32 {
		t.Errorf("ParallelDist(7, 32) = %v, want 32\n", d)
	}
	back := NewPartitionFromLine(line, BACK)
	if back.pSY != 64 || back.pDY != -64 {
		t.Errorf("back side partition must run from v2 to v1\n")
	}
}
