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

func TestSuperblocksConsts(t *testing.T) {
	marginLen := float64(IFFY_LEN * 1.5)
	if marginLen != float64(MARGIN_LEN) {
		t.Errorf("Const MARGIN_LEN must be equal to IFFY_LEN * 1.5n \n")
	}
}

func TestRoundPOW2(t *testing.T) {
	tests := [][2]int{{1, 1}, {2, 2}, {3, 4}, {4, 4}, {5, 8}, {100, 128}, {128, 128}}
	for _, tt := range tests {
		if got := RoundPOW2(tt[0]); got != tt[1] {
			t.Errorf("RoundPOW2(%d) = %d, want %d\n", tt[0], got, tt[1])
		}
	}
}

func TestSuperblockSetBounds(t *testing.T) {
	var s Superblock
	s.SetBounds(AABoxf{MinX: -13, MinY: 5, MaxX: 300, MaxY: 20})
	if s.x1 != -16 || s.y1 != 0 {
		t.Errorf("origin (%d, %d), want (-16, 0)\n", s.x1, s.y1)
	}
	if s.x2-s.x1 != 4*BLOCK_WIDTH || s.y2-s.y1 != BLOCK_WIDTH {
		t.Errorf("size %dx%d, want %dx%d\n", s.x2-s.x1, s.y2-s.y1,
			4*BLOCK_WIDTH, BLOCK_WIDTH)
	}
}

func TestSuperblockCountsAndPool(t *testing.T) {
	m := newPillarRoom(t).m
	w, root := newTestNodesWork(m)
	if root.realNum != 8 || root.miniNum != 0 {
		t.Fatalf("root holds %d real and %d mini half-edges, want 8 and 0\n",
			root.realNum, root.miniNum)
	}
	n := 0
	root.ForEachHEdge(func(e *HEdge) {
		n++
		if e.block == nil {
			t.Errorf("half-edge %d does not know its block\n", e.index)
		}
	})
	if n != root.TotalHEdges() {
		t.Errorf("ForEachHEdge visited %d half-edges, counts say %d\n", n,
			root.TotalHEdges())
	}
	box := FindLimits(root)
	if box != (AABoxf{MinX: 0, MinY: 0, MaxX: 256, MaxY: 256}) {
		t.Errorf("FindLimits = %+v\n", box)
	}

	// emptied blocks go back to the pool and get reused
	w.returnSuperblockToPool(root)
	again := w.getNewSuperblock()
	if again != root {
		t.Errorf("pool did not hand back the returned block\n")
	}
	if again.realNum != 0 || again.hEdges != nil || again.subs[0] != nil {
		t.Errorf("block from the pool is not clean\n")
	}
}

func TestLinkHEdgeCountsOwnBlockOnly(t *testing.T) {
	m := newSquareRoom(t).m
	w, root := newTestNodesWork(m)
	sub := w.getNewSuperblock()
	sub.parent = root
	realBefore, miniBefore := root.realNum, root.miniNum

	e := w.mesh.CreateHEdge(w.mesh.CreateVertex(0, 0))
	sub.LinkHEdge(e)
	if sub.miniNum != 1 || sub.realNum != 0 || sub.hEdges != e || e.block != sub {
		t.Errorf("LinkHEdge did not link a mini half-edge into its block\n")
	}
	if root.realNum != realBefore || root.miniNum != miniBefore {
		t.Errorf("LinkHEdge changed the parent's counts\n")
	}
	sub.IncHEdgeCounts(false)
	if sub.miniNum != 2 || root.miniNum != miniBefore+1 {
		t.Errorf("IncHEdgeCounts did not reach the parent\n")
	}
	if sub.PopHEdge() != e || sub.hEdges != nil || e.block != nil {
		t.Errorf("PopHEdge did not take the half-edge back\n")
	}
}
