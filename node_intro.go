// Copyright (C) 2022-2025, VigilantDoomer
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

// node_intro.go
// Contains stuff executed before BSP partition evaluation and division starts,
// such as creation of initial half-edges from linedefs.
// NOTE that it is nodegen.go (and not this file) that contains the actual
// node generator start

// Lines longer than this on an axis are reported, they tend to cause
// precision trouble in the engine
const LONG_LINE_AXIS = 10000.0

// ... unless they are not actually long, just oddly placed
const LONG_LINE_MAXLEN = 3000.0

// Creates the twin half-edges of each linedef and puts the ones that have a
// sector into the root block. Polyobj lines are left out, they move and so
// can't be part of the BSP
func (w *NodesWork) createInitialHEdges(root *Superblock) {
	for _, line := range w.input.lines {
		if line.IsPolyobjLine() {
			continue
		}

		v0 := line.v[0]
		v1 := line.v[1]
		dx := v1.Pos[0] - v0.Pos[0]
		dy := v1.Pos[1] - v0.Pos[1]

		// ignore zero-length lines
		if math.Abs(dx) < DIST_EPSILON && math.Abs(dy) < DIST_EPSILON {
			w.mlog.Verbose(1, "Linedef #%d has zero length, skipping it\n",
				line.index)
			continue
		}

		// check for Humungously long lines
		if (math.Abs(dx) >= LONG_LINE_AXIS || math.Abs(dy) >= LONG_LINE_AXIS) &&
			line.Length <= LONG_LINE_MAXLEN {
			w.mlog.Verbose(1, "Linedef #%d is VERY long, it may cause problems\n",
				line.index)
		}

		front := w.mesh.CreateHEdge(v0)
		back := w.mesh.CreateHEdge(v1)
		front.twin = back
		back.twin = front

		front.lineDef = line
		front.sourceLine = line
		front.side = FRONT
		front.sector = line.SectorOn(FRONT)

		back.lineDef = line
		back.sourceLine = line
		back.side = BACK
		back.sector = line.SectorOn(BACK)

		front.UpdateGeometry()
		back.UpdateGeometry()

		line.hEdges[FRONT] = front
		line.hEdges[BACK] = back

		if front.sector != nil {
			root.AddHEdgeToSuper(front)
		} else {
			w.mlog.Verbose(1, "Linedef #%d has no front sector\n", line.index)
		}
		if back.sector != nil {
			root.AddHEdgeToSuper(back)
		}

		w.addLineTips(v0, v1, back.sector, front.sector)
	}
	w.totals.numHEdges = w.mesh.NumHEdges()
}
