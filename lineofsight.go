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
	"math"
)

// Line of sight checks walk the BSP from the start point to the end point,
// narrowing a vertical slope window at every linedef crossed

// Line sight flags
const (
	LS_PASSLEFT      = 0x1  // ray may cross one-sided lines from the left (back)
	LS_PASSOVER      = 0x2  // ray may cross over sectors
	LS_PASSUNDER     = 0x4  // ray may cross under sectors
	LS_PASSOVER_SKY  = 0x8  // ray may cross over sky ceilings
	LS_PASSUNDER_SKY = 0x10 // ray may cross under sky floors
	LS_PASSMIDDLE    = 0x20 // ray may cross middle textures
)

// Ranges of a linedef the ray has to get past
const (
	rangeTop    = 0x1
	rangeBottom = 0x2
	rangeMiddle = 0x4
)

type losData struct {
	flags       int
	trace       DivLine
	startZ      float64
	topSlope    float64
	bottomSlope float64
	bbox        AABoxf
	to          [3]float64
	stamp       int
}

// Returns true if nothing blocks the view from "from" to "to". The slopes
// are relative to to[2] and give the vertical extent of the target
func (m *GameMap) CheckLineSight(from, to [3]float64, bottomSlope, topSlope float64,
	flags int) bool {
	if m.root == nil {
		return true
	}
	los := &losData{
		flags:       flags,
		startZ:      from[2],
		topSlope:    to[2] + topSlope - from[2],
		bottomSlope: to[2] + bottomSlope - from[2],
		trace: DivLine{
			X:  from[0],
			Y:  from[1],
			DX: to[0] - from[0],
			DY: to[1] - from[1],
		},
		bbox: EmptyAABoxf(),
		to:   to,
	}
	los.bbox.AddPoint(from[0], from[1])
	los.bbox.AddPoint(to[0], to[1])
	los.stamp = m.validCount.Next()
	return los.crossBSPNode(m.root)
}

// Returns true if the trace crosses the element without being blocked
func (los *losData) crossBSPNode(elem BspElement) bool {
	for {
		node, ok := elem.(*Node)
		if !ok {
			break
		}
		side := node.PointOnSide(los.trace.X, los.trace.Y)
		if side == node.PointOnSide(los.to[0], los.to[1]) {
			// the whole trace is on one side, descend
			elem = node.children[side]
			continue
		}
		// cross the starting side, then the ending side
		if !los.crossBSPNode(node.children[side]) {
			return false
		}
		elem = node.children[side^1]
	}
	return los.crossSubsector(elem.(*Subsector))
}

func (los *losData) crossSubsector(ss *Subsector) bool {
	if po := ss.polyobj; po != nil {
		for _, line := range po.lines {
			if line.validCount == los.stamp {
				continue
			}
			line.validCount = los.stamp
			if !los.crossLineDef(line, FRONT) {
				return false
			}
		}
	}

	for _, seg := range ss.segs {
		line := seg.lineDef
		if line == nil || seg.sideDef == nil || line.validCount == los.stamp {
			continue
		}
		line.validCount = los.stamp
		if !los.crossLineDef(line, seg.side) {
			return false
		}
	}
	return true
}

// Does the trace cross line on the XY plane?
func (los *losData) interceptLineDef(line *LineDef) bool {
	if !line.BBox.Intersects(los.bbox) {
		return false
	}
	if pointOnDivLineSide(line.v[0].Pos[0], line.v[0].Pos[1], &los.trace) ==
		pointOnDivLineSide(line.v[1].Pos[0], line.v[1].Pos[1], &los.trace) {
		return false
	}
	if line.PointOnSide(los.trace.X, los.trace.Y) ==
		line.PointOnSide(los.to[0], los.to[1]) {
		return false
	}
	return true
}

// Returns false if line blocks the view
func (los *losData) crossLineDef(line *LineDef, side int) bool {
	if !los.interceptLineDef(line) {
		return true
	}

	if line.sides[side] == nil {
		// back side of a one-sided window
		return true
	}

	fsec := line.SectorOn(side)
	var bsec *Sector
	noBack := !line.HasBack()
	if !noBack {
		bsec = line.SectorOn(side ^ 1)
	}
	if fsec == nil || (!noBack && bsec == nil) {
		return true
	}

	if !noBack && los.flags&LS_PASSLEFT == 0 &&
		(!(bsec.FloorHeight() < fsec.CeilingHeight()) ||
			!(fsec.FloorHeight() < bsec.CeilingHeight())) {
		noBack = true
	}

	if noBack {
		if los.flags&LS_PASSLEFT != 0 &&
			side != line.PointOnSide(los.trace.X, los.trace.Y) {
			// crossed from left to right
			return true
		}
		if los.flags&(LS_PASSOVER|LS_PASSUNDER) == 0 {
			return false
		}
	}

	ranges := 0
	if noBack {
		// zero height back side goes in the top range
		ranges |= rangeTop
	} else {
		if bsec.FloorHeight() > fsec.FloorHeight() {
			ranges |= rangeBottom
		}
		if bsec.CeilingHeight() < fsec.CeilingHeight() {
			ranges |= rangeTop
		}
		if los.flags&LS_PASSMIDDLE == 0 {
			ranges |= rangeMiddle
		}
	}
	if ranges == 0 {
		return true
	}

	lineDL := line.DivLine()
	frac := interceptVector(&los.trace, &lineDL)

	if ranges&rangeMiddle != 0 {
		surface := line.sides[FRONT].Middle()
		if surface.IsOpaque() && (los.flags&LS_PASSLEFT == 0 ||
			side == line.PointOnSide(los.trace.X, los.trace.Y)) {
			bottom := math.Max(fsec.FloorHeight(), bsec.FloorHeight())
			top := math.Min(fsec.CeilingHeight(), bsec.CeilingHeight())
			if top > bottom {
				if !(los.bottomSlope > (top-los.startZ)/frac) ||
					los.topSlope < (bottom-los.startZ)/frac {
					return false
				}
			}
		}
	}

	if ranges&^rangeMiddle == 0 {
		return true
	}

	if !noBack &&
		((los.flags&LS_PASSOVER_SKY != 0 &&
			fsec.CeilingIsSky() && bsec.CeilingIsSky() &&
			los.bottomSlope > (bsec.CeilingHeight()-los.startZ)/frac) ||
			(los.flags&LS_PASSUNDER_SKY != 0 &&
				fsec.FloorIsSky() && bsec.FloorIsSky() &&
				los.topSlope < (bsec.FloorHeight()-los.startZ)/frac)) {
		return true
	}

	if los.flags&LS_PASSOVER != 0 &&
		los.bottomSlope > (fsec.CeilingHeight()-los.startZ)/frac {
		return true
	}

	if los.flags&LS_PASSUNDER != 0 &&
		los.topSlope < (fsec.FloorHeight()-los.startZ)/frac {
		return true
	}

	if ranges&rangeTop != 0 {
		top := fsec.CeilingHeight()
		if !noBack {
			top = bsec.CeilingHeight()
		}
		slope := (top - los.startZ) / frac
		floorSlope := (fsec.FloorHeight() - los.startZ) / frac

		if ((los.topSlope > slope) != (noBack && los.flags&LS_PASSOVER == 0)) ||
			(noBack && los.topSlope > floorSlope) {
			los.topSlope = slope
		}
		if ((los.bottomSlope > slope) != (noBack && los.flags&LS_PASSUNDER == 0)) ||
			(noBack && los.bottomSlope > floorSlope) {
			los.bottomSlope = slope
		}
	}

	if ranges&rangeBottom != 0 {
		bottom := fsec.FloorHeight()
		if !noBack {
			bottom = bsec.FloorHeight()
		}
		slope := (bottom - los.startZ) / frac
		if los.bottomSlope < slope {
			los.bottomSlope = slope
		}
		if los.topSlope < slope {
			los.topSlope = slope
		}
	}

	return los.topSlope > los.bottomSlope
}
