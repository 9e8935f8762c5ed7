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

// Subsectors are linked into every cell their bounding box touches. The
// blockmap is built once, after the BSP

type SubsectorBlockmap struct {
	blockmapBase
	grid       *Gridmap[[]*Subsector]
	validCount *ValidCounter
}

func NewSubsectorBlockmap(bounds AABoxf, blockSize float64, vc *ValidCounter) *SubsectorBlockmap {
	base := newBlockmapBase(bounds, blockSize)
	if vc == nil {
		vc = &ValidCounter{}
	}
	return &SubsectorBlockmap{
		blockmapBase: base,
		grid:         NewGridmap[[]*Subsector](base.width, base.height),
		validCount:   vc,
	}
}

func CreateSubsectorBlockmap(subsectors []*Subsector, bounds AABoxf,
	blockSize float64, vc *ValidCounter) *SubsectorBlockmap {
	bm := NewSubsectorBlockmap(bounds, blockSize, vc)
	for _, ss := range subsectors {
		bm.Link(ss)
	}
	return bm
}

func (bm *SubsectorBlockmap) Link(ss *Subsector) {
	bb := bm.BoxToBlocks(ss.BBox)
	if bb.IsEmpty() {
		return
	}
	bm.grid.IterateBox(bb.MinX, bb.MaxX, bb.MinY, bb.MaxY,
		func(_, _ int, cell *[]*Subsector) bool {
			*cell = append(*cell, ss)
			return true
		})
}

func (bm *SubsectorBlockmap) NumInBlock(cx, cy int) int {
	cell := bm.grid.Cell(cx, cy)
	if cell == nil {
		return 0
	}
	return len(*cell)
}

func (bm *SubsectorBlockmap) Iterate(cx, cy int, fn func(*Subsector) bool) bool {
	cell := bm.grid.Cell(cx, cy)
	if cell == nil {
		return true
	}
	for _, ss := range *cell {
		if !fn(ss) {
			return false
		}
	}
	return true
}

// Calls fn once for every subsector in the cells box touches. A non-nil
// sector skips subsectors of other sectors. With exact set, subsectors whose
// bounding box misses box are skipped as well
func (bm *SubsectorBlockmap) BoxIterate(box AABoxf, sector *Sector, exact bool,
	fn func(*Subsector) bool) bool {
	bb := bm.BoxToBlocks(box)
	if bb.IsEmpty() {
		return true
	}
	stamp := bm.validCount.Next()
	return bm.grid.IterateBox(bb.MinX, bb.MaxX, bb.MinY, bb.MaxY,
		func(_, _ int, cell *[]*Subsector) bool {
			for _, ss := range *cell {
				if ss.validCount == stamp {
					continue
				}
				ss.validCount = stamp
				if sector != nil && ss.sector != sector {
					continue
				}
				if exact && !ss.BBox.Intersects(box) {
					continue
				}
				if !fn(ss) {
					return false
				}
			}
			return true
		})
}
