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

// Map objects, each linked into the single cell that holds its origin

type MobjBlockmap struct {
	objectBlockmap[*Mobj]
	validCount *ValidCounter
}

func NewMobjBlockmap(bounds AABoxf, blockSize float64, vc *ValidCounter) *MobjBlockmap {
	if vc == nil {
		vc = &ValidCounter{}
	}
	return &MobjBlockmap{
		objectBlockmap: newObjectBlockmap[*Mobj](bounds, blockSize),
		validCount:     vc,
	}
}

// Returns false if mo is linked already
func (bm *MobjBlockmap) Link(mo *Mobj) bool {
	return bm.link(mo)
}

// Returns false if mo was not linked
func (bm *MobjBlockmap) Unlink(mo *Mobj) bool {
	return bm.unlink(mo)
}

// Moves mo to the cell of its current position
func (bm *MobjBlockmap) Relink(mo *Mobj) {
	bm.unlink(mo)
	bm.link(mo)
}

func (bm *MobjBlockmap) IsLinked(mo *Mobj) bool {
	return mo.link.linked
}

func (bm *MobjBlockmap) NumInBlock(cx, cy int) int {
	return bm.numInBlock(cx, cy)
}

func (bm *MobjBlockmap) stamped(stamp int, fn func(*Mobj) bool) func(*Mobj) bool {
	return func(mo *Mobj) bool {
		if mo.validCount == stamp {
			return true
		}
		mo.validCount = stamp
		return fn(mo)
	}
}

// fn returns false to stop
func (bm *MobjBlockmap) Iterate(cx, cy int, fn func(*Mobj) bool) bool {
	return bm.iterate(cx, cy, bm.stamped(bm.validCount.Next(), fn))
}

func (bm *MobjBlockmap) BoxIterate(box AABoxf, fn func(*Mobj) bool) bool {
	return bm.boxIterate(box, bm.stamped(bm.validCount.Next(), fn))
}

// Mobjs in the cells along the path from-to, nearest cells first
func (bm *MobjBlockmap) PathTraverse(from, to [2]float64, fn func(*Mobj) bool) bool {
	visit := bm.stamped(bm.validCount.Next(), fn)
	return bm.walkPath(from, to, func(cx, cy int) bool {
		return bm.iterate(cx, cy, visit)
	})
}
