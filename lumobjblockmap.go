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

// Light sources. Same life cycle as particles

type LumobjBlockmap struct {
	objectBlockmap[*Lumobj]
}

func NewLumobjBlockmap(bounds AABoxf, blockSize float64) *LumobjBlockmap {
	return &LumobjBlockmap{
		objectBlockmap: newObjectBlockmap[*Lumobj](bounds, blockSize),
	}
}

func (bm *LumobjBlockmap) Link(lum *Lumobj) bool {
	return bm.link(lum)
}

func (bm *LumobjBlockmap) Unlink(lum *Lumobj) bool {
	return bm.unlink(lum)
}

func (bm *LumobjBlockmap) Empty() {
	bm.empty()
}

func (bm *LumobjBlockmap) NumInBlock(cx, cy int) int {
	return bm.numInBlock(cx, cy)
}

func (bm *LumobjBlockmap) Iterate(cx, cy int, fn func(*Lumobj) bool) bool {
	return bm.iterate(cx, cy, fn)
}

// Only lumobjs of the given type (LT_OMNI or LT_PLANE), or all of them if
// typ is negative
func (bm *LumobjBlockmap) BoxIterate(box AABoxf, typ int, fn func(*Lumobj) bool) bool {
	return bm.boxIterate(box, func(lum *Lumobj) bool {
		if typ >= 0 && lum.Type != typ {
			return true
		}
		return fn(lum)
	})
}
