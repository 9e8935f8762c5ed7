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

// Particles are relinked every frame: Empty, then Link each live one

type ParticleBlockmap struct {
	objectBlockmap[*Particle]
}

func NewParticleBlockmap(bounds AABoxf, blockSize float64) *ParticleBlockmap {
	return &ParticleBlockmap{
		objectBlockmap: newObjectBlockmap[*Particle](bounds, blockSize),
	}
}

func (bm *ParticleBlockmap) Link(p *Particle) bool {
	return bm.link(p)
}

func (bm *ParticleBlockmap) Unlink(p *Particle) bool {
	return bm.unlink(p)
}

func (bm *ParticleBlockmap) Empty() {
	bm.empty()
}

func (bm *ParticleBlockmap) NumInBlock(cx, cy int) int {
	return bm.numInBlock(cx, cy)
}

func (bm *ParticleBlockmap) Iterate(cx, cy int, fn func(*Particle) bool) bool {
	return bm.iterate(cx, cy, fn)
}

func (bm *ParticleBlockmap) BoxIterate(box AABoxf, fn func(*Particle) bool) bool {
	return bm.boxIterate(box, fn)
}
