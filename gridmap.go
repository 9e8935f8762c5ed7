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

// A fixed size two dimensional array of cells. Every blockmap keeps its
// contents in one of these

type Gridmap[T any] struct {
	width  int
	height int
	cells  []T
}

func NewGridmap[T any](width, height int) *Gridmap[T] {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Gridmap[T]{
		width:  width,
		height: height,
		cells:  make([]T, width*height),
	}
}

func (g *Gridmap[T]) Width() int {
	return g.width
}

func (g *Gridmap[T]) Height() int {
	return g.height
}

func (g *Gridmap[T]) InRange(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// Returns nil outside of the grid
func (g *Gridmap[T]) Cell(x, y int) *T {
	if !g.InRange(x, y) {
		return nil
	}
	return &g.cells[y*g.width+x]
}

// Out of range writes are ignored
func (g *Gridmap[T]) Set(x, y int, value T) {
	if c := g.Cell(x, y); c != nil {
		*c = value
	}
}

// Calls fn for every cell in the inclusive box. The high ends are clamped to
// the last cell, the low ends to 0. Returns false if fn stopped the walk
func (g *Gridmap[T]) IterateBox(xl, xh, yl, yh int, fn func(x, y int, cell *T) bool) bool {
	if xl < 0 {
		xl = 0
	}
	if yl < 0 {
		yl = 0
	}
	if xh >= g.width {
		xh = g.width - 1
	}
	if yh >= g.height {
		yh = g.height - 1
	}
	for y := yl; y <= yh; y++ {
		for x := xl; x <= xh; x++ {
			if !fn(x, y, &g.cells[y*g.width+x]) {
				return false
			}
		}
	}
	return true
}

// Resets every cell to the zero value
func (g *Gridmap[T]) Clear() {
	var zero T
	for i := range g.cells {
		g.cells[i] = zero
	}
}
