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

	"github.com/go-gl/mathgl/mgl64"
)

// Floating point geometry shared by the node builder, the blockmaps and the
// sight checker.

// Axis-aligned bounding box. An empty box has Min > Max
type AABoxf struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func EmptyAABoxf() AABoxf {
	return AABoxf{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
}

func (b AABoxf) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

func (b *AABoxf) AddPoint(x, y float64) {
	if x < b.MinX {
		b.MinX = x
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if y > b.MaxY {
		b.MaxY = y
	}
}

func (b *AABoxf) AddBox(o AABoxf) {
	if o.IsEmpty() {
		return
	}
	b.AddPoint(o.MinX, o.MinY)
	b.AddPoint(o.MaxX, o.MaxY)
}

// Inclusive overlap test
func (b AABoxf) Intersects(o AABoxf) bool {
	return !(o.MinX > b.MaxX || o.MaxX < b.MinX ||
		o.MinY > b.MaxY || o.MaxY < b.MinY)
}

func (b AABoxf) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

func (b AABoxf) Width() float64 {
	return b.MaxX - b.MinX
}

func (b AABoxf) Height() float64 {
	return b.MaxY - b.MinY
}

// Line through (X,Y) with direction (DX,DY). Used for node partitions, line
// of sight traces and linedef crossing tests
type DivLine struct {
	X, Y   float64
	DX, DY float64
}

func (d DivLine) Origin() mgl64.Vec2 { return mgl64.Vec2{d.X, d.Y} }
func (d DivLine) Dir() mgl64.Vec2    { return mgl64.Vec2{d.DX, d.DY} }

// Direction turned a quarter clockwise, pointing to the line's right side
func (d DivLine) Normal() mgl64.Vec2 { return mgl64.Vec2{d.DY, -d.DX} }

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Returns 0 if the point is on the right (front) side of the line, 1 if on
// the left (back) side. Points exactly on the line go to the left
func pointOnDivLineSide(x, y float64, line *DivLine) int {
	if line.DX == 0 {
		if x <= line.X {
			return b2i(line.DY > 0)
		}
		return b2i(line.DY < 0)
	}
	if line.DY == 0 {
		if y <= line.Y {
			return b2i(line.DX < 0)
		}
		return b2i(line.DX > 0)
	}
	left := line.DY * (x - line.X)
	right := (y - line.Y) * line.DX
	if right < left {
		return 0
	}
	return 1
}

// Returns the fractional intercept point along trace where it crosses line.
// 0 if they are parallel
func interceptVector(trace, line *DivLine) float64 {
	n := line.Normal()
	den := n.Dot(trace.Dir())
	if den == 0 {
		return 0
	}
	return n.Dot(line.Origin().Sub(trace.Origin())) / den
}

// Angle of a direction vector in degrees, [0, 360)
func computeAngle(dx, dy float64) float64 {
	if dx == 0 {
		if dy > 0 {
			return 90.0
		}
		return 270.0
	}
	angle := math.Atan2(dy, dx) * 180.0 / math.Pi
	if angle < 0 {
		angle += 360.0
	}
	return angle
}

const (
	ST_HORIZONTAL = iota
	ST_VERTICAL
	ST_POSITIVE
	ST_NEGATIVE
)

func slopeTypeOf(dx, dy float64) int {
	if dx == 0 {
		return ST_VERTICAL
	}
	if dy == 0 {
		return ST_HORIZONTAL
	}
	if dy/dx > 0 {
		return ST_POSITIVE
	}
	return ST_NEGATIVE
}

// Liang-Barsky clip of a segment against a box. Returns false if nothing of
// the segment is inside
func clipSegmentToBox(from, to [2]float64, box AABoxf) ([2]float64, [2]float64, bool) {
	t0, t1 := 0.0, 1.0
	dx := to[0] - from[0]
	dy := to[1] - from[1]
	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{from[0] - box.MinX, box.MaxX - from[0],
		from[1] - box.MinY, box.MaxY - from[1]}
	for i := 0; i < 4; i++ {
		if p[i] == 0 {
			if q[i] < 0 {
				return from, to, false
			}
			continue
		}
		r := q[i] / p[i]
		if p[i] < 0 {
			if r > t1 {
				return from, to, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return from, to, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	a := [2]float64{from[0] + t0*dx, from[1] + t0*dy}
	b := [2]float64{from[0] + t1*dx, from[1] + t1*dy}
	return a, b, true
}
