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
	"testing"
)

func TestInterceptVector(t *testing.T) {
	trace := DivLine{X: 0, Y: 32, DX: 128, DY: 0}
	tests := []struct {
		line DivLine
		want float64
	}{
		{DivLine{X: 64, Y: 0, DX: 0, DY: 64}, 0.5},
		{DivLine{X: 64, Y: 64, DX: 0, DY: -64}, 0.5},
		{DivLine{X: 0, Y: 0, DX: 32, DY: 32}, 0.25},
		{DivLine{X: 0, Y: 0, DX: 64, DY: 0}, 0},
	}
	for _, tt := range tests {
		if got := interceptVector(&trace, &tt.line); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("interceptVector(%+v) = %v, want %v\n", tt.line, got, tt.want)
		}
	}
}

func TestDivLineNormalPointsRight(t *testing.T) {
	for _, dl := range []DivLine{
		{X: 0, Y: 0, DX: 0, DY: 64},
		{X: 10, Y: 10, DX: -32, DY: 5},
		{X: -4, Y: 7, DX: 3, DY: -9},
	} {
		p := dl.Origin().Add(dl.Normal())
		if side := pointOnDivLineSide(p[0], p[1], &dl); side != 0 {
			t.Errorf("normal of %+v points to side %d, want the right side\n", dl, side)
		}
		if n := dl.Normal(); n.Dot(dl.Dir()) != 0 || n.Len() != dl.Dir().Len() {
			t.Errorf("normal %v of %+v is not the direction turned\n", n, dl)
		}
	}
}
