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
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestRenderFormatFromString(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"png", RENDER_PNG, true},
		{".WebP", RENDER_WEBP, true},
		{"tga", RENDER_TGA, true},
		{"bmp", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := RenderFormatFromString(tt.in)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Errorf("RenderFormatFromString(%q) = %d, %v\n", tt.in, got, err)
		}
	}
	if ext := RenderFormatExt(RENDER_TGA); ext != ".tga" {
		t.Errorf("RenderFormatExt(RENDER_TGA) = %s\n", ext)
	}
}

func TestRenderNeedsBuiltMap(t *testing.T) {
	if _, err := RenderMap(newSquareRoom(t).m, "linedef", 4, false); err == nil {
		t.Errorf("map that is not built was rendered\n")
	}
	m := newSquareRoom(t).build()
	if _, err := RenderMap(m, "lumobj", 4, false); err == nil {
		t.Errorf("unknown blockmap kind was accepted\n")
	}
}

func TestRenderSquareRoom(t *testing.T) {
	m := newSquareRoom(t).build()
	img, err := RenderMap(m, "linedef", 4, true)
	if err != nil {
		t.Fatalf("RenderMap failed: %s\n", err)
	}
	// 128 units of blockmap at 4 units per pixel, plus the title
	b := img.Bounds()
	if b.Dx() != 32 || b.Dy() != 32+RENDER_TITLE_HEIGHT {
		t.Fatalf("image is %dx%d, want 32x%d\n", b.Dx(), b.Dy(),
			32+RENDER_TITLE_HEIGHT)
	}
	// the west wall at x = 0, halfway up
	got := color.NRGBAModel.Convert(img.At(2, 39)).(color.NRGBA)
	if got != colorSeg && got != colorOneSided {
		t.Errorf("pixel on the west wall is %v\n", got)
	}
	// cell holds every line, so it is shaded fully
	got = color.NRGBAModel.Convert(img.At(16, 30)).(color.NRGBA)
	if got != colorCellFull {
		t.Errorf("pixel inside the cell is %v, want %v\n", got, colorCellFull)
	}

	for _, format := range []int{RENDER_PNG, RENDER_WEBP, RENDER_TGA} {
		var buf bytes.Buffer
		if err := EncodeImage(&buf, img, format); err != nil {
			t.Errorf("EncodeImage(%s) failed: %s\n", RenderFormatExt(format), err)
			continue
		}
		if buf.Len() == 0 {
			t.Errorf("EncodeImage(%s) wrote nothing\n", RenderFormatExt(format))
		}
		if format == RENDER_PNG {
			decoded, err := png.Decode(&buf)
			if err != nil {
				t.Fatalf("decoding the png: %s\n", err)
			}
			if decoded.Bounds() != b {
				t.Errorf("decoded png is %v, want %v\n", decoded.Bounds(), b)
			}
		}
	}
	if err := EncodeImage(&bytes.Buffer{}, img, 42); err == nil {
		t.Errorf("unknown format was encoded\n")
	}
}

func TestWriteImageByExtension(t *testing.T) {
	m := newSquareRoom(t).build()
	m.SpawnMobj(32, 32, 0, THING_RADIUS, THING_HEIGHT, 1)
	img, err := RenderMap(m, "mobj", 8, false)
	if err != nil {
		t.Fatalf("RenderMap failed: %s\n", err)
	}
	dir := t.TempDir()
	fileName := filepath.Join(dir, "square.webp")
	if err := WriteImage(fileName, img, -1); err != nil {
		t.Fatalf("WriteImage failed: %s\n", err)
	}
	if st, err := os.Stat(fileName); err != nil || st.Size() == 0 {
		t.Errorf("%s was not written: %v\n", fileName, err)
	}
	if err := WriteImage(filepath.Join(dir, "square.gif"), img, -1); err == nil {
		t.Errorf("unknown extension was accepted\n")
	}
}
