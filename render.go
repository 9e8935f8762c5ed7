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
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Debug picture of a built map: blockmap cells shaded by how many objects
// they hold, the grid, the linedefs and optionally the segs

const RENDER_TITLE_HEIGHT = 18

var (
	colorBackground = color.NRGBA{0x10, 0x10, 0x18, 0xff}
	colorGrid       = color.NRGBA{0x30, 0x30, 0x48, 0xff}
	colorCellFull   = color.NRGBA{0x90, 0x20, 0x20, 0xff}
	colorOneSided   = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	colorTwoSided   = color.NRGBA{0x80, 0x80, 0x80, 0xff}
	colorPolyobj    = color.NRGBA{0x40, 0xc0, 0xff, 0xff}
	colorSeg        = color.NRGBA{0x40, 0xff, 0x40, 0xff}
	colorMiniseg    = color.NRGBA{0x20, 0x80, 0x20, 0xff}
	colorTitle      = color.NRGBA{0xff, 0xff, 0xa0, 0xff}
)

// The part of a blockmap the renderer needs
type occupancyGrid interface {
	Dimensions() (int, int)
	Bounds() AABoxf
	BlockSize() float64
	NumInBlock(cx, cy int) int
}

func pickOccupancyGrid(m *GameMap, kind string) (occupancyGrid, error) {
	switch kind {
	case "", "linedef":
		return m.LineDefBlockmap(), nil
	case "mobj":
		return m.MobjBlockmap(), nil
	case "subsector":
		return m.SubsectorBlockmap(), nil
	default:
		return nil, fmt.Errorf("unknown blockmap %q (want linedef, mobj or subsector)", kind)
	}
}

type mapRenderer struct {
	img    *image.NRGBA
	origin [2]float64 // world position of the image's bottom left corner
	scale  float64    // map units per pixel
	height int        // of the map area, without the title
}

// Converts to image space, y goes down there
func (r *mapRenderer) toImage(x, y float64) (int, int) {
	px := int(math.Floor((x - r.origin[0]) / r.scale))
	py := RENDER_TITLE_HEIGHT + r.height - 1 - int(math.Floor((y-r.origin[1])/r.scale))
	return px, py
}

// Bresenham
func (r *mapRenderer) line(x0, y0, x1, y1 int, c color.Color) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy > 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		r.img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (r *mapRenderer) worldLine(a, b [2]float64, c color.Color) {
	x0, y0 := r.toImage(a[0], a[1])
	x1, y1 := r.toImage(b[0], b[1])
	r.line(x0, y0, x1, y1, c)
}

// One pixel per cell, shaded between background and colorCellFull by the
// share of the fullest cell
func occupancyImage(grid occupancyGrid) *image.NRGBA {
	w, h := grid.Dimensions()
	most := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if n := grid.NumInBlock(x, y); n > most {
				most = n
			}
		}
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := colorBackground
			if n := grid.NumInBlock(x, y); n > 0 && most > 0 {
				c = mixColor(colorBackground, colorCellFull,
					0.25+0.75*float64(n)/float64(most))
			}
			// row 0 is the bottom of the map
			img.SetNRGBA(x, h-1-y, c)
		}
	}
	return img
}

func mixColor(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.NRGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 0xff}
}

// Renders the map at scale map units per pixel. kind picks the blockmap whose
// cells are shaded
func RenderMap(m *GameMap, kind string, scale float64, segs bool) (image.Image, error) {
	if m.IsEditable() {
		return nil, fmt.Errorf("map %s is not built", m.Name())
	}
	grid, err := pickOccupancyGrid(m, kind)
	if err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1
	}
	bounds := grid.Bounds()
	w := int(math.Ceil(bounds.Width() / scale))
	h := int(math.Ceil(bounds.Height() / scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	r := &mapRenderer{
		img:    image.NewNRGBA(image.Rect(0, 0, w, h+RENDER_TITLE_HEIGHT)),
		origin: [2]float64{bounds.MinX, bounds.MinY},
		scale:  scale,
		height: h,
	}
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(colorBackground),
		image.Point{}, draw.Src)

	// cells are scaled up without smoothing, so each stays a flat square
	cw, ch := grid.Dimensions()
	mapArea := image.Rect(0, RENDER_TITLE_HEIGHT, w, h+RENDER_TITLE_HEIGHT)
	draw.NearestNeighbor.Scale(r.img, mapArea, occupancyImage(grid),
		image.Rect(0, 0, cw, ch), draw.Src, nil)

	size := grid.BlockSize()
	for cx := 0; cx <= cw; cx++ {
		x := bounds.MinX + float64(cx)*size
		r.worldLine([2]float64{x, bounds.MinY}, [2]float64{x, bounds.MaxY}, colorGrid)
	}
	for cy := 0; cy <= ch; cy++ {
		y := bounds.MinY + float64(cy)*size
		r.worldLine([2]float64{bounds.MinX, y}, [2]float64{bounds.MaxX, y}, colorGrid)
	}

	for _, line := range m.LineDefs() {
		c := colorOneSided
		if line.IsPolyobjLine() {
			c = colorPolyobj
		} else if line.HasBack() {
			c = colorTwoSided
		}
		r.worldLine(line.V1().Pos, line.V2().Pos, c)
	}

	if segs {
		for _, seg := range m.Segs() {
			c := colorSeg
			if seg.LineDef() == nil {
				c = colorMiniseg
			}
			r.worldLine(seg.Vertex(0).Pos, seg.Vertex(1).Pos, c)
		}
	}

	r.title(fmt.Sprintf("%s %s %dx%d", m.Name(), kindName(kind), cw, ch))
	return r.img, nil
}

func kindName(kind string) string {
	if kind == "" {
		return "linedef"
	}
	return kind
}

func (r *mapRenderer) title(s string) {
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(colorTitle),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(3, 13),
	}
	d.DrawString(s)
}

func EncodeImage(w io.Writer, img image.Image, format int) error {
	switch format {
	case RENDER_PNG:
		return png.Encode(w, img)
	case RENDER_WEBP:
		return nativewebp.Encode(w, img, nil)
	case RENDER_TGA:
		return tga.Encode(w, img)
	default:
		return fmt.Errorf("unknown image format %d", format)
	}
}

// Writes img to fileName. format < 0 takes the format from the extension
func WriteImage(fileName string, img image.Image, format int) error {
	if format < 0 {
		var err error
		format, err = RenderFormatFromString(filepath.Ext(fileName))
		if err != nil {
			return err
		}
	}
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	if err := EncodeImage(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", fileName, err)
	}
	return f.Close()
}
