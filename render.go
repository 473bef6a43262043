package wfc

import (
	"image"

	"github.com/fogleman/gg"
)

// Render draws the grid using the catalog's tile images. Cells that never
// collapsed are drawn grey (brighter = more options left), cells with no
// options left are drawn red.
func Render(g *Grid, tiles []*Tile) image.Image {
	s := 1
	if len(tiles) > 0 {
		s = tiles[0].Size()
	}

	dc := gg.NewContext(g.Width*s, g.Height*s)
	dc.SetRGB255(0, 0, 0)
	dc.Clear()

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := g.At(x, y)
			px, py := x*s, y*s

			if c.Collapsed && c.Resolved < len(tiles) {
				dc.DrawImage(tiles[c.Resolved].Image, px, py)
				continue
			}

			e := c.Entropy()
			if e == 0 {
				dc.SetRGB255(255, 0, 0)
			} else {
				v := shade(e, len(tiles))
				dc.SetRGB255(v, v, v)
			}
			dc.DrawRectangle(float64(px), float64(py), float64(s), float64(s))
			dc.Fill()
		}
	}

	return dc.Image()
}

// shade maps entropy [1..n] onto a grey level [40..220]
func shade(e, n int) int {
	if n <= 1 {
		return 40
	}
	v := 40 + (e-1)*180/(n-1)
	if v > 220 {
		v = 220
	}
	return v
}
