package wfc

import (
	"image"
	"image/color"
	"math/rand"
)

// atlasOf builds an atlas where tile (col,row) is filled with colours[row][col]
func atlasOf(s int, colours [][]color.NRGBA) *image.NRGBA {
	rows := len(colours)
	cols := len(colours[0])
	img := image.NewNRGBA(image.Rect(0, 0, cols*s, rows*s))
	for row := range colours {
		for col, c := range colours[row] {
			for y := 0; y < s; y++ {
				for x := 0; x < s; x++ {
					img.SetNRGBA(col*s+x, row*s+y, c)
				}
			}
		}
	}
	return img
}

// tileOf builds a catalog tile from rows of pixels
func tileOf(id int, pixels [][]color.NRGBA) *Tile {
	s := len(pixels)
	img := image.NewNRGBA(image.Rect(0, 0, s, s))
	for y := range pixels {
		for x, c := range pixels[y] {
			img.SetNRGBA(x, y, c)
		}
	}
	return &Tile{ID: id, Image: img, hash: hashPixels(img)}
}

// randomAtlas is an atlas of cols×rows tiles of s px drawn from a tiny
// palette, so that plenty of edges match
func randomAtlas(rng *rand.Rand, cols, rows, s int) *image.NRGBA {
	palette := []color.NRGBA{grey(0), grey(100), grey(106)}
	img := image.NewNRGBA(image.Rect(0, 0, cols*s, rows*s))
	for y := 0; y < rows*s; y++ {
		for x := 0; x < cols*s; x++ {
			img.SetNRGBA(x, y, palette[rng.Intn(len(palette))])
		}
	}
	return img
}

func grey(v uint8) color.NRGBA {
	return color.NRGBA{R: v, G: v, B: v, A: 255}
}

// allowEverything returns a table for n tiles where anything goes anywhere
func allowEverything(n int) *AdjacencyTable {
	t := NewAdjacencyTable(n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			for _, d := range Directions {
				t.Allow(a, d, b)
			}
		}
	}
	return t
}

// landCoastSea: land (0) & sea (2) never touch, coast (1) touches anything
func landCoastSea() *AdjacencyTable {
	t := NewAdjacencyTable(3)
	for _, d := range Directions {
		t.Allow(0, d, 0)
		t.Allow(0, d, 1)
		t.Allow(1, d, 1)
		t.Allow(1, d, 2)
		t.Allow(2, d, 2)
	}
	return t
}
