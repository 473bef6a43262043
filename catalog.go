package wfc

import (
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/crypto/blake2b"
)

// candidateTileSizes are tried (in order) when the caller doesn't give us a
// tile size.
var candidateTileSizes = []int{8, 12, 16, 24, 32, 48, 64, 96, 128}

// Hash identifies a tile by the content of its pixels.
type Hash [blake2b.Size256]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Origin records where a tile came from. It's informational only, the
// solver never looks at it.
type Origin struct {
	// source cell in the atlas (in tiles)
	Col int
	Row int

	// clockwise, one of 0, 90, 180, 270
	Rotation int

	// mirrored after rotating; FlipX first, then FlipY
	FlipX bool
	FlipY bool
}

// Tile is a unique square pixel pattern. Tiles are built once per catalog
// and never modified afterwards.
type Tile struct {
	// dense, 0 based index into the catalog
	ID int

	// the tile's pixels, bounds are always (0,0)-(size,size)
	Image *image.NRGBA

	Origin Origin

	hash Hash
}

// Hash returns the content hash of the tile.
func (t *Tile) Hash() Hash {
	return t.hash
}

// Size is the edge length of the (square) tile in pixels.
func (t *Tile) Size() int {
	return t.Image.Rect.Dx()
}

// rgba returns the raw channels of the pixel at x,y
func (t *Tile) rgba(x, y int) []uint8 {
	i := t.Image.PixOffset(x, y)
	return t.Image.Pix[i : i+4 : i+4]
}

// CatalogOptions controls how an atlas is sliced into tiles.
type CatalogOptions struct {
	// edge length in pixels, <= 0 means DetectTileSize
	TileSize int

	AllowRotations bool
	AllowFlipX     bool
	AllowFlipY     bool
}

// DetectTileSize guesses a tile size for an atlas of the given dimensions.
// The first candidate size dividing both evenly wins, otherwise we fall
// back to the greatest common divisor of the two.
func DetectTileSize(width, height int) int {
	for _, s := range candidateTileSizes {
		if width%s == 0 && height%s == 0 {
			return s
		}
	}
	return gcd(width, height)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// variant is a transformed copy of an atlas cell waiting to be deduplicated
type variant struct {
	img    *image.NRGBA
	origin Origin
}

// BuildCatalog slices the atlas into s×s cells (row major, top left first)
// and returns every unique tile found, including rotated & flipped variants
// if allowed. IDs are handed out in the order tiles are first seen.
func BuildCatalog(atlas image.Image, opts CatalogOptions) ([]*Tile, error) {
	bnds := atlas.Bounds()
	width, height := bnds.Dx(), bnds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: image is empty", ErrNoTilesFound)
	}

	s := opts.TileSize
	if s <= 0 {
		s = DetectTileSize(width, height)
	}
	cols := width / s
	rows := height / s
	if cols == 0 || rows == 0 {
		return nil, fmt.Errorf("%w: tile size %d does not fit %dx%d image", ErrNoTilesFound, s, width, height)
	}

	// normalise everything to non-premultiplied 8 bit RGBA with a zero origin
	src := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(src, src.Bounds(), atlas, bnds.Min, draw.Src)

	tiles := []*Tile{}
	seen := map[Hash]bool{}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cell := cutTile(src, col*s, row*s, s)
			for _, v := range variants(cell, Origin{Col: col, Row: row}, opts) {
				h := hashPixels(v.img)
				if seen[h] {
					continue
				}
				seen[h] = true
				tiles = append(tiles, &Tile{
					ID:     len(tiles),
					Image:  v.img,
					Origin: v.origin,
					hash:   h,
				})
			}
		}
	}

	if len(tiles) == 0 {
		return nil, ErrNoTilesFound
	}
	return tiles, nil
}

// variants returns the untransformed cell, followed by any rotations, then
// horizontal mirrors of everything so far, then vertical mirrors of
// everything so far (including the horizontal mirrors).
func variants(cell *image.NRGBA, o Origin, opts CatalogOptions) []variant {
	out := []variant{{img: cell, origin: o}}

	if opts.AllowRotations {
		for _, angle := range []int{90, 180, 270} {
			ro := o
			ro.Rotation = angle
			out = append(out, variant{img: rotate(cell, angle), origin: ro})
		}
	}

	if opts.AllowFlipX {
		n := len(out)
		for i := 0; i < n; i++ {
			fo := out[i].origin
			fo.FlipX = true
			out = append(out, variant{img: flip(out[i].img, true), origin: fo})
		}
	}

	if opts.AllowFlipY {
		n := len(out)
		for i := 0; i < n; i++ {
			fo := out[i].origin
			fo.FlipY = true
			out = append(out, variant{img: flip(out[i].img, false), origin: fo})
		}
	}

	return out
}

// cutTile copies the s×s square at (x,y) out of src
func cutTile(src *image.NRGBA, x, y, s int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, s, s))
	for dy := 0; dy < s; dy++ {
		i := src.PixOffset(x, y+dy)
		copy(out.Pix[dy*out.Stride:(dy+1)*out.Stride], src.Pix[i:i+s*4])
	}
	return out
}

// rotate returns a copy of the square image turned clockwise by angle degrees.
// For 90 degrees (x,y) lands on (h-1-y, x).
func rotate(in *image.NRGBA, angle int) *image.NRGBA {
	w, h := in.Rect.Dx(), in.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nx, ny := x, y
			switch angle {
			case 90:
				nx, ny = h-1-y, x
			case 180:
				nx, ny = w-1-x, h-1-y
			case 270:
				nx, ny = y, w-1-x
			}
			copyPixel(out, nx, ny, in, x, y)
		}
	}
	return out
}

// flip returns a mirrored copy of the image, horizontally (x) or vertically.
func flip(in *image.NRGBA, horizontal bool) *image.NRGBA {
	w, h := in.Rect.Dx(), in.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if horizontal {
				copyPixel(out, w-1-x, y, in, x, y)
			} else {
				copyPixel(out, x, h-1-y, in, x, y)
			}
		}
	}
	return out
}

func copyPixel(dst *image.NRGBA, dx, dy int, src *image.NRGBA, sx, sy int) {
	di := dst.PixOffset(dx, dy)
	si := src.PixOffset(sx, sy)
	copy(dst.Pix[di:di+4], src.Pix[si:si+4])
}

// hashPixels hashes every channel of every pixel
func hashPixels(img *image.NRGBA) Hash {
	return blake2b.Sum256(img.Pix)
}
