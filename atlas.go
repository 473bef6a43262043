package wfc

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io/ioutil"

	"github.com/mitchellh/go-homedir"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// LoadImage reads an atlas from disk (png, gif, jpeg, bmp or webp).
func LoadImage(fname string) (image.Image, error) {
	path, err := homedir.Expand(fname)
	if err != nil {
		return nil, err
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// SavePNG writes the image to disk as a png.
func SavePNG(fname string, in image.Image) error {
	path, err := homedir.Expand(fname)
	if err != nil {
		return err
	}

	buff := new(bytes.Buffer)
	err = png.Encode(buff, in)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, buff.Bytes(), 0644)
}

// FitToTiles resizes the image so both sides are a whole number of s pixel
// tiles. If we're more than half a tile short we grow to fit, otherwise we
// shrink. Never less than one tile either way.
func FitToTiles(in image.Image, s int) image.Image {
	width := in.Bounds().Dx()
	height := in.Bounds().Dy()
	if s <= 0 || (width%s == 0 && height%s == 0) {
		return in
	}

	fitx := width / s
	fity := height / s
	if width%s > s/2 {
		fitx++
	}
	if height%s > s/2 {
		fity++
	}
	if fitx < 1 {
		fitx = 1
	}
	if fity < 1 {
		fity = 1
	}

	return resize.Resize(uint(fitx*s), uint(fity*s), in, resize.Lanczos3)
}

// RemoveGutters cuts s×s tiles out of an atlas whose tiles are separated
// by `line` pixel wide grid lines (including one before the first tile) &
// glues them back together edge to edge.
func RemoveGutters(in image.Image, s, line int) image.Image {
	if s <= 0 || line <= 0 {
		return in
	}

	bnds := in.Bounds()
	tilesWide := (bnds.Dx() - line) / (s + line)
	tilesHigh := (bnds.Dy() - line) / (s + line)
	if tilesWide < 1 || tilesHigh < 1 {
		return in
	}

	dst := image.NewNRGBA(image.Rect(0, 0, s*tilesWide, s*tilesHigh))
	for ty := 0; ty < tilesHigh; ty++ {
		for tx := 0; tx < tilesWide; tx++ {
			drect := image.Rect(tx*s, ty*s, (tx+1)*s, (ty+1)*s)
			spnt := bnds.Min.Add(image.Pt(line+tx*(s+line), line+ty*(s+line)))
			draw.Draw(dst, drect, in, spnt, draw.Src)
		}
	}
	return dst
}

// DetectGutteredTileSize is DetectTileSize for an atlas whose tiles are
// separated by `line` pixel grid lines (one before the first tile too).
func DetectGutteredTileSize(width, height, line int) int {
	if line <= 0 {
		return DetectTileSize(width, height)
	}
	w, h := width-line, height-line
	for _, s := range candidateTileSizes {
		if w%(s+line) == 0 && h%(s+line) == 0 {
			return s
		}
	}
	if s := gcd(w, h) - line; s > 0 {
		return s
	}
	return 1
}

// PrepareAtlas strips `gutter` px grid lines and/or resizes the atlas to a
// whole number of tiles. A tile size <= 0 is detected first; the size used
// is returned alongside the prepared image.
func PrepareAtlas(in image.Image, s, gutter int, fit bool) (image.Image, int) {
	if s <= 0 {
		s = DetectGutteredTileSize(in.Bounds().Dx(), in.Bounds().Dy(), gutter)
	}
	if gutter > 0 {
		in = RemoveGutters(in, s, gutter)
	}
	if fit {
		in = FitToTiles(in, s)
	}
	return in, s
}
