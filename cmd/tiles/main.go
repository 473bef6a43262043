package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/voidshard/wfc"
)

const desc = `Slices a tile atlas into the tile catalog used by 'wfc', writing one image per tile.

Alongside the images a .tmx (doc.mapeditor.org/en/stable/) palette map is written laying out every catalog
tile, plus an empty canvas map using the same tileset. Paint an example onto the canvas in Tiled & hand it
to 'wfc --strategy=example --example <canvas>' to learn which tiles may sit next to each other.

Every tile carries properties recording it's catalog id & where in the atlas it came from.`

var cli struct {
	// atlas to slice tiles from
	Input string `arg:"" help:"input tile atlas image (png, gif, jpeg, bmp or webp)"`

	// name of output images and tmx maps
	Name string `short:"n" default:"out" help:"output name"`

	// tell us it's ok to overwrite existing stuff (default: no)
	Overwrite bool `help:"overwrite existing file(s) if found"`

	TileSize    int  `help:"tile size in px, 0 detects it from the atlas"`
	NoRotations bool `help:"don't add rotated tile variants"`
	NoFlipX     bool `help:"don't add horizontally flipped tile variants"`
	FlipY       bool `help:"add vertically flipped tile variants"`

	Fit    bool `help:"resize the atlas to a whole number of tiles first"`
	Gutter int  `help:"width of grid lines between tiles in the atlas (px) to remove first"`

	// size of the blank canvas map to paint examples on
	CanvasWidth  int `default:"20" help:"width of the canvas map in tiles"`
	CanvasHeight int `default:"20" help:"height of the canvas map in tiles"`

	// set properties on all tiles
	Props map[string]string `short:"p" help:"set props on every tile"`

	// don't write anything
	DryRun bool `help:"print out what you're planning"`
}

// fileExists checks if file exists
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}

func save(fname string, write func(string) error) {
	if fileExists(fname) && !cli.Overwrite {
		fmt.Println("skipping", fname, "exists")
		return
	}
	err := write(fname)
	if err != nil {
		panic(err)
	}
}

func main() {
	kong.Parse(
		&cli,
		kong.Name("tiles"),
		kong.Description(desc),
	)

	atlas, err := wfc.LoadImage(cli.Input)
	if err != nil {
		panic(err)
	}

	atlas, size := wfc.PrepareAtlas(atlas, cli.TileSize, cli.Gutter, cli.Fit)

	tiles, err := wfc.BuildCatalog(atlas, wfc.CatalogOptions{
		TileSize:       size,
		AllowRotations: !cli.NoRotations,
		AllowFlipX:     !cli.NoFlipX,
		AllowFlipY:     cli.FlipY,
	})
	if err != nil {
		panic(err)
	}

	// lay the palette out roughly square
	cols := int(math.Ceil(math.Sqrt(float64(len(tiles)))))
	rows := (len(tiles) + cols - 1) / cols

	fmt.Printf("read %s as %dpx tiles, ", cli.Input, size)
	fmt.Printf("making %d catalog tiles (palette %dx%d).\n", len(tiles), cols, rows)

	if cli.DryRun {
		fmt.Printf("dry-run detected: doing nothing")
		return
	}

	sources := wfc.TileSources(filepath.Base(cli.Name), tiles)
	dir := filepath.Dir(cli.Name)
	for i, t := range tiles {
		img := t.Image
		save(filepath.Join(dir, sources[i]), func(fname string) error {
			return wfc.SavePNG(fname, img)
		})
	}

	// a palette: every tile in id order
	palette := wfc.NewMap(cols, rows, size)
	canvas := wfc.NewMap(cli.CanvasWidth, cli.CanvasHeight, size)
	for i, t := range tiles {
		err = palette.Set(i%cols, i/cols, 0, sources[i])
		if err != nil {
			panic(err)
		}

		props := wfc.ParseProperties(cli.Props).Merge(wfc.TileProperties(t))

		for _, m := range []*wfc.Map{palette, canvas} {
			err = m.SetProperties(sources[i], props)
			if err != nil {
				panic(err)
			}
		}
	}

	// make sure the canvas has a (blank) layer to paint on
	err = canvas.Set(0, 0, 0, "")
	if err != nil {
		panic(err)
	}

	save(fmt.Sprintf("%s.palette.tmx", cli.Name), palette.WriteFile)
	save(fmt.Sprintf("%s.canvas.tmx", cli.Name), canvas.WriteFile)
}
