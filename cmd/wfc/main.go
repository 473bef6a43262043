package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/voidshard/wfc"
)

const desc = `Generates a tile map from a tile atlas using wave function collapse.

The atlas is sliced into square tiles (optionally with rotated & flipped variants), rules are inferred
for which tiles may sit next to each other and a map obeying those rules is solved for. Output is a .tmx
(doc.mapeditor.org/en/stable/) map, the tile images it references & a .png preview of the result.

With --strategy=example rules are learned from a hand painted .tmx map (see the 'tiles' command for
producing a tileset to paint with).`

var cli struct {
	// atlas to slice tiles from
	Input string `arg:"" help:"input tile atlas image (png, gif, jpeg, bmp or webp)"`

	// where outputs go & what they're called
	Name      string `short:"n" default:"out" help:"output name; writes <name>.tmx, <name>.png & <name>.<id>.png per tile"`
	Overwrite bool   `help:"overwrite existing file(s) if found"`

	// .yaml or .toml file, flags below override it
	Config string `short:"c" help:"config file (.yaml or .toml)"`

	TileSize    int    `help:"tile size in px, 0 detects it from the atlas"`
	Width       int    `short:"W" help:"map width in tiles"`
	Height      int    `short:"H" help:"map height in tiles"`
	Strategy    string `short:"s" help:"adjacency strategy: pixel, edge or example"`
	Seed        int64  `help:"random seed, 0 seeds from the clock"`
	MaxAttempts int    `help:"attempts before giving up"`

	NoRotations bool `help:"don't add rotated tile variants"`
	NoFlipX     bool `help:"don't add horizontally flipped tile variants"`
	FlipY       bool `help:"add vertically flipped tile variants"`

	// atlas prep
	Fit    bool `help:"resize the atlas to a whole number of tiles first"`
	Gutter int  `help:"width of grid lines between tiles in the atlas (px) to remove first"`

	// painted example for --strategy=example
	Example string `short:"e" help:"hand painted .tmx map to learn adjacency from"`
	Layer   int    `default:"0" help:"z-level of the example map to read"`

	// also place the result into a store
	Store string `help:"sqlite store to place the generated map into"`
	AtX   int    `help:"x coord in the store of the map's top left corner"`
	AtY   int    `help:"y coord in the store of the map's top left corner"`
	AtZ   int    `help:"z level in the store to place the map on"`

	// set properties on map
	Props map[string]string `short:"p" help:"set props on resulting map"`

	Verbose bool `short:"v" help:"print progress"`
}

// config builds our final config from --config & any flags given
func config() *wfc.Config {
	cfg := wfc.DefaultConfig()
	if cli.Config != "" {
		loaded, err := wfc.LoadConfig(cli.Config)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}

	if cli.TileSize > 0 {
		cfg.TileSize = cli.TileSize
	}
	if cli.Width > 0 {
		cfg.MapWidth = cli.Width
	}
	if cli.Height > 0 {
		cfg.MapHeight = cli.Height
	}
	if cli.Strategy != "" {
		cfg.Strategy = cli.Strategy
	}
	if cli.Seed != 0 {
		cfg.Seed = cli.Seed
	}
	if cli.MaxAttempts > 0 {
		cfg.MaxAttempts = cli.MaxAttempts
	}
	if cli.NoRotations {
		cfg.AllowRotations = false
	}
	if cli.NoFlipX {
		cfg.AllowFlipX = false
	}
	if cli.FlipY {
		cfg.AllowFlipY = true
	}

	err := cfg.Validate()
	if err != nil {
		panic(err)
	}
	return cfg
}

// example reads the painted example map, if we need one
func example(cfg *wfc.Config) [][]int {
	if !strings.EqualFold(cfg.Strategy, wfc.LearnedExample.String()) {
		return nil
	}
	if cli.Example == "" {
		panic("--example is required for the example strategy")
	}

	m, err := wfc.Open(cli.Example)
	if err != nil {
		panic(err)
	}

	// tiles painted with a tileset from the 'tiles' command carry their id
	ex, err := wfc.ExampleFromMap(m, cli.Layer, nil)
	if err != nil {
		panic(err)
	}
	return ex
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
		kong.Name("wfc"),
		kong.Description(desc),
	)

	cfg := config()

	atlas, err := wfc.LoadImage(cli.Input)
	if err != nil {
		panic(err)
	}
	if cli.Gutter > 0 || cli.Fit {
		atlas, cfg.TileSize = wfc.PrepareAtlas(atlas, cfg.TileSize, cli.Gutter, cli.Fit)
	}

	logf := func(string, ...interface{}) {}
	if cli.Verbose {
		logf = func(format string, args ...interface{}) {
			fmt.Printf(format, args...)
		}
	}

	result, err := wfc.Generate(atlas, cfg, example(cfg), logf)
	if result == nil || result.Grid == nil {
		panic(err)
	}
	if err != nil {
		// write out what we got so far, it's handy to see where it went wrong
		fmt.Println(err)
		save(fmt.Sprintf("%s.failed.png", cli.Name), func(fname string) error {
			return wfc.SavePNG(fname, wfc.Render(result.Grid, result.Tiles))
		})
		os.Exit(1)
	}
	fmt.Printf("generated %dx%d map from %d tiles\n", cfg.MapWidth, cfg.MapHeight, len(result.Tiles))

	sources := wfc.TileSources(filepath.Base(cli.Name), result.Tiles)
	dir := filepath.Dir(cli.Name)
	for i, t := range result.Tiles {
		img := t.Image
		save(filepath.Join(dir, sources[i]), func(fname string) error {
			return wfc.SavePNG(fname, img)
		})
	}

	m, err := result.Grid.Export(result.Tiles, sources)
	if err != nil {
		panic(err)
	}
	m.SetMapProperties(wfc.ParseProperties(cli.Props))
	save(fmt.Sprintf("%s.tmx", cli.Name), m.WriteFile)

	save(fmt.Sprintf("%s.png", cli.Name), func(fname string) error {
		return wfc.SavePNG(fname, wfc.Render(result.Grid, result.Tiles))
	})

	if cli.Store == "" {
		return
	}

	store, err := wfc.OpenStore(cli.Store)
	if err != nil {
		panic(err)
	}
	defer store.Close()

	fits, err := store.Fits(cli.AtX, cli.AtY, cli.AtZ, cfg.MapWidth, cfg.MapHeight)
	if err != nil {
		panic(err)
	}
	if !fits && !cli.Overwrite {
		fmt.Printf("skipping store: (%d,%d,%d) is already occupied\n", cli.AtX, cli.AtY, cli.AtZ)
		return
	}

	err = store.PlaceGrid(result.Grid, cli.AtX, cli.AtY, cli.AtZ, result.Tiles, sources)
	if err != nil {
		panic(err)
	}
	fmt.Printf("placed map at (%d,%d,%d) in %s\n", cli.AtX, cli.AtY, cli.AtZ, store.Filename())
}
