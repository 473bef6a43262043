package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/voidshard/wfc"
)

const desc = `Generates a tmx map from a rectangle of a 'wfc --store' database file.`

var cli struct {
	// where to find input database file
	Input  string `short:"i" help:"input store database file (required)"`
	Output string `short:"o" help:"where to write output .tmx map. Defaults to input + coords + .tmx. Overwrites output file if it exists."`

	// how wide/high each tile image is in pixels
	TileSize int `default:"32" help:"size of each tile in px"`

	X0 int `default:"0" help:"x coord of map, top left corner"`
	Y0 int `default:"0" help:"y coord of map, top left corner"`
	X1 int `default:"0" help:"x coord of map, bottom right corner (exclusive)"`
	Y1 int `default:"0" help:"y coord of map, bottom right corner (exclusive)"`

	// set properties on map
	Props map[string]string `short:"p" help:"set props on resulting map"`
}

func main() {
	kong.Parse(&cli, kong.Name("map-render"), kong.Description(desc))

	if cli.Output == "" {
		cli.Output = fmt.Sprintf("%s_%d.%d_%d.%d.tmx", cli.Input, cli.X0, cli.Y0, cli.X1, cli.Y1)
	}

	if !fileExists(cli.Input) {
		panic(fmt.Sprintf("input file not found: %s", cli.Input))
	}

	store, err := wfc.OpenStore(cli.Input)
	if err != nil {
		panic(err)
	}
	defer store.Close()

	m, err := store.Map(cli.TileSize, cli.X0, cli.Y0, cli.X1, cli.Y1)
	if err != nil {
		panic(err)
	}

	m.SetMapProperties(wfc.ParseProperties(cli.Props))

	err = m.WriteFile(cli.Output)
	if err != nil {
		panic(err)
	}

	fmt.Printf("wrote %s\n", cli.Output)
}

// fileExists checks if file exists
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}
