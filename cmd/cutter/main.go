package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/voidshard/wfc"
)

const desc = `Removes grid lines from tile atlases via cutting out tiles & re-glueing together.`

var cli struct {
	Input string `short:"i" help:"input image"`

	TileSize  int `default:"16" help:"size of each tile in px"`
	LineWidth int `default:"1" help:"width of the lines between tiles in px"`

	// resize the result to a whole number of tiles
	Fit bool `help:"resize the output to a whole number of tiles"`
}

func main() {
	kong.Parse(
		&cli,
		kong.Name("cutter"),
		kong.Description(desc),
	)

	in, err := wfc.LoadImage(cli.Input)
	if err != nil {
		panic(err)
	}

	out := wfc.RemoveGutters(in, cli.TileSize, cli.LineWidth)
	if cli.Fit {
		out = wfc.FitToTiles(out, cli.TileSize)
	}
	fmt.Printf("cut %v -> %v\n", in.Bounds(), out.Bounds())

	err = wfc.SavePNG(fmt.Sprintf("%s.cut.png", cli.Input), out)
	if err != nil {
		panic(err)
	}
}
