package wfc

import (
	"image"
	"math/rand"
	"time"
)

// Result holds everything produced on the way from atlas to map.
type Result struct {
	Tiles []*Tile
	Table *AdjacencyTable

	// the solved grid, or the last failed attempt if Err is set
	Grid *Grid
}

// Generate slices the atlas, infers adjacency with the configured strategy
// & solves a map of the configured size. The example is only used by the
// "example" strategy; it may be nil otherwise.
//
// If solving fails the returned Result still holds the catalog, table and
// last attempted grid alongside an error wrapping ErrUnsolvable.
func Generate(atlas image.Image, cfg *Config, example [][]int, logf func(string, ...interface{})) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	tiles, err := BuildCatalog(atlas, cfg.CatalogOptions())
	if err != nil {
		return nil, err
	}

	table, err := InferAdjacency(tiles, strategy, example)
	if err != nil {
		return &Result{Tiles: tiles}, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	grid, err := Solve(cfg.MapWidth, cfg.MapHeight, table, &SolveOptions{
		MaxAttempts: cfg.MaxAttempts,
		Rand:        rand.New(rand.NewSource(seed)),
		Logf:        logf,
	})
	return &Result{Tiles: tiles, Table: table, Grid: grid}, err
}
