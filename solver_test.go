package wfc

import (
	"fmt"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSolverInvalid(t *testing.T) {
	_, err := NewSolver(0, 3, allowEverything(2), nil)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewSolver(3, 3, NewAdjacencyTable(0), nil)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewSolver(3, 3, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestNewSolverFullDomains(t *testing.T) {
	s, err := NewSolver(3, 2, allowEverything(4), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.Equal(t, Uninitialized, s.State())
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			c := s.Grid().At(x, y)
			assert.Equal(t, x, c.X)
			assert.Equal(t, y, c.Y)
			assert.False(t, c.Collapsed)
			assert.Equal(t, -1, c.Resolved)
			assert.Equal(t, []int{0, 1, 2, 3}, c.Domain())
		}
	}
	assert.Nil(t, s.Grid().At(3, 0))
}

func TestSolveAllCompatible(t *testing.T) {
	table := allowEverything(4)
	attempts := 0

	g, err := Solve(7, 5, table, &SolveOptions{
		Rand: rand.New(rand.NewSource(42)),
		Logf: func(format string, args ...interface{}) {
			if format == "attempt %d/%d: seeding (%d,%d) with tile %d\n" {
				attempts++
			}
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, g.Solved())
	assert.NoError(t, g.Validate(table))
}

func TestSolveSolidColourAtlas(t *testing.T) {
	atlas := atlasOf(1, [][]color.NRGBA{
		{grey(100), grey(104)},
		{grey(108), grey(112)},
	})
	tiles, err := BuildCatalog(atlas, CatalogOptions{TileSize: 1})
	require.NoError(t, err)
	table, err := InferAdjacency(tiles, PixelMatch, nil)
	require.NoError(t, err)

	for _, size := range [][2]int{{1, 1}, {1, 9}, {9, 1}, {6, 6}, {13, 4}} {
		t.Run(fmt.Sprintf("%dx%d", size[0], size[1]), func(t *testing.T) {
			g, err := Solve(size[0], size[1], table, &SolveOptions{
				MaxAttempts: 1,
				Rand:        rand.New(rand.NewSource(int64(size[0] * size[1]))),
			})
			require.NoError(t, err)
			assert.NoError(t, g.Validate(table))
		})
	}
}

func TestSolveValidGrids(t *testing.T) {
	table := landCoastSea()

	for seed := int64(0); seed < 20; seed++ {
		g, err := Solve(10, 8, table, &SolveOptions{Rand: rand.New(rand.NewSource(seed))})
		require.NoError(t, err)
		require.True(t, g.Solved())
		assert.NoError(t, g.Validate(table), "seed %d", seed)

		for _, row := range g.Tiles() {
			for _, id := range row {
				assert.True(t, id >= 0 && id < 3)
			}
		}
	}
}

func TestDomainsNeverGrow(t *testing.T) {
	s, err := NewSolver(8, 8, landCoastSea(), rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	entropies := func() []int {
		out := []int{}
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				out = append(out, s.Grid().At(x, y).Entropy())
			}
		}
		return out
	}

	require.NoError(t, s.Seed(3, 3, 0))
	assert.Equal(t, Seeded, s.State())

	prev := entropies()
	for {
		done, err := s.Step()
		require.NoError(t, err)

		now := entropies()
		for i := range now {
			assert.LessOrEqual(t, now[i], prev[i], "cell %d grew", i)
		}
		prev = now

		if done {
			break
		}
	}
	assert.Equal(t, Solved, s.State())
}

func TestSeedPropagates(t *testing.T) {
	s, err := NewSolver(3, 1, landCoastSea(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	require.NoError(t, s.Seed(0, 0, 0))

	g := s.Grid()
	assert.True(t, g.At(0, 0).Collapsed)
	assert.Equal(t, 0, g.At(0, 0).Resolved)
	assert.Equal(t, []int{0, 1}, g.At(1, 0).Domain())
	assert.Equal(t, []int{0, 1, 2}, g.At(2, 0).Domain())
}

func TestSeedInvalid(t *testing.T) {
	s, err := NewSolver(2, 2, allowEverything(2), nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Seed(2, 0, 0), ErrInvalidSize)
	assert.ErrorIs(t, s.Seed(0, 0, 2), ErrInvalidTile)

	_, err = Solve(2, 2, allowEverything(2), &SolveOptions{Seed: &Seed{Tile: 5}})
	assert.ErrorIs(t, err, ErrInvalidTile)
	assert.NotErrorIs(t, err, ErrUnsolvable)
}

func TestContradiction(t *testing.T) {
	table := NewAdjacencyTable(2)
	for _, d := range Directions {
		table.Allow(1, d, 1)
	}
	table.Allow(0, East, 0)
	table.Allow(0, South, 1)
	require.Empty(t, table.Neighbours(0, North))

	// a cell below forces its northern neighbour to sit north of tile 0
	s, err := NewSolver(1, 2, table, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	err = s.Seed(0, 1, 0)

	assert.ErrorIs(t, err, ErrContradiction)
	assert.Equal(t, Contradicted, s.State())
	assert.Equal(t, 0, s.Grid().At(0, 0).Entropy())
	assert.False(t, s.Grid().Solved())

	done, err := s.Step()
	assert.True(t, done)
	assert.ErrorIs(t, err, ErrContradiction)
}

func TestCollapseImpossibleTile(t *testing.T) {
	s, err := NewSolver(3, 1, landCoastSea(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.NoError(t, s.Seed(0, 0, 0))

	err = s.Collapse(s.Grid().At(1, 0), 2)

	assert.ErrorIs(t, err, ErrContradiction)
	assert.Equal(t, Contradicted, s.State())
}

func TestSelectFindsEmptyDomain(t *testing.T) {
	s, err := NewSolver(2, 1, allowEverything(2), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	s.Grid().At(1, 0).domain.ClearAll()

	c, err := s.Select()
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrContradiction)
}

func TestSelectPrefersLowEntropy(t *testing.T) {
	s, err := NewSolver(3, 3, allowEverything(3), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	s.Grid().At(2, 1).domain.Clear(0)

	c, err := s.Select()
	require.NoError(t, err)
	assert.Equal(t, 2, c.X)
	assert.Equal(t, 1, c.Y)
}

func TestSelectBreaksTiesRandomly(t *testing.T) {
	picked := map[[2]int]bool{}
	for seed := int64(0); seed < 32; seed++ {
		s, err := NewSolver(4, 4, allowEverything(2), rand.New(rand.NewSource(seed)))
		require.NoError(t, err)

		c, err := s.Select()
		require.NoError(t, err)
		picked[[2]int{c.X, c.Y}] = true
	}
	assert.Greater(t, len(picked), 1)
}

func TestStalled(t *testing.T) {
	s, err := NewSolver(2, 2, allowEverything(2), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	s.maxIterations = 1

	err = s.Run()

	assert.ErrorIs(t, err, ErrStalled)
	assert.Equal(t, Stalled, s.State())
	assert.ErrorIs(t, s.Err(), ErrStalled)
}

func TestSolveRetriesAfterStall(t *testing.T) {
	attempts := 0
	g, err := Solve(3, 3, allowEverything(2), &SolveOptions{
		MaxAttempts:   3,
		MaxIterations: 1,
		Rand:          rand.New(rand.NewSource(1)),
		Logf: func(format string, args ...interface{}) {
			if len(args) == 5 {
				attempts++
			}
		},
	})

	assert.ErrorIs(t, err, ErrUnsolvable)
	assert.ErrorIs(t, err, ErrStalled)
	assert.NotErrorIs(t, err, ErrContradiction)
	assert.Equal(t, 3, attempts)
	require.NotNil(t, g)
	assert.False(t, g.Solved())
}

func TestSolveLearnedColumnIsUnsolvable(t *testing.T) {
	table, err := learnedAdjacency(2, [][]int{{0, 1}})
	require.NoError(t, err)

	logged := 0
	g, err := Solve(1, 3, table, &SolveOptions{
		MaxAttempts: 5,
		Rand:        rand.New(rand.NewSource(1)),
		Seed:        &Seed{X: 0, Y: 0, Tile: 0},
		Logf:        func(string, ...interface{}) { logged++ },
	})

	assert.ErrorIs(t, err, ErrUnsolvable)
	assert.ErrorIs(t, err, ErrContradiction)
	assert.Equal(t, 10, logged) // a start & a failure per attempt
	require.NotNil(t, g)
	assert.False(t, g.Solved())
	assert.Error(t, g.Validate(table))
}

func TestSolveRowNeverRepeatsTileOne(t *testing.T) {
	// tile 1 may only have tile 0 either side
	table := NewAdjacencyTable(2)
	table.Allow(0, East, 0)
	table.Allow(0, East, 1)
	table.Allow(1, East, 0)

	for seed := int64(0); seed < 10; seed++ {
		g, err := Solve(6, 1, table, &SolveOptions{Rand: rand.New(rand.NewSource(seed))})
		require.NoError(t, err)
		assert.NoError(t, g.Validate(table))

		row := g.Tiles()[0]
		for x := 1; x < len(row); x++ {
			assert.False(t, row[x-1] == 1 && row[x] == 1, "seed %d: %v", seed, row)
		}
	}
}

func TestSolveRetriesAfterContradiction(t *testing.T) {
	// tile 1 fits next to nothing, so any attempt seeded with it fails
	table := NewAdjacencyTable(2)
	for _, d := range Directions {
		table.Allow(0, d, 0)
	}

	failures := 0
	g, err := Solve(2, 1, table, &SolveOptions{
		MaxAttempts: 64,
		Rand:        rand.New(rand.NewSource(3)),
		Logf: func(format string, args ...interface{}) {
			if len(args) == 3 {
				failures++
			}
		},
	})

	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 0}}, g.Tiles())
	assert.Less(t, failures, 64)
}

func TestGridTiles(t *testing.T) {
	s, err := NewSolver(2, 2, allowEverything(3), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.NoError(t, s.Seed(1, 0, 2))

	assert.Equal(t, [][]int{{-1, 2}, {-1, -1}}, s.Grid().Tiles())
	assert.Error(t, s.Grid().Validate(allowEverything(3)))
}
