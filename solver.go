package wfc

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// DefaultMaxAttempts is how many fresh attempts Solve makes by default.
const DefaultMaxAttempts = 5

// State of a single solve attempt.
type State int

const (
	Uninitialized State = iota
	Seeded
	Running
	Solved
	Contradicted
	Stalled
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Seeded:
		return "seeded"
	case Running:
		return "running"
	case Solved:
		return "solved"
	case Contradicted:
		return "contradicted"
	case Stalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// Cell is one square of the output grid.
type Cell struct {
	X, Y int

	// Collapsed is set once the cell holds exactly one chosen tile
	Collapsed bool

	// Resolved is the chosen tile id, -1 until collapsed
	Resolved int

	domain *bitset.BitSet
}

// Entropy is the number of tile ids still possible for this cell.
func (c *Cell) Entropy() int {
	return int(c.domain.Count())
}

// Domain lists (ascending) the tile ids still possible for this cell.
func (c *Cell) Domain() []int {
	return members(c.domain)
}

// Grid is a width×height arena of cells, addressed by (x,y).
type Grid struct {
	Width  int
	Height int
	cells  []Cell
}

// newGrid returns a grid where every cell may hold any of n tiles
func newGrid(width, height, n int) *Grid {
	full := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		full.Set(uint(i))
	}

	g := &Grid{Width: width, Height: height, cells: make([]Cell, width*height)}
	for i := range g.cells {
		g.cells[i] = Cell{
			X:        i % width,
			Y:        i / width,
			Resolved: -1,
			domain:   full.Clone(),
		}
	}
	return g
}

// InBounds returns if x,y is on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// At returns the cell at x,y or nil if off the grid.
func (g *Grid) At(x, y int) *Cell {
	if !g.InBounds(x, y) {
		return nil
	}
	return &g.cells[y*g.Width+x]
}

// Solved returns if every cell has been collapsed.
func (g *Grid) Solved() bool {
	for i := range g.cells {
		if !g.cells[i].Collapsed {
			return false
		}
	}
	return true
}

// Tiles returns the resolved tile ids as rows, -1 where a cell never
// collapsed.
func (g *Grid) Tiles() [][]int {
	out := make([][]int, g.Height)
	for y := range out {
		out[y] = make([]int, g.Width)
		for x := range out[y] {
			out[y][x] = g.cells[y*g.Width+x].Resolved
		}
	}
	return out
}

// Validate returns an error naming the first cell that is uncollapsed or
// sits next to a tile the table doesn't allow there.
func (g *Grid) Validate(table *AdjacencyTable) error {
	for i := range g.cells {
		c := &g.cells[i]
		if !c.Collapsed {
			return fmt.Errorf("cell (%d,%d) is not collapsed", c.X, c.Y)
		}
		// east & south cover every pair once, the table is symmetric
		for _, d := range []Direction{East, South} {
			dx, dy := d.Offset()
			n := g.At(c.X+dx, c.Y+dy)
			if n == nil || !n.Collapsed {
				continue
			}
			if !table.Allows(c.Resolved, d, n.Resolved) {
				return fmt.Errorf("tile %d at (%d,%d) may not have tile %d to the %s", c.Resolved, c.X, c.Y, n.Resolved, d)
			}
		}
	}
	return nil
}

// Solver runs one attempt at filling a grid. Callers wanting to interleave
// work can drive it with Seed / Step, otherwise Run does everything.
type Solver struct {
	grid  *Grid
	table *AdjacencyTable
	rng   *rand.Rand

	state         State
	iterations    int
	maxIterations int
	err           error

	stack []*Cell
}

// NewSolver returns a solver with a fresh grid where every cell may hold
// any tile in the table.
func NewSolver(width, height int, table *AdjacencyTable, rng *rand.Rand) (*Solver, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrInvalidSize, width, height)
	}
	if table == nil || table.Len() == 0 {
		return nil, fmt.Errorf("%w: no tiles to place", ErrInvalidSize)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Solver{
		grid:          newGrid(width, height, table.Len()),
		table:         table,
		rng:           rng,
		maxIterations: 2 * width * height,
		stack:         make([]*Cell, 0, 64),
	}, nil
}

// Grid returns the grid being solved, in whatever state it's in.
func (s *Solver) Grid() *Grid {
	return s.grid
}

// State returns where this attempt is at.
func (s *Solver) State() State {
	return s.state
}

// Err returns why the attempt failed (if it did).
func (s *Solver) Err() error {
	return s.err
}

// fail ends the attempt in state st
func (s *Solver) fail(st State, err error) error {
	s.state = st
	s.err = err
	return err
}

// Seed collapses the cell at x,y to tile id and propagates. This breaks
// the symmetry of an all-uncollapsed grid.
func (s *Solver) Seed(x, y, id int) error {
	c := s.grid.At(x, y)
	if c == nil {
		return fmt.Errorf("%w: seed (%d,%d) off %dx%d grid", ErrInvalidSize, x, y, s.grid.Width, s.grid.Height)
	}
	if id < 0 || id >= s.table.Len() {
		return fmt.Errorf("%w: seed tile %d", ErrInvalidTile, id)
	}
	if err := s.Collapse(c, id); err != nil {
		return err
	}
	if err := s.Propagate(c); err != nil {
		return err
	}
	s.state = Seeded
	return nil
}

// Select returns an uncollapsed cell of least entropy, picking at random
// among ties. It returns nil (and marks the attempt Solved) once every
// cell is collapsed.
func (s *Solver) Select() (*Cell, error) {
	best := -1
	var candidates []*Cell

	for i := range s.grid.cells {
		c := &s.grid.cells[i]
		if c.Collapsed {
			continue
		}
		e := c.Entropy()
		if e == 0 {
			return nil, s.fail(Contradicted, fmt.Errorf("%w at (%d,%d): no tiles possible", ErrContradiction, c.X, c.Y))
		}
		if best < 0 || e < best {
			best = e
			candidates = candidates[:0]
		}
		if e == best {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		s.state = Solved
		return nil, nil
	}
	return candidates[s.rng.Intn(len(candidates))], nil
}

// Collapse fixes the cell to one tile id. A negative id picks uniformly at
// random from the cell's domain.
func (s *Solver) Collapse(c *Cell, id int) error {
	if c.Collapsed {
		return nil
	}

	options := c.Domain()
	if len(options) == 0 {
		return s.fail(Contradicted, fmt.Errorf("%w at (%d,%d): nothing to collapse to", ErrContradiction, c.X, c.Y))
	}

	if id < 0 {
		id = options[s.rng.Intn(len(options))]
	} else if !c.domain.Test(uint(id)) {
		return s.fail(Contradicted, fmt.Errorf("%w at (%d,%d): tile %d not possible here", ErrContradiction, c.X, c.Y, id))
	}

	c.domain.ClearAll()
	c.domain.Set(uint(id))
	c.Collapsed = true
	c.Resolved = id
	return nil
}

// Propagate spreads the domain of c to its neighbours, and theirs, until
// nothing shrinks. An emptied domain stops propagation immediately.
func (s *Solver) Propagate(c *Cell) error {
	s.stack = append(s.stack[:0], c)

	for len(s.stack) > 0 {
		current := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]

		for _, d := range Directions {
			dx, dy := d.Offset()
			n := s.grid.At(current.X+dx, current.Y+dy)
			if n == nil || n.Collapsed {
				continue
			}

			before := n.domain.Count()
			next := n.domain.Intersection(s.table.allowed(current.domain, d))
			after := next.Count()
			if after >= before {
				continue
			}

			n.domain = next
			if after == 0 {
				s.stack = s.stack[:0]
				return s.fail(Contradicted, fmt.Errorf("%w at (%d,%d): nothing fits %s of (%d,%d)", ErrContradiction, n.X, n.Y, d, current.X, current.Y))
			}
			s.stack = append(s.stack, n)
		}
	}
	return nil
}

// Step selects, collapses & propagates one cell. It returns true once the
// attempt is over (check State / Err to see how it went).
func (s *Solver) Step() (bool, error) {
	switch s.state {
	case Solved:
		return true, nil
	case Contradicted, Stalled:
		return true, s.err
	}

	if s.iterations >= s.maxIterations {
		return true, s.fail(Stalled, fmt.Errorf("%w: %d steps without finishing", ErrStalled, s.iterations))
	}
	s.iterations++
	s.state = Running

	c, err := s.Select()
	if err != nil {
		return true, err
	}
	if c == nil {
		return true, nil
	}

	if err := s.Collapse(c, -1); err != nil {
		return true, err
	}
	if err := s.Propagate(c); err != nil {
		return true, err
	}
	return false, nil
}

// Run steps until the attempt is solved or fails.
func (s *Solver) Run() error {
	for {
		done, err := s.Step()
		if done {
			return err
		}
	}
}

// Seed pins a tile to a cell for the start of every attempt.
type Seed struct {
	X, Y int
	Tile int
}

// SolveOptions tunes Solve. The zero value is usable.
type SolveOptions struct {
	// attempts before giving up, <= 0 means DefaultMaxAttempts
	MaxAttempts int

	// nil means seeded from the clock
	Rand *rand.Rand

	// nil means a random cell & tile per attempt
	Seed *Seed

	// steps per attempt before it counts as stalled, <= 0 means 2·W·H
	MaxIterations int

	// if set, called with a line about each attempt
	Logf func(format string, args ...interface{})
}

// Solve fills a width×height grid with tiles from the table, retrying with
// a fresh grid & seed on contradiction or stall.
//
// On failure the grid of the last attempt is returned along with an error
// wrapping ErrUnsolvable, for diagnostics only.
func Solve(width, height int, table *AdjacencyTable, opts *SolveOptions) (*Grid, error) {
	if opts == nil {
		opts = &SolveOptions{}
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	var (
		grid    *Grid
		lastErr error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		s, err := NewSolver(width, height, table, rng)
		if err != nil {
			return nil, err
		}
		grid = s.Grid()
		if opts.MaxIterations > 0 {
			s.maxIterations = opts.MaxIterations
		}

		seed := opts.Seed
		if seed == nil {
			seed = &Seed{X: rng.Intn(width), Y: rng.Intn(height), Tile: rng.Intn(table.Len())}
		}
		logf("attempt %d/%d: seeding (%d,%d) with tile %d\n", attempt, attempts, seed.X, seed.Y, seed.Tile)

		err = s.Seed(seed.X, seed.Y, seed.Tile)
		if err == nil {
			err = s.Run()
		}
		if err == nil {
			logf("attempt %d/%d: solved\n", attempt, attempts)
			return grid, nil
		}
		if s.State() != Contradicted && s.State() != Stalled {
			// bad input, another attempt won't help
			return nil, err
		}

		logf("attempt %d/%d: %v\n", attempt, attempts, err)
		lastErr = err
	}

	return grid, fmt.Errorf("%w after %d attempts: %w", ErrUnsolvable, attempts, lastErr)
}
