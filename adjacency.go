package wfc

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// PixelTolerance is the largest per channel difference (out of 255) that
// PixelMatch still considers a match.
const PixelTolerance = 12

// Direction is a side of a tile / cell.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Directions in the order we always walk them
var Directions = [4]Direction{North, East, South, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// Offset returns the grid step for this direction (y grows downward).
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	default:
		return -1, 0
	}
}

// Strategy picks how an AdjacencyTable is inferred.
type Strategy int

const (
	// PixelMatch compares touching border pixels of every tile pair with
	// PixelTolerance per channel.
	PixelMatch Strategy = iota

	// EdgeMatch compares precomputed border signatures exactly, accepting
	// a reversed signature as well.
	EdgeMatch

	// LearnedExample records the neighbours observed in a painted grid.
	LearnedExample
)

func (s Strategy) String() string {
	switch s {
	case PixelMatch:
		return "pixel"
	case EdgeMatch:
		return "edge"
	case LearnedExample:
		return "example"
	default:
		return "unknown"
	}
}

// ParseStrategy turns "pixel", "edge" or "example" into a Strategy.
func ParseStrategy(in string) (Strategy, error) {
	for _, s := range []Strategy{PixelMatch, EdgeMatch, LearnedExample} {
		if strings.EqualFold(in, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, in)
}

// AdjacencyTable holds, per tile id and direction, the set of tile ids that
// may sit next to it on that side.
//
// Every rule is stored in both directions: b in a's north set iff a is in
// b's south set.
type AdjacencyTable struct {
	rules [][4]*bitset.BitSet
}

// NewAdjacencyTable returns a table for n tiles with nothing allowed.
func NewAdjacencyTable(n int) *AdjacencyTable {
	t := &AdjacencyTable{rules: make([][4]*bitset.BitSet, n)}
	for i := range t.rules {
		for _, d := range Directions {
			t.rules[i][d] = bitset.New(uint(n))
		}
	}
	return t
}

// Len is the number of tiles this table covers.
func (t *AdjacencyTable) Len() int {
	return len(t.rules)
}

func (t *AdjacencyTable) valid(id int) bool {
	return id >= 0 && id < len(t.rules)
}

// Allow permits b on the d side of a (and so a on the opposite side of b).
func (t *AdjacencyTable) Allow(a int, d Direction, b int) error {
	if !t.valid(a) || !t.valid(b) {
		return fmt.Errorf("%w: %d -> %d (table holds %d)", ErrInvalidTile, a, b, len(t.rules))
	}
	t.rules[a][d].Set(uint(b))
	t.rules[b][d.Opposite()].Set(uint(a))
	return nil
}

// Allows returns if b may sit on the d side of a.
func (t *AdjacencyTable) Allows(a int, d Direction, b int) bool {
	if !t.valid(a) || !t.valid(b) {
		return false
	}
	return t.rules[a][d].Test(uint(b))
}

// Neighbours lists (ascending) the ids allowed on the d side of a.
func (t *AdjacencyTable) Neighbours(a int, d Direction) []int {
	if !t.valid(a) {
		return nil
	}
	return members(t.rules[a][d])
}

// Symmetric reports if every rule has its reverse.
func (t *AdjacencyTable) Symmetric() bool {
	for a := range t.rules {
		for _, d := range Directions {
			set := t.rules[a][d]
			for b, ok := set.NextSet(0); ok; b, ok = set.NextSet(b + 1) {
				if !t.rules[b][d.Opposite()].Test(uint(a)) {
					return false
				}
			}
		}
	}
	return true
}

// allowed returns the union of the d-side rules of every id in domain
func (t *AdjacencyTable) allowed(domain *bitset.BitSet, d Direction) *bitset.BitSet {
	out := bitset.New(uint(len(t.rules)))
	for id, ok := domain.NextSet(0); ok; id, ok = domain.NextSet(id + 1) {
		out.InPlaceUnion(t.rules[id][d])
	}
	return out
}

func members(set *bitset.BitSet) []int {
	out := make([]int, 0, set.Count())
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// InferAdjacency builds an AdjacencyTable over tiles. The example grid
// (row major, -1 for unset) is only read by LearnedExample.
func InferAdjacency(tiles []*Tile, strategy Strategy, example [][]int) (*AdjacencyTable, error) {
	switch strategy {
	case PixelMatch:
		return pixelAdjacency(tiles), nil
	case EdgeMatch:
		return edgeAdjacency(tiles), nil
	case LearnedExample:
		return learnedAdjacency(len(tiles), example)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, strategy)
}

// pixelAdjacency compares the touching border pixels of every ordered pair
// of tiles, allowing a small difference per channel.
func pixelAdjacency(tiles []*Tile) *AdjacencyTable {
	t := NewAdjacencyTable(len(tiles))
	for _, a := range tiles {
		for _, b := range tiles {
			for _, d := range Directions {
				if pixelEdgesMatch(a, b, d) {
					t.Allow(a.ID, d, b.ID)
				}
			}
		}
	}
	return t
}

// pixelEdgesMatch returns if a's d edge touches b's opposite edge within
// PixelTolerance on every channel
func pixelEdgesMatch(a, b *Tile, d Direction) bool {
	s := a.Size()
	if b.Size() != s {
		return false
	}
	last := s - 1

	for i := 0; i < s; i++ {
		var pa, pb []uint8
		switch d {
		case North:
			pa, pb = a.rgba(i, 0), b.rgba(i, last)
		case East:
			pa, pb = a.rgba(last, i), b.rgba(0, i)
		case South:
			pa, pb = a.rgba(i, last), b.rgba(i, 0)
		case West:
			pa, pb = a.rgba(0, i), b.rgba(last, i)
		}
		for c := 0; c < 4; c++ {
			diff := int(pa[c]) - int(pb[c])
			if diff > PixelTolerance || diff < -PixelTolerance {
				return false
			}
		}
	}
	return true
}

// signature is a tile border read as raw RGBA channels. North & south run
// left to right, east & west top to bottom.
type signature []uint8

// signatures extracts all four borders of a tile, indexed by Direction
func signatures(t *Tile) [4]signature {
	s := t.Size()
	last := s - 1
	var out [4]signature
	for _, d := range Directions {
		out[d] = make(signature, 0, s*4)
	}
	for i := 0; i < s; i++ {
		out[North] = append(out[North], t.rgba(i, 0)...)
		out[East] = append(out[East], t.rgba(last, i)...)
		out[South] = append(out[South], t.rgba(i, last)...)
		out[West] = append(out[West], t.rgba(0, i)...)
	}
	return out
}

// matches is true if both signatures are identical, or identical once one
// of them is read end to end in reverse (pixel order, not channel order).
func (s signature) matches(o signature) bool {
	if len(s) != len(o) {
		return false
	}

	direct := true
	for i := range s {
		if s[i] != o[i] {
			direct = false
			break
		}
	}
	if direct {
		return true
	}

	n := len(s) / 4
	for i := 0; i < n; i++ {
		j := n - 1 - i
		for c := 0; c < 4; c++ {
			if s[i*4+c] != o[j*4+c] {
				return false
			}
		}
	}
	return true
}

// edgeAdjacency matches precomputed border signatures exactly
func edgeAdjacency(tiles []*Tile) *AdjacencyTable {
	sigs := make([][4]signature, len(tiles))
	for i, tl := range tiles {
		sigs[i] = signatures(tl)
	}

	t := NewAdjacencyTable(len(tiles))
	for a := range tiles {
		for b := range tiles {
			for _, d := range Directions {
				if sigs[a][d].matches(sigs[b][d.Opposite()]) {
					t.Allow(a, d, b)
				}
			}
		}
	}
	return t
}

// learnedAdjacency records every pair of painted neighbours in the example
// grid, in both directions. Unset (-1) or unknown ids are skipped.
func learnedAdjacency(n int, example [][]int) (*AdjacencyTable, error) {
	painted := 0
	for _, row := range example {
		for _, id := range row {
			if id >= 0 && id < n {
				painted++
			}
		}
	}
	if painted == 0 {
		return nil, ErrEmptyExample
	}

	at := func(x, y int) (int, bool) {
		if y < 0 || y >= len(example) || x < 0 || x >= len(example[y]) {
			return 0, false
		}
		id := example[y][x]
		return id, id >= 0 && id < n
	}

	t := NewAdjacencyTable(n)
	for y, row := range example {
		for x := range row {
			current, ok := at(x, y)
			if !ok {
				continue
			}
			for _, d := range Directions {
				dx, dy := d.Offset()
				neighbour, ok := at(x+dx, y+dy)
				if !ok {
					continue
				}
				t.Allow(current, d, neighbour)
			}
		}
	}
	return t, nil
}
