package wfc

import (
	"fmt"
)

// TileSources returns an image source name per catalog tile, in id order,
// eg. "forest.3.png" for tile 3 with prefix "forest".
func TileSources(prefix string, tiles []*Tile) []string {
	out := make([]string, len(tiles))
	for i, t := range tiles {
		out[i] = fmt.Sprintf("%s.%d.png", prefix, t.ID)
	}
	return out
}

// Place writes every collapsed cell of the grid onto dst, with (x,y) as the
// top left corner, on z-level z. sources[id] names the image of tile id.
// Each placed tile also gets properties describing where it came from.
func (g *Grid) Place(dst Tileable, x, y, z int, tiles []*Tile, sources []string) error {
	if len(sources) < len(tiles) {
		return fmt.Errorf("%d sources given for %d tiles", len(sources), len(tiles))
	}

	described := map[int]bool{}
	for i := range g.cells {
		c := &g.cells[i]
		if !c.Collapsed {
			continue
		}
		if c.Resolved >= len(tiles) {
			return fmt.Errorf("%w: %d at (%d,%d)", ErrInvalidTile, c.Resolved, c.X, c.Y)
		}

		src := sources[c.Resolved]
		if err := dst.Set(x+c.X, y+c.Y, z, src); err != nil {
			return err
		}
		if described[c.Resolved] {
			continue
		}
		if err := dst.SetProperties(src, TileProperties(tiles[c.Resolved])); err != nil {
			return err
		}
		described[c.Resolved] = true
	}
	return nil
}

// Export returns the grid as a single layer (z = 0) TMX map.
func (g *Grid) Export(tiles []*Tile, sources []string) (*Map, error) {
	s := 0
	if len(tiles) > 0 {
		s = tiles[0].Size()
	}

	m := NewMap(g.Width, g.Height, s)

	// register the whole catalog so the tileset is complete (& usable
	// for painting) even if some tiles weren't used
	for i, t := range tiles {
		if i >= len(sources) {
			break
		}
		if err := m.SetProperties(sources[i], TileProperties(t)); err != nil {
			return nil, err
		}
	}

	return m, g.Place(m, 0, 0, 0, tiles, sources)
}

// ExampleFromMap reads tile layer z of a (hand painted) TMX map into an
// example grid for LearnedExample. ids maps image sources to catalog ids;
// if nil, the wfc.id property written on export is used instead. Empty or
// unknown tiles are -1.
func ExampleFromMap(m *Map, z int, ids map[string]int) ([][]int, error) {
	l := m.layer(z, false)
	if l == nil {
		return nil, fmt.Errorf("map has no tile layer %d", z)
	}

	out := make([][]int, m.Height)
	for y := range out {
		out[y] = make([]int, m.Width)
		for x := range out[y] {
			out[y][x] = -1

			t := m.tileByGID(l.gids[y*m.Width+x])
			if t == nil {
				continue
			}
			if ids == nil {
				if id, ok := newPropertiesFromList(t.Properties).TileID(); ok {
					out[y][x] = id
				}
				continue
			}
			if t.Image == nil {
				continue
			}
			if id, ok := ids[t.Image.Source]; ok {
				out[y][x] = id
			}
		}
	}
	return out, nil
}
