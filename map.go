/* file adds helper functions to our tmx map wrapper struct.
 */
package wfc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"sort"
	"strconv"

	"github.com/mitchellh/go-homedir"
)

// NewMap returns a new empty orthogonal map with a single (empty) tileset.
func NewMap(width, height, tileSize int) *Map {
	ts := newTileset("default", 1)
	ts.TileWidth = tileSize
	ts.TileHeight = tileSize
	return &Map{
		Orientation:    "orthogonal",
		Width:          width,
		Height:         height,
		TileWidth:      tileSize,
		TileHeight:     tileSize,
		Tilesets:       []*Tileset{ts},
		RootProperties: []*Property{},
		TileLayers:     []*TileLayer{},
	}
}

// MapProperties returns properties set on the map itself
func (m *Map) MapProperties() *Properties {
	return newPropertiesFromList(m.RootProperties)
}

// SetMapProperties sets properties on the map
func (m *Map) SetMapProperties(in *Properties) {
	m.RootProperties = in.toList()
}

// layer returns the tile layer for z-level z, creating it if asked to
func (m *Map) layer(z int, create bool) *TileLayer {
	name := strconv.Itoa(z)
	for _, tl := range m.TileLayers {
		if tl.Name == name {
			return tl
		}
	}
	if !create {
		return nil
	}
	return m.newTilelayer(name)
}

// Tiled keeps flip / rotate flags in the top bits of a gid
const gidFlags uint = 0xE0000000

// tileByGID finds a tileset entry by global id, ignoring flip flags
func (m *Map) tileByGID(gid uint) *TilesetTile {
	gid &^= gidFlags
	if gid == 0 {
		return nil
	}
	for _, ts := range m.Tilesets {
		if t, ok := ts.tileByGID[gid]; ok {
			return t
		}
	}
	return nil
}

// tileBySrc finds a tileset entry by it's image source
func (m *Map) tileBySrc(source string) (*Tileset, *TilesetTile) {
	for _, ts := range m.Tilesets {
		if t, ok := ts.tileBySrc[source]; ok {
			return ts, t
		}
	}
	return nil, nil
}

// ZLevels returns all z-level layers (layers named after an int) sorted low -> high.
func (m *Map) ZLevels() []int {
	levels := []int{}
	for _, tl := range m.TileLayers {
		z, err := strconv.ParseInt(tl.Name, 10, 64)
		if err != nil {
			continue
		}
		levels = append(levels, int(z))
	}
	sort.Ints(levels)
	return levels
}

// At returns the image source of the tile at (x, y, z) or "" if not set
// (ie. set to the nil tile).
func (m *Map) At(x, y, z int) string {
	l := m.layer(z, false)
	if l == nil || x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return ""
	}

	index := y*m.Width + x
	if index >= len(l.gids) || l.gids[index] == 0 {
		return ""
	}

	t := m.tileByGID(l.gids[index])
	if t == nil || t.Image == nil {
		return ""
	}
	return t.Image.Source
}

// Set the tile source for (x,y,z) to some image src.
// If the image doesn't exist in a tileset it is added.
// If "" is passed for source the nil tile is set (gid 0).
func (m *Map) Set(x, y, z int, source string) error {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return fmt.Errorf("(%d,%d) is out of bounds for this %dx%d map", x, y, m.Width, m.Height)
	}

	l := m.layer(z, true)
	index := y*m.Width + x

	if source == "" {
		l.gids[index] = 0
		return nil
	}

	ts, t := m.tileBySrc(source)
	if t == nil {
		ts = m.Tilesets[len(m.Tilesets)-1]
		t = m.newTile(source)
	}
	l.gids[index] = t.ID + ts.FirstGID
	return nil
}

// Properties returns the properties of the tile indicated by the `source`
// image (or nil).
func (m *Map) Properties(source string) *Properties {
	if source == "" {
		// the nil tile has no properties
		return nil
	}

	_, t := m.tileBySrc(source)
	if t == nil {
		return nil
	}
	return newPropertiesFromList(t.Properties)
}

// SetProperties sets properties on the tile indicated by the given source
// image, adding the image to the tileset if needed.
func (m *Map) SetProperties(source string, in *Properties) error {
	if source == "" {
		return fmt.Errorf("cannot set properties on the nil tile")
	}

	_, t := m.tileBySrc(source)
	if t == nil {
		t = m.newTile(source)
	}

	t.Properties = in.toList()
	return nil
}

// Encode the current map as XML to a io.Writer stream
func (m *Map) Encode(w io.Writer) error {
	// tiled renders maps in order of ID, low -> high
	// So we'll sort our layers, then ID them in order to make sure they're rendered
	// in the intended order.
	sort.Slice(m.TileLayers, func(i, j int) bool {
		in, _ := strconv.ParseInt(m.TileLayers[i].Name, 10, 64)
		jn, _ := strconv.ParseInt(m.TileLayers[j].Name, 10, 64)
		return in < jn
	})
	for i, tl := range m.TileLayers {
		tl.ID = uint(i + 1)
		tl.Data.Encoding = "csv"
		tl.Data.RawData = tl.Data.encodeCSV(m.Width, m.Height, tl.gids)
	}

	return xml.NewEncoder(w).Encode(m)
}

// Decode an input TMX map XML
func Decode(r io.Reader) (*Map, error) {
	m := &Map{}
	if err := xml.NewDecoder(r).Decode(m); err != nil {
		return nil, err
	}

	if len(m.Tilesets) != 1 {
		return nil, fmt.Errorf("lib only supports 1 tileset, found %d", len(m.Tilesets))
	}
	for _, ts := range m.Tilesets {
		ts.reindex()
	}

	for _, tl := range m.TileLayers {
		if tl.Data.Encoding != "" && tl.Data.Encoding != "csv" {
			return nil, fmt.Errorf("layer %s: unsupported encoding %q", tl.Name, tl.Data.Encoding)
		}
		gids, err := tl.Data.decodeCSV()
		if err != nil {
			return nil, err
		}
		if len(gids) != m.Width*m.Height {
			return nil, fmt.Errorf("layer %s: expected %d tiles, found %d", tl.Name, m.Width*m.Height, len(gids))
		}
		tl.gids = gids
	}

	return m, nil
}

// Open reads a TMX map from disk.
func Open(fname string) (*Map, error) {
	path, err := homedir.Expand(fname)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// WriteFile encodes the map to disk.
func (m *Map) WriteFile(fname string) error {
	path, err := homedir.Expand(fname)
	if err != nil {
		return err
	}
	buff := bytes.Buffer{}
	err = m.Encode(&buff)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, buff.Bytes(), 0644)
}
