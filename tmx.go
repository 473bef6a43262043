/* this file is a simplified set of structs for reading & writing TMX files.

Much of this code was lifted from github.com/bcvery1/tilepix including
the encode / decode functions (all credit to authors).

We only need a small part of the feature set of TMX in order to export
generated maps & read painted examples so we only bother to parse / write
those things.
*/
package wfc

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Map is a TMX file structure representing the map as a whole.
// We support only a subset of TMX (read: the bits that we actually use).
// - we only care about one tileset, each tile of which has it's own image
// - we use CSV tile data encoding minus compression
// - we stick to the 'orthogonal' orientation
type Map struct {
	XMLName        xml.Name     `xml:"map"`              // sets top level xml name
	Orientation    string       `xml:"orientation,attr"` // we only support "orthogonal"
	Width          int          `xml:"width,attr"`       // in tiles
	Height         int          `xml:"height,attr"`      // in tiles
	TileWidth      int          `xml:"tilewidth,attr"`   // in pixels
	TileHeight     int          `xml:"tileheight,attr"`  // in pixels
	RootProperties []*Property  `xml:"properties>property"`
	Tilesets       []*Tileset   `xml:"tileset"`
	TileLayers     []*TileLayer `xml:"layer"`
}

// newTilelayer creates a new tilelayer with the given name &
// adds it to the map
func (m *Map) newTilelayer(name string) *TileLayer {
	l := &TileLayer{
		Name:   name,
		Width:  m.Width,
		Height: m.Height,
		Data: Data{
			Encoding: "csv",
			RawData:  []byte{},
		},
		gids: make([]uint, m.Width*m.Height),
	}
	m.TileLayers = append(m.TileLayers, l)
	return l
}

// newTile registers a new tileset entry for the given image source.
func (m *Map) newTile(source string) *TilesetTile {
	ts := m.Tilesets[len(m.Tilesets)-1]
	t := &TilesetTile{
		ID:         uint(len(ts.Tiles)),
		Image:      &Image{Source: source, Width: m.TileWidth, Height: m.TileHeight},
		Properties: []*Property{},
	}
	ts.add(t)
	return t
}

// newTileset makes a new tileset starting at `first`
func newTileset(name string, first uint) *Tileset {
	return &Tileset{
		FirstGID:   first,
		Name:       name,
		Properties: []*Property{},
		Tiles:      []*TilesetTile{},
		tileByGID:  map[uint]*TilesetTile{},
		tileBySrc:  map[string]*TilesetTile{},
	}
}

// Tileset is a TMX file structure which represents a Tiled Tileset
type Tileset struct {
	FirstGID   uint           `xml:"firstgid,attr"`
	Name       string         `xml:"name,attr"`
	TileWidth  int            `xml:"tilewidth,attr"`
	TileHeight int            `xml:"tileheight,attr"`
	TileCount  int            `xml:"tilecount,attr"`
	Properties []*Property    `xml:"properties>property"`
	Tiles      []*TilesetTile `xml:"tile"`
	tileByGID  map[uint]*TilesetTile
	tileBySrc  map[string]*TilesetTile
}

// add indexes a tile by it's gid & image source
func (ts *Tileset) add(t *TilesetTile) {
	ts.Tiles = append(ts.Tiles, t)
	ts.TileCount = len(ts.Tiles)
	ts.tileByGID[t.ID+ts.FirstGID] = t
	if t.Image != nil {
		ts.tileBySrc[t.Image.Source] = t
	}
}

// reindex rebuilds lookup caches after decoding
func (ts *Tileset) reindex() {
	tiles := ts.Tiles
	ts.Tiles = []*TilesetTile{}
	ts.tileByGID = map[uint]*TilesetTile{}
	ts.tileBySrc = map[string]*TilesetTile{}
	for _, t := range tiles {
		ts.add(t)
	}
}

// Property is a TMX file structure which holds a Tiled property.
type Property struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Type  string `xml:"type,attr"` // string (default), int, bool + other (we don't use)
}

// Image is an image file in TMX
type Image struct {
	Source string `xml:"source,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
}

// TilesetTile is a TMX tile (from a tileset)
type TilesetTile struct {
	ID         uint        `xml:"id,attr"`
	Image      *Image      `xml:"image"`
	Properties []*Property `xml:"properties>property"`
}

// TileLayer is a TMX file structure which can hold any type of Tiled layer.
type TileLayer struct {
	ID         uint        `xml:"id,attr"`
	Width      int         `xml:"width,attr"`
	Height     int         `xml:"height,attr"`
	Name       string      `xml:"name,attr"`
	Properties []*Property `xml:"properties>property"`
	Data       Data        `xml:"data"`
	gids       []uint
}

// Data is a TMX file structure holding data.
type Data struct {
	Encoding    string `xml:"encoding,attr"`
	Compression string `xml:"compression,attr,omitempty"`
	RawData     []byte `xml:",innerxml"`
}

// encodeCSV turns our list of tile gids back into csv format
func (d *Data) encodeCSV(width, height int, in []uint) []byte {
	values := make([]string, height)

	for row := 0; row < height; row++ {
		csvrow := make([]string, width)
		for col := 0; col < width; col++ {
			csvrow[col] = strconv.Itoa(int(in[row*width+col]))
		}
		values[row] = strings.Join(csvrow, ",")
	}

	return []byte("\n" + strings.Join(values, ",\n") + "\n")
}

// decodeCSV reads csv encoded tile data
func (d *Data) decodeCSV() ([]uint, error) {
	cleaner := func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ',' {
			return r
		}
		return -1
	}

	rawDataClean := strings.Map(cleaner, string(d.RawData))
	if rawDataClean == "" {
		return []uint{}, nil
	}

	str := strings.Split(rawDataClean, ",")

	gids := make([]uint, len(str))
	for i, s := range str {
		d, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, err
		}
		gids[i] = uint(d)
	}
	return gids, nil
}
