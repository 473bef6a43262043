package wfc

import (
	"bytes"
	"image/color"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paintedTMX = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.4" orientation="orthogonal" width="3" height="2" tilewidth="16" tileheight="16">
 <tileset firstgid="1" name="painted" tilewidth="16" tileheight="16" tilecount="2">
  <tile id="0">
   <properties>
    <property name="wfc.id" type="int" value="4"/>
   </properties>
   <image source="grass.png" width="16" height="16"/>
  </tile>
  <tile id="1">
   <image source="water.png" width="16" height="16"/>
  </tile>
 </tileset>
 <layer id="1" name="0" width="3" height="2">
  <data encoding="csv">
1,0,2,
2,2,1
</data>
 </layer>
</map>
`

func TestDecode(t *testing.T) {
	m, err := Decode(strings.NewReader(paintedTMX))

	require.NoError(t, err)
	assert.Equal(t, 3, m.Width)
	assert.Equal(t, 2, m.Height)
	assert.Equal(t, 16, m.TileWidth)
	assert.Len(t, m.Tilesets, 1)
	assert.Equal(t, []int{0}, m.ZLevels())

	assert.Equal(t, "grass.png", m.At(0, 0, 0))
	assert.Equal(t, "", m.At(1, 0, 0))
	assert.Equal(t, "water.png", m.At(2, 0, 0))
	assert.Equal(t, "grass.png", m.At(2, 1, 0))
	assert.Equal(t, "", m.At(5, 5, 0))
	assert.Equal(t, "", m.At(0, 0, 1))

	id, ok := m.Properties("grass.png").TileID()
	assert.True(t, ok)
	assert.Equal(t, 4, id)

	_, ok = m.Properties("water.png").TileID()
	assert.False(t, ok)
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"encoding": strings.Replace(paintedTMX, `encoding="csv"`, `encoding="base64"`, 1),
		"length":   strings.Replace(paintedTMX, "2,2,1", "2,2", 1),
		"tilesets": strings.Replace(paintedTMX, "</tileset>", `</tileset><tileset firstgid="3" name="b"></tileset>`, 1),
		"xml":      paintedTMX[:40],
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestSetOutOfBounds(t *testing.T) {
	m := NewMap(2, 2, 8)

	assert.Error(t, m.Set(2, 0, 0, "a.png"))
	assert.Error(t, m.Set(0, -1, 0, "a.png"))
	assert.Empty(t, m.ZLevels())
}

func TestSetAndClear(t *testing.T) {
	m := NewMap(2, 2, 8)

	require.NoError(t, m.Set(1, 1, 3, "a.png"))
	require.NoError(t, m.Set(0, 1, 3, "b.png"))
	require.NoError(t, m.Set(0, 0, -1, "a.png"))

	assert.Equal(t, "a.png", m.At(1, 1, 3))
	assert.Equal(t, "b.png", m.At(0, 1, 3))
	assert.Equal(t, []int{-1, 3}, m.ZLevels())
	assert.Len(t, m.Tilesets[0].Tiles, 2)

	require.NoError(t, m.Set(1, 1, 3, ""))
	assert.Equal(t, "", m.At(1, 1, 3))

	assert.Error(t, m.SetProperties("", NewProperties()))
	assert.Nil(t, m.Properties(""))
	assert.Nil(t, m.Properties("c.png"))
}

func TestEncodeCSV(t *testing.T) {
	d := &Data{}

	raw := d.encodeCSV(3, 2, []uint{1, 0, 2, 2, 2, 1})

	assert.Equal(t, "\n1,0,2,\n2,2,1\n", string(raw))

	d.RawData = raw
	gids, err := d.decodeCSV()
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 0, 2, 2, 2, 1}, gids)

	d.RawData = []byte("\n \n")
	gids, err = d.decodeCSV()
	require.NoError(t, err)
	assert.Empty(t, gids)
}

func TestExportRoundTrip(t *testing.T) {
	atlas := atlasOf(2, [][]color.NRGBA{{grey(100), grey(104), grey(108)}})
	tiles, err := BuildCatalog(atlas, CatalogOptions{TileSize: 2})
	require.NoError(t, err)
	table, err := InferAdjacency(tiles, PixelMatch, nil)
	require.NoError(t, err)
	g, err := Solve(5, 4, table, &SolveOptions{Rand: rand.New(rand.NewSource(2))})
	require.NoError(t, err)

	sources := TileSources("solid", tiles)
	assert.Equal(t, []string{"solid.0.png", "solid.1.png", "solid.2.png"}, sources)

	m, err := g.Export(tiles, sources)
	require.NoError(t, err)
	assert.Len(t, m.Tilesets[0].Tiles, 3)

	buf := bytes.Buffer{}
	require.NoError(t, m.Encode(&buf))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 5, decoded.Width)
	assert.Equal(t, 4, decoded.Height)
	assert.Equal(t, 2, decoded.TileWidth)

	expect := g.Tiles()
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			assert.Equal(t, sources[expect[y][x]], decoded.At(x, y, 0))
		}
	}

	example, err := ExampleFromMap(decoded, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, expect, example)

	props := decoded.Properties(sources[1])
	require.NotNil(t, props)
	assert.Equal(t, Origin{Col: 1}, props.Origin())
}

func TestWriteFileOpen(t *testing.T) {
	m := NewMap(2, 1, 4)
	require.NoError(t, m.Set(0, 0, 0, "a.png"))
	props := NewProperties()
	props.SetString("biome", "desert")
	m.SetMapProperties(props)

	fname := filepath.Join(t.TempDir(), "out.tmx")
	require.NoError(t, m.WriteFile(fname))

	read, err := Open(fname)
	require.NoError(t, err)
	assert.Equal(t, "a.png", read.At(0, 0, 0))
	assert.Equal(t, "", read.At(1, 0, 0))

	v, ok := read.MapProperties().String("biome")
	assert.True(t, ok)
	assert.Equal(t, "desert", v)
}

func TestExampleFromMapWithNames(t *testing.T) {
	m, err := Decode(strings.NewReader(paintedTMX))
	require.NoError(t, err)

	example, err := ExampleFromMap(m, 0, map[string]int{"water.png": 1})

	require.NoError(t, err)
	assert.Equal(t, [][]int{{-1, -1, 1}, {1, 1, -1}}, example)

	byProperty, err := ExampleFromMap(m, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{4, -1, -1}, {-1, -1, 4}}, byProperty)

	_, err = ExampleFromMap(m, 2, nil)
	assert.Error(t, err)
}

func TestProperties(t *testing.T) {
	p := NewProperties()
	p.SetInt("n", 3)
	p.SetBool("b", true)
	p.SetString("s", "x")

	other := NewProperties()
	other.SetInt("n", 4)
	p.Merge(other).Merge(nil)

	n, ok := p.Int("n")
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	b, ok := p.Bool("b")
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = p.Int("s")
	assert.False(t, ok)
	_, ok = p.String("missing")
	assert.False(t, ok)

	list := p.toList()
	require.Len(t, list, 3)
	assert.Equal(t, "b", list[0].Name)
	assert.Equal(t, 3, newPropertiesFromList(list).Len())
}

func TestParseProperties(t *testing.T) {
	p := ParseProperties(map[string]string{"a": "true", "b": "12", "c": "12x", "d": "false"})

	a, ok := p.Bool("a")
	assert.True(t, ok)
	assert.True(t, a)
	d, ok := p.Bool("d")
	assert.True(t, ok)
	assert.False(t, d)
	b, ok := p.Int("b")
	assert.True(t, ok)
	assert.Equal(t, 12, b)
	c, ok := p.String("c")
	assert.True(t, ok)
	assert.Equal(t, "12x", c)
}

func TestFlippedTilesKeepTheirSource(t *testing.T) {
	// gid 2 flipped horizontally (0x80000000) & 1 flipped diagonally (0x20000000)
	painted := strings.Replace(paintedTMX, "2,2,1", "2147483650,2,536870913", 1)
	m, err := Decode(strings.NewReader(painted))
	require.NoError(t, err)

	assert.Equal(t, "water.png", m.At(0, 1, 0))
	assert.Equal(t, "grass.png", m.At(2, 1, 0))

	example, err := ExampleFromMap(m, 0, map[string]int{"grass.png": 0, "water.png": 1})
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, -1, 1}, {1, 1, 0}}, example)
}
