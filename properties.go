package wfc

import (
	"sort"
	"strconv"
)

const (
	// Property types
	// see doc.mapeditor.org/en/stable/reference/tmx-map-format/#properties
	PropString = "string"
	PropInt    = "int"
	PropBool   = "bool"
)

// Property names we write onto exported tiles, describing their Origin
const (
	propTileID   = "wfc.id"
	propCol      = "wfc.col"
	propRow      = "wfc.row"
	propRotation = "wfc.rotation"
	propFlipX    = "wfc.flip_x"
	propFlipY    = "wfc.flip_y"
)

// Properties is a more straight forward []*Property (used by the raw XML)
// keyed by name, that handles types a bit more gracefully.
type Properties struct {
	values map[string]Property
}

// NewProperties returns an empty properties
func NewProperties() *Properties {
	return &Properties{values: map[string]Property{}}
}

// Merge properties `o` into this properties
func (p *Properties) Merge(o *Properties) *Properties {
	if o == nil {
		return p
	}
	for k, v := range o.values {
		p.values[k] = v
	}
	return p
}

// Len returns how many properties are set
func (p *Properties) Len() int {
	return len(p.values)
}

// toList mutates our nicer properties wrapper back into []*Property understood
// by the XML encoder, sorted by name so output is stable.
func (p *Properties) toList() []*Property {
	ps := make([]*Property, 0, len(p.values))
	for _, v := range p.values {
		v := v
		ps = append(ps, &v)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
	return ps
}

// newPropertiesFromList turns the XML []Property into our nicer properties
// wrapper struct.
func newPropertiesFromList(in []*Property) *Properties {
	ps := NewProperties()
	for _, i := range in {
		t := i.Type
		if t != PropInt && t != PropBool {
			// we don't use float, image etc
			t = PropString
		}
		ps.values[i.Name] = Property{Name: i.Name, Value: i.Value, Type: t}
	}
	return ps
}

func (p *Properties) String(key string) (string, bool) {
	v, ok := p.values[key]
	if !ok || v.Type != PropString {
		return "", false
	}
	return v.Value, true
}

func (p *Properties) SetString(key, value string) {
	p.values[key] = Property{Name: key, Value: value, Type: PropString}
}

func (p *Properties) Int(key string) (int, bool) {
	v, ok := p.values[key]
	if !ok || v.Type != PropInt {
		return 0, false
	}
	i, err := strconv.Atoi(v.Value)
	return i, err == nil
}

func (p *Properties) SetInt(key string, value int) {
	p.values[key] = Property{Name: key, Value: strconv.Itoa(value), Type: PropInt}
}

func (p *Properties) Bool(key string) (bool, bool) {
	v, ok := p.values[key]
	if !ok || v.Type != PropBool {
		return false, false
	}
	return v.Value == "true", true
}

func (p *Properties) SetBool(key string, value bool) {
	p.values[key] = Property{Name: key, Value: strconv.FormatBool(value), Type: PropBool}
}

// TileProperties describes where a catalog tile came from, as written onto
// exported tiles.
func TileProperties(t *Tile) *Properties {
	p := NewProperties()
	p.SetInt(propTileID, t.ID)
	p.SetInt(propCol, t.Origin.Col)
	p.SetInt(propRow, t.Origin.Row)
	p.SetInt(propRotation, t.Origin.Rotation)
	p.SetBool(propFlipX, t.Origin.FlipX)
	p.SetBool(propFlipY, t.Origin.FlipY)
	return p
}

// TileID returns the catalog id recorded on an exported tile, if any.
func (p *Properties) TileID() (int, bool) {
	return p.Int(propTileID)
}

// Origin returns the tile origin recorded on an exported tile.
func (p *Properties) Origin() Origin {
	o := Origin{}
	o.Col, _ = p.Int(propCol)
	o.Row, _ = p.Int(propRow)
	o.Rotation, _ = p.Int(propRotation)
	o.FlipX, _ = p.Bool(propFlipX)
	o.FlipY, _ = p.Bool(propFlipY)
	return o
}

// ParseProperties reads loosely typed key=value strings (eg. from a command
// line) guessing bool, then int, falling back to string.
func ParseProperties(in map[string]string) *Properties {
	p := NewProperties()
	for k, v := range in {
		if v == "true" || v == "false" {
			p.SetBool(k, v == "true")
			continue
		}
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			p.SetInt(k, int(i))
		} else {
			p.SetString(k, v)
		}
	}
	return p
}
