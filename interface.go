package wfc

// Tileable represents something we can place generated tiles onto
type Tileable interface {
	// Set a single tile (given src image) at x,y,z
	Set(x, y, z int, src string) error

	// SetProperties sets properties on the given src
	SetProperties(src string, props *Properties) error
}
