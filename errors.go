package wfc

import "errors"

var (
	// ErrNoTilesFound is returned when slicing an atlas yields zero tiles
	// (tile size does not fit the image, or the image is empty).
	ErrNoTilesFound = errors.New("wfc: no tiles found in image")

	// ErrEmptyExample is returned when learned adjacency is requested from an
	// example grid without any painted cells.
	ErrEmptyExample = errors.New("wfc: example grid has no painted cells")

	// ErrContradiction indicates a cell's domain emptied during a solve attempt.
	ErrContradiction = errors.New("wfc: contradiction")

	// ErrStalled indicates an attempt exceeded its iteration bound.
	ErrStalled = errors.New("wfc: exceeded maximum iterations")

	// ErrUnsolvable is returned once every attempt has failed.
	ErrUnsolvable = errors.New("wfc: unable to generate map")

	// ErrInvalidSize indicates a non-positive grid or tile dimension.
	ErrInvalidSize = errors.New("wfc: invalid size")

	// ErrInvalidTile indicates a tile id outside the catalog.
	ErrInvalidTile = errors.New("wfc: invalid tile id")

	// ErrUnknownStrategy indicates an adjacency strategy name we don't know.
	ErrUnknownStrategy = errors.New("wfc: unknown adjacency strategy")
)
