package wfc

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mitchellh/go-homedir"
)

const (
	sqlUpsertCell  = `INSERT INTO cells (id, x, y, z, src) VALUES (:id, :x, :y, :z, :src) ON CONFLICT (id) DO UPDATE SET src=EXCLUDED.src;`
	sqlDeleteCell  = `DELETE FROM cells WHERE id=:id;`
	sqlUpsertProps = `INSERT INTO properties (src, data) VALUES (:src, :data) ON CONFLICT (src) DO UPDATE SET data=EXCLUDED.data;`
)

// namedExec allows us to use either a transaction.NamedExec or DB.NamedExec
// in our sub functions.
type namedExec func(string, interface{}) (sql.Result, error)

// NewStore creates a store with a random name in the os tempdir.
func NewStore() (*Store, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	fname := filepath.Join(os.TempDir(), fmt.Sprintf("wfc.%d.sqlite", rng.Intn(1000000)))
	return OpenStore(fname)
}

// OpenStore given it's filename (database file) on disk.
// Will create if it doesn't exist.
func OpenStore(fname string) (*Store, error) {
	path, err := homedir.Expand(fname)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, filename: path}
	return s, s.init()
}

// Store is an unbounded world of placed tiles kept in sqlite, so that many
// generated grids can be stitched together into maps far bigger than we'd
// want to solve (or hold in memory) at once.
//
// Any rectangle of it can be exported as a TMX Map.
type Store struct {
	filename string
	db       *sqlx.DB
}

// Filename returns the path to the store on disk
func (s *Store) Filename() string {
	return s.filename
}

// Close the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Set the given image src at (x,y,z), "" clears the cell.
func (s *Store) Set(x, y, z int, src string) error {
	return setCell(s.db.NamedExec, x, y, z, src)
}

// SetProperties for the given src. This doesn't merge, just overwrites.
func (s *Store) SetProperties(src string, props *Properties) error {
	return setProperties(s.db.NamedExec, src, props)
}

// At returns the tile src placed at the given location (or "" if unset)
func (s *Store) At(x, y, z int) (string, error) {
	var src string
	err := s.db.Get(&src, "SELECT src FROM cells WHERE id=?;", cellID(x, y, z))
	if err == sql.ErrNoRows {
		return "", nil
	}
	return src, err
}

// Properties returns properties for a given src.
// Asking for "" (the empty tile) always returns nil, otherwise if no
// properties are set an empty properties is returned.
func (s *Store) Properties(src string) (*Properties, error) {
	if src == "" {
		return nil, nil
	}

	result, err := s.properties(src)
	if err != nil {
		return nil, err
	}

	props := result[src]
	if props == nil {
		return NewProperties(), nil
	}
	return props, nil
}

// Fits returns if the width×height rectangle with top left (x,y) on z-level
// z is entirely empty.
func (s *Store) Fits(x, y, z, width, height int) (bool, error) {
	var num int64
	err := s.db.Get(
		&num,
		"SELECT count(*) FROM cells WHERE x>=? AND x<? AND y>=? AND y<? AND z=?;",
		x, x+width, y, y+height, z,
	)
	if err != nil {
		return false, err
	}
	return num == 0, nil
}

// PlaceGrid writes every collapsed cell of g with (x,y) as the top left
// corner on z-level z, in a single transaction.
func (s *Store) PlaceGrid(g *Grid, x, y, z int, tiles []*Tile, sources []string) error {
	txn, err := s.db.Beginx()
	if err != nil {
		return err
	}

	err = g.Place(&storeTxn{txn}, x, y, z, tiles, sources)
	if err != nil {
		txn.Rollback()
		return err
	}

	return txn.Commit()
}

// Map returns a TMX map with all tiles from the store in the rectangle
// (x0,y0)-(x1,y1), x1 & y1 exclusive.
func (s *Store) Map(tileSize, x0, y0, x1, y1 int) (*Map, error) {
	if x1 <= x0 || y1 <= y0 {
		return nil, fmt.Errorf("%w: requested map (%d,%d)-(%d,%d)", ErrInvalidSize, x0, y0, x1, y1)
	}

	m := NewMap(x1-x0, y1-y0, tileSize)

	cells := []dbCell{}
	err := s.db.Select(
		&cells,
		"SELECT id,x,y,z,src FROM cells WHERE x>=? AND x<? AND y>=? AND y<? ORDER BY z, y, x;",
		x0, x1, y0, y1,
	)
	if err != nil {
		return nil, err
	}

	srcs := []string{}
	seen := map[string]bool{}
	for _, c := range cells {
		if err := m.Set(c.X-x0, c.Y-y0, c.Z, c.Src); err != nil {
			return nil, err
		}
		if !seen[c.Src] {
			seen[c.Src] = true
			srcs = append(srcs, c.Src)
		}
	}

	srcProps, err := s.properties(srcs...)
	if err != nil {
		return nil, err
	}
	for src, props := range srcProps {
		if err := m.SetProperties(src, props); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// properties returns set properties by their src name
func (s *Store) properties(in ...string) (map[string]*Properties, error) {
	result := map[string]*Properties{}
	if len(in) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In("SELECT src, data FROM properties WHERE src IN (?);", in)
	if err != nil {
		return nil, err
	}

	rows := []dbProp{}
	err = s.db.Select(&rows, s.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		list := []*Property{}
		if err := json.Unmarshal([]byte(r.Data), &list); err != nil {
			return nil, fmt.Errorf("properties of %s: %w", r.Src, err)
		}
		result[r.Src] = newPropertiesFromList(list)
	}
	return result, nil
}

// init creates some DB tables for us if they don't exist
func (s *Store) init() error {
	createCells := `CREATE TABLE IF NOT EXISTS cells(
		id TEXT PRIMARY KEY,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		z INTEGER NOT NULL,
		src TEXT NOT NULL
	    );`
	_, err := s.db.Exec(createCells)
	if err != nil {
		return err
	}

	createProps := `CREATE TABLE IF NOT EXISTS properties(
		src TEXT PRIMARY KEY,
		data TEXT
	    );`
	_, err = s.db.Exec(createProps)
	return err
}

// storeTxn lets a Grid place itself inside a transaction
type storeTxn struct {
	txn *sqlx.Tx
}

func (t *storeTxn) Set(x, y, z int, src string) error {
	return setCell(t.txn.NamedExec, x, y, z, src)
}

func (t *storeTxn) SetProperties(src string, props *Properties) error {
	return setProperties(t.txn.NamedExec, src, props)
}

func setCell(do namedExec, x, y, z int, src string) error {
	c := newDBCell(x, y, z, src)
	query := sqlUpsertCell
	if src == "" {
		query = sqlDeleteCell
	}
	_, err := do(query, c)
	return err
}

func setProperties(do namedExec, src string, props *Properties) error {
	if src == "" {
		return fmt.Errorf("cannot set properties on the nil tile")
	}
	if props == nil {
		props = NewProperties()
	}
	_, err := do(sqlUpsertProps, newDBProp(src, props))
	return err
}

// cellID is unique per (x,y,z) so we can upsert with a simple query
func cellID(x, y, z int) string {
	return fmt.Sprintf("%d-%d-%d", x, y, z)
}

// dbCell object encodes a single placed tile.
type dbCell struct {
	ID  string `db:"id"`
	X   int    `db:"x"`
	Y   int    `db:"y"`
	Z   int    `db:"z"`
	Src string `db:"src"`
}

func newDBCell(x, y, z int, src string) dbCell {
	return dbCell{ID: cellID(x, y, z), X: x, Y: y, Z: z, Src: src}
}

// dbProp object encodes properties for a single src as JSON.
type dbProp struct {
	Src  string `db:"src"`
	Data string `db:"data"`
}

func newDBProp(src string, props *Properties) dbProp {
	databytes, _ := json.Marshal(props.toList())
	return dbProp{Src: src, Data: string(databytes)}
}
