package wfc

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/go-yaml/yaml"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// Config includes settings for generating a map from an atlas.
type Config struct {
	// in pixels, 0 means "work it out from the atlas"
	TileSize int `yaml:"tile_size" toml:"tile_size"`

	// in tiles
	MapWidth  int `yaml:"map_width" toml:"map_width"`
	MapHeight int `yaml:"map_height" toml:"map_height"`

	// which variants of each atlas tile are added to the catalog
	AllowRotations bool `yaml:"allow_rotations" toml:"allow_rotations"`
	AllowFlipX     bool `yaml:"allow_flip_x" toml:"allow_flip_x"`
	AllowFlipY     bool `yaml:"allow_flip_y" toml:"allow_flip_y"`

	// one of "pixel", "edge" or "example"
	Strategy string `yaml:"strategy" toml:"strategy"`

	// how many times we try before giving up
	MaxAttempts int `yaml:"max_attempts" toml:"max_attempts"`

	// random seed, 0 seeds from the clock
	Seed int64 `yaml:"seed" toml:"seed"`
}

// DefaultConfig returns a config with default settings.
func DefaultConfig() *Config {
	return &Config{
		TileSize:       0,
		MapWidth:       38,
		MapHeight:      38,
		AllowRotations: true,
		AllowFlipX:     true,
		AllowFlipY:     false,
		Strategy:       EdgeMatch.String(),
		MaxAttempts:    DefaultMaxAttempts,
	}
}

// LoadConfig reads a .yaml / .yml or .toml file over the top of the default
// config. A leading ~ in the path is expanded to the user's home dir.
func LoadConfig(fname string) (*Config, error) {
	path, err := homedir.Expand(fname)
	if err != nil {
		return nil, err
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate returns an error if the config can't be used to generate a map.
func (c *Config) Validate() error {
	if c.MapWidth <= 0 || c.MapHeight <= 0 {
		return fmt.Errorf("%w: map %dx%d", ErrInvalidSize, c.MapWidth, c.MapHeight)
	}
	if c.TileSize < 0 {
		return fmt.Errorf("%w: tile size %d", ErrInvalidSize, c.TileSize)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	_, err := ParseStrategy(c.Strategy)
	return err
}

// CatalogOptions returns the tile slicing settings held by this config.
func (c *Config) CatalogOptions() CatalogOptions {
	return CatalogOptions{
		TileSize:       c.TileSize,
		AllowRotations: c.AllowRotations,
		AllowFlipX:     c.AllowFlipX,
		AllowFlipY:     c.AllowFlipY,
	}
}
