// Package config loads the treeize configuration file.
//
// The file lives at $XDG_CONFIG_HOME/treeize/config.toml. A missing file
// yields [Default]; a malformed one is an error.
//
//	[layout]
//	horizontal_spacing = 200
//	vertical_spacing = 150
//
//	[wire]
//	axis = "vertical"
//	smoothness = 1.0
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	terrors "github.com/matzehuels/treeize/pkg/errors"
	"github.com/matzehuels/treeize/pkg/geom"
	"github.com/matzehuels/treeize/pkg/layout"
	"github.com/matzehuels/treeize/pkg/wire"
)

const appName = "treeize"

// Config holds treeize configuration.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Wire   WireConfig   `toml:"wire"`
	Select SelectConfig `toml:"select"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// LayoutConfig mirrors [layout.Config].
type LayoutConfig struct {
	HorizontalSpacing float64 `toml:"horizontal_spacing"`
	VerticalSpacing   float64 `toml:"vertical_spacing"`
	StartX            float64 `toml:"start_x"`
	StartY            float64 `toml:"start_y"`
	DefaultWidth      float64 `toml:"default_width"`
	DefaultHeight     float64 `toml:"default_height"`
	MaxDepth          int     `toml:"max_depth"`
}

// WireConfig mirrors [wire.Style].
type WireConfig struct {
	FrameSize   float64 `toml:"frame_size"`
	Downscale   bool    `toml:"downscale"`
	Upscale     bool    `toml:"upscale"`
	Smoothness  float64 `toml:"smoothness"`
	Width       float64 `toml:"width"`
	MinHitWidth float64 `toml:"min_hit_width"`
	Axis        string  `toml:"axis"`
	Kind        string  `toml:"kind"`
}

// SelectConfig controls rectangle selection.
type SelectConfig struct {
	RectContained bool `toml:"rect_contained"`
}

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// CacheConfig selects the layout cache.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir,omitempty"`
	RedisAddr string   `toml:"redis_addr,omitempty"`
	Prefix    string   `toml:"prefix,omitempty"`
	TTL       Duration `toml:"ttl"`
}

// Store backends.
const (
	StoreFile  = "file"
	StoreMongo = "mongo"
)

// StoreConfig selects the document store.
type StoreConfig struct {
	Backend    string `toml:"backend"`
	Dir        string `toml:"dir,omitempty"`
	MongoURI   string `toml:"mongo_uri,omitempty"`
	Database   string `toml:"database,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// ServerConfig configures "treeize serve".
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	MaxBodyBytes    int64    `toml:"max_body_bytes"`
}

// Duration is a time.Duration written as a string such as "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	ws := wire.DefaultStyle()
	return &Config{
		Layout: LayoutConfig{
			HorizontalSpacing: layout.DefaultHorizontalSpacing,
			VerticalSpacing:   layout.DefaultVerticalSpacing,
			MaxDepth:          layout.DefaultMaxDepth,
		},
		Wire: WireConfig{
			FrameSize:   ws.FrameSize,
			Downscale:   ws.Downscale,
			Upscale:     ws.Upscale,
			Smoothness:  ws.Smoothness,
			Width:       ws.Width,
			MinHitWidth: ws.MinHitWidth,
			Axis:        ws.Axis.String(),
			Kind:        ws.Kind.String(),
		},
		Cache: CacheConfig{Backend: CacheFile, TTL: Duration{24 * time.Hour}},
		Store: StoreConfig{Backend: StoreFile},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: Duration{10 * time.Second},
			MaxBodyBytes:    4 << 20,
		},
	}
}

// Dir returns the treeize config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the default file cache directory (~/.cache/treeize/).
func CacheDir() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".cache")
	}
	return filepath.Join(dir, appName)
}

// Load reads the config at path, or at [Path] when path is empty. Keys
// absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path, or to [Path] when path is empty.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Encode renders the config as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeInternal, err, "encode config")
	}
	return buf.Bytes(), nil
}

// Validate checks value ranges and backend names.
func (c *Config) Validate() error {
	bad := func(format string, args ...any) error {
		return terrors.New(terrors.ErrCodeInvalidConfig, format, args...)
	}
	l := c.Layout
	if l.HorizontalSpacing < 0 || l.VerticalSpacing < 0 {
		return bad("layout spacing must not be negative")
	}
	if l.DefaultWidth < 0 || l.DefaultHeight < 0 {
		return bad("layout default size must not be negative")
	}
	if l.MaxDepth < 0 {
		return bad("layout max_depth must not be negative")
	}

	w := c.Wire
	if w.FrameSize < 0 {
		return bad("wire frame_size must not be negative")
	}
	if w.Smoothness < 0 || w.Smoothness > wire.MaxSmoothness {
		return bad("wire smoothness must be within 0..%v", wire.MaxSmoothness)
	}
	if w.Width < 0 || w.MinHitWidth < 0 {
		return bad("wire widths must not be negative")
	}
	if _, ok := wire.ParseAxis(w.Axis); !ok {
		return bad("unknown wire axis %q", w.Axis)
	}
	if _, ok := wire.ParseKind(w.Kind); !ok {
		return bad("unknown wire kind %q", w.Kind)
	}

	switch c.Cache.Backend {
	case CacheNone, CacheFile, "":
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return bad("cache backend redis requires redis_addr")
		}
	default:
		return bad("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return bad("cache ttl must not be negative")
	}

	switch c.Store.Backend {
	case StoreFile, "":
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return bad("store backend mongo requires mongo_uri")
		}
	default:
		return bad("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// LayoutConfig converts the [layout] section.
func (c *Config) LayoutConfig() layout.Config {
	l := c.Layout
	axis, _ := wire.ParseAxis(c.Wire.Axis)
	return layout.Config{
		Axis:              axis,
		HorizontalSpacing: l.HorizontalSpacing,
		VerticalSpacing:   l.VerticalSpacing,
		StartPos:          geom.V(l.StartX, l.StartY),
		DefaultSize:       geom.V(l.DefaultWidth, l.DefaultHeight),
		MaxDepth:          l.MaxDepth,
	}
}

// WireStyle converts the [wire] section. Unknown names fall back to the
// defaults; [Config.Validate] reports them.
func (c *Config) WireStyle() wire.Style {
	w := c.Wire
	axis, _ := wire.ParseAxis(w.Axis)
	kind, _ := wire.ParseKind(w.Kind)
	return wire.Style{
		FrameSize:   w.FrameSize,
		Downscale:   w.Downscale,
		Upscale:     w.Upscale,
		Smoothness:  w.Smoothness,
		Width:       w.Width,
		MinHitWidth: w.MinHitWidth,
		Axis:        axis,
		Kind:        kind,
	}
}
