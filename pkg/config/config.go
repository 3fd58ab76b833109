// Package config loads phylotangle configuration from a TOML file.
//
// The file lives at ~/.config/phylotangle/config.toml by default and
// every field is optional; command-line flags override file values.
//
//	[render]
//	width  = 1024.0
//	height = 640.0
//	margin = 24.0
//
//	[cache]
//	backend    = "file"   # none | file | redis
//	redis_addr = "localhost:6379"
//
//	[store]
//	backend        = "file"   # file | mongo
//	mongo_uri      = "mongodb://localhost:27017"
//	mongo_database = "phylotangle"
//
//	[server]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Cache backend names accepted in [cache].backend.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Store backend names accepted in [store].backend.
const (
	StoreFile  = "file"
	StoreMongo = "mongo"
)

// Render holds layout and rendering defaults.
type Render struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	Margin float64 `toml:"margin"`
}

// CacheConfig selects and configures the artifact cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
}

// StoreConfig selects and configures the named-tree store backend.
type StoreConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Server holds HTTP service settings.
type Server struct {
	Addr string `toml:"addr"`
}

// Config is the root configuration.
type Config struct {
	Render Render      `toml:"render"`
	Cache  CacheConfig `toml:"cache"`
	Store  StoreConfig `toml:"store"`
	Server Server      `toml:"server"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Render: Render{Width: 1024, Height: 640, Margin: 24},
		Cache:  CacheConfig{Backend: CacheFile, RedisAddr: "localhost:6379"},
		Store:  StoreConfig{Backend: StoreFile, MongoURI: "mongodb://localhost:27017", MongoDatabase: "phylotangle"},
		Server: Server{Addr: ":8080"},
	}
}

// DefaultPath returns the standard config file location,
// ~/.config/phylotangle/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "phylotangle", "config.toml"), nil
}

// Load reads the config file at path, layering it over [Default].
// A missing file is not an error; the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case CacheNone, CacheFile, CacheRedis:
	default:
		return fmt.Errorf("invalid cache backend %q (must be none, file, or redis)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case StoreFile, StoreMongo:
	default:
		return fmt.Errorf("invalid store backend %q (must be file or mongo)", c.Store.Backend)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render frame must be positive, got %gx%g", c.Render.Width, c.Render.Height)
	}
	if c.Render.Margin < 0 || 2*c.Render.Margin >= c.Render.Width || 2*c.Render.Margin >= c.Render.Height {
		return fmt.Errorf("margin %g does not fit the %gx%g frame", c.Render.Margin, c.Render.Width, c.Render.Height)
	}
	return nil
}
