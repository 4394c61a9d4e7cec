// Package config loads the optional bowtie configuration file.
//
// Configuration lives in TOML at ~/.config/bowtie/config.toml (or a path
// given explicitly). Every field has a working default, so the file is only
// needed to switch backends:
//
//	[cache]
//	backend = "redis"      # file | memory | redis | none
//
//	[redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//	store = "mongo"        # memory | mongo
//
//	[mongo]
//	uri = "mongodb://localhost:27017"
//
// Command-line flags override file values; the file overrides defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Cache backend names.
const (
	CacheFile   = "file"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Store backend names.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Config is the full configuration tree.
type Config struct {
	Cache  CacheConfig  `toml:"cache"`
	Redis  RedisConfig  `toml:"redis"`
	Mongo  MongoConfig  `toml:"mongo"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the compile cache.
type CacheConfig struct {
	// Backend is one of: file, memory, redis, none.
	Backend string `toml:"backend"`

	// Dir is the file cache directory. Defaults to the user cache dir.
	Dir string `toml:"dir"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig configures the mongo diagram store.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `toml:"addr"`

	// Store is one of: memory, mongo.
	Store string `toml:"store"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Cache:  CacheConfig{Backend: CacheFile},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Mongo:  MongoConfig{URI: "mongodb://localhost:27017"},
		Server: ServerConfig{Addr: ":8080", Store: StoreMemory},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "bowtie", "config.toml"), nil
}

// Load reads the config file at path. An empty path means the default
// location; a missing file at the default location is not an error and
// yields Default().
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
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
	case CacheFile, CacheMemory, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("invalid cache backend %q (must be one of: file, memory, redis, none)", c.Cache.Backend)
	}
	switch c.Server.Store {
	case StoreMemory, StoreMongo:
	default:
		return fmt.Errorf("invalid server store %q (must be one of: memory, mongo)", c.Server.Store)
	}
	return nil
}
