// Package config loads the stackdepth configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/stackdepth/config.toml
// (~/.config/stackdepth/config.toml when XDG_CONFIG_HOME is unset). Every
// key is optional:
//
//	zmax = 4194304
//	log_level = "info"
//
//	[cache]
//	backend = "file"      # file, redis or none
//	ttl = "24h"
//	dir = "/tmp/stackdepth"
//	redis_addr = "localhost:6379"
//
//	[serve]
//	addr = ":8080"
//	max_scenes = 1024
//
// Command-line flags override values from the file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/stacking"
)

const appName = "stackdepth"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Defaults.
const (
	DefaultTTL       = 24 * time.Hour
	DefaultServeAddr = ":8080"
	DefaultRedisAddr = "localhost:6379"
	DefaultMaxScenes = 1024
	DefaultLogLevel  = "info"
	DefaultSceneTTL  = time.Hour
)

// Config is the parsed configuration file.
type Config struct {
	ZMax     float64 `toml:"zmax"`
	LogLevel string  `toml:"log_level"`
	Cache    Cache   `toml:"cache"`
	Serve    Serve   `toml:"serve"`
}

// Cache configures where pipeline results are kept.
type Cache struct {
	Backend   string        `toml:"backend"`
	TTL       time.Duration `toml:"ttl"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
}

// Serve configures the HTTP API.
type Serve struct {
	Addr      string        `toml:"addr"`
	MaxScenes int           `toml:"max_scenes"`
	SceneTTL  time.Duration `toml:"scene_ttl"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	if c.ZMax == 0 {
		c.ZMax = stacking.DefaultZMax
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultTTL
	}
	if c.Cache.Dir == "" {
		if dir, err := CacheDir(); err == nil {
			c.Cache.Dir = dir
		}
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = DefaultRedisAddr
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultServeAddr
	}
	if c.Serve.MaxScenes == 0 {
		c.Serve.MaxScenes = DefaultMaxScenes
	}
	if c.Serve.SceneTTL == 0 {
		c.Serve.SceneTTL = DefaultSceneTTL
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.ZMax <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "zmax must be positive, got %v", c.ZMax)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown log_level %q", c.LogLevel)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if err := errors.ValidateAddr(c.Cache.RedisAddr); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache.redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if err := errors.ValidateAddr(c.Serve.Addr); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "serve.addr")
	}
	if c.Serve.MaxScenes < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "serve.max_scenes must not be negative")
	}
	if c.Serve.SceneTTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "serve.scene_ttl must not be negative")
	}
	return nil
}

// Load reads the file at path, applies defaults and validates the result.
// An empty path loads the default location, and a missing file there is
// not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	var c Config
	md, err := toml.DecodeFile(path, &c)
	switch {
	case err == nil:
	case os.IsNotExist(err) && !explicit:
		return Default(), nil
	case os.IsNotExist(err):
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	default:
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}

	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/stackdepth/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the cache directory using XDG standard (~/.cache/stackdepth/).
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
