// Package config holds the settings of the snarkagg command.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/eon-protocol/snarkagg"
)

type Config struct {
	CacheDir string    `toml:"cache_dir"`
	Workers  int       `toml:"workers"`
	PkCache  int       `toml:"pk_cache"`
	SRS      SRSConfig `toml:"srs"`
	Log      LogConfig `toml:"log"`
}

type SRSConfig struct {
	URL    string `toml:"url"`
	SHA256 string `toml:"sha256"`
	Path   string `toml:"path"`
	Size   int    `toml:"size"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a config object with all the fields filled out to
// their default values
func NewDefaultConfig() *Config {
	cache := ".snarkagg"
	if dir, err := os.UserCacheDir(); err == nil {
		cache = filepath.Join(dir, "snarkagg")
	}
	return &Config{
		CacheDir: cache,
		PkCache:  snarkagg.DefaultProvingKeyCache,
		Log:      LogConfig{Level: "info"},
	}
}

// ReadFile reads a config file from disk on top of the defaults.
func ReadFile(file string) (*Config, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := NewDefaultConfig()
	if _, err := toml.DecodeReader(f, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteFile writes the config to the given filepath.
func (cfg *Config) WriteFile(file string) error {
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(*cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (cfg *Config) SRSConfig() snarkagg.SRSConfig {
	return snarkagg.SRSConfig{
		Path:     cfg.SRS.Path,
		URL:      cfg.SRS.URL,
		SHA256:   cfg.SRS.SHA256,
		CacheDir: cfg.CacheDir,
		Size:     cfg.SRS.Size,
	}
}

func (cfg *Config) LogLevel() (zerolog.Level, error) {
	return zerolog.ParseLevel(cfg.Log.Level)
}
