package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Neumenon/flexjson/codec"
)

// configEnv names a config file used when --config is not given.
const configEnv = "FLEXJSON_CONFIG"

// Config is the CLI configuration. Values load from a YAML file first;
// command-line flags override them.
type Config struct {
	Log            LogConfig `yaml:"log"`
	Codec          string    `yaml:"codec"`
	Zstd           bool      `yaml:"zstd"`
	ZstdLevel      int       `yaml:"zstd_level"`
	MaxDecodeBytes int       `yaml:"max_decode_bytes"`
	Pretty         bool      `yaml:"pretty"`
	CRC            bool      `yaml:"crc"`
	Hash           bool      `yaml:"hash"`
}

// LogConfig selects the codec logger.
type LogConfig struct {
	Backend string `yaml:"backend"` // zap, logrus, slog or none
	Level   string `yaml:"level"`   // debug, info, warn or error
	Format  string `yaml:"format"`  // text or json
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Log:   LogConfig{Backend: "none", Level: "info", Format: "text"},
		Codec: "json",
	}
}

// LoadConfig reads a YAML config file over the defaults. Unknown keys are
// rejected so that typos surface.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	// An empty file decodes as io.EOF and leaves the defaults.
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values and normalizes case.
func (c *Config) Validate() error {
	c.Log.Backend = strings.ToLower(c.Log.Backend)
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	c.Codec = strings.ToLower(c.Codec)

	switch c.Log.Backend {
	case "", "none", "zap", "logrus", "slog":
	default:
		return fmt.Errorf("config: unknown log backend %q", c.Log.Backend)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if _, err := codec.ByName(c.Codec); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.ZstdLevel < 0 || c.ZstdLevel > 22 {
		return fmt.Errorf("config: zstd_level %d out of range 0..22", c.ZstdLevel)
	}
	if c.MaxDecodeBytes < 0 {
		return fmt.Errorf("config: max_decode_bytes must not be negative")
	}
	return nil
}
