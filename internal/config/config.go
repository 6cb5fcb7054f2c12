package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/EchoTools/tpgtools/pkg/archive"
	"github.com/EchoTools/tpgtools/pkg/imagefile"
	"github.com/EchoTools/tpgtools/pkg/tpg"
)

// Config holds the tool settings.
type Config struct {
	// Pipeline settings
	Workers      int    `json:"workers"`
	ImageFormat  string `json:"image_format"`
	FlipVertical bool   `json:"flip_vertical"`

	// Output packages
	Compression      string `json:"compression"` // none, zstd or xz
	CompressionLevel int    `json:"compression_level"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Workers      int
	ImageFormat  string
	FlipVertical bool
	Compression  string
	LogLevel     string
	LogFormat    string
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.ImageFormat != "" {
		c.ImageFormat = flags.ImageFormat
	}
	if flags.FlipVertical {
		c.FlipVertical = true
	}
	if flags.Compression != "" {
		c.Compression = flags.Compression
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.LogFormat != "" {
		c.LogFormat = flags.LogFormat
	}

	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ImageFormat == "" {
		c.ImageFormat = string(imagefile.PNG)
	}
	if c.Compression == "" {
		c.Compression = string(tpg.NoCompression)
	}
	if c.CompressionLevel <= 0 {
		c.CompressionLevel = archive.DefaultCompressionLevel
	}
	if c.LogLevel == "" {
		c.LogLevel = logrus.InfoLevel.String()
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// WriteOptions returns the package write options for the configured
// compression.
func (c Config) WriteOptions() []tpg.WriteOption {
	method, _ := tpg.ParseCompression(c.Compression)
	switch method {
	case tpg.Zstd:
		return []tpg.WriteOption{tpg.WithCompression(c.CompressionLevel)}
	case tpg.XZ:
		return []tpg.WriteOption{tpg.WithXZ()}
	}
	return nil
}

// Validate checks the resolved settings.
func (c Config) Validate() error {
	if _, err := imagefile.ParseFormat(c.ImageFormat); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q (want text or json)", c.LogFormat)
	}
	if _, err := tpg.ParseCompression(c.Compression); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.CompressionLevel > 22 {
		return fmt.Errorf("config: compression level %d out of range 1-22", c.CompressionLevel)
	}
	return nil
}
