// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framecore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the presentation configuration shared by the bootstrap and
// the frame loop.
type Config struct {
	// Title is the window title used by windowed gates.
	Title string

	// Width and Height are the surface size in pixels. Both must be > 0.
	Width  uint32
	Height uint32

	// Format is the pixel layout of every surface image.
	Format gputypes.TextureFormat

	// BufferCount is the number of images in the presentation ring (>= 2).
	BufferCount int

	// SyncInterval is passed to Present: 0 presents immediately, 1 waits
	// for the next vertical refresh.
	SyncInterval uint32

	// ClearColor is the color each frame's render target is cleared to.
	ClearColor gputypes.Color

	// WaitTimeout bounds each fence wait. Zero waits forever.
	WaitTimeout time.Duration

	// AllowSoftwareAdapter lets the bootstrap fall back to a software
	// adapter when no hardware adapter is found.
	AllowSoftwareAdapter bool

	// Debug enables the GPU API's debug and validation layers where the
	// backend has them.
	Debug bool
}

// Defaults used by DefaultConfig.
const (
	DefaultWidth        = 1280
	DefaultHeight       = 720
	DefaultBufferCount  = 2
	DefaultSyncInterval = 1
	DefaultTitle        = "framecore"
)

// DefaultConfig returns the configuration of the classic double-buffered
// 1280x720 BGRA8 vsync'd surface cleared to opaque black, with options
// applied on top.
func DefaultConfig(opts ...Option) Config {
	c := Config{
		Title:        DefaultTitle,
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		Format:       gputypes.TextureFormatBGRA8Unorm,
		BufferCount:  DefaultBufferCount,
		SyncInterval: DefaultSyncInterval,
		ClearColor:   gputypes.Color{R: 0, G: 0, B: 0, A: 1},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Validate reports the first out-of-range field, wrapped in
// ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.Width == 0 || c.Height == 0:
		return fmt.Errorf("%w: surface size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.BufferCount < 2:
		return fmt.Errorf("%w: buffer count %d (need at least 2)", ErrInvalidConfig, c.BufferCount)
	case c.SyncInterval > 1:
		return fmt.Errorf("%w: sync interval %d (want 0 or 1)", ErrInvalidConfig, c.SyncInterval)
	case c.Format == gputypes.TextureFormatUndefined:
		return fmt.Errorf("%w: undefined surface format", ErrInvalidConfig)
	case c.WaitTimeout < 0:
		return fmt.Errorf("%w: negative wait timeout %v", ErrInvalidConfig, c.WaitTimeout)
	}
	return nil
}

// fileConfig is the on-disk form of Config. Colors are [r, g, b, a] and
// the format is a name accepted by ParseFormat.
type fileConfig struct {
	Title         string    `toml:"title" yaml:"title"`
	Width         uint32    `toml:"width" yaml:"width"`
	Height        uint32    `toml:"height" yaml:"height"`
	Format        string    `toml:"format" yaml:"format"`
	Buffers       int       `toml:"buffers" yaml:"buffers"`
	VSync         *bool     `toml:"vsync" yaml:"vsync"`
	ClearColor    []float64 `toml:"clear_color" yaml:"clear_color"`
	WaitTimeout   string    `toml:"wait_timeout" yaml:"wait_timeout"`
	AllowSoftware bool      `toml:"allow_software_adapter" yaml:"allow_software_adapter"`
	Debug         bool      `toml:"debug" yaml:"debug"`
}

// LoadConfig reads a TOML (.toml) or YAML (.yaml, .yml) file on top of
// DefaultConfig and validates the result. Fields absent from the file keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(filepath.Ext(path), data)
}

// ParseConfig decodes data according to ext (".toml", ".yaml" or ".yml").
func ParseConfig(ext string, data []byte) (Config, error) {
	var fc fileConfig
	switch strings.ToLower(ext) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fc); err != nil {
			return Config{}, fmt.Errorf("%w: decode toml: %w", ErrInvalidConfig, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil {
			return Config{}, fmt.Errorf("%w: decode yaml: %w", ErrInvalidConfig, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, ext)
	}

	c := DefaultConfig()
	if fc.Title != "" {
		c.Title = fc.Title
	}
	if fc.Width != 0 {
		c.Width = fc.Width
	}
	if fc.Height != 0 {
		c.Height = fc.Height
	}
	if fc.Format != "" {
		f, err := ParseFormat(fc.Format)
		if err != nil {
			return Config{}, err
		}
		c.Format = f
	}
	if fc.Buffers != 0 {
		c.BufferCount = fc.Buffers
	}
	if fc.VSync != nil && !*fc.VSync {
		c.SyncInterval = 0
	}
	if fc.ClearColor != nil {
		if len(fc.ClearColor) != 4 {
			return Config{}, fmt.Errorf("%w: clear_color needs 4 components, got %d", ErrInvalidConfig, len(fc.ClearColor))
		}
		c.ClearColor = gputypes.Color{R: fc.ClearColor[0], G: fc.ClearColor[1], B: fc.ClearColor[2], A: fc.ClearColor[3]}
	}
	if fc.WaitTimeout != "" {
		d, err := time.ParseDuration(fc.WaitTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("%w: wait_timeout: %w", ErrInvalidConfig, err)
		}
		c.WaitTimeout = d
	}
	c.AllowSoftwareAdapter = fc.AllowSoftware
	c.Debug = fc.Debug

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// formats lists the surface formats accepted in configuration files.
var formats = map[string]gputypes.TextureFormat{
	"bgra8unorm": gputypes.TextureFormatBGRA8Unorm,
	"rgba8unorm": gputypes.TextureFormatRGBA8Unorm,
}

// ParseFormat maps a case-insensitive format name ("bgra8unorm",
// "rgba8unorm") to its texture format.
func ParseFormat(name string) (gputypes.TextureFormat, error) {
	f, ok := formats[strings.ToLower(name)]
	if !ok {
		return gputypes.TextureFormatUndefined, fmt.Errorf("%w: unknown surface format %q", ErrInvalidConfig, name)
	}
	return f, nil
}

// FormatName returns the configuration name of f, or "undefined".
func FormatName(f gputypes.TextureFormat) string {
	for name, v := range formats {
		if v == f {
			return name
		}
	}
	return "undefined"
}
