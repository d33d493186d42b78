package config

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const (
	DeviceCamera  = "camera"
	DevicePattern = "pattern"

	ModeFreeze      = "freeze"
	ModePassthrough = "passthrough"
)

// Config holds all runtime configuration of the effect binary. It is fixed
// once parsed.
type Config struct {
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	RowsPerStep int    `yaml:"rows_per_step"`
	Marker      string `yaml:"marker"` // #RRGGBBAA
	Device      string `yaml:"device"` // camera, pattern
	CameraIndex int    `yaml:"camera_index"`
	FPS         int    `yaml:"fps"`
	Mode        string `yaml:"mode"` // freeze, passthrough
	PreviewAddr string `yaml:"preview_addr"`
	Quality     int    `yaml:"quality"`
	Debug       bool   `yaml:"debug"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Width:       640,
		Height:      480,
		RowsPerStep: 1,
		Marker:      "#A349A47E",
		Device:      DeviceCamera,
		CameraIndex: 0,
		FPS:         60,
		Mode:        ModeFreeze,
		Quality:     70,
	}
}

// Load reads a YAML file over the defaults. The result is not validated,
// so callers can apply overrides first and then call Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// ParseFlags parses args for the effect binary. Values come from the
// defaults, then the -config file if given, then any flag set explicitly.
func ParseFlags(name string, args []string) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("config", "", "YAML config file")

	flagged := Default()
	fs.IntVar(&flagged.Width, "width", flagged.Width, "Frame width in pixels")
	fs.IntVar(&flagged.Height, "height", flagged.Height, "Frame height in pixels")
	fs.IntVar(&flagged.RowsPerStep, "rows", flagged.RowsPerStep, "Rows frozen per frame")
	fs.StringVar(&flagged.Marker, "marker", flagged.Marker, "Marker row color as #RRGGBBAA")
	fs.StringVar(&flagged.Device, "device", flagged.Device, "Frame device: camera or pattern")
	fs.IntVar(&flagged.CameraIndex, "camera", flagged.CameraIndex, "Camera index")
	fs.IntVar(&flagged.FPS, "fps", flagged.FPS, "Target frames per second")
	fs.StringVar(&flagged.Mode, "mode", flagged.Mode, "Effect mode: freeze or passthrough")
	fs.StringVar(&flagged.PreviewAddr, "preview", flagged.PreviewAddr, "Preview server listen address (empty disables)")
	fs.IntVar(&flagged.Quality, "quality", flagged.Quality, "Preview JPEG quality (1-100)")
	fs.BoolVar(&flagged.Debug, "debug", flagged.Debug, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if *path != "" {
		loaded, err := Load(*path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Width = flagged.Width
		case "height":
			cfg.Height = flagged.Height
		case "rows":
			cfg.RowsPerStep = flagged.RowsPerStep
		case "marker":
			cfg.Marker = flagged.Marker
		case "device":
			cfg.Device = flagged.Device
		case "camera":
			cfg.CameraIndex = flagged.CameraIndex
		case "fps":
			cfg.FPS = flagged.FPS
		case "mode":
			cfg.Mode = flagged.Mode
		case "preview":
			cfg.PreviewAddr = flagged.PreviewAddr
		case "quality":
			cfg.Quality = flagged.Quality
		case "debug":
			cfg.Debug = flagged.Debug
		}
	})

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg for values the effect cannot run with.
func Validate(cfg *Config) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: frame size must be positive, got %dx%d", ErrInvalid, cfg.Width, cfg.Height)
	}
	if cfg.RowsPerStep <= 0 {
		return fmt.Errorf("%w: rows_per_step must be positive, got %d", ErrInvalid, cfg.RowsPerStep)
	}
	if cfg.Height%cfg.RowsPerStep != 0 {
		return fmt.Errorf("%w: height %d is not a multiple of rows_per_step %d", ErrInvalid, cfg.Height, cfg.RowsPerStep)
	}
	if cfg.FPS <= 0 || cfg.FPS > 60 {
		return fmt.Errorf("%w: fps must be 1-60, got %d", ErrInvalid, cfg.FPS)
	}
	switch cfg.Device {
	case DeviceCamera, DevicePattern:
	default:
		return fmt.Errorf("%w: unknown device %q", ErrInvalid, cfg.Device)
	}
	switch cfg.Mode {
	case ModeFreeze, ModePassthrough:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalid, cfg.Mode)
	}
	if _, err := ParseColor(cfg.Marker); err != nil {
		return fmt.Errorf("%w: marker: %v", ErrInvalid, err)
	}
	return nil
}

// MarkerColor returns the parsed marker color. cfg must have passed
// Validate.
func (c *Config) MarkerColor() color.RGBA {
	mc, _ := ParseColor(c.Marker)
	return mc
}

// ParseColor parses #RRGGBBAA, or #RRGGBB as fully opaque.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 6:
		hex += "ff"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("color %q must be #RRGGBB or #RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: byte(v >> 24), G: byte(v >> 16), B: byte(v >> 8), A: byte(v)}, nil
}

// ViewerConfig holds configuration for the viewer binary.
type ViewerConfig struct {
	HostURL string
	Width   int
	Height  int
	Debug   bool
}

// ParseViewerFlags parses args for the viewer binary.
func ParseViewerFlags(name string, args []string) (*ViewerConfig, error) {
	d := Default()
	cfg := &ViewerConfig{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.HostURL, "host", "ws://localhost:8090/signal", "Preview signaling WebSocket URL")
	fs.IntVar(&cfg.Width, "width", d.Width, "Frame width in pixels")
	fs.IntVar(&cfg.Height, "height", d.Height, "Frame height in pixels")
	fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.HostURL == "" {
		return nil, fmt.Errorf("%w: -host is required", ErrInvalid)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: frame size must be positive, got %dx%d", ErrInvalid, cfg.Width, cfg.Height)
	}
	return cfg, nil
}
