// Package config holds the program settings: defaults, an optional TOML file
// on top, and command-line flags applied last by main.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"lumen/gfx/quarkgl"
)

// DefaultEnvironment is the panorama loaded when nothing else is configured.
const DefaultEnvironment = "./paris8k.hdr"

var ErrInvalid = errors.New("invalid config")

// Config is the root of the TOML document.
type Config struct {
	LogLevel    string      `toml:"log_level"`
	HUD         bool        `toml:"hud"`
	Window      Window      `toml:"window"`
	Headless    Headless    `toml:"headless"`
	Render      Render      `toml:"render"`
	Environment Environment `toml:"environment"`
	Controls    Controls    `toml:"controls"`
}

type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	TPS    int    `toml:"tps"`
}

type Headless struct {
	Enabled  bool    `toml:"enabled"`
	Width    int     `toml:"width"`
	Height   int     `toml:"height"`
	Scale    float64 `toml:"scale"`
	Hz       int     `toml:"hz"`
	Frames   uint64  `toml:"frames"`
	Snapshot string  `toml:"snapshot"`
	Unpaced  bool    `toml:"unpaced"`
}

// Render configures the surface.
type Render struct {
	ToneMapping string  `toml:"tone_mapping"`
	Exposure    float64 `toml:"exposure"`
	Encoding    string  `toml:"encoding"`
	// PixelRatio overrides the display scale factor when positive.
	PixelRatio float64 `toml:"pixel_ratio"`
	// Workers is the number of row bands; 0 picks one per CPU.
	Workers   int    `toml:"workers"`
	Wireframe bool   `toml:"wireframe"`
	Clear     string `toml:"clear_color"` // #rrggbb
}

type Environment struct {
	Source   string   `toml:"source"`
	Timeout  Duration `toml:"timeout"`
	MaxWidth int      `toml:"max_width"`
}

type Controls struct {
	Enabled       bool    `toml:"enabled"`
	RotateSpeed   float64 `toml:"rotate_speed"`
	ZoomSpeed     float64 `toml:"zoom_speed"`
	MinDistance   float64 `toml:"min_distance"`
	MaxDistance   float64 `toml:"max_distance"` // 0 means unlimited
	EnableDamping bool    `toml:"enable_damping"`
	DampingFactor float64 `toml:"damping_factor"`
}

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel: "info",
		Window: Window{
			Title:  "lumen",
			Width:  960,
			Height: 540,
		},
		Headless: Headless{
			Width:  320,
			Height: 180,
			Scale:  1,
			Hz:     60,
		},
		Render: Render{
			ToneMapping: "aces",
			Exposure:    4,
			Encoding:    "srgb",
			Clear:       "#000000",
		},
		Environment: Environment{
			Source:   DefaultEnvironment,
			Timeout:  Duration{30 * time.Second},
			MaxWidth: 2048,
		},
		Controls: Controls{
			Enabled:       true,
			RotateSpeed:   1,
			ZoomSpeed:     1,
			DampingFactor: 0.05,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads a TOML document over the defaults and validates the result.
// Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return Config{}, fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
	}
	if _, err := c.Level(); err != nil {
		return bad("log_level %q", c.LogLevel)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return bad("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.TPS < 0 {
		return bad("window tps %d", c.Window.TPS)
	}
	if c.Headless.Width <= 0 || c.Headless.Height <= 0 {
		return bad("headless size %dx%d", c.Headless.Width, c.Headless.Height)
	}
	if c.Headless.Hz <= 0 || c.Headless.Hz > 1000 {
		return bad("headless hz %d", c.Headless.Hz)
	}
	if c.Headless.Scale < 0 {
		return bad("headless scale %v", c.Headless.Scale)
	}
	if _, ok := quarkgl.ParseToneMapping(c.Render.ToneMapping); !ok {
		return bad("tone_mapping %q", c.Render.ToneMapping)
	}
	if _, ok := quarkgl.ParseOutputEncoding(c.Render.Encoding); !ok {
		return bad("encoding %q", c.Render.Encoding)
	}
	if c.Render.Exposure <= 0 {
		return bad("exposure %v", c.Render.Exposure)
	}
	if c.Render.PixelRatio < 0 || c.Render.Workers < 0 {
		return bad("pixel_ratio %v workers %d", c.Render.PixelRatio, c.Render.Workers)
	}
	if _, err := c.Render.ClearColor(); err != nil {
		return bad("clear_color: %v", err)
	}
	if c.Environment.Timeout.Duration < 0 || c.Environment.MaxWidth < 0 {
		return bad("environment timeout %v max_width %d", c.Environment.Timeout, c.Environment.MaxWidth)
	}
	ctl := c.Controls
	if ctl.MinDistance < 0 || (ctl.MaxDistance > 0 && ctl.MaxDistance < ctl.MinDistance) {
		return bad("controls distance [%v, %v]", ctl.MinDistance, ctl.MaxDistance)
	}
	if ctl.DampingFactor <= 0 || ctl.DampingFactor > 1 {
		return bad("damping_factor %v", ctl.DampingFactor)
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

// ClearColor parses the #rrggbb clear color.
func (r Render) ClearColor() (quarkgl.Color, error) {
	var cr, cg, cb uint8
	if r.Clear == "" {
		return quarkgl.RGB(0, 0, 0), nil
	}
	if len(r.Clear) != 7 || r.Clear[0] != '#' {
		return quarkgl.Color{}, fmt.Errorf("want #rrggbb, got %q", r.Clear)
	}
	if _, err := fmt.Sscanf(r.Clear, "#%02x%02x%02x", &cr, &cg, &cb); err != nil {
		return quarkgl.Color{}, fmt.Errorf("%q: %w", r.Clear, err)
	}
	return quarkgl.RGB(cr, cg, cb), nil
}
