package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/EinEisbxr/badapple-matrix/internal/frames"
	"github.com/EinEisbxr/badapple-matrix/internal/hal"
	"github.com/EinEisbxr/badapple-matrix/internal/matrix"
)

type Pins struct {
	Rows []int `yaml:"rows"`
	Cols []int `yaml:"cols"`
}

type Scan struct {
	DwellUs int `yaml:"dwell_us"` // per-row hold, microseconds
}

type Frames struct {
	Path      string `yaml:"path"`      // converter hex dump or 8x8 GIF
	Format    string `yaml:"format"`    // "packed" | "gray8" (ignored for GIF)
	Threshold int    `yaml:"threshold"` // grayscale cutoff 0..255
}

type Player struct {
	FPS  int  `yaml:"fps"`
	Loop bool `yaml:"loop"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	Driver   string `yaml:"driver"` // "gpio" | "sim"
	SelfTest bool   `yaml:"selftest"`

	Pins   Pins   `yaml:"pins"`
	Scan   Scan   `yaml:"scan"`
	Frames Frames `yaml:"frames"`
	Player Player `yaml:"player"`
	HTTP   HTTP   `yaml:"http,omitempty"`
}

// Default mirrors the original hardware build: ESP32 pin map, 50µs dwell,
// looping playback.
func Default() *Config {
	c := &Config{
		Driver: "sim",
		Scan:   Scan{DwellUs: 50},
		Frames: Frames{Format: string(frames.Packed), Threshold: 128},
		Player: Player{FPS: 30, Loop: true},
		HTTP:   HTTP{Addr: ":8080"},
	}
	for i := 0; i < matrix.Rows; i++ {
		c.Pins.Rows = append(c.Pins.Rows, int(matrix.DefaultPins.Rows[i]))
		c.Pins.Cols = append(c.Pins.Cols, int(matrix.DefaultPins.Cols[i]))
	}
	return c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	switch c.Driver {
	case "gpio", "sim":
	default:
		return fmt.Errorf("config: unknown driver %q", c.Driver)
	}
	if _, err := c.PinMap(); err != nil {
		return err
	}
	if c.Scan.DwellUs <= 0 {
		return fmt.Errorf("config: scan.dwell_us must be positive, got %d", c.Scan.DwellUs)
	}
	if c.Player.FPS <= 0 {
		return fmt.Errorf("config: player.fps must be positive, got %d", c.Player.FPS)
	}
	if c.Frames.Threshold < 0 || c.Frames.Threshold > 255 {
		return fmt.Errorf("config: frames.threshold must be 0..255, got %d", c.Frames.Threshold)
	}
	if _, err := frames.ParseFormat(c.Frames.Format); err != nil {
		return err
	}
	return nil
}

// PinMap converts the configured pin lists into a validated matrix.PinMap.
func (c *Config) PinMap() (matrix.PinMap, error) {
	var m matrix.PinMap
	if len(c.Pins.Rows) != matrix.Rows {
		return m, fmt.Errorf("config: pins.rows needs exactly %d entries, got %d", matrix.Rows, len(c.Pins.Rows))
	}
	if len(c.Pins.Cols) != matrix.Cols {
		return m, fmt.Errorf("config: pins.cols needs exactly %d entries, got %d", matrix.Cols, len(c.Pins.Cols))
	}
	for i := range c.Pins.Rows {
		m.Rows[i] = hal.Pin(c.Pins.Rows[i])
		m.Cols[i] = hal.Pin(c.Pins.Cols[i])
	}
	return m, m.Validate()
}
