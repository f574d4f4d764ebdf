package matrix

import (
	"errors"
	"fmt"
	"time"

	"github.com/EinEisbxr/badapple-matrix/internal/hal"
)

// Geometry is fixed: 8 rows by 8 columns, one byte per row.
const (
	Rows = 8
	Cols = 8
	// FrameLen is the exact number of bytes in a frame.
	FrameLen = 8
)

// ErrFrameLength reports a frame that is not exactly FrameLen bytes.
var ErrFrameLength = errors.New("matrix: frame must be exactly 8 bytes")

// Frame is one 8x8 monochrome image. Byte index = row, top to bottom; bit
// (7-col) of a row byte = column col; 1 = lit.
type Frame []byte

// Bit reports whether the pixel at (row, col) is lit.
func (f Frame) Bit(row, col int) bool {
	return (f[row]>>(7-uint(col)))&1 == 1
}

// PinMap fixes which GPIO line drives each row select and column select.
// It is immutable for the life of the driver.
type PinMap struct {
	Rows [Rows]hal.Pin
	Cols [Cols]hal.Pin
}

// DefaultPins is the wiring of the original ESP32 build.
var DefaultPins = PinMap{
	Rows: [Rows]hal.Pin{34, 35, 32, 33, 25, 26, 27, 14},
	Cols: [Cols]hal.Pin{12, 13, 23, 22, 21, 19, 18, 5},
}

// Validate checks that all 16 lines are distinct.
func (m PinMap) Validate() error {
	seen := map[hal.Pin]string{}
	check := func(p hal.Pin, what string) error {
		if prev, ok := seen[p]; ok {
			return fmt.Errorf("matrix: pin %d wired to both %s and %s", int(p), prev, what)
		}
		seen[p] = what
		return nil
	}
	for i, p := range m.Rows {
		if err := check(p, fmt.Sprintf("row %d", i)); err != nil {
			return err
		}
	}
	for i, p := range m.Cols {
		if err := check(p, fmt.Sprintf("col %d", i)); err != nil {
			return err
		}
	}
	return nil
}

// Row lines are active-low, column lines active-high. Swapping either
// polarity inverts the physical panel.
const (
	rowActive   = hal.Low
	rowInactive = hal.High
	colActive   = hal.High
	colInactive = hal.Low
)

// DefaultDwell is how long each row stays enabled per scan pass.
const DefaultDwell = 50 * time.Microsecond

// Driver scans frames onto the panel one row at a time. It owns all 16
// select lines; nothing else may write them while the driver is alive.
type Driver struct {
	port  hal.Port
	pins  PinMap
	dwell time.Duration
}

// Option tweaks driver construction.
type Option func(*Driver)

// WithDwell overrides the per-row dwell time. Non-positive values are
// ignored.
func WithDwell(d time.Duration) Option {
	return func(drv *Driver) {
		if d > 0 {
			drv.dwell = d
		}
	}
}

// New validates the pin map, claims all 16 lines as outputs and parks them
// at their inactive levels (rows HIGH, columns LOW).
func New(port hal.Port, pins PinMap, opts ...Option) (*Driver, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{port: port, pins: pins, dwell: DefaultDwell}
	for _, o := range opts {
		o(d)
	}
	for i := 0; i < Rows; i++ {
		if err := port.ConfigureOutput(pins.Rows[i]); err != nil {
			return nil, fmt.Errorf("matrix: configure row %d: %w", i, err)
		}
		if err := port.ConfigureOutput(pins.Cols[i]); err != nil {
			return nil, fmt.Errorf("matrix: configure col %d: %w", i, err)
		}
		port.Write(pins.Rows[i], rowInactive)
		port.Write(pins.Cols[i], colInactive)
	}
	return d, nil
}

// Render drives one full scan pass of f. For each row in order: blank every
// line, raise the columns that are lit in this row, enable the row, hold for
// the dwell time. Blanking on every iteration is intentional; it keeps the
// previous row's column pattern from ghosting into the next row.
//
// Render blocks its caller for the whole pass (8 dwell periods plus write
// overhead) and leaves no row state behind: every call starts at row 0.
func (d *Driver) Render(f Frame) error {
	if len(f) != FrameLen {
		return ErrFrameLength
	}
	for row := 0; row < Rows; row++ {
		d.blank()
		for col := 0; col < Cols; col++ {
			if f.Bit(row, col) {
				d.port.Write(d.pins.Cols[col], colActive)
			}
		}
		d.port.Write(d.pins.Rows[row], rowActive)
		d.port.Delay(d.dwell)
	}
	return nil
}

// Blank drives every line to its inactive level, turning the panel off.
func (d *Driver) Blank() {
	d.blank()
}

func (d *Driver) blank() {
	for i := 0; i < Rows; i++ {
		d.port.Write(d.pins.Rows[i], rowInactive)
		d.port.Write(d.pins.Cols[i], colInactive)
	}
}

// Dwell returns the per-row dwell time.
func (d *Driver) Dwell() time.Duration { return d.dwell }

// Pins returns the pin map.
func (d *Driver) Pins() PinMap { return d.pins }
