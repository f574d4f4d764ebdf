package matrix

import (
	"time"

	"github.com/rs/zerolog"
)

// SelfTestDwell is how long each pixel stays lit during the diagnostic.
const SelfTestDwell = 200 * time.Millisecond

// SelfTest lights all 64 pixels one at a time in row-major order, logging
// the pins exercised, then blanks the panel. It is a hardware bring-up
// diagnostic; the scan path does not use it.
func (d *Driver) SelfTest(log zerolog.Logger) {
	log.Info().Msg("testing individual pixels")
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			d.blank()
			d.port.Write(d.pins.Cols[col], colActive)
			d.port.Write(d.pins.Rows[row], rowActive)
			log.Info().
				Int("row", row).Int("row_pin", int(d.pins.Rows[row])).
				Int("col", col).Int("col_pin", int(d.pins.Cols[col])).
				Msg("pixel lit")
			d.port.Delay(SelfTestDwell)
		}
	}
	d.blank()
	log.Info().Msg("pin test complete")
}
