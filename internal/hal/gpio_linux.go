//go:build linux

package hal

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// GPIO drives real pins through periph.io. Callers must have run
// host.Init() before OpenGPIO.
type GPIO struct {
	pins map[Pin]gpio.PinOut
	log  zerolog.Logger
}

func OpenGPIO(log zerolog.Logger) (*GPIO, error) {
	return &GPIO{pins: map[Pin]gpio.PinOut{}, log: log}, nil
}

func (g *GPIO) ConfigureOutput(p Pin) error {
	if _, ok := g.pins[p]; ok {
		return nil
	}
	pin := gpioreg.ByName(fmt.Sprintf("GPIO%d", int(p)))
	if pin == nil {
		return fmt.Errorf("gpio: no such pin GPIO%d", int(p))
	}
	if err := pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("gpio: configure GPIO%d as output: %w", int(p), err)
	}
	g.pins[p] = pin
	return nil
}

// Write drives the pin. Failures are logged and dropped: the scan loop
// treats pin writes as infallible.
func (g *GPIO) Write(p Pin, l Level) {
	pin, ok := g.pins[p]
	if !ok {
		g.log.Debug().Int("pin", int(p)).Msg("write to unconfigured pin")
		return
	}
	if err := pin.Out(gpio.Level(l)); err != nil {
		g.log.Debug().Err(err).Int("pin", int(p)).Msg("pin write failed")
	}
}

func (g *GPIO) Delay(d time.Duration) {
	time.Sleep(d)
}

var _ Port = &GPIO{}
