//go:build !linux

package hal

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

type GPIO struct{}

func OpenGPIO(log zerolog.Logger) (*GPIO, error) {
	return nil, fmt.Errorf("gpio driver not supported on this platform")
}

func (g *GPIO) ConfigureOutput(p Pin) error {
	return fmt.Errorf("gpio driver not supported on this platform")
}

func (g *GPIO) Write(p Pin, l Level) {}

func (g *GPIO) Delay(d time.Duration) {}

var _ Port = &GPIO{}
