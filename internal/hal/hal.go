package hal

import "time"

// Pin identifies one physical GPIO line by its platform pin number.
type Pin int

// Level is a binary logic level on a pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// Port is the set of pin primitives the matrix scanner needs. Implementations
// exist for real GPIO (linux, periph.io), the headless simulator, and a
// recording fake for tests.
type Port interface {
	// ConfigureOutput claims p as an output line. Every pin must be
	// configured before its first Write.
	ConfigureOutput(p Pin) error
	// Write drives p to the given level. Writes are treated as infallible;
	// implementations must not block the scan on failure.
	Write(p Pin, l Level)
	// Delay blocks the calling goroutine for at least d.
	Delay(d time.Duration)
}
