package fake

import (
	"sync"
	"time"

	"github.com/EinEisbxr/badapple-matrix/internal/hal"
)

// Op is one recorded pin write.
type Op struct {
	Pin   hal.Pin
	Level hal.Level
}

// Port records every configure, write and delay so scan behavior can be
// asserted without hardware. Delay does not sleep.
type Port struct {
	mu sync.Mutex

	Configured []hal.Pin
	Ops        []Op
	Delays     []time.Duration

	levels map[hal.Pin]hal.Level

	// OnDelay, when set, observes the line state at each dwell point. The
	// map passed in is a copy.
	OnDelay func(levels map[hal.Pin]hal.Level, d time.Duration)

	// ConfigureErr, when set, is returned by ConfigureOutput.
	ConfigureErr error
}

func New() *Port {
	return &Port{levels: map[hal.Pin]hal.Level{}}
}

func (p *Port) ConfigureOutput(pin hal.Pin) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ConfigureErr != nil {
		return p.ConfigureErr
	}
	p.Configured = append(p.Configured, pin)
	return nil
}

func (p *Port) Write(pin hal.Pin, l hal.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Ops = append(p.Ops, Op{Pin: pin, Level: l})
	p.levels[pin] = l
}

func (p *Port) Delay(d time.Duration) {
	p.mu.Lock()
	p.Delays = append(p.Delays, d)
	var snap map[hal.Pin]hal.Level
	if p.OnDelay != nil {
		snap = p.snapshotLocked()
	}
	cb := p.OnDelay
	p.mu.Unlock()
	if cb != nil {
		cb(snap, d)
	}
}

// Level returns the last level written to pin (Low if never written).
func (p *Port) Level(pin hal.Pin) hal.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.levels[pin]
}

// Snapshot returns a copy of the current level of every written pin.
func (p *Port) Snapshot() map[hal.Pin]hal.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Port) snapshotLocked() map[hal.Pin]hal.Level {
	out := make(map[hal.Pin]hal.Level, len(p.levels))
	for k, v := range p.levels {
		out[k] = v
	}
	return out
}

// Reset clears the recorded ops and delays but keeps pin levels.
func (p *Port) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Ops = nil
	p.Delays = nil
}

var _ hal.Port = &Port{}
