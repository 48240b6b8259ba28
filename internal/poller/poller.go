// internal/poller/poller.go
package poller

import (
	"errors"
	"time"
)

// Client abstracts the Modbus read the poller needs.
type Client interface {
	ReadDiscreteInputs(unitID uint8, addr, qty uint16) ([]bool, error) // FC 2
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	UnitID   uint8
	Input    uint16
	Interval time.Duration
}

// Poller is a dumb, clock-driven reader of the acknowledge button.
// It reports a press on the rising edge only: holding the button down
// is one press.
type Poller struct {
	cfg    Config
	client Client

	down bool
}

// New creates a poller with immutable config.
func New(cfg Config, client Client) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if client == nil {
		return nil, errors.New("poller: client required")
	}
	return &Poller{cfg: cfg, client: client}, nil
}

// PollOnce performs exactly one read.
func (p *Poller) PollOnce() Sample {
	s := Sample{At: time.Now()}

	bits, err := p.client.ReadDiscreteInputs(p.cfg.UnitID, p.cfg.Input, 1)
	if err != nil {
		s.Err = err
		return s
	}
	if len(bits) == 0 {
		s.Err = errors.New("poller: empty discrete input response")
		return s
	}

	s.Pressed = bits[0]
	return s
}

// Edge feeds one sample through the edge detector and reports whether
// it is a new press. Failed samples leave the detector untouched.
func (p *Poller) Edge(s Sample) bool {
	if s.Err != nil {
		return false
	}
	rising := s.Pressed && !p.down
	p.down = s.Pressed
	return rising
}
