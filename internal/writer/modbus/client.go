package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// EndpointClient is the dispenser's link to one I/O module or status
// register server. Indicator coils, the status block and the acknowledge
// button share a link whenever they name the same endpoint.
type EndpointClient struct {
	mu      sync.Mutex // guards the unit id on handler
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewEndpointClient dials the endpoint and keeps the link open.
func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("dispenser modbus: no endpoint configured")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	// indicator writes are minutes apart; never let the link idle out
	h.IdleTimeout = 0

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("dispenser modbus: dial %s: %w", cfg.Endpoint, err)
	}
	return &EndpointClient{handler: h, client: modbus.NewClient(h)}, nil
}

// Close drops the link once no request is in flight.
func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// onUnit runs fn with the handler addressed to unitID.
func (c *EndpointClient) onUnit(unitID uint8, fn func(modbus.Client) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.SlaveId = unitID
	return fn(c.client)
}

// WriteCoils drives compartment indicators starting at addr (FC 15).
func (c *EndpointClient) WriteCoils(unitID uint8, addr uint16, bits []bool) error {
	return c.onUnit(unitID, func(mc modbus.Client) error {
		_, err := mc.WriteMultipleCoils(addr, uint16(len(bits)), packBits(bits))
		return err
	})
}

// WriteRegisters publishes a status block starting at addr (FC 16).
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	return c.onUnit(unitID, func(mc modbus.Client) error {
		_, err := mc.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs))
		return err
	})
}

// ReadDiscreteInputs samples button inputs starting at addr (FC 2).
func (c *EndpointClient) ReadDiscreteInputs(unitID uint8, addr, qty uint16) ([]bool, error) {
	var states []bool
	err := c.onUnit(unitID, func(mc modbus.Client) error {
		raw, err := mc.ReadDiscreteInputs(addr, qty)
		if err != nil {
			return err
		}
		if len(raw)*8 < int(qty) {
			return fmt.Errorf("dispenser modbus: button read returned %d bytes for %d inputs", len(raw), qty)
		}
		states = unpackBits(raw, int(qty))
		return nil
	})
	return states, err
}

// packBits lays bits out LSB first, as FC 15 expects.
func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, on := range bits {
		if on {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func unpackBits(raw []byte, qty int) []bool {
	states := make([]bool, qty)
	for i := range states {
		states[i] = raw[i/8]>>uint(i%8)&1 == 1
	}
	return states
}

// packRegisters encodes registers big-endian.
func packRegisters(regs []uint16) []byte {
	out := make([]byte, 0, len(regs)*2)
	for _, r := range regs {
		out = append(out, byte(r>>8), byte(r))
	}
	return out
}
