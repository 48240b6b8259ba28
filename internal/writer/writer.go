// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tamzrod/med-dispenser/internal/schedule"
)

// endpointClient is the exact contract the writers use.
// IMPORTANT: There must be NO other version of this interface anywhere.
type endpointClient interface {
	WriteCoils(unitID uint8, addr uint16, bits []bool) error
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// IndicatorWriter drives one coil per compartment.
// It keeps a mirror of the commanded state so a failed write is
// re-asserted in full on the next call.
type IndicatorWriter struct {
	mu   sync.Mutex
	plan *IndicatorPlan
	cli  endpointClient

	state    [schedule.MaxCompartments]bool
	needFull bool
}

// NewIndicatorWriter builds an indicator writer if indicators are enabled.
func NewIndicatorWriter(plan Plan, cli endpointClient) (*IndicatorWriter, bool) {
	if plan.Indicators == nil || cli == nil {
		return nil, false
	}
	return &IndicatorWriter{
		plan:     plan.Indicators,
		cli:      cli,
		needFull: true,
	}, true
}

// Set switches one compartment indicator.
func (w *IndicatorWriter) Set(compartment uint8, on bool) error {
	if int(compartment) >= schedule.MaxCompartments {
		return fmt.Errorf("indicator writer: compartment %d out of range", compartment)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.state[compartment] = on

	if w.needFull {
		return w.writeAllLocked()
	}

	if err := w.cli.WriteCoils(
		w.plan.UnitID,
		w.plan.BaseCoil+uint16(compartment),
		[]bool{on},
	); err != nil {
		w.needFull = true
		return fmt.Errorf("indicator writer: coil %d write failed: %w", compartment, err)
	}
	return nil
}

// AllOff clears every compartment indicator in one request.
func (w *IndicatorWriter) AllOff() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state = [schedule.MaxCompartments]bool{}
	return w.writeAllLocked()
}

func (w *IndicatorWriter) writeAllLocked() error {
	if w.plan == nil {
		return errors.New("indicator writer: disabled")
	}

	bits := make([]bool, schedule.MaxCompartments)
	copy(bits, w.state[:])

	if err := w.cli.WriteCoils(w.plan.UnitID, w.plan.BaseCoil, bits); err != nil {
		w.needFull = true
		return fmt.Errorf("indicator writer: full write failed: %w", err)
	}

	w.needFull = false
	return nil
}
