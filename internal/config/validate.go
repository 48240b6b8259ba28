// internal/config/validate.go
package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/tamzrod/med-dispenser/internal/packet"
	"github.com/tamzrod/med-dispenser/internal/schedule"
	"github.com/tamzrod/med-dispenser/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	d := &cfg.Dispenser

	// ------------------------------------------------------------
	// CORE
	// ------------------------------------------------------------

	if d.RecvTimeoutMs < 0 {
		return fmt.Errorf("recv_timeout_ms must be >= 0, got %d", d.RecvTimeoutMs)
	}

	// zero means "use default"; anything explicit must be a full tick or more
	if d.EventTimeoutMin < 0 {
		return fmt.Errorf("event_timeout_min must be >= 1, got %d", d.EventTimeoutMin)
	}
	if d.AckGraceMin < 0 {
		return fmt.Errorf("ack_grace_min must be >= 1, got %d", d.AckGraceMin)
	}

	if d.Key != "" {
		key, err := hex.DecodeString(d.Key)
		if err != nil {
			return fmt.Errorf("key: %w", err)
		}
		if len(key) != packet.KeySize {
			return fmt.Errorf("key must be %d bytes (%d hex chars), got %d bytes", packet.KeySize, packet.KeySize*2, len(key))
		}
	}

	if d.Timezone != "" {
		if _, err := time.LoadLocation(d.Timezone); err != nil {
			return fmt.Errorf("timezone %q: %w", d.Timezone, err)
		}
	}

	// ------------------------------------------------------------
	// I/O MODULE
	// ------------------------------------------------------------

	if d.IO != nil {
		if d.IO.Endpoint == "" {
			return fmt.Errorf("io: endpoint is required")
		}
		if int(d.IO.IndicatorCoil)+schedule.MaxCompartments-1 > 0xFFFF {
			return fmt.Errorf("io: indicator_coil %d leaves no room for %d compartments", d.IO.IndicatorCoil, schedule.MaxCompartments)
		}
		if d.IO.TimeoutMs < 0 || d.IO.ButtonPollMs < 0 {
			return fmt.Errorf("io: timeout_ms and button_poll_ms must be >= 0")
		}
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if s := d.Status; s != nil {
		if s.Endpoint == "" {
			return fmt.Errorf("status: endpoint is required")
		}

		// device_name sanity (ASCII only)
		for i := 0; i < len(s.DeviceName); i++ {
			if s.DeviceName[i] > 0x7F {
				return fmt.Errorf("status: device_name %q must contain ASCII characters only", s.DeviceName)
			}
		}

		end := int(s.BaseSlot)*status.SlotsPerDevice + status.SlotsPerDevice - 1
		if end > 0xFFFF {
			return fmt.Errorf("status: base_slot %d exceeds register space", s.BaseSlot)
		}
	}

	// ------------------------------------------------------------
	// SOUND
	// ------------------------------------------------------------

	if d.Sound.FrequencyHz < 0 || d.Sound.FrequencyHz > 20000 {
		return fmt.Errorf("sound: frequency_hz %.1f out of range", d.Sound.FrequencyHz)
	}
	if d.Sound.Volume < 0 || d.Sound.Volume > 1 {
		return fmt.Errorf("sound: volume %.2f must be within 0..1", d.Sound.Volume)
	}

	// ------------------------------------------------------------
	// BOOT SCHEDULE
	// ------------------------------------------------------------

	s, err := BootSchedule(cfg)
	if err != nil {
		return err
	}
	if err := schedule.Validate(s); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	return nil
}

// BootSchedule converts the configured schedule into its domain form.
func BootSchedule(cfg *Config) (schedule.Schedule, error) {
	return ScheduleFrom(cfg.Dispenser.Schedule)
}

// ScheduleFrom converts YAML events into a schedule.
// It parses times only; range checks belong to schedule.Validate.
func ScheduleFrom(events []EventConfig) (schedule.Schedule, error) {
	out := make(schedule.Schedule, 0, len(events))

	for i, ec := range events {
		at, err := schedule.ParseTimeOfDay(ec.Time)
		if err != nil {
			return nil, fmt.Errorf("schedule[%d]: %w", i, err)
		}

		ev := schedule.MedicationEvent{At: at}
		for _, dc := range ec.Doses {
			ev.Doses = append(ev.Doses, schedule.Dose{
				Compartment: dc.Compartment,
				Pills:       dc.Pills,
				Label:       dc.Label,
			})
		}
		out = append(out, ev)
	}

	return out, nil
}

// KeyBytes returns the decoded packet key.
// It MUST be called only after Normalize().
func (d DispenserConfig) KeyBytes() ([]byte, error) {
	return hex.DecodeString(d.Key)
}
