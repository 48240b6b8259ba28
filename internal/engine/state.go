package engine

import (
	"fmt"

	"github.com/tamzrod/med-dispenser/internal/schedule"
)

// Phase is the lifecycle state of the alert window.
type Phase uint8

const (
	Idle Phase = iota
	Active
	AcknowledgeDelay
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case AcknowledgeDelay:
		return "acknowledge-delay"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// TimerState advances once per clock tick.
// Elapsed is meaningful in Active, Remaining in AcknowledgeDelay.
type TimerState struct {
	Phase     Phase
	Elapsed   int
	Remaining int
}

// ActiveEvent identifies the event currently alerting.
// It holds the identity only; event data is looked up in the live table.
type ActiveEvent struct {
	At schedule.TimeOfDay
	ID string // one per activation
}

// Counters are lifetime totals since boot.
type Counters struct {
	Activations     uint16
	Acknowledged    uint16
	TimedOut        uint16
	Preempted       uint16
	SpuriousAlarms  uint16
	Reconfigured    uint16
	RejectedConfigs uint16
}

// Status is a consistent copy of the engine state.
type Status struct {
	Timer      TimerState
	Active     *ActiveEvent
	Pending    *schedule.TimeOfDay
	EventCount int
	Counters   Counters
}

func inc(c *uint16) {
	if *c < 65535 {
		*c++
	}
}
