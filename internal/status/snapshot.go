// internal/status/snapshot.go
package status

import (
	"github.com/tamzrod/med-dispenser/internal/engine"
	"github.com/tamzrod/med-dispenser/internal/schedule"
)

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Phase          uint16
	ElapsedMinutes uint16
	GraceRemaining uint16
	ActiveAt       uint16
	PendingAt      uint16
	EventCount     uint16

	Activations     uint16
	Acknowledged    uint16
	TimedOut        uint16
	SpuriousAlarms  uint16
	RejectedConfigs uint16
	Preempted       uint16
}

// FromEngine flattens an engine status into register values.
func FromEngine(st engine.Status) Snapshot {
	s := Snapshot{
		Phase:          phaseCode(st.Timer.Phase),
		ElapsedMinutes: clamp(st.Timer.Elapsed),
		GraceRemaining: clamp(st.Timer.Remaining),
		ActiveAt:       NoTime,
		PendingAt:      NoTime,
		EventCount:     clamp(st.EventCount),

		Activations:     st.Counters.Activations,
		Acknowledged:    st.Counters.Acknowledged,
		TimedOut:        st.Counters.TimedOut,
		SpuriousAlarms:  st.Counters.SpuriousAlarms,
		RejectedConfigs: st.Counters.RejectedConfigs,
		Preempted:       st.Counters.Preempted,
	}
	if st.Active != nil {
		s.ActiveAt = hhmm(st.Active.At)
	}
	if st.Pending != nil {
		s.PendingAt = hhmm(*st.Pending)
	}
	return s
}

func phaseCode(p engine.Phase) uint16 {
	switch p {
	case engine.Active:
		return PhaseActive
	case engine.AcknowledgeDelay:
		return PhaseAcknowledgeDelay
	default:
		return PhaseIdle
	}
}

func hhmm(t schedule.TimeOfDay) uint16 {
	return uint16(t.Hour)*100 + uint16(t.Minute)
}

func clamp(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}
