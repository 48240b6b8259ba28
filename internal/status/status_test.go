package status

import (
	"testing"

	"github.com/tamzrod/med-dispenser/internal/engine"
	"github.com/tamzrod/med-dispenser/internal/schedule"
)

func TestFromEngine_Idle(t *testing.T) {
	s := FromEngine(engine.Status{EventCount: 3})

	if s.Phase != PhaseIdle {
		t.Fatalf("phase: got=%d", s.Phase)
	}
	if s.ActiveAt != NoTime || s.PendingAt != NoTime {
		t.Fatalf("times should be empty: active=%d pending=%d", s.ActiveAt, s.PendingAt)
	}
	if s.EventCount != 3 {
		t.Fatalf("event count: got=%d", s.EventCount)
	}
}

func TestFromEngine_Active(t *testing.T) {
	pending := schedule.At(21, 5)
	s := FromEngine(engine.Status{
		Timer:    engine.TimerState{Phase: engine.Active, Elapsed: 4},
		Active:   &engine.ActiveEvent{At: schedule.At(7, 30)},
		Pending:  &pending,
		Counters: engine.Counters{Activations: 9, Preempted: 1},
	})

	if s.Phase != PhaseActive || s.ElapsedMinutes != 4 {
		t.Fatalf("timer: got phase=%d elapsed=%d", s.Phase, s.ElapsedMinutes)
	}
	if s.ActiveAt != 730 || s.PendingAt != 2105 {
		t.Fatalf("times: got active=%d pending=%d", s.ActiveAt, s.PendingAt)
	}
	if s.Activations != 9 || s.Preempted != 1 {
		t.Fatalf("counters not copied: %+v", s)
	}
}

func TestEncode_Layout(t *testing.T) {
	regs := Encode(Snapshot{
		Phase:           PhaseAcknowledgeDelay,
		GraceRemaining:  1,
		ActiveAt:        730,
		PendingAt:       NoTime,
		RejectedConfigs: 2,
	})

	if len(regs) != SlotsPerDevice {
		t.Fatalf("len: got=%d", len(regs))
	}
	if regs[SlotPhase] != 2 || regs[SlotGraceRemaining] != 1 || regs[SlotActiveAt] != 730 {
		t.Fatalf("unexpected regs: %v", regs)
	}
	if regs[SlotPendingAt] != NoTime || regs[SlotRejectedConfigs] != 2 {
		t.Fatalf("unexpected regs: %v", regs)
	}
	for i := SlotDeviceNameStart; i <= SlotDeviceNameEnd; i++ {
		if regs[i] != 0 {
			t.Fatalf("name slot %d should be zero, got %d", i, regs[i])
		}
	}
}

func TestEncodeDeviceName(t *testing.T) {
	regs := EncodeDeviceName("ABC")
	if len(regs) != SlotDeviceNameSlots {
		t.Fatalf("len: got=%d", len(regs))
	}
	if regs[0] != uint16('A')<<8|uint16('B') || regs[1] != uint16('C')<<8 {
		t.Fatalf("unexpected regs: %v", regs[:2])
	}

	long := EncodeDeviceName("0123456789abcdefXYZ")
	if long[7] != uint16('e')<<8|uint16('f') {
		t.Fatalf("expected truncation at 16 chars, got %v", long)
	}
}
