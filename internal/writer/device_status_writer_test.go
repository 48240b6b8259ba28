// internal/writer/device_status_writer_test.go
package writer

import (
	"testing"

	"github.com/tamzrod/med-dispenser/internal/status"
)

func statusPlan() Plan {
	return Plan{
		Status: &StatusPlan{
			Endpoint:   "status-endpoint",
			UnitID:     1,
			BaseSlot:   2,
			DeviceName: "DISP-01",
		},
	}
}

func TestDeviceNameWrittenOnFullAssertOnly(t *testing.T) {
	cli := &fakeEndpointClient{}
	plan := statusPlan()

	sw, enabled := NewDeviceStatusWriter(plan, cli)
	if !enabled {
		t.Fatalf("status writer should be enabled")
	}

	// ---- first write: FULL ASSERT ----
	first := status.Snapshot{
		Phase:      status.PhaseIdle,
		ActiveAt:   status.NoTime,
		PendingAt:  730,
		EventCount: 2,
	}

	if err := sw.WriteStatus(first); err != nil {
		t.Fatalf("initial full assert failed: %v", err)
	}

	// Expect full block
	if len(cli.lastRegs) != status.SlotsPerDevice {
		t.Fatalf(
			"expected full block write (%d regs), got %d",
			status.SlotsPerDevice,
			len(cli.lastRegs),
		)
	}
	if cli.lastRegsAddr != 2*status.SlotsPerDevice {
		t.Fatalf("unexpected base addr: got=%d", cli.lastRegsAddr)
	}

	// Verify device name encoding EXACTLY
	expectedNameRegs := status.EncodeDeviceName(plan.Status.DeviceName)

	for i := 0; i < status.SlotDeviceNameSlots; i++ {
		slot := status.SlotDeviceNameStart + i
		if cli.lastRegs[slot] != expectedNameRegs[i] {
			t.Fatalf(
				"device name slot %d mismatch: got=%d want=%d",
				slot,
				cli.lastRegs[slot],
				expectedNameRegs[i],
			)
		}
	}

	// ---- second write: INCREMENTAL ONLY ----
	second := first
	second.Phase = status.PhaseActive
	second.ActiveAt = 730

	if err := sw.WriteStatus(second); err != nil {
		t.Fatalf("incremental write failed: %v", err)
	}

	// Incremental update must NOT re-write full block
	if len(cli.lastRegs) == status.SlotsPerDevice {
		t.Fatalf("device name should not be rewritten on incremental update")
	}
}

func TestIncrementalWritesChangedRunsOnly(t *testing.T) {
	cli := &fakeEndpointClient{}
	plan := statusPlan()

	sw, _ := NewDeviceStatusWriter(plan, cli)

	base := status.Snapshot{ActiveAt: status.NoTime, PendingAt: status.NoTime}
	if err := sw.WriteStatus(base); err != nil {
		t.Fatalf("full assert failed: %v", err)
	}
	cli.writes = nil

	// slots 1,2 change together; slot 6 changes alone
	next := base
	next.ElapsedMinutes = 3
	next.GraceRemaining = 1
	next.Activations = 1

	if err := sw.WriteStatus(next); err != nil {
		t.Fatalf("incremental write failed: %v", err)
	}

	if len(cli.writes) != 2 {
		t.Fatalf("expected 2 writes, got %d: %+v", len(cli.writes), cli.writes)
	}

	blockBase := plan.Status.BaseSlot * status.SlotsPerDevice

	if w := cli.writes[0]; w.addr != blockBase+status.SlotElapsedMinutes || len(w.regs) != 2 {
		t.Fatalf("unexpected first write: %+v", w)
	}
	if w := cli.writes[1]; w.addr != blockBase+status.SlotActivations || len(w.regs) != 1 || w.regs[0] != 1 {
		t.Fatalf("unexpected second write: %+v", w)
	}

	// unchanged snapshot writes nothing
	cli.writes = nil
	if err := sw.WriteStatus(next); err != nil {
		t.Fatalf("idle write failed: %v", err)
	}
	if len(cli.writes) != 0 {
		t.Fatalf("expected no writes, got %+v", cli.writes)
	}
}

func TestFailureForcesFullReassert(t *testing.T) {
	cli := &fakeEndpointClient{}

	sw, _ := NewDeviceStatusWriter(statusPlan(), cli)

	snap := status.Snapshot{ActiveAt: status.NoTime, PendingAt: status.NoTime}
	if err := sw.WriteStatus(snap); err != nil {
		t.Fatalf("full assert failed: %v", err)
	}

	cli.fail = true
	snap.Phase = status.PhaseActive
	if err := sw.WriteStatus(snap); err == nil {
		t.Fatalf("expected error, got nil")
	}

	cli.fail = false
	if err := sw.WriteStatus(snap); err != nil {
		t.Fatalf("recovery write failed: %v", err)
	}
	if len(cli.lastRegs) != status.SlotsPerDevice {
		t.Fatalf("expected full block after failure, got %d regs", len(cli.lastRegs))
	}
	if cli.lastRegs[status.SlotPhase] != status.PhaseActive {
		t.Fatalf("phase not delivered: %v", cli.lastRegs)
	}
}

func TestStatusDisabledWithoutPlan(t *testing.T) {
	if _, ok := NewDeviceStatusWriter(Plan{}, &fakeEndpointClient{}); ok {
		t.Fatalf("status writer should be disabled")
	}
}
