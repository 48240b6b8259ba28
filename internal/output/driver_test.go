package output

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/med-dispenser/internal/alert"
	"github.com/tamzrod/med-dispenser/internal/schedule"
)

// recorder implements Indicators, Display and Sound.
type recorder struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (r *recorder) add(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
	if r.fail {
		return errors.New("device gone")
	}
	return nil
}

func (r *recorder) Set(c uint8, on bool) error {
	if on {
		return r.add("on " + string(rune('A'+c)))
	}
	return r.add("off " + string(rune('A'+c)))
}
func (r *recorder) AllOff() error                 { return r.add("all-off") }
func (r *recorder) ShowSummary(text string) error { return r.add("show " + text) }
func (r *recorder) ClearSummary() error           { return r.add("clear") }
func (r *recorder) Start() error                  { return r.add("sound-on") }
func (r *recorder) Stop() error                   { return r.add("sound-off") }

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func event() schedule.MedicationEvent {
	return schedule.MedicationEvent{
		At: schedule.At(7, 30),
		Doses: []schedule.Dose{
			{Compartment: 2, Pills: 1, Label: "Vitamin D"},
			{Compartment: 0, Pills: 2, Label: "Aspirin"},
		},
	}
}

func TestFlush_ExecutesInOrder(t *testing.T) {
	r := &recorder{}
	d := NewDriver(r, r, r)

	d.Apply(alert.Start(event())...)
	d.Apply(alert.Stop(false)...)
	d.Flush()

	want := []string{
		"on A",
		"on C",
		"show Aspirin, Compartment: A, Pills: 2\nVitamin D, Compartment: C, Pills: 1\n",
		"sound-on",
		"sound-off",
		"all-off",
		"clear",
	}
	got := r.snapshot()
	if len(got) != len(want) {
		t.Fatalf("calls: got=%q want=%q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call %d: got=%q want=%q", i, got[i], want[i])
		}
	}
}

func TestFlush_ErrorsDoNotStopQueue(t *testing.T) {
	r := &recorder{fail: true}
	d := NewDriver(r, r, r)

	d.Apply(alert.Stop(false)...)
	d.Flush()

	if n := len(r.snapshot()); n != 3 {
		t.Fatalf("expected all 3 actions attempted, got %d", n)
	}
}

func TestNilCollaboratorsSkipped(t *testing.T) {
	r := &recorder{}
	d := NewDriver(nil, r, nil)

	d.Apply(alert.Start(event())...)
	d.Flush()

	got := r.snapshot()
	if len(got) != 1 || got[0][:5] != "show " {
		t.Fatalf("only display should run, got %q", got)
	}
}

func TestApply_NeverBlocks(t *testing.T) {
	d := NewDriver(&recorder{}, nil, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			d.Apply(alert.Action{Kind: alert.IndicatorsOff})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Apply blocked without a running consumer")
	}
}

func TestRun_DrainsAndStops(t *testing.T) {
	r := &recorder{}
	d := NewDriver(r, r, r)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	d.Apply(alert.Action{Kind: alert.SoundOn})

	deadline := time.After(2 * time.Second)
	for len(r.snapshot()) == 0 {
		select {
		case <-deadline:
			t.Fatalf("action not executed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	d.Apply(alert.Action{Kind: alert.SoundOff})
	cancel()
	<-done

	got := r.snapshot()
	if got[len(got)-1] != "sound-off" {
		t.Fatalf("queued action lost on shutdown: %q", got)
	}
}
