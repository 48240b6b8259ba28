package alert

import (
	"reflect"
	"testing"

	"github.com/tamzrod/med-dispenser/internal/schedule"
)

func kinds(actions []Action) []Kind {
	out := make([]Kind, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Kind)
	}
	return out
}

func TestStart_AscendingCompartments(t *testing.T) {
	// Doses listed out of order; output must follow ascending bit index.
	ev := schedule.MedicationEvent{
		At: schedule.At(7, 30),
		Doses: []schedule.Dose{
			{Compartment: 2, Pills: 2, Label: "VitaminD"},
			{Compartment: 0, Pills: 1, Label: "Aspirin"},
		},
	}

	actions := Start(ev)

	wantKinds := []Kind{IndicatorOn, IndicatorOn, ShowSummary, SoundOn}
	if !reflect.DeepEqual(kinds(actions), wantKinds) {
		t.Fatalf("kinds: got=%v want=%v", kinds(actions), wantKinds)
	}

	if actions[0].Compartment != 0 || actions[1].Compartment != 2 {
		t.Fatalf("indicator order: got=%d,%d want=0,2", actions[0].Compartment, actions[1].Compartment)
	}

	want := "Aspirin, Compartment: A, Pills: 1\nVitaminD, Compartment: C, Pills: 2\n"
	if got := actions[2].Summary.Text(); got != want {
		t.Fatalf("summary:\n got=%q\nwant=%q", got, want)
	}
}

func TestStart_AllCompartments(t *testing.T) {
	ev := schedule.MedicationEvent{At: schedule.At(1, 0)}
	for i := schedule.MaxCompartments - 1; i >= 0; i-- {
		ev.Doses = append(ev.Doses, schedule.Dose{Compartment: uint8(i), Pills: 1, Label: "m"})
	}

	actions := Start(ev)
	for i := 0; i < schedule.MaxCompartments; i++ {
		if actions[i].Kind != IndicatorOn || actions[i].Compartment != uint8(i) {
			t.Fatalf("action %d: got=%v", i, actions[i])
		}
	}

	sum := actions[schedule.MaxCompartments].Summary
	if len(sum) != schedule.MaxCompartments || sum[5].Letter() != 'F' {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestStop(t *testing.T) {
	if got := kinds(Stop(true)); !reflect.DeepEqual(got, []Kind{SoundOff}) {
		t.Fatalf("keepVisual: got=%v", got)
	}

	want := []Kind{SoundOff, IndicatorsOff, ClearSummary}
	if got := kinds(Stop(false)); !reflect.DeepEqual(got, want) {
		t.Fatalf("full stop: got=%v want=%v", got, want)
	}
}
