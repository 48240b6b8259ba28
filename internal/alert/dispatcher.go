package alert

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/tamzrod/med-dispenser/internal/schedule"
)

// Line is one compartment entry of an alert summary.
type Line struct {
	Label       string
	Compartment uint8
	Pills       uint8
}

// Letter returns the user-facing compartment name (0 -> 'A').
func (l Line) Letter() byte {
	return 'A' + l.Compartment
}

// Summary is the ordered list shown to the user while an event is active.
type Summary []Line

// Text formats the summary for a display surface.
func (s Summary) Text() string {
	var b strings.Builder
	for _, l := range s {
		fmt.Fprintf(&b, "%s, Compartment: %c, Pills: %d\n", l.Label, l.Letter(), l.Pills)
	}
	return b.String()
}

// Start builds the actions that begin an alert for ev.
// Compartments are visited lowest bit first.
func Start(ev schedule.MedicationEvent) []Action {
	mask := ev.Mask()

	actions := make([]Action, 0, 8)
	var sum Summary

	for mask != 0 {
		low := mask & -mask
		idx := uint8(bits.TrailingZeros8(low))

		actions = append(actions, Action{Kind: IndicatorOn, Compartment: idx})

		if d, ok := ev.Dose(idx); ok {
			sum = append(sum, Line{Label: d.Label, Compartment: idx, Pills: d.Pills})
		}

		mask ^= low
	}

	actions = append(actions,
		Action{Kind: ShowSummary, Summary: sum},
		Action{Kind: SoundOn},
	)
	return actions
}

// Stop builds the actions that end (or silence) an alert.
// Sound always goes off. With keepVisual the indicators and summary stay up.
func Stop(keepVisual bool) []Action {
	if keepVisual {
		return []Action{{Kind: SoundOff}}
	}
	return []Action{
		{Kind: SoundOff},
		{Kind: IndicatorsOff},
		{Kind: ClearSummary},
	}
}
