package alert

import "fmt"

// Kind identifies one output action.
type Kind uint8

const (
	IndicatorOn Kind = iota + 1
	IndicatorsOff
	ShowSummary
	ClearSummary
	SoundOn
	SoundOff
)

func (k Kind) String() string {
	switch k {
	case IndicatorOn:
		return "indicator-on"
	case IndicatorsOff:
		return "indicators-off"
	case ShowSummary:
		return "show-summary"
	case ClearSummary:
		return "clear-summary"
	case SoundOn:
		return "sound-on"
	case SoundOff:
		return "sound-off"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Action is one command for the peripheral side.
// Compartment is set for IndicatorOn; Summary for ShowSummary.
type Action struct {
	Kind        Kind
	Compartment uint8
	Summary     Summary
}

func (a Action) String() string {
	switch a.Kind {
	case IndicatorOn:
		return fmt.Sprintf("%s(%d)", a.Kind, a.Compartment)
	case ShowSummary:
		return fmt.Sprintf("%s(%d lines)", a.Kind, len(a.Summary))
	default:
		return a.Kind.String()
	}
}

// Sink receives actions in order. Apply must not block.
type Sink interface {
	Apply(actions ...Action)
}
