package terminal

import (
	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
)

// Color is a terminal text color.
type Color int

// Colors.
const (
	ColorNone Color = iota
	ColorGreen
	ColorYellow
	ColorRed
	ColorBlue
	ColorCyan
	ColorGray
)

var attributes = map[Color]color.Attribute{
	ColorGreen:  color.FgGreen,
	ColorYellow: color.FgYellow,
	ColorRed:    color.FgRed,
	ColorBlue:   color.FgBlue,
	ColorCyan:   color.FgCyan,
	ColorGray:   color.FgHiBlack,
}

// Colorize applies color to text. Colors are emitted regardless of the
// output device unless NoColor is set.
func (c Config) Colorize(text string, col Color) string {
	attr, ok := attributes[col]
	if c.NoColor || !ok {
		return text
	}

	painter := color.New(attr)
	painter.EnableColor()

	return painter.Sprint(text)
}

// ColorForPhase returns the color used for a job phase.
func ColorForPhase(phase progress.Phase) Color {
	switch phase {
	case progress.PhaseInitializing:
		return ColorGray
	case progress.PhaseApproximating:
		return ColorYellow
	case progress.PhaseComputingFullDistances:
		return ColorBlue
	case progress.PhaseFinalizing:
		return ColorCyan
	case progress.PhaseFinished:
		return ColorGreen
	default:
		return ColorRed
	}
}
