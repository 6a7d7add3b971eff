package debate

import "github.com/charmbracelet/lipgloss"

// Phase tags a debate utterance with the stage it belongs to. The set of
// tags is part of the wire contract; an unrecognized tag is still displayed
// using its raw value rather than rejected.
type Phase string

const (
	PhaseOpening     Phase = "opening"
	PhaseQuestioning Phase = "questioning"
	PhaseFreeDebate  Phase = "free_debate"
	PhaseClosing     Phase = "closing"
)

var phaseLabels = map[Phase]string{
	PhaseOpening:     "开场发言",
	PhaseQuestioning: "质询交锋",
	PhaseFreeDebate:  "自由辩论",
	PhaseClosing:     "总结陈词",
}

var phaseColors = map[Phase]lipgloss.Color{
	PhaseOpening:     lipgloss.Color("#00D787"), // emerald
	PhaseQuestioning: lipgloss.Color("#FFAF00"), // amber
	PhaseFreeDebate:  lipgloss.Color("#5FAFD7"), // blue
	PhaseClosing:     lipgloss.Color("#FF5FAF"), // pink
}

// phaseFallbackColor is used for unknown phase tags.
var phaseFallbackColor = lipgloss.Color("#6C6C6C")

// Label returns the human label for the phase, or the raw tag if unknown.
func (p Phase) Label() string {
	if label, ok := phaseLabels[p]; ok {
		return label
	}
	return string(p)
}

// Color returns the display color associated with the phase.
func (p Phase) Color() lipgloss.Color {
	if c, ok := phaseColors[p]; ok {
		return c
	}
	return phaseFallbackColor
}
