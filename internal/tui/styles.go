package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor   = lipgloss.Color("#43BF6D") // Green - success, strong signal
	ErrorColor     = lipgloss.Color("#FF5555") // Red - errors
	WarningColor   = lipgloss.Color("#FFA500") // Orange - warnings, weak signal
	MutedColor     = lipgloss.Color("#626262") // Gray - secondary info
	TextColor      = lipgloss.Color("#FFFFFF") // White - main content
	HighlightColor = lipgloss.Color("#43BF6D") // Green - selection
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	ListItemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(TextColor)

	SelectedListItemStyle = lipgloss.NewStyle().
				Foreground(HighlightColor).
				Bold(true)

	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true).
				PaddingLeft(2)

	KeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(18).
			PaddingLeft(4)

	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	HintStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingTop(1)
)

// Result markers
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
	CursorMarker  = "→"
)

// TerminalWidth returns the stdout width clamped to the supported range.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth
	}
	return clampWidth(width)
}

func clampWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// SignalLevel buckets an RSSI reading into 0..4 bars.
func SignalLevel(rssi int) int {
	switch {
	case rssi >= -55:
		return 4
	case rssi >= -67:
		return 3
	case rssi >= -75:
		return 2
	case rssi >= -85:
		return 1
	default:
		return 0
	}
}

var signalGlyphs = []string{"▂", "▄", "▆", "█"}

// SignalBars renders the signal level as four bar glyphs, unlit bars muted.
func SignalBars(rssi int) string {
	level := SignalLevel(rssi)
	color := SuccessColor
	if level <= 2 {
		color = WarningColor
	}
	lit := lipgloss.NewStyle().Foreground(color)
	unlit := lipgloss.NewStyle().Foreground(MutedColor)

	var b strings.Builder
	for i, g := range signalGlyphs {
		if i < level {
			b.WriteString(lit.Render(g))
		} else {
			b.WriteString(unlit.Render(g))
		}
	}
	return b.String()
}
