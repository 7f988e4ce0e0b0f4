package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/dmxbox/internal/deviceconfig"
	"github.com/muurk/dmxbox/internal/wifiform"
)

// Detail is one key/value line of a result box. A slice keeps the order
// the caller chose.
type Detail struct {
	Key   string
	Value string
}

// RenderSuccess renders a green result box.
func RenderSuccess(width int, title string, details ...Detail) string {
	width = clampWidth(width)

	lines := []string{"", SuccessTitleStyle.Render(fmt.Sprintf(" %s  %s", SuccessMarker, title)), ""}
	for _, d := range details {
		lines = append(lines, KeyStyle.Render(d.Key+":")+ValueStyle.Render(d.Value))
	}
	lines = append(lines, "")

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SuccessColor).
		Width(width - 2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

// RenderFailure renders a red result box with the error and, for device
// errors, the troubleshooting hint.
func RenderFailure(width int, title string, err error) string {
	width = clampWidth(width)

	lines := []string{"", ErrorTitleStyle.Render(fmt.Sprintf(" %s  %s", FailureMarker, title)), ""}
	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render(" Error: "+deviceconfig.GetShortErrorMessage(err)), "")
		if hint := deviceconfig.GetTroubleshootingHint(err); hint != "" {
			hintBox := lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(MutedColor).
				Width(width-12).
				Padding(0, 1).
				Render(HintStyle.Render(hint))
			lines = append(lines, hintBox, "")
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ErrorColor).
		Width(width - 2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

var fieldPathStyle = lipgloss.NewStyle().
	Foreground(MutedColor).
	PaddingLeft(1)

// RenderFieldErrors lists rejected fields in path order.
func RenderFieldErrors(width int, errs wifiform.FieldErrors) string {
	width = clampWidth(width)

	lines := []string{"", ErrorTitleStyle.Render(fmt.Sprintf(" %s  Configuration not saved", FailureMarker)), ""}
	for _, path := range errs.Paths() {
		fe := errs[path]
		lines = append(lines, fieldPathStyle.Render(path)+"  "+ErrorMessageStyle.Render(fe.Message))
	}
	lines = append(lines, "")

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ErrorColor).
		Width(width - 2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}
