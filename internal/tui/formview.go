package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/dmxbox/internal/deviceconfig"
	"github.com/muurk/dmxbox/internal/wifiform"
)

var securityLabels = map[wifiform.SecurityType]string{
	wifiform.SecurityNone:  "None",
	wifiform.SecurityWEP:   "WEP",
	wifiform.SecurityWPA:   "WPA/WPA2",
	wifiform.SecurityWPA23: "WPA2/WPA3",
	wifiform.SecurityWPA3:  "WPA3",
}

// SecurityLabel returns the display name of a security type.
func SecurityLabel(t wifiform.SecurityType) string {
	if label, ok := securityLabels[t]; ok {
		return label
	}
	return string(t)
}

// AuthModeLabel returns the display name for a scanned network's auth mode.
func AuthModeLabel(mode deviceconfig.AuthMode) string {
	if t, ok := wifiform.SecurityTypeFor(mode); ok {
		return SecurityLabel(t)
	}
	if mode == "" {
		return "?"
	}
	return mode.Identifier()
}

// RenderForm renders the editable configuration the way the device form
// presents it. Passwords are masked.
func RenderForm(width int, device string, f wifiform.FormFields) string {
	width = clampWidth(width)

	row := func(k, v string) string {
		return KeyStyle.Render(k) + ValueStyle.Render(v)
	}

	var lines []string
	lines = append(lines, TitleStyle.Render("WiFi configuration"))
	if device != "" {
		lines = append(lines, SubtitleStyle.Render(device))
	}
	lines = append(lines, "", row("Hostname", f.HostName), "")

	ap := f.AccessPoint
	lines = append(lines,
		SectionTitleStyle.Render("Access point"),
		row("Name", ap.Name),
		row("Security", SecurityLabel(ap.Security.Type)),
	)
	if ap.Security.Type.RequiresPassword() {
		lines = append(lines, row("Password", deviceconfig.MaskPassword(ap.Security.Password)))
	}
	lines = append(lines, row("Channel", string(ap.Channel)), "")

	lines = append(lines, SectionTitleStyle.Render("Existing network"))
	existing := f.ExistingNetwork
	if existing == nil || !existing.IsEnabled() {
		lines = append(lines, row("Join", "disabled"))
	} else {
		name, sec := existing.Network()
		lines = append(lines,
			row("Join", "enabled"),
			row("Name", name),
			row("Security", SecurityLabel(sec.Type)),
		)
		if sec.Type.RequiresPassword() {
			lines = append(lines, row("Password", deviceconfig.MaskPassword(sec.Password)))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width-2).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}
