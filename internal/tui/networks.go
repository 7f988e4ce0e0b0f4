package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/muurk/dmxbox/internal/scan"
)

// Messages for async operations
type networksMsg []scan.DiscoveredNetwork
type scanClosedMsg struct{}
type windowElapsedMsg struct{}

// networksKeyMap defines key bindings for the network list
type networksKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k networksKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k networksKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Select, k.Quit}}
}

func defaultNetworksKeys() networksKeyMap {
	return networksKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// NetworksModel shows the ranked list of nearby networks while a scan
// window is open. It reads list snapshots from an observer's update
// channel and never touches the scan state itself.
type NetworksModel struct {
	Device string

	updates <-chan []scan.DiscoveredNetwork
	window  time.Duration

	networks []scan.DiscoveredNetwork
	cursor   int
	selected bool
	done     bool

	width   int
	spinner spinner.Model
	help    help.Model
	keys    networksKeyMap
}

// NewNetworksModel creates the list model. A zero window keeps the scan
// open until the user quits.
func NewNetworksModel(device string, updates <-chan []scan.DiscoveredNetwork, window time.Duration) NetworksModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return NetworksModel{
		Device:  device,
		updates: updates,
		window:  window,
		width:   MinTerminalWidth,
		spinner: s,
		help:    help.New(),
		keys:    defaultNetworksKeys(),
	}
}

// Init starts the spinner, the update reader and the window timer.
func (m NetworksModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, waitForNetworks(m.updates)}
	if m.window > 0 {
		cmds = append(cmds, tea.Tick(m.window, func(time.Time) tea.Msg { return windowElapsedMsg{} }))
	}
	return tea.Batch(cmds...)
}

// waitForNetworks blocks on the next list snapshot.
func waitForNetworks(updates <-chan []scan.DiscoveredNetwork) tea.Cmd {
	return func() tea.Msg {
		ranked, ok := <-updates
		if !ok {
			return scanClosedMsg{}
		}
		return networksMsg(ranked)
	}
}

// Update handles messages and updates the model
func (m NetworksModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.networks)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Select):
			if len(m.networks) > 0 {
				m.selected = true
				m.done = true
				return m, tea.Quit
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width)
		return m, nil

	case networksMsg:
		m.setNetworks(msg)
		return m, waitForNetworks(m.updates)

	case scanClosedMsg:
		m.done = true
		return m, nil

	case windowElapsedMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// setNetworks replaces the list and keeps the cursor on the same SSID
// when it is still present.
func (m *NetworksModel) setNetworks(ranked []scan.DiscoveredNetwork) {
	var current string
	if m.cursor < len(m.networks) {
		current = m.networks[m.cursor].SSID
	}
	m.networks = ranked
	m.cursor = 0
	for i, n := range ranked {
		if n.SSID == current {
			m.cursor = i
			break
		}
	}
}

// Networks returns the most recent ranked list.
func (m NetworksModel) Networks() []scan.DiscoveredNetwork {
	return m.networks
}

// Selected returns the network chosen with enter, if any.
func (m NetworksModel) Selected() (scan.DiscoveredNetwork, bool) {
	if !m.selected || m.cursor >= len(m.networks) {
		return scan.DiscoveredNetwork{}, false
	}
	return m.networks[m.cursor], true
}

// View renders the network list
func (m NetworksModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Nearby networks"))
	if m.Device != "" {
		b.WriteString(" " + SubtitleStyle.Render(m.Device))
	}
	b.WriteString("\n\n")

	if len(m.networks) == 0 {
		if m.done {
			b.WriteString(ListItemStyle.Render("No networks found."))
		} else {
			b.WriteString("  " + m.spinner.View() + " Scanning for networks...")
		}
		b.WriteString("\n")
	} else {
		nameWidth := m.width - 30
		for i, n := range m.networks {
			b.WriteString(m.renderRow(i, n, nameWidth))
			b.WriteString("\n")
		}
		if !m.done {
			b.WriteString("\n  " + m.spinner.View() + HintStyle.Render(fmt.Sprintf(" %d found, still scanning", len(m.networks))) + "\n")
		}
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	b.WriteString("\n")
	return b.String()
}

func (m NetworksModel) renderRow(i int, n scan.DiscoveredNetwork, nameWidth int) string {
	name := n.SSID
	if name == "" {
		name = "(hidden)"
	}
	name = runewidth.FillRight(runewidth.Truncate(name, nameWidth, "…"), nameWidth)

	line := fmt.Sprintf("%s %s %4d dBm  %s", name, SignalBars(n.BestRSSI), n.BestRSSI, AuthModeLabel(n.AuthMode))
	if i == m.cursor {
		return SelectedListItemStyle.Render(CursorMarker+" ") + line
	}
	return ListItemStyle.Render(line)
}
