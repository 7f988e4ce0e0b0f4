// Package tui holds the terminal presentation for the dmxbox tools.
//
// NetworksModel is a bubbletea model rendering the ranked list of nearby
// networks from a scan observer, with a spinner while the first results
// arrive:
//
//	obs, err := controller.Subscribe()
//	if err != nil {
//	    return err
//	}
//	defer obs.Close()
//	model := tui.NewNetworksModel("dmx-box", obs.Updates(), 15*time.Second)
//	final, err := tea.NewProgram(model).Run()
//
// RenderForm, RenderSuccess, RenderFailure and RenderFieldErrors produce
// the static lipgloss boxes printed by the CLI commands.
package tui
