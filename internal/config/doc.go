// Package config manages the dmxbox tools' user registry.
//
// The registry is a YAML file remembering devices found by discovery
// (nickname, last address, last reported hostname) and a few
// preferences. It lives in the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/dmxbox/config.yaml or $HOME/.config/dmxbox/config.yaml
//   - macOS: $HOME/.config/dmxbox/config.yaml
//   - Windows: %LOCALAPPDATA%\dmxbox\config.yaml
//
// DMXBOX_CONFIG_DIR overrides the directory.
//
// WiFi passwords are never written to the registry. The CLI prompts for
// them when needed.
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    return err
//	}
//	registry.UpdateDeviceLastSeen("dmx-box", "192.168.4.1", 80)
//	if err := registry.Save(); err != nil {
//	    return err
//	}
package config
