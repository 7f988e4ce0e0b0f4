package wifiform

import (
	"strconv"

	"github.com/muurk/dmxbox/internal/deviceconfig"
)

// SecurityType is the user-facing security category. Several device auth
// modes collapse into one SecurityType.
type SecurityType string

const (
	SecurityNone  SecurityType = "none"
	SecurityWEP   SecurityType = "wep"
	SecurityWPA   SecurityType = "wpa"
	SecurityWPA23 SecurityType = "wpa23"
	SecurityWPA3  SecurityType = "wpa3"
)

// SecurityTypes lists the selectable security types in display order.
var SecurityTypes = []SecurityType{SecurityNone, SecurityWEP, SecurityWPA, SecurityWPA23, SecurityWPA3}

// Valid reports whether t is one of SecurityTypes.
func (t SecurityType) Valid() bool {
	for _, known := range SecurityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// RequiresPassword reports whether a network of this type needs a passphrase.
func (t SecurityType) RequiresPassword() bool {
	return t != SecurityNone
}

// SecuritySelection pairs a security type with its passphrase. An empty
// Password means no password was entered.
type SecuritySelection struct {
	Type     SecurityType
	Password string
}

// Channel is the access point channel as chosen in the form: "auto" or
// "1".."13".
type Channel string

// ChannelAuto lets the device pick; it is stored as DefaultChannel.
const ChannelAuto Channel = "auto"

// Channels lists every selectable channel in display order.
var Channels = func() []Channel {
	channels := []Channel{ChannelAuto}
	for ch := deviceconfig.MinChannel; ch <= deviceconfig.MaxChannel; ch++ {
		channels = append(channels, ChannelNumber(ch))
	}
	return channels
}()

// ChannelNumber returns the form value for a concrete channel.
func ChannelNumber(ch int) Channel {
	return Channel(strconv.Itoa(ch))
}

// Number parses a concrete channel. It returns false for ChannelAuto and for
// anything outside 1..13.
func (c Channel) Number() (int, bool) {
	n, err := strconv.Atoi(string(c))
	if err != nil || !deviceconfig.ValidChannel(n) {
		return 0, false
	}
	if ChannelNumber(n) != c {
		// reject "06", "+6" and friends
		return 0, false
	}
	return n, true
}

// Valid reports whether c is one of Channels.
func (c Channel) Valid() bool {
	if c == ChannelAuto {
		return true
	}
	_, ok := c.Number()
	return ok
}

// AccessPointFields describes the network the device broadcasts.
type AccessPointFields struct {
	Name     string
	Security SecuritySelection
	Channel  Channel
}

// ExistingNetwork is either Disabled or Enabled. The required fields depend
// on which variant is held.
type ExistingNetwork interface {
	// IsEnabled reports whether the device should join the network.
	IsEnabled() bool
	// Network returns the name and security regardless of the variant.
	Network() (string, SecuritySelection)

	existingNetwork()
}

// Disabled means the device does not join an existing network. The name and
// security are kept so a stored station configuration survives a save with
// joining turned off; they are never validated.
type Disabled struct {
	Name     string
	Security SecuritySelection
}

// Enabled means the device joins the named network as a station.
type Enabled struct {
	Name     string
	Security SecuritySelection
}

func (Disabled) IsEnabled() bool { return false }
func (Enabled) IsEnabled() bool  { return true }

func (d Disabled) Network() (string, SecuritySelection) { return d.Name, d.Security }
func (e Enabled) Network() (string, SecuritySelection)  { return e.Name, e.Security }

func (Disabled) existingNetwork() {}
func (Enabled) existingNetwork()  {}

// SetExistingNetworkEnabled switches the variant while keeping the values
// the operator already typed.
func SetExistingNetworkEnabled(current ExistingNetwork, enabled bool) ExistingNetwork {
	var name string
	var security SecuritySelection
	if current != nil {
		name, security = current.Network()
	}
	if enabled {
		return Enabled{Name: name, Security: security}
	}
	return Disabled{Name: name, Security: security}
}

// FormFields is the editable, UI-facing configuration.
type FormFields struct {
	HostName        string
	AccessPoint     AccessPointFields
	ExistingNetwork ExistingNetwork
}

// existing returns the variant, treating nil as Disabled.
func (f FormFields) existing() ExistingNetwork {
	if f.ExistingNetwork == nil {
		return Disabled{}
	}
	return f.ExistingNetwork
}
