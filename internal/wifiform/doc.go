// Package wifiform converts the dmxbox configuration document into the
// fields an operator edits, and validates those fields before they are sent
// back.
//
// The forward auth-mode mapping is many-to-one: wpa-psk and wpa-wpa2-psk
// both become "wpa", wpa2-psk and wpa2-wpa3-psk both become "wpa23". The
// reverse mapping picks one canonical mode per type, so saving an unmodified
// form can change the stored auth mode from e.g. WPA2_PSK to WPA2_WPA3_PSK.
//
// Modes with no table entry map to "wpa23" and are reported through
// Mapper.OnFallback instead of failing.
package wifiform
