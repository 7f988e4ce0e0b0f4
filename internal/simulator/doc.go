// Package simulator implements a fake dmxbox for local development and
// integration tests.
//
// It serves GET and PUT on /api/wifi-config with the firmware's behavior:
// hostnames over 15 bytes are rejected with 400 "Hostname too long", unknown
// auth modes are stored as WPA_WPA2_PSK, and success answers with the text
// "Config was stored successfully". The live channel at /api/ws keeps a scan
// flag per connection; while it is set, the fixture networks are sent as one
// access-point-found record each, in rounds.
//
// Fixture files are YAML:
//
//	hostname: dmx-box
//	ap:
//	  ssid: DmxBox_
//	  password: cue-gobo-fresnel
//	  auth_mode: WPA2_WPA3_PSK
//	  channel: 6
//	sta:
//	  enabled: false
//	networks:
//	  - ssid: Home
//	    mac: a4:2b:b0:10:00:01
//	    rssi: -55
//	    auth_mode: WPA2_PSK
package simulator
