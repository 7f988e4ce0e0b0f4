// Package deviceconfig provides the dmxbox wire model and an HTTP client for
// its configuration endpoint.
//
// The device serves a single JSON document on /api/wifi-config:
//
//	{
//	  "hostname": "dmx-box",
//	  "ap":  {"ssid": "dmx-box", "password": "...", "auth_mode": "WPA2_PSK", "channel": 11},
//	  "sta": {"enabled": false, "ssid": "", "password": "", "auth_mode": "open"}
//	}
//
// GET returns the stored document and PUT replaces it. The PUT response has
// no body contract beyond its status code.
//
// # Usage Example
//
//	client := deviceconfig.NewClient("192.168.4.1", 80)
//
//	config, err := client.GetConfiguration(ctx)
//	if err != nil {
//	    log.Fatal(deviceconfig.GetTroubleshootingHint(err))
//	}
//
//	config.HostName = "stage-left"
//	if err := client.PutConfiguration(ctx, config); err != nil {
//	    log.Fatal(err)
//	}
//
// # Auth Modes
//
// AuthMode values use the device spelling ("WPA2_PSK"). ParseAuthMode and
// JSON decoding also accept the hyphenated identifiers ("wpa2-psk"). Values
// outside the known set decode verbatim and report Known() == false.
//
// # Error Handling
//
// Every client failure is a *DeviceError. Reads are retried with exponential
// backoff when the error is retryable; writes are issued exactly once.
package deviceconfig
