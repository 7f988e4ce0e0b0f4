// Package discovery finds dmxbox devices on the local network over mDNS.
//
// A device (or the simulator run with --advertise) announces the
// "_dmxbox._tcp" service with its hostname as instance name and a TXT record
// naming the config endpoint:
//
//	path=/api/wifi-config
//	version=v0.3.0
//
// Usage:
//
//	scanner := discovery.NewScanner()
//	devices, err := scanner.ScanForDevices(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, d := range devices {
//	    fmt.Println(d.Name, d.BaseURL())
//	}
//
// Discovery needs multicast on the interface and UDP port 5353 open.
package discovery
