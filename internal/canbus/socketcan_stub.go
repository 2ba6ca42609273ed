//go:build !linux

package canbus

import "fmt"

// DialSocketCAN needs the linux SocketCAN stack; on other platforms it only
// reports that the transport is unavailable.
func DialSocketCAN(iface string, enableFD bool) (Bus, error) {
	return nil, fmt.Errorf("canbus: socketcan interface %q requires linux", iface)
}
