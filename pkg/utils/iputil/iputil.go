// Package iputil resolves the host's primary address for display surfaces.
package iputil

import (
	"net"
)

// GetLocalIP returns the first non-loopback IPv4 address of the host, or
// "127.0.0.1" when none is assigned.
func GetLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "127.0.0.1"
}
