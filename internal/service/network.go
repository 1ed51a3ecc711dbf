package service

import (
	"net"
	"strings"
)

// ConnectType guesses the active connection type from the interfaces that
// are up: "wifi", "ethernet" or "none".
func ConnectType() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "unknown"
	}
	return classify(ifaces)
}

func classify(ifaces []net.Interface) string {
	kind := "none"
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		name := strings.ToLower(iface.Name)
		if strings.HasPrefix(name, "wl") || strings.Contains(name, "wi-fi") || strings.Contains(name, "wifi") {
			return "wifi"
		}
		kind = "ethernet"
	}
	return kind
}
