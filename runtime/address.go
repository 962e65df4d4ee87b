package runtime

import "net"

const fallbackHost = "127.0.0.1"

// AddressResolver picks the host published to peers in TRANSFER_READY.
type AddressResolver struct {
	advertise      string
	interfaceAddrs func() ([]net.Addr, error)
}

func NewAddressResolver(advertise string) *AddressResolver {
	return &AddressResolver{advertise: advertise, interfaceAddrs: net.InterfaceAddrs}
}

// Resolve prefers, in order: the configured advertise host, the listener's own IP
// when it is bound to a specific interface, the first non-loopback IPv4 address.
func (a *AddressResolver) Resolve(listenAddr net.Addr) string {
	if a.advertise != "" {
		return a.advertise
	}

	if tcpAddr, ok := listenAddr.(*net.TCPAddr); ok && tcpAddr.IP != nil && !tcpAddr.IP.IsUnspecified() {
		return tcpAddr.IP.String()
	}

	addrs, err := a.interfaceAddrs()
	if err != nil {
		return fallbackHost
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return fallbackHost
}
