package security

import "net"

// SourceFilter rejects datagrams whose source address could not plausibly
// have originated on the local link: mDNS is scoped to the local network
// segment (RFC 6762 §2), so a source outside link-local range or the
// receiving interface's configured subnets is either misconfigured routing
// or a spoofed packet, and is dropped before it reaches the parser.
type SourceFilter struct {
	ifaceAddrs []net.IPNet
}

// NewSourceFilter builds a filter for iface, caching its addresses up front
// so IsValid needs no syscalls on the per-packet hot path.
func NewSourceFilter(iface net.Interface) (*SourceFilter, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return &SourceFilter{}, nil
	}
	return &SourceFilter{ifaceAddrs: toIPNets(addrs)}, nil
}

// NewSourceFilterForInterfaces aggregates the subnets of every interface in
// ifaces, for a socket bound across several interfaces at once (e.g. a
// dual-stack "both scopes" listener that isn't tied to one NIC).
func NewSourceFilterForInterfaces(ifaces []net.Interface) *SourceFilter {
	sf := &SourceFilter{}
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		sf.ifaceAddrs = append(sf.ifaceAddrs, toIPNets(addrs)...)
	}
	return sf
}

func toIPNets(addrs []net.Addr) []net.IPNet {
	var ipnets []net.IPNet
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok {
			ipnets = append(ipnets, *ipnet)
		}
	}
	return ipnets
}

// IsValid reports whether srcIP is an acceptable mDNS source: IPv4
// link-local (169.254.0.0/16, RFC 3927), IPv6 link-local (fe80::/10), or an
// address within one of the receiving interface's own subnets.
func (sf *SourceFilter) IsValid(srcIP net.IP) bool {
	if ip4 := srcIP.To4(); ip4 != nil {
		if ip4[0] == 169 && ip4[1] == 254 {
			return true
		}
	} else if srcIP.IsLinkLocalUnicast() {
		return true
	}

	for _, ipnet := range sf.ifaceAddrs {
		if ipnet.Contains(srcIP) {
			return true
		}
	}
	return false
}
