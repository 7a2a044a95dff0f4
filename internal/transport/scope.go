package transport

// NetworkScope selects which IP family and interface a Socket binds to. The
// zero value is not valid; use one of the constructors below.
type NetworkScope struct {
	kind      scopeKind
	iface     string
	scopeID   int
}

type scopeKind int

const (
	scopeV4 scopeKind = iota
	scopeV6
	scopeV4Iface
	scopeV6Iface
	scopeBoth
)

// V4 selects IPv4 only, on the default interface.
func V4() NetworkScope { return NetworkScope{kind: scopeV4} }

// V6 selects IPv6 only, on the default interface.
func V6() NetworkScope { return NetworkScope{kind: scopeV6} }

// V4WithInterface selects IPv4 on a specific named interface.
func V4WithInterface(iface string) NetworkScope { return NetworkScope{kind: scopeV4Iface, iface: iface} }

// V6WithInterface selects IPv6 on a specific link-scope (interface index).
func V6WithInterface(scopeID int) NetworkScope { return NetworkScope{kind: scopeV6Iface, scopeID: scopeID} }

// Both selects dual-stack: join both the IPv4 and IPv6 mDNS groups.
func Both() NetworkScope { return NetworkScope{kind: scopeBoth} }

func (s NetworkScope) wantsV4() bool {
	return s.kind == scopeV4 || s.kind == scopeV4Iface || s.kind == scopeBoth
}

func (s NetworkScope) wantsV6() bool {
	return s.kind == scopeV6 || s.kind == scopeV6Iface || s.kind == scopeBoth
}

func (s NetworkScope) String() string {
	switch s.kind {
	case scopeV4:
		return "v4"
	case scopeV6:
		return "v6"
	case scopeV4Iface:
		return "v4@" + s.iface
	case scopeV6Iface:
		return "v6@link"
	default:
		return "both"
	}
}
