// Package transport owns the multicast UDP socket, the one piece of this
// library that touches the network. It is kept behind a small interface so
// the codec and engine packages never import net directly, and so tests can
// swap in a Mock.
package transport

import (
	"context"
	"net"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	dnserr "github.com/quietwire/flare/internal/errors"
	"github.com/quietwire/flare/internal/protocol"
)

// Socket is what the responder and discovery engines need from the network:
// receive one datagram, send one datagram (multicast or unicast), and close.
type Socket interface {
	ReadFrom(p []byte) (n int, src net.Addr, err error)
	WriteToMulticast(p []byte) error
	WriteToUnicast(p []byte, dst net.Addr) error
	SetReadDeadline(t time.Time) error
	Close() error
	LocalAddrs() []net.IP
}

// multicastSocket is the real implementation: one UDP socket per IP family
// bound to :5353, joined to the mDNS group(s) selected by NetworkScope, with
// SO_REUSEADDR (see socket_unix.go/socket_windows.go), multicast TTL=255,
// and loopback enabled.
type multicastSocket struct {
	scope NetworkScope

	conn4 *net.UDPConn
	pc4   *ipv4.PacketConn
	conn6 *net.UDPConn
	pc6   *ipv6.PacketConn

	group4 *net.UDPAddr
	group6 *net.UDPAddr
}

// Listen opens and joins the mDNS multicast group(s) implied by scope.
func Listen(scope NetworkScope) (Socket, error) {
	s := &multicastSocket{scope: scope}

	if scope.wantsV4() {
		if err := s.openV4(); err != nil {
			s.Close()
			return nil, err
		}
	}
	if scope.wantsV6() {
		if err := s.openV6(); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *multicastSocket) openV4() error {
	lc := reuseAddrListenConfig()
	pconn, err := lc.ListenPacket(context.Background(), "udp4", (&net.UDPAddr{Port: protocol.Port}).String())
	if err != nil {
		return &dnserr.NetworkError{Operation: "listen udp4", Err: err}
	}
	conn := pconn.(*net.UDPConn)
	pc := ipv4.NewPacketConn(conn)

	group := &net.UDPAddr{IP: net.ParseIP(protocol.MulticastAddrIPv4), Port: protocol.Port}
	ifaces, err := multicastInterfaces()
	if err != nil {
		return &dnserr.NetworkError{Operation: "list interfaces", Err: err}
	}
	joined := false
	for i := range ifaces {
		if s.scope.kind == scopeV4Iface && ifaces[i].Name != s.scope.iface {
			continue
		}
		if err := pc.JoinGroup(&ifaces[i], group); err == nil {
			joined = true
		}
	}
	if !joined {
		if err := pc.JoinGroup(nil, group); err != nil {
			return &dnserr.NetworkError{Operation: "join multicast group v4", Err: err}
		}
	}

	_ = pc.SetMulticastTTL(255)
	_ = pc.SetMulticastLoopback(true)

	s.conn4, s.pc4, s.group4 = conn, pc, group
	return nil
}

func (s *multicastSocket) openV6() error {
	lc := reuseAddrListenConfig()
	pconn, err := lc.ListenPacket(context.Background(), "udp6", (&net.UDPAddr{Port: protocol.Port}).String())
	if err != nil {
		return &dnserr.NetworkError{Operation: "listen udp6", Err: err}
	}
	conn := pconn.(*net.UDPConn)
	pc := ipv6.NewPacketConn(conn)

	group := &net.UDPAddr{IP: net.ParseIP(protocol.MulticastAddrIPv6), Port: protocol.Port}
	ifaces, err := multicastInterfaces()
	if err != nil {
		return &dnserr.NetworkError{Operation: "list interfaces", Err: err}
	}
	joined := false
	for i := range ifaces {
		if s.scope.kind == scopeV6Iface && ifaces[i].Index != s.scope.scopeID {
			continue
		}
		if err := pc.JoinGroup(&ifaces[i], group); err == nil {
			joined = true
		}
	}
	if !joined {
		if err := pc.JoinGroup(nil, group); err != nil {
			return &dnserr.NetworkError{Operation: "join multicast group v6", Err: err}
		}
	}

	_ = pc.SetMulticastHopLimit(255)
	_ = pc.SetMulticastLoopback(true)

	s.conn6, s.pc6, s.group6 = conn, pc, group
	return nil
}

func multicastInterfaces() ([]net.Interface, error) {
	all, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, ifi := range all {
		if ifi.Flags&net.FlagMulticast == 0 || ifi.Flags&net.FlagUp == 0 {
			continue
		}
		out = append(out, ifi)
	}
	return out, nil
}

// ReadFrom reads from whichever family socket is active, preferring IPv4
// when both are open and ready (SetReadDeadline governs how long to wait on
// each in turn).
func (s *multicastSocket) ReadFrom(p []byte) (int, net.Addr, error) {
	if s.conn4 != nil {
		n, addr, err := s.conn4.ReadFrom(p)
		if err == nil {
			return n, addr, nil
		}
		if !isTimeout(err) {
			return 0, nil, err
		}
	}
	if s.conn6 != nil {
		return s.conn6.ReadFrom(p)
	}
	return 0, nil, &dnserr.NetworkError{Operation: "read", Details: "no socket open"}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// WriteToMulticast sends p to the joined group(s).
func (s *multicastSocket) WriteToMulticast(p []byte) error {
	var firstErr error
	if s.conn4 != nil {
		if _, err := s.conn4.WriteTo(p, s.group4); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.conn6 != nil {
		if _, err := s.conn6.WriteTo(p, s.group6); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return &dnserr.NetworkError{Operation: "write multicast", Err: firstErr}
	}
	return nil
}

// WriteToUnicast sends p directly to dst, honoring a question's
// unicast-response bit (RFC 6762 §5.4).
func (s *multicastSocket) WriteToUnicast(p []byte, dst net.Addr) error {
	udpAddr, ok := dst.(*net.UDPAddr)
	if !ok {
		return &dnserr.NetworkError{Operation: "write unicast", Details: "destination is not a UDP address"}
	}
	conn := s.conn4
	if udpAddr.IP.To4() == nil {
		conn = s.conn6
	}
	if conn == nil {
		return &dnserr.NetworkError{Operation: "write unicast", Details: "no socket open for destination family"}
	}
	if _, err := conn.WriteTo(p, udpAddr); err != nil {
		return &dnserr.NetworkError{Operation: "write unicast", Err: err}
	}
	return nil
}

func (s *multicastSocket) SetReadDeadline(t time.Time) error {
	var err error
	if s.conn4 != nil {
		if e := s.conn4.SetReadDeadline(t); e != nil {
			err = e
		}
	}
	if s.conn6 != nil {
		if e := s.conn6.SetReadDeadline(t); e != nil {
			err = e
		}
	}
	return err
}

func (s *multicastSocket) Close() error {
	var err error
	if s.conn4 != nil {
		err = s.conn4.Close()
	}
	if s.conn6 != nil {
		if e := s.conn6.Close(); e != nil {
			err = e
		}
	}
	return err
}

// LocalAddrs returns the non-loopback unicast addresses of every multicast
// capable interface, used by the discovery engine to populate A/AAAA records
// for the advertised host.
func (s *multicastSocket) LocalAddrs() []net.IP {
	ifaces, err := multicastInterfaces()
	if err != nil {
		return nil
	}
	var out []net.IP
	for _, ifi := range ifaces {
		addrs, err := ifi.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() {
				continue
			}
			out = append(out, ipNet.IP)
		}
	}
	return out
}
