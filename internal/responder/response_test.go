package responder

import (
	"net"
	"testing"

	"github.com/quietwire/flare/internal/protocol"
	"github.com/quietwire/flare/internal/wire"
)

func rr(name *wire.Name, rtype uint16, ttl uint32, data wire.RData) wire.ResourceRecord {
	return wire.ResourceRecord{Name: name, RRType: rtype, RRClass: protocol.ClassIN, TTL: ttl, RData: data}
}

func TestSuppressKnownAnswerFreshEnough(t *testing.T) {
	name := wire.MustName("host.local")
	ours := rr(name, protocol.TypeA, 120, wire.NewA(net.IPv4(10, 0, 0, 1)))
	known := rr(name, protocol.TypeA, 100, wire.NewA(net.IPv4(10, 0, 0, 1))) // >= half of 120

	if !suppressKnownAnswer(ours, []wire.ResourceRecord{known}) {
		t.Fatal("expected suppression when known TTL >= half the true TTL")
	}
}

func TestSuppressKnownAnswerStale(t *testing.T) {
	name := wire.MustName("host.local")
	ours := rr(name, protocol.TypeA, 120, wire.NewA(net.IPv4(10, 0, 0, 1)))
	known := rr(name, protocol.TypeA, 50, wire.NewA(net.IPv4(10, 0, 0, 1))) // < half of 120

	if suppressKnownAnswer(ours, []wire.ResourceRecord{known}) {
		t.Fatal("expected no suppression when known TTL < half the true TTL")
	}
}

func TestSuppressKnownAnswerDifferentRData(t *testing.T) {
	name := wire.MustName("host.local")
	ours := rr(name, protocol.TypeA, 120, wire.NewA(net.IPv4(10, 0, 0, 1)))
	known := rr(name, protocol.TypeA, 120, wire.NewA(net.IPv4(10, 0, 0, 2)))

	if suppressKnownAnswer(ours, []wire.ResourceRecord{known}) {
		t.Fatal("expected no suppression when rdata differs")
	}
}

func TestSameRecordIgnoresCacheFlushBit(t *testing.T) {
	name := wire.MustName("host.local")
	a := wire.ResourceRecord{Name: name, RRType: protocol.TypeA, RRClass: protocol.ClassIN | protocol.CacheFlushBit, RData: wire.NewA(net.IPv4(1, 1, 1, 1))}
	b := wire.ResourceRecord{Name: name, RRType: protocol.TypeA, RRClass: protocol.ClassIN, RData: wire.NewA(net.IPv4(1, 1, 1, 1))}
	if !sameRecord(a, b) {
		t.Fatal("expected sameRecord to ignore the cache-flush bit (Class() masks it)")
	}
}
