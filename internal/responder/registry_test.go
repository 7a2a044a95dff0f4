package responder

import (
	"net"
	"testing"
	"time"

	"github.com/quietwire/flare/internal/protocol"
	"github.com/quietwire/flare/internal/wire"
)

func TestRegistryAnswerPullsSRVKnownAdditionals(t *testing.T) {
	reg := NewRegistry()
	svc := wire.MustName("_svc._tcp.local")
	inst := wire.MustName("Printer").Append(svc)
	host := wire.MustName("printer-host.local")

	reg.Add(wire.ResourceRecord{Name: inst, RRType: protocol.TypeSRV, RRClass: protocol.ClassIN, RData: wire.NewSRV(515, host)}, time.Minute)
	reg.Add(wire.ResourceRecord{Name: inst, RRType: protocol.TypeTXT, RRClass: protocol.ClassIN, RData: wire.NewTXT("")}, time.Minute)
	reg.Add(wire.ResourceRecord{Name: host, RRType: protocol.TypeA, RRClass: protocol.ClassIN, RData: wire.NewA(net.IPv4(10, 0, 0, 9))}, time.Minute)

	answers, additionals := reg.Answer(wire.Question{Name: inst, QType: protocol.TypeSRV, QClass: protocol.ClassIN}, time.Now())
	if len(answers) != 1 {
		t.Fatalf("answers = %d, want 1", len(answers))
	}

	foundA, foundTXT := false, false
	for _, a := range additionals {
		switch a.RRType {
		case protocol.TypeA:
			foundA = true
		case protocol.TypeTXT:
			foundTXT = true
		}
	}
	if !foundA || !foundTXT {
		t.Fatalf("additionals = %+v, want A and TXT records present", additionals)
	}
}

func TestRegistryAnswerPullsPTRTarget(t *testing.T) {
	reg := NewRegistry()
	svc := wire.MustName("_svc._tcp.local")
	inst := wire.MustName("Printer").Append(svc)

	reg.Add(wire.ResourceRecord{Name: svc, RRType: protocol.TypePTR, RRClass: protocol.ClassIN, RData: wire.NewPTR(inst)}, time.Minute)
	reg.Add(wire.ResourceRecord{Name: inst, RRType: protocol.TypeTXT, RRClass: protocol.ClassIN, RData: wire.NewTXT("a=b")}, time.Minute)

	_, additionals := reg.Answer(wire.Question{Name: svc, QType: protocol.TypePTR, QClass: protocol.ClassIN}, time.Now())
	if len(additionals) != 1 || additionals[0].RRType != protocol.TypeTXT {
		t.Fatalf("additionals = %+v, want the instance's TXT record", additionals)
	}
}

func TestRegistryRemoveAndRecordsExpire(t *testing.T) {
	reg := NewRegistry()
	name := wire.MustName("host.local")
	reg.Add(wire.ResourceRecord{Name: name, RRType: protocol.TypeA, RRClass: protocol.ClassIN, RData: wire.NewA(net.IPv4(1, 2, 3, 4))}, time.Minute)

	if len(reg.All(time.Now())) != 1 {
		t.Fatal("expected one record before removal")
	}
	reg.Remove(name, nil)
	if len(reg.All(time.Now())) != 0 {
		t.Fatal("expected zero records after removal")
	}
}
