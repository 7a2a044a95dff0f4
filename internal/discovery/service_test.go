package discovery

import (
	"net"
	"testing"

	"github.com/quietwire/flare/internal/protocol"
	"github.com/quietwire/flare/internal/wire"
)

func TestBuildRecordsShape(t *testing.T) {
	info := ServiceInfo{
		InstanceName: "My Printer",
		ServiceType:  "_ipp._tcp.local",
		Hostname:     "printer-host.local",
		Port:         515,
		Addrs:        []net.IP{net.IPv4(10, 0, 0, 5), net.ParseIP("fe80::1")},
		Attrs:        map[string]string{"path": "/"},
	}

	records, err := BuildRecords(info)
	if err != nil {
		t.Fatalf("BuildRecords: %v", err)
	}
	// PTR, SRV, TXT, A, AAAA
	if len(records) != 5 {
		t.Fatalf("len(records) = %d, want 5", len(records))
	}

	ptr := records[0]
	if ptr.RRType != protocol.TypePTR || ptr.CacheFlush() {
		t.Fatalf("PTR record malformed: %+v", ptr)
	}
	svcType := wire.MustName(info.ServiceType)
	if !ptr.Name.Equal(svcType) {
		t.Fatalf("PTR name = %q, want %q", ptr.Name.String(), svcType.String())
	}

	srv := records[1]
	if srv.RRType != protocol.TypeSRV || !srv.CacheFlush() {
		t.Fatalf("SRV record malformed: %+v", srv)
	}

	txt := records[2]
	if txt.RRType != protocol.TypeTXT || !txt.CacheFlush() {
		t.Fatalf("TXT record malformed: %+v", txt)
	}

	if records[3].RRType != protocol.TypeA || records[4].RRType != protocol.TypeAAAA {
		t.Fatalf("expected A then AAAA, got %+v, %+v", records[3], records[4])
	}
}

func TestBuildRecordsDefaultTTLs(t *testing.T) {
	info := ServiceInfo{InstanceName: "X", ServiceType: "_x._tcp.local", Hostname: "h.local", Port: 1}
	records, err := BuildRecords(info)
	if err != nil {
		t.Fatalf("BuildRecords: %v", err)
	}
	if records[0].TTL != protocol.TTLServiceDefault {
		t.Fatalf("PTR TTL = %d, want %d", records[0].TTL, protocol.TTLServiceDefault)
	}
}

func TestEncodeTXTEmptyAttrs(t *testing.T) {
	td := encodeTXT(nil)
	if len(td.Strings) != 1 || len(td.Strings[0]) != 0 {
		t.Fatalf("encodeTXT(nil) = %+v, want one zero-length string", td)
	}
}

func TestEncodeTXTPopulatedAttrs(t *testing.T) {
	td := encodeTXT(map[string]string{"k": "v"})
	if len(td.Strings) != 1 || string(td.Strings[0]) != "k=v" {
		t.Fatalf("encodeTXT = %+v, want [\"k=v\"]", td)
	}
}

func TestGoodbyeRecordsForceTTLZero(t *testing.T) {
	records := []wire.ResourceRecord{{TTL: 120}, {TTL: 4500}}
	bye := goodbyeRecords(records)
	for _, rr := range bye {
		if rr.TTL != 0 {
			t.Fatalf("goodbye TTL = %d, want 0", rr.TTL)
		}
	}
	if records[0].TTL != 120 {
		t.Fatal("goodbyeRecords must not mutate the input slice")
	}
}
