package wire

import (
	"net"
	"testing"
)

func TestARecordRoundTrip(t *testing.T) {
	rr := ResourceRecord{
		Name:    MustName("host.local"),
		RRType:  1, // A
		RRClass: 1,
		TTL:     120,
		RData:   NewA(net.IPv4(192, 168, 1, 42)),
	}
	buf := NewWriteBuffer(64)
	if err := rr.write(buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewBuffer(buf.Bytes())
	got, err := parseResourceRecord(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	a, ok := got.RData.(AData)
	if !ok {
		t.Fatalf("RData type = %T, want AData", got.RData)
	}
	if !a.IP().Equal(net.IPv4(192, 168, 1, 42)) {
		t.Fatalf("IP = %v, want 192.168.1.42", a.IP())
	}
}

func TestAAAARecordRoundTrip(t *testing.T) {
	ip := net.ParseIP("fe80::1")
	rr := ResourceRecord{Name: MustName("host.local"), RRType: 28, RRClass: 1, TTL: 120, RData: NewAAAA(ip)}
	buf := NewWriteBuffer(64)
	if err := rr.write(buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewBuffer(buf.Bytes())
	got, err := parseResourceRecord(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	aaaa := got.RData.(AAAAData)
	if !aaaa.IP().Equal(ip) {
		t.Fatalf("IP = %v, want %v", aaaa.IP(), ip)
	}
}

func TestSRVRecordRoundTrip(t *testing.T) {
	target := MustName("host.local")
	rr := ResourceRecord{
		Name:    MustName("_svc._tcp.local"),
		RRType:  33, // SRV
		RRClass: 1,
		TTL:     120,
		RData:   NewSRV(8080, target),
	}
	buf := NewWriteBuffer(64)
	if err := rr.write(buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewBuffer(buf.Bytes())
	got, err := parseResourceRecord(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	srv := got.RData.(SRVData)
	if srv.Port != 8080 || !srv.Target.Equal(target) {
		t.Fatalf("srv = %+v", srv)
	}
}

func TestPTRRecordRoundTrip(t *testing.T) {
	target := MustName("My Instance._svc._tcp.local")
	rr := ResourceRecord{Name: MustName("_svc._tcp.local"), RRType: 12, RRClass: 1, TTL: 4500, RData: NewPTR(target)}
	buf := NewWriteBuffer(128)
	comp := CompressionMap{}
	if err := rr.write(buf, comp); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewBuffer(buf.Bytes())
	got, err := parseResourceRecord(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ptr := got.RData.(NameRData)
	if !ptr.Target.Equal(target) {
		t.Fatalf("target = %q, want %q", ptr.Target.String(), target.String())
	}
}

func TestTXTRecordRoundTrip(t *testing.T) {
	rr := ResourceRecord{
		Name:    MustName("inst._svc._tcp.local"),
		RRType:  16, // TXT
		RRClass: 1,
		TTL:     4500,
		RData:   NewTXT("path=/"),
	}
	buf := NewWriteBuffer(64)
	if err := rr.write(buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewBuffer(buf.Bytes())
	got, err := parseResourceRecord(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	txt := got.RData.(TXTData)
	if txt.Joined() != "path=/" {
		t.Fatalf("Joined() = %q, want %q", txt.Joined(), "path=/")
	}
}

func TestTXTZeroLengthRDATADecodesEmpty(t *testing.T) {
	rr := ResourceRecord{Name: RootName, RRType: 16, RRClass: 1, TTL: 0, RData: TXTData{}}
	buf := NewWriteBuffer(32)
	if err := rr.write(buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewBuffer(buf.Bytes())
	got, err := parseResourceRecord(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	txt := got.RData.(TXTData)
	if txt.Strings == nil || len(txt.Strings) != 0 {
		t.Fatalf("Strings = %v, want non-nil empty slice", txt.Strings)
	}
}

func TestUnknownTypeRoundTripsOpaque(t *testing.T) {
	raw := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	rr := ResourceRecord{Name: RootName, RRType: 9999, RRClass: 1, TTL: 0, RData: Unknown{RRType: 9999, Raw: raw}}
	buf := NewWriteBuffer(32)
	if err := rr.write(buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewBuffer(buf.Bytes())
	got, err := parseResourceRecord(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	u := got.RData.(Unknown)
	if string(u.Raw) != string(raw) {
		t.Fatalf("Raw = %v, want %v", u.Raw, raw)
	}
}

func TestResourceRecordCacheFlushAndClassBits(t *testing.T) {
	rr := ResourceRecord{RRClass: 1 | 1<<15}
	if !rr.CacheFlush() {
		t.Fatal("expected CacheFlush bit to be set")
	}
	if rr.Class() != 1 {
		t.Fatalf("Class() = %d, want 1", rr.Class())
	}
}

func TestQuestionUnicastResponseAndANYWildcard(t *testing.T) {
	q := Question{Name: RootName, QType: 255, QClass: 1 | 1<<15}
	if !q.UnicastResponse() {
		t.Fatal("expected UnicastResponse to be true")
	}
	if q.Class() != 1 {
		t.Fatalf("Class() = %d, want 1", q.Class())
	}
	if !q.MatchesType(1) || !q.MatchesType(28) {
		t.Fatal("expected ANY QType to match every rtype")
	}
}
