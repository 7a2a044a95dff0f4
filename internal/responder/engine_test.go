package responder

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/quietwire/flare/internal/protocol"
	"github.com/quietwire/flare/internal/security"
	"github.com/quietwire/flare/internal/transport"
	"github.com/quietwire/flare/internal/wire"
)

func TestEngineStepAnswersQuery(t *testing.T) {
	ether := transport.NewEther()
	respSock := transport.NewMock(ether, &net.UDPAddr{IP: net.ParseIP("10.0.0.1"), Port: protocol.Port})
	querierSock := transport.NewMock(ether, &net.UDPAddr{IP: net.ParseIP("10.0.0.2"), Port: protocol.Port})

	e := NewEngine(respSock, nil, nil, nil)
	name := wire.MustName("host.local")
	e.Registry.Add(wire.ResourceRecord{Name: name, RRType: protocol.TypeA, RRClass: protocol.ClassIN, RData: wire.NewA(net.IPv4(10, 0, 0, 1))}, time.Minute)

	query := &wire.Packet{
		Header:    wire.Header{QDCount: 1},
		Questions: []wire.Question{{Name: name, QType: protocol.TypeA, QClass: protocol.ClassIN}},
	}
	data, err := query.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if err := querierSock.WriteToMulticast(data); err != nil {
		t.Fatalf("WriteToMulticast: %v", err)
	}

	ctx := context.Background()
	if err := e.Step(ctx); err != nil {
		t.Fatalf("Step: %v", err)
	}

	_ = querierSock.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	buf := make([]byte, transport.MaxDatagramSize)
	n, _, err := querierSock.ReadFrom(buf)
	if err != nil {
		t.Fatalf("expected a response datagram, got error: %v", err)
	}
	resp, err := wire.ParsePacket(buf[:n])
	if err != nil {
		t.Fatalf("ParsePacket: %v", err)
	}
	if !resp.Header.QR() || !resp.Header.AA() {
		t.Fatal("expected QR and AA set on the response")
	}
	if len(resp.Answers) != 1 {
		t.Fatalf("answers = %d, want 1", len(resp.Answers))
	}
}

func TestEngineStepIgnoresResponses(t *testing.T) {
	ether := transport.NewEther()
	respSock := transport.NewMock(ether, &net.UDPAddr{IP: net.ParseIP("10.0.0.1"), Port: protocol.Port})
	other := transport.NewMock(ether, &net.UDPAddr{IP: net.ParseIP("10.0.0.2"), Port: protocol.Port})

	e := NewEngine(respSock, nil, nil, nil)
	resp := &wire.Packet{Header: wire.Header{Flags: protocol.FlagQR}}
	data, _ := resp.Serialize()
	_ = other.WriteToMulticast(data)

	if err := e.Step(context.Background()); err != nil {
		t.Fatalf("Step: %v", err)
	}

	_ = other.SetReadDeadline(time.Now().Add(20 * time.Millisecond))
	buf := make([]byte, transport.MaxDatagramSize)
	if _, _, err := other.ReadFrom(buf); err == nil {
		t.Fatal("expected no reply to an incoming response packet")
	}
}

func TestEngineStepTimeoutReturnsNilNotError(t *testing.T) {
	ether := transport.NewEther()
	sock := transport.NewMock(ether, &net.UDPAddr{IP: net.ParseIP("10.0.0.1"), Port: protocol.Port})
	e := NewEngine(sock, nil, nil, nil)

	if err := e.Step(context.Background()); err != nil {
		t.Fatalf("Step with no traffic should return nil, got %v", err)
	}
}

func TestEngineStepRateLimitsRepeatedQuestion(t *testing.T) {
	ether := transport.NewEther()
	respSock := transport.NewMock(ether, &net.UDPAddr{IP: net.ParseIP("10.0.0.1"), Port: protocol.Port})
	querierSock := transport.NewMock(ether, &net.UDPAddr{IP: net.ParseIP("10.0.0.2"), Port: protocol.Port})

	limiter := security.NewRateLimiter(1, time.Minute, 100)
	e := NewEngine(respSock, nil, limiter, nil)
	name := wire.MustName("host.local")
	e.Registry.Add(wire.ResourceRecord{Name: name, RRType: protocol.TypeA, RRClass: protocol.ClassIN, RData: wire.NewA(net.IPv4(10, 0, 0, 1))}, time.Minute)

	query := &wire.Packet{
		Header:    wire.Header{QDCount: 1},
		Questions: []wire.Question{{Name: name, QType: protocol.TypeA, QClass: protocol.ClassIN}},
	}
	data, err := query.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	// First query is answered; the second, identical one arrives inside the
	// same one-second window and is throttled.
	for i := 0; i < 2; i++ {
		if err := querierSock.WriteToMulticast(data); err != nil {
			t.Fatalf("WriteToMulticast: %v", err)
		}
		if err := e.Step(context.Background()); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	_ = querierSock.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	buf := make([]byte, transport.MaxDatagramSize)
	if _, _, err := querierSock.ReadFrom(buf); err != nil {
		t.Fatalf("expected a response to the first query, got error: %v", err)
	}
	if _, _, err := querierSock.ReadFrom(buf); err == nil {
		t.Fatal("expected the repeated question to be rate-limited")
	}
}

func TestEngineStepExemptsProbesFromRateLimit(t *testing.T) {
	ether := transport.NewEther()
	respSock := transport.NewMock(ether, &net.UDPAddr{IP: net.ParseIP("10.0.0.1"), Port: protocol.Port})
	querierSock := transport.NewMock(ether, &net.UDPAddr{IP: net.ParseIP("10.0.0.2"), Port: protocol.Port})

	limiter := security.NewRateLimiter(1, time.Minute, 100)
	e := NewEngine(respSock, nil, limiter, nil)
	name := wire.MustName("host.local")
	e.Registry.Add(wire.ResourceRecord{Name: name, RRType: protocol.TypeA, RRClass: protocol.ClassIN, RData: wire.NewA(net.IPv4(10, 0, 0, 1))}, time.Minute)

	// RFC 6762 §8.1 probes carry the tentative record in the Authority
	// section and are, by design, repeated three times in quick succession.
	probe := &wire.Packet{
		Header:      wire.Header{QDCount: 1, NSCount: 1},
		Questions:   []wire.Question{{Name: name, QType: protocol.TypeANY, QClass: protocol.ClassIN}},
		Authorities: []wire.ResourceRecord{{Name: name, RRType: protocol.TypeA, RRClass: protocol.ClassIN, RData: wire.NewA(net.IPv4(10, 0, 0, 1))}},
	}
	data, err := probe.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := querierSock.WriteToMulticast(data); err != nil {
			t.Fatalf("WriteToMulticast: %v", err)
		}
		if err := e.Step(context.Background()); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	_ = querierSock.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	buf := make([]byte, transport.MaxDatagramSize)
	for i := 0; i < 3; i++ {
		if _, _, err := querierSock.ReadFrom(buf); err != nil {
			t.Fatalf("expected probe %d to be answered, got error: %v", i, err)
		}
	}
}
