package transport

import (
	"net"
	"testing"
	"time"
)

func addr(ip string, port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(ip), Port: port}
}

func TestMockMulticastDeliversToOtherMembersOnly(t *testing.T) {
	ether := NewEther()
	a := NewMock(ether, addr("10.0.0.1", 5353))
	b := NewMock(ether, addr("10.0.0.2", 5353))

	if err := a.WriteToMulticast([]byte("hello")); err != nil {
		t.Fatalf("WriteToMulticast: %v", err)
	}

	buf := make([]byte, 16)
	n, src, err := b.ReadFrom(buf)
	if err != nil {
		t.Fatalf("b.ReadFrom: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("got %q, want %q", buf[:n], "hello")
	}
	if src.String() != a.addr.String() {
		t.Fatalf("src = %v, want %v", src, a.addr)
	}

	_ = a.SetReadDeadline(time.Now().Add(5 * time.Millisecond))
	if _, _, err := a.ReadFrom(buf); err == nil {
		t.Fatal("expected sender not to receive its own multicast")
	}
}

func TestMockUnicastDeliversToMatchingAddrOnly(t *testing.T) {
	ether := NewEther()
	a := NewMock(ether, addr("10.0.0.1", 5353))
	b := NewMock(ether, addr("10.0.0.2", 5353))
	c := NewMock(ether, addr("10.0.0.3", 5353))

	if err := a.WriteToUnicast([]byte("hi"), b.addr); err != nil {
		t.Fatalf("WriteToUnicast: %v", err)
	}

	buf := make([]byte, 16)
	n, _, err := b.ReadFrom(buf)
	if err != nil || string(buf[:n]) != "hi" {
		t.Fatalf("b.ReadFrom = %q, %v", buf[:n], err)
	}

	_ = c.SetReadDeadline(time.Now().Add(5 * time.Millisecond))
	if _, _, err := c.ReadFrom(buf); err == nil {
		t.Fatal("expected unicast not to reach an uninvolved member")
	}
}

func TestMockReadTimeout(t *testing.T) {
	ether := NewEther()
	a := NewMock(ether, addr("10.0.0.1", 5353))
	_ = a.SetReadDeadline(time.Now().Add(10 * time.Millisecond))

	buf := make([]byte, 16)
	_, _, err := a.ReadFrom(buf)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	ne, ok := err.(net.Error)
	if !ok || !ne.Timeout() {
		t.Fatalf("err = %v, want a net.Error with Timeout()==true", err)
	}
}

func TestMockCloseRejectsFurtherReads(t *testing.T) {
	ether := NewEther()
	a := NewMock(ether, addr("10.0.0.1", 5353))
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	buf := make([]byte, 16)
	if _, _, err := a.ReadFrom(buf); err == nil {
		t.Fatal("expected ReadFrom on a closed Mock to fail")
	}
}
