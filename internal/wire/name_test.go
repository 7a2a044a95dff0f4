package wire

import "testing"

func TestNameRoundTripUncompressed(t *testing.T) {
	n := MustName("printer._ipp._tcp.local")
	buf := NewWriteBuffer(64)
	if err := n.WriteUncompressed(buf); err != nil {
		t.Fatalf("WriteUncompressed: %v", err)
	}

	r := NewBuffer(buf.Bytes())
	got, err := ParseName(r)
	if err != nil {
		t.Fatalf("ParseName: %v", err)
	}
	if !got.Equal(n) {
		t.Fatalf("round-trip = %q, want %q", got.String(), n.String())
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestNameCaseInsensitiveEqual(t *testing.T) {
	a := MustName("Printer.Local")
	b := MustName("printer.local")
	if !a.Equal(b) {
		t.Fatal("expected case-insensitive equality")
	}
	if a.Key() != b.Key() {
		t.Fatal("expected identical Key() regardless of case")
	}
}

func TestNameCompressionBackPointer(t *testing.T) {
	local := MustName("local")
	a := MustName("host-a.local")
	b := MustName("host-b.local")

	buf := NewWriteBuffer(128)
	comp := CompressionMap{}
	if err := a.WriteCompressed(buf, comp); err != nil {
		t.Fatalf("write a: %v", err)
	}
	secondStart := buf.Position()
	if err := b.WriteCompressed(buf, comp); err != nil {
		t.Fatalf("write b: %v", err)
	}

	// b's "local" suffix should have compressed to a pointer, so b's encoded
	// form is shorter than writing "local" uncompressed would require.
	bLen := buf.Position() - secondStart
	wantMax := 1 + len("host-b") + 2 // length+label + 2-byte pointer
	if bLen > wantMax {
		t.Fatalf("compressed length = %d, want <= %d", bLen, wantMax)
	}

	r := NewBuffer(buf.Bytes())
	gotA, err := ParseName(r)
	if err != nil {
		t.Fatalf("parse a: %v", err)
	}
	if !gotA.Equal(a) {
		t.Fatalf("parsed a = %q, want %q", gotA.String(), a.String())
	}
	if err := r.Seek(secondStart); err != nil {
		t.Fatalf("seek: %v", err)
	}
	gotB, err := ParseName(r)
	if err != nil {
		t.Fatalf("parse b: %v", err)
	}
	if !gotB.Equal(b) {
		t.Fatalf("parsed b = %q, want %q", gotB.String(), b.String())
	}
	if !gotB.IsSubdomainOf(local) {
		t.Fatal("expected parsed b to be a subdomain of local")
	}
}

func TestNameParseRejectsForwardPointerCycle(t *testing.T) {
	// A pointer at offset 0 pointing to itself must be rejected, since a
	// pointer is only legal pointing strictly backward.
	data := []byte{0xC0, 0x00}
	r := NewBuffer(data)
	if _, err := ParseName(r); err == nil {
		t.Fatal("expected error for a pointer that does not point strictly backward")
	}
}

func TestNameWithoutAndAppend(t *testing.T) {
	svc := MustName("_ipp._tcp.local")
	full := MustName("My Printer")
	combined := full.Append(svc)
	if !combined.Equal(MustName("My Printer._ipp._tcp.local")) {
		t.Fatalf("Append produced %q", combined.String())
	}

	prefix, ok := combined.Without(svc)
	if !ok {
		t.Fatal("expected combined to be a subdomain of svc")
	}
	if !prefix.Equal(full) {
		t.Fatalf("Without produced %q, want %q", prefix.String(), full.String())
	}

	if _, ok := svc.Without(combined); ok {
		t.Fatal("expected Without to fail when n is not a subdomain of parent")
	}
}

func TestNewNameRejectsOverlongLabel(t *testing.T) {
	overlong := make([]byte, 64)
	for i := range overlong {
		overlong[i] = 'a'
	}
	if _, err := NewName(string(overlong) + ".local"); err == nil {
		t.Fatal("expected error for a 64-byte label")
	}
}

func TestNewNameRejectsEmptyLabel(t *testing.T) {
	if _, err := NewName("a..b"); err == nil {
		t.Fatal("expected error for consecutive dots")
	}
}
