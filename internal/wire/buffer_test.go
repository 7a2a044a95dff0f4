package wire

import "testing"

func TestBufferReadWriteRoundTrip(t *testing.T) {
	buf := NewWriteBuffer(16)
	if err := buf.WriteUint8(0x12); err != nil {
		t.Fatalf("WriteUint8: %v", err)
	}
	if err := buf.WriteUint16(0xBEEF); err != nil {
		t.Fatalf("WriteUint16: %v", err)
	}
	if err := buf.WriteUint32(0xCAFEF00D); err != nil {
		t.Fatalf("WriteUint32: %v", err)
	}

	r := NewBuffer(buf.Bytes())
	gotU8, err := r.ReadUint8()
	if err != nil || gotU8 != 0x12 {
		t.Fatalf("ReadUint8 = %v, %v", gotU8, err)
	}
	gotU16, err := r.ReadUint16()
	if err != nil || gotU16 != 0xBEEF {
		t.Fatalf("ReadUint16 = %v, %v", gotU16, err)
	}
	gotU32, err := r.ReadUint32()
	if err != nil || gotU32 != 0xCAFEF00D {
		t.Fatalf("ReadUint32 = %v, %v", gotU32, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestBufferReadPastEndFails(t *testing.T) {
	r := NewBuffer([]byte{0x01, 0x02})
	if _, err := r.ReadUint32(); err == nil {
		t.Fatal("expected error reading 4 bytes from a 2-byte buffer")
	}
}

func TestBufferFixedCapacityWriteFails(t *testing.T) {
	b := NewBuffer(make([]byte, 2))
	if err := b.WriteUint8(1); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := b.WriteUint16(2); err == nil {
		t.Fatal("expected write past fixed capacity to fail")
	}
}

func TestBufferPatchUint16(t *testing.T) {
	buf := NewWriteBuffer(8)
	_ = buf.WriteUint16(0)
	_ = buf.WriteBytes([]byte{1, 2, 3, 4})
	if err := buf.PatchUint16(0, 4); err != nil {
		t.Fatalf("PatchUint16: %v", err)
	}

	r := NewBuffer(buf.Bytes())
	got, _ := r.ReadUint16()
	if got != 4 {
		t.Fatalf("patched length = %d, want 4", got)
	}
}

func TestBufferSeekAdvance(t *testing.T) {
	b := NewBuffer([]byte{1, 2, 3, 4, 5})
	if err := b.Advance(3); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if b.Position() != 3 {
		t.Fatalf("Position() = %d, want 3", b.Position())
	}
	if err := b.Seek(0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := b.Peek(10); err == nil {
		t.Fatal("expected Peek past end to fail")
	}
	if err := b.Seek(-1); err == nil {
		t.Fatal("expected Seek(-1) to fail")
	}
}
