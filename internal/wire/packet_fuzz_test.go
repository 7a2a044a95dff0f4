package wire

import "testing"

// FuzzParsePacket checks that ParsePacket never panics on arbitrary input,
// including truncated headers, out-of-range compression pointers, and
// self-referencing compression loops.
//
// Run with: go test -fuzz=FuzzParsePacket ./internal/wire/
func FuzzParsePacket(f *testing.F) {
	f.Add([]byte{
		0x12, 0x34, // ID
		0x84, 0x00, // Flags: QR=1, AA=1
		0x00, 0x01, // QDCOUNT
		0x00, 0x01, // ANCOUNT
		0x00, 0x00, // NSCOUNT
		0x00, 0x00, // ARCOUNT
		0x04, 't', 'e', 's', 't',
		0x05, 'l', 'o', 'c', 'a', 'l',
		0x00,
		0x00, 0x01, // QTYPE = A
		0x00, 0x01, // QCLASS = IN
		0x04, 't', 'e', 's', 't',
		0x05, 'l', 'o', 'c', 'a', 'l',
		0x00,
		0x00, 0x01, // TYPE = A
		0x00, 0x01, // CLASS = IN
		0x00, 0x00, 0x00, 0x78, // TTL
		0x00, 0x04, // RDLENGTH
		192, 168, 1, 100,
	})

	f.Add([]byte{
		0x12, 0x34,
		0x84, 0x00,
		0x00, 0x01,
		0x00, 0x01,
		0x00, 0x00,
		0x00, 0x00,
		0x04, 't', 'e', 's', 't',
		0x05, 'l', 'o', 'c', 'a', 'l',
		0x00,
		0x00, 0x01,
		0x00, 0x01,
		0xC0, 0x0C, // compression pointer back into the question name
		0x00, 0x01,
		0x00, 0x01,
		0x00, 0x00, 0x00, 0x78,
		0x00, 0x04,
		192, 168, 1, 100,
	})

	f.Add([]byte{
		0x12, 0x34,
		0x84, 0x00,
		0x00, 0x01,
		0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00,
		0xC0, 0x0C, // self-referencing pointer: points at its own offset
		0x00, 0x01,
		0x00, 0x01,
	})

	f.Add([]byte{0x12, 0x34, 0x84, 0x00}) // too short
	f.Add([]byte{})

	f.Fuzz(func(_ *testing.T, data []byte) {
		_, _ = ParsePacket(data)
	})
}
