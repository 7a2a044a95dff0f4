package wire

import (
	dnserr "github.com/quietwire/flare/internal/errors"
)

// CharacterString is a length-prefixed byte string, RFC 1035 §3.3: a single
// length octet followed by that many bytes, length ≤ 255.
type CharacterString []byte

// ReadCharacterString reads one CharacterString from buf.
func ReadCharacterString(buf *Buffer) (CharacterString, error) {
	n, err := buf.ReadUint8()
	if err != nil {
		return nil, &dnserr.WireFormatError{Operation: "read character-string", Offset: buf.Position(), Message: "missing length octet"}
	}
	data, err := buf.ReadBytes(int(n))
	if err != nil {
		return nil, &dnserr.WireFormatError{Operation: "read character-string", Offset: buf.Position(), Message: "truncated character-string"}
	}
	out := make(CharacterString, len(data))
	copy(out, data)
	return out, nil
}

// Write serializes the CharacterString. Fails if longer than 255 bytes.
func (c CharacterString) Write(buf *Buffer) error {
	if len(c) > 255 {
		return &dnserr.WireFormatError{Operation: "write character-string", Offset: buf.Position(), Message: "exceeds 255 bytes"}
	}
	if err := buf.WriteUint8(uint8(len(c))); err != nil {
		return err
	}
	return buf.WriteBytes(c)
}

// ChunkString splits s into CharacterStrings of at most 255 bytes each, for
// TYPE=TXT's construction contract: an arbitrarily long string
// becomes the minimum number of chunks needed to hold it, each ≤255 bytes.
func ChunkString(s string) []CharacterString {
	if len(s) == 0 {
		return []CharacterString{{}}
	}
	var out []CharacterString
	b := []byte(s)
	for len(b) > 0 {
		n := len(b)
		if n > 255 {
			n = 255
		}
		chunk := make(CharacterString, n)
		copy(chunk, b[:n])
		out = append(out, chunk)
		b = b[n:]
	}
	return out
}

// ReadCharacterStringsToEnd reads CharacterStrings until the buffer window is
// exhausted, covering exactly the remaining bytes (TXT's RDATA contract:
// zero-length RDATA yields an empty, non-nil list).
func ReadCharacterStringsToEnd(buf *Buffer) ([]CharacterString, error) {
	out := []CharacterString{}
	for buf.Remaining() > 0 {
		cs, err := ReadCharacterString(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, nil
}
