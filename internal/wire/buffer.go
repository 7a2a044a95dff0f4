// Package wire implements the DNS binary codec: a bounded byte cursor, domain
// name compression, CharacterStrings, per-type RDATA, and the full packet
// header/question/resource-record/OPT structure of RFC 1035 and its
// extensions.
//
// Nothing in this package performs I/O; it converts between wire bytes and
// typed values only.
package wire

import (
	"encoding/binary"
	"fmt"

	dnserr "github.com/quietwire/flare/internal/errors"
)

// Buffer is a cursor over a byte slice. Reads never run past the end of the
// backing slice; writes either fail (fixed-capacity mode) or grow the slice
// (growable mode), selected by whether the Buffer was built with NewBuffer
// (fixed) or NewWriteBuffer (growable).
type Buffer struct {
	data     []byte
	pos      int
	growable bool
}

// NewBuffer wraps an existing byte slice for reading. The slice is not
// copied; callers that need to retain bytes past the buffer's lifetime must
// copy them explicitly (see Name's borrowed/owned distinction in name.go).
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// NewWriteBuffer returns an empty growable Buffer, suitable for serialization.
func NewWriteBuffer(capacityHint int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacityHint), growable: true}
}

// Bytes returns the full backing slice (not just the unread remainder).
func (b *Buffer) Bytes() []byte { return b.data }

// Position returns the current cursor offset.
func (b *Buffer) Position() int { return b.pos }

// Remaining returns the number of unread bytes.
func (b *Buffer) Remaining() int { return len(b.data) - b.pos }

// Len returns the total length of the backing slice.
func (b *Buffer) Len() int { return len(b.data) }

func (b *Buffer) insufficient(op string, need int) error {
	return &dnserr.WireFormatError{
		Operation: op,
		Offset:    b.pos,
		Message:   fmt.Sprintf("need %d bytes, have %d", need, len(b.data)-b.pos),
		Err:       dnserr.ErrInsufficientData,
	}
}

// Seek moves the cursor to an absolute offset. It fails if offset is outside
// [0, len(data)].
func (b *Buffer) Seek(offset int) error {
	if offset < 0 || offset > len(b.data) {
		return &dnserr.WireFormatError{Operation: "seek", Offset: offset, Message: "offset out of range"}
	}
	b.pos = offset
	return nil
}

// Advance moves the cursor forward by n bytes (n may be negative to rewind),
// failing if the result would be outside [0, len(data)].
func (b *Buffer) Advance(n int) error {
	return b.Seek(b.pos + n)
}

// Peek returns the next n bytes without moving the cursor.
func (b *Buffer) Peek(n int) ([]byte, error) {
	if n < 0 || b.pos+n > len(b.data) {
		return nil, b.insufficient("peek", n)
	}
	return b.data[b.pos : b.pos+n], nil
}

// ReadBytes reads and returns the next n bytes, advancing the cursor. The
// returned slice aliases the backing array; callers that need an independent
// copy must clone it.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	buf, err := b.Peek(n)
	if err != nil {
		return nil, &dnserr.WireFormatError{Operation: "read bytes", Offset: b.pos, Message: "insufficient data", Err: dnserr.ErrInsufficientData}
	}
	b.pos += n
	return buf, nil
}

// ReadUint8 reads a single big-endian byte.
func (b *Buffer) ReadUint8() (uint8, error) {
	buf, err := b.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint16 reads a big-endian uint16.
func (b *Buffer) ReadUint16() (uint16, error) {
	buf, err := b.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

// ReadUint32 reads a big-endian uint32.
func (b *Buffer) ReadUint32() (uint32, error) {
	buf, err := b.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

// ReadInt32 reads a big-endian int32 (used by SIG/RRSIG timestamps when
// interpreted as signed, though in practice DNS treats them as unsigned
// seconds-since-epoch truncated to 32 bits).
func (b *Buffer) ReadInt32() (int32, error) {
	v, err := b.ReadUint32()
	return int32(v), err //nolint:gosec // wire format is a raw 32-bit reinterpretation
}

func (b *Buffer) ensureCapacity(n int) {
	if !b.growable {
		return
	}
	if cap(b.data)-len(b.data) >= n {
		return
	}
	grown := make([]byte, len(b.data), len(b.data)+n+64)
	copy(grown, b.data)
	b.data = grown
}

// WriteBytes appends raw bytes. In fixed-capacity mode it fails if the write
// would run past the end of the backing slice; in growable mode it extends
// the slice.
func (b *Buffer) WriteBytes(p []byte) error {
	if !b.growable {
		if b.pos+len(p) > len(b.data) {
			return b.insufficient("write bytes", len(p))
		}
		copy(b.data[b.pos:], p)
		b.pos += len(p)
		return nil
	}
	b.ensureCapacity(len(p))
	if b.pos == len(b.data) {
		b.data = append(b.data, p...)
	} else {
		// Overwriting a placeholder (e.g. RDLENGTH patch) mid-stream.
		copy(b.data[b.pos:], p)
	}
	b.pos += len(p)
	return nil
}

// WriteUint8 writes a single byte.
func (b *Buffer) WriteUint8(v uint8) error { return b.WriteBytes([]byte{v}) }

// WriteUint16 writes a big-endian uint16.
func (b *Buffer) WriteUint16(v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return b.WriteBytes(buf[:])
}

// WriteUint32 writes a big-endian uint32.
func (b *Buffer) WriteUint32(v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return b.WriteBytes(buf[:])
}

// PatchUint16 overwrites the big-endian uint16 at an earlier absolute offset
// without disturbing the current cursor position. Used to backfill RDLENGTH
// once the RDATA body's length is known.
func (b *Buffer) PatchUint16(offset int, v uint16) error {
	if offset < 0 || offset+2 > len(b.data) {
		return &dnserr.WireFormatError{Operation: "patch uint16", Offset: offset, Message: "offset out of range"}
	}
	binary.BigEndian.PutUint16(b.data[offset:offset+2], v)
	return nil
}

// Slice returns a window [from, to) of the backing array without moving the
// cursor. Used to hand RData codecs a bounded view of exactly RDLENGTH bytes.
func (b *Buffer) Slice(from, to int) ([]byte, error) {
	if from < 0 || to > len(b.data) || from > to {
		return nil, &dnserr.WireFormatError{Operation: "slice", Offset: from, Message: "range out of bounds"}
	}
	return b.data[from:to], nil
}
