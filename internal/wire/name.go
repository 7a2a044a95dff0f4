package wire

import (
	"fmt"
	"strings"

	dnserr "github.com/quietwire/flare/internal/errors"
	"github.com/quietwire/flare/internal/protocol"
)

// Name is an ordered sequence of labels, RFC 1035 §3.1. The root label is
// implicit and never stored in Labels. Label bytes are kept verbatim (not
// lower-cased) so encoding reproduces the original case; comparisons are
// case-insensitive per RFC 1035 §3.1 and RFC 4343.
type Name struct {
	labels [][]byte
}

// RootName is the zero-label name (".").
var RootName = &Name{}

// NewName builds a Name from dotted-label text, e.g. "printer._ipp._tcp.local".
// A trailing "." is tolerated and stripped. Each label must be 1..=63 bytes and
// the encoded form must not exceed 255 bytes.
func NewName(dotted string) (*Name, error) {
	if dotted == "" || dotted == "." {
		return &Name{}, nil
	}
	dotted = strings.TrimSuffix(dotted, ".")
	parts := strings.Split(dotted, ".")
	n := &Name{labels: make([][]byte, 0, len(parts))}
	total := 1 // root terminator
	for _, p := range parts {
		if len(p) == 0 {
			return nil, &dnserr.ValidationError{Field: "name", Value: dotted, Message: "empty label (consecutive dots)"}
		}
		if len(p) > protocol.MaxLabelLength {
			return nil, &dnserr.ValidationError{Field: "name", Value: dotted, Message: fmt.Sprintf("label %q exceeds %d bytes", p, protocol.MaxLabelLength)}
		}
		total += len(p) + 1
		if total > protocol.MaxNameLength {
			return nil, &dnserr.ValidationError{Field: "name", Value: dotted, Message: "encoded name exceeds 255 bytes"}
		}
		n.labels = append(n.labels, []byte(p))
	}
	return n, nil
}

// MustName is NewName but panics on error; for constant names in tests and
// internal call sites where the name is known-valid.
func MustName(dotted string) *Name {
	n, err := NewName(dotted)
	if err != nil {
		panic(err)
	}
	return n
}

// Labels returns the label sequence, most-significant (TLD-like) last, i.e. in
// left-to-right wire order ("printer", "_ipp", "_tcp", "local").
func (n *Name) Labels() [][]byte {
	if n == nil {
		return nil
	}
	return n.labels
}

// String renders the dotted textual form. The root name renders as "".
func (n *Name) String() string {
	if n == nil || len(n.labels) == 0 {
		return ""
	}
	parts := make([]string, len(n.labels))
	for i, l := range n.labels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ".")
}

func equalLabel(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Equal reports case-insensitive label-wise equality.
func (n *Name) Equal(o *Name) bool {
	if n == nil || o == nil {
		return n == o || (n.lenOrZero() == 0 && o.lenOrZero() == 0)
	}
	if len(n.labels) != len(o.labels) {
		return false
	}
	for i := range n.labels {
		if !equalLabel(n.labels[i], o.labels[i]) {
			return false
		}
	}
	return true
}

func (n *Name) lenOrZero() int {
	if n == nil {
		return 0
	}
	return len(n.labels)
}

// Key returns a case-normalized, collision-safe string usable as a map key
// (for compression offset tables and trie lookups). Labels are separated by a
// NUL byte so that "a.bc" and "ab.c" never collide.
func (n *Name) Key() string {
	if n == nil || len(n.labels) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, l := range n.labels {
		for _, c := range l {
			if c >= 'A' && c <= 'Z' {
				c += 'a' - 'A'
			}
			sb.WriteByte(c)
		}
		sb.WriteByte(0)
	}
	return sb.String()
}

// IsSubdomainOf reports whether n has strictly more labels than parent and
// n's trailing labels equal parent's labels. A name is never a subdomain of
// itself.
func (n *Name) IsSubdomainOf(parent *Name) bool {
	if n == nil || parent == nil {
		return false
	}
	if len(n.labels) <= len(parent.labels) {
		return false
	}
	offset := len(n.labels) - len(parent.labels)
	for i, l := range parent.labels {
		if !equalLabel(n.labels[offset+i], l) {
			return false
		}
	}
	return true
}

// Without returns the prefix labels of n relative to parent (n with parent's
// suffix stripped), or (nil, false) if n is not a subdomain of parent.
func (n *Name) Without(parent *Name) (*Name, bool) {
	if !n.IsSubdomainOf(parent) {
		return nil, false
	}
	prefixLen := len(n.labels) - len(parent.labels)
	prefix := make([][]byte, prefixLen)
	copy(prefix, n.labels[:prefixLen])
	return &Name{labels: prefix}, true
}

// Append returns a new Name with suffix's labels appended after n's labels,
// e.g. MustName("printer").Append(MustName("_ipp._tcp.local")).
func (n *Name) Append(suffix *Name) *Name {
	out := make([][]byte, 0, n.lenOrZero()+suffix.lenOrZero())
	out = append(out, n.Labels()...)
	out = append(out, suffix.Labels()...)
	return &Name{labels: out}
}

// encodedLen is the number of bytes Name would occupy uncompressed on the
// wire, including the root terminator.
func (n *Name) encodedLen() int {
	total := 1
	for _, l := range n.labels {
		total += 1 + len(l)
	}
	return total
}

// WriteUncompressed serializes the name with no compression: each label
// length-prefixed, terminated by a zero-length label.
func (n *Name) WriteUncompressed(buf *Buffer) error {
	if n.encodedLen() > protocol.MaxNameLength {
		return &dnserr.WireFormatError{Operation: "write name", Offset: buf.Position(), Message: "name exceeds 255 bytes"}
	}
	for _, l := range n.labels {
		if len(l) == 0 || len(l) > protocol.MaxLabelLength {
			return &dnserr.WireFormatError{Operation: "write name", Offset: buf.Position(), Message: "invalid label length"}
		}
		if err := buf.WriteUint8(uint8(len(l))); err != nil {
			return err
		}
		if err := buf.WriteBytes(l); err != nil {
			return err
		}
	}
	return buf.WriteUint8(0)
}

// CompressionMap tracks, for each suffix of labels already written to a
// packet, the absolute byte offset where that suffix first appeared. It is
// threaded through every Name write within one Packet.Serialize call.
type CompressionMap map[string]int

// WriteCompressed serializes the name using RFC 1035 §4.1.4 back-pointers: the
// longest suffix of n already present in comp is replaced by a 2-byte
// pointer; any remaining leading labels are written literally and their own
// new suffixes recorded in comp for subsequent names to reference.
func (n *Name) WriteCompressed(buf *Buffer, comp CompressionMap) error {
	if comp == nil {
		return n.WriteUncompressed(buf)
	}

	labels := n.labels
	// Find the longest suffix starting at some label index i that has a
	// recorded offset.
	matchOffset := -1
	matchIdx := len(labels)
	for i := 0; i < len(labels); i++ {
		suffix := &Name{labels: labels[i:]}
		if off, ok := comp[suffix.Key()]; ok && off <= int(protocol.CompressionPointerMax14) {
			matchOffset = off
			matchIdx = i
			break
		}
	}

	for i := 0; i < matchIdx; i++ {
		offset := buf.Position()
		if offset <= int(protocol.CompressionPointerMax14) {
			suffix := &Name{labels: labels[i:]}
			if _, exists := comp[suffix.Key()]; !exists {
				comp[suffix.Key()] = offset
			}
		}
		l := labels[i]
		if len(l) == 0 || len(l) > protocol.MaxLabelLength {
			return &dnserr.WireFormatError{Operation: "write name", Offset: buf.Position(), Message: "invalid label length"}
		}
		if err := buf.WriteUint8(uint8(len(l))); err != nil {
			return err
		}
		if err := buf.WriteBytes(l); err != nil {
			return err
		}
	}

	if matchOffset >= 0 {
		ptr := protocol.CompressionPointerMask16 | uint16(matchOffset)
		return buf.WriteUint16(ptr)
	}
	return buf.WriteUint8(0)
}

// ParseName decodes a domain name starting at buf's current position,
// following compression pointers against buf's full backing array. The
// cursor is left immediately after the name's on-wire representation (i.e.
// after the 2-byte pointer if one was taken, not after the jumped-to data).
func ParseName(buf *Buffer) (*Name, error) {
	full := buf.Bytes()
	start := buf.Position()
	if start < 0 || start > len(full) {
		return nil, &dnserr.WireFormatError{Operation: "parse name", Offset: start, Message: "offset out of bounds"}
	}

	var labels [][]byte
	pos := start
	hops := 0
	jumped := false
	finalPos := -1
	totalLen := 0

	for {
		if pos >= len(full) {
			return nil, &dnserr.WireFormatError{Operation: "parse name", Offset: pos, Message: "unexpected end of message"}
		}
		length := full[pos]

		if length&protocol.CompressionPointerMask == protocol.CompressionPointerMask {
			if pos+1 >= len(full) {
				return nil, &dnserr.WireFormatError{Operation: "parse name", Offset: pos, Message: "truncated compression pointer"}
			}
			target := int(full[pos]&^protocol.CompressionPointerMask)<<8 | int(full[pos+1])
			if target >= pos {
				return nil, &dnserr.WireFormatError{Operation: "parse name", Offset: pos, Message: "compression pointer does not point strictly backward"}
			}
			if !jumped {
				finalPos = pos + 2
				jumped = true
			}
			pos = target
			hops++
			if hops > protocol.MaxCompressionHops {
				return nil, &dnserr.WireFormatError{Operation: "parse name", Offset: pos, Message: "too many compression hops (likely cycle)"}
			}
			continue
		}

		if length == 0 {
			if !jumped {
				finalPos = pos + 1
			}
			break
		}

		if length > protocol.MaxLabelLength {
			return nil, &dnserr.WireFormatError{Operation: "parse name", Offset: pos, Message: "label exceeds 63 bytes"}
		}
		if pos+1+int(length) > len(full) {
			return nil, &dnserr.WireFormatError{Operation: "parse name", Offset: pos, Message: "truncated label"}
		}
		label := make([]byte, length)
		copy(label, full[pos+1:pos+1+int(length)])
		labels = append(labels, label)
		totalLen += int(length) + 1
		if totalLen+1 > protocol.MaxNameLength {
			return nil, &dnserr.WireFormatError{Operation: "parse name", Offset: pos, Message: "name exceeds 255 bytes"}
		}
		pos += 1 + int(length)
	}

	if err := buf.Seek(finalPos); err != nil {
		return nil, err
	}
	return &Name{labels: labels}, nil
}
