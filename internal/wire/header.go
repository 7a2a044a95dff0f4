package wire

import (
	"encoding/binary"

	dnserr "github.com/quietwire/flare/internal/errors"
	"github.com/quietwire/flare/internal/protocol"
)

// HeaderView inspects and mutates the first 12 bytes of a DNS message
// in-place, without parsing names or RDATA. Used by the responder to cheaply
// filter out responses, UPDATE-opcode messages and truncated datagrams before
// committing to a full Parse. The responder does not use it to recognise
// datagrams it sent itself.
//
// RCode on a HeaderView reflects only the header's low 4 bits. A packet's
// true effective RCODE may be extended by an EDNS0 OPT record (see Packet's
// "EDNS0 header overloading" note) — HeaderView cannot see that without a
// full parse, and deliberately does not pretend otherwise.
type HeaderView struct {
	data []byte
}

// NewHeaderView wraps data for in-place header inspection. It fails if data
// is shorter than the 12-byte header.
func NewHeaderView(data []byte) (*HeaderView, error) {
	if len(data) < 12 {
		return nil, &dnserr.WireFormatError{Operation: "header view", Offset: 0, Message: "message shorter than header"}
	}
	return &HeaderView{data: data}, nil
}

func (h *HeaderView) ID() uint16       { return binary.BigEndian.Uint16(h.data[0:2]) }
func (h *HeaderView) SetID(id uint16)  { binary.BigEndian.PutUint16(h.data[0:2], id) }
func (h *HeaderView) Flags() uint16    { return binary.BigEndian.Uint16(h.data[2:4]) }
func (h *HeaderView) SetFlags(f uint16) { binary.BigEndian.PutUint16(h.data[2:4], f) }

// HasFlags reports whether every bit set in mask is also set in Flags.
func (h *HeaderView) HasFlags(mask uint16) bool { return h.Flags()&mask == mask }

// RCode returns only the header's low 4 bits (see the caveat on HeaderView).
func (h *HeaderView) RCode() uint16 { return h.Flags() & protocol.RCodeMask }

func (h *HeaderView) Opcode() uint16 {
	return (h.Flags() >> protocol.OpcodeShift) & protocol.OpcodeMask
}

func (h *HeaderView) QDCount() uint16 { return binary.BigEndian.Uint16(h.data[4:6]) }
func (h *HeaderView) ANCount() uint16 { return binary.BigEndian.Uint16(h.data[6:8]) }
func (h *HeaderView) NSCount() uint16 { return binary.BigEndian.Uint16(h.data[8:10]) }
func (h *HeaderView) ARCount() uint16 { return binary.BigEndian.Uint16(h.data[10:12]) }

// ImpliedMinLength returns the minimum byte length a packet with these
// section counts could possibly have: the 12-byte header plus one
// zero-length (root) name and fixed fields per declared section entry. It is
// a lower bound, useful for fast-rejecting a truncated datagram before a
// full Parse; it is not the actual serialized length (names/RDATA vary).
func (h *HeaderView) ImpliedMinLength() int {
	const minQuestion = 1 + 2 + 2   // root name + QTYPE + QCLASS
	const minAnswer = 1 + 2 + 2 + 4 + 2 // root name + TYPE + CLASS + TTL + RDLENGTH
	return 12 + int(h.QDCount())*minQuestion + int(h.ANCount()+h.NSCount()+h.ARCount())*minAnswer
}
