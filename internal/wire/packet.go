package wire

import (
	dnserr "github.com/quietwire/flare/internal/errors"
	"github.com/quietwire/flare/internal/protocol"
)

// Header is the fixed 12-byte DNS message header, RFC 1035 §4.1.1. For
// Opcode=UPDATE (RFC 2136), the section counts are reinterpreted by callers
// as ZONE/PREREQUISITE/UPDATE/ADDITIONAL; Header itself carries only the raw
// counts and flags, unaware of that overload.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

func (h Header) QR() bool       { return h.Flags&protocol.FlagQR != 0 }
func (h Header) AA() bool       { return h.Flags&protocol.FlagAA != 0 }
func (h Header) TC() bool       { return h.Flags&protocol.FlagTC != 0 }
func (h Header) RD() bool       { return h.Flags&protocol.FlagRD != 0 }
func (h Header) RA() bool       { return h.Flags&protocol.FlagRA != 0 }
func (h Header) Opcode() uint16 { return (h.Flags >> protocol.OpcodeShift) & protocol.OpcodeMask }
func (h Header) RCode() uint16  { return h.Flags & protocol.RCodeMask }

// OPTRecord is the EDNS0 pseudo-RR (RFC 6891), carried as an optional sibling
// of Additionals rather than an additionals entry visible to callers.
type OPTRecord struct {
	Name          *Name // almost always the root name
	UDPPayload    uint16
	ExtendedRCode uint8
	Version       uint8
	DO            bool
	Options       []OPTOption
}

func (o *OPTRecord) toResourceRecord() ResourceRecord {
	name := o.Name
	if name == nil {
		name = RootName
	}
	ttl := uint32(o.ExtendedRCode)<<24 | uint32(o.Version)<<16
	if o.DO {
		ttl |= 1 << 15
	}
	return ResourceRecord{
		Name:    name,
		RRType:  protocol.TypeOPT,
		RRClass: o.UDPPayload,
		TTL:     ttl,
		RData:   OPTData{Options: o.Options},
	}
}

func optFromResourceRecord(rr ResourceRecord) *OPTRecord {
	opt := &OPTRecord{
		Name:          rr.Name,
		UDPPayload:    rr.RRClass,
		ExtendedRCode: uint8(rr.TTL >> 24),
		Version:       uint8(rr.TTL >> 16),
		DO:            rr.TTL&(1<<15) != 0,
	}
	if od, ok := rr.RData.(OPTData); ok {
		opt.Options = od.Options
	}
	return opt
}

// Packet is a full DNS/mDNS message: header, four sections, and an optional
// EDNS0 OPT pseudo-record extracted from Additionals (RFC 6891).
type Packet struct {
	Header      Header
	Questions   []Question
	Answers     []ResourceRecord
	Authorities []ResourceRecord
	Additionals []ResourceRecord
	OPT         *OPTRecord
}

// RCode combines the header's low 4 bits with the OPT pseudo-record's
// extended RCODE: effective RCODE = (opt.extended_rcode<<4) | header.rcode
// (RFC 6891 §6.1.3).
func (p *Packet) RCode() uint16 {
	base := p.Header.RCode()
	if p.OPT == nil {
		return base
	}
	return uint16(p.OPT.ExtendedRCode)<<4 | base
}

// ParsePacket decodes a complete DNS/mDNS message per RFC 1035 §4.1, lifting
// any OPT pseudo-record out of Additionals.
func ParsePacket(data []byte) (*Packet, error) {
	buf := NewBuffer(data)
	if buf.Len() < 12 {
		return nil, &dnserr.WireFormatError{Operation: "parse packet", Offset: 0, Message: "message shorter than header"}
	}

	id, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	flags, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	qd, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	an, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	ns, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	ar, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}

	p := &Packet{Header: Header{ID: id, Flags: flags, QDCount: qd, ANCount: an, NSCount: ns, ARCount: ar}}

	p.Questions = make([]Question, 0, qd)
	for i := uint16(0); i < qd; i++ {
		q, err := parseQuestion(buf)
		if err != nil {
			return nil, err
		}
		p.Questions = append(p.Questions, q)
	}

	p.Answers, err = parseRRSection(buf, an)
	if err != nil {
		return nil, err
	}
	p.Authorities, err = parseRRSection(buf, ns)
	if err != nil {
		return nil, err
	}
	rawAdditionals, err := parseRRSection(buf, ar)
	if err != nil {
		return nil, err
	}

	p.Additionals = make([]ResourceRecord, 0, len(rawAdditionals))
	for _, rr := range rawAdditionals {
		if rr.RRType == protocol.TypeOPT && p.OPT == nil {
			p.OPT = optFromResourceRecord(rr)
			continue
		}
		p.Additionals = append(p.Additionals, rr)
	}

	return p, nil
}

func parseRRSection(buf *Buffer, count uint16) ([]ResourceRecord, error) {
	out := make([]ResourceRecord, 0, count)
	for i := uint16(0); i < count; i++ {
		rr, err := parseResourceRecord(buf)
		if err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, nil
}

// Serialize writes the packet uncompressed.
func (p *Packet) Serialize() ([]byte, error) { return p.serialize(nil) }

// SerializeCompressed writes the packet using RFC 1035 §4.1.4 name
// compression throughout all four sections plus OPT.
func (p *Packet) SerializeCompressed() ([]byte, error) { return p.serialize(CompressionMap{}) }

func (p *Packet) serialize(comp CompressionMap) ([]byte, error) {
	buf := NewWriteBuffer(512)

	arCount := len(p.Additionals)
	if p.OPT != nil {
		arCount++
	}
	if len(p.Questions) > 0xFFFF || len(p.Answers) > 0xFFFF || len(p.Authorities) > 0xFFFF || arCount > 0xFFFF {
		return nil, &dnserr.WireFormatError{Operation: "serialize packet", Offset: 0, Message: "section count exceeds 65535"}
	}

	if err := buf.WriteUint16(p.Header.ID); err != nil {
		return nil, err
	}
	if err := buf.WriteUint16(p.Header.Flags); err != nil {
		return nil, err
	}
	if err := buf.WriteUint16(uint16(len(p.Questions))); err != nil {
		return nil, err
	}
	if err := buf.WriteUint16(uint16(len(p.Answers))); err != nil {
		return nil, err
	}
	if err := buf.WriteUint16(uint16(len(p.Authorities))); err != nil {
		return nil, err
	}
	if err := buf.WriteUint16(uint16(arCount)); err != nil {
		return nil, err
	}

	for _, q := range p.Questions {
		if err := q.write(buf, comp); err != nil {
			return nil, err
		}
	}
	for _, rr := range p.Answers {
		if err := rr.write(buf, comp); err != nil {
			return nil, err
		}
	}
	for _, rr := range p.Authorities {
		if err := rr.write(buf, comp); err != nil {
			return nil, err
		}
	}
	for _, rr := range p.Additionals {
		if err := rr.write(buf, comp); err != nil {
			return nil, err
		}
	}
	if p.OPT != nil {
		if err := p.OPT.toResourceRecord().write(buf, comp); err != nil {
			return nil, err
		}
	}

	if buf.Len() > 65535 {
		return nil, &dnserr.WireFormatError{Operation: "serialize packet", Offset: buf.Len(), Message: "packet exceeds 65535 bytes"}
	}
	return buf.Bytes(), nil
}
