package wire

import (
	dnserr "github.com/quietwire/flare/internal/errors"
	"github.com/quietwire/flare/internal/protocol"
)

// Question is one entry of the Question section, RFC 1035 §4.1.2. The mDNS
// unicast-response bit (RFC 6762 §5.4) is the high bit of QClass; it is
// preserved through Class()/UnicastResponse() rather than folded away.
type Question struct {
	Name   *Name
	QType  uint16
	QClass uint16 // includes the unicast-response high bit, if set
}

// Class returns QClass with the unicast-response bit masked off.
func (q Question) Class() uint16 { return q.QClass & protocol.ClassMask }

// UnicastResponse reports whether the querier requested a unicast reply.
func (q Question) UnicastResponse() bool { return q.QClass&protocol.UnicastResponseBit != 0 }

// MatchesType reports whether rtype satisfies this question's QType,
// honoring the ANY wildcard (RFC 1035 §3.2.3, used for mDNS probing per RFC
// 6762 §8.1).
func (q Question) MatchesType(rtype uint16) bool {
	return q.QType == protocol.TypeANY || q.QType == rtype
}

func (q Question) write(buf *Buffer, comp CompressionMap) error {
	if err := q.Name.WriteCompressed(buf, comp); err != nil {
		return err
	}
	if err := buf.WriteUint16(q.QType); err != nil {
		return err
	}
	return buf.WriteUint16(q.QClass)
}

func parseQuestion(buf *Buffer) (Question, error) {
	name, err := ParseName(buf)
	if err != nil {
		return Question{}, err
	}
	qtype, err := buf.ReadUint16()
	if err != nil {
		return Question{}, err
	}
	qclass, err := buf.ReadUint16()
	if err != nil {
		return Question{}, err
	}
	return Question{Name: name, QType: qtype, QClass: qclass}, nil
}

// ResourceRecord is one entry of the Answer/Authority/Additional sections,
// RFC 1035 §4.1.3. TTL is in seconds; RDLength is recomputed on write, never
// trusted from a caller-set value.
type ResourceRecord struct {
	Name       *Name
	RRType     uint16
	RRClass    uint16 // includes the mDNS cache-flush high bit, if set
	TTL        uint32
	RData      RData
}

// Class returns RRClass with the cache-flush bit masked off.
func (r ResourceRecord) Class() uint16 { return r.RRClass & protocol.ClassMask }

// CacheFlush reports whether the mDNS cache-flush bit (RFC 6762 §10.2) is set.
func (r ResourceRecord) CacheFlush() bool { return r.RRClass&protocol.CacheFlushBit != 0 }

func (r ResourceRecord) write(buf *Buffer, comp CompressionMap) error {
	if err := r.Name.WriteCompressed(buf, comp); err != nil {
		return err
	}
	if err := buf.WriteUint16(r.RRType); err != nil {
		return err
	}
	if err := buf.WriteUint16(r.RRClass); err != nil {
		return err
	}
	if err := buf.WriteUint32(r.TTL); err != nil {
		return err
	}
	lenOffset := buf.Position()
	if err := buf.WriteUint16(0); err != nil { // RDLENGTH placeholder
		return err
	}
	rdataStart := buf.Position()
	if r.RData != nil {
		if err := r.RData.Write(buf, comp); err != nil {
			return err
		}
	}
	rdlen := buf.Position() - rdataStart
	if rdlen > 0xFFFF {
		return &dnserr.WireFormatError{Operation: "write resource record", Offset: rdataStart, Message: "rdata exceeds 65535 bytes"}
	}
	return buf.PatchUint16(lenOffset, uint16(rdlen))
}

func parseResourceRecord(buf *Buffer) (ResourceRecord, error) {
	name, err := ParseName(buf)
	if err != nil {
		return ResourceRecord{}, err
	}
	rtype, err := buf.ReadUint16()
	if err != nil {
		return ResourceRecord{}, err
	}
	rclass, err := buf.ReadUint16()
	if err != nil {
		return ResourceRecord{}, err
	}
	ttl, err := buf.ReadUint32()
	if err != nil {
		return ResourceRecord{}, err
	}
	rdlength, err := buf.ReadUint16()
	if err != nil {
		return ResourceRecord{}, err
	}
	rdata, err := ParseRData(buf, rtype, int(rdlength))
	if err != nil {
		return ResourceRecord{}, err
	}
	return ResourceRecord{Name: name, RRType: rtype, RRClass: rclass, TTL: ttl, RData: rdata}, nil
}
