package wire

import (
	"net"

	dnserr "github.com/quietwire/flare/internal/errors"
	"github.com/quietwire/flare/internal/protocol"
)

// RData is the per-type resource data payload of a ResourceRecord. Every
// concrete type round-trips losslessly through Write/ParseRData; a TYPE with
// no concrete codec decodes to Unknown, which re-emits its bytes verbatim.
type RData interface {
	// Type returns the RR TYPE this value encodes, for ResourceRecord.Write's
	// bookkeeping.
	Type() uint16
	// Write serializes RDATA only (not the RR header/RDLENGTH). comp is nil
	// when the caller is writing uncompressed; codecs with embedded names
	// that are compression-eligible should fall back to uncompressed writes
	// when comp is nil (WriteCompressed already does this).
	Write(buf *Buffer, comp CompressionMap) error
}

// rdataParser parses exactly the RDATA bytes of an RR given the shared
// message Buffer (so compressed names inside RDATA can resolve pointers
// against the whole message) and the RR's declared RDLENGTH.
type rdataParser func(buf *Buffer, rdlength int) (RData, error)

var rdataParsers map[uint16]rdataParser

func init() {
	rdataParsers = map[uint16]rdataParser{
		protocol.TypeA:          parseA,
		protocol.TypeAAAA:       parseAAAA,
		protocol.TypeNS:         parseNameRData(protocol.TypeNS, true),
		protocol.TypeCNAME:      parseNameRData(protocol.TypeCNAME, true),
		protocol.TypePTR:        parseNameRData(protocol.TypePTR, true),
		protocol.TypeDNAME:      parseNameRData(protocol.TypeDNAME, false),
		protocol.TypeSOA:        parseSOA,
		protocol.TypeMX:         parseMX,
		protocol.TypeKX:         parseKX,
		protocol.TypeTXT:        parseTXT,
		protocol.TypeHINFO:      parseHINFO,
		protocol.TypeISDN:       parseISDN, // same two-CharacterString shape, RFC 1183 §3.2
		protocol.TypeRP:         parseRP,
		protocol.TypeAFSDB:      parseAFSDB,
		protocol.TypeRT:         parseRT,
		protocol.TypeSRV:        parseSRV,
		protocol.TypeNAPTR:      parseNAPTR,
		protocol.TypeCERT:       parseCERT,
		protocol.TypeDS:         parseDSLike(protocol.TypeDS),
		protocol.TypeCDS:        parseDSLike(protocol.TypeCDS),
		protocol.TypeSSHFP:      parseSSHFP,
		protocol.TypeIPSECKEY:   parseIPSECKEY,
		protocol.TypeRRSIG:      parseRRSIG,
		protocol.TypeSIG:        parseRRSIG,
		protocol.TypeNSEC:       parseNSEC,
		protocol.TypeDNSKEY:     parseDNSKEYLike(protocol.TypeDNSKEY),
		protocol.TypeCDNSKEY:    parseDNSKEYLike(protocol.TypeCDNSKEY),
		protocol.TypeKEY:        parseDNSKEYLike(protocol.TypeKEY),
		protocol.TypeDHCID:      parseOpaque(protocol.TypeDHCID),
		protocol.TypeNSEC3:      parseNSEC3,
		protocol.TypeNSEC3PARAM: parseNSEC3PARAM,
		protocol.TypeTLSA:       parseTLSALike(protocol.TypeTLSA),
		protocol.TypeSMIMEA:     parseTLSALike(protocol.TypeSMIMEA),
		protocol.TypeOPENPGPKEY: parseOpaque(protocol.TypeOPENPGPKEY),
		protocol.TypeZONEMD:     parseZONEMD,
		protocol.TypeCSYNC:      parseCSYNC,
		protocol.TypeSVCB:       parseSVCBLike(protocol.TypeSVCB),
		protocol.TypeHTTPS:      parseSVCBLike(protocol.TypeHTTPS),
		protocol.TypeEUI48:      parseEUI(protocol.TypeEUI48, 6),
		protocol.TypeEUI64:      parseEUI(protocol.TypeEUI64, 8),
		protocol.TypeCAA:        parseCAA,
		protocol.TypeWKS:        parseWKS,
		protocol.TypeNSAP:       parseOpaque(protocol.TypeNSAP),
		protocol.TypeNSAPPTR:    parseNameRData(protocol.TypeNSAPPTR, false),
		protocol.TypeLOC:        parseOpaque(protocol.TypeLOC), // binary format per RFC 1876, preserved as opaque
		protocol.TypeOPT:        parseOPT,
	}
}

// ParseRData dispatches to the codec registered for rtype, bounding the read
// to exactly rdlength bytes. Unknown types (and deliberately opaque ones)
// decode to Unknown, preserving the raw bytes for a lossless round trip.
func ParseRData(buf *Buffer, rtype uint16, rdlength int) (RData, error) {
	start := buf.Position()
	if start+rdlength > buf.Len() {
		return nil, &dnserr.WireFormatError{Operation: "parse rdata", Offset: start, Message: "rdlength exceeds message"}
	}

	parser, ok := rdataParsers[rtype]
	if !ok {
		return parseOpaque(rtype)(buf, rdlength)
	}

	rdata, err := parser(buf, rdlength)
	if err != nil {
		return nil, err
	}
	if buf.Position() != start+rdlength {
		return nil, &dnserr.WireFormatError{Operation: "parse rdata", Offset: buf.Position(), Message: "rdata codec consumed a different number of bytes than RDLENGTH declared"}
	}
	return rdata, nil
}

// ---- A / AAAA ----

// AData is an IPv4 address RR, RFC 1035 §3.4.1.
type AData struct{ Addr [4]byte }

func (AData) Type() uint16 { return protocol.TypeA }
func (a AData) Write(buf *Buffer, _ CompressionMap) error { return buf.WriteBytes(a.Addr[:]) }
func (a AData) IP() net.IP                                { return net.IPv4(a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3]) }

// NewA builds the RDATA for an A record. Panics if ip is not a 4-byte IPv4
// address; callers are expected to have already validated the address
// family.
func NewA(ip net.IP) AData {
	v4 := ip.To4()
	if v4 == nil {
		panic("wire: NewA requires an IPv4 address")
	}
	var a AData
	copy(a.Addr[:], v4)
	return a
}

func parseA(buf *Buffer, rdlength int) (RData, error) {
	if rdlength != 4 {
		return nil, &dnserr.WireFormatError{Operation: "parse A", Offset: buf.Position(), Message: "A record must be 4 bytes"}
	}
	b, err := buf.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	var a AData
	copy(a.Addr[:], b)
	return a, nil
}

// AAAAData is an IPv6 address RR, RFC 3596.
type AAAAData struct{ Addr [16]byte }

func (AAAAData) Type() uint16                                  { return protocol.TypeAAAA }
func (a AAAAData) Write(buf *Buffer, _ CompressionMap) error { return buf.WriteBytes(a.Addr[:]) }
func (a AAAAData) IP() net.IP                                  { return net.IP(a.Addr[:]) }

// NewAAAA builds the RDATA for an AAAA record. Panics if ip is not a
// 16-byte IPv6 address.
func NewAAAA(ip net.IP) AAAAData {
	v6 := ip.To16()
	if v6 == nil || ip.To4() != nil {
		panic("wire: NewAAAA requires an IPv6 address")
	}
	var a AAAAData
	copy(a.Addr[:], v6)
	return a
}

func parseAAAA(buf *Buffer, rdlength int) (RData, error) {
	if rdlength != 16 {
		return nil, &dnserr.WireFormatError{Operation: "parse AAAA", Offset: buf.Position(), Message: "AAAA record must be 16 bytes"}
	}
	b, err := buf.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	var a AAAAData
	copy(a.Addr[:], b)
	return a, nil
}

// ---- bare-Name RDATA: NS, CNAME, PTR, DNAME, NSAP-PTR ----

// NameRData is a TYPE whose RDATA is a single (possibly compressed) Name:
// NS/CNAME/PTR (RFC 1035), DNAME (RFC 6672), NSAP-PTR (RFC 1706).
type NameRData struct {
	Target       *Name
	rtype        uint16
	compressible bool
}

func (n NameRData) Type() uint16 { return n.rtype }
func (n NameRData) Write(buf *Buffer, comp CompressionMap) error {
	if n.compressible {
		return n.Target.WriteCompressed(buf, comp)
	}
	return n.Target.WriteUncompressed(buf)
}

// NewPTR builds the RDATA for a PTR record pointing at target.
func NewPTR(target *Name) NameRData {
	return NameRData{Target: target, rtype: protocol.TypePTR, compressible: true}
}

// NewCNAME builds the RDATA for a CNAME record pointing at target.
func NewCNAME(target *Name) NameRData {
	return NameRData{Target: target, rtype: protocol.TypeCNAME, compressible: true}
}

// NewNS builds the RDATA for an NS record pointing at target.
func NewNS(target *Name) NameRData {
	return NameRData{Target: target, rtype: protocol.TypeNS, compressible: true}
}

func parseNameRData(rtype uint16, compressible bool) rdataParser {
	return func(buf *Buffer, _ int) (RData, error) {
		n, err := ParseName(buf)
		if err != nil {
			return nil, err
		}
		return NameRData{Target: n, rtype: rtype, compressible: compressible}, nil
	}
}

// ---- SOA ----

// SOAData is the start-of-authority RR, RFC 1035 §3.3.13.
type SOAData struct {
	MName, RName                              *Name
	Serial, Refresh, Retry, Expire, Minimum uint32
}

func (SOAData) Type() uint16 { return protocol.TypeSOA }
func (s SOAData) Write(buf *Buffer, comp CompressionMap) error {
	if err := s.MName.WriteCompressed(buf, comp); err != nil {
		return err
	}
	if err := s.RName.WriteCompressed(buf, comp); err != nil {
		return err
	}
	for _, v := range []uint32{s.Serial, s.Refresh, s.Retry, s.Expire, s.Minimum} {
		if err := buf.WriteUint32(v); err != nil {
			return err
		}
	}
	return nil
}

func parseSOA(buf *Buffer, _ int) (RData, error) {
	mname, err := ParseName(buf)
	if err != nil {
		return nil, err
	}
	rname, err := ParseName(buf)
	if err != nil {
		return nil, err
	}
	vals := make([]uint32, 5)
	for i := range vals {
		vals[i], err = buf.ReadUint32()
		if err != nil {
			return nil, err
		}
	}
	return SOAData{MName: mname, RName: rname, Serial: vals[0], Refresh: vals[1], Retry: vals[2], Expire: vals[3], Minimum: vals[4]}, nil
}

// ---- MX / KX ----

// MXData is a mail-exchange RR, RFC 1035 §3.3.9 (also used for KX, RFC 2230,
// via the kx flag below sharing the same shape).
type MXData struct {
	Preference uint16
	Exchange   *Name
	kx         bool
}

func (m MXData) Type() uint16 {
	if m.kx {
		return protocol.TypeKX
	}
	return protocol.TypeMX
}
func (m MXData) Write(buf *Buffer, comp CompressionMap) error {
	if err := buf.WriteUint16(m.Preference); err != nil {
		return err
	}
	return m.Exchange.WriteCompressed(buf, comp)
}

func parseMX(buf *Buffer, _ int) (RData, error) {
	pref, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	name, err := ParseName(buf)
	if err != nil {
		return nil, err
	}
	return MXData{Preference: pref, Exchange: name}, nil
}

func parseKX(buf *Buffer, _ int) (RData, error) {
	r, err := parseMX(buf, 0)
	if err != nil {
		return nil, err
	}
	m := r.(MXData)
	m.kx = true
	return m, nil
}

// ---- TXT ----

// TXTData is a sequence of CharacterStrings, RFC 1035 §3.3.14. Zero RDLENGTH
// is valid and decodes to an empty (non-nil) slice.
type TXTData struct{ Strings []CharacterString }

func (TXTData) Type() uint16 { return protocol.TypeTXT }
func (t TXTData) Write(buf *Buffer, _ CompressionMap) error {
	for _, s := range t.Strings {
		if err := s.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// NewTXT builds a TXTData from a single logical string, chunked into
// ≤255-byte CharacterStrings.
func NewTXT(s string) TXTData { return TXTData{Strings: ChunkString(s)} }

// Joined concatenates all chunks back into one string (the inverse of
// NewTXT, modulo chunk boundaries which carry no semantic meaning).
func (t TXTData) Joined() string {
	var out []byte
	for _, s := range t.Strings {
		out = append(out, s...)
	}
	return string(out)
}

func parseTXT(buf *Buffer, rdlength int) (RData, error) {
	window := NewBuffer(buf.Bytes()[:buf.Position()+rdlength])
	if err := window.Seek(buf.Position()); err != nil {
		return nil, err
	}
	strs, err := ReadCharacterStringsToEnd(window)
	if err != nil {
		return nil, err
	}
	if err := buf.Seek(window.Position()); err != nil {
		return nil, err
	}
	return TXTData{Strings: strs}, nil
}

// ---- HINFO / ISDN (RFC 1183 §3.2, two CharacterStrings) ----

// HINFOData is a two-CharacterString RR: HINFO (CPU/OS, RFC 1035 §3.3.2) or
// ISDN (address/sub-address, RFC 1183 §3.2) sharing the identical wire shape.
type HINFOData struct {
	First, Second CharacterString
	rtype         uint16
}

func (h HINFOData) Type() uint16 {
	if h.rtype != 0 {
		return h.rtype
	}
	return protocol.TypeHINFO
}
func (h HINFOData) Write(buf *Buffer, _ CompressionMap) error {
	if err := h.First.Write(buf); err != nil {
		return err
	}
	return h.Second.Write(buf)
}

func parseHINFO(buf *Buffer, _ int) (RData, error) {
	a, err := ReadCharacterString(buf)
	if err != nil {
		return nil, err
	}
	b, err := ReadCharacterString(buf)
	if err != nil {
		return nil, err
	}
	return HINFOData{First: a, Second: b}, nil
}

func parseISDN(buf *Buffer, _ int) (RData, error) {
	r, err := parseHINFO(buf, 0)
	if err != nil {
		return nil, err
	}
	h := r.(HINFOData)
	h.rtype = protocol.TypeISDN
	return h, nil
}

// ---- RP (RFC 1183 §2.2) ----

// RPData is a responsible-person RR: mailbox name + TXT-lookup name.
type RPData struct{ Mbox, TXTDname *Name }

func (RPData) Type() uint16 { return protocol.TypeRP }
func (r RPData) Write(buf *Buffer, _ CompressionMap) error {
	if err := r.Mbox.WriteUncompressed(buf); err != nil {
		return err
	}
	return r.TXTDname.WriteUncompressed(buf)
}

func parseRP(buf *Buffer, _ int) (RData, error) {
	mbox, err := ParseName(buf)
	if err != nil {
		return nil, err
	}
	txt, err := ParseName(buf)
	if err != nil {
		return nil, err
	}
	return RPData{Mbox: mbox, TXTDname: txt}, nil
}

// ---- AFSDB (RFC 1183 §1) / RT (RFC 1183 §3.3) ----

// AFSDBData is an AFS-cell-database RR: subtype + hostname.
type AFSDBData struct {
	Subtype  uint16
	Hostname *Name
}

func (AFSDBData) Type() uint16 { return protocol.TypeAFSDB }
func (a AFSDBData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint16(a.Subtype); err != nil {
		return err
	}
	return a.Hostname.WriteUncompressed(buf)
}

func parseAFSDB(buf *Buffer, _ int) (RData, error) {
	sub, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	host, err := ParseName(buf)
	if err != nil {
		return nil, err
	}
	return AFSDBData{Subtype: sub, Hostname: host}, nil
}

// RTData is a route-through RR (RFC 1183 §3.3), shaped like MX: preference +
// intermediate-host name.
type RTData struct {
	Preference uint16
	Host       *Name
}

func (RTData) Type() uint16 { return protocol.TypeRT }
func (r RTData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint16(r.Preference); err != nil {
		return err
	}
	return r.Host.WriteUncompressed(buf)
}

func parseRT(buf *Buffer, _ int) (RData, error) {
	pref, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	host, err := ParseName(buf)
	if err != nil {
		return nil, err
	}
	return RTData{Preference: pref, Host: host}, nil
}

// ---- SRV (RFC 2782) ----

// SRVData is a service-location RR. Target compression on write follows the
// package-level policy: compressed when the enclosing packet
// serialize call is in compressed mode.
type SRVData struct {
	Priority, Weight, Port uint16
	Target                 *Name
}

// NewSRV builds the RDATA for an SRV record (RFC 2782) with priority and
// weight 0, the conventional mDNS/DNS-SD defaults.
func NewSRV(port uint16, target *Name) SRVData {
	return SRVData{Port: port, Target: target}
}

func (SRVData) Type() uint16 { return protocol.TypeSRV }
func (s SRVData) Write(buf *Buffer, comp CompressionMap) error {
	for _, v := range []uint16{s.Priority, s.Weight, s.Port} {
		if err := buf.WriteUint16(v); err != nil {
			return err
		}
	}
	return s.Target.WriteCompressed(buf, comp)
}

func parseSRV(buf *Buffer, _ int) (RData, error) {
	pri, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	w, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	port, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	target, err := ParseName(buf)
	if err != nil {
		return nil, err
	}
	return SRVData{Priority: pri, Weight: w, Port: port, Target: target}, nil
}

// ---- NAPTR (RFC 3403) ----

// NAPTRData is a naming-authority-pointer RR.
type NAPTRData struct {
	Order, Preference    uint16
	Flags, Services, Regexp CharacterString
	Replacement          *Name
}

func (NAPTRData) Type() uint16 { return protocol.TypeNAPTR }
func (n NAPTRData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint16(n.Order); err != nil {
		return err
	}
	if err := buf.WriteUint16(n.Preference); err != nil {
		return err
	}
	for _, s := range []CharacterString{n.Flags, n.Services, n.Regexp} {
		if err := s.Write(buf); err != nil {
			return err
		}
	}
	return n.Replacement.WriteUncompressed(buf)
}

func parseNAPTR(buf *Buffer, _ int) (RData, error) {
	order, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	pref, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	flags, err := ReadCharacterString(buf)
	if err != nil {
		return nil, err
	}
	services, err := ReadCharacterString(buf)
	if err != nil {
		return nil, err
	}
	regexp, err := ReadCharacterString(buf)
	if err != nil {
		return nil, err
	}
	repl, err := ParseName(buf)
	if err != nil {
		return nil, err
	}
	return NAPTRData{Order: order, Preference: pref, Flags: flags, Services: services, Regexp: regexp, Replacement: repl}, nil
}

// ---- CAA (RFC 6844) ----

// CAAData is a certification-authority-authorization RR: a flags byte, a
// length-prefixed tag, and a raw value running to end-of-RDATA (no length
// octet on the value).
type CAAData struct {
	Flags uint8
	Tag   CharacterString
	Value []byte
}

func (CAAData) Type() uint16 { return protocol.TypeCAA }
func (c CAAData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint8(c.Flags); err != nil {
		return err
	}
	if err := c.Tag.Write(buf); err != nil {
		return err
	}
	return buf.WriteBytes(c.Value)
}

func parseCAA(buf *Buffer, rdlength int) (RData, error) {
	start := buf.Position()
	flags, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	tag, err := ReadCharacterString(buf)
	if err != nil {
		return nil, err
	}
	consumed := buf.Position() - start
	remaining := rdlength - consumed
	if remaining < 0 {
		return nil, &dnserr.WireFormatError{Operation: "parse CAA", Offset: buf.Position(), Message: "tag overruns rdata"}
	}
	value, err := buf.ReadBytes(remaining)
	if err != nil {
		return nil, err
	}
	v := make([]byte, len(value))
	copy(v, value)
	return CAAData{Flags: flags, Tag: tag, Value: v}, nil
}

// ---- OPT (EDNS0, RFC 6891) ----

// OPTOption is one {code, data} entry of an OPT pseudo-RR's option list.
type OPTOption struct {
	Code uint16
	Data []byte
}

// OPTData is the EDNS0 pseudo-RR payload (RFC 6891 §6.1): a list of
// options. The surrounding CLASS/TTL fields (UDP size, extended RCODE,
// version, DO flag) live on Packet.OPT, not here, since they overload the RR
// header rather than RDATA (RFC 6891 §6.1.2).
type OPTData struct{ Options []OPTOption }

func (OPTData) Type() uint16 { return protocol.TypeOPT }
func (o OPTData) Write(buf *Buffer, _ CompressionMap) error {
	for _, opt := range o.Options {
		if err := buf.WriteUint16(opt.Code); err != nil {
			return err
		}
		if err := buf.WriteUint16(uint16(len(opt.Data))); err != nil {
			return err
		}
		if err := buf.WriteBytes(opt.Data); err != nil {
			return err
		}
	}
	return nil
}

func parseOPT(buf *Buffer, rdlength int) (RData, error) {
	end := buf.Position() + rdlength
	var opts []OPTOption
	for buf.Position() < end {
		code, err := buf.ReadUint16()
		if err != nil {
			return nil, err
		}
		length, err := buf.ReadUint16()
		if err != nil {
			return nil, err
		}
		if buf.Position()+int(length) > end {
			return nil, &dnserr.WireFormatError{Operation: "parse OPT", Offset: buf.Position(), Message: "option data overruns rdata"}
		}
		data, err := buf.ReadBytes(int(length))
		if err != nil {
			return nil, err
		}
		d := make([]byte, len(data))
		copy(d, data)
		opts = append(opts, OPTOption{Code: code, Data: d})
	}
	return OPTData{Options: opts}, nil
}

// ---- SVCB / HTTPS (RFC 9460) ----

// SVCBParam is one {key, value} pair of an SVCB/HTTPS RR, ordered ascending
// by key on the wire (RFC 9460 §2.2).
type SVCBParam struct {
	Key   uint16
	Value []byte
}

// SVCBData is the shared shape of SVCB and HTTPS RRs: priority, target name,
// and an ordered parameter list.
type SVCBData struct {
	Priority uint16
	Target   *Name
	Params   []SVCBParam
	rtype    uint16
}

func (s SVCBData) Type() uint16 { return s.rtype }
func (s SVCBData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint16(s.Priority); err != nil {
		return err
	}
	// SVCB/HTTPS target names are never compressed, RFC 9460 §2.2.
	if err := s.Target.WriteUncompressed(buf); err != nil {
		return err
	}
	for _, p := range s.Params {
		if err := buf.WriteUint16(p.Key); err != nil {
			return err
		}
		if err := buf.WriteUint16(uint16(len(p.Value))); err != nil {
			return err
		}
		if err := buf.WriteBytes(p.Value); err != nil {
			return err
		}
	}
	return nil
}

func parseSVCBLike(rtype uint16) rdataParser {
	return func(buf *Buffer, rdlength int) (RData, error) {
		end := buf.Position() + rdlength
		pri, err := buf.ReadUint16()
		if err != nil {
			return nil, err
		}
		target, err := ParseName(buf)
		if err != nil {
			return nil, err
		}
		var params []SVCBParam
		lastKey := -1
		for buf.Position() < end {
			key, err := buf.ReadUint16()
			if err != nil {
				return nil, err
			}
			if int(key) <= lastKey {
				return nil, &dnserr.WireFormatError{Operation: "parse SVCB", Offset: buf.Position(), Message: "parameter keys must be strictly ascending"}
			}
			lastKey = int(key)
			length, err := buf.ReadUint16()
			if err != nil {
				return nil, err
			}
			if buf.Position()+int(length) > end {
				return nil, &dnserr.WireFormatError{Operation: "parse SVCB", Offset: buf.Position(), Message: "parameter value overruns rdata"}
			}
			val, err := buf.ReadBytes(int(length))
			if err != nil {
				return nil, err
			}
			v := make([]byte, len(val))
			copy(v, val)
			params = append(params, SVCBParam{Key: key, Value: v})
		}
		return SVCBData{Priority: pri, Target: target, Params: params, rtype: rtype}, nil
	}
}

// SVCB well-known parameter keys, RFC 9460 §14.3.2.
const (
	SVCBKeyMandatory     uint16 = 0
	SVCBKeyALPN          uint16 = 1
	SVCBKeyNoDefaultALPN uint16 = 2
	SVCBKeyPort          uint16 = 3
	SVCBKeyIPv4Hint      uint16 = 4
	SVCBKeyECH           uint16 = 5
	SVCBKeyIPv6Hint      uint16 = 6
)

// ---- DNSSEC-family opaque-ish records ----

// DSData covers DS and CDS (RFC 4034 §5 / RFC 7344): delegation signer
// digest records.
type DSData struct {
	KeyTag     uint16
	Algorithm  uint8
	DigestType uint8
	Digest     []byte
	rtype      uint16
}

func (d DSData) Type() uint16 { return d.rtype }
func (d DSData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint16(d.KeyTag); err != nil {
		return err
	}
	if err := buf.WriteUint8(d.Algorithm); err != nil {
		return err
	}
	if err := buf.WriteUint8(d.DigestType); err != nil {
		return err
	}
	return buf.WriteBytes(d.Digest)
}

func parseDSLike(rtype uint16) rdataParser {
	return func(buf *Buffer, rdlength int) (RData, error) {
		start := buf.Position()
		tag, err := buf.ReadUint16()
		if err != nil {
			return nil, err
		}
		alg, err := buf.ReadUint8()
		if err != nil {
			return nil, err
		}
		dtype, err := buf.ReadUint8()
		if err != nil {
			return nil, err
		}
		digest, err := buf.ReadBytes(rdlength - (buf.Position() - start))
		if err != nil {
			return nil, err
		}
		d := make([]byte, len(digest))
		copy(d, digest)
		return DSData{KeyTag: tag, Algorithm: alg, DigestType: dtype, Digest: d, rtype: rtype}, nil
	}
}

// SSHFPData is an SSH fingerprint RR, RFC 4255.
type SSHFPData struct {
	Algorithm, FPType uint8
	Fingerprint       []byte
}

func (SSHFPData) Type() uint16 { return protocol.TypeSSHFP }
func (s SSHFPData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint8(s.Algorithm); err != nil {
		return err
	}
	if err := buf.WriteUint8(s.FPType); err != nil {
		return err
	}
	return buf.WriteBytes(s.Fingerprint)
}

func parseSSHFP(buf *Buffer, rdlength int) (RData, error) {
	alg, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	ftype, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	fp, err := buf.ReadBytes(rdlength - 2)
	if err != nil {
		return nil, err
	}
	v := make([]byte, len(fp))
	copy(v, fp)
	return SSHFPData{Algorithm: alg, FPType: ftype, Fingerprint: v}, nil
}

// IPSECKEYData is an IPsec keying-material RR, RFC 4025. The gateway field's
// shape depends on GatewayType (0=none,1=IPv4,2=IPv6,3=name) but is kept as
// raw bytes here; only a full validating resolver needs to interpret it.
type IPSECKEYData struct {
	Precedence, GatewayType, Algorithm uint8
	Gateway, PublicKey                 []byte
}

func (IPSECKEYData) Type() uint16 { return protocol.TypeIPSECKEY }
func (i IPSECKEYData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint8(i.Precedence); err != nil {
		return err
	}
	if err := buf.WriteUint8(i.GatewayType); err != nil {
		return err
	}
	if err := buf.WriteUint8(i.Algorithm); err != nil {
		return err
	}
	if err := buf.WriteBytes(i.Gateway); err != nil {
		return err
	}
	return buf.WriteBytes(i.PublicKey)
}

func gatewayLen(gatewayType uint8) int {
	switch gatewayType {
	case 1:
		return 4
	case 2:
		return 16
	default:
		return 0
	}
}

func parseIPSECKEY(buf *Buffer, rdlength int) (RData, error) {
	start := buf.Position()
	prec, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	gwType, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	alg, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	gwLen := gatewayLen(gwType)
	var gateway []byte
	if gwType == 3 {
		// Gateway is a domain name; consume to end of rdata minus pubkey is
		// ambiguous without parsing the name, so parse it directly and keep
		// the name's wire bytes.
		gwStart := buf.Position()
		if _, err := ParseName(buf); err != nil {
			return nil, err
		}
		gateway = append([]byte(nil), buf.Bytes()[gwStart:buf.Position()]...)
	} else if gwLen > 0 {
		gateway, err = buf.ReadBytes(gwLen)
		if err != nil {
			return nil, err
		}
		g := make([]byte, len(gateway))
		copy(g, gateway)
		gateway = g
	}
	remaining := rdlength - (buf.Position() - start)
	if remaining < 0 {
		return nil, &dnserr.WireFormatError{Operation: "parse IPSECKEY", Offset: buf.Position(), Message: "gateway overruns rdata"}
	}
	pubkey, err := buf.ReadBytes(remaining)
	if err != nil {
		return nil, err
	}
	pk := make([]byte, len(pubkey))
	copy(pk, pubkey)
	return IPSECKEYData{Precedence: prec, GatewayType: gwType, Algorithm: alg, Gateway: gateway, PublicKey: pk}, nil
}

// RRSIGData is a DNSSEC signature RR, RFC 4034 §3 (also used for the legacy
// SIG RR, RFC 2535, which shares this wire shape). Parsing only: this
// library does not validate signatures.
type RRSIGData struct {
	TypeCovered                        uint16
	Algorithm, Labels                  uint8
	OriginalTTL                        uint32
	Expiration, Inception               uint32
	KeyTag                             uint16
	SignerName                         *Name
	Signature                          []byte
}

func (RRSIGData) Type() uint16 { return protocol.TypeRRSIG }
func (r RRSIGData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint16(r.TypeCovered); err != nil {
		return err
	}
	if err := buf.WriteUint8(r.Algorithm); err != nil {
		return err
	}
	if err := buf.WriteUint8(r.Labels); err != nil {
		return err
	}
	if err := buf.WriteUint32(r.OriginalTTL); err != nil {
		return err
	}
	if err := buf.WriteUint32(r.Expiration); err != nil {
		return err
	}
	if err := buf.WriteUint32(r.Inception); err != nil {
		return err
	}
	if err := buf.WriteUint16(r.KeyTag); err != nil {
		return err
	}
	// RRSIG owner/signer names are never compressed, RFC 4034 §3.1.
	if err := r.SignerName.WriteUncompressed(buf); err != nil {
		return err
	}
	return buf.WriteBytes(r.Signature)
}

func parseRRSIG(buf *Buffer, rdlength int) (RData, error) {
	start := buf.Position()
	typeCovered, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	alg, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	labels, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	origTTL, err := buf.ReadUint32()
	if err != nil {
		return nil, err
	}
	expiration, err := buf.ReadUint32()
	if err != nil {
		return nil, err
	}
	inception, err := buf.ReadUint32()
	if err != nil {
		return nil, err
	}
	keyTag, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	signer, err := ParseName(buf)
	if err != nil {
		return nil, err
	}
	remaining := rdlength - (buf.Position() - start)
	if remaining < 0 {
		return nil, &dnserr.WireFormatError{Operation: "parse RRSIG", Offset: buf.Position(), Message: "signer name overruns rdata"}
	}
	sig, err := buf.ReadBytes(remaining)
	if err != nil {
		return nil, err
	}
	s := make([]byte, len(sig))
	copy(s, sig)
	return RRSIGData{TypeCovered: typeCovered, Algorithm: alg, Labels: labels, OriginalTTL: origTTL, Expiration: expiration, Inception: inception, KeyTag: keyTag, SignerName: signer, Signature: s}, nil
}

// NSECData is a next-secure RR, RFC 4034 §4: a next-owner name plus a
// type-bitmap (windowed per RFC 4034 §4.1.2).
type NSECData struct {
	NextDomain *Name
	TypeBitmap []byte // raw windows, preserved verbatim
}

func (NSECData) Type() uint16 { return protocol.TypeNSEC }
func (n NSECData) Write(buf *Buffer, _ CompressionMap) error {
	if err := n.NextDomain.WriteUncompressed(buf); err != nil {
		return err
	}
	return buf.WriteBytes(n.TypeBitmap)
}

func parseNSEC(buf *Buffer, rdlength int) (RData, error) {
	start := buf.Position()
	next, err := ParseName(buf)
	if err != nil {
		return nil, err
	}
	remaining := rdlength - (buf.Position() - start)
	if remaining < 0 {
		return nil, &dnserr.WireFormatError{Operation: "parse NSEC", Offset: buf.Position(), Message: "next-domain overruns rdata"}
	}
	bitmap, err := buf.ReadBytes(remaining)
	if err != nil {
		return nil, err
	}
	m := make([]byte, len(bitmap))
	copy(m, bitmap)
	return NSECData{NextDomain: next, TypeBitmap: m}, nil
}

// DNSKEYData covers DNSKEY, CDNSKEY (RFC 4034 §2 / RFC 7344) and the legacy
// KEY RR (RFC 2535), which share this wire shape.
type DNSKEYData struct {
	Flags              uint16
	Protocol, Algorithm uint8
	PublicKey          []byte
	rtype              uint16
}

func (d DNSKEYData) Type() uint16 { return d.rtype }
func (d DNSKEYData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint16(d.Flags); err != nil {
		return err
	}
	if err := buf.WriteUint8(d.Protocol); err != nil {
		return err
	}
	if err := buf.WriteUint8(d.Algorithm); err != nil {
		return err
	}
	return buf.WriteBytes(d.PublicKey)
}

func parseDNSKEYLike(rtype uint16) rdataParser {
	return func(buf *Buffer, rdlength int) (RData, error) {
		flags, err := buf.ReadUint16()
		if err != nil {
			return nil, err
		}
		proto, err := buf.ReadUint8()
		if err != nil {
			return nil, err
		}
		alg, err := buf.ReadUint8()
		if err != nil {
			return nil, err
		}
		key, err := buf.ReadBytes(rdlength - 4)
		if err != nil {
			return nil, err
		}
		k := make([]byte, len(key))
		copy(k, key)
		return DNSKEYData{Flags: flags, Protocol: proto, Algorithm: alg, PublicKey: k, rtype: rtype}, nil
	}
}

// NSEC3Data is RFC 5155 §3.
type NSEC3Data struct {
	Algorithm                uint8
	Flags                    uint8
	Iterations               uint16
	Salt                     []byte
	NextHashedOwner          []byte
	TypeBitmap               []byte
}

func (NSEC3Data) Type() uint16 { return protocol.TypeNSEC3 }
func (n NSEC3Data) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint8(n.Algorithm); err != nil {
		return err
	}
	if err := buf.WriteUint8(n.Flags); err != nil {
		return err
	}
	if err := buf.WriteUint16(n.Iterations); err != nil {
		return err
	}
	if err := buf.WriteUint8(uint8(len(n.Salt))); err != nil {
		return err
	}
	if err := buf.WriteBytes(n.Salt); err != nil {
		return err
	}
	if err := buf.WriteUint8(uint8(len(n.NextHashedOwner))); err != nil {
		return err
	}
	if err := buf.WriteBytes(n.NextHashedOwner); err != nil {
		return err
	}
	return buf.WriteBytes(n.TypeBitmap)
}

func parseNSEC3(buf *Buffer, rdlength int) (RData, error) {
	start := buf.Position()
	alg, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	flags, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	iterations, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	saltLen, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	salt, err := buf.ReadBytes(int(saltLen))
	if err != nil {
		return nil, err
	}
	hashLen, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	hash, err := buf.ReadBytes(int(hashLen))
	if err != nil {
		return nil, err
	}
	remaining := rdlength - (buf.Position() - start)
	if remaining < 0 {
		return nil, &dnserr.WireFormatError{Operation: "parse NSEC3", Offset: buf.Position(), Message: "fields overrun rdata"}
	}
	bitmap, err := buf.ReadBytes(remaining)
	if err != nil {
		return nil, err
	}
	s, h, m := make([]byte, len(salt)), make([]byte, len(hash)), make([]byte, len(bitmap))
	copy(s, salt)
	copy(h, hash)
	copy(m, bitmap)
	return NSEC3Data{Algorithm: alg, Flags: flags, Iterations: iterations, Salt: s, NextHashedOwner: h, TypeBitmap: m}, nil
}

// NSEC3PARAMData is RFC 5155 §4.
type NSEC3PARAMData struct {
	Algorithm  uint8
	Flags      uint8
	Iterations uint16
	Salt       []byte
}

func (NSEC3PARAMData) Type() uint16 { return protocol.TypeNSEC3PARAM }
func (n NSEC3PARAMData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint8(n.Algorithm); err != nil {
		return err
	}
	if err := buf.WriteUint8(n.Flags); err != nil {
		return err
	}
	if err := buf.WriteUint16(n.Iterations); err != nil {
		return err
	}
	if err := buf.WriteUint8(uint8(len(n.Salt))); err != nil {
		return err
	}
	return buf.WriteBytes(n.Salt)
}

func parseNSEC3PARAM(buf *Buffer, _ int) (RData, error) {
	alg, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	flags, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	iterations, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	saltLen, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	salt, err := buf.ReadBytes(int(saltLen))
	if err != nil {
		return nil, err
	}
	s := make([]byte, len(salt))
	copy(s, salt)
	return NSEC3PARAMData{Algorithm: alg, Flags: flags, Iterations: iterations, Salt: s}, nil
}

// TLSAData covers TLSA (RFC 6698) and SMIMEA (RFC 8162), identical shape.
type TLSAData struct {
	Usage, Selector, MatchingType uint8
	Data                          []byte
	rtype                         uint16
}

func (t TLSAData) Type() uint16 { return t.rtype }
func (t TLSAData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint8(t.Usage); err != nil {
		return err
	}
	if err := buf.WriteUint8(t.Selector); err != nil {
		return err
	}
	if err := buf.WriteUint8(t.MatchingType); err != nil {
		return err
	}
	return buf.WriteBytes(t.Data)
}

func parseTLSALike(rtype uint16) rdataParser {
	return func(buf *Buffer, rdlength int) (RData, error) {
		usage, err := buf.ReadUint8()
		if err != nil {
			return nil, err
		}
		selector, err := buf.ReadUint8()
		if err != nil {
			return nil, err
		}
		matching, err := buf.ReadUint8()
		if err != nil {
			return nil, err
		}
		data, err := buf.ReadBytes(rdlength - 3)
		if err != nil {
			return nil, err
		}
		d := make([]byte, len(data))
		copy(d, data)
		return TLSAData{Usage: usage, Selector: selector, MatchingType: matching, Data: d, rtype: rtype}, nil
	}
}

// ZONEMDData is RFC 8976: a zone-digest RR.
type ZONEMDData struct {
	Serial              uint32
	Scheme, HashAlgorithm uint8
	Digest              []byte
}

func (ZONEMDData) Type() uint16 { return protocol.TypeZONEMD }
func (z ZONEMDData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint32(z.Serial); err != nil {
		return err
	}
	if err := buf.WriteUint8(z.Scheme); err != nil {
		return err
	}
	if err := buf.WriteUint8(z.HashAlgorithm); err != nil {
		return err
	}
	return buf.WriteBytes(z.Digest)
}

func parseZONEMD(buf *Buffer, rdlength int) (RData, error) {
	serial, err := buf.ReadUint32()
	if err != nil {
		return nil, err
	}
	scheme, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	hashAlg, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	digest, err := buf.ReadBytes(rdlength - 6)
	if err != nil {
		return nil, err
	}
	d := make([]byte, len(digest))
	copy(d, digest)
	return ZONEMDData{Serial: serial, Scheme: scheme, HashAlgorithm: hashAlg, Digest: d}, nil
}

// CSYNCData is RFC 7477: a child-synchronization RR.
type CSYNCData struct {
	SOASerial  uint32
	Flags      uint16
	TypeBitmap []byte
}

func (CSYNCData) Type() uint16 { return protocol.TypeCSYNC }
func (c CSYNCData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint32(c.SOASerial); err != nil {
		return err
	}
	if err := buf.WriteUint16(c.Flags); err != nil {
		return err
	}
	return buf.WriteBytes(c.TypeBitmap)
}

func parseCSYNC(buf *Buffer, rdlength int) (RData, error) {
	serial, err := buf.ReadUint32()
	if err != nil {
		return nil, err
	}
	flags, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	bitmap, err := buf.ReadBytes(rdlength - 6)
	if err != nil {
		return nil, err
	}
	m := make([]byte, len(bitmap))
	copy(m, bitmap)
	return CSYNCData{SOASerial: serial, Flags: flags, TypeBitmap: m}, nil
}

// CERTData is RFC 4398 §2: a certificate/CRL RR.
type CERTData struct {
	CertType, Algorithm uint16
	KeyTag              uint16
	Certificate         []byte
}

func (CERTData) Type() uint16 { return protocol.TypeCERT }
func (c CERTData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteUint16(c.CertType); err != nil {
		return err
	}
	if err := buf.WriteUint16(c.KeyTag); err != nil {
		return err
	}
	if err := buf.WriteUint16(c.Algorithm); err != nil {
		return err
	}
	return buf.WriteBytes(c.Certificate)
}

func parseCERT(buf *Buffer, rdlength int) (RData, error) {
	certType, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	keyTag, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	alg, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	cert, err := buf.ReadBytes(rdlength - 6)
	if err != nil {
		return nil, err
	}
	c := make([]byte, len(cert))
	copy(c, cert)
	return CERTData{CertType: certType, Algorithm: alg, KeyTag: keyTag, Certificate: c}, nil
}

// EUIData covers EUI48 (RFC 7043 §3) and EUI64 (RFC 7043 §4): a fixed-length
// hardware address.
type EUIData struct {
	Address []byte
	rtype   uint16
}

func (e EUIData) Type() uint16 { return e.rtype }
func (e EUIData) Write(buf *Buffer, _ CompressionMap) error { return buf.WriteBytes(e.Address) }

func parseEUI(rtype uint16, size int) rdataParser {
	return func(buf *Buffer, rdlength int) (RData, error) {
		if rdlength != size {
			return nil, &dnserr.WireFormatError{Operation: "parse EUI", Offset: buf.Position(), Message: "unexpected EUI length"}
		}
		b, err := buf.ReadBytes(size)
		if err != nil {
			return nil, err
		}
		a := make([]byte, size)
		copy(a, b)
		return EUIData{Address: a, rtype: rtype}, nil
	}
}

// WKSData is RFC 1035 §3.4.2: a well-known-services bitmap, preserved as
// opaque raw bytes beyond the fixed address+protocol prefix (no modern
// consumer needs the bitmap decoded).
type WKSData struct {
	Address  [4]byte
	Protocol uint8
	Bitmap   []byte
}

func (WKSData) Type() uint16 { return protocol.TypeWKS }
func (w WKSData) Write(buf *Buffer, _ CompressionMap) error {
	if err := buf.WriteBytes(w.Address[:]); err != nil {
		return err
	}
	if err := buf.WriteUint8(w.Protocol); err != nil {
		return err
	}
	return buf.WriteBytes(w.Bitmap)
}

func parseWKS(buf *Buffer, rdlength int) (RData, error) {
	addr, err := buf.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	proto, err := buf.ReadUint8()
	if err != nil {
		return nil, err
	}
	bitmap, err := buf.ReadBytes(rdlength - 5)
	if err != nil {
		return nil, err
	}
	var a [4]byte
	copy(a[:], addr)
	b := make([]byte, len(bitmap))
	copy(b, bitmap)
	return WKSData{Address: a, Protocol: proto, Bitmap: b}, nil
}

// ---- Unknown / opaque fallback ----

// Unknown preserves the verbatim bytes of a TYPE this package does not parse
// structurally, so Packet round-trips losslessly regardless of which RR
// types appear.
type Unknown struct {
	RRType uint16
	Raw    []byte
}

func (u Unknown) Type() uint16                                { return u.RRType }
func (u Unknown) Write(buf *Buffer, _ CompressionMap) error { return buf.WriteBytes(u.Raw) }

func parseOpaque(rtype uint16) rdataParser {
	return func(buf *Buffer, rdlength int) (RData, error) {
		raw, err := buf.ReadBytes(rdlength)
		if err != nil {
			return nil, err
		}
		r := make([]byte, len(raw))
		copy(r, raw)
		return Unknown{RRType: rtype, Raw: r}, nil
	}
}
