// Package protocol defines the wire-level constants shared by the codec and the
// mDNS engine: ports, multicast groups, header bits, and the type/class number
// space of RFC 1035 and its extensions.
package protocol

import "time"

// mDNS transport constants per RFC 6762 §3-§5.
const (
	Port              = 5353
	MulticastAddrIPv4 = "224.0.0.251"
	MulticastAddrIPv6 = "ff02::fb"
)

// DNS CLASS values per RFC 1035 §3.2.4. The high bit of CLASS/QCLASS is
// overloaded by mDNS (RFC 6762 §10.2, §5.4); ClassMask isolates the base class.
const (
	ClassIN  uint16 = 1
	ClassCS  uint16 = 2
	ClassCH  uint16 = 3
	ClassHS  uint16 = 4
	ClassANY uint16 = 255

	// CacheFlushBit is the high bit of CLASS on an mDNS resource record,
	// asserting the responder is authoritative for the name (RFC 6762 §10.2).
	CacheFlushBit uint16 = 1 << 15
	// UnicastResponseBit is the high bit of QCLASS on an mDNS question,
	// requesting a unicast reply (RFC 6762 §5.4).
	UnicastResponseBit uint16 = 1 << 15
	// ClassMask strips the high bit to recover the base CLASS/QCLASS value.
	ClassMask uint16 = 0x7FFF
)

// DNS TYPE values. Types without a concrete RDATA codec still parse as
// Unknown and round-trip losslessly.
const (
	TypeA          uint16 = 1
	TypeNS         uint16 = 2
	TypeMD         uint16 = 3
	TypeMF         uint16 = 4
	TypeCNAME      uint16 = 5
	TypeSOA        uint16 = 6
	TypeMB         uint16 = 7
	TypeMG         uint16 = 8
	TypeMR         uint16 = 9
	TypeNULL       uint16 = 10
	TypeWKS        uint16 = 11
	TypePTR        uint16 = 12
	TypeHINFO      uint16 = 13
	TypeMINFO      uint16 = 14
	TypeMX         uint16 = 15
	TypeTXT        uint16 = 16
	TypeRP         uint16 = 17
	TypeAFSDB      uint16 = 18
	TypeISDN       uint16 = 20
	TypeRT         uint16 = 21
	TypeNSAP       uint16 = 22
	TypeNSAPPTR    uint16 = 23
	TypeSIG        uint16 = 24
	TypeKEY        uint16 = 25
	TypePX         uint16 = 26
	TypeAAAA       uint16 = 28
	TypeLOC        uint16 = 29
	TypeNXT        uint16 = 30
	TypeSRV        uint16 = 33
	TypeNAPTR      uint16 = 35
	TypeKX         uint16 = 36
	TypeCERT       uint16 = 37
	TypeDNAME      uint16 = 39
	TypeOPT        uint16 = 41
	TypeAPL        uint16 = 42
	TypeDS         uint16 = 43
	TypeSSHFP      uint16 = 44
	TypeIPSECKEY   uint16 = 45
	TypeRRSIG      uint16 = 46
	TypeNSEC       uint16 = 47
	TypeDNSKEY     uint16 = 48
	TypeDHCID      uint16 = 49
	TypeNSEC3      uint16 = 50
	TypeNSEC3PARAM uint16 = 51
	TypeTLSA       uint16 = 52
	TypeSMIMEA     uint16 = 53
	TypeCDS        uint16 = 59
	TypeCDNSKEY    uint16 = 60
	TypeOPENPGPKEY uint16 = 61
	TypeCSYNC      uint16 = 62
	TypeZONEMD     uint16 = 63
	TypeSVCB       uint16 = 64
	TypeHTTPS      uint16 = 65
	TypeEUI48      uint16 = 108
	TypeEUI64      uint16 = 109
	TypeCAA        uint16 = 257

	TypeANY uint16 = 255
	TypeAXFR uint16 = 252
	TypeIXFR uint16 = 251
)

// Header flag bits, RFC 1035 §4.1.1.
const (
	FlagQR uint16 = 1 << 15
	FlagAA uint16 = 1 << 10
	FlagTC uint16 = 1 << 9
	FlagRD uint16 = 1 << 8
	FlagRA uint16 = 1 << 7
	FlagZ  uint16 = 1 << 6
	FlagAD uint16 = 1 << 5
	FlagCD uint16 = 1 << 4

	OpcodeShift = 11
	OpcodeMask  = 0x0F
	RCodeMask   = 0x0F
)

// Opcodes, RFC 1035 §4.1.1 plus RFC 2136 UPDATE.
const (
	OpcodeQuery  uint16 = 0
	OpcodeIQuery uint16 = 1
	OpcodeStatus uint16 = 2
	OpcodeNotify uint16 = 4
	OpcodeUpdate uint16 = 5
)

// RCODEs, RFC 1035 §4.1.1 plus EDNS0 extended codes (RFC 6891 §9).
const (
	RCodeNoError  uint16 = 0
	RCodeFormErr  uint16 = 1
	RCodeServFail uint16 = 2
	RCodeNXDomain uint16 = 3
	RCodeNotImp   uint16 = 4
	RCodeRefused  uint16 = 5
	RCodeBADVERS  uint16 = 16
)

// Name-length limits, RFC 1035 §3.1 / §4.1.4.
const (
	MaxLabelLength          = 63
	MaxNameLength           = 255
	MaxCompressionHops       = 128
	CompressionPointerMask   byte   = 0xC0
	CompressionPointerMask16 uint16 = 0xC000
	CompressionPointerMax14  uint16 = 0x3FFF
)

// mDNS TTL recommendations, RFC 6762 §10: host (address) records use the
// long default since they rarely change; service records (PTR/SRV/TXT) use
// the short default so stale instances drop out of browse results quickly.
const (
	TTLHostDefault    uint32 = 4500
	TTLServiceDefault uint32 = 120
	TTLGoodbye        uint32 = 0
)

// mDNS timing constants, RFC 6762 §8 (probing) and §5.2 (refresh).
const (
	ProbeInterval      = 250 * time.Millisecond
	ProbeCount         = 3
	DefaultQueryPeriod = 60 * time.Second
	RefreshJitter      = 0.02 // ±2%, chosen within RFC 6762's "not more than 2%" bound
)

// RefreshFractions is the RFC 6762 §5.2 refresh schedule: re-query when a
// cached record reaches these fractions of its original TTL.
var RefreshFractions = [...]float64{0.80, 0.85, 0.90, 0.95}
