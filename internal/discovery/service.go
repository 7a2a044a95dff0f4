// Package discovery implements the advertising and browsing half of service
// discovery: composing a local service instance's records, probing for name
// conflicts before announcing them, periodically querying for peers, and
// refreshing/expiring what those queries return.
package discovery

import (
	"net"
	"time"

	"github.com/quietwire/flare/internal/protocol"
	"github.com/quietwire/flare/internal/wire"
)

// ServiceInfo describes the local instance this process advertises:
// "My Printer" under "_ipp._tcp.local" on host "myhost.local", reachable at
// Addrs:Port with the given TXT attributes.
type ServiceInfo struct {
	InstanceName string
	ServiceType  string // e.g. "_ipp._tcp.local"
	Hostname     string // e.g. "myhost.local"
	Port         uint16
	Addrs        []net.IP // A and/or AAAA targets for Hostname
	Attrs        map[string]string
	TTL          time.Duration // 0 selects the RFC 6762 §10 default for each record kind
}

// instanceFQN returns the fully-qualified instance name
// ("My Printer._ipp._tcp.local").
func (s ServiceInfo) instanceFQN() (*wire.Name, error) {
	inst, err := wire.NewName(s.InstanceName)
	if err != nil {
		return nil, err
	}
	svc, err := wire.NewName(s.ServiceType)
	if err != nil {
		return nil, err
	}
	return inst.Append(svc), nil
}

// InstanceInfo is a resolved peer: a service instance learned from the
// network, assembled from whatever PTR/SRV/TXT/A/AAAA records the peer cache
// currently holds for it.
type InstanceInfo struct {
	InstanceName string
	ServiceType  string
	Hostname     string
	Port         uint16
	Addrs        []net.IP
	Attrs        map[string]string
}

// BuildRecords constructs the full record set for a service instance: PTR
// (service-type -> instance), SRV (instance -> host:port), TXT (attributes),
// and an A or AAAA record per address in Addrs (RFC 6763 §6).
func BuildRecords(s ServiceInfo) ([]wire.ResourceRecord, error) {
	svcType, err := wire.NewName(s.ServiceType)
	if err != nil {
		return nil, err
	}
	host, err := wire.NewName(s.Hostname)
	if err != nil {
		return nil, err
	}
	instance, err := s.instanceFQN()
	if err != nil {
		return nil, err
	}

	hostTTL := s.TTL
	if hostTTL == 0 {
		hostTTL = time.Duration(protocol.TTLHostDefault) * time.Second
	}
	svcTTL := s.TTL
	if svcTTL == 0 {
		svcTTL = time.Duration(protocol.TTLServiceDefault) * time.Second
	}

	records := make([]wire.ResourceRecord, 0, 3+len(s.Addrs))

	records = append(records, wire.ResourceRecord{
		Name:    svcType,
		RRType:  protocol.TypePTR,
		RRClass: protocol.ClassIN, // PTR is a shared record, RFC 6762 §10.2: no cache-flush bit
		TTL:     uint32(svcTTL / time.Second),
		RData:   wire.NewPTR(instance),
	})

	records = append(records, wire.ResourceRecord{
		Name:    instance,
		RRType:  protocol.TypeSRV,
		RRClass: protocol.ClassIN | protocol.CacheFlushBit,
		TTL:     uint32(svcTTL / time.Second),
		RData:   wire.NewSRV(s.Port, host),
	})

	records = append(records, wire.ResourceRecord{
		Name:    instance,
		RRType:  protocol.TypeTXT,
		RRClass: protocol.ClassIN | protocol.CacheFlushBit,
		TTL:     uint32(svcTTL / time.Second),
		RData:   encodeTXT(s.Attrs),
	})

	for _, ip := range s.Addrs {
		if ip4 := ip.To4(); ip4 != nil {
			records = append(records, wire.ResourceRecord{
				Name:    host,
				RRType:  protocol.TypeA,
				RRClass: protocol.ClassIN | protocol.CacheFlushBit,
				TTL:     uint32(hostTTL / time.Second),
				RData:   wire.NewA(ip4),
			})
			continue
		}
		records = append(records, wire.ResourceRecord{
			Name:    host,
			RRType:  protocol.TypeAAAA,
			RRClass: protocol.ClassIN | protocol.CacheFlushBit,
			TTL:     uint32(hostTTL / time.Second),
			RData:   wire.NewAAAA(ip),
		})
	}

	return records, nil
}

// encodeTXT joins attrs into "key=value" CharacterStrings, or a single
// zero-length string if attrs is empty (RFC 6763 §6.1: an empty TXT record
// MUST still contain one zero-length string, not be absent entirely).
func encodeTXT(attrs map[string]string) wire.TXTData {
	if len(attrs) == 0 {
		return wire.TXTData{Strings: []wire.CharacterString{{}}}
	}
	strs := make([]wire.CharacterString, 0, len(attrs))
	for k, v := range attrs {
		strs = append(strs, wire.CharacterString(k+"="+v))
	}
	return wire.TXTData{Strings: strs}
}

// goodbyeRecords returns rrs with TTL forced to zero, an unsolicited
// "this record is gone" announcement (RFC 6762 §10.1).
func goodbyeRecords(rrs []wire.ResourceRecord) []wire.ResourceRecord {
	out := make([]wire.ResourceRecord, len(rrs))
	for i, rr := range rrs {
		rr.TTL = 0
		out[i] = rr
	}
	return out
}
