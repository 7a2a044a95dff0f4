package discovery

import (
	"math/rand/v2"
	"net"
	"strings"
	"time"

	"github.com/quietwire/flare/internal/protocol"
	"github.com/quietwire/flare/internal/store"
	"github.com/quietwire/flare/internal/wire"
)

// refreshFractions is the RFC 6762 §5.2 recommended re-query schedule,
// expressed as fractions of a record's TTL.
var refreshFractions = []float64{0.80, 0.85, 0.90, 0.95}

// PeerCache holds records learned from browsing, backed by the same trie
// type the responder uses for its own local registry (a second, independent
// instance).
type PeerCache struct {
	trie *store.Trie
}

// NewPeerCache returns an empty PeerCache.
func NewPeerCache() *PeerCache { return &PeerCache{trie: store.New()} }

// Ingest stores every answer/additional record from a received packet.
// TTL=0 records (goodbyes) are stored too — Add immediately expires them on
// the next Expire pass, which is how a peer's withdrawal propagates.
func (c *PeerCache) Ingest(records []wire.ResourceRecord, now time.Time) {
	for _, rr := range records {
		c.trie.Add(rr, time.Duration(rr.TTL)*time.Second, now)
	}
}

// Expire evicts records past their TTL.
func (c *PeerCache) Expire(now time.Time) { c.trie.Expire(now) }

// NextExpiration returns the earliest record expiration in the cache.
func (c *PeerCache) NextExpiration() (time.Time, bool) { return c.trie.NextExpiration() }

// KnownServices returns every fully-resolved, non-expired instance under
// serviceType: each PTR target that also has an SRV record, with its TXT
// attributes and A/AAAA addresses if present (spec's "fully-resolved: has
// address + port if SRV present").
func (c *PeerCache) KnownServices(serviceType *wire.Name, now time.Time) []InstanceInfo {
	ptrs := c.trie.Find(wire.Question{Name: serviceType, QType: protocol.TypePTR, QClass: protocol.ClassIN}, now)

	out := make([]InstanceInfo, 0, len(ptrs))
	for _, ptr := range ptrs {
		nr, ok := ptr.RData.(wire.NameRData)
		if !ok {
			continue
		}
		instance := nr.Target
		srvRecs := c.trie.Find(wire.Question{Name: instance, QType: protocol.TypeSRV, QClass: protocol.ClassIN}, now)
		if len(srvRecs) == 0 {
			continue
		}
		srv, ok := srvRecs[0].RData.(wire.SRVData)
		if !ok {
			continue
		}

		info := InstanceInfo{
			ServiceType: serviceType.String(),
			Hostname:    srv.Target.String(),
			Port:        srv.Port,
			Attrs:       map[string]string{},
		}
		if name, ok := instance.Without(serviceType); ok {
			info.InstanceName = name.String()
		} else {
			info.InstanceName = instance.String()
		}

		for _, txt := range c.trie.Find(wire.Question{Name: instance, QType: protocol.TypeTXT, QClass: protocol.ClassIN}, now) {
			if td, ok := txt.RData.(wire.TXTData); ok {
				decodeTXTInto(td, info.Attrs)
			}
		}
		for _, addr := range c.trie.FindExact(srv.Target, now) {
			switch rd := addr.RData.(type) {
			case wire.AData:
				info.Addrs = append(info.Addrs, net.IP(rd.Addr[:]))
			case wire.AAAAData:
				info.Addrs = append(info.Addrs, net.IP(rd.Addr[:]))
			}
		}

		out = append(out, info)
	}
	return out
}

func decodeTXTInto(td wire.TXTData, attrs map[string]string) {
	for _, cs := range td.Strings {
		s := string(cs)
		if s == "" {
			continue
		}
		if key, val, ok := strings.Cut(s, "="); ok {
			attrs[key] = val
		} else {
			attrs[s] = ""
		}
	}
}

// pendingRefresh is a record due for re-query at one of the RFC 6762 §5.2
// schedule points.
type pendingRefresh struct {
	name  *wire.Name
	rtype uint16
	at    time.Time
}

// refreshSchedule computes the re-query times for rr, applying a uniform
// ±2% jitter to each point so many peers sharing a TTL don't all re-query in
// lockstep.
func refreshSchedule(rr wire.ResourceRecord, storedAt time.Time) []pendingRefresh {
	ttl := time.Duration(rr.TTL) * time.Second
	out := make([]pendingRefresh, 0, len(refreshFractions))
	for _, frac := range refreshFractions {
		jitter := 1 + (rand.Float64()*2-1)*protocol.RefreshJitter
		offset := time.Duration(float64(ttl) * frac * jitter)
		out = append(out, pendingRefresh{name: rr.Name, rtype: rr.RRType, at: storedAt.Add(offset)})
	}
	return out
}

// queryInterval bounds the periodic PTR browse: the configured default,
// unless the lowest TTL currently known for this service type is low enough
// that half of it is shorter, per spec's "bounded by lowest TTL/2".
func queryInterval(configured time.Duration, lowestTTL time.Duration) time.Duration {
	if lowestTTL > 0 && lowestTTL/2 < configured {
		return lowestTTL / 2
	}
	return configured
}

// DefaultQueryInterval is the browse period used when no WithQueryInterval
// option is supplied.
const DefaultQueryInterval = protocol.DefaultQueryPeriod
