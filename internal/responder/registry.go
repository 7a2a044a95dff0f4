// Package responder implements the mDNS answer side: a store of
// locally-advertised records and the receive loop that turns incoming
// questions into responses (RFC 6762 §6).
package responder

import (
	"time"

	"github.com/quietwire/flare/internal/protocol"
	"github.com/quietwire/flare/internal/store"
	"github.com/quietwire/flare/internal/wire"
)

// Registry is the set of resource records this responder is authoritative
// for, backed by the same reversed-label trie the discovery engine uses for
// its peer cache (one type, two independent instances).
type Registry struct {
	trie *store.Trie
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{trie: store.New()} }

// Add inserts rr with the given TTL, refreshing its expiration if an
// identical record (name, type, class, rdata) is already present.
func (r *Registry) Add(rr wire.ResourceRecord, ttl time.Duration) {
	r.trie.Add(rr, ttl, time.Now())
}

// Remove deletes every record at name, or only those of *rtype if non-nil.
func (r *Registry) Remove(name *wire.Name, rtype *uint16) {
	r.trie.Remove(name, rtype)
}

// Answer returns the records satisfying q, plus any "known additional"
// records implied by them (an SRV answer pulls in the target's A/AAAA and
// the instance's TXT, so a querier rarely needs a second round trip).
func (r *Registry) Answer(q wire.Question, now time.Time) (answers, additionals []wire.ResourceRecord) {
	answers = r.trie.Find(q, now)
	if len(answers) == 0 {
		return nil, nil
	}

	seen := map[string]bool{}
	for _, a := range answers {
		seen[answerKey(a)] = true
	}

	addExtra := func(name *wire.Name) {
		for _, extra := range r.trie.FindExact(name, now) {
			if !seen[answerKey(extra)] {
				seen[answerKey(extra)] = true
				additionals = append(additionals, extra)
			}
		}
	}

	for _, a := range answers {
		switch rd := a.RData.(type) {
		case wire.SRVData:
			addExtra(rd.Target)
			addExtra(a.Name)
		case wire.NameRData:
			if rd.Type() == protocol.TypePTR {
				addExtra(rd.Target)
			}
		}
	}

	return answers, additionals
}

func answerKey(rr wire.ResourceRecord) string {
	return rr.Name.Key() + "|" + itoa(rr.RRType) + "|" + itoa(rr.Class())
}

func itoa(v uint16) string {
	if v == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// All returns every non-expired record (backs responder.Responder.Records).
func (r *Registry) All(now time.Time) []wire.ResourceRecord { return r.trie.All(now) }

// Subtree returns the non-expired records of type rtype at or below prefix
// (the shape of a DNS-SD service-enumeration lookup, RFC 6763 §9). Answer
// does not use it.
func (r *Registry) Subtree(prefix *wire.Name, rtype uint16, now time.Time) []wire.ResourceRecord {
	return r.trie.FindSubtree(prefix, rtype, now)
}
