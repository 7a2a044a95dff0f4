// Package store implements the name-indexed resource-record database used by
// both the mDNS responder (locally-advertised records) and the discovery
// engine (the peer cache): a trie keyed by reversed label sequence, so that
// suffix queries (e.g. every record under "_tcp.local") are a single subtree
// walk.
package store

import (
	"reflect"
	"sync"
	"time"

	"github.com/quietwire/flare/internal/protocol"
	"github.com/quietwire/flare/internal/wire"
)

// Entry pairs a stored record with its absolute expiration instant.
type Entry struct {
	Record     wire.ResourceRecord
	Expiration time.Time
}

type node struct {
	children map[string]*node
	entries  []*Entry
}

func newNode() *node { return &node{children: make(map[string]*node)} }

// Trie is a reversed-label resource-record store. The zero value is not
// usable; construct with New. All operations are safe for concurrent use.
type Trie struct {
	mu   sync.RWMutex
	root *node
}

// New returns an empty Trie.
func New() *Trie { return &Trie{root: newNode()} }

func reversedKeys(n *wire.Name) []string {
	labels := n.Labels()
	keys := make([]string, len(labels))
	for i, l := range labels {
		keys[len(labels)-1-i] = lowerKey(l)
	}
	return keys
}

func lowerKey(l []byte) string {
	b := make([]byte, len(l))
	for i, c := range l {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}

func (t *Trie) walk(keys []string, create bool) *node {
	cur := t.root
	for _, k := range keys {
		next, ok := cur.children[k]
		if !ok {
			if !create {
				return nil
			}
			next = newNode()
			cur.children[k] = next
		}
		cur = next
	}
	return cur
}

func sameIdentity(a, b wire.ResourceRecord) bool {
	return a.RRType == b.RRType && a.Class() == b.Class() && reflect.DeepEqual(a.RData, b.RData)
}

// Add inserts rr, computing its expiration as now+ttl. If an identical record
// (same name, type, class, rdata) already exists, its expiration is
// refreshed instead of duplicating the entry.
func (t *Trie) Add(rr wire.ResourceRecord, ttl time.Duration, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.walk(reversedKeys(rr.Name), true)
	expires := now.Add(ttl)
	for _, e := range n.entries {
		if sameIdentity(e.Record, rr) {
			e.Record = rr
			e.Expiration = expires
			return
		}
	}
	n.entries = append(n.entries, &Entry{Record: rr, Expiration: expires})
}

// Remove deletes records at name. If rtype is non-nil, only records of that
// type are removed; otherwise every record at that exact name is removed.
func (t *Trie) Remove(name *wire.Name, rtype *uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.walk(reversedKeys(name), false)
	if n == nil {
		return
	}
	if rtype == nil {
		n.entries = nil
		return
	}
	kept := n.entries[:0]
	for _, e := range n.entries {
		if e.Record.RRType != *rtype {
			kept = append(kept, e)
		}
	}
	n.entries = kept
}

// Find returns every non-expired record at name matching q's QType/QClass
// (honoring the ANY wildcard).
func (t *Trie) Find(q wire.Question, now time.Time) []wire.ResourceRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.walk(reversedKeys(q.Name), false)
	if n == nil {
		return nil
	}
	qclass := q.Class()
	var out []wire.ResourceRecord
	for _, e := range n.entries {
		classOK := qclass == protocol.ClassANY || qclass == e.Record.Class()
		if e.Expiration.After(now) && q.MatchesType(e.Record.RRType) && classOK {
			out = append(out, e.Record)
		}
	}
	return out
}

// FindExact returns every non-expired record at name regardless of type,
// used by the responder to gather known-additional records (e.g. the A/AAAA/
// TXT records that accompany an SRV answer).
func (t *Trie) FindExact(name *wire.Name, now time.Time) []wire.ResourceRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.walk(reversedKeys(name), false)
	if n == nil {
		return nil
	}
	var out []wire.ResourceRecord
	for _, e := range n.entries {
		if e.Expiration.After(now) {
			out = append(out, e.Record)
		}
	}
	return out
}

// FindSubtree returns every non-expired record named at or below prefix
// (prefix itself, or any name ending in prefix), for the mDNS
// service-enumeration meta-query (PTR under "_services._dns-sd._udp.local",
// RFC 6763 §9), which needs a subtree match rather than an exact lookup.
func (t *Trie) FindSubtree(prefix *wire.Name, rtype uint16, now time.Time) []wire.ResourceRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.walk(reversedKeys(prefix), false)
	if n == nil {
		return nil
	}
	var out []wire.ResourceRecord
	collectSubtree(n, rtype, now, &out)
	return out
}

func collectSubtree(n *node, rtype uint16, now time.Time, out *[]wire.ResourceRecord) {
	for _, e := range n.entries {
		if e.Expiration.After(now) && (rtype == 0 || e.Record.RRType == rtype) {
			*out = append(*out, e.Record)
		}
	}
	for _, child := range n.children {
		collectSubtree(child, rtype, now, out)
	}
}

// Expire evicts every entry whose expiration is at or before now, pruning
// empty subtrees. A record with TTL=0 (a goodbye record, RFC 6762 §10.1)
// expires immediately on the next Expire call after insertion.
func (t *Trie) Expire(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	expireNode(t.root, now)
}

func expireNode(n *node, now time.Time) bool {
	kept := n.entries[:0]
	for _, e := range n.entries {
		if e.Expiration.After(now) {
			kept = append(kept, e)
		}
	}
	n.entries = kept

	for k, child := range n.children {
		if expireNode(child, now) {
			delete(n.children, k)
		}
	}
	return len(n.entries) == 0 && len(n.children) == 0
}

// NextExpiration returns the earliest expiration instant across all stored
// records, or ok=false if the store is empty.
func (t *Trie) NextExpiration() (when time.Time, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	nextExpirationNode(t.root, &when, &ok)
	return
}

func nextExpirationNode(n *node, when *time.Time, ok *bool) {
	for _, e := range n.entries {
		if !*ok || e.Expiration.Before(*when) {
			*when = e.Expiration
			*ok = true
		}
	}
	for _, child := range n.children {
		nextExpirationNode(child, when, ok)
	}
}

// All returns every non-expired record in the store, for diagnostics and
// full-table operations like goodbye-on-shutdown.
func (t *Trie) All(now time.Time) []wire.ResourceRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []wire.ResourceRecord
	collectSubtree(t.root, 0, now, &out)
	return out
}
