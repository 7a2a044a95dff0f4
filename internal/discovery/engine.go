package discovery

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/quietwire/flare/internal/logging"
	"github.com/quietwire/flare/internal/protocol"
	"github.com/quietwire/flare/internal/security"
	"github.com/quietwire/flare/internal/transport"
	"github.com/quietwire/flare/internal/wire"
)

// browse tracks one actively-queried service type.
type browse struct {
	serviceType *wire.Name
	interval    time.Duration
	nextQuery   time.Time
}

// Engine is the discovery-side state machine: it advertises local service
// instances (via Advertiser), periodically queries for and refreshes peers
// (via PeerCache), and shares the one Step(ctx) suspension point with the
// responder-side engine, per the cooperative/blocking dual surface.
type Engine struct {
	sock     transport.Socket
	Cache    *PeerCache
	Advertiser *Advertiser

	filter *security.SourceFilter
	logger logging.Logger

	// mu guards browses and refreshes: Step (called from the background loop
	// or a cooperative caller) mutates them, while Browse/StopBrowse/
	// KnownServices may be called from any other goroutine (the "mailbox"
	// discipline of spec.md §4.9, enforced here with a mutex rather than an
	// explicit channel since the critical section is a simple map/slice op).
	mu        sync.Mutex
	browses   map[string]*browse
	refreshes []pendingRefresh
}

// pollInterval bounds how long Step blocks without traffic, the same
// responsiveness tradeoff as the responder engine.
const pollInterval = 250 * time.Millisecond

// NewEngine builds a discovery Engine over sock, sharing reg as the
// destination for any locally-advertised records this process wins probing
// for.
func NewEngine(sock transport.Socket, reg RecordSink, filter *security.SourceFilter, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard
	}
	return &Engine{
		sock:       sock,
		Cache:      NewPeerCache(),
		Advertiser: NewAdvertiser(sock, reg, logger),
		filter:     filter,
		logger:     logger,
		browses:    make(map[string]*browse),
	}
}

// Browse starts periodically querying for serviceType at interval (0 selects
// DefaultQueryInterval).
func (e *Engine) Browse(serviceType *wire.Name, interval time.Duration) {
	if interval == 0 {
		interval = DefaultQueryInterval
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.browses[serviceType.Key()] = &browse{serviceType: serviceType, interval: interval}
}

// StopBrowse stops querying for serviceType.
func (e *Engine) StopBrowse(serviceType *wire.Name) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.browses, serviceType.Key())
}

// Step performs one receive-or-timer cycle: it waits up to pollInterval for
// a datagram, and on timeout (or after handling one) runs any due browse
// queries and expires stale cache entries. This is the sole suspension
// point shared by the blocking Start loop and a cooperative caller's own
// loop body.
func (e *Engine) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bufp := transport.GetBuffer()
	defer transport.PutBuffer(bufp)

	_ = e.sock.SetReadDeadline(time.Now().Add(pollInterval))
	n, src, err := e.sock.ReadFrom(*bufp)
	now := time.Now()

	switch {
	case err == nil:
		if e.filter != nil {
			if udp, ok := src.(*net.UDPAddr); ok && !e.filter.IsValid(udp.IP) {
				break
			}
		}
		data := make([]byte, n)
		copy(data, (*bufp)[:n])
		if pkt, perr := wire.ParsePacket(data); perr == nil {
			e.handlePacket(pkt, now)
		}
	default:
		if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
			return err
		}
	}

	e.Cache.Expire(now)
	e.mu.Lock()
	e.runDueBrowses(now)
	e.mu.Unlock()
	return nil
}

func (e *Engine) handlePacket(pkt *wire.Packet, now time.Time) {
	if pkt.Header.QR() {
		all := append(append([]wire.ResourceRecord{}, pkt.Answers...), pkt.Additionals...)
		e.Cache.Ingest(all, now)
		for _, rr := range all {
			e.refreshes = append(e.refreshes, refreshSchedule(rr, now)...)
		}
	}
	e.Advertiser.feedAnswer(*pkt)
}

func (e *Engine) runDueBrowses(now time.Time) {
	for _, b := range e.browses {
		if !b.nextQuery.After(now) {
			interval := b.interval
			ptrs := e.Cache.trie.Find(wire.Question{Name: b.serviceType, QType: protocol.TypePTR, QClass: protocol.ClassIN}, now)
			for _, rr := range ptrs {
				interval = queryInterval(interval, time.Duration(rr.TTL)*time.Second)
			}
			b.nextQuery = now.Add(interval)
			e.sendBrowseQuery(b.serviceType)
		}
	}
	e.runDueRefreshes(now)
}

// runDueRefreshes re-queries any record that has crossed one of the RFC
// 6762 §5.2 schedule points (80/85/90/95% of TTL), so the cache entry is
// updated before it would otherwise expire.
func (e *Engine) runDueRefreshes(now time.Time) {
	kept := e.refreshes[:0]
	for _, r := range e.refreshes {
		if r.at.After(now) {
			kept = append(kept, r)
			continue
		}
		e.sendTargetedQuery(r.name, r.rtype)
	}
	e.refreshes = kept
}

func (e *Engine) sendTargetedQuery(name *wire.Name, rtype uint16) {
	pkt := &wire.Packet{
		Header:    wire.Header{QDCount: 1},
		Questions: []wire.Question{{Name: name, QType: rtype, QClass: protocol.ClassIN}},
	}
	out, err := pkt.SerializeCompressed()
	if err != nil {
		return
	}
	_ = e.sock.WriteToMulticast(out)
}

func (e *Engine) sendBrowseQuery(serviceType *wire.Name) {
	pkt := &wire.Packet{
		Header:    wire.Header{QDCount: 1},
		Questions: []wire.Question{{Name: serviceType, QType: protocol.TypePTR, QClass: protocol.ClassIN}},
	}
	out, err := pkt.SerializeCompressed()
	if err != nil {
		e.logger(logging.LevelWarn, "failed to serialize browse query", "error", err)
		return
	}
	if err := e.sock.WriteToMulticast(out); err != nil {
		e.logger(logging.LevelDebug, "browse query send failed", "error", err)
	}
}

// KnownServices returns the currently valid peers across all active browses.
func (e *Engine) KnownServices(now time.Time) []InstanceInfo {
	e.mu.Lock()
	types := make([]*wire.Name, 0, len(e.browses))
	for _, b := range e.browses {
		types = append(types, b.serviceType)
	}
	e.mu.Unlock()

	var out []InstanceInfo
	for _, t := range types {
		out = append(out, e.Cache.KnownServices(t, now)...)
	}
	return out
}
