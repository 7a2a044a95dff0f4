// Package responder exposes the mDNS answering side of flare: advertise raw
// resource records and answer queries for them, as a blocking background
// service or a cooperative, caller-driven loop.
package responder

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/quietwire/flare/internal/logging"
	internalresponder "github.com/quietwire/flare/internal/responder"
	"github.com/quietwire/flare/internal/security"
	"github.com/quietwire/flare/internal/transport"
	"github.com/quietwire/flare/internal/wire"
)

// Responder owns a multicast socket and answers queries for whatever
// records have been added to it, per RFC 6762 §6.
type Responder struct {
	sock   transport.Socket
	engine *internalresponder.Engine
	cfg    *config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New opens a multicast socket per the configured NetworkScope and returns a
// Responder ready to accept records and Start/Step.
func New(opts ...Option) (*Responder, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	sock, err := transport.Listen(cfg.scope)
	if err != nil {
		return nil, err
	}

	return newWithSocket(sock, cfg), nil
}

// newWithSocket builds a Responder over an already-open socket, letting
// tests supply a transport.Mock instead of binding a real multicast group.
func newWithSocket(sock transport.Socket, cfg *config) *Responder {
	var filter *security.SourceFilter
	var limiter *security.RateLimiter
	if !cfg.disableSecurity {
		ifaces, _ := net.Interfaces()
		filter = security.NewSourceFilterForInterfaces(ifaces)
		limiter = security.NewRateLimiter(cfg.rateThreshold, cfg.rateCooldown, cfg.rateMaxEntries)
	}

	engine := internalresponder.NewEngine(sock, filter, limiter, cfg.logger)
	return &Responder{sock: sock, engine: engine, cfg: cfg}
}

// Start spins a background goroutine that repeatedly calls Step until ctx is
// cancelled or Close is called (the blocking concurrency surface, §4.9).
func (r *Responder) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			if err := r.engine.Step(ctx); err != nil {
				return
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
}

// Step performs a single receive-and-maybe-answer cycle, for callers driving
// their own event loop (the cooperative concurrency surface, §4.9).
func (r *Responder) Step(ctx context.Context) error { return r.engine.Step(ctx) }

// AddRecord advertises rr with the given TTL. Subsequent matching queries
// are answered until the record expires or RemoveRecord is called.
func (r *Responder) AddRecord(rr wire.ResourceRecord, ttl time.Duration) {
	r.engine.Registry.Add(rr, ttl)
}

// RemoveRecord withdraws every record at name, or only those of *rtype if
// rtype is non-nil.
func (r *Responder) RemoveRecord(name *wire.Name, rtype *uint16) {
	r.engine.Registry.Remove(name, rtype)
}

// Records returns every non-expired record currently advertised.
func (r *Responder) Records() []wire.ResourceRecord {
	return r.engine.Registry.All(time.Now())
}

// Close stops the background loop (if Start was called) and closes the
// socket. Any locally-advertised records are left to expire naturally;
// callers that need goodbye semantics should use querier.Discovery's
// AddServiceInfo/RemoveServiceType, which owns that lifecycle.
func (r *Responder) Close() error {
	if r.cancel != nil {
		r.cancel()
		r.wg.Wait()
	}
	return r.sock.Close()
}

// Logger exposes the configured logger for embedding callers (e.g. a
// querier.Discovery sharing this Responder's socket).
func (r *Responder) Logger() logging.Logger { return r.cfg.logger }
