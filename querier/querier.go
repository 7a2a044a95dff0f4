// Package querier exposes the mDNS service-discovery side of flare:
// advertise a local service instance (with probing and conflict handling),
// browse for peer instances, and resolve one instance with a timeout.
package querier

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/quietwire/flare/internal/discovery"
	dnserr "github.com/quietwire/flare/internal/errors"
	"github.com/quietwire/flare/internal/logging"
	internalresponder "github.com/quietwire/flare/internal/responder"
	"github.com/quietwire/flare/internal/security"
	"github.com/quietwire/flare/internal/transport"
	"github.com/quietwire/flare/internal/wire"
)

// ServiceInfo describes the local instance to advertise. See
// internal/discovery.ServiceInfo for field semantics; this is a thin
// re-export so callers of this package need not import internal/discovery.
type ServiceInfo = discovery.ServiceInfo

// InstanceInfo is a resolved peer instance. See internal/discovery.InstanceInfo.
type InstanceInfo = discovery.InstanceInfo

// Discovery advertises local service instances and browses for peers.
type Discovery struct {
	sock   transport.Socket
	engine *discovery.Engine
	cfg    *config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	advertised map[string][]wire.ResourceRecord // instance FQN -> published records
}

// New opens a multicast socket per the configured NetworkScope and returns a
// Discovery ready to advertise and browse.
func New(opts ...Option) (*Discovery, error) {
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

// newWithSocket builds a Discovery over an already-open socket, letting
// tests supply a transport.Mock instead of binding a real multicast group.
func newWithSocket(sock transport.Socket, cfg *config) *Discovery {
	var filter *security.SourceFilter
	if !cfg.disableSecurity {
		ifaces, _ := net.Interfaces()
		filter = security.NewSourceFilterForInterfaces(ifaces)
	}

	reg := internalresponder.NewRegistry()
	engine := discovery.NewEngine(sock, reg, filter, cfg.logger)

	return &Discovery{
		sock:       sock,
		engine:     engine,
		cfg:        cfg,
		advertised: make(map[string][]wire.ResourceRecord),
	}
}

// Start spins a background goroutine that repeatedly calls Step until ctx is
// cancelled or Close is called (the blocking concurrency surface, §4.9).
func (d *Discovery) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			if err := d.engine.Step(ctx); err != nil {
				return
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
}

// Step performs a single receive-or-timer cycle, for callers driving their
// own event loop (the cooperative concurrency surface, §4.9).
func (d *Discovery) Step(ctx context.Context) error { return d.engine.Step(ctx) }

// AddServiceInfo advertises a local service instance: probes for name
// conflicts (RFC 6762 §8.1/8.2), renaming on loss up to 10 attempts, then
// announces the winning records (RFC 6762 §8.3) and serves them from the
// built-in responder registry. It returns the (possibly renamed) instance
// actually advertised.
func (d *Discovery) AddServiceInfo(ctx context.Context, info ServiceInfo) (ServiceInfo, error) {
	final, records, err := d.engine.Advertiser.Advertise(ctx, info)
	if err != nil {
		return ServiceInfo{}, err
	}

	key := final.InstanceName + "." + final.ServiceType
	d.mu.Lock()
	d.advertised[key] = records
	d.mu.Unlock()

	return final, nil
}

// RemoveServiceType withdraws a previously-advertised instance: sends a
// best-effort goodbye (TTL=0) for each of its records and stops serving
// them (RFC 6762 §10.1).
func (d *Discovery) RemoveServiceType(instanceName, serviceType string) {
	key := instanceName + "." + serviceType
	d.mu.Lock()
	records := d.advertised[key]
	delete(d.advertised, key)
	d.mu.Unlock()

	if records != nil {
		d.engine.Advertiser.Withdraw(records)
	}
}

// Browse starts periodically querying for peers of serviceType. interval=0
// selects discovery.DefaultQueryInterval (60s, per spec bounded by the
// lowest known TTL/2 once peers are seen).
func (d *Discovery) Browse(serviceType string, interval time.Duration) error {
	name, err := wire.NewName(serviceType)
	if err != nil {
		return err
	}
	if interval == 0 {
		interval = d.cfg.queryInterval
	}
	d.engine.Browse(name, interval)
	return nil
}

// StopBrowse stops querying for serviceType.
func (d *Discovery) StopBrowse(serviceType string) error {
	name, err := wire.NewName(serviceType)
	if err != nil {
		return err
	}
	d.engine.StopBrowse(name)
	return nil
}

// GetKnownServices returns the currently valid peers (non-expired,
// fully-resolved: has address + port if SRV present) across every active
// Browse.
func (d *Discovery) GetKnownServices() []InstanceInfo {
	return d.engine.KnownServices(time.Now())
}

// Resolve browses serviceType and blocks until at least one peer instance is
// seen or timeout elapses. On expiry it returns (InstanceInfo{}, false, nil)
// rather than an error, per spec.md §5's "on expiry it returns no-answer
// (not an error)".
func (d *Discovery) Resolve(ctx context.Context, serviceType string, timeout time.Duration) (InstanceInfo, bool, error) {
	if err := d.Browse(serviceType, 0); err != nil {
		return InstanceInfo{}, false, err
	}

	deadline := time.Now().Add(timeout)
	poll := time.NewTicker(20 * time.Millisecond)
	defer poll.Stop()

	for {
		if peers := d.GetKnownServices(); len(peers) > 0 {
			return peers[0], true, nil
		}
		if !time.Now().Before(deadline) {
			return InstanceInfo{}, false, nil
		}
		select {
		case <-ctx.Done():
			return InstanceInfo{}, false, ctx.Err()
		case <-poll.C:
		}
	}
}

// ResolveTimeoutError reports a Resolve deadline expiring; callers that want
// the net.Error Timeout()/Temporary() idiom rather than Resolve's (ok=false,
// err=nil) convention can construct one from its Operation/Elapsed fields;
// Resolve itself never returns one.
type ResolveTimeoutError = dnserr.TimeoutError

// Logger exposes the configured logger.
func (d *Discovery) Logger() logging.Logger { return d.cfg.logger }

// Close stops the background loop (if Start was called) and closes the
// socket after sending a best-effort goodbye for every still-advertised
// instance (RFC 6762 §10.1).
func (d *Discovery) Close() error {
	d.mu.Lock()
	all := make([][]wire.ResourceRecord, 0, len(d.advertised))
	for _, records := range d.advertised {
		all = append(all, records)
	}
	d.advertised = make(map[string][]wire.ResourceRecord)
	d.mu.Unlock()

	for _, records := range all {
		d.engine.Advertiser.Withdraw(records)
	}

	if d.cancel != nil {
		d.cancel()
		d.wg.Wait()
	}
	return d.sock.Close()
}
