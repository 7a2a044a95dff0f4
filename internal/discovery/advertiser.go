package discovery

import (
	"context"
	"time"

	dnserr "github.com/quietwire/flare/internal/errors"
	"github.com/quietwire/flare/internal/logging"
	"github.com/quietwire/flare/internal/protocol"
	"github.com/quietwire/flare/internal/transport"
	"github.com/quietwire/flare/internal/wire"
)

// The lifecycle of one locally-advertised service instance is probing for
// name conflicts, announcing ownership, then steady state (RFC 6762 §8).
// Advertise below drives a single instance through that progression;
// multiple instances are driven by calling it once per instance.
const (
	maxRenameAttempts = 10
	announceCount     = 2
	announceInterval  = time.Second
)

// Advertiser drives probing and announcing for every locally-registered
// service instance and publishes the winning records into reg.
type Advertiser struct {
	sock   transport.Socket
	reg    RecordSink
	logger logging.Logger

	probeAnswers chan wire.Packet
}

// RecordSink is the minimal surface the advertiser needs from a responder
// registry: add/remove raw records. Kept as an interface so discovery does
// not import the responder package (responder already imports wire/store;
// importing responder from discovery would be circular once the public
// packages wire both together).
type RecordSink interface {
	Add(rr wire.ResourceRecord, ttl time.Duration)
	Remove(name *wire.Name, rtype *uint16)
}

// NewAdvertiser builds an Advertiser that publishes winning records into reg
// and sends probes/announcements over sock.
func NewAdvertiser(sock transport.Socket, reg RecordSink, logger logging.Logger) *Advertiser {
	if logger == nil {
		logger = logging.Discard
	}
	return &Advertiser{sock: sock, reg: reg, logger: logger, probeAnswers: make(chan wire.Packet, 8)}
}

// feedAnswer delivers a received response packet to an in-progress probe, if
// one is waiting. Non-blocking: if nothing is probing, the packet is simply
// ignored by the advertiser (the responder's own receive loop still answers
// it if it's a query; this only matters for reply packets during probing).
func (a *Advertiser) feedAnswer(pkt wire.Packet) {
	select {
	case a.probeAnswers <- pkt:
	default:
	}
}

// Advertise runs a service instance through probe -> announce -> established,
// renaming and re-probing on conflict, up to maxRenameAttempts. It returns
// once the instance is established, returning the final (possibly renamed)
// ServiceInfo and its published records, or an error if probing never
// resolves within maxRenameAttempts or ctx is cancelled.
func (a *Advertiser) Advertise(ctx context.Context, info ServiceInfo) (ServiceInfo, []wire.ResourceRecord, error) {
	current := info
	for attempt := 0; attempt <= maxRenameAttempts; attempt++ {
		records, err := BuildRecords(current)
		if err != nil {
			return ServiceInfo{}, nil, err
		}

		result, err := probe(ctx, a.sock, records, a.probeAnswers)
		if err != nil {
			return ServiceInfo{}, nil, err
		}
		if result.conflict {
			a.logger(logging.LevelInfo, "name conflict during probing, renaming",
				"instance", current.InstanceName, "attempt", attempt)
			current.InstanceName = renameInstance(info.InstanceName, attempt)
			continue
		}

		if err := a.announce(ctx, records); err != nil {
			return ServiceInfo{}, nil, err
		}
		for _, rr := range records {
			a.reg.Add(rr, ttlOf(rr))
		}
		return current, records, nil
	}
	return ServiceInfo{}, nil, &dnserr.ValidationError{
		Field:   "instance_name",
		Value:   info.InstanceName,
		Message: "exhausted rename attempts resolving a name conflict",
	}
}

// announce multicasts the winning record set announceCount times,
// announceInterval apart (RFC 6762 §8.3), with the cache-flush bit already
// set on unique records by BuildRecords.
func (a *Advertiser) announce(ctx context.Context, records []wire.ResourceRecord) error {
	pkt := &wire.Packet{
		Header:  wire.Header{Flags: protocol.FlagQR | protocol.FlagAA, ANCount: uint16(len(records))},
		Answers: records,
	}
	out, err := pkt.SerializeCompressed()
	if err != nil {
		return err
	}
	for i := 0; i < announceCount; i++ {
		if err := a.sock.WriteToMulticast(out); err != nil {
			return err
		}
		if i == announceCount-1 {
			break
		}
		timer := time.NewTimer(announceInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Withdraw sends a best-effort goodbye (TTL=0) for records and removes them
// from reg. Send failures are not reported: the socket may already be
// closing, and mDNS withdrawal is inherently best-effort (RFC 6762 §10.1).
func (a *Advertiser) Withdraw(records []wire.ResourceRecord) {
	bye := goodbyeRecords(records)
	pkt := &wire.Packet{
		Header:  wire.Header{Flags: protocol.FlagQR | protocol.FlagAA, ANCount: uint16(len(bye))},
		Answers: bye,
	}
	if out, err := pkt.SerializeCompressed(); err == nil {
		_ = a.sock.WriteToMulticast(out)
	}
	for _, rr := range records {
		rtype := rr.RRType
		a.reg.Remove(rr.Name, &rtype)
	}
}

func ttlOf(rr wire.ResourceRecord) time.Duration {
	return time.Duration(rr.TTL) * time.Second
}
