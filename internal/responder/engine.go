package responder

import (
	"context"
	"net"
	"time"

	"github.com/quietwire/flare/internal/logging"
	"github.com/quietwire/flare/internal/protocol"
	"github.com/quietwire/flare/internal/security"
	"github.com/quietwire/flare/internal/transport"
	"github.com/quietwire/flare/internal/wire"
)

// pollInterval bounds how long a single Step blocks waiting for a datagram,
// so a cooperative caller's Step(ctx) loop still observes ctx cancellation
// promptly even with no traffic on the wire.
const pollInterval = 250 * time.Millisecond

// Engine owns the registry of locally-advertised records and answers
// queries received on sock. It has no goroutines of its own: Step performs
// exactly one receive-and-maybe-respond cycle, the suspension point required
// by both the blocking and cooperative concurrency surfaces.
type Engine struct {
	Registry *Registry

	sock    transport.Socket
	filter  *security.SourceFilter
	limiter *security.RateLimiter
	logger  logging.Logger
}

// NewEngine builds an Engine over sock. filter/limiter may be nil to disable
// that hardening layer (e.g. in tests using transport.Mock with a single
// trusted peer).
func NewEngine(sock transport.Socket, filter *security.SourceFilter, limiter *security.RateLimiter, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard
	}
	return &Engine{Registry: NewRegistry(), sock: sock, filter: filter, limiter: limiter, logger: logger}
}

// Step blocks for at most pollInterval waiting for one datagram, and if one
// arrives, parses and answers it. A read timeout is not an error: it is how
// Step yields control back to the caller's loop (or, for Start, lets the
// loop observe ctx.Done()).
func (e *Engine) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bufp := transport.GetBuffer()
	defer transport.PutBuffer(bufp)

	_ = e.sock.SetReadDeadline(time.Now().Add(pollInterval))
	n, src, err := e.sock.ReadFrom(*bufp)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil
		}
		return err
	}

	if e.filter != nil {
		if udp, ok := src.(*net.UDPAddr); ok && !e.filter.IsValid(udp.IP) {
			e.logger(logging.LevelDebug, "dropped datagram from out-of-scope source", "source", src.String())
			return nil
		}
	}

	data := make([]byte, n)
	copy(data, (*bufp)[:n])

	header, err := wire.NewHeaderView(data)
	if err != nil {
		e.logger(logging.LevelDebug, "discarding undersized datagram", "error", err)
		return nil
	}
	if header.HasFlags(protocol.FlagQR) {
		// A response, not a query: never worth the cost of a full parse.
		return nil
	}
	if header.Opcode() == protocol.OpcodeUpdate {
		e.logger(logging.LevelDebug, "ignoring UPDATE opcode query", "source", src.String())
		return nil
	}
	if n < header.ImpliedMinLength() {
		e.logger(logging.LevelDebug, "discarding truncated datagram", "source", src.String())
		return nil
	}

	pkt, err := wire.ParsePacket(data)
	if err != nil {
		e.logger(logging.LevelDebug, "discarding malformed datagram", "error", err)
		return nil
	}

	e.handleQuery(pkt, src)
	return nil
}

func (e *Engine) handleQuery(pkt *wire.Packet, src net.Addr) {
	now := time.Now()
	var answers, additionals []wire.ResourceRecord

	// A non-empty authority section marks this as a probe (RFC 6762 §8.1):
	// the prober is required to repeat the same ANY question three times,
	// 250ms apart, as part of normal conflict detection. Throttling that
	// RFC-mandated burst the same as an arbitrary duplicate-question flood
	// would make probing itself trip the limiter, so probes are exempt;
	// only repeated non-probe queries for the same name/type count against
	// a source's budget.
	isProbe := len(pkt.Authorities) > 0

	for _, q := range pkt.Questions {
		if e.limiter != nil && !isProbe && !e.limiter.Allow(questionRateKey(src, q)) {
			e.logger(logging.LevelDebug, "rate-limited repeated question", "source", src.String(), "name", q.Name.String())
			continue
		}

		as, add := e.Registry.Answer(q, now)
		for _, a := range as {
			if !suppressKnownAnswer(a, pkt.Answers) {
				answers = append(answers, a)
			}
		}
		additionals = append(additionals, add...)
	}

	if len(answers) == 0 {
		return
	}

	resp := &wire.Packet{
		Header: wire.Header{
			ID:      responseID(pkt),
			Flags:   protocol.FlagQR | protocol.FlagAA,
			ANCount: uint16(len(answers)),
			ARCount: uint16(len(additionals)),
		},
		Answers:     answers,
		Additionals: additionals,
	}

	out, err := resp.SerializeCompressed()
	if err != nil {
		e.logger(logging.LevelWarn, "failed to serialize response", "error", err)
		return
	}

	unicast := len(pkt.Questions) > 0 && pkt.Questions[0].UnicastResponse()
	if unicast {
		if err := e.sock.WriteToUnicast(out, src); err != nil {
			e.logger(logging.LevelDebug, "unicast response send failed", "error", err)
		}
		return
	}
	if err := e.sock.WriteToMulticast(out); err != nil {
		e.logger(logging.LevelDebug, "multicast response send failed", "error", err)
	}
}

// questionRateKey identifies a (source, question) pair for rate-limiting
// purposes: a peer repeatedly asking about the same name/type in a short
// window is throttled, but asking about many distinct names is not, since
// legitimate browsing naturally issues several different questions in
// quick succession.
func questionRateKey(src net.Addr, q wire.Question) string {
	host := src.String()
	if udp, ok := src.(*net.UDPAddr); ok {
		host = udp.IP.String()
	}
	return host + "|" + q.Name.Key() + "|" + itoa(q.QType)
}

// responseID returns 0 for multicast responses (RFC 6762 §18.1) and the
// query's own ID when answering a legacy unicast querier.
func responseID(pkt *wire.Packet) uint16 {
	if len(pkt.Questions) > 0 && pkt.Questions[0].UnicastResponse() {
		return pkt.Header.ID
	}
	return 0
}
