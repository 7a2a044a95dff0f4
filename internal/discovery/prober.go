package discovery

import (
	"bytes"
	"context"
	"time"

	"github.com/quietwire/flare/internal/protocol"
	"github.com/quietwire/flare/internal/transport"
	"github.com/quietwire/flare/internal/wire"
)

// probeResult reports the outcome of a probing round.
type probeResult struct {
	conflict bool
}

// probe sends ProbeCount ANY-typed queries for each name in records, spaced
// ProbeInterval apart, carrying our own pending records as authority-section
// tie-breakers (RFC 6762 §8.1). If any record received in reply to a probe
// is for the same name but different rdata, and it loses the lexicographic
// tie-break (RFC 6762 §8.2), this returns conflict=true and the caller must
// rename before retrying.
//
// probe does not itself read the socket: incoming answers are fed in by the
// engine's receive loop through Advertiser.feedAnswer, since one socket is shared
// between probing and ordinary query answering.
func probe(ctx context.Context, sock transport.Socket, records []wire.ResourceRecord, answers <-chan wire.Packet) (probeResult, error) {
	names := uniqueNames(records)
	if len(names) == 0 {
		return probeResult{}, nil
	}

	for i := 0; i < protocol.ProbeCount; i++ {
		pkt := buildProbePacket(names, records)
		out, err := pkt.SerializeCompressed()
		if err != nil {
			return probeResult{}, err
		}
		if err := sock.WriteToMulticast(out); err != nil {
			return probeResult{}, err
		}

		timer := time.NewTimer(protocol.ProbeInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return probeResult{}, ctx.Err()
		case reply := <-answers:
			timer.Stop()
			if conflicts(reply.Answers, records) {
				return probeResult{conflict: true}, nil
			}
		case <-timer.C:
		}
	}
	return probeResult{}, nil
}

func uniqueNames(records []wire.ResourceRecord) []*wire.Name {
	var out []*wire.Name
	for _, rr := range records {
		found := false
		for _, n := range out {
			if n.Equal(rr.Name) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, rr.Name)
		}
	}
	return out
}

func buildProbePacket(names []*wire.Name, authority []wire.ResourceRecord) *wire.Packet {
	questions := make([]wire.Question, len(names))
	for i, n := range names {
		questions[i] = wire.Question{Name: n, QType: protocol.TypeANY, QClass: protocol.ClassIN}
	}
	return &wire.Packet{
		Header: wire.Header{
			QDCount: uint16(len(questions)),
			NSCount: uint16(len(authority)),
		},
		Questions:   questions,
		Authorities: authority,
	}
}

// conflicts reports whether any record in candidates is for a name we're
// probing but has rdata that loses the RFC 6762 §8.2 lexicographic
// tie-break against our own pending record of the same name/type.
func conflicts(candidates, ours []wire.ResourceRecord) bool {
	for _, theirs := range candidates {
		for _, mine := range ours {
			if !theirs.Name.Equal(mine.Name) || theirs.RRType != mine.RRType {
				continue
			}
			if sameRData(theirs.RData, mine.RData) {
				continue
			}
			if rdataBytes(theirs.RData) == nil || rdataBytes(mine.RData) == nil {
				continue
			}
			// We lose the tie-break (and must rename) when their bytes sort
			// lexicographically greater than ours.
			if bytes.Compare(rdataBytes(theirs.RData), rdataBytes(mine.RData)) > 0 {
				return true
			}
		}
	}
	return false
}

func rdataBytes(rd wire.RData) []byte {
	buf := wire.NewWriteBuffer(64)
	if err := rd.Write(buf, nil); err != nil {
		return nil
	}
	return buf.Bytes()
}

func sameRData(a, b wire.RData) bool {
	ba, bb := rdataBytes(a), rdataBytes(b)
	if ba == nil || bb == nil {
		return false
	}
	return bytes.Equal(ba, bb)
}

// renameInstance appends the next disambiguating suffix to an instance
// label per RFC 6762 §9's simplistic policy: "name" -> "name (2)" -> "name
// (3)" ...
func renameInstance(name string, attempt int) string {
	return name + " (" + itoa(attempt+1) + ")"
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
