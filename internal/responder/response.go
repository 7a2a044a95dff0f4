package responder

import "github.com/quietwire/flare/internal/wire"

// suppressKnownAnswer reports whether rr should be withheld because the
// querier already listed an equivalent record in its own Answer section with
// at least half the true TTL remaining (RFC 6762 §7.1 known-answer
// suppression: a fresh-enough cache on the querier's side makes re-sending
// wasteful).
func suppressKnownAnswer(rr wire.ResourceRecord, knownAnswers []wire.ResourceRecord) bool {
	for _, known := range knownAnswers {
		if !sameRecord(rr, known) {
			continue
		}
		return known.TTL*2 >= rr.TTL
	}
	return false
}

func sameRecord(a, b wire.ResourceRecord) bool {
	if !a.Name.Equal(b.Name) || a.RRType != b.RRType || a.Class() != b.Class() {
		return false
	}
	return sameRData(a.RData, b.RData)
}

func sameRData(a, b wire.RData) bool {
	if a == nil || b == nil {
		return a == b
	}
	bufA := wire.NewWriteBuffer(64)
	bufB := wire.NewWriteBuffer(64)
	if err := a.Write(bufA, nil); err != nil {
		return false
	}
	if err := b.Write(bufB, nil); err != nil {
		return false
	}
	ba, bb := bufA.Bytes(), bufB.Bytes()
	if len(ba) != len(bb) {
		return false
	}
	for i := range ba {
		if ba[i] != bb[i] {
			return false
		}
	}
	return true
}
