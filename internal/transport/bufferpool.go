package transport

import "sync"

// MaxDatagramSize is the largest mDNS UDP payload this package will read in
// one receive; mDNS messages should not exceed this over UDP.
const MaxDatagramSize = 9000

var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, MaxDatagramSize)
		return &b
	},
}

// GetBuffer returns a pooled, full-capacity receive buffer.
func GetBuffer() *[]byte { return bufferPool.Get().(*[]byte) }

// PutBuffer zeroes a buffer obtained from GetBuffer and returns it to the
// pool, so a later receive into the same backing array can never expose a
// previous datagram's bytes past the new read's length.
func PutBuffer(b *[]byte) {
	buf := *b
	for i := range buf {
		buf[i] = 0
	}
	bufferPool.Put(b)
}
