package ctaphid

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Clock is a monotonic millisecond reader, injected so transaction timeout
// behavior (spec.md §4.2 "Timeout sweep") is deterministic under test.
type Clock interface {
	NowMillis() int64
}

// SystemClock implements Clock using the standard monotonic clock.
type SystemClock struct{}

// systemClockStart is SystemClock's reference point; time.Since on it
// uses the monotonic clock reading, so wall-clock changes do not affect
// NowMillis.
var systemClockStart = time.Now()

// NowMillis returns milliseconds elapsed since an arbitrary, fixed
// reference point. Only differences between calls are meaningful.
func (SystemClock) NowMillis() int64 {
	return time.Since(systemClockStart).Milliseconds()
}

// CryptoRNG implements RNG using crypto/rand, for channel ID allocation in
// production. Channel IDs are not secrets, but a predictable allocator
// would let one client guess and collide with another's channel.
type CryptoRNG struct{}

// Uint32 returns a cryptographically random 32-bit value.
func (CryptoRNG) Uint32() (uint32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// Authenticator is the external CTAP2 command handler (spec.md §6,
// "Authenticator core"). It is handed the raw bytes accumulated for a CBOR
// transaction and returns either the response bytes to wrap, or a single
// status byte on failure. The engine does not interpret either beyond
// framing them.
type Authenticator interface {
	Handle(requestBytes []byte) (responseBytes []byte, status byte, ok bool)
}
