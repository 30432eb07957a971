package ctaphid_test

import (
	"sync/atomic"

	"github.com/go-ctap/ctapd/internal/ctaphid"
)

// fakeClock is a manually advanced Clock for deterministic timeout tests.
type fakeClock struct {
	ms atomic.Int64
}

func (c *fakeClock) NowMillis() int64 { return c.ms.Load() }
func (c *fakeClock) Advance(d int64)  { c.ms.Add(d) }

// seqRNG returns a deterministic, incrementing sequence of values instead
// of real randomness, so allocated Cids are predictable in tests.
type seqRNG struct {
	next uint32
	fail bool
}

func (r *seqRNG) Uint32() (uint32, error) {
	if r.fail {
		return 0, errRNGFailed
	}
	r.next++
	return r.next, nil
}

var errRNGFailed = errFake("rng exhausted")

type errFake string

func (e errFake) Error() string { return string(e) }

// echoAuthenticator returns its input verbatim, to exercise the CBOR
// dispatch path without depending on internal/authcore.
type echoAuthenticator struct{}

func (echoAuthenticator) Handle(req []byte) ([]byte, byte, bool) {
	return req, 0, true
}

// failAuthenticator always fails with a fixed status byte.
type failAuthenticator struct{ status byte }

func (f failAuthenticator) Handle([]byte) ([]byte, byte, bool) {
	return nil, f.status, false
}

func collectFrames(it *ctaphid.FrameIterator) [][]byte {
	var out [][]byte
	if it == nil {
		return out
	}
	for {
		f, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, f)
	}
	return out
}
