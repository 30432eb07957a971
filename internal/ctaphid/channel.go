package ctaphid

import "sync"

// maxChannels is the bound on live channel table entries (spec.md §3,
// "ChannelTable: ordered sequence of allocated Cids, bounded to 20
// entries").
const maxChannels = 20

// RNG is a 32-bit uniform integer source, injected so the engine's channel
// allocation is deterministic under test.
type RNG interface {
	Uint32() (uint32, error)
}

// channelTable is an ordered, FIFO-bounded set of allocated channel
// identifiers.
//
// Unlike bfd.DiscriminatorAllocator, this table does not check for
// collisions on insert: spec.md §4.2 "Channel allocation" explicitly
// mandates skipping the collision check, since duplicate entries cannot
// violate any invariant here (lookup only needs to find *a* match).
// Eviction is unconditional FIFO when the table is full; implementers
// must not substitute a stricter policy such as LRU (spec.md §9).
type channelTable struct {
	mu      sync.Mutex
	cids    []Cid
	rng     RNG
	evicted func(Cid) // optional hook, set by the engine for metrics
}

func newChannelTable(rng RNG) *channelTable {
	return &channelTable{
		cids: make([]Cid, 0, maxChannels),
		rng:  rng,
	}
}

// allocate generates a fresh, random Cid, evicting the oldest entry first
// if the table is already full, and appends it.
func (t *channelTable) allocate() (Cid, error) {
	v, err := t.rng.Uint32()
	if err != nil {
		return 0, ErrChannelTableExhausted
	}
	cid := Cid(v)

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.cids) >= maxChannels {
		oldest := t.cids[0]
		t.cids = t.cids[1:]
		if t.evicted != nil {
			t.evicted(oldest)
		}
	}
	t.cids = append(t.cids, cid)

	return cid, nil
}

// contains reports whether cid is present in the table.
func (t *channelTable) contains(cid Cid) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, c := range t.cids {
		if c == cid {
			return true
		}
	}
	return false
}

// len reports the number of live entries.
func (t *channelTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cids)
}

// snapshot returns a copy of the table contents, oldest first, for
// introspection (internal/server).
func (t *channelTable) snapshot() []Cid {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Cid, len(t.cids))
	copy(out, t.cids)
	return out
}

// reset discards all entries (Engine.Teardown).
func (t *channelTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cids = t.cids[:0]
}
