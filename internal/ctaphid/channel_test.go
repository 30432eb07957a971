package ctaphid

import "testing"

func TestChannelTableAllocateAndContains(t *testing.T) {
	t.Parallel()
	tbl := newChannelTable(&seqRNGInternal{})

	cid, err := tbl.allocate()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if !tbl.contains(cid) {
		t.Errorf("table does not contain just-allocated cid %v", cid)
	}
	if tbl.len() != 1 {
		t.Errorf("len = %d, want 1", tbl.len())
	}
}

func TestChannelTableEvictsOldestOnOverflow(t *testing.T) {
	t.Parallel()
	tbl := newChannelTable(&seqRNGInternal{})

	var evicted []Cid
	tbl.evicted = func(c Cid) { evicted = append(evicted, c) }

	var cids []Cid
	for i := 0; i < maxChannels+1; i++ {
		cid, err := tbl.allocate()
		if err != nil {
			t.Fatalf("allocate #%d: %v", i, err)
		}
		cids = append(cids, cid)
	}

	if tbl.len() != maxChannels {
		t.Fatalf("len = %d, want %d", tbl.len(), maxChannels)
	}
	if len(evicted) != 1 || evicted[0] != cids[0] {
		t.Fatalf("evicted = %v, want [%v]", evicted, cids[0])
	}
	if tbl.contains(cids[0]) {
		t.Error("table still contains evicted cid")
	}
	if !tbl.contains(cids[len(cids)-1]) {
		t.Error("table missing most recently allocated cid")
	}
}

func TestChannelTableAllocationFailure(t *testing.T) {
	t.Parallel()
	tbl := newChannelTable(&seqRNGInternal{fail: true})

	if _, err := tbl.allocate(); err != ErrChannelTableExhausted {
		t.Errorf("err = %v, want ErrChannelTableExhausted", err)
	}
}

// seqRNGInternal mirrors the exported test's seqRNG but lives in-package
// so white-box tests of channelTable don't need to export RNG test seams.
type seqRNGInternal struct {
	next uint32
	fail bool
}

func (r *seqRNGInternal) Uint32() (uint32, error) {
	if r.fail {
		return 0, ErrChannelTableExhausted
	}
	r.next++
	return r.next, nil
}
