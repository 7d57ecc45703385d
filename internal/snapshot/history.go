package snapshot

import (
	"fmt"

	"holdfast/internal/wire"
)

// StoredSnapshot is one entry of History: a snapshot, its delta against
// the entry before it, and both already encoded to their wire bytes so a
// rollback or a slow new subscriber never has to re-encode on demand.
type StoredSnapshot struct {
	Tick            uint64
	Snapshot        *wire.WorldSnapshot
	Delta           *wire.WorldDelta
	EncodedSnapshot []byte
	EncodedDelta    []byte
}

// History is a bounded, tick-ordered ring of StoredSnapshot entries
// supporting rollback to any tick still held.
type History struct {
	capacity int
	entries  []StoredSnapshot
}

// NewHistory returns an empty history bounded to capacity entries.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{capacity: capacity}
}

// SetCapacity changes the bound, immediately pruning if the history is
// now over-full.
func (h *History) SetCapacity(capacity int) {
	if capacity <= 0 {
		capacity = 1
	}
	h.capacity = capacity
	h.prune()
}

// Len reports how many entries are currently held.
func (h *History) Len() int { return len(h.entries) }

// Latest returns the most recently stored entry, or nil if history is
// empty.
func (h *History) Latest() *StoredSnapshot {
	if len(h.entries) == 0 {
		return nil
	}
	return &h.entries[len(h.entries)-1]
}

// Entry finds the entry for tick via a linear scan; O(n) is acceptable
// at the bounded sizes this history holds.
func (h *History) Entry(tick uint64) (*StoredSnapshot, bool) {
	for i := range h.entries {
		if h.entries[i].Tick == tick {
			return &h.entries[i], true
		}
	}
	return nil, false
}

// Update diffs snap against the latest stored snapshot (if any), encodes
// both forms, appends the result, and prunes down to capacity.
func (h *History) Update(snap *wire.WorldSnapshot) *StoredSnapshot {
	var previous *wire.WorldSnapshot
	if latest := h.Latest(); latest != nil {
		previous = latest.Snapshot
	}
	delta := Diff(previous, snap)

	entry := StoredSnapshot{
		Tick:            snap.Header.Tick,
		Snapshot:        snap,
		Delta:           delta,
		EncodedSnapshot: wire.EncodeSnapshot(snap, false),
		EncodedDelta:    wire.EncodeDelta(delta),
	}
	h.entries = append(h.entries, entry)
	h.prune()
	return &h.entries[len(h.entries)-1]
}

// ResetToEntry truncates history to drop every entry after tick and
// returns the entry at tick. It is the caller's job to then rebuild the
// world from that entry's snapshot; this call only fixes up history's
// own bookkeeping so the next Update computes its delta against the
// rolled-back tick rather than whatever used to come after it.
func (h *History) ResetToEntry(tick uint64) (*StoredSnapshot, error) {
	idx := -1
	for i := range h.entries {
		if h.entries[i].Tick == tick {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("snapshot: no history entry for tick %d", tick)
	}
	h.entries = h.entries[:idx+1]
	return &h.entries[idx], nil
}

func (h *History) prune() {
	if len(h.entries) <= h.capacity {
		return
	}
	drop := len(h.entries) - h.capacity
	h.entries = h.entries[drop:]
}
