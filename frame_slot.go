package tagframe

import "sync"

// frameSlot holds the tags of whichever frame currently occupies one position
// of the circular history. frame modulo the history depth always equals the
// slot's position.
type frameSlot struct {
	mu    sync.RWMutex
	frame uint32
	tags  map[uint64]*TagEntry
}

// newFrameSlots allocates n slots. Every slot starts stamped with its position
// minus n, the same "already reclaimed" stamp the recycling pass leaves.
func newFrameSlots(n int) []frameSlot {
	slots := make([]frameSlot, n)
	for i := range slots {
		//nolint:gosec // G115: n is a validated small power of two
		slots[i].frame = uint32(i) - uint32(n)
		slots[i].tags = make(map[uint64]*TagEntry)
	}
	return slots
}

// slotFor returns the slot for frame.
func (s *Store) slotFor(frame uint32) *frameSlot {
	return &s.slots[frame&s.mask]
}

// readFrame runs fn with the slot of frame locked for reading. fn is not
// called and readFrame returns false when the slot holds another frame.
func (s *Store) readFrame(frame uint32, fn func(tags map[uint64]*TagEntry)) bool {
	slot := s.slotFor(frame)
	slot.mu.RLock()
	defer slot.mu.RUnlock()

	if slot.frame != frame {
		return false
	}
	fn(slot.tags)
	return true
}

// writeFrame runs fn with the slot of frame locked for writing, whatever
// frame the slot currently holds.
func (s *Store) writeFrame(frame uint32, fn func(slot *frameSlot) error) error {
	slot := s.slotFor(frame)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return fn(slot)
}

// releaseEntry returns the entry's clone to the pool, stops tracking its
// primary resource and empties it. The slot must be write-locked.
func (s *Store) releaseEntry(frame uint32, uid uint64, e *TagEntry) {
	if e.Clone != nil {
		s.pool.Recycle(e.Clone)
	}
	s.compute.StopTrackingResource(frame, uid, &e.Primary)
	*e = TagEntry{}
}

// recycleSlot releases every entry of slot and clears its map. The slot must
// be write-locked.
func (s *Store) recycleSlot(slot *frameSlot) {
	for uid, e := range slot.tags {
		s.releaseEntry(slot.frame, uid, e)
	}
	s.stats.recycledTags.Add(uint64(len(slot.tags)))
	clear(slot.tags)
}
