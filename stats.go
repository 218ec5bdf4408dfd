package tagframe

import (
	"fmt"
	"sync/atomic"
)

// StoreStats contains Store activity counters.
type StoreStats struct {
	// TagsSet is the number of successful SetTag calls.
	TagsSet uint64

	// Clones is the number of volatile tags copied into clones.
	Clones uint64

	// RecycleScans is the number of backward recycling scans performed.
	RecycleScans uint64

	// ReclaimedSlots is the number of slots reclaimed by recycling scans.
	ReclaimedSlots uint64

	// RecycledTags is the number of entries released from reclaimed or
	// reused slots.
	RecycledTags uint64

	// RequiredTags is the number of distinct (viewport, type, lifecycle)
	// requirements recorded so far.
	RequiredTags int

	// HistoryDepth is the number of frame slots.
	HistoryDepth int
}

// String returns a human-readable summary.
func (s StoreStats) String() string {
	return fmt.Sprintf("Tags[%d set, %d cloned, %d recycled; %d scans reclaimed %d/%d-slot history; %d required]",
		s.TagsSet,
		s.Clones,
		s.RecycledTags,
		s.RecycleScans,
		s.ReclaimedSlots,
		s.HistoryDepth,
		s.RequiredTags)
}

// storeCounters are the atomic counters behind StoreStats.
type storeCounters struct {
	tagsSet        atomic.Uint64
	clones         atomic.Uint64
	recycleScans   atomic.Uint64
	reclaimedSlots atomic.Uint64
	recycledTags   atomic.Uint64
}

// Stats returns current store statistics.
func (s *Store) Stats() StoreStats {
	return StoreStats{
		TagsSet:        s.stats.tagsSet.Load(),
		Clones:         s.stats.clones.Load(),
		RecycleScans:   s.stats.recycleScans.Load(),
		ReclaimedSlots: s.stats.reclaimedSlots.Load(),
		RecycledTags:   s.stats.recycledTags.Load(),
		RequiredTags:   s.required.len(),
		HistoryDepth:   len(s.slots),
	}
}
