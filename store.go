package tagframe

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Store keeps resource tags for a circular history of frames.
//
// Each frame slot has its own reader/writer lock: GetTag takes it for
// reading, SetTag and recycling for writing. Tags of different frames never
// contend.
//
// Store is safe for concurrent use. A SetTag racing Close either lands before
// Close reaches its slot, and is released by Close, or returns
// ErrStoreClosed.
type Store struct {
	compute Compute
	pool    ResourcePool
	frames  FrameSource
	api     RenderAPI

	slots []frameSlot
	mask  uint32

	required *requiredTags

	// recycleMu deduplicates recycling scans; lastAppFrame is guarded by it.
	recycleMu    sync.Mutex
	lastAppFrame uint32

	closed    atomic.Bool
	closeOnce sync.Once

	stats storeCounters
}

// NewStore creates a store that records GPU work through compute and
// allocates clones from pool.
func NewStore(compute Compute, pool ResourcePool, opts ...Option) (*Store, error) {
	if compute == nil {
		return nil, ErrNilCompute
	}
	if pool == nil {
		return nil, ErrNilPool
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !validHistoryDepth(o.historyDepth) {
		return nil, fmt.Errorf("%w: %d (need a power of two >= %d)",
			ErrInvalidHistoryDepth, o.historyDepth, MinHistoryDepth)
	}

	//nolint:gosec // G115: historyDepth validated above
	return &Store{
		compute:      compute,
		pool:         pool,
		frames:       o.frames,
		api:          compute.RenderAPI(),
		slots:        newFrameSlots(o.historyDepth),
		mask:         uint32(o.historyDepth - 1),
		required:     newRequiredTags(),
		lastAppFrame: FrameUnset,
	}, nil
}

// SetTag publishes tag for viewport id in frame.
//
// If consumers have asked for this tag in a way the resource's lifecycle
// cannot satisfy, the resource is copied into a pooled clone using cmd; the
// copy is recorded with the source transitioned to the copy source state and
// back again. A tag with a nil resource clears the entry.
//
// SetTag returns ErrMissingResourceState if the resource state is required
// but not provided, ErrMissingInputParameter if a copy is needed and cmd is
// nil, or the wrapped error of a failed pool or compute operation. The
// previous entry is left untouched by the first two.
func (s *Store) SetTag(frame, id uint32, tag Tag, cmd CommandBuffer) error {
	return s.setTag(frame, id, &tag, cmd, false)
}

// SetLocalTag is SetTag for a tag that is also passed directly to the
// consuming evaluate call. Local tags are not copied for evaluate-time
// consumers and are not registered for tracking.
func (s *Store) SetLocalTag(frame, id uint32, tag Tag, cmd CommandBuffer) error {
	return s.setTag(frame, id, &tag, cmd, true)
}

// SetTags publishes several tags for viewport id in frame. It stops at the
// first failure.
func (s *Store) SetTags(frame, id uint32, tags []Tag, cmd CommandBuffer) error {
	for i := range tags {
		if err := s.setTag(frame, id, &tags[i], cmd, false); err != nil {
			return fmt.Errorf("tag %s: %w", tags[i].Type, err)
		}
	}
	return nil
}

func (s *Store) setTag(frame, id uint32, tag *Tag, cmd CommandBuffer, local bool) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	s.recycleTags()

	res := tag.Resource
	hasResource := res.IsValid()
	makeCopy := false
	if hasResource {
		if !s.api.HasImplicitStates() && res.State == StateUnknown {
			Logger().Error("tagframe: resource state must be provided",
				"type", tag.Type, "viewport", id, "frame", frame)
			return ErrMissingResourceState
		}
		// Write targets are tagged in place: plugins write into the
		// engine's resource. Resources valid until present outlive every
		// consumer.
		if !tag.Type.IsWriteTarget() && tag.Lifecycle != ValidUntilPresent {
			makeCopy = s.required.needsCopy(id, tag.Type, tag.Lifecycle, local)
		}
		if makeCopy && cmd == nil {
			Logger().Error("tagframe: command buffer is required when tagging volatile resources",
				"type", tag.Type, "viewport", id, "frame", frame)
			return ErrMissingInputParameter
		}
	}

	uid := UID(tag.Type, id)
	err := s.writeFrame(frame, func(slot *frameSlot) error {
		// Close marks the store closed before it locks any slot.
		if s.closed.Load() {
			return ErrStoreClosed
		}
		if slot.frame != frame {
			// Leftovers of the frame that used this slot before.
			s.recycleSlot(slot)
			slot.frame = frame
		}

		entry, ok := slot.tags[uid]
		if !ok {
			entry = &TagEntry{}
			slot.tags[uid] = entry
		}
		s.releaseEntry(frame, uid, entry)

		if hasResource {
			entry.Primary = *res
			if s.api.HasImplicitStates() {
				entry.Primary.State = uint32(StateCommon)
			}
			if makeCopy {
				if err := s.copyVolatile(entry, tag.Type, id, cmd); err != nil {
					*entry = TagEntry{}
					return err
				}
			}
		}

		if tag.Extent != nil {
			entry.Extent = *tag.Extent
		}
		if tag.Precision != nil {
			entry.Precision = *tag.Precision
		}

		if entry.Primary.Native != nil && !local {
			s.compute.StartTrackingResource(frame, uid, &entry.Primary)
		}
		return nil
	})
	if err != nil {
		Logger().Error("tagframe: set tag failed",
			"type", tag.Type, "viewport", id, "frame", frame, "error", err)
		return err
	}

	s.stats.tagsSet.Add(1)
	Logger().Debug("tagframe: tag set",
		"type", tag.Type, "viewport", id, "frame", frame,
		"lifecycle", tag.Lifecycle, "local", local, "copied", makeCopy)
	return nil
}

// copyVolatile copies entry.Primary into a pooled clone and clears the
// primary handle. The source is transitioned to the copy source state for
// the copy and restored before copyVolatile returns.
func (s *Store) copyVolatile(entry *TagEntry, t BufferType, id uint32, cmd CommandBuffer) error {
	src := entry.Primary

	clone, err := s.pool.Allocate(&src, fmt.Sprintf("tagframe.tag.%s.volatile.%d", t, id))
	if err != nil {
		return fmt.Errorf("allocate clone: %w", err)
	}

	srcState, err := s.compute.ResourceState(src.State)
	if err != nil {
		s.pool.Recycle(clone)
		return fmt.Errorf("source state: %w", err)
	}
	// Clones are handed out in the copy destination state.
	cloneState, err := s.compute.NativeResourceState(StateCopyDestination)
	if err != nil {
		s.pool.Recycle(clone)
		return fmt.Errorf("clone state: %w", err)
	}

	var reverse ScopedTasks
	defer reverse.Run()

	transitions := []ResourceTransition{
		{Resource: &src, To: StateCopySource, From: srcState},
	}
	if err := s.compute.TransitionResources(cmd, transitions, &reverse); err != nil {
		s.pool.Recycle(clone)
		return fmt.Errorf("transition source: %w", err)
	}
	if err := s.compute.CopyResource(cmd, clone, &src); err != nil {
		s.pool.Recycle(clone)
		return fmt.Errorf("copy resource: %w", err)
	}

	// The original is not reference counted and may go away at any time,
	// so nobody may read it through this entry.
	entry.Primary.State = cloneState
	entry.Primary.Native = nil
	entry.Clone = clone
	s.stats.clones.Add(1)
	return nil
}

// Query describes a GetTag lookup.
type Query struct {
	Type     BufferType
	Frame    uint32
	Viewport uint32

	// Inputs are the local tags passed with an evaluate call. A matching
	// local tag always wins over the frame store.
	Inputs []Tag

	// Evaluate marks a lookup made from a plugin's evaluate call rather than
	// a presentation hook. A non-nil Inputs implies Evaluate.
	Evaluate bool

	// Optional suppresses logging when the tag is absent.
	Optional bool
}

// GetTag looks up a tag. It returns false when the tag is absent.
//
// Every lookup records the (viewport, type) as required, at evaluate or
// present lifecycle depending on the caller, so future SetTag calls know
// whether the resource must be copied.
func (s *Store) GetTag(q Query) (TagEntry, bool) {
	evaluate := q.Evaluate || q.Inputs != nil

	for i := range q.Inputs {
		in := &q.Inputs[i]
		if in.Type != q.Type {
			continue
		}
		var entry TagEntry
		if in.Resource != nil {
			entry.Primary = *in.Resource
		}
		if in.Extent != nil {
			entry.Extent = *in.Extent
		}
		if in.Precision != nil {
			entry.Precision = *in.Precision
		}
		s.required.add(q.Viewport, q.Type, ValidUntilEvaluate)
		return entry, true
	}

	if s.closed.Load() {
		return TagEntry{}, false
	}

	lifecycle := ValidUntilPresent
	if evaluate {
		lifecycle = ValidUntilEvaluate
	}
	defer s.required.add(q.Viewport, q.Type, lifecycle)

	var (
		entry TagEntry
		found bool
	)
	uid := UID(q.Type, q.Viewport)
	frameSet := s.readFrame(q.Frame, func(tags map[uint64]*TagEntry) {
		if e, ok := tags[uid]; ok {
			entry = *e
			found = true
		}
	})

	switch {
	case !frameSet:
		if !q.Optional {
			Logger().Info("tagframe: resource tags for frame not set yet", "frame", q.Frame)
		}
	case !found:
		if !q.Optional {
			Logger().Error("tagframe: tag not set",
				"type", q.Type, "frame", q.Frame, "viewport", q.Viewport)
		}
	default:
		Logger().Debug("tagframe: tag retrieved",
			"type", q.Type, "frame", q.Frame, "viewport", q.Viewport,
			"cloned", entry.Clone != nil)
	}
	return entry, found
}

// IsRequired reports whether some consumer has looked up the tag for
// viewport with the given lifecycle.
func (s *Store) IsRequired(viewport uint32, t BufferType, l ResourceLifecycle) bool {
	return s.required.has(viewport, t, l)
}

// HistoryDepth returns the number of frame slots.
func (s *Store) HistoryDepth() int {
	return len(s.slots)
}

// Close forgets all requirements and releases every clone and tracking
// registration in the history. Close is idempotent and may run concurrently
// with SetTag and GetTag.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.required.clear()
		for i := range s.slots {
			slot := &s.slots[i]
			slot.mu.Lock()
			s.recycleSlot(slot)
			slot.mu.Unlock()
		}
	})
}
