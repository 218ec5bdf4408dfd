package native

import (
	"sync"

	"github.com/gogpu/tagframe"
)

type trackKey struct {
	frame uint32
	uid   uint64
}

// Tracker records which native resources are referenced by tags of which
// frame. A host checks a tag with IsTracked before destroying the resource it
// published for it.
//
// Tracker is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	entries map[trackKey]any
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[trackKey]any)}
}

// Start registers res for the tag uid of frame. A second start for the same
// key replaces the first and logs a warning.
func (t *Tracker) Start(frame uint32, uid uint64, res *tagframe.Resource) {
	if res == nil || res.Native == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	key := trackKey{frame, uid}
	if _, ok := t.entries[key]; ok {
		slogger().Warn("native: resource already tracked",
			"frame", frame, "uid", uid)
	}
	t.entries[key] = res.Native
}

// Stop removes the registration for the tag uid of frame. Unknown keys are
// ignored.
func (t *Tracker) Stop(frame uint32, uid uint64, _ *tagframe.Resource) {
	t.mu.Lock()
	delete(t.entries, trackKey{frame, uid})
	t.mu.Unlock()
}

// Tracked returns the number of live registrations.
func (t *Tracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// TrackedForFrame returns the number of live registrations of frame.
func (t *Tracker) TrackedForFrame(frame uint32) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k := range t.entries {
		if k.frame == frame {
			n++
		}
	}
	return n
}

// IsTracked reports whether the tag uid of frame holds a registration.
// Registrations are keyed by tag, not by handle: backends may hand out
// handles that compare equal.
func (t *Tracker) IsTracked(frame uint32, uid uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[trackKey{frame, uid}]
	return ok
}

// Lookup returns the native handle registered for the tag uid of frame.
func (t *Tracker) Lookup(frame uint32, uid uint64) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	native, ok := t.entries[trackKey{frame, uid}]
	return native, ok
}
