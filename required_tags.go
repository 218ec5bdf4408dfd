package tagframe

import "sync"

// requiredTag is one (viewport, buffer type, lifecycle) combination some
// consumer has asked for.
type requiredTag struct {
	viewport  uint32
	bufType   BufferType
	lifecycle ResourceLifecycle
}

// requiredTags records which tags consumers have requested. It decides
// whether a later SetTag must copy its resource.
//
// The lock is never held while calling into Compute or ResourcePool.
type requiredTags struct {
	mu   sync.Mutex
	tags map[requiredTag]struct{}
}

func newRequiredTags() *requiredTags {
	return &requiredTags{tags: make(map[requiredTag]struct{})}
}

// add records a requirement. Duplicates are no-ops.
func (r *requiredTags) add(viewport uint32, t BufferType, l ResourceLifecycle) {
	r.mu.Lock()
	r.tags[requiredTag{viewport, t, l}] = struct{}{}
	r.mu.Unlock()
}

// has reports whether the requirement was recorded.
func (r *requiredTags) has(viewport uint32, t BufferType, l ResourceLifecycle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tags[requiredTag{viewport, t, l}]
	return ok
}

// needsCopy reports whether a tag published with lifecycle must be copied:
// it is required at present time, or required at evaluate time while only
// valid now and not local.
func (r *requiredTags) needsCopy(viewport uint32, t BufferType, lifecycle ResourceLifecycle, local bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, onPresent := r.tags[requiredTag{viewport, t, ValidUntilPresent}]
	_, onEvaluate := r.tags[requiredTag{viewport, t, ValidUntilEvaluate}]
	return onPresent || (onEvaluate && lifecycle == OnlyValidNow && !local)
}

// len returns the number of distinct requirements.
func (r *requiredTags) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tags)
}

// clear forgets every requirement.
func (r *requiredTags) clear() {
	r.mu.Lock()
	clear(r.tags)
	r.mu.Unlock()
}
