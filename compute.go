package tagframe

import (
	"math"
	"sync/atomic"
)

// CommandBuffer is an opaque command recording context owned by the caller.
// The store only passes it through to Compute.
type CommandBuffer any

// Compute is the GPU capability the store calls through. It never schedules
// work itself; everything is recorded into the caller's command buffer.
//
// Implementations must be safe for concurrent use.
type Compute interface {
	// RenderAPI returns the graphics API of the device.
	RenderAPI() RenderAPI

	// ResourceState converts a native state value to a ResourceState.
	ResourceState(native uint32) (ResourceState, error)

	// NativeResourceState converts a ResourceState to a native state value.
	NativeResourceState(state ResourceState) (uint32, error)

	// TransitionResources records the transitions into cmd. The reverse
	// transitions are added to reverse so they run when the caller's scope
	// ends.
	TransitionResources(cmd CommandBuffer, transitions []ResourceTransition, reverse *ScopedTasks) error

	// CopyResource records a full copy of src into dst.
	CopyResource(cmd CommandBuffer, dst, src *Resource) error

	// StartTrackingResource registers res as in use by the tag uid of frame.
	StartTrackingResource(frame uint32, uid uint64, res *Resource)

	// StopTrackingResource removes a registration made by StartTrackingResource.
	// It must tolerate registrations that were never made.
	StopTrackingResource(frame uint32, uid uint64, res *Resource)
}

// ResourcePool hands out clone resources.
//
// Implementations must be safe for concurrent use.
type ResourcePool interface {
	// Allocate returns a resource shaped like src, in the copy destination
	// state. The label names the clone for debugging.
	Allocate(src *Resource, label string) (*Resource, error)

	// Recycle returns a resource obtained from Allocate. Recycle(nil) is a
	// no-op.
	Recycle(res *Resource)
}

// FrameUnset is the application frame value of a FrameSource that has not
// seen a frame yet.
const FrameUnset = math.MaxUint32

// FrameSource reports the application frame currently being presented.
// The store reads it only to decide when to recycle old frames.
type FrameSource interface {
	PresentFrame() uint32
}

// FrameSourceFunc adapts a function to FrameSource.
type FrameSourceFunc func() uint32

// PresentFrame calls f.
func (f FrameSourceFunc) PresentFrame() uint32 { return f() }

// FrameCounter is a FrameSource backed by an atomic counter. The zero value
// reports frame 0; use NewFrameCounter for a counter that starts unset.
//
// FrameCounter is safe for concurrent use.
type FrameCounter struct {
	frame atomic.Uint32
}

// NewFrameCounter returns a counter that reports FrameUnset until Set or
// Advance is called.
func NewFrameCounter() *FrameCounter {
	c := &FrameCounter{}
	c.frame.Store(FrameUnset)
	return c
}

// PresentFrame implements FrameSource.
func (c *FrameCounter) PresentFrame() uint32 { return c.frame.Load() }

// Set stores the current application frame.
func (c *FrameCounter) Set(frame uint32) { c.frame.Store(frame) }

// Advance increments the frame and returns the new value. An unset counter
// advances to frame 0.
func (c *FrameCounter) Advance() uint32 { return c.frame.Add(1) }
