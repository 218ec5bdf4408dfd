// Package tagframe implements per-frame GPU resource tagging for a rendering
// feature-plugin host.
//
// # Overview
//
// Producers (the host render pipeline and cooperating plugins) publish
// resource tags: references to GPU resources annotated with a semantic
// [BufferType], a viewport id and a logical frame number. Consumers (feature
// plugins running later in the same or a subsequent frame) retrieve them from
// any goroutine.
//
//	store, err := tagframe.NewStore(compute, pool,
//	    tagframe.WithFrameSource(presentCounter))
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	// Render thread
//	err = store.SetTag(frame, viewport, tagframe.Tag{
//	    Type:      tagframe.BufferTypeDepth,
//	    Resource:  &depth,
//	    Lifecycle: tagframe.OnlyValidNow,
//	}, cmd)
//
//	// Plugin evaluate
//	entry, ok := store.GetTag(tagframe.Query{
//	    Type:     tagframe.BufferTypeDepth,
//	    Frame:    frame,
//	    Viewport: viewport,
//	    Evaluate: true,
//	})
//
// # Frame History
//
// Tags live in a fixed circular history of frame slots. A slot is selected by
// frame number modulo the history depth and is stamped with the frame it
// currently holds, so a lookup for a frame that has since been overwritten
// reports the tag as absent instead of returning stale data.
//
// # Volatile Tags
//
// A tag whose resource does not live until its consumer runs is copied into a
// pooled clone at publish time. Whether a copy is needed is decided from the
// lookups consumers have made so far: a tag requested at present time is always
// copied, a tag requested at evaluate time is copied when it is published as
// [OnlyValidNow] and is not local. Write targets such as the backbuffer are
// never copied.
//
// # Recycling
//
// Clones and tracking registrations of old frames are released by an amortized
// backward sweep that runs at most once per application frame, as reported by
// the injected [FrameSource].
//
// # Backends
//
// GPU operations go through the [Compute] and [ResourcePool] interfaces. The
// backend/native package implements them on top of gogpu/wgpu HAL.
package tagframe
