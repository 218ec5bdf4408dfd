package native

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/tagframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStoreWithNativeBackend drives a tagframe.Store through the HAL
// backend: a volatile tag is copied into a pooled clone, read back, and the
// clone returns to the pool once the frame is recycled.
func TestStoreWithNativeBackend(t *testing.T) {
	device := newCountingDevice(t)
	pool, err := NewClonePool(device, PoolConfig{})
	require.NoError(t, err)
	defer pool.Close()

	compute := NewCompute(Config{API: tagframe.RenderAPIVulkan})
	frames := tagframe.NewFrameCounter()
	store, err := tagframe.NewStore(compute, pool,
		tagframe.WithHistoryDepth(tagframe.MinHistoryDepth),
		tagframe.WithFrameSource(frames))
	require.NoError(t, err)
	defer store.Close()

	const viewport = 0
	store.GetTag(tagframe.Query{
		Type:     tagframe.BufferTypeMotionVectors,
		Frame:    0,
		Viewport: viewport,
		Evaluate: true,
		Optional: true,
	})
	require.True(t, store.IsRequired(viewport, tagframe.BufferTypeMotionVectors, tagframe.ValidUntilEvaluate))

	src := newTexture(t, device, 1920, 1080, 1, gputypes.TextureUsageRenderAttachment)
	enc := &recordingEncoder{}
	err = store.SetTag(1, viewport, tagframe.Tag{
		Type:      tagframe.BufferTypeMotionVectors,
		Resource:  src,
		Lifecycle: tagframe.OnlyValidNow,
	}, enc)
	require.NoError(t, err)

	// Forward and reverse barrier around one copy.
	require.Len(t, enc.barriers, 2)
	require.Len(t, enc.copies, 1)
	assert.Equal(t, gputypes.TextureUsageCopySrc, enc.barriers[0][0].Usage.NewUsage)
	assert.Equal(t, gputypes.TextureUsageRenderAttachment, enc.barriers[1][0].Usage.NewUsage)

	entry, ok := store.GetTag(tagframe.Query{
		Type:     tagframe.BufferTypeMotionVectors,
		Frame:    1,
		Viewport: viewport,
		Evaluate: true,
	})
	require.True(t, ok)
	require.NotNil(t, entry.Clone)
	assert.Nil(t, entry.Primary.Native, "volatile original must not be handed out")
	cloneID := textureID(entry.Active().Native)
	assert.NotZero(t, cloneID)
	assert.NotEqual(t, textureID(src.Native), cloneID, "retrieved resource must be the clone")
	assert.Contains(t, device.created, "tagframe.tag.MotionVectors.volatile.0")
	assert.Equal(t, 1, pool.Stats().Live)
	assert.Zero(t, compute.Tracker().Tracked(), "copied tags do not reference the original")

	// Presenting frame 3 makes frame 1 old enough to recycle.
	frames.Set(3)
	require.NoError(t, store.SetTag(3, viewport, tagframe.Tag{
		Type:      tagframe.BufferTypeDepth,
		Resource:  src,
		Lifecycle: tagframe.ValidUntilPresent,
	}, enc))

	_, ok = store.GetTag(tagframe.Query{Type: tagframe.BufferTypeMotionVectors, Frame: 1, Optional: true})
	assert.False(t, ok)
	stats := pool.Stats()
	assert.Zero(t, stats.Live)
	assert.Equal(t, 1, stats.Idle)

	// Tags valid until present reference the original in place.
	assert.Equal(t, 1, compute.Tracker().TrackedForFrame(3))
	assert.True(t, compute.Tracker().IsTracked(3, tagframe.UID(tagframe.BufferTypeDepth, viewport)))
	assert.False(t, compute.Tracker().IsTracked(3, tagframe.UID(tagframe.BufferTypeMotionVectors, viewport)))
}
