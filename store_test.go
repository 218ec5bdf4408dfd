package tagframe

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var cmd = &fakeCommandBuffer{}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		compute Compute
		pool    ResourcePool
		opts    []Option
		wantErr error
	}{
		{"defaults", newFakeCompute(RenderAPIVulkan), newFakePool(), nil, nil},
		{"depth 16", newFakeCompute(RenderAPIVulkan), newFakePool(), []Option{WithHistoryDepth(16)}, nil},
		{"depth 4", newFakeCompute(RenderAPIVulkan), newFakePool(), []Option{WithHistoryDepth(4)}, nil},
		{"depth 2", newFakeCompute(RenderAPIVulkan), newFakePool(), []Option{WithHistoryDepth(2)}, ErrInvalidHistoryDepth},
		{"depth 6", newFakeCompute(RenderAPIVulkan), newFakePool(), []Option{WithHistoryDepth(6)}, ErrInvalidHistoryDepth},
		{"depth 0", newFakeCompute(RenderAPIVulkan), newFakePool(), []Option{WithHistoryDepth(0)}, ErrInvalidHistoryDepth},
		{"nil compute", nil, newFakePool(), nil, ErrNilCompute},
		{"nil pool", newFakeCompute(RenderAPIVulkan), nil, nil, ErrNilPool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.compute, tt.pool, tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewStore() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer store.Close()
			if store.HistoryDepth()&(store.HistoryDepth()-1) != 0 {
				t.Errorf("HistoryDepth() = %d, want power of two", store.HistoryDepth())
			}
		})
	}
}

func TestSlotsStartReclaimed(t *testing.T) {
	store, _, _ := newTestStore(t)
	for i := range store.slots {
		slot := &store.slots[i]
		if got := slot.frame & store.mask; got != uint32(i) {
			t.Errorf("slot %d stamped %d, position %d", i, slot.frame, got)
		}
		if slot.frame == uint32(i) {
			t.Errorf("slot %d claims frame %d before any SetTag", i, i)
		}
	}
	if _, ok := store.GetTag(Query{Type: BufferTypeDepth, Frame: 0, Optional: true}); ok {
		t.Error("GetTag on a fresh store found a tag")
	}
}

func TestEndToEnd(t *testing.T) {
	store, compute, pool := newTestStore(t)

	r1 := texture("R1", StatePresent)
	if err := store.SetTag(5, 0, Tag{Type: BufferTypeBackbuffer, Resource: r1, Lifecycle: OnlyValidNow}, cmd); err != nil {
		t.Fatalf("SetTag(backbuffer) = %v", err)
	}
	entry, ok := store.GetTag(Query{Type: BufferTypeBackbuffer, Frame: 5, Viewport: 0})
	if !ok {
		t.Fatal("backbuffer tag not found")
	}
	if entry.Clone != nil {
		t.Error("backbuffer was cloned")
	}
	if got := entry.Active(); got == nil || got.Native != r1.Native {
		t.Errorf("Active() = %+v, want R1", got)
	}

	// An evaluate-time lookup before the tag exists marks it required.
	if _, ok := store.GetTag(Query{Type: BufferTypeAmbientOcclusionNoisy, Frame: 5, Viewport: 0, Evaluate: true, Optional: true}); ok {
		t.Fatal("AO tag found before it was set")
	}
	if !store.IsRequired(0, BufferTypeAmbientOcclusionNoisy, ValidUntilEvaluate) {
		t.Fatal("evaluate lookup did not record a requirement")
	}

	r2 := texture("R2", StateColorAttachment)
	if err := store.SetTag(5, 0, Tag{Type: BufferTypeAmbientOcclusionNoisy, Resource: r2, Lifecycle: OnlyValidNow}, cmd); err != nil {
		t.Fatalf("SetTag(AO) = %v", err)
	}
	entry, ok = store.GetTag(Query{Type: BufferTypeAmbientOcclusionNoisy, Frame: 5, Viewport: 0, Evaluate: true})
	if !ok {
		t.Fatal("AO tag not found")
	}
	if entry.Clone == nil {
		t.Fatal("volatile AO tag was not cloned")
	}
	if entry.Primary.Native != nil {
		t.Error("primary handle of a cloned tag is still exposed")
	}
	if got := entry.Active(); got.Native == r2.Native {
		t.Error("Active() returned the original resource")
	}
	if r2.Native == nil || r2.State != uint32(StateColorAttachment) {
		t.Errorf("caller's resource was modified: %+v", r2)
	}

	// The source goes to copy source for the copy and back afterwards.
	want := []transitionRecord{
		{r2.Native, StateCopySource, StateColorAttachment},
		{r2.Native, StateColorAttachment, StateCopySource},
	}
	if diff := cmp.Diff(want, compute.transitionLog()); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
	if compute.copies != 1 {
		t.Errorf("copies = %d, want 1", compute.copies)
	}
	if pool.liveCount() != 1 {
		t.Errorf("live clones = %d, want 1", pool.liveCount())
	}
	if stats := store.Stats(); stats.Clones != 1 || stats.TagsSet != 2 {
		t.Errorf("Stats() = %v", stats)
	}
}

func TestCopyPolicy(t *testing.T) {
	tests := []struct {
		name      string
		bufType   BufferType
		required  []ResourceLifecycle
		lifecycle ResourceLifecycle
		local     bool
		wantClone bool
	}{
		{"not required", BufferTypeDepth, nil, OnlyValidNow, false, false},
		{"evaluate, only valid now", BufferTypeDepth, []ResourceLifecycle{ValidUntilEvaluate}, OnlyValidNow, false, true},
		{"evaluate, only valid now, local", BufferTypeDepth, []ResourceLifecycle{ValidUntilEvaluate}, OnlyValidNow, true, false},
		{"evaluate, valid until evaluate", BufferTypeDepth, []ResourceLifecycle{ValidUntilEvaluate}, ValidUntilEvaluate, false, false},
		{"present, only valid now", BufferTypeDepth, []ResourceLifecycle{ValidUntilPresent}, OnlyValidNow, false, true},
		{"present, only valid now, local", BufferTypeDepth, []ResourceLifecycle{ValidUntilPresent}, OnlyValidNow, true, true},
		{"present, valid until evaluate", BufferTypeDepth, []ResourceLifecycle{ValidUntilPresent}, ValidUntilEvaluate, false, true},
		{"present, valid until present", BufferTypeDepth, []ResourceLifecycle{ValidUntilPresent}, ValidUntilPresent, false, false},
		{"backbuffer", BufferTypeBackbuffer, []ResourceLifecycle{ValidUntilEvaluate, ValidUntilPresent}, OnlyValidNow, false, false},
		{"scaling output", BufferTypeScalingOutputColor, []ResourceLifecycle{ValidUntilEvaluate}, OnlyValidNow, false, false},
		{"AO denoised", BufferTypeAmbientOcclusionDenoised, []ResourceLifecycle{ValidUntilPresent}, OnlyValidNow, false, false},
		{"shadow denoised", BufferTypeShadowDenoised, []ResourceLifecycle{ValidUntilPresent}, OnlyValidNow, false, false},
		{"AO noisy", BufferTypeAmbientOcclusionNoisy, []ResourceLifecycle{ValidUntilEvaluate}, OnlyValidNow, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, pool := newTestStore(t)
			const viewport = 3
			for _, l := range tt.required {
				store.GetTag(Query{Type: tt.bufType, Frame: 1, Viewport: viewport, Evaluate: l == ValidUntilEvaluate, Optional: true})
			}

			res := texture("src", StateTextureRead)
			tag := Tag{Type: tt.bufType, Resource: res, Lifecycle: tt.lifecycle}
			var err error
			if tt.local {
				err = store.SetLocalTag(1, viewport, tag, cmd)
			} else {
				err = store.SetTag(1, viewport, tag, cmd)
			}
			if err != nil {
				t.Fatalf("SetTag() = %v", err)
			}

			entry, ok := store.GetTag(Query{Type: tt.bufType, Frame: 1, Viewport: viewport, Optional: true})
			if !ok {
				t.Fatal("tag not found")
			}
			if got := entry.Clone != nil; got != tt.wantClone {
				t.Errorf("cloned = %v, want %v", got, tt.wantClone)
			}
			if tt.wantClone {
				if entry.Active().Native == res.Native {
					t.Error("cloned tag exposes the original resource")
				}
			} else if entry.Active().Native != res.Native {
				t.Error("uncloned tag does not expose the original resource")
			}
			if got, want := pool.liveCount(), map[bool]int{true: 1, false: 0}[tt.wantClone]; got != want {
				t.Errorf("live clones = %d, want %d", got, want)
			}
		})
	}
}

func TestSetTagMissingResourceState(t *testing.T) {
	store, _, pool := newTestStore(t)
	store.GetTag(Query{Type: BufferTypeDepth, Frame: 2, Evaluate: true, Optional: true})

	if err := store.SetTag(2, 0, Tag{Type: BufferTypeDepth, Resource: texture("first", StateDepthStencil)}, cmd); err != nil {
		t.Fatalf("SetTag() = %v", err)
	}
	before, _ := store.GetTag(Query{Type: BufferTypeDepth, Frame: 2, Optional: true})
	if before.Clone == nil {
		t.Fatal("expected a clone")
	}

	bad := texture("second", StateCommon)
	bad.State = StateUnknown
	err := store.SetTag(2, 0, Tag{Type: BufferTypeDepth, Resource: bad, Extent: &Extent{Width: 1, Height: 1}}, cmd)
	if !errors.Is(err, ErrMissingResourceState) {
		t.Fatalf("SetTag() = %v, want ErrMissingResourceState", err)
	}

	after, ok := store.GetTag(Query{Type: BufferTypeDepth, Frame: 2, Optional: true})
	if !ok {
		t.Fatal("entry disappeared")
	}
	if after.Clone != before.Clone {
		t.Error("entry clone changed after a rejected SetTag")
	}
	if !after.Extent.IsEmpty() {
		t.Errorf("entry extent changed: %+v", after.Extent)
	}
	if pool.recycled != 0 || pool.liveCount() != 1 {
		t.Errorf("pool recycled=%d live=%d, want 0 and 1", pool.recycled, pool.liveCount())
	}
}

func TestSetTagImplicitStates(t *testing.T) {
	compute := newFakeCompute(RenderAPID3D11)
	store, err := NewStore(compute, newFakePool())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	res := texture("d3d11", StateCommon)
	res.State = StateUnknown
	if err := store.SetTag(1, 0, Tag{Type: BufferTypeMotionVectors, Resource: res}, cmd); err != nil {
		t.Fatalf("SetTag() = %v", err)
	}
	entry, ok := store.GetTag(Query{Type: BufferTypeMotionVectors, Frame: 1})
	if !ok {
		t.Fatal("tag not found")
	}
	if entry.Primary.State != uint32(StateCommon) {
		t.Errorf("state = %#x, want common", entry.Primary.State)
	}
}

func TestSetTagMissingCommandBuffer(t *testing.T) {
	store, compute, pool := newTestStore(t)
	store.GetTag(Query{Type: BufferTypeNormals, Frame: 4, Viewport: 1, Evaluate: true, Optional: true})

	if err := store.SetTag(4, 1, Tag{Type: BufferTypeNormals, Resource: texture("a", StateTextureRead)}, cmd); err != nil {
		t.Fatalf("SetTag() = %v", err)
	}
	before, _ := store.GetTag(Query{Type: BufferTypeNormals, Frame: 4, Viewport: 1, Optional: true})

	err := store.SetTag(4, 1, Tag{Type: BufferTypeNormals, Resource: texture("b", StateTextureRead)}, nil)
	if !errors.Is(err, ErrMissingInputParameter) {
		t.Fatalf("SetTag() = %v, want ErrMissingInputParameter", err)
	}

	after, _ := store.GetTag(Query{Type: BufferTypeNormals, Frame: 4, Viewport: 1, Optional: true})
	if after.Clone == nil || after.Clone != before.Clone {
		t.Error("previous clone was not kept")
	}
	if pool.liveCount() != 1 || pool.allocated != 1 {
		t.Errorf("pool live=%d allocated=%d, want 1 and 1", pool.liveCount(), pool.allocated)
	}
	if compute.copies != 1 {
		t.Errorf("copies = %d, want 1", compute.copies)
	}

	// Tags that need no copy do not need a command buffer.
	if err := store.SetTag(4, 1, Tag{Type: BufferTypeDepth, Resource: texture("c", StateTextureRead)}, nil); err != nil {
		t.Errorf("SetTag(no copy, nil cmd) = %v", err)
	}
}

func TestSetTagBackendFailures(t *testing.T) {
	errBoom := errors.New("device lost")
	tests := []struct {
		name  string
		setup func(*fakeCompute, *fakePool)
	}{
		{"allocate", func(_ *fakeCompute, p *fakePool) { p.allocErr = errBoom }},
		{"transition", func(c *fakeCompute, _ *fakePool) { c.transitionErr = errBoom }},
		{"copy", func(c *fakeCompute, _ *fakePool) { c.copyErr = errBoom }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, compute, pool := newTestStore(t)
			store.GetTag(Query{Type: BufferTypeAlbedo, Frame: 9, Optional: true})
			tt.setup(compute, pool)

			err := store.SetTag(9, 0, Tag{Type: BufferTypeAlbedo, Resource: texture("x", StateTextureRead)}, cmd)
			if !errors.Is(err, errBoom) {
				t.Fatalf("SetTag() = %v, want wrapped %v", err, errBoom)
			}
			entry, ok := store.GetTag(Query{Type: BufferTypeAlbedo, Frame: 9, Optional: true})
			if ok && entry.Active() != nil {
				t.Errorf("failed SetTag left a usable entry: %+v", entry)
			}
			if pool.liveCount() != 0 {
				t.Errorf("live clones = %d, want 0", pool.liveCount())
			}
			if compute.trackedCount() != 0 {
				t.Errorf("tracked = %d, want 0", compute.trackedCount())
			}
			// Any forward transition must have been reversed.
			if n := len(compute.transitionLog()); n%2 != 0 {
				t.Errorf("unbalanced transitions: %d", n)
			}
		})
	}
}

func TestSetTagOverwriteReleasesClone(t *testing.T) {
	store, _, pool := newTestStore(t)
	store.GetTag(Query{Type: BufferTypeExposure, Frame: 1, Optional: true})

	for i := range 3 {
		if err := store.SetTag(1, 0, Tag{Type: BufferTypeExposure, Resource: texture("e", StateTextureRead)}, cmd); err != nil {
			t.Fatalf("SetTag #%d = %v", i, err)
		}
	}
	if pool.allocated != 3 || pool.recycled != 2 || pool.liveCount() != 1 {
		t.Errorf("pool allocated=%d recycled=%d live=%d, want 3/2/1", pool.allocated, pool.recycled, pool.liveCount())
	}

	// A nil resource clears the tag.
	if err := store.SetTag(1, 0, Tag{Type: BufferTypeExposure}, nil); err != nil {
		t.Fatalf("SetTag(nil) = %v", err)
	}
	entry, ok := store.GetTag(Query{Type: BufferTypeExposure, Frame: 1, Optional: true})
	if !ok || entry.Active() != nil {
		t.Errorf("cleared tag = %+v, %v", entry, ok)
	}
	if pool.liveCount() != 0 {
		t.Errorf("live clones = %d, want 0", pool.liveCount())
	}
}

func TestSetTagExtentAndPrecision(t *testing.T) {
	store, _, _ := newTestStore(t)
	ext := Extent{Left: 8, Top: 4, Width: 1280, Height: 720}
	pi := PrecisionInfo{Transform: PrecisionLinear, Bias: 0.5, Scale: 2}

	if err := store.SetTag(7, 2, Tag{Type: BufferTypeDepth, Resource: texture("d", StateDepthStencil), Extent: &ext, Precision: &pi}, cmd); err != nil {
		t.Fatal(err)
	}
	entry, ok := store.GetTag(Query{Type: BufferTypeDepth, Frame: 7, Viewport: 2})
	if !ok {
		t.Fatal("tag not found")
	}
	if diff := cmp.Diff(ext, entry.Extent); diff != "" {
		t.Errorf("extent mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(pi, entry.Precision); diff != "" {
		t.Errorf("precision mismatch (-want +got):\n%s", diff)
	}
}

func TestSetTags(t *testing.T) {
	store, _, _ := newTestStore(t)
	bad := texture("bad", StateCommon)
	bad.State = StateUnknown

	tags := []Tag{
		{Type: BufferTypeDepth, Resource: texture("d", StateDepthStencil)},
		{Type: BufferTypeMotionVectors, Resource: texture("mv", StateTextureRead)},
		{Type: BufferTypeHUDLessColor, Resource: bad},
		{Type: BufferTypeExposure, Resource: texture("ex", StateTextureRead)},
	}
	err := store.SetTags(3, 0, tags, cmd)
	if !errors.Is(err, ErrMissingResourceState) {
		t.Fatalf("SetTags() = %v, want ErrMissingResourceState", err)
	}
	for _, bt := range []BufferType{BufferTypeDepth, BufferTypeMotionVectors} {
		if _, ok := store.GetTag(Query{Type: bt, Frame: 3, Optional: true}); !ok {
			t.Errorf("%s not set", bt)
		}
	}
	if _, ok := store.GetTag(Query{Type: BufferTypeExposure, Frame: 3, Optional: true}); ok {
		t.Error("tag after the failing one was set")
	}
}

func TestGetTagLocalOverride(t *testing.T) {
	store, _, _ := newTestStore(t)

	global := texture("global", StateTextureRead)
	local := texture("local", StateTextureRead)
	pi := PrecisionInfo{Transform: PrecisionLinear, Scale: 4}
	ext := Extent{Width: 64, Height: 64}
	inputs := []Tag{
		{Type: BufferTypeDepth, Resource: texture("other", StateTextureRead)},
		{Type: BufferTypeHUDLessColor, Resource: local, Extent: &ext, Precision: &pi},
	}

	// Order of the global SetTag relative to earlier lookups must not matter.
	for _, setFirst := range []bool{true, false} {
		if setFirst {
			if err := store.SetTag(5, 1, Tag{Type: BufferTypeHUDLessColor, Resource: global}, cmd); err != nil {
				t.Fatal(err)
			}
		}
		entry, ok := store.GetTag(Query{Type: BufferTypeHUDLessColor, Frame: 5, Viewport: 1, Inputs: inputs})
		if !ok {
			t.Fatal("local tag not found")
		}
		if entry.Active().Native != local.Native {
			t.Errorf("setFirst=%v: got %v, want the local tag", setFirst, entry.Active().Native)
		}
		if diff := cmp.Diff(pi, entry.Precision); diff != "" {
			t.Errorf("precision mismatch (-want +got):\n%s", diff)
		}
		if entry.Extent != ext {
			t.Errorf("extent = %+v, want %+v", entry.Extent, ext)
		}
		if !setFirst {
			if err := store.SetTag(5, 1, Tag{Type: BufferTypeHUDLessColor, Resource: global}, cmd); err != nil {
				t.Fatal(err)
			}
		}
	}

	if !store.IsRequired(1, BufferTypeHUDLessColor, ValidUntilEvaluate) {
		t.Error("local lookup did not record an evaluate requirement")
	}
	if store.IsRequired(1, BufferTypeHUDLessColor, ValidUntilPresent) {
		t.Error("local lookup recorded a present requirement")
	}
}

func TestGetTagRecordsLifecycle(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want ResourceLifecycle
	}{
		{"present hook", Query{Type: BufferTypeDepth, Viewport: 2}, ValidUntilPresent},
		{"evaluate", Query{Type: BufferTypeDepth, Viewport: 2, Evaluate: true}, ValidUntilEvaluate},
		{"empty inputs", Query{Type: BufferTypeDepth, Viewport: 2, Inputs: []Tag{}}, ValidUntilEvaluate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, _ := newTestStore(t)
			tt.q.Optional = true
			store.GetTag(tt.q)
			if !store.IsRequired(2, BufferTypeDepth, tt.want) {
				t.Errorf("requirement %s not recorded", tt.want)
			}
			if got := store.Stats().RequiredTags; got != 1 {
				t.Errorf("RequiredTags = %d, want 1", got)
			}
		})
	}
}

func TestTracking(t *testing.T) {
	store, compute, _ := newTestStore(t)

	if err := store.SetTag(6, 0, Tag{Type: BufferTypeDepth, Resource: texture("d", StateTextureRead)}, cmd); err != nil {
		t.Fatal(err)
	}
	if err := store.SetLocalTag(6, 0, Tag{Type: BufferTypeAlbedo, Resource: texture("a", StateTextureRead)}, cmd); err != nil {
		t.Fatal(err)
	}
	if !compute.isTracked(6, UID(BufferTypeDepth, 0)) {
		t.Error("global tag not tracked")
	}
	if compute.isTracked(6, UID(BufferTypeAlbedo, 0)) {
		t.Error("local tag tracked")
	}

	if err := store.SetTag(6, 0, Tag{Type: BufferTypeDepth}, cmd); err != nil {
		t.Fatal(err)
	}
	if compute.trackedCount() != 0 {
		t.Errorf("tracked = %d after clearing, want 0", compute.trackedCount())
	}
}

func TestStaleness(t *testing.T) {
	store, _, _ := newTestStore(t, WithHistoryDepth(4))
	depth := uint32(store.HistoryDepth())

	for frame := uint32(1); frame <= 3*depth; frame++ {
		if err := store.SetTag(frame, 0, Tag{Type: BufferTypeDepth, Resource: texture("d", StateTextureRead)}, cmd); err != nil {
			t.Fatalf("SetTag(%d) = %v", frame, err)
		}
		for old := uint32(1); old+depth <= frame; old++ {
			if _, ok := store.GetTag(Query{Type: BufferTypeDepth, Frame: old, Optional: true}); ok {
				t.Fatalf("after frame %d, stale frame %d still readable", frame, old)
			}
		}
		if _, ok := store.GetTag(Query{Type: BufferTypeDepth, Frame: frame}); !ok {
			t.Fatalf("frame %d not readable", frame)
		}
	}
}

func TestClose(t *testing.T) {
	compute := newFakeCompute(RenderAPIVulkan)
	pool := newFakePool()
	store, err := NewStore(compute, pool)
	if err != nil {
		t.Fatal(err)
	}

	store.GetTag(Query{Type: BufferTypeDepth, Frame: 1, Optional: true})
	for frame := uint32(1); frame <= 4; frame++ {
		if err := store.SetTag(frame, 0, Tag{Type: BufferTypeDepth, Resource: texture("d", StateTextureRead)}, cmd); err != nil {
			t.Fatal(err)
		}
		if err := store.SetTag(frame, 0, Tag{Type: BufferTypeNormals, Resource: texture("n", StateTextureRead)}, cmd); err != nil {
			t.Fatal(err)
		}
	}
	if pool.liveCount() != 4 || compute.trackedCount() != 4 {
		t.Fatalf("before Close: live=%d tracked=%d, want 4 and 4", pool.liveCount(), compute.trackedCount())
	}

	store.Close()
	store.Close()

	if pool.liveCount() != 0 {
		t.Errorf("live clones after Close = %d", pool.liveCount())
	}
	if compute.trackedCount() != 0 {
		t.Errorf("tracked after Close = %d", compute.trackedCount())
	}
	if store.IsRequired(0, BufferTypeDepth, ValidUntilPresent) {
		t.Error("requirements survived Close")
	}
	if err := store.SetTag(5, 0, Tag{Type: BufferTypeDepth}, nil); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("SetTag after Close = %v, want ErrStoreClosed", err)
	}
	if _, ok := store.GetTag(Query{Type: BufferTypeDepth, Frame: 4, Optional: true}); ok {
		t.Error("GetTag after Close found a tag")
	}
}
