// Package native implements the tagframe GPU interfaces on top of the
// gogpu/wgpu hardware abstraction layer.
//
// Compute maps tagframe resource states onto texture usages and records
// barriers and copies into a HAL command encoder. ClonePool allocates the
// textures that hold copies of volatile tags and keeps released ones around
// for reuse under a memory budget.
//
// Resources passed to this package must carry a hal.Texture in
// tagframe.Resource.Native. Native state values are gputypes.TextureUsage
// bits.
//
// Example:
//
//	compute := native.NewCompute(native.Config{API: tagframe.RenderAPIVulkan})
//	pool, err := native.NewClonePool(device, native.PoolConfig{BudgetMB: 128})
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	store, err := tagframe.NewStore(compute, pool)
package native
