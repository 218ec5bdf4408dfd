package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/tagframe"
	"github.com/gogpu/tagframe/internal/lru"
	"github.com/gogpu/wgpu/hal"
)

// Default pool limits.
const (
	// DefaultBudgetMB is the default byte budget for idle clones (256 MB).
	DefaultBudgetMB = 256

	// MinBudgetMB is the minimum allowed idle budget (16 MB).
	MinBudgetMB = 16
)

// cloneUsage is the usage every clone texture is created with.
const cloneUsage = gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageTextureBinding

// TextureDevice is the part of hal.Device the pool needs.
type TextureDevice interface {
	CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error)
	DestroyTexture(texture hal.Texture)
}

// PoolConfig holds configuration for creating a ClonePool.
type PoolConfig struct {
	// BudgetMB caps the memory held by idle clones, in megabytes.
	// Defaults to DefaultBudgetMB if below MinBudgetMB.
	BudgetMB int
}

// PoolStats contains clone pool statistics.
type PoolStats struct {
	// BudgetBytes is the idle memory budget in bytes.
	BudgetBytes uint64

	// IdleBytes is the memory held by idle clones.
	IdleBytes uint64

	// LiveBytes is the memory held by clones handed out and not recycled.
	LiveBytes uint64

	// Idle is the number of idle clones.
	Idle int

	// Live is the number of clones in use.
	Live int

	// Hits counts allocations served from the idle list.
	Hits uint64

	// Misses counts allocations that created a texture.
	Misses uint64

	// Evictions counts idle clones destroyed to stay under budget.
	Evictions uint64
}

// String returns a human-readable string of pool stats.
func (s PoolStats) String() string {
	return fmt.Sprintf("ClonePool[%d live (%d MB), %d idle (%d/%d MB), %d hits, %d misses, %d evictions]",
		s.Live,
		s.LiveBytes/(1024*1024),
		s.Idle,
		s.IdleBytes/(1024*1024),
		s.BudgetBytes/(1024*1024),
		s.Hits,
		s.Misses,
		s.Evictions)
}

// cloneKey identifies interchangeable clones.
type cloneKey struct {
	width  uint32
	height uint32
	mips   uint32
	format gputypes.TextureFormat
}

// clone is a texture owned by the pool.
type clone struct {
	key       cloneKey
	texture   hal.Texture
	sizeBytes uint64
	res       *tagframe.Resource
}

// ClonePool implements tagframe.ResourcePool with HAL textures. Released
// clones are kept in an LRU list and reused by later allocations of the same
// shape.
//
// ClonePool is safe for concurrent use.
type ClonePool struct {
	mu     sync.Mutex
	device TextureDevice

	budgetBytes uint64
	idleBytes   uint64
	liveBytes   uint64

	// idle clones, front = most recently released
	idle    lru.List[*clone]
	byShape map[cloneKey][]*lru.Node[*clone]

	live map[*tagframe.Resource]*clone

	hits      uint64
	misses    uint64
	evictions uint64

	closed bool
}

var _ tagframe.ResourcePool = (*ClonePool)(nil)

// NewClonePool creates a pool that allocates clones on device.
func NewClonePool(device TextureDevice, cfg PoolConfig) (*ClonePool, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	budgetMB := cfg.BudgetMB
	if budgetMB < MinBudgetMB {
		budgetMB = DefaultBudgetMB
	}

	//nolint:gosec // G115: budgetMB is bounded by MinBudgetMB minimum
	return &ClonePool{
		device:      device,
		budgetBytes: uint64(budgetMB) * 1024 * 1024,
		byShape:     make(map[cloneKey][]*lru.Node[*clone]),
		live:        make(map[*tagframe.Resource]*clone),
	}, nil
}

// Allocate implements tagframe.ResourcePool. The returned resource is in the
// copy destination state.
func (p *ClonePool) Allocate(src *tagframe.Resource, label string) (*tagframe.Resource, error) {
	if src == nil || src.Width == 0 || src.Height == 0 {
		return nil, ErrInvalidDimensions
	}
	key := cloneKey{
		width:  src.Width,
		height: src.Height,
		mips:   mipCount(src),
		format: src.Format,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	c := p.takeIdleLocked(key)
	if c != nil {
		p.hits++
	} else {
		tex, err := p.device.CreateTexture(&hal.TextureDescriptor{
			Label:         label,
			Size:          hal.Extent3D{Width: key.width, Height: key.height, DepthOrArrayLayers: 1},
			MipLevelCount: key.mips,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        key.format,
			Usage:         cloneUsage,
		})
		if err != nil {
			return nil, fmt.Errorf("create clone %q: %w", label, err)
		}
		p.misses++
		c = &clone{key: key, texture: tex, sizeBytes: textureBytes(key)}
		slogger().Debug("native: clone created",
			"label", label, "width", key.width, "height", key.height, "bytes", c.sizeBytes)
	}

	c.res = &tagframe.Resource{
		Type:      tagframe.ResourceTypeTex2D,
		Native:    c.texture,
		State:     uint32(gputypes.TextureUsageCopyDst),
		Width:     key.width,
		Height:    key.height,
		MipLevels: key.mips,
		Format:    key.format,
	}
	p.live[c.res] = c
	p.liveBytes += c.sizeBytes
	return c.res, nil
}

// Recycle implements tagframe.ResourcePool. Resources the pool did not
// allocate are ignored.
func (p *ClonePool) Recycle(res *tagframe.Resource) {
	if res == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.live[res]
	if !ok {
		if !p.closed {
			slogger().Warn("native: recycle of unknown resource")
		}
		return
	}
	delete(p.live, res)
	p.liveBytes -= c.sizeBytes
	c.res = nil

	node := p.idle.PushFront(c)
	p.byShape[c.key] = append(p.byShape[c.key], node)
	p.idleBytes += c.sizeBytes
	p.evictLocked()
}

// Stats returns current pool statistics.
func (p *ClonePool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return PoolStats{
		BudgetBytes: p.budgetBytes,
		IdleBytes:   p.idleBytes,
		LiveBytes:   p.liveBytes,
		Idle:        p.idle.Len(),
		Live:        len(p.live),
		Hits:        p.hits,
		Misses:      p.misses,
		Evictions:   p.evictions,
	}
}

// Close destroys every texture the pool owns, including clones still in use.
// Close the store before the pool. Close is idempotent.
func (p *ClonePool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	p.idle.Each(func(c *clone) {
		p.device.DestroyTexture(c.texture)
	})
	p.idle.Clear()
	clear(p.byShape)
	p.idleBytes = 0

	if len(p.live) > 0 {
		slogger().Warn("native: clone pool closed with live clones", "live", len(p.live))
	}
	for res, c := range p.live {
		p.device.DestroyTexture(c.texture)
		delete(p.live, res)
	}
	p.liveBytes = 0
}

// takeIdleLocked removes and returns the most recently released idle clone
// of the given shape, or nil.
func (p *ClonePool) takeIdleLocked(key cloneKey) *clone {
	nodes := p.byShape[key]
	if len(nodes) == 0 {
		return nil
	}
	node := nodes[len(nodes)-1]
	p.setShapeLocked(key, nodes[:len(nodes)-1])

	p.idle.Remove(node)
	p.idleBytes -= node.Value.sizeBytes
	return node.Value
}

// evictLocked destroys least recently released clones until idle memory fits
// the budget.
func (p *ClonePool) evictLocked() {
	for p.idleBytes > p.budgetBytes {
		c, ok := p.idle.RemoveOldest()
		if !ok {
			return
		}
		nodes := p.byShape[c.key]
		for i, n := range nodes {
			if n.Value == c {
				nodes = append(nodes[:i], nodes[i+1:]...)
				break
			}
		}
		p.setShapeLocked(c.key, nodes)

		p.idleBytes -= c.sizeBytes
		p.evictions++
		p.device.DestroyTexture(c.texture)
		slogger().Debug("native: clone evicted", "bytes", c.sizeBytes)
	}
}

func (p *ClonePool) setShapeLocked(key cloneKey, nodes []*lru.Node[*clone]) {
	if len(nodes) == 0 {
		delete(p.byShape, key)
		return
	}
	p.byShape[key] = nodes
}

// textureBytes returns the memory used by a texture of the given shape,
// including its mip chain.
func textureBytes(key cloneKey) uint64 {
	bpp := uint64(bytesPerPixel(key.format))
	var total uint64
	for mip := range key.mips {
		total += uint64(mipExtent(key.width, mip)) * uint64(mipExtent(key.height, mip)) * bpp
	}
	return total
}

// bytesPerPixel returns the texel size of format. RGBA8, BGRA8, R32F and
// packed depth/stencil all take four bytes, as does anything not listed.
func bytesPerPixel(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	default:
		return 4
	}
}
