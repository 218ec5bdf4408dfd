package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/tagframe"
	"github.com/gogpu/wgpu/hal"
)

// Encoder is the part of a HAL command encoder that Compute records into.
// A hal.CommandEncoder in the recording state can be passed as the
// tagframe.CommandBuffer.
type Encoder interface {
	TransitionTextures(barriers []hal.TextureBarrier)
	CopyTextureToTexture(src, dst hal.Texture, regions []hal.TextureCopy)
}

// Config holds configuration for creating a Compute.
type Config struct {
	// API is the graphics API of the HAL device the resources come from.
	// Set it explicitly: the zero value is tagframe.RenderAPID3D11.
	API tagframe.RenderAPI
}

// Compute implements tagframe.Compute for HAL textures.
//
// Compute is safe for concurrent use.
type Compute struct {
	api     tagframe.RenderAPI
	tracker *Tracker
}

var _ tagframe.Compute = (*Compute)(nil)

// NewCompute creates a Compute for the given configuration.
func NewCompute(cfg Config) *Compute {
	return &Compute{
		api:     cfg.API,
		tracker: NewTracker(),
	}
}

// RenderAPI implements tagframe.Compute.
func (c *Compute) RenderAPI() tagframe.RenderAPI { return c.api }

// Tracker returns the registry of resources referenced by tags.
func (c *Compute) Tracker() *Tracker { return c.tracker }

// ResourceState implements tagframe.Compute. The native value is a set of
// gputypes.TextureUsage bits.
func (c *Compute) ResourceState(native uint32) (tagframe.ResourceState, error) {
	if native == tagframe.StateUnknown {
		return 0, fmt.Errorf("%w: unknown", ErrUnsupportedState)
	}
	return stateForUsage(gputypes.TextureUsage(native))
}

// NativeResourceState implements tagframe.Compute.
func (c *Compute) NativeResourceState(state tagframe.ResourceState) (uint32, error) {
	usage, err := usageForState(state)
	if err != nil {
		return 0, err
	}
	return uint32(usage), nil
}

// TransitionResources implements tagframe.Compute. cmd must implement
// Encoder. The barriers back to each From state are recorded when reverse
// runs.
func (c *Compute) TransitionResources(cmd tagframe.CommandBuffer, transitions []tagframe.ResourceTransition, reverse *tagframe.ScopedTasks) error {
	enc, ok := cmd.(Encoder)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedCommandBuffer, cmd)
	}

	forward := make([]hal.TextureBarrier, 0, len(transitions))
	backward := make([]hal.TextureBarrier, 0, len(transitions))
	for i, tr := range transitions {
		tex, err := textureOf(tr.Resource)
		if err != nil {
			return fmt.Errorf("transition %d: %w", i, err)
		}
		from, err := usageForState(tr.From)
		if err != nil {
			return fmt.Errorf("transition %d from: %w", i, err)
		}
		to, err := usageForState(tr.To)
		if err != nil {
			return fmt.Errorf("transition %d to: %w", i, err)
		}
		if from == to {
			continue
		}
		forward = append(forward, hal.TextureBarrier{
			Texture: tex,
			Usage:   hal.TextureUsageTransition{OldUsage: from, NewUsage: to},
		})
		backward = append(backward, hal.TextureBarrier{
			Texture: tex,
			Usage:   hal.TextureUsageTransition{OldUsage: to, NewUsage: from},
		})
	}
	if len(forward) == 0 {
		return nil
	}

	enc.TransitionTextures(forward)
	if reverse != nil {
		reverse.Add(func() { enc.TransitionTextures(backward) })
	}
	return nil
}

// CopyResource implements tagframe.Compute. Every mip level of src is copied
// into dst; the caller must have transitioned both textures.
func (c *Compute) CopyResource(cmd tagframe.CommandBuffer, dst, src *tagframe.Resource) error {
	enc, ok := cmd.(Encoder)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedCommandBuffer, cmd)
	}
	srcTex, err := textureOf(src)
	if err != nil {
		return fmt.Errorf("copy source: %w", err)
	}
	dstTex, err := textureOf(dst)
	if err != nil {
		return fmt.Errorf("copy destination: %w", err)
	}
	if src.Width == 0 || src.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, src.Width, src.Height)
	}

	mips := mipCount(src)
	regions := make([]hal.TextureCopy, 0, mips)
	for mip := range mips {
		regions = append(regions, hal.TextureCopy{
			SrcBase: hal.ImageCopyTexture{Texture: srcTex, MipLevel: mip},
			DstBase: hal.ImageCopyTexture{Texture: dstTex, MipLevel: mip},
			Size: hal.Extent3D{
				Width:              mipExtent(src.Width, mip),
				Height:             mipExtent(src.Height, mip),
				DepthOrArrayLayers: 1,
			},
		})
	}
	enc.CopyTextureToTexture(srcTex, dstTex, regions)
	return nil
}

// StartTrackingResource implements tagframe.Compute.
func (c *Compute) StartTrackingResource(frame uint32, uid uint64, res *tagframe.Resource) {
	c.tracker.Start(frame, uid, res)
}

// StopTrackingResource implements tagframe.Compute.
func (c *Compute) StopTrackingResource(frame uint32, uid uint64, res *tagframe.Resource) {
	c.tracker.Stop(frame, uid, res)
}

func textureOf(res *tagframe.Resource) (hal.Texture, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: nil resource", ErrNotTexture)
	}
	if res.Type != tagframe.ResourceTypeTex2D {
		return nil, fmt.Errorf("%w: resource type %d", ErrNotTexture, res.Type)
	}
	tex, ok := res.Native.(hal.Texture)
	if !ok || tex == nil {
		return nil, fmt.Errorf("%w: %T", ErrNotTexture, res.Native)
	}
	return tex, nil
}

func mipCount(res *tagframe.Resource) uint32 {
	if res.MipLevels == 0 {
		return 1
	}
	return res.MipLevels
}

func mipExtent(size, mip uint32) uint32 {
	return max(size>>mip, 1)
}
