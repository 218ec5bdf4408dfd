package main

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/tagframe"
	"github.com/gogpu/tagframe/backend/native"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/sync/errgroup"
)

// commandLog is the command buffer handed to the store. It counts what the
// native backend records; nothing is submitted.
type commandLog struct {
	barriers atomic.Int64
	copies   atomic.Int64
}

func (l *commandLog) TransitionTextures(barriers []hal.TextureBarrier) {
	l.barriers.Add(int64(len(barriers)))
}

func (l *commandLog) CopyTextureToTexture(_, _ hal.Texture, regions []hal.TextureCopy) {
	l.copies.Add(int64(len(regions)))
}

// Result summarizes a simulation run.
type Result struct {
	Frames   int
	Found    int64
	Missing  int64
	Barriers int64
	Copies   int64
	Store    tagframe.StoreStats
	Pool     native.PoolStats
}

// Print writes a human-readable report.
func (r Result) Print(w io.Writer) {
	fmt.Fprintf(w, "frames:   %d\n", r.Frames)
	fmt.Fprintf(w, "lookups:  %d found, %d missing\n", r.Found, r.Missing)
	fmt.Fprintf(w, "commands: %d barriers, %d copy regions\n", r.Barriers, r.Copies)
	fmt.Fprintln(w, r.Store)
	fmt.Fprintln(w, r.Pool)
}

// simulate runs sc on the device shared by host. Each frame the producers of every
// viewport tag their resources concurrently, then the consumers look them up
// concurrently.
func simulate(ctx context.Context, sc *Scenario, host gpucontext.DeviceProvider) (Result, error) {
	producers, consumers, err := sc.compile()
	if err != nil {
		return Result{}, err
	}
	device, err := native.HALDevice(host)
	if err != nil {
		return Result{}, err
	}

	pool, err := native.NewClonePoolFromProvider(host, native.PoolConfig{BudgetMB: sc.BudgetMB})
	if err != nil {
		return Result{}, err
	}
	defer pool.Close()

	compute := native.NewCompute(native.Config{API: tagframe.RenderAPINoop})
	frames := tagframe.NewFrameCounter()
	store, err := tagframe.NewStore(compute, pool,
		tagframe.WithHistoryDepth(sc.History),
		tagframe.WithFrameSource(frames))
	if err != nil {
		return Result{}, err
	}

	// The engine's resources, one per viewport and producer.
	sources := make([][]tagframe.Tag, sc.Viewports)
	defer func() {
		for _, tags := range sources {
			for _, tag := range tags {
				device.DestroyTexture(tag.Resource.Native.(hal.Texture))
			}
		}
	}()
	for v := range sources {
		for _, p := range producers {
			res, err := createSource(device, sc, v, p.typ)
			if err != nil {
				store.Close()
				return Result{}, err
			}
			sources[v] = append(sources[v], tagframe.Tag{
				Type:      p.typ,
				Resource:  res,
				Lifecycle: p.lifecycle,
			})
		}
	}

	var (
		cmds           commandLog
		found, missing atomic.Int64
	)
	for f := range sc.Frames {
		if err := ctx.Err(); err != nil {
			store.Close()
			return Result{}, err
		}
		frame := uint32(f) //nolint:gosec // G115: frames is a small positive count
		frames.Set(frame)

		var producing errgroup.Group
		for v, tags := range sources {
			producing.Go(func() error {
				return store.SetTags(frame, uint32(v), tags, &cmds) //nolint:gosec // G115: viewport index
			})
		}
		if err := producing.Wait(); err != nil {
			store.Close()
			return Result{}, fmt.Errorf("frame %d: %w", frame, err)
		}

		var consuming errgroup.Group
		for v := range sc.Viewports {
			for _, c := range consumers {
				consuming.Go(func() error {
					_, ok := store.GetTag(tagframe.Query{
						Type:     c.typ,
						Frame:    frame,
						Viewport: uint32(v), //nolint:gosec // G115: viewport index
						Evaluate: c.evaluate,
						Optional: c.optional,
					})
					if ok {
						found.Add(1)
					} else {
						missing.Add(1)
					}
					return nil
				})
			}
		}
		_ = consuming.Wait()
	}

	res := Result{
		Frames:   sc.Frames,
		Found:    found.Load(),
		Missing:  missing.Load(),
		Barriers: cmds.barriers.Load(),
		Copies:   cmds.copies.Load(),
		Store:    store.Stats(),
	}
	store.Close()
	res.Pool = pool.Stats()
	return res, nil
}

// createSource creates the engine texture a producer tags.
func createSource(device hal.Device, sc *Scenario, viewport int, typ tagframe.BufferType) (*tagframe.Resource, error) {
	format := gputypes.TextureFormatRGBA8Unorm
	if typ == tagframe.BufferTypeDepth {
		format = gputypes.TextureFormatDepth24PlusStencil8
	}
	usage := gputypes.TextureUsageRenderAttachment
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         fmt.Sprintf("tagsim.%s.%d", typ, viewport),
		Size:          hal.Extent3D{Width: sc.Width, Height: sc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s source: %w", typ, err)
	}
	return &tagframe.Resource{
		Type:      tagframe.ResourceTypeTex2D,
		Native:    tex,
		State:     uint32(usage),
		Width:     sc.Width,
		Height:    sc.Height,
		MipLevels: 1,
		Format:    format,
	}, nil
}
