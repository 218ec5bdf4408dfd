package tagframe

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/gputypes"
)

// StateUnknown is the native state value of a resource whose state was not
// provided by the caller.
const StateUnknown = math.MaxUint32

// ResourceType distinguishes textures from buffers.
type ResourceType uint32

const (
	// ResourceTypeTex2D is a two-dimensional texture.
	ResourceTypeTex2D ResourceType = iota

	// ResourceTypeBuffer is a linear buffer.
	ResourceTypeBuffer
)

// Resource references a GPU resource owned by someone else.
//
// Native is the backend object (a hal.Texture for backend/native). The
// reference does not keep the resource alive: whoever created it must keep it
// valid until the tag is recycled.
type Resource struct {
	Type ResourceType

	// Native is the backend handle. A nil handle means "no resource".
	Native any

	// State is the backend-native resource state, or StateUnknown.
	State uint32

	Width     uint32
	Height    uint32
	MipLevels uint32
	Format    gputypes.TextureFormat
}

// IsValid reports whether r carries a native handle.
func (r *Resource) IsValid() bool {
	return r != nil && r.Native != nil
}

// Extent is a rectangle inside a resource.
type Extent struct {
	Left   uint32
	Top    uint32
	Width  uint32
	Height uint32
}

// IsEmpty reports whether the extent covers no pixels.
func (e Extent) IsEmpty() bool {
	return e.Width == 0 || e.Height == 0
}

// PrecisionTransform describes how stored values are encoded.
type PrecisionTransform uint32

const (
	// PrecisionNone means values are stored as-is.
	PrecisionNone PrecisionTransform = iota

	// PrecisionLinear means stored = value*Scale + Bias.
	PrecisionLinear
)

// PrecisionInfo describes the precision encoding of a tagged resource.
type PrecisionInfo struct {
	Transform PrecisionTransform
	Bias      float32
	Scale     float32
}

// Tag is a resource annotated with its semantic meaning, as supplied by a
// producer or passed as a local tag alongside an evaluate call.
type Tag struct {
	Type      BufferType
	Resource  *Resource
	Lifecycle ResourceLifecycle

	// Extent optionally restricts the valid area of the resource.
	Extent *Extent

	// Precision optionally describes the value encoding.
	Precision *PrecisionInfo
}

// TagEntry is what the store keeps for one (buffer type, id) in one frame.
//
// Primary references the producer's resource. If the tag was volatile the
// store copied it into Clone and cleared Primary.Native, so the uncounted
// original is never handed out. Clone is owned by the store until the entry
// is recycled.
type TagEntry struct {
	Primary   Resource
	Clone     *Resource
	Extent    Extent
	Precision PrecisionInfo
}

// Active returns the resource consumers should read: the clone if the tag was
// copied, otherwise the primary reference, or nil if the entry is empty.
func (e *TagEntry) Active() *Resource {
	if e.Clone != nil {
		return e.Clone
	}
	if e.Primary.Native != nil {
		return &e.Primary
	}
	return nil
}

// ResourceState is a backend-independent resource state.
type ResourceState uint32

// Resource states.
const (
	StateCommon ResourceState = 0

	StateConstantBuffer     ResourceState = 1 << 0
	StateVertexBuffer       ResourceState = 1 << 1
	StateIndexBuffer        ResourceState = 1 << 2
	StateTextureRead        ResourceState = 1 << 3
	StateStorageRead        ResourceState = 1 << 4
	StateStorageWrite       ResourceState = 1 << 5
	StateColorAttachment    ResourceState = 1 << 6
	StateDepthStencil       ResourceState = 1 << 7
	StateCopySource         ResourceState = 1 << 8
	StateCopyDestination    ResourceState = 1 << 9
	StatePresent            ResourceState = 1 << 10
	StateResolveSource      ResourceState = 1 << 11
	StateResolveDestination ResourceState = 1 << 12

	StateStorageRW = StateStorageRead | StateStorageWrite
)

var resourceStateNames = []struct {
	state ResourceState
	name  string
}{
	{StateConstantBuffer, "ConstantBuffer"},
	{StateVertexBuffer, "VertexBuffer"},
	{StateIndexBuffer, "IndexBuffer"},
	{StateTextureRead, "TextureRead"},
	{StateStorageRead, "StorageRead"},
	{StateStorageWrite, "StorageWrite"},
	{StateColorAttachment, "ColorAttachment"},
	{StateDepthStencil, "DepthStencil"},
	{StateCopySource, "CopySource"},
	{StateCopyDestination, "CopyDestination"},
	{StatePresent, "Present"},
	{StateResolveSource, "ResolveSource"},
	{StateResolveDestination, "ResolveDestination"},
}

// String returns the state names joined with '|'.
func (s ResourceState) String() string {
	if s == StateCommon {
		return "Common"
	}
	var parts []string
	rest := s
	for _, n := range resourceStateNames {
		if s&n.state != 0 {
			parts = append(parts, n.name)
			rest &^= n.state
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ResourceTransition moves Resource from state From to state To.
type ResourceTransition struct {
	Resource *Resource
	To       ResourceState
	From     ResourceState
}

// RenderAPI identifies the graphics API behind a Compute implementation.
type RenderAPI uint32

const (
	RenderAPID3D11 RenderAPI = iota
	RenderAPID3D12
	RenderAPIVulkan
	RenderAPIMetal
	RenderAPIOpenGL
	RenderAPINoop
)

// String returns the API name.
func (a RenderAPI) String() string {
	switch a {
	case RenderAPID3D11:
		return "D3D11"
	case RenderAPID3D12:
		return "D3D12"
	case RenderAPIVulkan:
		return "Vulkan"
	case RenderAPIMetal:
		return "Metal"
	case RenderAPIOpenGL:
		return "OpenGL"
	case RenderAPINoop:
		return "Noop"
	}
	return fmt.Sprintf("RenderAPI(%d)", uint32(a))
}

// HasImplicitStates reports whether the API tracks resource states in the
// driver. Tagged resource states are forced to the neutral value on such APIs
// because the engine's state may not be usable on the compute queue.
func (a RenderAPI) HasImplicitStates() bool {
	return a == RenderAPID3D11
}
