package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/tagframe"
)

// stateUsages pairs every supported state with its texture usage.
var stateUsages = []struct {
	state tagframe.ResourceState
	usage gputypes.TextureUsage
}{
	{tagframe.StateCopySource, gputypes.TextureUsageCopySrc},
	{tagframe.StateCopyDestination, gputypes.TextureUsageCopyDst},
	{tagframe.StateTextureRead, gputypes.TextureUsageTextureBinding},
	{tagframe.StateStorageRW, gputypes.TextureUsageStorageBinding},
	{tagframe.StateColorAttachment, gputypes.TextureUsageRenderAttachment},
}

// usageForState converts a tagframe state to texture usage bits.
// StateCommon maps to no usage. Storage read and write only map together.
func usageForState(state tagframe.ResourceState) (gputypes.TextureUsage, error) {
	var usage gputypes.TextureUsage
	rest := state
	for _, su := range stateUsages {
		if rest&su.state == su.state {
			usage |= su.usage
			rest &^= su.state
		}
	}
	if rest != 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedState, rest)
	}
	return usage, nil
}

// stateForUsage converts texture usage bits to a tagframe state.
func stateForUsage(usage gputypes.TextureUsage) (tagframe.ResourceState, error) {
	var state tagframe.ResourceState
	rest := usage
	for _, su := range stateUsages {
		if rest&su.usage != 0 {
			state |= su.state
			rest &^= su.usage
		}
	}
	if rest != 0 {
		return 0, fmt.Errorf("%w: usage 0x%x", ErrUnsupportedState, uint32(rest))
	}
	return state, nil
}
