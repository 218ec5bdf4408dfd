package tagframe

import "errors"

// Errors returned by Store.
var (
	// ErrMissingResourceState is returned when a tagged resource has no
	// state and the render API requires one.
	ErrMissingResourceState = errors.New("tagframe: resource state must be provided")

	// ErrMissingInputParameter is returned when a volatile tag has to be
	// copied but no command buffer was supplied.
	ErrMissingInputParameter = errors.New("tagframe: command buffer is required to copy a volatile tag")

	// ErrInvalidHistoryDepth is returned for a history depth that is not a
	// power of two or is smaller than MinHistoryDepth.
	ErrInvalidHistoryDepth = errors.New("tagframe: invalid history depth")

	// ErrNilCompute is returned when NewStore gets a nil Compute.
	ErrNilCompute = errors.New("tagframe: compute is required")

	// ErrNilPool is returned when NewStore gets a nil ResourcePool.
	ErrNilPool = errors.New("tagframe: resource pool is required")

	// ErrStoreClosed is returned when tagging on a closed store.
	ErrStoreClosed = errors.New("tagframe: store closed")
)
