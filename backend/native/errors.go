package native

import "errors"

// Package errors for the native backend.
var (
	// ErrNotTexture is returned when a resource does not carry a hal.Texture.
	ErrNotTexture = errors.New("native: resource is not a hal texture")

	// ErrUnsupportedCommandBuffer is returned when the command buffer passed
	// by the caller cannot record barriers or copies.
	ErrUnsupportedCommandBuffer = errors.New("native: unsupported command buffer")

	// ErrUnsupportedState is returned for states that have no texture usage
	// equivalent.
	ErrUnsupportedState = errors.New("native: unsupported resource state")

	// ErrNilDevice is returned when a pool is created without a device.
	ErrNilDevice = errors.New("native: nil device")

	// ErrNoHALDevice is returned when a device provider does not expose a
	// hal.Device.
	ErrNoHALDevice = errors.New("native: provider does not expose a hal device")

	// ErrInvalidDimensions is returned when a clone would have no pixels.
	ErrInvalidDimensions = errors.New("native: invalid dimensions")

	// ErrPoolClosed is returned when allocating from a closed pool.
	ErrPoolClosed = errors.New("native: clone pool closed")
)
