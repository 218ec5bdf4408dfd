package native

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// halProvider is implemented by device providers that expose their HAL
// objects, such as the gogpu host context.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// HALDevice extracts the hal.Device behind a host's device provider.
// The provider must also implement HalDevice() any returning a hal.Device.
func HALDevice(provider gpucontext.DeviceProvider) (hal.Device, error) {
	if provider == nil {
		return nil, ErrNilDevice
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNoHALDevice, provider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice returned %T", ErrNoHALDevice, hp.HalDevice())
	}
	return device, nil
}

// NewClonePoolFromProvider creates a ClonePool on the device shared by the
// host. The host keeps ownership of the device and must close the pool before
// destroying it.
func NewClonePoolFromProvider(provider gpucontext.DeviceProvider, cfg PoolConfig) (*ClonePool, error) {
	device, err := HALDevice(provider)
	if err != nil {
		return nil, err
	}
	return NewClonePool(device, cfg)
}
