package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Device is an opened HAL device with its queue and the instance it came from.
type Device struct {
	variant  gputypes.Backend
	instance hal.Instance
	info     gputypes.AdapterInfo
	device   hal.Device
	queue    hal.Queue
}

// OpenVariant opens the first adapter of a backend registered with the HAL.
// Real backends register themselves when hal/allbackends is imported.
func OpenVariant(variant gputypes.Backend) (*Device, error) {
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, variant)
	}
	return Open(backend)
}

// Open creates an instance of backend and opens its first adapter with
// default limits.
func Open(backend hal.Backend) (*Device, error) {
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s instance: %w", backend.Variant(), err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, backend.Variant())
	}

	exposed := adapters[0]
	open, err := exposed.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open adapter %q: %w", exposed.Info.Name, err)
	}

	slogger().Info("gpu: adapter selected",
		"backend", backend.Variant().String(),
		"name", exposed.Info.Name,
		"vendor", exposed.Info.Vendor,
		"type", exposed.Info.DeviceType.String(),
		"driver", exposed.Info.Driver)

	return &Device{
		variant:  backend.Variant(),
		instance: instance,
		info:     exposed.Info,
		device:   open.Device,
		queue:    open.Queue,
	}, nil
}

// Backend returns the backend variant the device was opened on.
func (d *Device) Backend() gputypes.Backend {
	return d.variant
}

// Info returns the adapter metadata.
func (d *Device) Info() gputypes.AdapterInfo {
	return d.info
}

// HAL returns the underlying HAL device.
func (d *Device) HAL() hal.Device {
	return d.device
}

// Queue returns the device queue.
func (d *Device) Queue() hal.Queue {
	return d.queue
}

// Close waits for the GPU to go idle and releases the device and instance.
// Every resource created from the device must be destroyed first.
// Safe to call multiple times.
func (d *Device) Close() {
	if d.device == nil {
		return
	}
	if err := d.device.WaitIdle(); err != nil {
		slogger().Warn("gpu: wait idle failed", "err", err)
	}
	d.device.Destroy()
	d.instance.Destroy()
	d.device = nil
	d.queue = nil
	d.instance = nil
}

// AvailableBackends lists the HAL backends registered in this build.
func AvailableBackends() []gputypes.Backend {
	return hal.AvailableBackends()
}
