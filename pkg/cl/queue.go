package cl

import (
	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// CreateCommandQueue is the 1.x queue constructor, deprecated from 2.0 in
// favour of CreateCommandQueueWithProperties.
func (r *Runtime) CreateCommandQueue(c Context, d Device, properties driver.QueueProperties) (CommandQueue, error) {
	op := capability.OpCreateCommandQueue
	if err := r.enter(op, c, d); err != nil {
		return CommandQueue{}, err
	}
	var ptr driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ptr, st = r.drv.CreateCommandQueue(c.ptr, d.ptr, properties)
		return st
	})
	if err != nil {
		return CommandQueue{}, err
	}
	r.created(driver.KindCommandQueue, ptr)
	return CommandQueue{ptr: ptr}, nil
}

// CreateCommandQueueWithProperties creates a host or device queue. size is
// only meaningful for device queues; zero leaves it to the runtime.
func (r *Runtime) CreateCommandQueueWithProperties(c Context, d Device, properties driver.QueueProperties, size int) (CommandQueue, error) {
	op := capability.OpCreateCommandQueueWithProperties
	if err := r.enter(op, c, d); err != nil {
		return CommandQueue{}, err
	}
	if size < 0 {
		return CommandQueue{}, r.reject(invalidArg(op, "size", "negative queue size %d", size))
	}
	props := []uint64{driver.QueuePropertiesKey, uint64(properties)}
	if size > 0 {
		props = append(props, driver.QueueSizeKey, uint64(size))
	}
	props = append(props, 0)

	var ptr driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ptr, st = r.drv.CreateCommandQueueWithProperties(c.ptr, d.ptr, props)
		return st
	})
	if err != nil {
		return CommandQueue{}, err
	}
	r.created(driver.KindCommandQueue, ptr)
	return CommandQueue{ptr: ptr}, nil
}

// NewQueue creates a host queue with whichever constructor the negotiated
// version prefers.
func (r *Runtime) NewQueue(c Context, d Device, properties driver.QueueProperties) (CommandQueue, error) {
	if r.Supports(capability.OpCreateCommandQueueWithProperties) {
		return r.CreateCommandQueueWithProperties(c, d, properties, 0)
	}
	return r.CreateCommandQueue(c, d, properties)
}

func (r *Runtime) RetainCommandQueue(q CommandQueue) error {
	return r.retain(capability.OpRetainCommandQueue, q)
}

func (r *Runtime) ReleaseCommandQueue(q CommandQueue) error {
	return r.release(capability.OpReleaseCommandQueue, q)
}

func (r *Runtime) GetCommandQueueInfo(q CommandQueue, param uint32) ([]byte, error) {
	return r.info(capability.OpGetCommandQueueInfo, q, func() ([]byte, driver.Status) {
		return r.drv.Info(driver.KindCommandQueue, q.ptr, param)
	})
}

// SetCommandQueueProperty exists only in OpenCL 1.0. It returns the
// properties in effect before the change.
func (r *Runtime) SetCommandQueueProperty(q CommandQueue, properties driver.QueueProperties, enable bool) (driver.QueueProperties, error) {
	op := capability.OpSetCommandQueueProperty
	if err := r.enter(op, q); err != nil {
		return 0, err
	}
	var old driver.QueueProperties
	err := r.native(op, func() (st driver.Status) {
		old, st = r.drv.SetCommandQueueProperty(q.ptr, properties, enable)
		return st
	})
	return old, err
}

func (r *Runtime) SetDefaultDeviceCommandQueue(c Context, d Device, q CommandQueue) error {
	op := capability.OpSetDefaultDeviceCommandQueue
	if err := r.enter(op, c, d, q); err != nil {
		return err
	}
	return r.native(op, func() driver.Status { return r.drv.SetDefaultDeviceCommandQueue(c.ptr, d.ptr, q.ptr) })
}

func (r *Runtime) Flush(q CommandQueue) error {
	op := capability.OpFlush
	if err := r.enter(op, q); err != nil {
		return err
	}
	return r.native(op, func() driver.Status { return r.drv.Flush(q.ptr) })
}

// Finish blocks until every command submitted to q has completed.
func (r *Runtime) Finish(q CommandQueue) error {
	op := capability.OpFinish
	if err := r.enter(op, q); err != nil {
		return err
	}
	return r.native(op, func() driver.Status { return r.drv.Finish(q.ptr) })
}
