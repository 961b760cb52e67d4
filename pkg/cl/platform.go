package cl

import (
	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

func (r *Runtime) GetPlatformIDs() ([]Platform, error) {
	op := capability.OpGetPlatformIDs
	if err := r.enter(op); err != nil {
		return nil, err
	}
	var ids []driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ids, st = r.drv.PlatformIDs()
		return st
	})
	return wrapAll[Platform](ids), err
}

func (r *Runtime) GetPlatformInfo(p Platform, param uint32) ([]byte, error) {
	return r.info(capability.OpGetPlatformInfo, p, func() ([]byte, driver.Status) {
		return r.drv.Info(driver.KindPlatform, p.ptr, param)
	})
}

func (r *Runtime) GetDeviceIDs(p Platform, typ driver.DeviceType) ([]Device, error) {
	op := capability.OpGetDeviceIDs
	if err := r.enter(op, p); err != nil {
		return nil, err
	}
	var ids []driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ids, st = r.drv.DeviceIDs(p.ptr, typ)
		return st
	})
	return wrapAll[Device](ids), err
}

func (r *Runtime) GetDeviceInfo(d Device, param uint32) ([]byte, error) {
	return r.info(capability.OpGetDeviceInfo, d, func() ([]byte, driver.Status) {
		return r.drv.Info(driver.KindDevice, d.ptr, param)
	})
}

// CreateSubDevices partitions d. properties is the zero-terminated
// cl_device_partition_property list.
func (r *Runtime) CreateSubDevices(d Device, properties []uintptr) ([]Device, error) {
	op := capability.OpCreateSubDevices
	if err := r.enter(op, d); err != nil {
		return nil, err
	}
	var ids []driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ids, st = r.drv.CreateSubDevices(d.ptr, properties)
		return st
	})
	if err != nil {
		return nil, err
	}
	r.created(driver.KindDevice, ids...)
	return wrapAll[Device](ids), nil
}

// PartitionEqually splits d into sub-devices of n compute units each.
func (r *Runtime) PartitionEqually(d Device, n int) ([]Device, error) {
	return r.CreateSubDevices(d, []uintptr{driver.DevicePartitionEqually, uintptr(n), 0})
}

func (r *Runtime) RetainDevice(d Device) error {
	return r.retain(capability.OpRetainDevice, d)
}

func (r *Runtime) ReleaseDevice(d Device) error {
	return r.release(capability.OpReleaseDevice, d)
}

func (r *Runtime) GetHostTimer(d Device) (uint64, error) {
	op := capability.OpGetHostTimer
	if err := r.enter(op, d); err != nil {
		return 0, err
	}
	var t uint64
	err := r.native(op, func() (st driver.Status) {
		t, st = r.drv.HostTimer(d.ptr)
		return st
	})
	return t, err
}

// TimerPair is a device timestamp and the host timestamp taken with it, both
// in nanoseconds.
type TimerPair struct {
	Device uint64
	Host   uint64
}

func (r *Runtime) GetDeviceAndHostTimer(d Device) (TimerPair, error) {
	op := capability.OpGetDeviceAndHostTimer
	if err := r.enter(op, d); err != nil {
		return TimerPair{}, err
	}
	var tp TimerPair
	err := r.native(op, func() (st driver.Status) {
		tp.Device, tp.Host, st = r.drv.DeviceAndHostTimer(d.ptr)
		return st
	})
	return tp, err
}

// CreateContext creates a context on the runtime's platform.
func (r *Runtime) CreateContext(devices ...Device) (Context, error) {
	op := capability.OpCreateContext
	if err := r.enter(op); err != nil {
		return Context{}, err
	}
	if len(devices) == 0 {
		return Context{}, r.reject(invalidArg(op, "devices", "at least one device is required"))
	}
	if err := nonNil(r, op, "devices", devices); err != nil {
		return Context{}, err
	}
	props := []uintptr{driver.ContextPlatform, uintptr(r.platform.ptr), 0}
	var ptr driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ptr, st = r.drv.CreateContext(props, ptrs(devices))
		return st
	})
	if err != nil {
		return Context{}, err
	}
	r.created(driver.KindContext, ptr)
	return Context{ptr: ptr}, nil
}

func (r *Runtime) RetainContext(c Context) error {
	return r.retain(capability.OpRetainContext, c)
}

func (r *Runtime) ReleaseContext(c Context) error {
	return r.release(capability.OpReleaseContext, c)
}

func (r *Runtime) GetContextInfo(c Context, param uint32) ([]byte, error) {
	return r.info(capability.OpGetContextInfo, c, func() ([]byte, driver.Status) {
		return r.drv.Info(driver.KindContext, c.ptr, param)
	})
}

// ContextDevices decodes CL_CONTEXT_DEVICES.
func (r *Runtime) ContextDevices(c Context) ([]Device, error) {
	raw, err := r.GetContextInfo(c, driver.ContextDevices)
	if err != nil {
		return nil, err
	}
	ids, err := driver.DecodePtrs(raw)
	if err != nil {
		return nil, &LocalError{Op: capability.OpGetContextInfo, Kind: KindInvalidArgument, Param: "param", Cause: err}
	}
	return wrapAll[Device](ids), nil
}

var infoOps = map[driver.Kind]capability.Op{
	driver.KindPlatform:     capability.OpGetPlatformInfo,
	driver.KindDevice:       capability.OpGetDeviceInfo,
	driver.KindContext:      capability.OpGetContextInfo,
	driver.KindCommandQueue: capability.OpGetCommandQueueInfo,
	driver.KindMem:          capability.OpGetMemObjectInfo,
	driver.KindSampler:      capability.OpGetSamplerInfo,
	driver.KindProgram:      capability.OpGetProgramInfo,
	driver.KindKernel:       capability.OpGetKernelInfo,
	driver.KindEvent:        capability.OpGetEventInfo,
}

// ReferenceCount queries the native reference count of h through the info
// operation of its kind.
func (r *Runtime) ReferenceCount(h Handle) (uint32, error) {
	op := infoOps[h.Kind()]
	param, ok := driver.ReferenceCountParam(h.Kind())
	if !ok {
		return 0, r.reject(invalidArg(op, h.Kind().String(), "%s objects have no reference count", h.Kind()))
	}
	raw, err := r.info(op, h, func() ([]byte, driver.Status) {
		return r.drv.Info(h.Kind(), h.Ptr(), param)
	})
	if err != nil {
		return 0, err
	}
	n, err := driver.DecodeUint32(raw)
	if err != nil {
		return 0, &LocalError{Op: op, Kind: KindInvalidArgument, Param: "param", Cause: err}
	}
	return n, nil
}
