package cl

import (
	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// CreateBuffer allocates size bytes. host backs or initializes the buffer
// depending on flags, as in C.
func (r *Runtime) CreateBuffer(c Context, flags driver.MemFlags, size int, host []byte) (Mem, error) {
	op := capability.OpCreateBuffer
	if err := r.enter(op, c); err != nil {
		return Mem{}, err
	}
	if size < 0 {
		return Mem{}, r.reject(invalidArg(op, "size", "negative size %d", size))
	}
	return r.newMem(op, func() (driver.Ptr, driver.Status) {
		return r.drv.CreateBuffer(c.ptr, flags, size, host)
	})
}

// CreateSubBuffer creates a region of buf starting at origin.
func (r *Runtime) CreateSubBuffer(buf Mem, flags driver.MemFlags, origin, size int) (Mem, error) {
	op := capability.OpCreateSubBuffer
	if err := r.enter(op, buf); err != nil {
		return Mem{}, err
	}
	if origin < 0 || size < 0 {
		return Mem{}, r.reject(invalidArg(op, "origin", "negative region %d+%d", origin, size))
	}
	return r.newMem(op, func() (driver.Ptr, driver.Status) {
		return r.drv.CreateSubBuffer(buf.ptr, flags, origin, size)
	})
}

func (r *Runtime) CreateImage(c Context, flags driver.MemFlags, format driver.ImageFormat, desc driver.ImageDesc, host []byte) (Mem, error) {
	op := capability.OpCreateImage
	if err := r.enter(op, c); err != nil {
		return Mem{}, err
	}
	return r.newMem(op, func() (driver.Ptr, driver.Status) {
		return r.drv.CreateImage(c.ptr, flags, format, desc, host)
	})
}

func (r *Runtime) CreateImage2D(c Context, flags driver.MemFlags, format driver.ImageFormat, width, height, rowPitch int, host []byte) (Mem, error) {
	op := capability.OpCreateImage2D
	if err := r.enter(op, c); err != nil {
		return Mem{}, err
	}
	return r.newMem(op, func() (driver.Ptr, driver.Status) {
		return r.drv.CreateImage2D(c.ptr, flags, format, width, height, rowPitch, host)
	})
}

func (r *Runtime) CreateImage3D(c Context, flags driver.MemFlags, format driver.ImageFormat, width, height, depth, rowPitch, slicePitch int, host []byte) (Mem, error) {
	op := capability.OpCreateImage3D
	if err := r.enter(op, c); err != nil {
		return Mem{}, err
	}
	return r.newMem(op, func() (driver.Ptr, driver.Status) {
		return r.drv.CreateImage3D(c.ptr, flags, format, width, height, depth, rowPitch, slicePitch, host)
	})
}

func (r *Runtime) CreatePipe(c Context, flags driver.MemFlags, packetSize, maxPackets uint32) (Mem, error) {
	op := capability.OpCreatePipe
	if err := r.enter(op, c); err != nil {
		return Mem{}, err
	}
	return r.newMem(op, func() (driver.Ptr, driver.Status) {
		return r.drv.CreatePipe(c.ptr, flags, packetSize, maxPackets)
	})
}

func (r *Runtime) newMem(op capability.Op, create func() (driver.Ptr, driver.Status)) (Mem, error) {
	var ptr driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ptr, st = create()
		return st
	})
	if err != nil {
		return Mem{}, err
	}
	r.created(driver.KindMem, ptr)
	return Mem{ptr: ptr}, nil
}

func (r *Runtime) GetPipeInfo(pipe Mem, param uint32) ([]byte, error) {
	return r.info(capability.OpGetPipeInfo, pipe, func() ([]byte, driver.Status) {
		return r.drv.PipeInfo(pipe.ptr, param)
	})
}

func (r *Runtime) RetainMemObject(m Mem) error {
	return r.retain(capability.OpRetainMemObject, m)
}

func (r *Runtime) ReleaseMemObject(m Mem) error {
	return r.release(capability.OpReleaseMemObject, m)
}

func (r *Runtime) GetMemObjectInfo(m Mem, param uint32) ([]byte, error) {
	return r.info(capability.OpGetMemObjectInfo, m, func() ([]byte, driver.Status) {
		return r.drv.Info(driver.KindMem, m.ptr, param)
	})
}

// SetMemObjectDestructorCallback registers fn to run, on a driver goroutine,
// once m has been freed. Callbacks run in reverse registration order.
func (r *Runtime) SetMemObjectDestructorCallback(m Mem, fn func()) error {
	op := capability.OpSetMemObjectDestructorCallback
	if err := r.enter(op, m); err != nil {
		return err
	}
	if fn == nil {
		return r.reject(invalidArg(op, "callback", "nil callback"))
	}
	return r.native(op, func() driver.Status { return r.drv.SetMemObjectDestructorCallback(m.ptr, fn) })
}

// CreateSampler is the pre-2.0 sampler constructor. The addressing modes it
// accepts depend on the negotiated version.
func (r *Runtime) CreateSampler(c Context, normalized bool, addressing driver.AddressingMode, filter driver.FilterMode) (Sampler, error) {
	op := capability.OpCreateSampler
	if err := r.enter(op, c); err != nil {
		return Sampler{}, err
	}
	if err := r.validate(op, c, normalized, addressing, filter); err != nil {
		return Sampler{}, err
	}
	return r.newSampler(op, func() (driver.Ptr, driver.Status) {
		return r.drv.CreateSampler(c.ptr, normalized, addressing, filter)
	})
}

func (r *Runtime) CreateSamplerWithProperties(c Context, normalized bool, addressing driver.AddressingMode, filter driver.FilterMode) (Sampler, error) {
	op := capability.OpCreateSamplerWithProperties
	if err := r.enter(op, c); err != nil {
		return Sampler{}, err
	}
	if err := r.validate(op, c, normalized, addressing, filter); err != nil {
		return Sampler{}, err
	}
	var norm uint64
	if normalized {
		norm = 1
	}
	props := []uint64{
		uint64(driver.SamplerNormalizedCoords), norm,
		uint64(driver.SamplerAddressingMode), uint64(addressing),
		uint64(driver.SamplerFilterMode), uint64(filter),
		0,
	}
	return r.newSampler(op, func() (driver.Ptr, driver.Status) {
		return r.drv.CreateSamplerWithProperties(c.ptr, props)
	})
}

func (r *Runtime) newSampler(op capability.Op, create func() (driver.Ptr, driver.Status)) (Sampler, error) {
	var ptr driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ptr, st = create()
		return st
	})
	if err != nil {
		return Sampler{}, err
	}
	r.created(driver.KindSampler, ptr)
	return Sampler{ptr: ptr}, nil
}

func (r *Runtime) RetainSampler(s Sampler) error {
	return r.retain(capability.OpRetainSampler, s)
}

func (r *Runtime) ReleaseSampler(s Sampler) error {
	return r.release(capability.OpReleaseSampler, s)
}

func (r *Runtime) GetSamplerInfo(s Sampler, param uint32) ([]byte, error) {
	return r.info(capability.OpGetSamplerInfo, s, func() ([]byte, driver.Status) {
		return r.drv.Info(driver.KindSampler, s.ptr, param)
	})
}

// validate checks args against the active signature of op. Typed methods
// use it where a parameter's valid values depend on the version.
func (r *Runtime) validate(op capability.Op, args ...any) error {
	sig, ok := r.registry.Lookup(r.version, op)
	if !ok {
		return r.reject(r.unsupported(op))
	}
	if err := sig.Validate(r.version, args); err != nil {
		return r.reject(fromArgError(op, err))
	}
	return nil
}
