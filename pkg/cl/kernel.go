package cl

import (
	"encoding/binary"

	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

func (r *Runtime) CreateKernel(p Program, name string) (Kernel, error) {
	op := capability.OpCreateKernel
	if err := r.enter(op, p); err != nil {
		return Kernel{}, err
	}
	if name == "" {
		return Kernel{}, r.reject(invalidArg(op, "name", "empty kernel name"))
	}
	var ptr driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ptr, st = r.drv.CreateKernel(p.ptr, name)
		return st
	})
	if err != nil {
		return Kernel{}, err
	}
	r.created(driver.KindKernel, ptr)
	return Kernel{ptr: ptr}, nil
}

func (r *Runtime) CreateKernelsInProgram(p Program) ([]Kernel, error) {
	op := capability.OpCreateKernelsInProgram
	if err := r.enter(op, p); err != nil {
		return nil, err
	}
	var ids []driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ids, st = r.drv.CreateKernelsInProgram(p.ptr)
		return st
	})
	if err != nil {
		return nil, err
	}
	r.created(driver.KindKernel, ids...)
	return wrapAll[Kernel](ids), nil
}

// CloneKernel copies k together with its argument values.
func (r *Runtime) CloneKernel(k Kernel) (Kernel, error) {
	op := capability.OpCloneKernel
	if err := r.enter(op, k); err != nil {
		return Kernel{}, err
	}
	var ptr driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ptr, st = r.drv.CloneKernel(k.ptr)
		return st
	})
	if err != nil {
		return Kernel{}, err
	}
	r.created(driver.KindKernel, ptr)
	return Kernel{ptr: ptr}, nil
}

// Local is a kernel argument that reserves n bytes of __local memory.
type Local int

// SetKernelArg sets argument index of k. value is a Mem, Sampler or
// CommandQueue handle, a Local size, raw bytes, or a fixed-size scalar or
// struct that is copied in host byte order.
func (r *Runtime) SetKernelArg(k Kernel, index uint32, value any) error {
	op := capability.OpSetKernelArg
	if err := r.enter(op, k); err != nil {
		return err
	}
	arg, lerr := kernelArg(op, value)
	if lerr != nil {
		return r.reject(lerr)
	}
	return r.native(op, func() driver.Status { return r.drv.SetKernelArg(k.ptr, index, arg) })
}

func kernelArg(op capability.Op, value any) (driver.KernelArg, *LocalError) {
	switch v := value.(type) {
	case nil:
		return driver.KernelArg{}, invalidArg(op, "value", "nil kernel argument")
	case Mem, Sampler, CommandQueue:
		h := v.(Handle)
		if h.Ptr() == 0 {
			return driver.KernelArg{}, invalidArg(op, "value", "nil %s handle", h.Kind())
		}
		return driver.KernelArg{Object: h.Ptr(), Size: 8}, nil
	case Handle:
		return driver.KernelArg{}, &LocalError{Op: op, Kind: KindHandleMismatch, Param: "value", Detail: "a " + v.Kind().String() + " handle cannot be a kernel argument"}
	case Local:
		if v <= 0 {
			return driver.KernelArg{}, invalidArg(op, "value", "local size must be positive, got %d", int(v))
		}
		return driver.KernelArg{Local: true, Size: int(v)}, nil
	case []byte:
		return driver.KernelArg{Data: v, Size: len(v)}, nil
	}
	data, err := binary.Append(nil, binary.NativeEndian, value)
	if err != nil {
		return driver.KernelArg{}, &LocalError{Op: op, Kind: KindInvalidArgument, Param: "value", Detail: "unsupported kernel argument type", Cause: err}
	}
	return driver.KernelArg{Data: data, Size: len(data)}, nil
}

func (r *Runtime) SetKernelArgSVMPointer(k Kernel, index uint32, ptr driver.SVMPtr) error {
	op := capability.OpSetKernelArgSVMPointer
	if err := r.enter(op, k); err != nil {
		return err
	}
	return r.native(op, func() driver.Status { return r.drv.SetKernelArgSVMPointer(k.ptr, index, ptr) })
}

func (r *Runtime) SetKernelExecInfo(k Kernel, param uint32, value []byte) error {
	op := capability.OpSetKernelExecInfo
	if err := r.enter(op, k); err != nil {
		return err
	}
	return r.native(op, func() driver.Status { return r.drv.SetKernelExecInfo(k.ptr, param, value) })
}

func (r *Runtime) RetainKernel(k Kernel) error {
	return r.retain(capability.OpRetainKernel, k)
}

func (r *Runtime) ReleaseKernel(k Kernel) error {
	return r.release(capability.OpReleaseKernel, k)
}

func (r *Runtime) GetKernelInfo(k Kernel, param uint32) ([]byte, error) {
	return r.info(capability.OpGetKernelInfo, k, func() ([]byte, driver.Status) {
		return r.drv.Info(driver.KindKernel, k.ptr, param)
	})
}

func (r *Runtime) GetKernelWorkGroupInfo(k Kernel, d Device, param uint32) ([]byte, error) {
	op := capability.OpGetKernelWorkGroupInfo
	if err := r.enter(op, k, d); err != nil {
		return nil, err
	}
	var out []byte
	err := r.native(op, func() (st driver.Status) {
		out, st = r.drv.KernelWorkGroupInfo(k.ptr, d.ptr, param)
		return st
	})
	return out, err
}

func (r *Runtime) GetKernelArgInfo(k Kernel, index, param uint32) ([]byte, error) {
	return r.info(capability.OpGetKernelArgInfo, k, func() ([]byte, driver.Status) {
		return r.drv.KernelArgInfo(k.ptr, index, param)
	})
}

// GetKernelSubGroupInfo takes the parameter-specific input, such as a local
// work size, as raw bytes.
func (r *Runtime) GetKernelSubGroupInfo(k Kernel, d Device, param uint32, input []byte) ([]byte, error) {
	op := capability.OpGetKernelSubGroupInfo
	if err := r.enter(op, k, d); err != nil {
		return nil, err
	}
	var out []byte
	err := r.native(op, func() (st driver.Status) {
		out, st = r.drv.KernelSubGroupInfo(k.ptr, d.ptr, param, input)
		return st
	})
	return out, err
}
