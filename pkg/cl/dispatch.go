package cl

import (
	"reflect"

	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// Invoke calls op with positional args laid out as its signature at the
// negotiated version describes them. The argument count, every handle's kind
// and every scalar's type are checked before the typed method runs, so a
// mismatched handle never reaches the driver.
//
// Handles are passed as the handle types of this package, lists of handles
// as slices of them, and structured values (driver.ImageFormat,
// driver.ImageDesc, driver.Rect, CopyRect, [16]byte colours, [3]int
// origins) as themselves. The result is what the typed method returns
// besides its error, or nil.
func (r *Runtime) Invoke(op capability.Op, args ...any) (any, error) {
	if r.closed.Load() {
		return nil, r.reject(&LocalError{Op: op, Kind: KindClosed, Detail: "runtime is closed"})
	}
	sig, ok := r.registry.Lookup(r.version, op)
	if !ok {
		return nil, r.reject(r.unsupported(op))
	}
	if err := sig.Validate(r.version, args); err != nil {
		return nil, r.reject(fromArgError(op, err))
	}
	call, ok := invokers[op]
	if !ok {
		return nil, r.reject(&LocalError{Op: op, Kind: KindUnsupported, Detail: "no dispatch entry"})
	}
	a := &argList{op: op, sig: sig, args: args}
	return call(r, a)
}

// argList reads validated arguments by parameter name. Omitted optional
// arguments read as zero values.
type argList struct {
	op   capability.Op
	sig  capability.Signature
	args []any
	err  *LocalError
}

func (a *argList) get(name string) any {
	_, i, ok := a.sig.Param(name)
	if !ok || i >= len(a.args) {
		return nil
	}
	return a.args[i]
}

func (a *argList) handle(name string) Handle {
	h, _ := a.get(name).(Handle)
	return h
}

func (a *argList) ptr(name string) driver.Ptr {
	if h := a.handle(name); h != nil {
		return h.Ptr()
	}
	return 0
}

func (a *argList) num(name string) int {
	return int(a.u64(name))
}

func (a *argList) u32(name string) uint32 {
	return uint32(a.u64(name))
}

func (a *argList) u64(name string) uint64 {
	v := a.get(name)
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	}
	return 0
}

func (a *argList) flag(name string) bool {
	v := a.get(name)
	if v == nil {
		return false
	}
	return reflect.ValueOf(v).Bool()
}

func (a *argList) str(name string) string {
	v := a.get(name)
	if v == nil {
		return ""
	}
	return reflect.ValueOf(v).String()
}

func (a *argList) strs(name string) []string {
	v := a.get(name)
	if v == nil {
		return nil
	}
	if ss, ok := v.([]string); ok {
		return ss
	}
	rv := reflect.ValueOf(v)
	out := make([]string, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).String()
	}
	return out
}

func (a *argList) data(name string) []byte {
	b, _ := a.get(name).([]byte)
	return b
}

func (a *argList) sizes(name string) []int {
	v := a.get(name)
	if v == nil {
		return nil
	}
	if is, ok := v.([]int); ok {
		return is
	}
	rv := reflect.ValueOf(v)
	out := make([]int, rv.Len())
	for i := range out {
		e := rv.Index(i)
		if e.CanInt() {
			out[i] = int(e.Int())
		} else {
			out[i] = int(e.Uint())
		}
	}
	return out
}

// value reads a structured argument of type T. A value of another type
// records an invalid argument error on a.
func value[T any](a *argList, name string) T {
	var zero T
	v := a.get(name)
	if v == nil {
		return zero
	}
	t, ok := v.(T)
	if !ok && a.err == nil {
		a.err = invalidArg(a.op, name, "expected %T, got %T", zero, v)
	}
	return t
}

func handleArg[H handleType](a *argList, name string) H {
	return H{ptr: a.ptr(name)}
}

func handlesArg[H handleType](a *argList, name string) []H {
	return handleSlice[H](a.get(name))
}

func result[T any](v T, err error) (any, error) {
	return v, err
}

type invoker func(r *Runtime, a *argList) (any, error)

// checked runs call only when reading the arguments recorded no error.
func checked(r *Runtime, a *argList, call func() (any, error)) (any, error) {
	if a.err != nil {
		return nil, r.reject(a.err)
	}
	return call()
}

var invokers = map[capability.Op]invoker{
	capability.OpGetPlatformIDs: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetPlatformIDs())
	},
	capability.OpGetPlatformInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetPlatformInfo(handleArg[Platform](a, "platform"), a.u32("param")))
	},
	capability.OpGetDeviceIDs: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetDeviceIDs(handleArg[Platform](a, "platform"), driver.DeviceType(a.u64("type"))))
	},
	capability.OpGetDeviceInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetDeviceInfo(handleArg[Device](a, "device"), a.u32("param")))
	},
	capability.OpCreateSubDevices: func(r *Runtime, a *argList) (any, error) {
		sizes := a.sizes("properties")
		props := make([]uintptr, len(sizes))
		for i, s := range sizes {
			props[i] = uintptr(s)
		}
		return result(r.CreateSubDevices(handleArg[Device](a, "device"), props))
	},
	capability.OpGetHostTimer: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetHostTimer(handleArg[Device](a, "device")))
	},
	capability.OpGetDeviceAndHostTimer: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetDeviceAndHostTimer(handleArg[Device](a, "device")))
	},

	capability.OpCreateContext: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreateContext(handlesArg[Device](a, "devices")...))
	},
	capability.OpGetContextInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetContextInfo(handleArg[Context](a, "context"), a.u32("param")))
	},

	capability.OpCreateCommandQueue: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreateCommandQueue(handleArg[Context](a, "context"), handleArg[Device](a, "device"),
			driver.QueueProperties(a.u64("properties"))))
	},
	capability.OpCreateCommandQueueWithProperties: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreateCommandQueueWithProperties(handleArg[Context](a, "context"), handleArg[Device](a, "device"),
			driver.QueueProperties(a.u64("properties")), a.num("size")))
	},
	capability.OpGetCommandQueueInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetCommandQueueInfo(handleArg[CommandQueue](a, "queue"), a.u32("param")))
	},
	capability.OpSetCommandQueueProperty: func(r *Runtime, a *argList) (any, error) {
		return result(r.SetCommandQueueProperty(handleArg[CommandQueue](a, "queue"),
			driver.QueueProperties(a.u64("properties")), a.flag("enable")))
	},
	capability.OpSetDefaultDeviceCommandQueue: func(r *Runtime, a *argList) (any, error) {
		return nil, r.SetDefaultDeviceCommandQueue(handleArg[Context](a, "context"), handleArg[Device](a, "device"),
			handleArg[CommandQueue](a, "queue"))
	},
	capability.OpFlush: func(r *Runtime, a *argList) (any, error) {
		return nil, r.Flush(handleArg[CommandQueue](a, "queue"))
	},
	capability.OpFinish: func(r *Runtime, a *argList) (any, error) {
		return nil, r.Finish(handleArg[CommandQueue](a, "queue"))
	},

	capability.OpCreateBuffer: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreateBuffer(handleArg[Context](a, "context"), driver.MemFlags(a.u64("flags")),
			a.num("size"), a.data("host")))
	},
	capability.OpCreateSubBuffer: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreateSubBuffer(handleArg[Mem](a, "buffer"), driver.MemFlags(a.u64("flags")),
			a.num("origin"), a.num("size")))
	},
	capability.OpCreateImage: func(r *Runtime, a *argList) (any, error) {
		format := value[driver.ImageFormat](a, "format")
		desc := value[driver.ImageDesc](a, "desc")
		return checked(r, a, func() (any, error) {
			return result(r.CreateImage(handleArg[Context](a, "context"), driver.MemFlags(a.u64("flags")),
				format, desc, a.data("host")))
		})
	},
	capability.OpCreateImage2D: func(r *Runtime, a *argList) (any, error) {
		format := value[driver.ImageFormat](a, "format")
		return checked(r, a, func() (any, error) {
			return result(r.CreateImage2D(handleArg[Context](a, "context"), driver.MemFlags(a.u64("flags")),
				format, a.num("width"), a.num("height"), a.num("rowPitch"), a.data("host")))
		})
	},
	capability.OpCreateImage3D: func(r *Runtime, a *argList) (any, error) {
		format := value[driver.ImageFormat](a, "format")
		return checked(r, a, func() (any, error) {
			return result(r.CreateImage3D(handleArg[Context](a, "context"), driver.MemFlags(a.u64("flags")),
				format, a.num("width"), a.num("height"), a.num("depth"),
				a.num("rowPitch"), a.num("slicePitch"), a.data("host")))
		})
	},
	capability.OpCreatePipe: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreatePipe(handleArg[Context](a, "context"), driver.MemFlags(a.u64("flags")),
			a.u32("packetSize"), a.u32("maxPackets")))
	},
	capability.OpGetPipeInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetPipeInfo(handleArg[Mem](a, "pipe"), a.u32("param")))
	},
	capability.OpGetMemObjectInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetMemObjectInfo(handleArg[Mem](a, "mem"), a.u32("param")))
	},
	capability.OpSetMemObjectDestructorCallback: func(r *Runtime, a *argList) (any, error) {
		fn := value[func()](a, "callback")
		return checked(r, a, func() (any, error) {
			return nil, r.SetMemObjectDestructorCallback(handleArg[Mem](a, "mem"), fn)
		})
	},

	capability.OpCreateSampler: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreateSampler(handleArg[Context](a, "context"), a.flag("normalized"),
			driver.AddressingMode(a.u64("addressing")), driver.FilterMode(a.u64("filter"))))
	},
	capability.OpCreateSamplerWithProperties: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreateSamplerWithProperties(handleArg[Context](a, "context"), a.flag("normalized"),
			driver.AddressingMode(a.u64("addressing")), driver.FilterMode(a.u64("filter"))))
	},
	capability.OpGetSamplerInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetSamplerInfo(handleArg[Sampler](a, "sampler"), a.u32("param")))
	},

	capability.OpCreateProgramWithSource: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreateProgramWithSource(handleArg[Context](a, "context"), a.strs("sources")...))
	},
	capability.OpCreateProgramWithBinary: func(r *Runtime, a *argList) (any, error) {
		binaries, _ := a.get("binaries").([][]byte)
		return result(r.CreateProgramWithBinary(handleArg[Context](a, "context"), handlesArg[Device](a, "devices"), binaries))
	},
	capability.OpCreateProgramWithBuiltInKernels: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreateProgramWithBuiltInKernels(handleArg[Context](a, "context"), handlesArg[Device](a, "devices"),
			a.str("names")))
	},
	capability.OpCreateProgramWithIL: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreateProgramWithIL(handleArg[Context](a, "context"), a.data("il")))
	},
	capability.OpBuildProgram: func(r *Runtime, a *argList) (any, error) {
		return nil, r.BuildProgram(handleArg[Program](a, "program"), a.str("options"), handlesArg[Device](a, "devices")...)
	},
	capability.OpCompileProgram: func(r *Runtime, a *argList) (any, error) {
		return nil, r.CompileProgram(handleArg[Program](a, "program"), a.str("options"), handlesArg[Device](a, "devices"),
			handlesArg[Program](a, "headers"), a.strs("headerNames"))
	},
	capability.OpLinkProgram: func(r *Runtime, a *argList) (any, error) {
		return result(r.LinkProgram(handleArg[Context](a, "context"), handlesArg[Program](a, "programs"),
			a.str("options"), handlesArg[Device](a, "devices")...))
	},
	capability.OpUnloadCompiler: func(r *Runtime, a *argList) (any, error) {
		return nil, r.UnloadCompiler()
	},
	capability.OpUnloadPlatformCompiler: func(r *Runtime, a *argList) (any, error) {
		return nil, r.UnloadPlatformCompiler(handleArg[Platform](a, "platform"))
	},
	capability.OpGetProgramInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetProgramInfo(handleArg[Program](a, "program"), a.u32("param")))
	},
	capability.OpGetProgramBuildInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetProgramBuildInfo(handleArg[Program](a, "program"), handleArg[Device](a, "device"), a.u32("param")))
	},
	capability.OpSetProgramReleaseCallback: func(r *Runtime, a *argList) (any, error) {
		fn := value[func()](a, "callback")
		return checked(r, a, func() (any, error) {
			return nil, r.SetProgramReleaseCallback(handleArg[Program](a, "program"), fn)
		})
	},
	capability.OpSetProgramSpecializationConstant: func(r *Runtime, a *argList) (any, error) {
		return nil, r.SetProgramSpecializationConstant(handleArg[Program](a, "program"), a.u32("id"), a.data("value"))
	},

	capability.OpCreateKernel: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreateKernel(handleArg[Program](a, "program"), a.str("name")))
	},
	capability.OpCreateKernelsInProgram: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreateKernelsInProgram(handleArg[Program](a, "program")))
	},
	capability.OpCloneKernel: func(r *Runtime, a *argList) (any, error) {
		return result(r.CloneKernel(handleArg[Kernel](a, "kernel")))
	},
	capability.OpSetKernelArg: func(r *Runtime, a *argList) (any, error) {
		v := a.get("value")
		if h, ok := v.(Handle); ok {
			v = kernelArgHandle(h)
		}
		return nil, r.SetKernelArg(handleArg[Kernel](a, "kernel"), a.u32("index"), v)
	},
	capability.OpSetKernelArgSVMPointer: func(r *Runtime, a *argList) (any, error) {
		ptr, _ := a.get("ptr").(driver.SVMPtr)
		return nil, r.SetKernelArgSVMPointer(handleArg[Kernel](a, "kernel"), a.u32("index"), ptr)
	},
	capability.OpSetKernelExecInfo: func(r *Runtime, a *argList) (any, error) {
		return nil, r.SetKernelExecInfo(handleArg[Kernel](a, "kernel"), a.u32("param"), a.data("value"))
	},
	capability.OpGetKernelInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetKernelInfo(handleArg[Kernel](a, "kernel"), a.u32("param")))
	},
	capability.OpGetKernelWorkGroupInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetKernelWorkGroupInfo(handleArg[Kernel](a, "kernel"), handleArg[Device](a, "device"), a.u32("param")))
	},
	capability.OpGetKernelArgInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetKernelArgInfo(handleArg[Kernel](a, "kernel"), a.u32("index"), a.u32("param")))
	},
	capability.OpGetKernelSubGroupInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetKernelSubGroupInfo(handleArg[Kernel](a, "kernel"), handleArg[Device](a, "device"),
			a.u32("param"), a.data("input")))
	},

	capability.OpCreateUserEvent: func(r *Runtime, a *argList) (any, error) {
		return result(r.CreateUserEvent(handleArg[Context](a, "context")))
	},
	capability.OpSetUserEventStatus: func(r *Runtime, a *argList) (any, error) {
		return nil, r.SetUserEventStatus(handleArg[Event](a, "event"), driver.ExecStatus(int32(a.u64("status"))))
	},
	capability.OpSetEventCallback: func(r *Runtime, a *argList) (any, error) {
		fn := value[func(Event, driver.ExecStatus)](a, "callback")
		return checked(r, a, func() (any, error) {
			return nil, r.SetEventCallback(handleArg[Event](a, "event"), fn)
		})
	},
	capability.OpWaitForEvents: func(r *Runtime, a *argList) (any, error) {
		return nil, r.WaitForEvents(handlesArg[Event](a, "events")...)
	},
	capability.OpGetEventInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetEventInfo(handleArg[Event](a, "event"), a.u32("param")))
	},
	capability.OpGetEventProfilingInfo: func(r *Runtime, a *argList) (any, error) {
		return result(r.GetEventProfilingInfo(handleArg[Event](a, "event"), a.u32("param")))
	},

	capability.OpEnqueueReadBuffer: func(r *Runtime, a *argList) (any, error) {
		return result(r.EnqueueReadBuffer(handleArg[CommandQueue](a, "queue"), handleArg[Mem](a, "buffer"),
			a.flag("blocking"), a.num("offset"), a.data("dst"), handlesArg[Event](a, "wait")...))
	},
	capability.OpEnqueueWriteBuffer: func(r *Runtime, a *argList) (any, error) {
		return result(r.EnqueueWriteBuffer(handleArg[CommandQueue](a, "queue"), handleArg[Mem](a, "buffer"),
			a.flag("blocking"), a.num("offset"), a.data("src"), handlesArg[Event](a, "wait")...))
	},
	capability.OpEnqueueCopyBuffer: func(r *Runtime, a *argList) (any, error) {
		return result(r.EnqueueCopyBuffer(handleArg[CommandQueue](a, "queue"), handleArg[Mem](a, "src"), handleArg[Mem](a, "dst"),
			a.num("srcOffset"), a.num("dstOffset"), a.num("size"), handlesArg[Event](a, "wait")...))
	},
	capability.OpEnqueueReadBufferRect: func(r *Runtime, a *argList) (any, error) {
		rect := value[driver.Rect](a, "rect")
		return checked(r, a, func() (any, error) {
			return result(r.EnqueueReadBufferRect(handleArg[CommandQueue](a, "queue"), handleArg[Mem](a, "buffer"),
				a.flag("blocking"), rect, a.data("dst"), handlesArg[Event](a, "wait")...))
		})
	},
	capability.OpEnqueueWriteBufferRect: func(r *Runtime, a *argList) (any, error) {
		rect := value[driver.Rect](a, "rect")
		return checked(r, a, func() (any, error) {
			return result(r.EnqueueWriteBufferRect(handleArg[CommandQueue](a, "queue"), handleArg[Mem](a, "buffer"),
				a.flag("blocking"), rect, a.data("src"), handlesArg[Event](a, "wait")...))
		})
	},
	capability.OpEnqueueCopyBufferRect: func(r *Runtime, a *argList) (any, error) {
		rect := value[CopyRect](a, "rect")
		return checked(r, a, func() (any, error) {
			return result(r.EnqueueCopyBufferRect(handleArg[CommandQueue](a, "queue"), handleArg[Mem](a, "src"),
				handleArg[Mem](a, "dst"), rect, handlesArg[Event](a, "wait")...))
		})
	},
	capability.OpEnqueueFillBuffer: func(r *Runtime, a *argList) (any, error) {
		return result(r.EnqueueFillBuffer(handleArg[CommandQueue](a, "queue"), handleArg[Mem](a, "buffer"),
			a.data("pattern"), a.num("offset"), a.num("size"), handlesArg[Event](a, "wait")...))
	},
	capability.OpEnqueueFillImage: func(r *Runtime, a *argList) (any, error) {
		color := value[[16]byte](a, "color")
		origin := value[[3]int](a, "origin")
		region := value[[3]int](a, "region")
		return checked(r, a, func() (any, error) {
			return result(r.EnqueueFillImage(handleArg[CommandQueue](a, "queue"), handleArg[Mem](a, "image"),
				color, origin, region, handlesArg[Event](a, "wait")...))
		})
	},
	capability.OpEnqueueMigrateMemObjects: func(r *Runtime, a *argList) (any, error) {
		return result(r.EnqueueMigrateMemObjects(handleArg[CommandQueue](a, "queue"), handlesArg[Mem](a, "mems"),
			driver.MigrationFlags(a.u64("flags")), handlesArg[Event](a, "wait")...))
	},
	capability.OpEnqueueNDRangeKernel: func(r *Runtime, a *argList) (any, error) {
		return result(r.EnqueueNDRangeKernel(handleArg[CommandQueue](a, "queue"), handleArg[Kernel](a, "kernel"),
			a.sizes("offset"), a.sizes("global"), a.sizes("local"), handlesArg[Event](a, "wait")...))
	},
	capability.OpEnqueueTask: func(r *Runtime, a *argList) (any, error) {
		return result(r.EnqueueTask(handleArg[CommandQueue](a, "queue"), handleArg[Kernel](a, "kernel"),
			handlesArg[Event](a, "wait")...))
	},
	capability.OpEnqueueMarker: func(r *Runtime, a *argList) (any, error) {
		return result(r.EnqueueMarker(handleArg[CommandQueue](a, "queue")))
	},
	capability.OpEnqueueWaitForEvents: func(r *Runtime, a *argList) (any, error) {
		return nil, r.EnqueueWaitForEvents(handleArg[CommandQueue](a, "queue"), handlesArg[Event](a, "events")...)
	},
	capability.OpEnqueueBarrier: func(r *Runtime, a *argList) (any, error) {
		return nil, r.EnqueueBarrier(handleArg[CommandQueue](a, "queue"))
	},
	capability.OpEnqueueMarkerWithWaitList: func(r *Runtime, a *argList) (any, error) {
		return result(r.EnqueueMarkerWithWaitList(handleArg[CommandQueue](a, "queue"), handlesArg[Event](a, "wait")...))
	},
	capability.OpEnqueueBarrierWithWaitList: func(r *Runtime, a *argList) (any, error) {
		return result(r.EnqueueBarrierWithWaitList(handleArg[CommandQueue](a, "queue"), handlesArg[Event](a, "wait")...))
	},

	capability.OpSVMAlloc: func(r *Runtime, a *argList) (any, error) {
		return result(r.SVMAlloc(handleArg[Context](a, "context"), driver.MemFlags(a.u64("flags")),
			a.num("size"), a.u32("alignment")))
	},
	capability.OpSVMFree: func(r *Runtime, a *argList) (any, error) {
		ptr, _ := a.get("ptr").(driver.SVMPtr)
		return nil, r.SVMFree(handleArg[Context](a, "context"), ptr)
	},
	capability.OpEnqueueSVMFree: func(r *Runtime, a *argList) (any, error) {
		svms, _ := a.get("ptrs").([]driver.SVMPtr)
		return result(r.EnqueueSVMFree(handleArg[CommandQueue](a, "queue"), svms, handlesArg[Event](a, "wait")...))
	},
	capability.OpEnqueueSVMMemcpy: func(r *Runtime, a *argList) (any, error) {
		dst, _ := a.get("dst").(driver.SVMPtr)
		src, _ := a.get("src").(driver.SVMPtr)
		return result(r.EnqueueSVMMemcpy(handleArg[CommandQueue](a, "queue"), a.flag("blocking"), dst, src,
			a.num("size"), handlesArg[Event](a, "wait")...))
	},
	capability.OpEnqueueSVMMemFill: func(r *Runtime, a *argList) (any, error) {
		ptr, _ := a.get("ptr").(driver.SVMPtr)
		return result(r.EnqueueSVMMemFill(handleArg[CommandQueue](a, "queue"), ptr, a.data("pattern"),
			a.num("size"), handlesArg[Event](a, "wait")...))
	},
	capability.OpEnqueueSVMMap: func(r *Runtime, a *argList) (any, error) {
		ptr, _ := a.get("ptr").(driver.SVMPtr)
		return result(r.EnqueueSVMMap(handleArg[CommandQueue](a, "queue"), a.flag("blocking"),
			driver.MapFlags(a.u64("flags")), ptr, a.num("size"), handlesArg[Event](a, "wait")...))
	},
	capability.OpEnqueueSVMUnmap: func(r *Runtime, a *argList) (any, error) {
		ptr, _ := a.get("ptr").(driver.SVMPtr)
		return result(r.EnqueueSVMUnmap(handleArg[CommandQueue](a, "queue"), ptr, handlesArg[Event](a, "wait")...))
	},
	capability.OpEnqueueSVMMigrateMem: func(r *Runtime, a *argList) (any, error) {
		svms, _ := a.get("ptrs").([]driver.SVMPtr)
		return result(r.EnqueueSVMMigrateMem(handleArg[CommandQueue](a, "queue"), svms, a.sizes("sizes"),
			driver.MigrationFlags(a.u64("flags")), handlesArg[Event](a, "wait")...))
	},
}

func init() {
	for _, k := range driver.Kinds() {
		if op, ok := capability.RetainOp(k); ok {
			invokers[op] = refInvoker(k, true)
		}
		if op, ok := capability.ReleaseOp(k); ok {
			invokers[op] = refInvoker(k, false)
		}
	}
}

func refInvoker(k driver.Kind, retain bool) invoker {
	return func(r *Runtime, a *argList) (any, error) {
		h := a.handle(k.String())
		if retain {
			op, _ := capability.RetainOp(k)
			return nil, r.retain(op, h)
		}
		op, _ := capability.ReleaseOp(k)
		return nil, r.release(op, h)
	}
}

// kernelArgHandle maps a handle accepted by signature validation onto the
// handle type SetKernelArg expects for its kind.
func kernelArgHandle(h Handle) any {
	switch h.Kind() {
	case driver.KindMem:
		return Mem{ptr: h.Ptr()}
	case driver.KindSampler:
		return Sampler{ptr: h.Ptr()}
	case driver.KindCommandQueue:
		return CommandQueue{ptr: h.Ptr()}
	}
	return h
}

// Dispatchable reports whether Invoke has a dispatch entry for op. Every
// operation of the standard registry has one.
func Dispatchable(op capability.Op) bool {
	_, ok := invokers[op]
	return ok
}
