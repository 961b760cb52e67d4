package capability

import "github.com/fxnlabs/clfacade/pkg/cl/driver"

// Op names an operation of the host API. Names follow the C entry points
// without the "cl" prefix.
type Op string

const (
	OpGetPlatformIDs        Op = "getPlatformIDs"
	OpGetPlatformInfo       Op = "getPlatformInfo"
	OpGetDeviceIDs          Op = "getDeviceIDs"
	OpGetDeviceInfo         Op = "getDeviceInfo"
	OpCreateSubDevices      Op = "createSubDevices"
	OpRetainDevice          Op = "retainDevice"
	OpReleaseDevice         Op = "releaseDevice"
	OpGetHostTimer          Op = "getHostTimer"
	OpGetDeviceAndHostTimer Op = "getDeviceAndHostTimer"

	OpCreateContext  Op = "createContext"
	OpRetainContext  Op = "retainContext"
	OpReleaseContext Op = "releaseContext"
	OpGetContextInfo Op = "getContextInfo"

	OpCreateCommandQueue               Op = "createCommandQueue"
	OpCreateCommandQueueWithProperties Op = "createCommandQueueWithProperties"
	OpRetainCommandQueue               Op = "retainCommandQueue"
	OpReleaseCommandQueue              Op = "releaseCommandQueue"
	OpGetCommandQueueInfo              Op = "getCommandQueueInfo"
	OpSetCommandQueueProperty          Op = "setCommandQueueProperty"
	OpSetDefaultDeviceCommandQueue     Op = "setDefaultDeviceCommandQueue"
	OpFlush                            Op = "flush"
	OpFinish                           Op = "finish"

	OpCreateBuffer                   Op = "createBuffer"
	OpCreateSubBuffer                Op = "createSubBuffer"
	OpCreateImage                    Op = "createImage"
	OpCreateImage2D                  Op = "createImage2D"
	OpCreateImage3D                  Op = "createImage3D"
	OpCreatePipe                     Op = "createPipe"
	OpGetPipeInfo                    Op = "getPipeInfo"
	OpRetainMemObject                Op = "retainMemObject"
	OpReleaseMemObject               Op = "releaseMemObject"
	OpGetMemObjectInfo               Op = "getMemObjectInfo"
	OpSetMemObjectDestructorCallback Op = "setMemObjectDestructorCallback"

	OpCreateSampler               Op = "createSampler"
	OpCreateSamplerWithProperties Op = "createSamplerWithProperties"
	OpRetainSampler               Op = "retainSampler"
	OpReleaseSampler              Op = "releaseSampler"
	OpGetSamplerInfo              Op = "getSamplerInfo"

	OpCreateProgramWithSource          Op = "createProgramWithSource"
	OpCreateProgramWithBinary          Op = "createProgramWithBinary"
	OpCreateProgramWithBuiltInKernels  Op = "createProgramWithBuiltInKernels"
	OpCreateProgramWithIL              Op = "createProgramWithIL"
	OpRetainProgram                    Op = "retainProgram"
	OpReleaseProgram                   Op = "releaseProgram"
	OpBuildProgram                     Op = "buildProgram"
	OpCompileProgram                   Op = "compileProgram"
	OpLinkProgram                      Op = "linkProgram"
	OpUnloadCompiler                   Op = "unloadCompiler"
	OpUnloadPlatformCompiler           Op = "unloadPlatformCompiler"
	OpGetProgramInfo                   Op = "getProgramInfo"
	OpGetProgramBuildInfo              Op = "getProgramBuildInfo"
	OpSetProgramReleaseCallback        Op = "setProgramReleaseCallback"
	OpSetProgramSpecializationConstant Op = "setProgramSpecializationConstant"
	OpCreateKernel                     Op = "createKernel"
	OpCreateKernelsInProgram           Op = "createKernelsInProgram"
	OpCloneKernel                      Op = "cloneKernel"
	OpRetainKernel                     Op = "retainKernel"
	OpReleaseKernel                    Op = "releaseKernel"
	OpSetKernelArg                     Op = "setKernelArg"
	OpSetKernelArgSVMPointer           Op = "setKernelArgSVMPointer"
	OpSetKernelExecInfo                Op = "setKernelExecInfo"
	OpGetKernelInfo                    Op = "getKernelInfo"
	OpGetKernelWorkGroupInfo           Op = "getKernelWorkGroupInfo"
	OpGetKernelArgInfo                 Op = "getKernelArgInfo"
	OpGetKernelSubGroupInfo            Op = "getKernelSubGroupInfo"
	OpCreateUserEvent                  Op = "createUserEvent"
	OpSetUserEventStatus               Op = "setUserEventStatus"
	OpSetEventCallback                 Op = "setEventCallback"
	OpWaitForEvents                    Op = "waitForEvents"
	OpGetEventInfo                     Op = "getEventInfo"
	OpGetEventProfilingInfo            Op = "getEventProfilingInfo"
	OpRetainEvent                      Op = "retainEvent"
	OpReleaseEvent                     Op = "releaseEvent"
	OpEnqueueReadBuffer                Op = "enqueueReadBuffer"
	OpEnqueueWriteBuffer               Op = "enqueueWriteBuffer"
	OpEnqueueCopyBuffer                Op = "enqueueCopyBuffer"
	OpEnqueueReadBufferRect            Op = "enqueueReadBufferRect"
	OpEnqueueWriteBufferRect           Op = "enqueueWriteBufferRect"
	OpEnqueueCopyBufferRect            Op = "enqueueCopyBufferRect"
	OpEnqueueFillBuffer                Op = "enqueueFillBuffer"
	OpEnqueueFillImage                 Op = "enqueueFillImage"
	OpEnqueueMigrateMemObjects         Op = "enqueueMigrateMemObjects"
	OpEnqueueNDRangeKernel             Op = "enqueueNDRangeKernel"
	OpEnqueueTask                      Op = "enqueueTask"
	OpEnqueueMarker                    Op = "enqueueMarker"
	OpEnqueueWaitForEvents             Op = "enqueueWaitForEvents"
	OpEnqueueBarrier                   Op = "enqueueBarrier"
	OpEnqueueMarkerWithWaitList        Op = "enqueueMarkerWithWaitList"
	OpEnqueueBarrierWithWaitList       Op = "enqueueBarrierWithWaitList"
	OpSVMAlloc                         Op = "svmAlloc"
	OpSVMFree                          Op = "svmFree"
	OpEnqueueSVMFree                   Op = "enqueueSVMFree"
	OpEnqueueSVMMemcpy                 Op = "enqueueSVMMemcpy"
	OpEnqueueSVMMemFill                Op = "enqueueSVMMemFill"
	OpEnqueueSVMMap                    Op = "enqueueSVMMap"
	OpEnqueueSVMUnmap                  Op = "enqueueSVMUnmap"
	OpEnqueueSVMMigrateMem             Op = "enqueueSVMMigrateMem"
)

// Definition is the full revision history of one operation.
type Definition struct {
	Op         Op
	Deprecated Version
	// Revisions are ordered by Since and never overlap.
	Revisions []Signature
}

// Since is the version that introduced the operation.
func (d Definition) Since() Version {
	return d.Revisions[0].Since
}

// Removed is the version that dropped the operation, or VersionNone.
func (d Definition) Removed() Version {
	return d.Revisions[len(d.Revisions)-1].Removed
}

func def(op Op, since Version, result Result, params ...Param) Definition {
	return Definition{
		Op:        op,
		Revisions: []Signature{{Op: op, Since: since, Params: params, Result: result}},
	}
}

func (d Definition) deprecated(v Version) Definition {
	d.Deprecated = v
	return d
}

func (d Definition) removed(v Version) Definition {
	d.Revisions[len(d.Revisions)-1].Removed = v
	return d
}

func (d Definition) note(s string) Definition {
	d.Revisions[len(d.Revisions)-1].Note = s
	return d
}

// revise closes the current revision at since and opens a new one.
func (d Definition) revise(since Version, note string, params ...Param) Definition {
	last := d.Revisions[len(d.Revisions)-1]
	d.Revisions[len(d.Revisions)-1].Removed = since
	d.Revisions = append(d.Revisions, Signature{
		Op:     d.Op,
		Since:  since,
		Params: params,
		Result: last.Result,
		Note:   note,
	})
	return d
}

func h(name string, kind driver.Kind) Param {
	return Param{Name: name, Type: TypeHandle, Kind: kind}
}

func hs(name string, kind driver.Kind) Param {
	return Param{Name: name, Type: TypeHandles, Kind: kind}
}

func p(name string, t Type) Param {
	return Param{Name: name, Type: t}
}

func opt(p Param) Param {
	p.Optional = true
	return p
}

func enum(name, group string, values ...string) Param {
	return Param{Name: name, Type: TypeEnum, Group: group, Values: values}
}

func returns(t Type) Result { return Result{Type: t} }

func returnsHandle(k driver.Kind) Result { return Result{Type: TypeHandle, Kind: k} }

func returnsHandles(k driver.Kind) Result { return Result{Type: TypeHandles, Kind: k} }

var (
	resNone = Result{}

	argPlatform = h("platform", driver.KindPlatform)
	argDevice   = h("device", driver.KindDevice)
	argContext  = h("context", driver.KindContext)
	argQueue    = h("queue", driver.KindCommandQueue)
	argMem      = h("mem", driver.KindMem)
	argBuffer   = h("buffer", driver.KindMem)
	argSampler  = h("sampler", driver.KindSampler)
	argProgram  = h("program", driver.KindProgram)
	argKernel   = h("kernel", driver.KindKernel)
	argEvent    = h("event", driver.KindEvent)

	argParam   = p("param", TypeUint)
	argDevices = opt(hs("devices", driver.KindDevice))
	argWait    = opt(hs("wait", driver.KindEvent))
	resEvent   = returnsHandle(driver.KindEvent)
	resInfo    = returns(TypeBytes)
)

func retainRelease(retain, release Op, since Version, k driver.Kind) []Definition {
	obj := h(k.String(), k)
	return []Definition{
		def(retain, since, resNone, obj),
		def(release, since, resNone, obj),
	}
}

func definitions() []Definition {
	defs := []Definition{
		def(OpGetPlatformIDs, V10, returnsHandles(driver.KindPlatform)),
		def(OpGetPlatformInfo, V10, resInfo, argPlatform, argParam),
		def(OpGetDeviceIDs, V10, returnsHandles(driver.KindDevice), argPlatform, p("type", TypeFlags)),
		def(OpGetDeviceInfo, V10, resInfo, argDevice, argParam),
		def(OpCreateSubDevices, V12, returnsHandles(driver.KindDevice), argDevice, p("properties", TypeSizes)),
		def(OpGetHostTimer, V21, returns(TypeUint64), argDevice),
		def(OpGetDeviceAndHostTimer, V21, returns(TypeValue), argDevice),

		def(OpCreateContext, V10, returnsHandle(driver.KindContext), hs("devices", driver.KindDevice)),
		def(OpGetContextInfo, V10, resInfo, argContext, argParam),

		def(OpCreateCommandQueue, V10, returnsHandle(driver.KindCommandQueue), argContext, argDevice, opt(p("properties", TypeFlags))).
			deprecated(V20),
		def(OpCreateCommandQueueWithProperties, V20, returnsHandle(driver.KindCommandQueue),
			argContext, argDevice, opt(p("properties", TypeFlags)), opt(p("size", TypeSize))),
		def(OpGetCommandQueueInfo, V10, resInfo, argQueue, argParam),
		def(OpSetCommandQueueProperty, V10, returns(TypeFlags), argQueue, p("properties", TypeFlags), p("enable", TypeBool)).
			removed(V11),
		def(OpSetDefaultDeviceCommandQueue, V21, resNone, argContext, argDevice, argQueue),
		def(OpFlush, V10, resNone, argQueue),
		def(OpFinish, V10, resNone, argQueue),

		def(OpCreateBuffer, V10, returnsHandle(driver.KindMem), argContext, p("flags", TypeFlags), p("size", TypeSize), opt(p("host", TypeBytes))),
		def(OpCreateSubBuffer, V11, returnsHandle(driver.KindMem), argBuffer, p("flags", TypeFlags), p("origin", TypeSize), p("size", TypeSize)),
		def(OpCreateImage2D, V10, returnsHandle(driver.KindMem),
			argContext, p("flags", TypeFlags), p("format", TypeValue), p("width", TypeSize), p("height", TypeSize),
			opt(p("rowPitch", TypeSize)), opt(p("host", TypeBytes))).
			deprecated(V12),
		def(OpCreateImage3D, V10, returnsHandle(driver.KindMem),
			argContext, p("flags", TypeFlags), p("format", TypeValue), p("width", TypeSize), p("height", TypeSize), p("depth", TypeSize),
			opt(p("rowPitch", TypeSize)), opt(p("slicePitch", TypeSize)), opt(p("host", TypeBytes))).
			deprecated(V12),
		def(OpCreateImage, V12, returnsHandle(driver.KindMem),
			argContext, p("flags", TypeFlags), p("format", TypeValue), p("desc", TypeValue), opt(p("host", TypeBytes))),
		def(OpCreatePipe, V20, returnsHandle(driver.KindMem), argContext, p("flags", TypeFlags), p("packetSize", TypeUint), p("maxPackets", TypeUint)),
		def(OpGetPipeInfo, V20, resInfo, h("pipe", driver.KindMem), argParam),
		def(OpGetMemObjectInfo, V10, resInfo, argMem, argParam),
		def(OpSetMemObjectDestructorCallback, V11, resNone, argMem, p("callback", TypeCallback)),

		def(OpCreateSampler, V10, returnsHandle(driver.KindSampler),
			argContext, p("normalized", TypeBool),
			enum("addressing", GroupAddressingMode, "CL_ADDRESS_NONE", "CL_ADDRESS_CLAMP_TO_EDGE", "CL_ADDRESS_CLAMP", "CL_ADDRESS_REPEAT"),
			enum("filter", GroupFilterMode)).
			revise(V11, "adds CL_ADDRESS_MIRRORED_REPEAT",
				argContext, p("normalized", TypeBool),
				enum("addressing", GroupAddressingMode),
				enum("filter", GroupFilterMode)).
			deprecated(V20),
		def(OpCreateSamplerWithProperties, V20, returnsHandle(driver.KindSampler),
			argContext, p("normalized", TypeBool), enum("addressing", GroupAddressingMode), enum("filter", GroupFilterMode)),
		def(OpGetSamplerInfo, V10, resInfo, argSampler, argParam),

		def(OpCreateProgramWithSource, V10, returnsHandle(driver.KindProgram), argContext, p("sources", TypeStrings)),
		def(OpCreateProgramWithBinary, V10, returnsHandle(driver.KindProgram), argContext, hs("devices", driver.KindDevice), p("binaries", TypeBytesList)),
		def(OpCreateProgramWithBuiltInKernels, V12, returnsHandle(driver.KindProgram), argContext, hs("devices", driver.KindDevice), p("names", TypeString)),
		def(OpCreateProgramWithIL, V21, returnsHandle(driver.KindProgram), argContext, p("il", TypeBytes)),
		def(OpBuildProgram, V10, resNone, argProgram, opt(p("options", TypeString)), argDevices),
		def(OpCompileProgram, V12, resNone,
			argProgram, opt(p("options", TypeString)), argDevices,
			opt(hs("headers", driver.KindProgram)), opt(p("headerNames", TypeStrings))),
		def(OpLinkProgram, V12, returnsHandle(driver.KindProgram),
			argContext, hs("programs", driver.KindProgram), opt(p("options", TypeString)), argDevices),
		def(OpUnloadCompiler, V10, resNone).
			deprecated(V11).
			removed(V12),
		def(OpUnloadPlatformCompiler, V12, resNone, argPlatform),
		def(OpGetProgramInfo, V10, resInfo, argProgram, argParam),
		def(OpGetProgramBuildInfo, V10, resInfo, argProgram, argDevice, argParam),
		def(OpSetProgramReleaseCallback, V22, resNone, argProgram, p("callback", TypeCallback)),
		def(OpSetProgramSpecializationConstant, V22, resNone, argProgram, p("id", TypeUint), p("value", TypeBytes)),

		def(OpCreateKernel, V10, returnsHandle(driver.KindKernel), argProgram, p("name", TypeString)),
		def(OpCreateKernelsInProgram, V10, returnsHandles(driver.KindKernel), argProgram),
		def(OpCloneKernel, V21, returnsHandle(driver.KindKernel), argKernel),
		def(OpSetKernelArg, V10, resNone, argKernel, p("index", TypeUint), p("value", TypeKernelArg)),
		def(OpSetKernelArgSVMPointer, V20, resNone, argKernel, p("index", TypeUint), p("ptr", TypeSVM)),
		def(OpSetKernelExecInfo, V20, resNone, argKernel, argParam, p("value", TypeBytes)),
		def(OpGetKernelInfo, V10, resInfo, argKernel, argParam),
		def(OpGetKernelWorkGroupInfo, V10, resInfo, argKernel, argDevice, argParam),
		def(OpGetKernelArgInfo, V12, resInfo, argKernel, p("index", TypeUint), argParam),
		def(OpGetKernelSubGroupInfo, V21, resInfo, argKernel, argDevice, argParam, opt(p("input", TypeBytes))),

		def(OpCreateUserEvent, V11, returnsHandle(driver.KindEvent), argContext),
		def(OpSetUserEventStatus, V11, resNone, argEvent, enum("status", GroupExecutionStatus, "CL_COMPLETE")).
			note("negative error statuses are accepted by the typed method only"),
		def(OpSetEventCallback, V11, resNone, argEvent, p("callback", TypeCallback)),
		def(OpWaitForEvents, V10, resNone, hs("events", driver.KindEvent)),
		def(OpGetEventInfo, V10, resInfo, argEvent, argParam),
		def(OpGetEventProfilingInfo, V10, resInfo, argEvent, argParam),

		def(OpEnqueueReadBuffer, V10, resEvent, argQueue, argBuffer, p("blocking", TypeBool), p("offset", TypeSize), p("dst", TypeBytes), argWait),
		def(OpEnqueueWriteBuffer, V10, resEvent, argQueue, argBuffer, p("blocking", TypeBool), p("offset", TypeSize), p("src", TypeBytes), argWait),
		def(OpEnqueueCopyBuffer, V10, resEvent,
			argQueue, h("src", driver.KindMem), h("dst", driver.KindMem),
			p("srcOffset", TypeSize), p("dstOffset", TypeSize), p("size", TypeSize), argWait),
		def(OpEnqueueReadBufferRect, V11, resEvent, argQueue, argBuffer, p("blocking", TypeBool), p("rect", TypeValue), p("dst", TypeBytes), argWait),
		def(OpEnqueueWriteBufferRect, V11, resEvent, argQueue, argBuffer, p("blocking", TypeBool), p("rect", TypeValue), p("src", TypeBytes), argWait),
		def(OpEnqueueCopyBufferRect, V11, resEvent,
			argQueue, h("src", driver.KindMem), h("dst", driver.KindMem), p("rect", TypeValue), argWait),
		def(OpEnqueueFillBuffer, V12, resEvent, argQueue, argBuffer, p("pattern", TypeBytes), p("offset", TypeSize), p("size", TypeSize), argWait),
		def(OpEnqueueFillImage, V12, resEvent,
			argQueue, h("image", driver.KindMem), p("color", TypeValue), p("origin", TypeValue), p("region", TypeValue), argWait),
		def(OpEnqueueMigrateMemObjects, V12, resEvent, argQueue, hs("mems", driver.KindMem), opt(p("flags", TypeFlags)), argWait),
		def(OpEnqueueNDRangeKernel, V10, resEvent,
			argQueue, argKernel, p("global", TypeSizes), opt(p("local", TypeSizes)), argWait).
			revise(V11, "adds the global work offset",
				argQueue, argKernel, opt(p("offset", TypeSizes)), p("global", TypeSizes), opt(p("local", TypeSizes)), argWait),
		def(OpEnqueueTask, V10, resEvent, argQueue, argKernel, argWait).
			deprecated(V20),
		def(OpEnqueueMarker, V10, resEvent, argQueue).
			deprecated(V12),
		def(OpEnqueueWaitForEvents, V10, resNone, argQueue, hs("events", driver.KindEvent)).
			deprecated(V12),
		def(OpEnqueueBarrier, V10, resNone, argQueue).
			deprecated(V12),
		def(OpEnqueueMarkerWithWaitList, V12, resEvent, argQueue, argWait),
		def(OpEnqueueBarrierWithWaitList, V12, resEvent, argQueue, argWait),

		def(OpSVMAlloc, V20, returns(TypeSVM), argContext, p("flags", TypeFlags), p("size", TypeSize), opt(p("alignment", TypeUint))),
		def(OpSVMFree, V20, resNone, argContext, p("ptr", TypeSVM)),
		def(OpEnqueueSVMFree, V20, resEvent, argQueue, p("ptrs", TypeSVMs), argWait),
		def(OpEnqueueSVMMemcpy, V20, resEvent, argQueue, p("blocking", TypeBool), p("dst", TypeSVM), p("src", TypeSVM), p("size", TypeSize), argWait),
		def(OpEnqueueSVMMemFill, V20, resEvent, argQueue, p("ptr", TypeSVM), p("pattern", TypeBytes), p("size", TypeSize), argWait),
		def(OpEnqueueSVMMap, V20, resEvent, argQueue, p("blocking", TypeBool), p("flags", TypeFlags), p("ptr", TypeSVM), p("size", TypeSize), argWait),
		def(OpEnqueueSVMUnmap, V20, resEvent, argQueue, p("ptr", TypeSVM), argWait),
		def(OpEnqueueSVMMigrateMem, V21, resEvent, argQueue, p("ptrs", TypeSVMs), opt(p("sizes", TypeSizes)), opt(p("flags", TypeFlags)), argWait),
	}
	defs = append(defs, retainRelease(OpRetainDevice, OpReleaseDevice, V12, driver.KindDevice)...)
	defs = append(defs, retainRelease(OpRetainContext, OpReleaseContext, V10, driver.KindContext)...)
	defs = append(defs, retainRelease(OpRetainCommandQueue, OpReleaseCommandQueue, V10, driver.KindCommandQueue)...)
	defs = append(defs, retainRelease(OpRetainMemObject, OpReleaseMemObject, V10, driver.KindMem)...)
	defs = append(defs, retainRelease(OpRetainSampler, OpReleaseSampler, V10, driver.KindSampler)...)
	defs = append(defs, retainRelease(OpRetainProgram, OpReleaseProgram, V10, driver.KindProgram)...)
	defs = append(defs, retainRelease(OpRetainKernel, OpReleaseKernel, V10, driver.KindKernel)...)
	defs = append(defs, retainRelease(OpRetainEvent, OpReleaseEvent, V10, driver.KindEvent)...)
	return defs
}

// RetainOp and ReleaseOp return the reference counting operations for
// handles of kind k. Platforms have none.
func RetainOp(k driver.Kind) (Op, bool) {
	op, ok := retainOps[k]
	return op, ok
}

func ReleaseOp(k driver.Kind) (Op, bool) {
	op, ok := releaseOps[k]
	return op, ok
}

var retainOps = map[driver.Kind]Op{
	driver.KindDevice:       OpRetainDevice,
	driver.KindContext:      OpRetainContext,
	driver.KindCommandQueue: OpRetainCommandQueue,
	driver.KindMem:          OpRetainMemObject,
	driver.KindSampler:      OpRetainSampler,
	driver.KindProgram:      OpRetainProgram,
	driver.KindKernel:       OpRetainKernel,
	driver.KindEvent:        OpRetainEvent,
}

var releaseOps = map[driver.Kind]Op{
	driver.KindDevice:       OpReleaseDevice,
	driver.KindContext:      OpReleaseContext,
	driver.KindCommandQueue: OpReleaseCommandQueue,
	driver.KindMem:          OpReleaseMemObject,
	driver.KindSampler:      OpReleaseSampler,
	driver.KindProgram:      OpReleaseProgram,
	driver.KindKernel:       OpReleaseKernel,
	driver.KindEvent:        OpReleaseEvent,
}
