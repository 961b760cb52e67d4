package sim

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

const (
	vendor        = "fxnlabs"
	driverVersion = "1.0.0"
	localMemSize  = 32 * 1024
	ilVersion     = "SPIR-V_1.2"
)

// paramSince lists info parameters added after 1.0. Asking a runtime for a
// parameter newer than its version yields CL_INVALID_VALUE.
var paramSince = map[uint32]capability.Version{
	driver.PlatformHostTimerResolution:         capability.V21,
	driver.DeviceOpenCLCVersion:                capability.V11,
	driver.DeviceParentDevice:                  capability.V12,
	driver.DevicePartitionMaxSubDevices:        capability.V12,
	driver.DeviceReferenceCount:                capability.V12,
	driver.DeviceSVMCapabilities:               capability.V20,
	driver.DeviceILVersion:                     capability.V21,
	driver.DeviceMaxNumSubGroups:               capability.V21,
	driver.ContextNumDevices:                   capability.V11,
	driver.QueueSize:                           capability.V20,
	driver.MemAssociatedMemObject:              capability.V11,
	driver.MemOffset:                           capability.V11,
	driver.MemUsesSVMPointer:                   capability.V20,
	driver.ProgramNumKernels:                   capability.V12,
	driver.ProgramKernelNames:                  capability.V12,
	driver.ProgramIL:                           capability.V21,
	driver.ProgramScopeGlobalCtorsPresent:      capability.V22,
	driver.ProgramScopeGlobalDtorsPresent:      capability.V22,
	driver.ProgramBinaryType:                   capability.V12,
	driver.ProgramBuildGlobalVariableTotalSize: capability.V20,
	driver.KernelAttributes:                    capability.V12,
	driver.KernelGlobalWorkSize:                capability.V12,
	driver.EventContext:                        capability.V11,
}

func (r *Runtime) paramActive(param uint32) bool {
	since, ok := paramSince[param]
	return !ok || since <= r.tier
}

func (r *Runtime) Info(kind driver.Kind, obj driver.Ptr, param uint32) ([]byte, driver.Status) {
	if st := r.enter("Info", capability.V10); st != driver.Success {
		return nil, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	o, st := r.get(kind, obj)
	if st != driver.Success {
		return nil, st
	}
	if !r.paramActive(param) {
		return nil, driver.InvalidValue
	}
	if rc, ok := driver.ReferenceCountParam(kind); ok && param == rc {
		return driver.EncodeUint32(uint32(o.refs)), driver.Success
	}
	var v []byte
	switch kind {
	case driver.KindPlatform:
		v = r.platformInfo(param)
	case driver.KindDevice:
		v = r.deviceInfo(o, param)
	case driver.KindContext:
		v = contextInfo(o, param)
	case driver.KindCommandQueue:
		v = queueInfo(o, param)
	case driver.KindMem:
		v = memInfo(o, param)
	case driver.KindSampler:
		v = samplerInfo(o, param)
	case driver.KindProgram:
		return programInfo(o, param)
	case driver.KindKernel:
		v = kernelInfo(o, param)
	case driver.KindEvent:
		v = eventInfo(o, param)
	}
	if v == nil {
		return nil, driver.InvalidValue
	}
	return v, driver.Success
}

func (r *Runtime) platformInfo(param uint32) []byte {
	switch param {
	case driver.PlatformProfile:
		return driver.EncodeString("FULL_PROFILE")
	case driver.PlatformVersion:
		return driver.EncodeString(r.version)
	case driver.PlatformName:
		return driver.EncodeString("clfacade simulator")
	case driver.PlatformVendor:
		return driver.EncodeString(vendor)
	case driver.PlatformExtensions:
		return driver.EncodeString("")
	case driver.PlatformHostTimerResolution:
		return driver.EncodeUint64(1)
	}
	return nil
}

func (r *Runtime) openCLCVersion() string {
	if r.tier >= capability.V20 {
		return "OpenCL C 2.0 clfacade"
	}
	return fmt.Sprintf("OpenCL C %s clfacade", r.tier)
}

func (r *Runtime) deviceInfo(o *object, param uint32) []byte {
	switch param {
	case driver.DeviceTypeInfo:
		return driver.EncodeUint64(uint64(o.deviceType))
	case driver.DeviceVendorID:
		return driver.EncodeUint32(0xC1FA)
	case driver.DeviceMaxComputeUnits, driver.DevicePartitionMaxSubDevices:
		return driver.EncodeUint32(uint32(o.units))
	case driver.DeviceMaxWorkItemDimensions:
		return driver.EncodeUint32(3)
	case driver.DeviceMaxWorkGroupSize:
		return driver.EncodeSize(maxWorkGroupSize)
	case driver.DeviceMaxWorkItemSizes:
		return driver.EncodeSizes([]int{maxWorkGroupSize, maxWorkGroupSize, maxWorkGroupSize / 4})
	case driver.DeviceMaxClockFrequency:
		return driver.EncodeUint32(1000)
	case driver.DeviceAddressBits:
		return driver.EncodeUint32(64)
	case driver.DeviceMaxMemAllocSize:
		return driver.EncodeUint64(globalMemSize / 4)
	case driver.DeviceGlobalMemSize:
		return driver.EncodeUint64(globalMemSize)
	case driver.DeviceLocalMemSize:
		return driver.EncodeUint64(localMemSize)
	case driver.DeviceAvailable, driver.DeviceCompilerAvailable:
		return driver.EncodeBool(true)
	case driver.DeviceName:
		typ := "GPU"
		if o.deviceType&driver.DeviceTypeCPU != 0 {
			typ = "CPU"
		}
		name := fmt.Sprintf("Simulated %s %d", typ, o.index)
		if o.parent != 0 {
			name += fmt.Sprintf(" (%d units)", o.units)
		}
		return driver.EncodeString(name)
	case driver.DeviceVendor:
		return driver.EncodeString(vendor)
	case driver.DeviceDriverVersion:
		return driver.EncodeString(driverVersion)
	case driver.DeviceProfile:
		return driver.EncodeString("FULL_PROFILE")
	case driver.DeviceVersion:
		return driver.EncodeString(r.deviceVersion)
	case driver.DeviceExtensions:
		return driver.EncodeString("")
	case driver.DevicePlatform:
		return driver.EncodePtr(r.platform)
	case driver.DeviceOpenCLCVersion:
		return driver.EncodeString(r.openCLCVersion())
	case driver.DeviceParentDevice:
		return driver.EncodePtr(o.parent)
	case driver.DeviceSVMCapabilities:
		return driver.EncodeUint64(uint64(driver.SVMCoarseGrainBuffer | driver.SVMFineGrainBuffer))
	case driver.DeviceILVersion:
		return driver.EncodeString(ilVersion)
	case driver.DeviceMaxNumSubGroups:
		return driver.EncodeUint32(maxWorkGroupSize / subGroupSize)
	}
	return nil
}

func contextInfo(o *object, param uint32) []byte {
	switch param {
	case driver.ContextDevices:
		return driver.EncodePtrs(o.devices)
	case driver.ContextNumDevices:
		return driver.EncodeUint32(uint32(len(o.devices)))
	case driver.ContextProperties:
		props := make([]int, len(o.properties))
		for i, p := range o.properties {
			props[i] = int(p)
		}
		return driver.EncodeSizes(props)
	}
	return nil
}

func queueInfo(o *object, param uint32) []byte {
	switch param {
	case driver.QueueContext:
		return driver.EncodePtr(o.context)
	case driver.QueueDevice:
		return driver.EncodePtr(o.device)
	case driver.QueuePropertiesInfo:
		return driver.EncodeUint64(uint64(o.queueProps))
	case driver.QueueSize:
		return driver.EncodeUint32(uint32(o.queueSize))
	}
	return nil
}

func memInfo(o *object, param uint32) []byte {
	switch param {
	case driver.MemType:
		return driver.EncodeUint32(o.memType)
	case driver.MemFlagsInfo:
		return driver.EncodeUint64(uint64(o.flags))
	case driver.MemSize:
		return driver.EncodeSize(len(o.data))
	case driver.MemHostPtr:
		if !o.hostPtr || len(o.data) == 0 {
			return driver.EncodePtr(0)
		}
		return driver.EncodePtr(driver.Ptr(unsafe.Pointer(unsafe.SliceData(o.data))))
	case driver.MemMapCount:
		return driver.EncodeUint32(0)
	case driver.MemContext:
		return driver.EncodePtr(o.context)
	case driver.MemAssociatedMemObject:
		return driver.EncodePtr(o.parent)
	case driver.MemOffset:
		return driver.EncodeSize(o.offset)
	case driver.MemUsesSVMPointer:
		return driver.EncodeBool(false)
	}
	return nil
}

func samplerInfo(o *object, param uint32) []byte {
	switch param {
	case driver.SamplerContext:
		return driver.EncodePtr(o.context)
	case driver.SamplerNormalizedCoords:
		return driver.EncodeBool(o.normalized)
	case driver.SamplerAddressingMode:
		return driver.EncodeUint32(uint32(o.addressing))
	case driver.SamplerFilterMode:
		return driver.EncodeUint32(uint32(o.filter))
	}
	return nil
}

func (o *object) binaries() [][]byte {
	out := make([][]byte, len(o.devices))
	if o.binaryType == driver.BinaryTypeNone || o.builtIn {
		return out
	}
	for i := range out {
		out[i] = encodeBinary(o.binaryType, o.source)
	}
	return out
}

func (o *object) kernelNames() []string {
	names := make([]string, len(o.decls))
	for i, d := range o.decls {
		names[i] = d.name
	}
	return names
}

func programInfo(o *object, param uint32) ([]byte, driver.Status) {
	switch param {
	case driver.ProgramContext:
		return driver.EncodePtr(o.context), driver.Success
	case driver.ProgramNumDevices:
		return driver.EncodeUint32(uint32(len(o.devices))), driver.Success
	case driver.ProgramDevices:
		return driver.EncodePtrs(o.devices), driver.Success
	case driver.ProgramSource:
		if o.il != nil || o.fromBinary || o.builtIn {
			return driver.EncodeString(""), driver.Success
		}
		return driver.EncodeString(o.source), driver.Success
	case driver.ProgramBinarySizes:
		bins := o.binaries()
		sizes := make([]int, len(bins))
		for i, b := range bins {
			sizes[i] = len(b)
		}
		return driver.EncodeSizes(sizes), driver.Success
	case driver.ProgramBinaries:
		var out []byte
		for _, b := range o.binaries() {
			out = append(out, b...)
		}
		return out, driver.Success
	case driver.ProgramNumKernels, driver.ProgramKernelNames:
		if o.buildStatus != driver.BuildSuccess || o.binaryType != driver.BinaryTypeExecutable {
			return nil, driver.InvalidProgramExecutable
		}
		if param == driver.ProgramNumKernels {
			return driver.EncodeSize(len(o.decls)), driver.Success
		}
		return driver.EncodeString(strings.Join(o.kernelNames(), ";")), driver.Success
	case driver.ProgramIL:
		return append([]byte(nil), o.il...), driver.Success
	case driver.ProgramScopeGlobalCtorsPresent, driver.ProgramScopeGlobalDtorsPresent:
		return driver.EncodeBool(false), driver.Success
	}
	return nil, driver.InvalidValue
}

func kernelInfo(o *object, param uint32) []byte {
	switch param {
	case driver.KernelFunctionName:
		return driver.EncodeString(o.decl.name)
	case driver.KernelNumArgs:
		return driver.EncodeUint32(uint32(len(o.decl.args)))
	case driver.KernelContext:
		return driver.EncodePtr(o.context)
	case driver.KernelProgram:
		return driver.EncodePtr(o.program)
	case driver.KernelAttributes:
		return driver.EncodeString("")
	}
	return nil
}

func eventInfo(o *object, param uint32) []byte {
	switch param {
	case driver.EventCommandQueue:
		return driver.EncodePtr(o.queue)
	case driver.EventCommandType:
		return driver.EncodeUint32(uint32(o.command))
	case driver.EventCommandExecutionStatus:
		return driver.EncodeUint32(uint32(o.status))
	case driver.EventContext:
		return driver.EncodePtr(o.context)
	}
	return nil
}

func (r *Runtime) PipeInfo(pipe driver.Ptr, param uint32) ([]byte, driver.Status) {
	if st := r.enter("PipeInfo", capability.V20); st != driver.Success {
		return nil, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	o, st := r.get(driver.KindMem, pipe)
	if st != driver.Success {
		return nil, st
	}
	if o.memType != driver.MemObjectPipe {
		return nil, driver.InvalidMemObject
	}
	switch param {
	case driver.PipePacketSize:
		return driver.EncodeUint32(o.packetSize), driver.Success
	case driver.PipeMaxPackets:
		return driver.EncodeUint32(o.maxPackets), driver.Success
	}
	return nil, driver.InvalidValue
}

// deviceOf resolves the device argument of a per-device query against the
// devices an object was built for. A zero device is accepted when there is
// exactly one.
func (r *Runtime) deviceOf(p *object, device driver.Ptr) driver.Status {
	if device == 0 {
		if len(p.devices) == 1 {
			return driver.Success
		}
		return driver.InvalidDevice
	}
	if _, st := r.get(driver.KindDevice, device); st != driver.Success {
		return st
	}
	if !p.hasDevice(device) && !r.parentIn(device, p) {
		return driver.InvalidDevice
	}
	return driver.Success
}

func (r *Runtime) ProgramBuildInfo(program, device driver.Ptr, param uint32) ([]byte, driver.Status) {
	if st := r.enter("ProgramBuildInfo", capability.V10); st != driver.Success {
		return nil, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, st := r.get(driver.KindProgram, program)
	if st != driver.Success {
		return nil, st
	}
	if st := r.deviceOf(p, device); st != driver.Success {
		return nil, st
	}
	if !r.paramActive(param) {
		return nil, driver.InvalidValue
	}
	switch param {
	case driver.ProgramBuildStatus:
		return driver.EncodeUint32(uint32(p.buildStatus)), driver.Success
	case driver.ProgramBuildOptions:
		return driver.EncodeString(p.options), driver.Success
	case driver.ProgramBuildLog:
		return driver.EncodeString(p.buildLog), driver.Success
	case driver.ProgramBinaryType:
		return driver.EncodeUint32(uint32(p.binaryType)), driver.Success
	case driver.ProgramBuildGlobalVariableTotalSize:
		return driver.EncodeSize(0), driver.Success
	}
	return nil, driver.InvalidValue
}

func (r *Runtime) kernelProgram(kernel, device driver.Ptr) (*object, driver.Status) {
	k, st := r.get(driver.KindKernel, kernel)
	if st != driver.Success {
		return nil, st
	}
	if p, ok := r.objects[k.program]; ok {
		if st := r.deviceOf(p, device); st != driver.Success {
			return nil, st
		}
	}
	return k, driver.Success
}

func (r *Runtime) KernelWorkGroupInfo(kernel, device driver.Ptr, param uint32) ([]byte, driver.Status) {
	if st := r.enter("KernelWorkGroupInfo", capability.V10); st != driver.Success {
		return nil, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k, st := r.kernelProgram(kernel, device)
	if st != driver.Success {
		return nil, st
	}
	if !r.paramActive(param) {
		return nil, driver.InvalidValue
	}
	switch param {
	case driver.KernelWorkGroupSize:
		return driver.EncodeSize(maxWorkGroupSize), driver.Success
	case driver.KernelCompileWorkGroupSize:
		return driver.EncodeSizes([]int{0, 0, 0}), driver.Success
	case driver.KernelLocalMemSize:
		return driver.EncodeUint64(uint64(k.localMemSize())), driver.Success
	case driver.KernelPreferredWorkGroupSizeMultiple:
		return driver.EncodeSize(subGroupSize), driver.Success
	case driver.KernelPrivateMemSize:
		return driver.EncodeUint64(0), driver.Success
	}
	// CL_KERNEL_GLOBAL_WORK_SIZE is only defined for custom devices and
	// built-in kernels.
	return nil, driver.InvalidValue
}

func (r *Runtime) KernelArgInfo(kernel driver.Ptr, index, param uint32) ([]byte, driver.Status) {
	if st := r.enter("KernelArgInfo", capability.V12); st != driver.Success {
		return nil, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k, st := r.get(driver.KindKernel, kernel)
	if st != driver.Success {
		return nil, st
	}
	if int(index) >= len(k.decl.args) {
		return nil, driver.InvalidArgIndex
	}
	if p, ok := r.objects[k.program]; ok && p.fromBinary {
		return nil, driver.KernelArgInfoNotAvailable
	}
	arg := k.decl.args[index]
	switch param {
	case driver.KernelArgAddressQualifier:
		return driver.EncodeUint32(arg.address), driver.Success
	case driver.KernelArgAccessQualifier:
		return driver.EncodeUint32(driver.KernelArgAccessNone), driver.Success
	case driver.KernelArgTypeName:
		return driver.EncodeString(arg.typeName), driver.Success
	case driver.KernelArgTypeQualifier:
		q := driver.KernelArgTypeQualNone
		if arg.constant {
			q |= driver.KernelArgTypeQualConst
		}
		if arg.volatile {
			q |= driver.KernelArgTypeQualVolatile
		}
		return driver.EncodeUint64(uint64(q)), driver.Success
	case driver.KernelArgName:
		return driver.EncodeString(arg.name), driver.Success
	}
	return nil, driver.InvalidValue
}

func (r *Runtime) KernelSubGroupInfo(kernel, device driver.Ptr, param uint32, input []byte) ([]byte, driver.Status) {
	if st := r.enter("KernelSubGroupInfo", capability.V21); st != driver.Success {
		return nil, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, st := r.kernelProgram(kernel, device); st != driver.Success {
		return nil, st
	}
	switch param {
	case driver.KernelMaxSubGroupSizeForNDRange, driver.KernelSubGroupCountForNDRange:
		local, err := driver.DecodeSizes(input)
		if err != nil || len(local) == 0 || len(local) > 3 {
			return nil, driver.InvalidValue
		}
		n := 1
		for _, l := range local {
			n *= l
		}
		if param == driver.KernelMaxSubGroupSizeForNDRange {
			return driver.EncodeSize(min(n, subGroupSize)), driver.Success
		}
		return driver.EncodeSize((n + subGroupSize - 1) / subGroupSize), driver.Success
	case driver.KernelLocalSizeForSubGroupCount:
		count, err := driver.DecodeSize(input)
		if err != nil {
			return nil, driver.InvalidValue
		}
		size := count * subGroupSize
		if size > maxWorkGroupSize {
			size = 0
		}
		return driver.EncodeSizes([]int{size, 1, 1}), driver.Success
	case driver.KernelMaxNumSubGroups:
		return driver.EncodeSize(maxWorkGroupSize / subGroupSize), driver.Success
	case driver.KernelCompileNumSubGroups:
		return driver.EncodeSize(0), driver.Success
	}
	return nil, driver.InvalidValue
}

func (r *Runtime) EventProfilingInfo(event driver.Ptr, param uint32) ([]byte, driver.Status) {
	if st := r.enter("EventProfilingInfo", capability.V10); st != driver.Success {
		return nil, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, st := r.get(driver.KindEvent, event)
	if st != driver.Success {
		return nil, st
	}
	if !ev.profiled || ev.user || !ev.done() {
		return nil, driver.ProfilingInfoNotAvailable
	}
	i := param - driver.ProfilingCommandQueued
	if param < driver.ProfilingCommandQueued || int(i) >= len(ev.profile) {
		return nil, driver.InvalidValue
	}
	if param == driver.ProfilingCommandComplete && r.tier < capability.V20 {
		return nil, driver.InvalidValue
	}
	return driver.EncodeUint64(ev.profile[i]), driver.Success
}
