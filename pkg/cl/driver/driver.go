// Package driver defines the boundary between the facade in package cl and a
// native OpenCL runtime.
//
// A Driver speaks in raw object pointers and status codes, the way the C ABI
// does. It performs no version gating and no handle-kind checking; both are
// the facade's job. Implementations live in subpackages: opencl binds the
// system ICD loader through cgo, sim is an in-process simulated runtime.
package driver

import "fmt"

// Ptr is the representation shared by every native object: a cl_platform_id,
// cl_mem, cl_event and so on all look the same at this level.
type Ptr uintptr

// SVMPtr is an address returned by SVMAlloc.
type SVMPtr uintptr

// Kind identifies which native object type a Ptr refers to.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPlatform
	KindDevice
	KindContext
	KindCommandQueue
	KindMem
	KindProgram
	KindKernel
	KindEvent
	KindSampler
)

var kindNames = [...]string{
	KindInvalid:      "invalid",
	KindPlatform:     "platform",
	KindDevice:       "device",
	KindContext:      "context",
	KindCommandQueue: "command_queue",
	KindMem:          "mem_object",
	KindProgram:      "program",
	KindKernel:       "kernel",
	KindEvent:        "event",
	KindSampler:      "sampler",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Kinds lists every valid object kind.
func Kinds() []Kind {
	return []Kind{KindPlatform, KindDevice, KindContext, KindCommandQueue, KindMem, KindProgram, KindKernel, KindEvent, KindSampler}
}

// InvalidStatus returns the status a native runtime reports when it is handed
// something that is not a valid object of kind k.
func (k Kind) InvalidStatus() Status {
	switch k {
	case KindPlatform:
		return InvalidPlatform
	case KindDevice:
		return InvalidDevice
	case KindContext:
		return InvalidContext
	case KindCommandQueue:
		return InvalidCommandQueue
	case KindMem:
		return InvalidMemObject
	case KindProgram:
		return InvalidProgram
	case KindKernel:
		return InvalidKernel
	case KindEvent:
		return InvalidEvent
	case KindSampler:
		return InvalidSampler
	default:
		return InvalidValue
	}
}

// Rect describes the region of a rectangular buffer transfer. All values are
// in bytes, as in clEnqueueReadBufferRect.
type Rect struct {
	BufferOrigin     [3]int
	HostOrigin       [3]int
	Region           [3]int
	BufferRowPitch   int
	BufferSlicePitch int
	HostRowPitch     int
	HostSlicePitch   int
}

// ImageFormat mirrors cl_image_format.
type ImageFormat struct {
	ChannelOrder    uint32
	ChannelDataType uint32
}

// ImageDesc mirrors the 1.2 cl_image_desc.
type ImageDesc struct {
	Type       uint32
	Width      int
	Height     int
	Depth      int
	ArraySize  int
	RowPitch   int
	SlicePitch int
	MipLevels  uint32
	Samples    uint32
	Buffer     Ptr
}

// KernelArg is one clSetKernelArg value. Exactly one of Data, Object or
// Local is meaningful.
type KernelArg struct {
	// Data holds the raw bytes of a by-value argument.
	Data []byte
	// Object is a memory object, sampler or device queue passed by handle.
	Object Ptr
	// Local reserves Size bytes of __local memory.
	Local bool
	Size  int
}

// EventCallback is invoked by the native runtime when an event reaches the
// requested execution status. It runs on a runtime-owned thread.
type EventCallback func(event Ptr, status ExecStatus)

// Driver is a native OpenCL runtime. Methods map one-to-one onto C entry
// points; creation methods return the new object's pointer and a status.
// Enqueue methods always request an event and return it.
type Driver interface {
	PlatformIDs() ([]Ptr, Status)
	DeviceIDs(platform Ptr, typ DeviceType) ([]Ptr, Status)

	// Info runs clGet<Kind>Info and returns the raw parameter value.
	Info(kind Kind, obj Ptr, param uint32) ([]byte, Status)
	PipeInfo(pipe Ptr, param uint32) ([]byte, Status)
	ProgramBuildInfo(program, device Ptr, param uint32) ([]byte, Status)
	KernelWorkGroupInfo(kernel, device Ptr, param uint32) ([]byte, Status)
	KernelArgInfo(kernel Ptr, index, param uint32) ([]byte, Status)
	KernelSubGroupInfo(kernel, device Ptr, param uint32, input []byte) ([]byte, Status)
	EventProfilingInfo(event Ptr, param uint32) ([]byte, Status)

	Retain(kind Kind, obj Ptr) Status
	Release(kind Kind, obj Ptr) Status

	CreateContext(properties []uintptr, devices []Ptr) (Ptr, Status)
	CreateSubDevices(device Ptr, properties []uintptr) ([]Ptr, Status)

	CreateCommandQueue(context, device Ptr, properties QueueProperties) (Ptr, Status)
	CreateCommandQueueWithProperties(context, device Ptr, properties []uint64) (Ptr, Status)
	SetCommandQueueProperty(queue Ptr, properties QueueProperties, enable bool) (QueueProperties, Status)
	SetDefaultDeviceCommandQueue(context, device, queue Ptr) Status
	Flush(queue Ptr) Status
	Finish(queue Ptr) Status

	CreateBuffer(context Ptr, flags MemFlags, size int, host []byte) (Ptr, Status)
	CreateSubBuffer(buffer Ptr, flags MemFlags, origin, size int) (Ptr, Status)
	CreateImage(context Ptr, flags MemFlags, format ImageFormat, desc ImageDesc, host []byte) (Ptr, Status)
	CreateImage2D(context Ptr, flags MemFlags, format ImageFormat, width, height, rowPitch int, host []byte) (Ptr, Status)
	CreateImage3D(context Ptr, flags MemFlags, format ImageFormat, width, height, depth, rowPitch, slicePitch int, host []byte) (Ptr, Status)
	CreatePipe(context Ptr, flags MemFlags, packetSize, maxPackets uint32) (Ptr, Status)
	SetMemObjectDestructorCallback(mem Ptr, fn func()) Status

	CreateSampler(context Ptr, normalized bool, addressing AddressingMode, filter FilterMode) (Ptr, Status)
	CreateSamplerWithProperties(context Ptr, properties []uint64) (Ptr, Status)

	CreateProgramWithSource(context Ptr, sources []string) (Ptr, Status)
	CreateProgramWithBinary(context Ptr, devices []Ptr, binaries [][]byte) (Ptr, []Status, Status)
	CreateProgramWithBuiltInKernels(context Ptr, devices []Ptr, names string) (Ptr, Status)
	CreateProgramWithIL(context Ptr, il []byte) (Ptr, Status)
	BuildProgram(program Ptr, devices []Ptr, options string) Status
	CompileProgram(program Ptr, devices []Ptr, options string, headers []Ptr, headerNames []string) Status
	LinkProgram(context Ptr, devices []Ptr, options string, programs []Ptr) (Ptr, Status)
	UnloadCompiler() Status
	UnloadPlatformCompiler(platform Ptr) Status
	SetProgramReleaseCallback(program Ptr, fn func()) Status
	SetProgramSpecializationConstant(program Ptr, id uint32, value []byte) Status

	CreateKernel(program Ptr, name string) (Ptr, Status)
	CreateKernelsInProgram(program Ptr) ([]Ptr, Status)
	CloneKernel(kernel Ptr) (Ptr, Status)
	SetKernelArg(kernel Ptr, index uint32, arg KernelArg) Status
	SetKernelArgSVMPointer(kernel Ptr, index uint32, ptr SVMPtr) Status
	SetKernelExecInfo(kernel Ptr, param uint32, value []byte) Status

	CreateUserEvent(context Ptr) (Ptr, Status)
	SetUserEventStatus(event Ptr, status ExecStatus) Status
	SetEventCallback(event Ptr, trigger ExecStatus, fn EventCallback) Status
	WaitForEvents(events []Ptr) Status

	EnqueueReadBuffer(queue, buffer Ptr, blocking bool, offset int, dst []byte, wait []Ptr) (Ptr, Status)
	EnqueueWriteBuffer(queue, buffer Ptr, blocking bool, offset int, src []byte, wait []Ptr) (Ptr, Status)
	EnqueueCopyBuffer(queue, src, dst Ptr, srcOffset, dstOffset, size int, wait []Ptr) (Ptr, Status)
	EnqueueReadBufferRect(queue, buffer Ptr, blocking bool, rect Rect, dst []byte, wait []Ptr) (Ptr, Status)
	EnqueueWriteBufferRect(queue, buffer Ptr, blocking bool, rect Rect, src []byte, wait []Ptr) (Ptr, Status)
	EnqueueCopyBufferRect(queue, src, dst Ptr, srcOrigin, dstOrigin, region [3]int, srcRowPitch, srcSlicePitch, dstRowPitch, dstSlicePitch int, wait []Ptr) (Ptr, Status)
	EnqueueFillBuffer(queue, buffer Ptr, pattern []byte, offset, size int, wait []Ptr) (Ptr, Status)
	EnqueueFillImage(queue, image Ptr, color [16]byte, origin, region [3]int, wait []Ptr) (Ptr, Status)
	EnqueueMigrateMemObjects(queue Ptr, mems []Ptr, flags MigrationFlags, wait []Ptr) (Ptr, Status)
	EnqueueNDRangeKernel(queue, kernel Ptr, offset, global, local []int, wait []Ptr) (Ptr, Status)
	EnqueueTask(queue, kernel Ptr, wait []Ptr) (Ptr, Status)
	EnqueueMarker(queue Ptr) (Ptr, Status)
	EnqueueWaitForEvents(queue Ptr, events []Ptr) Status
	EnqueueBarrier(queue Ptr) Status
	EnqueueMarkerWithWaitList(queue Ptr, wait []Ptr) (Ptr, Status)
	EnqueueBarrierWithWaitList(queue Ptr, wait []Ptr) (Ptr, Status)

	SVMAlloc(context Ptr, flags MemFlags, size int, alignment uint32) SVMPtr
	SVMFree(context Ptr, ptr SVMPtr)
	EnqueueSVMFree(queue Ptr, ptrs []SVMPtr, wait []Ptr) (Ptr, Status)
	EnqueueSVMMemcpy(queue Ptr, blocking bool, dst, src SVMPtr, size int, wait []Ptr) (Ptr, Status)
	EnqueueSVMMemFill(queue Ptr, ptr SVMPtr, pattern []byte, size int, wait []Ptr) (Ptr, Status)
	EnqueueSVMMap(queue Ptr, blocking bool, flags MapFlags, ptr SVMPtr, size int, wait []Ptr) (Ptr, Status)
	EnqueueSVMUnmap(queue Ptr, ptr SVMPtr, wait []Ptr) (Ptr, Status)
	EnqueueSVMMigrateMem(queue Ptr, ptrs []SVMPtr, sizes []int, flags MigrationFlags, wait []Ptr) (Ptr, Status)

	HostTimer(device Ptr) (uint64, Status)
	DeviceAndHostTimer(device Ptr) (uint64, uint64, Status)
}
