package driver

import "fmt"

// Status is the signed error code every fallible OpenCL entry point returns.
type Status int32

const (
	Success                            Status = 0
	DeviceNotFound                     Status = -1
	DeviceNotAvailable                 Status = -2
	CompilerNotAvailable               Status = -3
	MemObjectAllocationFailure         Status = -4
	OutOfResources                     Status = -5
	OutOfHostMemory                    Status = -6
	ProfilingInfoNotAvailable          Status = -7
	MemCopyOverlap                     Status = -8
	ImageFormatMismatch                Status = -9
	ImageFormatNotSupported            Status = -10
	BuildProgramFailure                Status = -11
	MapFailure                         Status = -12
	MisalignedSubBufferOffset          Status = -13
	ExecStatusErrorForEventsInWaitList Status = -14
	CompileProgramFailure              Status = -15
	LinkerNotAvailable                 Status = -16
	LinkProgramFailure                 Status = -17
	DevicePartitionFailed              Status = -18
	KernelArgInfoNotAvailable          Status = -19

	InvalidValue                 Status = -30
	InvalidDeviceType            Status = -31
	InvalidPlatform              Status = -32
	InvalidDevice                Status = -33
	InvalidContext               Status = -34
	InvalidQueueProperties       Status = -35
	InvalidCommandQueue          Status = -36
	InvalidHostPtr               Status = -37
	InvalidMemObject             Status = -38
	InvalidImageFormatDescriptor Status = -39
	InvalidImageSize             Status = -40
	InvalidSampler               Status = -41
	InvalidBinary                Status = -42
	InvalidBuildOptions          Status = -43
	InvalidProgram               Status = -44
	InvalidProgramExecutable     Status = -45
	InvalidKernelName            Status = -46
	InvalidKernelDefinition      Status = -47
	InvalidKernel                Status = -48
	InvalidArgIndex              Status = -49
	InvalidArgValue              Status = -50
	InvalidArgSize               Status = -51
	InvalidKernelArgs            Status = -52
	InvalidWorkDimension         Status = -53
	InvalidWorkGroupSize         Status = -54
	InvalidWorkItemSize          Status = -55
	InvalidGlobalOffset          Status = -56
	InvalidEventWaitList         Status = -57
	InvalidEvent                 Status = -58
	InvalidOperation             Status = -59
	InvalidGLObject              Status = -60
	InvalidBufferSize            Status = -61
	InvalidMipLevel              Status = -62
	InvalidGlobalWorkSize        Status = -63
	InvalidProperty              Status = -64
	InvalidImageDescriptor       Status = -65
	InvalidCompilerOptions       Status = -66
	InvalidLinkerOptions         Status = -67
	InvalidDevicePartitionCount  Status = -68
	InvalidPipeSize              Status = -69
	InvalidDeviceQueue           Status = -70
	InvalidSpecID                Status = -71
	MaxSizeRestrictionExceeded   Status = -72
)

// StatusInfo describes one entry of the status taxonomy.
type StatusInfo struct {
	Status Status
	Name   string
	// Since is the API generation that introduced the code, as "major.minor".
	Since string
	Class StatusClass
}

// StatusClass groups status codes the way callers usually branch on them.
type StatusClass string

const (
	ClassNone           StatusClass = "none"
	ClassDevice         StatusClass = "device"
	ClassResource       StatusClass = "resource"
	ClassProgram        StatusClass = "program"
	ClassArgument       StatusClass = "argument"
	ClassSynchronize    StatusClass = "synchronization"
	ClassObjectValidity StatusClass = "object"
)

var statusTable = []StatusInfo{
	{Success, "CL_SUCCESS", "1.0", ClassNone},
	{DeviceNotFound, "CL_DEVICE_NOT_FOUND", "1.0", ClassDevice},
	{DeviceNotAvailable, "CL_DEVICE_NOT_AVAILABLE", "1.0", ClassDevice},
	{CompilerNotAvailable, "CL_COMPILER_NOT_AVAILABLE", "1.0", ClassProgram},
	{MemObjectAllocationFailure, "CL_MEM_OBJECT_ALLOCATION_FAILURE", "1.0", ClassResource},
	{OutOfResources, "CL_OUT_OF_RESOURCES", "1.0", ClassResource},
	{OutOfHostMemory, "CL_OUT_OF_HOST_MEMORY", "1.0", ClassResource},
	{ProfilingInfoNotAvailable, "CL_PROFILING_INFO_NOT_AVAILABLE", "1.0", ClassSynchronize},
	{MemCopyOverlap, "CL_MEM_COPY_OVERLAP", "1.0", ClassArgument},
	{ImageFormatMismatch, "CL_IMAGE_FORMAT_MISMATCH", "1.0", ClassArgument},
	{ImageFormatNotSupported, "CL_IMAGE_FORMAT_NOT_SUPPORTED", "1.0", ClassResource},
	{BuildProgramFailure, "CL_BUILD_PROGRAM_FAILURE", "1.0", ClassProgram},
	{MapFailure, "CL_MAP_FAILURE", "1.0", ClassResource},
	{MisalignedSubBufferOffset, "CL_MISALIGNED_SUB_BUFFER_OFFSET", "1.1", ClassArgument},
	{ExecStatusErrorForEventsInWaitList, "CL_EXEC_STATUS_ERROR_FOR_EVENTS_IN_WAIT_LIST", "1.1", ClassSynchronize},
	{CompileProgramFailure, "CL_COMPILE_PROGRAM_FAILURE", "1.2", ClassProgram},
	{LinkerNotAvailable, "CL_LINKER_NOT_AVAILABLE", "1.2", ClassProgram},
	{LinkProgramFailure, "CL_LINK_PROGRAM_FAILURE", "1.2", ClassProgram},
	{DevicePartitionFailed, "CL_DEVICE_PARTITION_FAILED", "1.2", ClassDevice},
	{KernelArgInfoNotAvailable, "CL_KERNEL_ARG_INFO_NOT_AVAILABLE", "1.2", ClassProgram},
	{InvalidValue, "CL_INVALID_VALUE", "1.0", ClassArgument},
	{InvalidDeviceType, "CL_INVALID_DEVICE_TYPE", "1.0", ClassArgument},
	{InvalidPlatform, "CL_INVALID_PLATFORM", "1.0", ClassObjectValidity},
	{InvalidDevice, "CL_INVALID_DEVICE", "1.0", ClassObjectValidity},
	{InvalidContext, "CL_INVALID_CONTEXT", "1.0", ClassObjectValidity},
	{InvalidQueueProperties, "CL_INVALID_QUEUE_PROPERTIES", "1.0", ClassArgument},
	{InvalidCommandQueue, "CL_INVALID_COMMAND_QUEUE", "1.0", ClassObjectValidity},
	{InvalidHostPtr, "CL_INVALID_HOST_PTR", "1.0", ClassArgument},
	{InvalidMemObject, "CL_INVALID_MEM_OBJECT", "1.0", ClassObjectValidity},
	{InvalidImageFormatDescriptor, "CL_INVALID_IMAGE_FORMAT_DESCRIPTOR", "1.0", ClassArgument},
	{InvalidImageSize, "CL_INVALID_IMAGE_SIZE", "1.0", ClassArgument},
	{InvalidSampler, "CL_INVALID_SAMPLER", "1.0", ClassObjectValidity},
	{InvalidBinary, "CL_INVALID_BINARY", "1.0", ClassProgram},
	{InvalidBuildOptions, "CL_INVALID_BUILD_OPTIONS", "1.0", ClassProgram},
	{InvalidProgram, "CL_INVALID_PROGRAM", "1.0", ClassObjectValidity},
	{InvalidProgramExecutable, "CL_INVALID_PROGRAM_EXECUTABLE", "1.0", ClassProgram},
	{InvalidKernelName, "CL_INVALID_KERNEL_NAME", "1.0", ClassProgram},
	{InvalidKernelDefinition, "CL_INVALID_KERNEL_DEFINITION", "1.0", ClassProgram},
	{InvalidKernel, "CL_INVALID_KERNEL", "1.0", ClassObjectValidity},
	{InvalidArgIndex, "CL_INVALID_ARG_INDEX", "1.0", ClassArgument},
	{InvalidArgValue, "CL_INVALID_ARG_VALUE", "1.0", ClassArgument},
	{InvalidArgSize, "CL_INVALID_ARG_SIZE", "1.0", ClassArgument},
	{InvalidKernelArgs, "CL_INVALID_KERNEL_ARGS", "1.0", ClassArgument},
	{InvalidWorkDimension, "CL_INVALID_WORK_DIMENSION", "1.0", ClassArgument},
	{InvalidWorkGroupSize, "CL_INVALID_WORK_GROUP_SIZE", "1.0", ClassArgument},
	{InvalidWorkItemSize, "CL_INVALID_WORK_ITEM_SIZE", "1.0", ClassArgument},
	{InvalidGlobalOffset, "CL_INVALID_GLOBAL_OFFSET", "1.0", ClassArgument},
	{InvalidEventWaitList, "CL_INVALID_EVENT_WAIT_LIST", "1.0", ClassSynchronize},
	{InvalidEvent, "CL_INVALID_EVENT", "1.0", ClassSynchronize},
	{InvalidOperation, "CL_INVALID_OPERATION", "1.0", ClassArgument},
	{InvalidGLObject, "CL_INVALID_GL_OBJECT", "1.0", ClassObjectValidity},
	{InvalidBufferSize, "CL_INVALID_BUFFER_SIZE", "1.0", ClassResource},
	{InvalidMipLevel, "CL_INVALID_MIP_LEVEL", "1.0", ClassArgument},
	{InvalidGlobalWorkSize, "CL_INVALID_GLOBAL_WORK_SIZE", "1.0", ClassArgument},
	{InvalidProperty, "CL_INVALID_PROPERTY", "1.1", ClassArgument},
	{InvalidImageDescriptor, "CL_INVALID_IMAGE_DESCRIPTOR", "1.2", ClassArgument},
	{InvalidCompilerOptions, "CL_INVALID_COMPILER_OPTIONS", "1.2", ClassProgram},
	{InvalidLinkerOptions, "CL_INVALID_LINKER_OPTIONS", "1.2", ClassProgram},
	{InvalidDevicePartitionCount, "CL_INVALID_DEVICE_PARTITION_COUNT", "1.2", ClassDevice},
	{InvalidPipeSize, "CL_INVALID_PIPE_SIZE", "2.0", ClassArgument},
	{InvalidDeviceQueue, "CL_INVALID_DEVICE_QUEUE", "2.0", ClassObjectValidity},
	{InvalidSpecID, "CL_INVALID_SPEC_ID", "2.2", ClassProgram},
	{MaxSizeRestrictionExceeded, "CL_MAX_SIZE_RESTRICTION_EXCEEDED", "2.2", ClassResource},
}

var statusIndex = func() map[Status]int {
	idx := make(map[Status]int, len(statusTable))
	for i, s := range statusTable {
		idx[s.Status] = i
	}
	return idx
}()

// Statuses returns the full taxonomy in declaration order.
func Statuses() []StatusInfo {
	out := make([]StatusInfo, len(statusTable))
	copy(out, statusTable)
	return out
}

// Info returns the taxonomy entry for s.
func (s Status) Info() (StatusInfo, bool) {
	i, ok := statusIndex[s]
	if !ok {
		return StatusInfo{}, false
	}
	return statusTable[i], true
}

// String returns the symbolic name, e.g. "CL_INVALID_VALUE".
func (s Status) String() string {
	if info, ok := s.Info(); ok {
		return info.Name
	}
	return fmt.Sprintf("CL_UNKNOWN_ERROR(%d)", int32(s))
}

// OK reports whether s is CL_SUCCESS.
func (s Status) OK() bool {
	return s == Success
}
