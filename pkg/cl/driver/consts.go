package driver

// Values in this file are the numeric enumerators of the C headers. They are
// shared by every Driver implementation and by the capability registry.

type DeviceType uint64

const (
	DeviceTypeDefault     DeviceType = 1 << 0
	DeviceTypeCPU         DeviceType = 1 << 1
	DeviceTypeGPU         DeviceType = 1 << 2
	DeviceTypeAccelerator DeviceType = 1 << 3
	DeviceTypeCustom      DeviceType = 1 << 4
	DeviceTypeAll         DeviceType = 0xFFFFFFFF
)

type QueueProperties uint64

const (
	QueueOutOfOrderExecModeEnable QueueProperties = 1 << 0
	QueueProfilingEnable          QueueProperties = 1 << 1
	QueueOnDevice                 QueueProperties = 1 << 2
	QueueOnDeviceDefault          QueueProperties = 1 << 3
)

// Keys of the zero-terminated property list taken by
// clCreateCommandQueueWithProperties.
const (
	QueuePropertiesKey uint64 = 0x1093
	QueueSizeKey       uint64 = 0x1094
)

type MemFlags uint64

const (
	MemReadWrite          MemFlags = 1 << 0
	MemWriteOnly          MemFlags = 1 << 1
	MemReadOnly           MemFlags = 1 << 2
	MemUseHostPtr         MemFlags = 1 << 3
	MemAllocHostPtr       MemFlags = 1 << 4
	MemCopyHostPtr        MemFlags = 1 << 5
	MemHostWriteOnly      MemFlags = 1 << 7
	MemHostReadOnly       MemFlags = 1 << 8
	MemHostNoAccess       MemFlags = 1 << 9
	MemSVMFineGrainBuffer MemFlags = 1 << 10
	MemSVMAtomics         MemFlags = 1 << 11
)

type MapFlags uint64

const (
	MapRead                  MapFlags = 1 << 0
	MapWrite                 MapFlags = 1 << 1
	MapWriteInvalidateRegion MapFlags = 1 << 2
)

type MigrationFlags uint64

const (
	MigrateMemObjectHost             MigrationFlags = 1 << 0
	MigrateMemObjectContentUndefined MigrationFlags = 1 << 1
)

type AddressingMode uint32

const (
	AddressNone           AddressingMode = 0x1130
	AddressClampToEdge    AddressingMode = 0x1131
	AddressClamp          AddressingMode = 0x1132
	AddressRepeat         AddressingMode = 0x1133
	AddressMirroredRepeat AddressingMode = 0x1134
)

type FilterMode uint32

const (
	FilterNearest FilterMode = 0x1140
	FilterLinear  FilterMode = 0x1141
)

// ExecStatus is an event's command execution status. Negative values are
// error statuses set by the runtime or by clSetUserEventStatus.
type ExecStatus int32

const (
	Complete  ExecStatus = 0
	Running   ExecStatus = 1
	Submitted ExecStatus = 2
	Queued    ExecStatus = 3
)

func (s ExecStatus) String() string {
	switch s {
	case Complete:
		return "complete"
	case Running:
		return "running"
	case Submitted:
		return "submitted"
	case Queued:
		return "queued"
	}
	return "error(" + Status(s).String() + ")"
}

type CommandType uint32

const (
	CommandNDRangeKernel     CommandType = 0x11F0
	CommandTask              CommandType = 0x11F1
	CommandReadBuffer        CommandType = 0x11F3
	CommandWriteBuffer       CommandType = 0x11F4
	CommandCopyBuffer        CommandType = 0x11F5
	CommandMarker            CommandType = 0x11FE
	CommandReadBufferRect    CommandType = 0x1201
	CommandWriteBufferRect   CommandType = 0x1202
	CommandCopyBufferRect    CommandType = 0x1203
	CommandUser              CommandType = 0x1204
	CommandBarrier           CommandType = 0x1205
	CommandMigrateMemObjects CommandType = 0x1206
	CommandFillBuffer        CommandType = 0x1207
	CommandFillImage         CommandType = 0x1208
	CommandSVMFree           CommandType = 0x1209
	CommandSVMMemcpy         CommandType = 0x120A
	CommandSVMMemfill        CommandType = 0x120B
	CommandSVMMap            CommandType = 0x120C
	CommandSVMUnmap          CommandType = 0x120D
	CommandSVMMigrateMem     CommandType = 0x120E
)

// Platform info.
const (
	PlatformProfile             uint32 = 0x0900
	PlatformVersion             uint32 = 0x0901
	PlatformName                uint32 = 0x0902
	PlatformVendor              uint32 = 0x0903
	PlatformExtensions          uint32 = 0x0904
	PlatformHostTimerResolution uint32 = 0x0905
)

// Device info.
const (
	DeviceTypeInfo               uint32 = 0x1000
	DeviceVendorID               uint32 = 0x1001
	DeviceMaxComputeUnits        uint32 = 0x1002
	DeviceMaxWorkItemDimensions  uint32 = 0x1003
	DeviceMaxWorkGroupSize       uint32 = 0x1004
	DeviceMaxWorkItemSizes       uint32 = 0x1005
	DeviceMaxClockFrequency      uint32 = 0x100C
	DeviceAddressBits            uint32 = 0x100D
	DeviceMaxMemAllocSize        uint32 = 0x1010
	DeviceGlobalMemSize          uint32 = 0x101F
	DeviceLocalMemSize           uint32 = 0x1023
	DeviceAvailable              uint32 = 0x1027
	DeviceCompilerAvailable      uint32 = 0x1028
	DeviceName                   uint32 = 0x102B
	DeviceVendor                 uint32 = 0x102C
	DeviceDriverVersion          uint32 = 0x102D
	DeviceProfile                uint32 = 0x102E
	DeviceVersion                uint32 = 0x102F
	DeviceExtensions             uint32 = 0x1030
	DevicePlatform               uint32 = 0x1031
	DeviceOpenCLCVersion         uint32 = 0x103D
	DeviceParentDevice           uint32 = 0x1042
	DevicePartitionMaxSubDevices uint32 = 0x1043
	DeviceReferenceCount         uint32 = 0x1047
	DeviceSVMCapabilities        uint32 = 0x1053
	DeviceILVersion              uint32 = 0x105B
	DeviceMaxNumSubGroups        uint32 = 0x105C
)

// Context info and properties.
const (
	ContextReferenceCount uint32  = 0x1080
	ContextDevices        uint32  = 0x1081
	ContextProperties     uint32  = 0x1082
	ContextNumDevices     uint32  = 0x1083
	ContextPlatform       uintptr = 0x1084
)

// Device partition properties.
const (
	DevicePartitionEqually          uintptr = 0x1086
	DevicePartitionByCounts         uintptr = 0x1087
	DevicePartitionByCountsListEnd  uintptr = 0x0
	DevicePartitionByAffinityDomain uintptr = 0x1088
)

// Command queue info.
const (
	QueueContext        uint32 = 0x1090
	QueueDevice         uint32 = 0x1091
	QueueReferenceCount uint32 = 0x1092
	QueuePropertiesInfo uint32 = 0x1093
	QueueSize           uint32 = 0x1094
)

// Memory object info and types.
const (
	MemType                uint32 = 0x1100
	MemFlagsInfo           uint32 = 0x1101
	MemSize                uint32 = 0x1102
	MemHostPtr             uint32 = 0x1103
	MemMapCount            uint32 = 0x1104
	MemReferenceCount      uint32 = 0x1105
	MemContext             uint32 = 0x1106
	MemAssociatedMemObject uint32 = 0x1107
	MemOffset              uint32 = 0x1108
	MemUsesSVMPointer      uint32 = 0x1109

	MemObjectBuffer        uint32 = 0x10F0
	MemObjectImage2D       uint32 = 0x10F1
	MemObjectImage3D       uint32 = 0x10F2
	MemObjectImage2DArray  uint32 = 0x10F3
	MemObjectImage1D       uint32 = 0x10F4
	MemObjectImage1DArray  uint32 = 0x10F5
	MemObjectImage1DBuffer uint32 = 0x10F6
	MemObjectPipe          uint32 = 0x10F7

	PipePacketSize uint32 = 0x1120
	PipeMaxPackets uint32 = 0x1121

	BufferCreateTypeRegion uint32 = 0x1220
)

// Image channel orders and data types.
const (
	ChannelR    uint32 = 0x10B0
	ChannelRG   uint32 = 0x10B2
	ChannelRGBA uint32 = 0x10B5
	ChannelBGRA uint32 = 0x10B6

	ChannelUnormInt8     uint32 = 0x10D2
	ChannelSignedInt32   uint32 = 0x10D9
	ChannelUnsignedInt8  uint32 = 0x10DA
	ChannelUnsignedInt32 uint32 = 0x10DC
	ChannelHalfFloat     uint32 = 0x10DD
	ChannelFloat         uint32 = 0x10DE
)

// Sampler info; the same keys are used as properties by
// clCreateSamplerWithProperties.
const (
	SamplerReferenceCount   uint32 = 0x1150
	SamplerContext          uint32 = 0x1151
	SamplerNormalizedCoords uint32 = 0x1152
	SamplerAddressingMode   uint32 = 0x1153
	SamplerFilterMode       uint32 = 0x1154
)

// Program info.
const (
	ProgramReferenceCount          uint32 = 0x1160
	ProgramContext                 uint32 = 0x1161
	ProgramNumDevices              uint32 = 0x1162
	ProgramDevices                 uint32 = 0x1163
	ProgramSource                  uint32 = 0x1164
	ProgramBinarySizes             uint32 = 0x1165
	ProgramBinaries                uint32 = 0x1166
	ProgramNumKernels              uint32 = 0x1167
	ProgramKernelNames             uint32 = 0x1168
	ProgramIL                      uint32 = 0x1169
	ProgramScopeGlobalCtorsPresent uint32 = 0x116A
	ProgramScopeGlobalDtorsPresent uint32 = 0x116B
)

// Program build info.
const (
	ProgramBuildStatus                  uint32 = 0x1181
	ProgramBuildOptions                 uint32 = 0x1182
	ProgramBuildLog                     uint32 = 0x1183
	ProgramBinaryType                   uint32 = 0x1184
	ProgramBuildGlobalVariableTotalSize uint32 = 0x1185
)

// BuildStatus values reported for ProgramBuildStatus.
type BuildStatus int32

const (
	BuildSuccess    BuildStatus = 0
	BuildNone       BuildStatus = -1
	BuildError      BuildStatus = -2
	BuildInProgress BuildStatus = -3
)

// BinaryType values reported for ProgramBinaryType.
type BinaryType uint32

const (
	BinaryTypeNone           BinaryType = 0x0
	BinaryTypeCompiledObject BinaryType = 0x1
	BinaryTypeLibrary        BinaryType = 0x2
	BinaryTypeExecutable     BinaryType = 0x4
)

// Kernel info, argument info and work-group info.
const (
	KernelFunctionName   uint32 = 0x1190
	KernelNumArgs        uint32 = 0x1191
	KernelReferenceCount uint32 = 0x1192
	KernelContext        uint32 = 0x1193
	KernelProgram        uint32 = 0x1194
	KernelAttributes     uint32 = 0x1195

	KernelArgAddressQualifier uint32 = 0x1196
	KernelArgAccessQualifier  uint32 = 0x1197
	KernelArgTypeName         uint32 = 0x1198
	KernelArgTypeQualifier    uint32 = 0x1199
	KernelArgName             uint32 = 0x119A

	KernelArgAddressGlobal   uint32 = 0x119B
	KernelArgAddressLocal    uint32 = 0x119C
	KernelArgAddressConstant uint32 = 0x119D
	KernelArgAddressPrivate  uint32 = 0x119E

	KernelArgAccessNone       uint32 = 0x11A3
	KernelArgTypeQualNone     uint32 = 0
	KernelArgTypeQualConst    uint32 = 1 << 0
	KernelArgTypeQualVolatile uint32 = 1 << 2

	KernelWorkGroupSize                  uint32 = 0x11B0
	KernelCompileWorkGroupSize           uint32 = 0x11B1
	KernelLocalMemSize                   uint32 = 0x11B2
	KernelPreferredWorkGroupSizeMultiple uint32 = 0x11B3
	KernelPrivateMemSize                 uint32 = 0x11B4
	KernelGlobalWorkSize                 uint32 = 0x11B5

	KernelExecInfoSVMPtrs            uint32 = 0x11B6
	KernelExecInfoSVMFineGrainSystem uint32 = 0x11B7

	KernelMaxSubGroupSizeForNDRange uint32 = 0x2033
	KernelSubGroupCountForNDRange   uint32 = 0x2034
	KernelLocalSizeForSubGroupCount uint32 = 0x11B8
	KernelMaxNumSubGroups           uint32 = 0x11B9
	KernelCompileNumSubGroups       uint32 = 0x11BA
)

// Event info and profiling info.
const (
	EventCommandQueue           uint32 = 0x11D0
	EventCommandType            uint32 = 0x11D1
	EventReferenceCount         uint32 = 0x11D2
	EventCommandExecutionStatus uint32 = 0x11D3
	EventContext                uint32 = 0x11D4

	ProfilingCommandQueued   uint32 = 0x1280
	ProfilingCommandSubmit   uint32 = 0x1281
	ProfilingCommandStart    uint32 = 0x1282
	ProfilingCommandEnd      uint32 = 0x1283
	ProfilingCommandComplete uint32 = 0x1284
)

// SVMCapabilities is the DeviceSVMCapabilities bitfield.
type SVMCapabilities uint64

const (
	SVMCoarseGrainBuffer SVMCapabilities = 1 << 0
	SVMFineGrainBuffer   SVMCapabilities = 1 << 1
	SVMFineGrainSystem   SVMCapabilities = 1 << 2
	SVMAtomics           SVMCapabilities = 1 << 3
)

// ReferenceCountParam returns the info parameter that reports the reference
// count of an object of kind k, or false for kinds without one.
func ReferenceCountParam(k Kind) (uint32, bool) {
	switch k {
	case KindDevice:
		return DeviceReferenceCount, true
	case KindContext:
		return ContextReferenceCount, true
	case KindCommandQueue:
		return QueueReferenceCount, true
	case KindMem:
		return MemReferenceCount, true
	case KindProgram:
		return ProgramReferenceCount, true
	case KindKernel:
		return KernelReferenceCount, true
	case KindEvent:
		return EventReferenceCount, true
	case KindSampler:
		return SamplerReferenceCount, true
	}
	return 0, false
}
