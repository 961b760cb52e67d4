package capability

import (
	"sort"

	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// Constant groups.
const (
	GroupErrorCode        = "error_code"
	GroupAddressingMode   = "addressing_mode"
	GroupFilterMode       = "filter_mode"
	GroupDeviceType       = "device_type"
	GroupMemFlags         = "mem_flags"
	GroupMapFlags         = "map_flags"
	GroupMigrationFlags   = "migration_flags"
	GroupCommandType      = "command_type"
	GroupQueueProperties  = "queue_properties"
	GroupProgramBinary    = "program_binary_type"
	GroupSVMCapabilities  = "svm_capabilities"
	GroupExecutionStatus  = "execution_status"
	GroupChannelOrder     = "channel_order"
	GroupChannelDataType  = "channel_type"
	GroupMemObjectType    = "mem_object_type"
	GroupKernelArgAddress = "kernel_arg_address_qualifier"
)

// Constant is one named enumerator and the version range it exists in.
type Constant struct {
	Name    string
	Group   string
	Value   int64
	Since   Version
	Removed Version
}

// Active reports whether the constant is defined at v.
func (c Constant) Active(v Version) bool {
	return v >= c.Since && (c.Removed == VersionNone || v < c.Removed)
}

func constant(group, name string, value int64, since Version) Constant {
	return Constant{Name: name, Group: group, Value: value, Since: since}
}

var constantTable = func() []Constant {
	t := []Constant{
		constant(GroupAddressingMode, "CL_ADDRESS_NONE", int64(driver.AddressNone), V10),
		constant(GroupAddressingMode, "CL_ADDRESS_CLAMP_TO_EDGE", int64(driver.AddressClampToEdge), V10),
		constant(GroupAddressingMode, "CL_ADDRESS_CLAMP", int64(driver.AddressClamp), V10),
		constant(GroupAddressingMode, "CL_ADDRESS_REPEAT", int64(driver.AddressRepeat), V10),
		constant(GroupAddressingMode, "CL_ADDRESS_MIRRORED_REPEAT", int64(driver.AddressMirroredRepeat), V11),

		constant(GroupFilterMode, "CL_FILTER_NEAREST", int64(driver.FilterNearest), V10),
		constant(GroupFilterMode, "CL_FILTER_LINEAR", int64(driver.FilterLinear), V10),

		constant(GroupDeviceType, "CL_DEVICE_TYPE_DEFAULT", int64(driver.DeviceTypeDefault), V10),
		constant(GroupDeviceType, "CL_DEVICE_TYPE_CPU", int64(driver.DeviceTypeCPU), V10),
		constant(GroupDeviceType, "CL_DEVICE_TYPE_GPU", int64(driver.DeviceTypeGPU), V10),
		constant(GroupDeviceType, "CL_DEVICE_TYPE_ACCELERATOR", int64(driver.DeviceTypeAccelerator), V10),
		constant(GroupDeviceType, "CL_DEVICE_TYPE_CUSTOM", int64(driver.DeviceTypeCustom), V12),
		constant(GroupDeviceType, "CL_DEVICE_TYPE_ALL", int64(driver.DeviceTypeAll), V10),

		constant(GroupMemFlags, "CL_MEM_READ_WRITE", int64(driver.MemReadWrite), V10),
		constant(GroupMemFlags, "CL_MEM_WRITE_ONLY", int64(driver.MemWriteOnly), V10),
		constant(GroupMemFlags, "CL_MEM_READ_ONLY", int64(driver.MemReadOnly), V10),
		constant(GroupMemFlags, "CL_MEM_USE_HOST_PTR", int64(driver.MemUseHostPtr), V10),
		constant(GroupMemFlags, "CL_MEM_ALLOC_HOST_PTR", int64(driver.MemAllocHostPtr), V10),
		constant(GroupMemFlags, "CL_MEM_COPY_HOST_PTR", int64(driver.MemCopyHostPtr), V10),
		constant(GroupMemFlags, "CL_MEM_HOST_WRITE_ONLY", int64(driver.MemHostWriteOnly), V12),
		constant(GroupMemFlags, "CL_MEM_HOST_READ_ONLY", int64(driver.MemHostReadOnly), V12),
		constant(GroupMemFlags, "CL_MEM_HOST_NO_ACCESS", int64(driver.MemHostNoAccess), V12),
		constant(GroupMemFlags, "CL_MEM_SVM_FINE_GRAIN_BUFFER", int64(driver.MemSVMFineGrainBuffer), V20),
		constant(GroupMemFlags, "CL_MEM_SVM_ATOMICS", int64(driver.MemSVMAtomics), V20),

		constant(GroupMapFlags, "CL_MAP_READ", int64(driver.MapRead), V10),
		constant(GroupMapFlags, "CL_MAP_WRITE", int64(driver.MapWrite), V10),
		constant(GroupMapFlags, "CL_MAP_WRITE_INVALIDATE_REGION", int64(driver.MapWriteInvalidateRegion), V12),

		constant(GroupMigrationFlags, "CL_MIGRATE_MEM_OBJECT_HOST", int64(driver.MigrateMemObjectHost), V12),
		constant(GroupMigrationFlags, "CL_MIGRATE_MEM_OBJECT_CONTENT_UNDEFINED", int64(driver.MigrateMemObjectContentUndefined), V12),

		constant(GroupQueueProperties, "CL_QUEUE_OUT_OF_ORDER_EXEC_MODE_ENABLE", int64(driver.QueueOutOfOrderExecModeEnable), V10),
		constant(GroupQueueProperties, "CL_QUEUE_PROFILING_ENABLE", int64(driver.QueueProfilingEnable), V10),
		constant(GroupQueueProperties, "CL_QUEUE_ON_DEVICE", int64(driver.QueueOnDevice), V20),
		constant(GroupQueueProperties, "CL_QUEUE_ON_DEVICE_DEFAULT", int64(driver.QueueOnDeviceDefault), V20),

		constant(GroupCommandType, "CL_COMMAND_NDRANGE_KERNEL", int64(driver.CommandNDRangeKernel), V10),
		constant(GroupCommandType, "CL_COMMAND_TASK", int64(driver.CommandTask), V10),
		constant(GroupCommandType, "CL_COMMAND_READ_BUFFER", int64(driver.CommandReadBuffer), V10),
		constant(GroupCommandType, "CL_COMMAND_WRITE_BUFFER", int64(driver.CommandWriteBuffer), V10),
		constant(GroupCommandType, "CL_COMMAND_COPY_BUFFER", int64(driver.CommandCopyBuffer), V10),
		constant(GroupCommandType, "CL_COMMAND_MARKER", int64(driver.CommandMarker), V10),
		constant(GroupCommandType, "CL_COMMAND_READ_BUFFER_RECT", int64(driver.CommandReadBufferRect), V11),
		constant(GroupCommandType, "CL_COMMAND_WRITE_BUFFER_RECT", int64(driver.CommandWriteBufferRect), V11),
		constant(GroupCommandType, "CL_COMMAND_COPY_BUFFER_RECT", int64(driver.CommandCopyBufferRect), V11),
		constant(GroupCommandType, "CL_COMMAND_USER", int64(driver.CommandUser), V11),
		constant(GroupCommandType, "CL_COMMAND_BARRIER", int64(driver.CommandBarrier), V12),
		constant(GroupCommandType, "CL_COMMAND_MIGRATE_MEM_OBJECTS", int64(driver.CommandMigrateMemObjects), V12),
		constant(GroupCommandType, "CL_COMMAND_FILL_BUFFER", int64(driver.CommandFillBuffer), V12),
		constant(GroupCommandType, "CL_COMMAND_FILL_IMAGE", int64(driver.CommandFillImage), V12),
		constant(GroupCommandType, "CL_COMMAND_SVM_FREE", int64(driver.CommandSVMFree), V20),
		constant(GroupCommandType, "CL_COMMAND_SVM_MEMCPY", int64(driver.CommandSVMMemcpy), V20),
		constant(GroupCommandType, "CL_COMMAND_SVM_MEMFILL", int64(driver.CommandSVMMemfill), V20),
		constant(GroupCommandType, "CL_COMMAND_SVM_MAP", int64(driver.CommandSVMMap), V20),
		constant(GroupCommandType, "CL_COMMAND_SVM_UNMAP", int64(driver.CommandSVMUnmap), V20),
		constant(GroupCommandType, "CL_COMMAND_SVM_MIGRATE_MEM", int64(driver.CommandSVMMigrateMem), V21),

		constant(GroupProgramBinary, "CL_PROGRAM_BINARY_TYPE_NONE", int64(driver.BinaryTypeNone), V12),
		constant(GroupProgramBinary, "CL_PROGRAM_BINARY_TYPE_COMPILED_OBJECT", int64(driver.BinaryTypeCompiledObject), V12),
		constant(GroupProgramBinary, "CL_PROGRAM_BINARY_TYPE_LIBRARY", int64(driver.BinaryTypeLibrary), V12),
		constant(GroupProgramBinary, "CL_PROGRAM_BINARY_TYPE_EXECUTABLE", int64(driver.BinaryTypeExecutable), V12),

		constant(GroupSVMCapabilities, "CL_DEVICE_SVM_COARSE_GRAIN_BUFFER", int64(driver.SVMCoarseGrainBuffer), V20),
		constant(GroupSVMCapabilities, "CL_DEVICE_SVM_FINE_GRAIN_BUFFER", int64(driver.SVMFineGrainBuffer), V20),
		constant(GroupSVMCapabilities, "CL_DEVICE_SVM_FINE_GRAIN_SYSTEM", int64(driver.SVMFineGrainSystem), V20),
		constant(GroupSVMCapabilities, "CL_DEVICE_SVM_ATOMICS", int64(driver.SVMAtomics), V20),

		constant(GroupExecutionStatus, "CL_COMPLETE", int64(driver.Complete), V10),
		constant(GroupExecutionStatus, "CL_RUNNING", int64(driver.Running), V10),
		constant(GroupExecutionStatus, "CL_SUBMITTED", int64(driver.Submitted), V10),
		constant(GroupExecutionStatus, "CL_QUEUED", int64(driver.Queued), V10),

		constant(GroupMemObjectType, "CL_MEM_OBJECT_BUFFER", int64(driver.MemObjectBuffer), V10),
		constant(GroupMemObjectType, "CL_MEM_OBJECT_IMAGE2D", int64(driver.MemObjectImage2D), V10),
		constant(GroupMemObjectType, "CL_MEM_OBJECT_IMAGE3D", int64(driver.MemObjectImage3D), V10),
		constant(GroupMemObjectType, "CL_MEM_OBJECT_IMAGE2D_ARRAY", int64(driver.MemObjectImage2DArray), V12),
		constant(GroupMemObjectType, "CL_MEM_OBJECT_IMAGE1D", int64(driver.MemObjectImage1D), V12),
		constant(GroupMemObjectType, "CL_MEM_OBJECT_IMAGE1D_ARRAY", int64(driver.MemObjectImage1DArray), V12),
		constant(GroupMemObjectType, "CL_MEM_OBJECT_IMAGE1D_BUFFER", int64(driver.MemObjectImage1DBuffer), V12),
		constant(GroupMemObjectType, "CL_MEM_OBJECT_PIPE", int64(driver.MemObjectPipe), V20),

		constant(GroupChannelOrder, "CL_R", int64(driver.ChannelR), V10),
		constant(GroupChannelOrder, "CL_RG", int64(driver.ChannelRG), V10),
		constant(GroupChannelOrder, "CL_RGBA", int64(driver.ChannelRGBA), V10),
		constant(GroupChannelOrder, "CL_BGRA", int64(driver.ChannelBGRA), V10),

		constant(GroupChannelDataType, "CL_UNORM_INT8", int64(driver.ChannelUnormInt8), V10),
		constant(GroupChannelDataType, "CL_SIGNED_INT32", int64(driver.ChannelSignedInt32), V10),
		constant(GroupChannelDataType, "CL_UNSIGNED_INT8", int64(driver.ChannelUnsignedInt8), V10),
		constant(GroupChannelDataType, "CL_UNSIGNED_INT32", int64(driver.ChannelUnsignedInt32), V10),
		constant(GroupChannelDataType, "CL_HALF_FLOAT", int64(driver.ChannelHalfFloat), V10),
		constant(GroupChannelDataType, "CL_FLOAT", int64(driver.ChannelFloat), V10),

		constant(GroupKernelArgAddress, "CL_KERNEL_ARG_ADDRESS_GLOBAL", int64(driver.KernelArgAddressGlobal), V12),
		constant(GroupKernelArgAddress, "CL_KERNEL_ARG_ADDRESS_LOCAL", int64(driver.KernelArgAddressLocal), V12),
		constant(GroupKernelArgAddress, "CL_KERNEL_ARG_ADDRESS_CONSTANT", int64(driver.KernelArgAddressConstant), V12),
		constant(GroupKernelArgAddress, "CL_KERNEL_ARG_ADDRESS_PRIVATE", int64(driver.KernelArgAddressPrivate), V12),
	}
	for _, s := range driver.Statuses() {
		since, err := ParseTag(s.Since)
		if err != nil {
			panic(err)
		}
		t = append(t, constant(GroupErrorCode, s.Name, int64(s.Status), since))
	}
	return t
}()

var (
	constantIndex = map[string]Constant{}
	groupIndex    = map[string][]Constant{}
)

func init() {
	for _, c := range constantTable {
		constantIndex[c.Name] = c
		groupIndex[c.Group] = append(groupIndex[c.Group], c)
	}
}

// LookupConstant returns the named constant if it is defined at v.
func LookupConstant(v Version, name string) (Constant, bool) {
	c, ok := constantIndex[name]
	if !ok || !c.Active(v) {
		return Constant{}, false
	}
	return c, true
}

// Constants returns the constants of group defined at v, ordered by value.
func Constants(v Version, group string) []Constant {
	var out []Constant
	for _, c := range groupIndex[group] {
		if c.Active(v) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// Groups lists every constant group name.
func Groups() []string {
	out := make([]string, 0, len(groupIndex))
	for g := range groupIndex {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// ConstantName returns the name of value in group at v.
func ConstantName(v Version, group string, value int64) (string, bool) {
	for _, c := range groupIndex[group] {
		if c.Value == value && c.Active(v) {
			return c.Name, true
		}
	}
	return "", false
}
