// Package drivertest provides a testify mock of driver.Driver for tests that
// assert exactly which native entry points the facade calls.
package drivertest

import (
	"github.com/stretchr/testify/mock"

	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// Driver is a mock.Mock backed driver.Driver. Methods returning a status
// accept either a driver.Status or nothing in Return, defaulting to success.
type Driver struct {
	mock.Mock
}

var _ driver.Driver = (*Driver)(nil)

func status(args mock.Arguments, i int) driver.Status {
	if len(args) <= i || args.Get(i) == nil {
		return driver.Success
	}
	return args.Get(i).(driver.Status)
}

// nilable returns the i-th return value, or the zero value when Return was
// given nil for it.
func nilable[T any](args mock.Arguments, i int) T {
	var zero T
	if len(args) <= i || args.Get(i) == nil {
		return zero
	}
	return args.Get(i).(T)
}

func (m *Driver) PlatformIDs() ([]driver.Ptr, driver.Status) {
	args := m.Called()
	return nilable[[]driver.Ptr](args, 0), status(args, 1)
}

func (m *Driver) DeviceIDs(platform driver.Ptr, typ driver.DeviceType) ([]driver.Ptr, driver.Status) {
	args := m.Called(platform, typ)
	return nilable[[]driver.Ptr](args, 0), status(args, 1)
}

func (m *Driver) Info(kind driver.Kind, obj driver.Ptr, param uint32) ([]byte, driver.Status) {
	args := m.Called(kind, obj, param)
	return nilable[[]byte](args, 0), status(args, 1)
}

func (m *Driver) PipeInfo(pipe driver.Ptr, param uint32) ([]byte, driver.Status) {
	args := m.Called(pipe, param)
	return nilable[[]byte](args, 0), status(args, 1)
}

func (m *Driver) ProgramBuildInfo(program driver.Ptr, device driver.Ptr, param uint32) ([]byte, driver.Status) {
	args := m.Called(program, device, param)
	return nilable[[]byte](args, 0), status(args, 1)
}

func (m *Driver) KernelWorkGroupInfo(kernel driver.Ptr, device driver.Ptr, param uint32) ([]byte, driver.Status) {
	args := m.Called(kernel, device, param)
	return nilable[[]byte](args, 0), status(args, 1)
}

func (m *Driver) KernelArgInfo(kernel driver.Ptr, index uint32, param uint32) ([]byte, driver.Status) {
	args := m.Called(kernel, index, param)
	return nilable[[]byte](args, 0), status(args, 1)
}

func (m *Driver) KernelSubGroupInfo(kernel driver.Ptr, device driver.Ptr, param uint32, input []byte) ([]byte, driver.Status) {
	args := m.Called(kernel, device, param, input)
	return nilable[[]byte](args, 0), status(args, 1)
}

func (m *Driver) EventProfilingInfo(event driver.Ptr, param uint32) ([]byte, driver.Status) {
	args := m.Called(event, param)
	return nilable[[]byte](args, 0), status(args, 1)
}

func (m *Driver) Retain(kind driver.Kind, obj driver.Ptr) driver.Status {
	args := m.Called(kind, obj)
	return status(args, 0)
}

func (m *Driver) Release(kind driver.Kind, obj driver.Ptr) driver.Status {
	args := m.Called(kind, obj)
	return status(args, 0)
}

func (m *Driver) CreateContext(properties []uintptr, devices []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(properties, devices)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) CreateSubDevices(device driver.Ptr, properties []uintptr) ([]driver.Ptr, driver.Status) {
	args := m.Called(device, properties)
	return nilable[[]driver.Ptr](args, 0), status(args, 1)
}

func (m *Driver) CreateCommandQueue(context driver.Ptr, device driver.Ptr, properties driver.QueueProperties) (driver.Ptr, driver.Status) {
	args := m.Called(context, device, properties)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) CreateCommandQueueWithProperties(context driver.Ptr, device driver.Ptr, properties []uint64) (driver.Ptr, driver.Status) {
	args := m.Called(context, device, properties)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) SetCommandQueueProperty(queue driver.Ptr, properties driver.QueueProperties, enable bool) (driver.QueueProperties, driver.Status) {
	args := m.Called(queue, properties, enable)
	return args.Get(0).(driver.QueueProperties), status(args, 1)
}

func (m *Driver) SetDefaultDeviceCommandQueue(context driver.Ptr, device driver.Ptr, queue driver.Ptr) driver.Status {
	args := m.Called(context, device, queue)
	return status(args, 0)
}

func (m *Driver) Flush(queue driver.Ptr) driver.Status {
	args := m.Called(queue)
	return status(args, 0)
}

func (m *Driver) Finish(queue driver.Ptr) driver.Status {
	args := m.Called(queue)
	return status(args, 0)
}

func (m *Driver) CreateBuffer(context driver.Ptr, flags driver.MemFlags, size int, host []byte) (driver.Ptr, driver.Status) {
	args := m.Called(context, flags, size, host)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) CreateSubBuffer(buffer driver.Ptr, flags driver.MemFlags, origin int, size int) (driver.Ptr, driver.Status) {
	args := m.Called(buffer, flags, origin, size)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) CreateImage(context driver.Ptr, flags driver.MemFlags, format driver.ImageFormat, desc driver.ImageDesc, host []byte) (driver.Ptr, driver.Status) {
	args := m.Called(context, flags, format, desc, host)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) CreateImage2D(context driver.Ptr, flags driver.MemFlags, format driver.ImageFormat, width int, height int, rowPitch int, host []byte) (driver.Ptr, driver.Status) {
	args := m.Called(context, flags, format, width, height, rowPitch, host)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) CreateImage3D(context driver.Ptr, flags driver.MemFlags, format driver.ImageFormat, width int, height int, depth int, rowPitch int, slicePitch int, host []byte) (driver.Ptr, driver.Status) {
	args := m.Called(context, flags, format, width, height, depth, rowPitch, slicePitch, host)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) CreatePipe(context driver.Ptr, flags driver.MemFlags, packetSize uint32, maxPackets uint32) (driver.Ptr, driver.Status) {
	args := m.Called(context, flags, packetSize, maxPackets)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) SetMemObjectDestructorCallback(mem driver.Ptr, fn func()) driver.Status {
	args := m.Called(mem, fn)
	return status(args, 0)
}

func (m *Driver) CreateSampler(context driver.Ptr, normalized bool, addressing driver.AddressingMode, filter driver.FilterMode) (driver.Ptr, driver.Status) {
	args := m.Called(context, normalized, addressing, filter)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) CreateSamplerWithProperties(context driver.Ptr, properties []uint64) (driver.Ptr, driver.Status) {
	args := m.Called(context, properties)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) CreateProgramWithSource(context driver.Ptr, sources []string) (driver.Ptr, driver.Status) {
	args := m.Called(context, sources)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) CreateProgramWithBinary(context driver.Ptr, devices []driver.Ptr, binaries [][]byte) (driver.Ptr, []driver.Status, driver.Status) {
	args := m.Called(context, devices, binaries)
	return args.Get(0).(driver.Ptr), nilable[[]driver.Status](args, 1), status(args, 2)
}

func (m *Driver) CreateProgramWithBuiltInKernels(context driver.Ptr, devices []driver.Ptr, names string) (driver.Ptr, driver.Status) {
	args := m.Called(context, devices, names)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) CreateProgramWithIL(context driver.Ptr, il []byte) (driver.Ptr, driver.Status) {
	args := m.Called(context, il)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) BuildProgram(program driver.Ptr, devices []driver.Ptr, options string) driver.Status {
	args := m.Called(program, devices, options)
	return status(args, 0)
}

func (m *Driver) CompileProgram(program driver.Ptr, devices []driver.Ptr, options string, headers []driver.Ptr, headerNames []string) driver.Status {
	args := m.Called(program, devices, options, headers, headerNames)
	return status(args, 0)
}

func (m *Driver) LinkProgram(context driver.Ptr, devices []driver.Ptr, options string, programs []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(context, devices, options, programs)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) UnloadCompiler() driver.Status {
	args := m.Called()
	return status(args, 0)
}

func (m *Driver) UnloadPlatformCompiler(platform driver.Ptr) driver.Status {
	args := m.Called(platform)
	return status(args, 0)
}

func (m *Driver) SetProgramReleaseCallback(program driver.Ptr, fn func()) driver.Status {
	args := m.Called(program, fn)
	return status(args, 0)
}

func (m *Driver) SetProgramSpecializationConstant(program driver.Ptr, id uint32, value []byte) driver.Status {
	args := m.Called(program, id, value)
	return status(args, 0)
}

func (m *Driver) CreateKernel(program driver.Ptr, name string) (driver.Ptr, driver.Status) {
	args := m.Called(program, name)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) CreateKernelsInProgram(program driver.Ptr) ([]driver.Ptr, driver.Status) {
	args := m.Called(program)
	return nilable[[]driver.Ptr](args, 0), status(args, 1)
}

func (m *Driver) CloneKernel(kernel driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(kernel)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) SetKernelArg(kernel driver.Ptr, index uint32, arg driver.KernelArg) driver.Status {
	args := m.Called(kernel, index, arg)
	return status(args, 0)
}

func (m *Driver) SetKernelArgSVMPointer(kernel driver.Ptr, index uint32, ptr driver.SVMPtr) driver.Status {
	args := m.Called(kernel, index, ptr)
	return status(args, 0)
}

func (m *Driver) SetKernelExecInfo(kernel driver.Ptr, param uint32, value []byte) driver.Status {
	args := m.Called(kernel, param, value)
	return status(args, 0)
}

func (m *Driver) CreateUserEvent(context driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(context)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) SetUserEventStatus(event driver.Ptr, st driver.ExecStatus) driver.Status {
	args := m.Called(event, st)
	return status(args, 0)
}

func (m *Driver) SetEventCallback(event driver.Ptr, trigger driver.ExecStatus, fn driver.EventCallback) driver.Status {
	args := m.Called(event, trigger, fn)
	return status(args, 0)
}

func (m *Driver) WaitForEvents(events []driver.Ptr) driver.Status {
	args := m.Called(events)
	return status(args, 0)
}

func (m *Driver) EnqueueReadBuffer(queue driver.Ptr, buffer driver.Ptr, blocking bool, offset int, dst []byte, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, buffer, blocking, offset, dst, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueWriteBuffer(queue driver.Ptr, buffer driver.Ptr, blocking bool, offset int, src []byte, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, buffer, blocking, offset, src, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueCopyBuffer(queue driver.Ptr, src driver.Ptr, dst driver.Ptr, srcOffset int, dstOffset int, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, src, dst, srcOffset, dstOffset, size, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueReadBufferRect(queue driver.Ptr, buffer driver.Ptr, blocking bool, rect driver.Rect, dst []byte, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, buffer, blocking, rect, dst, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueWriteBufferRect(queue driver.Ptr, buffer driver.Ptr, blocking bool, rect driver.Rect, src []byte, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, buffer, blocking, rect, src, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueCopyBufferRect(queue driver.Ptr, src driver.Ptr, dst driver.Ptr, srcOrigin [3]int, dstOrigin [3]int, region [3]int, srcRowPitch int, srcSlicePitch int, dstRowPitch int, dstSlicePitch int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, src, dst, srcOrigin, dstOrigin, region, srcRowPitch, srcSlicePitch, dstRowPitch, dstSlicePitch, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueFillBuffer(queue driver.Ptr, buffer driver.Ptr, pattern []byte, offset int, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, buffer, pattern, offset, size, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueFillImage(queue driver.Ptr, image driver.Ptr, color [16]byte, origin [3]int, region [3]int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, image, color, origin, region, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueMigrateMemObjects(queue driver.Ptr, mems []driver.Ptr, flags driver.MigrationFlags, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, mems, flags, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueNDRangeKernel(queue driver.Ptr, kernel driver.Ptr, offset []int, global []int, local []int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, kernel, offset, global, local, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueTask(queue driver.Ptr, kernel driver.Ptr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, kernel, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueMarker(queue driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueWaitForEvents(queue driver.Ptr, events []driver.Ptr) driver.Status {
	args := m.Called(queue, events)
	return status(args, 0)
}

func (m *Driver) EnqueueBarrier(queue driver.Ptr) driver.Status {
	args := m.Called(queue)
	return status(args, 0)
}

func (m *Driver) EnqueueMarkerWithWaitList(queue driver.Ptr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueBarrierWithWaitList(queue driver.Ptr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) SVMAlloc(context driver.Ptr, flags driver.MemFlags, size int, alignment uint32) driver.SVMPtr {
	args := m.Called(context, flags, size, alignment)
	return args.Get(0).(driver.SVMPtr)
}

func (m *Driver) SVMFree(context driver.Ptr, ptr driver.SVMPtr) {
	m.Called(context, ptr)
}

func (m *Driver) EnqueueSVMFree(queue driver.Ptr, ptrs []driver.SVMPtr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, ptrs, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueSVMMemcpy(queue driver.Ptr, blocking bool, dst driver.SVMPtr, src driver.SVMPtr, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, blocking, dst, src, size, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueSVMMemFill(queue driver.Ptr, ptr driver.SVMPtr, pattern []byte, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, ptr, pattern, size, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueSVMMap(queue driver.Ptr, blocking bool, flags driver.MapFlags, ptr driver.SVMPtr, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, blocking, flags, ptr, size, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueSVMUnmap(queue driver.Ptr, ptr driver.SVMPtr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, ptr, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) EnqueueSVMMigrateMem(queue driver.Ptr, ptrs []driver.SVMPtr, sizes []int, flags driver.MigrationFlags, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	args := m.Called(queue, ptrs, sizes, flags, wait)
	return args.Get(0).(driver.Ptr), status(args, 1)
}

func (m *Driver) HostTimer(device driver.Ptr) (uint64, driver.Status) {
	args := m.Called(device)
	return args.Get(0).(uint64), status(args, 1)
}

func (m *Driver) DeviceAndHostTimer(device driver.Ptr) (uint64, uint64, driver.Status) {
	args := m.Called(device)
	return args.Get(0).(uint64), args.Get(1).(uint64), status(args, 2)
}
