//go:build opencl

package opencl

/*
#cgo CFLAGS: -DCL_TARGET_OPENCL_VERSION=220
#cgo CFLAGS: -DCL_USE_DEPRECATED_OPENCL_1_0_APIS -DCL_USE_DEPRECATED_OPENCL_1_1_APIS
#cgo CFLAGS: -DCL_USE_DEPRECATED_OPENCL_1_2_APIS -DCL_USE_DEPRECATED_OPENCL_2_0_APIS
#cgo LDFLAGS: -lOpenCL
#include <CL/cl.h>
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

extern void goEventCallback(cl_event, cl_int, void *);
extern void goMemDestructor(cl_mem, void *);
extern void goProgramRelease(cl_program, void *);

// cl_image_desc carries an anonymous union from 2.0 on, which cgo cannot
// address, so the descriptor is filled in here.
static cl_mem clf_create_image(cl_context ctx, cl_mem_flags flags, const cl_image_format *format,
		cl_mem_object_type type, size_t width, size_t height, size_t depth, size_t array_size,
		size_t row_pitch, size_t slice_pitch, cl_uint mip_levels, cl_uint samples, cl_mem buffer,
		void *host, cl_int *err) {
	cl_image_desc desc;
	memset(&desc, 0, sizeof desc);
	desc.image_type = type;
	desc.image_width = width;
	desc.image_height = height;
	desc.image_depth = depth;
	desc.image_array_size = array_size;
	desc.image_row_pitch = row_pitch;
	desc.image_slice_pitch = slice_pitch;
	desc.num_mip_levels = mip_levels;
	desc.num_samples = samples;
	desc.buffer = buffer;
	return clCreateImage(ctx, flags, format, &desc, host, err);
}
*/
import "C"
import (
	"fmt"
	"unsafe"

	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// platformNotFound is CL_PLATFORM_NOT_FOUND_KHR, reported by ICD loaders
// with no vendor registered.
const platformNotFound driver.Status = -1001

// Driver calls the OpenCL entry points exported by libOpenCL. It holds no
// state; every object lives in the native runtime.
type Driver struct{}

var _ driver.Driver = (*Driver)(nil)

// Available reports whether the native binding was compiled in.
func Available() bool { return true }

// New checks that the ICD loader reports at least one platform.
func New() (driver.Driver, error) {
	var n C.cl_uint
	if code := C.clGetPlatformIDs(0, nil, &n); code != C.CL_SUCCESS {
		if status(code) == platformNotFound {
			return nil, ErrNoPlatform
		}
		return nil, fmt.Errorf("opencl: clGetPlatformIDs: %s", driver.Status(code))
	}
	if n == 0 {
		return nil, ErrNoPlatform
	}
	return &Driver{}, nil
}

func obj(p driver.Ptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(p))
}

func platform(p driver.Ptr) C.cl_platform_id { return C.cl_platform_id(obj(p)) }
func device(p driver.Ptr) C.cl_device_id { return C.cl_device_id(obj(p)) }
func context(p driver.Ptr) C.cl_context { return C.cl_context(obj(p)) }
func queue(p driver.Ptr) C.cl_command_queue { return C.cl_command_queue(obj(p)) }
func mem(p driver.Ptr) C.cl_mem { return C.cl_mem(obj(p)) }
func sampler(p driver.Ptr) C.cl_sampler { return C.cl_sampler(obj(p)) }
func program(p driver.Ptr) C.cl_program { return C.cl_program(obj(p)) }
func kernel(p driver.Ptr) C.cl_kernel { return C.cl_kernel(obj(p)) }
func event(p driver.Ptr) C.cl_event { return C.cl_event(obj(p)) }
func svm(p driver.SVMPtr) unsafe.Pointer { return unsafe.Pointer(uintptr(p)) }
func eventPtr(e C.cl_event) driver.Ptr { return driver.Ptr(uintptr(unsafe.Pointer(e))) }
func status(code C.cl_int) driver.Status { return driver.Status(code) }

func clBool(b bool) C.cl_bool {
	if b {
		return C.CL_TRUE
	}
	return C.CL_FALSE
}

// Lists of native objects are passed as Go slices. They hold C pointers
// only, so they may cross the cgo boundary.

func devices(ps []driver.Ptr) (C.cl_uint, *C.cl_device_id) {
	if len(ps) == 0 {
		return 0, nil
	}
	out := make([]C.cl_device_id, len(ps))
	for i, p := range ps {
		out[i] = device(p)
	}
	return C.cl_uint(len(out)), &out[0]
}

func events(ps []driver.Ptr) (C.cl_uint, *C.cl_event) {
	if len(ps) == 0 {
		return 0, nil
	}
	out := make([]C.cl_event, len(ps))
	for i, p := range ps {
		out[i] = event(p)
	}
	return C.cl_uint(len(out)), &out[0]
}

func programs(ps []driver.Ptr) (C.cl_uint, *C.cl_program) {
	if len(ps) == 0 {
		return 0, nil
	}
	out := make([]C.cl_program, len(ps))
	for i, p := range ps {
		out[i] = program(p)
	}
	return C.cl_uint(len(out)), &out[0]
}

func mems(ps []driver.Ptr) (C.cl_uint, *C.cl_mem) {
	if len(ps) == 0 {
		return 0, nil
	}
	out := make([]C.cl_mem, len(ps))
	for i, p := range ps {
		out[i] = mem(p)
	}
	return C.cl_uint(len(out)), &out[0]
}

func svms(ps []driver.SVMPtr) (C.cl_uint, *unsafe.Pointer) {
	if len(ps) == 0 {
		return 0, nil
	}
	out := make([]unsafe.Pointer, len(ps))
	for i, p := range ps {
		out[i] = svm(p)
	}
	return C.cl_uint(len(out)), &out[0]
}

func sizes(vs []int) *C.size_t {
	if len(vs) == 0 {
		return nil
	}
	out := make([]C.size_t, len(vs))
	for i, v := range vs {
		out[i] = C.size_t(v)
	}
	return &out[0]
}

func triple(v [3]int) *C.size_t {
	out := [3]C.size_t{C.size_t(v[0]), C.size_t(v[1]), C.size_t(v[2])}
	return &out[0]
}

func bytesPtr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

// cstrings copies ss into C memory. The returned func frees it.
func cstrings(ss []string) (**C.char, func()) {
	if len(ss) == 0 {
		return nil, func() {}
	}
	out := make([]*C.char, len(ss))
	for i, s := range ss {
		out[i] = C.CString(s)
	}
	return &out[0], func() {
		for _, p := range out {
			C.free(unsafe.Pointer(p))
		}
	}
}

type infoFunc func(size C.size_t, value unsafe.Pointer, ret *C.size_t) C.cl_int

// query runs an info entry point twice: once for the size, once for the
// value.
func query(f infoFunc) ([]byte, driver.Status) {
	var n C.size_t
	if code := f(0, nil, &n); code != C.CL_SUCCESS {
		return nil, status(code)
	}
	buf := make([]byte, int(n))
	if n == 0 {
		return buf, driver.Success
	}
	if code := f(n, unsafe.Pointer(&buf[0]), nil); code != C.CL_SUCCESS {
		return nil, status(code)
	}
	return buf, driver.Success
}

func (d *Driver) PlatformIDs() ([]driver.Ptr, driver.Status) {
	var n C.cl_uint
	if code := C.clGetPlatformIDs(0, nil, &n); code != C.CL_SUCCESS {
		return nil, status(code)
	}
	if n == 0 {
		return nil, driver.Success
	}
	ids := make([]C.cl_platform_id, n)
	if code := C.clGetPlatformIDs(n, &ids[0], nil); code != C.CL_SUCCESS {
		return nil, status(code)
	}
	out := make([]driver.Ptr, len(ids))
	for i, id := range ids {
		out[i] = driver.Ptr(uintptr(unsafe.Pointer(id)))
	}
	return out, driver.Success
}

func (d *Driver) DeviceIDs(p driver.Ptr, typ driver.DeviceType) ([]driver.Ptr, driver.Status) {
	var n C.cl_uint
	if code := C.clGetDeviceIDs(platform(p), C.cl_device_type(typ), 0, nil, &n); code != C.CL_SUCCESS {
		return nil, status(code)
	}
	ids := make([]C.cl_device_id, n)
	if code := C.clGetDeviceIDs(platform(p), C.cl_device_type(typ), n, &ids[0], nil); code != C.CL_SUCCESS {
		return nil, status(code)
	}
	out := make([]driver.Ptr, len(ids))
	for i, id := range ids {
		out[i] = driver.Ptr(uintptr(unsafe.Pointer(id)))
	}
	return out, driver.Success
}

func (d *Driver) Info(kind driver.Kind, o driver.Ptr, param uint32) ([]byte, driver.Status) {
	if kind == driver.KindProgram && param == driver.ProgramBinaries {
		return d.programBinaries(o)
	}
	var f infoFunc
	switch kind {
	case driver.KindPlatform:
		f = func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
			return C.clGetPlatformInfo(platform(o), C.cl_platform_info(param), n, v, r)
		}
	case driver.KindDevice:
		f = func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
			return C.clGetDeviceInfo(device(o), C.cl_device_info(param), n, v, r)
		}
	case driver.KindContext:
		f = func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
			return C.clGetContextInfo(context(o), C.cl_context_info(param), n, v, r)
		}
	case driver.KindCommandQueue:
		f = func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
			return C.clGetCommandQueueInfo(queue(o), C.cl_command_queue_info(param), n, v, r)
		}
	case driver.KindMem:
		f = func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
			return C.clGetMemObjectInfo(mem(o), C.cl_mem_info(param), n, v, r)
		}
	case driver.KindSampler:
		f = func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
			return C.clGetSamplerInfo(sampler(o), C.cl_sampler_info(param), n, v, r)
		}
	case driver.KindProgram:
		f = func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
			return C.clGetProgramInfo(program(o), C.cl_program_info(param), n, v, r)
		}
	case driver.KindKernel:
		f = func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
			return C.clGetKernelInfo(kernel(o), C.cl_kernel_info(param), n, v, r)
		}
	case driver.KindEvent:
		f = func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
			return C.clGetEventInfo(event(o), C.cl_event_info(param), n, v, r)
		}
	default:
		return nil, driver.InvalidValue
	}
	return query(f)
}

// programBinaries concatenates the per-device binaries. CL_PROGRAM_BINARIES
// takes an array of caller-allocated buffers rather than one flat value.
func (d *Driver) programBinaries(p driver.Ptr) ([]byte, driver.Status) {
	raw, st := d.Info(driver.KindProgram, p, driver.ProgramBinarySizes)
	if st != driver.Success {
		return nil, st
	}
	lens, err := driver.DecodeSizes(raw)
	if err != nil {
		return nil, driver.InvalidValue
	}
	total := 0
	for _, n := range lens {
		total += n
	}
	if len(lens) == 0 {
		return []byte{}, driver.Success
	}
	block := C.malloc(C.size_t(max(total, 1)))
	defer C.free(block)
	bufs := make([]unsafe.Pointer, len(lens))
	off := 0
	for i, n := range lens {
		if n > 0 {
			bufs[i] = unsafe.Add(block, off)
		}
		off += n
	}
	code := C.clGetProgramInfo(program(p), C.CL_PROGRAM_BINARIES,
		C.size_t(uintptr(len(bufs))*unsafe.Sizeof(bufs[0])), unsafe.Pointer(&bufs[0]), nil)
	if code != C.CL_SUCCESS {
		return nil, status(code)
	}
	return C.GoBytes(block, C.int(total)), driver.Success
}

func (d *Driver) PipeInfo(pipe driver.Ptr, param uint32) ([]byte, driver.Status) {
	return query(func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
		return C.clGetPipeInfo(mem(pipe), C.cl_pipe_info(param), n, v, r)
	})
}

func (d *Driver) ProgramBuildInfo(p, dev driver.Ptr, param uint32) ([]byte, driver.Status) {
	return query(func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
		return C.clGetProgramBuildInfo(program(p), device(dev), C.cl_program_build_info(param), n, v, r)
	})
}

func (d *Driver) KernelWorkGroupInfo(k, dev driver.Ptr, param uint32) ([]byte, driver.Status) {
	return query(func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
		return C.clGetKernelWorkGroupInfo(kernel(k), device(dev), C.cl_kernel_work_group_info(param), n, v, r)
	})
}

func (d *Driver) KernelArgInfo(k driver.Ptr, index, param uint32) ([]byte, driver.Status) {
	return query(func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
		return C.clGetKernelArgInfo(kernel(k), C.cl_uint(index), C.cl_kernel_arg_info(param), n, v, r)
	})
}

func (d *Driver) KernelSubGroupInfo(k, dev driver.Ptr, param uint32, input []byte) ([]byte, driver.Status) {
	return query(func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
		return C.clGetKernelSubGroupInfo(kernel(k), device(dev), C.cl_kernel_sub_group_info(param),
			C.size_t(len(input)), bytesPtr(input), n, v, r)
	})
}

func (d *Driver) EventProfilingInfo(ev driver.Ptr, param uint32) ([]byte, driver.Status) {
	return query(func(n C.size_t, v unsafe.Pointer, r *C.size_t) C.cl_int {
		return C.clGetEventProfilingInfo(event(ev), C.cl_profiling_info(param), n, v, r)
	})
}

func (d *Driver) Retain(kind driver.Kind, o driver.Ptr) driver.Status {
	switch kind {
	case driver.KindDevice:
		return status(C.clRetainDevice(device(o)))
	case driver.KindContext:
		return status(C.clRetainContext(context(o)))
	case driver.KindCommandQueue:
		return status(C.clRetainCommandQueue(queue(o)))
	case driver.KindMem:
		return status(C.clRetainMemObject(mem(o)))
	case driver.KindSampler:
		return status(C.clRetainSampler(sampler(o)))
	case driver.KindProgram:
		return status(C.clRetainProgram(program(o)))
	case driver.KindKernel:
		return status(C.clRetainKernel(kernel(o)))
	case driver.KindEvent:
		return status(C.clRetainEvent(event(o)))
	}
	return driver.InvalidValue
}

func (d *Driver) Release(kind driver.Kind, o driver.Ptr) driver.Status {
	switch kind {
	case driver.KindDevice:
		return status(C.clReleaseDevice(device(o)))
	case driver.KindContext:
		return status(C.clReleaseContext(context(o)))
	case driver.KindCommandQueue:
		return status(C.clReleaseCommandQueue(queue(o)))
	case driver.KindMem:
		return status(C.clReleaseMemObject(mem(o)))
	case driver.KindSampler:
		return status(C.clReleaseSampler(sampler(o)))
	case driver.KindProgram:
		return status(C.clReleaseProgram(program(o)))
	case driver.KindKernel:
		return status(C.clReleaseKernel(kernel(o)))
	case driver.KindEvent:
		return status(C.clReleaseEvent(event(o)))
	}
	return driver.InvalidValue
}

func (d *Driver) CreateContext(properties []uintptr, devs []driver.Ptr) (driver.Ptr, driver.Status) {
	var props *C.cl_context_properties
	if len(properties) > 0 {
		ps := make([]C.cl_context_properties, len(properties))
		for i, p := range properties {
			ps[i] = C.cl_context_properties(p)
		}
		props = &ps[0]
	}
	n, ids := devices(devs)
	var code C.cl_int
	c := C.clCreateContext(props, n, ids, nil, nil, &code)
	return driver.Ptr(uintptr(unsafe.Pointer(c))), status(code)
}

func (d *Driver) CreateSubDevices(dev driver.Ptr, properties []uintptr) ([]driver.Ptr, driver.Status) {
	ps := make([]C.cl_device_partition_property, len(properties)+1)
	for i, p := range properties {
		ps[i] = C.cl_device_partition_property(p)
	}
	var n C.cl_uint
	if code := C.clCreateSubDevices(device(dev), &ps[0], 0, nil, &n); code != C.CL_SUCCESS {
		return nil, status(code)
	}
	ids := make([]C.cl_device_id, n)
	if code := C.clCreateSubDevices(device(dev), &ps[0], n, &ids[0], nil); code != C.CL_SUCCESS {
		return nil, status(code)
	}
	out := make([]driver.Ptr, len(ids))
	for i, id := range ids {
		out[i] = driver.Ptr(uintptr(unsafe.Pointer(id)))
	}
	return out, driver.Success
}

func (d *Driver) CreateCommandQueue(c, dev driver.Ptr, properties driver.QueueProperties) (driver.Ptr, driver.Status) {
	var code C.cl_int
	q := C.clCreateCommandQueue(context(c), device(dev), C.cl_command_queue_properties(properties), &code)
	return driver.Ptr(uintptr(unsafe.Pointer(q))), status(code)
}

func (d *Driver) CreateCommandQueueWithProperties(c, dev driver.Ptr, properties []uint64) (driver.Ptr, driver.Status) {
	var props *C.cl_queue_properties
	if len(properties) > 0 {
		ps := make([]C.cl_queue_properties, len(properties))
		for i, p := range properties {
			ps[i] = C.cl_queue_properties(p)
		}
		props = &ps[0]
	}
	var code C.cl_int
	q := C.clCreateCommandQueueWithProperties(context(c), device(dev), props, &code)
	return driver.Ptr(uintptr(unsafe.Pointer(q))), status(code)
}

func (d *Driver) SetCommandQueueProperty(q driver.Ptr, properties driver.QueueProperties, enable bool) (driver.QueueProperties, driver.Status) {
	var old C.cl_command_queue_properties
	code := C.clSetCommandQueueProperty(queue(q), C.cl_command_queue_properties(properties), clBool(enable), &old)
	return driver.QueueProperties(old), status(code)
}

func (d *Driver) SetDefaultDeviceCommandQueue(c, dev, q driver.Ptr) driver.Status {
	return status(C.clSetDefaultDeviceCommandQueue(context(c), device(dev), queue(q)))
}

func (d *Driver) Flush(q driver.Ptr) driver.Status { return status(C.clFlush(queue(q))) }
func (d *Driver) Finish(q driver.Ptr) driver.Status { return status(C.clFinish(queue(q))) }

// hostPtr returns the host pointer for a memory object. With
// CL_MEM_USE_HOST_PTR the runtime keeps the pointer, so the bytes are copied
// to C memory that the returned free func releases once the object is
// destroyed.
func hostPtr(flags driver.MemFlags, host []byte) (unsafe.Pointer, func()) {
	if len(host) == 0 {
		return nil, nil
	}
	if flags&driver.MemUseHostPtr == 0 {
		return unsafe.Pointer(&host[0]), nil
	}
	p := C.CBytes(host)
	return p, func() { C.free(p) }
}

// created finishes a memory object creation, tying owned host memory to the
// object's lifetime.
func (d *Driver) created(m C.cl_mem, code C.cl_int, free func()) (driver.Ptr, driver.Status) {
	if code != C.CL_SUCCESS {
		if free != nil {
			free()
		}
		return 0, status(code)
	}
	p := driver.Ptr(uintptr(unsafe.Pointer(m)))
	if free != nil {
		// 1.0 has no destructor callbacks; there the copy is never freed.
		d.SetMemObjectDestructorCallback(p, free)
	}
	return p, driver.Success
}

func (d *Driver) CreateBuffer(c driver.Ptr, flags driver.MemFlags, size int, host []byte) (driver.Ptr, driver.Status) {
	h, free := hostPtr(flags, host)
	var code C.cl_int
	m := C.clCreateBuffer(context(c), C.cl_mem_flags(flags), C.size_t(size), h, &code)
	return d.created(m, code, free)
}

func (d *Driver) CreateSubBuffer(buf driver.Ptr, flags driver.MemFlags, origin, size int) (driver.Ptr, driver.Status) {
	region := C.cl_buffer_region{origin: C.size_t(origin), size: C.size_t(size)}
	var code C.cl_int
	m := C.clCreateSubBuffer(mem(buf), C.cl_mem_flags(flags), C.CL_BUFFER_CREATE_TYPE_REGION, unsafe.Pointer(&region), &code)
	return driver.Ptr(uintptr(unsafe.Pointer(m))), status(code)
}

func imageFormat(f driver.ImageFormat) C.cl_image_format {
	return C.cl_image_format{
		image_channel_order:     C.cl_channel_order(f.ChannelOrder),
		image_channel_data_type: C.cl_channel_type(f.ChannelDataType),
	}
}

func (d *Driver) CreateImage(c driver.Ptr, flags driver.MemFlags, format driver.ImageFormat, desc driver.ImageDesc, host []byte) (driver.Ptr, driver.Status) {
	h, free := hostPtr(flags, host)
	f := imageFormat(format)
	var code C.cl_int
	m := C.clf_create_image(context(c), C.cl_mem_flags(flags), &f,
		C.cl_mem_object_type(desc.Type), C.size_t(desc.Width), C.size_t(desc.Height), C.size_t(desc.Depth),
		C.size_t(desc.ArraySize), C.size_t(desc.RowPitch), C.size_t(desc.SlicePitch),
		C.cl_uint(desc.MipLevels), C.cl_uint(desc.Samples), mem(desc.Buffer), h, &code)
	return d.created(m, code, free)
}

func (d *Driver) CreateImage2D(c driver.Ptr, flags driver.MemFlags, format driver.ImageFormat, width, height, rowPitch int, host []byte) (driver.Ptr, driver.Status) {
	h, free := hostPtr(flags, host)
	f := imageFormat(format)
	var code C.cl_int
	m := C.clCreateImage2D(context(c), C.cl_mem_flags(flags), &f,
		C.size_t(width), C.size_t(height), C.size_t(rowPitch), h, &code)
	return d.created(m, code, free)
}

func (d *Driver) CreateImage3D(c driver.Ptr, flags driver.MemFlags, format driver.ImageFormat, width, height, depth, rowPitch, slicePitch int, host []byte) (driver.Ptr, driver.Status) {
	h, free := hostPtr(flags, host)
	f := imageFormat(format)
	var code C.cl_int
	m := C.clCreateImage3D(context(c), C.cl_mem_flags(flags), &f,
		C.size_t(width), C.size_t(height), C.size_t(depth), C.size_t(rowPitch), C.size_t(slicePitch), h, &code)
	return d.created(m, code, free)
}

func (d *Driver) CreatePipe(c driver.Ptr, flags driver.MemFlags, packetSize, maxPackets uint32) (driver.Ptr, driver.Status) {
	var code C.cl_int
	m := C.clCreatePipe(context(c), C.cl_mem_flags(flags), C.cl_uint(packetSize), C.cl_uint(maxPackets), nil, &code)
	return driver.Ptr(uintptr(unsafe.Pointer(m))), status(code)
}

func (d *Driver) SetMemObjectDestructorCallback(m driver.Ptr, fn func()) driver.Status {
	data := newUserData(fn)
	code := C.clSetMemObjectDestructorCallback(mem(m), (*[0]byte)(unsafe.Pointer(C.goMemDestructor)), data)
	if code != C.CL_SUCCESS {
		dropUserData(data)
	}
	return status(code)
}

func (d *Driver) CreateSampler(c driver.Ptr, normalized bool, addressing driver.AddressingMode, filter driver.FilterMode) (driver.Ptr, driver.Status) {
	var code C.cl_int
	s := C.clCreateSampler(context(c), clBool(normalized), C.cl_addressing_mode(addressing), C.cl_filter_mode(filter), &code)
	return driver.Ptr(uintptr(unsafe.Pointer(s))), status(code)
}

func (d *Driver) CreateSamplerWithProperties(c driver.Ptr, properties []uint64) (driver.Ptr, driver.Status) {
	var props *C.cl_sampler_properties
	if len(properties) > 0 {
		ps := make([]C.cl_sampler_properties, len(properties))
		for i, p := range properties {
			ps[i] = C.cl_sampler_properties(p)
		}
		props = &ps[0]
	}
	var code C.cl_int
	s := C.clCreateSamplerWithProperties(context(c), props, &code)
	return driver.Ptr(uintptr(unsafe.Pointer(s))), status(code)
}

func (d *Driver) CreateProgramWithSource(c driver.Ptr, sources []string) (driver.Ptr, driver.Status) {
	strs, free := cstrings(sources)
	defer free()
	var code C.cl_int
	p := C.clCreateProgramWithSource(context(c), C.cl_uint(len(sources)), strs, nil, &code)
	return driver.Ptr(uintptr(unsafe.Pointer(p))), status(code)
}

func (d *Driver) CreateProgramWithBinary(c driver.Ptr, devs []driver.Ptr, binaries [][]byte) (driver.Ptr, []driver.Status, driver.Status) {
	n, ids := devices(devs)
	if len(binaries) == 0 {
		return 0, nil, driver.InvalidValue
	}
	lens := make([]C.size_t, len(binaries))
	bins := make([]*C.uchar, len(binaries))
	for i, b := range binaries {
		lens[i] = C.size_t(len(b))
		bins[i] = (*C.uchar)(C.CBytes(b))
	}
	defer func() {
		for _, b := range bins {
			C.free(unsafe.Pointer(b))
		}
	}()
	codes := make([]C.cl_int, len(binaries))
	var code C.cl_int
	p := C.clCreateProgramWithBinary(context(c), n, ids, &lens[0], &bins[0], &codes[0], &code)
	statuses := make([]driver.Status, len(codes))
	for i, s := range codes {
		statuses[i] = status(s)
	}
	return driver.Ptr(uintptr(unsafe.Pointer(p))), statuses, status(code)
}

func (d *Driver) CreateProgramWithBuiltInKernels(c driver.Ptr, devs []driver.Ptr, names string) (driver.Ptr, driver.Status) {
	n, ids := devices(devs)
	cnames := C.CString(names)
	defer C.free(unsafe.Pointer(cnames))
	var code C.cl_int
	p := C.clCreateProgramWithBuiltInKernels(context(c), n, ids, cnames, &code)
	return driver.Ptr(uintptr(unsafe.Pointer(p))), status(code)
}

func (d *Driver) CreateProgramWithIL(c driver.Ptr, il []byte) (driver.Ptr, driver.Status) {
	var code C.cl_int
	p := C.clCreateProgramWithIL(context(c), bytesPtr(il), C.size_t(len(il)), &code)
	return driver.Ptr(uintptr(unsafe.Pointer(p))), status(code)
}

func (d *Driver) BuildProgram(p driver.Ptr, devs []driver.Ptr, options string) driver.Status {
	n, ids := devices(devs)
	opts := C.CString(options)
	defer C.free(unsafe.Pointer(opts))
	return status(C.clBuildProgram(program(p), n, ids, opts, nil, nil))
}

func (d *Driver) CompileProgram(p driver.Ptr, devs []driver.Ptr, options string, headers []driver.Ptr, headerNames []string) driver.Status {
	n, ids := devices(devs)
	opts := C.CString(options)
	defer C.free(unsafe.Pointer(opts))
	nh, hs := programs(headers)
	names, free := cstrings(headerNames)
	defer free()
	return status(C.clCompileProgram(program(p), n, ids, opts, nh, hs, names, nil, nil))
}

func (d *Driver) LinkProgram(c driver.Ptr, devs []driver.Ptr, options string, inputs []driver.Ptr) (driver.Ptr, driver.Status) {
	n, ids := devices(devs)
	opts := C.CString(options)
	defer C.free(unsafe.Pointer(opts))
	np, ps := programs(inputs)
	var code C.cl_int
	p := C.clLinkProgram(context(c), n, ids, opts, np, ps, nil, nil, &code)
	return driver.Ptr(uintptr(unsafe.Pointer(p))), status(code)
}

func (d *Driver) UnloadCompiler() driver.Status {
	return status(C.clUnloadCompiler())
}

func (d *Driver) UnloadPlatformCompiler(p driver.Ptr) driver.Status {
	return status(C.clUnloadPlatformCompiler(platform(p)))
}

func (d *Driver) SetProgramReleaseCallback(p driver.Ptr, fn func()) driver.Status {
	data := newUserData(fn)
	code := C.clSetProgramReleaseCallback(program(p), (*[0]byte)(unsafe.Pointer(C.goProgramRelease)), data)
	if code != C.CL_SUCCESS {
		dropUserData(data)
	}
	return status(code)
}

func (d *Driver) SetProgramSpecializationConstant(p driver.Ptr, id uint32, value []byte) driver.Status {
	return status(C.clSetProgramSpecializationConstant(program(p), C.cl_uint(id), C.size_t(len(value)), bytesPtr(value)))
}

func (d *Driver) CreateKernel(p driver.Ptr, name string) (driver.Ptr, driver.Status) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var code C.cl_int
	k := C.clCreateKernel(program(p), cname, &code)
	return driver.Ptr(uintptr(unsafe.Pointer(k))), status(code)
}

func (d *Driver) CreateKernelsInProgram(p driver.Ptr) ([]driver.Ptr, driver.Status) {
	var n C.cl_uint
	if code := C.clCreateKernelsInProgram(program(p), 0, nil, &n); code != C.CL_SUCCESS {
		return nil, status(code)
	}
	if n == 0 {
		return nil, driver.Success
	}
	ks := make([]C.cl_kernel, n)
	if code := C.clCreateKernelsInProgram(program(p), n, &ks[0], nil); code != C.CL_SUCCESS {
		return nil, status(code)
	}
	out := make([]driver.Ptr, len(ks))
	for i, k := range ks {
		out[i] = driver.Ptr(uintptr(unsafe.Pointer(k)))
	}
	return out, driver.Success
}

func (d *Driver) CloneKernel(k driver.Ptr) (driver.Ptr, driver.Status) {
	var code C.cl_int
	clone := C.clCloneKernel(kernel(k), &code)
	return driver.Ptr(uintptr(unsafe.Pointer(clone))), status(code)
}

func (d *Driver) SetKernelArg(k driver.Ptr, index uint32, arg driver.KernelArg) driver.Status {
	var code C.cl_int
	switch {
	case arg.Local:
		code = C.clSetKernelArg(kernel(k), C.cl_uint(index), C.size_t(arg.Size), nil)
	case arg.Object != 0:
		m := mem(arg.Object)
		code = C.clSetKernelArg(kernel(k), C.cl_uint(index), C.size_t(unsafe.Sizeof(m)), unsafe.Pointer(&m))
	case arg.Data != nil:
		code = C.clSetKernelArg(kernel(k), C.cl_uint(index), C.size_t(len(arg.Data)), bytesPtr(arg.Data))
	default:
		// A NULL buffer argument.
		code = C.clSetKernelArg(kernel(k), C.cl_uint(index), C.size_t(unsafe.Sizeof(C.cl_mem(nil))), nil)
	}
	return status(code)
}

func (d *Driver) SetKernelArgSVMPointer(k driver.Ptr, index uint32, ptr driver.SVMPtr) driver.Status {
	return status(C.clSetKernelArgSVMPointer(kernel(k), C.cl_uint(index), svm(ptr)))
}

func (d *Driver) SetKernelExecInfo(k driver.Ptr, param uint32, value []byte) driver.Status {
	return status(C.clSetKernelExecInfo(kernel(k), C.cl_kernel_exec_info(param), C.size_t(len(value)), bytesPtr(value)))
}

func (d *Driver) CreateUserEvent(c driver.Ptr) (driver.Ptr, driver.Status) {
	var code C.cl_int
	ev := C.clCreateUserEvent(context(c), &code)
	return eventPtr(ev), status(code)
}

func (d *Driver) SetUserEventStatus(ev driver.Ptr, st driver.ExecStatus) driver.Status {
	return status(C.clSetUserEventStatus(event(ev), C.cl_int(st)))
}

func (d *Driver) SetEventCallback(ev driver.Ptr, trigger driver.ExecStatus, fn driver.EventCallback) driver.Status {
	data := newUserData(fn)
	code := C.clSetEventCallback(event(ev), C.cl_int(trigger), (*[0]byte)(unsafe.Pointer(C.goEventCallback)), data)
	if code != C.CL_SUCCESS {
		dropUserData(data)
	}
	return status(code)
}

func (d *Driver) WaitForEvents(evs []driver.Ptr) driver.Status {
	n, list := events(evs)
	return status(C.clWaitForEvents(n, list))
}

// Non-blocking transfers must not hand Go memory to the runtime beyond the
// call, so they go through C staging memory released on completion.

// stageWrite copies src to C memory for a non-blocking write.
func (d *Driver) stageWrite(src []byte, blocking bool, enqueue func(host unsafe.Pointer) (C.cl_event, C.cl_int)) (driver.Ptr, driver.Status) {
	if blocking || len(src) == 0 {
		ev, code := enqueue(bytesPtr(src))
		return eventPtr(ev), status(code)
	}
	host := C.CBytes(src)
	ev, code := enqueue(host)
	if code != C.CL_SUCCESS {
		C.free(host)
		return 0, status(code)
	}
	p := eventPtr(ev)
	if d.SetEventCallback(p, driver.Complete, func(driver.Ptr, driver.ExecStatus) { C.free(host) }) != driver.Success {
		C.clWaitForEvents(1, &ev)
		C.free(host)
	}
	return p, driver.Success
}

// stageRead reads into C memory and copies to dst once the read completes.
// The returned event is a user event that completes after the copy, so a
// caller waiting on it sees dst filled.
func (d *Driver) stageRead(q driver.Ptr, dst []byte, blocking bool, enqueue func(host unsafe.Pointer) (C.cl_event, C.cl_int)) (driver.Ptr, driver.Status) {
	if blocking || len(dst) == 0 {
		ev, code := enqueue(bytesPtr(dst))
		return eventPtr(ev), status(code)
	}
	host := C.malloc(C.size_t(len(dst)))
	ev, code := enqueue(host)
	if code != C.CL_SUCCESS {
		C.free(host)
		return 0, status(code)
	}
	finish := func() {
		copy(dst, unsafe.Slice((*byte)(host), len(dst)))
		C.free(host)
	}

	var ctx C.cl_context
	code = C.clGetCommandQueueInfo(queue(q), C.CL_QUEUE_CONTEXT, C.size_t(unsafe.Sizeof(ctx)), unsafe.Pointer(&ctx), nil)
	var done C.cl_event
	if code == C.CL_SUCCESS {
		done = C.clCreateUserEvent(ctx, &code)
	}
	if code != C.CL_SUCCESS {
		// No user events before 1.1: complete the read before returning.
		code = C.clWaitForEvents(1, &ev)
		finish()
		return eventPtr(ev), status(code)
	}

	read := eventPtr(ev)
	st := d.SetEventCallback(read, driver.Complete, func(_ driver.Ptr, s driver.ExecStatus) {
		if s == driver.Complete {
			finish()
		} else {
			C.free(host)
		}
		C.clSetUserEventStatus(done, C.cl_int(s))
		C.clReleaseEvent(ev)
	})
	if st != driver.Success {
		C.clWaitForEvents(1, &ev)
		finish()
		C.clSetUserEventStatus(done, C.CL_COMPLETE)
		C.clReleaseEvent(ev)
	}
	return eventPtr(done), driver.Success
}

func (d *Driver) EnqueueReadBuffer(q, buf driver.Ptr, blocking bool, offset int, dst []byte, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	return d.stageRead(q, dst, blocking, func(host unsafe.Pointer) (ev C.cl_event, code C.cl_int) {
		code = C.clEnqueueReadBuffer(queue(q), mem(buf), clBool(blocking), C.size_t(offset), C.size_t(len(dst)), host, n, list, &ev)
		return ev, code
	})
}

func (d *Driver) EnqueueWriteBuffer(q, buf driver.Ptr, blocking bool, offset int, src []byte, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	return d.stageWrite(src, blocking, func(host unsafe.Pointer) (ev C.cl_event, code C.cl_int) {
		code = C.clEnqueueWriteBuffer(queue(q), mem(buf), clBool(blocking), C.size_t(offset), C.size_t(len(src)), host, n, list, &ev)
		return ev, code
	})
}

func (d *Driver) EnqueueCopyBuffer(q, src, dst driver.Ptr, srcOffset, dstOffset, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	var ev C.cl_event
	code := C.clEnqueueCopyBuffer(queue(q), mem(src), mem(dst), C.size_t(srcOffset), C.size_t(dstOffset), C.size_t(size), n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueReadBufferRect(q, buf driver.Ptr, blocking bool, rect driver.Rect, dst []byte, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	return d.stageRead(q, dst, blocking, func(host unsafe.Pointer) (ev C.cl_event, code C.cl_int) {
		code = C.clEnqueueReadBufferRect(queue(q), mem(buf), clBool(blocking),
			triple(rect.BufferOrigin), triple(rect.HostOrigin), triple(rect.Region),
			C.size_t(rect.BufferRowPitch), C.size_t(rect.BufferSlicePitch),
			C.size_t(rect.HostRowPitch), C.size_t(rect.HostSlicePitch),
			host, n, list, &ev)
		return ev, code
	})
}

func (d *Driver) EnqueueWriteBufferRect(q, buf driver.Ptr, blocking bool, rect driver.Rect, src []byte, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	return d.stageWrite(src, blocking, func(host unsafe.Pointer) (ev C.cl_event, code C.cl_int) {
		code = C.clEnqueueWriteBufferRect(queue(q), mem(buf), clBool(blocking),
			triple(rect.BufferOrigin), triple(rect.HostOrigin), triple(rect.Region),
			C.size_t(rect.BufferRowPitch), C.size_t(rect.BufferSlicePitch),
			C.size_t(rect.HostRowPitch), C.size_t(rect.HostSlicePitch),
			host, n, list, &ev)
		return ev, code
	})
}

func (d *Driver) EnqueueCopyBufferRect(q, src, dst driver.Ptr, srcOrigin, dstOrigin, region [3]int, srcRowPitch, srcSlicePitch, dstRowPitch, dstSlicePitch int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	var ev C.cl_event
	code := C.clEnqueueCopyBufferRect(queue(q), mem(src), mem(dst),
		triple(srcOrigin), triple(dstOrigin), triple(region),
		C.size_t(srcRowPitch), C.size_t(srcSlicePitch), C.size_t(dstRowPitch), C.size_t(dstSlicePitch),
		n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueFillBuffer(q, buf driver.Ptr, pattern []byte, offset, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	var ev C.cl_event
	code := C.clEnqueueFillBuffer(queue(q), mem(buf), bytesPtr(pattern), C.size_t(len(pattern)),
		C.size_t(offset), C.size_t(size), n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueFillImage(q, image driver.Ptr, color [16]byte, origin, region [3]int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	var ev C.cl_event
	code := C.clEnqueueFillImage(queue(q), mem(image), unsafe.Pointer(&color[0]), triple(origin), triple(region), n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueMigrateMemObjects(q driver.Ptr, objs []driver.Ptr, flags driver.MigrationFlags, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	nm, ms := mems(objs)
	var ev C.cl_event
	code := C.clEnqueueMigrateMemObjects(queue(q), nm, ms, C.cl_mem_migration_flags(flags), n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueNDRangeKernel(q, k driver.Ptr, offset, global, local []int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	var ev C.cl_event
	code := C.clEnqueueNDRangeKernel(queue(q), kernel(k), C.cl_uint(len(global)),
		sizes(offset), sizes(global), sizes(local), n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueTask(q, k driver.Ptr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	var ev C.cl_event
	code := C.clEnqueueTask(queue(q), kernel(k), n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueMarker(q driver.Ptr) (driver.Ptr, driver.Status) {
	var ev C.cl_event
	code := C.clEnqueueMarker(queue(q), &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueWaitForEvents(q driver.Ptr, evs []driver.Ptr) driver.Status {
	n, list := events(evs)
	return status(C.clEnqueueWaitForEvents(queue(q), n, list))
}

func (d *Driver) EnqueueBarrier(q driver.Ptr) driver.Status {
	return status(C.clEnqueueBarrier(queue(q)))
}

func (d *Driver) EnqueueMarkerWithWaitList(q driver.Ptr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	var ev C.cl_event
	code := C.clEnqueueMarkerWithWaitList(queue(q), n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueBarrierWithWaitList(q driver.Ptr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	var ev C.cl_event
	code := C.clEnqueueBarrierWithWaitList(queue(q), n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) SVMAlloc(c driver.Ptr, flags driver.MemFlags, size int, alignment uint32) driver.SVMPtr {
	p := C.clSVMAlloc(context(c), C.cl_svm_mem_flags(flags), C.size_t(size), C.cl_uint(alignment))
	return driver.SVMPtr(uintptr(p))
}

func (d *Driver) SVMFree(c driver.Ptr, ptr driver.SVMPtr) {
	C.clSVMFree(context(c), svm(ptr))
}

func (d *Driver) EnqueueSVMFree(q driver.Ptr, ptrs []driver.SVMPtr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	np, ps := svms(ptrs)
	var ev C.cl_event
	code := C.clEnqueueSVMFree(queue(q), np, ps, nil, nil, n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueSVMMemcpy(q driver.Ptr, blocking bool, dst, src driver.SVMPtr, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	var ev C.cl_event
	code := C.clEnqueueSVMMemcpy(queue(q), clBool(blocking), svm(dst), svm(src), C.size_t(size), n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueSVMMemFill(q driver.Ptr, ptr driver.SVMPtr, pattern []byte, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	var ev C.cl_event
	code := C.clEnqueueSVMMemFill(queue(q), svm(ptr), bytesPtr(pattern), C.size_t(len(pattern)), C.size_t(size), n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueSVMMap(q driver.Ptr, blocking bool, flags driver.MapFlags, ptr driver.SVMPtr, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	var ev C.cl_event
	code := C.clEnqueueSVMMap(queue(q), clBool(blocking), C.cl_map_flags(flags), svm(ptr), C.size_t(size), n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueSVMUnmap(q driver.Ptr, ptr driver.SVMPtr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	var ev C.cl_event
	code := C.clEnqueueSVMUnmap(queue(q), svm(ptr), n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) EnqueueSVMMigrateMem(q driver.Ptr, ptrs []driver.SVMPtr, szs []int, flags driver.MigrationFlags, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	n, list := events(wait)
	np, ps := svms(ptrs)
	var ev C.cl_event
	code := C.clEnqueueSVMMigrateMem(queue(q), np, ps, sizes(szs), C.cl_mem_migration_flags(flags), n, list, &ev)
	return eventPtr(ev), status(code)
}

func (d *Driver) HostTimer(dev driver.Ptr) (uint64, driver.Status) {
	var t C.cl_ulong
	code := C.clGetHostTimer(device(dev), &t)
	return uint64(t), status(code)
}

func (d *Driver) DeviceAndHostTimer(dev driver.Ptr) (uint64, uint64, driver.Status) {
	var dt, ht C.cl_ulong
	code := C.clGetDeviceAndHostTimer(device(dev), &dt, &ht)
	return uint64(dt), uint64(ht), status(code)
}
