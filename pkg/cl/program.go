package cl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

func (r *Runtime) CreateProgramWithSource(c Context, sources ...string) (Program, error) {
	op := capability.OpCreateProgramWithSource
	if err := r.enter(op, c); err != nil {
		return Program{}, err
	}
	if len(sources) == 0 {
		return Program{}, r.reject(invalidArg(op, "sources", "no source strings"))
	}
	return r.newProgram(op, func() (driver.Ptr, driver.Status) {
		return r.drv.CreateProgramWithSource(c.ptr, sources)
	})
}

// CreateProgramWithBinary loads one binary per device, typically obtained
// from ProgramBinaries. A failure names the devices whose binary was
// rejected.
func (r *Runtime) CreateProgramWithBinary(c Context, devices []Device, binaries [][]byte) (Program, error) {
	op := capability.OpCreateProgramWithBinary
	if err := r.enter(op, c); err != nil {
		return Program{}, err
	}
	if err := nonNil(r, op, "devices", devices); err != nil {
		return Program{}, err
	}
	if len(devices) == 0 || len(devices) != len(binaries) {
		return Program{}, r.reject(invalidArg(op, "binaries", "%d binaries for %d devices", len(binaries), len(devices)))
	}
	var (
		ptr      driver.Ptr
		statuses []driver.Status
	)
	err := r.native(op, func() (st driver.Status) {
		ptr, statuses, st = r.drv.CreateProgramWithBinary(c.ptr, ptrs(devices), binaries)
		return st
	})
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			var bad []string
			for i, st := range statuses {
				if !st.OK() && i < len(devices) {
					bad = append(bad, fmt.Sprintf("%s: %s", devices[i], st))
				}
			}
			e.Detail = strings.Join(bad, ", ")
		}
		return Program{}, err
	}
	r.created(driver.KindProgram, ptr)
	return Program{ptr: ptr}, nil
}

// CreateProgramWithBuiltInKernels takes a semicolon separated list of
// kernel names the devices provide.
func (r *Runtime) CreateProgramWithBuiltInKernels(c Context, devices []Device, names string) (Program, error) {
	op := capability.OpCreateProgramWithBuiltInKernels
	if err := r.enter(op, c); err != nil {
		return Program{}, err
	}
	if err := nonNil(r, op, "devices", devices); err != nil {
		return Program{}, err
	}
	return r.newProgram(op, func() (driver.Ptr, driver.Status) {
		return r.drv.CreateProgramWithBuiltInKernels(c.ptr, ptrs(devices), names)
	})
}

// CreateProgramWithIL loads a SPIR-V module.
func (r *Runtime) CreateProgramWithIL(c Context, il []byte) (Program, error) {
	op := capability.OpCreateProgramWithIL
	if err := r.enter(op, c); err != nil {
		return Program{}, err
	}
	return r.newProgram(op, func() (driver.Ptr, driver.Status) {
		return r.drv.CreateProgramWithIL(c.ptr, il)
	})
}

func (r *Runtime) newProgram(op capability.Op, create func() (driver.Ptr, driver.Status)) (Program, error) {
	var ptr driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ptr, st = create()
		return st
	})
	if err != nil {
		return Program{}, err
	}
	r.created(driver.KindProgram, ptr)
	return Program{ptr: ptr}, nil
}

// BuildProgram compiles and links p for devices, or for every device of the
// program when none are given. On CL_BUILD_PROGRAM_FAILURE the returned
// *Error carries the build logs in Detail.
func (r *Runtime) BuildProgram(p Program, options string, devices ...Device) error {
	op := capability.OpBuildProgram
	if err := r.enter(op, p); err != nil {
		return err
	}
	if err := nonNil(r, op, "devices", devices); err != nil {
		return err
	}
	err := r.native(op, func() driver.Status { return r.drv.BuildProgram(p.ptr, ptrs(devices), options) })
	if st, ok := StatusOf(err); ok && st == driver.BuildProgramFailure {
		r.attachBuildLog(err, p, devices)
	}
	return err
}

// CompileProgram compiles p without linking. headerNames gives the include
// name of each program in headers.
func (r *Runtime) CompileProgram(p Program, options string, devices []Device, headers []Program, headerNames []string) error {
	op := capability.OpCompileProgram
	if err := r.enter(op, p); err != nil {
		return err
	}
	if err := nonNil(r, op, "devices", devices); err != nil {
		return err
	}
	if err := nonNil(r, op, "headers", headers); err != nil {
		return err
	}
	if len(headers) != len(headerNames) {
		return r.reject(invalidArg(op, "headerNames", "%d names for %d headers", len(headerNames), len(headers)))
	}
	err := r.native(op, func() driver.Status {
		return r.drv.CompileProgram(p.ptr, ptrs(devices), options, ptrs(headers), headerNames)
	})
	if st, ok := StatusOf(err); ok && st == driver.CompileProgramFailure {
		r.attachBuildLog(err, p, devices)
	}
	return err
}

// LinkProgram links compiled programs into a new executable. When linking
// fails after the runtime created the program, that program is returned with
// the error so its build log can still be read.
func (r *Runtime) LinkProgram(c Context, programs []Program, options string, devices ...Device) (Program, error) {
	op := capability.OpLinkProgram
	if err := r.enter(op, c); err != nil {
		return Program{}, err
	}
	if len(programs) == 0 {
		return Program{}, r.reject(invalidArg(op, "programs", "no input programs"))
	}
	if err := nonNil(r, op, "programs", programs); err != nil {
		return Program{}, err
	}
	if err := nonNil(r, op, "devices", devices); err != nil {
		return Program{}, err
	}
	var ptr driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ptr, st = r.drv.LinkProgram(c.ptr, ptrs(devices), options, ptrs(programs))
		return st
	})
	if ptr == 0 {
		return Program{}, err
	}
	r.created(driver.KindProgram, ptr)
	linked := Program{ptr: ptr}
	if st, ok := StatusOf(err); ok && st == driver.LinkProgramFailure {
		r.attachBuildLog(err, linked, devices)
	}
	return linked, err
}

func (r *Runtime) attachBuildLog(err error, p Program, devices []Device) {
	var e *Error
	if !errors.As(err, &e) {
		return
	}
	if len(devices) == 0 {
		devices, _ = r.ProgramDevices(p)
	}
	var logs []string
	for _, d := range devices {
		log, lerr := r.GetProgramBuildLog(p, d)
		if lerr == nil && strings.TrimSpace(log) != "" {
			logs = append(logs, strings.TrimRight(log, "\n"))
		}
	}
	e.Detail = strings.Join(logs, "\n")
}

// UnloadCompiler is the 1.0 hint that the compiler may be unloaded.
func (r *Runtime) UnloadCompiler() error {
	op := capability.OpUnloadCompiler
	if err := r.enter(op); err != nil {
		return err
	}
	return r.native(op, r.drv.UnloadCompiler)
}

func (r *Runtime) UnloadPlatformCompiler(p Platform) error {
	op := capability.OpUnloadPlatformCompiler
	if err := r.enter(op, p); err != nil {
		return err
	}
	return r.native(op, func() driver.Status { return r.drv.UnloadPlatformCompiler(p.ptr) })
}

func (r *Runtime) RetainProgram(p Program) error {
	return r.retain(capability.OpRetainProgram, p)
}

func (r *Runtime) ReleaseProgram(p Program) error {
	return r.release(capability.OpReleaseProgram, p)
}

func (r *Runtime) GetProgramInfo(p Program, param uint32) ([]byte, error) {
	return r.info(capability.OpGetProgramInfo, p, func() ([]byte, driver.Status) {
		return r.drv.Info(driver.KindProgram, p.ptr, param)
	})
}

func (r *Runtime) GetProgramBuildInfo(p Program, d Device, param uint32) ([]byte, error) {
	op := capability.OpGetProgramBuildInfo
	if err := r.enter(op, p, d); err != nil {
		return nil, err
	}
	var out []byte
	err := r.native(op, func() (st driver.Status) {
		out, st = r.drv.ProgramBuildInfo(p.ptr, d.ptr, param)
		return st
	})
	return out, err
}

// GetProgramBuildLog returns the build log of p on d.
func (r *Runtime) GetProgramBuildLog(p Program, d Device) (string, error) {
	raw, err := r.GetProgramBuildInfo(p, d, driver.ProgramBuildLog)
	if err != nil {
		return "", err
	}
	return driver.DecodeString(raw), nil
}

// GetProgramBuildOptions returns the options of the last build of p on d.
func (r *Runtime) GetProgramBuildOptions(p Program, d Device) (string, error) {
	raw, err := r.GetProgramBuildInfo(p, d, driver.ProgramBuildOptions)
	if err != nil {
		return "", err
	}
	return driver.DecodeString(raw), nil
}

// ProgramDevices decodes CL_PROGRAM_DEVICES.
func (r *Runtime) ProgramDevices(p Program) ([]Device, error) {
	raw, err := r.GetProgramInfo(p, driver.ProgramDevices)
	if err != nil {
		return nil, err
	}
	ids, err := driver.DecodePtrs(raw)
	if err != nil {
		return nil, &LocalError{Op: capability.OpGetProgramInfo, Kind: KindInvalidArgument, Param: "param", Cause: err}
	}
	return wrapAll[Device](ids), nil
}

// ProgramBinaries returns the binary of p for each of its devices, in
// ProgramDevices order. The result can be passed to CreateProgramWithBinary.
func (r *Runtime) ProgramBinaries(p Program) ([][]byte, error) {
	raw, err := r.GetProgramInfo(p, driver.ProgramBinarySizes)
	if err != nil {
		return nil, err
	}
	sizes, err := driver.DecodeSizes(raw)
	if err != nil {
		return nil, &LocalError{Op: capability.OpGetProgramInfo, Kind: KindInvalidArgument, Param: "param", Cause: err}
	}
	all, err := r.GetProgramInfo(p, driver.ProgramBinaries)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(sizes))
	off := 0
	for i, n := range sizes {
		if off+n > len(all) {
			return nil, &LocalError{
				Op:     capability.OpGetProgramInfo,
				Kind:   KindInvalidArgument,
				Param:  "param",
				Detail: fmt.Sprintf("binary %d: want %d bytes at offset %d, have %d", i, n, off, len(all)),
			}
		}
		out[i] = all[off : off+n : off+n]
		off += n
	}
	return out, nil
}

// SetProgramReleaseCallback registers fn to run, on a driver goroutine, when
// p is freed.
func (r *Runtime) SetProgramReleaseCallback(p Program, fn func()) error {
	op := capability.OpSetProgramReleaseCallback
	if err := r.enter(op, p); err != nil {
		return err
	}
	if fn == nil {
		return r.reject(invalidArg(op, "callback", "nil callback"))
	}
	return r.native(op, func() driver.Status { return r.drv.SetProgramReleaseCallback(p.ptr, fn) })
}

func (r *Runtime) SetProgramSpecializationConstant(p Program, id uint32, value []byte) error {
	op := capability.OpSetProgramSpecializationConstant
	if err := r.enter(op, p); err != nil {
		return err
	}
	return r.native(op, func() driver.Status { return r.drv.SetProgramSpecializationConstant(p.ptr, id, value) })
}
