package sim

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// Simulated binaries are the magic, one binary type byte, then the source.
var binaryMagic = []byte("SIMBIN\x00")

const spirvMagic = 0x07230203

// builtInKernels are the kernels clCreateProgramWithBuiltInKernels knows.
var builtInKernels = map[string]kernelDecl{
	"sim_copy": {name: "sim_copy", args: []kernelArgDecl{
		{name: "src", typeName: "uchar*", address: driver.KernelArgAddressGlobal, pointer: true, constant: true},
		{name: "dst", typeName: "uchar*", address: driver.KernelArgAddressGlobal, pointer: true},
	}},
	"sim_fill": {name: "sim_fill", args: []kernelArgDecl{
		{name: "dst", typeName: "uchar*", address: driver.KernelArgAddressGlobal, pointer: true},
		{name: "value", typeName: "uchar", address: driver.KernelArgAddressPrivate},
	}},
}

func encodeBinary(typ driver.BinaryType, source string) []byte {
	out := append([]byte(nil), binaryMagic...)
	out = append(out, byte(typ))
	return append(out, source...)
}

func decodeBinary(b []byte) (driver.BinaryType, string, bool) {
	if !bytes.HasPrefix(b, binaryMagic) || len(b) < len(binaryMagic)+1 {
		return 0, "", false
	}
	typ := driver.BinaryType(b[len(binaryMagic)])
	switch typ {
	case driver.BinaryTypeCompiledObject, driver.BinaryTypeLibrary, driver.BinaryTypeExecutable:
	default:
		return 0, "", false
	}
	return typ, string(b[len(binaryMagic)+1:]), true
}

func (r *Runtime) contextDevices(context driver.Ptr) ([]driver.Ptr, driver.Status) {
	ctx, st := r.get(driver.KindContext, context)
	if st != driver.Success {
		return nil, st
	}
	return ctx.devices, driver.Success
}

// programDevices resolves a device list argument against a program. An empty
// list means every device of the program.
func (r *Runtime) programDevices(p *object, devices []driver.Ptr) ([]driver.Ptr, driver.Status) {
	if len(devices) == 0 {
		return p.devices, driver.Success
	}
	for _, d := range devices {
		if _, st := r.get(driver.KindDevice, d); st != driver.Success {
			return nil, st
		}
		if !p.hasDevice(d) {
			return nil, driver.InvalidDevice
		}
	}
	return devices, driver.Success
}

func (r *Runtime) CreateProgramWithSource(context driver.Ptr, sources []string) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateProgramWithSource", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, st := r.contextDevices(context)
	if st != driver.Success {
		return 0, st
	}
	if len(sources) == 0 {
		return 0, driver.InvalidValue
	}
	return r.alloc(&object{
		kind:        driver.KindProgram,
		context:     context,
		devices:     devices,
		source:      strings.Join(sources, ""),
		buildStatus: driver.BuildNone,
	}), driver.Success
}

func (r *Runtime) CreateProgramWithBinary(context driver.Ptr, devices []driver.Ptr, binaries [][]byte) (driver.Ptr, []driver.Status, driver.Status) {
	if st := r.enter("CreateProgramWithBinary", capability.V10); st != driver.Success {
		return 0, nil, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, st := r.get(driver.KindContext, context)
	if st != driver.Success {
		return 0, nil, st
	}
	if len(devices) == 0 || len(devices) != len(binaries) {
		return 0, nil, driver.InvalidValue
	}
	for _, d := range devices {
		if !ctx.hasDevice(d) {
			return 0, nil, driver.InvalidDevice
		}
	}

	statuses := make([]driver.Status, len(binaries))
	var (
		typ    driver.BinaryType
		source string
		failed bool
	)
	for i, b := range binaries {
		if len(b) == 0 {
			return 0, nil, driver.InvalidValue
		}
		t, src, ok := decodeBinary(b)
		if !ok {
			statuses[i] = driver.InvalidBinary
			failed = true
			continue
		}
		typ, source = t, src
	}
	if failed {
		return 0, statuses, driver.InvalidBinary
	}
	decls, err := parseKernels(source)
	if err != nil {
		return 0, statuses, driver.InvalidBinary
	}
	return r.alloc(&object{
		kind:        driver.KindProgram,
		context:     context,
		devices:     append([]driver.Ptr(nil), devices...),
		source:      source,
		fromBinary:  true,
		buildStatus: driver.BuildNone,
		binaryType:  typ,
		decls:       decls,
	}), statuses, driver.Success
}

func (r *Runtime) CreateProgramWithBuiltInKernels(context driver.Ptr, devices []driver.Ptr, names string) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateProgramWithBuiltInKernels", capability.V12); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, st := r.get(driver.KindContext, context)
	if st != driver.Success {
		return 0, st
	}
	if len(devices) == 0 || names == "" {
		return 0, driver.InvalidValue
	}
	for _, d := range devices {
		if !ctx.hasDevice(d) {
			return 0, driver.InvalidDevice
		}
	}
	var decls []kernelDecl
	for _, name := range strings.Split(names, ";") {
		decl, ok := builtInKernels[strings.TrimSpace(name)]
		if !ok {
			return 0, driver.InvalidValue
		}
		decls = append(decls, decl)
	}
	return r.alloc(&object{
		kind:        driver.KindProgram,
		context:     context,
		devices:     append([]driver.Ptr(nil), devices...),
		builtIn:     true,
		buildStatus: driver.BuildSuccess,
		binaryType:  driver.BinaryTypeExecutable,
		decls:       decls,
	}), driver.Success
}

func (r *Runtime) CreateProgramWithIL(context driver.Ptr, il []byte) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateProgramWithIL", capability.V21); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, st := r.contextDevices(context)
	if st != driver.Success {
		return 0, st
	}
	if len(il) < 4 || binary.LittleEndian.Uint32(il) != spirvMagic {
		return 0, driver.InvalidValue
	}
	return r.alloc(&object{
		kind:          driver.KindProgram,
		context:       context,
		devices:       devices,
		il:            append([]byte(nil), il...),
		source:        string(il[4:]),
		buildStatus:   driver.BuildNone,
		specConstants: map[uint32][]byte{},
	}), driver.Success
}

// compile runs the simulated front end over p's source, recording the log.
func (r *Runtime) compile(p *object, options string) bool {
	p.options = options
	log, failed := buildDiagnostics(p.source)
	decls, err := parseKernels(p.source)
	if err != nil {
		log += fmt.Sprintf("<source>: %v\n", err)
		failed = true
	}
	p.buildLog = log
	if failed {
		p.buildStatus = driver.BuildError
		p.decls = nil
		return false
	}
	p.decls = decls
	p.buildStatus = driver.BuildSuccess
	return true
}

func (r *Runtime) BuildProgram(program driver.Ptr, devices []driver.Ptr, options string) driver.Status {
	if st := r.enter("BuildProgram", capability.V10); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, st := r.get(driver.KindProgram, program)
	if st != driver.Success {
		return st
	}
	if _, st := r.programDevices(p, devices); st != driver.Success {
		return st
	}
	if p.attachedKernels > 0 {
		return driver.InvalidOperation
	}
	if _, ok := validOptions(options); !ok {
		return driver.InvalidBuildOptions
	}
	if p.builtIn {
		return driver.Success
	}
	if p.fromBinary && p.binaryType == driver.BinaryTypeCompiledObject {
		return driver.InvalidBinary
	}
	if !r.compile(p, options) {
		return driver.BuildProgramFailure
	}
	p.binaryType = driver.BinaryTypeExecutable
	return driver.Success
}

func (r *Runtime) CompileProgram(program driver.Ptr, devices []driver.Ptr, options string, headers []driver.Ptr, headerNames []string) driver.Status {
	if st := r.enter("CompileProgram", capability.V12); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, st := r.get(driver.KindProgram, program)
	if st != driver.Success {
		return st
	}
	if _, st := r.programDevices(p, devices); st != driver.Success {
		return st
	}
	if len(headers) != len(headerNames) {
		return driver.InvalidValue
	}
	if st := r.getAll(driver.KindProgram, headers); st != driver.Success {
		return st
	}
	if p.attachedKernels > 0 {
		return driver.InvalidOperation
	}
	if _, ok := validOptions(options); !ok {
		return driver.InvalidCompilerOptions
	}
	if p.source == "" {
		return driver.InvalidOperation
	}
	if !r.compile(p, options) {
		return driver.CompileProgramFailure
	}
	p.binaryType = driver.BinaryTypeCompiledObject
	return driver.Success
}

func (r *Runtime) LinkProgram(context driver.Ptr, devices []driver.Ptr, options string, programs []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("LinkProgram", capability.V12); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, st := r.get(driver.KindContext, context)
	if st != driver.Success {
		return 0, st
	}
	if len(programs) == 0 {
		return 0, driver.InvalidValue
	}
	for _, d := range devices {
		if !ctx.hasDevice(d) {
			return 0, driver.InvalidDevice
		}
	}
	library := false
	fields := strings.Fields(options)
	for _, f := range fields {
		switch f {
		case "-create-library":
			library = true
		case "-enable-link-options", "-cl-denorms-are-zero", "-cl-no-signed-zeros", "-cl-unsafe-math-optimizations", "-cl-finite-math-only", "-cl-fast-relaxed-math":
		default:
			return 0, driver.InvalidLinkerOptions
		}
	}

	var sources []string
	for _, ptr := range programs {
		in, st := r.get(driver.KindProgram, ptr)
		if st != driver.Success {
			return 0, driver.InvalidProgram
		}
		if in.binaryType != driver.BinaryTypeCompiledObject && in.binaryType != driver.BinaryTypeLibrary {
			return 0, driver.InvalidOperation
		}
		sources = append(sources, in.source)
	}
	if len(devices) == 0 {
		devices = ctx.devices
	}
	out := &object{
		kind:        driver.KindProgram,
		context:     context,
		devices:     append([]driver.Ptr(nil), devices...),
		source:      strings.Join(sources, "\n"),
		options:     options,
		buildStatus: driver.BuildSuccess,
		binaryType:  driver.BinaryTypeExecutable,
	}
	if library {
		out.binaryType = driver.BinaryTypeLibrary
	}
	decls, err := parseKernels(out.source)
	if err != nil {
		// A failed link still returns a program whose log explains why.
		out.buildStatus = driver.BuildError
		out.buildLog = fmt.Sprintf("<link>: %v\n", err)
		out.binaryType = driver.BinaryTypeNone
		return r.alloc(out), driver.LinkProgramFailure
	}
	out.decls = decls
	return r.alloc(out), driver.Success
}

func (r *Runtime) UnloadCompiler() driver.Status {
	if st := r.enter("UnloadCompiler", capability.V10); st != driver.Success {
		return st
	}
	return driver.Success
}

func (r *Runtime) UnloadPlatformCompiler(platform driver.Ptr) driver.Status {
	if st := r.enter("UnloadPlatformCompiler", capability.V12); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, st := r.get(driver.KindPlatform, platform)
	return st
}

func (r *Runtime) SetProgramReleaseCallback(program driver.Ptr, fn func()) driver.Status {
	if st := r.enter("SetProgramReleaseCallback", capability.V22); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, st := r.get(driver.KindProgram, program)
	if st != driver.Success {
		return st
	}
	if fn == nil {
		return driver.InvalidValue
	}
	p.releaseCallbacks = append(p.releaseCallbacks, fn)
	return driver.Success
}

func (r *Runtime) SetProgramSpecializationConstant(program driver.Ptr, id uint32, value []byte) driver.Status {
	if st := r.enter("SetProgramSpecializationConstant", capability.V22); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, st := r.get(driver.KindProgram, program)
	if st != driver.Success {
		return st
	}
	if p.il == nil {
		return driver.InvalidProgram
	}
	if len(value) == 0 {
		return driver.InvalidValue
	}
	p.specConstants[id] = append([]byte(nil), value...)
	return driver.Success
}

func (r *Runtime) newKernel(program driver.Ptr, p *object, decl kernelDecl) driver.Ptr {
	p.attachedKernels++
	return r.alloc(&object{
		kind:     driver.KindKernel,
		context:  p.context,
		program:  program,
		decl:     decl,
		args:     map[uint32]driver.KernelArg{},
		svmArgs:  map[uint32]driver.SVMPtr{},
		execInfo: map[uint32][]byte{},
	})
}

func (r *Runtime) executable(program driver.Ptr) (*object, driver.Status) {
	p, st := r.get(driver.KindProgram, program)
	if st != driver.Success {
		return nil, st
	}
	if p.buildStatus != driver.BuildSuccess || p.binaryType != driver.BinaryTypeExecutable {
		return nil, driver.InvalidProgramExecutable
	}
	return p, driver.Success
}

func (r *Runtime) CreateKernel(program driver.Ptr, name string) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateKernel", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, st := r.executable(program)
	if st != driver.Success {
		return 0, st
	}
	for _, decl := range p.decls {
		if decl.name == name {
			return r.newKernel(program, p, decl), driver.Success
		}
	}
	return 0, driver.InvalidKernelName
}

func (r *Runtime) CreateKernelsInProgram(program driver.Ptr) ([]driver.Ptr, driver.Status) {
	if st := r.enter("CreateKernelsInProgram", capability.V10); st != driver.Success {
		return nil, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, st := r.executable(program)
	if st != driver.Success {
		return nil, st
	}
	out := make([]driver.Ptr, 0, len(p.decls))
	for _, decl := range p.decls {
		out = append(out, r.newKernel(program, p, decl))
	}
	return out, driver.Success
}

func (r *Runtime) CloneKernel(kernel driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("CloneKernel", capability.V21); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k, st := r.get(driver.KindKernel, kernel)
	if st != driver.Success {
		return 0, st
	}
	p, ok := r.objects[k.program]
	if !ok {
		return 0, driver.InvalidKernel
	}
	clone := r.newKernel(k.program, p, k.decl)
	c := r.objects[clone]
	for i, a := range k.args {
		c.args[i] = a
	}
	for i, a := range k.svmArgs {
		c.svmArgs[i] = a
	}
	for i, v := range k.execInfo {
		c.execInfo[i] = v
	}
	return clone, driver.Success
}

func (r *Runtime) SetKernelArg(kernel driver.Ptr, index uint32, arg driver.KernelArg) driver.Status {
	if st := r.enter("SetKernelArg", capability.V10); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k, st := r.get(driver.KindKernel, kernel)
	if st != driver.Success {
		return st
	}
	if int(index) >= len(k.decl.args) {
		return driver.InvalidArgIndex
	}
	decl := k.decl.args[index]
	switch {
	case decl.address == driver.KernelArgAddressLocal:
		if !arg.Local || arg.Size <= 0 {
			return driver.InvalidArgSize
		}
	case arg.Local:
		return driver.InvalidArgValue
	case decl.isSampler:
		if _, st := r.get(driver.KindSampler, arg.Object); st != driver.Success {
			return driver.InvalidSampler
		}
	case decl.pointer || strings.HasPrefix(decl.typeName, "image") || decl.typeName == "pipe" || decl.typeName == "queue_t":
		if arg.Object == 0 && arg.Data == nil {
			break
		}
		want := driver.KindMem
		if decl.typeName == "queue_t" {
			want = driver.KindCommandQueue
		}
		o, ok := r.objects[arg.Object]
		if !ok || o.kind != want {
			return want.InvalidStatus()
		}
		if o.context != k.context {
			return driver.InvalidArgValue
		}
	default:
		if arg.Object != 0 {
			return driver.InvalidArgValue
		}
		if size, ok := scalarSizes[decl.typeName]; ok && size != len(arg.Data) {
			return driver.InvalidArgSize
		}
		if len(arg.Data) == 0 {
			return driver.InvalidArgSize
		}
	}
	k.args[index] = arg
	delete(k.svmArgs, index)
	return driver.Success
}

func (r *Runtime) SetKernelArgSVMPointer(kernel driver.Ptr, index uint32, ptr driver.SVMPtr) driver.Status {
	if st := r.enter("SetKernelArgSVMPointer", capability.V20); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k, st := r.get(driver.KindKernel, kernel)
	if st != driver.Success {
		return st
	}
	if int(index) >= len(k.decl.args) {
		return driver.InvalidArgIndex
	}
	if !k.decl.args[index].pointer {
		return driver.InvalidArgValue
	}
	if ptr != 0 {
		if _, _, ok := r.svmLookup(ptr); !ok {
			return driver.InvalidArgValue
		}
	}
	k.svmArgs[index] = ptr
	delete(k.args, index)
	return driver.Success
}

func (r *Runtime) SetKernelExecInfo(kernel driver.Ptr, param uint32, value []byte) driver.Status {
	if st := r.enter("SetKernelExecInfo", capability.V20); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k, st := r.get(driver.KindKernel, kernel)
	if st != driver.Success {
		return st
	}
	switch param {
	case driver.KernelExecInfoSVMPtrs:
		ptrs, err := driver.DecodePtrs(value)
		if err != nil {
			return driver.InvalidValue
		}
		for _, p := range ptrs {
			if _, _, ok := r.svmLookup(driver.SVMPtr(p)); !ok {
				return driver.InvalidValue
			}
		}
	case driver.KernelExecInfoSVMFineGrainSystem:
		enabled, err := driver.DecodeBool(value)
		if err != nil {
			return driver.InvalidValue
		}
		if enabled {
			return driver.InvalidOperation
		}
	default:
		return driver.InvalidValue
	}
	k.execInfo[param] = append([]byte(nil), value...)
	return driver.Success
}

// argsReady reports whether every argument of k has been set.
func (o *object) argsReady() bool {
	for i := range o.decl.args {
		_, set := o.args[uint32(i)]
		_, svm := o.svmArgs[uint32(i)]
		if !set && !svm {
			return false
		}
	}
	return true
}

func (o *object) localMemSize() int {
	n := 0
	for _, a := range o.args {
		if a.Local {
			n += a.Size
		}
	}
	return n
}
