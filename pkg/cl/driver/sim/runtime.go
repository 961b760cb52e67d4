// Package sim is an in-process OpenCL runtime written in Go. It keeps real
// reference counts, validates object kinds the way an ICD does, stores
// buffer contents in host memory and resolves event dependencies, but it
// never executes kernel code.
//
// It exists so the facade can be exercised without a GPU or an installed
// ICD loader, and so tests can count native calls.
package sim

import (
	"sort"
	"sync"
	"time"

	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

const (
	DefaultVersion = "OpenCL 2.2 clfacade simulator"

	computeUnits     = 8
	maxWorkGroupSize = 256
	globalMemSize    = 1 << 30
	baseAddrAlign    = 16
	subGroupSize     = 32
)

type Option func(*Runtime)

// WithVersion sets the CL_PLATFORM_VERSION string. Entry points introduced
// after the version it floors to return CL_INVALID_OPERATION.
func WithVersion(v string) Option {
	return func(r *Runtime) { r.version = v }
}

// WithDevices sets how many root devices the platform exposes. Even-indexed
// devices are GPUs, odd-indexed ones CPUs.
func WithDevices(n int) Option {
	return func(r *Runtime) { r.numDevices = n }
}

// WithDeviceVersion sets CL_DEVICE_VERSION independently of the platform.
func WithDeviceVersion(v string) Option {
	return func(r *Runtime) { r.deviceVersion = v }
}

// Runtime implements driver.Driver.
type Runtime struct {
	version       string
	deviceVersion string
	tier          capability.Version
	numDevices    int
	start         time.Time

	callsMu sync.Mutex
	calls   map[string]int

	mu       sync.Mutex
	cond     *sync.Cond
	objects  map[driver.Ptr]*object
	next     driver.Ptr
	platform driver.Ptr
	devices  []driver.Ptr
	svm      map[driver.SVMPtr]*svmBlock
	nextSVM  driver.SVMPtr
	waiting  []*command

	// Callbacks queue up under cbMu and run on the delivery goroutine, never
	// while mu is held.
	cbMu    sync.Mutex
	cbQueue []func()
	wake    chan struct{}

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ driver.Driver = (*Runtime)(nil)

func New(opts ...Option) *Runtime {
	r := &Runtime{
		version:    DefaultVersion,
		numDevices: 1,
		start:      time.Now(),
		calls:      make(map[string]int),
		objects:    make(map[driver.Ptr]*object),
		next:       0x1000,
		svm:        make(map[driver.SVMPtr]*svmBlock),
		nextSVM:    0x7f0000000000,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.deviceVersion == "" {
		r.deviceVersion = r.version
	}
	if r.numDevices < 1 {
		r.numDevices = 1
	}
	// An unparseable version disables gating so the caller's own
	// negotiation is what fails.
	r.tier = capability.MaxVersion
	if v, err := capability.Negotiate(r.version); err == nil {
		r.tier = v
	}
	r.cond = sync.NewCond(&r.mu)

	r.platform = r.alloc(&object{kind: driver.KindPlatform, root: true})
	for i := 0; i < r.numDevices; i++ {
		typ := driver.DeviceTypeGPU
		if i%2 == 1 {
			typ = driver.DeviceTypeCPU
		}
		if i == 0 {
			typ |= driver.DeviceTypeDefault
		}
		r.devices = append(r.devices, r.alloc(&object{
			kind:       driver.KindDevice,
			root:       true,
			deviceType: typ,
			units:      computeUnits,
			index:      i,
		}))
	}

	r.wg.Add(1)
	go r.deliverLoop()
	return r
}

func (r *Runtime) deliverLoop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.wake:
		case <-r.done:
			return
		}
		r.cbMu.Lock()
		fns := r.cbQueue
		r.cbQueue = nil
		r.cbMu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
}

// notify schedules fn on the delivery goroutine.
func (r *Runtime) notify(fn func()) {
	r.cbMu.Lock()
	r.cbQueue = append(r.cbQueue, fn)
	r.cbMu.Unlock()
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Close stops the callback goroutine. Callbacks not yet delivered are
// dropped.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.mu.Lock()
		r.cond.Broadcast()
		r.mu.Unlock()
	})
	r.wg.Wait()
	return nil
}

func (r *Runtime) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// enter counts a call to entry point name and refuses entry points newer
// than the runtime's version.
func (r *Runtime) enter(name string, since capability.Version) driver.Status {
	r.callsMu.Lock()
	r.calls[name]++
	r.callsMu.Unlock()
	if since > r.tier {
		return driver.InvalidOperation
	}
	return driver.Success
}

// Calls returns a copy of the per entry point call counters.
func (r *Runtime) Calls() map[string]int {
	r.callsMu.Lock()
	defer r.callsMu.Unlock()
	out := make(map[string]int, len(r.calls))
	for k, v := range r.calls {
		out[k] = v
	}
	return out
}

// CallCount returns the total number of entry point calls.
func (r *Runtime) CallCount() int {
	r.callsMu.Lock()
	defer r.callsMu.Unlock()
	n := 0
	for _, v := range r.calls {
		n += v
	}
	return n
}

// ResetCalls zeroes the call counters.
func (r *Runtime) ResetCalls() {
	r.callsMu.Lock()
	defer r.callsMu.Unlock()
	r.calls = make(map[string]int)
}

// Live returns the number of live reference counted objects of kind k,
// excluding root devices and the runtime's internal events.
func (r *Runtime) Live(k driver.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.objects {
		if o.kind == k && !o.root && !o.internal {
			n++
		}
	}
	return n
}

// RefCount returns the native reference count of ptr.
func (r *Runtime) RefCount(ptr driver.Ptr) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.objects[ptr]
	if !ok {
		return 0, false
	}
	return o.refs, true
}

func (r *Runtime) alloc(o *object) driver.Ptr {
	r.next += 0x10
	if o.refs == 0 {
		o.refs = 1
	}
	r.objects[r.next] = o
	return r.next
}

func (r *Runtime) get(kind driver.Kind, ptr driver.Ptr) (*object, driver.Status) {
	o, ok := r.objects[ptr]
	if !ok || o.kind != kind || o.refs <= 0 {
		return nil, kind.InvalidStatus()
	}
	return o, driver.Success
}

func (r *Runtime) getAll(kind driver.Kind, ptrs []driver.Ptr) driver.Status {
	for _, p := range ptrs {
		if _, st := r.get(kind, p); st != driver.Success {
			return st
		}
	}
	return driver.Success
}

func (r *Runtime) PlatformIDs() ([]driver.Ptr, driver.Status) {
	if st := r.enter("PlatformIDs", capability.V10); st != driver.Success {
		return nil, st
	}
	return []driver.Ptr{r.platform}, driver.Success
}

func (r *Runtime) DeviceIDs(platform driver.Ptr, typ driver.DeviceType) ([]driver.Ptr, driver.Status) {
	if st := r.enter("DeviceIDs", capability.V10); st != driver.Success {
		return nil, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, st := r.get(driver.KindPlatform, platform); st != driver.Success {
		return nil, st
	}
	if typ == 0 || (typ != driver.DeviceTypeAll && typ&^(driver.DeviceTypeDefault|driver.DeviceTypeCPU|driver.DeviceTypeGPU|driver.DeviceTypeAccelerator|driver.DeviceTypeCustom) != 0) {
		return nil, driver.InvalidDeviceType
	}
	var out []driver.Ptr
	for _, d := range r.devices {
		if typ == driver.DeviceTypeAll || r.objects[d].deviceType&typ != 0 {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, driver.DeviceNotFound
	}
	return out, driver.Success
}

func (r *Runtime) Retain(kind driver.Kind, obj driver.Ptr) driver.Status {
	since := capability.V10
	if kind == driver.KindDevice {
		since = capability.V12
	}
	if st := r.enter("Retain", since); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if kind == driver.KindPlatform {
		return driver.InvalidValue
	}
	o, st := r.get(kind, obj)
	if st != driver.Success {
		return st
	}
	if !o.root {
		o.refs++
	}
	return driver.Success
}

func (r *Runtime) Release(kind driver.Kind, obj driver.Ptr) driver.Status {
	since := capability.V10
	if kind == driver.KindDevice {
		since = capability.V12
	}
	if st := r.enter("Release", since); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if kind == driver.KindPlatform {
		return driver.InvalidValue
	}
	o, st := r.get(kind, obj)
	if st != driver.Success {
		return st
	}
	if o.root {
		return driver.Success
	}
	o.refs--
	if o.refs == 0 {
		r.destroy(obj, o)
	}
	return driver.Success
}

func (r *Runtime) destroy(ptr driver.Ptr, o *object) {
	switch o.kind {
	case driver.KindEvent:
		// A pending event stays alive until it completes, invisible to
		// callers.
		if !o.done() {
			o.internal = true
			return
		}
	case driver.KindMem:
		// Destructor callbacks run in reverse registration order.
		for i := len(o.destructors) - 1; i >= 0; i-- {
			r.notify(o.destructors[i])
		}
	case driver.KindProgram:
		for i := len(o.releaseCallbacks) - 1; i >= 0; i-- {
			r.notify(o.releaseCallbacks[i])
		}
	case driver.KindKernel:
		if p, ok := r.objects[o.program]; ok {
			p.attachedKernels--
		}
	}
	delete(r.objects, ptr)
}

func (r *Runtime) sortedObjects(kind driver.Kind, match func(*object) bool) []driver.Ptr {
	var out []driver.Ptr
	for p, o := range r.objects {
		if o.kind == kind && match(o) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Runtime) HostTimer(device driver.Ptr) (uint64, driver.Status) {
	if st := r.enter("HostTimer", capability.V21); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, st := r.get(driver.KindDevice, device); st != driver.Success {
		return 0, st
	}
	return uint64(time.Now().UnixNano()), driver.Success
}

func (r *Runtime) DeviceAndHostTimer(device driver.Ptr) (uint64, uint64, driver.Status) {
	if st := r.enter("DeviceAndHostTimer", capability.V21); st != driver.Success {
		return 0, 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, st := r.get(driver.KindDevice, device); st != driver.Success {
		return 0, 0, st
	}
	now := time.Now()
	return uint64(now.Sub(r.start).Nanoseconds()), uint64(now.UnixNano()), driver.Success
}

func (r *Runtime) now() uint64 {
	return uint64(time.Since(r.start).Nanoseconds())
}
