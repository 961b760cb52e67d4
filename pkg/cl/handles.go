package cl

import (
	"fmt"
	"reflect"

	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// Handle is implemented by every handle type below. Each kind is its own
// nominal type wrapping the same pointer representation, so a Context can
// never be passed where a Program is expected.
type Handle = capability.Handle

type Platform struct{ ptr driver.Ptr }

func (h Platform) Kind() driver.Kind { return driver.KindPlatform }
func (h Platform) Ptr() driver.Ptr   { return h.ptr }
func (h Platform) IsNil() bool       { return h.ptr == 0 }
func (h Platform) String() string    { return handleString(h) }

// Device is a root device reported by the platform or a sub-device created
// by CreateSubDevices.
type Device struct{ ptr driver.Ptr }

func (h Device) Kind() driver.Kind { return driver.KindDevice }
func (h Device) Ptr() driver.Ptr   { return h.ptr }
func (h Device) IsNil() bool       { return h.ptr == 0 }
func (h Device) String() string    { return handleString(h) }

type Context struct{ ptr driver.Ptr }

func (h Context) Kind() driver.Kind { return driver.KindContext }
func (h Context) Ptr() driver.Ptr   { return h.ptr }
func (h Context) IsNil() bool       { return h.ptr == 0 }
func (h Context) String() string    { return handleString(h) }

type CommandQueue struct{ ptr driver.Ptr }

func (h CommandQueue) Kind() driver.Kind { return driver.KindCommandQueue }
func (h CommandQueue) Ptr() driver.Ptr   { return h.ptr }
func (h CommandQueue) IsNil() bool       { return h.ptr == 0 }
func (h CommandQueue) String() string    { return handleString(h) }

// Mem is a buffer, sub-buffer, image or pipe.
type Mem struct{ ptr driver.Ptr }

func (h Mem) Kind() driver.Kind { return driver.KindMem }
func (h Mem) Ptr() driver.Ptr   { return h.ptr }
func (h Mem) IsNil() bool       { return h.ptr == 0 }
func (h Mem) String() string    { return handleString(h) }

type Sampler struct{ ptr driver.Ptr }

func (h Sampler) Kind() driver.Kind { return driver.KindSampler }
func (h Sampler) Ptr() driver.Ptr   { return h.ptr }
func (h Sampler) IsNil() bool       { return h.ptr == 0 }
func (h Sampler) String() string    { return handleString(h) }

type Program struct{ ptr driver.Ptr }

func (h Program) Kind() driver.Kind { return driver.KindProgram }
func (h Program) Ptr() driver.Ptr   { return h.ptr }
func (h Program) IsNil() bool       { return h.ptr == 0 }
func (h Program) String() string    { return handleString(h) }

type Kernel struct{ ptr driver.Ptr }

func (h Kernel) Kind() driver.Kind { return driver.KindKernel }
func (h Kernel) Ptr() driver.Ptr   { return h.ptr }
func (h Kernel) IsNil() bool       { return h.ptr == 0 }
func (h Kernel) String() string    { return handleString(h) }

type Event struct{ ptr driver.Ptr }

func (h Event) Kind() driver.Kind { return driver.KindEvent }
func (h Event) Ptr() driver.Ptr   { return h.ptr }
func (h Event) IsNil() bool       { return h.ptr == 0 }
func (h Event) String() string    { return handleString(h) }

func handleString(h Handle) string {
	return fmt.Sprintf("%s(%#x)", h.Kind(), uintptr(h.Ptr()))
}

// handleType is satisfied by the handle structs above.
type handleType interface {
	Handle
	~struct{ ptr driver.Ptr }
}

func wrapAll[H handleType](ps []driver.Ptr) []H {
	if ps == nil {
		return nil
	}
	out := make([]H, len(ps))
	for i, p := range ps {
		out[i] = H{ptr: p}
	}
	return out
}

func ptrs[H Handle](hs []H) []driver.Ptr {
	if len(hs) == 0 {
		return nil
	}
	out := make([]driver.Ptr, len(hs))
	for i, h := range hs {
		out[i] = h.Ptr()
	}
	return out
}

// handleSlice converts a validated slice argument, whatever its element
// type, into handles of type H.
func handleSlice[H handleType](v any) []H {
	if v == nil {
		return nil
	}
	if hs, ok := v.([]H); ok {
		return hs
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.IsNil() {
		return nil
	}
	out := make([]H, rv.Len())
	for i := range out {
		if h, ok := rv.Index(i).Interface().(Handle); ok {
			out[i] = H{ptr: h.Ptr()}
		}
	}
	return out
}
