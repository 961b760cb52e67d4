//go:build opencl

package opencl

/*
#include <CL/cl.h>
#include <stdint.h>
#include <stdlib.h>
*/
import "C"
import (
	"runtime/cgo"
	"unsafe"

	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// The native runtime hands user_data back as a pointer to C memory holding a
// cgo.Handle. Each registration fires once, so the handle is freed on use.

func newUserData(v any) unsafe.Pointer {
	p := C.malloc(C.size_t(unsafe.Sizeof(C.uintptr_t(0))))
	*(*C.uintptr_t)(p) = C.uintptr_t(cgo.NewHandle(v))
	return p
}

func takeUserData(p unsafe.Pointer) any {
	h := cgo.Handle(*(*C.uintptr_t)(p))
	C.free(p)
	v := h.Value()
	h.Delete()
	return v
}

// dropUserData frees user data whose registration failed.
func dropUserData(p unsafe.Pointer) {
	takeUserData(p)
}

//export goEventCallback
func goEventCallback(ev C.cl_event, status C.cl_int, user unsafe.Pointer) {
	fn := takeUserData(user).(driver.EventCallback)
	fn(driver.Ptr(uintptr(unsafe.Pointer(ev))), driver.ExecStatus(status))
}

//export goMemDestructor
func goMemDestructor(_ C.cl_mem, user unsafe.Pointer) {
	takeUserData(user).(func())()
}

//export goProgramRelease
func goProgramRelease(_ C.cl_program, user unsafe.Pointer) {
	takeUserData(user).(func())()
}
