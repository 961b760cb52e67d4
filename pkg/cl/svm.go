package cl

import (
	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// SVMAlloc allocates shared virtual memory in c. alignment zero picks the
// runtime's default. clSVMAlloc reports failure only as a NULL pointer, so a
// failed allocation surfaces as CL_INVALID_VALUE.
func (r *Runtime) SVMAlloc(c Context, flags driver.MemFlags, size int, alignment uint32) (driver.SVMPtr, error) {
	op := capability.OpSVMAlloc
	if err := r.enter(op, c); err != nil {
		return 0, err
	}
	var ptr driver.SVMPtr
	err := r.native(op, func() driver.Status {
		ptr = r.drv.SVMAlloc(c.ptr, flags, size, alignment)
		if ptr == 0 {
			return driver.InvalidValue
		}
		return driver.Success
	})
	if err != nil {
		err.(*Error).Detail = "allocation returned NULL"
		return 0, err
	}
	return ptr, nil
}

// SVMFree frees ptr immediately. Use EnqueueSVMFree when commands may still
// be using it.
func (r *Runtime) SVMFree(c Context, ptr driver.SVMPtr) error {
	op := capability.OpSVMFree
	if err := r.enter(op, c); err != nil {
		return err
	}
	if ptr == 0 {
		return r.reject(invalidArg(op, "ptr", "nil SVM pointer"))
	}
	return r.native(op, func() driver.Status {
		r.drv.SVMFree(c.ptr, ptr)
		return driver.Success
	})
}

func (r *Runtime) EnqueueSVMFree(q CommandQueue, ptrs []driver.SVMPtr, wait ...Event) (Event, error) {
	op := capability.OpEnqueueSVMFree
	if err := r.enter(op, q); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueSVMFree(q.ptr, ptrs, w)
	})
}

func (r *Runtime) EnqueueSVMMemcpy(q CommandQueue, blocking bool, dst, src driver.SVMPtr, size int, wait ...Event) (Event, error) {
	op := capability.OpEnqueueSVMMemcpy
	if err := r.enter(op, q); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueSVMMemcpy(q.ptr, blocking, dst, src, size, w)
	})
}

func (r *Runtime) EnqueueSVMMemFill(q CommandQueue, ptr driver.SVMPtr, pattern []byte, size int, wait ...Event) (Event, error) {
	op := capability.OpEnqueueSVMMemFill
	if err := r.enter(op, q); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueSVMMemFill(q.ptr, ptr, pattern, size, w)
	})
}

func (r *Runtime) EnqueueSVMMap(q CommandQueue, blocking bool, flags driver.MapFlags, ptr driver.SVMPtr, size int, wait ...Event) (Event, error) {
	op := capability.OpEnqueueSVMMap
	if err := r.enter(op, q); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueSVMMap(q.ptr, blocking, flags, ptr, size, w)
	})
}

func (r *Runtime) EnqueueSVMUnmap(q CommandQueue, ptr driver.SVMPtr, wait ...Event) (Event, error) {
	op := capability.OpEnqueueSVMUnmap
	if err := r.enter(op, q); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueSVMUnmap(q.ptr, ptr, w)
	})
}

// EnqueueSVMMigrateMem migrates ranges of SVM. A nil sizes migrates whole
// allocations.
func (r *Runtime) EnqueueSVMMigrateMem(q CommandQueue, ptrs []driver.SVMPtr, sizes []int, flags driver.MigrationFlags, wait ...Event) (Event, error) {
	op := capability.OpEnqueueSVMMigrateMem
	if err := r.enter(op, q); err != nil {
		return Event{}, err
	}
	if sizes != nil && len(sizes) != len(ptrs) {
		return Event{}, r.reject(invalidArg(op, "sizes", "%d sizes for %d pointers", len(sizes), len(ptrs)))
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueSVMMigrateMem(q.ptr, ptrs, sizes, flags, w)
	})
}
