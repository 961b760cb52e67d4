package sim

import (
	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

const svmAlign = 128

type svmBlock struct {
	context driver.Ptr
	flags   driver.MemFlags
	data    []byte
	mapped  bool
}

// svmLookup finds the allocation containing ptr.
func (r *Runtime) svmLookup(ptr driver.SVMPtr) (*svmBlock, int, bool) {
	for base, b := range r.svm {
		if ptr >= base && ptr < base+driver.SVMPtr(len(b.data)) {
			return b, int(ptr - base), true
		}
	}
	return nil, 0, false
}

// svmRange resolves [ptr, ptr+size) to host bytes within one allocation.
func (r *Runtime) svmRange(context driver.Ptr, ptr driver.SVMPtr, size int) ([]byte, *svmBlock, bool) {
	b, off, ok := r.svmLookup(ptr)
	if !ok || b.context != context || size < 0 || off+size > len(b.data) {
		return nil, nil, false
	}
	return b.data[off : off+size], b, true
}

func (r *Runtime) SVMAlloc(context driver.Ptr, flags driver.MemFlags, size int, alignment uint32) driver.SVMPtr {
	if st := r.enter("SVMAlloc", capability.V20); st != driver.Success {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, st := r.get(driver.KindContext, context); st != driver.Success {
		return 0
	}
	if size <= 0 || size > globalMemSize {
		return 0
	}
	if alignment > svmAlign || alignment&(alignment-1) != 0 {
		return 0
	}
	if flags&driver.MemSVMAtomics != 0 && flags&driver.MemSVMFineGrainBuffer == 0 {
		return 0
	}
	access := flags & accessFlags
	if access&(access-1) != 0 {
		return 0
	}
	ptr := r.nextSVM
	r.svm[ptr] = &svmBlock{context: context, flags: flags, data: make([]byte, size)}
	r.nextSVM += driver.SVMPtr((size + svmAlign - 1) / svmAlign * svmAlign)
	return ptr
}

func (r *Runtime) SVMFree(context driver.Ptr, ptr driver.SVMPtr) {
	if st := r.enter("SVMFree", capability.V20); st != driver.Success {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.svm[ptr]; ok && b.context == context {
		delete(r.svm, ptr)
	}
}

// SVMBytes returns a copy of size bytes of shared virtual memory at ptr, or
// nil if the range is not allocated. Host code in C would dereference the
// pointer directly.
func (r *Runtime) SVMBytes(ptr driver.SVMPtr, size int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, off, ok := r.svmLookup(ptr)
	if !ok || off+size > len(b.data) {
		return nil
	}
	return append([]byte(nil), b.data[off:off+size]...)
}

func (r *Runtime) EnqueueSVMFree(queue driver.Ptr, ptrs []driver.SVMPtr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueSVMFree", capability.V20); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	if len(ptrs) == 0 {
		return 0, driver.InvalidValue
	}
	for _, p := range ptrs {
		if b, ok := r.svm[p]; !ok || b.context != q.context {
			return 0, driver.InvalidValue
		}
	}
	ptrs = append([]driver.SVMPtr(nil), ptrs...)
	return r.submit(queue, q, submission{typ: driver.CommandSVMFree, wait: wait, run: func() driver.Status {
		for _, p := range ptrs {
			delete(r.svm, p)
		}
		return driver.Success
	}})
}

func (r *Runtime) EnqueueSVMMemcpy(queue driver.Ptr, blocking bool, dst, src driver.SVMPtr, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueSVMMemcpy", capability.V20); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	if dst == 0 || src == 0 {
		return 0, driver.InvalidValue
	}
	d, _, ok := r.svmRange(q.context, dst, size)
	if !ok {
		return 0, driver.InvalidValue
	}
	s, _, ok := r.svmRange(q.context, src, size)
	if !ok {
		return 0, driver.InvalidValue
	}
	if overlaps(int(dst), int(src), size) {
		return 0, driver.MemCopyOverlap
	}
	ev, st := r.submit(queue, q, submission{typ: driver.CommandSVMMemcpy, wait: wait, run: func() driver.Status {
		copy(d, s)
		return driver.Success
	}})
	if st != driver.Success {
		return 0, st
	}
	return r.finish(ev, blocking)
}

func (r *Runtime) EnqueueSVMMemFill(queue driver.Ptr, ptr driver.SVMPtr, pattern []byte, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueSVMMemFill", capability.V20); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	n := len(pattern)
	if ptr == 0 || !validPattern(n) || size <= 0 || size%n != 0 || int(ptr)%n != 0 {
		return 0, driver.InvalidValue
	}
	dst, _, ok := r.svmRange(q.context, ptr, size)
	if !ok {
		return 0, driver.InvalidValue
	}
	pat := append([]byte(nil), pattern...)
	return r.submit(queue, q, submission{typ: driver.CommandSVMMemfill, wait: wait, run: func() driver.Status {
		fill(dst, pat)
		return driver.Success
	}})
}

func (r *Runtime) EnqueueSVMMap(queue driver.Ptr, blocking bool, flags driver.MapFlags, ptr driver.SVMPtr, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueSVMMap", capability.V20); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	if ptr == 0 || size <= 0 || flags == 0 || flags&^(driver.MapRead|driver.MapWrite|driver.MapWriteInvalidateRegion) != 0 {
		return 0, driver.InvalidValue
	}
	if flags&driver.MapWriteInvalidateRegion != 0 && flags&(driver.MapRead|driver.MapWrite) != 0 {
		return 0, driver.InvalidValue
	}
	_, b, ok := r.svmRange(q.context, ptr, size)
	if !ok {
		return 0, driver.InvalidValue
	}
	ev, st := r.submit(queue, q, submission{typ: driver.CommandSVMMap, wait: wait, run: func() driver.Status {
		b.mapped = true
		return driver.Success
	}})
	if st != driver.Success {
		return 0, st
	}
	return r.finish(ev, blocking)
}

func (r *Runtime) EnqueueSVMUnmap(queue driver.Ptr, ptr driver.SVMPtr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueSVMUnmap", capability.V20); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	b, _, ok := r.svmLookup(ptr)
	if ptr == 0 || !ok || b.context != q.context {
		return 0, driver.InvalidValue
	}
	return r.submit(queue, q, submission{typ: driver.CommandSVMUnmap, wait: wait, run: func() driver.Status {
		b.mapped = false
		return driver.Success
	}})
}

func (r *Runtime) EnqueueSVMMigrateMem(queue driver.Ptr, ptrs []driver.SVMPtr, sizes []int, flags driver.MigrationFlags, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueSVMMigrateMem", capability.V21); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	if len(ptrs) == 0 || (sizes != nil && len(sizes) != len(ptrs)) {
		return 0, driver.InvalidValue
	}
	if flags&^(driver.MigrateMemObjectHost|driver.MigrateMemObjectContentUndefined) != 0 {
		return 0, driver.InvalidValue
	}
	for i, p := range ptrs {
		size := 0
		if sizes != nil {
			size = sizes[i]
		}
		if p == 0 {
			return 0, driver.InvalidValue
		}
		if _, _, ok := r.svmRange(q.context, p, size); !ok {
			return 0, driver.InvalidValue
		}
	}
	return r.submit(queue, q, submission{typ: driver.CommandSVMMigrateMem, wait: wait})
}
