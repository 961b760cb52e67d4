package cl

import (
	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// Every enqueue method returns the event of the enqueued command. The event
// is held by the runtime until released or until Close.

func (r *Runtime) enqueue(op capability.Op, wait []Event, call func(wait []driver.Ptr) (driver.Ptr, driver.Status)) (Event, error) {
	if err := nonNil(r, op, "wait", wait); err != nil {
		return Event{}, err
	}
	var ptr driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ptr, st = call(ptrs(wait))
		return st
	})
	if err != nil {
		return Event{}, err
	}
	r.created(driver.KindEvent, ptr)
	return Event{ptr: ptr}, nil
}

// EnqueueReadBuffer copies len(dst) bytes from buf at offset. When blocking
// is false dst must not be touched until the event completes.
func (r *Runtime) EnqueueReadBuffer(q CommandQueue, buf Mem, blocking bool, offset int, dst []byte, wait ...Event) (Event, error) {
	op := capability.OpEnqueueReadBuffer
	if err := r.enter(op, q, buf); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueReadBuffer(q.ptr, buf.ptr, blocking, offset, dst, w)
	})
}

func (r *Runtime) EnqueueWriteBuffer(q CommandQueue, buf Mem, blocking bool, offset int, src []byte, wait ...Event) (Event, error) {
	op := capability.OpEnqueueWriteBuffer
	if err := r.enter(op, q, buf); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueWriteBuffer(q.ptr, buf.ptr, blocking, offset, src, w)
	})
}

func (r *Runtime) EnqueueCopyBuffer(q CommandQueue, src, dst Mem, srcOffset, dstOffset, size int, wait ...Event) (Event, error) {
	op := capability.OpEnqueueCopyBuffer
	if err := r.enter(op, q, src, dst); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueCopyBuffer(q.ptr, src.ptr, dst.ptr, srcOffset, dstOffset, size, w)
	})
}

func (r *Runtime) EnqueueReadBufferRect(q CommandQueue, buf Mem, blocking bool, rect driver.Rect, dst []byte, wait ...Event) (Event, error) {
	op := capability.OpEnqueueReadBufferRect
	if err := r.enter(op, q, buf); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueReadBufferRect(q.ptr, buf.ptr, blocking, rect, dst, w)
	})
}

func (r *Runtime) EnqueueWriteBufferRect(q CommandQueue, buf Mem, blocking bool, rect driver.Rect, src []byte, wait ...Event) (Event, error) {
	op := capability.OpEnqueueWriteBufferRect
	if err := r.enter(op, q, buf); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueWriteBufferRect(q.ptr, buf.ptr, blocking, rect, src, w)
	})
}

// CopyRect describes a rectangular buffer to buffer copy. Values are bytes.
type CopyRect struct {
	SrcOrigin     [3]int
	DstOrigin     [3]int
	Region        [3]int
	SrcRowPitch   int
	SrcSlicePitch int
	DstRowPitch   int
	DstSlicePitch int
}

func (r *Runtime) EnqueueCopyBufferRect(q CommandQueue, src, dst Mem, rect CopyRect, wait ...Event) (Event, error) {
	op := capability.OpEnqueueCopyBufferRect
	if err := r.enter(op, q, src, dst); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueCopyBufferRect(q.ptr, src.ptr, dst.ptr,
			rect.SrcOrigin, rect.DstOrigin, rect.Region,
			rect.SrcRowPitch, rect.SrcSlicePitch, rect.DstRowPitch, rect.DstSlicePitch, w)
	})
}

// EnqueueFillBuffer repeats pattern over size bytes of buf from offset.
func (r *Runtime) EnqueueFillBuffer(q CommandQueue, buf Mem, pattern []byte, offset, size int, wait ...Event) (Event, error) {
	op := capability.OpEnqueueFillBuffer
	if err := r.enter(op, q, buf); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueFillBuffer(q.ptr, buf.ptr, pattern, offset, size, w)
	})
}

// EnqueueFillImage fills a region of image with color, which holds four
// channel values in the representation the image format calls for.
func (r *Runtime) EnqueueFillImage(q CommandQueue, image Mem, color [16]byte, origin, region [3]int, wait ...Event) (Event, error) {
	op := capability.OpEnqueueFillImage
	if err := r.enter(op, q, image); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueFillImage(q.ptr, image.ptr, color, origin, region, w)
	})
}

func (r *Runtime) EnqueueMigrateMemObjects(q CommandQueue, mems []Mem, flags driver.MigrationFlags, wait ...Event) (Event, error) {
	op := capability.OpEnqueueMigrateMemObjects
	if err := r.enter(op, q); err != nil {
		return Event{}, err
	}
	if err := nonNil(r, op, "mems", mems); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueMigrateMemObjects(q.ptr, ptrs(mems), flags, w)
	})
}

// EnqueueNDRangeKernel launches k over global work items. offset needs
// OpenCL 1.1 and may be nil; local may be nil to let the runtime choose.
func (r *Runtime) EnqueueNDRangeKernel(q CommandQueue, k Kernel, offset, global, local []int, wait ...Event) (Event, error) {
	op := capability.OpEnqueueNDRangeKernel
	if err := r.enter(op, q, k); err != nil {
		return Event{}, err
	}
	if offset != nil && r.version < capability.V11 {
		return Event{}, r.reject(&LocalError{
			Op:     op,
			Kind:   KindUnsupported,
			Param:  "offset",
			Detail: "global work offset requires OpenCL 1.1, runtime negotiated " + r.version.String(),
		})
	}
	if len(global) == 0 {
		return Event{}, r.reject(invalidArg(op, "global", "no global work size"))
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueNDRangeKernel(q.ptr, k.ptr, offset, global, local, w)
	})
}

// EnqueueTask runs k as a single work item.
func (r *Runtime) EnqueueTask(q CommandQueue, k Kernel, wait ...Event) (Event, error) {
	op := capability.OpEnqueueTask
	if err := r.enter(op, q, k); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueTask(q.ptr, k.ptr, w)
	})
}

func (r *Runtime) EnqueueMarker(q CommandQueue) (Event, error) {
	op := capability.OpEnqueueMarker
	if err := r.enter(op, q); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, nil, func([]driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueMarker(q.ptr)
	})
}

// EnqueueWaitForEvents makes later commands on q wait for events. It returns
// no event of its own.
func (r *Runtime) EnqueueWaitForEvents(q CommandQueue, events ...Event) error {
	op := capability.OpEnqueueWaitForEvents
	if err := r.enter(op, q); err != nil {
		return err
	}
	if len(events) == 0 {
		return r.reject(invalidArg(op, "events", "no events"))
	}
	if err := nonNil(r, op, "events", events); err != nil {
		return err
	}
	return r.native(op, func() driver.Status { return r.drv.EnqueueWaitForEvents(q.ptr, ptrs(events)) })
}

func (r *Runtime) EnqueueBarrier(q CommandQueue) error {
	op := capability.OpEnqueueBarrier
	if err := r.enter(op, q); err != nil {
		return err
	}
	return r.native(op, func() driver.Status { return r.drv.EnqueueBarrier(q.ptr) })
}

// EnqueueMarkerWithWaitList returns an event that completes with wait, or
// with every earlier command when wait is empty.
func (r *Runtime) EnqueueMarkerWithWaitList(q CommandQueue, wait ...Event) (Event, error) {
	op := capability.OpEnqueueMarkerWithWaitList
	if err := r.enter(op, q); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueMarkerWithWaitList(q.ptr, w)
	})
}

// EnqueueBarrierWithWaitList is EnqueueMarkerWithWaitList that also holds
// back every later command on q.
func (r *Runtime) EnqueueBarrierWithWaitList(q CommandQueue, wait ...Event) (Event, error) {
	op := capability.OpEnqueueBarrierWithWaitList
	if err := r.enter(op, q); err != nil {
		return Event{}, err
	}
	return r.enqueue(op, wait, func(w []driver.Ptr) (driver.Ptr, driver.Status) {
		return r.drv.EnqueueBarrierWithWaitList(q.ptr, w)
	})
}
