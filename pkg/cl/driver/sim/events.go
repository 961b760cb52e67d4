package sim

import (
	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// command is an enqueued operation parked until its dependencies finish.
type command struct {
	event driver.Ptr
	deps  []driver.Ptr
	run   func() driver.Status
}

// submission describes one command handed to submit.
type submission struct {
	typ  driver.CommandType
	wait []driver.Ptr
	run  func() driver.Status
	// all makes the command depend on every unfinished command of the queue.
	all bool
	// barrier makes every later command of the queue depend on this one.
	barrier bool
	// internal commands produce an event the caller never sees.
	internal bool
}

func (r *Runtime) queueFor(queue driver.Ptr) (*object, driver.Status) {
	q, st := r.get(driver.KindCommandQueue, queue)
	if st != driver.Success {
		return nil, st
	}
	if q.queueProps&driver.QueueOnDevice != 0 {
		return nil, driver.InvalidCommandQueue
	}
	return q, driver.Success
}

func (r *Runtime) checkWaitList(context driver.Ptr, wait []driver.Ptr) driver.Status {
	for _, e := range wait {
		ev, st := r.get(driver.KindEvent, e)
		if st != driver.Success {
			return driver.InvalidEventWaitList
		}
		if ev.context != context {
			return driver.InvalidContext
		}
	}
	return driver.Success
}

func (r *Runtime) unfinished(queue driver.Ptr) []driver.Ptr {
	return r.sortedObjects(driver.KindEvent, func(o *object) bool {
		return o.queue == queue && !o.done()
	})
}

// submit creates the event for s, links it behind its dependencies and runs
// whatever became runnable.
func (r *Runtime) submit(queue driver.Ptr, q *object, s submission) (driver.Ptr, driver.Status) {
	if st := r.checkWaitList(q.context, s.wait); st != driver.Success {
		return 0, st
	}
	deps := append([]driver.Ptr(nil), s.wait...)
	if s.all {
		deps = append(deps, r.unfinished(queue)...)
	}
	if q.queueProps&driver.QueueOutOfOrderExecModeEnable == 0 && q.last != 0 {
		deps = append(deps, q.last)
	}
	if q.barrier != 0 {
		deps = append(deps, q.barrier)
	}

	ev := &object{
		kind:     driver.KindEvent,
		context:  q.context,
		queue:    queue,
		command:  s.typ,
		status:   driver.Queued,
		internal: s.internal,
	}
	if q.queueProps&driver.QueueProfilingEnable != 0 {
		ev.profiled = true
		ev.profile[0] = r.now()
	}
	ptr := r.alloc(ev)
	if s.internal {
		ev.refs = 0
	}
	q.last = ptr
	if s.barrier {
		q.barrier = ptr
	}
	run := s.run
	if run == nil {
		run = func() driver.Status { return driver.Success }
	}
	r.waiting = append(r.waiting, &command{event: ptr, deps: deps, run: run})
	r.resolve()
	return ptr, driver.Success
}

// resolve runs parked commands until none is runnable.
func (r *Runtime) resolve() {
	for progress := true; progress; {
		progress = false
		for i := 0; i < len(r.waiting); i++ {
			c := r.waiting[i]
			if !r.ready(c) {
				continue
			}
			r.waiting = append(r.waiting[:i], r.waiting[i+1:]...)
			r.execute(c)
			progress = true
			i--
		}
	}
}

func (r *Runtime) ready(c *command) bool {
	for _, d := range c.deps {
		if o, ok := r.objects[d]; ok && !o.done() {
			return false
		}
	}
	return true
}

func (r *Runtime) execute(c *command) {
	ev := r.objects[c.event]
	for _, d := range c.deps {
		if o, ok := r.objects[d]; ok && o.status < 0 {
			r.setStatus(c.event, ev, driver.ExecStatus(driver.ExecStatusErrorForEventsInWaitList))
			return
		}
	}
	profiling := ev.profiled
	if profiling {
		ev.profile[1] = r.now()
	}
	r.setStatus(c.event, ev, driver.Submitted)
	if profiling {
		ev.profile[2] = r.now()
	}
	r.setStatus(c.event, ev, driver.Running)
	st := c.run()
	if profiling {
		ev.profile[3] = r.now()
		ev.profile[4] = ev.profile[3]
	}
	if st != driver.Success {
		r.setStatus(c.event, ev, driver.ExecStatus(st))
		return
	}
	r.setStatus(c.event, ev, driver.Complete)
}

// setStatus moves an event to st and schedules the callbacks whose trigger
// it reached.
func (r *Runtime) setStatus(ptr driver.Ptr, o *object, st driver.ExecStatus) {
	o.status = st
	for i := range o.callbacks {
		cb := &o.callbacks[i]
		if cb.fired || st > cb.trigger {
			continue
		}
		cb.fired = true
		fn := cb.fn
		r.notify(func() { fn(ptr, st) })
	}
	if o.done() {
		if o.refs <= 0 {
			delete(r.objects, ptr)
		}
		r.cond.Broadcast()
	}
}

// await blocks until the event finishes. mu must be held.
func (r *Runtime) await(o *object) driver.Status {
	for !o.done() {
		if r.closed() {
			return driver.OutOfResources
		}
		r.cond.Wait()
	}
	if o.status < 0 {
		return driver.ExecStatusErrorForEventsInWaitList
	}
	return driver.Success
}

// finish completes a blocking enqueue. A failed blocking command does not
// hand its event back.
func (r *Runtime) finish(ptr driver.Ptr, blocking bool) (driver.Ptr, driver.Status) {
	if !blocking {
		return ptr, driver.Success
	}
	o := r.objects[ptr]
	if st := r.await(o); st != driver.Success {
		o.refs--
		if o.refs == 0 {
			r.destroy(ptr, o)
		}
		return 0, st
	}
	return ptr, driver.Success
}

func (r *Runtime) CreateUserEvent(context driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("CreateUserEvent", capability.V11); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, st := r.get(driver.KindContext, context); st != driver.Success {
		return 0, st
	}
	return r.alloc(&object{
		kind:    driver.KindEvent,
		context: context,
		command: driver.CommandUser,
		status:  driver.Submitted,
		user:    true,
	}), driver.Success
}

func (r *Runtime) SetUserEventStatus(event driver.Ptr, status driver.ExecStatus) driver.Status {
	if st := r.enter("SetUserEventStatus", capability.V11); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, st := r.get(driver.KindEvent, event)
	if st != driver.Success {
		return st
	}
	if !ev.user {
		return driver.InvalidEvent
	}
	if status > driver.Complete {
		return driver.InvalidValue
	}
	if ev.done() {
		return driver.InvalidOperation
	}
	r.setStatus(event, ev, status)
	r.resolve()
	return driver.Success
}

func (r *Runtime) SetEventCallback(event driver.Ptr, trigger driver.ExecStatus, fn driver.EventCallback) driver.Status {
	if st := r.enter("SetEventCallback", capability.V11); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ev, st := r.get(driver.KindEvent, event)
	if st != driver.Success {
		return st
	}
	if fn == nil || (trigger != driver.Complete && trigger != driver.Running && trigger != driver.Submitted) {
		return driver.InvalidValue
	}
	cb := eventCallback{trigger: trigger, fn: fn}
	if ev.status <= trigger {
		cb.fired = true
		status := ev.status
		r.notify(func() { fn(event, status) })
	}
	ev.callbacks = append(ev.callbacks, cb)
	return driver.Success
}

func (r *Runtime) WaitForEvents(events []driver.Ptr) driver.Status {
	if st := r.enter("WaitForEvents", capability.V10); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(events) == 0 {
		return driver.InvalidValue
	}
	var context driver.Ptr
	objs := make([]*object, 0, len(events))
	for _, e := range events {
		ev, st := r.get(driver.KindEvent, e)
		if st != driver.Success {
			return st
		}
		if context != 0 && ev.context != context {
			return driver.InvalidContext
		}
		context = ev.context
		objs = append(objs, ev)
	}
	result := driver.Success
	for _, ev := range objs {
		if st := r.await(ev); st != driver.Success {
			result = st
		}
	}
	return result
}

// memFor resolves a memory object used by a command on q.
func (r *Runtime) memFor(q *object, mem driver.Ptr) (*object, driver.Status) {
	m, st := r.get(driver.KindMem, mem)
	if st != driver.Success {
		return nil, st
	}
	if m.context != q.context {
		return nil, driver.InvalidContext
	}
	return m, driver.Success
}

func (r *Runtime) bufferFor(q *object, mem driver.Ptr) (*object, driver.Status) {
	m, st := r.memFor(q, mem)
	if st != driver.Success {
		return nil, st
	}
	if m.memType != driver.MemObjectBuffer {
		return nil, driver.InvalidMemObject
	}
	return m, driver.Success
}

// root returns the buffer that owns m's storage and m's offset into it.
func (r *Runtime) root(ptr driver.Ptr, m *object) (driver.Ptr, int) {
	if m.parent != 0 {
		return m.parent, m.offset
	}
	return ptr, 0
}

func overlaps(a, b, size int) bool {
	return a < b+size && b < a+size
}

func (r *Runtime) EnqueueReadBuffer(queue, buffer driver.Ptr, blocking bool, offset int, dst []byte, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueReadBuffer", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	m, st := r.bufferFor(q, buffer)
	if st != driver.Success {
		return 0, st
	}
	if len(dst) == 0 || offset < 0 || offset+len(dst) > len(m.data) {
		return 0, driver.InvalidValue
	}
	if m.flags&(driver.MemHostWriteOnly|driver.MemHostNoAccess) != 0 {
		return 0, driver.InvalidOperation
	}
	ev, st := r.submit(queue, q, submission{typ: driver.CommandReadBuffer, wait: wait, run: func() driver.Status {
		copy(dst, m.data[offset:])
		return driver.Success
	}})
	if st != driver.Success {
		return 0, st
	}
	return r.finish(ev, blocking)
}

func (r *Runtime) EnqueueWriteBuffer(queue, buffer driver.Ptr, blocking bool, offset int, src []byte, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueWriteBuffer", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	m, st := r.bufferFor(q, buffer)
	if st != driver.Success {
		return 0, st
	}
	if len(src) == 0 || offset < 0 || offset+len(src) > len(m.data) {
		return 0, driver.InvalidValue
	}
	if m.flags&(driver.MemHostReadOnly|driver.MemHostNoAccess) != 0 {
		return 0, driver.InvalidOperation
	}
	// Non-blocking writes may reuse src once the command has run; the
	// simulator copies eagerly so the caller's slice is free immediately.
	data := append([]byte(nil), src...)
	ev, st := r.submit(queue, q, submission{typ: driver.CommandWriteBuffer, wait: wait, run: func() driver.Status {
		copy(m.data[offset:], data)
		return driver.Success
	}})
	if st != driver.Success {
		return 0, st
	}
	return r.finish(ev, blocking)
}

func (r *Runtime) EnqueueCopyBuffer(queue, src, dst driver.Ptr, srcOffset, dstOffset, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueCopyBuffer", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	s, st := r.bufferFor(q, src)
	if st != driver.Success {
		return 0, st
	}
	d, st := r.bufferFor(q, dst)
	if st != driver.Success {
		return 0, st
	}
	if size <= 0 || srcOffset < 0 || dstOffset < 0 || srcOffset+size > len(s.data) || dstOffset+size > len(d.data) {
		return 0, driver.InvalidValue
	}
	sr, so := r.root(src, s)
	dr, do := r.root(dst, d)
	if sr == dr && overlaps(so+srcOffset, do+dstOffset, size) {
		return 0, driver.MemCopyOverlap
	}
	return r.submit(queue, q, submission{typ: driver.CommandCopyBuffer, wait: wait, run: func() driver.Status {
		copy(d.data[dstOffset:dstOffset+size], s.data[srcOffset:srcOffset+size])
		return driver.Success
	}})
}

// pitches fills in default row and slice pitches for a region.
func pitches(region [3]int, row, slice int) (int, int, driver.Status) {
	if row == 0 {
		row = region[0]
	} else if row < region[0] {
		return 0, 0, driver.InvalidValue
	}
	if slice == 0 {
		slice = region[1] * row
	} else if slice < region[1]*row || (region[2] > 1 && slice%row != 0) {
		return 0, 0, driver.InvalidValue
	}
	return row, slice, driver.Success
}

func rectOffset(origin [3]int, x, y, z, row, slice int) int {
	return (origin[2]+z)*slice + (origin[1]+y)*row + origin[0] + x
}

// rectFits reports whether the last byte of the region lies inside size bytes.
func rectFits(size int, origin, region [3]int, row, slice int) bool {
	for i := range region {
		if region[i] <= 0 || origin[i] < 0 {
			return false
		}
	}
	return rectOffset(origin, region[0], region[1]-1, region[2]-1, row, slice) <= size
}

func rectCopy(dst []byte, dstOrigin [3]int, dstRow, dstSlice int, src []byte, srcOrigin [3]int, srcRow, srcSlice int, region [3]int) {
	for z := 0; z < region[2]; z++ {
		for y := 0; y < region[1]; y++ {
			d := rectOffset(dstOrigin, 0, y, z, dstRow, dstSlice)
			s := rectOffset(srcOrigin, 0, y, z, srcRow, srcSlice)
			copy(dst[d:d+region[0]], src[s:s+region[0]])
		}
	}
}

func (r *Runtime) rectTransfer(name string, typ driver.CommandType, queue, buffer driver.Ptr, blocking bool, rect driver.Rect, host []byte, read bool, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter(name, capability.V11); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	m, st := r.bufferFor(q, buffer)
	if st != driver.Success {
		return 0, st
	}
	bRow, bSlice, st := pitches(rect.Region, rect.BufferRowPitch, rect.BufferSlicePitch)
	if st != driver.Success {
		return 0, st
	}
	hRow, hSlice, st := pitches(rect.Region, rect.HostRowPitch, rect.HostSlicePitch)
	if st != driver.Success {
		return 0, st
	}
	if !rectFits(len(m.data), rect.BufferOrigin, rect.Region, bRow, bSlice) || !rectFits(len(host), rect.HostOrigin, rect.Region, hRow, hSlice) {
		return 0, driver.InvalidValue
	}
	run := func() driver.Status {
		if read {
			rectCopy(host, rect.HostOrigin, hRow, hSlice, m.data, rect.BufferOrigin, bRow, bSlice, rect.Region)
		} else {
			rectCopy(m.data, rect.BufferOrigin, bRow, bSlice, host, rect.HostOrigin, hRow, hSlice, rect.Region)
		}
		return driver.Success
	}
	ev, st := r.submit(queue, q, submission{typ: typ, wait: wait, run: run})
	if st != driver.Success {
		return 0, st
	}
	return r.finish(ev, blocking)
}

func (r *Runtime) EnqueueReadBufferRect(queue, buffer driver.Ptr, blocking bool, rect driver.Rect, dst []byte, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	return r.rectTransfer("EnqueueReadBufferRect", driver.CommandReadBufferRect, queue, buffer, blocking, rect, dst, true, wait)
}

func (r *Runtime) EnqueueWriteBufferRect(queue, buffer driver.Ptr, blocking bool, rect driver.Rect, src []byte, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	return r.rectTransfer("EnqueueWriteBufferRect", driver.CommandWriteBufferRect, queue, buffer, blocking, rect, src, false, wait)
}

func (r *Runtime) EnqueueCopyBufferRect(queue, src, dst driver.Ptr, srcOrigin, dstOrigin, region [3]int, srcRowPitch, srcSlicePitch, dstRowPitch, dstSlicePitch int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueCopyBufferRect", capability.V11); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	s, st := r.bufferFor(q, src)
	if st != driver.Success {
		return 0, st
	}
	d, st := r.bufferFor(q, dst)
	if st != driver.Success {
		return 0, st
	}
	sRow, sSlice, st := pitches(region, srcRowPitch, srcSlicePitch)
	if st != driver.Success {
		return 0, st
	}
	dRow, dSlice, st := pitches(region, dstRowPitch, dstSlicePitch)
	if st != driver.Success {
		return 0, st
	}
	if !rectFits(len(s.data), srcOrigin, region, sRow, sSlice) || !rectFits(len(d.data), dstOrigin, region, dRow, dSlice) {
		return 0, driver.InvalidValue
	}
	sr, so := r.root(src, s)
	dr, do := r.root(dst, d)
	if sr == dr {
		sFirst, dFirst := so+rectOffset(srcOrigin, 0, 0, 0, sRow, sSlice), do+rectOffset(dstOrigin, 0, 0, 0, dRow, dSlice)
		sLast, dLast := so+rectOffset(srcOrigin, region[0], region[1]-1, region[2]-1, sRow, sSlice), do+rectOffset(dstOrigin, region[0], region[1]-1, region[2]-1, dRow, dSlice)
		if sFirst < dLast && dFirst < sLast {
			return 0, driver.MemCopyOverlap
		}
	}
	return r.submit(queue, q, submission{typ: driver.CommandCopyBufferRect, wait: wait, run: func() driver.Status {
		rectCopy(d.data, dstOrigin, dRow, dSlice, s.data, srcOrigin, sRow, sSlice, region)
		return driver.Success
	}})
}

func validPattern(n int) bool {
	return n > 0 && n <= 128 && n&(n-1) == 0
}

func fill(dst, pattern []byte) {
	for i := 0; i < len(dst); i += len(pattern) {
		copy(dst[i:], pattern)
	}
}

func (r *Runtime) EnqueueFillBuffer(queue, buffer driver.Ptr, pattern []byte, offset, size int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueFillBuffer", capability.V12); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	m, st := r.bufferFor(q, buffer)
	if st != driver.Success {
		return 0, st
	}
	n := len(pattern)
	if !validPattern(n) || offset < 0 || size <= 0 || offset%n != 0 || size%n != 0 || offset+size > len(m.data) {
		return 0, driver.InvalidValue
	}
	pat := append([]byte(nil), pattern...)
	return r.submit(queue, q, submission{typ: driver.CommandFillBuffer, wait: wait, run: func() driver.Status {
		fill(m.data[offset:offset+size], pat)
		return driver.Success
	}})
}

// extent returns an image's addressable size in pixels, rows and slices or
// layers.
func (o *object) extent() [3]int {
	d := o.desc
	switch o.memType {
	case driver.MemObjectImage1DArray:
		return [3]int{d.Width, max(d.ArraySize, 1), 1}
	case driver.MemObjectImage2D:
		return [3]int{d.Width, d.Height, 1}
	case driver.MemObjectImage2DArray:
		return [3]int{d.Width, d.Height, max(d.ArraySize, 1)}
	case driver.MemObjectImage3D:
		return [3]int{d.Width, d.Height, d.Depth}
	default:
		return [3]int{d.Width, 1, 1}
	}
}

func (r *Runtime) EnqueueFillImage(queue, image driver.Ptr, color [16]byte, origin, region [3]int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueFillImage", capability.V12); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	m, st := r.memFor(q, image)
	if st != driver.Success {
		return 0, st
	}
	if m.memType == driver.MemObjectBuffer || m.memType == driver.MemObjectPipe {
		return 0, driver.InvalidMemObject
	}
	ext := m.extent()
	for i := range region {
		if region[i] <= 0 || origin[i] < 0 || origin[i]+region[i] > ext[i] {
			return 0, driver.InvalidValue
		}
	}
	px, _ := pixelSize(m.format)
	channels := channelCounts[m.format.ChannelOrder]
	size := px / channels
	pixel := make([]byte, 0, px)
	for c := 0; c < channels; c++ {
		pixel = append(pixel, color[c*4:c*4+size]...)
	}
	return r.submit(queue, q, submission{typ: driver.CommandFillImage, wait: wait, run: func() driver.Status {
		for z := 0; z < region[2]; z++ {
			for y := 0; y < region[1]; y++ {
				start := (origin[2]+z)*m.desc.SlicePitch + (origin[1]+y)*m.desc.RowPitch + origin[0]*px
				fill(m.data[start:start+region[0]*px], pixel)
			}
		}
		return driver.Success
	}})
}

func (r *Runtime) EnqueueMigrateMemObjects(queue driver.Ptr, mems []driver.Ptr, flags driver.MigrationFlags, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueMigrateMemObjects", capability.V12); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	if len(mems) == 0 || flags&^(driver.MigrateMemObjectHost|driver.MigrateMemObjectContentUndefined) != 0 {
		return 0, driver.InvalidValue
	}
	for _, mem := range mems {
		if _, st := r.memFor(q, mem); st != driver.Success {
			return 0, st
		}
	}
	return r.submit(queue, q, submission{typ: driver.CommandMigrateMemObjects, wait: wait})
}

const maxLocalMemSize = 32 * 1024

func (r *Runtime) launch(queue, kernel driver.Ptr, typ driver.CommandType, offset, global, local []int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	k, st := r.get(driver.KindKernel, kernel)
	if st != driver.Success {
		return 0, st
	}
	if k.context != q.context {
		return 0, driver.InvalidContext
	}
	if p, ok := r.objects[k.program]; !ok || !p.hasDevice(q.device) && !r.parentIn(q.device, p) {
		return 0, driver.InvalidProgramExecutable
	}
	if !k.argsReady() {
		return 0, driver.InvalidKernelArgs
	}
	dim := len(global)
	if dim < 1 || dim > 3 {
		return 0, driver.InvalidWorkDimension
	}
	total := 1
	for _, g := range global {
		if g == 0 && r.tier < capability.V21 || g < 0 {
			return 0, driver.InvalidGlobalWorkSize
		}
		total *= g
	}
	if offset != nil {
		if r.tier < capability.V11 || len(offset) != dim {
			return 0, driver.InvalidGlobalOffset
		}
	}
	if local != nil {
		if len(local) != dim {
			return 0, driver.InvalidWorkGroupSize
		}
		group := 1
		for i, l := range local {
			if l <= 0 || l > maxWorkGroupSize {
				return 0, driver.InvalidWorkItemSize
			}
			if r.tier < capability.V20 && global[i]%l != 0 {
				return 0, driver.InvalidWorkGroupSize
			}
			group *= l
		}
		if group > maxWorkGroupSize {
			return 0, driver.InvalidWorkGroupSize
		}
	}
	if k.localMemSize() > maxLocalMemSize {
		return 0, driver.OutOfResources
	}

	var run func() driver.Status
	if p := r.objects[k.program]; p.builtIn && total > 0 {
		run = r.builtIn(k, total)
	}
	return r.submit(queue, q, submission{typ: typ, wait: wait, run: run})
}

// parentIn reports whether device is a sub-device of one of p's devices.
func (r *Runtime) parentIn(device driver.Ptr, p *object) bool {
	for d, ok := r.objects[device]; ok && d.parent != 0; d, ok = r.objects[d.parent] {
		if p.hasDevice(d.parent) {
			return true
		}
	}
	return false
}

// builtIn returns the body of a built-in kernel. They are the only kernels
// the simulator executes: one work item per byte.
func (r *Runtime) builtIn(k *object, n int) func() driver.Status {
	mem := func(i uint32) []byte {
		if o, ok := r.objects[k.args[i].Object]; ok {
			return o.data
		}
		return nil
	}
	switch k.decl.name {
	case "sim_copy":
		src, dst := mem(0), mem(1)
		return func() driver.Status {
			copy(dst[:min(n, len(dst))], src)
			return driver.Success
		}
	case "sim_fill":
		dst, value := mem(0), k.args[1].Data
		return func() driver.Status {
			fill(dst[:min(n, len(dst))], value[:1])
			return driver.Success
		}
	}
	return nil
}

func (r *Runtime) EnqueueNDRangeKernel(queue, kernel driver.Ptr, offset, global, local []int, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueNDRangeKernel", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.launch(queue, kernel, driver.CommandNDRangeKernel, offset, global, local, wait)
}

func (r *Runtime) EnqueueTask(queue, kernel driver.Ptr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueTask", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.launch(queue, kernel, driver.CommandTask, nil, []int{1}, []int{1}, wait)
}

func (r *Runtime) EnqueueMarker(queue driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueMarker", capability.V10); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	return r.submit(queue, q, submission{typ: driver.CommandMarker, all: true})
}

func (r *Runtime) EnqueueWaitForEvents(queue driver.Ptr, events []driver.Ptr) driver.Status {
	if st := r.enter("EnqueueWaitForEvents", capability.V10); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return st
	}
	if len(events) == 0 {
		return driver.InvalidValue
	}
	_, st = r.submit(queue, q, submission{typ: driver.CommandBarrier, wait: events, barrier: true, internal: true})
	return st
}

func (r *Runtime) EnqueueBarrier(queue driver.Ptr) driver.Status {
	if st := r.enter("EnqueueBarrier", capability.V10); st != driver.Success {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return st
	}
	_, st = r.submit(queue, q, submission{typ: driver.CommandBarrier, all: true, barrier: true, internal: true})
	return st
}

func (r *Runtime) EnqueueMarkerWithWaitList(queue driver.Ptr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueMarkerWithWaitList", capability.V12); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	return r.submit(queue, q, submission{typ: driver.CommandMarker, wait: wait, all: len(wait) == 0})
}

func (r *Runtime) EnqueueBarrierWithWaitList(queue driver.Ptr, wait []driver.Ptr) (driver.Ptr, driver.Status) {
	if st := r.enter("EnqueueBarrierWithWaitList", capability.V12); st != driver.Success {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	q, st := r.queueFor(queue)
	if st != driver.Success {
		return 0, st
	}
	return r.submit(queue, q, submission{typ: driver.CommandBarrier, wait: wait, all: len(wait) == 0, barrier: true})
}
