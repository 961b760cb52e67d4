package cl

import (
	"context"
	"fmt"

	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// CreateUserEvent creates an event whose status the host sets with
// SetUserEventStatus. Commands that wait on it stay queued until then.
func (r *Runtime) CreateUserEvent(c Context) (Event, error) {
	op := capability.OpCreateUserEvent
	if err := r.enter(op, c); err != nil {
		return Event{}, err
	}
	var ptr driver.Ptr
	err := r.native(op, func() (st driver.Status) {
		ptr, st = r.drv.CreateUserEvent(c.ptr)
		return st
	})
	if err != nil {
		return Event{}, err
	}
	r.created(driver.KindEvent, ptr)
	return Event{ptr: ptr}, nil
}

// SetUserEventStatus completes ev, or fails it when status is negative.
// Dependent commands fail with it.
func (r *Runtime) SetUserEventStatus(ev Event, status driver.ExecStatus) error {
	op := capability.OpSetUserEventStatus
	if err := r.enter(op, ev); err != nil {
		return err
	}
	if status > driver.Complete {
		return r.reject(invalidArg(op, "status", "status must be CL_COMPLETE or negative, got %s", status))
	}
	return r.native(op, func() driver.Status { return r.drv.SetUserEventStatus(ev.ptr, status) })
}

// SetEventCallback arranges for fn to be called once ev completes or fails.
// fn runs on a goroutine owned by the driver, never on the caller's.
func (r *Runtime) SetEventCallback(ev Event, fn func(Event, driver.ExecStatus)) error {
	op := capability.OpSetEventCallback
	if err := r.enter(op, ev); err != nil {
		return err
	}
	if fn == nil {
		return r.reject(invalidArg(op, "callback", "nil callback"))
	}
	cb := func(p driver.Ptr, st driver.ExecStatus) { fn(Event{ptr: p}, st) }
	return r.native(op, func() driver.Status { return r.drv.SetEventCallback(ev.ptr, driver.Complete, cb) })
}

// WaitForEvents blocks the calling goroutine inside the driver until every
// event has completed.
func (r *Runtime) WaitForEvents(events ...Event) error {
	op := capability.OpWaitForEvents
	if err := r.enter(op); err != nil {
		return err
	}
	if len(events) == 0 {
		return r.reject(invalidArg(op, "events", "no events"))
	}
	if err := nonNil(r, op, "events", events); err != nil {
		return err
	}
	return r.native(op, func() driver.Status { return r.drv.WaitForEvents(ptrs(events)) })
}

func (r *Runtime) GetEventInfo(ev Event, param uint32) ([]byte, error) {
	return r.info(capability.OpGetEventInfo, ev, func() ([]byte, driver.Status) {
		return r.drv.Info(driver.KindEvent, ev.ptr, param)
	})
}

// EventStatus decodes CL_EVENT_COMMAND_EXECUTION_STATUS.
func (r *Runtime) EventStatus(ev Event) (driver.ExecStatus, error) {
	raw, err := r.GetEventInfo(ev, driver.EventCommandExecutionStatus)
	if err != nil {
		return 0, err
	}
	v, err := driver.DecodeUint32(raw)
	if err != nil {
		return 0, &LocalError{Op: capability.OpGetEventInfo, Kind: KindInvalidArgument, Param: "param", Cause: err}
	}
	return driver.ExecStatus(int32(v)), nil
}

func (r *Runtime) GetEventProfilingInfo(ev Event, param uint32) ([]byte, error) {
	return r.info(capability.OpGetEventProfilingInfo, ev, func() ([]byte, driver.Status) {
		return r.drv.EventProfilingInfo(ev.ptr, param)
	})
}

func (r *Runtime) RetainEvent(ev Event) error {
	return r.retain(capability.OpRetainEvent, ev)
}

func (r *Runtime) ReleaseEvent(ev Event) error {
	return r.release(capability.OpReleaseEvent, ev)
}

// EventDone returns a channel that receives the final execution status of ev
// once, from the driver's callback goroutine.
func (r *Runtime) EventDone(ev Event) (<-chan driver.ExecStatus, error) {
	ch := make(chan driver.ExecStatus, 1)
	err := r.SetEventCallback(ev, func(_ Event, st driver.ExecStatus) {
		ch <- st
	})
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// Wait blocks until every event has completed or ctx is done. Cancelling ctx
// abandons the wait only; the enqueued work carries on.
//
// Before OpenCL 1.1 there are no event callbacks, so Wait parks a goroutine
// in WaitForEvents, which lives until the events complete.
func (r *Runtime) Wait(ctx context.Context, events ...Event) error {
	op := capability.OpWaitForEvents
	if err := r.enter(op); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}
	if err := nonNil(r, op, "events", events); err != nil {
		return err
	}

	if !r.Supports(capability.OpSetEventCallback) {
		done := make(chan error, 1)
		go func() { done <- r.WaitForEvents(events...) }()
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	chans := make([]<-chan driver.ExecStatus, len(events))
	for i, ev := range events {
		ch, err := r.EventDone(ev)
		if err != nil {
			return err
		}
		chans[i] = ch
	}
	for i, ch := range chans {
		select {
		case st := <-ch:
			if st < 0 {
				return &Error{
					Op:     op,
					Status: driver.ExecStatusErrorForEventsInWaitList,
					Detail: fmt.Sprintf("%s failed with %s", events[i], driver.Status(st)),
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
