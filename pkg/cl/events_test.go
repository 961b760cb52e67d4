package cl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

func TestUserEventGatesDependentCommands(t *testing.T) {
	f := newFixture(t, "OpenCL 1.2 Vendor")
	buf := f.buffer(t, 4)
	gate, err := f.rt.CreateUserEvent(f.context)
	require.NoError(t, err)

	write, err := f.rt.EnqueueWriteBuffer(f.queue, buf, false, 0, []byte{7, 7, 7, 7}, gate)
	require.NoError(t, err)
	st, err := f.rt.EventStatus(write)
	require.NoError(t, err)
	assert.Equal(t, driver.Queued, st)

	done, err := f.rt.EventDone(write)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.rt.Wait(ctx, write), context.DeadlineExceeded)

	before := f.drv.CallCount()
	assert.ErrorIs(t, f.rt.SetUserEventStatus(gate, driver.Running), ErrInvalidArgument)
	assert.Equal(t, before, f.drv.CallCount())
	require.NoError(t, f.rt.SetUserEventStatus(gate, driver.Complete))
	assert.ErrorIs(t, f.rt.SetUserEventStatus(gate, driver.Complete), &Error{Status: driver.InvalidOperation})

	select {
	case st := <-done:
		assert.Equal(t, driver.Complete, st)
	case <-time.After(5 * time.Second):
		t.Fatal("completion not delivered")
	}
	require.NoError(t, f.rt.Wait(context.Background(), write))

	out := make([]byte, 4)
	_, err = f.rt.EnqueueReadBuffer(f.queue, buf, true, 0, out)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 7, 7, 7}, out)
}

func TestWaitReportsFailedEvents(t *testing.T) {
	f := newFixture(t, "OpenCL 1.2 Vendor")
	gate, err := f.rt.CreateUserEvent(f.context)
	require.NoError(t, err)
	marker, err := f.rt.EnqueueMarkerWithWaitList(f.queue, gate)
	require.NoError(t, err)

	require.NoError(t, f.rt.SetUserEventStatus(gate, driver.ExecStatus(-100)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = f.rt.Wait(ctx, marker)
	require.Error(t, err)
	assert.ErrorIs(t, err, &Error{Status: driver.ExecStatusErrorForEventsInWaitList})
	assert.Contains(t, err.Error(), marker.String())

	err = f.rt.WaitForEvents(marker)
	assert.ErrorIs(t, err, &Error{Status: driver.ExecStatusErrorForEventsInWaitList})
}

func TestWaitWithoutCallbacks(t *testing.T) {
	f := newFixture(t, "OpenCL 1.0 Vendor")
	require.False(t, f.rt.Supports(capability.OpSetEventCallback))

	buf := f.buffer(t, 4)
	ev, err := f.rt.EnqueueWriteBuffer(f.queue, buf, false, 0, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	marker, err := f.rt.EnqueueMarker(f.queue)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.rt.Wait(ctx, ev, marker))

	st, err := f.rt.EventStatus(marker)
	require.NoError(t, err)
	assert.Equal(t, driver.Complete, st)

	require.NoError(t, f.rt.EnqueueWaitForEvents(f.queue, ev))
	require.NoError(t, f.rt.EnqueueBarrier(f.queue))
	assert.ErrorIs(t, f.rt.EnqueueWaitForEvents(f.queue), ErrInvalidArgument)
}

func TestWaitArguments(t *testing.T) {
	f := newFixture(t, "OpenCL 2.0 Vendor")
	assert.NoError(t, f.rt.Wait(context.Background()))
	assert.ErrorIs(t, f.rt.Wait(context.Background(), Event{}), &LocalError{Kind: KindInvalidArgument, Param: "events"})
	assert.ErrorIs(t, f.rt.WaitForEvents(), ErrInvalidArgument)

	ev, err := f.rt.CreateUserEvent(f.context)
	require.NoError(t, err)
	assert.ErrorIs(t, f.rt.SetEventCallback(ev, nil), ErrInvalidArgument)
	require.NoError(t, f.rt.SetUserEventStatus(ev, driver.Complete))
}

func TestEventCallbackReceivesFacadeHandle(t *testing.T) {
	f := newFixture(t, "OpenCL 1.1 Vendor")
	ev, err := f.rt.CreateUserEvent(f.context)
	require.NoError(t, err)

	got := make(chan Event, 1)
	require.NoError(t, f.rt.SetEventCallback(ev, func(e Event, _ driver.ExecStatus) { got <- e }))
	require.NoError(t, f.rt.SetUserEventStatus(ev, driver.Complete))

	select {
	case e := <-got:
		assert.Equal(t, ev, e)
	case <-time.After(5 * time.Second):
		t.Fatal("callback not delivered")
	}
}

func TestEventCallbacksDoNotBlockTheCaller(t *testing.T) {
	f := newFixture(t, "OpenCL 1.1 Vendor")
	ev, err := f.rt.CreateUserEvent(f.context)
	require.NoError(t, err)

	entered := make(chan struct{})
	gate := make(chan struct{})
	finished := make(chan struct{})
	require.NoError(t, f.rt.SetEventCallback(ev, func(Event, driver.ExecStatus) {
		close(entered)
		<-gate
		close(finished)
	}))

	returned := make(chan error, 1)
	go func() { returned <- f.rt.SetUserEventStatus(ev, driver.Complete) }()

	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		close(gate)
		t.Fatal("SetUserEventStatus waited for the callback")
	}

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		close(gate)
		t.Fatal("callback not delivered")
	}
	select {
	case <-finished:
		t.Fatal("callback finished before its gate opened")
	default:
	}

	close(gate)
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("callback did not finish")
	}
}

func TestUserEventStatusReachesDriverUnchanged(t *testing.T) {
	rt, m := openMock(t, "OpenCL 1.1 Mock")
	m.On("CreateUserEvent", driver.Ptr(0x30)).Return(driver.Ptr(0x60), driver.Success)
	m.On("SetUserEventStatus", driver.Ptr(0x60), driver.ExecStatus(-5)).Return(driver.Success)
	m.On("SetUserEventStatus", driver.Ptr(0x60), driver.Complete).Return(driver.InvalidOperation)
	m.On("Release", driver.KindEvent, driver.Ptr(0x60)).Return(driver.Success)

	ev, err := rt.CreateUserEvent(Context{ptr: 0x30})
	require.NoError(t, err)
	require.NoError(t, rt.SetUserEventStatus(ev, driver.ExecStatus(-5)))
	assert.ErrorIs(t, rt.SetUserEventStatus(ev, driver.Complete), &Error{Op: capability.OpSetUserEventStatus, Status: driver.InvalidOperation})
	m.AssertCalled(t, "SetUserEventStatus", driver.Ptr(0x60), driver.ExecStatus(-5))

	require.NoError(t, rt.Close())
	m.AssertNumberOfCalls(t, "SetUserEventStatus", 2)
}

func TestProfilingInfo(t *testing.T) {
	f := newFixture(t, "OpenCL 2.0 Vendor")
	q, err := f.rt.NewQueue(f.context, f.device, driver.QueueProfilingEnable)
	require.NoError(t, err)

	ev, err := f.rt.EnqueueMarkerWithWaitList(q)
	require.NoError(t, err)
	require.NoError(t, f.rt.Finish(q))

	start, err := f.rt.GetEventProfilingInfo(ev, driver.ProfilingCommandStart)
	require.NoError(t, err)
	end, err := f.rt.GetEventProfilingInfo(ev, driver.ProfilingCommandEnd)
	require.NoError(t, err)
	s, _ := driver.DecodeUint64(start)
	e, _ := driver.DecodeUint64(end)
	assert.LessOrEqual(t, s, e)
}
