package sim

import (
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// object is every simulated native object. Only the fields of its kind are
// meaningful.
type object struct {
	kind driver.Kind
	refs int
	// root objects (platform, root devices) ignore retain and release.
	root bool
	// internal objects are created by the runtime itself and never handed
	// to a caller.
	internal bool

	context driver.Ptr
	device  driver.Ptr
	parent  driver.Ptr
	devices []driver.Ptr

	// device
	deviceType driver.DeviceType
	units      int
	index      int

	// context
	properties []uintptr

	// command queue
	queueProps    driver.QueueProperties
	queueSize     int
	queueList     []uint64
	last          driver.Ptr
	barrier       driver.Ptr
	defaultQueues map[driver.Ptr]driver.Ptr

	// memory object
	memType    uint32
	flags      driver.MemFlags
	data       []byte
	offset     int
	hostPtr    bool
	format     driver.ImageFormat
	desc       driver.ImageDesc
	packetSize uint32
	maxPackets uint32
	destructors []func()

	// sampler
	normalized   bool
	addressing   driver.AddressingMode
	filter       driver.FilterMode
	samplerProps []uint64

	// program
	source        string
	il            []byte
	fromBinary    bool
	builtIn       bool
	options       string
	buildLog      string
	buildStatus   driver.BuildStatus
	binaryType    driver.BinaryType
	decls         []kernelDecl
	specConstants map[uint32][]byte
	releaseCallbacks []func()
	attachedKernels int

	// kernel
	program  driver.Ptr
	decl     kernelDecl
	args     map[uint32]driver.KernelArg
	svmArgs  map[uint32]driver.SVMPtr
	execInfo map[uint32][]byte

	// event
	queue     driver.Ptr
	command   driver.CommandType
	status    driver.ExecStatus
	user      bool
	callbacks []eventCallback
	profiled  bool
	profile   [5]uint64
}

type eventCallback struct {
	trigger driver.ExecStatus
	fn      driver.EventCallback
	fired   bool
}

func (o *object) hasDevice(d driver.Ptr) bool {
	for _, p := range o.devices {
		if p == d {
			return true
		}
	}
	return false
}

// done reports whether an event reached CL_COMPLETE or an error status.
func (o *object) done() bool {
	return o.status <= driver.Complete
}
