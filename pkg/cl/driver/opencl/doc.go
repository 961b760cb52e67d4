// Package opencl implements driver.Driver on top of the system OpenCL ICD
// loader through cgo.
//
// The binding is compiled only with the opencl build tag, which needs the
// Khronos headers and libOpenCL at build time:
//
//	go build -tags opencl ./...
//
// Without the tag New reports ErrNotBuilt and callers fall back to the
// simulator in driver/sim.
package opencl

import "errors"

var (
	// ErrNotBuilt is returned by New when the binary was built without the
	// opencl tag.
	ErrNotBuilt = errors.New("opencl: built without the opencl build tag")

	// ErrNoPlatform is returned by New when the ICD loader finds no
	// installed platform.
	ErrNoPlatform = errors.New("opencl: no OpenCL platform installed")
)
