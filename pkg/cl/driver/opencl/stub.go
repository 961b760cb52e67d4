//go:build !opencl

package opencl

import "github.com/fxnlabs/clfacade/pkg/cl/driver"

// Available reports whether the native binding was compiled in.
func Available() bool { return false }

// New always fails without the opencl build tag.
func New() (driver.Driver, error) {
	return nil, ErrNotBuilt
}
