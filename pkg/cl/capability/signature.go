package capability

import (
	"fmt"
	"reflect"

	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// Type classifies an operation parameter or result.
type Type uint8

const (
	TypeNone Type = iota
	// TypeHandle is a single object handle of Param.Kind.
	TypeHandle
	// TypeHandles is a slice of handles of Param.Kind.
	TypeHandles
	// TypeSize is a non-negative integer: a size, offset or count.
	TypeSize
	// TypeSizes is a slice of non-negative integers.
	TypeSizes
	// TypeUint is an unsigned 32-bit value such as an index or info param.
	TypeUint
	// TypeUint64 is an unsigned 64-bit value such as a timer reading.
	TypeUint64
	TypeFlags
	TypeBool
	TypeString
	TypeStrings
	TypeBytes
	TypeBytesList
	// TypeEnum is an integer that must name a constant of Param.Group.
	TypeEnum
	TypeCallback
	TypeSVM
	TypeSVMs
	// TypeValue is a structured value (image format, rect, fill colour).
	TypeValue
	// TypeKernelArg is anything settable with setKernelArg.
	TypeKernelArg
)

var typeNames = [...]string{
	TypeNone:      "none",
	TypeHandle:    "handle",
	TypeHandles:   "handles",
	TypeSize:      "size",
	TypeSizes:     "sizes",
	TypeUint:      "uint32",
	TypeUint64:    "uint64",
	TypeFlags:     "flags",
	TypeBool:      "bool",
	TypeString:    "string",
	TypeStrings:   "strings",
	TypeBytes:     "bytes",
	TypeBytesList: "bytes_list",
	TypeEnum:      "enum",
	TypeCallback:  "callback",
	TypeSVM:       "svm_pointer",
	TypeSVMs:      "svm_pointers",
	TypeValue:     "value",
	TypeKernelArg: "kernel_arg",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Param describes one positional argument of an operation.
type Param struct {
	Name string
	Type Type
	// Kind is the handle kind for TypeHandle and TypeHandles.
	Kind driver.Kind
	// Group names the constant group for TypeEnum.
	Group string
	// Values, when set, restricts a TypeEnum to these constant names
	// regardless of what the group offers at the negotiated version.
	Values   []string
	Optional bool
}

func (p Param) String() string {
	switch p.Type {
	case TypeHandle:
		return fmt.Sprintf("%s %s", p.Name, p.Kind)
	case TypeHandles:
		return fmt.Sprintf("%s []%s", p.Name, p.Kind)
	case TypeEnum:
		return fmt.Sprintf("%s %s", p.Name, p.Group)
	}
	return fmt.Sprintf("%s %s", p.Name, p.Type)
}

// Result describes what an operation returns besides its error.
type Result struct {
	Type Type
	Kind driver.Kind
}

func (r Result) String() string {
	switch r.Type {
	case TypeNone:
		return "-"
	case TypeHandle:
		return r.Kind.String()
	case TypeHandles:
		return "[]" + r.Kind.String()
	}
	return r.Type.String()
}

// Signature is one revision of an operation: its parameters and the
// half-open version range [Since, Removed) in which it is active.
type Signature struct {
	Op         Op
	Since      Version
	Removed    Version
	Deprecated Version
	Params     []Param
	Result     Result
	// Note summarises what changed in this revision.
	Note string
}

// Active reports whether the revision applies at v.
func (s Signature) Active(v Version) bool {
	return v >= s.Since && (s.Removed == VersionNone || v < s.Removed)
}

// DeprecatedAt reports whether the operation is deprecated at v.
func (s Signature) DeprecatedAt(v Version) bool {
	return s.Deprecated != VersionNone && v >= s.Deprecated
}

// Param returns the named parameter and its position.
func (s Signature) Param(name string) (Param, int, bool) {
	for i, p := range s.Params {
		if p.Name == name {
			return p, i, true
		}
	}
	return Param{}, -1, false
}

// MinArgs is the number of leading parameters that are not optional
// trailing ones.
func (s Signature) MinArgs() int {
	n := len(s.Params)
	for n > 0 && s.Params[n-1].Optional {
		n--
	}
	return n
}

// Handle is implemented by every facade handle type.
type Handle interface {
	Kind() driver.Kind
	Ptr() driver.Ptr
}

// ArgError describes why an argument list does not fit a signature.
type ArgError struct {
	Op    Op
	Index int
	Param string
	// Mismatch is set when a handle of the wrong kind was supplied.
	Mismatch bool
	Want     driver.Kind
	Got      driver.Kind
	Reason   string
}

func (e *ArgError) Error() string {
	if e.Mismatch {
		return fmt.Sprintf("%s: argument %d (%s): expected %s handle, got %s", e.Op, e.Index, e.Param, e.Want, e.Got)
	}
	if e.Param == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s: argument %d (%s): %s", e.Op, e.Index, e.Param, e.Reason)
}

// Validate checks args against the signature at version v. Trailing optional
// parameters may be omitted.
func (s Signature) Validate(v Version, args []any) error {
	if len(args) < s.MinArgs() || len(args) > len(s.Params) {
		return &ArgError{Op: s.Op, Index: -1, Reason: fmt.Sprintf("want %d to %d arguments, got %d", s.MinArgs(), len(s.Params), len(args))}
	}
	for i, arg := range args {
		if err := s.validateArg(v, i, s.Params[i], arg); err != nil {
			return err
		}
	}
	return nil
}

func (s Signature) validateArg(v Version, i int, p Param, arg any) error {
	fail := func(format string, a ...any) error {
		return &ArgError{Op: s.Op, Index: i, Param: p.Name, Reason: fmt.Sprintf(format, a...)}
	}
	if isNil(arg) {
		if p.Optional || p.Type == TypeBytes {
			return nil
		}
		return fail("nil %s", p.Type)
	}
	rv := reflect.ValueOf(arg)

	switch p.Type {
	case TypeHandle:
		return s.checkHandle(i, p, arg, fail)
	case TypeHandles:
		if rv.Kind() != reflect.Slice {
			return fail("expected []%s, got %T", p.Kind, arg)
		}
		for j := 0; j < rv.Len(); j++ {
			if err := s.checkHandle(i, p, rv.Index(j).Interface(), fail); err != nil {
				return err
			}
		}
		return nil
	case TypeKernelArg:
		if h, ok := arg.(Handle); ok {
			switch h.Kind() {
			case driver.KindMem, driver.KindSampler, driver.KindCommandQueue:
				if h.Ptr() == 0 {
					return fail("nil %s handle", h.Kind())
				}
				return nil
			}
			return &ArgError{Op: s.Op, Index: i, Param: p.Name, Mismatch: true, Want: driver.KindMem, Got: h.Kind()}
		}
		return nil
	case TypeSize:
		n, ok := toInt64(rv)
		if !ok {
			return fail("expected integer, got %T", arg)
		}
		if n < 0 {
			return fail("negative value %d", n)
		}
		return nil
	case TypeSizes:
		if rv.Kind() != reflect.Slice {
			return fail("expected []int, got %T", arg)
		}
		for j := 0; j < rv.Len(); j++ {
			n, ok := toInt64(rv.Index(j))
			if !ok || n < 0 {
				return fail("element %d is not a non-negative integer", j)
			}
		}
		return nil
	case TypeUint, TypeUint64, TypeFlags:
		n, ok := toInt64(rv)
		if !ok {
			return fail("expected integer, got %T", arg)
		}
		if n < 0 {
			return fail("negative value %d", n)
		}
		if p.Type == TypeUint && n > int64(^uint32(0)) {
			return fail("value %d overflows uint32", n)
		}
		return nil
	case TypeEnum:
		n, ok := toInt64(rv)
		if !ok {
			return fail("expected %s constant, got %T", p.Group, arg)
		}
		if !enumAllowed(v, p, n) {
			return fail("value %#x is not a valid %s at OpenCL %s", n, p.Group, v)
		}
		return nil
	case TypeBool:
		if rv.Kind() != reflect.Bool {
			return fail("expected bool, got %T", arg)
		}
	case TypeString:
		if rv.Kind() != reflect.String {
			return fail("expected string, got %T", arg)
		}
	case TypeStrings:
		if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() != reflect.String {
			return fail("expected []string, got %T", arg)
		}
	case TypeBytes:
		if _, ok := arg.([]byte); !ok {
			return fail("expected []byte, got %T", arg)
		}
	case TypeBytesList:
		if _, ok := arg.([][]byte); !ok {
			return fail("expected [][]byte, got %T", arg)
		}
	case TypeCallback:
		if rv.Kind() != reflect.Func {
			return fail("expected func, got %T", arg)
		}
	case TypeSVM:
		if _, ok := arg.(driver.SVMPtr); !ok {
			return fail("expected SVM pointer, got %T", arg)
		}
	case TypeSVMs:
		if _, ok := arg.([]driver.SVMPtr); !ok {
			return fail("expected []SVM pointer, got %T", arg)
		}
	case TypeValue:
		if _, ok := arg.(Handle); ok {
			return fail("expected value, got handle %T", arg)
		}
	}
	return nil
}

func (s Signature) checkHandle(i int, p Param, arg any, fail func(string, ...any) error) error {
	h, ok := arg.(Handle)
	if !ok {
		return fail("expected %s handle, got %T", p.Kind, arg)
	}
	if h.Kind() != p.Kind {
		return &ArgError{Op: s.Op, Index: i, Param: p.Name, Mismatch: true, Want: p.Kind, Got: h.Kind()}
	}
	if h.Ptr() == 0 && !p.Optional {
		return fail("nil %s handle", p.Kind)
	}
	return nil
}

func enumAllowed(v Version, p Param, n int64) bool {
	if len(p.Values) > 0 {
		for _, name := range p.Values {
			if c, ok := constantIndex[name]; ok && c.Value == n && c.Active(v) {
				return true
			}
		}
		return false
	}
	for _, c := range groupIndex[p.Group] {
		if c.Value == n && c.Active(v) {
			return true
		}
	}
	return false
}

func isNil(arg any) bool {
	if arg == nil {
		return true
	}
	rv := reflect.ValueOf(arg)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func toInt64(rv reflect.Value) (int64, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > 1<<63-1 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}
