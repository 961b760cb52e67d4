package cl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fxnlabs/clfacade/pkg/cl/capability"
	"github.com/fxnlabs/clfacade/pkg/cl/driver"
)

// Error is a failure status returned by the native runtime. The status is
// carried unchanged.
type Error struct {
	Op     capability.Op
	Status driver.Status
	// Detail carries context the status alone lacks, such as the build log
	// of a failed build.
	Detail string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("cl: ")
	if e.Op != "" {
		b.WriteString(string(e.Op))
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s (%d)", e.Status, int32(e.Status))
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// Is matches a target *Error with the same status. A target without an Op
// matches every operation, so errors.Is(err, &cl.Error{Status: s}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Status == t.Status && (t.Op == "" || t.Op == e.Op)
}

// ErrorKind categorizes failures detected by the facade itself.
type ErrorKind string

const (
	KindUnsupported     ErrorKind = "unsupported"
	KindHandleMismatch  ErrorKind = "handle_mismatch"
	KindInvalidArgument ErrorKind = "invalid_argument"
	KindClosed          ErrorKind = "closed"
	KindNegotiation     ErrorKind = "negotiation"
)

// LocalError is a failure detected before any native call was made.
type LocalError struct {
	Op     capability.Op
	Kind   ErrorKind
	Param  string
	Detail string
	Cause  error
}

func (e *LocalError) Error() string {
	var b strings.Builder
	b.WriteString("cl: ")
	if e.Op != "" {
		b.WriteString(string(e.Op))
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Param != "" {
		b.WriteString(" (")
		b.WriteString(e.Param)
		b.WriteByte(')')
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *LocalError) Unwrap() error {
	return e.Cause
}

// Is matches a target *LocalError of the same kind. Op and Param narrow the
// match when the target sets them.
func (e *LocalError) Is(target error) bool {
	t, ok := target.(*LocalError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind &&
		(t.Op == "" || t.Op == e.Op) &&
		(t.Param == "" || t.Param == e.Param)
}

// Sentinels for errors.Is.
var (
	ErrUnsupported     = &LocalError{Kind: KindUnsupported}
	ErrHandleMismatch  = &LocalError{Kind: KindHandleMismatch}
	ErrInvalidArgument = &LocalError{Kind: KindInvalidArgument}
	ErrClosed          = &LocalError{Kind: KindClosed}
	ErrNegotiation     = &LocalError{Kind: KindNegotiation}
)

// IsLocal reports whether err was raised by the facade without reaching the
// native runtime.
func IsLocal(err error) bool {
	var le *LocalError
	return errors.As(err, &le)
}

// StatusOf returns the native status carried by err.
func StatusOf(err error) (driver.Status, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Status, true
	}
	return driver.Success, false
}

// KindOf returns the local error kind carried by err, or "" for native and
// foreign errors.
func KindOf(err error) ErrorKind {
	var le *LocalError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

func invalidArg(op capability.Op, param, format string, a ...any) *LocalError {
	return &LocalError{Op: op, Kind: KindInvalidArgument, Param: param, Detail: fmt.Sprintf(format, a...)}
}

// fromArgError converts a signature validation failure.
func fromArgError(op capability.Op, err error) *LocalError {
	var ae *capability.ArgError
	if !errors.As(err, &ae) {
		return &LocalError{Op: op, Kind: KindInvalidArgument, Cause: err}
	}
	if ae.Mismatch {
		return &LocalError{
			Op:     op,
			Kind:   KindHandleMismatch,
			Param:  ae.Param,
			Detail: fmt.Sprintf("expected %s handle, got %s", ae.Want, ae.Got),
			Cause:  ae,
		}
	}
	return &LocalError{Op: op, Kind: KindInvalidArgument, Param: ae.Param, Detail: ae.Reason, Cause: ae}
}
