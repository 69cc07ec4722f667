package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification. An *Error matches the
// sentinel of its Kind through errors.Is.
var (
	ErrUnboundVariable    = errors.New("unbound variable")
	ErrLoopBound          = errors.New("loop iteration cap exceeded")
	ErrPermission         = errors.New("permission denied")
	ErrIO                 = errors.New("i/o error")
	ErrInvalidTemplate    = errors.New("invalid template")
	ErrInvalidExpression  = errors.New("invalid expression")
	ErrInvalidDescription = errors.New("invalid description")
	ErrCanceled           = errors.New("canceled")
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	KindUnboundVariable    ErrorKind = "unbound_variable"
	KindLoopBound          ErrorKind = "loop_bound"
	KindPermission         ErrorKind = "permission"
	KindIO                 ErrorKind = "io"
	KindInvalidTemplate    ErrorKind = "invalid_template"
	KindInvalidExpression  ErrorKind = "invalid_expression"
	KindInvalidDescription ErrorKind = "invalid_description"
	KindCanceled           ErrorKind = "canceled"
)

var sentinels = map[ErrorKind]error{
	KindUnboundVariable:    ErrUnboundVariable,
	KindLoopBound:          ErrLoopBound,
	KindPermission:         ErrPermission,
	KindIO:                 ErrIO,
	KindInvalidTemplate:    ErrInvalidTemplate,
	KindInvalidExpression:  ErrInvalidExpression,
	KindInvalidDescription: ErrInvalidDescription,
	KindCanceled:           ErrCanceled,
}

// Error wraps an underlying error with the operation, the output path and
// the declaration being processed when it occurred.
type Error struct {
	Op   string
	Kind ErrorKind
	Path string // Optional: output path
	Decl string // Optional: declaration label
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Decl != "" {
		base += fmt.Sprintf(" (at %s)", e.Decl)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain,
// or KindIO when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIO
}

// Annotate fills in Path and Decl on the outermost *Error in err's chain
// when they are still empty. Other errors are wrapped as KindIO.
func Annotate(err error, op, path, decl string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Path != "" && e.Decl != "" {
			return err
		}
		cp := *e
		if cp.Path == "" {
			cp.Path = path
		}
		if cp.Decl == "" {
			cp.Decl = decl
		}
		return &cp
	}
	return &Error{Op: op, Kind: KindIO, Path: path, Decl: decl, Err: err}
}
