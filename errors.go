package main

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure reported to a tool caller.
type ErrorKind string

const (
	KindFileNotFound       ErrorKind = "FileNotFound"
	KindAlreadyExists      ErrorKind = "AlreadyExists"
	KindUnsupportedFormat  ErrorKind = "UnsupportedFormat"
	KindConnectionFailed   ErrorKind = "ConnectionFailed"
	KindNotFound           ErrorKind = "NotFound"
	KindReadOnlyBackend    ErrorKind = "ReadOnlyBackend"
	KindUnsupportedQuery   ErrorKind = "UnsupportedQuery"
	KindNotAQuery          ErrorKind = "NotAQuery"
	KindNotAnUpdate        ErrorKind = "NotAnUpdate"
	KindQueryFailed        ErrorKind = "QueryFailed"
	KindTableConflict      ErrorKind = "TableConflict"
	KindTableNotFound      ErrorKind = "TableNotFound"
	KindUnsupportedBackend ErrorKind = "UnsupportedBackend"
	KindNotImplemented     ErrorKind = "NotImplemented"
	KindInvalidArgument    ErrorKind = "InvalidArgument"
)

// Error is the single error type crossing the tool boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrFileNotFound       = &Error{Kind: KindFileNotFound}
	ErrAlreadyExists      = &Error{Kind: KindAlreadyExists}
	ErrUnsupportedFormat  = &Error{Kind: KindUnsupportedFormat}
	ErrConnectionFailed   = &Error{Kind: KindConnectionFailed}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrReadOnlyBackend    = &Error{Kind: KindReadOnlyBackend}
	ErrUnsupportedQuery   = &Error{Kind: KindUnsupportedQuery}
	ErrNotAQuery          = &Error{Kind: KindNotAQuery}
	ErrNotAnUpdate        = &Error{Kind: KindNotAnUpdate}
	ErrQueryFailed        = &Error{Kind: KindQueryFailed}
	ErrTableConflict      = &Error{Kind: KindTableConflict}
	ErrTableNotFound      = &Error{Kind: KindTableNotFound}
	ErrUnsupportedBackend = &Error{Kind: KindUnsupportedBackend}
	ErrNotImplemented     = &Error{Kind: KindNotImplemented}
	ErrInvalidArgument    = &Error{Kind: KindInvalidArgument}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// queryFailed normalizes an engine error. Errors that already carry a kind
// pass through untouched.
func queryFailed(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindQueryFailed, Err: err}
}

// KindOf returns the kind of err, or QueryFailed for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindQueryFailed
}
