// Package errorx provides coded errors for the HTTP surface. Handlers wrap
// internal errors with a registered code via WrapC; the response writer maps
// the code back to an HTTP status and external message with ParseCoder.
package errorx

import (
	"errors"
	"fmt"
)

type withCode struct {
	err   error
	code  int
	cause error
}

// WithCode creates a new coded error from a format string.
func WithCode(code int, format string, args ...interface{}) error {
	return &withCode{
		err:  fmt.Errorf(format, args...),
		code: code,
	}
}

// WrapC annotates err with a code and a message. A nil err yields nil so
// handlers can wrap unconditionally.
func WrapC(err error, code int, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &withCode{
		err:   fmt.Errorf(format, args...),
		code:  code,
		cause: err,
	}
}

func (w *withCode) Error() string {
	if w.cause != nil {
		return fmt.Sprintf("%s: %s", w.err.Error(), w.cause.Error())
	}
	return w.err.Error()
}

func (w *withCode) Unwrap() error { return w.cause }

// Is lets errors.Is match two coded errors by code.
func (w *withCode) Is(target error) bool {
	var t *withCode
	if errors.As(target, &t) {
		return w.code == t.code
	}
	return false
}
