package response

import (
	"errors"
)

// Error is a domain error kind with the HTTP status it maps to. Cause keeps
// the underlying failure for server-side logging.
type Error struct {
	Code  int
	Err   error
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Err.Error() + ": " + e.Cause.Error()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{Code: code, Err: errors.New(err)}
}

// Wrap attaches cause to the error kind. The result matches kind with
// errors.Is and cause with errors.Is/As through Unwrap.
func Wrap(kind error, cause error) error {
	var k *Error
	if !errors.As(kind, &k) {
		return errors.Join(kind, cause)
	}
	return &Error{Code: k.Code, Err: k.Err, Cause: cause}
}
