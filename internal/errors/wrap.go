package errors

import (
	"errors"
)

// OpError records the module and operation an error surfaced from.
// Module is e.g. "webhook" or "catalog"; Op is e.g. "reply" or "load_file".
type OpError struct {
	Module string
	Op     string
	Err    error
}

func (e *OpError) Error() string {
	return e.Module + "." + e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Wrap attaches module and operation context to err. Returns nil if err is nil.
func Wrap(module, op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Module: module, Op: op, Err: err}
}

// Tags returns the module and operation of the outermost OpError in err's
// chain as a map suitable for error-tracking tags. Returns nil if there is none.
func Tags(err error) map[string]string {
	var op *OpError
	if !errors.As(err, &op) {
		return nil
	}
	return map[string]string{"module": op.Module, "operation": op.Op}
}
