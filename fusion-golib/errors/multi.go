package errors

import (
	"fmt"
	"strings"
)

// Errors is a list of errors; any non-nil Errors value holds at least one
// underlying non-nil error, so callers may compare an Errors with nil to
// check for the absence of errors.
type Errors interface {
	error
	// Slice returns a copy of the underlying (non-nil) errors.
	Slice() []error
	// Len is always > 0 for a non-nil Errors.
	Len() int

	items() []error
}

type list []error

func (l list) items() []error {
	return []error(l)
}

func (l list) Slice() []error {
	return append([]error(nil), l...)
}

func (l list) Len() int {
	return len(l)
}

func (l list) Error() string {
	var b strings.Builder
	for i, err := range l {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprint(&b, err)
	}
	return b.String()
}

// Append appends the given (possibly nil) error to the given (possibly nil)
// Errors. A nil error leaves errs unchanged; an Errors error is flattened.
func Append(errs Errors, err error) Errors {
	if err == nil {
		return errs
	}

	var out list
	if errs != nil {
		out = list(errs.Slice())
	}
	if multi, ok := err.(Errors); ok {
		return list(append(out, multi.items()...))
	}
	return list(append(out, err))
}

// Combine combines errors e & f into a single error
func Combine(e, f error) error {
	if e == nil {
		return f
	}
	if f == nil {
		return e
	}

	var errs Errors
	if multi, ok := e.(Errors); ok {
		errs = list(multi.Slice())
	} else {
		errs = list{e}
	}
	return Append(errs, f)
}

// Defer is a helper for deferring error-returning cleanup functions
func Defer(err *error, f func() error) {
	*err = Combine(*err, f())
}
