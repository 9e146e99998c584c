package errors

import "fmt"

// RecoverPage converts a panic raised by the underlying PDF parser into a
// MalformedPage error stored in *errp. It must be deferred directly.
//
//	defer errors.RecoverPage(pageNum, &err)
func RecoverPage(pageNum int, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	e := NewPDFErrorWithContext(ErrorTypeMalformedPage, "parser failure", fmt.Sprint(r)).WithPage(pageNum)
	if cause, ok := r.(error); ok {
		e.Err = cause
	}
	if *errp == nil {
		*errp = e
	}
}

// RecoverValue runs fn and converts a panic into an error. Used for single
// object lookups where a bad dictionary should not abort the caller.
func RecoverValue[T any](fn func() T) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return fn(), nil
}
