package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Field returns an error instance that wraps the original error with
// additional information. It returns `nil` if provided error is `nil`.
// Use this function to create an error instance describing a field/attribute
// error.
//
// Use Go naming for the field name. For example, UserName or MaxAge. When
// the error is for a nested field, use dot notation to construct the path.
// For example, User.Age or User.Name.
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}

	// If this error does not carry the stacktrace information yet, attach
	// one. This should be done only once per error at the lowest frame
	// possible (most inner wrap).
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}

	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}

	return &fieldError{
		parent: err,
		field:  fieldName,
		desc:   description,
	}
}

// AppendField is a shortcut function to club together error(s) with a given
// field error.
func AppendField(errorsOrNil error, fieldName string, fieldErrOrNil error) error {
	return Append(errorsOrNil, Field(fieldName, fieldErrOrNil, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (err *fieldError) Error() string {
	if err.desc == "" {
		return fmt.Sprintf("field %q: %s", err.field, err.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", err.field, err.desc, err.parent)
}

// Cause implements the causer interface.
func (err *fieldError) Cause() error {
	return err.parent
}

// Field implements fielder interface.
func (err *fieldError) Field() string {
	return err.field
}

type fielder interface {
	Field() string
}

// FieldErrors returns the list of all errors that are created for the given
// field name. An error must implement the fielder interface and return a
// matching field name in order to be included in the result.
func FieldErrors(err error, fieldName string) []error {
	if isNilErr(err) {
		return nil
	}

	if multi, ok := err.(*multiError); ok {
		var res []error
		for _, e := range multi.errs {
			res = append(res, FieldErrors(e, fieldName)...)
		}
		return res
	}

	for e := err; e != nil; {
		if f, ok := e.(fielder); ok && f.Field() == fieldName {
			return []error{err}
		}
		if c, ok := e.(causer); ok {
			e = c.Cause()
		} else {
			break
		}
	}
	return nil
}

// Append clubs together all provided errors. Nil values are ignored.
//
// If the given error implements the Is method, all flattened errors are
// tested against the match. This means that a multi error is matching any
// root error that at least one of the contained errors match.
func Append(errs ...error) error {
	var flat []error
	for _, err := range errs {
		if isNilErr(err) {
			continue
		}
		if multi, ok := err.(*multiError); ok {
			flat = append(flat, multi.errs...)
		} else {
			flat = append(flat, err)
		}
	}

	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	default:
		return &multiError{errs: flat}
	}
}

type multiError struct {
	errs []error
}

func (err *multiError) Error() string {
	switch len(err.errs) {
	case 0:
		// This must never happen.
		return "nil"
	case 1:
		return err.errs[0].Error()
	}
	msgs := make([]string, len(err.errs))
	for i, e := range err.errs {
		msgs[i] = fmt.Sprintf("\t* %s", e)
	}
	return fmt.Sprintf("%d errors occurred:\n%s", len(err.errs), strings.Join(msgs, "\n"))
}

func isNilErr(err error) bool {
	return err == nil
}
