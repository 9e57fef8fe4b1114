package errors

import "fmt"

// IsCode reports whether err carries the given typed code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// CodeOf returns the typed code of err or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// InvalidField builds a validation error with a single field detail.
func InvalidField(field, reason string) *Error {
	return New(CodeValidation, fmt.Sprintf("%s: %s", field, reason)).
		WithDetails(map[string]string{field: reason})
}

// Transition builds a state conflict describing a rejected status change.
func Transition(entity, from, to string) *Error {
	return New(CodeStateConflict, fmt.Sprintf("%s cannot move from %s to %s", entity, from, to)).
		WithDetails(map[string]string{
			"entity": entity,
			"from":   from,
			"to":     to,
		})
}
