package address

import (
	"errors"
	"strings"
)

var (
	ErrInvalidAddress  = errors.New("invalid address")
	ErrAddressNotFound = errors.New("address not found")
)

// ValidationError lists the required fields that were left empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidAddress
}
