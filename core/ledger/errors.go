package ledger

import (
	"errors"
	"fmt"
)

// Error kinds for the ledger operation taxonomy. Every operation failure wraps
// exactly one of these so callers can map it with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrParse        = errors.New("parse error")
)

// Unauthorizedf wraps ErrUnauthorized with a caller-facing reason.
func Unauthorizedf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrUnauthorized)...)
}

// Validationf wraps ErrValidation with a caller-facing reason.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}

// NotFoundf wraps ErrNotFound with a caller-facing reason.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Parsef wraps ErrParse with a caller-facing reason.
func Parsef(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrParse)...)
}
